package amqp

// Connection class.

// ConnectionStart is sent by the server to begin login. It carries the
// server properties and the SASL mechanisms on offer.
type ConnectionStart struct {
	VersionMajor     uint8
	VersionMinor     uint8
	ServerProperties Table
	Mechanisms       string
	Locales          string
}

func (*ConnectionStart) ID() MethodID { return MethodConnectionStart }

func (m *ConnectionStart) encode(e *encoder) {
	e.u8(m.VersionMajor)
	e.u8(m.VersionMinor)
	e.table(m.ServerProperties)
	e.longstr(m.Mechanisms)
	e.longstr(m.Locales)
}

func (m *ConnectionStart) decode(d *decoder) {
	m.VersionMajor = d.u8()
	m.VersionMinor = d.u8()
	m.ServerProperties = d.table()
	m.Mechanisms = d.longstr()
	m.Locales = d.longstr()
}

// ConnectionStartOk selects a SASL mechanism and carries the client
// properties and the initial response.
type ConnectionStartOk struct {
	ClientProperties Table
	Mechanism        string
	Response         []byte
	Locale           string
}

func (*ConnectionStartOk) ID() MethodID { return MethodConnectionStartOk }

func (m *ConnectionStartOk) encode(e *encoder) {
	e.table(m.ClientProperties)
	e.shortstr(m.Mechanism)
	e.longbytes(m.Response)
	e.shortstr(m.Locale)
}

func (m *ConnectionStartOk) decode(d *decoder) {
	m.ClientProperties = d.table()
	m.Mechanism = d.shortstr()
	m.Response = d.longbytes()
	m.Locale = d.shortstr()
}

// ConnectionSecure is a SASL challenge from the server.
type ConnectionSecure struct {
	Challenge []byte
}

func (*ConnectionSecure) ID() MethodID        { return MethodConnectionSecure }
func (m *ConnectionSecure) encode(e *encoder) { e.longbytes(m.Challenge) }
func (m *ConnectionSecure) decode(d *decoder) { m.Challenge = d.longbytes() }

// ConnectionSecureOk answers a SASL challenge.
type ConnectionSecureOk struct {
	Response []byte
}

func (*ConnectionSecureOk) ID() MethodID        { return MethodConnectionSecureOk }
func (m *ConnectionSecureOk) encode(e *encoder) { e.longbytes(m.Response) }
func (m *ConnectionSecureOk) decode(d *decoder) { m.Response = d.longbytes() }

// ConnectionTune proposes the server's channel-max, frame-max and heartbeat.
type ConnectionTune struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTune) ID() MethodID { return MethodConnectionTune }

func (m *ConnectionTune) encode(e *encoder) {
	e.u16(m.ChannelMax)
	e.u32(m.FrameMax)
	e.u16(m.Heartbeat)
}

func (m *ConnectionTune) decode(d *decoder) {
	m.ChannelMax = d.u16()
	m.FrameMax = d.u32()
	m.Heartbeat = d.u16()
}

// ConnectionTuneOk returns the limits the client settled on.
type ConnectionTuneOk struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTuneOk) ID() MethodID { return MethodConnectionTuneOk }

func (m *ConnectionTuneOk) encode(e *encoder) {
	e.u16(m.ChannelMax)
	e.u32(m.FrameMax)
	e.u16(m.Heartbeat)
}

func (m *ConnectionTuneOk) decode(d *decoder) {
	m.ChannelMax = d.u16()
	m.FrameMax = d.u32()
	m.Heartbeat = d.u16()
}

// ConnectionOpen selects the virtual host.
type ConnectionOpen struct {
	VirtualHost  string
	Capabilities string
	Insist       bool
}

func (*ConnectionOpen) ID() MethodID { return MethodConnectionOpen }

func (m *ConnectionOpen) encode(e *encoder) {
	e.shortstr(m.VirtualHost)
	e.shortstr(m.Capabilities)
	e.u8(packBits(m.Insist))
}

func (m *ConnectionOpen) decode(d *decoder) {
	m.VirtualHost = d.shortstr()
	m.Capabilities = d.shortstr()
	m.Insist = bitAt(d.u8(), 0)
}

// ConnectionOpenOk confirms the virtual host is open.
type ConnectionOpenOk struct {
	KnownHosts string
}

func (*ConnectionOpenOk) ID() MethodID        { return MethodConnectionOpenOk }
func (m *ConnectionOpenOk) encode(e *encoder) { e.shortstr(m.KnownHosts) }
func (m *ConnectionOpenOk) decode(d *decoder) { m.KnownHosts = d.shortstr() }

// ConnectionClose closes the connection. ClassID and MethodID name the
// method that caused it, if any.
type ConnectionClose struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
}

func (*ConnectionClose) ID() MethodID { return MethodConnectionClose }

func (m *ConnectionClose) encode(e *encoder) {
	e.u16(m.ReplyCode)
	e.shortstr(m.ReplyText)
	e.u16(m.ClassID)
	e.u16(m.MethodID)
}

func (m *ConnectionClose) decode(d *decoder) {
	m.ReplyCode = d.u16()
	m.ReplyText = d.shortstr()
	m.ClassID = d.u16()
	m.MethodID = d.u16()
}

// ConnectionCloseOk confirms a connection.close.
type ConnectionCloseOk struct{}

func (*ConnectionCloseOk) ID() MethodID      { return MethodConnectionCloseOk }
func (*ConnectionCloseOk) encode(e *encoder) {}
func (*ConnectionCloseOk) decode(d *decoder) {}

// ConnectionBlocked is sent by RabbitMQ when it stops reading from
// publishers because of a resource alarm.
type ConnectionBlocked struct {
	Reason string
}

func (*ConnectionBlocked) ID() MethodID        { return MethodConnectionBlocked }
func (m *ConnectionBlocked) encode(e *encoder) { e.shortstr(m.Reason) }
func (m *ConnectionBlocked) decode(d *decoder) { m.Reason = d.shortstr() }

// ConnectionUnblocked ends a ConnectionBlocked period.
type ConnectionUnblocked struct{}

func (*ConnectionUnblocked) ID() MethodID      { return MethodConnectionUnblocked }
func (*ConnectionUnblocked) encode(e *encoder) {}
func (*ConnectionUnblocked) decode(d *decoder) {}

// ConnectionUpdateSecret replaces the credentials of an open connection.
type ConnectionUpdateSecret struct {
	NewSecret []byte
	Reason    string
}

func (*ConnectionUpdateSecret) ID() MethodID { return MethodConnectionUpdateSecret }

func (m *ConnectionUpdateSecret) encode(e *encoder) {
	e.longbytes(m.NewSecret)
	e.shortstr(m.Reason)
}

func (m *ConnectionUpdateSecret) decode(d *decoder) {
	m.NewSecret = d.longbytes()
	m.Reason = d.shortstr()
}

// ConnectionUpdateSecretOk confirms a secret update.
type ConnectionUpdateSecretOk struct{}

func (*ConnectionUpdateSecretOk) ID() MethodID      { return MethodConnectionUpdateSecretOk }
func (*ConnectionUpdateSecretOk) encode(e *encoder) {}
func (*ConnectionUpdateSecretOk) decode(d *decoder) {}

// Channel class.

// ChannelOpen opens a channel.
type ChannelOpen struct {
	OutOfBand string
}

func (*ChannelOpen) ID() MethodID        { return MethodChannelOpen }
func (m *ChannelOpen) encode(e *encoder) { e.shortstr(m.OutOfBand) }
func (m *ChannelOpen) decode(d *decoder) { m.OutOfBand = d.shortstr() }

// ChannelOpenOk confirms a channel.open.
type ChannelOpenOk struct {
	ChannelID []byte
}

func (*ChannelOpenOk) ID() MethodID        { return MethodChannelOpenOk }
func (m *ChannelOpenOk) encode(e *encoder) { e.longbytes(m.ChannelID) }
func (m *ChannelOpenOk) decode(d *decoder) { m.ChannelID = d.longbytes() }

// ChannelFlow pauses or resumes content delivery on a channel.
type ChannelFlow struct {
	Active bool
}

func (*ChannelFlow) ID() MethodID        { return MethodChannelFlow }
func (m *ChannelFlow) encode(e *encoder) { e.u8(packBits(m.Active)) }
func (m *ChannelFlow) decode(d *decoder) { m.Active = bitAt(d.u8(), 0) }

// ChannelFlowOk confirms a channel.flow.
type ChannelFlowOk struct {
	Active bool
}

func (*ChannelFlowOk) ID() MethodID        { return MethodChannelFlowOk }
func (m *ChannelFlowOk) encode(e *encoder) { e.u8(packBits(m.Active)) }
func (m *ChannelFlowOk) decode(d *decoder) { m.Active = bitAt(d.u8(), 0) }

// ChannelClose closes a channel. A server-sent close carries the error code.
type ChannelClose struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
}

func (*ChannelClose) ID() MethodID { return MethodChannelClose }

func (m *ChannelClose) encode(e *encoder) {
	e.u16(m.ReplyCode)
	e.shortstr(m.ReplyText)
	e.u16(m.ClassID)
	e.u16(m.MethodID)
}

func (m *ChannelClose) decode(d *decoder) {
	m.ReplyCode = d.u16()
	m.ReplyText = d.shortstr()
	m.ClassID = d.u16()
	m.MethodID = d.u16()
}

// ChannelCloseOk confirms a channel.close.
type ChannelCloseOk struct{}

func (*ChannelCloseOk) ID() MethodID      { return MethodChannelCloseOk }
func (*ChannelCloseOk) encode(e *encoder) {}
func (*ChannelCloseOk) decode(d *decoder) {}

// Access class. Deprecated by the 0-9-1 protocol but still decoded.

// AccessRequest requests an access ticket for a realm.
type AccessRequest struct {
	Realm     string
	Exclusive bool
	Passive   bool
	Active    bool
	Write     bool
	Read      bool
}

func (*AccessRequest) ID() MethodID { return MethodAccessRequest }

func (m *AccessRequest) encode(e *encoder) {
	e.shortstr(m.Realm)
	e.u8(packBits(m.Exclusive, m.Passive, m.Active, m.Write, m.Read))
}

func (m *AccessRequest) decode(d *decoder) {
	m.Realm = d.shortstr()
	bits := d.u8()
	m.Exclusive = bitAt(bits, 0)
	m.Passive = bitAt(bits, 1)
	m.Active = bitAt(bits, 2)
	m.Write = bitAt(bits, 3)
	m.Read = bitAt(bits, 4)
}

// AccessRequestOk returns the access ticket.
type AccessRequestOk struct {
	Ticket uint16
}

func (*AccessRequestOk) ID() MethodID        { return MethodAccessRequestOk }
func (m *AccessRequestOk) encode(e *encoder) { e.u16(m.Ticket) }
func (m *AccessRequestOk) decode(d *decoder) { m.Ticket = d.u16() }

// Exchange class.

// ExchangeDeclare creates an exchange, or checks that it exists when Passive
// is set.
type ExchangeDeclare struct {
	Ticket     uint16
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  Table
}

func (*ExchangeDeclare) ID() MethodID { return MethodExchangeDeclare }

func (m *ExchangeDeclare) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Exchange)
	e.shortstr(m.Type)
	e.u8(packBits(m.Passive, m.Durable, m.AutoDelete, m.Internal, m.NoWait))
	e.table(m.Arguments)
}

func (m *ExchangeDeclare) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Exchange = d.shortstr()
	m.Type = d.shortstr()
	bits := d.u8()
	m.Passive = bitAt(bits, 0)
	m.Durable = bitAt(bits, 1)
	m.AutoDelete = bitAt(bits, 2)
	m.Internal = bitAt(bits, 3)
	m.NoWait = bitAt(bits, 4)
	m.Arguments = d.table()
}

// ExchangeDeclareOk confirms an exchange.declare.
type ExchangeDeclareOk struct{}

func (*ExchangeDeclareOk) ID() MethodID      { return MethodExchangeDeclareOk }
func (*ExchangeDeclareOk) encode(e *encoder) {}
func (*ExchangeDeclareOk) decode(d *decoder) {}

// ExchangeDelete deletes an exchange.
type ExchangeDelete struct {
	Ticket   uint16
	Exchange string
	IfUnused bool
	NoWait   bool
}

func (*ExchangeDelete) ID() MethodID { return MethodExchangeDelete }

func (m *ExchangeDelete) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Exchange)
	e.u8(packBits(m.IfUnused, m.NoWait))
}

func (m *ExchangeDelete) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Exchange = d.shortstr()
	bits := d.u8()
	m.IfUnused = bitAt(bits, 0)
	m.NoWait = bitAt(bits, 1)
}

// ExchangeDeleteOk confirms an exchange.delete.
type ExchangeDeleteOk struct{}

func (*ExchangeDeleteOk) ID() MethodID      { return MethodExchangeDeleteOk }
func (*ExchangeDeleteOk) encode(e *encoder) {}
func (*ExchangeDeleteOk) decode(d *decoder) {}

// ExchangeBind binds Destination to Source.
type ExchangeBind struct {
	Ticket      uint16
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (*ExchangeBind) ID() MethodID { return MethodExchangeBind }

func (m *ExchangeBind) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Destination)
	e.shortstr(m.Source)
	e.shortstr(m.RoutingKey)
	e.u8(packBits(m.NoWait))
	e.table(m.Arguments)
}

func (m *ExchangeBind) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Destination = d.shortstr()
	m.Source = d.shortstr()
	m.RoutingKey = d.shortstr()
	m.NoWait = bitAt(d.u8(), 0)
	m.Arguments = d.table()
}

// ExchangeBindOk confirms an exchange.bind.
type ExchangeBindOk struct{}

func (*ExchangeBindOk) ID() MethodID      { return MethodExchangeBindOk }
func (*ExchangeBindOk) encode(e *encoder) {}
func (*ExchangeBindOk) decode(d *decoder) {}

// ExchangeUnbind removes an exchange-to-exchange binding.
type ExchangeUnbind struct {
	Ticket      uint16
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (*ExchangeUnbind) ID() MethodID { return MethodExchangeUnbind }

func (m *ExchangeUnbind) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Destination)
	e.shortstr(m.Source)
	e.shortstr(m.RoutingKey)
	e.u8(packBits(m.NoWait))
	e.table(m.Arguments)
}

func (m *ExchangeUnbind) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Destination = d.shortstr()
	m.Source = d.shortstr()
	m.RoutingKey = d.shortstr()
	m.NoWait = bitAt(d.u8(), 0)
	m.Arguments = d.table()
}

// ExchangeUnbindOk confirms an exchange.unbind.
type ExchangeUnbindOk struct{}

func (*ExchangeUnbindOk) ID() MethodID      { return MethodExchangeUnbindOk }
func (*ExchangeUnbindOk) encode(e *encoder) {}
func (*ExchangeUnbindOk) decode(d *decoder) {}

// Queue class.

// QueueDeclare creates a queue, or checks that it exists when Passive is
// set.
type QueueDeclare struct {
	Ticket     uint16
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  Table
}

func (*QueueDeclare) ID() MethodID { return MethodQueueDeclare }

func (m *QueueDeclare) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Queue)
	e.u8(packBits(m.Passive, m.Durable, m.Exclusive, m.AutoDelete, m.NoWait))
	e.table(m.Arguments)
}

func (m *QueueDeclare) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Queue = d.shortstr()
	bits := d.u8()
	m.Passive = bitAt(bits, 0)
	m.Durable = bitAt(bits, 1)
	m.Exclusive = bitAt(bits, 2)
	m.AutoDelete = bitAt(bits, 3)
	m.NoWait = bitAt(bits, 4)
	m.Arguments = d.table()
}

// QueueDeclareOk returns the queue name and its message and consumer counts.
type QueueDeclareOk struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func (*QueueDeclareOk) ID() MethodID { return MethodQueueDeclareOk }

func (m *QueueDeclareOk) encode(e *encoder) {
	e.shortstr(m.Queue)
	e.u32(m.MessageCount)
	e.u32(m.ConsumerCount)
}

func (m *QueueDeclareOk) decode(d *decoder) {
	m.Queue = d.shortstr()
	m.MessageCount = d.u32()
	m.ConsumerCount = d.u32()
}

// QueueBind binds a queue to an exchange.
type QueueBind struct {
	Ticket     uint16
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  Table
}

func (*QueueBind) ID() MethodID { return MethodQueueBind }

func (m *QueueBind) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Queue)
	e.shortstr(m.Exchange)
	e.shortstr(m.RoutingKey)
	e.u8(packBits(m.NoWait))
	e.table(m.Arguments)
}

func (m *QueueBind) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Queue = d.shortstr()
	m.Exchange = d.shortstr()
	m.RoutingKey = d.shortstr()
	m.NoWait = bitAt(d.u8(), 0)
	m.Arguments = d.table()
}

// QueueBindOk confirms a queue.bind.
type QueueBindOk struct{}

func (*QueueBindOk) ID() MethodID      { return MethodQueueBindOk }
func (*QueueBindOk) encode(e *encoder) {}
func (*QueueBindOk) decode(d *decoder) {}

// QueuePurge removes every ready message from a queue.
type QueuePurge struct {
	Ticket uint16
	Queue  string
	NoWait bool
}

func (*QueuePurge) ID() MethodID { return MethodQueuePurge }

func (m *QueuePurge) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Queue)
	e.u8(packBits(m.NoWait))
}

func (m *QueuePurge) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Queue = d.shortstr()
	m.NoWait = bitAt(d.u8(), 0)
}

// QueuePurgeOk returns the number of purged messages.
type QueuePurgeOk struct {
	MessageCount uint32
}

func (*QueuePurgeOk) ID() MethodID        { return MethodQueuePurgeOk }
func (m *QueuePurgeOk) encode(e *encoder) { e.u32(m.MessageCount) }
func (m *QueuePurgeOk) decode(d *decoder) { m.MessageCount = d.u32() }

// QueueDelete deletes a queue.
type QueueDelete struct {
	Ticket   uint16
	Queue    string
	IfUnused bool
	IfEmpty  bool
	NoWait   bool
}

func (*QueueDelete) ID() MethodID { return MethodQueueDelete }

func (m *QueueDelete) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Queue)
	e.u8(packBits(m.IfUnused, m.IfEmpty, m.NoWait))
}

func (m *QueueDelete) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Queue = d.shortstr()
	bits := d.u8()
	m.IfUnused = bitAt(bits, 0)
	m.IfEmpty = bitAt(bits, 1)
	m.NoWait = bitAt(bits, 2)
}

// QueueDeleteOk returns the number of messages deleted with the queue.
type QueueDeleteOk struct {
	MessageCount uint32
}

func (*QueueDeleteOk) ID() MethodID        { return MethodQueueDeleteOk }
func (m *QueueDeleteOk) encode(e *encoder) { e.u32(m.MessageCount) }
func (m *QueueDeleteOk) decode(d *decoder) { m.MessageCount = d.u32() }

// QueueUnbind removes a queue binding.
type QueueUnbind struct {
	Ticket     uint16
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  Table
}

func (*QueueUnbind) ID() MethodID { return MethodQueueUnbind }

func (m *QueueUnbind) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Queue)
	e.shortstr(m.Exchange)
	e.shortstr(m.RoutingKey)
	e.table(m.Arguments)
}

func (m *QueueUnbind) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Queue = d.shortstr()
	m.Exchange = d.shortstr()
	m.RoutingKey = d.shortstr()
	m.Arguments = d.table()
}

// QueueUnbindOk confirms a queue.unbind.
type QueueUnbindOk struct{}

func (*QueueUnbindOk) ID() MethodID      { return MethodQueueUnbindOk }
func (*QueueUnbindOk) encode(e *encoder) {}
func (*QueueUnbindOk) decode(d *decoder) {}

// Basic class.

// BasicQos sets the prefetch window.
type BasicQos struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (*BasicQos) ID() MethodID { return MethodBasicQos }

func (m *BasicQos) encode(e *encoder) {
	e.u32(m.PrefetchSize)
	e.u16(m.PrefetchCount)
	e.u8(packBits(m.Global))
}

func (m *BasicQos) decode(d *decoder) {
	m.PrefetchSize = d.u32()
	m.PrefetchCount = d.u16()
	m.Global = bitAt(d.u8(), 0)
}

// BasicQosOk confirms a basic.qos.
type BasicQosOk struct{}

func (*BasicQosOk) ID() MethodID      { return MethodBasicQosOk }
func (*BasicQosOk) encode(e *encoder) {}
func (*BasicQosOk) decode(d *decoder) {}

// BasicConsume starts a consumer.
type BasicConsume struct {
	Ticket      uint16
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   Table
}

func (*BasicConsume) ID() MethodID { return MethodBasicConsume }

func (m *BasicConsume) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Queue)
	e.shortstr(m.ConsumerTag)
	e.u8(packBits(m.NoLocal, m.NoAck, m.Exclusive, m.NoWait))
	e.table(m.Arguments)
}

func (m *BasicConsume) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Queue = d.shortstr()
	m.ConsumerTag = d.shortstr()
	bits := d.u8()
	m.NoLocal = bitAt(bits, 0)
	m.NoAck = bitAt(bits, 1)
	m.Exclusive = bitAt(bits, 2)
	m.NoWait = bitAt(bits, 3)
	m.Arguments = d.table()
}

// BasicConsumeOk returns the consumer tag.
type BasicConsumeOk struct {
	ConsumerTag string
}

func (*BasicConsumeOk) ID() MethodID        { return MethodBasicConsumeOk }
func (m *BasicConsumeOk) encode(e *encoder) { e.shortstr(m.ConsumerTag) }
func (m *BasicConsumeOk) decode(d *decoder) { m.ConsumerTag = d.shortstr() }

// BasicCancel ends a consumer. RabbitMQ also sends it when a consumed queue
// goes away.
type BasicCancel struct {
	ConsumerTag string
	NoWait      bool
}

func (*BasicCancel) ID() MethodID { return MethodBasicCancel }

func (m *BasicCancel) encode(e *encoder) {
	e.shortstr(m.ConsumerTag)
	e.u8(packBits(m.NoWait))
}

func (m *BasicCancel) decode(d *decoder) {
	m.ConsumerTag = d.shortstr()
	m.NoWait = bitAt(d.u8(), 0)
}

// BasicCancelOk confirms a basic.cancel.
type BasicCancelOk struct {
	ConsumerTag string
}

func (*BasicCancelOk) ID() MethodID        { return MethodBasicCancelOk }
func (m *BasicCancelOk) encode(e *encoder) { e.shortstr(m.ConsumerTag) }
func (m *BasicCancelOk) decode(d *decoder) { m.ConsumerTag = d.shortstr() }

// BasicPublish publishes a message. A content header and body frames follow
// it.
type BasicPublish struct {
	Ticket     uint16
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (*BasicPublish) ID() MethodID { return MethodBasicPublish }

func (m *BasicPublish) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Exchange)
	e.shortstr(m.RoutingKey)
	e.u8(packBits(m.Mandatory, m.Immediate))
}

func (m *BasicPublish) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Exchange = d.shortstr()
	m.RoutingKey = d.shortstr()
	bits := d.u8()
	m.Mandatory = bitAt(bits, 0)
	m.Immediate = bitAt(bits, 1)
}

// BasicReturn returns an unroutable mandatory or immediate message. Content
// follows.
type BasicReturn struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (*BasicReturn) ID() MethodID { return MethodBasicReturn }

func (m *BasicReturn) encode(e *encoder) {
	e.u16(m.ReplyCode)
	e.shortstr(m.ReplyText)
	e.shortstr(m.Exchange)
	e.shortstr(m.RoutingKey)
}

func (m *BasicReturn) decode(d *decoder) {
	m.ReplyCode = d.u16()
	m.ReplyText = d.shortstr()
	m.Exchange = d.shortstr()
	m.RoutingKey = d.shortstr()
}

// BasicDeliver delivers a message to a consumer. Content follows.
type BasicDeliver struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func (*BasicDeliver) ID() MethodID { return MethodBasicDeliver }

func (m *BasicDeliver) encode(e *encoder) {
	e.shortstr(m.ConsumerTag)
	e.u64(m.DeliveryTag)
	e.u8(packBits(m.Redelivered))
	e.shortstr(m.Exchange)
	e.shortstr(m.RoutingKey)
}

func (m *BasicDeliver) decode(d *decoder) {
	m.ConsumerTag = d.shortstr()
	m.DeliveryTag = d.u64()
	m.Redelivered = bitAt(d.u8(), 0)
	m.Exchange = d.shortstr()
	m.RoutingKey = d.shortstr()
}

// BasicGet fetches one message from a queue.
type BasicGet struct {
	Ticket uint16
	Queue  string
	NoAck  bool
}

func (*BasicGet) ID() MethodID { return MethodBasicGet }

func (m *BasicGet) encode(e *encoder) {
	e.u16(m.Ticket)
	e.shortstr(m.Queue)
	e.u8(packBits(m.NoAck))
}

func (m *BasicGet) decode(d *decoder) {
	m.Ticket = d.u16()
	m.Queue = d.shortstr()
	m.NoAck = bitAt(d.u8(), 0)
}

// BasicGetOk carries the fetched message. Content follows.
type BasicGetOk struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func (*BasicGetOk) ID() MethodID { return MethodBasicGetOk }

func (m *BasicGetOk) encode(e *encoder) {
	e.u64(m.DeliveryTag)
	e.u8(packBits(m.Redelivered))
	e.shortstr(m.Exchange)
	e.shortstr(m.RoutingKey)
	e.u32(m.MessageCount)
}

func (m *BasicGetOk) decode(d *decoder) {
	m.DeliveryTag = d.u64()
	m.Redelivered = bitAt(d.u8(), 0)
	m.Exchange = d.shortstr()
	m.RoutingKey = d.shortstr()
	m.MessageCount = d.u32()
}

// BasicGetEmpty reports that basic.get found the queue empty.
type BasicGetEmpty struct {
	ClusterID string
}

func (*BasicGetEmpty) ID() MethodID        { return MethodBasicGetEmpty }
func (m *BasicGetEmpty) encode(e *encoder) { e.shortstr(m.ClusterID) }
func (m *BasicGetEmpty) decode(d *decoder) { m.ClusterID = d.shortstr() }

// BasicAck acknowledges deliveries. In confirm mode the server sends it for
// published messages.
type BasicAck struct {
	DeliveryTag uint64
	Multiple    bool
}

func (*BasicAck) ID() MethodID { return MethodBasicAck }

func (m *BasicAck) encode(e *encoder) {
	e.u64(m.DeliveryTag)
	e.u8(packBits(m.Multiple))
}

func (m *BasicAck) decode(d *decoder) {
	m.DeliveryTag = d.u64()
	m.Multiple = bitAt(d.u8(), 0)
}

// BasicReject rejects a single delivery.
type BasicReject struct {
	DeliveryTag uint64
	Requeue     bool
}

func (*BasicReject) ID() MethodID { return MethodBasicReject }

func (m *BasicReject) encode(e *encoder) {
	e.u64(m.DeliveryTag)
	e.u8(packBits(m.Requeue))
}

func (m *BasicReject) decode(d *decoder) {
	m.DeliveryTag = d.u64()
	m.Requeue = bitAt(d.u8(), 0)
}

// BasicRecoverAsync is the deprecated asynchronous form of basic.recover.
type BasicRecoverAsync struct {
	Requeue bool
}

func (*BasicRecoverAsync) ID() MethodID        { return MethodBasicRecoverAsync }
func (m *BasicRecoverAsync) encode(e *encoder) { e.u8(packBits(m.Requeue)) }
func (m *BasicRecoverAsync) decode(d *decoder) { m.Requeue = bitAt(d.u8(), 0) }

// BasicRecover redelivers unacknowledged messages.
type BasicRecover struct {
	Requeue bool
}

func (*BasicRecover) ID() MethodID        { return MethodBasicRecover }
func (m *BasicRecover) encode(e *encoder) { e.u8(packBits(m.Requeue)) }
func (m *BasicRecover) decode(d *decoder) { m.Requeue = bitAt(d.u8(), 0) }

// BasicRecoverOk confirms a basic.recover.
type BasicRecoverOk struct{}

func (*BasicRecoverOk) ID() MethodID      { return MethodBasicRecoverOk }
func (*BasicRecoverOk) encode(e *encoder) {}
func (*BasicRecoverOk) decode(d *decoder) {}

// BasicNack rejects one or more deliveries.
type BasicNack struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (*BasicNack) ID() MethodID { return MethodBasicNack }

func (m *BasicNack) encode(e *encoder) {
	e.u64(m.DeliveryTag)
	e.u8(packBits(m.Multiple, m.Requeue))
}

func (m *BasicNack) decode(d *decoder) {
	m.DeliveryTag = d.u64()
	bits := d.u8()
	m.Multiple = bitAt(bits, 0)
	m.Requeue = bitAt(bits, 1)
}

// Confirm class.

// ConfirmSelect enables publisher confirms.
type ConfirmSelect struct {
	NoWait bool
}

func (*ConfirmSelect) ID() MethodID        { return MethodConfirmSelect }
func (m *ConfirmSelect) encode(e *encoder) { e.u8(packBits(m.NoWait)) }
func (m *ConfirmSelect) decode(d *decoder) { m.NoWait = bitAt(d.u8(), 0) }

// ConfirmSelectOk confirms a confirm.select.
type ConfirmSelectOk struct{}

func (*ConfirmSelectOk) ID() MethodID      { return MethodConfirmSelectOk }
func (*ConfirmSelectOk) encode(e *encoder) {}
func (*ConfirmSelectOk) decode(d *decoder) {}

// Tx class.

// TxSelect enables transactions on a channel.
type TxSelect struct{}

func (*TxSelect) ID() MethodID      { return MethodTxSelect }
func (*TxSelect) encode(e *encoder) {}
func (*TxSelect) decode(d *decoder) {}

// TxSelectOk confirms a tx.select.
type TxSelectOk struct{}

func (*TxSelectOk) ID() MethodID      { return MethodTxSelectOk }
func (*TxSelectOk) encode(e *encoder) {}
func (*TxSelectOk) decode(d *decoder) {}

// TxCommit commits the current transaction.
type TxCommit struct{}

func (*TxCommit) ID() MethodID      { return MethodTxCommit }
func (*TxCommit) encode(e *encoder) {}
func (*TxCommit) decode(d *decoder) {}

// TxCommitOk confirms a tx.commit.
type TxCommitOk struct{}

func (*TxCommitOk) ID() MethodID      { return MethodTxCommitOk }
func (*TxCommitOk) encode(e *encoder) {}
func (*TxCommitOk) decode(d *decoder) {}

// TxRollback abandons the current transaction.
type TxRollback struct{}

func (*TxRollback) ID() MethodID      { return MethodTxRollback }
func (*TxRollback) encode(e *encoder) {}
func (*TxRollback) decode(d *decoder) {}

// TxRollbackOk confirms a tx.rollback.
type TxRollbackOk struct{}

func (*TxRollbackOk) ID() MethodID      { return MethodTxRollbackOk }
func (*TxRollbackOk) encode(e *encoder) {}
func (*TxRollbackOk) decode(d *decoder) {}
