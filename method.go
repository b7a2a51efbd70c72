package amqp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Class ids.
const (
	ClassConnection uint16 = 10
	ClassChannel    uint16 = 20
	ClassAccess     uint16 = 30
	ClassExchange   uint16 = 40
	ClassQueue      uint16 = 50
	ClassBasic      uint16 = 60
	ClassConfirm    uint16 = 85
	ClassTx         uint16 = 90
)

// MethodID is the class id in the upper 16 bits and the method index in the
// lower 16 bits, as sent on the wire.
type MethodID uint32

// Method ids.
const (
	MethodConnectionStart          MethodID = 0x000A000A
	MethodConnectionStartOk        MethodID = 0x000A000B
	MethodConnectionSecure         MethodID = 0x000A0014
	MethodConnectionSecureOk       MethodID = 0x000A0015
	MethodConnectionTune           MethodID = 0x000A001E
	MethodConnectionTuneOk         MethodID = 0x000A001F
	MethodConnectionOpen           MethodID = 0x000A0028
	MethodConnectionOpenOk         MethodID = 0x000A0029
	MethodConnectionClose          MethodID = 0x000A0032
	MethodConnectionCloseOk        MethodID = 0x000A0033
	MethodConnectionBlocked        MethodID = 0x000A003C
	MethodConnectionUnblocked      MethodID = 0x000A003D
	MethodConnectionUpdateSecret   MethodID = 0x000A0046
	MethodConnectionUpdateSecretOk MethodID = 0x000A0047

	MethodChannelOpen    MethodID = 0x0014000A
	MethodChannelOpenOk  MethodID = 0x0014000B
	MethodChannelFlow    MethodID = 0x00140014
	MethodChannelFlowOk  MethodID = 0x00140015
	MethodChannelClose   MethodID = 0x00140028
	MethodChannelCloseOk MethodID = 0x00140029

	MethodAccessRequest   MethodID = 0x001E000A
	MethodAccessRequestOk MethodID = 0x001E000B

	MethodExchangeDeclare   MethodID = 0x0028000A
	MethodExchangeDeclareOk MethodID = 0x0028000B
	MethodExchangeDelete    MethodID = 0x00280014
	MethodExchangeDeleteOk  MethodID = 0x00280015
	MethodExchangeBind      MethodID = 0x0028001E
	MethodExchangeBindOk    MethodID = 0x0028001F
	MethodExchangeUnbind    MethodID = 0x00280028
	MethodExchangeUnbindOk  MethodID = 0x00280033

	MethodQueueDeclare   MethodID = 0x0032000A
	MethodQueueDeclareOk MethodID = 0x0032000B
	MethodQueueBind      MethodID = 0x00320014
	MethodQueueBindOk    MethodID = 0x00320015
	MethodQueuePurge     MethodID = 0x0032001E
	MethodQueuePurgeOk   MethodID = 0x0032001F
	MethodQueueDelete    MethodID = 0x00320028
	MethodQueueDeleteOk  MethodID = 0x00320029
	MethodQueueUnbind    MethodID = 0x00320032
	MethodQueueUnbindOk  MethodID = 0x00320033

	MethodBasicQos          MethodID = 0x003C000A
	MethodBasicQosOk        MethodID = 0x003C000B
	MethodBasicConsume      MethodID = 0x003C0014
	MethodBasicConsumeOk    MethodID = 0x003C0015
	MethodBasicCancel       MethodID = 0x003C001E
	MethodBasicCancelOk     MethodID = 0x003C001F
	MethodBasicPublish      MethodID = 0x003C0028
	MethodBasicReturn       MethodID = 0x003C0032
	MethodBasicDeliver      MethodID = 0x003C003C
	MethodBasicGet          MethodID = 0x003C0046
	MethodBasicGetOk        MethodID = 0x003C0047
	MethodBasicGetEmpty     MethodID = 0x003C0048
	MethodBasicAck          MethodID = 0x003C0050
	MethodBasicReject       MethodID = 0x003C005A
	MethodBasicRecoverAsync MethodID = 0x003C0064
	MethodBasicRecover      MethodID = 0x003C006E
	MethodBasicRecoverOk    MethodID = 0x003C006F
	MethodBasicNack         MethodID = 0x003C0078

	MethodConfirmSelect   MethodID = 0x0055000A
	MethodConfirmSelectOk MethodID = 0x0055000B

	MethodTxSelect     MethodID = 0x005A000A
	MethodTxSelectOk   MethodID = 0x005A000B
	MethodTxCommit     MethodID = 0x005A0014
	MethodTxCommitOk   MethodID = 0x005A0015
	MethodTxRollback   MethodID = 0x005A001E
	MethodTxRollbackOk MethodID = 0x005A001F
)

// Class returns the class id half of the method id.
func (id MethodID) Class() uint16 {
	return uint16(id >> 16)
}

// Index returns the method index within its class.
func (id MethodID) Index() uint16 {
	return uint16(id)
}

func (id MethodID) String() string {
	if info, ok := methods[id]; ok {
		return info.name
	}
	return fmt.Sprintf("method(%d.%d)", id.Class(), id.Index())
}

// HasContent reports whether the method is followed by a content header and
// body frames.
func (id MethodID) HasContent() bool {
	switch id {
	case MethodBasicPublish, MethodBasicReturn, MethodBasicDeliver, MethodBasicGetOk:
		return true
	}
	return false
}

// Method is a decoded method frame payload.
type Method interface {
	ID() MethodID
	encode(e *encoder)
	decode(d *decoder)
}

type methodInfo struct {
	name string
	new  func() Method
}

var methods = map[MethodID]methodInfo{
	MethodConnectionStart:          {"connection.start", func() Method { return new(ConnectionStart) }},
	MethodConnectionStartOk:        {"connection.start-ok", func() Method { return new(ConnectionStartOk) }},
	MethodConnectionSecure:         {"connection.secure", func() Method { return new(ConnectionSecure) }},
	MethodConnectionSecureOk:       {"connection.secure-ok", func() Method { return new(ConnectionSecureOk) }},
	MethodConnectionTune:           {"connection.tune", func() Method { return new(ConnectionTune) }},
	MethodConnectionTuneOk:         {"connection.tune-ok", func() Method { return new(ConnectionTuneOk) }},
	MethodConnectionOpen:           {"connection.open", func() Method { return new(ConnectionOpen) }},
	MethodConnectionOpenOk:         {"connection.open-ok", func() Method { return new(ConnectionOpenOk) }},
	MethodConnectionClose:          {"connection.close", func() Method { return new(ConnectionClose) }},
	MethodConnectionCloseOk:        {"connection.close-ok", func() Method { return new(ConnectionCloseOk) }},
	MethodConnectionBlocked:        {"connection.blocked", func() Method { return new(ConnectionBlocked) }},
	MethodConnectionUnblocked:      {"connection.unblocked", func() Method { return new(ConnectionUnblocked) }},
	MethodConnectionUpdateSecret:   {"connection.update-secret", func() Method { return new(ConnectionUpdateSecret) }},
	MethodConnectionUpdateSecretOk: {"connection.update-secret-ok", func() Method { return new(ConnectionUpdateSecretOk) }},

	MethodChannelOpen:    {"channel.open", func() Method { return new(ChannelOpen) }},
	MethodChannelOpenOk:  {"channel.open-ok", func() Method { return new(ChannelOpenOk) }},
	MethodChannelFlow:    {"channel.flow", func() Method { return new(ChannelFlow) }},
	MethodChannelFlowOk:  {"channel.flow-ok", func() Method { return new(ChannelFlowOk) }},
	MethodChannelClose:   {"channel.close", func() Method { return new(ChannelClose) }},
	MethodChannelCloseOk: {"channel.close-ok", func() Method { return new(ChannelCloseOk) }},

	MethodAccessRequest:   {"access.request", func() Method { return new(AccessRequest) }},
	MethodAccessRequestOk: {"access.request-ok", func() Method { return new(AccessRequestOk) }},

	MethodExchangeDeclare:   {"exchange.declare", func() Method { return new(ExchangeDeclare) }},
	MethodExchangeDeclareOk: {"exchange.declare-ok", func() Method { return new(ExchangeDeclareOk) }},
	MethodExchangeDelete:    {"exchange.delete", func() Method { return new(ExchangeDelete) }},
	MethodExchangeDeleteOk:  {"exchange.delete-ok", func() Method { return new(ExchangeDeleteOk) }},
	MethodExchangeBind:      {"exchange.bind", func() Method { return new(ExchangeBind) }},
	MethodExchangeBindOk:    {"exchange.bind-ok", func() Method { return new(ExchangeBindOk) }},
	MethodExchangeUnbind:    {"exchange.unbind", func() Method { return new(ExchangeUnbind) }},
	MethodExchangeUnbindOk:  {"exchange.unbind-ok", func() Method { return new(ExchangeUnbindOk) }},

	MethodQueueDeclare:   {"queue.declare", func() Method { return new(QueueDeclare) }},
	MethodQueueDeclareOk: {"queue.declare-ok", func() Method { return new(QueueDeclareOk) }},
	MethodQueueBind:      {"queue.bind", func() Method { return new(QueueBind) }},
	MethodQueueBindOk:    {"queue.bind-ok", func() Method { return new(QueueBindOk) }},
	MethodQueuePurge:     {"queue.purge", func() Method { return new(QueuePurge) }},
	MethodQueuePurgeOk:   {"queue.purge-ok", func() Method { return new(QueuePurgeOk) }},
	MethodQueueDelete:    {"queue.delete", func() Method { return new(QueueDelete) }},
	MethodQueueDeleteOk:  {"queue.delete-ok", func() Method { return new(QueueDeleteOk) }},
	MethodQueueUnbind:    {"queue.unbind", func() Method { return new(QueueUnbind) }},
	MethodQueueUnbindOk:  {"queue.unbind-ok", func() Method { return new(QueueUnbindOk) }},

	MethodBasicQos:          {"basic.qos", func() Method { return new(BasicQos) }},
	MethodBasicQosOk:        {"basic.qos-ok", func() Method { return new(BasicQosOk) }},
	MethodBasicConsume:      {"basic.consume", func() Method { return new(BasicConsume) }},
	MethodBasicConsumeOk:    {"basic.consume-ok", func() Method { return new(BasicConsumeOk) }},
	MethodBasicCancel:       {"basic.cancel", func() Method { return new(BasicCancel) }},
	MethodBasicCancelOk:     {"basic.cancel-ok", func() Method { return new(BasicCancelOk) }},
	MethodBasicPublish:      {"basic.publish", func() Method { return new(BasicPublish) }},
	MethodBasicReturn:       {"basic.return", func() Method { return new(BasicReturn) }},
	MethodBasicDeliver:      {"basic.deliver", func() Method { return new(BasicDeliver) }},
	MethodBasicGet:          {"basic.get", func() Method { return new(BasicGet) }},
	MethodBasicGetOk:        {"basic.get-ok", func() Method { return new(BasicGetOk) }},
	MethodBasicGetEmpty:     {"basic.get-empty", func() Method { return new(BasicGetEmpty) }},
	MethodBasicAck:          {"basic.ack", func() Method { return new(BasicAck) }},
	MethodBasicReject:       {"basic.reject", func() Method { return new(BasicReject) }},
	MethodBasicRecoverAsync: {"basic.recover-async", func() Method { return new(BasicRecoverAsync) }},
	MethodBasicRecover:      {"basic.recover", func() Method { return new(BasicRecover) }},
	MethodBasicRecoverOk:    {"basic.recover-ok", func() Method { return new(BasicRecoverOk) }},
	MethodBasicNack:         {"basic.nack", func() Method { return new(BasicNack) }},

	MethodConfirmSelect:   {"confirm.select", func() Method { return new(ConfirmSelect) }},
	MethodConfirmSelectOk: {"confirm.select-ok", func() Method { return new(ConfirmSelectOk) }},

	MethodTxSelect:     {"tx.select", func() Method { return new(TxSelect) }},
	MethodTxSelectOk:   {"tx.select-ok", func() Method { return new(TxSelectOk) }},
	MethodTxCommit:     {"tx.commit", func() Method { return new(TxCommit) }},
	MethodTxCommitOk:   {"tx.commit-ok", func() Method { return new(TxCommitOk) }},
	MethodTxRollback:   {"tx.rollback", func() Method { return new(TxRollback) }},
	MethodTxRollbackOk: {"tx.rollback-ok", func() Method { return new(TxRollbackOk) }},
}

// decodeMethod decodes a method frame payload: the 32-bit id followed by the
// method fields.
func decodeMethod(payload []byte, pool *Pool) (Method, error) {
	d := newDecoder(payload, pool)
	id := MethodID(d.u32())
	if d.err != nil {
		return nil, d.err
	}
	m, err := newMethod(id)
	if err != nil {
		return nil, err
	}
	m.decode(d)
	if d.err != nil {
		return nil, d.err
	}
	return m, nil
}

func newMethod(id MethodID) (Method, error) {
	info, ok := methods[id]
	if !ok {
		return nil, &LibraryError{
			Status: StatusUnknownMethod,
			Op:     "decode method",
			Err:    errors.Errorf("class %d method %d", id.Class(), id.Index()),
		}
	}
	return info.new(), nil
}

func encodeMethod(e *encoder, m Method) {
	e.u32(uint32(m.ID()))
	m.encode(e)
}

// EncodeMethod writes the method id and fields into buf and returns the
// number of bytes written.
func EncodeMethod(buf []byte, m Method) (int, error) {
	e := newEncoder(buf)
	encodeMethod(e, m)
	if e.err != nil {
		return 0, e.err
	}
	return e.off, nil
}

// DecodeMethod decodes a method frame payload. Tables are allocated from
// pool; a nil pool allocates from the heap.
func DecodeMethod(payload []byte, pool *Pool) (Method, error) {
	return decodeMethod(payload, pool)
}
