package amqp

import "github.com/pkg/errors"

// PropertyFlags marks which BasicProperties fields are present.
type PropertyFlags uint16

// Basic property flags, in wire order.
const (
	FlagContentType     PropertyFlags = 1 << 15
	FlagContentEncoding PropertyFlags = 1 << 14
	FlagHeaders         PropertyFlags = 1 << 13
	FlagDeliveryMode    PropertyFlags = 1 << 12
	FlagPriority        PropertyFlags = 1 << 11
	FlagCorrelationID   PropertyFlags = 1 << 10
	FlagReplyTo         PropertyFlags = 1 << 9
	FlagExpiration      PropertyFlags = 1 << 8
	FlagMessageID       PropertyFlags = 1 << 7
	FlagTimestamp       PropertyFlags = 1 << 6
	FlagType            PropertyFlags = 1 << 5
	FlagUserID          PropertyFlags = 1 << 4
	FlagAppID           PropertyFlags = 1 << 3
	FlagClusterID       PropertyFlags = 1 << 2
)

// flagContinuation is set on a flag word when another word follows.
const flagContinuation = 1

// Delivery modes.
const (
	Transient  uint8 = 1
	Persistent uint8 = 2
)

// BasicProperties are the content properties of the basic class. Only the
// fields whose flag is set in Flags are sent.
type BasicProperties struct {
	Flags           PropertyFlags
	ContentType     string
	ContentEncoding string
	Headers         Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       uint64
	Type            string
	UserID          string
	AppID           string
	ClusterID       string
}

// Has reports whether all of f are set.
func (p *BasicProperties) Has(f PropertyFlags) bool {
	return p.Flags&f == f
}

func (p *BasicProperties) encode(e *encoder) {
	e.u16(uint16(p.Flags) &^ flagContinuation)
	if p.Has(FlagContentType) {
		e.shortstr(p.ContentType)
	}
	if p.Has(FlagContentEncoding) {
		e.shortstr(p.ContentEncoding)
	}
	if p.Has(FlagHeaders) {
		e.table(p.Headers)
	}
	if p.Has(FlagDeliveryMode) {
		e.u8(p.DeliveryMode)
	}
	if p.Has(FlagPriority) {
		e.u8(p.Priority)
	}
	if p.Has(FlagCorrelationID) {
		e.shortstr(p.CorrelationID)
	}
	if p.Has(FlagReplyTo) {
		e.shortstr(p.ReplyTo)
	}
	if p.Has(FlagExpiration) {
		e.shortstr(p.Expiration)
	}
	if p.Has(FlagMessageID) {
		e.shortstr(p.MessageID)
	}
	if p.Has(FlagTimestamp) {
		e.u64(p.Timestamp)
	}
	if p.Has(FlagType) {
		e.shortstr(p.Type)
	}
	if p.Has(FlagUserID) {
		e.shortstr(p.UserID)
	}
	if p.Has(FlagAppID) {
		e.shortstr(p.AppID)
	}
	if p.Has(FlagClusterID) {
		e.shortstr(p.ClusterID)
	}
}

func (p *BasicProperties) decode(d *decoder) {
	// Flag words repeat while the continuation bit is set. The basic class
	// only defines bits in the first word.
	word := d.u16()
	p.Flags = PropertyFlags(word &^ flagContinuation)
	for word&flagContinuation != 0 && d.err == nil {
		word = d.u16()
	}
	if p.Has(FlagContentType) {
		p.ContentType = d.shortstr()
	}
	if p.Has(FlagContentEncoding) {
		p.ContentEncoding = d.shortstr()
	}
	if p.Has(FlagHeaders) {
		p.Headers = d.table()
	}
	if p.Has(FlagDeliveryMode) {
		p.DeliveryMode = d.u8()
	}
	if p.Has(FlagPriority) {
		p.Priority = d.u8()
	}
	if p.Has(FlagCorrelationID) {
		p.CorrelationID = d.shortstr()
	}
	if p.Has(FlagReplyTo) {
		p.ReplyTo = d.shortstr()
	}
	if p.Has(FlagExpiration) {
		p.Expiration = d.shortstr()
	}
	if p.Has(FlagMessageID) {
		p.MessageID = d.shortstr()
	}
	if p.Has(FlagTimestamp) {
		p.Timestamp = d.u64()
	}
	if p.Has(FlagType) {
		p.Type = d.shortstr()
	}
	if p.Has(FlagUserID) {
		p.UserID = d.shortstr()
	}
	if p.Has(FlagAppID) {
		p.AppID = d.shortstr()
	}
	if p.Has(FlagClusterID) {
		p.ClusterID = d.shortstr()
	}
}

// ContentHeader is the payload of a header frame.
type ContentHeader struct {
	ClassID    uint16
	Weight     uint16 // unused, always sent as zero
	BodySize   uint64
	Properties *BasicProperties
}

func decodeContentHeader(payload []byte, pool *Pool) (*ContentHeader, error) {
	d := newDecoder(payload, pool)
	h := &ContentHeader{
		ClassID:  d.u16(),
		Weight:   d.u16(),
		BodySize: d.u64(),
	}
	if d.err != nil {
		return nil, d.err
	}
	if h.ClassID != ClassBasic {
		return nil, &LibraryError{
			Status: StatusUnknownClass,
			Op:     "decode properties",
			Err:    errors.Errorf("class %d", h.ClassID),
		}
	}
	h.Properties = new(BasicProperties)
	h.Properties.decode(d)
	if d.err != nil {
		return nil, d.err
	}
	return h, nil
}

func (h *ContentHeader) encode(e *encoder) {
	if h.ClassID != ClassBasic {
		e.fail(&LibraryError{
			Status: StatusUnknownClass,
			Op:     "encode properties",
			Err:    errors.Errorf("class %d", h.ClassID),
		})
		return
	}
	e.u16(h.ClassID)
	e.u16(0) // weight
	e.u64(h.BodySize)
	props := h.Properties
	if props == nil {
		props = &BasicProperties{}
	}
	props.encode(e)
}
