package amqp

import (
	"fmt"

	"github.com/pkg/errors"
)

// FrameType is the first octet of a frame.
type FrameType uint8

// Frame types. FrameProtocolHeader is not a real frame type: it marks a
// protocol header sent by a server that rejected our version.
const (
	FrameMethod         FrameType = 1
	FrameHeader         FrameType = 2
	FrameBody           FrameType = 3
	FrameHeartbeat      FrameType = 8
	FrameProtocolHeader FrameType = 'A'
)

func (t FrameType) String() string {
	switch t {
	case 0:
		return "none"
	case FrameMethod:
		return "method"
	case FrameHeader:
		return "header"
	case FrameBody:
		return "body"
	case FrameHeartbeat:
		return "heartbeat"
	case FrameProtocolHeader:
		return "protocol-header"
	}
	return fmt.Sprintf("frame-type(%d)", uint8(t))
}

// Wire sizes.
const (
	frameHeaderSize = 7 // type, channel, payload size
	frameFooterSize = 1
	frameOverhead   = frameHeaderSize + frameFooterSize
	frameEnd        = 0xCE

	protocolHeaderSize = 8
)

// Frame size limits.
const (
	FrameMinSize = 4096
	// InitialFrameMax sizes buffers until the connection is tuned.
	InitialFrameMax = 65536
	// DefaultFrameMax is the frame-max requested during login.
	DefaultFrameMax = 131072
	// InitialFramePoolPageSize is the page size of the per-frame pool.
	InitialFramePoolPageSize = 65536
)

// ProtocolHeader is the 8-byte preamble "AMQP" transport-high
// transport-low major minor.
type ProtocolHeader struct {
	TransportHigh uint8
	TransportLow  uint8
	Major         uint8
	Minor         uint8
}

func (h ProtocolHeader) bytes() []byte {
	return []byte{'A', 'M', 'Q', 'P', h.TransportHigh, h.TransportLow, h.Major, h.Minor}
}

func (h ProtocolHeader) String() string {
	return fmt.Sprintf("AMQP %d-%d-%d-%d", h.TransportHigh, h.TransportLow, h.Major, h.Minor)
}

// Dialect selects the protocol header sent at connection start.
type Dialect int

const (
	// DialectStandard sends "AMQP" 0 0 9 1.
	DialectStandard Dialect = iota
	// DialectLegacy sends "AMQP" 1 1 9 1, understood by older brokers.
	DialectLegacy
)

func (d Dialect) header() ProtocolHeader {
	if d == DialectLegacy {
		return ProtocolHeader{TransportHigh: 1, TransportLow: 1, Major: 9, Minor: 1}
	}
	return ProtocolHeader{Major: 9, Minor: 1}
}

// Frame is one decoded frame. Exactly one of Method, Header, Body or
// Protocol is meaningful, chosen by Type. The zero Frame means no complete
// frame was available.
//
// Header tables and Body borrow memory from the connection. They stay
// valid until the next call that reads from the connection, unless the
// frame came out of the pending queue, in which case they live until
// ReleaseBuffers.
type Frame struct {
	Type     FrameType
	Channel  uint16
	Method   Method
	Header   *ContentHeader
	Body     []byte
	Protocol ProtocolHeader

	raw   []byte
	lease Lease
}

// IsZero reports whether f holds no frame.
func (f Frame) IsZero() bool {
	return f.Type == 0
}

// Valid reports whether the memory f borrows is still usable.
func (f Frame) Valid() bool {
	return f.lease.Valid()
}

// MethodID returns the id of a method frame, or zero.
func (f Frame) MethodID() MethodID {
	if f.Type != FrameMethod || f.Method == nil {
		return 0
	}
	return f.Method.ID()
}

// BodyBytes returns the body of a body frame. It panics if the frame's
// memory has been recycled.
func (f Frame) BodyBytes() []byte {
	if !f.Valid() {
		panic("amqp: body frame used after its buffer was recycled")
	}
	return f.Body
}

func (f Frame) String() string {
	switch f.Type {
	case FrameMethod:
		return fmt.Sprintf("method frame %s on channel %d", f.MethodID(), f.Channel)
	case FrameHeader:
		return fmt.Sprintf("header frame class %d size %d on channel %d",
			f.Header.ClassID, f.Header.BodySize, f.Channel)
	case FrameBody:
		return fmt.Sprintf("body frame of %d bytes on channel %d", len(f.Body), f.Channel)
	case FrameProtocolHeader:
		return "protocol header " + f.Protocol.String()
	}
	return f.Type.String() + " frame"
}

// clone copies f into pool so it outlives the frame cycle. A nil pool
// copies to the heap.
func (f Frame) clone(pool *Pool) (Frame, error) {
	out := Frame{Type: f.Type, Channel: f.Channel, Protocol: f.Protocol}
	if pool != nil {
		out.lease = pool.Lease()
	}
	if f.raw == nil {
		return out, nil
	}
	var err error
	if pool != nil {
		out.raw, err = pool.Dup(f.raw)
		if err != nil {
			return Frame{}, err
		}
	} else {
		out.raw = append([]byte(nil), f.raw...)
	}
	switch f.Type {
	case FrameMethod:
		out.Method, err = decodeMethod(out.raw, pool)
	case FrameHeader:
		out.Header, err = decodeContentHeader(out.raw, pool)
	case FrameBody:
		out.Body = out.raw
	}
	if err != nil {
		return Frame{}, err
	}
	return out, nil
}

// encodeFrame writes a complete frame, end octet included.
func encodeFrame(e *encoder, f Frame) {
	e.u8(uint8(f.Type))
	e.u16(f.Channel)
	at := e.reserve32()
	start := e.off
	switch f.Type {
	case FrameMethod:
		encodeMethod(e, f.Method)
	case FrameHeader:
		f.Header.encode(e)
	case FrameBody:
		e.raw(f.Body)
	case FrameHeartbeat:
	default:
		e.fail(&LibraryError{
			Status: StatusInvalidParameter,
			Op:     "encode frame",
			Err:    errors.Errorf("frame type %d", f.Type),
		})
	}
	e.patch32(at, uint32(e.off-start))
	e.u8(frameEnd)
}
