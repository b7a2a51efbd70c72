package amqp

import (
	"context"

	"github.com/pkg/errors"
)

// Message is a content header and body reassembled from frames. Its body
// lives in the connection's decoding pool and stays valid until
// ReleaseBuffers, MaybeReleaseBuffers or the next ConsumeMessage.
type Message struct {
	Properties BasicProperties

	body  []byte
	lease Lease
}

// Length returns the body size.
func (m *Message) Length() int {
	return len(m.body)
}

// Body returns the message body. It panics if the pool holding the body
// has been recycled.
func (m *Message) Body() []byte {
	if !m.lease.Valid() {
		panic("amqp: message body used after its buffer was recycled")
	}
	return m.body
}

// Valid reports whether the body is still usable.
func (m *Message) Valid() bool {
	return m.lease.Valid()
}

// Detach copies the body and header table to the heap so they survive
// buffer release.
func (m *Message) Detach() {
	m.body = append([]byte(nil), m.Body()...)
	m.Properties.Headers = m.Properties.Headers.Clone()
	m.lease = Lease{}
}

// Envelope is a delivery pushed by the server to a consumer.
type Envelope struct {
	Channel     uint16
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
	Message     Message
}

// UnexpectedFrameError is returned by ConsumeMessage when the next frame is
// neither a delivery nor a close. Frame has been copied to the decoding
// pool; typical causes are basic.return and publisher confirms.
type UnexpectedFrameError struct {
	Frame Frame
}

func (e *UnexpectedFrameError) Error() string {
	return "consume message: unexpected " + e.Frame.String()
}

// Unwrap exposes StatusUnexpectedState to StatusOf and errors.Is.
func (e *UnexpectedFrameError) Unwrap() error {
	return &LibraryError{Status: StatusUnexpectedState, Op: "consume message"}
}

// ConsumeMessage waits for the next basic.deliver on any channel and reads
// its content. Buffers from earlier messages are released first when no
// frames are queued.
//
// A channel.close or connection.close from the server is acknowledged and
// returned as a *ServerError. Any other frame yields an
// *UnexpectedFrameError carrying it.
func (c *Connection) ConsumeMessage(ctx context.Context) (*Envelope, error) {
	c.MaybeReleaseBuffers()

	f, err := c.SimpleWaitFrame(ctx)
	if err != nil {
		return nil, err
	}
	if f.Type == FrameMethod {
		if deliver, ok := f.Method.(*BasicDeliver); ok {
			env := &Envelope{
				Channel:     f.Channel,
				ConsumerTag: deliver.ConsumerTag,
				DeliveryTag: deliver.DeliveryTag,
				Redelivered: deliver.Redelivered,
				Exchange:    deliver.Exchange,
				RoutingKey:  deliver.RoutingKey,
			}
			msg, err := c.readMessage(ctx, f.Channel)
			if err != nil {
				return nil, err
			}
			env.Message = *msg
			return env, nil
		}
		if se := serverErrorFromMethod(f.Channel, f.Method); se != nil {
			c.acknowledgeClose(f)
			return nil, se
		}
	}

	kept, err := f.clone(c.decodingPool)
	if err != nil {
		return nil, err
	}
	return nil, &UnexpectedFrameError{Frame: kept}
}

// ReadMessage reads the content header and body frames that follow a
// basic.get-ok or basic.deliver on this channel.
func (ch *Channel) ReadMessage(ctx context.Context) (*Message, error) {
	return ch.conn.readMessage(ctx, ch.id)
}

func (c *Connection) readMessage(ctx context.Context, channel uint16) (*Message, error) {
	f, err := c.SimpleWaitFrameOnChannel(ctx, channel)
	if err != nil {
		return nil, err
	}
	if f.Type != FrameHeader {
		if se := serverErrorFromMethod(f.Channel, f.Method); se != nil {
			c.acknowledgeClose(f)
			return nil, se
		}
		return nil, &LibraryError{
			Status: StatusUnexpectedState,
			Op:     "read message",
			Err:    errors.Errorf("expected content header, got %s", f),
		}
	}

	header, err := f.clone(c.decodingPool)
	if err != nil {
		return nil, err
	}
	msg := &Message{lease: c.decodingPool.Lease()}
	if header.Header.Properties != nil {
		msg.Properties = *header.Header.Properties
	}

	size := header.Header.BodySize
	if size > uint64(maxInt) {
		return nil, &LibraryError{
			Status: StatusBadAMQPData,
			Op:     "read message",
			Err:    errors.Errorf("body size %d", size),
		}
	}
	if size == 0 {
		msg.body = []byte{}
		return msg, nil
	}
	body, err := c.decodingPool.Alloc(int(size))
	if err != nil {
		return nil, err
	}

	received := 0
	for received < len(body) {
		f, err := c.SimpleWaitFrameOnChannel(ctx, channel)
		if err != nil {
			return nil, err
		}
		if f.Type != FrameBody {
			return nil, &LibraryError{
				Status: StatusUnexpectedState,
				Op:     "read message",
				Err:    errors.Errorf("expected body frame, got %s", f),
			}
		}
		if received+len(f.Body) > len(body) {
			return nil, &LibraryError{
				Status: StatusBadAMQPData,
				Op:     "read message",
				Err:    errors.Errorf("body overruns declared size %d", size),
			}
		}
		received += copy(body[received:], f.Body)
	}
	msg.body = body
	return msg, nil
}

const maxInt = int(^uint(0) >> 1)
