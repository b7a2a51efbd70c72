package amqp

import (
	"context"

	"github.com/pkg/errors"
)

// Channel is a handle for one open channel of a Connection. It holds no
// state of its own beyond the channel number; all I/O goes through the
// connection and shares its concurrency rules.
type Channel struct {
	conn *Connection
	id   uint16
}

// ChannelOpen opens channel id.
func (c *Connection) ChannelOpen(ctx context.Context, id uint16) (*Channel, error) {
	if id == 0 || (c.channelMax != 0 && int(id) > c.channelMax) {
		return nil, &LibraryError{
			Status: StatusInvalidParameter,
			Op:     "channel open",
			Err:    errors.Errorf("channel %d outside 1..%d", id, c.channelMax),
		}
	}
	if _, err := c.SimpleRPCDecoded(ctx, id, &ChannelOpen{}, MethodChannelOpenOk); err != nil {
		return nil, err
	}
	c.logger.Debug("channel opened", "channel", id)
	return &Channel{conn: c, id: id}, nil
}

// Channel returns a handle for a channel opened elsewhere.
func (c *Connection) Channel(id uint16) *Channel {
	return &Channel{conn: c, id: id}
}

// Close closes the connection with the given reply code and waits for
// close-ok.
func (c *Connection) Close(ctx context.Context, code uint16) error {
	if c.phase == phaseClosed {
		return ErrConnectionClosed
	}
	_, err := c.SimpleRPCDecoded(ctx, 0, &ConnectionClose{ReplyCode: code}, MethodConnectionCloseOk)
	c.phase = phaseClosed
	if err != nil {
		return err
	}
	c.logger.Info("connection closed", "code", code)
	return nil
}

// ID returns the channel number.
func (ch *Channel) ID() uint16 {
	return ch.id
}

// Connection returns the owning connection.
func (ch *Channel) Connection() *Connection {
	return ch.conn
}

func (ch *Channel) rpc(ctx context.Context, req Method, expected ...MethodID) (Method, error) {
	return ch.conn.SimpleRPCDecoded(ctx, ch.id, req, expected...)
}

// send writes a one-way method and records the outcome as the latest reply.
func (ch *Channel) send(m Method) error {
	return ch.conn.recordSend(ch.id, ch.conn.SendMethod(ch.id, m))
}

// Close closes the channel with the given reply code.
func (ch *Channel) Close(ctx context.Context, code uint16) error {
	_, err := ch.rpc(ctx, &ChannelClose{ReplyCode: code}, MethodChannelCloseOk)
	return err
}

// Flow asks the server to pause or resume deliveries.
func (ch *Channel) Flow(ctx context.Context, active bool) (bool, error) {
	m, err := ch.rpc(ctx, &ChannelFlow{Active: active}, MethodChannelFlowOk)
	if err != nil {
		return false, err
	}
	return m.(*ChannelFlowOk).Active, nil
}

// ExchangeDeclare declares an exchange. With NoWait set it returns as soon
// as the request is written.
func (ch *Channel) ExchangeDeclare(ctx context.Context, req ExchangeDeclare) error {
	if req.NoWait {
		return ch.send(&req)
	}
	_, err := ch.rpc(ctx, &req, MethodExchangeDeclareOk)
	return err
}

// ExchangeDelete deletes an exchange.
func (ch *Channel) ExchangeDelete(ctx context.Context, req ExchangeDelete) error {
	if req.NoWait {
		return ch.send(&req)
	}
	_, err := ch.rpc(ctx, &req, MethodExchangeDeleteOk)
	return err
}

// ExchangeBind binds one exchange to another.
func (ch *Channel) ExchangeBind(ctx context.Context, req ExchangeBind) error {
	if req.NoWait {
		return ch.send(&req)
	}
	_, err := ch.rpc(ctx, &req, MethodExchangeBindOk)
	return err
}

// ExchangeUnbind removes an exchange-to-exchange binding.
func (ch *Channel) ExchangeUnbind(ctx context.Context, req ExchangeUnbind) error {
	if req.NoWait {
		return ch.send(&req)
	}
	_, err := ch.rpc(ctx, &req, MethodExchangeUnbindOk)
	return err
}

// QueueDeclare declares a queue. An empty name asks the server to generate
// one, returned in the reply. With NoWait set the reply is nil.
func (ch *Channel) QueueDeclare(ctx context.Context, req QueueDeclare) (*QueueDeclareOk, error) {
	if req.NoWait {
		return nil, ch.send(&req)
	}
	m, err := ch.rpc(ctx, &req, MethodQueueDeclareOk)
	if err != nil {
		return nil, err
	}
	return m.(*QueueDeclareOk), nil
}

// QueueBind binds a queue to an exchange.
func (ch *Channel) QueueBind(ctx context.Context, req QueueBind) error {
	if req.NoWait {
		return ch.send(&req)
	}
	_, err := ch.rpc(ctx, &req, MethodQueueBindOk)
	return err
}

// QueueUnbind removes a queue binding. The method has no no-wait form.
func (ch *Channel) QueueUnbind(ctx context.Context, req QueueUnbind) error {
	_, err := ch.rpc(ctx, &req, MethodQueueUnbindOk)
	return err
}

// QueuePurge removes all ready messages and returns how many there were.
func (ch *Channel) QueuePurge(ctx context.Context, req QueuePurge) (uint32, error) {
	if req.NoWait {
		return 0, ch.send(&req)
	}
	m, err := ch.rpc(ctx, &req, MethodQueuePurgeOk)
	if err != nil {
		return 0, err
	}
	return m.(*QueuePurgeOk).MessageCount, nil
}

// QueueDelete deletes a queue and returns the number of messages it held.
func (ch *Channel) QueueDelete(ctx context.Context, req QueueDelete) (uint32, error) {
	if req.NoWait {
		return 0, ch.send(&req)
	}
	m, err := ch.rpc(ctx, &req, MethodQueueDeleteOk)
	if err != nil {
		return 0, err
	}
	return m.(*QueueDeleteOk).MessageCount, nil
}

// BasicQos sets the prefetch window for the channel, or for the whole
// connection when global is set.
func (ch *Channel) BasicQos(ctx context.Context, prefetchSize uint32, prefetchCount uint16, global bool) error {
	req := &BasicQos{PrefetchSize: prefetchSize, PrefetchCount: prefetchCount, Global: global}
	_, err := ch.rpc(ctx, req, MethodBasicQosOk)
	return err
}

// BasicConsume starts a consumer and returns its tag. An empty tag asks the
// server to generate one.
func (ch *Channel) BasicConsume(ctx context.Context, req BasicConsume) (string, error) {
	if req.NoWait {
		return req.ConsumerTag, ch.send(&req)
	}
	m, err := ch.rpc(ctx, &req, MethodBasicConsumeOk)
	if err != nil {
		return "", err
	}
	return m.(*BasicConsumeOk).ConsumerTag, nil
}

// BasicCancel stops the consumer with the given tag.
func (ch *Channel) BasicCancel(ctx context.Context, consumerTag string) error {
	_, err := ch.rpc(ctx, &BasicCancel{ConsumerTag: consumerTag}, MethodBasicCancelOk)
	return err
}

// BasicPublish sends a message: the publish method, a content header, and
// the body split into frames of at most FrameMax-8 bytes. props may be nil.
func (ch *Channel) BasicPublish(exchange, routingKey string, mandatory, immediate bool, props *BasicProperties, body []byte) error {
	return ch.conn.recordSend(ch.id, ch.publish(exchange, routingKey, mandatory, immediate, props, body))
}

func (ch *Channel) publish(exchange, routingKey string, mandatory, immediate bool, props *BasicProperties, body []byte) error {
	c := ch.conn
	err := c.SendMethod(ch.id, &BasicPublish{
		Exchange:   exchange,
		RoutingKey: routingKey,
		Mandatory:  mandatory,
		Immediate:  immediate,
	})
	if err != nil {
		return err
	}

	if props == nil {
		props = &BasicProperties{}
	}
	err = c.SendFrame(Frame{
		Type:    FrameHeader,
		Channel: ch.id,
		Header: &ContentHeader{
			ClassID:    ClassBasic,
			BodySize:   uint64(len(body)),
			Properties: props,
		},
	})
	if err != nil {
		return err
	}

	for _, fragment := range splitBody(body, c.frameMax-frameOverhead) {
		if err := c.SendFrame(Frame{Type: FrameBody, Channel: ch.id, Body: fragment}); err != nil {
			return err
		}
	}
	return nil
}

// splitBody cuts body into consecutive fragments of at most max bytes.
func splitBody(body []byte, max int) [][]byte {
	if max <= 0 {
		panic("amqp: non-positive body fragment size")
	}
	fragments := make([][]byte, 0, (len(body)+max-1)/max)
	offset := 0
	for {
		remaining := len(body) - offset
		if remaining < 0 {
			panic("amqp: body split overran the body")
		}
		if remaining == 0 {
			return fragments
		}
		n := min(remaining, max)
		fragments = append(fragments, body[offset:offset+n])
		offset += n
	}
}

// BasicGet fetches one message. ok is false when the queue was empty.
// Otherwise read the content with ReadMessage.
func (ch *Channel) BasicGet(ctx context.Context, queue string, noAck bool) (*BasicGetOk, bool, error) {
	m, err := ch.rpc(ctx, &BasicGet{Queue: queue, NoAck: noAck}, MethodBasicGetOk, MethodBasicGetEmpty)
	if err != nil {
		return nil, false, err
	}
	ok, isOk := m.(*BasicGetOk)
	return ok, isOk, nil
}

// BasicAck acknowledges one delivery, or all up to deliveryTag when
// multiple is set.
func (ch *Channel) BasicAck(deliveryTag uint64, multiple bool) error {
	return ch.send(&BasicAck{DeliveryTag: deliveryTag, Multiple: multiple})
}

// BasicNack rejects one or more deliveries, optionally requeueing them.
func (ch *Channel) BasicNack(deliveryTag uint64, multiple, requeue bool) error {
	return ch.send(&BasicNack{DeliveryTag: deliveryTag, Multiple: multiple, Requeue: requeue})
}

// BasicReject rejects a single delivery.
func (ch *Channel) BasicReject(deliveryTag uint64, requeue bool) error {
	return ch.send(&BasicReject{DeliveryTag: deliveryTag, Requeue: requeue})
}

// BasicRecover asks the server to redeliver unacknowledged messages.
func (ch *Channel) BasicRecover(ctx context.Context, requeue bool) error {
	_, err := ch.rpc(ctx, &BasicRecover{Requeue: requeue}, MethodBasicRecoverOk)
	return err
}

// TxSelect puts the channel in transactional mode.
func (ch *Channel) TxSelect(ctx context.Context) error {
	_, err := ch.rpc(ctx, &TxSelect{}, MethodTxSelectOk)
	return err
}

// TxCommit commits the current transaction.
func (ch *Channel) TxCommit(ctx context.Context) error {
	_, err := ch.rpc(ctx, &TxCommit{}, MethodTxCommitOk)
	return err
}

// TxRollback abandons the current transaction.
func (ch *Channel) TxRollback(ctx context.Context) error {
	_, err := ch.rpc(ctx, &TxRollback{}, MethodTxRollbackOk)
	return err
}

// ConfirmSelect puts the channel in publisher confirm mode.
func (ch *Channel) ConfirmSelect(ctx context.Context) error {
	_, err := ch.rpc(ctx, &ConfirmSelect{}, MethodConfirmSelectOk)
	return err
}
