package amqp

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/sync/errgroup"
)

// reply answers one request of the given id with reply, or sends nothing
// when reply is nil. It returns the request.
func (b *scriptedBroker) reply(channel uint16, id MethodID, reply Method) (Method, error) {
	req, err := b.expectMethod(id)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return req, nil
	}
	return req, b.sendMethod(channel, reply)
}

func TestChannelOpen(t *testing.T) {
	c := newTestConnection(t)
	broker := newScriptedBroker(t, c)

	var g errgroup.Group
	g.Go(func() error {
		_, err := broker.reply(5, MethodChannelOpen, &ChannelOpenOk{})
		return err
	})

	ch, err := c.ChannelOpen(context.Background(), 5)
	if gerr := g.Wait(); gerr != nil {
		t.Fatalf("broker: %v", gerr)
	}
	if err != nil {
		t.Fatalf("ChannelOpen: %v", err)
	}
	if ch.ID() != 5 || ch.Connection() != c {
		t.Errorf("channel = %d on %p", ch.ID(), ch.Connection())
	}
}

func TestChannelOpen_InvalidID(t *testing.T) {
	c := newTestConnection(t)
	if err := c.TuneConnection(10, FrameMinSize, 0); err != nil {
		t.Fatalf("TuneConnection: %v", err)
	}
	for _, id := range []uint16{0, 11, 0xFFFF} {
		if _, err := c.ChannelOpen(context.Background(), id); StatusOf(err) != StatusInvalidParameter {
			t.Errorf("ChannelOpen(%d) = %v, want %v", id, err, StatusInvalidParameter)
		}
	}
}

func TestChannel_Operations(t *testing.T) {
	c := newTestConnection(t)
	broker := newScriptedBroker(t, c)
	ch := c.Channel(1)
	ctx := context.Background()

	args := Table{Entry("x-max-length", Int32(100))}
	var (
		g        errgroup.Group
		requests []Method
	)
	g.Go(func() error {
		steps := []struct {
			id    MethodID
			reply Method
		}{
			{MethodExchangeDeclare, &ExchangeDeclareOk{}},
			{MethodQueueDeclare, &QueueDeclareOk{Queue: "amq.gen-abc", MessageCount: 4, ConsumerCount: 1}},
			{MethodQueueBind, &QueueBindOk{}},
			{MethodQueuePurge, &QueuePurgeOk{MessageCount: 4}},
			{MethodBasicQos, &BasicQosOk{}},
			{MethodBasicConsume, &BasicConsumeOk{ConsumerTag: "amq.ctag-1"}},
			{MethodBasicAck, nil},
			{MethodBasicNack, nil},
			{MethodBasicReject, nil},
			{MethodBasicCancel, &BasicCancelOk{ConsumerTag: "amq.ctag-1"}},
			{MethodChannelFlow, &ChannelFlowOk{Active: false}},
			{MethodQueueUnbind, &QueueUnbindOk{}},
			{MethodQueueDelete, &QueueDeleteOk{MessageCount: 2}},
			{MethodExchangeDelete, &ExchangeDeleteOk{}},
			{MethodChannelClose, &ChannelCloseOk{}},
		}
		for _, s := range steps {
			req, err := broker.reply(1, s.id, s.reply)
			if err != nil {
				return err
			}
			requests = append(requests, req)
		}
		return nil
	})

	check := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	check(ch.ExchangeDeclare(ctx, ExchangeDeclare{Exchange: "logs", Type: "topic", Durable: true}))
	ok, err := ch.QueueDeclare(ctx, QueueDeclare{Exclusive: true, Arguments: args})
	check(err)
	if ok.Queue != "amq.gen-abc" || ok.MessageCount != 4 || ok.ConsumerCount != 1 {
		t.Errorf("declare-ok = %+v", ok)
	}
	check(ch.QueueBind(ctx, QueueBind{Queue: ok.Queue, Exchange: "logs", RoutingKey: "#"}))
	purged, err := ch.QueuePurge(ctx, QueuePurge{Queue: ok.Queue})
	check(err)
	if purged != 4 {
		t.Errorf("purged = %d", purged)
	}
	check(ch.BasicQos(ctx, 0, 10, false))
	tag, err := ch.BasicConsume(ctx, BasicConsume{Queue: ok.Queue})
	check(err)
	if tag != "amq.ctag-1" {
		t.Errorf("consumer tag = %q", tag)
	}
	check(ch.BasicAck(1, false))
	check(ch.BasicNack(2, true, true))
	check(ch.BasicReject(3, false))
	check(ch.BasicCancel(ctx, tag))
	active, err := ch.Flow(ctx, false)
	check(err)
	if active {
		t.Error("Flow returned active")
	}
	check(ch.QueueUnbind(ctx, QueueUnbind{Queue: ok.Queue, Exchange: "logs", RoutingKey: "#"}))
	deleted, err := ch.QueueDelete(ctx, QueueDelete{Queue: ok.Queue, IfUnused: true})
	check(err)
	if deleted != 2 {
		t.Errorf("deleted = %d", deleted)
	}
	check(ch.ExchangeDelete(ctx, ExchangeDelete{Exchange: "logs"}))
	check(ch.Close(ctx, CodeSuccess))

	if err := g.Wait(); err != nil {
		t.Fatalf("broker: %v", err)
	}

	want := []Method{
		&ExchangeDeclare{Exchange: "logs", Type: "topic", Durable: true},
		&QueueDeclare{Exclusive: true, Arguments: args},
		&QueueBind{Queue: "amq.gen-abc", Exchange: "logs", RoutingKey: "#"},
		&QueuePurge{Queue: "amq.gen-abc"},
		&BasicQos{PrefetchCount: 10},
		&BasicConsume{Queue: "amq.gen-abc"},
		&BasicAck{DeliveryTag: 1},
		&BasicNack{DeliveryTag: 2, Multiple: true, Requeue: true},
		&BasicReject{DeliveryTag: 3},
		&BasicCancel{ConsumerTag: "amq.ctag-1"},
		&ChannelFlow{Active: false},
		&QueueUnbind{Queue: "amq.gen-abc", Exchange: "logs", RoutingKey: "#"},
		&QueueDelete{Queue: "amq.gen-abc", IfUnused: true},
		&ExchangeDelete{Exchange: "logs"},
		&ChannelClose{ReplyCode: CodeSuccess},
	}
	if diff := cmp.Diff(want, requests, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestChannel_NoWait(t *testing.T) {
	c := newTestConnection(t)
	broker := newScriptedBroker(t, c)
	ch := c.Channel(2)
	ctx := context.Background()

	ok, err := ch.QueueDeclare(ctx, QueueDeclare{Queue: "q", NoWait: true})
	if err != nil || ok != nil {
		t.Fatalf("QueueDeclare = %v, %v", ok, err)
	}
	tag, err := ch.BasicConsume(ctx, BasicConsume{Queue: "q", ConsumerTag: "mine", NoWait: true})
	if err != nil || tag != "mine" {
		t.Fatalf("BasicConsume = %q, %v", tag, err)
	}
	if err := ch.ExchangeBind(ctx, ExchangeBind{Destination: "a", Source: "b", NoWait: true}); err != nil {
		t.Fatal(err)
	}

	for _, id := range []MethodID{MethodQueueDeclare, MethodBasicConsume, MethodExchangeBind} {
		m, err := broker.expectMethod(id)
		if err != nil {
			t.Fatal(err)
		}
		if id == MethodQueueDeclare && !m.(*QueueDeclare).NoWait {
			t.Error("no-wait bit not sent")
		}
	}
}

func TestChannel_BasicGet(t *testing.T) {
	c := newTestConnection(t)
	broker := newScriptedBroker(t, c)
	ch := c.Channel(1)
	ctx := context.Background()

	var g errgroup.Group
	g.Go(func() error {
		if _, err := broker.reply(1, MethodBasicGet, &BasicGetEmpty{}); err != nil {
			return err
		}
		if _, err := broker.reply(1, MethodBasicGet, &BasicGetOk{DeliveryTag: 5, RoutingKey: "q", MessageCount: 9}); err != nil {
			return err
		}
		props := &BasicProperties{Flags: FlagCorrelationID, CorrelationID: "c-1"}
		return broker.sendContent(1, props, []byte("payload"), 4)
	})

	_, ok, err := ch.BasicGet(ctx, "q", false)
	if err != nil || ok {
		t.Fatalf("BasicGet on empty queue = %v, %v", ok, err)
	}

	getOk, ok, err := ch.BasicGet(ctx, "q", true)
	if err != nil || !ok {
		t.Fatalf("BasicGet = %v, %v", ok, err)
	}
	if getOk.DeliveryTag != 5 || getOk.MessageCount != 9 {
		t.Errorf("get-ok = %+v", getOk)
	}
	msg, err := ch.ReadMessage(ctx)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("broker: %v", err)
	}
	if string(msg.Body()) != "payload" || msg.Properties.CorrelationID != "c-1" {
		t.Errorf("message = %q %+v", msg.Body(), msg.Properties)
	}
}

func TestChannel_Transactions(t *testing.T) {
	c := newTestConnection(t)
	broker := newScriptedBroker(t, c)
	ch := c.Channel(1)
	ctx := context.Background()

	var g errgroup.Group
	g.Go(func() error {
		steps := []struct {
			id    MethodID
			reply Method
		}{
			{MethodTxSelect, &TxSelectOk{}},
			{MethodTxCommit, &TxCommitOk{}},
			{MethodTxRollback, &TxRollbackOk{}},
			{MethodConfirmSelect, &ConfirmSelectOk{}},
			{MethodBasicRecover, &BasicRecoverOk{}},
		}
		for _, s := range steps {
			if _, err := broker.reply(1, s.id, s.reply); err != nil {
				return err
			}
		}
		return nil
	})

	for _, op := range []func(context.Context) error{
		ch.TxSelect,
		ch.TxCommit,
		ch.TxRollback,
		ch.ConfirmSelect,
		func(ctx context.Context) error { return ch.BasicRecover(ctx, true) },
	} {
		if err := op(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("broker: %v", err)
	}
}
