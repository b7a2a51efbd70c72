package amqp

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// aLongTimeAgo is a read deadline that has already passed; setting it
// unblocks a pending Recv.
var aLongTimeAgo = time.Unix(1, 0)

// SimpleWaitFrame returns the next frame, taking it from the pending queue
// first and from the transport otherwise. Heartbeat frames are consumed
// internally. ctx bounds the wait; on expiry the error has StatusTimeout
// and buffered data is kept for the next call.
func (c *Connection) SimpleWaitFrame(ctx context.Context) (Frame, error) {
	if c.pending.Length() > 0 {
		return c.dequeue(), nil
	}
	return c.waitFrame(ctx)
}

// SimpleWaitFrameOnChannel returns the next frame for channel. Frames for
// other channels that arrive meanwhile are queued.
func (c *Connection) SimpleWaitFrameOnChannel(ctx context.Context, channel uint16) (Frame, error) {
	return c.waitMatching(ctx, func(f Frame) bool { return f.Channel == channel })
}

// waitMatching returns the first queued or incoming frame accepted by fn.
// Rejected incoming frames are queued.
func (c *Connection) waitMatching(ctx context.Context, fn func(Frame) bool) (Frame, error) {
	if f, ok := c.takePending(fn); ok {
		return f, nil
	}
	for {
		f, err := c.waitFrame(ctx)
		if err != nil {
			return Frame{}, err
		}
		if fn(f) {
			return f, nil
		}
		if err := c.enqueue(f); err != nil {
			return Frame{}, err
		}
	}
}

// SimpleWaitMethod waits for a method frame on channel and checks its id.
// A channel.close on the channel or a connection.close is returned as a
// *ServerError; any other method fails with StatusWrongMethod.
func (c *Connection) SimpleWaitMethod(ctx context.Context, channel uint16, expected MethodID) (Method, error) {
	f, err := c.waitMatching(ctx, func(f Frame) bool {
		return f.Channel == channel || f.MethodID() == MethodConnectionClose
	})
	if err != nil {
		return nil, err
	}
	if f.Type != FrameMethod {
		return nil, &LibraryError{
			Status: StatusUnexpectedState,
			Op:     "wait method",
			Err:    errors.Errorf("got %s", f),
		}
	}
	if f.MethodID() == expected {
		return f.Method, nil
	}
	if se := serverErrorFromMethod(f.Channel, f.Method); se != nil {
		c.acknowledgeClose(f)
		return nil, se
	}
	return nil, &LibraryError{
		Status: StatusWrongMethod,
		Op:     "wait method",
		Err:    errors.Errorf("expected %s, got %s", expected, f.MethodID()),
	}
}

// waitFrame reads from the transport until a non-heartbeat frame is
// decoded.
func (c *Connection) waitFrame(ctx context.Context) (Frame, error) {
	var data []byte
	for {
		f, err := c.HandleInput(data)
		if err != nil {
			return Frame{}, err
		}
		data = nil
		if !f.IsZero() {
			if f.Type == FrameHeartbeat {
				continue
			}
			return f, nil
		}
		n, err := c.recv(ctx)
		if err != nil {
			return Frame{}, err
		}
		data = c.readBuf[:n]
	}
}

// recv performs one transport read, sending heartbeats while idle and
// failing when the server has been silent for two heartbeat intervals.
func (c *Connection) recv(ctx context.Context) (int, error) {
	if c.transport == nil {
		return 0, ErrNoTransport
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.transport.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	for {
		if err := c.transport.SetReadDeadline(c.readDeadline(ctx)); err != nil {
			return 0, libError(StatusSocketError, "set read deadline", err)
		}
		if err := ctx.Err(); err != nil {
			return 0, &LibraryError{Status: StatusTimeout, Op: "wait frame", Err: err}
		}

		n, err := c.transport.Recv(c.readBuf)
		if n > 0 {
			c.lastRecv = time.Now()
			return n, nil
		}
		switch {
		case err == nil || errors.Is(err, io.ErrNoProgress):
			continue
		case errors.Is(err, io.EOF):
			return 0, &LibraryError{Status: StatusConnectionClosed, Op: "wait frame", Err: io.EOF}
		case errors.Is(err, os.ErrDeadlineExceeded):
			if err := ctx.Err(); err != nil {
				return 0, &LibraryError{Status: StatusTimeout, Op: "wait frame", Err: err}
			}
			if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
				return 0, &LibraryError{Status: StatusTimeout, Op: "wait frame", Err: context.DeadlineExceeded}
			}
			if err := c.heartbeatTick(); err != nil {
				return 0, err
			}
		default:
			return 0, libError(StatusSocketError, "wait frame", err)
		}
	}
}

// readDeadline is the earliest of the context deadline and the next
// heartbeat event.
func (c *Connection) readDeadline(ctx context.Context) time.Time {
	deadline, _ := ctx.Deadline()
	if c.heartbeat == 0 {
		return deadline
	}
	hb := c.heartbeatInterval()
	for _, t := range []time.Time{c.lastSend.Add(hb), c.lastRecv.Add(2 * hb)} {
		if deadline.IsZero() || t.Before(deadline) {
			deadline = t
		}
	}
	return deadline
}

// heartbeatTick handles a read deadline that was not the caller's.
func (c *Connection) heartbeatTick() error {
	if c.heartbeat == 0 {
		return nil
	}
	now := time.Now()
	hb := c.heartbeatInterval()
	if now.Sub(c.lastRecv) >= 2*hb {
		c.logger.Warn("heartbeat timeout", "heartbeat", c.heartbeat, "last_recv", c.lastRecv)
		return c.fail(&LibraryError{Status: StatusHeartbeatTimeout, Op: "wait frame"})
	}
	if now.Sub(c.lastSend) >= hb {
		if err := c.SendFrame(Frame{Type: FrameHeartbeat}); err != nil {
			return err
		}
		c.stats.heartbeatsSent.Add(1)
		c.logger.Debug("heartbeat sent")
	}
	return nil
}

// enqueue copies f into the decoding pool and appends it to the pending
// queue.
func (c *Connection) enqueue(f Frame) error {
	if limit := c.opts.pendingLimit; limit > 0 && c.pending.Length() >= limit {
		return &LibraryError{
			Status: StatusNoMemory,
			Op:     "queue frame",
			Err:    errors.Errorf("pending queue holds %d frames", limit),
		}
	}
	cloned, err := f.clone(c.decodingPool)
	if err != nil {
		return err
	}
	c.pending.Add(cloned)
	c.stats.framesQueued.Add(1)
	c.stats.pendingFrames.Add(1)
	c.logger.Debug("frame queued", frameAttrs(f)...)
	return nil
}

func (c *Connection) dequeue() Frame {
	c.stats.pendingFrames.Add(-1)
	return c.pending.Remove().(Frame)
}

// takePending removes the first queued frame matching fn, keeping the
// order of the rest.
func (c *Connection) takePending(fn func(Frame) bool) (Frame, bool) {
	var (
		found Frame
		ok    bool
	)
	for n := c.pending.Length(); n > 0; n-- {
		f := c.pending.Remove().(Frame)
		if !ok && fn(f) {
			found, ok = f, true
			continue
		}
		c.pending.Add(f)
	}
	if ok {
		c.stats.pendingFrames.Add(-1)
	}
	return found, ok
}
