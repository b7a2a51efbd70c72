// Package amqp is an AMQP 0-9-1 client protocol engine.
// It turns a byte stream into typed frames and back, reassembles messages
// split across frames, and correlates synchronous requests with replies,
// over a pluggable TCP or TLS transport.
package amqp

import (
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
)

// parseState tracks how far the current inbound frame has been read.
type parseState int

const (
	stateIdle parseState = iota
	stateHeader
	stateBody
	stateProtocolHeader
)

// phase tracks the connection lifecycle.
type phase int

const (
	phaseNew phase = iota
	phaseLogin
	phaseOpen
	phaseClosed
)

// Connection is a single AMQP connection.
//
// A Connection is not safe for concurrent use. All calls, including the
// ones that block on the transport, must come from one goroutine at a time;
// callers sharing a connection must serialize access themselves. Stats may
// be read from any goroutine.
type Connection struct {
	opts   options
	logger Logger

	transport Transport
	phase     phase
	state     parseState
	target    uint64 // full size of the frame being read, set in stateBody

	// expectProtocolHeader is set between sending our protocol header and
	// receiving the first reply.
	expectProtocolHeader bool

	framePool    *Pool // recycled before each frame is decoded
	decodingPool *Pool // backs queued frames and assembled messages

	in            []byte // inbound bytes; in[inStart:] is unparsed
	inStart       int
	resetRequired bool // a frame was handed out; compact before the next parse
	broken        error

	out     []byte // outbound frame buffer, frameMax long
	readBuf []byte

	channelMax int
	frameMax   int
	heartbeat  int

	pending     *queue.Queue
	lastReply   RPCReply
	serverProps Table
	clientProps Table
	lastSend    time.Time
	lastRecv    time.Time
	destroyed   atomic.Bool
	stats       Stats
}

// NewConnection creates a connection with no transport attached. Buffers
// are sized for InitialFrameMax until TuneConnection or Login changes them.
func NewConnection(opt ...Option) (*Connection, error) {
	opts := options{channelMax: DefaultChannelMax}
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		opts:         opts,
		logger:       opts.logger,
		framePool:    NewPool(InitialFramePoolPageSize),
		decodingPool: NewPool(InitialFramePoolPageSize),
		readBuf:      make([]byte, opts.readChunk),
		pending:      queue.New(),
	}
	c.framePool.SetLimit(opts.poolLimit)
	c.decodingPool.SetLimit(opts.poolLimit)
	if err := c.TuneConnection(0, InitialFrameMax, 0); err != nil {
		return nil, err
	}
	return c, nil
}

// SetTransport attaches an opened transport. The connection takes
// ownership and closes it in Destroy.
func (c *Connection) SetTransport(t Transport) {
	c.transport = t
}

// Transport returns the attached transport, or nil.
func (c *Connection) Transport() Transport {
	return c.transport
}

// TuneConnection sets the negotiated limits and resizes the buffers to
// frameMax. It fails with StatusUnexpectedState once the connection is open.
func (c *Connection) TuneConnection(channelMax, frameMax, heartbeat int) error {
	if c.phase == phaseOpen || c.phase == phaseClosed {
		return &LibraryError{Status: StatusUnexpectedState, Op: "tune"}
	}
	if frameMax < FrameMinSize || channelMax < 0 || channelMax > 0xFFFF ||
		heartbeat < 0 || heartbeat > 0xFFFF {
		return &LibraryError{Status: StatusInvalidParameter, Op: "tune"}
	}

	c.channelMax = channelMax
	c.frameMax = frameMax
	c.heartbeat = heartbeat

	if cap(c.out) != frameMax {
		c.out = make([]byte, frameMax)
	}
	if cap(c.in) < frameMax {
		in := make([]byte, len(c.in), frameMax)
		copy(in, c.in)
		c.in = in
	}
	c.framePool.Empty()
	return nil
}

// ChannelMax returns the negotiated channel-max, 0 meaning no limit.
func (c *Connection) ChannelMax() int { return c.channelMax }

// FrameMax returns the negotiated frame-max.
func (c *Connection) FrameMax() int { return c.frameMax }

// Heartbeat returns the negotiated heartbeat in seconds, 0 when disabled.
func (c *Connection) Heartbeat() int { return c.heartbeat }

// ServerProperties returns the properties the server sent in
// connection.start.
func (c *Connection) ServerProperties() Table { return c.serverProps }

// ClientProperties returns the properties sent in connection.start-ok.
func (c *Connection) ClientProperties() Table { return c.clientProps }

// Stats returns the connection counters.
func (c *Connection) Stats() *Stats { return &c.stats }

// Destroy releases all buffers and closes the transport. It is safe to call
// on a connection that never logged in, and more than once.
func (c *Connection) Destroy() error {
	if c.destroyed.Swap(true) {
		return nil
	}
	c.phase = phaseClosed
	c.framePool.Empty()
	c.decodingPool.Empty()
	for c.pending.Length() > 0 {
		c.pending.Remove()
	}
	c.stats.pendingFrames.Store(0)
	c.in = nil
	c.out = nil
	var err error
	if c.transport != nil {
		err = c.transport.Close()
	}
	c.logger.Debug("connection destroyed")
	return err
}

// DataInBuffer reports whether unparsed inbound bytes are buffered.
func (c *Connection) DataInBuffer() bool {
	return len(c.in) > c.inStart
}

// FramesEnqueued reports whether frames are waiting in the pending queue.
func (c *Connection) FramesEnqueued() bool {
	return c.pending.Length() > 0
}

// ReleaseBuffers recycles the decoding pool. Frames and messages obtained
// earlier become invalid. It fails with StatusUnexpectedState while frames
// are queued, because they live in that pool.
func (c *Connection) ReleaseBuffers() error {
	if c.pending.Length() > 0 {
		return &LibraryError{Status: StatusUnexpectedState, Op: "release buffers"}
	}
	c.decodingPool.Recycle()
	return nil
}

// MaybeReleaseBuffers recycles the decoding pool when nothing is queued.
func (c *Connection) MaybeReleaseBuffers() {
	if c.pending.Length() == 0 {
		c.decodingPool.Recycle()
	}
}

func (c *Connection) fail(err error) error {
	c.broken = err
	c.logger.Error("connection broken", "error", err)
	return err
}

// HandleInput appends data to the inbound buffer and decodes at most one
// frame from it. A zero Frame means more data is needed. Call again with
// nil data to drain frames already buffered.
//
// Memory borrowed by the returned frame stays valid until the next call.
// Malformed framing is fatal: every later call returns the same error.
func (c *Connection) HandleInput(data []byte) (Frame, error) {
	if c.broken != nil {
		return Frame{}, c.broken
	}
	if c.destroyed.Load() {
		return Frame{}, ErrConnectionClosed
	}

	if c.resetRequired {
		n := copy(c.in, c.in[c.inStart:])
		c.in = c.in[:n]
		c.inStart = 0
		c.framePool.Recycle()
		c.resetRequired = false
	}
	if len(data) > 0 {
		c.in = append(c.in, data...)
		c.stats.bytesIn.Add(uint64(len(data)))
	}

	for {
		f, ok, err := c.parseFrame()
		if err != nil || !ok {
			return Frame{}, err
		}
		if f.IsZero() {
			continue // unknown frame type, skipped
		}
		c.stats.framesIn.Add(1)
		return f, nil
	}
}

// parseFrame decodes the frame at the front of the buffer. ok is false when
// more data is needed. A skipped frame yields ok with a zero Frame.
func (c *Connection) parseFrame() (f Frame, ok bool, err error) {
	buf := c.in[c.inStart:]

	if c.state == stateBody {
		if uint64(len(buf)) < c.target {
			return Frame{}, false, nil
		}
		return c.decodeFrame(buf, c.target)
	}

	if c.expectProtocolHeader && len(buf) > 0 && buf[0] == 'A' {
		if len(buf) < protocolHeaderSize {
			c.state = stateProtocolHeader
			return Frame{}, false, nil
		}
		c.consume(protocolHeaderSize)
		c.expectProtocolHeader = false
		return Frame{
			Type: FrameProtocolHeader,
			Protocol: ProtocolHeader{
				TransportHigh: buf[4],
				TransportLow:  buf[5],
				Major:         buf[6],
				Minor:         buf[7],
			},
		}, true, nil
	}

	if len(buf) < frameHeaderSize {
		if len(buf) == 0 {
			c.state = stateIdle
		} else {
			c.state = stateHeader
		}
		return Frame{}, false, nil
	}

	size, _ := getUint32(buf, 3)
	target := uint64(size) + frameOverhead
	if target > uint64(c.frameMax) {
		return Frame{}, false, c.fail(&LibraryError{
			Status: StatusBadAMQPData,
			Op:     "read frame",
			Err:    errFrameTooLarge(target, c.frameMax),
		})
	}
	if uint64(len(buf)) < target {
		c.state = stateBody
		c.target = target
		return Frame{}, false, nil
	}
	return c.decodeFrame(buf, target)
}

// decodeFrame decodes the complete frame of target bytes at the front of
// buf.
func (c *Connection) decodeFrame(buf []byte, target uint64) (f Frame, ok bool, err error) {
	if buf[target-1] != frameEnd {
		return Frame{}, false, c.fail(&LibraryError{
			Status: StatusBadAMQPData,
			Op:     "read frame",
			Err:    errBadFrameEnd(buf[target-1]),
		})
	}

	c.expectProtocolHeader = false
	typ := FrameType(buf[0])
	channel, _ := getUint16(buf, 1)
	payload := buf[frameHeaderSize : target-1 : target-1]
	c.consume(int(target))

	f = Frame{Type: typ, Channel: channel, raw: payload, lease: c.framePool.Lease()}
	switch typ {
	case FrameMethod:
		f.Method, err = decodeMethod(payload, c.framePool)
	case FrameHeader:
		f.Header, err = decodeContentHeader(payload, c.framePool)
	case FrameBody:
		f.Body = payload
	case FrameHeartbeat:
		c.stats.heartbeatsReceived.Add(1)
	default:
		c.logger.Debug("skipping unknown frame type", "type", uint8(typ), "channel", channel)
		return Frame{}, true, nil
	}
	if err != nil {
		return Frame{}, false, err
	}
	return f, true, nil
}

// consume marks n bytes as parsed. They are reclaimed on the next call to
// HandleInput.
func (c *Connection) consume(n int) {
	c.inStart += n
	c.resetRequired = true
	c.state = stateIdle
	c.target = 0
	c.lastRecv = time.Now()
}

// SendFrame encodes f and writes it to the transport in full.
func (c *Connection) SendFrame(f Frame) error {
	if c.destroyed.Load() {
		return ErrConnectionClosed
	}
	e := newEncoder(c.out)
	encodeFrame(e, f)
	if e.err != nil {
		return e.err
	}
	if err := c.write(e.bytes()); err != nil {
		return err
	}
	c.stats.framesOut.Add(1)
	return nil
}

// SendMethod sends a single method frame.
func (c *Connection) SendMethod(channel uint16, m Method) error {
	return c.SendFrame(Frame{Type: FrameMethod, Channel: channel, Method: m})
}

func (c *Connection) sendHeader() error {
	return c.write(c.opts.dialect.header().bytes())
}

// write sends all of p, retrying short writes.
func (c *Connection) write(p []byte) error {
	if c.transport == nil {
		return ErrNoTransport
	}
	var deadline time.Time
	if c.heartbeat > 0 {
		deadline = time.Now().Add(2 * c.heartbeatInterval())
	}
	if err := c.transport.SetWriteDeadline(deadline); err != nil {
		return libError(StatusSocketError, "write", err)
	}
	for len(p) > 0 {
		n, err := c.transport.Send(p)
		if n > 0 {
			c.stats.bytesOut.Add(uint64(n))
			p = p[n:]
		}
		if err != nil {
			return libError(StatusSocketError, "write", err)
		}
	}
	c.lastSend = time.Now()
	return nil
}

func errFrameTooLarge(size uint64, frameMax int) error {
	return errors.Errorf("frame of %d bytes exceeds frame-max %d", size, frameMax)
}

func errBadFrameEnd(b byte) error {
	return errors.Errorf("bad frame end octet 0x%02x", b)
}

func (c *Connection) heartbeatInterval() time.Duration {
	return time.Duration(c.heartbeat) * time.Second
}
