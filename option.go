package amqp

import (
	"time"
)

// options holds the configuration for a connection.
type options struct {
	logger Logger

	channelMax  int     // channel-max requested during login, 0 for no limit
	frameMax    int     // frame-max requested during login
	heartbeat   int     // heartbeat requested during login, in seconds
	dialect     Dialect // protocol header variant
	clientProps Table   // extra client properties sent in start-ok

	dialTimeout  time.Duration // timeout for opening the transport
	readChunk    int           // size of a single transport read
	pendingLimit int           // max queued frames, 0 for unbounded
	poolLimit    int           // max bytes per pool generation, 0 for unbounded
}

// Option is a function that configures connection options.
type Option func(*options)

// Default configuration values.
const (
	// DefaultChannelMax is the channel-max requested during login.
	DefaultChannelMax = 2047
	// DefaultHeartbeat disables heartbeats unless the caller asks for them.
	DefaultHeartbeat = 0
	// defaultDialTimeout bounds connection establishment.
	defaultDialTimeout = 30 * time.Second
	// defaultReadChunk is the size of a single transport read.
	defaultReadChunk = 64 * 1024
)

// ChannelMaxOption returns an Option that sets the channel-max requested
// during login. Zero asks for the server's limit.
func ChannelMaxOption(n int) Option {
	return func(o *options) {
		o.channelMax = n
	}
}

// FrameMaxOption returns an Option that sets the frame-max requested during
// login. Values below FrameMinSize are raised to it.
func FrameMaxOption(n int) Option {
	return func(o *options) {
		o.frameMax = n
	}
}

// HeartbeatOption returns an Option that sets the heartbeat interval
// requested during login. It is rounded down to whole seconds; the server
// may lower it.
func HeartbeatOption(heartbeat time.Duration) Option {
	return func(o *options) {
		o.heartbeat = int(heartbeat / time.Second)
	}
}

// ProtocolDialectOption returns an Option that selects the protocol header.
func ProtocolDialectOption(d Dialect) Option {
	return func(o *options) {
		o.dialect = d
	}
}

// ClientPropertiesOption returns an Option that adds entries to the client
// properties sent during login. Entries with the same key as a default
// property replace it.
func ClientPropertiesOption(props Table) Option {
	return func(o *options) {
		o.clientProps = props
	}
}

// DialTimeoutOption returns an Option that bounds how long opening the
// transport may take.
func DialTimeoutOption(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

// ReadChunkOption returns an Option that sets the size of a single read from
// the transport.
func ReadChunkOption(size int) Option {
	return func(o *options) {
		o.readChunk = size
	}
}

// PendingFramesLimitOption returns an Option that caps the number of frames
// queued while waiting for an RPC reply. Exceeding it fails the wait with
// StatusNoMemory. Zero means unbounded.
func PendingFramesLimitOption(n int) Option {
	return func(o *options) {
		o.pendingLimit = n
	}
}

// PoolLimitOption returns an Option that caps the bytes each connection pool
// may hand out between recycles. Zero means unbounded.
func PoolLimitOption(n int) Option {
	return func(o *options) {
		o.poolLimit = n
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.channelMax < 0 || opts.channelMax > 0xFFFF {
		return &LibraryError{Status: StatusInvalidParameter, Op: "channel max"}
	}

	if opts.frameMax == 0 {
		opts.frameMax = DefaultFrameMax
	}
	if opts.frameMax < FrameMinSize {
		opts.frameMax = FrameMinSize
	}

	if opts.heartbeat < 0 || opts.heartbeat > 0xFFFF {
		return &LibraryError{Status: StatusInvalidParameter, Op: "heartbeat"}
	}

	if opts.dialect != DialectStandard && opts.dialect != DialectLegacy {
		return &LibraryError{Status: StatusInvalidParameter, Op: "protocol dialect"}
	}

	if opts.dialTimeout <= 0 {
		opts.dialTimeout = defaultDialTimeout
	}

	if opts.readChunk <= 0 {
		opts.readChunk = defaultReadChunk
	}

	if opts.pendingLimit < 0 || opts.poolLimit < 0 {
		return &LibraryError{Status: StatusInvalidParameter, Op: "limits"}
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}
