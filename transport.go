package amqp

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Transport is the byte stream a Connection runs over.
//
// Recv returns 0, io.EOF when the peer closed the stream in an orderly way.
// Deadlines behave as on net.Conn: an expired deadline makes a blocked call
// return an error for which os.ErrDeadlineExceeded matches with errors.Is.
type Transport interface {
	Open(ctx context.Context, host string, port int) error
	Send(p []byte) (int, error)
	Recv(p []byte) (int, error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Default TCP settings.
const (
	defaultKeepAlive = 30 * time.Second
)

// TCPConfig tunes a TCPTransport.
type TCPConfig struct {
	// DialTimeout bounds connection establishment. Zero means no timeout
	// beyond the context passed to Open.
	DialTimeout time.Duration
	// KeepAlive is the TCP keep-alive period. Negative disables it.
	KeepAlive time.Duration
	// UserTimeout sets TCP_USER_TIMEOUT where the platform supports it.
	UserTimeout time.Duration
}

// TCPTransport is a plain TCP Transport.
type TCPTransport struct {
	cfg    TCPConfig
	conn   net.Conn
	closed atomic.Bool
}

// NewTCPTransport creates an unopened TCP transport.
func NewTCPTransport(cfg TCPConfig) *TCPTransport {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	return &TCPTransport{cfg: cfg}
}

// NewConnTransport wraps an already connected net.Conn. Open on the result
// fails with StatusSocketInUse.
func NewConnTransport(conn net.Conn) *TCPTransport {
	return &TCPTransport{conn: conn}
}

func (t *TCPTransport) dial(ctx context.Context, host string, port int) (net.Conn, error) {
	d := net.Dialer{
		Timeout:   t.cfg.DialTimeout,
		KeepAlive: t.cfg.KeepAlive,
		Control:   sockoptControl(t.cfg.UserTimeout),
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return nil, libError(StatusHostnameResolutionFailed, "dial "+addr, err)
		}
		return nil, libError(StatusSocketError, "dial "+addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}

// Open connects to host:port.
func (t *TCPTransport) Open(ctx context.Context, host string, port int) error {
	if t.conn != nil {
		return &LibraryError{Status: StatusSocketInUse, Op: "open"}
	}
	conn, err := t.dial(ctx, host, port)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

// Send writes p to the socket.
func (t *TCPTransport) Send(p []byte) (int, error) {
	if t.conn == nil || t.closed.Load() {
		return 0, ErrNoTransport
	}
	return t.conn.Write(p)
}

// Recv reads into p. It returns io.EOF once the peer has closed the
// connection.
func (t *TCPTransport) Recv(p []byte) (int, error) {
	if t.conn == nil || t.closed.Load() {
		return 0, ErrNoTransport
	}
	n, err := t.conn.Read(p)
	if n == 0 && err == nil {
		return 0, io.ErrNoProgress
	}
	return n, err
}

// SetReadDeadline sets the deadline for Recv. The zero time means no
// deadline.
func (t *TCPTransport) SetReadDeadline(d time.Time) error {
	if t.conn == nil {
		return ErrNoTransport
	}
	return t.conn.SetReadDeadline(d)
}

// SetWriteDeadline sets the deadline for Send.
func (t *TCPTransport) SetWriteDeadline(d time.Time) error {
	if t.conn == nil {
		return ErrNoTransport
	}
	return t.conn.SetWriteDeadline(d)
}

// Close closes the socket. Safe to call multiple times.
func (t *TCPTransport) Close() error {
	if t.closed.Swap(true) {
		return nil // already closed
	}
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// IsClosed returns true if the transport has been closed.
func (t *TCPTransport) IsClosed() bool {
	return t.closed.Load()
}

// RemoteAddr returns the peer address, or nil before Open.
func (t *TCPTransport) RemoteAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.RemoteAddr()
}
