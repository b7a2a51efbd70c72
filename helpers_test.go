package amqp

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// createTestTCPPair creates a connected pair of TCP connections for testing.
func createTestTCPPair(t *testing.T) (*net.TCPConn, *net.TCPConn) {
	t.Helper()

	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer listener.Close()

	// Connect client in goroutine
	clientChan := make(chan *net.TCPConn, 1)
	errChan := make(chan error, 1)
	go func() {
		conn, err := net.DialTCP("tcp", nil, listener.Addr().(*net.TCPAddr))
		if err != nil {
			errChan <- err
			return
		}
		clientChan <- conn
	}()

	serverConn, err := listener.AcceptTCP()
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}

	select {
	case clientConn := <-clientChan:
		return serverConn, clientConn
	case err := <-errChan:
		serverConn.Close()
		t.Fatalf("client dial failed: %v", err)
		return nil, nil
	case <-time.After(5 * time.Second):
		serverConn.Close()
		t.Fatal("timeout waiting for client connection")
		return nil, nil
	}
}

func newTestConnection(t *testing.T, opt ...Option) *Connection {
	t.Helper()
	c, err := NewConnection(opt...)
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })
	return c
}

// frameBytes encodes one method frame.
func frameBytes(t *testing.T, channel uint16, m Method) []byte {
	t.Helper()
	return encodeTestFrame(t, Frame{Type: FrameMethod, Channel: channel, Method: m})
}

func encodeTestFrame(t *testing.T, f Frame) []byte {
	t.Helper()
	e := newEncoder(make([]byte, 1<<20))
	encodeFrame(e, f)
	if e.err != nil {
		t.Fatalf("encodeFrame(%s): %v", f, e.err)
	}
	return append([]byte(nil), e.bytes()...)
}

// scriptedBroker is the server end of a loopback TCP pair whose client end
// is attached to a Connection. Tests drive it frame by frame. Its methods
// may run on a goroutine other than the test's and report through errors
// rather than t.Fatal.
type scriptedBroker struct {
	t    *testing.T
	conn *net.TCPConn
}

func newScriptedBroker(t *testing.T, c *Connection) *scriptedBroker {
	t.Helper()
	serverConn, clientConn := createTestTCPPair(t)
	t.Cleanup(func() { serverConn.Close() })
	c.SetTransport(NewConnTransport(clientConn))
	return &scriptedBroker{t: t, conn: serverConn}
}

func (b *scriptedBroker) write(p []byte) error {
	_, err := b.conn.Write(p)
	return err
}

func (b *scriptedBroker) sendMethod(channel uint16, m Method) error {
	return b.write(frameBytes(b.t, channel, m))
}

// readHeader reads the 8-byte protocol header the client opens with.
func (b *scriptedBroker) readHeader() ([]byte, error) {
	buf := make([]byte, protocolHeaderSize)
	_ = b.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err := io.ReadFull(b.conn, buf)
	return buf, err
}

// readFrame reads and decodes one frame sent by the client.
func (b *scriptedBroker) readFrame() (Frame, error) {
	_ = b.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	head := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(b.conn, head); err != nil {
		return Frame{}, err
	}
	size, _ := getUint32(head, 3)
	rest := make([]byte, size+frameFooterSize)
	if _, err := io.ReadFull(b.conn, rest); err != nil {
		return Frame{}, err
	}
	if rest[size] != frameEnd {
		return Frame{}, errBadFrameEnd(rest[size])
	}

	channel, _ := getUint16(head, 1)
	f := Frame{Type: FrameType(head[0]), Channel: channel}
	payload := rest[:size]
	var err error
	switch f.Type {
	case FrameMethod:
		f.Method, err = decodeMethod(payload, nil)
	case FrameHeader:
		f.Header, err = decodeContentHeader(payload, nil)
	case FrameBody:
		f.Body = payload
	}
	return f, err
}

// expectMethod reads one frame and checks it carries the given method.
func (b *scriptedBroker) expectMethod(id MethodID) (Method, error) {
	f, err := b.readFrame()
	if err != nil {
		return nil, err
	}
	if f.MethodID() != id {
		return nil, errors.Errorf("broker expected %s, got %s", id, f)
	}
	return f.Method, nil
}
