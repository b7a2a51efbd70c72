package amqp

import (
	"context"
	"io"
	"net"
	"testing"
	"time"
)

func listenLoopback(t *testing.T) (*net.TCPListener, int) {
	t.Helper()
	l, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, l.Addr().(*net.TCPAddr).Port
}

func TestTCPTransport_SendRecv(t *testing.T) {
	l, port := listenLoopback(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	tr := NewTCPTransport(TCPConfig{DialTimeout: time.Second, UserTimeout: 10 * time.Second})
	if err := tr.Open(context.Background(), "127.0.0.1", port); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tr.Close()

	server, ok := <-accepted
	if !ok {
		t.Fatal("accept failed")
	}
	defer server.Close()

	if tr.RemoteAddr() == nil {
		t.Error("RemoteAddr() = nil")
	}
	if err := tr.Open(context.Background(), "127.0.0.1", port); StatusOf(err) != StatusSocketInUse {
		t.Errorf("second Open = %v, want %v", err, StatusSocketInUse)
	}

	if n, err := tr.Send([]byte("ping")); err != nil || n != 4 {
		t.Fatalf("Send = %d, %v", n, err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(server, buf); err != nil || string(buf) != "ping" {
		t.Fatalf("server read %q, %v", buf, err)
	}

	if _, err := server.Write([]byte("pong")); err != nil {
		t.Fatal(err)
	}
	_ = tr.SetReadDeadline(time.Now().Add(5 * time.Second))
	got := 0
	for got < len(buf) {
		n, err := tr.Recv(buf[got:])
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		got += n
	}
	if string(buf) != "pong" {
		t.Errorf("Recv = %q, want pong", buf)
	}

	server.Close()
	var err error
	for {
		_, err = tr.Recv(buf)
		if err != nil {
			break
		}
	}
	if err != io.EOF {
		t.Errorf("Recv after peer close = %v, want io.EOF", err)
	}
}

func TestTCPTransport_Close(t *testing.T) {
	serverConn, clientConn := createTestTCPPair(t)
	defer serverConn.Close()

	tr := NewConnTransport(clientConn)
	if tr.IsClosed() {
		t.Error("IsClosed() before Close")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if !tr.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if _, err := tr.Send([]byte("x")); err != ErrNoTransport {
		t.Errorf("Send after Close = %v", err)
	}
	if _, err := tr.Recv(make([]byte, 1)); err != ErrNoTransport {
		t.Errorf("Recv after Close = %v", err)
	}
}

func TestTCPTransport_Unopened(t *testing.T) {
	tr := NewTCPTransport(TCPConfig{})
	if _, err := tr.Send([]byte("x")); err != ErrNoTransport {
		t.Errorf("Send = %v", err)
	}
	if err := tr.SetReadDeadline(time.Now()); err != ErrNoTransport {
		t.Errorf("SetReadDeadline = %v", err)
	}
	if tr.RemoteAddr() != nil {
		t.Error("RemoteAddr() != nil before Open")
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestTCPTransport_DialRefused(t *testing.T) {
	l, port := listenLoopback(t)
	l.Close()

	tr := NewTCPTransport(TCPConfig{DialTimeout: time.Second})
	err := tr.Open(context.Background(), "127.0.0.1", port)
	if StatusOf(err) != StatusSocketError {
		t.Errorf("Open = %v, want %v", err, StatusSocketError)
	}
}

func TestTCPTransport_DialUnknownHost(t *testing.T) {
	tr := NewTCPTransport(TCPConfig{DialTimeout: 2 * time.Second})
	err := tr.Open(context.Background(), "host.invalid", DefaultPort)
	if StatusOf(err) != StatusHostnameResolutionFailed {
		t.Errorf("Open = %v, want %v", err, StatusHostnameResolutionFailed)
	}
}

func TestNewTCPTransport_Defaults(t *testing.T) {
	if tr := NewTCPTransport(TCPConfig{}); tr.cfg.KeepAlive != defaultKeepAlive {
		t.Errorf("KeepAlive = %v, want %v", tr.cfg.KeepAlive, defaultKeepAlive)
	}
	if tr := NewTCPTransport(TCPConfig{KeepAlive: -1}); tr.cfg.KeepAlive != -1 {
		t.Errorf("KeepAlive = %v, want -1", tr.cfg.KeepAlive)
	}
}

func TestSockoptControl(t *testing.T) {
	if sockoptControl(0) != nil {
		t.Error("sockoptControl(0) != nil")
	}
}
