package amqp

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"testing"
	"time"
)

// selfSigned generates a certificate for hosts that also acts as its own
// CA, returned as PEM.
func selfSigned(t *testing.T, hosts ...string) (certPEM, keyPEM []byte) {
	t.Helper()

	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("serial: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: hosts[0]},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &k.PublicKey, k)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(k)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

// startTLSEcho serves TLS on loopback and echoes what it reads.
func startTLSEcho(t *testing.T, certPEM, keyPEM []byte) int {
	t.Helper()
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("key pair: %v", err)
	}
	l, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}()
		}
	}()
	return l.Addr().(*net.TCPAddr).Port
}

func TestTLSTransport_Verified(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, "127.0.0.1")
	port := startTLSEcho(t, certPEM, keyPEM)

	before := TLSTransportsInUse()
	cfg := DefaultTLSConfig()
	cfg.CACert = certPEM
	tr := NewTLSTransport(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Open(ctx, "127.0.0.1", port); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := TLSTransportsInUse(); got != before+1 {
		t.Errorf("TLSTransportsInUse() = %d, want %d", got, before+1)
	}
	if tr.ConnectionState().Version < tls.VersionTLS12 {
		t.Errorf("TLS version = %x", tr.ConnectionState().Version)
	}
	if err := tr.Open(ctx, "127.0.0.1", port); StatusOf(err) != StatusSocketInUse {
		t.Errorf("second Open = %v, want %v", err, StatusSocketInUse)
	}

	if _, err := tr.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_ = tr.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 5)
	got := 0
	for got < len(buf) {
		n, err := tr.Recv(buf[got:])
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		got += n
	}
	if string(buf) != "hello" {
		t.Errorf("echo = %q", buf)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if got := TLSTransportsInUse(); got != before {
		t.Errorf("TLSTransportsInUse() after Close = %d, want %d", got, before)
	}
}

func TestTLSTransport_VerifyFailures(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, "127.0.0.1")
	port := startTLSEcho(t, certPEM, keyPEM)
	otherCA, _ := selfSigned(t, "other.example")

	tests := []struct {
		name string
		cfg  TLSConfig
		want Status
	}{
		{
			name: "unknown authority",
			cfg:  TLSConfig{CACert: otherCA, VerifyPeer: true, VerifyHostname: true},
			want: StatusSSLPeerVerifyFailed,
		},
		{
			name: "hostname mismatch",
			cfg:  TLSConfig{CACert: certPEM, VerifyPeer: true, VerifyHostname: true, ServerName: "broker.example"},
			want: StatusSSLHostnameVerifyFailed,
		},
		{
			name: "bad CA",
			cfg:  TLSConfig{CACert: []byte("not a certificate"), VerifyPeer: true},
			want: StatusSSLError,
		},
		{
			name: "bad client key",
			cfg:  TLSConfig{CACert: certPEM, Cert: certPEM, Key: []byte("junk"), VerifyPeer: true},
			want: StatusSSLError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := TLSTransportsInUse()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tr := NewTLSTransport(tt.cfg)
			err := tr.Open(ctx, "127.0.0.1", port)
			if StatusOf(err) != tt.want {
				t.Errorf("Open = %v, want %v", err, tt.want)
			}
			if TLSTransportsInUse() != before {
				t.Error("failed Open changed the in-use count")
			}
		})
	}
}

func TestTLSTransport_RelaxedVerification(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, "127.0.0.1")
	port := startTLSEcho(t, certPEM, keyPEM)

	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"no peer verification", TLSConfig{}},
		{"chain only", TLSConfig{CACert: certPEM, VerifyPeer: true, ServerName: "broker.example"}},
		{"client certificate", TLSConfig{CACert: certPEM, Cert: certPEM, Key: keyPEM, VerifyPeer: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tr := NewTLSTransport(tt.cfg)
			if err := tr.Open(ctx, "127.0.0.1", port); err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := tr.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
	}
}

func TestTLSTransport_Unopened(t *testing.T) {
	tr := NewTLSTransport(DefaultTLSConfig())
	if _, err := tr.Recv(make([]byte, 1)); err != ErrNoTransport {
		t.Errorf("Recv = %v", err)
	}
	if tr.RemoteAddr() != nil {
		t.Error("RemoteAddr() != nil before Open")
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
