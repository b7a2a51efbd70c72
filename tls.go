package amqp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// systemRoots loads the system certificate pool once per process.
var systemRoots = sync.OnceValues(x509.SystemCertPool)

// tlsInUse counts open TLS transports.
var tlsInUse atomic.Int64

// TLSTransportsInUse returns the number of TLS transports currently open.
func TLSTransportsInUse() int64 {
	return tlsInUse.Load()
}

// TLSConfig configures a TLSTransport. Certificates are PEM encoded.
type TLSConfig struct {
	TCP TCPConfig

	// CACert replaces the system roots when set.
	CACert []byte
	// Cert and Key form the client certificate, used for EXTERNAL auth.
	Cert []byte
	Key  []byte

	// VerifyPeer checks the server certificate chain.
	VerifyPeer bool
	// VerifyHostname checks the certificate names the host. It only
	// applies when VerifyPeer is set.
	VerifyHostname bool
	// ServerName overrides the name used for SNI and hostname checks.
	ServerName string
}

// DefaultTLSConfig verifies both the peer and its hostname.
func DefaultTLSConfig() TLSConfig {
	return TLSConfig{VerifyPeer: true, VerifyHostname: true}
}

// TLSTransport is a TLS Transport.
type TLSTransport struct {
	cfg    TLSConfig
	tcp    *TCPTransport
	conn   *tls.Conn
	open   bool
	closed atomic.Bool
}

// NewTLSTransport creates an unopened TLS transport.
func NewTLSTransport(cfg TLSConfig) *TLSTransport {
	return &TLSTransport{cfg: cfg, tcp: NewTCPTransport(cfg.TCP)}
}

func (t *TLSTransport) tlsConfig(host string) (*tls.Config, error) {
	var roots *x509.CertPool
	if len(t.cfg.CACert) > 0 {
		roots = x509.NewCertPool()
		if !roots.AppendCertsFromPEM(t.cfg.CACert) {
			return nil, &LibraryError{Status: StatusSSLError, Op: "load CA certificate"}
		}
	} else {
		var err error
		roots, err = systemRoots()
		if err != nil {
			return nil, libError(StatusSSLError, "load system roots", err)
		}
	}

	cfg := &tls.Config{
		RootCAs:    roots,
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}
	if t.cfg.ServerName != "" {
		cfg.ServerName = t.cfg.ServerName
	}

	if len(t.cfg.Cert) > 0 || len(t.cfg.Key) > 0 {
		pair, err := tls.X509KeyPair(t.cfg.Cert, t.cfg.Key)
		if err != nil {
			return nil, libError(StatusSSLError, "load client certificate", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	switch {
	case !t.cfg.VerifyPeer:
		cfg.InsecureSkipVerify = true
	case !t.cfg.VerifyHostname:
		// Verify the chain but not the name.
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return errors.New("no peer certificate")
			}
			inter := x509.NewCertPool()
			for _, c := range cs.PeerCertificates[1:] {
				inter.AddCert(c)
			}
			_, err := cs.PeerCertificates[0].Verify(x509.VerifyOptions{
				Roots:         roots,
				Intermediates: inter,
			})
			return err
		}
	}
	return cfg, nil
}

// Open connects to host:port and completes the TLS handshake.
func (t *TLSTransport) Open(ctx context.Context, host string, port int) error {
	if t.open {
		return &LibraryError{Status: StatusSocketInUse, Op: "open"}
	}
	cfg, err := t.tlsConfig(host)
	if err != nil {
		return err
	}
	raw, err := t.tcp.dial(ctx, host, port)
	if err != nil {
		return err
	}
	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return handshakeError(err)
	}
	t.conn = conn
	t.open = true
	tlsInUse.Add(1)
	return nil
}

func handshakeError(err error) error {
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return libError(StatusSSLHostnameVerifyFailed, "tls handshake", err)
	}
	var authErr x509.UnknownAuthorityError
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &authErr) || errors.As(err, &invalidErr) {
		return libError(StatusSSLPeerVerifyFailed, "tls handshake", err)
	}
	return libError(StatusSSLConnectionFailed, "tls handshake", err)
}

// Send writes p through the TLS session.
func (t *TLSTransport) Send(p []byte) (int, error) {
	if !t.open || t.closed.Load() {
		return 0, ErrNoTransport
	}
	return t.conn.Write(p)
}

// Recv reads decrypted bytes into p.
func (t *TLSTransport) Recv(p []byte) (int, error) {
	if !t.open || t.closed.Load() {
		return 0, ErrNoTransport
	}
	return t.conn.Read(p)
}

// SetReadDeadline sets the deadline for Recv.
func (t *TLSTransport) SetReadDeadline(d time.Time) error {
	if !t.open {
		return ErrNoTransport
	}
	return t.conn.SetReadDeadline(d)
}

// SetWriteDeadline sets the deadline for Send.
func (t *TLSTransport) SetWriteDeadline(d time.Time) error {
	if !t.open {
		return ErrNoTransport
	}
	return t.conn.SetWriteDeadline(d)
}

// Close sends close_notify and closes the socket. Safe to call multiple
// times.
func (t *TLSTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if !t.open {
		return nil
	}
	tlsInUse.Add(-1)
	return t.conn.Close()
}

// ConnectionState returns the negotiated TLS parameters.
func (t *TLSTransport) ConnectionState() tls.ConnectionState {
	if !t.open {
		return tls.ConnectionState{}
	}
	return t.conn.ConnectionState()
}

// RemoteAddr returns the peer address, or nil before Open.
func (t *TLSTransport) RemoteAddr() net.Addr {
	if !t.open {
		return nil
	}
	return t.conn.RemoteAddr()
}
