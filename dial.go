package amqp

import (
	"context"
)

// Dial opens a transport to the host in info, attaches it to a new
// connection and logs in with PLAIN credentials. info.SSL selects TLS
// configured by tlsCfg; a nil tlsCfg means DefaultTLSConfig.
//
// On failure the connection is destroyed and nil is returned.
func Dial(ctx context.Context, info ConnectionInfo, tlsCfg *TLSConfig, opt ...Option) (*Connection, error) {
	return DialAuth(ctx, info, tlsCfg, PlainAuth{Username: info.User, Password: info.Password}, opt...)
}

// DialAuth is Dial with an explicit SASL mechanism.
func DialAuth(ctx context.Context, info ConnectionInfo, tlsCfg *TLSConfig, auth SASL, opt ...Option) (*Connection, error) {
	c, err := NewConnection(opt...)
	if err != nil {
		return nil, err
	}

	tcp := TCPConfig{DialTimeout: c.opts.dialTimeout}
	var t Transport
	if info.SSL {
		cfg := DefaultTLSConfig()
		if tlsCfg != nil {
			cfg = *tlsCfg
		}
		if cfg.TCP.DialTimeout == 0 {
			cfg.TCP.DialTimeout = tcp.DialTimeout
		}
		t = NewTLSTransport(cfg)
	} else {
		t = NewTCPTransport(tcp)
	}

	if err := t.Open(ctx, info.Host, info.Port); err != nil {
		c.logger.Error("open transport failed", "server", info.String(), "error", err)
		_ = c.Destroy()
		return nil, err
	}
	c.SetTransport(t)

	if err := c.Login(ctx, info.VHost, auth); err != nil {
		c.logger.Error("login failed", "server", info.String(), "error", err)
		_ = c.Destroy()
		return nil, err
	}
	return c, nil
}
