package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/amqp"
	"github.com/Zereker/amqp/metrics"
)

// closeTimeout bounds the orderly shutdown after the command's context
// has been cancelled.
const closeTimeout = 5 * time.Second

// connectOptions are the flags shared by every command.
type connectOptions struct {
	flags *pflag.FlagSet

	url      string
	server   string
	vhost    string
	username string
	password string

	ssl          bool
	cacert       string
	key          string
	cert         string
	noVerifyPeer bool

	heartbeat     time.Duration
	frameMax      int
	metricsListen string
	debug         bool
}

func (o *connectOptions) addFlags(flags *pflag.FlagSet) {
	o.flags = flags
	flags.StringVarP(&o.url, "url", "u", "", "the AMQP URL to connect to")
	flags.StringVarP(&o.server, "server", "s", "localhost", "the AMQP server to connect to (hostname:port)")
	flags.StringVar(&o.vhost, "vhost", "/", "the vhost to use when connecting")
	flags.StringVar(&o.username, "username", "guest", "the username to login with")
	flags.StringVar(&o.password, "password", "guest", "the password to login with")
	flags.BoolVar(&o.ssl, "ssl", false, "connect over TLS")
	flags.StringVar(&o.cacert, "cacert", "", "path to the CA certificate file")
	flags.StringVar(&o.key, "key", "", "path to the client private key file")
	flags.StringVar(&o.cert, "cert", "", "path to the client certificate file")
	flags.BoolVar(&o.noVerifyPeer, "no-verify-peer", false, "do not verify the server certificate")
	flags.DurationVar(&o.heartbeat, "heartbeat", 0, "heartbeat interval to request, 0 to disable")
	flags.IntVar(&o.frameMax, "frame-max", amqp.DefaultFrameMax, "maximum frame size to request")
	flags.StringVar(&o.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")
	flags.BoolVar(&o.debug, "debug", false, "log protocol events")
}

// connectionInfo merges --url with the individual connection flags. A flag
// given explicitly overrides the matching URL component.
func (o *connectOptions) connectionInfo() (amqp.ConnectionInfo, error) {
	info := amqp.DefaultConnectionInfo()
	if o.url != "" {
		var err error
		info, err = amqp.ParseURL(o.url)
		if err != nil {
			return info, err
		}
	}
	changed := func(name string) bool {
		return o.url == "" || o.flags.Changed(name)
	}

	if changed("ssl") && o.ssl {
		info.SSL = true
		if info.Port == amqp.DefaultPort {
			info.Port = amqp.DefaultTLSPort
		}
	}
	if changed("server") {
		host, port, err := parseServer(o.server)
		if err != nil {
			return info, err
		}
		info.Host = host
		switch {
		case port != 0:
			info.Port = port
		case info.SSL:
			info.Port = amqp.DefaultTLSPort
		default:
			info.Port = amqp.DefaultPort
		}
	}
	if changed("vhost") {
		info.VHost = o.vhost
	}
	if changed("username") {
		info.User = o.username
	}
	if changed("password") {
		info.Password = o.password
	}
	return info, nil
}

// parseServer splits hostname:port. The port is 0 when absent.
func parseServer(server string) (string, int, error) {
	i := strings.LastIndexByte(server, ':')
	if i < 0 || strings.HasSuffix(server, "]") {
		return strings.Trim(server, "[]"), 0, nil
	}
	port, err := strconv.Atoi(server[i+1:])
	if err != nil || port < 0 || port > 65535 {
		return "", 0, errors.Errorf("bad server port number in %s", server)
	}
	return strings.Trim(server[:i], "[]"), port, nil
}

func (o *connectOptions) tlsConfig() (*amqp.TLSConfig, error) {
	cfg := amqp.DefaultTLSConfig()
	cfg.VerifyPeer = !o.noVerifyPeer
	cfg.VerifyHostname = !o.noVerifyPeer

	read := func(path string) ([]byte, error) {
		if path == "" {
			return nil, nil
		}
		b, err := os.ReadFile(path)
		return b, errors.Wrapf(err, "read %s", path)
	}
	var err error
	if cfg.CACert, err = read(o.cacert); err != nil {
		return nil, err
	}
	if cfg.Cert, err = read(o.cert); err != nil {
		return nil, err
	}
	if cfg.Key, err = read(o.key); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (o *connectOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// session is an open connection with channel 1 ready for use.
type session struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	logger  *slog.Logger
	metrics *http.Server
	group   errgroup.Group
}

func (o *connectOptions) open(ctx context.Context) (*session, error) {
	info, err := o.connectionInfo()
	if err != nil {
		return nil, err
	}
	var tlsCfg *amqp.TLSConfig
	if info.SSL {
		if tlsCfg, err = o.tlsConfig(); err != nil {
			return nil, err
		}
	}

	s := &session{logger: o.logger()}
	s.conn, err = amqp.Dial(ctx, info, tlsCfg,
		amqp.HeartbeatOption(o.heartbeat),
		amqp.FrameMaxOption(o.frameMax),
		amqp.LoggerOption(s.logger),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "opening connection to %s", info)
	}

	if s.ch, err = s.conn.ChannelOpen(ctx, 1); err != nil {
		_ = s.conn.Destroy()
		return nil, errors.Wrap(err, "opening channel")
	}

	if o.metricsListen != "" {
		if err := s.serveMetrics(o.metricsListen); err != nil {
			_ = s.conn.Destroy()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) serveMetrics(addr string) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector("amqp_tools", s.conn.Stats(), nil))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "metrics listener")
	}
	s.metrics = &http.Server{
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.group.Go(func() error {
		if err := s.metrics.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	s.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// close shuts the channel and connection down in order, then releases
// everything. It runs even when ctx is already cancelled.
func (s *session) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	err := s.ch.Close(ctx, amqp.CodeSuccess)
	if err != nil {
		err = errors.Wrap(err, "closing channel")
	} else if err = s.conn.Close(ctx, amqp.CodeSuccess); err != nil {
		err = errors.Wrap(err, "closing connection")
	}
	if derr := s.conn.Destroy(); err == nil && derr != nil {
		err = errors.Wrap(derr, "closing connection")
	}

	if s.metrics != nil {
		_ = s.metrics.Shutdown(ctx)
		if merr := s.group.Wait(); err == nil {
			err = merr
		}
	}
	return err
}
