package amqp

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
)

// Version is reported to the server in the client properties.
const Version = "0.1.0"

// Login runs the connection handshake over the attached transport:
// protocol header, start, start-ok, tune, tune-ok, open, open-ok. The
// channel-max, frame-max and heartbeat requested are taken from the
// connection options and negotiated down to the server's limits.
func (c *Connection) Login(ctx context.Context, vhost string, auth SASL) error {
	if c.phase != phaseNew {
		return &LibraryError{Status: StatusUnexpectedState, Op: "login"}
	}
	if auth == nil {
		return &LibraryError{Status: StatusInvalidParameter, Op: "login"}
	}
	c.phase = phaseLogin

	if err := c.sendHeader(); err != nil {
		return err
	}
	c.expectProtocolHeader = true

	start, err := c.waitStart(ctx)
	if err != nil {
		return err
	}
	if !saslMechanismInList(start.Mechanisms, auth.Mechanism()) {
		return &LibraryError{
			Status: StatusBrokerUnsupportedSASLMethod,
			Op:     "login",
			Err:    errors.Errorf("%s not in %q", auth.Mechanism(), start.Mechanisms),
		}
	}

	c.clientProps = c.buildClientProperties()
	err = c.SendMethod(0, &ConnectionStartOk{
		ClientProperties: c.clientProps,
		Mechanism:        auth.Mechanism(),
		Response:         auth.Response(),
		Locale:           "en_US",
	})
	if err != nil {
		return err
	}

	m, err := c.SimpleWaitMethod(ctx, 0, MethodConnectionTune)
	if err != nil {
		return err
	}
	tune := m.(*ConnectionTune)

	channelMax := negotiateLimit(c.opts.channelMax, int(tune.ChannelMax))
	frameMax := negotiateLimit(c.opts.frameMax, int(tune.FrameMax))
	heartbeat := c.opts.heartbeat
	if tune.Heartbeat != 0 && int(tune.Heartbeat) < heartbeat {
		heartbeat = int(tune.Heartbeat)
	}
	if frameMax < FrameMinSize {
		frameMax = FrameMinSize
	}

	if err := c.TuneConnection(channelMax, frameMax, heartbeat); err != nil {
		return err
	}
	err = c.SendMethod(0, &ConnectionTuneOk{
		ChannelMax: uint16(channelMax),
		FrameMax:   uint32(frameMax),
		Heartbeat:  uint16(heartbeat),
	})
	if err != nil {
		return err
	}

	_, err = c.SimpleRPCDecoded(ctx, 0, &ConnectionOpen{VirtualHost: vhost}, MethodConnectionOpenOk)
	if err != nil {
		return err
	}
	c.MaybeReleaseBuffers()

	c.phase = phaseOpen
	c.logger.Info("connection opened", "vhost", vhost,
		"channel_max", channelMax,
		"frame_max", frameMax,
		"heartbeat", heartbeat)
	return nil
}

// waitStart reads connection.start, rejecting servers that answer with a
// protocol header or an unsupported version.
func (c *Connection) waitStart(ctx context.Context) (*ConnectionStart, error) {
	f, err := c.waitFrame(ctx)
	if err != nil {
		return nil, err
	}
	if f.Type == FrameProtocolHeader {
		return nil, &LibraryError{
			Status: StatusIncompatibleAMQPVersion,
			Op:     "login",
			Err:    errors.Errorf("server supports %s", f.Protocol),
		}
	}
	if f.Channel != 0 || f.MethodID() != MethodConnectionStart {
		return nil, &LibraryError{
			Status: StatusWrongMethod,
			Op:     "login",
			Err:    errors.Errorf("expected connection.start, got %s", f),
		}
	}

	// The server properties outlive the frame cycle.
	kept, err := f.clone(nil)
	if err != nil {
		return nil, err
	}
	start := kept.Method.(*ConnectionStart)
	if start.VersionMajor != 0 || start.VersionMinor != 9 {
		return nil, &LibraryError{
			Status: StatusIncompatibleAMQPVersion,
			Op:     "login",
			Err:    errors.Errorf("server speaks %d-%d", start.VersionMajor, start.VersionMinor),
		}
	}
	c.serverProps = start.ServerProperties
	c.logger.Debug("connection start", "mechanisms", start.Mechanisms, "locales", start.Locales)
	return start, nil
}

// negotiateLimit picks the server's limit when it is set and tighter than
// the client's, treating zero as unlimited.
func negotiateLimit(client, server int) int {
	if server != 0 && (client == 0 || server < client) {
		return server
	}
	return client
}

func (c *Connection) buildClientProperties() Table {
	props := Table{
		Entry("product", UTF8("amqp-go")),
		Entry("version", UTF8(Version)),
		Entry("platform", UTF8(runtime.GOOS+"/"+runtime.GOARCH)),
		Entry("copyright", UTF8("")),
		Entry("information", UTF8("https://github.com/Zereker/amqp")),
		Entry("capabilities", TableValue(Table{
			Entry("authentication_failure_close", Boolean(true)),
			Entry("connection.blocked", Boolean(true)),
			Entry("consumer_cancel_notify", Boolean(true)),
			Entry("exchange_exchange_bindings", Boolean(true)),
			Entry("basic.nack", Boolean(true)),
			Entry("publisher_confirms", Boolean(true)),
		})),
	}
	for _, extra := range c.opts.clientProps {
		replaced := false
		for i := range props {
			if props[i].Key == extra.Key {
				props[i].Value = extra.Value
				replaced = true
				break
			}
		}
		if !replaced {
			props = append(props, extra)
		}
	}
	return props
}
