package amqp

import (
	"context"
	"slices"
)

// SimpleRPC sends req on channel and waits for one of the expected replies
// on the same channel.
//
// A channel.close for the channel, or a connection.close, ends the call
// with ReplyServerException; the close is acknowledged before returning.
// Transport and decoding failures end it with ReplyLibraryException. Any
// other frame is copied to the pending queue and the wait continues.
//
// The reply is also recorded and available from LastRPCReply.
func (c *Connection) SimpleRPC(ctx context.Context, channel uint16, req Method, expected ...MethodID) RPCReply {
	if err := c.SendMethod(channel, req); err != nil {
		return c.setReply(RPCReply{Type: ReplyLibraryException, Channel: channel, LibraryErr: err})
	}
	return c.setReply(c.awaitReply(ctx, channel, expected))
}

// SimpleRPCDecoded is SimpleRPC returning the matched method, or the
// reply converted to an error.
func (c *Connection) SimpleRPCDecoded(ctx context.Context, channel uint16, req Method, expected ...MethodID) (Method, error) {
	reply := c.SimpleRPC(ctx, channel, req, expected...)
	if err := reply.Err(); err != nil {
		return nil, err
	}
	return reply.Method, nil
}

// LastRPCReply returns the outcome of the most recent RPC or one-way call
// such as BasicPublish or BasicAck. For a one-way call Method is nil.
func (c *Connection) LastRPCReply() RPCReply {
	return c.lastReply
}

// recordSend stores the result of a one-way call as the latest reply.
func (c *Connection) recordSend(channel uint16, err error) error {
	if err != nil {
		c.setReply(RPCReply{Type: ReplyLibraryException, Channel: channel, LibraryErr: err})
		return err
	}
	c.setReply(RPCReply{Type: ReplyNormal, Channel: channel})
	return nil
}

func (c *Connection) setReply(r RPCReply) RPCReply {
	c.lastReply = r
	return r
}

func (c *Connection) awaitReply(ctx context.Context, channel uint16, expected []MethodID) RPCReply {
	for {
		f, err := c.waitFrame(ctx)
		if err != nil {
			return RPCReply{Type: ReplyLibraryException, Channel: channel, LibraryErr: err}
		}

		if f.Type == FrameMethod {
			id := f.MethodID()
			matched := f.Channel == channel && slices.Contains(expected, id)
			closed := (id == MethodChannelClose && f.Channel == channel) || id == MethodConnectionClose
			if matched || closed {
				kept, err := f.clone(c.decodingPool)
				if err != nil {
					return RPCReply{Type: ReplyLibraryException, Channel: channel, LibraryErr: err}
				}
				if matched {
					return RPCReply{Type: ReplyNormal, Channel: f.Channel, Method: kept.Method}
				}
				c.acknowledgeClose(kept)
				return RPCReply{Type: ReplyServerException, Channel: f.Channel, Method: kept.Method}
			}
		}

		if err := c.enqueue(f); err != nil {
			return RPCReply{Type: ReplyLibraryException, Channel: channel, LibraryErr: err}
		}
	}
}

// acknowledgeClose answers a server-initiated close. Send errors are
// ignored: the peer may already have dropped the socket.
func (c *Connection) acknowledgeClose(f Frame) {
	switch f.MethodID() {
	case MethodChannelClose:
		_ = c.SendMethod(f.Channel, &ChannelCloseOk{})
		c.logger.Warn("channel closed by server", "channel", f.Channel, "error", serverErrorFromMethod(f.Channel, f.Method))
	case MethodConnectionClose:
		_ = c.SendMethod(0, &ConnectionCloseOk{})
		c.phase = phaseClosed
		c.logger.Warn("connection closed by server", "error", serverErrorFromMethod(0, f.Method))
	}
}
