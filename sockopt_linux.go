//go:build linux

package amqp

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// sockoptControl sets TCP_USER_TIMEOUT on the socket before it connects so
// unacknowledged writes fail instead of hanging for the kernel default.
func sockoptControl(userTimeout time.Duration) func(network, address string, c syscall.RawConn) error {
	if userTimeout <= 0 {
		return nil
	}
	ms := int(userTimeout / time.Millisecond)
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, ms)
		})
		if err != nil {
			return err
		}
		return serr
	}
}
