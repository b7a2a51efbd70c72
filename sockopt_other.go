//go:build !linux

package amqp

import (
	"syscall"
	"time"
)

func sockoptControl(time.Duration) func(network, address string, c syscall.RawConn) error {
	return nil
}
