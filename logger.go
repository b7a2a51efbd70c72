package amqp

import "log/slog"

// Logger receives structured events from a Connection: login negotiation,
// heartbeats, frames queued while waiting for a reply, and protocol errors.
// *slog.Logger satisfies it.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger from the standard library.
func defaultLogger() Logger {
	return slog.Default()
}

// frameAttrs describes f as key-value pairs for a Logger call.
func frameAttrs(f Frame) []any {
	args := []any{"type", f.Type.String(), "channel", f.Channel}
	switch f.Type {
	case FrameMethod:
		args = append(args, "method", f.MethodID().String())
	case FrameHeader:
		args = append(args, "class", f.Header.ClassID, "body_size", f.Header.BodySize)
	case FrameBody:
		args = append(args, "size", len(f.Body))
	}
	return args
}
