package amqp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is a library status code. Values are negative and grouped by
// category in the second byte. A Status is an error; StatusOK is never
// returned as one.
type Status int

// Client library statuses.
const (
	StatusOK                          Status = 0x0
	StatusNoMemory                    Status = -0x0001
	StatusBadAMQPData                 Status = -0x0002
	StatusUnknownClass                Status = -0x0003
	StatusUnknownMethod               Status = -0x0004
	StatusHostnameResolutionFailed    Status = -0x0005
	StatusIncompatibleAMQPVersion     Status = -0x0006
	StatusConnectionClosed            Status = -0x0007
	StatusBadURL                      Status = -0x0008
	StatusSocketError                 Status = -0x0009
	StatusInvalidParameter            Status = -0x000A
	StatusTableTooBig                 Status = -0x000B
	StatusWrongMethod                 Status = -0x000C
	StatusTimeout                     Status = -0x000D
	StatusTimerFailure                Status = -0x000E
	StatusHeartbeatTimeout            Status = -0x000F
	StatusUnexpectedState             Status = -0x0010
	StatusSocketClosed                Status = -0x0011
	StatusSocketInUse                 Status = -0x0012
	StatusBrokerUnsupportedSASLMethod Status = -0x0013
	StatusUnsupported                 Status = -0x0014
	StatusUnknownFieldKind            Status = -0x0015

	statusNextValue Status = -0x0016
)

// TCP and operating system statuses.
const (
	StatusTCPError              Status = -0x0100
	StatusTCPSocketLibInitError Status = -0x0101

	statusTCPNextValue Status = -0x0102
)

// TLS statuses.
const (
	StatusSSLError                Status = -0x0200
	StatusSSLHostnameVerifyFailed Status = -0x0201
	StatusSSLPeerVerifyFailed     Status = -0x0202
	StatusSSLConnectionFailed     Status = -0x0203

	statusSSLNextValue Status = -0x0204
)

// StatusCategory groups statuses by origin.
type StatusCategory int

const (
	CategoryClient StatusCategory = iota
	CategoryTCP
	CategorySSL
)

var clientStatusText = [...]string{
	"operation completed successfully",
	"could not allocate memory",
	"invalid AMQP data",
	"unknown AMQP class id",
	"unknown AMQP method id",
	"hostname lookup failed",
	"incompatible AMQP version",
	"connection closed unexpectedly",
	"could not parse AMQP URL",
	"a socket error occurred",
	"invalid parameter",
	"table too large for buffer",
	"unexpected method received",
	"request timed out",
	"system timer has failed",
	"heartbeat timeout, connection closed",
	"unexpected protocol state",
	"socket is closed",
	"socket already open",
	"SASL method not supported by broker",
	"parameter value is unsupported",
	"unknown table field kind",
}

var tcpStatusText = [...]string{
	"a socket error occurred",
	"socket library initialization failed",
}

var sslStatusText = [...]string{
	"a SSL error occurred",
	"SSL hostname verification failed",
	"SSL peer cert verification failed",
	"SSL handshake failed",
}

const unknownStatusText = "(unknown error)"

// Category reports which family a status belongs to.
func (s Status) Category() StatusCategory {
	switch (-int(s) >> 8) & 0xFF {
	case 1:
		return CategoryTCP
	case 2:
		return CategorySSL
	default:
		return CategoryClient
	}
}

// String returns a human readable description of the status.
func (s Status) String() string {
	if s > 0 {
		return unknownStatusText
	}
	idx := -int(s) & 0xFF
	var table []string
	switch s.Category() {
	case CategoryTCP:
		table = tcpStatusText[:]
	case CategorySSL:
		table = sslStatusText[:]
	default:
		if -int(s) > 0xFF {
			return unknownStatusText
		}
		table = clientStatusText[:]
	}
	if idx >= len(table) {
		return unknownStatusText
	}
	return table[idx]
}

func (s Status) Error() string {
	return s.String()
}

// LibraryError reports a failure detected by the library itself: transport
// errors, malformed wire data, protocol violations and timeouts.
type LibraryError struct {
	Status Status
	Op     string
	Err    error
}

func (e *LibraryError) Error() string {
	msg := e.Status.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LibraryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, StatusX) match a LibraryError carrying StatusX.
func (e *LibraryError) Is(target error) bool {
	s, ok := target.(Status)
	return ok && s == e.Status
}

// libError builds a LibraryError with a stack trace on the cause.
func libError(status Status, op string, cause error) error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &LibraryError{Status: status, Op: op, Err: cause}
}

// Reply codes carried by close methods.
const (
	CodeSuccess            uint16 = 200
	CodeContentTooLarge    uint16 = 311
	CodeNoRoute            uint16 = 312
	CodeNoConsumers        uint16 = 313
	CodeConnectionForced   uint16 = 320
	CodeInvalidPath        uint16 = 402
	CodeAccessRefused      uint16 = 403
	CodeNotFound           uint16 = 404
	CodeResourceLocked     uint16 = 405
	CodePreconditionFailed uint16 = 406
	CodeFrameError         uint16 = 501
	CodeSyntaxError        uint16 = 502
	CodeCommandInvalid     uint16 = 503
	CodeChannelError       uint16 = 504
	CodeUnexpectedFrame    uint16 = 505
	CodeResourceError      uint16 = 506
	CodeNotAllowed         uint16 = 530
	CodeNotImplemented     uint16 = 540
	CodeInternalError      uint16 = 541
)

// ServerError is returned when the broker closes a channel or the whole
// connection with a reply code.
type ServerError struct {
	Connection bool
	Channel    uint16
	Code       uint16
	Text       string
	ClassID    uint16
	MethodID   uint16
}

func (e *ServerError) Error() string {
	if e.Connection {
		return fmt.Sprintf("server connection error %d, message: %s", e.Code, e.Text)
	}
	return fmt.Sprintf("server channel error %d, message: %s", e.Code, e.Text)
}

// Recoverable reports whether the error only affected a channel and the
// connection may keep being used.
func (e *ServerError) Recoverable() bool {
	return !e.Connection
}

func serverErrorFromMethod(channel uint16, m Method) *ServerError {
	switch v := m.(type) {
	case *ConnectionClose:
		return &ServerError{
			Connection: true,
			Channel:    channel,
			Code:       v.ReplyCode,
			Text:       v.ReplyText,
			ClassID:    v.ClassID,
			MethodID:   v.MethodID,
		}
	case *ChannelClose:
		return &ServerError{
			Channel:  channel,
			Code:     v.ReplyCode,
			Text:     v.ReplyText,
			ClassID:  v.ClassID,
			MethodID: v.MethodID,
		}
	}
	return nil
}

// ReplyType tells how an RPC ended.
type ReplyType int

const (
	ReplyNone ReplyType = iota
	ReplyNormal
	ReplyLibraryException
	ReplyServerException
)

func (t ReplyType) String() string {
	switch t {
	case ReplyNormal:
		return "normal"
	case ReplyLibraryException:
		return "library exception"
	case ReplyServerException:
		return "server exception"
	default:
		return "none"
	}
}

// RPCReply is the outcome of a synchronous request.
//
// For ReplyNormal, Method holds the matched reply, or nil after a one-way
// call. For ReplyServerException, Method holds the channel.close or
// connection.close sent by the broker. For ReplyLibraryException, LibraryErr
// holds the failure. A peer that closed the stream cleanly yields
// StatusConnectionClosed wrapping io.EOF.
type RPCReply struct {
	Type       ReplyType
	Channel    uint16
	Method     Method
	LibraryErr error
}

// Err converts the reply into an error, or nil for a normal reply.
func (r RPCReply) Err() error {
	switch r.Type {
	case ReplyNormal:
		return nil
	case ReplyServerException:
		if se := serverErrorFromMethod(r.Channel, r.Method); se != nil {
			return se
		}
		return &LibraryError{Status: StatusUnexpectedState, Op: "rpc"}
	case ReplyLibraryException:
		if r.LibraryErr != nil {
			return r.LibraryErr
		}
		return &LibraryError{Status: StatusConnectionClosed, Op: "rpc"}
	default:
		return &LibraryError{Status: StatusUnexpectedState, Op: "rpc"}
	}
}

// StatusOf extracts the Status from err, StatusOK for nil and
// StatusUnexpectedState for foreign errors.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var le *LibraryError
	if errors.As(err, &le) {
		return le.Status
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusUnexpectedState
}

// Sentinel errors for conditions callers commonly test for.
var (
	// ErrConnectionClosed is returned when operating on a destroyed connection.
	ErrConnectionClosed = &LibraryError{Status: StatusConnectionClosed, Op: "connection"}
	// ErrNoTransport is returned when I/O is attempted before a transport is attached.
	ErrNoTransport = &LibraryError{Status: StatusSocketClosed, Op: "transport"}
)
