package amqp

import (
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
)

func TestStatus_StringDefined(t *testing.T) {
	ranges := []struct {
		from, to Status
	}{
		{StatusOK, statusNextValue},
		{StatusTCPError, statusTCPNextValue},
		{StatusSSLError, statusSSLNextValue},
	}

	for _, r := range ranges {
		for s := r.from; s > r.to; s-- {
			if got := s.String(); got == unknownStatusText {
				t.Errorf("Status(%#x).String() = %q", int(s), got)
			}
		}
		if got := r.to.String(); got != unknownStatusText {
			t.Errorf("Status(%#x).String() = %q, want %q", int(r.to), got, unknownStatusText)
		}
	}
}

func TestStatus_StringUnknown(t *testing.T) {
	for _, s := range []Status{1, 0x100, -0x300, -0x1FF, -0x2FF, -0x10000} {
		if got := s.String(); got != unknownStatusText {
			t.Errorf("Status(%#x).String() = %q, want %q", int(s), got, unknownStatusText)
		}
	}
}

func TestStatus_Category(t *testing.T) {
	tests := []struct {
		status Status
		want   StatusCategory
	}{
		{StatusOK, CategoryClient},
		{StatusUnknownFieldKind, CategoryClient},
		{StatusTCPError, CategoryTCP},
		{StatusTCPSocketLibInitError, CategoryTCP},
		{StatusSSLError, CategorySSL},
		{StatusSSLConnectionFailed, CategorySSL},
	}

	for _, tt := range tests {
		if got := tt.status.Category(); got != tt.want {
			t.Errorf("%v.Category() = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestLibraryError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&LibraryError{Status: StatusSocketError, Op: "write", Err: cause})

	if got, want := err.Error(), "write: a socket error occurred: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, StatusSocketError) {
		t.Error("errors.Is(err, StatusSocketError) = false")
	}
	if errors.Is(err, StatusTimeout) {
		t.Error("errors.Is(err, StatusTimeout) = true")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}

	wrapped := errors.Wrap(err, "publishing")
	if got := StatusOf(wrapped); got != StatusSocketError {
		t.Errorf("StatusOf(wrapped) = %v, want %v", got, StatusSocketError)
	}
}

func TestLibError_KeepsCause(t *testing.T) {
	err := libError(StatusConnectionClosed, "read", io.EOF)

	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is(err, io.EOF) = false")
	}
	// pkg/errors attaches the stack to the cause.
	if s := fmt.Sprintf("%+v", errors.Cause(errors.Unwrap(err))); s != io.EOF.Error() {
		t.Errorf("cause = %q, want %q", s, io.EOF.Error())
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusOK},
		{"status", StatusTimeout, StatusTimeout},
		{"library error", &LibraryError{Status: StatusBadURL}, StatusBadURL},
		{"wrapped status", errors.Wrap(StatusNoMemory, "alloc"), StatusNoMemory},
		{"foreign", errors.New("other"), StatusUnexpectedState},
		{"sentinel", ErrConnectionClosed, StatusConnectionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestServerError(t *testing.T) {
	conn := serverErrorFromMethod(0, &ConnectionClose{ReplyCode: CodeConnectionForced, ReplyText: "CONNECTION_FORCED - shutdown"})
	if got, want := conn.Error(), "server connection error 320, message: CONNECTION_FORCED - shutdown"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if conn.Recoverable() {
		t.Error("connection error reported recoverable")
	}

	ch := serverErrorFromMethod(3, &ChannelClose{
		ReplyCode: CodeNotFound,
		ReplyText: "NOT_FOUND - no queue 'q'",
		ClassID:   ClassQueue,
		MethodID:  10,
	})
	if got, want := ch.Error(), "server channel error 404, message: NOT_FOUND - no queue 'q'"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !ch.Recoverable() || ch.Channel != 3 || ch.ClassID != ClassQueue {
		t.Errorf("channel error = %+v", ch)
	}

	if se := serverErrorFromMethod(1, &BasicAck{}); se != nil {
		t.Errorf("serverErrorFromMethod(basic.ack) = %v, want nil", se)
	}
}

func TestRPCReply_Err(t *testing.T) {
	tests := []struct {
		name  string
		reply RPCReply
		want  Status
	}{
		{"normal", RPCReply{Type: ReplyNormal, Method: &QueueBindOk{}}, StatusOK},
		{"none", RPCReply{}, StatusUnexpectedState},
		{"library", RPCReply{Type: ReplyLibraryException, LibraryErr: StatusTimeout}, StatusTimeout},
		{"library without error", RPCReply{Type: ReplyLibraryException}, StatusConnectionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.reply.Err()); got != tt.want {
				t.Errorf("StatusOf(Err()) = %v, want %v", got, tt.want)
			}
		})
	}

	reply := RPCReply{Type: ReplyServerException, Channel: 1, Method: &ChannelClose{ReplyCode: 406}}
	var se *ServerError
	if !errors.As(reply.Err(), &se) || se.Code != 406 {
		t.Errorf("Err() = %v, want a *ServerError with code 406", reply.Err())
	}
}

func TestLibraryError_CauseCarriesStack(t *testing.T) {
	encodeErr := func() error {
		e := newEncoder(make([]byte, 64))
		encodeFrame(e, Frame{Type: FrameType(42)})
		return e.err
	}
	_, methodErr := decodeMethod([]byte{0x00, 0x3C, 0x00, 0xFF}, nil)
	_, headerErr := decodeContentHeader([]byte{0x00, 0x32, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, nil)

	tests := []struct {
		name string
		err  error
	}{
		{"unknown frame type", encodeErr()},
		{"unknown method", methodErr},
		{"unknown header class", headerErr},
		{"unknown field kind", unknownKind('Z')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var le *LibraryError
			if !errors.As(tt.err, &le) {
				t.Fatalf("err = %v, want a *LibraryError", tt.err)
			}
			if _, ok := le.Err.(interface{ StackTrace() errors.StackTrace }); !ok {
				t.Errorf("cause %T has no stack trace", le.Err)
			}
		})
	}
}
