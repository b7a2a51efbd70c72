package amqp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFrame_String(t *testing.T) {
	tests := []struct {
		f    Frame
		want string
	}{
		{Frame{}, "none frame"},
		{Frame{Type: FrameHeartbeat}, "heartbeat frame"},
		{Frame{Type: FrameMethod, Channel: 1, Method: &BasicAck{}}, "method frame basic.ack on channel 1"},
		{Frame{Type: FrameBody, Channel: 2, Body: []byte("abc")}, "body frame of 3 bytes on channel 2"},
		{
			Frame{Type: FrameHeader, Channel: 3, Header: &ContentHeader{ClassID: ClassBasic, BodySize: 10}},
			"header frame class 60 size 10 on channel 3",
		},
		{Frame{Type: FrameProtocolHeader, Protocol: ProtocolHeader{Major: 8}}, "protocol header AMQP 0-0-8-0"},
		{Frame{Type: FrameType(9)}, "frame-type(9) frame"},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFrame_EncodeBytes(t *testing.T) {
	got := encodeTestFrame(t, Frame{Type: FrameHeartbeat})
	want := []byte{0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xCE}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("heartbeat mismatch (-want +got):\n%s", diff)
	}

	got = encodeTestFrame(t, Frame{Type: FrameBody, Channel: 0x0102, Body: []byte("hi")})
	want = []byte{0x03, 0x01, 0x02, 0x00, 0x00, 0x00, 0x02, 'h', 'i', 0xCE}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestFrame_EncodeErrors(t *testing.T) {
	e := newEncoder(make([]byte, 64))
	encodeFrame(e, Frame{Type: FrameType(42)})
	if StatusOf(e.err) != StatusInvalidParameter {
		t.Errorf("unknown type: err = %v, want %v", e.err, StatusInvalidParameter)
	}

	e = newEncoder(make([]byte, 16))
	encodeFrame(e, Frame{Type: FrameBody, Body: make([]byte, 32)})
	if e.err == nil {
		t.Error("oversized body: expected error")
	}
}

func TestFrame_CloneSurvivesRecycle(t *testing.T) {
	c := newTestConnection(t)
	data := frameBytes(t, 4, &QueueDeclareOk{Queue: "q1", MessageCount: 3})

	f, err := c.HandleInput(data)
	if err != nil {
		t.Fatalf("HandleInput: %v", err)
	}
	pool := NewPool(0)
	kept, err := f.clone(pool)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}

	// The next call recycles the frame pool.
	if _, err := c.HandleInput(nil); err != nil {
		t.Fatalf("HandleInput: %v", err)
	}
	if f.Valid() {
		t.Error("original frame still valid after recycle")
	}
	if !kept.Valid() {
		t.Fatal("clone invalid")
	}
	ok, _ := kept.Method.(*QueueDeclareOk)
	if ok == nil || ok.Queue != "q1" || ok.MessageCount != 3 || kept.Channel != 4 {
		t.Errorf("clone = %s %+v", kept, kept.Method)
	}

	pool.Recycle()
	if kept.Valid() {
		t.Error("clone still valid after its pool was recycled")
	}
}

func TestFrame_BodyBytesAfterRecycle(t *testing.T) {
	c := newTestConnection(t)
	f, err := c.HandleInput(encodeTestFrame(t, Frame{Type: FrameBody, Channel: 1, Body: []byte("payload")}))
	if err != nil {
		t.Fatalf("HandleInput: %v", err)
	}
	if got := string(f.BodyBytes()); got != "payload" {
		t.Fatalf("BodyBytes() = %q", got)
	}

	if _, err := c.HandleInput(nil); err != nil {
		t.Fatalf("HandleInput: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("BodyBytes() did not panic after recycle")
		}
	}()
	_ = f.BodyBytes()
}

func headerWith(t *testing.T, value string) []byte {
	t.Helper()
	return encodeTestFrame(t, Frame{Type: FrameHeader, Channel: 1, Header: &ContentHeader{
		ClassID: ClassBasic,
		Properties: &BasicProperties{
			Flags:   FlagHeaders,
			Headers: Table{Entry("k", UTF8(value)), Entry("nested", TableValue(Table{Entry("n", UTF8(value))}))},
		},
	}})
}

func TestFrame_HeaderTableAfterRecycle(t *testing.T) {
	c := newTestConnection(t)
	first, err := c.HandleInput(headerWith(t, "first"))
	if err != nil {
		t.Fatalf("HandleInput: %v", err)
	}
	headers := first.Header.Properties.Headers
	if !headers.Valid() {
		t.Fatal("fresh headers invalid")
	}
	kept := headers.Clone()
	nested, _ := headers.Get("nested")

	second, err := c.HandleInput(headerWith(t, "SECND"))
	if err != nil {
		t.Fatalf("HandleInput: %v", err)
	}
	if got := second.Header.Properties.Headers[0].Value.String(); got != "SECND" {
		t.Fatalf("second header = %q", got)
	}

	if first.Valid() || headers.Valid() || nested.Valid() {
		t.Error("stale headers still report valid")
	}
	if len(headers) != 2 || headers[0].Key != "k" {
		t.Errorf("stale table entries were reused: %d entries", len(headers))
	}
	if _, err := EncodeTable(make([]byte, 256), 0, headers); StatusOf(err) != StatusInvalidParameter {
		t.Errorf("EncodeTable(stale) = %v, want %v", err, StatusInvalidParameter)
	}

	want := Table{Entry("k", UTF8("first")), Entry("nested", TableValue(Table{Entry("n", UTF8("first"))}))}
	if !kept.Equal(want) || !kept.Valid() {
		t.Errorf("cloned headers = %v, want %v", kept, want)
	}

	accessors := map[string]func(){
		"String": func() { _ = headers[0].Value.String() },
		"Bytes":  func() { _ = headers[0].Value.Bytes() },
		"Table":  func() { _ = nested.Table() },
		"Equal":  func() { _ = headers.Equal(want) },
		"Clone":  func() { _ = headers.Clone() },
	}
	for name, access := range accessors {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s on a stale value did not panic", name)
				}
			}()
			access()
		})
	}
}

func TestFrame_CloneToHeap(t *testing.T) {
	f := Frame{Type: FrameBody, Channel: 1, raw: []byte("abc"), Body: []byte("abc")}
	kept, err := f.clone(nil)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	f.raw[0] = 'x'
	if string(kept.Body) != "abc" {
		t.Errorf("clone aliases input: %q", kept.Body)
	}
	if !kept.Valid() {
		t.Error("heap clone invalid")
	}
}

func TestDialect_Header(t *testing.T) {
	if got := DialectStandard.header().bytes(); string(got) != "AMQP\x00\x00\x09\x01" {
		t.Errorf("standard header = %q", got)
	}
	if got := DialectLegacy.header().bytes(); string(got) != "AMQP\x01\x01\x09\x01" {
		t.Errorf("legacy header = %q", got)
	}
}
