package amqp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		rest  string
		user  string
		pass  string
		host  string
		port  int // 0 means the scheme default
		vhost string
	}{
		{"user:pass@host:10000/vhost", "user", "pass", "host", 10000, "vhost"},
		{"user%61:%61pass@ho%61st:10000/v%2fhost", "usera", "apass", "hoast", 10000, "v/host"},
		{"", "guest", "guest", "localhost", 0, "/"},
		{":@/", "", "", "localhost", 0, ""},
		{"user@", "user", "guest", "localhost", 0, "/"},
		{"user:pass@", "user", "pass", "localhost", 0, "/"},
		{"host", "guest", "guest", "host", 0, "/"},
		{":10000", "guest", "guest", "localhost", 10000, "/"},
		{"/vhost", "guest", "guest", "localhost", 0, "vhost"},
		{"host/", "guest", "guest", "host", 0, ""},
		{"host/%2f", "guest", "guest", "host", 0, "/"},
		{"[::1]", "guest", "guest", "::1", 0, "/"},
		{"host:100", "guest", "guest", "host", 100, "/"},
		{"[::1]:100", "guest", "guest", "::1", 100, "/"},
		{"host/blah", "guest", "guest", "host", 0, "blah"},
		{"host:100/blah", "guest", "guest", "host", 100, "blah"},
		{":100/blah", "guest", "guest", "localhost", 100, "blah"},
		{"[::1]/blah", "guest", "guest", "::1", 0, "blah"},
		{"[::1]:100/blah", "guest", "guest", "::1", 100, "blah"},
		{"user:pass@host", "user", "pass", "host", 0, "/"},
		{"user:pass@host:100", "user", "pass", "host", 100, "/"},
		{"user:pass@:100", "user", "pass", "localhost", 100, "/"},
		{"user:pass@[::1]", "user", "pass", "::1", 0, "/"},
		{"user:pass@[::1]:100", "user", "pass", "::1", 100, "/"},
	}

	for _, scheme := range []string{"amqp", "amqps"} {
		ssl := scheme == "amqps"
		defaultPort := DefaultPort
		if ssl {
			defaultPort = DefaultTLSPort
		}
		for _, tt := range tests {
			url := scheme + "://" + tt.rest
			t.Run(url, func(t *testing.T) {
				want := ConnectionInfo{
					User:     tt.user,
					Password: tt.pass,
					Host:     tt.host,
					Port:     tt.port,
					VHost:    tt.vhost,
					SSL:      ssl,
				}
				if want.Port == 0 {
					want.Port = defaultPort
				}
				got, err := ParseURL(url)
				if err != nil {
					t.Fatalf("ParseURL(%q): %v", url, err)
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("ParseURL(%q) mismatch (-want +got):\n%s", url, diff)
				}
			})
		}
	}
}

func TestParseURL_Invalid(t *testing.T) {
	urls := []string{
		"http://www.rabbitmq.com",
		"amqp:/host",
		"amqp://foo:bar:baz",
		"amqp://foo[::1]",
		"amqp://foo:[::1]",
		"amqp://[::1]foo",
		"amqp://[::1",
		"amqp://foo:1000xyz",
		"amqp://foo:1000000",
		"amqp://foo/bar/baz",
		"amqp://foo%1",
		"amqp://foo%1x",
		"amqp://foo%xy",
	}

	for _, url := range urls {
		for _, u := range []string{url, strings.Replace(url, "amqp://", "amqps://", 1)} {
			_, err := ParseURL(u)
			if StatusOf(err) != StatusBadURL {
				t.Errorf("ParseURL(%q) = %v, want %v", u, err, StatusBadURL)
			}
		}
	}
}

func TestConnectionInfo_String(t *testing.T) {
	ci := ConnectionInfo{User: "u", Password: "secret", Host: "::1", Port: 5671, VHost: "/", SSL: true}
	got := ci.String()
	if got != "amqps://u:***@[::1]:5671/%2f" {
		t.Errorf("String() = %q", got)
	}
	if strings.Contains(got, "secret") {
		t.Error("String() leaks the password")
	}

	back, err := ParseURL(DefaultConnectionInfo().String())
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if back.Host != "localhost" || back.VHost != "/" || back.Port != DefaultPort {
		t.Errorf("parsed %+v", back)
	}
}
