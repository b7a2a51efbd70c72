package amqp

import "strings"

// SASL produces the mechanism name and initial response for
// connection.start-ok.
type SASL interface {
	Mechanism() string
	Response() []byte
}

// PlainAuth authenticates with a username and password.
type PlainAuth struct {
	Username string
	Password string
}

// Mechanism returns "PLAIN".
func (PlainAuth) Mechanism() string { return "PLAIN" }

// Response is "\x00user\x00password".
func (a PlainAuth) Response() []byte {
	b := make([]byte, 0, 2+len(a.Username)+len(a.Password))
	b = append(b, 0)
	b = append(b, a.Username...)
	b = append(b, 0)
	b = append(b, a.Password...)
	return b
}

// ExternalAuth authenticates with credentials established outside AMQP,
// typically a TLS client certificate.
type ExternalAuth struct {
	Identity string
}

// Mechanism returns "EXTERNAL".
func (ExternalAuth) Mechanism() string { return "EXTERNAL" }

// Response is the identity, empty to let the server derive it.
func (a ExternalAuth) Response() []byte { return []byte(a.Identity) }

// saslMechanismInList reports whether mech appears in the server's
// space-separated mechanism list.
func saslMechanismInList(list, mech string) bool {
	for _, m := range strings.Fields(list) {
		if m == mech {
			return true
		}
	}
	return false
}
