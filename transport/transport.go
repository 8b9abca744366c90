// Package transport defines the external CoAP/DTLS socket facade the
// session manager drives: open/connect/send/close plus an inbound
// message callback. A concrete implementation lives in
// transport/coapadapter, built on plgd-dev/go-coap and pion/dtls; this
// package stays free of go-coap (it imports pion/dtls only for the
// *piondtls.Config type) so session and dispatch can be tested against
// a fake.
package transport

import (
	"context"

	piondtls "github.com/pion/dtls/v2"
)

// Message is one decoded inbound CoAP message, reduced to what the
// session manager and dispatcher need: method, path, options the
// session layer inspects (location path on a 2.01 Created reply) and
// the payload.
type Message struct {
	Code    int
	Path    string
	Payload []byte
	// Location is set on a successful registration reply: the path
	// segments the server assigned, cached for Update/Deregister.
	Location string
}

// OnReceive is called once per inbound message on the facade's
// connection. The session manager registers exactly one such callback
// per connection lifetime.
type OnReceive func(msg Message)

// Facade is the transport contract: open an endpoint, connect to a peer
// under DTLS-PSK, send bytes, close, and deliver inbound messages via a
// callback. DTLS-PSK is layered below the facade; a *piondtls.Config
// carrying the PSK callback (itself backed by credential.Store) is the
// facade's only key source.
type Facade interface {
	// Open prepares the facade to originate connections as endpoint
	// (the LwM2M endpoint client name, used for logging/diagnostics
	// only — it is not itself a network address).
	Open(endpoint string) error
	// Connect dials host (host:port) under the given DTLS-PSK
	// configuration and arms recv as the inbound message callback.
	Connect(ctx context.Context, host string, config *piondtls.Config, recv OnReceive) error
	// Send transmits a CoAP request (method/path/payload) over the
	// current connection and returns the matching response.
	Send(ctx context.Context, req Request) (Message, error)
	// Close tears down the current connection, if any.
	Close() error
}

// Request is an outbound CoAP request, the shape the session manager
// constructs for Register/Update/Deregister/Bootstrap-Request.
type Request struct {
	Method  Method
	Path    string
	Query   []string
	Payload []byte
	// ContentFormat is a CoAP Content-Format option value (e.g. 40 for
	// application/link-format, 11542/11543 for TLV/JSON).
	ContentFormat int
}

// Method is the CoAP method of an outbound Request.
type Method int

// Methods the session manager issues.
const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
)
