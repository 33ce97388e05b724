package transport

import (
	"context"
	"crypto/tls"
)

// Protocol is one of the three wire protocols an endpoint may enable.
// The core never parses any of them; it only carries the selection through
// to the transport factory and the Alt-Svc/TLS feature bag it builds.
type Protocol int

const (
	ProtocolH1 Protocol = iota
	ProtocolH2
	ProtocolH3
)

// ProtocolSet is a subset of {H1, H2, H3}.
type ProtocolSet map[Protocol]struct{}

// DefaultProtocolSet enables all three protocols, matching ListenOptions's
// documented default.
func DefaultProtocolSet() ProtocolSet {
	return ProtocolSet{ProtocolH1: {}, ProtocolH2: {}, ProtocolH3: {}}
}

// NewProtocolSet builds a set from an explicit list.
func NewProtocolSet(protocols ...Protocol) ProtocolSet {
	s := make(ProtocolSet, len(protocols))
	for _, p := range protocols {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is a member of the set.
func (s ProtocolSet) Has(p Protocol) bool {
	_, ok := s[p]
	return ok
}

// Clone returns an independent copy of the set.
func (s ProtocolSet) Clone() ProtocolSet {
	out := make(ProtocolSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// TLSHandshakeContext is passed to a TLSHandshakeCallback: client-hello
// info, a free-form user state slot the callback can stash data in across
// calls, and the connection the handshake is for.
type TLSHandshakeContext struct {
	ClientHello *tls.ClientHelloInfo
	UserState   any
	Conn        *SocketConnection
}

// TLSHandshakeCallback negotiates the server TLS options for one connection.
// onConnectionState, if non-nil, is invoked after the handshake completes
// with the same context, letting the callback observe the negotiated state.
type TLSHandshakeCallback struct {
	OnConnection      func(ctx context.Context, hctx *TLSHandshakeContext) (*tls.Config, error)
	OnConnectionState func(ctx context.Context, hctx *TLSHandshakeContext, state tls.ConnectionState)
}

// StaticTLSOptions is the "TLS config supplied up front" alternative to a
// TLSHandshakeCallback.
type StaticTLSOptions struct {
	Config *tls.Config
}

// TLSConnectionCallbackOptions is the feature the multiplexed bind path
// publishes into the feature bag it hands to the multiplexed transport
// factory: the negotiated ALPN protocol list, an OnConnection
// callback returning the server TLS options for one connection, and an
// optional OnConnectionState passthrough.
type TLSConnectionCallbackOptions struct {
	ApplicationProtocols []string
	OnConnection         func(ctx context.Context, hctx *TLSHandshakeContext) (*tls.Config, error)
	OnConnectionState    func(ctx context.Context, hctx *TLSHandshakeContext, state tls.ConnectionState)
}
