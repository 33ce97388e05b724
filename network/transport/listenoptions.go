package transport

import (
	"fmt"
	"net"
	"runtime"

	"github.com/linchenxuan/connhost/network/middleware"
)

// MiddlewareContext is the value a connection middleware chain is built
// over: the socket connection and the feature bag published for it.
type MiddlewareContext struct {
	Conn     *SocketConnection
	Features *FeatureBag
}

// Middleware wraps a connection's terminal delegate. Composed right-to-left
// by ListenOptions.Build via middleware.Chain.
type Middleware = middleware.Middleware[*MiddlewareContext]

// Terminal is the innermost, no-op delegate every middleware chain wraps.
type Terminal = middleware.Terminal[*MiddlewareContext]

// noopTerminal is the terminal delegate installed at the bottom of every
// chain: it immediately completes.
func noopTerminal(*MiddlewareContext) error { return nil }

// ListenOptions is the per-endpoint configuration surface: the endpoint
// descriptor, enabled protocol set, TLS state, accept concurrency, Alt-Svc
// policy, a config fingerprint for reload diffing, and two append-only
// middleware lists (stream and multiplexed). The middleware lists are
// frozen at Bind time by Build; ListenOptions itself never enforces that
// freeze (the transport manager calls Build exactly once per bind).
type ListenOptions struct {
	Endpoint EndpointDescriptor

	Protocols        ProtocolSet
	protocolsExplicit bool

	TLS           bool
	StaticTLS     *StaticTLSOptions
	TLSHandshake  *TLSHandshakeCallback

	MaxAccepts int

	SuppressAltSvc bool

	// ReusePort requests SO_REUSEPORT on the listening socket so a
	// config-reload rebind can acquire the same address while the old
	// listener is still draining.
	ReusePort bool

	fingerprint string

	streamMiddleware       middleware.Chain[*MiddlewareContext]
	multiplexedMiddleware  middleware.Chain[*MiddlewareContext]
}

// NewListenOptions returns options for endpoint with every protocol enabled
// (the documented default) and MaxAccepts set to the logical CPU count.
func NewListenOptions(endpoint EndpointDescriptor) *ListenOptions {
	return &ListenOptions{
		Endpoint:   endpoint,
		Protocols:  DefaultProtocolSet(),
		MaxAccepts: runtime.NumCPU(),
	}
}

// SetProtocols overrides the enabled protocol set and marks it as
// explicitly set, which Clone preserves without re-triggering.
func (o *ListenOptions) SetProtocols(protocols ...Protocol) {
	o.Protocols = NewProtocolSet(protocols...)
	o.protocolsExplicit = true
}

// ProtocolsExplicitlySet reports whether SetProtocols has been called on
// this options object (as opposed to inheriting the {H1,H2,H3} default).
func (o *ListenOptions) ProtocolsExplicitlySet() bool {
	return o.protocolsExplicit
}

// SetFingerprint stores the opaque equality key used by TransportManager to
// partition stop/reload by changed endpoint configuration.
func (o *ListenOptions) SetFingerprint(fp string) { o.fingerprint = fp }

// Fingerprint returns the configuration fingerprint.
func (o *ListenOptions) Fingerprint() string { return o.fingerprint }

// Use appends a middleware to the stream chain.
func (o *ListenOptions) Use(mw Middleware) {
	o.streamMiddleware = append(o.streamMiddleware, mw)
}

// UseMultiplexed appends a middleware to the parallel multiplexed chain.
func (o *ListenOptions) UseMultiplexed(mw Middleware) {
	o.multiplexedMiddleware = append(o.multiplexedMiddleware, mw)
}

// Build composes the stream middleware list into a single Terminal, folding
// right-to-left so the first-registered middleware is the outermost wrapper
// and the last-registered one wraps the no-op terminal.
func (o *ListenOptions) Build() Terminal {
	return o.streamMiddleware.Build(noopTerminal)
}

// BuildMultiplexed composes the multiplexed middleware list the same way.
func (o *ListenOptions) BuildMultiplexed() Terminal {
	return o.multiplexedMiddleware.Build(noopTerminal)
}

// DisplayForm renders the endpoint's "{scheme}://..." form, scheme chosen by
// whether TLS is configured.
func (o *ListenOptions) DisplayForm() string {
	return o.Endpoint.DisplayForm(o.TLS)
}

// Clone produces an independent ListenOptions for ip, used to expand a
// wildcard ("any") IP binding into concrete IPv4/IPv6 descriptors without
// re-running user configuration side effects: the middleware lists are
// copied by value (Chain.Clone, so appends to the clone never touch the
// original's backing array) and the protocol set is copied without
// triggering the explicitly-set flag anew.
func (o *ListenOptions) Clone(ip net.IP) *ListenOptions {
	clone := &ListenOptions{
		Endpoint:              o.Endpoint.CloneWithIP(ip),
		Protocols:             o.Protocols.Clone(),
		protocolsExplicit:     o.protocolsExplicit,
		TLS:                   o.TLS,
		StaticTLS:             o.StaticTLS,
		TLSHandshake:          o.TLSHandshake,
		MaxAccepts:            o.MaxAccepts,
		SuppressAltSvc:        o.SuppressAltSvc,
		ReusePort:             o.ReusePort,
		fingerprint:           o.fingerprint,
		streamMiddleware:      o.streamMiddleware.Clone(),
		multiplexedMiddleware: o.multiplexedMiddleware.Clone(),
	}
	return clone
}

// String renders a short diagnostic summary, used in bind/unbind logs.
func (o *ListenOptions) String() string {
	return fmt.Sprintf("%s tls=%v maxAccepts=%d fingerprint=%s", o.DisplayForm(), o.TLS, o.MaxAccepts, o.fingerprint)
}

// ExpandWildcard returns the concrete per-family binds a "rebind" over o
// should perform. A non-IP endpoint, or an IP endpoint with a concrete
// address, expands to just o. An IP endpoint whose address is unspecified
// (nil, 0.0.0.0, or ::) expands to two Clones, one for the IPv4 wildcard
// and one for the IPv6 wildcard, so a dual-stack "any" request becomes two
// explicit listens instead of relying on one socket to serve both
// families.
func (o *ListenOptions) ExpandWildcard() []*ListenOptions {
	if o.Endpoint.Kind != EndpointKindIP || !isWildcardIP(o.Endpoint.IP) {
		return []*ListenOptions{o}
	}
	return []*ListenOptions{
		o.Clone(net.IPv4zero),
		o.Clone(net.IPv6unspecified),
	}
}

func isWildcardIP(ip net.IP) bool {
	return ip == nil || ip.IsUnspecified()
}
