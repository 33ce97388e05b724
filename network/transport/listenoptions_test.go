package transport

import (
	"crypto/tls"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenOptions_Clone_WildcardToConcreteIPv4(t *testing.T) {
	opts := NewListenOptions(NewIPEndpoint(net.IPv4zero, 8080))
	opts.SetProtocols(ProtocolH1, ProtocolH2)
	opts.TLS = true
	opts.StaticTLS = &StaticTLSOptions{Config: &tls.Config{}}
	opts.SuppressAltSvc = true
	opts.SetFingerprint("fp-1")

	var ran []string
	opts.Use(func(next Terminal) Terminal {
		return func(mctx *MiddlewareContext) error {
			ran = append(ran, "stream")
			return next(mctx)
		}
	})
	opts.UseMultiplexed(func(next Terminal) Terminal {
		return func(mctx *MiddlewareContext) error {
			ran = append(ran, "multiplexed")
			return next(mctx)
		}
	})

	clone := opts.Clone(net.IPv4(127, 0, 0, 1))

	assert.Equal(t, "127.0.0.1", clone.Endpoint.IP.String(), "Clone must replace only the IP")
	assert.Equal(t, opts.Endpoint.Port, clone.Endpoint.Port, "Clone must preserve the port")

	assert.True(t, clone.Protocols.Has(ProtocolH1))
	assert.True(t, clone.Protocols.Has(ProtocolH2))
	assert.False(t, clone.Protocols.Has(ProtocolH3))
	assert.True(t, clone.ProtocolsExplicitlySet(), "Clone must preserve the explicitly-set flag")

	assert.True(t, clone.TLS)
	assert.Same(t, opts.StaticTLS, clone.StaticTLS, "Clone must carry over the same StaticTLSOptions")
	assert.True(t, clone.SuppressAltSvc)
	assert.Equal(t, "fp-1", clone.Fingerprint())

	clone.Build()(&MiddlewareContext{})
	clone.BuildMultiplexed()(&MiddlewareContext{})
	assert.Equal(t, []string{"stream", "multiplexed"}, ran, "Clone must carry over both middleware chains")

	// Re-calling SetProtocols on the original after cloning must not affect
	// the clone: Clone copies the protocol set and flag by value.
	opts.SetProtocols(ProtocolH3)
	assert.False(t, clone.Protocols.Has(ProtocolH3), "clone's protocol set must be independent of the original")

	// Appending to the original's middleware lists after cloning must not
	// affect the clone's composed chain.
	opts.Use(func(next Terminal) Terminal {
		return func(mctx *MiddlewareContext) error {
			ran = append(ran, "stream-extra")
			return next(mctx)
		}
	})
	ran = nil
	clone.Build()(&MiddlewareContext{})
	assert.Equal(t, []string{"stream"}, ran, "clone's middleware chain must be independent of later appends to the original")
}

func TestListenOptions_ExpandWildcard(t *testing.T) {
	opts := NewListenOptions(NewIPEndpoint(net.IPv4zero, 9090))
	opts.SetFingerprint("fp-any")

	expanded := opts.ExpandWildcard()
	if assert.Len(t, expanded, 2) {
		assert.True(t, expanded[0].Endpoint.IP.Equal(net.IPv4zero))
		assert.True(t, expanded[1].Endpoint.IP.Equal(net.IPv6unspecified))
		assert.Equal(t, "fp-any", expanded[0].Fingerprint())
		assert.Equal(t, "fp-any", expanded[1].Fingerprint())
	}
}

func TestListenOptions_ExpandWildcard_ConcreteEndpointIsUnchanged(t *testing.T) {
	opts := NewListenOptions(NewIPEndpoint(net.IPv4(10, 0, 0, 1), 9090))
	expanded := opts.ExpandWildcard()
	if assert.Len(t, expanded, 1) {
		assert.Same(t, opts, expanded[0], "a concrete endpoint must not be cloned")
	}
}

func TestListenOptions_ExpandWildcard_NonIPEndpointIsUnchanged(t *testing.T) {
	opts := NewListenOptions(NewUnixEndpoint("/tmp/example.sock"))
	expanded := opts.ExpandWildcard()
	if assert.Len(t, expanded, 1) {
		assert.Same(t, opts, expanded[0])
	}
}
