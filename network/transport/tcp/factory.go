package tcp

import (
	"context"
	"net"

	"github.com/linchenxuan/connhost/metrics"
	"github.com/linchenxuan/connhost/network/transport"
)

// TCPStreamFactory binds transport.EndpointDescriptor values of kind
// EndpointKindIP to plain TCP listeners, generalized from one fixed
// address per process to many independently bound endpoints sharing a
// single factory instance.
type TCPStreamFactory struct {
	cfg *TCPStreamCfg
}

// NewTCPStreamFactory builds a factory from cfg, defaulting a nil cfg to
// DefaultTCPStreamCfg.
func NewTCPStreamFactory(cfg *TCPStreamCfg) *TCPStreamFactory {
	if cfg == nil {
		cfg = DefaultTCPStreamCfg()
	}
	return &TCPStreamFactory{cfg: cfg}
}

// CanBind reports whether endpoint is an IP endpoint; this factory never
// binds Unix sockets or inherited file handles.
func (f *TCPStreamFactory) CanBind(endpoint transport.EndpointDescriptor) bool {
	return endpoint.Kind == transport.EndpointKindIP
}

// Bind opens a TCP listener on endpoint and returns the kernel-assigned
// effective endpoint (port 0 resolved to whatever the kernel chose).
func (f *TCPStreamFactory) Bind(ctx context.Context, endpoint transport.EndpointDescriptor) (transport.SingleAcceptListener, transport.EndpointDescriptor, error) {
	addr := &net.TCPAddr{IP: endpoint.IP, Port: endpoint.Port}
	ln, err := listenTCPReusable(addr, f.cfg.ReusePort)
	if err != nil {
		return nil, transport.EndpointDescriptor{}, err
	}

	effective := endpoint
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		effective.Port = tcpAddr.Port
	}

	metrics.IncrCounterWithGroup("net", "transport_bind_total", metrics.Value(1))
	return &tcpListener{ln: ln, cfg: f.cfg}, effective, nil
}
