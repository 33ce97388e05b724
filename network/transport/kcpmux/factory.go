package kcpmux

import (
	"context"
	"net"
	"strconv"

	"github.com/xtaci/kcp-go/v5"

	"github.com/linchenxuan/connhost/metrics"
	"github.com/linchenxuan/connhost/network/transport"
)

// Factory binds transport.EndpointDescriptor values of kind EndpointKindIP
// to a KCP listener over a UDP socket, standing in for a QUIC/H3
// multiplexed transport factory.
type Factory struct {
	cfg *KCPMuxCfg
}

// NewFactory builds a Factory from cfg, defaulting a nil cfg to
// DefaultKCPMuxCfg.
func NewFactory(cfg *KCPMuxCfg) *Factory {
	if cfg == nil {
		cfg = DefaultKCPMuxCfg()
	}
	return &Factory{cfg: cfg}
}

// CanBind reports whether endpoint is an IP endpoint.
func (f *Factory) CanBind(endpoint transport.EndpointDescriptor) bool {
	return endpoint.Kind == transport.EndpointKindIP
}

// Bind opens a KCP listener on endpoint's UDP address. If features carries
// a TLSConnectionCallbackOptions (from either the static-TLS or the
// handshake-callback branch), every accepted session is upgraded with a
// real TLS handshake before being handed to the dispatcher.
func (f *Factory) Bind(ctx context.Context, endpoint transport.EndpointDescriptor, features *transport.FeatureBag) (transport.SingleAcceptListener, transport.EndpointDescriptor, error) {
	crypt, err := blockCrypt(f.cfg)
	if err != nil {
		return nil, transport.EndpointDescriptor{}, err
	}

	addr := net.JoinHostPort(endpoint.IP.String(), strconv.Itoa(endpoint.Port))
	ln, err := kcp.ListenWithOptions(addr, crypt, f.cfg.DataShards, f.cfg.ParityShards)
	if err != nil {
		return nil, transport.EndpointDescriptor{}, err
	}
	if f.cfg.MaxBufferSize > 0 {
		_ = ln.SetReadBuffer(f.cfg.MaxBufferSize)
		_ = ln.SetWriteBuffer(f.cfg.MaxBufferSize)
	}

	effective := endpoint
	if udpAddr, ok := ln.Addr().(*net.UDPAddr); ok {
		effective.Port = udpAddr.Port
	}

	var tlsOpts *transport.TLSConnectionCallbackOptions
	if features != nil {
		if v, ok := features.Get(transport.FeatureKeyTLS); ok {
			tlsOpts, _ = v.(*transport.TLSConnectionCallbackOptions)
		}
	}

	metrics.IncrCounterWithGroup("net", "transport_bind_total", metrics.Value(1))
	return &kcpListener{ln: ln, cfg: f.cfg, tls: tlsOpts}, effective, nil
}
