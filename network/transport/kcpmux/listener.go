package kcpmux

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"

	"github.com/xtaci/kcp-go/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/linchenxuan/connhost/log"
	"github.com/linchenxuan/connhost/network/transport"
)

// FeatureKeySessionSecret publishes the HKDF-derived per-session key
// material into an accepted connection's feature bag, when a TLS handshake
// feature negotiated one. Middleware wanting an additional payload-layer
// secret beyond what TLS already provides can read it from here.
const FeatureKeySessionSecret transport.FeatureKey = "KCPMuxSessionSecret"

const sessionSecretLen = 32

// kcpListener adapts a *kcp.Listener to transport.SingleAcceptListener,
// optionally layering a real TLS handshake over each accepted session's
// stream when the bind call published a TLS feature.
type kcpListener struct {
	ln  *kcp.Listener
	cfg *KCPMuxCfg
	tls *transport.TLSConnectionCallbackOptions

	closed    atomic.Bool
	closeOnce sync.Once
}

// Accept blocks until a session arrives or the listener is unbound.
func (l *kcpListener) Accept(ctx context.Context) (*transport.AcceptedConnection, error) {
	session, err := l.ln.AcceptKCP()
	if err != nil {
		if l.closed.Load() {
			return nil, nil
		}
		return nil, err
	}
	configureSession(session, l.cfg)

	features := transport.NewFeatureBag()
	var netConn net.Conn = session

	if l.tls != nil {
		hctx := &transport.TLSHandshakeContext{Conn: nil}
		tlsCfg, cfgErr := l.tls.OnConnection(ctx, hctx)
		if cfgErr != nil {
			_ = session.Close()
			return nil, cfgErr
		}
		tlsConn := tls.Server(session, tlsCfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			log.Warn().Err(err).Msg("kcpmux TLS handshake failed")
			_ = session.Close()
			return nil, nil
		}
		state := tlsConn.ConnectionState()
		if l.tls.OnConnectionState != nil {
			l.tls.OnConnectionState(ctx, hctx, state)
		}
		if secret, deriveErr := deriveSessionSecret(state); deriveErr == nil {
			features.Set(FeatureKeySessionSecret, secret)
		}
		netConn = tlsConn
	}

	sc := transport.NewSocketConnection(netConn, transport.DefaultSocketConnectionOptions())
	sc.Start(false)
	return &transport.AcceptedConnection{Conn: sc, Features: features}, nil
}

// Unbind closes the underlying KCP listener.
func (l *kcpListener) Unbind(ctx context.Context) error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		_ = l.ln.Close()
	})
	return nil
}

// Dispose is a no-op: Unbind already released the UDP socket.
func (l *kcpListener) Dispose() {}

// configureSession applies the balanced-mode tuning from cfg to a freshly
// accepted or dialed KCP session, grounded on shinyes-tenet's
// KCPManager.configureSession.
func configureSession(session *kcp.UDPSession, cfg *KCPMuxCfg) {
	session.SetNoDelay(cfg.NoDelay, cfg.Interval, cfg.Resend, cfg.NC)
	session.SetWindowSize(cfg.SndWnd, cfg.RcvWnd)
	session.SetMtu(cfg.MTU)
	session.SetStreamMode(true)
}

// deriveSessionSecret expands the TLS exporter secret into a fixed-length
// key via HKDF-SHA256, giving middleware payload-layer key material tied to
// this specific handshake without exposing the raw TLS master secret.
func deriveSessionSecret(state tls.ConnectionState) ([]byte, error) {
	exported, err := state.ExportKeyingMaterial("connhost-kcpmux-session", nil, sessionSecretLen)
	if err != nil {
		return nil, err
	}
	out := make([]byte, sessionSecretLen)
	reader := hkdf.New(sha256.New, exported, nil, []byte("connhost-kcpmux"))
	if _, err := reader.Read(out); err != nil {
		return nil, err
	}
	return out, nil
}
