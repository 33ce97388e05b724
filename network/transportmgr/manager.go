// Package transportmgr implements the transport manager: the registry of
// pluggable stream and multiplexed transport factories, bind/unbind
// orchestration, and the stop protocol that drains then aborts an
// endpoint's live connections before disposing its listener.
package transportmgr

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linchenxuan/connhost/event"
	"github.com/linchenxuan/connhost/log"
	"github.com/linchenxuan/connhost/metrics"
	"github.com/linchenxuan/connhost/network/dispatcher"
	"github.com/linchenxuan/connhost/network/transport"
	"github.com/linchenxuan/connhost/runtime"
)

// ActiveTransport is one endpoint's live bind: the options it was bound
// with, its connection manager, and the accept-loop task the stop protocol
// waits on.
type ActiveTransport struct {
	ID          uint64
	Endpoint    transport.EndpointDescriptor
	Options     *transport.ListenOptions
	Multiplexed bool

	connMgr  *transport.ConnectionManager
	listener transport.SingleAcceptListener
	done     <-chan struct{}
	cancel   context.CancelFunc
}

// Fingerprint returns the configuration fingerprint the endpoint was bound
// with, used to partition stop/reload by changed configuration.
func (a *ActiveTransport) Fingerprint() string { return a.Options.Fingerprint() }

// Manager holds the ordered stream and multiplexed factory lists and the
// set of currently active endpoint binds.
type Manager struct {
	mu                   sync.RWMutex
	streamFactories      []transport.StreamTransportFactory
	multiplexedFactories []transport.MultiplexedTransportFactory
	active               map[uint64]*ActiveTransport

	nextID atomic.Uint64
}

// New returns an empty Manager; register factories with RegisterStream and
// RegisterMultiplexed before binding anything.
func New() *Manager {
	return &Manager{active: make(map[uint64]*ActiveTransport)}
}

// RegisterStream appends a stream transport factory to the selection order.
func (m *Manager) RegisterStream(f transport.StreamTransportFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamFactories = append(m.streamFactories, f)
}

// RegisterMultiplexed appends a multiplexed transport factory to the
// selection order.
func (m *Manager) RegisterMultiplexed(f transport.MultiplexedTransportFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.multiplexedFactories = append(m.multiplexedFactories, f)
}

// Bind binds a stream endpoint per opts, launches its accept loop, and
// returns the primary effective endpoint descriptor. opts.Use-registered
// middleware is composed exactly once per concrete bind. If opts carries no
// fingerprint, one is derived from this process's entity identity before
// anything else happens, so StopEndpoints/reload diffing still has a stable
// key. If opts' endpoint is a wildcard IP, it expands (ExpandWildcard) into
// a separate IPv4 and IPv6 bind sharing the same options, middleware, and
// fingerprint; Bind returns the IPv4 bind's effective descriptor as primary.
func (m *Manager) Bind(ctx context.Context, opts *transport.ListenOptions, dispatcherOpts ...dispatcher.Option) (transport.EndpointDescriptor, error) {
	ensureFingerprint(opts)
	var primary transport.EndpointDescriptor
	for i, o := range opts.ExpandWildcard() {
		effective, err := m.bindStream(ctx, o, dispatcherOpts...)
		if err != nil {
			return transport.EndpointDescriptor{}, err
		}
		if i == 0 {
			primary = effective
		}
	}
	return primary, nil
}

func (m *Manager) bindStream(ctx context.Context, opts *transport.ListenOptions, dispatcherOpts ...dispatcher.Option) (transport.EndpointDescriptor, error) {
	m.mu.RLock()
	factory := transport.SelectStreamFactory(m.streamFactories, opts.Endpoint)
	m.mu.RUnlock()
	if factory == nil {
		return transport.EndpointDescriptor{}, fmt.Errorf("no registered factory supports endpoint %s", opts.Endpoint)
	}

	listener, effective, err := factory.Bind(ctx, opts.Endpoint)
	if err != nil {
		return transport.EndpointDescriptor{}, err
	}

	concurrent := transport.WithFixedMaxAccepts(transport.AdaptSingleAccept(listener), opts.MaxAccepts)
	handler := opts.Build()
	m.launch(ctx, effective, opts, concurrent, handler, false, dispatcherOpts...)

	log.Info().Str("Endpoint", opts.DisplayForm()).Str("EntityId", runtime.GetEntityIDStr()).
		Msg("transport bound")
	return effective, nil
}

// BindMultiplexed binds a multiplexed endpoint per opts the same way Bind
// binds a stream endpoint, expanding a wildcard IP into a separate IPv4
// and IPv6 bind. Each concrete bind gets its own TLS feature bag: static
// TLS options win, a handshake callback is adapted second, and an empty
// bag (test-only) is the fallback.
func (m *Manager) BindMultiplexed(ctx context.Context, opts *transport.ListenOptions, dispatcherOpts ...dispatcher.Option) (transport.EndpointDescriptor, error) {
	ensureFingerprint(opts)
	var primary transport.EndpointDescriptor
	for i, o := range opts.ExpandWildcard() {
		effective, err := m.bindMultiplexedOne(ctx, o, dispatcherOpts...)
		if err != nil {
			return transport.EndpointDescriptor{}, err
		}
		if i == 0 {
			primary = effective
		}
	}
	return primary, nil
}

func (m *Manager) bindMultiplexedOne(ctx context.Context, opts *transport.ListenOptions, dispatcherOpts ...dispatcher.Option) (transport.EndpointDescriptor, error) {
	m.mu.RLock()
	factory := transport.SelectMultiplexedFactory(m.multiplexedFactories, opts.Endpoint)
	m.mu.RUnlock()
	if factory == nil {
		return transport.EndpointDescriptor{}, fmt.Errorf("no registered factory supports endpoint %s", opts.Endpoint)
	}

	features := buildMultiplexedFeatureBag(opts)

	listener, effective, err := factory.Bind(ctx, opts.Endpoint, features)
	if err != nil {
		return transport.EndpointDescriptor{}, err
	}

	concurrent := transport.WithFixedMaxAccepts(transport.AdaptSingleAccept(listener), opts.MaxAccepts)
	handler := opts.BuildMultiplexed()
	m.launch(ctx, effective, opts, concurrent, handler, true, dispatcherOpts...)

	log.Info().Str("Endpoint", opts.DisplayForm()).Str("EntityId", runtime.GetEntityIDStr()).
		Msg("multiplexed transport bound")
	return effective, nil
}

// buildMultiplexedFeatureBag builds the immutable feature bag passed to a
// multiplexed factory's Bind before the endpoint is bound.
func buildMultiplexedFeatureBag(opts *transport.ListenOptions) *transport.FeatureBag {
	bag := transport.NewFeatureBag()

	switch {
	case opts.StaticTLS != nil:
		protos := applicationProtocolsFromOptions(opts)
		bag.Set(transport.FeatureKeyTLS, &transport.TLSConnectionCallbackOptions{
			ApplicationProtocols: protos,
			OnConnection: func(_ context.Context, _ *transport.TLSHandshakeContext) (*tls.Config, error) {
				return opts.StaticTLS.Config, nil
			},
			OnConnectionState: nil,
		})
	case opts.TLSHandshake != nil:
		cb := opts.TLSHandshake
		bag.Set(transport.FeatureKeyTLS, &transport.TLSConnectionCallbackOptions{
			ApplicationProtocols: []string{"h3"},
			OnConnection:         cb.OnConnection,
			OnConnectionState:    cb.OnConnectionState,
		})
	}
	// Neither static TLS nor a handshake callback: the bag stays empty.
	// kcpmux.Factory then binds without any TLS handshake.
	return bag
}

// applicationProtocolsFromOptions returns opts' explicitly configured
// protocol names, or ["h3"] if none were set.
func applicationProtocolsFromOptions(opts *transport.ListenOptions) []string {
	if !opts.ProtocolsExplicitlySet() {
		return []string{"h3"}
	}
	var out []string
	if opts.Protocols.Has(transport.ProtocolH1) {
		out = append(out, "http/1.1")
	}
	if opts.Protocols.Has(transport.ProtocolH2) {
		out = append(out, "h2")
	}
	if opts.Protocols.Has(transport.ProtocolH3) {
		out = append(out, "h3")
	}
	if len(out) == 0 {
		return []string{"h3"}
	}
	return out
}

// launch wires a bound listener into a fresh Dispatcher, registers the
// ActiveTransport entry, and starts the accept loop.
func (m *Manager) launch(ctx context.Context, effective transport.EndpointDescriptor, opts *transport.ListenOptions, listener transport.ConcurrentListener, handler transport.Terminal, multiplexed bool, dispatcherOpts ...dispatcher.Option) {
	id := m.nextID.Add(1)
	connMgr := transport.NewConnectionManager()
	d := dispatcher.New(opts.DisplayForm(), listener, connMgr, handler, dispatcherOpts...)

	acceptCtx, cancel := context.WithCancel(ctx)
	done := d.Run(acceptCtx)

	at := &ActiveTransport{
		ID:          id,
		Endpoint:    effective,
		Options:     opts,
		Multiplexed: multiplexed,
		connMgr:     connMgr,
		listener:    listener,
		done:        done,
		cancel:      cancel,
	}

	m.mu.Lock()
	m.active[id] = at
	m.mu.Unlock()

	metrics.UpdateGaugeWithGroup("net", "active_transports", metrics.Value(m.Count()))
}

// Count returns the number of currently active transports.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Snapshot returns the currently active transports.
func (m *Manager) Snapshot() []*ActiveTransport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ActiveTransport, 0, len(m.active))
	for _, at := range m.active {
		out = append(out, at)
	}
	return out
}

// Stop runs the full stop protocol against every active transport and
// blocks until the active set is empty.
func (m *Manager) Stop(ctx context.Context, drainTimeout time.Duration) {
	m.stopSubset(ctx, drainTimeout, m.Snapshot())
}

// StopEndpoints runs the stop protocol only against transports whose
// fingerprint is in fingerprints, leaving the rest running.
func (m *Manager) StopEndpoints(ctx context.Context, drainTimeout time.Duration, fingerprints ...string) {
	want := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		want[fp] = struct{}{}
	}

	var subset []*ActiveTransport
	for _, at := range m.Snapshot() {
		if _, ok := want[at.Fingerprint()]; ok {
			subset = append(subset, at)
		}
	}
	m.stopSubset(ctx, drainTimeout, subset)
}

// stopSubset runs the four-step stop protocol against exactly the given
// transports.
func (m *Manager) stopSubset(ctx context.Context, drainTimeout time.Duration, subset []*ActiveTransport) {
	if len(subset) == 0 {
		return
	}

	// Step 1: unbind every listener and await its accept-loop task.
	var wg sync.WaitGroup
	for _, at := range subset {
		wg.Add(1)
		go func(at *ActiveTransport) {
			defer wg.Done()
			_ = at.listener.Unbind(ctx)
			at.cancel()
			select {
			case <-at.done:
			case <-ctx.Done():
			}
		}(at)
	}
	wg.Wait()

	// Step 2: close-all-connections, degrading to abort-all on timeout.
	wg = sync.WaitGroup{}
	for _, at := range subset {
		wg.Add(1)
		go func(at *ActiveTransport) {
			defer wg.Done()
			if !at.connMgr.CloseAllConnections(drainTimeout) {
				log.Warn().Str("Endpoint", at.Endpoint.String()).
					Msg("not all connections closed gracefully")
				if !at.connMgr.AbortAllConnections() {
					log.Error().Str("Endpoint", at.Endpoint.String()).
						Msg("not all connections aborted")
				}
			}
		}(at)
	}
	wg.Wait()

	// Step 3: dispose every listener.
	wg = sync.WaitGroup{}
	for _, at := range subset {
		wg.Add(1)
		go func(at *ActiveTransport) {
			defer wg.Done()
			at.listener.Dispose()
		}(at)
	}
	wg.Wait()

	// Step 4: remove from the active set.
	m.mu.Lock()
	for _, at := range subset {
		delete(m.active, at.ID)
	}
	m.mu.Unlock()

	metrics.UpdateGaugeWithGroup("net", "active_transports", metrics.Value(m.Count()))
}

// SubscribeReload registers the manager to call StopEndpoints with
// fingerprints() whenever the config-reload topic fires. fingerprints
// should return the set of endpoint fingerprints the reload changed;
// drainTimeout bounds the resulting stop's graceful close phase.
func (m *Manager) SubscribeReload(pub *event.Publisher, drainTimeout time.Duration, fingerprints func() []string) error {
	return pub.RegisterSubscriber(event.ReloadConfig, func(_ any) {
		changed := fingerprints()
		if len(changed) == 0 {
			return
		}
		m.StopEndpoints(context.Background(), drainTimeout, changed...)
	})
}
