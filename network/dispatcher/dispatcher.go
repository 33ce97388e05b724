// Package dispatcher implements the connection dispatcher: the accept loop
// that reads a listener's lazy accept-token sequence, materializes each
// accepted connection, assigns it a monotonically increasing per-endpoint
// id, registers it with the endpoint's connection manager, and drives its
// execution (the composed middleware chain) on its own goroutine.
package dispatcher

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/linchenxuan/connhost/log"
	"github.com/linchenxuan/connhost/metrics"
	"github.com/linchenxuan/connhost/network/transport"
	"github.com/linchenxuan/connhost/tracing"
)

// Dispatcher drives one endpoint's accept loop. It is created fresh for
// every Bind and discarded on Unbind; its Run method's returned channel is
// the "accept-loop task" the transport manager's stop protocol awaits.
type Dispatcher struct {
	endpoint   string
	listener   transport.ConcurrentListener
	connMgr    *transport.ConnectionManager
	handler    transport.Terminal
	limiter    AcceptLimiter
	onDispatch func(id uint64)

	nextID atomic.Uint64

	wg     sync.WaitGroup
	done   chan struct{}
	closed atomic.Bool
}

// Option configures optional Dispatcher behavior.
type Option func(*Dispatcher)

// WithAcceptLimiter installs an admission limiter the accept loop consults
// before materializing each accepted connection.
func WithAcceptLimiter(limiter AcceptLimiter) Option {
	return func(d *Dispatcher) { d.limiter = limiter }
}

// WithIDObserver installs a hook invoked synchronously with each newly
// assigned connection id, right after registration with the connection
// manager. Intended for tests and metrics exporters that need to observe
// id assignment order without instrumenting the middleware chain itself.
func WithIDObserver(fn func(id uint64)) Option {
	return func(d *Dispatcher) { d.onDispatch = fn }
}

// New creates a Dispatcher for one endpoint's listener. endpoint is used
// purely for log/metric context (the endpoint's display form). handler is
// the already-composed middleware chain (ListenOptions.Build()) every
// accepted connection on this endpoint will run.
func New(endpoint string, listener transport.ConcurrentListener, connMgr *transport.ConnectionManager, handler transport.Terminal, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		endpoint: endpoint,
		listener: listener,
		connMgr:  connMgr,
		handler:  handler,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run launches MaxAccepts() concurrent accept consumers and returns a
// channel that closes once every consumer has exited: the listener's
// sequence terminated (unbind) on all of them, or each hit an unhandled
// error. This is the accept-loop task the transport manager's stop
// protocol waits on.
func (d *Dispatcher) Run(ctx context.Context) <-chan struct{} {
	maxAccepts := d.listener.MaxAccepts()
	if maxAccepts < 1 {
		maxAccepts = 1
	}
	d.wg.Add(maxAccepts)
	for i := 0; i < maxAccepts; i++ {
		idx := i
		go d.acceptConsumer(ctx, idx)
	}
	go func() {
		d.wg.Wait()
		close(d.done)
	}()
	return d.done
}

// acceptConsumer is one of up to MaxAccepts concurrent loops pulling from
// the listener's shared, multi-consumer accept-token sequence. It runs
// until the sequence terminates normally (nil token, nil error — the
// listener was unbound) or an error surfaces, which is logged at critical
// level and terminates only this consumer.
func (d *Dispatcher) acceptConsumer(ctx context.Context, idx int) {
	defer d.wg.Done()
	for {
		token, err := d.listener.NextToken(ctx)
		if err != nil {
			d.logAcceptFailure(idx, err)
			return
		}
		if token == nil {
			return
		}

		if d.limiter != nil {
			if err := d.limiter.Take(ctx); err != nil {
				d.logAcceptFailure(idx, err)
				return
			}
		}

		accepted, err := d.listener.Materialize(ctx, token)
		if err != nil {
			d.logAcceptFailure(idx, err)
			return
		}
		if accepted == nil {
			return
		}

		d.dispatch(accepted)
	}
}

// logAcceptFailure logs an unhandled accept-loop error at critical
// severity. The logger exposes Trace..Fatal only and Fatal terminates the
// process, which would crash the server on a single failed accept
// consumer; "critical" is therefore represented as Error() plus an
// explicit Severity field rather than a distinct level.
func (d *Dispatcher) logAcceptFailure(consumer int, err error) {
	log.Error().Str("Severity", "critical").Str("Endpoint", d.endpoint).
		Int("AcceptConsumer", consumer).Err(err).Msg("accept loop consumer failed")
	metrics.IncrCounterWithGroup("net", "accept_failure_total", 1)
}

// dispatch assigns the next monotonically increasing id, builds the
// connection record, registers it with the connection manager before its
// execution task begins observing it, and schedules execution on its own
// goroutine.
func (d *Dispatcher) dispatch(accepted *transport.AcceptedConnection) {
	id := d.nextID.Add(1)
	conn := newConnection(id, accepted, d.handler)
	d.connMgr.Add(id, conn)
	metrics.IncrCounterWithGroup("net", "accept_total", 1)
	metrics.UpdateGaugeWithGroup("net", "current_connections", metrics.Value(d.connMgr.Count()))
	if d.onDispatch != nil {
		d.onDispatch(id)
	}

	go d.runConnection(conn)
}

// runConnection is the per-connection execution task: establish a logging
// scope and tracing span keyed by the connection id, await the composed
// middleware chain, fire on-completed callbacks in reverse registration
// order, then remove the connection from the manager and dispose it.
// on-completed callbacks are guaranteed to run, in order, strictly before
// the connection disappears from the manager's view.
func (d *Dispatcher) runConnection(c *Connection) {
	span := tracing.GlobalTracer().StartSpan("connection")
	span.SetTag("ConnectionId", c.id)
	span.SetTag("RemoteAddr", addrString(c.conn.RemoteAddr()))
	defer span.End()

	defer func() {
		d.connMgr.Remove(c.id)
		c.conn.Dispose()
		metrics.UpdateGaugeWithGroup("net", "current_connections", metrics.Value(d.connMgr.Count()))
		close(c.doneCh)
	}()

	c.log.Info().Str("RemoteAddr", addrString(c.conn.RemoteAddr())).Msg("connection accepted")

	mctx := &transport.MiddlewareContext{Conn: c.conn, Features: c.features}
	if err := c.handler(mctx); err != nil {
		c.log.Error().Err(err).Msg("middleware chain returned an error")
		span.LogKV("error", err.Error())
	}

	c.onCompleted.run(c.log)
	c.log.Info().Msg("connection execution complete")
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
