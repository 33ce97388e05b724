package dispatcher

import (
	"github.com/linchenxuan/connhost/network/transport"
)

// Connection is the per-accepted-connection record the dispatcher tracks: a
// monotonic id, the raw transport connection, the composed middleware
// delegate, a completion signal fired once its execution task has finished, and the
// on-completed feature middleware registers callbacks against.
type Connection struct {
	id       uint64
	conn     *transport.SocketConnection
	features *transport.FeatureBag
	handler  transport.Terminal

	onCompleted *OnCompletedFeature

	doneCh chan struct{}
	log    connLog
}

func newConnection(id uint64, accepted *transport.AcceptedConnection, handler transport.Terminal) *Connection {
	features := accepted.Features
	if features == nil {
		features = transport.NewFeatureBag()
	}
	oc := NewOnCompletedFeature()
	features.Set(transport.FeatureKeyOnCompleted, oc)

	return &Connection{
		id:          id,
		conn:        accepted.Conn,
		features:    features,
		handler:     handler,
		onCompleted: oc,
		doneCh:      make(chan struct{}),
		log:         newConnLog(id),
	}
}

// ID returns the connection's 64-bit id, unique and monotonically assigned
// within its endpoint.
func (c *Connection) ID() uint64 { return c.id }

// RequestClose asks the underlying socket connection to raise its
// connection-closed signal without a hard abort, satisfying
// transport.LiveConnection so the connection manager can request a
// graceful close directly.
func (c *Connection) RequestClose() { c.conn.RequestClose() }

// Abort tears the connection down immediately with reason, satisfying
// transport.LiveConnection so the connection manager can abort it directly.
func (c *Connection) Abort(reason error) { c.conn.Abort(reason) }

// ConnectionClosed exposes the underlying socket connection's
// connection-closed signal.
func (c *Connection) ConnectionClosed() <-chan struct{} { return c.conn.ConnectionClosed() }

// Done is closed once this connection's execution task has fully completed:
// middleware returned, on-completed callbacks ran, the connection was
// removed from its manager, and the socket was disposed.
func (c *Connection) Done() <-chan struct{} { return c.doneCh }

var _ transport.LiveConnection = (*Connection)(nil)
