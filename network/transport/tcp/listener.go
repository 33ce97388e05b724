package tcp

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linchenxuan/connhost/log"
	"github.com/linchenxuan/connhost/network/transport"
)

// pollInterval bounds how long Accept blocks on the kernel before checking
// ctx and the closed flag again, a deadline-poll idiom that lets an accept
// loop observe cancellation without a dedicated wakeup mechanism.
const pollInterval = time.Second

// tcpListener adapts a *net.TCPListener to transport.SingleAcceptListener.
type tcpListener struct {
	ln  *net.TCPListener
	cfg *TCPStreamCfg

	closed    atomic.Bool
	closeOnce sync.Once
}

// Accept blocks until a connection arrives, the listener is unbound, or ctx
// is canceled.
func (l *tcpListener) Accept(ctx context.Context) (*transport.AcceptedConnection, error) {
	for {
		if l.closed.Load() {
			return nil, nil
		}

		_ = l.ln.SetDeadline(time.Now().Add(pollInterval))
		conn, err := l.ln.AcceptTCP()
		if err != nil {
			if l.closed.Load() {
				return nil, nil
			}
			if opErr, ok := err.(*net.OpError); ok && opErr.Timeout() {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				default:
					continue
				}
			}
			return nil, err
		}

		if l.cfg.MaxBufferSize > 0 {
			if err := conn.SetReadBuffer(l.cfg.MaxBufferSize); err != nil {
				log.Warn().Err(err).Msg("failed to set TCP read buffer size")
			}
			if err := conn.SetWriteBuffer(l.cfg.MaxBufferSize); err != nil {
				log.Warn().Err(err).Msg("failed to set TCP write buffer size")
			}
		}

		sc := transport.NewSocketConnection(conn, transport.DefaultSocketConnectionOptions())
		sc.Start(false)
		return &transport.AcceptedConnection{Conn: sc, Features: transport.NewFeatureBag()}, nil
	}
}

// Unbind closes the underlying listener; in-flight Accept calls observe the
// closed flag and return (nil, nil).
func (l *tcpListener) Unbind(ctx context.Context) error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		_ = l.ln.Close()
	})
	return nil
}

// Dispose is a no-op: the listener socket is already closed by Unbind, and
// this listener holds no other resources.
func (l *tcpListener) Dispose() {}
