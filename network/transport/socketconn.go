package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/linchenxuan/connhost/log"
	"github.com/linchenxuan/connhost/metrics"
)

// SocketConnectionOptions bundles the construction-time dependencies of a
// SocketConnection: the memory pool, scheduler, sender pool, and the pipe
// options for each direction. WaitForData is carried in the options, but
// the receive loop does not read it: it always rents a buffer and blocks in
// the socket read, without a separate wait for readability.
type SocketConnectionOptions struct {
	Pool        *MemoryPool
	Scheduler   Scheduler
	SenderPool  *SenderPool
	InputOpts   PipeOptions
	OutputOpts  PipeOptions
	WaitForData bool
}

// DefaultSocketConnectionOptions returns options backed by the shared
// package-level pools and the goroutine scheduler.
func DefaultSocketConnectionOptions() SocketConnectionOptions {
	return SocketConnectionOptions{
		Pool:        DefaultMemoryPool(),
		Scheduler:   DefaultScheduler(),
		SenderPool:  DefaultSenderPool(),
		InputOpts:   DefaultPipeOptions(),
		OutputOpts:  DefaultPipeOptions(),
		WaitForData: true,
	}
}

// SocketConnection binds one accepted OS socket to a duplex pipe pair and
// drives its full lifetime: an independent receive loop and send loop,
// idempotent shutdown, abort, and disposal. See the package-level invariants:
// exactly one receive task and one send task run per connection until both
// finish; the socket is shut down and disposed at most once; the first error
// to reach shutdown wins as the reported reason; connection-closed fires
// exactly once, either when the receive side terminates or earlier if
// RequestClose was called.
type SocketConnection struct {
	conn net.Conn
	opts SocketConnectionOptions

	localAddr  net.Addr
	remoteAddr net.Addr

	pipes *DuplexPipePair

	shutdownMu     sync.Mutex
	shutdownOnce   bool
	shutdownReason error
	socketDisposed bool

	poisonedSender *Sender

	closedCtx    context.Context
	closedCancel context.CancelFunc
	closedFired  sync.Once
	closedLatch  chan struct{}

	recvDone chan struct{}
	sendDone chan struct{}
}

// NewSocketConnection constructs a SocketConnection over conn. It captures
// local/remote endpoints and creates the duplex pipe pair; the application
// end is exposed to middleware via Application().
func NewSocketConnection(conn net.Conn, opts SocketConnectionOptions) *SocketConnection {
	if opts.Pool == nil {
		opts.Pool = DefaultMemoryPool()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = DefaultScheduler()
	}
	if opts.SenderPool == nil {
		opts.SenderPool = DefaultSenderPool()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sc := &SocketConnection{
		conn:         conn,
		opts:         opts,
		localAddr:    conn.LocalAddr(),
		remoteAddr:   conn.RemoteAddr(),
		pipes:        NewDuplexPipePair(opts.InputOpts, opts.OutputOpts),
		closedCtx:    ctx,
		closedCancel: cancel,
		closedLatch:  make(chan struct{}),
		recvDone:     make(chan struct{}),
		sendDone:     make(chan struct{}),
	}
	return sc
}

// LocalAddr returns the connection's local endpoint.
func (sc *SocketConnection) LocalAddr() net.Addr { return sc.localAddr }

// RemoteAddr returns the connection's remote endpoint.
func (sc *SocketConnection) RemoteAddr() net.Addr { return sc.remoteAddr }

// Application returns the application-facing end of the duplex pipe pair.
// Middleware reads from and writes to this end exclusively.
func (sc *SocketConnection) Application() *PipeEnd { return &sc.pipes.Application }

// ConnectionClosed returns the cancellation signal raised exactly once,
// either when the receive loop terminates or earlier if RequestClose was
// called. Middleware observing it may assume no further bytes will arrive.
func (sc *SocketConnection) ConnectionClosed() <-chan struct{} {
	return sc.closedCtx.Done()
}

// RequestClose raises the connection-closed signal without tearing down the
// socket or canceling any pending I/O, giving middleware a chance to wind
// down cooperatively before a manager escalates to Abort. Safe to call at
// any point in the connection's lifetime; idempotent with the receive
// loop's own firing of the same signal.
func (sc *SocketConnection) RequestClose() {
	sc.fireConnectionClosed()
}

// Start spawns the receive and send loops as two independent goroutines.
// flushImmediately is passed through to the receive loop: set it true when
// bytes were already delivered alongside accept.
func (sc *SocketConnection) Start(flushImmediately bool) {
	go sc.receiveLoop(flushImmediately)
	go sc.sendLoop()
}

// receiveLoop flushes any bytes produced by the previous iteration (or
// honors the caller's hint), rents a buffer, reads, and writes the bytes
// into the pipe. A zero-byte read or io.EOF is FIN.
func (sc *SocketConnection) receiveLoop(flushImmediately bool) {
	var loopErr error

	defer func() {
		sc.pipes.Transport.Complete(firstNonNil(sc.currentShutdownReason(), loopErr))
		sc.fireConnectionClosed()
		<-sc.closedLatch
		close(sc.recvDone)
	}()

	needFlush := flushImmediately
	for {
		if needFlush {
			paused := sc.pipes.Transport.WouldBlock()
			if paused {
				log.Info().Str("RemoteAddr", addrString(sc.remoteAddr)).
					Msg("pausing receive: application pipe applying backpressure")
			}
			err := sc.pipes.Transport.Flush()
			if paused {
				log.Info().Str("RemoteAddr", addrString(sc.remoteAddr)).
					Msg("resuming receive: application pipe drained")
			}
			if err != nil {
				// Canceled or completed: exit normally, the cause (if any)
				// already lives in the shutdown reason slot.
				return
			}
		}

		buf := sc.opts.Pool.Rent()
		n, err := sc.conn.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			cls := classifyIOError(err)
			sc.handleLoopError(err, cls, "receive")
			loopErr = sc.classifiedCause(err, cls)
			sc.opts.Pool.Return(buf)
			return
		}
		if n == 0 {
			log.Info().Str("RemoteAddr", addrString(sc.remoteAddr)).Msg("connection received FIN")
			sc.opts.Pool.Return(buf)
			return
		}

		sc.pipes.Transport.Write(buf[:n])
		sc.opts.Pool.Return(buf)
		metrics.IncrCounterWithGroup("net", "conn_bytes_recv_total", metrics.Value(n))
		needFlush = true
	}
}

// sendLoop reads from the application output pipe (each read consumes the
// bytes it returns), rents a sender, sends the whole buffer, and returns the
// sender on success; on a send error it keeps the sender for disposal and
// exits.
func (sc *SocketConnection) sendLoop() {
	defer func() {
		sc.shutdown(sc.currentShutdownReason())
		sc.pipes.Transport.CompleteWrite(sc.unexpectedOnly(sc.currentShutdownReason()))
		sc.pipes.Transport.CancelPendingFlush()
		close(sc.sendDone)
	}()

	buf := make([]byte, DefaultBlockSize)
	for {
		n, err := sc.pipes.Transport.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			sender := sc.opts.SenderPool.Rent()
			_, sendErr := sender.Send(sc.conn, buf[:n])
			if sendErr != nil {
				cls := classifyIOError(sendErr)
				sc.handleLoopError(sendErr, cls, "send")
				sc.poisonedSender = sender
				return
			}
			sc.opts.SenderPool.Return(sender)
			metrics.IncrCounterWithGroup("net", "conn_bytes_sent_total", metrics.Value(n))
		}
	}
}

// handleLoopError applies the reset-like/abort-like/unexpected taxonomy,
// logging at the level each category warrants, then records the
// first-wins shutdown reason.
func (sc *SocketConnection) handleLoopError(err error, cls classification, loopName string) {
	switch cls {
	case classResetLike:
		if !sc.isSocketDisposed() {
			log.Info().Str("RemoteAddr", addrString(sc.remoteAddr)).Str("loop", loopName).
				Err(err).Msg("connection reset by peer")
		}
		sc.recordShutdownReason(wrapShutdownReason(ErrConnectionReset, loopName+" loop"))
	case classAbortLike:
		if !sc.isSocketDisposed() {
			log.Error().Str("RemoteAddr", addrString(sc.remoteAddr)).Str("loop", loopName).
				Err(err).Msg("unexpected abort before shutdown")
		}
		sc.recordShutdownReason(wrapShutdownReason(err, loopName+" loop"))
	default:
		log.Error().Str("RemoteAddr", addrString(sc.remoteAddr)).Str("loop", loopName).
			Err(err).Msg("unexpected transport error")
		sc.recordShutdownReason(wrapShutdownReason(err, loopName+" loop"))
	}
}

// classifiedCause maps a classification back to the error middleware should
// see as the pipe completion cause: reset-like always surfaces
// ErrConnectionReset; everything else surfaces the raw error (abort-like
// surfaces nil once shutdown already owns the reason, to avoid double
// reporting an expected teardown as an application-visible error).
func (sc *SocketConnection) classifiedCause(err error, cls classification) error {
	switch cls {
	case classResetLike:
		return ErrConnectionReset
	case classAbortLike:
		return nil
	default:
		return err
	}
}

// unexpectedOnly suppresses an expected shutdown cause (nil, or the
// synthetic graceful-completion marker) so CompleteWrite doesn't surface an
// error for ordinary teardown.
func (sc *SocketConnection) unexpectedOnly(reason error) error {
	if reason == nil || reason == errGracefulSendLoopCompletion {
		return nil
	}
	return reason
}

// shutdown is guarded by the shutdown lock and idempotent. The first caller
// sets the socket-disposed flag, records the shutdown reason (defaulting to
// a synthetic graceful completion cause), half-closes both directions
// ignoring errors, and disposes the socket. The flag flips before the
// socket is closed so the peer loop's next syscall classifies as expected
// abort rather than unexpected.
func (sc *SocketConnection) shutdown(reason error) {
	sc.shutdownMu.Lock()
	defer sc.shutdownMu.Unlock()
	if sc.shutdownOnce {
		return
	}
	sc.shutdownOnce = true
	sc.socketDisposed = true
	if reason == nil {
		reason = errGracefulSendLoopCompletion
	}
	sc.shutdownReason = reason

	if tcpConn, ok := sc.conn.(*net.TCPConn); ok {
		_ = tcpConn.CloseRead()
		_ = tcpConn.CloseWrite()
	}
	_ = sc.conn.Close()
}

// Abort tears the connection down immediately: it shuts down with reason and
// cancels a pending read on the application-output pipe so the send loop
// observes termination quickly.
func (sc *SocketConnection) Abort(reason error) {
	sc.shutdown(reason)
	sc.pipes.Transport.CancelPendingRead()
}

// Dispose must only be called after middleware has completed (i.e.
// connection-closed has fired). It completes the transport-side pipes,
// awaits both loops observing their finally blocks, and disposes the sender
// and cancellation source.
func (sc *SocketConnection) Dispose() {
	sc.pipes.Transport.Complete(nil)
	sc.pipes.Transport.CompleteWrite(nil)
	<-sc.recvDone
	<-sc.sendDone
	if sc.poisonedSender != nil {
		sc.poisonedSender.Dispose()
		sc.poisonedSender = nil
	}
	sc.closedCancel()
}

// fireConnectionClosed is guarded by a single-shot latch. It schedules, on a
// worker rather than inline on the receive loop's stack, a task that cancels
// the connection-closed signal and then sets the latch the receive loop's
// finally awaits. This keeps a stalling on-completed observer from blocking
// the receive loop's own teardown.
func (sc *SocketConnection) fireConnectionClosed() {
	sc.closedFired.Do(func() {
		sc.opts.Scheduler.Schedule(func() {
			sc.closedCancel()
			close(sc.closedLatch)
		})
	})
}

func (sc *SocketConnection) currentShutdownReason() error {
	sc.shutdownMu.Lock()
	defer sc.shutdownMu.Unlock()
	return sc.shutdownReason
}

func (sc *SocketConnection) recordShutdownReason(reason error) {
	sc.shutdownMu.Lock()
	defer sc.shutdownMu.Unlock()
	if sc.shutdownReason == nil {
		sc.shutdownReason = reason
	}
}

func (sc *SocketConnection) isSocketDisposed() bool {
	sc.shutdownMu.Lock()
	defer sc.shutdownMu.Unlock()
	return sc.socketDisposed
}

func firstNonNil(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
