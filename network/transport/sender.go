package transport

import (
	"net"
	"sync"
)

// Sender wraps the scratch state needed to push one buffer out over a
// socket. It is rented from a SenderPool for the duration of one send and
// returned on success; on error the caller retains it for disposal instead
// of returning a potentially poisoned sender to the shared pool.
type Sender struct {
	scratch []byte
}

// Send writes the whole of buf to conn, looping over short writes.
func (s *Sender) Send(conn net.Conn, buf []byte) (int, error) {
	written := 0
	for written < len(buf) {
		n, err := conn.Write(buf[written:])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Dispose releases the sender's scratch buffer. Called on a poisoned sender
// that was retained after a send error rather than returned to the pool.
func (s *Sender) Dispose() {
	s.scratch = nil
}

// SenderPool is a shared pool of Senders. Shared across connections: renting
// is cheap, and a sender carries no per-connection state beyond a reusable
// scratch buffer.
type SenderPool struct {
	pool sync.Pool
}

// NewSenderPool creates an empty SenderPool.
func NewSenderPool() *SenderPool {
	return &SenderPool{
		pool: sync.Pool{
			New: func() any { return &Sender{} },
		},
	}
}

// Rent returns a Sender from the pool, creating one if the pool is empty.
func (p *SenderPool) Rent() *Sender {
	s, _ := p.pool.Get().(*Sender) //nolint:revive
	return s
}

// Return releases a Sender that completed its send without error back to
// the pool for reuse.
func (p *SenderPool) Return(s *Sender) {
	if s == nil {
		return
	}
	p.pool.Put(s)
}

var _defaultSenderPool = NewSenderPool()

// DefaultSenderPool returns the package-wide shared sender pool.
func DefaultSenderPool() *SenderPool {
	return _defaultSenderPool
}
