package transport

import (
	"github.com/linchenxuan/connhost/utils/pool"
)

// DefaultBlockSize is the size of one pinned memory block handed out by a
// MemoryPool. A socket connection's receive loop rents one block from its
// memory pool for each read off the wire.
const DefaultBlockSize = 4096

// MemoryPool rents and returns fixed-size byte blocks. The receive loop
// rents a block for one socket read and returns it once the bytes have been
// copied into the pipe.
type MemoryPool struct {
	p *pool.Pool
}

// NewMemoryPool creates a MemoryPool whose blocks are blockSize bytes long.
// name is used as the pool's metrics tag.
func NewMemoryPool(name string, blockSize int) *MemoryPool {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &MemoryPool{
		p: pool.NewPool(name, func() any {
			return make([]byte, blockSize)
		}),
	}
}

// Rent returns a pinned block from the pool.
func (m *MemoryPool) Rent() []byte {
	buf, ok := m.p.Get().([]byte)
	if !ok {
		return make([]byte, DefaultBlockSize)
	}
	return buf
}

// Return releases a block back to the pool.
func (m *MemoryPool) Return(b []byte) {
	if b == nil {
		return
	}
	m.p.Put(b) //nolint:revive
}

// _defaultMemoryPool is shared by connections that do not supply their own.
var _defaultMemoryPool = NewMemoryPool("transport.defaultblockpool", DefaultBlockSize)

// DefaultMemoryPool returns the package-wide fallback memory pool.
func DefaultMemoryPool() *MemoryPool {
	return _defaultMemoryPool
}
