package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipeEnd_WouldBlock_TracksHighWatermark(t *testing.T) {
	opts := PipeOptions{HighWatermark: 8, LowWatermark: 4}
	pair := NewDuplexPipePair(opts, DefaultPipeOptions())

	assert.False(t, pair.Transport.WouldBlock(), "an empty pipe must never report backpressure")

	pair.Transport.Write(make([]byte, 8))
	assert.True(t, pair.Transport.WouldBlock(), "buffered size at the high watermark must block a flush")

	buf := make([]byte, 8)
	n, err := pair.Application.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 8, n)

	assert.False(t, pair.Transport.WouldBlock(), "draining past the watermark must release the flush")
}

func TestPipeEnd_Flush_UnblocksOnRead(t *testing.T) {
	opts := PipeOptions{HighWatermark: 4, LowWatermark: 2}
	pair := NewDuplexPipePair(opts, DefaultPipeOptions())

	pair.Transport.Write(make([]byte, 4))

	flushDone := make(chan error, 1)
	go func() {
		flushDone <- pair.Transport.Flush()
	}()

	buf := make([]byte, 4)
	_, err := pair.Application.Read(buf)
	assert.NoError(t, err)

	assert.NoError(t, <-flushDone)
}
