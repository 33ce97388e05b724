package transport

import (
	"errors"
	"io"
	"sync"
)

// ErrFlushCanceled is returned by Flush when a pending flush is woken by
// CancelPendingFlush rather than by the reader draining the pipe.
var ErrFlushCanceled = errors.New("transport: flush canceled")

// ErrReadCanceled is returned by Read when a pending read is woken by
// CancelPendingRead rather than by new data arriving.
var ErrReadCanceled = errors.New("transport: read canceled")

// PipeOptions configures one direction of a DuplexPipePair: a memory pool and
// the high/low watermarks that drive backpressure. The pipe buffers bytes in
// its own slice and does not draw from Pool.
type PipeOptions struct {
	Pool          *MemoryPool
	HighWatermark int
	LowWatermark  int
}

// DefaultPipeOptions returns sane defaults grounded on the block size used
// by the shared memory pool.
func DefaultPipeOptions() PipeOptions {
	return PipeOptions{
		Pool:          DefaultMemoryPool(),
		HighWatermark: 64 * 1024,
		LowWatermark:  32 * 1024,
	}
}

// pipe is the one-directional byte channel underlying a single PipeEnd pair.
// Writes accumulate into buffered bytes up to HighWatermark; once the
// buffered size reaches that threshold, Flush blocks until a reader has
// advanced the buffered size back below LowWatermark (or the pipe is
// completed/canceled).
type pipe struct {
	opts PipeOptions

	mu   sync.Mutex
	cond *sync.Cond

	buf       []byte
	completed bool
	completeErr error

	flushCanceled bool
	readCanceled  bool
}

func newPipe(opts PipeOptions) *pipe {
	p := &pipe{opts: opts}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// write appends data to the pipe's buffer and wakes any blocked reader.
func (p *pipe) write(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = append(p.buf, data...)
	p.cond.Broadcast()
}

// wouldBlock reports whether a flush call right now would have to wait for a
// reader, i.e. the buffered size is still at or above HighWatermark.
func (p *pipe) wouldBlock() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf) >= p.opts.HighWatermark && !p.completed && !p.flushCanceled
}

// flush blocks the writer side while the buffered size is at or above
// HighWatermark, until a reader advances it below LowWatermark, the pipe
// completes, or the flush is canceled.
func (p *pipe) flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) >= p.opts.HighWatermark {
		for len(p.buf) > 0 && len(p.buf) >= p.opts.LowWatermark && !p.completed && !p.flushCanceled {
			p.cond.Wait()
		}
	}
	if p.flushCanceled {
		p.flushCanceled = false
		return ErrFlushCanceled
	}
	if p.completed {
		return p.completeErr
	}
	return nil
}

// read blocks until there is at least one byte buffered, the pipe is
// completed, or the read is canceled, then copies available bytes into dst
// and advances the buffer.
func (p *pipe) read(dst []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.buf) == 0 && !p.completed && !p.readCanceled {
		p.cond.Wait()
	}
	if p.readCanceled {
		p.readCanceled = false
		return 0, ErrReadCanceled
	}
	if len(p.buf) == 0 {
		if p.completeErr != nil {
			return 0, p.completeErr
		}
		return 0, io.EOF
	}
	n := copy(dst, p.buf)
	p.buf = p.buf[n:]
	p.cond.Broadcast()
	return n, nil
}

// advance discards n bytes from the front of the buffer, as if a reader had
// consumed them directly, and wakes any writer blocked in flush.
func (p *pipe) advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.buf) {
		n = len(p.buf)
	}
	p.buf = p.buf[n:]
	p.cond.Broadcast()
}

// complete marks the pipe done; all future reads observe err (nil for a
// graceful, error-free completion).
func (p *pipe) complete(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed {
		return
	}
	p.completed = true
	p.completeErr = err
	p.cond.Broadcast()
}

// cancelPendingFlush wakes a writer currently blocked in flush with a
// canceled result, without completing the pipe.
func (p *pipe) cancelPendingFlush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushCanceled = true
	p.cond.Broadcast()
}

// cancelPendingRead wakes a reader currently blocked in read with a canceled
// result, without completing the pipe.
func (p *pipe) cancelPendingRead() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readCanceled = true
	p.cond.Broadcast()
}

func (p *pipe) buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// PipeEnd is one side (reader+writer) of a DuplexPipePair.
type PipeEnd struct {
	readSide  *pipe
	writeSide *pipe
}

// Write appends data to this end's outgoing pipe and returns immediately;
// backpressure is observed by the writer calling Flush, not Write.
func (e *PipeEnd) Write(data []byte) {
	e.writeSide.write(data)
}

// Flush blocks while the outgoing pipe is above its high watermark.
func (e *PipeEnd) Flush() error {
	return e.writeSide.flush()
}

// WouldBlock reports whether calling Flush right now would have to wait for
// a reader to drain the outgoing pipe below its high watermark.
func (e *PipeEnd) WouldBlock() bool {
	return e.writeSide.wouldBlock()
}

// Read reads the next available bytes from this end's incoming pipe.
func (e *PipeEnd) Read(dst []byte) (int, error) {
	return e.readSide.read(dst)
}

// Advance discards n bytes from the front of the incoming pipe, signalling
// to the other end's flush that the reader has made progress.
func (e *PipeEnd) Advance(n int) {
	e.readSide.advance(n)
}

// Buffered returns the number of unread bytes currently sitting in this
// end's incoming pipe.
func (e *PipeEnd) Buffered() int {
	return e.readSide.buffered()
}

// Complete marks this end's incoming pipe done; all future reads on this end
// surface err.
func (e *PipeEnd) Complete(err error) {
	e.readSide.complete(err)
}

// CompleteWrite marks this end's outgoing pipe done, releasing any writer
// blocked in Flush.
func (e *PipeEnd) CompleteWrite(err error) {
	e.writeSide.complete(err)
}

// CancelPendingFlush wakes a writer blocked in Flush on this end's outgoing
// pipe with a canceled result.
func (e *PipeEnd) CancelPendingFlush() {
	e.writeSide.cancelPendingFlush()
}

// CancelPendingRead wakes a reader blocked in Read on this end's incoming
// pipe with a canceled result.
func (e *PipeEnd) CancelPendingRead() {
	e.readSide.cancelPendingRead()
}

// DuplexPipePair exposes two endpoints, transport and application, each with
// an async reader and writer. Bytes written on one end's outgoing pipe are
// the bytes read from the other end's incoming pipe: the transport side's
// input is the application side's output, and vice versa, matching
// "transport.output is input to the app; transport.input is output from the
// app".
type DuplexPipePair struct {
	Transport   PipeEnd
	Application PipeEnd
}

// NewDuplexPipePair creates a pipe pair. transportToAppOpts configures the
// pipe carrying bytes from the transport (socket) to the application;
// appToTransportOpts configures the reverse direction.
func NewDuplexPipePair(transportToAppOpts, appToTransportOpts PipeOptions) *DuplexPipePair {
	transportToApp := newPipe(transportToAppOpts)
	appToTransport := newPipe(appToTransportOpts)

	return &DuplexPipePair{
		Transport: PipeEnd{
			readSide:  appToTransport,
			writeSide: transportToApp,
		},
		Application: PipeEnd{
			readSide:  transportToApp,
			writeSide: appToTransport,
		},
	}
}
