package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"runtime"
	"syscall"

	pkgerrors "github.com/pkg/errors"
)

// ErrConnectionReset is the cause surfaced to middleware when the receive or
// send loop observes a peer-initiated reset.
var ErrConnectionReset = errors.New("connhost: connection reset by peer")

// errGracefulSendLoopCompletion is the synthetic shutdown reason recorded
// when the send loop exits cleanly without any prior error having claimed
// the shutdown reason slot.
var errGracefulSendLoopCompletion = errors.New("connhost: the connection's send loop completed gracefully")

// classification is the outcome of inspecting an I/O error observed by
// either loop.
type classification int

const (
	classUnexpected classification = iota
	classResetLike
	classAbortLike
)

// classifyIOError implements the receive/send-loop error taxonomy: reset-like
// codes become a "connection reset" cause; abort-like codes are expected
// once the local side has torn down the socket; anything else is unexpected.
func classifyIOError(err error) classification {
	if err == nil {
		return classUnexpected
	}
	if errors.Is(err, io.EOF) {
		return classAbortLike
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return classAbortLike
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ESHUTDOWN:
			return classResetLike
		case syscall.ECONNABORTED:
			if runtime.GOOS == "windows" {
				return classResetLike
			}
			return classAbortLike
		case syscall.EINTR:
			return classAbortLike
		case syscall.EINVAL:
			if runtime.GOOS != "windows" {
				return classAbortLike
			}
			return classUnexpected
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return classifyIOError(opErr.Err)
	}

	return classUnexpected
}

// wrapShutdownReason wraps err with context via pkg/errors so the original
// syscall-level cause survives across the shutdown-reason boundary and can
// still be recovered with errors.Cause at the point it is logged.
func wrapShutdownReason(err error, context string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, context)
}
