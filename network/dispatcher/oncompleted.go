package dispatcher

import "sync"

// OnCompletedCallback is a callback middleware registers via
// OnCompletedFeature. It may return an error; a returned error or a panic
// inside the callback is caught, logged, and never prevents later
// callbacks from running.
type OnCompletedCallback func(state any) error

type onCompletedEntry struct {
	cb    OnCompletedCallback
	state any
}

// OnCompletedFeature is the capability middleware attaches to via the
// connection's feature bag (FeatureKeyOnCompleted) to register
// (callback, state) pairs that fire exactly once, after the middleware
// chain returns, in reverse registration order.
type OnCompletedFeature struct {
	mu      sync.Mutex
	entries []onCompletedEntry
	ran     bool
}

// NewOnCompletedFeature returns an empty feature ready to accept
// registrations during middleware execution.
func NewOnCompletedFeature() *OnCompletedFeature {
	return &OnCompletedFeature{}
}

// OnCompleted registers cb to run with state once the connection's
// middleware chain has returned. Safe to call from multiple middleware
// layers; safe for concurrent use.
func (f *OnCompletedFeature) OnCompleted(cb OnCompletedCallback, state any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, onCompletedEntry{cb: cb, state: state})
}

// run fires every registered callback once, in reverse registration order.
// A callback that panics or returns an error is logged with the fixed
// message the dispatcher contract prescribes; remaining callbacks still run.
func (f *OnCompletedFeature) run(log connLog) {
	f.mu.Lock()
	if f.ran {
		f.mu.Unlock()
		return
	}
	f.ran = true
	entries := f.entries
	f.entries = nil
	f.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		runOnCompletedCallback(entries[i], log)
	}
}

func runOnCompletedCallback(e onCompletedEntry, clog connLog) {
	defer func() {
		if r := recover(); r != nil {
			clog.Error().Any("panic", r).
				Msg("An error occurred running an IConnectionCompleteFeature.OnCompleted callback.")
		}
	}()
	if err := e.cb(e.state); err != nil {
		clog.Error().Err(err).
			Msg("An error occurred running an IConnectionCompleteFeature.OnCompleted callback.")
	}
}
