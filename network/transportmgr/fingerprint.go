package transportmgr

import (
	"fmt"

	"github.com/linchenxuan/connhost/network/transport"
	"github.com/linchenxuan/connhost/runtime"
)

// defaultFingerprint derives a fingerprint for opts when the caller never
// called SetFingerprint, so StopEndpoints and reload diffing still have a
// stable key to partition on. It folds in this process's entity identity and
// build version alongside the endpoint's display form, the same fields
// sidecar-style transports stamp onto outbound traffic to identify their
// origin, so two binds of the same endpoint on two different server
// instances never collide.
func defaultFingerprint(opts *transport.ListenOptions) string {
	fp := fmt.Sprintf("%s|entity=%s(%08x)|area=%d|set=%d|func=%d|inst=%d|ver=%d|setver=%d",
		opts.DisplayForm(),
		runtime.GetEntityIDStr(),
		runtime.GetEntityID(),
		runtime.GetAreaID(),
		runtime.GetSetID(),
		runtime.GetFuncID(),
		runtime.GetInsID(),
		runtime.GetSvrVersion(),
		runtime.GetSetVersion(),
	)
	if feid := runtime.GetFrontendEntityID(); feid != 0 {
		fp += "|frontend=" + runtime.GetStringByEntityID(feid)
	}
	return fp
}

// ensureFingerprint assigns opts a default fingerprint in place if it
// doesn't already have one. Called once per Bind/BindMultiplexed, before
// ExpandWildcard, so both halves of a wildcard bind inherit the same
// fingerprint via Clone rather than deriving two different ones from their
// distinct concrete IPs.
func ensureFingerprint(opts *transport.ListenOptions) {
	if opts.Fingerprint() == "" {
		opts.SetFingerprint(defaultFingerprint(opts))
	}
}
