package transport

import "sync"

// FeatureKey identifies a capability stored in a FeatureBag. Capabilities are
// looked up by identifier rather than by inheritance, matching the "tagged
// capability variants" model: TLS options, the on-completed feature, and
// keep-alive hints all live in the same bag keyed by distinct FeatureKeys.
type FeatureKey string

// Well-known feature keys published by the core and consumed by middleware.
const (
	FeatureKeyOnCompleted  FeatureKey = "OnCompleted"
	FeatureKeyTLS          FeatureKey = "TLSConnection"
	FeatureKeyTLSHandshake FeatureKey = "TLSHandshakeCallback"
	FeatureKeyKeepAlive    FeatureKey = "KeepAliveHint"
)

// FeatureBag is a heterogeneous, concurrency-safe map from FeatureKey to an
// arbitrary capability value. Producers (the core, transport factories)
// publish; middleware consumes by looking values up by key.
type FeatureBag struct {
	mu       sync.RWMutex
	features map[FeatureKey]any
}

// NewFeatureBag creates an empty feature bag.
func NewFeatureBag() *FeatureBag {
	return &FeatureBag{features: make(map[FeatureKey]any)}
}

// Set publishes a capability under key, overwriting any previous value.
func (b *FeatureBag) Set(key FeatureKey, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.features[key] = value
}

// Get returns the capability registered under key, if any.
func (b *FeatureBag) Get(key FeatureKey) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.features[key]
	return v, ok
}
