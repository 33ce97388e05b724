package event

import "time"

// Default topics provided by the framework.
const (
	// ReloadConfig update process configuration
	ReloadConfig = "ReloadConfig"
)

// Subscriber receives whatever value a topic is published with.
type Subscriber func(param any)

// Topic subscription list for a single topic.
type Topic struct {
	timeout     time.Duration // Stored at creation; Publish does not apply it.
	subscribers []Subscriber  // Subscription queue.
}
