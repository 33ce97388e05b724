// Package tcp implements a stream transport factory over plain TCP: one
// net.TCPListener per bound endpoint, each accepted connection wrapped
// into a transport.SocketConnection. Generalized from a length-prefixed
// framed transport to an opaque byte-stream transport.
package tcp

import "errors"

// TCPStreamCfg configures one TCPStreamFactory instance. ConnType and
// FrameMetaKey are dropped since this factory carries opaque bytes rather
// than framed packages, and SendChannelSize is dropped since
// SocketConnection's own duplex pipe already provides the send queue.
type TCPStreamCfg struct {
	Tag           string `mapstructure:"tag"`
	IdleTimeout   uint32 `mapstructure:"idleTimeout"`
	MaxBufferSize int    `mapstructure:"maxBufferSize"`
	// ReusePort requests SO_REUSEPORT on the listening socket (Linux/Darwin),
	// letting a config-reload rebind acquire the same address while the old
	// listener still drains.
	ReusePort bool `mapstructure:"reusePort"`
	// Crypt is a reserved, never-wired crypt selector field on the stream
	// path; the stream transport carries opaque bytes and leaves payload
	// obfuscation to middleware, so it stays unused here (the multiplexed
	// kcpmux factory is where Crypt actually gets wired).
	Crypt uint32 `mapstructure:"crypt"`
}

// GetName returns the configuration key for TCPStreamCfg.
func (c *TCPStreamCfg) GetName() string { return "tcp_stream" }

// Validate checks TCPStreamCfg for the minimum viable configuration.
func (c *TCPStreamCfg) Validate() error {
	if c.MaxBufferSize < 0 {
		return errors.New("MaxBufferSize must not be negative")
	}
	return nil
}

// DefaultTCPStreamCfg returns a cfg with reasonable production defaults.
func DefaultTCPStreamCfg() *TCPStreamCfg {
	return &TCPStreamCfg{
		Tag:           "default",
		IdleTimeout:   0,
		MaxBufferSize: 64 * 1024,
	}
}
