// Package kcpmux implements a multiplexed transport factory over
// github.com/xtaci/kcp-go/v5: one UDP socket fans out into many
// independent, reliable KCP sessions, standing in for an H3/QUIC
// multiplexed transport. Its session setup (kcp.ListenWithOptions,
// SetNoDelay, SetWindowSize, stream mode) follows the conventions used by
// other KCP-based session managers in the ecosystem.
package kcpmux

import "errors"

// Crypt selects the payload block cipher applied at the KCP packet layer,
// independent of any TLS handshake layered on top of the resulting stream.
type Crypt string

const (
	CryptNone             Crypt = "none"
	CryptSM4              Crypt = "sm4"
	CryptChaCha20Poly1305 Crypt = "chacha20poly1305"
)

// KCPMuxCfg configures one Factory instance.
type KCPMuxCfg struct {
	Tag           string `mapstructure:"tag"`
	IdleTimeout   uint32 `mapstructure:"idleTimeout"`
	MaxBufferSize int    `mapstructure:"maxBufferSize"`

	// DataShards/ParityShards configure Reed-Solomon forward error
	// correction on the KCP listener (0/0 disables FEC).
	DataShards   int `mapstructure:"dataShards"`
	ParityShards int `mapstructure:"parityShards"`

	// Crypt selects the packet-layer block cipher; Key is the raw key
	// material it is built from (ignored when Crypt is CryptNone).
	Crypt Crypt  `mapstructure:"crypt"`
	Key   []byte `mapstructure:"key"`

	NoDelay  int `mapstructure:"noDelay"`
	Interval int `mapstructure:"interval"`
	Resend   int `mapstructure:"resend"`
	NC       int `mapstructure:"nc"`
	SndWnd   int `mapstructure:"sndWnd"`
	RcvWnd   int `mapstructure:"rcvWnd"`
	MTU      int `mapstructure:"mtu"`
}

// GetName returns the configuration key for KCPMuxCfg.
func (c *KCPMuxCfg) GetName() string { return "kcp_mux" }

// Validate checks KCPMuxCfg for the minimum viable configuration.
func (c *KCPMuxCfg) Validate() error {
	if c.MaxBufferSize < 0 {
		return errors.New("MaxBufferSize must not be negative")
	}
	switch c.Crypt {
	case CryptNone, CryptSM4, CryptChaCha20Poly1305:
	default:
		return errors.New("unknown Crypt value: " + string(c.Crypt))
	}
	if c.Crypt != CryptNone && len(c.Key) == 0 {
		return errors.New("Key is required when Crypt is not none")
	}
	return nil
}

// DefaultKCPMuxCfg returns a balanced-mode config: moderate resend,
// windowed flow control, no FEC, no packet-layer crypt (TLS, when
// configured, carries the handshake).
func DefaultKCPMuxCfg() *KCPMuxCfg {
	return &KCPMuxCfg{
		Tag:           "default",
		MaxBufferSize: 4 * 1024 * 1024,
		Crypt:         CryptNone,
		NoDelay:       0,
		Interval:      30,
		Resend:        2,
		NC:            1,
		SndWnd:        256,
		RcvWnd:        256,
		MTU:           1350,
	}
}
