package kcpmux

import (
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"github.com/tjfoc/gmsm/sm4"
	"github.com/xtaci/kcp-go/v5"
	"golang.org/x/crypto/chacha20poly1305"
)

// blockCrypt builds the kcp.BlockCrypt for cfg.Crypt, or nil for CryptNone
// (no packet-layer crypt; a TLS handshake feature, if present, still
// secures the stream above the KCP layer).
func blockCrypt(cfg *KCPMuxCfg) (kcp.BlockCrypt, error) {
	switch cfg.Crypt {
	case CryptNone, "":
		return nil, nil
	case CryptSM4:
		key := sha256.Sum256(cfg.Key)
		return kcp.NewSM4BlockCrypt(key[:sm4.BlockSize])
	case CryptChaCha20Poly1305:
		key := sha256.Sum256(cfg.Key)
		return newChaCha20Poly1305BlockCrypt(key[:])
	default:
		return nil, fmt.Errorf("kcpmux: unknown crypt %q", cfg.Crypt)
	}
}

// chachaBlockCrypt adapts an AEAD cipher to kcp.BlockCrypt's fixed
// Encrypt(dst, src)/Decrypt(dst, src) shape. The nonce is derived once from
// the key rather than randomized per packet, the same tradeoff kcp-go's own
// built-in block ciphers make: KCP's sequence numbers and checksums, not
// the packet cipher, are what defend against replay within a session.
type chachaBlockCrypt struct {
	aead  cipher.AEAD
	nonce []byte
}

func newChaCha20Poly1305BlockCrypt(key []byte) (kcp.BlockCrypt, error) {
	aead, err := chacha20poly1305.New(key[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, err
	}
	nonce := sha256.Sum256(append([]byte("kcpmux-nonce"), key...))
	return &chachaBlockCrypt{aead: aead, nonce: nonce[:chacha20poly1305.NonceSize]}, nil
}

// Encrypt seals src into dst, growing dst by the AEAD's tag overhead.
func (c *chachaBlockCrypt) Encrypt(dst, src []byte) {
	c.aead.Seal(dst[:0], c.nonce, src, nil)
}

// Decrypt opens src into dst; on failure it zeroes dst so a corrupt packet
// never surfaces as valid plaintext.
func (c *chachaBlockCrypt) Decrypt(dst, src []byte) {
	if _, err := c.aead.Open(dst[:0], c.nonce, src, nil); err != nil {
		for i := range dst {
			dst[i] = 0
		}
	}
}
