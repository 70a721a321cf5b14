// Package adaptive seals small secrets at rest.
package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the key length accepted by both ciphers.
const KeySize = 32

// Algorithm tags prefixed to sealed values.
const (
	tagAESGCM   byte = 0x01
	tagChaCha20 byte = 0x02
)

var (
	// ErrInvalidKey is returned for keys that are not KeySize bytes.
	ErrInvalidKey = errors.New("adaptive: key must be 32 bytes")

	// ErrSealedTooShort is returned when a sealed value cannot hold a tag and nonce.
	ErrSealedTooShort = errors.New("adaptive: sealed value too short")

	// ErrUnknownAlgorithm is returned when the algorithm tag is not recognised.
	ErrUnknownAlgorithm = errors.New("adaptive: unknown algorithm tag")
)

// Cipher seals and opens values with authenticated encryption.
type Cipher struct {
	preferred CipherType
	aesgcm    cipher.AEAD
	chacha    cipher.AEAD
}

// New creates a cipher that seals with the algorithm best suited to the
// current platform and opens values sealed with either algorithm.
func New(key []byte) (*Cipher, error) {
	if hasAESNI() {
		return NewWithType(key, CipherAESGCM)
	}
	return NewWithType(key, CipherChaCha20)
}

// NewWithType creates a cipher that seals with cipherType.
func NewWithType(key []byte, cipherType CipherType) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	switch cipherType {
	case CipherAESGCM, CipherChaCha20:
	default:
		return nil, errors.New("adaptive: unknown cipher type: " + string(cipherType))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("adaptive: aes: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("adaptive: gcm: %w", err)
	}
	chacha, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("adaptive: chacha20poly1305: %w", err)
	}

	return &Cipher{
		preferred: cipherType,
		aesgcm:    gcm,
		chacha:    chacha,
	}, nil
}

// Type returns the algorithm used by Seal.
func (c *Cipher) Type() CipherType {
	return c.preferred
}

// Seal encrypts plaintext bound to additionalData.
// Layout: tag(1) | nonce | ciphertext+mac.
func (c *Cipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	tag, aead := tagAESGCM, c.aesgcm
	if c.preferred == CipherChaCha20 {
		tag, aead = tagChaCha20, c.chacha
	}

	out := make([]byte, 1+aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	out[0] = tag
	if _, err := io.ReadFull(rand.Reader, out[1:]); err != nil {
		return nil, fmt.Errorf("adaptive: nonce: %w", err)
	}

	return aead.Seal(out, out[1:], plaintext, additionalData), nil
}

// Open decrypts a value produced by Seal with the same key and additionalData.
func (c *Cipher) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < 1 {
		return nil, ErrSealedTooShort
	}

	var aead cipher.AEAD
	switch sealed[0] {
	case tagAESGCM:
		aead = c.aesgcm
	case tagChaCha20:
		aead = c.chacha
	default:
		return nil, ErrUnknownAlgorithm
	}

	body := sealed[1:]
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealedTooShort
	}

	nonce, ciphertext := body[:aead.NonceSize()], body[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, additionalData)
}

// DeriveKey stretches secret into a KeySize key using HKDF-SHA256.
// info separates keys derived from the same secret for different purposes.
func DeriveKey(secret, info string) []byte {
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	// hkdf only fails after 255*HashLen bytes.
	_, _ = io.ReadFull(r, key)
	return key
}

// hasAESNI reports whether the Go runtime uses hardware AES on this platform.
func hasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}
