// Package keys holds the fixed-size key material used by the registry and the
// encryption context passed to record operations.
package keys

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/nacl/box"
)

const (
	// KeySize is the size of a messaging public or secret key.
	KeySize = 32
	// NonceSize is the size of a payload encryption nonce.
	NonceSize = 24
)

// ErrKeyLength is returned when decoded key material does not have the expected size.
var ErrKeyLength = errors.New("key material has the wrong length")

// PublicKey is the public half of a messaging keypair.
type PublicKey [KeySize]byte

// SecretKey is the secret half of a messaging keypair.
type SecretKey [KeySize]byte

// Nonce is used together with a keypair to encrypt record payloads.
type Nonce [NonceSize]byte

// MessagingKeyPair is the keypair a registrant associates with a claimed name.
type MessagingKeyPair struct {
	Public PublicKey `json:"public"`
	Secret SecretKey `json:"secret"`
}

// GenerateMessagingKeys creates a new random messaging keypair.
func GenerateMessagingKeys() (MessagingKeyPair, error) {
	pub, sec, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return MessagingKeyPair{}, fmt.Errorf("failed to generate messaging keys: %w", err)
	}
	return MessagingKeyPair{Public: *pub, Secret: *sec}, nil
}

// NewNonce returns a random nonce.
func NewNonce() (Nonce, error) {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return Nonce{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return n, nil
}

func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// MarshalText encodes the key as base58.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(base58.Encode(k[:])), nil
}

// UnmarshalText decodes a base58 key.
func (k *PublicKey) UnmarshalText(text []byte) error {
	return decodeFixed(text, k[:])
}

// MarshalText encodes the key as base58.
func (k SecretKey) MarshalText() ([]byte, error) {
	return []byte(base58.Encode(k[:])), nil
}

// UnmarshalText decodes a base58 key.
func (k *SecretKey) UnmarshalText(text []byte) error {
	return decodeFixed(text, k[:])
}

// MarshalText encodes the nonce as base58.
func (n Nonce) MarshalText() ([]byte, error) {
	return []byte(base58.Encode(n[:])), nil
}

// UnmarshalText decodes a base58 nonce.
func (n *Nonce) UnmarshalText(text []byte) error {
	return decodeFixed(text, n[:])
}

// ParsePublicKey decodes a base58 public key.
func ParsePublicKey(s string) (PublicKey, error) {
	var k PublicKey
	err := k.UnmarshalText([]byte(s))
	return k, err
}

func decodeFixed(text []byte, dst []byte) error {
	data, err := base58.Decode(string(text))
	if err != nil {
		return fmt.Errorf("invalid base58 key: %w", err)
	}
	if len(data) != len(dst) {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrKeyLength, len(dst), len(data))
	}
	copy(dst, data)
	return nil
}
