package nameconfig

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"namereg/internal/keys"
)

const (
	saltSize    = 16
	nonceSize   = 24
	keySize     = 32
	argonTime   = 1
	argonMemory = 64 * 1024
	argonLanes  = 4
)

var errShortCiphertext = errors.New("encrypted configuration is truncated")

func deriveKey(passphrase, salt []byte) *[keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonLanes, keySize))
	return &key
}

// seal returns salt || nonce || secretbox(data).
func seal(passphrase, data []byte) ([]byte, error) {
	var salt [saltSize]byte
	var nonce [nonceSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(data)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, data, &nonce, deriveKey(passphrase, salt[:])), nil
}

func open(passphrase, data []byte) ([]byte, error) {
	if len(data) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errShortCiphertext
	}
	salt := data[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], data[saltSize:saltSize+nonceSize])

	out, ok := secretbox.Open(nil, data[saltSize+nonceSize:], &nonce, deriveKey(passphrase, salt))
	if !ok {
		return nil, keys.ErrDecryption
	}
	return out, nil
}
