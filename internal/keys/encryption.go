package keys

import (
	"errors"

	"golang.org/x/crypto/nacl/box"
)

// ErrDecryption is returned when a payload cannot be opened with the given context.
var ErrDecryption = errors.New("failed to decrypt payload")

// EncryptionContext selects how a record payload is protected. The zero value
// is NoEncryption.
type EncryptionContext struct {
	enabled bool
	public  PublicKey
	secret  SecretKey
	nonce   Nonce
}

// NoEncryption leaves payloads in the clear.
var NoEncryption = EncryptionContext{}

// WithKeyPair encrypts payloads with box using the given keys and nonce.
func WithKeyPair(public PublicKey, secret SecretKey, nonce Nonce) EncryptionContext {
	return EncryptionContext{
		enabled: true,
		public:  public,
		secret:  secret,
		nonce:   nonce,
	}
}

// Enabled reports whether the context encrypts.
func (c EncryptionContext) Enabled() bool {
	return c.enabled
}

// Seal encrypts data. With NoEncryption it returns data unchanged.
func (c EncryptionContext) Seal(data []byte) []byte {
	if !c.enabled {
		return data
	}
	pub, sec, nonce := [KeySize]byte(c.public), [KeySize]byte(c.secret), [NonceSize]byte(c.nonce)
	return box.Seal(nil, data, &nonce, &pub, &sec)
}

// Open decrypts data sealed with the same context.
func (c EncryptionContext) Open(data []byte) ([]byte, error) {
	if !c.enabled {
		return data, nil
	}
	pub, sec, nonce := [KeySize]byte(c.public), [KeySize]byte(c.secret), [NonceSize]byte(c.nonce)
	out, ok := box.Open(nil, data, &nonce, &pub, &sec)
	if !ok {
		return nil, ErrDecryption
	}
	return out, nil
}
