package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/multierr"
)

// ErrInvalidKeys is returned when a stored identity cannot be used.
var ErrInvalidKeys = errors.New("invalid identity keys")

// Keys is the signing identity of a registrant: it owns the records it publishes.
type Keys struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

type storedKeys struct {
	Seed []byte `json:"seed"`
}

// GenerateKeys creates a new random signing identity.
func GenerateKeys() (Keys, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keys{}, err
	}
	return Keys{Public: pub, Private: priv}, nil
}

// Owners returns the public key as a single-element owner list.
func (k Keys) Owners() []ed25519.PublicKey {
	return []ed25519.PublicKey{k.Public}
}

// LoadOrCreateKeys reads the identity stored at name in fs, generating and
// storing a new one when the file does not exist.
func LoadOrCreateKeys(fs billy.Filesystem, name string) (Keys, error) {
	f, err := fs.Open(name)
	if err == nil {
		defer f.Close()
		return readKeys(f)
	}
	if !os.IsNotExist(err) {
		return Keys{}, err
	}

	keys, err := GenerateKeys()
	if err != nil {
		return Keys{}, err
	}
	if err := writeKeys(fs, name, keys); err != nil {
		return Keys{}, err
	}
	return keys, nil
}

func readKeys(r io.Reader) (Keys, error) {
	var stored storedKeys
	if err := json.NewDecoder(r).Decode(&stored); err != nil {
		return Keys{}, fmt.Errorf("%w: %v", ErrInvalidKeys, err)
	}
	if len(stored.Seed) != ed25519.SeedSize {
		return Keys{}, fmt.Errorf("%w: seed has %d bytes", ErrInvalidKeys, len(stored.Seed))
	}
	priv := ed25519.NewKeyFromSeed(stored.Seed)
	return Keys{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

func writeKeys(fs billy.Filesystem, name string, keys Keys) (err error) {
	if dir := path.Dir(name); dir != "." && dir != "/" {
		if err := fs.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	f, err := fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return json.NewEncoder(f).Encode(storedKeys{Seed: keys.Private.Seed()})
}
