package records

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/minio/sha256-simd"
	"github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"

	"namereg/internal/keys"
)

// Identifier hashes a human-readable name into the identifier its record is stored under.
func Identifier(name string) ([]byte, error) {
	mh, err := multihash.Sum([]byte(name), multihash.SHA2_512, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to hash name: %w", err)
	}
	return mh, nil
}

// Address combines a type tag and an identifier into a 32-byte hex address.
func Address(tag uint64, identifier []byte) string {
	var tagBytes [8]byte
	binary.BigEndian.PutUint64(tagBytes[:], tag)

	h := sha256.New()
	h.Write(identifier)
	h.Write(tagBytes[:])
	return hex.EncodeToString(h.Sum(nil))
}

// NameAddress is Address(tag, Identifier(name)).
func NameAddress(tag uint64, name string) (string, error) {
	id, err := Identifier(name)
	if err != nil {
		return "", err
	}
	return Address(tag, id), nil
}

// New builds and signs a record. A non-empty payload is sealed with enc first.
func New(tag uint64, address string, version uint64, payload []byte, owners, previousOwners []ed25519.PublicKey, signer ed25519.PrivateKey, enc keys.EncryptionContext) (Record, error) {
	if len(signer) != ed25519.PrivateKeySize {
		return Record{}, fmt.Errorf("%w: signing key has %d bytes", ErrInvalidRecord, len(signer))
	}
	if len(owners) == 0 {
		return Record{}, fmt.Errorf("%w: no owners", ErrInvalidRecord)
	}

	rec := Record{
		Tag:            tag,
		Address:        address,
		Version:        version,
		Owners:         cloneKeys(owners),
		PreviousOwners: cloneKeys(previousOwners),
	}
	if len(payload) > 0 {
		rec.Payload = enc.Seal(payload)
	}
	rec.Signature = ed25519.Sign(signer, signingBytes(rec))
	return rec, nil
}

// Successor builds the next version of prev, carrying owners and previous owners forward.
func Successor(prev Record, payload []byte, signer ed25519.PrivateKey, enc keys.EncryptionContext) (Record, error) {
	return New(prev.Tag, prev.Address, prev.Version+1, payload, prev.Owners, prev.PreviousOwners, signer, enc)
}

// Open returns the record payload, decrypted with enc.
func (r Record) Open(enc keys.EncryptionContext) ([]byte, error) {
	if r.Deleted() {
		return nil, nil
	}
	return enc.Open(r.Payload)
}

// SignedBy reports whether the record carries a valid signature from one of owners.
func (r Record) SignedBy(owners []ed25519.PublicKey) bool {
	msg := signingBytes(r)
	for _, owner := range owners {
		if len(owner) == ed25519.PublicKeySize && ed25519.Verify(owner, msg, r.Signature) {
			return true
		}
	}
	return false
}

// signingBytes is the canonical encoding covered by the signature: every field
// except the signature, each length-prefixed with a uvarint.
func signingBytes(r Record) []byte {
	var buf bytes.Buffer
	buf.Write(varint.ToUvarint(r.Tag))
	writeField(&buf, []byte(r.Address))
	buf.Write(varint.ToUvarint(r.Version))
	writeField(&buf, r.Payload)
	buf.Write(varint.ToUvarint(uint64(len(r.Owners))))
	for _, k := range r.Owners {
		writeField(&buf, k)
	}
	buf.Write(varint.ToUvarint(uint64(len(r.PreviousOwners))))
	for _, k := range r.PreviousOwners {
		writeField(&buf, k)
	}
	return buf.Bytes()
}

func writeField(buf *bytes.Buffer, b []byte) {
	buf.Write(varint.ToUvarint(uint64(len(b))))
	buf.Write(b)
}

func cloneKeys(in []ed25519.PublicKey) []ed25519.PublicKey {
	if len(in) == 0 {
		return nil
	}
	out := make([]ed25519.PublicKey, len(in))
	for i, k := range in {
		out[i] = append(ed25519.PublicKey(nil), k...)
	}
	return out
}

func cloneRecord(r Record) Record {
	r.Payload = append([]byte(nil), r.Payload...)
	r.Signature = append([]byte(nil), r.Signature...)
	r.Owners = cloneKeys(r.Owners)
	r.PreviousOwners = cloneKeys(r.PreviousOwners)
	return r
}
