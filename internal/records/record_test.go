package records

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"namereg/internal/keys"
)

func newSigner(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestIdentifierIsSHA512Multihash(t *testing.T) {
	id, err := Identifier("example.com")
	require.NoError(t, err)

	decoded, err := multihash.Decode(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(multihash.SHA2_512), decoded.Code)
	assert.Len(t, decoded.Digest, 64)
}

func TestAddressDependsOnTagAndName(t *testing.T) {
	a, err := NameAddress(5, "example.com")
	require.NoError(t, err)
	b, err := NameAddress(5, "example.com")
	require.NoError(t, err)
	c, err := NameAddress(6, "example.com")
	require.NoError(t, err)
	d, err := NameAddress(5, "example.org")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestAddressDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		tag := rapid.Uint64().Draw(t, "tag")
		a, err := NameAddress(tag, name)
		if err != nil {
			t.Fatal(err)
		}
		b, err := NameAddress(tag, name)
		if err != nil {
			t.Fatal(err)
		}
		if a != b {
			t.Fatalf("address of %q changed: %s != %s", name, a, b)
		}
	})
}

func TestNewSignsAndSeals(t *testing.T) {
	pub, priv := newSigner(t)
	pair, err := keys.GenerateMessagingKeys()
	require.NoError(t, err)
	nonce, err := keys.NewNonce()
	require.NoError(t, err)
	enc := keys.WithKeyPair(pair.Public, pair.Secret, nonce)

	rec, err := New(5, "addr", 0, []byte("hello"), []ed25519.PublicKey{pub}, nil, priv, enc)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("hello"), rec.Payload)
	assert.True(t, rec.SignedBy([]ed25519.PublicKey{pub}))

	payload, err := rec.Open(enc)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload)

	rec.Version = 1
	assert.False(t, rec.SignedBy([]ed25519.PublicKey{pub}), "signature must cover the version")
}

func TestNewRejectsBadInput(t *testing.T) {
	pub, priv := newSigner(t)

	_, err := New(5, "addr", 0, []byte("x"), nil, nil, priv, keys.NoEncryption)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = New(5, "addr", 0, []byte("x"), []ed25519.PublicKey{pub}, nil, priv[:10], keys.NoEncryption)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestSuccessorCarriesOwners(t *testing.T) {
	pub, priv := newSigner(t)
	prevOwner, _ := newSigner(t)

	first, err := New(5, "addr", 3, []byte("a"), []ed25519.PublicKey{pub}, []ed25519.PublicKey{prevOwner}, priv, keys.NoEncryption)
	require.NoError(t, err)

	next, err := Successor(first, []byte("b"), priv, keys.NoEncryption)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), next.Version)
	assert.Equal(t, first.Owners, next.Owners)
	assert.Equal(t, first.PreviousOwners, next.PreviousOwners)
	assert.Equal(t, first.Tag, next.Tag)
	assert.Equal(t, first.Address, next.Address)
}

func TestChecks(t *testing.T) {
	owner, ownerKey := newSigner(t)
	_, strangerKey := newSigner(t)
	owners := []ed25519.PublicKey{owner}

	live, err := New(5, "addr", 0, []byte("a"), owners, nil, ownerKey, keys.NoEncryption)
	require.NoError(t, err)
	tombstone, err := Successor(live, nil, ownerKey, keys.NoEncryption)
	require.NoError(t, err)

	mustNew := func(tag, version uint64, payload []byte, signer ed25519.PrivateKey) Record {
		rec, err := New(tag, "addr", version, payload, owners, nil, signer, keys.NoEncryption)
		require.NoError(t, err)
		return rec
	}

	tests := []struct {
		name    string
		check   func(*Record, Record) error
		current *Record
		rec     Record
		want    error
	}{
		{"create fresh", CheckCreate, nil, mustNew(5, 0, []byte("a"), ownerKey), nil},
		{"create over tombstone", CheckCreate, &tombstone, mustNew(5, 0, []byte("a"), ownerKey), nil},
		{"create over live", CheckCreate, &live, mustNew(5, 0, []byte("a"), ownerKey), ErrRecordExists},
		{"create empty", CheckCreate, nil, mustNew(5, 0, nil, ownerKey), ErrInvalidRecord},
		{"create non-zero version", CheckCreate, nil, mustNew(5, 2, []byte("a"), ownerKey), ErrConflict},
		{"create not self-signed", CheckCreate, nil, mustNew(5, 0, []byte("a"), strangerKey), ErrUnauthorized},
		{"update", CheckUpdate, &live, mustNew(5, 1, []byte("b"), ownerKey), nil},
		{"update missing", CheckUpdate, nil, mustNew(5, 1, []byte("b"), ownerKey), ErrRecordNotFound},
		{"update tombstone", CheckUpdate, &tombstone, mustNew(5, 2, []byte("b"), ownerKey), ErrRecordNotFound},
		{"update stale", CheckUpdate, &live, mustNew(5, 0, []byte("b"), ownerKey), ErrConflict},
		{"update skips version", CheckUpdate, &live, mustNew(5, 2, []byte("b"), ownerKey), ErrConflict},
		{"update other tag", CheckUpdate, &live, mustNew(6, 1, []byte("b"), ownerKey), ErrTagMismatch},
		{"update by stranger", CheckUpdate, &live, mustNew(5, 1, []byte("b"), strangerKey), ErrUnauthorized},
		{"update to empty", CheckUpdate, &live, mustNew(5, 1, nil, ownerKey), ErrInvalidRecord},
		{"delete", CheckDelete, &live, mustNew(5, 1, nil, ownerKey), nil},
		{"delete with payload", CheckDelete, &live, mustNew(5, 1, []byte("b"), ownerKey), ErrInvalidRecord},
		{"delete missing", CheckDelete, nil, mustNew(5, 1, nil, ownerKey), ErrRecordNotFound},
		{"delete stale", CheckDelete, &live, mustNew(5, 0, nil, ownerKey), ErrConflict},
		{"missing address", CheckCreate, nil, Record{Owners: owners, Payload: []byte("a")}, ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.current, tt.rec)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
