package keys

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagingKeyPairJSON(t *testing.T) {
	pair, err := GenerateMessagingKeys()
	require.NoError(t, err)

	data, err := json.Marshal(pair)
	require.NoError(t, err)

	var decoded MessagingKeyPair
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, pair, decoded)
}

func TestUnmarshalTextRejectsWrongLength(t *testing.T) {
	var k PublicKey
	err := k.UnmarshalText([]byte(base58.Encode([]byte("too short"))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyLength))

	var n Nonce
	err = n.UnmarshalText([]byte(base58.Encode(make([]byte, KeySize))))
	assert.True(t, errors.Is(err, ErrKeyLength))
}

func TestParsePublicKey(t *testing.T) {
	pair, err := GenerateMessagingKeys()
	require.NoError(t, err)

	parsed, err := ParsePublicKey(pair.Public.String())
	require.NoError(t, err)
	assert.Equal(t, pair.Public, parsed)

	_, err = ParsePublicKey("0OIl")
	assert.Error(t, err)
}

func TestEncryptionContext(t *testing.T) {
	pair, err := GenerateMessagingKeys()
	require.NoError(t, err)
	nonce, err := NewNonce()
	require.NoError(t, err)

	enc := WithKeyPair(pair.Public, pair.Secret, nonce)
	require.True(t, enc.Enabled())

	plain := []byte("service directory listing")
	sealed := enc.Seal(plain)
	assert.NotEqual(t, plain, sealed)

	opened, err := enc.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)

	other, err := GenerateMessagingKeys()
	require.NoError(t, err)
	_, err = WithKeyPair(other.Public, other.Secret, nonce).Open(sealed)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestNoEncryptionPassesThrough(t *testing.T) {
	assert.False(t, NoEncryption.Enabled())

	data := []byte("plain")
	assert.Equal(t, data, NoEncryption.Seal(data))

	out, err := NoEncryption.Open(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
