package identity

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id")

	id, err := LoadOrCreateID(path)
	require.NoError(t, err)
	assert.Len(t, id, 64)

	again, err := LoadOrCreateID(path)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestLoadOrCreateKeys(t *testing.T) {
	fs := memfs.New()

	keys, err := LoadOrCreateKeys(fs, "registrant/identity.json")
	require.NoError(t, err)
	require.Len(t, keys.Owners(), 1)

	again, err := LoadOrCreateKeys(fs, "registrant/identity.json")
	require.NoError(t, err)
	assert.Equal(t, keys.Public, again.Public)
	assert.Equal(t, keys.Private, again.Private)
}

func TestLoadKeysRejectsBadSeed(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "identity.json", []byte(`{"seed":"AAAA"}`), 0600))

	_, err := LoadOrCreateKeys(fs, "identity.json")
	assert.ErrorIs(t, err, ErrInvalidKeys)
}
