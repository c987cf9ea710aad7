package browser_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/internal/browser"
	"namereg/internal/directory"
	"namereg/internal/keys"
	"namereg/internal/locator"
	"namereg/internal/nameconfig"
	"namereg/internal/records"
	"namereg/internal/registry"
	"namereg/internal/storage"
)

func TestOpenHomePage(t *testing.T) {
	ctx := context.Background()
	_, signer, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	recordStore := records.NewMemoryRecords("")
	reg, err := registry.New(nameconfig.NewStore(memfs.New()), recordStore)
	require.NoError(t, err)

	dirs := directory.NewStore(storage.NewMemoryStorage())
	b := dirs.NewBuilder(directory.HomeDirName("blog"))
	require.NoError(t, b.AddFile(ctx, browser.HomePage, strings.NewReader("welcome to the blog")))
	require.NoError(t, b.AddFile(ctx, "post.html", strings.NewReader("first post")))
	blogDir, err := b.Save(ctx)
	require.NoError(t, err)

	wwwDir, err := dirs.NewBuilder(directory.HomeDirName("www")).Save(ctx)
	require.NoError(t, err)

	pair, err := keys.GenerateMessagingKeys()
	require.NoError(t, err)
	rec, err := reg.Register(ctx, registry.Registration{
		Name:      "example.com",
		Messaging: pair,
		Services:  map[string]directory.Location{"blog": blogDir, "www": wwwDir},
	}, signer, keys.NoEncryption)
	require.NoError(t, err)
	require.NoError(t, recordStore.Put(ctx, rec))

	br := browser.New(reg, dirs)

	page, err := br.Open(ctx, "safe:blog.example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "welcome to the blog", string(page))

	page, err = br.Open(ctx, "safe:blog.example.com", "post.html")
	require.NoError(t, err)
	assert.Equal(t, "first post", string(page))

	_, err = br.Open(ctx, "safe:example.com", "")
	assert.ErrorIs(t, err, browser.ErrHomePageNotFound)

	_, err = br.Open(ctx, "safe:mail.example.com", "")
	assert.ErrorIs(t, err, registry.ErrServiceNotFound)

	_, err = br.Open(ctx, "safe:example", "")
	assert.ErrorIs(t, err, locator.ErrMalformedLocator)

	custom := browser.New(reg, dirs, browser.WithParser(locator.NewParser("dns", "blog")), browser.WithHomePage("post.html"))
	page, err = custom.Open(ctx, "dns:example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "first post", string(page))
}
