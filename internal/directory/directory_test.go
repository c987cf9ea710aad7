package directory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/internal/directory"
	"namereg/internal/storage"
)

func TestBuildAndRead(t *testing.T) {
	ctx := context.Background()
	store := directory.NewStore(storage.NewMemoryStorage())

	b := store.NewBuilder(directory.HomeDirName("www"))
	require.NoError(t, b.AddFile(ctx, "index.html", strings.NewReader("<h1>hi</h1>")))
	require.NoError(t, b.AddFile(ctx, "about.html", strings.NewReader("about")))

	loc, err := b.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, directory.UnversionedTag, loc.Tag)
	assert.True(t, loc.Public)

	listing, err := store.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "www_home_dir", listing.Name)
	assert.Equal(t, []string{"about.html", "index.html"}, listing.Names())

	data, err := store.ReadFile(ctx, loc, "index.html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", string(data))

	_, err = store.ReadFile(ctx, loc, "missing.html")
	assert.ErrorIs(t, err, directory.ErrFileNotFound)
}

func TestGetRejectsOtherTags(t *testing.T) {
	store := directory.NewStore(storage.NewMemoryStorage())
	_, err := store.Get(context.Background(), directory.Location{Address: "abc", Tag: 7})
	assert.ErrorIs(t, err, directory.ErrUnexpectedTag)
}

func TestGetMissingListing(t *testing.T) {
	store := directory.NewStore(storage.NewMemoryStorage())
	_, err := store.Get(context.Background(), directory.Location{Address: "abc", Tag: directory.UnversionedTag})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddDir(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "site/index.html", []byte("home"), 0644))
	require.NoError(t, util.WriteFile(fs, "site/style.css", []byte("body{}"), 0644))
	require.NoError(t, util.WriteFile(fs, "site/nested/skip.txt", []byte("x"), 0644))

	store := directory.NewStore(storage.NewMemoryStorage())
	b := store.NewBuilder("www_home_dir")
	require.NoError(t, b.AddDir(ctx, fs, "site"))
	loc, err := b.Save(ctx)
	require.NoError(t, err)

	listing, err := store.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "style.css"}, listing.Names())

	data, err := store.ReadFile(ctx, loc, "style.css")
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
}
