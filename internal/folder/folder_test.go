package folder

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cshum/drive-sync/internal/config"
	"github.com/cshum/drive-sync/providerapi"
	"github.com/cshum/drive-sync/providerapi/providertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestList(t *testing.T) {
	mem := providertest.New()
	docs := mem.AddFolder(providerapi.RootID, "docs")
	file := mem.AddFile(providerapi.RootID, "a.txt", "a")

	out := &bytes.Buffer{}
	require.NoError(t, List(context.Background(), mem, providerapi.RootID, out))
	assert.Equal(t, "  1. docs (Folder, ID: "+docs+")\n  2. a.txt (File, ID: "+file+")\n", out.String())

	out.Reset()
	require.NoError(t, List(context.Background(), mem, docs, out))
	assert.Equal(t, "No items found.\n", out.String())

	assert.Error(t, List(context.Background(), mem, "missing", out))
}

func TestSelectStoresActiveFolder(t *testing.T) {
	mem := providertest.New()
	mem.AddFile(providerapi.RootID, "a.txt", "a")
	mem.AddFolder(providerapi.RootID, "docs")
	photos := mem.AddFolder(providerapi.RootID, "photos")

	dir := t.TempDir()
	cfg := config.Load(dir, "")
	out := &bytes.Buffer{}
	require.NoError(t, Select(context.Background(), mem, cfg, "gdrive", providerapi.RootID, input("2\n"), out))

	assert.Contains(t, out.String(), "  1. docs (ID: ")
	assert.NotContains(t, out.String(), "a.txt")
	assert.Contains(t, out.String(), "Selected folder: photos (ID: "+photos+")")

	reloaded := config.Load(dir, "")
	id, name := reloaded.ActiveFolder("gdrive")
	assert.Equal(t, photos, id)
	assert.Equal(t, "photos", name)
	id, _ = reloaded.ActiveFolder("s3")
	assert.Empty(t, id)
}

func TestSelectInvalid(t *testing.T) {
	mem := providertest.New()
	mem.AddFolder(providerapi.RootID, "docs")
	cfg := config.Load(t.TempDir(), "")

	for _, answer := range []string{"0\n", "2\n", "x\n", ""} {
		err := Select(context.Background(), mem, cfg, "gdrive", providerapi.RootID, input(answer), &bytes.Buffer{})
		assert.EqualError(t, err, "invalid selection", answer)
	}
	assert.Nil(t, cfg.Get("active_folder_id"))
}

func TestSelectWithoutFolders(t *testing.T) {
	mem := providertest.New()
	mem.AddFile(providerapi.RootID, "a.txt", "a")
	out := &bytes.Buffer{}
	require.NoError(t, Select(context.Background(), mem, config.Load(t.TempDir(), ""), "gdrive", providerapi.RootID, input(""), out))
	assert.Equal(t, "No folders found.\n", out.String())
}

func TestRemove(t *testing.T) {
	mem := providertest.New()
	docs := mem.AddFolder(providerapi.RootID, "docs")
	cfg := config.Load(t.TempDir(), "")
	require.NoError(t, cfg.SetActiveFolder("gdrive", docs, "docs"))

	out := &bytes.Buffer{}
	require.NoError(t, Remove(context.Background(), mem, cfg, "gdrive", docs, false, input("n\n"), out))
	assert.Contains(t, out.String(), "Delete cancelled.")
	assert.Empty(t, mem.Deleted)

	out.Reset()
	require.NoError(t, Remove(context.Background(), mem, cfg, "gdrive", docs, false, input("y\n"), out))
	assert.Equal(t, []string{docs}, mem.Deleted)
	assert.Contains(t, out.String(), "Default upload folder cleared.")
	assert.Nil(t, cfg.Get("active_folder_id"))
	assert.Nil(t, cfg.Get("active_folder_name"))
	assert.Nil(t, cfg.Get("active_folder_provider"))
}

func TestRemoveKeepsActiveFolderOfOtherProvider(t *testing.T) {
	mem := providertest.New()
	docs := mem.AddFolder(providerapi.RootID, "docs")
	cfg := config.Load(t.TempDir(), "")
	require.NoError(t, cfg.SetActiveFolder("gdrive", docs, "docs"))

	out := &bytes.Buffer{}
	require.NoError(t, Remove(context.Background(), mem, cfg, "s3", docs, true, input(""), out))
	assert.NotContains(t, out.String(), "Default upload folder cleared.")
	id, _ := cfg.ActiveFolder("gdrive")
	assert.Equal(t, docs, id)
}

func TestRemoveWithoutConfirmation(t *testing.T) {
	mem := providertest.New()
	file := mem.AddFile(providerapi.RootID, "a.txt", "a")
	out := &bytes.Buffer{}
	require.NoError(t, Remove(context.Background(), mem, config.Load(t.TempDir(), ""), "gdrive", file, true, input(""), out))
	assert.Equal(t, "Deleted "+file+".\n", out.String())

	assert.Error(t, Remove(context.Background(), mem, config.Load(t.TempDir(), ""), "gdrive", file, true, input(""), out))
}
