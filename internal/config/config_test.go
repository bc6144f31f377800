package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndLoadGlobal(t *testing.T) {
	dir := t.TempDir()
	cfg := Load(dir, "")
	require.NoError(t, cfg.Set("provider", "gcs", false))
	require.NoError(t, cfg.Set("requests_per_second", "2.5", false))

	reloaded := Load(dir, "")
	assert.Equal(t, "gcs", reloaded.GetString("provider", "gdrive"))
	assert.Equal(t, 2.5, reloaded.GetFloat("requests_per_second", 10))
	assert.Equal(t, "gdrive", reloaded.GetString("missing", "gdrive"))
	assert.Equal(t, 10.0, reloaded.GetFloat("missing", 10))
}

func TestUnsetRemovesKey(t *testing.T) {
	dir := t.TempDir()
	cfg := Load(dir, "")
	require.NoError(t, cfg.Set("bucket", "b", false))
	require.NoError(t, cfg.Set("bucket", nil, false))
	assert.Nil(t, Load(dir, "").Get("bucket"))
}

func TestLocalConfigFoundFromSubdirectory(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, dirName), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(project, dirName, localFile),
		[]byte(`{"active_folder_id":"local-folder"}`), 0644))
	sub := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	global := t.TempDir()
	cfg := Load(global, "")
	require.NoError(t, cfg.Set("active_folder_id", "global-folder", false))

	cfg = Load(global, sub)
	assert.Equal(t, "local-folder", cfg.GetString("active_folder_id", ""))
}

func TestGetList(t *testing.T) {
	cfg := Load(t.TempDir(), "")
	cfg.GlobalConfig["ignore"] = " .DS_Store, ,Thumbs.db,"
	assert.Equal(t, []string{".DS_Store", "Thumbs.db"}, cfg.GetList("ignore"))
	assert.Empty(t, cfg.GetList("nothing"))
}

func TestGetBool(t *testing.T) {
	cfg := Load(t.TempDir(), "")
	cfg.GlobalConfig["a"] = "true"
	cfg.GlobalConfig["b"] = true
	cfg.GlobalConfig["c"] = "nope"
	assert.True(t, cfg.GetBool("a"))
	assert.True(t, cfg.GetBool("b"))
	assert.False(t, cfg.GetBool("c"))
	assert.False(t, cfg.GetBool("d"))
}

func TestTokens(t *testing.T) {
	cfg := Load(t.TempDir(), "")

	_, err := cfg.ReadToken("gdrive")
	assert.True(t, errors.Is(err, ErrNotSet))

	require.NoError(t, cfg.WriteToken("gdrive", []byte(`{"access_token":"a"}`)))
	require.NoError(t, cfg.WriteToken("gcs", []byte(`{"access_token":"b"}`)))
	// the client secrets file shares the directory but is not a token
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir(), tokensDir, credentialsFile), []byte("{}"), 0600))

	data, err := cfg.ReadToken("gdrive")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"a"}`, string(data))

	info, err := os.Stat(cfg.TokenPath("gdrive"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	providers := []string{"gdrive", "gcs"}
	assert.Equal(t, []string{"gcs", "gdrive"}, cfg.GetProvidersWithTokens(providers))
	require.NoError(t, cfg.ClearTokens(providers))
	assert.Empty(t, cfg.GetProvidersWithTokens(providers))
	assert.FileExists(t, cfg.CredentialsFile())
}

func TestTokensKeepDownloadedClientSecrets(t *testing.T) {
	cfg := Load(t.TempDir(), "")
	require.NoError(t, cfg.WriteToken("gdrive", []byte(`{"access_token":"a"}`)))

	secrets := filepath.Join(cfg.Dir(), tokensDir, "client_secret_123.apps.googleusercontent.com.json")
	require.NoError(t, os.WriteFile(secrets, []byte("{}"), 0600))
	cfg.GlobalConfig["credentials_file"] = secrets

	providers := []string{"gdrive", "gcs"}
	assert.Equal(t, []string{"gdrive"}, cfg.GetProvidersWithTokens(providers))
	require.NoError(t, cfg.ClearTokens(providers))
	assert.FileExists(t, secrets)
	assert.NoFileExists(t, cfg.TokenPath("gdrive"))
}

func TestTokensNeverRemoveClientSecrets(t *testing.T) {
	cfg := Load(t.TempDir(), "")
	require.NoError(t, cfg.WriteToken("gdrive", []byte("{}")))
	cfg.GlobalConfig["credentials_file"] = cfg.TokenPath("gdrive")

	require.NoError(t, cfg.ClearTokens([]string{"gdrive"}))
	assert.FileExists(t, cfg.TokenPath("gdrive"))
}

func TestActiveFolder(t *testing.T) {
	dir := t.TempDir()
	cfg := Load(dir, "")

	id, name := cfg.ActiveFolder("gdrive")
	assert.Equal(t, "", id)
	assert.Equal(t, "root", name)

	require.NoError(t, cfg.SetActiveFolder("gdrive", "abc", "Photos"))
	reloaded := Load(dir, "")
	id, name = reloaded.ActiveFolder("gdrive")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "Photos", name)

	id, name = reloaded.ActiveFolder("s3")
	assert.Equal(t, "", id)
	assert.Equal(t, "root", name)

	require.NoError(t, reloaded.ClearActiveFolder())
	id, _ = Load(dir, "").ActiveFolder("gdrive")
	assert.Equal(t, "", id)
}

func TestActiveFolderWithoutOwner(t *testing.T) {
	cfg := Load(t.TempDir(), "")
	cfg.GlobalConfig["active_folder_id"] = "abc"
	id, name := cfg.ActiveFolder("s3")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", name)
}
