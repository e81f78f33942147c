package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owl/internal/cache"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "owl.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, dir, cfg.Root)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, []string{"--all-targets"}, cfg.FrontendArgs())
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `
[cache]
backend = "sqlite"
dir = "target/owl"

[analysis]
jobs = 4
all_features = true

[frontend]
command = ["cargo", "owl-check", "{target}"]
`)
	nested := filepath.Join(root, "crates", "app")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, 4, cfg.Analysis.Jobs)
	assert.Equal(t, []string{"cargo", "owl-check", "{target}"}, cfg.Frontend.Command)
	assert.Equal(t, []string{"--all-targets", "--all-features"}, cfg.FrontendArgs())
	// unset keys keep their defaults
	assert.True(t, cfg.Cache.Compress)
	assert.Equal(t, 1024, cfg.Frontend.ChannelSize)

	opts, err := cfg.CacheOptions()
	require.NoError(t, err)
	assert.Equal(t, cache.BackendSQLite, opts.Backend)
	assert.Equal(t, filepath.Join(root, "target", "owl"), opts.Dir)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "syntax", body: "[cache\n"},
		{name: "unknown key", body: "[cache]\nsize = 3\n"},
		{name: "bad backend", body: "[cache]\nbackend = \"redis\"\n"},
		{name: "negative jobs", body: "[analysis]\njobs = -1\n"},
		{name: "empty command", body: "[frontend]\ncommand = []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, t.TempDir(), tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "owl.toml"))
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default("/ws")
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{EnvCache: "0", EnvCacheDir: "/tmp/owl-cache"})))
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"OWL_CACHE=false", "OWL_CACHE_DIR=/tmp/owl-cache"}, cfg.Env())

	cfg = Default("/ws")
	require.NoError(t, cfg.ApplyEnv(env(nil)))
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"OWL_CACHE=true"}, cfg.Env())

	assert.Error(t, cfg.ApplyEnv(env(map[string]string{EnvCache: "maybe"})))
}

func TestCacheOptionsDefaultDir(t *testing.T) {
	base := t.TempDir()
	userCacheDir = func() (string, error) { return base, nil }
	t.Cleanup(func() { userCacheDir = os.UserCacheDir })

	cfg := Default("/ws")
	cfg.Cache.Dir = ""
	opts, err := cfg.CacheOptions()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "owl"), opts.Dir)
	// children resolve the default themselves
	assert.Equal(t, []string{"OWL_CACHE=true"}, cfg.Env())

	cfg.Cache.Enabled = false
	opts, err = cfg.CacheOptions()
	require.NoError(t, err)
	assert.Empty(t, opts.Dir)

	userCacheDir = func() (string, error) { return "", errors.New("no home") }
	cfg.Cache.Enabled = true
	_, err = cfg.CacheOptions()
	assert.Error(t, err)
}
