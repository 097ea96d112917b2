package cmd_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	cmd "github.com/rohmanhakim/offcache/internal/cli"
	"github.com/rohmanhakim/offcache/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_FromFlags(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()
	cmd.SetSiteOriginForTest("https://studio.example.com")
	cmd.SetCacheVersionForTest("v5")
	cmd.SetPrecachePathsForTest([]string{"/", "/css/site.css"})
	cmd.SetListenAddrForTest(":9000")

	cfg, err := cmd.InitConfigWithError()

	require.NoError(t, err)
	assert.Equal(t, "v5", cfg.Version())
	origin := cfg.SiteOrigin()
	assert.Equal(t, "https://studio.example.com", origin.String())
	assert.Len(t, cfg.PrecachePaths(), 2)
	assert.Equal(t, ":9000", cfg.ListenAddr())
}

func TestInitConfig_MissingOrigin(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()
	cmd.SetCacheVersionForTest("v5")
	cmd.SetPrecachePathsForTest([]string{"/"})

	_, err := cmd.InitConfigWithError()

	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestInitConfig_FromManifest(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "cache-manifest.yaml")
	content := `version: "2024-07-rose-quartz"
shell: /index.html
offline: /offline.html
assets:
  - /
  - /css/site.css
  - /js/app.js
`
	require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0o644))

	cmd.SetSiteOriginForTest("https://studio.example.com")
	cmd.SetManifestForTest(manifestPath)

	cfg, err := cmd.InitConfigWithError()

	require.NoError(t, err)
	assert.Equal(t, "2024-07-rose-quartz", cfg.Version())
	assert.Equal(t, "static-2024-07-rose-quartz", cfg.StaticStoreName())
	// Manifest assets plus shell and offline pages.
	assert.GreaterOrEqual(t, len(cfg.PrecachePaths()), 3)
}

func TestInitConfig_FromConfigFile(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	content := `{
		"version": "v9",
		"siteOrigin": "https://studio.example.com",
		"precachePaths": ["/"]
	}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	cmd.SetConfigFileForTest(cfgPath)

	cfg, err := cmd.InitConfigWithError()

	require.NoError(t, err)
	assert.Equal(t, "v9", cfg.Version())
}

func TestInitConfig_BrokenManifest(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "cache-manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(":\nnot yaml at all ["), 0o644))

	cmd.SetSiteOriginForTest("https://studio.example.com")
	cmd.SetManifestForTest(manifestPath)

	_, err := cmd.InitConfigWithError()

	require.Error(t, err)
}
