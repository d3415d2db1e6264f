package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/scrapers/madi"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvPort, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	require.Equal(t, madi.DefaultUrl, cfg.Scraper.Url)
	require.Equal(t, BrowserChrome, cfg.Scraper.Browser)
	require.Equal(t, DefaultSchedule, cfg.Scraper.Schedule)
	require.True(t, *cfg.Scraper.RunOnStart)
	require.Equal(t, DefaultStoreDir, cfg.Store.Dir)
	require.Equal(t, DefaultDatabase, cfg.Database.File)
	require.Equal(t, DefaultPort, cfg.Api.Port)
	require.False(t, cfg.Smtp.Enabled())

	opts := cfg.Scraper.Options()
	require.Equal(t, madi.DefaultMaxGroups, opts.MaxGroups)
	require.Equal(t, 10*time.Second, opts.SelectTimeout)
	require.Equal(t, 2*time.Second, opts.SettleDelay)
	require.Equal(t, madi.DefaultPlaceholder, opts.Placeholder)

	classifier, err := cfg.Scraper.NewClassifier()
	require.NoError(t, err)
	require.IsType(t, madi.BalancedClassifier{}, classifier)
	require.NotNil(t, cfg.Scraper.Launcher(telemetry.NewRecorderAPI()))
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schedule.json5"), []byte(`{
		scraper: {
			browser: "http",
			classifier: "marker",
			settle_delay: "500ms",
		},
		store: { dir: "/srv/schedule" },
		api: { port: 9000 },
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schedule.local.json5"), []byte(`{
		scraper: { max_groups: 0, run_on_start: false },
	}`), 0600))

	t.Setenv(EnvConfigPath, filepath.Join(dir, "schedule.json5"))
	t.Setenv(EnvPort, "8123")

	cfg, err := Load("ignored.json5")
	require.NoError(t, err)

	require.Equal(t, BrowserHttp, cfg.Scraper.Browser)
	require.False(t, *cfg.Scraper.RunOnStart)
	require.Equal(t, "/srv/schedule", cfg.Store.Dir)
	require.Equal(t, 8123, cfg.Api.Port)

	opts := cfg.Scraper.Options()
	require.Equal(t, 0, opts.MaxGroups)
	require.Equal(t, 500*time.Millisecond, opts.SettleDelay)

	classifier, err := cfg.Scraper.NewClassifier()
	require.NoError(t, err)
	require.IsType(t, madi.MarkerClassifier{}, classifier)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(EnvPort, "")
	table := []string{
		`{scraper: {browser: "firefox"}}`,
		`{scraper: {url: "not a url"}}`,
		`{scraper: {select_timeout: "soon"}}`,
		`{scraper: {max_groups: -1}}`,
		`{smtp: {to: ["not an address"]}}`,
	}
	for _, contents := range table {
		path := filepath.Join(t.TempDir(), "config.json5")
		require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
		t.Setenv(EnvConfigPath, path)

		_, err := Load("")
		require.Error(t, err, contents)
	}
}

func TestLoadBadPort(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.json5"))
	t.Setenv(EnvPort, "eighty")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidateOverrides(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvPort, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	cfg.Scraper.Browser = "chrom"
	err = cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Browser")

	cfg.Scraper.Browser = BrowserHttp
	require.NoError(t, cfg.Validate())

	negative := -1
	cfg.Scraper.MaxGroups = &negative
	require.Error(t, cfg.Validate())
}
