package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load consults for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, envs := range envBindings {
		for _, name := range envs {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "v2", cfg.DataVersion)
	assert.Equal(t, "/v2/data.json", cfg.DataPath)
	assert.Equal(t, "created-desc", cfg.Sort)
	assert.Equal(t, "审核中, 无法访问", cfg.ExcludeLabels)
	assert.Equal(t, "", cfg.HideLabels)
	assert.True(t, cfg.IconProbe)
	assert.Equal(t, "5s", cfg.IconTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_version: v3
sort: version
hide_labels: pinned
repository: file/repo
icon_probe: false
`), 0600))

	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("GITHUB_REPOSITORY", "env/repo")
	t.Setenv("INPUT_SORT", "updated-asc")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("data-path", "", "")
	flags.String("data-version", "", "")
	require.NoError(t, flags.Parse([]string{"--data-path", "out/data.json"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "v3", cfg.DataVersion, "unset flag does not override the file")
	assert.Equal(t, "out/data.json", cfg.DataPath, "flag wins")
	assert.Equal(t, "updated-asc", cfg.Sort, "env beats file")
	assert.Equal(t, "env/repo", cfg.Repository)
	assert.Equal(t, "env-token", cfg.GitHubToken)
	assert.Equal(t, "pinned", cfg.HideLabels)
	assert.False(t, cfg.IconProbe)
}

func TestLoad_InputTokenPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_GITHUB_TOKEN", "input-token")
	t.Setenv("GITHUB_TOKEN", "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "input-token", cfg.GitHubToken)
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sort: [unterminated"), 0600))

	_, err := Load(path, nil)
	assert.ErrorContains(t, err, "reading config")
}

func TestValidate(t *testing.T) {
	valid := Config{GitHubToken: "t", Repository: "owner/name", DataPath: "/v2/data.json", IconTimeout: "5s"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing token", func(c *Config) { c.GitHubToken = "" }, "token is required"},
		{"missing repository", func(c *Config) { c.Repository = "" }, "owner/name"},
		{"bad repository", func(c *Config) { c.Repository = "owner/" }, "owner/name"},
		{"missing path", func(c *Config) { c.DataPath = "" }, "data path"},
		{"bad format", func(c *Config) { c.DataFormat = "xml" }, "unsupported data format"},
		{"bad timeout", func(c *Config) { c.IconTimeout = "soon" }, "invalid icon timeout"},
		{"negative timeout", func(c *Config) { c.IconTimeout = "-1s" }, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestRepoParts(t *testing.T) {
	owner, name, err := Config{Repository: " octo/blogroll "}.RepoParts()
	require.NoError(t, err)
	assert.Equal(t, "octo", owner)
	assert.Equal(t, "blogroll", name)
}

func TestIconTimeoutDuration(t *testing.T) {
	d, err := Config{}.IconTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = Config{IconTimeout: "250ms"}.IconTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/work", "v2", "data.json"), Config{DataPath: "/v2/data.json"}.OutputPath("/work"))
	assert.Equal(t, filepath.Join("/work", "out.json"), Config{DataPath: "out.json"}.OutputPath("/work"))
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Config{
		DataVersion: "v9",
		DataPath:    "data.json",
		Sort:        "posts-desc",
		GitHubToken: "secret",
		Repository:  "owner/name",
		IconProbe:   true,
		IconTimeout: "2s",
		LogLevel:    "debug",
	}

	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
