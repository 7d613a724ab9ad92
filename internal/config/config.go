package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".issuedata.yaml"

// Config holds the settings of one run. It is built once by Load and
// passed by value; nothing reads configuration from anywhere else.
type Config struct {
	DataVersion   string `yaml:"data_version"   mapstructure:"data_version"`
	DataPath      string `yaml:"data_path"      mapstructure:"data_path"`
	DataFormat    string `yaml:"data_format"    mapstructure:"data_format"`
	Sort          string `yaml:"sort"           mapstructure:"sort"`
	ExcludeLabels string `yaml:"exclude_labels" mapstructure:"exclude_labels"`
	HideLabels    string `yaml:"hide_labels"    mapstructure:"hide_labels"`
	GitHubToken   string `yaml:"github_token"   mapstructure:"github_token"`
	Repository    string `yaml:"repository"     mapstructure:"repository"`
	GitHubAPIURL  string `yaml:"github_api_url" mapstructure:"github_api_url"`
	IconProbe     bool   `yaml:"icon_probe"     mapstructure:"icon_probe"`
	IconTimeout   string `yaml:"icon_timeout"   mapstructure:"icon_timeout"`
	LogLevel      string `yaml:"log_level"      mapstructure:"log_level"`
}

// defaults mirror the GitHub Action inputs.
var defaults = map[string]any{
	"data_version":   "v2",
	"data_path":      "/v2/data.json",
	"data_format":    "",
	"sort":           "created-desc",
	"exclude_labels": "审核中, 无法访问",
	"hide_labels":    "",
	"icon_probe":     true,
	"icon_timeout":   "5s",
	"log_level":      "info",
}

// envBindings maps config keys to environment variables, highest
// precedence first. INPUT_* is how GitHub Actions passes action inputs.
var envBindings = map[string][]string{
	"data_version":   {"INPUT_DATA_VERSION"},
	"data_path":      {"INPUT_DATA_PATH"},
	"data_format":    {"INPUT_DATA_FORMAT"},
	"sort":           {"INPUT_SORT"},
	"exclude_labels": {"INPUT_EXCLUDE_LABELS"},
	"hide_labels":    {"INPUT_HIDE_LABELS"},
	"github_token":   {"INPUT_GITHUB_TOKEN", "GITHUB_TOKEN"},
	"repository":     {"INPUT_REPOSITORY", "GITHUB_REPOSITORY"},
	"github_api_url": {"INPUT_GITHUB_API_URL", "GITHUB_API_URL"},
	"icon_probe":     {"INPUT_ICON_PROBE"},
	"icon_timeout":   {"INPUT_ICON_TIMEOUT"},
	"log_level":      {"INPUT_LOG_LEVEL"},
}

// DefaultPath returns the default config file path (./.issuedata.yaml).
func DefaultPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return DefaultFile
	}
	return filepath.Join(cwd, DefaultFile)
}

// Load reads config from the YAML file, then applies env var and flag
// overrides. configPath may be empty to use the default path; flags may be
// nil. A flag overrides its key only when set on the command line; flag
// names are the keys with '_' replaced by '-'.
func Load(configPath string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if configPath == "" {
		configPath = DefaultPath()
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if flags != nil {
		for key := range envBindings {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag for %s: %w", key, err)
				}
			}
		}
	}

	// Read the config file (ignore "not found" errors so env vars still work)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required fields are present and well-formed.
func (c Config) Validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("GitHub token is required (set in config file or GITHUB_TOKEN env var)")
	}
	if _, _, err := c.RepoParts(); err != nil {
		return err
	}
	if c.DataPath == "" {
		return fmt.Errorf("data path is required")
	}
	switch strings.ToLower(c.DataFormat) {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("unsupported data format %q (use json or yaml)", c.DataFormat)
	}
	if _, err := c.IconTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// RepoParts splits Repository ("owner/name") into its two parts.
func (c Config) RepoParts() (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(c.Repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be owner/name (set in config file or GITHUB_REPOSITORY env var), got %q", c.Repository)
	}
	return parts[0], parts[1], nil
}

// IconTimeoutDuration parses IconTimeout. An empty value means 5s.
func (c Config) IconTimeoutDuration() (time.Duration, error) {
	if c.IconTimeout == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(c.IconTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid icon timeout %q: %w", c.IconTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("icon timeout must be positive, got %s", d)
	}
	return d, nil
}

// OutputPath resolves DataPath under dir. A leading '/' does not make the
// path absolute: the document always lands inside dir.
func (c Config) OutputPath(dir string) string {
	return filepath.Join(dir, c.DataPath)
}

// Save writes the config to the given path (or default path if empty).
func Save(cfg Config, configPath string) error {
	if configPath == "" {
		configPath = DefaultPath()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
