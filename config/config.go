package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ewintr.nl/ytscript/fetch"
	"ewintr.nl/ytscript/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "ytscript.yaml"
	configPathEnv     = "YTSCRIPT_CONFIG"
	apiKeyEnv         = "YOUTUBE_API_KEY"
	languagesEnv      = "YTSCRIPT_LANGUAGES"
	logLevelEnv       = "YTSCRIPT_LOG_LEVEL"
	maxPagesEnv       = "YTSCRIPT_MAX_PAGES"
	outputDirEnv      = "YTSCRIPT_OUTPUT_DIR"
)

var (
	ErrMissingAPIKey = errors.New("config: YOUTUBE_API_KEY is not set")
	ErrInvalid       = errors.New("config: invalid configuration")
)

// Config holds the settings shared by the three stages.
type Config struct {
	APIKey    string   `yaml:"apiKey"`
	Languages []string `yaml:"languages"`
	LogLevel  string   `yaml:"logLevel"`
	MaxPages  int      `yaml:"maxPages"`
	OutputDir string   `yaml:"outputDir"`
}

func Default() Config {
	return Config{
		Languages: append([]string{}, fetch.DefaultLanguages...),
		LogLevel:  "info",
		MaxPages:  fetch.DefaultMaxPages,
		OutputDir: ".",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. A .env file in the working directory is read
// into the environment first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path := getParam(configPathEnv, "")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fmt.Errorf("config: cannot parse %s: %w", path, err)
	}
	c.merge(fileCfg)

	return nil
}

func (c *Config) merge(other Config) {
	if other.APIKey != "" {
		c.APIKey = other.APIKey
	}
	if len(other.Languages) > 0 {
		c.Languages = other.Languages
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxPages != 0 {
		c.MaxPages = other.MaxPages
	}
	if other.OutputDir != "" {
		c.OutputDir = other.OutputDir
	}
}

func (c *Config) applyEnvOverrides() error {
	c.APIKey = getParam(apiKeyEnv, c.APIKey)
	c.LogLevel = getParam(logLevelEnv, c.LogLevel)
	c.OutputDir = getParam(outputDirEnv, c.OutputDir)

	if v := getParam(languagesEnv, ""); v != "" {
		c.Languages = splitList(v)
	}
	if v := getParam(maxPagesEnv, ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, maxPagesEnv, err)
		}
		c.MaxPages = n
	}

	return nil
}

func (c Config) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("%w: no transcript languages", ErrInvalid)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("%w: max pages must be positive, got %d", ErrInvalid, c.MaxPages)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.LogLevel)
	}

	return nil
}

// RequireAPIKey is checked only by the stage that talks to the Data API.
func (c Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func getParam(param, def string) string {
	if val, ok := os.LookupEnv(param); ok && val != "" {
		return val
	}
	return def
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
