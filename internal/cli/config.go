package cli

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".taxjar.yaml"

// Config is the CLI configuration. Values are layered defaults, then
// .taxjar.yaml, then environment variables, then flags.
type Config struct {
	APIKey     string        `yaml:"api_key"`
	APIURL     string        `yaml:"api_url"`
	Sandbox    bool          `yaml:"sandbox"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Debug      bool          `yaml:"debug"`
	Cache      CacheConfig   `yaml:"cache"`
}

// CacheConfig configures the shared Redis quote cache. Caching is off
// unless RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	Prefix    string        `yaml:"prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Cache: CacheConfig{
			Prefix: "taxjar:cache:",
			TTL:    10 * time.Minute,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// means .taxjar.yaml in the working directory, which may be absent.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// ApplyEnv overlays TAXJAR_* environment variables. Empty values are
// ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get("TAXJAR_API_KEY"); ok {
		c.APIKey = v
	}
	if v, ok := get("TAXJAR_API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := get("TAXJAR_API_VERSION"); ok {
		c.APIVersion = v
	}
	if v, ok := get("TAXJAR_REDIS_ADDR"); ok {
		c.Cache.RedisAddr = v
	}
	if v, ok := get("TAXJAR_SANDBOX"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "parsing TAXJAR_SANDBOX")
		}
		c.Sandbox = b
	}
	if v, ok := get("TAXJAR_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, "parsing TAXJAR_TIMEOUT")
		}
		c.Timeout = d
	}
	return nil
}

// Validate reports settings the tax command cannot run with.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("no API key: set TAXJAR_API_KEY, api_key in " + defaultConfigFile + " or --api-key")
	}
	if c.MaxRetries < 0 {
		return errors.Errorf("max_retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		return errors.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	return nil
}
