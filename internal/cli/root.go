package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	envFile    string
	apiKey     string
	apiURL     string
	apiVersion string
	sandbox    bool
	redisAddr  string
	timeout    time.Duration
	maxRetries int
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "taxjar",
		Short:         "Calculate sales tax with the TaxJar API",
		Long:          "taxjar sends an order to the TaxJar /v2/taxes endpoint and prints the tax to collect with its jurisdiction breakdown.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default .taxjar.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment")
	flags.StringVar(&opts.apiKey, "api-key", "", "API token (env TAXJAR_API_KEY)")
	flags.StringVar(&opts.apiURL, "api-url", "", "API base URL including /v2 (env TAXJAR_API_URL)")
	flags.StringVar(&opts.apiVersion, "api-version", "", "value of the x-api-version header")
	flags.BoolVar(&opts.sandbox, "sandbox", false, "use the sandbox API")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "cache quotes in Redis at this address (env TAXJAR_REDIS_ADDR)")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	flags.IntVar(&opts.maxRetries, "retries", 0, "retries after a network error, 429 or 5xx")
	flags.BoolVar(&opts.debug, "debug", false, "log requests to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newTaxCmd(opts))
	return cmd
}

// resolve builds the effective configuration for cmd.
func (o *rootOptions) resolve(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			if !os.IsNotExist(err) || flags.Changed("env-file") {
				return Config{}, errors.Wrapf(err, "loading %s", o.envFile)
			}
		}
	}

	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if flags.Changed("api-key") {
		cfg.APIKey = o.apiKey
	}
	if flags.Changed("api-url") {
		cfg.APIURL = o.apiURL
	}
	if flags.Changed("api-version") {
		cfg.APIVersion = o.apiVersion
	}
	if flags.Changed("sandbox") {
		cfg.Sandbox = o.sandbox
	}
	if flags.Changed("redis-addr") {
		cfg.Cache.RedisAddr = o.redisAddr
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("retries") {
		cfg.MaxRetries = o.maxRetries
	}
	if flags.Changed("debug") {
		cfg.Debug = o.debug
	}

	return cfg, cfg.Validate()
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the CLI and prints any error to stderr.
func Execute() error {
	cmd := newRootCmd()
	err := cmd.Execute()
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), RenderError(err))
	}
	return err
}
