package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	taxjar "github.com/recheej/taxjar-go"
	"github.com/recheej/taxjar-go/transport"
)

func newTaxCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tax <order-file>",
		Short: "Calculate sales tax for an order",
		Long: `Calculate sales tax for the order described in a YAML or JSON file ("-" reads stdin).
Keys follow the API, for example:

  from_country: US
  from_zip: "07001"
  to_country: US
  to_zip: "07446"
  amount: 16.50
  shipping: 1.50
  line_items:
    - quantity: 1
      unit_price: 15.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output format %q", output)
			}

			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			params, err := ReadOrderFile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			logger, syncLogs := newLogger(cfg.Debug)
			defer syncLogs()

			client, closeClient, err := newClient(cfg, logger)
			if err != nil {
				return err
			}
			defer closeClient()

			tax, err := client.TaxForOrder(cmd.Context(), params)
			if err != nil {
				return err
			}

			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]*taxjar.Tax{"tax": tax})
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTax(tax))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func newLogger(debug bool) (transport.Logger, func()) {
	if !debug {
		return transport.NewNopLogger(), func() {}
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return transport.NewNopLogger(), func() {}
	}
	return transport.NewZapLogger(l), func() { _ = l.Sync() }
}

// newClient builds a taxjar client from cfg. The returned func releases
// the Redis connection, if any.
func newClient(cfg Config, logger transport.Logger) (*taxjar.Client, func(), error) {
	options := []taxjar.Option{
		taxjar.WithLogger(logger),
		taxjar.WithTimeout(cfg.Timeout),
	}
	switch {
	case cfg.APIURL != "":
		options = append(options, taxjar.WithAPIURL(cfg.APIURL))
	case cfg.Sandbox:
		options = append(options, taxjar.WithSandbox())
	}
	if cfg.APIVersion != "" {
		options = append(options, taxjar.WithAPIVersion(cfg.APIVersion))
	}

	transportOptions := []transport.Option{transport.WithMaxRetries(cfg.MaxRetries)}
	if cfg.MaxRetries > 0 {
		transportOptions = append(transportOptions, transport.WithBackoffStrategy(transport.DecorrelatedJitter))
	}

	closeFn := func() {}
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		closeFn = func() { _ = rdb.Close() }
		transportOptions = append(transportOptions,
			transport.WithCustomCache(transport.NewRedisCache(rdb, cfg.Cache.Prefix, logger), cfg.Cache.TTL),
			transport.WithCacheCondition(transport.MethodCacheCondition(http.MethodPost)),
		)
	}
	options = append(options, taxjar.WithTransportOptions(transportOptions...))

	client := taxjar.New(cfg.APIKey, options...)
	if err := client.ValidationError(); err != nil {
		closeFn()
		return nil, nil, err
	}
	return client, closeFn, nil
}

func asTaxjarError(err error) (*taxjar.Error, bool) {
	var tjErr *taxjar.Error
	ok := errors.As(err, &tjErr)
	return tjErr, ok
}
