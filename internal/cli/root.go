// Package cli implements the analisadol command line: the HTTP server and
// an offline report over two workbooks.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
)

// NewRootCommand builds the command tree. Flags are bound to a fresh viper
// instance, so ANALISADOL_* environment variables work for them too.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "analisadol",
		Short: "Claims reconciliation and date-of-loss analysis",
		Long: `analisadol reconciles the claims register (klaim) with the outstanding
claims register (os), derives the claim age and cause of loss category of
every claim, and summarizes the result.

Run "analisadol serve" for the HTTP API and dashboard events, or
"analisadol report" for a one-off report from two workbooks.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().String("config", "", "YAML config file (default: $ANALISADOL_CONFIG or ./config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "log format: json or text")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newServeCommand(v), newReportCommand(v), newVersionCommand())
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	load := config.Load
	if path := v.GetString("config"); path != "" {
		load = func() (*config.Config, error) { return config.LoadFrom(path) }
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		cfg.Logging.Format = v.GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
