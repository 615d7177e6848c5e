package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/revaldyhazza/analisadolproperty/internal/app"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the session API, the websocket event stream and /metrics until
interrupted.

Example:
  analisadol serve --port 8080
  ANALISADOL_SERVER_PORT=9000 analisadol serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if v.IsSet("host") {
				cfg.Server.Host = v.GetString("host")
			}
			if v.IsSet("port") {
				cfg.Server.Port = v.GetInt("port")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			application, err := app.NewApplication(cfg, nil)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().String("host", "", "listen host")
	cmd.Flags().Int("port", 0, "listen port")
	_ = v.BindPFlag("host", cmd.Flags().Lookup("host"))
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}
