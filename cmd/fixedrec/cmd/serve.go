package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/fixedrec/pkg/api"
	"github.com/ssargent/fixedrec/pkg/di"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the fixedrec REST API server. The API key comes from the config
file written by 'fixedrec init' unless --api-key is given.

Examples:
  fixedrec serve
  fixedrec serve --port 9000 --bind 0.0.0.0
  fixedrec serve --api-key=mysecretkey --data-dir ./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd)
			if err != nil {
				return err
			}
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			cfg := e.cfg
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("bind") {
				cfg.Bind, _ = flags.GetString("bind")
			}
			if flags.Changed("api-key") {
				cfg.Security.APIKey, _ = flags.GetString("api-key")
			}
			if cfg.Security.APIKey == "" {
				return fmt.Errorf("an API key is required: run 'fixedrec init' or pass --api-key")
			}

			if container == nil {
				container = di.NewContainer()
			}
			starter := container.GetServerFactory().CreateServerStarter()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmd.Printf("Starting fixedrec server on %s:%d\n", cfg.Bind, cfg.Port)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			return starter.StartServer(ctx, s, api.ServerConfig{
				Bind:   cfg.Bind,
				Port:   cfg.Port,
				APIKey: cfg.Security.APIKey,
			}, e.logger)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	cmd.Flags().String("api-key", "", "API key for client authentication")
	return cmd
}
