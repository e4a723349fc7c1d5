package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/fixedrec/pkg/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with a generated API key",
		Long: `Create a configuration file with a freshly generated API key and the
default store settings.

Examples:
  fixedrec init
  fixedrec init --config ./fixedrec.yaml --data-dir ./data --print-key`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			printKey, _ := cmd.Flags().GetBool("print-key")

			if config.ConfigExists(e.configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to replace it.\n", e.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(e.configPath, e.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to bootstrap config: %w", err)
			}
			cfg.Store = e.cfg.Store
			if err := config.SaveConfig(cfg, e.configPath); err != nil {
				return err
			}

			cmd.Printf("Configuration created at %s\n", e.configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			if printKey {
				cmd.Printf("API Key: %s\n", cfg.Security.APIKey)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Replace an existing configuration")
	cmd.Flags().Bool("print-key", false, "Print the generated API key")
	return cmd
}
