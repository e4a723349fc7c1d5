package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ssargent/fixedrec/pkg/config"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage fixedrec as a systemd service",
	}

	unit := &cobra.Command{
		Use:   "unit",
		Short: "Print a systemd unit that serves the configured store",
		Long: `Print a systemd unit file that runs 'fixedrec serve' with the current
config file. Redirect it to /etc/systemd/system/fixedrec.service to install.

Example:
  fixedrec service unit --user fixedrec > /etc/systemd/system/fixedrec.service`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd)
			if err != nil {
				return err
			}
			user, _ := cmd.Flags().GetString("user")
			binary, _ := cmd.Flags().GetString("binary")

			configPath, err := filepath.Abs(e.configPath)
			if err != nil {
				return err
			}
			cfg := *e.cfg
			if cfg.DataDir, err = filepath.Abs(cfg.DataDir); err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), systemdUnit(&cfg, configPath, user, binary))
			return err
		},
	}
	unit.Flags().String("user", "fixedrec", "User and group the service runs as")
	unit.Flags().String("binary", "/usr/local/bin/fixedrec", "Path of the fixedrec binary")

	cmd.AddCommand(unit)
	return cmd
}

// systemdUnit renders a unit file for serving cfg
func systemdUnit(cfg *config.Config, configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=fixedrec instrument store
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadOnlyPaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, cfg.DataDir, filepath.Dir(configPath))
}
