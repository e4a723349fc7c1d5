package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Save the live records to checkpoint storage",
		Long: `Save every live record region to the checkpoint database under the
data directory. Use the list and restore subcommands to inspect and roll back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			m, err := s.Checkpoint(cmd.Context())
			if err != nil {
				return fmt.Errorf("checkpoint failed: %w", err)
			}
			cmd.Printf("Checkpoint %s saved with %d records\n", m.ID, m.Records)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List checkpoints, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			manifests, err := s.Checkpoints()
			if err != nil {
				return err
			}
			return outputManifests(cmd, manifests)
		},
	}
	addOutputFlag(list)

	restore := &cobra.Command{
		Use:   "restore [checkpoint-id]",
		Short: "Replace the store contents with a checkpoint",
		Long: `Replace the store contents with a checkpoint and rebuild the indexes.
Without an id the latest checkpoint is restored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ksuid.Nil
			if len(args) == 1 {
				parsed, err := ksuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid checkpoint id %q: %w", args[0], err)
				}
				id = parsed
			}
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			m, err := s.Restore(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			cmd.Printf("Restored checkpoint %s with %d records\n", m.ID, m.Records)
			return nil
		},
	}

	cmd.AddCommand(list, restore)
	return cmd
}
