package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/store"
)

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be a 32-bit integer", raw)
	}
	return int32(id), nil
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <id>",
		Short: "Create or update an instrument",
		Long: `Create or update an instrument. When the id already exists only the
fields given as flags change; the id itself is never rewritten.

Example:
  fixedrec put 1 --security-id 42 --cusip 912828U40 --enabled --min-size 1000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			snap, err := s.Lookup(id)
			if errors.Is(err, store.ErrKeyNotFound) {
				snap = instrument.Snapshot{ID: id}
			} else if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("security-id") {
				snap.SecurityID, _ = flags.GetInt32("security-id")
			}
			if flags.Changed("cusip") {
				snap.Cusip, _ = flags.GetString("cusip")
			}
			if flags.Changed("enabled") {
				snap.Enabled, _ = flags.GetBool("enabled")
			}
			if flags.Changed("min-size") {
				snap.MinSize, _ = flags.GetInt32("min-size")
			}

			created, err := s.Put(snap)
			if err != nil {
				return fmt.Errorf("failed to put instrument %d: %w", id, err)
			}
			if created {
				cmd.Printf("Created instrument %d\n", id)
			} else {
				cmd.Printf("Updated instrument %d\n", id)
			}
			return nil
		},
	}

	cmd.Flags().Int32("security-id", 0, "Security identifier")
	cmd.Flags().String("cusip", "", "CUSIP, at most 9 ASCII characters")
	cmd.Flags().Bool("enabled", false, "Whether the instrument is enabled")
	cmd.Flags().Int32("min-size", 0, "Minimum order size")
	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an instrument",
		Long: `Show an instrument by id.

Example:
  fixedrec get 1 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			snap, err := s.Lookup(id)
			if err != nil {
				return fmt.Errorf("failed to get instrument %d: %w", id, err)
			}
			return outputInstrument(cmd, snap)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an instrument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			if err := s.Delete(id); err != nil {
				return fmt.Errorf("failed to delete instrument %d: %w", id, err)
			}
			cmd.Printf("Deleted instrument %d\n", id)
			return nil
		},
	}
}
