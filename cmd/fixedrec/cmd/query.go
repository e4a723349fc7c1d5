package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/query"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instruments in slot order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			var snaps []instrument.Snapshot
			err = s.Scan(func(v instrument.View) bool {
				snaps = append(snaps, v.Snapshot())
				return limit <= 0 || len(snaps) < limit
			})
			if err != nil {
				return err
			}
			return outputInstruments(cmd, snaps)
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum number of instruments to show")
	addOutputFlag(cmd)
	return cmd
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <field> <op> <value>",
		Short: "Query instruments by an indexed field",
		Long: `Query instruments through the secondary indexes.

Fields: id, securityId, cusip, enabled
Operators: = > < >= <= and ^= (cusip prefix)

Examples:
  fixedrec query securityId ">=" 100
  fixedrec query cusip "^=" 9128
  fixedrec query enabled = true`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.ParseFieldQuery(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			snaps, err := s.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			return outputInstruments(cmd, snaps)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storeFrom(cmd)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), formatJSON, s.Stats())
		},
	}
}
