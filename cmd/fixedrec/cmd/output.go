package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/storage"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", formatTable, "Output format: table, json or yaml")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case formatTable, formatJSON, formatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// encode writes v as JSON or YAML
func encode(w io.Writer, format string, v interface{}) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputInstrument displays a single instrument
func outputInstrument(cmd *cobra.Command, snap instrument.Snapshot) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if format != formatTable {
		return encode(cmd.OutOrStdout(), format, snap)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID:\t%d\n", snap.ID)
	fmt.Fprintf(w, "Security ID:\t%d\n", snap.SecurityID)
	fmt.Fprintf(w, "CUSIP:\t%s\n", snap.Cusip)
	fmt.Fprintf(w, "Enabled:\t%t\n", snap.Enabled)
	fmt.Fprintf(w, "Min Size:\t%d\n", snap.MinSize)
	return nil
}

// outputInstruments displays multiple instruments
func outputInstruments(cmd *cobra.Command, snaps []instrument.Snapshot) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if snaps == nil {
		snaps = []instrument.Snapshot{}
	}
	if format != formatTable {
		return encode(cmd.OutOrStdout(), format, snaps)
	}

	if len(snaps) == 0 {
		cmd.Println("No instruments found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tSECURITY ID\tCUSIP\tENABLED\tMIN SIZE")
	for _, snap := range snaps {
		fmt.Fprintf(w, "%d\t%d\t%s\t%t\t%d\n", snap.ID, snap.SecurityID, snap.Cusip, snap.Enabled, snap.MinSize)
	}
	return nil
}

// outputManifests displays checkpoints
func outputManifests(cmd *cobra.Command, manifests []storage.Manifest) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if format != formatTable {
		if manifests == nil {
			manifests = []storage.Manifest{}
		}
		return encode(cmd.OutOrStdout(), format, manifests)
	}

	if len(manifests) == 0 {
		cmd.Println("No checkpoints found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tCREATED\tRECORDS")
	for _, m := range manifests {
		fmt.Fprintf(w, "%s\t%s\t%d\n", m.ID, m.Created.Format(time.RFC3339), m.Records)
	}
	return nil
}
