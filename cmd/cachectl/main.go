// cachectl inspects and maintains persisted cache snapshot files.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/RiyadMehdi7/churnvision-cache/cache"
)

func main() {
	root := &cobra.Command{
		Use:           "cachectl",
		Short:         "Inspect and maintain churnvision cache snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(dumpCmd(), pruneCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <snapshot-file>",
		Short: "Print every record in a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter := cache.NewFileAdapter(args[0])
			records, err := adapter.Load(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tPRIORITY\tACCESSES\tEXPIRES\tSTATE")
			for _, r := range records {
				state := "live"
				if !r.ExpiresAt.After(now) {
					state = "expired"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					r.Key, r.Priority, r.AccessCount, r.ExpiresAt.Format(time.RFC3339), state)
			}
			return w.Flush()
		},
	}
}

func pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <snapshot-file>",
		Short: "Drop expired records from a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter := cache.NewFileAdapter(args[0])
			records, err := adapter.Load(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now()
			live := make([]cache.Record, 0, len(records))
			for _, r := range records {
				if r.ExpiresAt.After(now) {
					live = append(live, r)
				}
			}
			if err := adapter.Save(cmd.Context(), live); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d of %d records\n", len(records)-len(live), len(records))
			return nil
		},
	}
}
