package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
}

// ListEntry is one stored test case in list output.
type ListEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Steps  int    `json:"steps"`
	Start  string `json:"start,omitempty"`
	Stop   string `json:"stop,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored test cases",
		Long: `List the test cases stored in a database, oldest first.

Example:
  stepwise list --db ./stepwise.db
  stepwise list --db ./stepwise.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	out, err := opts.formatter(cmd, cfg)
	if err != nil {
		return err
	}

	st, err := openExisting(database(opts.Database, cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.ListTestCases(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list test cases", err)
	}

	entries := make([]ListEntry, len(summaries))
	for i, s := range summaries {
		entries[i] = ListEntry{
			ID:     s.ID,
			Name:   s.Name,
			Status: string(s.Status),
			Stage:  string(s.Stage),
			Steps:  s.Steps,
		}
		if !s.Start.IsZero() {
			entries[i].Start = out.codec().FormatTimestamp(s.Start)
		}
		if !s.Stop.IsZero() {
			entries[i].Stop = out.codec().FormatTimestamp(s.Stop)
		}
	}

	if opts.Format == "json" {
		return out.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No test cases stored.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTEPS\tSTART\tNAME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s/%s\t%d\t%s\t%s\n", e.ID, e.Status, e.Stage, e.Steps, e.Start, e.Name)
	}
	return tw.Flush()
}
