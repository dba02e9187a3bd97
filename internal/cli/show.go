package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwise/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <test-case-id>",
		Short: "Print a stored step tree",
		Long: `Print the step tree of a stored test case.

Text output is an indented outline with statuses, parameters and
attachments; JSON output is the full tree.

Examples:
  stepwise show --db ./stepwise.db 6f1c0a7e9b2d4c1e8a3f5d7b9c1e3a5f
  stepwise show --db ./stepwise.db --format json <id>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
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

	tc, err := st.ReadTestCase(context.Background(), id)
	if errors.Is(err, store.ErrNotFound) {
		if opts.Format == "json" {
			_ = out.Error("E_NOT_FOUND", err.Error(), map[string]string{"id": id})
		}
		return WrapExitError(ExitFailure, "test case "+id, err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read test case", err)
	}

	if opts.Format == "json" {
		return out.Success(tc)
	}
	return tc.WriteOutline(cmd.OutOrStdout())
}

// openExisting opens a database file that must already exist, so a typo in
// --db does not silently create an empty store.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
