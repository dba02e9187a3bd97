package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwise/internal/harness"
	"github.com/roach88/stepwise/internal/lifecycle"
	"github.com/roach88/stepwise/internal/steps"
	"github.com/roach88/stepwise/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database string
}

// Recorded is the output of the record command.
type Recorded struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Steps  int      `json:"steps"`
	Errors []string `json:"errors,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <scenario.yaml>",
		Short: "Record a scenario's test case into a database",
		Long: `Execute the ops of a scenario with the configured vocabulary, TMS
settings and JSON options, and store the resulting test case.

Unlike run, record uses random IDs and the wall clock, and does not
evaluate assertions.

Example:
  stepwise record --db ./stepwise.db ./testdata/scenarios/replace_top_level.yaml
  stepwise record --config ./stepwise.yaml ./scenario.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func recordScenario(opts *RecordOptions, path string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := opts.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out, err := opts.formatter(cmd, cfg)
	if err != nil {
		return err
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	stepperOpts, err := cfg.StepperOptions(logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid step configuration", err)
	}
	if scenario.Vocabulary != "" {
		vocab, err := steps.VocabularyByName(scenario.Vocabulary)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid scenario vocabulary", err)
		}
		stepperOpts = append(stepperOpts, steps.WithVocabulary(vocab))
	}
	if scenario.TMSPattern != "" {
		stepperOpts = append(stepperOpts, steps.WithTMS(steps.TMS{Prefix: cfg.TMS.Prefix, Pattern: scenario.TMSPattern}))
	}

	dbPath := database(opts.Database, cfg)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lc := lifecycle.New(lifecycle.WithWriter(st), lifecycle.WithLogger(logger))
	stepper := steps.New(lc, stepperOpts...)

	logger.Info("recording scenario", "scenario", scenario.Name, "db", dbPath)
	id, result, err := harness.Record(ctx, scenario, lc, stepper, logger)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to record scenario", err)
	}

	tc, err := st.ReadTestCase(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read recorded test case", err)
	}

	rec := Recorded{
		ID:     tc.ID,
		Name:   tc.Name,
		Status: string(tc.Status),
		Steps:  len(tc.Steps),
		Errors: result.Errors,
	}
	if opts.Format == "json" {
		if err := out.Success(rec); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %s %q [%s] with %d top-level steps\n", rec.ID, rec.Name, rec.Status, rec.Steps)
		for _, e := range rec.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", e)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expected error(s) did not occur", len(result.Errors)))
	}
	return nil
}
