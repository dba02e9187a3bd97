package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwise/internal/htmldiff"
	"github.com/roach88/stepwise/internal/steps"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Output          string
	Label           string
	CompareExpected bool
}

// DiffOutput is the JSON payload of the diff command.
type DiffOutput struct {
	Output string `json:"output,omitempty"`
	Bytes  int    `json:"bytes"`
	HTML   string `json:"html,omitempty"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <expected.json> <actual.json>",
		Short: "Render an HTML diff of two JSON documents",
		Long: `Pretty-print two JSON documents and render the actual one as an HTML
page with every mismatching run of lines highlighted.

A file containing just null renders as {null}. By default the expected
side is rendered from the actual value; --compare-expected uses the
expected file.

Examples:
  stepwise diff expected.json actual.json > diff.html
  stepwise diff expected.json actual.json -o diff.html --compare-expected`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the HTML document to this file")
	cmd.Flags().StringVar(&opts.Label, "label", "", "attachment label (default from config or vocabulary)")
	cmd.Flags().BoolVar(&opts.CompareExpected, "compare-expected", false, "compare against the expected file")

	return cmd
}

func runDiff(opts *DiffOptions, expectedPath, actualPath string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	out, err := opts.formatter(cmd, cfg)
	if err != nil {
		return err
	}
	codec, err := cfg.Codec()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure json", err)
	}

	expected, err := codec.ReadFile(expectedPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read expected", err)
	}
	actual, err := codec.ReadFile(actualPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read actual", err)
	}

	label, err := diffLabel(opts.Label, cfg.Diff.Label, cfg.Vocabulary)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid vocabulary", err)
	}
	renderer := htmldiff.New(codec,
		htmldiff.WithLabel(label),
		htmldiff.WithCompareExpected(opts.CompareExpected || cfg.Diff.CompareExpected),
	)
	out.VerboseLog("rendering %s against %s as %q", actualPath, expectedPath, renderer.Label())

	doc, err := renderer.Render(expected, actual)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render diff", err)
	}

	if opts.Output == "" {
		if opts.Format == "json" {
			return out.Success(DiffOutput{Bytes: len(doc), HTML: doc})
		}
		_, err := io.WriteString(cmd.OutOrStdout(), doc)
		return err
	}

	if err := os.WriteFile(opts.Output, []byte(doc), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if opts.Format == "json" {
		return out.Success(DiffOutput{Output: opts.Output, Bytes: len(doc)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", opts.Output, len(doc))
	return nil
}

// diffLabel picks the flag, then the configured label, then the
// vocabulary's default.
func diffLabel(flag, configured, vocabulary string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if configured != "" {
		return configured, nil
	}
	vocab, err := steps.VocabularyByName(vocabulary)
	if err != nil {
		return "", err
	}
	return vocab.DiffLabel, nil
}
