package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/pattern"
)

// ignoreConfig holds the ignore command flags
type ignoreConfig struct {
	Output string
	Stats  bool
}

var ignoreCmd = &cobra.Command{
	Use:   "ignore [files...]",
	Short: "Remove lines matched by the ignore patterns",
	Long: `Ignore removes every line matched by an enabled ignore pattern and prints the rest.

Patterns are applied in list order, each to the text left by the ones before it.
Blank lines left behind are collapsed. A pattern that does not compile is skipped
with a warning; the remaining patterns still apply.

The log text is read from, in this order:
  1. The files given as arguments ("-" reads stdin, gzip is detected)
  2. The source given with --source
  3. The session files ('logsieve files add')
  4. The active source ('logsieve sources activate')`,
	Example: `  # Clean the session files or the active source
  logsieve ignore

  # Clean specific files and write the result to a file
  logsieve ignore app.log app.log.1.gz --output clean.log

  # Read from stdin and show statistics
  cat app.log | logsieve ignore - --stats`,
	RunE: runIgnore,
}

func runIgnore(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := validateConfigOrExit(cfg, "ignore"); err != nil {
		return err
	}

	ic, err := parseIgnoreFlags(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	in, err := readInput(ctx, cmd, a, args)
	if err != nil {
		return err
	}

	res, err := removeIgnored(ctx, a, in.Text)
	if err != nil {
		return err
	}
	printPatternErrors(cmd.ErrOrStderr(), pattern.KindIgnore, res.Errors)

	text := res.Text
	if text != "" {
		text += "\n"
	}

	if ic.Output != "" {
		if err := os.WriteFile(ic.Output, []byte(text), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", ic.Output, err)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "✅ Wrote %d line(s) to %s\n", res.Stats.LinesAfter, ic.Output)
	} else {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
	}

	if ic.Stats {
		printIgnoreStats(cmd.ErrOrStderr(), res.Stats)
	}
	return nil
}

func parseIgnoreFlags(cmd *cobra.Command) (ignoreConfig, error) {
	var ic ignoreConfig
	var err error

	if ic.Output, err = cmd.Flags().GetString("output"); err != nil {
		return ic, fmt.Errorf("failed to get output flag: %w", err)
	}
	if ic.Stats, err = cmd.Flags().GetBool("stats"); err != nil {
		return ic, fmt.Errorf("failed to get stats flag: %w", err)
	}
	return ic, nil
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(ignoreCmd)

	addInputFlags(ignoreCmd)
	ignoreCmd.Flags().StringP("output", "o", "", "Write the cleaned text to this file instead of stdout")
	ignoreCmd.Flags().Bool("stats", false, "Print ignore statistics to stderr")
}
