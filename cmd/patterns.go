package cmd

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/loader"
	"github.com/zorak1103/logsieve/internal/pattern"
	patternstore "github.com/zorak1103/logsieve/internal/pattern/store"
)

const kindAll = "all"

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage the ignore and report patterns",
	Long: `Manage the ordered lists of ignore and report patterns stored in the database.

Ignore patterns remove the lines they match. Report patterns are counted and
grouped by 'logsieve report'. Every pattern can be disabled without removing it.
Pattern IDs are shown by 'logsieve patterns list'; positions are 1-based.`,
	Example: `  # Show all patterns
  logsieve patterns list

  # Ignore health checks
  logsieve patterns add 'GET /health HTTP'

  # Count errors grouped by their code
  logsieve patterns add --kind report 'ERROR (\w+)'

  # Ignore the exact text of line 42 of a log file
  logsieve patterns add --from-line 42 --file app.log`,
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored patterns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		kinds, err := kindsFlag(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			var entries []patternstore.Entry
			for _, kind := range kinds {
				list, err := a.patterns.List(ctx, kind)
				if err != nil {
					return err
				}
				entries = append(entries, list...)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "No patterns stored. Add one with 'logsieve patterns add'.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tKind\tPos\tEnabled\tPattern")
			_, _ = fmt.Fprintln(w, "--\t----\t---\t-------\t-------")
			for _, e := range entries {
				enabled := " "
				if e.Pattern.Enabled {
					enabled = checkmark
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", e.ID, e.Kind, e.Position+1, enabled, e.Pattern.Text)
			}
			_ = w.Flush() // Flush buffered output; error not actionable in CLI display context
			return nil
		})
	},
}

var patternsAddCmd = &cobra.Command{
	Use:   "add [pattern]",
	Short: "Append a pattern to a list",
	Long: `Append a pattern to the ignore (default) or report list.

With --from-line and --file, the pattern is built from the literal text of that
line, escaped and anchored at the line start, so exactly this kind of line is removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindFlag(cmd)
		if err != nil {
			return err
		}
		disabled, err := cmd.Flags().GetBool("disabled")
		if err != nil {
			return fmt.Errorf("failed to get disabled flag: %w", err)
		}
		fromLine, err := cmd.Flags().GetInt("from-line")
		if err != nil {
			return fmt.Errorf("failed to get from-line flag: %w", err)
		}
		file, err := cmd.Flags().GetString("file")
		if err != nil {
			return fmt.Errorf("failed to get file flag: %w", err)
		}

		var text string
		switch {
		case fromLine > 0 && len(args) == 0:
			if file == "" {
				return fmt.Errorf("--from-line needs --file")
			}
			text, err = patternFromLine(file, fromLine)
			if err != nil {
				return err
			}
		case fromLine == 0 && len(args) == 1:
			text = args[0]
		default:
			return fmt.Errorf("give either a pattern argument or --from-line with --file")
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := pattern.Validate(text, a.cfg.Engine()); err != nil {
				return err
			}
			e, err := a.patterns.Add(ctx, kind, pattern.Pattern{Text: text, Enabled: !disabled})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Added %s pattern #%d at position %d: %s\n", e.Kind, e.ID, e.Position+1, e.Pattern.Text)
			return nil
		})
	},
}

var patternsUpdateCmd = &cobra.Command{
	Use:   "update <id> <pattern>",
	Short: "Replace the text of a pattern",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := pattern.Validate(args[1], a.cfg.Engine()); err != nil {
				return err
			}
			e, err := a.patterns.Get(ctx, id)
			if err != nil {
				return err
			}
			e.Pattern.Text = args[1]
			if err := a.patterns.Update(ctx, e); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Updated %s pattern #%d: %s\n", e.Kind, e.ID, e.Pattern.Text)
			return nil
		})
	},
}

var patternsRemoveCmd = &cobra.Command{
	Use:     "remove <id>...",
	Aliases: []string{"rm"},
	Short:   "Remove patterns",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			for _, id := range ids {
				if err := a.patterns.Remove(ctx, id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed pattern #%d\n", id)
			}
			return nil
		})
	},
}

var patternsEnableCmd = &cobra.Command{
	Use:   "enable <id>...",
	Short: "Enable patterns",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPatternsEnabled(cmd, args, true)
	},
}

var patternsDisableCmd = &cobra.Command{
	Use:   "disable <id>...",
	Short: "Disable patterns without removing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPatternsEnabled(cmd, args, false)
	},
}

var patternsMoveCmd = &cobra.Command{
	Use:   "move <id> <position>",
	Short: "Move a pattern to a position in its list",
	Long: `Move a pattern to a 1-based position in its list. Ignore patterns apply in list
order, so moving one can change what later patterns see. Positions beyond the list
end move the pattern to the end.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		position, err := strconv.Atoi(args[1])
		if err != nil || position < 1 {
			return fmt.Errorf("invalid position %q: must be a number starting at 1", args[1])
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.patterns.Move(ctx, id, position-1); err != nil {
				return err
			}
			e, err := a.patterns.Get(ctx, id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Moved %s pattern #%d to position %d\n", e.Kind, e.ID, e.Position+1)
			return nil
		})
	},
}

var patternsFindCmd = &cobra.Command{
	Use:   "find <pattern> [files...]",
	Short: "Show the first line a pattern matches",
	Long: `Find compiles a pattern and shows the first place it matches in the log text.
Use it to check a pattern before adding it. The input is selected the same way as
for 'logsieve ignore'.`,
	Example: `  # Where does the first timeout show up?
  logsieve patterns find 'timeout after \d+s' app.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			m, err := pattern.Compile(args[0], a.cfg.Engine())
			if err != nil {
				return err
			}

			in, err := readInput(ctx, cmd, a, args[1:])
			if err != nil {
				return err
			}

			loc, found, err := m.FindFirst(in.Text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !found {
				_, _ = fmt.Fprintf(out, "❌ No match for %q\n", args[0])
				return nil
			}

			line := loc.Line(in.Text)
			_, _ = fmt.Fprintf(out, "🔎 First match on line %d:\n", line)
			_, _ = fmt.Fprintf(out, "   %s\n", lineAt(in.Text, loc.Start))
			_, _ = fmt.Fprintf(out, "   matched: %q\n", in.Text[loc.Start:loc.End])
			return nil
		})
	},
}

var patternsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import patterns from a pattern file",
	Long: `Import patterns from a file holding one pattern per line.

Empty lines and lines starting with "#" are skipped; a leading "!" imports the
pattern disabled. Patterns are appended unless --replace is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindFlag(cmd)
		if err != nil {
			return err
		}
		replace, err := cmd.Flags().GetBool("replace")
		if err != nil {
			return fmt.Errorf("failed to get replace flag: %w", err)
		}

		list, err := config.ReadPatternFile(args[0])
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			for i, p := range list {
				if !p.Enabled {
					continue
				}
				if err := pattern.Validate(p.Text, a.cfg.Engine()); err != nil {
					return fmt.Errorf("pattern %d of %s: %w", i+1, args[0], err)
				}
			}

			if replace {
				if err := a.patterns.Replace(ctx, kind, list); err != nil {
					return err
				}
			} else {
				for _, p := range list {
					if _, err := a.patterns.Add(ctx, kind, p); err != nil {
						return err
					}
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d %s pattern(s) from %s\n", len(list), kind, args[0])
			return nil
		})
	},
}

var patternsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export a pattern list to a pattern file",
	Long:  `Export a pattern list in the format read by 'logsieve patterns import'. Without a file the list is printed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindFlag(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			list, err := a.patternList(ctx, kind)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), config.FormatPatternFile(kind, list))
				return nil
			}
			if err := config.WritePatternFile(args[0], kind, list); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d %s pattern(s) to %s\n", len(list), kind, args[0])
			return nil
		})
	},
}

// withApp validates the configuration, opens the app for the duration of fn and closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg := GetConfig()
	if err := validateConfigOrExit(cfg, cmd.Name()); err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func setPatternsEnabled(cmd *cobra.Command, args []string, enabled bool) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		for _, id := range ids {
			e, err := a.patterns.Get(ctx, id)
			if err != nil {
				return err
			}
			if enabled {
				// Disabled patterns may hold text that never compiled
				if err := pattern.Validate(e.Pattern.Text, a.cfg.Engine()); err != nil {
					return err
				}
			}
			e.Pattern.Enabled = enabled
			if err := a.patterns.Update(ctx, e); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s pattern #%d\n", checkmark, verb, e.Kind, e.ID)
		}
		return nil
	})
}

// kindFlag returns the single kind selected by --kind.
func kindFlag(cmd *cobra.Command) (pattern.Kind, error) {
	s, err := cmd.Flags().GetString("kind")
	if err != nil {
		return "", fmt.Errorf("failed to get kind flag: %w", err)
	}
	return pattern.ParseKind(s)
}

// kindsFlag returns the kinds selected by --kind, where "all" selects every kind.
func kindsFlag(cmd *cobra.Command) ([]pattern.Kind, error) {
	s, err := cmd.Flags().GetString("kind")
	if err != nil {
		return nil, fmt.Errorf("failed to get kind flag: %w", err)
	}
	if strings.EqualFold(s, kindAll) {
		return pattern.Kinds, nil
	}
	kind, err := pattern.ParseKind(s)
	if err != nil {
		return nil, err
	}
	return []pattern.Kind{kind}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid ID %q: must be a positive number", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// patternFromLine builds a pattern matching the literal text of line n (1-based) of a file.
func patternFromLine(path string, n int) (string, error) {
	f, err := loader.ReadFile(path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(f.Content, "\n")
	if n > len(lines) {
		return "", fmt.Errorf("%s has only %d line(s), cannot use line %d", path, len(lines), n)
	}
	line := strings.TrimRight(lines[n-1], "\r")
	if strings.TrimSpace(line) == "" {
		return "", fmt.Errorf("line %d of %s is empty", n, path)
	}
	return "^" + regexp.QuoteMeta(line), nil
}

// lineAt returns the full line of text containing byte offset pos.
func lineAt(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := strings.IndexByte(text[pos:], '\n')
	if end < 0 {
		return strings.TrimRight(text[start:], "\r")
	}
	return strings.TrimRight(text[start:pos+end], "\r")
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.AddCommand(patternsListCmd, patternsAddCmd, patternsUpdateCmd, patternsRemoveCmd,
		patternsEnableCmd, patternsDisableCmd, patternsMoveCmd, patternsFindCmd,
		patternsImportCmd, patternsExportCmd)

	patternsListCmd.Flags().String("kind", kindAll, "Pattern list to show: ignore, report or all")
	for _, c := range []*cobra.Command{patternsAddCmd, patternsImportCmd, patternsExportCmd} {
		c.Flags().String("kind", string(pattern.KindIgnore), "Pattern list: ignore or report")
	}

	patternsAddCmd.Flags().Bool("disabled", false, "Add the pattern disabled")
	patternsAddCmd.Flags().Int("from-line", 0, "Build the pattern from this line (1-based) of --file")
	patternsAddCmd.Flags().String("file", "", "Log file to take --from-line from")

	patternsImportCmd.Flags().Bool("replace", false, "Replace the list instead of appending to it")

	addInputFlags(patternsFindCmd)
}
