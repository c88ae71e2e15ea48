package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zorak1103/logsieve/internal/debuginfo"
	"github.com/zorak1103/logsieve/internal/pattern"
)

var debugInfoCmd = &cobra.Command{
	Use:   "debug-info",
	Short: "Print debug information for bug reports",
	Long: `Print a markdown document with the version, the platform, the effective settings,
the stored patterns and sources and the environment. Passwords, tokens and
notification URLs are hidden.

Paste the output into a bug report. Use --github when the target renders single
line breaks, as GitHub issues do.`,
	Example: `  # Print to the terminal
  logsieve debug-info

  # Write a file for a GitHub issue
  logsieve debug-info --github --output debug.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		github, err := cmd.Flags().GetBool("github")
		if err != nil {
			return fmt.Errorf("failed to get github flag: %w", err)
		}
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("failed to get output flag: %w", err)
		}

		cfg := GetConfig()
		var extra []debuginfo.Setting
		if cfg != nil && cfg.ConfigFilePath != "" {
			extra = storedSettings(cmd.Context())
		}

		doc := debuginfo.Render(debuginfo.Collect(cfg, extra...), github)

		if output == "" {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), doc)
			return nil
		}
		if err := os.WriteFile(output, []byte(doc), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Debug information written to %s\n", output)
		return nil
	},
}

// storedSettings describes the database and session contents. Failures are
// reported as setting values so the document is always complete.
func storedSettings(ctx context.Context) []debuginfo.Setting {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return []debuginfo.Setting{{Key: "database", Value: err.Error(), Type: "error"}}
	}
	defer a.Close()

	var settings []debuginfo.Setting
	add := func(key, value, typ string) {
		settings = append(settings, debuginfo.Setting{Key: key, Value: value, Type: typ})
	}
	fail := func(key string, err error) {
		logger.Debug("debug info incomplete", zap.String("key", key), zap.Error(err))
		add(key, err.Error(), "error")
	}

	if v, err := a.db.Version(ctx); err != nil {
		fail("database.version", err)
	} else {
		add("database.version", strconv.Itoa(v), "int")
	}

	for _, kind := range pattern.Kinds {
		key := "patterns." + string(kind)
		list, err := a.patternList(ctx, kind)
		if err != nil {
			fail(key, err)
			continue
		}
		lines := make([]string, len(list))
		for i, p := range list {
			prefix := "+ "
			if !p.Enabled {
				prefix = "- "
			}
			lines[i] = prefix + p.Text
		}
		add(key, strings.Join(lines, "\n"), fmt.Sprintf("%d pattern(s)", len(list)))
	}

	if sources, err := a.sources.FetchAll(ctx); err != nil {
		fail("sources", err)
	} else {
		lines := make([]string, len(sources))
		for i, s := range sources {
			lines[i] = s.String()
		}
		add("sources", strings.Join(lines, "\n"), fmt.Sprintf("%d source(s)", len(sources)))
	}

	if s, err := a.sources.Active(ctx); err == nil {
		add("sources.active", s.Name, "string")
	}

	if st, err := a.loadState(); err != nil {
		fail("session.files", err)
	} else {
		files := st.Files()
		add("session.files", strings.Join(files, "\n"), fmt.Sprintf("%d file(s)", len(files)))
	}

	return settings
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(debugInfoCmd)

	debugInfoCmd.Flags().Bool("github", false, "use GitHub markdown line breaks")
	debugInfoCmd.Flags().StringP("output", "o", "", "write the document to this file")
}
