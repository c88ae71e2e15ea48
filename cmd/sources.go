package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/reporting"
	"github.com/zorak1103/logsieve/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage log file sources",
	Long: `Manage the log file sources logsieve reads from.

A source is one of:
  - local:  a directory with log files
  - remote: a log server serving its files over HTTP(S) with Basic auth
  - docker: a Docker container

One source can be active. Processing commands read the active source when no
files are given and the session file list is empty.`,
	Example: `  # Add a local directory and make it active
  logsieve sources add --type local --name app --path /var/log/app --activate

  # Add a remote log server
  logsieve sources add --type remote --name prod --url https://prod.example.com --user admin --password secret

  # Add a docker container
  logsieve sources add --type docker --name web --container web-1`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List log file sources ordered by priority",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			sources, err := a.sources.FetchAll(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sources) == 0 {
				_, _ = fmt.Fprintln(out, "No sources configured. Add one with 'logsieve sources add'.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, "Active\tID\tType\tName\tLocation\tPriority")
			_, _ = fmt.Fprintln(w, "------\t--\t----\t----\t--------\t--------")
			for _, s := range sources {
				active, err := a.sources.IsActive(ctx, s)
				if err != nil {
					return err
				}
				marker := " "
				if active {
					marker = checkmark
				}
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d\n", marker, s.ID, s.Type, s.Name, location(s), s.Priority)
			}
			_ = w.Flush() // Flush buffered output; error not actionable in CLI display context
			return nil
		})
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a log file source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		typeName, err := cmd.Flags().GetString("type")
		if err != nil {
			return fmt.Errorf("failed to get type flag: %w", err)
		}
		t, err := source.ParseType(typeName)
		if err != nil {
			return err
		}

		s := source.Source{Type: t}
		if err := applySourceFlags(cmd, &s); err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.sources.Store(ctx, &s); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Added source %s\n", s)
			return activateIfRequested(ctx, cmd, a, s)
		})
	},
}

var sourcesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a log file source",
	Long:  `Change the fields of a source given as flags. Fields without a flag keep their value.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			s, err := a.sources.Fetch(ctx, id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("type") {
				typeName, _ := cmd.Flags().GetString("type") // Flag is registered on this command
				if s.Type, err = source.ParseType(typeName); err != nil {
					return err
				}
			}
			if err := applySourceFlags(cmd, &s); err != nil {
				return err
			}

			if err := a.sources.Store(ctx, &s); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Updated source %s\n", s)
			return activateIfRequested(ctx, cmd, a, s)
		})
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a log file source",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.sources.Remove(ctx, id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed source #%d\n", id)
			return nil
		})
	},
}

var sourcesActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Make a log file source the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.sources.SetActive(ctx, id); err != nil {
				return err
			}
			s, err := a.sources.Fetch(ctx, id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s Active source: %s\n", checkmark, s)
			return nil
		})
	},
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a log file source (default: the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if len(args) == 1 {
			var err error
			if id, err = parseID(args[0]); err != nil {
				return err
			}
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			s, err := a.resolveSource(ctx, id)
			if err != nil {
				return err
			}
			active, err := a.sources.IsActive(ctx, s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "📂 Source #%d: %s\n", s.ID, s.Name)
			_, _ = fmt.Fprintf(out, "   Type:        %s\n", s.Type)
			_, _ = fmt.Fprintf(out, "   Priority:    %d\n", s.Priority)
			_, _ = fmt.Fprintf(out, "   Active:      %v\n", active)

			switch s.Type {
			case source.TypeLocal:
				_, _ = fmt.Fprintf(out, "   Path:        %s (exists: %v)\n", s.LocalPath, s.LocalPathExists())
			case source.TypeRemote:
				_, _ = fmt.Fprintf(out, "   Server URL:  %s\n", s.ServerURL)
				_, _ = fmt.Fprintf(out, "   Username:    %s\n", s.Username)
				_, _ = fmt.Fprintf(out, "   Password:    %s\n", maskPassword(s.Password))
				_, _ = fmt.Fprintf(out, "   Downloads:   %s\n", downloadDir(a, s))
			case source.TypeDocker:
				_, _ = fmt.Fprintf(out, "   Container:   %s\n", s.ContainerName)
				_, _ = fmt.Fprintf(out, "   Downloads:   %s\n", downloadDir(a, s))
			}

			reports, err := reporting.ListReports(a.cfg.Output.ReportsDir, s.Name)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "   Reports:     %d saved\n", len(reports))
			if len(reports) > 0 {
				_, _ = fmt.Fprintf(out, "   Latest:      %s\n", reports[len(reports)-1])
			}
			return nil
		})
	},
}

// applySourceFlags copies the flags that were given on the command line into s.
func applySourceFlags(cmd *cobra.Command, s *source.Source) error {
	strFields := []struct {
		flag  string
		field *string
	}{
		{"name", &s.Name},
		{"path", &s.LocalPath},
		{"url", &s.ServerURL},
		{"user", &s.Username},
		{"password", &s.Password},
		{"container", &s.ContainerName},
	}

	for _, f := range strFields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, err := cmd.Flags().GetString(f.flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", f.flag, err)
		}
		*f.field = v
	}

	if cmd.Flags().Changed("priority") {
		p, err := cmd.Flags().GetInt("priority")
		if err != nil {
			return fmt.Errorf("failed to get priority flag: %w", err)
		}
		s.Priority = p
	}
	return nil
}

func activateIfRequested(ctx context.Context, cmd *cobra.Command, a *app, s source.Source) error {
	activate, err := cmd.Flags().GetBool("activate")
	if err != nil {
		return fmt.Errorf("failed to get activate flag: %w", err)
	}
	if !activate {
		return nil
	}
	if err := a.sources.SetActive(ctx, s.ID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s Active source: %s\n", checkmark, s.Name)
	return nil
}

// location is the short "where" column of the source list.
func location(s source.Source) string {
	switch s.Type {
	case source.TypeLocal:
		return s.LocalPath
	case source.TypeRemote:
		return s.Username + "@" + s.ServerURL
	case source.TypeDocker:
		return "container:" + s.ContainerName
	default:
		return "-"
	}
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd, sourcesAddCmd, sourcesUpdateCmd, sourcesRemoveCmd,
		sourcesActivateCmd, sourcesShowCmd)

	for _, c := range []*cobra.Command{sourcesAddCmd, sourcesUpdateCmd} {
		c.Flags().String("type", "local", "Source type: local, remote or docker")
		c.Flags().String("name", "", "Display name")
		c.Flags().String("path", "", "Log directory (local) or download directory override (remote)")
		c.Flags().String("url", "", "Server URL (remote)")
		c.Flags().String("user", "", "Username (remote)")
		c.Flags().String("password", "", "Password (remote)")
		c.Flags().String("container", "", "Container name (docker)")
		c.Flags().Int("priority", 0, "Sort priority, lower first")
		c.Flags().Bool("activate", false, "Make the source the active one")
	}
}
