package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/santaclaude2025/session-improver/internal/cache"
	"github.com/santaclaude2025/session-improver/pkg/config"
	"github.com/santaclaude2025/session-improver/pkg/discovery"
	"github.com/santaclaude2025/session-improver/pkg/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where sessions, config, cache and logs live",
	Long:  `Displays the Claude state directory, the current session, the config file and recently cached summaries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "=== session-improver: Status ===")
		fmt.Fprintln(out)

		claudeDir, err := config.GetClaudeStateDir()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Claude directory: %s\n", claudeDir)

		if sessionID, err := discovery.LatestSessionID(); err != nil {
			fmt.Fprintf(out, "Current session: ✗ %v\n", err)
		} else if path, err := discovery.FindBySessionID(sessionID); err != nil {
			fmt.Fprintf(out, "Current session: %s (transcript not found)\n", sessionID)
		} else {
			fmt.Fprintf(out, "Current session: %s\n  %s\n", sessionID, path)
		}
		fmt.Fprintln(out)

		configPath := flagConfig
		if configPath == "" {
			if configPath, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(out, "Config: %s\n", configPath)
		} else {
			fmt.Fprintf(out, "Config: %s (not present, using defaults)\n", configPath)
		}

		if logDir, err := logger.LogDir(); err == nil {
			fmt.Fprintf(out, "Logs: %s\n", logDir)
		}

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		path, err := cachePath(cfg)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(out, "Cache: %s (not created; run with --cache or 'session-improver init')\n", path)
			return nil
		}

		db, err := cache.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer db.Close()

		count, err := db.Count()
		if err != nil {
			return fmt.Errorf("failed to count cached summaries: %w", err)
		}
		fmt.Fprintf(out, "Cache: %s (%d summaries)\n", db.Path(), count)

		if count > 0 {
			entries, err := db.Recent(10)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Recently analyzed:")
			for _, e := range entries {
				fmt.Fprintf(out, "  %s - %s ago (%.2f MB)\n",
					e.Path,
					formatDuration(time.Since(e.ComputedAt)),
					float64(e.SizeBytes)/float64(config.MB),
				)
			}
		}

		return nil
	},
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
