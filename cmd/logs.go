package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/santaclaude2025/session-improver/pkg/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Manage session-improver logs",
	Long:  "View or manage session-improver CLI logs",
}

var logsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print log directory path",
	RunE: func(cmd *cobra.Command, args []string) error {
		logDir, err := logger.LogDir()
		if err != nil {
			return fmt.Errorf("failed to locate log directory: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), logDir)
		return nil
	},
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all log files",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := logger.LogFiles()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintln(out, "No log files found")
			return nil
		}

		for _, file := range files {
			info, err := os.Stat(file)
			if err != nil {
				logger.Warn("Failed to stat %s: %v", file, err)
				continue
			}
			fmt.Fprintf(out, "%s (%d bytes)\n", filepath.Base(file), info.Size())
		}
		return nil
	},
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all rotated log files (keeps current)",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := logger.RotatedLogFiles()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintln(out, "No old log files to delete")
			return nil
		}

		deletedCount := 0
		for _, file := range files {
			if err := os.Remove(file); err != nil {
				logger.Warn("Failed to delete %s: %v", filepath.Base(file), err)
			} else {
				fmt.Fprintf(out, "Deleted %s\n", filepath.Base(file))
				deletedCount++
			}
		}

		fmt.Fprintf(out, "\nDeleted %d old log file(s)\n", deletedCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsPathCmd)
	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsClearCmd)
}
