package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/internal/cache"
	"github.com/santaclaude2025/session-improver/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file and create the summary cache",
	Long: `Writes ~/.session-improver/config.yaml with the default detector thresholds
and server settings, and creates the local SQLite summary cache.
An existing config file is left alone unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		configPath := flagConfig
		if configPath == "" {
			var err error
			if configPath, err = config.GetConfigPath(); err != nil {
				return err
			}
		}

		_, statErr := os.Stat(configPath)
		switch {
		case statErr == nil && !initForce:
			fmt.Fprintf(out, "Config already exists at %s (use --force to overwrite)\n", configPath)
		case statErr == nil || errors.Is(statErr, os.ErrNotExist):
			cfg := config.Default()
			cfg.Thresholds = analytics.DefaultOptions().Thresholds()
			if err := cfg.Save(configPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Config written to %s\n", configPath)
		default:
			return fmt.Errorf("failed to check config: %w", statErr)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		path, err := cachePath(cfg)
		if err != nil {
			return err
		}
		db, err := cache.Open(path)
		if err != nil {
			return fmt.Errorf("failed to create cache: %w", err)
		}
		defer db.Close()

		fmt.Fprintf(out, "✓ Cache database at %s\n", db.Path())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
