package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/internal/cache"
	"github.com/santaclaude2025/session-improver/internal/render"
	"github.com/santaclaude2025/session-improver/internal/source"
	"github.com/santaclaude2025/session-improver/pkg/config"
	"github.com/santaclaude2025/session-improver/pkg/discovery"
	"github.com/santaclaude2025/session-improver/pkg/logger"
	"github.com/santaclaude2025/session-improver/pkg/upload"
)

const usageLine = "Usage: session-improver [session-id | path | s3://bucket/key | --current]"

// errReported marks failures whose message was already written to stderr.
var errReported = errors.New("reported")

var (
	flagCurrent bool
	flagFormat  string
	flagConfig  string
	flagCache   bool
	flagVerbose bool
	flagRemote  string
)

var rootCmd = &cobra.Command{
	Use:   "session-improver [session-id | path | s3://bucket/key]",
	Short: "Find wasted effort in a Claude Code session",
	Long: `Reads a Claude Code session transcript and reports linter loops, retried tool
failures, repeated workflows, re-read files, permission prompts and hook failures,
along with token usage and an estimated cost.

With no argument, the most recent session from ~/.claude/history.jsonl is analyzed.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.session-improver/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "mirror log output to stderr")

	rootCmd.Flags().BoolVar(&flagCurrent, "current", false, "analyze the most recent session")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", render.FormatJSON, "output format: json or table")
	rootCmd.Flags().BoolVar(&flagCache, "cache", false, "reuse summaries of unchanged transcripts")
	rootCmd.Flags().StringVar(&flagRemote, "remote", "", "analyze on a session-improver server at this URL instead of locally")
}

// setupLogging initializes the file logger and applies --verbose.
func setupLogging() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}
	if flagVerbose {
		logger.Get().SetAlsoStderr(true)
		logger.Get().SetLevel(logger.DEBUG)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging()
	defer logger.Close()

	identifier := discovery.CurrentSession
	if len(args) == 1 && !flagCurrent {
		identifier = args[0]
	}
	logger.Info("Analyzing %s", identifier)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		return err
	}
	opts := analytics.OptionsFromThresholds(cfg.Thresholds)

	var summary *analytics.Summary
	if source.IsRemote(identifier) {
		summary, err = analyzeObject(cmd.Context(), cfg.Storage, identifier, opts)
		if err != nil {
			logger.Error("Failed to analyze %s: %v", identifier, err)
			return err
		}
	} else {
		path, resolveErr := discovery.Resolve(identifier)
		if resolveErr != nil {
			logger.Error("Failed to resolve %s: %v", identifier, resolveErr)
			reportUnresolved(cmd.ErrOrStderr(), identifier, resolveErr)
			return errReported
		}
		logger.Info("Resolved transcript %s", path)

		if flagRemote != "" {
			summary, err = analyzeRemote(cmd.Context(), flagRemote, path)
		} else {
			summary, err = analyzeFile(cmd.Context(), cfg, path, opts, flagCache || cfg.Cache.Enabled)
		}
		if err != nil {
			logger.Error("Failed to analyze %s: %v", path, err)
			return err
		}
	}

	return render.WriteSummary(cmd.OutOrStdout(), summary, flagFormat)
}

func reportUnresolved(w io.Writer, identifier string, err error) {
	fmt.Fprintf(w, "Could not find session file for: %s\n", identifier)
	if errors.Is(err, discovery.ErrAmbiguousSession) {
		fmt.Fprintln(w, err)
	}
	fmt.Fprintln(w, usageLine)
}

func analyzeObject(ctx context.Context, storage config.StorageConfig, uri string, opts analytics.Options) (*analytics.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StorageDownloadTimeout)
	defer cancel()

	objects, err := source.NewS3Source(storage)
	if err != nil {
		return nil, err
	}
	rc, err := objects.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return analytics.ComputeFromReader(ctx, rc, opts)
}

// analyzeRemote sends a local transcript to a server started with
// `session-improver serve`. Thresholds are the server's.
func analyzeRemote(ctx context.Context, serverURL, path string) (*analytics.Summary, error) {
	rc, err := source.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	logger.Info("Sending %s to %s", path, serverURL)
	return upload.NewClient(serverURL, config.RemoteAnalyzeTimeout).Analyze(ctx, rc)
}

// analyzeFile computes the summary for a local transcript, consulting the
// summary cache when useCache is set. Cache failures only cost the speedup.
func analyzeFile(ctx context.Context, cfg *config.Config, path string, opts analytics.Options, useCache bool) (*analytics.Summary, error) {
	var (
		db  *cache.DB
		key cache.Key
	)
	if useCache {
		var err error
		db, key, err = openCache(cfg, path, opts)
		if err != nil {
			logger.Warn("Summary cache unavailable: %v", err)
		} else {
			defer db.Close()
			if summary, ok, err := db.Get(key); err != nil {
				logger.Warn("Cache lookup failed: %v", err)
			} else if ok {
				logger.Debug("Cache hit for %s", path)
				return summary, nil
			}
		}
	}

	rc, err := source.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	summary, err := analytics.ComputeFromReader(ctx, rc, opts)
	if err != nil {
		return nil, err
	}

	if db != nil {
		if err := db.Put(key, summary); err != nil {
			logger.Warn("Failed to cache summary: %v", err)
		}
	}
	return summary, nil
}

func openCache(cfg *config.Config, path string, opts analytics.Options) (*cache.DB, cache.Key, error) {
	key, err := cache.KeyForFile(path, opts)
	if err != nil {
		return nil, cache.Key{}, err
	}
	cachePath, err := cachePath(cfg)
	if err != nil {
		return nil, cache.Key{}, err
	}
	db, err := cache.Open(cachePath)
	if err != nil {
		return nil, cache.Key{}, err
	}
	return db, key, nil
}

func cachePath(cfg *config.Config) (string, error) {
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path, nil
	}
	return config.GetCachePath()
}
