package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"redirsync/pkg/checkpoint"
	"redirsync/pkg/config"
	"redirsync/pkg/logger"
	"redirsync/pkg/ratelimit"
	"redirsync/pkg/remote"
	"redirsync/pkg/transfer"
	"redirsync/pkg/ui"
)

// minutePeriod is the refill period of the client-side rate limiter
const minutePeriod = time.Minute

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile     string
	logLevel       string
	quiet          bool
	assumeYes      bool
	baseURL        string
	account        string
	workspace      string
	checkpointPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redirsync",
	Short: "Bulk-synchronize URL redirects between a CSV file and a remote API",
	Long: `redirsync moves URL-redirect records between a local CSV file and a
remote redirect API in three directions:

  export   remote -> CSV
  import   CSV -> remote
  delete   CSV -> remote removal

Transfers are resumable: progress is checkpointed after every batch and
on interrupt, so a crashed or cancelled run picks up where it left off.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.redirsync.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "resume from checkpoints without asking")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "remote API base URL")
	rootCmd.PersistentFlags().StringVar(&account, "account", "", "remote account identifier")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", "", "remote workspace identifier")
	rootCmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file path (default "+checkpoint.DefaultPath+")")

	rootCmd.SetVersionTemplate(`redirsync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flag values that feed config
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if baseURL != "" {
		flags["base-url"] = baseURL
	}
	if account != "" {
		flags["account"] = account
	}
	if workspace != "" {
		flags["workspace"] = workspace
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if checkpointPath != "" {
		flags["checkpoint-path"] = checkpointPath
	}
	return flags
}

// setup loads configuration, initializes logging and builds the engine
func setup(flags map[string]interface{}) (*config.Config, *transfer.Engine, error) {
	merged := globalFlags()
	for k, v := range flags {
		merged[k] = v
	}

	cfg, err := config.Load(configFile, merged)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, err
	}

	if cfg.API.BaseURL == "" {
		return nil, nil, fmt.Errorf("remote API base URL not configured (use --base-url or REDIRSYNC_API_URL)")
	}

	limiter := ratelimit.NewTokenBucket(cfg.API.RequestsPerMinute, minutePeriod)
	client := remote.NewClient(cfg.API.BaseURL, cfg.API.Account, cfg.API.Workspace,
		cfg.API.RequestTimeout, limiter, logger.GetLogger())
	store := checkpoint.NewStore(cfg.Checkpoint.Path)

	engine := transfer.New(client, store, cfg, confirmResume)
	return cfg, engine, nil
}

// runOperation wires signals, runs op under the restart budget, and
// maps the outcome to an exit status.
func runOperation(op func(context.Context, *config.Config, *transfer.Engine) error, flags map[string]interface{}) {
	cfg, engine, err := setup(flags)
	if err != nil {
		ui.PrintError("configuration error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = transfer.Run(ctx, &cfg.Retry, func(ctx context.Context) error {
		return op(ctx, cfg, engine)
	})

	switch {
	case err == nil:
		// success exits 0 implicitly
	case isInterrupt(err):
		ui.PrintWarning("interrupted, progress saved to checkpoint")
		os.Exit(130)
	default:
		ui.PrintError("operation failed", err.Error())
		os.Exit(1)
	}
}

func isInterrupt(err error) bool {
	return errors.Is(err, transfer.ErrInterrupted) || errors.Is(err, context.Canceled)
}
