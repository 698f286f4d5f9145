// Package main implements the opsdeck CLI: entrypoint contract checks for
// two-process (api + worker) servers, check history, and terminal confirmations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"opsdeck/internal/config"
	"opsdeck/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	timeout    time.Duration

	logger *zap.Logger
	cfg    *config.Config
)

// errContractFailed signals a completed check with failing assertions.
var errContractFailed = errors.New("entrypoint contract not satisfied")

// errCancelled signals that the user declined a confirmation.
var errCancelled = errors.New("cancelled")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "opsdeck",
	Short: "Operator toolkit for api + worker server codebases",
	Long: `opsdeck verifies that a server codebase exposes separately runnable
API and worker processes: two entrypoint files and the dev/start launch
scripts for each in its manifest.

Check results can be recorded, watched, and purged from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			if workspace, err = os.Getwd(); err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
		}
		if configPath == "" {
			configPath = filepath.Join(workspace, config.DefaultPath)
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		if err := logging.Initialize(workspace, cfg.Logging.Settings()); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		logging.Boot("running %q (config %s)", cmd.CommandPath(), configPath)
		logger.Debug("configuration loaded",
			zap.String("workspace", workspace),
			zap.String("config", configPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.opsdeck/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(confirmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errCancelled) && !errors.Is(err, errContractFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// commandContext returns a context cancelled on SIGINT/SIGTERM and, when
// withTimeout is set, after the --timeout duration.
func commandContext(withTimeout bool) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if !withTimeout {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// serverRoot resolves the server root from args or config, relative to the workspace.
func serverRoot(args []string) string {
	root := cfg.ServerRoot
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(workspace, root)
	}
	return root
}

// historyPath resolves the history database path relative to the workspace.
func historyPath() string {
	p := cfg.History.DatabasePath
	if !filepath.IsAbs(p) {
		p = filepath.Join(workspace, p)
	}
	return p
}
