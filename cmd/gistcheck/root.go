package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "gistcheck",
	Short: "Check model replies against the book gist format",
	Long: `Runs the same normalization the server applies to model replies:
a fenced json block is tried first, then the whole text. The result is
printed as JSON, and the exit status is 1 when the reply was rejected.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zapcore.WarnLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		zapCfg.OutputPaths = []string{"stderr"}
		l, err := zapCfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log extraction details to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
