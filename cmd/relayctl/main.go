package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/sportfengur-relay/internal/config"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliEnv carries what every subcommand needs once flags are parsed.
type cliEnv struct {
	cfg    config.Config
	logger *logging.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	env := &cliEnv{}
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "relayctl",
		Short:         "Operator tools for the SportFengur relay",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			env.cfg = cfg
			env.logger = logging.NewNop()
			if verbose {
				env.logger = logging.NewJSON(logging.LevelDebug, logging.Options{Debug: cfg.DebugMode})
			}
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log vendor calls to stdout")

	rootCmd.AddCommand(leaderboardCmd(env))
	rootCmd.AddCommand(testsCmd(env))
	rootCmd.AddCommand(sendWebhookCmd(env))

	return rootCmd
}
