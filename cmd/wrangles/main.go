package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/recipe"
)

var (
	version = "0.1.0-dev"
	logger  = gologger.NewLogger()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("wrangles failed")
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFiles []string
	root := &cobra.Command{
		Use:           "wrangles",
		Short:         "Run data wrangling recipes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if len(envFiles) == 0 {
				// a missing ./.env is fine
				if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("error loading .env: %w", err)
				}
				return nil
			}
			if err := godotenv.Load(envFiles...); err != nil {
				return fmt.Errorf("error loading env files: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before running (default ./.env when present)")

	root.AddCommand(
		runCmd(),
		serveCmd(),
		scheduleCmd(),
		watchCmd(),
		profileCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "wrangles", version)
		},
	}
}

// variables lifts --var NAME=VALUE flags into recipe options.
func variables(vars map[string]string) []recipe.Option {
	if len(vars) == 0 {
		return nil
	}
	m := make(map[string]any, len(vars))
	for k, v := range vars {
		m[k] = v
	}
	return []recipe.Option{recipe.WithVariables(m)}
}
