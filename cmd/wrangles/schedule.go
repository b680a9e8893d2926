package main

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/admariner/wrangles/pkg/recipe"
)

func scheduleCmd() *cobra.Command {
	var (
		vars    map[string]string
		seconds bool
	)
	cmd := &cobra.Command{
		Use:   "schedule CRON RECIPE...",
		Short: "Run recipes on a cron schedule",
		Long: "Run recipes on a cron schedule, e.g. `wrangles schedule \"*/5 * * * *\" daily.yml`.\n" +
			"Recipes are reloaded on every tick; a tick is skipped while the previous run is still going.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := schedule(cmd.Context(), args[0], args[1:], seconds, variables(vars))
			if err != nil {
				return err
			}
			c.Start()
			logger.Info().Str("spec", args[0]).Strs("recipes", args[1:]).Msg("scheduled recipes")

			<-cmd.Context().Done()
			logger.Warn().Msg("received shutdown signal, waiting for running recipes")
			<-c.Stop().Done()
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "recipe variable as NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&seconds, "seconds", false, "the cron spec has a leading seconds field")
	return cmd
}

// schedule builds a cron runner with one job per recipe. The returned cron
// is not started.
func schedule(ctx context.Context, spec string, paths []string, seconds bool, opts []recipe.Option) (*cron.Cron, error) {
	cronOpts := []cron.Option{cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))}
	if seconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	c := cron.New(cronOpts...)
	for _, path := range paths {
		_, err := c.AddFunc(spec, func() {
			runFile(ctx, path, opts)
		})
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// runFile loads and runs one recipe, logging rather than returning failures
// so long-lived commands keep going.
func runFile(ctx context.Context, path string, opts []recipe.Option) {
	lg := logger.With().Str("recipe", path).Logger()
	r, err := recipe.Load(path)
	if err != nil {
		lg.Error().Err(err).Msg("error loading recipe")
		return
	}
	if err := runRecipe(lg.WithContext(ctx), r, opts); err != nil {
		lg.Error().Err(err).Msg("recipe failed")
	}
}
