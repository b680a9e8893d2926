package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/admariner/wrangles/pkg/httpserver"
	"github.com/admariner/wrangles/pkg/recipe"
	"github.com/admariner/wrangles/pkg/utils"
)

func serveCmd() *cobra.Command {
	var (
		host       string
		port       string
		vars       map[string]string
		connectors []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recipes over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := append(variables(vars), recipe.WithConnectors(connectors...))
			s := httpserver.New(opts...)
			if err := s.Start(host, port); err != nil {
				return err
			}

			<-cmd.Context().Done()
			logger.Warn().Msg("received shutdown signal!")

			// For load balancers needing some time to de-register the instance
			sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
			logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))
			time.Sleep(time.Second * time.Duration(sleepTime))

			ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			defer cancel()
			if err := s.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shutdown HTTP server: %w", err)
			}
			logger.Info().Msg("successfully shutdown HTTP server")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", utils.GetEnvOrDefault("HTTP_HOST", "127.0.0.1"), "listen address")
	cmd.Flags().StringVar(&port, "port", utils.GetEnvOrDefault("HTTP_PORT", "8080"), "listen port")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "variable available to every posted recipe, as NAME=VALUE")
	cmd.Flags().StringSliceVar(&connectors, "connector", nil, "connector posted recipes may use, e.g. s3 (repeatable)")
	return cmd
}
