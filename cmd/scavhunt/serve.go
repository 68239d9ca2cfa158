package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/davicafu/scavhunt/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, outbox relays and event consumers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Start(ctx)
		return a.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 3005, "HTTP port")
	serveCmd.Flags().String("env", "development", "environment (development, production)")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("env", serveCmd.Flags().Lookup("env"))
}
