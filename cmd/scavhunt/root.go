package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/davicafu/scavhunt/internal/config"
	"github.com/davicafu/scavhunt/pkg/logger"
)

var (
	// Estado global fijado en PersistentPreRunE
	cfg *config.Config
	log *zap.Logger

	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "scavhunt",
	Short: "Scavenger hunt record service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		if cfg, err = config.Load(v, cfgFile); err != nil {
			return err
		}
		log, err = logger.New(cfg.LogLevel, cfg.IsDevelopment())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.env if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
}
