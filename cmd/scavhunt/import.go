package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davicafu/scavhunt/internal/app"
	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	"github.com/davicafu/scavhunt/internal/hunt/infra/outbound/filesystem"
)

var (
	importFile   string
	importDelete bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load hunts from a JSON dump (or delete them with --delete)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		storage := filesystem.NewJSONHuntStorage(importFile)
		if !importDelete {
			n, err := a.Hunts.ImportHunts(ctx, storage)
			if err != nil {
				return err
			}
			log.Info("✅ Hunts importadas", zap.Int("count", n), zap.String("file", importFile))
			return nil
		}

		hunts, err := storage.Load(ctx)
		if err != nil {
			return err
		}
		deleted := 0
		for _, h := range hunts {
			if err := a.Hunts.DeleteHunt(ctx, h.ID); err != nil {
				if errors.Is(err, huntDomain.ErrHuntNotFound) {
					continue
				}
				return err
			}
			deleted++
		}
		log.Info("🗑️ Hunts eliminadas", zap.Int("count", deleted), zap.String("file", importFile))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "data/hunts.json", "JSON file with an array of hunts")
	importCmd.Flags().BoolVar(&importDelete, "delete", false, "delete the hunts listed in the file instead of importing them")
}
