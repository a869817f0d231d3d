package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"marketplace/internal/database"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := "up"
		if len(args) == 1 {
			direction = args[0]
		}

		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		defer dbService.Close()

		db, dir := dbService.DB(), cfg.Server.MigrationsDir
		switch direction {
		case "down":
			return database.RollbackMigration(db, dir, log)
		case "status":
			return database.GetMigrationStatus(db, dir)
		default:
			return database.RunMigrations(db, dir, log)
		}
	},
}

var pruneOrphansCmd = &cobra.Command{
	Use:   "prune-orphans",
	Short: "Delete favourites and reviews whose product no longer exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		defer dbService.Close()

		db := dbService.DB()
		favourites := service.NewFavouriteService(
			repository.NewFavouriteRepository(db),
			repository.NewProductRepository(db),
			repository.NewProfileRepository(db),
			repository.NewReviewRepository(db),
		)

		removedFavourites, removedReviews, err := favourites.PruneOrphans(ctx)
		if err != nil {
			return fmt.Errorf("prune orphans: %w", err)
		}

		log.Info("Orphans pruned",
			zap.Int64("favourites", removedFavourites),
			zap.Int64("reviews", removedReviews),
		)
		return nil
	},
}
