package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/projectpay-gobackend/internal/config"
	"github.com/markjakearzadon/projectpay-gobackend/internal/db"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

var Version = "dev"

func main() {
	serve := serveCmd()
	rootCmd := &cobra.Command{
		Use:     "projectpay",
		Short:   "Project billing backend with bKash and PipraPay payments",
		Version: Version,
		RunE:    serve.RunE,
	}

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase connects to MongoDB using MONGOURI and MONGO_DB.
func openDatabase(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Mongo.URI == "" {
		return nil, nil, fmt.Errorf("MONGOURI environment variable not set")
	}
	client, err := db.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return client, client.Database(cfg.Mongo.Database), nil
}

// settingsService builds the settings service, with the Redis cache when
// REDIS_ADDR is set.
func settingsService(ctx context.Context, cfg *config.Config, database *mongo.Database) *services.SettingsService {
	var cache services.SettingsCache
	if rdb := db.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password); rdb != nil {
		cache = services.NewRedisSettingsCache(rdb, cfg.Redis.SettingsTTL)
	}
	return services.NewSettingsService(repository.NewSettingsRepository(database), cache)
}
