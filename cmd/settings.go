package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/projectpay-gobackend/internal/config"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage gateway and notification credentials",
	}
	cmd.AddCommand(settingsImportCmd(), settingsSetCmd(), settingsShowCmd())
	return cmd
}

// withDatabase runs fn against the configured database and closes the
// connection afterwards.
func withDatabase(fn func(ctx context.Context, cfg *config.Config, database *mongo.Database) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Load()
	client, database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	return fn(ctx, cfg, database)
}

func withSettings(fn func(ctx context.Context, svc *services.SettingsService) error) error {
	return withDatabase(func(ctx context.Context, cfg *config.Config, database *mongo.Database) error {
		return fn(ctx, settingsService(ctx, cfg, database))
	})
}

func settingsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Store every provider found in a YAML settings file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withSettings(func(ctx context.Context, svc *services.SettingsService) error {
				n, err := svc.Import(ctx, f)
				if err != nil {
					return err
				}
				fmt.Printf("Imported settings for %d provider(s)\n", n)
				return nil
			})
		},
	}
}

func settingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [provider] [key] [value]",
		Short: "Set one settings value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, svc *services.SettingsService) error {
				if err := svc.Set(ctx, args[0], map[string]string{args[1]: args[2]}); err != nil {
					return err
				}
				fmt.Printf("%s.%s updated\n", args[0], args[1])
				return nil
			})
		},
	}
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [provider]",
		Short: "Print a provider's settings with secrets masked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, svc *services.SettingsService) error {
				values, err := svc.Masked(ctx, args[0])
				if err != nil {
					return err
				}
				if len(values) == 0 {
					fmt.Printf("No settings stored for %s\n", args[0])
					return nil
				}
				keys := make([]string, 0, len(values))
				for k := range values {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("  %-12s %s\n", k, values[k])
				}
				return nil
			})
		},
	}
}
