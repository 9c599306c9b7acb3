package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/projectpay-gobackend/internal/config"
	"github.com/markjakearzadon/projectpay-gobackend/internal/db"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var in services.RegisterInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account, e.g. the first admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, cfg *config.Config, database *mongo.Database) error {
				if err := db.EnsureIndexes(ctx, database); err != nil {
					return err
				}
				users := services.NewUserService(repository.NewUserRepository(database), nil)
				user, err := users.Register(ctx, in)
				if err != nil {
					return err
				}
				fmt.Printf("Created %s user %s (%s)\n", user.Role, user.Email, user.ID.Hex())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&in.FullName, "name", "", "display name")
	cmd.Flags().StringVar(&in.Role, "role", models.RoleAdmin, "admin or client")
	cmd.Flags().StringVar(&in.ClientID, "client-id", "", "client id, required for client users")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
