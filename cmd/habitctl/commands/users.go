package commands

import (
	"context"
	"fmt"

	"github.com/mglynn/habitflow/internal/database"
	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command
func NewUsersCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "users <prefix>",
		Short: "Search users by display name prefix",
		Long:  "Search users whose display name starts with the given prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			userRepo := database.NewUserRepository(db)
			ctx := context.Background()

			users, err := userRepo.SearchByDisplayNamePrefix(ctx, args[0], limit)
			if err != nil {
				return fmt.Errorf("failed to search users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No users found")
				return nil
			}

			for _, user := range users {
				fmt.Printf("  - %s\n", user.DisplayName)
				fmt.Printf("    ID: %s\n", user.ID)
				fmt.Printf("    Email: %s\n", user.Email)
				fmt.Printf("    Created: %s\n", user.CreatedAt.Format("2006-01-02"))
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}
