package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/database"
	"github.com/mglynn/habitflow/internal/progress"
	"github.com/spf13/cobra"
)

// NewProgressCmd creates the progress command
func NewProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress <user-id>",
		Short: "Show a user's completion summary",
		Long:  "Compute today's, this week's, and this month's overall completion for the given user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user ID %q: %w", args[0], err)
			}

			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			habitRepo := database.NewHabitRepository(db)
			ctx := context.Background()

			habits, err := habitRepo.GetByUserID(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to load habits: %w", err)
			}

			snapshot := progress.FriendSnapshot(time.Now(), habits)

			fmt.Printf("Habits:  %d\n", len(habits))
			fmt.Printf("Today:   %d%%\n", snapshot.Daily)
			fmt.Printf("Week:    %d%%\n", snapshot.Weekly)
			fmt.Printf("Month:   %d%%\n", snapshot.Monthly)

			return nil
		},
	}

	return cmd
}
