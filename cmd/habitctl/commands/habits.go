package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/database"
	"github.com/spf13/cobra"
)

// NewHabitsCmd creates the habits command
func NewHabitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits <user-id>",
		Short: "List a user's habits",
		Long:  "List all habits belonging to the given user, in display order",
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
				return fmt.Errorf("failed to list habits: %w", err)
			}

			if len(habits) == 0 {
				fmt.Println("No habits found")
				return nil
			}

			for _, habit := range habits {
				fmt.Printf("  - %s\n", habit.Name)
				fmt.Printf("    ID: %s\n", habit.ID)
				fmt.Printf("    Frequency: %s (target %d)\n", habit.Frequency, habit.Target)
				if len(habit.Tags) > 0 {
					fmt.Printf("    Tags: %s\n", strings.Join(habit.Tags, ", "))
				}
				fmt.Printf("    Tracked weeks: %d\n", len(habit.WeeklyProgress))
				fmt.Println()
			}

			return nil
		},
	}

	return cmd
}
