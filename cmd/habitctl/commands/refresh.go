package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/config"
	"github.com/mglynn/habitflow/internal/queue"
	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd() *cobra.Command {
	var invalidate bool

	cmd := &cobra.Command{
		Use:   "refresh <user-id>",
		Short: "Enqueue a progress refresh for a user",
		Long:  "Enqueue a background job that recomputes the user's cached progress snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user ID %q: %w", args[0], err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is not set")
			}

			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() {
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close queue connection: %v\n", err)
				}
			}()

			jobType := queue.JobTypeProgressRefresh
			if invalidate {
				jobType = queue.JobTypeCacheInvalidate
			}

			job := queue.NewJob(jobType, userID, nil)
			if err := jobQueue.Enqueue(context.Background(), job); err != nil {
				return fmt.Errorf("failed to enqueue job: %w", err)
			}

			fmt.Printf("Enqueued %s job %s for user %s\n", job.Type, job.ID, userID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&invalidate, "invalidate", false, "Drop the cached snapshot instead of recomputing it")

	return cmd
}
