package commands

import (
	"fmt"
	"os"

	"github.com/mglynn/habitflow/internal/config"
	"github.com/mglynn/habitflow/internal/database"
)

// openDB loads configuration and connects to the database. The returned
// cleanup func closes the connection and logs close failures to stderr.
func openDB() (*database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}

	return db, cleanup, nil
}
