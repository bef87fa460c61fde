package main

import (
	"fmt"
	"os"

	"github.com/mglynn/habitflow/cmd/habitctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "habitctl",
		Short: "Admin tool for HabitFlow",
		Long:  "CLI tool for inspecting users, habits, and progress, and for triggering background refreshes",
	}

	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewHabitsCmd())
	rootCmd.AddCommand(commands.NewProgressCmd())
	rootCmd.AddCommand(commands.NewRefreshCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
