package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewEnqueueCmd creates the enqueue command.
func NewEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <url>...",
		Short: "Queue sites for a background worker",
		Long: `Enqueue validates each URL and stores it as a pending test.
Pending tests are processed by "linkfinder worker".

Examples:
  linkfinder enqueue https://www.example.com https://www.example.org
  linkfinder worker --once`,
		Args: cobra.MinimumNArgs(1),
		RunE: runEnqueueCmd,
	}
}

// runEnqueueCmd executes the enqueue command. Nothing is stored when any URL
// is invalid.
func runEnqueueCmd(cmd *cobra.Command, args []string) error {
	if err := validateTargets(args); err != nil {
		return err
	}

	db, err := openDB(cmd, 0)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, target := range args {
		id, err := db.CreateTest(cmd.Context(), target)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queued test %d: %s\n", id, target)
	}
	return nil
}
