package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkfinder/internal/model"
	"github.com/nao1215/linkfinder/internal/report"
)

// NewTestsCmd creates the tests command.
func NewTestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List stored tests",
		Long: `Tests lists the stored tests, newest first.

Examples:
  linkfinder tests
  linkfinder tests --status failed
  linkfinder tests --json`,
		Args: cobra.NoArgs,
		RunE: runTestsCmd,
	}

	cmd.Flags().StringP("status", "s", "",
		"Only list tests in this state (pending, running, done, failed)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// runTestsCmd executes the tests command.
func runTestsCmd(cmd *cobra.Command, _ []string) error {
	status, err := cmd.Flags().GetString("status")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	filter := model.TestStatus(status)
	switch filter {
	case "", model.TestStatusPending, model.TestStatusRunning, model.TestStatusDone, model.TestStatusFailed:
	default:
		return fmt.Errorf("unknown status %q: use pending, running, done or failed", status)
	}

	db, err := openExistingDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	tests, err := db.ListTests(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if asJSON {
		_, err := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(tests)
		return err
	}
	if len(tests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no tests stored")
		return nil
	}
	return report.TestTable(cmd.OutOrStdout(), tests)
}
