package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkfinder/internal/database"
	"github.com/nao1215/linkfinder/internal/report"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <test-id>",
		Short: "Show the results of a stored test",
		Long: `Show prints one page of the URLs found by a test and which strategies
found them. Pages are numbered from 0.

Examples:
  # First page of all results
  linkfinder show 3

  # Sitemap entries, second page of 50
  linkfinder show 3 --in-sitemap --page 1 --per-page 50

  # Number of pages reached by links
  linkfinder show 3 --in-html --count`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().Bool("in-html", false, "Only URLs found by following links")
	cmd.Flags().Bool("in-sitemap", false, "Only URLs listed in the sitemap")
	cmd.Flags().Int("page", 0, "Page number, starting at 0")
	cmd.Flags().Int("per-page", database.DefaultPerPage, "Results per page")
	cmd.Flags().Bool("count", false, "Print only the number of matching results")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid test id %q", args[0])
	}

	flags := cmd.Flags()
	var filter database.ResultFilter
	if filter.InHTML, err = flags.GetBool("in-html"); err != nil {
		return err
	}
	if filter.InSitemap, err = flags.GetBool("in-sitemap"); err != nil {
		return err
	}
	if filter.Page, err = flags.GetInt("page"); err != nil {
		return err
	}
	if filter.PerPage, err = flags.GetInt("per-page"); err != nil {
		return err
	}
	countOnly, err := flags.GetBool("count")
	if err != nil {
		return err
	}
	asJSON, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	if filter.Page < 0 {
		return fmt.Errorf("invalid page %d: must be non-negative", filter.Page)
	}
	if filter.PerPage <= 0 {
		return fmt.Errorf("invalid per-page %d: must be positive", filter.PerPage)
	}

	db, err := openExistingDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	test, err := db.GetTest(ctx, id)
	if err != nil {
		return fmt.Errorf("test %d: %w", id, err)
	}
	total, err := db.CountResults(ctx, id, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if countOnly {
		if asJSON {
			_, err := report.NewJSONWriter(out).WriteValue(map[string]int{"count": total})
			return err
		}
		fmt.Fprintln(out, total)
		return nil
	}

	results, err := db.GetResults(ctx, id, filter)
	if err != nil {
		return err
	}

	page := report.ResultPage{
		TestID:  id,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
		Results: results,
	}
	if asJSON {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(page)
		return err
	}

	fmt.Fprintf(out, "test %d: %s (%s)\n", test.ID, test.URL, test.Status)
	if test.Error != "" {
		fmt.Fprintf(out, "error: %s\n", test.Error)
	}
	return report.ResultTable(out, page)
}
