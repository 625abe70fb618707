package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakline/lettermill/internal/cli"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent analysis runs",
		RunE:  runRuns,
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum number of runs to show")

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println(cli.FormatInfo("No analysis runs yet"))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(cli.ChartIcon + " Analysis Runs"))
	fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-18s %-17s %-10s %-8s %-10s %-8s",
		"CREATED", "ISSUE", "SCREENED", "MATCHES", "QUALIFIED", "SCORED")))
	for _, run := range runs {
		scored := "no"
		if run.ScoringUsed {
			scored = "yes"
		}
		fmt.Printf("%-18s %-17s %-10d %-8d %-10d %-8s  %s\n",
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.IssueType,
			run.TotalCustomers,
			run.MatchCount,
			run.QualifiedCount,
			scored,
			cli.SubtleStyle.Render(run.ID))
	}
	return nil
}
