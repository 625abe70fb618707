package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oakline/lettermill/internal/batch"
	"github.com/oakline/lettermill/internal/cli"
	"github.com/oakline/lettermill/internal/letters"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/pipeline"
	"github.com/oakline/lettermill/internal/service"
)

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify <issue-type>",
		Short: "Email notifications for the latest analysis run",
		Long: `Send a notification email to every match in the most recent analysis run
of an issue type. Customers without an email address on file are skipped.

A failed send marks that one customer failed; the rest of the batch
continues. Use --dry-run to log the emails instead of sending them.`,
		Args: cobra.ExactArgs(1),
		RunE: runNotify,
	}

	cmd.Flags().Bool("dry-run", false, "Log emails instead of sending them")
	cmd.Flags().StringP("message", "m", "", "Extra paragraph inserted into every email")
	cmd.Flags().String("run", "", "Use a specific analysis run instead of the latest")
	addBatchFlags(cmd)

	return cmd
}

func runNotify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	issueType, err := model.ParseIssueType(args[0])
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	customMessage, _ := cmd.Flags().GetString("message")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runFlag, _ := cmd.Flags().GetString("run")
	runID, matches, err := resolveMatches(ctx, store, issueType, runFlag)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println(cli.FormatInfo("Latest run has no matches, nothing to send"))
		return nil
	}

	renderer, err := letters.NewRenderer(viper.GetString("letters.bank_name"))
	if err != nil {
		return err
	}

	m, err := newMailer(dryRun)
	if err != nil {
		return fmt.Errorf("failed to configure mailer: %w", err)
	}

	p := pipeline.New(renderer, nil, m, slog.Default())
	report, err := p.SendNotifications(ctx, matches, issueType, pipeline.EmailOptions{
		CustomMessage: customMessage,
		Batch:         batchConfigFromFlags(cmd),
	})
	if err != nil {
		return fmt.Errorf("email dispatch failed: %w", err)
	}

	if err := store.SaveBatchReport(ctx, &service.BatchReport{
		RunID:     runID,
		Kind:      "email",
		Total:     report.Stats.Total,
		Succeeded: report.Stats.Succeeded,
		Failed:    report.Stats.Failed,
		Skipped:   report.Stats.Skipped,
		Elapsed:   report.Stats.Elapsed,
	}); err != nil {
		slog.Warn("failed to save batch report", "error", err)
	}

	summary := fmt.Sprintf("Sent:    %s of %d\nFailed:  %s\nSkipped: %s",
		cli.BoldStyle.Render(fmt.Sprintf("%d", report.Stats.Succeeded)),
		report.Stats.Total,
		cli.BoldStyle.Render(fmt.Sprintf("%d", report.Stats.Failed)),
		cli.BoldStyle.Render(fmt.Sprintf("%d", report.Stats.Skipped)))
	fmt.Println(cli.RenderBox(cli.MailIcon+" Email Dispatch", summary))
	for _, res := range report.Results {
		switch res.Status {
		case batch.StatusFailed:
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %s", res.ItemKey, res.Message)))
		case batch.StatusSkipped:
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  %s skipped: %s", res.ItemKey, res.Message)))
		}
	}
	return nil
}
