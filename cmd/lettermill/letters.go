package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oakline/lettermill/internal/batch"
	"github.com/oakline/lettermill/internal/cli"
	"github.com/oakline/lettermill/internal/config"
	"github.com/oakline/lettermill/internal/letters"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/pipeline"
	"github.com/oakline/lettermill/internal/service"
)

func lettersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "letters <issue-type>",
		Short: "Generate follow-up letters for the latest analysis run",
		Long: `Generate correspondence for every match in the most recent analysis run
of an issue type. Letters are written to the output directory as text files,
optionally with PDF copies.

A PDF failure downgrades that customer to text-only unless --require-pdf is
set, in which case the item is marked failed.`,
		Args: cobra.ExactArgs(1),
		RunE: runLetters,
	}

	cmd.Flags().StringP("output-dir", "o", "", "Directory for generated letters (default: ./letters)")
	cmd.Flags().Bool("pdf", false, "Also generate PDF copies")
	cmd.Flags().Bool("require-pdf", false, "Treat a PDF failure as a full item failure")
	cmd.Flags().StringP("message", "m", "", "Extra paragraph inserted into every letter")
	cmd.Flags().String("run", "", "Use a specific analysis run instead of the latest")
	addBatchFlags(cmd)

	return cmd
}

func runLetters(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	issueType, err := model.ParseIssueType(args[0])
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = viper.GetString("letters.output_dir")
	}
	if outputDir == "" {
		outputDir = config.DefaultOutputDir()
	}
	outputDir = config.ExpandPath(outputDir)

	generatePDF, _ := cmd.Flags().GetBool("pdf")
	requirePDF, _ := cmd.Flags().GetBool("require-pdf")
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
		fmt.Println(cli.FormatInfo("Latest run has no matches, nothing to generate"))
		return nil
	}

	renderer, err := letters.NewRenderer(viper.GetString("letters.bank_name"))
	if err != nil {
		return err
	}

	var pdf letters.PDFRenderer
	if generatePDF {
		pdf = letters.NewPDFRenderer(viper.GetString("letters.bank_name"))
	}

	p := pipeline.New(renderer, pdf, nil, slog.Default())
	report, err := p.GenerateLetters(ctx, matches, issueType, pipeline.LetterOptions{
		CustomMessage: customMessage,
		Batch:         batchConfigFromFlags(cmd),
		GeneratePDF:   generatePDF,
		RequirePDF:    requirePDF,
	})
	if err != nil {
		return fmt.Errorf("letter generation failed: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	written, err := writeLetterFiles(outputDir, issueType, report)
	if err != nil {
		return err
	}

	if err := store.SaveBatchReport(ctx, &service.BatchReport{
		RunID:     runID,
		Kind:      "letters",
		Total:     report.Stats.Total,
		Succeeded: report.Stats.Succeeded,
		Failed:    report.Stats.Failed,
		Skipped:   report.Stats.Skipped,
		Elapsed:   report.Stats.Elapsed,
	}); err != nil {
		slog.Warn("failed to save batch report", "error", err)
	}

	summary := fmt.Sprintf("Generated:  %s\nFailed:     %s\nOutput dir: %s",
		cli.BoldStyle.Render(fmt.Sprintf("%d", written)),
		cli.BoldStyle.Render(fmt.Sprintf("%d", report.Stats.Failed)),
		outputDir)
	fmt.Println(cli.RenderBox(cli.LetterIcon+" Letter Generation", summary))
	for _, res := range report.Results {
		if res.Status == batch.StatusFailed {
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %s", res.ItemKey, res.Message)))
		} else if res.Payload.PDFError != "" {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("%s: PDF skipped (%s)", res.ItemKey, res.Payload.PDFError)))
		}
	}
	return nil
}

// writeLetterFiles writes the successful artifacts to disk, one text file per
// customer plus the PDF copy when present.
func writeLetterFiles(dir string, issueType model.IssueType, report *batch.Report[pipeline.LetterArtifact]) (int, error) {
	bar := progressbar.Default(int64(report.Stats.Succeeded), "writing letters")

	written := 0
	for _, res := range report.Results {
		if res.Status != batch.StatusSuccess {
			continue
		}

		base := fmt.Sprintf("%s_%s", res.Payload.AccountNo, issueType)
		body := res.Payload.Letter.Subject + "\n\n" + res.Payload.Letter.Body
		if err := os.WriteFile(filepath.Join(dir, base+".txt"), []byte(body), 0644); err != nil {
			return written, fmt.Errorf("failed to write letter for %s: %w", res.Payload.AccountNo, err)
		}

		if len(res.Payload.PDF) > 0 {
			if err := os.WriteFile(filepath.Join(dir, base+".pdf"), res.Payload.PDF, 0644); err != nil {
				return written, fmt.Errorf("failed to write PDF for %s: %w", res.Payload.AccountNo, err)
			}
		}

		written++
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return written, nil
}
