package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakline/lettermill/internal/cli"
	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/engine"
	"github.com/oakline/lettermill/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <issue-type>",
		Short: "Classify customers for an issue type",
		Long: `Screen every imported customer against the rule for an issue type and
save the resulting matches as an analysis run.

Issue types: account_closure, kyc_update, loan_default, fee_waiver,
document_expiry.

With --use-scoring, matches are additionally submitted to the configured
scoring service for confidence scores and refined priorities. Scoring
failures fall back to the rule-based result.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().Bool("use-scoring", false, "Submit matches to the external scoring service")
	cmd.Flags().Int("scoring-cap", engine.DefaultScoringCap, "Maximum matches submitted for scoring")
	cmd.Flags().Float64("min-confidence", engine.DefaultMinConfidence, "Confidence threshold for the qualified count")
	cmd.Flags().Bool("no-save", false, "Print the analysis without saving a run")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	issueType, err := model.ParseIssueType(args[0])
	if err != nil {
		return err
	}

	useScoring, _ := cmd.Flags().GetBool("use-scoring")
	scoringCap, _ := cmd.Flags().GetInt("scoring-cap")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	noSave, _ := cmd.Flags().GetBool("no-save")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	customers, err := store.GetCustomers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}
	if len(customers) == 0 {
		return common.NewUserError("no customers in database; run 'lettermill import' first", common.ErrNoCustomers)
	}

	var eng *engine.Engine
	if useScoring {
		scorer, scorerErr := newScorer(slog.Default())
		if scorerErr != nil {
			return scorerErr
		}
		if scorer == nil {
			slog.Warn("scoring requested but not configured, using rule-based results only")
			eng = engine.New(nil, slog.Default())
			useScoring = false
		} else {
			defer scorer.Close()
			eng = engine.New(scorer, slog.Default())
		}
	} else {
		eng = engine.New(nil, slog.Default())
	}

	result, err := eng.Classify(ctx, customers, issueType, engine.Options{
		UseScoring:    useScoring,
		ScoringCap:    scoringCap,
		MinConfidence: minConfidence,
	})
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	printAnalysis(result)

	if noSave {
		return nil
	}

	runID, err := store.SaveAnalysis(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved analysis run %s", runID)))
	return nil
}

func printAnalysis(result *model.AnalysisResult) {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Analysis", result.IssueType.Title())))
	fmt.Printf("  Customers screened: %d\n", result.TotalCustomers)
	fmt.Printf("  Matches:            %d\n", len(result.Matches))
	fmt.Printf("  Qualified:          %d\n", result.QualifiedCount)
	if result.ScoringUsed {
		fmt.Println("  Scoring:            " + cli.FormatInfo("external"))
	} else {
		fmt.Println("  Scoring:            rule-based")
	}

	if len(result.Insights) > 0 {
		fmt.Println()
		fmt.Println(cli.SubtitleStyle.Render("Insights"))
		keys := make([]string, 0, len(result.Insights))
		for k := range result.Insights {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-20s %d\n", strings.ReplaceAll(k, "_", " "), result.Insights[k])
		}
	}

	if len(result.Matches) > 0 {
		fmt.Println()
		fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-14s %-8s %-10s %s", "ACCOUNT", "CONF", "PRIORITY", "REASON")))
		for _, m := range result.Matches {
			fmt.Printf("%-14s %-8s %-19s %s\n",
				m.AccountNo(),
				cli.FormatConfidence(m.Confidence),
				cli.FormatPriority(m.Priority),
				m.Reason)
		}
	}
	fmt.Println()
}
