package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oakline/lettermill/internal/batch"
	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/config"
	"github.com/oakline/lettermill/internal/mailer"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/scoring"
	"github.com/oakline/lettermill/internal/service"
	"github.com/oakline/lettermill/internal/storage"
)

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newScorer builds the scoring collaborator from config, or returns nil when
// scoring is not configured. A nil scorer is not an error; classification
// falls back to rule-based results.
func newScorer(logger *slog.Logger) (*scoring.Scorer, error) {
	provider := viper.GetString("scoring.provider")
	endpoint := viper.GetString("scoring.endpoint")
	apiKey := viper.GetString("scoring.api_key")

	if endpoint == "" && apiKey == "" {
		return nil, nil
	}

	return scoring.NewScorer(scoring.Config{
		Provider:    provider,
		Endpoint:    endpoint,
		APIKey:      apiKey,
		Model:       viper.GetString("scoring.model"),
		MaxRetries:  viper.GetInt("scoring.max_retries"),
		RetryDelay:  viper.GetDuration("scoring.retry_delay"),
		CacheTTL:    viper.GetDuration("scoring.cache_ttl"),
		RateLimit:   viper.GetInt("scoring.rate_limit"),
		MaxTokens:   viper.GetInt("scoring.max_tokens"),
		Temperature: viper.GetFloat64("scoring.temperature"),
		Timeout:     viper.GetDuration("scoring.timeout"),
	}, logger)
}

// newMailer builds the outbound mailer. dryRun swaps in the logging mailer.
func newMailer(dryRun bool) (mailer.Mailer, error) {
	if dryRun {
		return &mailer.DryRunMailer{}, nil
	}

	return mailer.NewSMTPMailer(mailer.Config{
		Host:     viper.GetString("mail.host"),
		Port:     viper.GetInt("mail.port"),
		Username: viper.GetString("mail.username"),
		Password: viper.GetString("mail.password"),
		From:     viper.GetString("mail.from"),
	})
}

// addBatchFlags registers the shared batching flags on a pipeline command.
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("batch-size", 10, "Number of customers per batch")
	cmd.Flags().Int("max-concurrent", 3, "Maximum concurrent operations within a batch")
	cmd.Flags().Duration("item-delay", 100*time.Millisecond, "Delay between items within a batch")
	cmd.Flags().Duration("batch-delay", time.Second, "Pause between batches")
}

// batchConfigFromFlags builds a batch config from the shared flags.
func batchConfigFromFlags(cmd *cobra.Command) batch.Config {
	size, _ := cmd.Flags().GetInt("batch-size")
	concurrent, _ := cmd.Flags().GetInt("max-concurrent")
	itemDelay, _ := cmd.Flags().GetDuration("item-delay")
	batchDelay, _ := cmd.Flags().GetDuration("batch-delay")

	return batch.Config{
		BatchSize:     size,
		MaxConcurrent: concurrent,
		ItemDelay:     itemDelay,
		BatchDelay:    batchDelay,
	}
}

// resolveMatches loads the matches of an analysis run. With an empty runID
// the most recent run for the issue type is used.
func resolveMatches(ctx context.Context, store service.Storage, issueType model.IssueType, runID string) (string, []model.MatchResult, error) {
	if runID == "" {
		run, err := store.GetLatestRun(ctx, issueType)
		if err != nil {
			return "", nil, common.NewUserError(
				fmt.Sprintf("no analysis run found for %s; run 'lettermill analyze %s' first", issueType, issueType), err)
		}
		runID = run.ID
	}

	matches, err := store.GetRunMatches(ctx, runID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load matches for run %s: %w", runID, err)
	}
	return runID, matches, nil
}
