package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/lettermill/internal/common"
	"github.com/oakline/lettermill/internal/model"
	"github.com/oakline/lettermill/internal/storage"
)

func TestBatchConfigFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addBatchFlags(cmd)

	require.NoError(t, cmd.Flags().Set("batch-size", "25"))
	require.NoError(t, cmd.Flags().Set("max-concurrent", "5"))
	require.NoError(t, cmd.Flags().Set("item-delay", "50ms"))

	cfg := batchConfigFromFlags(cmd)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 5, cfg.MaxConcurrent)
	assert.Equal(t, 50*time.Millisecond, cfg.ItemDelay)
	assert.Equal(t, time.Second, cfg.BatchDelay)
}

func TestNewMailerDryRun(t *testing.T) {
	m, err := newMailer(true)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestResolveMatchesMissingRun(t *testing.T) {
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "lettermill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	_, _, err = resolveMatches(ctx, store, model.IssueKYCUpdate, "")
	require.Error(t, err)

	// The guidance message surfaces to the user; the cause stays inspectable.
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "lettermill analyze kyc_update")
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}
