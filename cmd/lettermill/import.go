package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/oakline/lettermill/internal/cli"
	"github.com/oakline/lettermill/internal/ingest"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import customer records from a spreadsheet",
		Long: `Import customer records from a branch export file (.csv or .xlsx).

Headers are normalized onto canonical field names, so "Account No",
"ACCOUNTNO" and "account_number" all map to the same field. Rows without an
account number are dropped. Re-importing updates existing records in place.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("replace", false, "Clear existing customers before importing")
	cmd.Flags().Bool("dry-run", false, "Parse the file without saving anything")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	replace, _ := cmd.Flags().GetBool("replace")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	reader, err := ingest.ReaderFor(path, slog.Default())
	if err != nil {
		return err
	}

	result, err := reader.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if result.Dropped > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d rows dropped (no account number)", result.Dropped)))
	}

	if dryRun {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("Dry run: %d customers parsed from %s", len(result.Customers), path)))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var saved int
	if replace {
		saved, err = store.ReplaceCustomers(ctx, result.Customers)
	} else {
		saved, err = store.SaveCustomers(ctx, result.Customers)
	}
	if err != nil {
		return fmt.Errorf("failed to save customers: %w", err)
	}

	total, err := store.CountCustomers(ctx)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d customers (%d total in database)", saved, total)))
	return nil
}
