package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oakline/lettermill/internal/model"
)

// SaveCustomers upserts customer records keyed by account number and returns
// the number of records written. Re-importing the same file is idempotent.
func (s *SQLiteStorage) SaveCustomers(ctx context.Context, customers []model.CustomerRecord) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateCustomers(customers); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved, err := saveCustomersTx(ctx, tx, customers)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit customers: %w", err)
	}
	return saved, nil
}

// ReplaceCustomers clears the customer table and writes a fresh import.
func (s *SQLiteStorage) ReplaceCustomers(ctx context.Context, customers []model.CustomerRecord) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateCustomers(customers); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM customers"); err != nil {
		return 0, fmt.Errorf("failed to clear customers: %w", err)
	}

	saved, err := saveCustomersTx(ctx, tx, customers)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit customers: %w", err)
	}
	return saved, nil
}

func saveCustomersTx(ctx context.Context, tx *sql.Tx, customers []model.CustomerRecord) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO customers (account_no, data)
		VALUES (?, ?)
		ON CONFLICT(account_no) DO UPDATE SET
			data = excluded.data,
			imported_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	saved := 0
	for _, customer := range customers {
		data, marshalErr := json.Marshal(customer)
		if marshalErr != nil {
			return 0, fmt.Errorf("failed to marshal customer %s: %w", customer.AccountNo(), marshalErr)
		}
		if _, execErr := stmt.ExecContext(ctx, customer.AccountNo(), string(data)); execErr != nil {
			return 0, fmt.Errorf("failed to save customer %s: %w", customer.AccountNo(), execErr)
		}
		saved++
	}
	return saved, nil
}

// GetCustomers returns every stored customer record in import order.
func (s *SQLiteStorage) GetCustomers(ctx context.Context) ([]model.CustomerRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM customers ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var customers []model.CustomerRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		var record model.CustomerRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
		}
		customers = append(customers, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}

// CountCustomers returns the number of stored customer records.
func (s *SQLiteStorage) CountCustomers(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}
