// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"groupvault/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// against a plain pool or a transaction-bound handle.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toAnySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
