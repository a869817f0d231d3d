package repository

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// storeError wraps a driver failure into a TransportError. The PostgreSQL
// message is kept when the server supplied one.
func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	message := domain.ErrTransport.Error()
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		message = pgErr.Message
	}

	return &domain.TransportError{Op: op, Message: message, Err: err}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isForeignKeyViolation reports a write referencing a missing row. Every
// foreign key in the schema points at profiles.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// IsNotFound reports whether err means the requested row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
