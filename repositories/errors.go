package repositories

import (
	"context"
	"errors"

	"novabyte-blog/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// translateError maps driver and gorm errors onto the model error kinds.
// Cancellation wins over everything else so callers can tell a client that
// went away from a broken store.
func translateError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorCanceled{Op: op, Err: err}
	}
	if isDuplicate(err) {
		return models.ErrorConflict{Message: op + ": record already exists", Err: err}
	}
	return models.ErrorStoreFailure{Op: op, Err: err}
}

// translateLookup is translateError for single-row reads.
func translateLookup(ctx context.Context, resource, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrorNotFound{Resource: resource, ID: id}
	}
	return translateError(ctx, "select "+resource, err)
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
