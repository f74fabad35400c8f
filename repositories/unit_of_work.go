package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"novabyte-blog/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Clock stamps created_on and created_at columns.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// Transactor runs fn inside a unit of work, joining the one already on ctx
// if there is one.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type workKey struct{}

// UnitOfWork opens transactions on the shared pool. It holds no per-request
// state; each open transaction lives in a Work bound to a context.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Work is a single open transaction owned by the request that began it.
type Work struct {
	tx   *gorm.DB
	ctx  context.Context
	done bool
}

func (u *UnitOfWork) Begin(ctx context.Context) (*Work, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrorCanceled{Op: "begin transaction", Err: err}
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, translateError(ctx, "begin transaction", tx.Error)
	}

	w := &Work{tx: tx}
	w.ctx = context.WithValue(ctx, workKey{}, w)
	return w, nil
}

// Context returns the context repositories must receive to run inside this
// work.
func (w *Work) Context() context.Context {
	return w.ctx
}

func (w *Work) Commit() error {
	if w.done {
		return models.ErrorStoreFailure{Op: "commit transaction", Err: sql.ErrTxDone}
	}
	w.done = true
	if err := w.tx.Commit().Error; err != nil {
		return translateError(w.ctx, "commit transaction", err)
	}
	return nil
}

// Cancel rolls back. It is a no-op once the work has been committed or
// cancelled.
func (w *Work) Cancel() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return translateError(w.ctx, "rollback transaction", err)
	}
	return nil
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := workFrom(ctx); ok {
		return fn(ctx)
	}

	w, err := u.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = w.Cancel()
			panic(p)
		}
		if err != nil {
			if cerr := w.Cancel(); cerr != nil {
				zerolog.Ctx(ctx).Warn().Err(cerr).Msg("rollback failed")
			}
		}
	}()

	if err = fn(w.Context()); err != nil {
		return err
	}
	return w.Commit()
}

func workFrom(ctx context.Context) (*Work, bool) {
	w, ok := ctx.Value(workKey{}).(*Work)
	if !ok || w.done {
		return nil, false
	}
	return w, true
}

// conn picks the executor for a repository call: the open transaction on
// ctx, else the pool.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if w, ok := workFrom(ctx); ok {
		return w.tx
	}
	return db.WithContext(ctx)
}

// readBackMissing turns an empty read-back after a write into an invariant
// violation. Other errors pass through.
func readBackMissing(err error, resource, id string) error {
	if models.IsNotFound(err) {
		return models.ErrorInvariantViolation{Message: fmt.Sprintf("%s %s not visible after write", resource, id)}
	}
	return err
}
