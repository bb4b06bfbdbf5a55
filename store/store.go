// Package store is the transactional adapter over gorm used by the lifecycle
// managers. Every read-then-write sequence runs inside WithTransaction, which
// bounds it with a timeout, retries transient failures and classifies driver
// errors into utils.AppError categories.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/yeremiapane/restaurant-floor/metrics"
	"github.com/yeremiapane/restaurant-floor/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultRetries = 3
	defaultBackoff = 20 * time.Millisecond
)

// MySQL server error numbers
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlRowReferenced   = 1451
)

type Options struct {
	// Timeout bounds a single transaction attempt.
	Timeout time.Duration
	// Retries is how many extra attempts a transient failure gets.
	Retries int
	Backoff time.Duration
}

type Store struct {
	db        *gorm.DB
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	txOptions *sql.TxOptions
}

func New(db *gorm.DB, opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}

	s := &Store{
		db:      db,
		timeout: opts.Timeout,
		retries: opts.Retries,
		backoff: opts.Backoff,
	}

	// SQLite transactions are serializable already and the driver rejects
	// explicit isolation levels.
	if db.Dialector.Name() != "sqlite" {
		s.txOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return s
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTransaction runs fn in a serializable transaction. fn commits by
// returning nil; any error rolls everything back. fn may run more than once
// when the store reports contention, so it must not have side effects outside
// tx.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	for attempt := 0; ; attempt++ {
		err := s.transactOnce(ctx, fn)
		if err == nil {
			return nil
		}

		err = Classify(err)
		if utils.KindOf(err) != utils.KindTransient || attempt >= s.retries || ctx.Err() != nil {
			return err
		}

		metrics.TxRetriesTotal.Inc()
		utils.InfoLogger.WithError(err).WithField("attempt", attempt+1).Warn("retrying transaction")

		select {
		case <-time.After(s.backoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return Classify(ctx.Err())
		}
	}
}

// Read runs fn outside of a transaction with the same timeout and error
// classification.
func (s *Store) Read(ctx context.Context, fn func(db *gorm.DB) error) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := fn(s.db.WithContext(tctx)); err != nil {
		return Classify(err)
	}
	return nil
}

// Ping checks connectivity within the store timeout.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Classify(err)
	}
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return Classify(sqlDB.PingContext(tctx))
}

func (s *Store) transactOnce(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db := s.db.WithContext(tctx)
	var err error
	if s.txOptions != nil {
		err = db.Transaction(fn, s.txOptions)
	} else {
		err = db.Transaction(fn)
	}

	// database/sql reports ErrTxDone once the deadline aborted the transaction
	var appErr *utils.AppError
	if err != nil && tctx.Err() != nil && !errors.As(err, &appErr) {
		return fmt.Errorf("%w: %v", tctx.Err(), err)
	}
	return err
}

// ForUpdate adds a row lock to the next query on dialects that support it.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Classify maps driver and context errors onto the application taxonomy.
// AppErrors pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return utils.ErrTransient("store operation timed out", err)
	case errors.Is(err, context.Canceled):
		return utils.ErrTransient("store operation cancelled", err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrNotFound("record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.ErrConflict("record already exists")
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return utils.ErrTransient("store contention, retry the operation", err)
		case mysqlDuplicateEntry:
			return utils.ErrConflict("record already exists")
		case mysqlRowReferenced:
			return utils.ErrConflict("record is still referenced")
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.Code == sqlite3.ErrBusy, liteErr.Code == sqlite3.ErrLocked:
			return utils.ErrTransient("store contention, retry the operation", err)
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique, liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return utils.ErrConflict("record already exists")
		case liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return utils.ErrConflict("record is still referenced")
		}
	}

	return utils.ErrInternal("store failure", err)
}
