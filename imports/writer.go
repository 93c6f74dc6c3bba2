package imports

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"gorm.io/gorm"

	"reddit-ingest/schema"
)

const (
	// DefaultWriteBufferSize is the number of records committed per
	// transaction.
	DefaultWriteBufferSize = 50000

	// DefaultInsertBatchSize is the number of records bound per statement.
	DefaultInsertBatchSize = 50
)

var ErrUnknownTable = errors.New("unknown table")

type Options struct {
	// MaxCount stops the write after this many records, 0 for no limit.
	MaxCount        int64
	WriteBufferSize int
	InsertBatchSize int
}

// Result describes a finished write.
type Result struct {
	Table      string
	Written    int64
	Statements int64
	Commits    int64
	// MaxCreated is the newest created_utc written, for records that have
	// one.
	MaxCreated int64
}

// Writer appends records of type R to one table.
type Writer[R any] struct {
	db     *gorm.DB
	schema *schema.Schema[R]
	logger *slog.Logger
}

// NewWriter looks table up in tables and creates it if needed. With clear
// set the table is dropped first.
func NewWriter[R any](ctx context.Context, db *gorm.DB, tables map[string]*schema.Schema[R], table string, clear bool) (*Writer[R], error) {
	s, ok := tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	w := &Writer[R]{db: db, schema: s, logger: slog.Default().With("table", table)}
	if clear {
		if err := w.Clear(ctx); err != nil {
			return nil, err
		}
	}
	if err := db.WithContext(ctx).Exec(s.CreateTable()).Error; err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return w, nil
}

// Clear drops the table and reclaims its space.
func (w *Writer[R]) Clear(ctx context.Context) error {
	db := w.db.WithContext(ctx)
	if err := db.Exec("DROP TABLE IF EXISTS " + w.schema.Name()).Error; err != nil {
		return fmt.Errorf("drop table %s: %w", w.schema.Name(), err)
	}
	if err := db.Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	w.logger.Info("cleared table")
	return nil
}

func (w *Writer[R]) Schema() *schema.Schema[R] { return w.schema }

// Write drains src into the table in source order. Full batches go through
// one prepared multi-row INSERT, the last partial batch through a one-off
// statement. The transaction is committed every WriteBufferSize records and
// at the end. On error the open transaction is rolled back and earlier
// commits stay.
func (w *Writer[R]) Write(ctx context.Context, src iter.Seq2[*R, error], opts Options) (Result, error) {
	res := Result{Table: w.schema.Name()}

	batch := opts.InsertBatchSize
	if batch <= 0 {
		batch = DefaultInsertBatchSize
	}
	bufSize := opts.WriteBufferSize
	if bufSize <= 0 {
		bufSize = DefaultWriteBufferSize
	}
	if batch*w.schema.Len() > schema.MaxVariables {
		return res, fmt.Errorf("insert batch of %d rows needs %d variables, limit is %d",
			batch, batch*w.schema.Len(), schema.MaxVariables)
	}

	sqlDB, err := w.db.DB()
	if err != nil {
		return res, err
	}
	stmt, err := sqlDB.PrepareContext(ctx, w.schema.Insert(batch))
	if err != nil {
		return res, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()
	txStmt := tx.StmtContext(ctx, stmt)

	args := make([]any, 0, batch*w.schema.Len())
	pending := 0
	uncommitted := 0

	flushPartial := func() error {
		if pending == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, w.schema.Insert(pending), args...); err != nil {
			return fmt.Errorf("insert %d rows: %w", pending, err)
		}
		res.Statements++
		clear(args)
		args, pending = args[:0], 0
		return nil
	}

	commit := func() error {
		if err := flushPartial(); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		tx = nil
		res.Commits++
		uncommitted = 0
		w.logger.Debug("committed", "written", res.Written)
		return nil
	}

	for rec, err := range src {
		if err != nil {
			return res, err
		}

		args = w.schema.Values(args, rec)
		pending++
		if c, ok := any(rec).(interface{ Created() int64 }); ok {
			res.MaxCreated = max(res.MaxCreated, c.Created())
		}

		if pending == batch {
			if _, err := txStmt.ExecContext(ctx, args...); err != nil {
				return res, fmt.Errorf("insert batch: %w", err)
			}
			res.Statements++
			clear(args)
			args, pending = args[:0], 0
		}
		res.Written++
		uncommitted++

		if uncommitted >= bufSize {
			if err := commit(); err != nil {
				return res, err
			}
			if tx, err = sqlDB.BeginTx(ctx, nil); err != nil {
				return res, err
			}
			txStmt = tx.StmtContext(ctx, stmt)
		}

		if opts.MaxCount > 0 && res.Written >= opts.MaxCount {
			break
		}
	}

	if err := commit(); err != nil {
		return res, err
	}
	return res, nil
}

// Count returns the number of rows in the writer's table.
func (w *Writer[R]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := w.db.WithContext(ctx).Table(w.schema.Name()).Count(&n).Error
	return n, err
}
