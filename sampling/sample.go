// Package sampling draws random sample tables from the ingested main table.
package sampling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"reddit-ingest/codes"
	"reddit-ingest/comments"
	"reddit-ingest/common"
)

const (
	UsersTable     = "r_users"
	ModsTable      = "r_mods"
	SubredditTable = "r_subreddit"
	MonthsTable    = "months"

	DefaultUsers     = 5000
	DefaultSubreddit = 1000

	// FirstYear is the first year with archived activity.
	FirstYear = 2005
)

// Window is how far back from the newest record months are sampled.
const Window = (365 + 31) * 24 * time.Hour

// Month is one sampled calendar month.
type Month struct {
	Label string
	Start int64
	Rows  int64
}

// Users builds r_users and r_mods, each up to count random rows of main
// written by regular users and moderators.
func Users(ctx context.Context, db *gorm.DB, count int, drop bool) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range []struct {
			table string
			code  int
		}{{UsersTable, codes.DistinguishedUser}, {ModsTable, codes.DistinguishedMod}} {
			if err := tx.Exec("DROP TABLE IF EXISTS " + t.table).Error; err != nil {
				return err
			}
			err := tx.Exec(fmt.Sprintf(
				"CREATE TABLE %s AS SELECT * FROM %s WHERE rowid IN (SELECT rowid FROM %s WHERE distinguished = ? ORDER BY RANDOM() LIMIT ?)",
				t.table, comments.MainTable, comments.MainTable), t.code, count).Error
			if err != nil {
				return fmt.Errorf("sample %s: %w", t.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("sampled users", "tables", []string{UsersTable, ModsTable}, "count", count)

	if drop {
		return dropMain(ctx, db)
	}
	return nil
}

// Months returns the first instant of every month from FirstYear through
// the year of last that falls within Window before last.
func Months(last time.Time) []time.Time {
	last = last.UTC()
	first := last.Add(-Window)

	var months []time.Time
	for year := FirstYear; year <= last.Year(); year++ {
		for month := time.January; month <= time.December; month++ {
			t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			if t.Before(first) || t.After(last) {
				continue
			}
			months = append(months, t)
		}
	}
	return months
}

// Subreddit builds the months table and r_subreddit, which takes up to
// count random rows of main per month. A maxCreated of zero falls back to
// the run ledger and then to main itself.
func Subreddit(ctx context.Context, db *gorm.DB, count int, maxCreated int64, drop bool) ([]Month, error) {
	if maxCreated <= 0 {
		var err error
		if maxCreated, err = newestCreated(ctx, db); err != nil {
			return nil, err
		}
	}

	starts := Months(time.Unix(maxCreated, 0))
	months := make([]Month, 0, len(starts))

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmts := []string{
			"DROP TABLE IF EXISTS " + SubredditTable,
			comments.Main.CreateTableAs(SubredditTable),
			"DROP TABLE IF EXISTS " + MonthsTable,
			"CREATE TABLE " + MonthsTable + " (month TEXT, timestamp INTEGER)",
		}
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}

		for i, start := range starts {
			m := Month{Label: start.Format("01/2006"), Start: start.Unix()}
			if err := tx.Exec("INSERT INTO "+MonthsTable+" (month, timestamp) VALUES (?, ?)", m.Label, m.Start).Error; err != nil {
				return err
			}

			where, args := "created_utc >= ?", []any{m.Start}
			if i < len(starts)-1 {
				where += " AND created_utc < ?"
				args = append(args, starts[i+1].Unix())
			}
			args = append(args, count)

			res := tx.Exec(fmt.Sprintf(
				"INSERT INTO %s SELECT * FROM %s WHERE rowid IN (SELECT rowid FROM %s WHERE %s ORDER BY RANDOM() LIMIT ?)",
				SubredditTable, comments.MainTable, comments.MainTable, where), args...)
			if res.Error != nil {
				return fmt.Errorf("sample %s: %w", m.Label, res.Error)
			}
			m.Rows = res.RowsAffected
			months = append(months, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("sampled subreddit", "table", SubredditTable, "months", len(months), "newest", maxCreated)

	if drop {
		return months, dropMain(ctx, db)
	}
	return months, nil
}

func newestCreated(ctx context.Context, db *gorm.DB) (int64, error) {
	db = db.WithContext(ctx)
	var newest int64
	if db.Migrator().HasTable(&common.IngestRun{}) {
		var err error
		if newest, err = common.MaxCreatedUTC(db, comments.MainTable); err != nil || newest > 0 {
			return newest, err
		}
	}
	err := db.Raw("SELECT COALESCE(MAX(created_utc), 0) FROM " + comments.MainTable).Scan(&newest).Error
	return newest, err
}

func dropMain(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec("DROP TABLE " + comments.MainTable).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec("VACUUM").Error
}
