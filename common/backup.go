package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var ErrBackupNotDir = errors.New("backup path must be a directory")

// BackupDatabase writes a consistent copy of an existing database into dir
// as backup_<dd_mm_HH-MM-SS>.db and returns the new path. The copy is taken
// by SQLite, so transactions still held in the write-ahead log are
// included. Nothing is copied when dir is empty or the database does not
// exist yet.
func BackupDatabase(dbPath, dir string, now time.Time) (string, error) {
	if dir == "" {
		return "", nil
	}
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return "", fmt.Errorf("%s: %w", dir, ErrBackupNotDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, "backup_"+now.Format("02_01_15-04-05")+".db")
	if err := vacuumInto(dbPath, dst); err != nil {
		return "", fmt.Errorf("backup %s: %w", dbPath, err)
	}
	return dst, nil
}

func vacuumInto(src, dst string) error {
	db, err := Open(src)
	if err != nil {
		return err
	}
	defer Close(db)
	return db.Exec("VACUUM INTO ?", dst).Error
}
