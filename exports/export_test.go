package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reddit-ingest/common"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := common.Open(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	t.Cleanup(func() { common.Close(db) })
	return db
}

func seed(t *testing.T, db *gorm.DB, table string, n int) {
	t.Helper()
	require.NoError(t, db.Exec(fmt.Sprintf(`CREATE TABLE "%s" (body TEXT, id TEXT, score INTEGER) STRICT`, table)).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < n; i++ {
			err := tx.Exec(fmt.Sprintf(`INSERT INTO "%s" VALUES (?, ?, ?)`, table),
				fmt.Sprintf("body, \"%d\"", i), fmt.Sprintf("id%d", i), i).Error
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestWriteTable_CSV(t *testing.T) {
	db := openDB(t)
	seed(t, db, "r_users", BatchSize+3)

	var buf bytes.Buffer
	n, err := WriteTable(context.Background(), db, "r_users", FormatCSV, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(BatchSize+3), n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, BatchSize+4)
	assert.Equal(t, []string{"body", "id", "score"}, records[0])
	assert.Equal(t, []string{`body, "0"`, "id0", "0"}, records[1])
	assert.Equal(t, []string{fmt.Sprintf(`body, "%d"`, BatchSize+2), fmt.Sprintf("id%d", BatchSize+2), fmt.Sprint(BatchSize + 2)}, records[BatchSize+3])
}

func TestWriteTable_NDJSON(t *testing.T) {
	db := openDB(t)
	seed(t, db, "r_mods", 2)

	var buf bytes.Buffer
	n, err := WriteTable(context.Background(), db, "r_mods", FormatNDJSON, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `{"body":`), lines[0])

	var row struct {
		Body  string `json:"body"`
		ID    string `json:"id"`
		Score int64  `json:"score"`
	}
	require.NoError(t, sonic.UnmarshalString(lines[1], &row))
	assert.Equal(t, `body, "1"`, row.Body)
	assert.Equal(t, "id1", row.ID)
	assert.Equal(t, int64(1), row.Score)
}

func TestWriteTable_Errors(t *testing.T) {
	db := openDB(t)

	_, err := WriteTable(context.Background(), db, "missing", FormatCSV, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoSuchTable)

	_, err = WriteTable(context.Background(), db, "missing", "xml", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSampleTablesAndExportAll(t *testing.T) {
	db := openDB(t)
	seed(t, db, "main", 3)
	seed(t, db, "r_users", 2)
	seed(t, db, "r_subreddit", 1)
	seed(t, db, "rx", 1)

	tables, err := SampleTables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"r_subreddit", "r_users"}, tables)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := ExportAll(context.Background(), db, tables, dir, FormatNDJSON)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Equal(t, ".ndjson", filepath.Ext(p))
		assert.Equal(t, dir, filepath.Dir(p))
	}

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestStreamExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := openDB(t)
	seed(t, db, "r_users", 2)
	prev := common.DB
	common.DB = db
	t.Cleanup(func() { common.DB = prev })

	r := gin.New()
	RegisterRoutes(r.Group("/exports"))

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"csv", "/exports?table=r_users", http.StatusOK},
		{"ndjson", "/exports?table=r_users&format=ndjson", http.StatusOK},
		{"no table", "/exports", http.StatusBadRequest},
		{"bad format", "/exports?table=r_users&format=xml", http.StatusBadRequest},
		{"missing table", "/exports?table=nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports?table=r_users&format=ndjson", nil))
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".ndjson")
	assert.Equal(t, 2, strings.Count(w.Body.String(), "\n"))
}
