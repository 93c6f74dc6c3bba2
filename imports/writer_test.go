package imports

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reddit-ingest/common"
	"reddit-ingest/schema"
)

type item struct {
	ID   string
	N    int64
	Flag int
	TS   int64
}

func (i *item) Created() int64 { return i.TS }

var itemSchema = schema.New("items",
	schema.Column[item]{Key: "id", Type: schema.Text, Extract: func(i *item) string { return i.ID }},
	schema.Column[item]{Key: "n", Type: schema.Integer, Extract: func(i *item) string { return schema.Int(i.N) }},
	schema.Column[item]{Key: "flag", Type: schema.Boolean, Extract: func(i *item) string { return schema.Int(i.Flag) }},
)

func itemTables() map[string]*schema.Schema[item] {
	return map[string]*schema.Schema[item]{"items": itemSchema}
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := common.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { common.Close(db) })
	require.NoError(t, common.AutoMigrateJobs(db))
	return db
}

func makeItems(n int) []item {
	items := make([]item, n)
	for i := range items {
		items[i] = item{ID: fmt.Sprintf("id-%02d", i), N: int64(i * 10), TS: int64(1000 + i)}
	}
	return items
}

// itemSeq yields items and counts how many were pulled.
func itemSeq(items []item, pulled *int, fail error) iter.Seq2[*item, error] {
	return func(yield func(*item, error) bool) {
		for i := range items {
			if pulled != nil {
				*pulled++
			}
			rec := items[i]
			if !yield(&rec, nil) {
				return
			}
		}
		if fail != nil {
			yield(nil, fail)
		}
	}
}

func readIDs(t *testing.T, db *gorm.DB, table string) []string {
	t.Helper()
	var ids []string
	require.NoError(t, db.Raw("SELECT id FROM " + table + " ORDER BY rowid").Scan(&ids).Error)
	return ids
}

func TestNewWriter_UnknownTable(t *testing.T) {
	db := openDB(t)

	_, err := NewWriter(context.Background(), db, itemTables(), "nope", false)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestWrite_FlushesPartialTail(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	w, err := NewWriter(ctx, db, itemTables(), "items", false)
	require.NoError(t, err)

	items := makeItems(12)
	res, err := w.Write(ctx, itemSeq(items, nil, nil), Options{InsertBatchSize: 5})
	require.NoError(t, err)

	assert.Equal(t, int64(12), res.Written)
	assert.Equal(t, int64(3), res.Statements, "two full batches and one partial")
	assert.Equal(t, int64(1), res.Commits)
	assert.Equal(t, int64(1011), res.MaxCreated)

	n, err := w.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	want := make([]string, len(items))
	for i, it := range items {
		want[i] = it.ID
	}
	assert.Equal(t, want, readIDs(t, db, "items"), "rows keep source order")
}

func TestWrite_CommitsEveryBuffer(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	w, err := NewWriter(ctx, db, itemTables(), "items", false)
	require.NoError(t, err)

	res, err := w.Write(ctx, itemSeq(makeItems(10), nil, nil), Options{InsertBatchSize: 2, WriteBufferSize: 4})
	require.NoError(t, err)

	assert.Equal(t, int64(10), res.Written)
	assert.Equal(t, int64(5), res.Statements)
	assert.Equal(t, int64(3), res.Commits)
}

func TestWrite_MaxCountStopsPulling(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	w, err := NewWriter(ctx, db, itemTables(), "items", false)
	require.NoError(t, err)

	pulled := 0
	res, err := w.Write(ctx, itemSeq(makeItems(20), &pulled, nil), Options{MaxCount: 7, InsertBatchSize: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(7), res.Written)
	assert.Equal(t, 7, pulled)
	assert.Len(t, readIDs(t, db, "items"), 7)
}

func TestWrite_SourceErrorKeepsCommittedRows(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	w, err := NewWriter(ctx, db, itemTables(), "items", false)
	require.NoError(t, err)

	boom := errors.New("line 7: bad json")
	_, err = w.Write(ctx, itemSeq(makeItems(6), nil, boom), Options{InsertBatchSize: 2, WriteBufferSize: 4})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"id-00", "id-01", "id-02", "id-03"}, readIDs(t, db, "items"))
}

func TestWrite_StoreFaultRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	w, err := NewWriter(ctx, db, itemTables(), "items", false)
	require.NoError(t, err)

	items := makeItems(5)
	items[3].Flag = 2
	_, err = w.Write(ctx, itemSeq(items, nil, nil), Options{InsertBatchSize: 2})

	require.Error(t, err)
	assert.Empty(t, readIDs(t, db, "items"))
}

func TestWrite_StrictTableRejectsText(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	bad := schema.New("bad",
		schema.Column[item]{Key: "n", Type: schema.Integer, Extract: func(i *item) string { return "not a number" }},
	)
	w, err := NewWriter(ctx, db, map[string]*schema.Schema[item]{"bad": bad}, "bad", false)
	require.NoError(t, err)

	_, err = w.Write(ctx, itemSeq(makeItems(1), nil, nil), Options{})
	assert.Error(t, err)
}

func TestWrite_TooManyVariables(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	w, err := NewWriter(ctx, db, itemTables(), "items", false)
	require.NoError(t, err)

	_, err = w.Write(ctx, itemSeq(makeItems(1), nil, nil), Options{InsertBatchSize: 20000})
	assert.ErrorContains(t, err, "variables")
}

func TestNewWriter_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	var runs [][]string
	for i := 0; i < 2; i++ {
		w, err := NewWriter(ctx, db, itemTables(), "items", true)
		require.NoError(t, err)
		_, err = w.Write(ctx, itemSeq(makeItems(9), nil, nil), Options{InsertBatchSize: 4})
		require.NoError(t, err)
		runs = append(runs, readIDs(t, db, "items"))
	}

	assert.Len(t, runs[0], 9)
	assert.Equal(t, runs[0], runs[1])

	w, err := NewWriter(ctx, db, itemTables(), "items", false)
	require.NoError(t, err)
	_, err = w.Write(ctx, itemSeq(makeItems(9), nil, nil), Options{InsertBatchSize: 4})
	require.NoError(t, err)
	assert.Len(t, readIDs(t, db, "items"), 18, "without clear rows are appended")
}
