package parsers

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddit-ingest/comments"
	"reddit-ingest/common"
	"reddit-ingest/sanitize"
	"reddit-ingest/zstream"
)

type note struct {
	Text string  `json:"text"`
	Tag  *string `json:"tag"`
}

func (n *note) Reset() { *n = note{} }

func (n *note) Valid(*sanitize.Sanitizer) bool { return n.Text != "skip" }

func lineSeq(lines ...string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, l := range lines {
			if !yield([]byte(l), nil) {
				return
			}
		}
	}
}

func withError(seq iter.Seq2[[]byte, error], err error) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for l, e := range seq {
			if !yield(l, e) {
				return
			}
		}
		yield(nil, err)
	}
}

type noteResult struct {
	Text string
	Tag  string
}

func drain(t *testing.T, seq iter.Seq2[*note, error]) ([]noteResult, error) {
	t.Helper()
	var out []noteResult
	for n, err := range seq {
		if err != nil {
			return out, err
		}
		r := noteResult{Text: n.Text}
		if n.Tag != nil {
			r.Tag = *n.Tag
		}
		out = append(out, r)
	}
	return out, nil
}

func TestRecords_Lenient(t *testing.T) {
	errs := common.NewLineErrorLog(10)
	p := New[note](nil, Options{Mode: Lenient, Errors: errs})
	stats := &zstream.Stats{}

	got, err := drain(t, p.Records(lineSeq(
		`{"text":"a","tag":"x"}`,
		`{"text":`,
		`{"text":"skip"}`,
		`{"text":"b","extra":{"nested":[1,2]}}`,
	), stats))

	require.NoError(t, err)
	assert.Equal(t, []noteResult{{"a", "x"}, {"b", ""}}, got, "tag must not leak into the next record")

	s := stats.Snapshot()
	assert.Equal(t, int64(4), s.Lines)
	assert.Equal(t, int64(2), s.Accepted)
	assert.Equal(t, int64(1), s.Filtered)
	assert.Equal(t, int64(1), s.Invalid)
	require.Len(t, errs.Entries(), 1)
	assert.Equal(t, int64(2), errs.Entries()[0].Line)
}

func TestRecords_Strict(t *testing.T) {
	p := New[note](nil, Options{Mode: Strict})
	stats := &zstream.Stats{}

	got, err := drain(t, p.Records(lineSeq(`{"text":"a"}`, `not json`, `{"text":"c"}`), stats))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	var lineErr *LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, int64(2), lineErr.Line)
	assert.Equal(t, []noteResult{{Text: "a"}}, got)
	assert.Equal(t, int64(1), stats.Snapshot().Invalid)
}

func TestRecords_DisallowUnknown(t *testing.T) {
	p := New[note](nil, Options{DisallowUnknown: true})
	stats := &zstream.Stats{}

	got, err := drain(t, p.Records(lineSeq(`{"text":"a"}`, `{"text":"b","other":1}`), stats))

	require.NoError(t, err)
	assert.Equal(t, []noteResult{{Text: "a"}}, got)
	assert.Equal(t, int64(1), stats.Snapshot().Invalid)
}

func TestRecords_TruncatedTail(t *testing.T) {
	truncated := fmt.Errorf("RC.zst: 5 bytes: %w", zstream.ErrTruncated)

	lenient := New[note](nil, Options{})
	stats := &zstream.Stats{}
	got, err := drain(t, lenient.Records(withError(lineSeq(`{"text":"a"}`), truncated), stats))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), stats.Snapshot().Invalid)

	strict := New[note](nil, Options{Mode: Strict})
	_, err = drain(t, strict.Records(withError(lineSeq(`{"text":"a"}`), truncated), &zstream.Stats{}))
	assert.ErrorIs(t, err, zstream.ErrTruncated)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestRecords_StreamErrorIsFatal(t *testing.T) {
	boom := errors.New("decompress: corrupt block")
	p := New[note](nil, Options{Mode: Lenient})
	stats := &zstream.Stats{}

	_, err := drain(t, p.Records(withError(lineSeq(`{"text":"a"}`), boom), stats))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), stats.Snapshot().Invalid)
}

func TestRecords_StopEarly(t *testing.T) {
	p := New[note](nil, Options{})
	stats := &zstream.Stats{}

	count := 0
	for _, err := range p.Records(lineSeq(`{"text":"a"}`, `{"text":"b"}`, `{"text":"c"}`), stats) {
		require.NoError(t, err)
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, int64(2), stats.Snapshot().Lines)
}

func TestRecords_Comments(t *testing.T) {
	p := New[comments.Comment](sanitize.New(sanitize.DefaultTables()), Options{})
	stats := &zstream.Stats{}
	body := "One. Two. Three. Four. Five."

	var ids []string
	for c, err := range p.Records(lineSeq(
		`{"id":"a","author":"x","body":"`+body+`","created_utc":"1700000000"}`,
		`{"id":"b","author":"AutoModerator","body":"`+body+`"}`,
		`{"id":"c","author":"y","body":"[deleted]"}`,
		`{"id":"d","author":"z","body":"`+body+`","created_utc":1700000001}`,
	), stats) {
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	assert.Equal(t, []string{"a", "d"}, ids)
	assert.Equal(t, int64(2), stats.Snapshot().Filtered)
}

func TestReadCSV(t *testing.T) {
	data := "file,lines\nRC_2024-01.zst,10\nRS_2024-01.zst\n"

	var rows []Row
	for row, err := range ReadCSV(strings.NewReader(data)) {
		require.NoError(t, err)
		rows = append(rows, row)
	}

	require.Len(t, rows, 2)
	assert.Equal(t, Row{"file": "RC_2024-01.zst", "lines": "10"}, rows[0])
	assert.Equal(t, Row{"file": "RS_2024-01.zst", "lines": ""}, rows[1])
}

func TestReadCSV_Empty(t *testing.T) {
	count := 0
	for _, err := range ReadCSV(strings.NewReader("")) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(strings.NewReader("file,lines\n/data/RC_2024-01.zst, 1200\nRS_2024-01.zst,30\n"))
	require.NoError(t, err)

	assert.Equal(t, int64(1200), m.Lines("elsewhere/RC_2024-01.zst"))
	assert.Equal(t, int64(30), m.Lines("RS_2024-01.zst"))
	assert.Equal(t, int64(0), m.Lines("RC_1999-01.zst"))
}

func TestParseManifest_Invalid(t *testing.T) {
	_, err := ParseManifest(strings.NewReader("file,lines\nRC.zst,many\n"))
	assert.ErrorContains(t, err, "row 2")

	_, err = ParseManifest(strings.NewReader("file,lines\n,3\n"))
	assert.ErrorContains(t, err, "file is required")
}

func TestLoadManifest_EmptyPath(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	assert.Empty(t, m)
}
