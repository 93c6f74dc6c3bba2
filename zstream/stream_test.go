package zstream

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZst(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.zst")

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func collect(t *testing.T, d *Decoder) ([]string, error) {
	t.Helper()
	var lines []string
	for line, err := range d.Lines() {
		if err != nil {
			return lines, err
		}
		lines = append(lines, string(line))
	}
	return lines, nil
}

func openLines(t *testing.T, path string, opts ...Option) ([]string, error) {
	t.Helper()
	d, err := Open(path, opts...)
	require.NoError(t, err)
	defer d.Close()
	return collect(t, d)
}

func sampleLines() []string {
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, fmt.Sprintf(`{"id":"%d","body":"%s"}`, i, strings.Repeat("x", (i*37)%500)))
	}
	return lines
}

func TestLines_ChunkBoundariesMatchUnchunked(t *testing.T) {
	want := sampleLines()
	path := writeZst(t, []byte(strings.Join(want, "\n")+"\n"))

	whole, err := openLines(t, path)
	require.NoError(t, err)
	assert.Equal(t, want, whole)

	for _, sizes := range [][2]int{{3, 7}, {1, 1}, {64, 13}, {InChunkSize, 100}} {
		t.Run(fmt.Sprintf("in=%d out=%d", sizes[0], sizes[1]), func(t *testing.T) {
			got, err := openLines(t, path, WithChunkSizes(sizes[0], sizes[1]))
			require.NoError(t, err)
			assert.Equal(t, whole, got)
		})
	}
}

func TestLines_RecordLongerThanManyChunks(t *testing.T) {
	long := `{"body":"` + strings.Repeat("abcdefghij", 1000) + `"}`
	path := writeZst(t, []byte("{}\n"+long+"\n{}\n"))

	got, err := openLines(t, path, WithChunkSizes(16, 16))
	require.NoError(t, err)
	assert.Equal(t, []string{"{}", long, "{}"}, got)
}

func TestLines_SkipsEmptyLines(t *testing.T) {
	path := writeZst(t, []byte("a\n\n\nb\n"))

	got, err := openLines(t, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestLines_TruncatedTail(t *testing.T) {
	path := writeZst(t, []byte("a\nb\n{\"partial\""))

	got, err := openLines(t, path, WithChunkSizes(0, 4))
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = openLines(t, path, WithTail(TailAccept))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", `{"partial"`}, got)
}

func TestLines_CorruptStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	require.NoError(t, os.WriteFile(path, []byte("this is not zstd at all\n"), 0o644))

	_, err := openLines(t, path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTruncated))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.zst"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLines_OnlyOnce(t *testing.T) {
	d, err := Open(writeZst(t, []byte("a\n")))
	require.NoError(t, err)
	defer d.Close()

	_, err = collect(t, d)
	require.NoError(t, err)
	_, err = collect(t, d)
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestLines_StopEarly(t *testing.T) {
	d, err := Open(writeZst(t, []byte(strings.Join(sampleLines(), "\n"))), WithChunkSizes(8, 8))
	require.NoError(t, err)
	defer d.Close()

	var got []string
	for line, err := range d.Lines() {
		require.NoError(t, err)
		got = append(got, string(line))
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
	assert.Equal(t, sampleLines()[:2], got)
}

func TestLines_ReportsAndCounts(t *testing.T) {
	path := writeZst(t, []byte("1\n2\n3\n4\n5\n"))

	var reports []Snapshot
	d, err := Open(path, WithReport(2, func(s Snapshot) { reports = append(reports, s) }), WithTarget(5))
	require.NoError(t, err)
	defer d.Close()

	for line, err := range d.Lines() {
		require.NoError(t, err)
		if line[0] == '3' {
			d.Stats().Filter()
		} else {
			d.Stats().Accept()
		}
	}

	require.Len(t, reports, 2)
	assert.Equal(t, int64(2), reports[0].Lines)
	assert.Equal(t, int64(4), reports[1].Lines)
	assert.InDelta(t, 0.8, reports[1].Fraction(), 1e-9)

	final := d.Stats().Snapshot()
	assert.Equal(t, int64(5), final.Lines)
	assert.Equal(t, final.Lines, final.Accepted+final.Filtered+final.Invalid)
	assert.Positive(t, final.BytesRead)
	assert.LessOrEqual(t, final.BytesRead, final.BytesTotal)
	assert.Equal(t, "input.zst", d.Name())
}

func TestSnapshot_Fraction(t *testing.T) {
	assert.Equal(t, 0.0, Snapshot{}.Fraction())
	assert.Equal(t, 0.25, Snapshot{BytesRead: 25, BytesTotal: 100}.Fraction())
	assert.Equal(t, 0.5, Snapshot{Lines: 5, Target: 10, BytesRead: 1, BytesTotal: 100}.Fraction())
	assert.Equal(t, 1.0, Snapshot{Lines: 20, Target: 10}.Fraction())
}
