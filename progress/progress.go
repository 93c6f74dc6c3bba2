// Package progress renders decode progress on a terminal and summarizes
// finished runs.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"reddit-ingest/zstream"
)

const barLen = 50

// Reporter rewrites a single status line. A nil Reporter prints nothing.
type Reporter struct {
	w       io.Writer
	name    string
	lastLen int
}

// New returns nil when w is nil.
func New(w io.Writer, name string) *Reporter {
	if w == nil {
		return nil
	}
	return &Reporter{w: w, name: name}
}

// Update redraws the status line.
func (r *Reporter) Update(s zstream.Snapshot) {
	if r == nil {
		return
	}
	line := Line(r.name, s)
	pad := ""
	if len(line) < r.lastLen {
		pad = strings.Repeat(" ", r.lastLen-len(line))
	}
	fmt.Fprint(r.w, "\r"+line+pad)
	r.lastLen = len(line)
}

// Done draws the final state and ends the line.
func (r *Reporter) Done(s zstream.Snapshot) {
	if r == nil {
		return
	}
	r.Update(s)
	fmt.Fprintln(r.w)
	r.lastLen = 0
}

// Line formats one status line:
// name -- (lines/filtered/invalid = read/total) -- [===   ] 12.00% -- eta
func Line(name string, s zstream.Snapshot) string {
	f := s.Fraction()
	filled := int(math.Floor(f * barLen))
	return fmt.Sprintf("%s -- (%d/%d/%d = %s/%s) -- [%s%s] %.2f%% -- %s",
		name,
		s.Lines, s.Filtered, s.Invalid,
		humanize.IBytes(uint64(s.BytesRead)), humanize.IBytes(uint64(s.BytesTotal)),
		strings.Repeat("=", filled), strings.Repeat(" ", barLen-filled),
		100*f,
		eta(f, s.Elapsed),
	)
}

func eta(f float64, elapsed time.Duration) string {
	switch {
	case f >= 1:
		return "Done"
	case f <= 0:
		return "Unknown"
	}
	left := time.Duration((1/f - 1) * float64(elapsed))
	return left.Round(time.Second).String()
}

// Summary describes one processed input.
type Summary struct {
	File       string
	Table      string
	Lines      int64
	Accepted   int64
	Filtered   int64
	Invalid    int64
	Elapsed    time.Duration
	BytesRead  int64
	BytesTotal int64
	Skipped    bool
}

func NewSummary(file, table string, s zstream.Snapshot) Summary {
	return Summary{
		File:       file,
		Table:      table,
		Lines:      s.Lines,
		Accepted:   s.Accepted,
		Filtered:   s.Filtered,
		Invalid:    s.Invalid,
		Elapsed:    s.Elapsed,
		BytesRead:  s.BytesRead,
		BytesTotal: s.BytesTotal,
	}
}

// LinesPerSecond is the decode throughput over all lines seen.
func (s Summary) LinesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Lines) / s.Elapsed.Seconds()
}

func (s Summary) String() string {
	if s.Skipped {
		return fmt.Sprintf("%s: skipped, already in %s\n", s.File, s.Table)
	}
	return fmt.Sprintf("%s: %s/%s\nSize read: %s/%s\nTime elapsed: %s\nLines/s: %s\n",
		s.File,
		humanize.Comma(s.Lines), humanize.Comma(s.Accepted),
		humanize.IBytes(uint64(s.BytesRead)), humanize.IBytes(uint64(s.BytesTotal)),
		s.Elapsed.Round(time.Millisecond),
		humanize.CommafWithDigits(s.LinesPerSecond(), 1),
	)
}

func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("file", s.File),
		slog.String("table", s.Table),
		slog.Int64("lines", s.Lines),
		slog.Int64("accepted", s.Accepted),
		slog.Int64("filtered", s.Filtered),
		slog.Int64("invalid", s.Invalid),
		slog.Duration("elapsed", s.Elapsed),
		slog.Float64("lines_per_second", s.LinesPerSecond()),
		slog.Int64("bytes_read", s.BytesRead),
		slog.Int64("bytes_total", s.BytesTotal),
	)
}
