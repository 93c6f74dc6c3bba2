package zstream

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats counts one decode run. Counters only grow. Every line handed out
// is eventually counted once as accepted, filtered or invalid, so between
// pulls Lines equals the sum of the three.
type Stats struct {
	lines     atomic.Int64
	accepted  atomic.Int64
	filtered  atomic.Int64
	invalid   atomic.Int64
	bytesRead atomic.Int64

	bytesTotal int64
	target     int64
	start      time.Time
}

func (s *Stats) Accept() {
	s.accepted.Add(1)
	s.lines.Add(1)
}

func (s *Stats) Filter() {
	s.filtered.Add(1)
	s.lines.Add(1)
}

func (s *Stats) Invalid() {
	s.invalid.Add(1)
	s.lines.Add(1)
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Lines:      s.lines.Load(),
		Accepted:   s.accepted.Load(),
		Filtered:   s.filtered.Load(),
		Invalid:    s.invalid.Load(),
		BytesRead:  s.bytesRead.Load(),
		BytesTotal: s.bytesTotal,
		Target:     s.target,
		Elapsed:    time.Since(s.start),
	}
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Lines      int64
	Accepted   int64
	Filtered   int64
	Invalid    int64
	BytesRead  int64
	BytesTotal int64
	// Target is the expected line count, 0 when unknown.
	Target  int64
	Elapsed time.Duration
}

// Fraction of the input processed, by lines when the target is known and by
// compressed bytes otherwise.
func (s Snapshot) Fraction() float64 {
	var f float64
	switch {
	case s.Target > 0:
		f = float64(s.Lines) / float64(s.Target)
	case s.BytesTotal > 0:
		f = float64(s.BytesRead) / float64(s.BytesTotal)
	}
	return min(f, 1)
}

func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("lines", s.Lines),
		slog.Int64("accepted", s.Accepted),
		slog.Int64("filtered", s.Filtered),
		slog.Int64("invalid", s.Invalid),
		slog.Int64("bytes_read", s.BytesRead),
		slog.Int64("bytes_total", s.BytesTotal),
		slog.Duration("elapsed", s.Elapsed),
	)
}
