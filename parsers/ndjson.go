package parsers

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/bytedance/sonic"

	"reddit-ingest/common"
	"reddit-ingest/sanitize"
	"reddit-ingest/zstream"
)

// Record is a reusable decode target.
type Record interface {
	// Reset clears every field so nothing leaks from the previous line.
	Reset()
	// Valid reports whether the record should be kept and may rewrite its
	// text fields.
	Valid(*sanitize.Sanitizer) bool
}

// Ptr is a pointer to R that implements Record.
type Ptr[R any] interface {
	*R
	Record
}

type Mode int

const (
	// Lenient counts and skips lines that fail to decode.
	Lenient Mode = iota
	// Strict stops at the first line that fails to decode.
	Strict
)

var ErrDecode = errors.New("decode failed")

// LineError is a decode failure on a given record line.
type LineError struct {
	Line int64
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

type Options struct {
	Mode Mode
	// DisallowUnknown makes keys without a matching field a decode failure.
	DisallowUnknown bool
	// Errors collects decode failures, may be nil.
	Errors *common.LineErrorLog
	Logger *slog.Logger
}

// Decoded strings are copied because input lines live in reused buffers.
var (
	lenientAPI = sonic.Config{CopyString: true}.Froze()
	strictAPI  = sonic.Config{CopyString: true, DisallowUnknownFields: true}.Froze()
)

// Parser turns JSON lines into records of type R.
type Parser[R any, P Ptr[R]] struct {
	api    sonic.API
	san    *sanitize.Sanitizer
	mode   Mode
	errs   *common.LineErrorLog
	logger *slog.Logger
}

func New[R any, P Ptr[R]](san *sanitize.Sanitizer, opts Options) *Parser[R, P] {
	p := &Parser[R, P]{
		api:    lenientAPI,
		san:    san,
		mode:   opts.Mode,
		errs:   opts.Errors,
		logger: opts.Logger,
	}
	if opts.DisallowUnknown {
		p.api = strictAPI
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Decode resets rec and fills it from line.
func (p *Parser[R, P]) Decode(line []byte, rec *R) error {
	P(rec).Reset()
	return p.api.Unmarshal(line, rec)
}

// Records decodes and filters lines, yielding accepted records in order.
// One record value is reused, so a yielded record is only valid until the
// next pull. Every line is counted in stats. Errors from lines other than a
// truncated tail end the sequence.
func (p *Parser[R, P]) Records(lines iter.Seq2[[]byte, error], stats *zstream.Stats) iter.Seq2[*R, error] {
	return func(yield func(*R, error) bool) {
		rec := new(R)
		var n int64

		for line, err := range lines {
			n++
			if err != nil && !errors.Is(err, zstream.ErrTruncated) {
				yield(nil, err)
				return
			}
			if err == nil {
				err = p.Decode(line, rec)
			}

			if err != nil {
				stats.Invalid()
				p.errs.Add(n, err)
				if p.mode == Strict {
					yield(nil, &LineError{Line: n, Err: err})
					return
				}
				p.logger.Debug("skipping undecodable line", "line", n, "error", err)
				continue
			}

			if !P(rec).Valid(p.san) {
				stats.Filter()
				continue
			}
			stats.Accept()
			if !yield(rec, nil) {
				return
			}
		}
	}
}
