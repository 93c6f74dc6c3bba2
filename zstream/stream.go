// Package zstream decodes zstd compressed NDJSON files into lines.
package zstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	// InChunkSize and OutChunkSize match libzstd's recommended streaming
	// buffer sizes.
	InChunkSize  = 131075
	OutChunkSize = 131072

	// MaxWindow allows the 2 GiB windows used by the Pushshift archives.
	MaxWindow = 1 << 31
)

var (
	// ErrTruncated is returned for bytes after the last newline.
	ErrTruncated = errors.New("truncated final record")
	ErrConsumed  = errors.New("lines already consumed")
)

// TailMode decides what happens to a final record with no newline.
type TailMode int

const (
	// TailInvalid reports the tail as ErrTruncated.
	TailInvalid TailMode = iota
	// TailAccept hands the tail out as a regular line.
	TailAccept
)

type Option func(*Decoder)

// WithChunkSizes overrides the read and decompress buffer sizes.
func WithChunkSizes(in, out int) Option {
	return func(d *Decoder) {
		if in > 0 {
			d.inSize = in
		}
		if out > 0 {
			d.outSize = out
		}
	}
}

// WithTarget sets the expected number of lines, used for progress only.
func WithTarget(lines int64) Option {
	return func(d *Decoder) { d.stats.target = lines }
}

func WithTail(mode TailMode) Option {
	return func(d *Decoder) { d.tail = mode }
}

// WithReport calls fn after every n lines have been consumed.
func WithReport(n int64, fn func(Snapshot)) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.every, d.report = n, fn
		}
	}
}

// Decoder owns a compressed file and its decompression state.
type Decoder struct {
	name string
	file *os.File
	zr   *zstd.Decoder

	inSize  int
	outSize int
	tail    TailMode
	every   int64
	report  func(Snapshot)

	stats    *Stats
	produced int64
	used     bool
}

// Open opens path for decoding.
func Open(path string, opts ...Option) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	d := &Decoder{
		name:    filepath.Base(path),
		file:    f,
		inSize:  InChunkSize,
		outSize: OutChunkSize,
		stats:   &Stats{bytesTotal: info.Size(), start: time.Now()},
	}
	for _, opt := range opts {
		opt(d)
	}

	src := &chunkReader{r: f, size: d.inSize, n: &d.stats.bytesRead}
	d.zr, err = zstd.NewReader(src,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(MaxWindow),
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return d, nil
}

// Name is the base name of the file.
func (d *Decoder) Name() string { return d.name }

func (d *Decoder) Stats() *Stats { return d.stats }

// Close releases the decoder and the file.
func (d *Decoder) Close() error {
	d.zr.Close()
	return d.file.Close()
}

// Lines returns the newline separated lines of the decompressed stream in
// order, without the newline. Empty lines are skipped. A yielded slice is
// only valid until the next pull. The sequence can be ranged over once.
func (d *Decoder) Lines() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if d.used {
			yield(nil, ErrConsumed)
			return
		}
		d.used = true

		out := make([]byte, d.outSize)
		var carry []byte
		for {
			n, err := d.zr.Read(out)
			chunk := out[:n]
			for len(chunk) > 0 {
				i := bytes.IndexByte(chunk, '\n')
				if i < 0 {
					carry = append(carry, chunk...)
					break
				}
				line := chunk[:i]
				chunk = chunk[i+1:]
				if len(carry) > 0 {
					carry = append(carry, line...)
					line = carry
				}
				if len(line) > 0 && !d.emit(yield, line) {
					return
				}
				carry = carry[:0]
			}

			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(nil, fmt.Errorf("decompress %s: %w", d.name, err))
				return
			}
		}

		if len(carry) == 0 {
			return
		}
		if d.tail == TailAccept {
			d.emit(yield, carry)
			return
		}
		yield(nil, fmt.Errorf("%s: %d bytes: %w", d.name, len(carry), ErrTruncated))
	}
}

func (d *Decoder) emit(yield func([]byte, error) bool, line []byte) bool {
	d.produced++
	if !yield(line, nil) {
		return false
	}
	if d.report != nil && d.produced%d.every == 0 {
		d.report(d.stats.Snapshot())
	}
	return true
}

// chunkReader hands out at most size bytes per Read and counts them.
type chunkReader struct {
	r    io.Reader
	size int
	n    *atomic.Int64
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.size {
		p = p[:c.size]
	}
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
