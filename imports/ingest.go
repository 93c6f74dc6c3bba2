package imports

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"gorm.io/gorm"

	"reddit-ingest/comments"
	"reddit-ingest/common"
	"reddit-ingest/parsers"
	"reddit-ingest/progress"
	"reddit-ingest/sanitize"
	"reddit-ingest/schema"
	"reddit-ingest/submissions"
	"reddit-ingest/zstream"
)

// Record layouts an input can hold.
const (
	KindComments     = "comments"
	KindSubmissions  = "submissions"
	KindFullComments = "comments-full"
)

// Input is one dump file and the table it goes to.
type Input struct {
	Path  string
	Kind  string
	Table string
}

// DefaultTable returns the table a kind is written to when none is given.
func DefaultTable(kind string) string {
	if kind == KindFullComments {
		return comments.FullTable
	}
	return comments.MainTable
}

// Validate reports an unknown kind, or a table the kind has no schema for.
func (i Input) Validate() error {
	table := i.Table
	if table == "" {
		table = DefaultTable(i.Kind)
	}
	var ok bool
	switch i.Kind {
	case KindComments:
		_, ok = comments.Tables()[table]
	case KindSubmissions:
		_, ok = submissions.Tables()[table]
	case KindFullComments:
		_, ok = comments.FullTables()[table]
	default:
		return fmt.Errorf("unknown input kind %q", i.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: %s for %s input %s", ErrUnknownTable, table, i.Kind, i.Path)
	}
	return nil
}

// Settings control every input of an ingest.
type Settings struct {
	Clear           bool
	SkipDone        bool
	MaxCount        int64
	WriteBufferSize int
	InsertBatchSize int
	Strict          bool
	DisallowUnknown bool
	Tail            zstream.TailMode
	ReportEvery     int64
	ErrorLimit      int
	Manifest        parsers.Manifest
}

// Ingester runs inputs one after another against a single database. It
// is not safe for concurrent use.
type Ingester struct {
	db       *gorm.DB
	san      *sanitize.Sanitizer
	settings Settings
	logger   *slog.Logger
	out      io.Writer
	cleared  map[string]bool
}

// NewIngester writes progress lines to out, which may be nil.
func NewIngester(db *gorm.DB, san *sanitize.Sanitizer, settings Settings, logger *slog.Logger, out io.Writer) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		db:       db,
		san:      san,
		settings: settings,
		logger:   logger,
		out:      out,
		cleared:  map[string]bool{},
	}
}

// Run ingests inputs in order and stops at the first failure.
func (in *Ingester) Run(ctx context.Context, inputs []Input) ([]progress.Summary, error) {
	summaries := make([]progress.Summary, 0, len(inputs))
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}
		summary, _, err := in.Ingest(ctx, input)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Ingest writes one input and records it in the run ledger.
func (in *Ingester) Ingest(ctx context.Context, input Input) (progress.Summary, *common.IngestRun, error) {
	if input.Table == "" {
		input.Table = DefaultTable(input.Kind)
	}
	name := filepath.Base(input.Path)
	logger := in.logger.With("file", name, "table", input.Table)

	if in.settings.SkipDone {
		done, err := common.FindCompletedRun(in.db, name, input.Table)
		if err != nil {
			return progress.Summary{}, nil, err
		}
		if done != nil {
			logger.Info("skipping input already ingested", "run_id", done.ID)
			return progress.Summary{File: name, Table: input.Table, Skipped: true}, done, nil
		}
	}

	run := common.NewIngestRun(name, input.Table, input.Kind)
	run.Status = common.JobStatusRunning
	if err := in.db.Create(run).Error; err != nil {
		return progress.Summary{}, nil, fmt.Errorf("create run: %w", err)
	}
	logger.Info("ingest started", "run_id", run.ID, "kind", input.Kind)

	var summary progress.Summary
	var err error
	switch input.Kind {
	case KindComments:
		summary, err = ingestFile[comments.Comment](ctx, in, input, comments.Tables(), run)
	case KindSubmissions:
		summary, err = ingestFile[submissions.Submission](ctx, in, input, submissions.Tables(), run)
	case KindFullComments:
		summary, err = ingestFile[comments.Full](ctx, in, input, comments.FullTables(), run)
	default:
		err = fmt.Errorf("unknown input kind %q", input.Kind)
	}

	run.Finish(err)
	if saveErr := in.db.Save(run).Error; saveErr != nil && err == nil {
		err = fmt.Errorf("save run: %w", saveErr)
	}
	if err != nil {
		logger.Error("ingest failed", "run_id", run.ID, "error", err)
		return summary, run, err
	}
	logger.Info("ingest finished", "run_id", run.ID, "summary", summary)
	return summary, run, nil
}

func ingestFile[R any, P parsers.Ptr[R]](ctx context.Context, in *Ingester, input Input, tables map[string]*schema.Schema[R], run *common.IngestRun) (progress.Summary, error) {
	clear := in.settings.Clear && !in.cleared[input.Table]
	w, err := NewWriter(ctx, in.db, tables, input.Table, clear)
	if err != nil {
		return progress.Summary{}, err
	}
	if clear {
		in.cleared[input.Table] = true
	}

	reporter := progress.New(in.out, run.File)
	opts := []zstream.Option{
		zstream.WithTarget(in.settings.Manifest.Lines(input.Path)),
		zstream.WithTail(in.settings.Tail),
	}
	if reporter != nil {
		opts = append(opts, zstream.WithReport(in.settings.ReportEvery, reporter.Update))
	}
	dec, err := zstream.Open(input.Path, opts...)
	if err != nil {
		return progress.Summary{}, err
	}
	defer dec.Close()

	errs := common.NewLineErrorLog(in.settings.ErrorLimit)
	mode := parsers.Lenient
	if in.settings.Strict {
		mode = parsers.Strict
	}
	p := parsers.New[R, P](in.san, parsers.Options{
		Mode:            mode,
		DisallowUnknown: in.settings.DisallowUnknown,
		Errors:          errs,
		Logger:          in.logger.With("file", run.File),
	})

	res, werr := w.Write(ctx, p.Records(dec.Lines(), dec.Stats()), Options{
		MaxCount:        in.settings.MaxCount,
		WriteBufferSize: in.settings.WriteBufferSize,
		InsertBatchSize: in.settings.InsertBatchSize,
	})

	snap := dec.Stats().Snapshot()
	reporter.Done(snap)

	run.TotalLines = snap.Lines
	run.AcceptedLines = snap.Accepted
	run.FilteredLines = snap.Filtered
	run.InvalidLines = snap.Invalid
	run.BytesRead = snap.BytesRead
	run.BytesTotal = snap.BytesTotal
	run.MaxCreatedUTC = res.MaxCreated
	run.Errors = errs.ToJSON()

	return progress.NewSummary(run.File, input.Table, snap), werr
}
