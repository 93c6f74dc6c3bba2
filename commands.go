package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"reddit-ingest/common"
	"reddit-ingest/config"
	"reddit-ingest/exports"
	"reddit-ingest/imports"
	"reddit-ingest/parsers"
	"reddit-ingest/sampling"
	"reddit-ingest/sanitize"
)

// openDB opens the configured database with the run ledger migrated.
func (a *app) openDB() (*gorm.DB, error) {
	db, err := common.Init(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := common.AutoMigrateJobs(db); err != nil {
		common.Close(db)
		return nil, fmt.Errorf("migrate run ledger: %w", err)
	}
	return db, nil
}

func (a *app) ingestCmd() *cobra.Command {
	var (
		commentFiles    []string
		submissionFiles []string
		fullFiles       []string
		table           string

		clear       bool
		strict      bool
		skipDone    bool
		acceptTail  bool
		maxCount    int64
		writeBuffer int
		insertBatch int
		backupDir   string
		manifest    string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Decode dumps and write accepted records",
		Example: "  reddit-ingest ingest --comments RC_2024-01.zst --submissions RS_2024-01.zst --clear\n" +
			"  reddit-ingest ingest --comments-full RC_2024-01.zst --strict",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			f := cmd.Flags()
			if f.Changed("clear") {
				cfg.Clear = clear
			}
			if f.Changed("strict") {
				cfg.Strict = strict
			}
			if f.Changed("skip-done") {
				cfg.SkipDone = skipDone
			}
			if f.Changed("accept-tail") && acceptTail {
				cfg.TailMode = "accept"
			}
			if f.Changed("max-count") {
				cfg.MaxCount = maxCount
			}
			if f.Changed("write-buffer-size") {
				cfg.WriteBufferSize = writeBuffer
			}
			if f.Changed("insert-batch-size") {
				cfg.InsertBatchSize = insertBatch
			}
			if f.Changed("backup-dir") {
				cfg.BackupDir = backupDir
			}
			if f.Changed("manifest") {
				cfg.Manifest = manifest
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			var inputs []imports.Input
			for _, set := range []struct {
				kind  string
				files []string
			}{
				{imports.KindComments, commentFiles},
				{imports.KindSubmissions, submissionFiles},
				{imports.KindFullComments, fullFiles},
			} {
				for _, path := range set.files {
					inputs = append(inputs, imports.Input{Path: path, Kind: set.kind, Table: table})
				}
			}
			if len(inputs) == 0 {
				return errors.New("no inputs, pass --comments, --submissions or --comments-full")
			}
			for _, input := range inputs {
				if err := input.Validate(); err != nil {
					return err
				}
			}

			backup, err := common.BackupDatabase(cfg.DBPath, cfg.BackupDir, time.Now())
			if err != nil {
				return err
			}
			if backup != "" {
				a.logger.Info("database backed up", "path", backup)
			}

			var lines parsers.Manifest
			if cfg.Manifest != "" {
				if lines, err = parsers.LoadManifest(cfg.Manifest); err != nil {
					return err
				}
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer common.Close(db)

			ing := imports.NewIngester(db, sanitize.New(sanitize.DefaultTables()), imports.Settings{
				Clear:           cfg.Clear,
				SkipDone:        cfg.SkipDone,
				MaxCount:        cfg.MaxCount,
				WriteBufferSize: cfg.WriteBufferSize,
				InsertBatchSize: cfg.InsertBatchSize,
				Strict:          cfg.Strict,
				DisallowUnknown: cfg.DisallowUnknown,
				Tail:            cfg.Tail(),
				ReportEvery:     cfg.ReportEvery,
				ErrorLimit:      cfg.ErrorLogLimit,
				Manifest:        lines,
			}, a.logger, os.Stderr)

			summaries, err := ing.Run(cmd.Context(), inputs)
			for _, s := range summaries {
				fmt.Fprint(cmd.OutOrStdout(), s)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&commentFiles, "comments", nil, "RC_* comment dumps")
	f.StringSliceVar(&submissionFiles, "submissions", nil, "RS_* submission dumps")
	f.StringSliceVar(&fullFiles, "comments-full", nil, "comment dumps kept with every field")
	f.StringVar(&table, "table", "", "destination table, defaults to main (comments for --comments-full)")
	f.BoolVar(&clear, "clear", false, "drop each destination table before writing")
	f.BoolVar(&strict, "strict", false, "abort on the first undecodable line")
	f.BoolVar(&skipDone, "skip-done", false, "skip inputs the run ledger marks completed")
	f.BoolVar(&acceptTail, "accept-tail", false, "decode a final line that has no newline")
	f.Int64Var(&maxCount, "max-count", 0, "stop after this many accepted records per input, 0 for all")
	f.IntVar(&writeBuffer, "write-buffer-size", 0, "records per transaction")
	f.IntVar(&insertBatch, "insert-batch-size", 0, "records per insert statement")
	f.StringVar(&backupDir, "backup-dir", "", "copy an existing database here before writing")
	f.StringVar(&manifest, "manifest", "", "CSV of file,lines used for progress")
	return cmd
}

func (a *app) sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Build random sample tables from main",
	}

	var (
		drop       bool
		users      int
		perMonth   int
		maxCreated int64
	)
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Sample regular users into r_users and moderators into r_mods",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				users = a.cfg.Sample.Users
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer common.Close(db)
			return sampling.Users(cmd.Context(), db, users, drop || a.cfg.Sample.Drop)
		},
	}
	usersCmd.Flags().IntVar(&users, "count", sampling.DefaultUsers, "rows per table")

	subredditCmd := &cobra.Command{
		Use:   "subreddit",
		Short: "Sample up to count rows per month into r_subreddit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				perMonth = a.cfg.Sample.Subreddit
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer common.Close(db)

			months, err := sampling.Subreddit(cmd.Context(), db, perMonth, maxCreated, drop || a.cfg.Sample.Drop)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MONTH\tROWS")
			for _, m := range months {
				fmt.Fprintf(tw, "%s\t%s\n", m.Label, humanize.Comma(m.Rows))
			}
			return tw.Flush()
		},
	}
	subredditCmd.Flags().IntVar(&perMonth, "count", sampling.DefaultSubreddit, "rows per month")
	subredditCmd.Flags().Int64Var(&maxCreated, "max-created", 0, "newest created_utc, defaults to the run ledger")

	cmd.PersistentFlags().BoolVar(&drop, "drop", false, "drop main and vacuum afterwards")
	cmd.AddCommand(usersCmd, subredditCmd)
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		tables []string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tables to CSV or NDJSON files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Export.Format
			}
			if !cmd.Flags().Changed("out") {
				out = a.cfg.Export.Dir
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer common.Close(db)

			if len(tables) == 0 {
				if tables, err = exports.SampleTables(cmd.Context(), db); err != nil {
					return err
				}
			}
			if len(tables) == 0 {
				return errors.New("nothing to export, run sample first or pass --table")
			}

			paths, err := exports.ExportAll(cmd.Context(), db, tables, out, format)
			for _, p := range paths {
				a.logger.Info("exported", "path", p)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&tables, "table", nil, "tables to export, defaults to every r_* table")
	f.StringVar(&format, "format", exports.FormatCSV, "csv or ndjson")
	f.StringVar(&out, "out", "exports", "output directory")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve run status and table exports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadServeEnv()
			if err != nil {
				return err
			}
			gin.SetMode(env.GinMode)

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer common.Close(db)

			r := gin.New()
			r.RedirectTrailingSlash = false
			r.Use(gin.Recovery(), common.MetricsMiddleware(a.logger))

			r.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})
			v1 := r.Group("/api/v1")
			imports.RegisterRoutes(v1.Group("/runs"))
			exports.RegisterRoutes(v1.Group("/exports"))

			srv := &http.Server{Addr: ":" + env.Port, Handler: r}
			errc := make(chan error, 1)
			go func() {
				a.logger.Info("server starting", "port", env.Port)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.logger.Info("server stopping")
			return srv.Shutdown(ctx)
		},
	}
}

func (a *app) runsCmd() *cobra.Command {
	var (
		limit  int
		status string
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the newest ingest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer common.Close(db)

			query := db.WithContext(cmd.Context()).Order("created_at DESC").Limit(limit)
			if status != "" {
				query = query.Where("status = ?", status)
			}
			var runs []common.IngestRun
			if err := query.Find(&runs).Error; err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tTABLE\tSTATUS\tLINES\tACCEPTED\tINVALID\tREAD\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID[:8], r.File, r.Table, r.Status,
					humanize.Comma(r.TotalLines), humanize.Comma(r.AcceptedLines), humanize.Comma(r.InvalidLines),
					humanize.IBytes(uint64(r.BytesRead)), humanize.Time(r.CreatedAt))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs")
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status")
	return cmd
}
