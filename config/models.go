package config

import (
	"reddit-ingest/zstream"
)

// Config holds every option of an ingest, sample or export invocation.
type Config struct {
	DBPath    string `koanf:"db_path" default:"reddit.db" validate:"required"`
	BackupDir string `koanf:"backup_dir"`

	Clear           bool   `koanf:"clear"`
	SkipDone        bool   `koanf:"skip_done"`
	MaxCount        int64  `koanf:"max_count" validate:"gte=0"`
	WriteBufferSize int    `koanf:"write_buffer_size" default:"50000" validate:"gte=1"`
	InsertBatchSize int    `koanf:"insert_batch_size" default:"50" validate:"gte=1"`
	Strict          bool   `koanf:"strict"`
	DisallowUnknown bool   `koanf:"disallow_unknown"`
	TailMode        string `koanf:"tail_mode" default:"invalid" validate:"oneof=invalid accept"`
	ReportEvery     int64  `koanf:"report_every" default:"100000" validate:"gte=0"`
	ErrorLogLimit   int    `koanf:"error_log_limit" default:"100" validate:"gte=0"`
	Manifest        string `koanf:"manifest"`

	Sample SampleConfig `koanf:"sample"`
	Export ExportConfig `koanf:"export"`
	Log    LogConfig    `koanf:"log"`
}

type SampleConfig struct {
	Users     int  `koanf:"users" default:"5000" validate:"gte=1"`
	Subreddit int  `koanf:"subreddit" default:"1000" validate:"gte=1"`
	Drop      bool `koanf:"drop"`
}

type ExportConfig struct {
	Dir    string `koanf:"dir" default:"exports"`
	Format string `koanf:"format" default:"csv" validate:"oneof=csv ndjson"`
}

type LogConfig struct {
	Level  string `koanf:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" default:"text" validate:"oneof=text json"`
}

// Tail maps tail_mode to the decoder setting.
func (c *Config) Tail() zstream.TailMode {
	if c.TailMode == "accept" {
		return zstream.TailAccept
	}
	return zstream.TailInvalid
}

// ServeEnv is read from the process environment by the serve command.
type ServeEnv struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`
}
