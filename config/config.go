package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cenv "github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	kfile "github.com/knadh/koanf/providers/file"
	kfn "github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides, e.g. RI_LOG__LEVEL=debug.
const EnvPrefix = "RI_"

// Load builds the configuration from struct defaults, the optional file at
// path (YAML or JSON) and RI_ environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("error applying defaults: %w", err)
	}

	k := kfn.New(".")
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}
	if err := loadEnv(k, envProvider()); err != nil {
		return nil, err
	}

	if err := k.UnmarshalWithConf("", cfg, kfn.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(k *kfn.Koanf, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err = os.Stat(absPath); err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	var parser kfn.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return &UnsupportedExtensionError{Extension: ext}
	}

	if err = k.Load(kfile.Provider(absPath), parser); err != nil {
		return fmt.Errorf("error loading config file: %w", err)
	}
	return nil
}

// envProvider maps RI_FOO__BAR to foo.bar.
func envProvider() kfn.Provider {
	return kenv.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
}

func loadEnv(k *kfn.Koanf, p kfn.Provider) error {
	if err := k.Load(p, nil); err != nil {
		return fmt.Errorf("error loading environment: %w", err)
	}
	return nil
}

// Validate checks field rules and that a transaction holds whole insert
// batches.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(Config)
		if c.InsertBatchSize > 0 && c.WriteBufferSize%c.InsertBatchSize != 0 {
			sl.ReportError(c.WriteBufferSize, "WriteBufferSize", "write_buffer_size", "multiple_of_insert_batch_size", "")
		}
	}, Config{})
	return validate.Struct(cfg)
}

// LoadServeEnv reads the serve command's environment.
func LoadServeEnv() (ServeEnv, error) {
	var env ServeEnv
	if err := cenv.Parse(&env); err != nil {
		return env, fmt.Errorf("failed to load environment configuration: %w", err)
	}
	return env, nil
}

type UnsupportedExtensionError struct {
	Extension string
}

func (e *UnsupportedExtensionError) Error() string {
	return "unsupported config file extension: " + e.Extension
}
