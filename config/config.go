// Package config loads the optional .codesentry.yaml run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	cerrors "github.com/codesentry/codesentry/errors"
	"gopkg.in/yaml.v3"
)

// FileName is looked up in the root of the analyzed project.
const FileName = ".codesentry.yaml"

const (
	AccessKeyEnv = "CODESENTRY_UPLOAD_ACCESS_KEY"
	SecretKeyEnv = "CODESENTRY_UPLOAD_SECRET_KEY"
)

const (
	DefaultTimeoutSeconds = 300
	DefaultMaxChars       = 6000
)

type Config struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxChars       int     `yaml:"max_chars"`
	Strict         bool    `yaml:"strict"`
	OutDir         string  `yaml:"out_dir"`
	MetricsFile    string  `yaml:"metrics_file"`
	Summary        Summary `yaml:"summary"`
	Upload         Upload  `yaml:"upload"`
}

type Summary struct {
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Upload describes an S3-compatible bucket receiving the report files.
type Upload struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether enough is configured to attempt an upload.
func (u Upload) Enabled() bool {
	return u.Endpoint != "" && u.Bucket != ""
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		TimeoutSeconds: DefaultTimeoutSeconds,
		MaxChars:       DefaultMaxChars,
	}
	cfg.applyEnv()
	return cfg
}

// Timeout is the per-analyzer timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SummaryTimeout is zero when unset, leaving the summarizer default in place.
func (c *Config) SummaryTimeout() time.Duration {
	return time.Duration(c.Summary.TimeoutSeconds) * time.Second
}

// Load reads the YAML file at path on top of the defaults. Unknown keys are
// rejected. Relative out_dir and metrics_file entries are resolved against
// the directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.OutDir = resolve(base, cfg.OutDir)
	cfg.MetricsFile = resolve(base, cfg.MetricsFile)

	return cfg, nil
}

// LoadForProject loads the explicit file when one is given, otherwise the
// project's own FileName if it exists, otherwise the defaults. It returns
// the file actually used ("" for defaults). Every failure is an
// ErrCodeInvalidConfig error.
func LoadForProject(root, explicit string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(root, FileName)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return Default(), "", nil
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", cerrors.Wrap(cerrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Cannot use config file: %s", path), err)
	}
	return cfg, path, nil
}

// Environment credentials win over the file so secrets can stay out of it.
func (c *Config) applyEnv() {
	if v := os.Getenv(AccessKeyEnv); v != "" {
		c.Upload.AccessKey = v
	}
	if v := os.Getenv(SecretKeyEnv); v != "" {
		c.Upload.SecretKey = v
	}
}

func (c *Config) validate() error {
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.MaxChars < 0 {
		return fmt.Errorf("max_chars must not be negative, got %d", c.MaxChars)
	}
	if c.Summary.TimeoutSeconds < 0 {
		return fmt.Errorf("summary.timeout_seconds must not be negative, got %d", c.Summary.TimeoutSeconds)
	}
	if c.Upload.Endpoint != "" && c.Upload.Bucket == "" {
		return fmt.Errorf("upload.bucket is required when upload.endpoint is set")
	}
	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
