package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"regsho/internal/fetch"
	"regsho/internal/model"
	"regsho/internal/saver"
)

// EnvPrefix prefixes every environment variable, e.g. REGSHO_BATCH_SIZE.
const EnvPrefix = "REGSHO"

// Default values for optional configuration fields.
const (
	DefaultInputFolder       = "./SSVD"
	DefaultDailyOutputPath   = "consolidated_daily.csv"
	DefaultMonthlyOutputPath = "consolidated_short_sale_data_full.csv"
	DefaultBatchSize         = 16
	DefaultGranularity       = "daily"
	DefaultScratchDir        = "./temp_unzip"
	DefaultHeartbeat         = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultStartMonth        = "2015-01"
	DefaultEndMonth          = "2023-12"
	DefaultFetchWorkers      = 1
	DefaultFetchRetries      = 3
	DefaultFetchTimeout      = 5 * time.Minute
)

// Config holds application configuration from a YAML file, env and flags.
type Config struct {
	InputFolder    string        `yaml:"input_folder" envconfig:"INPUT_FOLDER" validate:"required"`
	OutputPath     string        `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`
	OutputFormat   string        `yaml:"output_format" envconfig:"OUTPUT_FORMAT" validate:"omitempty,oneof=csv parquet json xlsx"`
	BatchSize      int           `yaml:"batch_size" envconfig:"BATCH_SIZE" validate:"min=1"`
	Granularity    string        `yaml:"granularity" envconfig:"GRANULARITY" validate:"oneof=daily monthly"`
	ScratchDir     string        `yaml:"scratch_dir" envconfig:"SCRATCH_DIR" validate:"required"`
	ArchiveTimeout time.Duration `yaml:"archive_timeout" envconfig:"ARCHIVE_TIMEOUT" validate:"gte=0"`
	Heartbeat      time.Duration `yaml:"heartbeat" envconfig:"HEARTBEAT"` // < 0 disables
	ReportPath     string        `yaml:"report_path" envconfig:"REPORT_PATH"`
	MetricsPath    string        `yaml:"metrics_path" envconfig:"METRICS_PATH"`
	DatabaseURL    string        `yaml:"database_url" envconfig:"DATABASE_URL"`
	LogLevel       string        `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat      string        `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=text json"`
	Fetch          FetchConfig   `yaml:"fetch" envconfig:"FETCH"`
}

// FetchConfig configures the archive downloader.
type FetchConfig struct {
	DownloadDir string        `yaml:"download_dir" envconfig:"DOWNLOAD_DIR"`
	StartMonth  string        `yaml:"start_month" envconfig:"START_MONTH" validate:"required"`
	EndMonth    string        `yaml:"end_month" envconfig:"END_MONTH" validate:"required"`
	Sources     []string      `yaml:"sources" envconfig:"SOURCES"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	Workers     int           `yaml:"workers" envconfig:"WORKERS" validate:"min=1"`
	Retries     *int          `yaml:"retries" envconfig:"RETRIES" validate:"omitempty,gte=0"` // nil = default, 0 = no retries
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
}

// Options tells LoadConfig where to look. Overrides win over file and env.
type Options struct {
	ConfigFile string
	Overrides  Overrides
}

// Overrides carries command-line values; nil fields were not set.
type Overrides struct {
	InputFolder  *string
	OutputPath   *string
	OutputFormat *string
	BatchSize    *int
	Granularity  *string
	ScratchDir   *string
	LogLevel     *string
	StartMonth   *string
	EndMonth     *string
	DownloadDir  *string
	FetchWorkers *int
	FetchRetries *int
}

// LoadConfig reads the YAML file (if any), applies REGSHO_* env vars and
// overrides, fills defaults and validates.
func LoadConfig(opts Options) (*Config, error) {
	cfg := &Config{}
	if opts.ConfigFile != "" {
		if err := loadFile(opts.ConfigFile, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	opts.Overrides.apply(cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadFile reads a YAML config file and expands ${VAR} environment variables.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func (o Overrides) apply(cfg *Config) {
	setString(&cfg.InputFolder, o.InputFolder)
	setString(&cfg.OutputPath, o.OutputPath)
	setString(&cfg.OutputFormat, o.OutputFormat)
	setString(&cfg.Granularity, o.Granularity)
	setString(&cfg.ScratchDir, o.ScratchDir)
	setString(&cfg.LogLevel, o.LogLevel)
	setString(&cfg.Fetch.StartMonth, o.StartMonth)
	setString(&cfg.Fetch.EndMonth, o.EndMonth)
	setString(&cfg.Fetch.DownloadDir, o.DownloadDir)
	if o.BatchSize != nil {
		cfg.BatchSize = *o.BatchSize
	}
	if o.FetchWorkers != nil {
		cfg.Fetch.Workers = *o.FetchWorkers
	}
	if o.FetchRetries != nil {
		n := *o.FetchRetries
		cfg.Fetch.Retries = &n
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) applyDefaults() {
	c.Granularity = strings.ToLower(strings.TrimSpace(c.Granularity))
	if c.Granularity == "" {
		c.Granularity = DefaultGranularity
	}
	if g, err := model.ParseGranularity(c.Granularity); err == nil {
		c.Granularity = string(g)
	}
	if c.InputFolder == "" {
		c.InputFolder = DefaultInputFolder
	}
	if c.OutputPath == "" {
		c.OutputPath = DefaultDailyOutputPath
		if c.Granularity == string(model.Monthly) {
			c.OutputPath = DefaultMonthlyOutputPath
		}
	}
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	if c.OutputFormat == "" {
		c.OutputFormat = saver.FormatFromPath(c.OutputPath)
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ScratchDir == "" {
		c.ScratchDir = DefaultScratchDir
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = DefaultHeartbeat
	}
	if c.ReportPath == "" {
		c.ReportPath = c.OutputPath + ".report.json"
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	c.LogFormat = strings.ToLower(c.LogFormat)

	f := &c.Fetch
	if f.DownloadDir == "" {
		f.DownloadDir = c.InputFolder
	}
	if f.StartMonth == "" {
		f.StartMonth = DefaultStartMonth
	}
	if f.EndMonth == "" {
		f.EndMonth = DefaultEndMonth
	}
	if len(f.Sources) == 0 {
		f.Sources = append([]string(nil), fetch.DefaultSources...)
	}
	if f.BaseURL == "" {
		f.BaseURL = fetch.DefaultBaseURL
	}
	if f.Workers == 0 {
		f.Workers = DefaultFetchWorkers
	}
	if f.Retries == nil {
		n := DefaultFetchRetries
		f.Retries = &n
	}
	if f.Timeout == 0 {
		f.Timeout = DefaultFetchTimeout
	}
}

var validate = validator.New()

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := checkScratchDir(c); err != nil {
		return err
	}
	from, err := fetch.ParseMonth(c.Fetch.StartMonth)
	if err != nil {
		return fmt.Errorf("fetch.start_month: %w", err)
	}
	to, err := fetch.ParseMonth(c.Fetch.EndMonth)
	if err != nil {
		return fmt.Errorf("fetch.end_month: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("fetch.end_month (%s) is before fetch.start_month (%s)", c.Fetch.EndMonth, c.Fetch.StartMonth)
	}
	return nil
}

// checkScratchDir refuses scratch locations whose removal would delete input
// or any file the run writes.
func checkScratchDir(c *Config) error {
	s := filepath.Clean(c.ScratchDir)
	if s == "." || s == string(filepath.Separator) {
		return errors.New("scratch_dir must be a dedicated directory")
	}
	protected := []struct{ key, path string }{
		{"input_folder", c.InputFolder},
		{"output_path", c.OutputPath},
		{"report_path", c.ReportPath},
		{"metrics_path", c.MetricsPath},
	}
	for _, p := range protected {
		if p.path != "" && within(s, p.path) {
			return fmt.Errorf("scratch_dir %s must not contain %s %s", c.ScratchDir, p.key, p.path)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	da, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	pa, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(da, pa)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// GranularityValue returns the parsed granularity.
func (c *Config) GranularityValue() model.Granularity {
	g, _ := model.ParseGranularity(c.Granularity)
	return g
}

// FetchRange returns the parsed fetch month range.
func (c *Config) FetchRange() (from, to time.Time, err error) {
	if from, err = fetch.ParseMonth(c.Fetch.StartMonth); err != nil {
		return
	}
	to, err = fetch.ParseMonth(c.Fetch.EndMonth)
	return
}
