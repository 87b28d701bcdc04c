package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Segment   SegmentConfig   `yaml:"segment" mapstructure:"segment"`
	AnswerKey AnswerKeyConfig `yaml:"answer_key" mapstructure:"answer_key"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExtractConfig configures text extraction from source files.
type ExtractConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SegmentConfig configures the question segmenter.
type SegmentConfig struct {
	MinStemLineLen  int    `yaml:"min_stem_line_len" mapstructure:"min_stem_line_len"`
	MinStatementLen int    `yaml:"min_statement_len" mapstructure:"min_statement_len"`
	MinAlternatives int    `yaml:"min_alternatives" mapstructure:"min_alternatives"`
	PatternsFile    string `yaml:"patterns_file" mapstructure:"patterns_file"`
	MaxNoiseLineLen int    `yaml:"max_noise_line_len" mapstructure:"max_noise_line_len"`
}

// AnswerKeyConfig configures answer-key extraction.
type AnswerKeyConfig struct {
	MaxQuestionNumber int `yaml:"max_question_number" mapstructure:"max_question_number"`
	WindowLines       int `yaml:"window_lines" mapstructure:"window_lines"`
}

// IngestConfig configures the import driver.
type IngestConfig struct {
	MaxConcurrentSources int `yaml:"max_concurrent_sources" mapstructure:"max_concurrent_sources"`
}

// ServerConfig configures the read-only HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("QUESTBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "questbank.db")
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("extract.timeout_secs", 60)
	v.SetDefault("segment.min_stem_line_len", 15)
	v.SetDefault("segment.min_statement_len", 20)
	v.SetDefault("segment.min_alternatives", 4)
	v.SetDefault("segment.max_noise_line_len", 40)
	v.SetDefault("answer_key.max_question_number", 120)
	v.SetDefault("answer_key.window_lines", 30)
	v.SetDefault("ingest.max_concurrent_sources", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration needed for the given mode. Validation
// failures abort the run before any source is touched.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Segment.MinStatementLen < 1 {
		problems = append(problems, "segment.min_statement_len must be >= 1")
	}
	if c.Segment.MinAlternatives < 2 {
		problems = append(problems, "segment.min_alternatives must be >= 2")
	}
	if c.AnswerKey.MaxQuestionNumber < 1 {
		problems = append(problems, "answer_key.max_question_number must be >= 1")
	}
	if c.Ingest.MaxConcurrentSources < 1 || c.Ingest.MaxConcurrentSources > 32 {
		problems = append(problems, "ingest.max_concurrent_sources must be between 1 and 32")
	}

	switch mode {
	case "ingest", "migrate", "runs":
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
