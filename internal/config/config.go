package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwhitfield/redline/internal/paginate"
)

// EnvPrefix is the namespace prefix for all Redline environment variables.
const EnvPrefix = "REDLINE_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	ListenAddr            string          `yaml:"listen_addr"`
	DBPath                string          `yaml:"db_path"`
	DeepgramModel         string          `yaml:"deepgram_model"`
	SummaryModel          string          `yaml:"summary_model"`
	Pagination            paginate.Config `yaml:"pagination"`
	GDriveFolderID        string          `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string          `yaml:"google_credentials_file"`
	LogLevel              string          `yaml:"log_level"`
	LogFormat             string          `yaml:"log_format"`

	// Secrets — env vars only, never serialized to YAML.
	DeepgramAPIKey  string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:            ":8080",
		DBPath:                "data/redline.db",
		DeepgramModel:         "nova-2",
		SummaryModel:          "openai/gpt-4o-mini",
		Pagination:            paginate.DefaultConfig(),
		GoogleCredentialsFile: "./service-account.json",
		LogLevel:              "info",
		LogFormat:             "console",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// PaginateConfig returns the pagination settings with invalid values replaced
// by the defaults, so a bad config file degrades instead of breaking exports.
func (c *Config) PaginateConfig() paginate.Config {
	p := c.Pagination
	def := paginate.DefaultConfig()
	if p.CharsPerLine <= 0 {
		p.CharsPerLine = def.CharsPerLine
	}
	if p.LinesPerPage <= 0 {
		p.LinesPerPage = def.LinesPerPage
	}
	if p.MinFirstLineWidth <= 0 {
		p.MinFirstLineWidth = def.MinFirstLineWidth
	}
	return p
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "DEEPGRAM_MODEL"); v != "" {
		cfg.DeepgramModel = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARY_MODEL"); v != "" {
		cfg.SummaryModel = v
	}
	if v := os.Getenv(EnvPrefix + "CHARS_PER_LINE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.Pagination.CharsPerLine = n
		}
	}
	if v := os.Getenv(EnvPrefix + "LINES_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.Pagination.LinesPerPage = n
		}
	}
	if v := os.Getenv(EnvPrefix + "MIN_FIRST_LINE_WIDTH"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.Pagination.MinFirstLineWidth = n
		}
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_FOLDER_ID"); v != "" {
		cfg.GDriveFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.GoogleCredentialsFile = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	if cfg.DeepgramAPIKey == "" {
		warnings = append(warnings, "Deepgram API key not configured, transcript ingestion is disabled. Set "+EnvPrefix+"DEEPGRAM_API_KEY.")
	}
	if cfg.OpenAIAPIKey == "" && cfg.AnthropicAPIKey == "" && cfg.GeminiAPIKey == "" {
		warnings = append(warnings, "No LLM API key configured, transcript summaries are disabled. Set "+EnvPrefix+"OPENAI_API_KEY, "+EnvPrefix+"ANTHROPIC_API_KEY, or "+EnvPrefix+"GEMINI_API_KEY.")
	}
	if cfg.Pagination.CharsPerLine <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid chars_per_line %d, using default %d.", cfg.Pagination.CharsPerLine, paginate.DefaultConfig().CharsPerLine))
	}
	if cfg.Pagination.LinesPerPage <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid lines_per_page %d, using default %d.", cfg.Pagination.LinesPerPage, paginate.DefaultConfig().LinesPerPage))
	}

	return warnings
}
