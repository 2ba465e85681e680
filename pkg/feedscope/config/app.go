package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FEEDSCOPE_"

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = EnvPrefix + "CONFIG"

// DefaultConfigPaths are tried in order when no path is given.
var DefaultConfigPaths = []string{
	"feedscope.yaml",
	"feedscope.yml",
	"/etc/feedscope/config.yaml",
}

// LLM providers.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// App is the runtime configuration shared by the commands.
type App struct {
	DataDir        string        `koanf:"data_dir" validate:"required"`
	VocabularyPath string        `koanf:"vocabulary_path"`
	History        HistoryConfig `koanf:"history"`
	LLM            LLMConfig     `koanf:"llm"`
	Server         ServerConfig  `koanf:"server"`
	Logging        LoggingConfig `koanf:"logging"`
}

// HistoryConfig selects the answer history store.
type HistoryConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory sqlite"`
	Path   string `koanf:"path" validate:"required_if=Driver sqlite"`
}

// LLMConfig configures intent interpretation and narration.
type LLMConfig struct {
	Provider        string        `koanf:"provider" validate:"oneof=none openai anthropic"`
	BaseURL         string        `koanf:"base_url" validate:"omitempty,url"`
	Model           string        `koanf:"model"`
	APIKey          string        `koanf:"api_key"`
	Timeout         time.Duration `koanf:"timeout" validate:"min=0"`
	KeywordFallback bool          `koanf:"keyword_fallback"`
	Narrate         bool          `koanf:"narrate"`

	// BreakerFailures consecutive failures open the circuit breaker for
	// BreakerCooldown. Zero failures disables the breaker.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"min=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// CORSOrigins is empty by default, which disables cross-origin access.
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,required"`

	// AskRatePerMinute limits POST /ask per client IP. Zero disables it.
	AskRatePerMinute int `koanf:"ask_rate_per_minute" validate:"min=0"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// DefaultApp returns the configuration used when nothing overrides it.
func DefaultApp() *App {
	return &App{
		DataDir: "data",
		History: HistoryConfig{
			Driver: "memory",
		},
		LLM: LLMConfig{
			Provider:        ProviderNone,
			Timeout:         60 * time.Second,
			KeywordFallback: true,
			Narrate:         true,
			BreakerFailures: 3,
			BreakerCooldown: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:             ":8080",
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     90 * time.Second,
			AskRatePerMinute: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Dataset returns a loader for the configured data directory.
func (a *App) Dataset() DatasetLoader {
	return DatasetFromDir(a.DataDir)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field constraints.
func (a *App) Validate() error {
	if err := getValidator().Struct(a); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// LoadApp layers defaults, an optional YAML file and FEEDSCOPE_*
// environment variables, in that order. An empty path searches
// ConfigPathEnvVar and DefaultConfigPaths.
func LoadApp(path string) (*App, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultApp(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: load config file %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &App{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"data_dir":             "data_dir",
	"vocabulary_path":      "vocabulary_path",
	"history_driver":       "history.driver",
	"history_path":         "history.path",
	"llm_provider":         "llm.provider",
	"llm_base_url":         "llm.base_url",
	"llm_model":            "llm.model",
	"llm_api_key":          "llm.api_key",
	"llm_timeout":          "llm.timeout",
	"llm_keyword_fallback": "llm.keyword_fallback",
	"llm_narrate":          "llm.narrate",
	"llm_breaker_failures": "llm.breaker_failures",
	"llm_breaker_cooldown": "llm.breaker_cooldown",
	"server_addr":          "server.addr",
	"server_read_timeout":  "server.read_timeout",
	"server_write_timeout": "server.write_timeout",
	"server_ask_rate":      "server.ask_rate_per_minute",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
}

// envTransformFunc maps FEEDSCOPE_LLM_API_KEY style names to koanf keys.
// Unknown names are dropped.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
