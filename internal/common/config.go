package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Cache       CacheConfig      `toml:"cache"`
	Tasks       TasksConfig      `toml:"tasks"`
	Generation  GenerationConfig `toml:"generation"`
	Logging     LoggingConfig    `toml:"logging"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CacheConfig controls the two-tier cache service
type CacheConfig struct {
	UseMemory  bool   `toml:"use_memory"`  // Enable in-process memory tier
	UseDurable bool   `toml:"use_durable"` // Enable Badger-backed durable tier
	DefaultTTL string `toml:"default_ttl"` // Default entry lifetime as duration string (default: "1h")
}

// TasksConfig controls the async task manager
type TasksConfig struct {
	MaxWorkers    int    `toml:"max_workers"`    // Maximum concurrently running tasks (default: 5)
	PurgeSchedule string `toml:"purge_schedule"` // Cron schedule for purging old terminal tasks
	PurgeMaxAge   string `toml:"purge_max_age"`  // Terminal tasks older than this are purged (default: "1h")
}

// GenerationConfig controls the presentation pipeline
type GenerationConfig struct {
	CacheTTL       string `toml:"cache_ttl"`       // Lifetime of cached presentations (default: "24h")
	MaxSlides      int    `toml:"max_slides"`      // Upper bound on planned slides (default: 20)
	ExcerptLimit   int    `toml:"excerpt_limit"`   // Max characters of document text sent per slide prompt
	MaxUploadBytes int64  `toml:"max_upload_size"` // Max accepted upload size for file-based generation
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for AI operations (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for AI operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "claude")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Cache: CacheConfig{
			UseMemory:  true,
			UseDurable: true,
			DefaultTTL: "1h",
		},
		Tasks: TasksConfig{
			MaxWorkers:    5,
			PurgeSchedule: "@every 10m",
			PurgeMaxAge:   "1h",
		},
		Generation: GenerationConfig{
			CacheTTL:       "24h",
			MaxSlides:      20,
			ExcerptLimit:   8000,
			MaxUploadBytes: 10 * 1024 * 1024, // 10MB
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-2.0-flash",
			Timeout:     "5m",
			RateLimit:   "4s",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("OSTENDO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("OSTENDO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("OSTENDO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("OSTENDO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if useMemory := os.Getenv("OSTENDO_CACHE_USE_MEMORY"); useMemory != "" {
		if b, err := strconv.ParseBool(useMemory); err == nil {
			config.Cache.UseMemory = b
		}
	}
	if useDurable := os.Getenv("OSTENDO_CACHE_USE_DURABLE"); useDurable != "" {
		if b, err := strconv.ParseBool(useDurable); err == nil {
			config.Cache.UseDurable = b
		}
	}
	if ttl := os.Getenv("OSTENDO_CACHE_DEFAULT_TTL"); ttl != "" {
		if _, err := time.ParseDuration(ttl); err == nil {
			config.Cache.DefaultTTL = ttl
		}
	}

	if maxWorkers := os.Getenv("OSTENDO_TASKS_MAX_WORKERS"); maxWorkers != "" {
		if mw, err := strconv.Atoi(maxWorkers); err == nil && mw > 0 {
			config.Tasks.MaxWorkers = mw
		}
	}
	if purgeMaxAge := os.Getenv("OSTENDO_TASKS_PURGE_MAX_AGE"); purgeMaxAge != "" {
		if _, err := time.ParseDuration(purgeMaxAge); err == nil {
			config.Tasks.PurgeMaxAge = purgeMaxAge
		}
	}

	if cacheTTL := os.Getenv("OSTENDO_GENERATION_CACHE_TTL"); cacheTTL != "" {
		if _, err := time.ParseDuration(cacheTTL); err == nil {
			config.Generation.CacheTTL = cacheTTL
		}
	}
	if maxSlides := os.Getenv("OSTENDO_GENERATION_MAX_SLIDES"); maxSlides != "" {
		if ms, err := strconv.Atoi(maxSlides); err == nil && ms > 0 {
			config.Generation.MaxSlides = ms
		}
	}

	if level := os.Getenv("OSTENDO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("OSTENDO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	// Gemini configuration
	if apiKey := os.Getenv("OSTENDO_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("OSTENDO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("OSTENDO_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("OSTENDO_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("OSTENDO_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("OSTENDO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // OSTENDO_ prefix takes priority
	}
	if model := os.Getenv("OSTENDO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("OSTENDO_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("OSTENDO_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("OSTENDO_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("OSTENDO_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	if provider := os.Getenv("OSTENDO_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ParseDurationOr parses a duration string, falling back to a default on error
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
