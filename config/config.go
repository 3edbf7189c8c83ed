package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the research agent system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Tavily    TavilyConfig    `mapstructure:"tavily"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Endpoint  EndpointConfig  `mapstructure:"endpoint"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address               string `mapstructure:"address"`
	JWTSecret             string `mapstructure:"jwt_secret"`
	ResearchStreamEnabled bool   `mapstructure:"research_stream_enabled"`
}

// LLMConfig describes the chat-completions provider driving the agent.
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	FormatterModel string        `mapstructure:"formatter_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	MaxTurns       int           `mapstructure:"max_turns"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key required (or AMBER_LLM_API_KEY)")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model required")
	}
	return nil
}

// TavilyConfig describes the web search/extract/crawl provider.
type TavilyConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	SearchMaxResults int           `mapstructure:"search_max_results"`
	CrawlMaxDepth    int           `mapstructure:"crawl_max_depth"`
	CrawlLimit       int           `mapstructure:"crawl_limit"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

func (t TavilyConfig) Validate() error {
	if strings.TrimSpace(t.APIKey) == "" {
		return fmt.Errorf("tavily.api_key required (or AMBER_TAVILY_API_KEY)")
	}
	return nil
}

// RedisConfig configures the optional research archive.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("redis.host required when redis is enabled")
	}
	return nil
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// EndpointConfig holds defaults for the AgentCore control-plane commands.
type EndpointConfig struct {
	Region string `mapstructure:"region"`
}

// LoadConfig loads config from file. A missing config file is tolerated so
// env-only deployments work; a malformed file is fatal.
func LoadConfig(path string) *Config {
	// .env first, matching the runtime's local development flow
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Every key needs a default: viper.Unmarshal only sees the keys it knows
	// about, and AutomaticEnv alone does not register any.
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 5*time.Minute)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.jwt_secret", "")
	viper.SetDefault("server.research_stream_enabled", true)
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.formatter_model", "")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.max_turns", 12)
	viper.SetDefault("llm.timeout", 2*time.Minute)
	viper.SetDefault("tavily.api_key", "")
	viper.SetDefault("tavily.base_url", "https://api.tavily.com")
	viper.SetDefault("tavily.search_max_results", 10)
	viper.SetDefault("tavily.crawl_max_depth", 2)
	viper.SetDefault("tavily.crawl_limit", 20)
	viper.SetDefault("tavily.timeout", 90*time.Second)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", 24*time.Hour)
	viper.SetDefault("redis.timeout", 5*time.Second)
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("endpoint.region", "eu-central-1")

	if path == "" {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("AMBER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Redis.Validate(); err != nil {
		panic(err)
	}
	return &config
}
