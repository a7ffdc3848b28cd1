package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
)

// Config holds all configuration for the agenda service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the advisor provider configuration
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// StorageConfig contains all storage backends
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a connection string from the parts unless url is set.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// SchedulerConfig controls the periodic catalog refresh
type SchedulerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RefreshSchedule string        `mapstructure:"refresh_schedule"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
}

func (s SchedulerConfig) Validate() error {
	if !s.Enabled {
		return nil
	}
	if strings.TrimSpace(s.RefreshSchedule) == "" {
		return fmt.Errorf("scheduler.refresh_schedule required when scheduler is enabled")
	}
	return nil
}

// ScoringConfig exposes the relevance knobs an operator may tune
type ScoringConfig struct {
	FavoriteBonus         float64 `mapstructure:"favorite_bonus"`
	MinSessionScore       float64 `mapstructure:"min_session_score"`
	MinNetworkingScore    float64 `mapstructure:"min_networking_score"`
	SemanticHintThreshold float64 `mapstructure:"semantic_hint_threshold"`
	SemanticHintBonus     float64 `mapstructure:"semantic_hint_bonus"`
	AdvisorConfidenceMin  float64 `mapstructure:"advisor_confidence_min"`
}

func (s ScoringConfig) Validate() error {
	if s.SemanticHintThreshold < 0 || s.SemanticHintThreshold > 1 {
		return fmt.Errorf("scoring.semantic_hint_threshold must be within [0,1]")
	}
	if s.AdvisorConfidenceMin < 0 || s.AdvisorConfidenceMin > 100 {
		return fmt.Errorf("scoring.advisor_confidence_min must be within [0,100]")
	}
	if s.MinSessionScore < 0 || s.MinNetworkingScore < 0 {
		return fmt.Errorf("scoring minimum scores must not be negative")
	}
	return nil
}

// Policy converts the config section into the engine's scoring policy.
func (s ScoringConfig) Policy() agenda.ScoringPolicy {
	p := agenda.DefaultScoringPolicy()
	if s.FavoriteBonus > 0 {
		p.FavoriteBonus = s.FavoriteBonus
	}
	if s.MinSessionScore > 0 {
		p.MinSessionScore = s.MinSessionScore
	}
	if s.MinNetworkingScore > 0 {
		p.MinNetworkingScore = s.MinNetworkingScore
	}
	if s.SemanticHintThreshold > 0 {
		p.SemanticHintThreshold = s.SemanticHintThreshold
	}
	if s.SemanticHintBonus > 0 {
		p.SemanticHintBonus = s.SemanticHintBonus
	}
	if s.AdvisorConfidenceMin > 0 {
		p.AdvisorConfidenceMin = s.AdvisorConfidenceMin
	}
	return p
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "60s")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-5-mini")
	viper.SetDefault("llm.embedding_model", "text-embedding-3-large")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.cache_ttl", "1h")
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.refresh_schedule", "@hourly")
	viper.SetDefault("scheduler.lock_ttl", "2m")
	viper.SetDefault("scoring.semantic_hint_threshold", 0.7)
	viper.SetDefault("scoring.advisor_confidence_min", 80)
	viper.SetDefault("scoring.min_session_score", 20)
	viper.SetDefault("scoring.min_networking_score", 15)

	if path == "" {
		viper.AddConfigPath("./app/config") // path to look for the config file in
		viper.AddConfigPath("./config")     // path to look for the config file in
		viper.AddConfigPath(".")            // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)                                // bin/
		viper.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CONFPILOT")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (CONFPILOT_*)

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Scheduler.Validate(); err != nil {
		panic(err)
	}
	if err := config.Scoring.Validate(); err != nil {
		panic(err)
	}
	return &config
}
