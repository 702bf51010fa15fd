package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
		MaxUploadMB  int64         `yaml:"maxUploadMB"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Auth struct {
		// Mode is "static" (token -> email map below) or "remote" (session provider).
		Mode        string            `yaml:"mode"`
		ProviderURL string            `yaml:"providerURL"`
		Sessions    map[string]string `yaml:"sessions"` // email -> token
	} `yaml:"auth"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`

	Store struct {
		// Driver is one of airtable, mysql, postgres, sqlite.
		Driver string `yaml:"driver"`
	} `yaml:"store"`

	Airtable struct {
		BaseURL string        `yaml:"baseURL"`
		APIKey  string        `yaml:"apiKey"`
		BaseID  string        `yaml:"baseID"`
		Timeout time.Duration `yaml:"timeout"`
		Tables  struct {
			Projects       string `yaml:"projects"`
			Analyses       string `yaml:"analyses"`
			AdditionalInfo string `yaml:"additionalInfo"`
			TeamProfiles   string `yaml:"teamProfiles"`
		} `yaml:"tables"`
	} `yaml:"airtable"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite file
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		// Provider is openai, gemini or none.
		Provider string `yaml:"provider"`
		// Strategy is heuristic, llm or auto.
		Strategy  string        `yaml:"strategy"`
		Model     string        `yaml:"model"`
		APIKey    string        `yaml:"apiKey"`
		BaseURL   string        `yaml:"baseURL"`
		MaxTokens int           `yaml:"maxTokens"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"ai"`
}

// Load baca file config.yaml, lalu env override dan default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies environment overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Airtable.APIKey = getEnv("AIRTABLE_API_KEY", c.Airtable.APIKey)
	c.Airtable.BaseID = getEnv("AIRTABLE_BASE_ID", c.Airtable.BaseID)
	c.Database.Password = getEnv("DATABASE_PASSWORD", c.Database.Password)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.AI.Strategy = getEnv("AI_STRATEGY", c.AI.Strategy)
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)

	switch c.AI.Provider {
	case "openai":
		c.AI.APIKey = getEnv("OPENAI_API_KEY", c.AI.APIKey)
	case "gemini":
		c.AI.APIKey = getEnv("GEMINI_API_KEY", c.AI.APIKey)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// LLM completions can take a while
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = "static"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillPerSecond == 0 {
		c.RateLimit.RefillPerSecond = 1
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "airtable"
	}
	if c.Airtable.BaseURL == "" {
		c.Airtable.BaseURL = "https://api.airtable.com"
	}
	if c.Airtable.Timeout == 0 {
		c.Airtable.Timeout = 15 * time.Second
	}
	t := &c.Airtable.Tables
	t.Projects = orDefault(t.Projects, "Projects")
	t.Analyses = orDefault(t.Analyses, "Analyses")
	t.AdditionalInfo = orDefault(t.AdditionalInfo, "AdditionalInfo")
	t.TeamProfiles = orDefault(t.TeamProfiles, "TeamProfiles")
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.Path == "" {
		c.Database.Path = "upstarter.db"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "upstarter"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "none"
	}
	if c.AI.Strategy == "" {
		c.AI.Strategy = "auto"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 4096
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 90 * time.Second
	}
}

// Validate rejects unknown enum values.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "airtable", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	switch c.AI.Provider {
	case "openai", "gemini", "none":
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	switch c.AI.Strategy {
	case "heuristic", "llm", "auto":
	default:
		return fmt.Errorf("unknown ai.strategy %q", c.AI.Strategy)
	}
	switch c.Auth.Mode {
	case "static", "remote":
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}
	if c.Auth.Mode == "remote" && c.Auth.ProviderURL == "" {
		return fmt.Errorf("auth.providerURL is required when auth.mode is remote")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DSN returns the connection string for the configured SQL driver.
func (c *Config) DSN() string {
	switch c.Store.Driver {
	case "mysql":
		return c.MySQLDSN()
	case "postgres":
		return c.PostgresDSN()
	default:
		return c.Database.Path
	}
}

// Tokens inverts auth.sessions into token -> email.
func (c *Config) Tokens() map[string]string {
	out := make(map[string]string, len(c.Auth.Sessions))
	for email, token := range c.Auth.Sessions {
		out[token] = email
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
