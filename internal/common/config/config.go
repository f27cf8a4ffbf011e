// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Models        ModelsConfig       `mapstructure:"models"`
	LLM           LLMConfig          `mapstructure:"llm"`
	Routing       RoutingConfig      `mapstructure:"routing"`
	Retrieval     RetrievalConfig    `mapstructure:"retrieval"`
	Store         StoreConfig        `mapstructure:"store"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Model Serving Config ---

// ModelsConfig holds endpoints for the classifier and sentiment model servers.
type ModelsConfig struct {
	Classifier EndpointConfig `mapstructure:"classifier"`
	Sentiment  EndpointConfig `mapstructure:"sentiment"`
}

type EndpointConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// LLMConfig holds settings for the generation and embedding capabilities.
type LLMConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	SmallModel      string  `mapstructure:"small_model"`
	BigModel        string  `mapstructure:"big_model"`
	EmbeddingModel  string  `mapstructure:"embedding_model"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Timeout         int     `mapstructure:"timeout"` // milliseconds
	InputCostPer1M  float64 `mapstructure:"input_cost_per_1m"`
	OutputCostPer1M float64 `mapstructure:"output_cost_per_1m"`
}

// RoutingConfig points at the routing-config document and optional overrides.
type RoutingConfig struct {
	ConfigPath          string   `mapstructure:"config_path"`
	ConfidenceThreshold *float64 `mapstructure:"confidence_threshold"` // nil means use document value
}

// RetrievalConfig holds settings for the vector index and embedding cache.
type RetrievalConfig struct {
	IndexName    string `mapstructure:"index_name"`
	MetadataPath string `mapstructure:"metadata_path"`
	TopK         int    `mapstructure:"top_k"`
	CacheCap     int    `mapstructure:"cache_cap"`
}

// StoreConfig toggles the optional side stores.
type StoreConfig struct {
	AuditEnabled    bool `mapstructure:"audit_enabled"`
	SessionsEnabled bool `mapstructure:"sessions_enabled"`
	SessionHistory  int  `mapstructure:"session_history"` // entries kept per session
}

// NotificationConfig holds settings for escalation notifications.
type NotificationConfig struct {
	Email struct {
		Enabled      bool   `mapstructure:"enabled"`
		FromEmail    string `mapstructure:"from_email"`
		SupportEmail string `mapstructure:"support_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled       bool   `mapstructure:"enabled"`
		SupportNumber string `mapstructure:"support_number"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
