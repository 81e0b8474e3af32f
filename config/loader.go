// =============================================================================
// Configuration loader
// =============================================================================
// Unified config loading: YAML file + environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("KORLAW").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Core configuration structure
// =============================================================================

// Config is the complete configuration for the retrieval core.
type Config struct {
	// Server configures the admin HTTP API and the streaming adapter.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// GraphStore configures the backing relational store for the property graph.
	GraphStore GraphStoreConfig `yaml:"graph_store" env:"GRAPH_STORE"`

	// Redis configures the embedding/LLM response cache.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Mongo configures the domain-manager decision audit log.
	Mongo MongoConfig `yaml:"mongo" env:"MONGO"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// LLM configures the naming / self-assessment provider.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Domain configures the domain manager's partitioning and rebalancing.
	Domain DomainConfig `yaml:"domain" env:"DOMAIN"`

	// Search configures the domain agent's hybrid search pipeline.
	Search SearchConfig `yaml:"search" env:"SEARCH"`

	// Coordinator configures query routing and dispatch.
	Coordinator CoordinatorConfig `yaml:"coordinator" env:"COORDINATOR"`

	// Retry configures retry/backoff applied at the LLM and embedding boundary.
	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures tracing and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the admin HTTP / streaming surface.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// GraphStoreConfig configures the relational backing store for the property graph.
type GraphStoreConfig struct {
	Driver          string        `yaml:"driver" env:"DRIVER"` // postgres | sqlite
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Name            string        `yaml:"name" env:"NAME"`
	SSLMode         string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RedisConfig configures the embedding/LLM response cache.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// MongoConfig configures the decision audit log.
type MongoConfig struct {
	URI        string `yaml:"uri" env:"URI"`
	Database   string `yaml:"database" env:"DATABASE"`
	Collection string `yaml:"collection" env:"COLLECTION"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider" env:"PROVIDER"` // deterministic | http
	BaseURL    string        `yaml:"base_url" env:"BASE_URL"`
	APIKey     string        `yaml:"api_key" env:"API_KEY"`
	Model      string        `yaml:"model" env:"MODEL"`
	Dimensions int           `yaml:"dimensions" env:"DIMENSIONS"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RateRPS    float64       `yaml:"rate_rps" env:"RATE_RPS"`
}

// LLMConfig configures the naming / self-assessment LLM provider.
type LLMConfig struct {
	Provider string        `yaml:"provider" env:"PROVIDER"`
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	APIKey   string        `yaml:"api_key" env:"API_KEY"`
	Model    string        `yaml:"model" env:"MODEL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RateRPS  float64       `yaml:"rate_rps" env:"RATE_RPS"`
}

// DomainConfig configures the domain manager's partitioning and rebalancing.
type DomainConfig struct {
	MinSize              int     `yaml:"min_size" env:"MIN_SIZE"`
	MaxSize              int     `yaml:"max_size" env:"MAX_SIZE"`
	KMin                 int     `yaml:"k_min" env:"K_MIN"`
	KMax                 int     `yaml:"k_max" env:"K_MAX"`
	AdmitThreshold       float64 `yaml:"admit_threshold" env:"ADMIT_THRESHOLD"`
	NeighborCount        int     `yaml:"neighbor_count" env:"NEIGHBOR_COUNT"`
	NamingSampleSize     int     `yaml:"naming_sample_size" env:"NAMING_SAMPLE_SIZE"`
	NamingMaxChars       int     `yaml:"naming_max_chars" env:"NAMING_MAX_CHARS"`
	KMeansMaxIterations  int     `yaml:"kmeans_max_iterations" env:"KMEANS_MAX_ITERATIONS"`
	KMeansSeed           int64   `yaml:"kmeans_seed" env:"KMEANS_SEED"`
	SilhouetteSampleSize int     `yaml:"silhouette_sample_size" env:"SILHOUETTE_SAMPLE_SIZE"`
}

// SearchConfig configures the domain agent hybrid search pipeline.
type SearchConfig struct {
	ParagraphSearchKMultiplier int           `yaml:"paragraph_search_k_multiplier" env:"PARAGRAPH_SEARCH_K_MULTIPLIER"`
	ParagraphSimThreshold      float64       `yaml:"paragraph_sim_threshold" env:"PARAGRAPH_SIM_THRESHOLD"`
	ArticlePenalty             float64       `yaml:"article_penalty" env:"ARTICLE_PENALTY"`
	RNERadius                  float64       `yaml:"rne_radius" env:"RNE_RADIUS"`
	RNEMaxNodes                int           `yaml:"rne_max_nodes" env:"RNE_MAX_NODES"`
	RRFK                       int           `yaml:"rrf_k" env:"RRF_K"`
	AppendixPenalty            float64       `yaml:"appendix_penalty" env:"APPENDIX_PENALTY"`
	CollabConfidenceThreshold  float64       `yaml:"collab_confidence_threshold" env:"COLLAB_CONFIDENCE_THRESHOLD"`
	MaxNeighborConsultations   int           `yaml:"max_neighbor_consultations" env:"MAX_NEIGHBOR_CONSULTATIONS"`
	AgentDeadline              time.Duration `yaml:"agent_deadline" env:"AGENT_DEADLINE"`
}

// CoordinatorConfig configures query routing and dispatch.
type CoordinatorConfig struct {
	DispatchN         int           `yaml:"dispatch_n" env:"DISPATCH_N"`
	CandidatePoolSize int           `yaml:"candidate_pool_size" env:"CANDIDATE_POOL_SIZE"`
	PrimaryWeight     float64       `yaml:"primary_weight" env:"PRIMARY_WEIGHT"`
	SecondaryWeight   float64       `yaml:"secondary_weight" env:"SECONDARY_WEIGHT"`
	LLMWeight         float64       `yaml:"llm_weight" env:"LLM_WEIGHT"`
	CentroidWeight    float64       `yaml:"centroid_weight" env:"CENTROID_WEIGHT"`
	Deadline          time.Duration `yaml:"deadline" env:"DEADLINE"`
}

// RetryConfig configures retry/backoff at the embedding and LLM boundary.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" env:"MAX_RETRIES"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	Multiplier   float64       `yaml:"multiplier" env:"MULTIPLIER"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate  float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader loads configuration using a builder pattern.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "KORLAW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a configuration validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads configuration in defaults -> file -> env precedence.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			iv, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(iv)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uv, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(uv)

	case reflect.Float32, reflect.Float64:
		fv, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(fv)

	case reflect.Bool:
		bv, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(bv)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads configuration, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks invariants that must hold before the config is used.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Domain.MinSize <= 0 || c.Domain.MaxSize <= c.Domain.MinSize {
		errs = append(errs, "domain.min_size must be positive and less than domain.max_size")
	}
	if c.Domain.KMin <= 0 || c.Domain.KMax < c.Domain.KMin {
		errs = append(errs, "domain.k_min must be positive and domain.k_max must be >= k_min")
	}
	if c.Search.RRFK <= 0 {
		errs = append(errs, "search.rrf_k must be positive")
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, "embedding.dimensions must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the database connection string for the configured driver.
func (g *GraphStoreConfig) DSN() string {
	switch g.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			g.Host, g.Port, g.User, g.Password, g.Name, g.SSLMode,
		)
	case "sqlite":
		return g.Name
	default:
		return ""
	}
}
