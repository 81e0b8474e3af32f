// =============================================================================
// Default configuration
// =============================================================================
// Provides sensible defaults for every configuration field, matching the
// values enumerated in the specification's configuration table.
// =============================================================================
package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:      DefaultServerConfig(),
		GraphStore:  DefaultGraphStoreConfig(),
		Redis:       DefaultRedisConfig(),
		Mongo:       DefaultMongoConfig(),
		Embedding:   DefaultEmbeddingConfig(),
		LLM:         DefaultLLMConfig(),
		Domain:      DefaultDomainConfig(),
		Search:      DefaultSearchConfig(),
		Coordinator: DefaultCoordinatorConfig(),
		Retry:       DefaultRetryConfig(),
		Log:         DefaultLogConfig(),
		Telemetry:   DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultGraphStoreConfig returns default graph store configuration.
func DefaultGraphStoreConfig() GraphStoreConfig {
	return GraphStoreConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "korlaw",
		Password:        "",
		Name:            "korlaw",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultRedisConfig returns default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultMongoConfig returns default Mongo configuration.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "korlaw",
		Collection: "domain_decisions",
	}
}

// DefaultEmbeddingConfig returns default embedding provider configuration.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:   "deterministic",
		Model:      "statute-embed-v1",
		Dimensions: 256,
		Timeout:    10 * time.Second,
		RateRPS:    20,
	}
}

// DefaultLLMConfig returns default LLM provider configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "fallback",
		Model:    "naming-assistant",
		Timeout:  10 * time.Second,
		RateRPS:  5,
	}
}

// DefaultDomainConfig returns default domain manager configuration.
func DefaultDomainConfig() DomainConfig {
	return DomainConfig{
		MinSize:              50,
		MaxSize:              500,
		KMin:                 5,
		KMax:                 15,
		AdmitThreshold:       0.5,
		NeighborCount:        3,
		NamingSampleSize:     20,
		NamingMaxChars:       15,
		KMeansMaxIterations:  100,
		KMeansSeed:           42,
		SilhouetteSampleSize: 2000,
	}
}

// DefaultSearchConfig returns default domain-agent search configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		ParagraphSearchKMultiplier: 2,
		ParagraphSimThreshold:      0.5,
		ArticlePenalty:             0.95,
		RNERadius:                  0.25,
		RNEMaxNodes:                20,
		RRFK:                       60,
		AppendixPenalty:            0.5,
		CollabConfidenceThreshold:  0.6,
		MaxNeighborConsultations:   3,
		AgentDeadline:              10 * time.Second,
	}
}

// DefaultCoordinatorConfig returns default coordinator configuration.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		DispatchN:         3,
		CandidatePoolSize: 5,
		PrimaryWeight:     1.0,
		SecondaryWeight:   0.8,
		LLMWeight:         0.7,
		CentroidWeight:    0.3,
		Deadline:          30 * time.Second,
	}
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
	}
}

// DefaultLogConfig returns default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns default telemetry configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:     false,
		ServiceName: "korlaw-retrieval-core",
		SampleRate:  0.1,
	}
}
