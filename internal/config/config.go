package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port        string   `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

type LogConfig struct {
	// Mode is "development" or "production".
	Mode string `toml:"mode"`
}

type GraphConfig struct {
	// Backend is "neo4j" or "memory".
	Backend             string `toml:"backend"`
	QueryTimeoutSeconds int    `toml:"query_timeout_seconds"`
	// ClusterAlgorithm is "label_propagation" or "components".
	ClusterAlgorithm string `toml:"cluster_algorithm"`
}

type Neo4jConfig struct {
	URI                   string `toml:"uri"`
	User                  string `toml:"user"`
	Password              string `toml:"password"`
	Database              string `toml:"database"`
	MaxPoolSize           int    `toml:"max_pool_size"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
}

// RedisConfig backs session values and ingestion locks. An empty Addr keeps
// both in process.
type RedisConfig struct {
	Addr               string `toml:"addr"`
	Password           string `toml:"password"`
	DB                 int    `toml:"db"`
	LockTimeoutSeconds int    `toml:"lock_timeout_seconds"`
}

type SessionConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

type KnowledgeConfig struct {
	MaxSessions         int `toml:"max_sessions"`
	QueryTimeoutSeconds int `toml:"query_timeout_seconds"`
}

type DetectionConfig struct {
	ExpirySeconds    int `toml:"expiry_seconds"`
	RetentionSeconds int `toml:"retention_seconds"`
	Capacity         int `toml:"capacity"`
	// TelemetryMaxAgeSeconds is how long a pushed telemetry snapshot stays usable.
	TelemetryMaxAgeSeconds int `toml:"telemetry_max_age_seconds"`
}

type NotifyConfig struct {
	OnIngest bool `toml:"on_ingest"`
}

// LLMConfig selects the model that phrases answers. An empty Provider keeps
// plain template answers.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	// Prompt receives the user's message and the looked-up answer, in that order.
	Prompt string `toml:"prompt"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
	Graph     GraphConfig     `toml:"graph"`
	Neo4j     Neo4jConfig     `toml:"neo4j"`
	Redis     RedisConfig     `toml:"redis"`
	Session   SessionConfig   `toml:"session"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Detection DetectionConfig `toml:"detection"`
	Notify    NotifyConfig    `toml:"notify"`
	LLM       LLMConfig       `toml:"llm"`
}

const DefaultPrompt = `You are LouBot, a friendly assistant. The user asked: %q
The knowledge base answered: %q
Reply in one short sentence using only that answer.`

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", CORSOrigins: []string{"*"}},
		Log:    LogConfig{Mode: "production"},
		Graph:  GraphConfig{Backend: "neo4j", QueryTimeoutSeconds: 10, ClusterAlgorithm: "label_propagation"},
		Neo4j: Neo4jConfig{
			URI:                   "bolt://localhost:7687",
			User:                  "neo4j",
			MaxPoolSize:           50,
			ConnectTimeoutSeconds: 5,
		},
		Redis:     RedisConfig{LockTimeoutSeconds: 30},
		Session:   SessionConfig{TTLSeconds: 120},
		Knowledge: KnowledgeConfig{MaxSessions: 256, QueryTimeoutSeconds: 5},
		Detection: DetectionConfig{
			ExpirySeconds:          10,
			RetentionSeconds:       300,
			Capacity:               1024,
			TelemetryMaxAgeSeconds: 30,
		},
		LLM: LLMConfig{Prompt: DefaultPrompt},
	}
}

// Load reads path over Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Neo4j.URI, "NEO4J_URI")
	set(&c.Neo4j.User, "NEO4J_USER")
	set(&c.Neo4j.Password, "NEO4J_PASSWORD")
	set(&c.Neo4j.Database, "NEO4J_DATABASE")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.Redis.Password, "REDIS_PASSWORD")
	set(&c.LLM.Provider, "LLM_PROVIDER")
	set(&c.LLM.Model, "LLM_MODEL")
	set(&c.LLM.APIKey, "LLM_API_KEY")
	set(&c.LLM.BaseURL, "LLM_BASE_URL")
	set(&c.Server.Port, "PORT")
	set(&c.Log.Mode, "LOG_MODE")
	set(&c.Graph.Backend, "GRAPH_BACKEND")
	set(&c.Graph.ClusterAlgorithm, "GRAPH_CLUSTER_ALGORITHM")

	if v := os.Getenv("SESSION_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Session.TTLSeconds = n
		}
	}
}

func (c *Config) Validate() error {
	switch c.Graph.Backend {
	case "neo4j":
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri is required for the neo4j backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown graph backend %q", c.Graph.Backend)
	}
	switch c.Graph.ClusterAlgorithm {
	case "label_propagation", "components":
	default:
		return fmt.Errorf("unknown cluster algorithm %q", c.Graph.ClusterAlgorithm)
	}
	if c.Session.TTLSeconds <= 0 {
		return fmt.Errorf("session.ttl_seconds must be positive")
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c *Config) SessionTTL() time.Duration        { return seconds(c.Session.TTLSeconds) }
func (c *Config) GraphQueryTimeout() time.Duration { return seconds(c.Graph.QueryTimeoutSeconds) }
func (c *Config) KBQueryTimeout() time.Duration    { return seconds(c.Knowledge.QueryTimeoutSeconds) }
func (c *Config) ConnectTimeout() time.Duration    { return seconds(c.Neo4j.ConnectTimeoutSeconds) }
func (c *Config) LockTimeout() time.Duration       { return seconds(c.Redis.LockTimeoutSeconds) }
func (c *Config) DetectionExpiry() time.Duration   { return seconds(c.Detection.ExpirySeconds) }
func (c *Config) DetectionRetention() time.Duration {
	return seconds(c.Detection.RetentionSeconds)
}
func (c *Config) TelemetryMaxAge() time.Duration { return seconds(c.Detection.TelemetryMaxAgeSeconds) }
