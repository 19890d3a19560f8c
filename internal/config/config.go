package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Every field can be set from the
// YAML file; environment variables override for deployment secrets.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port,omitempty"` // Default: 8081
}

type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// AIConfig selects the scoring backend. Provider is "gemini" or "ollama";
// with no Gemini key the server falls back to Ollama.
type AIConfig struct {
	Provider     string `yaml:"provider,omitempty"`
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
	GeminiModel  string `yaml:"gemini_model,omitempty"`

	OllamaBaseURL    string `yaml:"ollama_base_url,omitempty"`
	OllamaGenModel   string `yaml:"ollama_gen_model,omitempty"`
	OllamaEmbedModel string `yaml:"ollama_embed_model,omitempty"`
}

type LoggingConfig struct {
	JSON  bool `yaml:"json,omitempty"`
	Debug bool `yaml:"debug,omitempty"`
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. A missing file is not an error; env-only deployments are fine.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Server.Port, "PORT")
	setFromEnv(&c.Database.URL, "DATABASE_URL")
	setFromEnv(&c.AI.Provider, "AI_PROVIDER")
	setFromEnv(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&c.AI.GeminiModel, "GEMINI_MODEL")
	setFromEnv(&c.AI.OllamaBaseURL, "OLLAMA_BASE_URL")
	setFromEnv(&c.AI.OllamaGenModel, "OLLAMA_GEN_MODEL")
	setFromEnv(&c.AI.OllamaEmbedModel, "OLLAMA_EMBED_MODEL")
	if os.Getenv("LOG_JSON") == "true" {
		c.Logging.JSON = true
	}
	if os.Getenv("LOG_DEBUG") == "true" {
		c.Logging.Debug = true
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8081"
	}
	if c.AI.Provider == "" {
		if c.AI.GeminiAPIKey != "" {
			c.AI.Provider = "gemini"
		} else {
			c.AI.Provider = "ollama"
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
