// Package config handles configuration loading and saving.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/linanwx/askchat/logger"
)

const (
	configFileName = "config.yaml"
	configDirName  = ".askchat"

	// EndpointEnv overrides Client.Endpoint when set.
	EndpointEnv = "ASKCHAT_ENDPOINT"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Client  ClientConfig  `json:"client" yaml:"client"`
	Web     WebConfig     `json:"web" yaml:"web"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ClientConfig configures the chat front-ends.
type ClientConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`                   // full URL of the ask endpoint
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Go duration, empty = no timeout
}

// WebConfig configures the browser chat channel.
type WebConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // default: 127.0.0.1:8080
}

// ServerConfig configures the ask endpoint served by `askchat serve`.
type ServerConfig struct {
	Addr              string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	AllowedOrigins    []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
	Provider          string   `json:"provider" yaml:"provider"` // openai, deepseek, openrouter, anthropic
	ModelType         string   `json:"modelType" yaml:"modelType"`
	ModelName         string   `json:"modelName,omitempty" yaml:"modelName,omitempty"` // optional, defaults to modelType
	APIKey            string   `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIBase           string   `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	MaxTokens         int      `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Temperature       float64  `json:"temperature" yaml:"temperature"`
	TopP              float64  `json:"topP" yaml:"topP"`
	FrequencyPenalty  float64  `json:"frequencyPenalty" yaml:"frequencyPenalty"` // -2..2, OpenAI-compatible providers only
	MaxQuestionTokens int      `json:"maxQuestionTokens,omitempty" yaml:"maxQuestionTokens,omitempty"`
	PromptTemplate    string   `json:"promptTemplate,omitempty" yaml:"promptTemplate,omitempty"` // %s is replaced by the question
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stderr  bool   `json:"stderr,omitempty" yaml:"stderr,omitempty"` // also log to stderr
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path, relative to the config dir
}

// GetEndpoint returns the ask endpoint, preferring ASKCHAT_ENDPOINT.
func (c *Config) GetEndpoint() string {
	if v := strings.TrimSpace(os.Getenv(EndpointEnv)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Client.Endpoint)
}

// GetClientTimeout parses Client.Timeout. Invalid or empty values mean no
// timeout.
func (c *Config) GetClientTimeout() time.Duration {
	raw := strings.TrimSpace(c.Client.Timeout)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		logger.Warn("ignoring invalid client timeout", "timeout", raw)
		return 0
	}
	return d
}

// BuildLoggerConfig converts the logging section to logger settings.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := true
	if c.Logging.Enabled != nil {
		enabled = *c.Logging.Enabled
	}
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stderr:  c.Logging.Stderr,
		File:    c.Logging.File,
	}
}
