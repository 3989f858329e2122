package config

const (
	defaultEndpoint          = "http://localhost:8000/ask"
	defaultWebAddr           = "127.0.0.1:8080"
	defaultServerAddr        = "0.0.0.0:8000"
	defaultAllowedOrigin     = "http://localhost:5173"
	defaultProvider          = "openai"
	defaultModelType         = "gpt-4.1-mini"
	defaultMaxTokens         = 250
	defaultTemperature       = 0.6
	defaultTopP              = 0.9
	defaultFrequencyPenalty  = 0.5
	defaultMaxQuestionTokens = 512

	// DefaultPromptTemplate wraps the user's question before it reaches the model.
	DefaultPromptTemplate = "Explain the following finance concept in a detailed and informative way:\n\n%s"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint: defaultEndpoint,
		},
		Web: WebConfig{
			Addr: defaultWebAddr,
		},
		Server: ServerConfig{
			Addr:              defaultServerAddr,
			AllowedOrigins:    []string{defaultAllowedOrigin},
			Provider:          defaultProvider,
			ModelType:         defaultModelType,
			MaxTokens:         defaultMaxTokens,
			Temperature:       defaultTemperature,
			TopP:              defaultTopP,
			FrequencyPenalty:  defaultFrequencyPenalty,
			MaxQuestionTokens: defaultMaxQuestionTokens,
			PromptTemplate:    DefaultPromptTemplate,
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		File:    "logs/askchat.log",
	}
}

func (c *Config) applyDefaults() {
	if c.Client.Endpoint == "" {
		c.Client.Endpoint = defaultEndpoint
	}
	if c.Web.Addr == "" {
		c.Web.Addr = defaultWebAddr
	}

	s := &c.Server
	if s.Addr == "" {
		s.Addr = defaultServerAddr
	}
	if len(s.AllowedOrigins) == 0 {
		s.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if s.Provider == "" {
		s.Provider = defaultProvider
	}
	if s.ModelType == "" {
		s.ModelType = defaultModelType
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = defaultMaxTokens
	}
	// Zero is a valid sampling value; only out-of-range values are replaced.
	if s.Temperature < 0 || s.Temperature > 2 {
		s.Temperature = defaultTemperature
	}
	if s.TopP < 0 || s.TopP > 1 {
		s.TopP = defaultTopP
	}
	if s.FrequencyPenalty < -2 || s.FrequencyPenalty > 2 {
		s.FrequencyPenalty = defaultFrequencyPenalty
	}
	if s.MaxQuestionTokens <= 0 {
		s.MaxQuestionTokens = defaultMaxQuestionTokens
	}
	if s.PromptTemplate == "" {
		s.PromptTemplate = DefaultPromptTemplate
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if c.Logging.File == "" && !c.Logging.Stderr {
		c.Logging.File = def.File
	}
}
