package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/eventdraft/internal/fusion"
	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Fusion       FusionConfig       `yaml:"fusion" mapstructure:"fusion"`
	Gaps         GapsConfig         `yaml:"gaps" mapstructure:"gaps"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Image        ImageConfig        `yaml:"image" mapstructure:"image"`
	OCR          OCRConfig          `yaml:"ocr" mapstructure:"ocr"`
	Jina         JinaConfig         `yaml:"jina" mapstructure:"jina"`
	Firecrawl    FirecrawlConfig    `yaml:"firecrawl" mapstructure:"firecrawl"`
	Scrape       ScrapeConfig       `yaml:"scrape" mapstructure:"scrape"`
	Retry        RetryConfig        `yaml:"retry" mapstructure:"retry"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// OrchestratorConfig configures how sources are dispatched.
type OrchestratorConfig struct {
	Parallel          bool `yaml:"parallel" mapstructure:"parallel"`
	MaxConcurrency    int  `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	SourceTimeoutSecs int  `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
}

// FusionConfig configures the fusion engine. ConfigFile, when set, points
// at a YAML file with per-field overrides and takes precedence.
type FusionConfig struct {
	Strategy            string         `yaml:"strategy" mapstructure:"strategy"`
	ConfidenceThreshold float64        `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	ConfigFile          string         `yaml:"config_file" mapstructure:"config_file"`
	SourcePrecedence    map[string]int `yaml:"source_precedence" mapstructure:"source_precedence"`
}

// GapsConfig configures gap analysis importance weights, keyed by
// critical, important and nice_to_have. The nice_to_have default is 0.5,
// not 1: at 1, a draft with every critical and important field good scores
// 15/19 and misses the ready threshold.
type GapsConfig struct {
	Weights map[string]float64 `yaml:"weights" mapstructure:"weights"`
}

// AnthropicConfig configures the vision model used for image sources.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ImageConfig selects how image sources are read: "vision" or "ocr".
type ImageConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// OCRConfig configures image text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
}

// JinaConfig configures the Jina reader.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig configures the Firecrawl fallback scraper.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures outbound page fetching.
type ScrapeConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RetryConfig configures backoff for transient collaborator failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVENTDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("orchestrator.parallel", true)
	v.SetDefault("orchestrator.max_concurrency", 4)
	v.SetDefault("orchestrator.source_timeout_secs", 30)
	v.SetDefault("fusion.strategy", string(fusion.StrategyHighestConfidence))
	v.SetDefault("fusion.confidence_threshold", fusion.DefaultThreshold)
	v.SetDefault("fusion.source_precedence", fusion.DefaultPrecedence())
	v.SetDefault("fusion.config_file", "")
	// nice_to_have is weighted 0.5 rather than 1 so that a draft with every
	// critical and important field good reaches the ready threshold.
	v.SetDefault("gaps.weights", map[string]float64{
		string(model.ImportanceCritical):   3,
		string(model.ImportanceImportant):  2,
		string(model.ImportanceNiceToHave): 0.5,
	})
	// Secrets have empty defaults so AutomaticEnv knows the keys and
	// Unmarshal picks up EVENTDRAFT_*_KEY.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("ocr.mistral_key", "")
	v.SetDefault("jina.key", "")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("image.mode", "vision")
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("scrape.requests_per_second", 2.0)
	v.SetDefault("scrape.burst", 4)
	v.SetDefault("scrape.timeout_secs", 20)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the given command mode depends on. Modes are
// "parse", "serve" and "mcp".
func (c *Config) Validate(mode string) error {
	switch mode {
	case "parse", "mcp":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return eris.New("config: server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Orchestrator.MaxConcurrency < 1 || c.Orchestrator.MaxConcurrency > 32 {
		return eris.New("config: orchestrator.max_concurrency must be between 1 and 32")
	}
	if c.Orchestrator.SourceTimeoutSecs < 0 {
		return eris.New("config: orchestrator.source_timeout_secs must be >= 0")
	}
	if _, err := fusion.ParseStrategy(c.Fusion.Strategy); err != nil {
		return eris.Wrap(err, "config: fusion.strategy")
	}
	if c.Fusion.ConfidenceThreshold < 0 || c.Fusion.ConfidenceThreshold > 100 {
		return eris.New("config: fusion.confidence_threshold must be between 0 and 100")
	}
	for k, w := range c.Gaps.Weights {
		switch model.Importance(k) {
		case model.ImportanceCritical, model.ImportanceImportant, model.ImportanceNiceToHave:
		default:
			return eris.Errorf("config: gaps.weights has unknown importance %q", k)
		}
		if w < 0 {
			return eris.Errorf("config: gaps.weights.%s must be >= 0", k)
		}
	}
	switch c.Image.Mode {
	case "vision", "ocr":
	default:
		return eris.Errorf("config: image.mode must be vision or ocr, got %q", c.Image.Mode)
	}
	switch c.OCR.Provider {
	case "tesseract", "mistral":
	default:
		return eris.Errorf("config: ocr.provider must be tesseract or mistral, got %q", c.OCR.Provider)
	}
	if c.Scrape.RequestsPerSecond <= 0 {
		return eris.New("config: scrape.requests_per_second must be > 0")
	}
	if c.Retry.MaxAttempts < 1 {
		return eris.New("config: retry.max_attempts must be >= 1")
	}
	return nil
}

// FusionEngineConfig builds the fusion configuration, preferring the YAML
// file named by fusion.config_file.
func (c *Config) FusionEngineConfig() (*fusion.Config, error) {
	if c.Fusion.ConfigFile != "" {
		return fusion.LoadConfig(c.Fusion.ConfigFile)
	}
	strategy, err := fusion.ParseStrategy(c.Fusion.Strategy)
	if err != nil {
		return nil, err
	}
	fc := fusion.NewDefaultConfig()
	fc.Defaults.Strategy = strategy
	fc.Defaults.ConfidenceThreshold = c.Fusion.ConfidenceThreshold
	if len(c.Fusion.SourcePrecedence) > 0 {
		fc.Precedence = c.Fusion.SourcePrecedence
	}
	return fc, fc.Validate()
}

// GapWeights converts the configured weights to model form.
func (c *Config) GapWeights() model.ImportanceWeights {
	w := make(model.ImportanceWeights, len(c.Gaps.Weights))
	for k, v := range c.Gaps.Weights {
		w[model.Importance(k)] = v
	}
	return w
}

// RetryPolicy builds the backoff policy for collaborator calls.
func (c *Config) RetryPolicy() resilience.Policy {
	return resilience.PolicyFromMillis(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
