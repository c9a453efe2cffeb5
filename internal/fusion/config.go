package fusion

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/eventdraft/internal/model"
)

// DefaultThreshold is the minimum candidate confidence when none is configured.
const DefaultThreshold = 30

// Config is the fusion configuration.
type Config struct {
	Defaults   DefaultConfig          `yaml:"defaults"`
	Precedence map[string]int         `yaml:"source_precedence"`
	Fields     map[string]FieldConfig `yaml:"fields"`
}

// DefaultConfig holds the strategy and threshold applied to every field.
type DefaultConfig struct {
	Strategy            Strategy `yaml:"strategy"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
}

// FieldConfig overrides the defaults for one field.
type FieldConfig struct {
	Strategy            Strategy `yaml:"strategy"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
}

// NewDefaultConfig returns the built-in configuration: highest confidence,
// threshold 30, image > url > text.
func NewDefaultConfig() *Config {
	return &Config{
		Defaults: DefaultConfig{
			Strategy:            StrategyHighestConfidence,
			ConfidenceThreshold: DefaultThreshold,
		},
		Precedence: DefaultPrecedence(),
	}
}

// DefaultPrecedence ranks source types for tie-breaks.
func DefaultPrecedence() map[string]int {
	return map[string]int{
		string(model.SourceImage): 3,
		string(model.SourceURL):   2,
		string(model.SourceText):  1,
	}
}

// LoadConfig reads fusion config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fusion: read config %s", path)
	}

	// The YAML has a top-level "fusion" key
	var wrapper struct {
		Fusion Config `yaml:"fusion"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "fusion: parse config")
	}

	cfg := &wrapper.Fusion
	if cfg.Defaults.Strategy == "" {
		cfg.Defaults.Strategy = StrategyHighestConfidence
	}
	if len(cfg.Precedence) == 0 {
		cfg.Precedence = DefaultPrecedence()
	}
	// Apply defaults to fields missing strategy/threshold
	for key, fc := range cfg.Fields {
		if fc.Strategy == "" {
			fc.Strategy = cfg.Defaults.Strategy
		}
		if fc.ConfidenceThreshold == 0 {
			fc.ConfidenceThreshold = cfg.Defaults.ConfidenceThreshold
		}
		cfg.Fields[key] = fc
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown strategies, unknown fields and thresholds
// outside [0,100].
func (c *Config) Validate() error {
	if !c.Defaults.Strategy.Valid() {
		return eris.Wrapf(ErrUnknownStrategy, "fusion: default strategy %q", c.Defaults.Strategy)
	}
	if c.Defaults.ConfidenceThreshold < 0 || c.Defaults.ConfidenceThreshold > 100 {
		return eris.Errorf("fusion: default threshold %v outside [0,100]", c.Defaults.ConfidenceThreshold)
	}
	for key, fc := range c.Fields {
		if !model.FieldName(key).Valid() {
			return eris.Errorf("fusion: unknown field %q", key)
		}
		if !fc.Strategy.Valid() {
			return eris.Wrapf(ErrUnknownStrategy, "fusion: field %s strategy %q", key, fc.Strategy)
		}
		if fc.ConfidenceThreshold < 0 || fc.ConfidenceThreshold > 100 {
			return eris.Errorf("fusion: field %s threshold %v outside [0,100]", key, fc.ConfidenceThreshold)
		}
	}
	return nil
}

// GetFieldConfig returns the config for a field, falling back to defaults.
func (c *Config) GetFieldConfig(field model.FieldName) FieldConfig {
	if fc, ok := c.Fields[string(field)]; ok {
		return fc
	}
	return FieldConfig{
		Strategy:            c.Defaults.Strategy,
		ConfidenceThreshold: c.Defaults.ConfidenceThreshold,
	}
}

// Override returns a copy of c with the default strategy and threshold
// replaced. An empty strategy or nil threshold keeps the current value.
// Per-field entries are kept as configured.
func (c *Config) Override(strategy string, threshold *float64) (*Config, error) {
	out := *c
	if strategy != "" {
		s, err := ParseStrategy(strategy)
		if err != nil {
			return nil, err
		}
		out.Defaults.Strategy = s
	}
	if threshold != nil {
		out.Defaults.ConfidenceThreshold = *threshold
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
