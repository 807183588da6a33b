package config

import (
	"fmt"
	"os"

	"github.com/sdpower/tokenflow-go/internal/types"
	"gopkg.in/yaml.v3"
)

// ModelPricing is the USD price per million tokens for one model.
type ModelPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
	Cached float64 `yaml:"cached"`
}

// HourRate is the tokens-per-hour estimate range for one model family.
type HourRate struct {
	MinTokensPerHour float64 `yaml:"min_tokens_per_hour"`
	MaxTokensPerHour float64 `yaml:"max_tokens_per_hour"`
}

// PlanLimits maps model family to its weekly token allowance range.
type PlanLimits map[string]types.TokenRange

// Config is the read-only value injected into the pipeline. It is built once
// before ingestion starts and never mutated afterwards; tests substitute an
// alternate instance instead of touching shared state.
type Config struct {
	Pricing          map[string]ModelPricing `yaml:"pricing"`
	Plans            map[string]PlanLimits   `yaml:"plans"`
	TokensPerHour    map[string]HourRate     `yaml:"tokens_per_hour"`
	BatchAPIDiscount float64                 `yaml:"batch_api_discount"`
}

// Validate fails fast on a configuration missing required sections. This is
// the only unrecoverable condition in a run and it fires before ingestion.
func (c Config) Validate() error {
	if len(c.Pricing) == 0 {
		return fmt.Errorf("%w: pricing table is empty", types.ErrInvalidConfig)
	}
	if len(c.Plans) == 0 {
		return fmt.Errorf("%w: no plan rate limits configured", types.ErrInvalidConfig)
	}
	if len(c.TokensPerHour) == 0 {
		return fmt.Errorf("%w: no tokens-per-hour estimates configured", types.ErrInvalidConfig)
	}
	if c.BatchAPIDiscount <= 0 || c.BatchAPIDiscount > 1 {
		return fmt.Errorf("%w: batch API discount %v outside (0, 1]", types.ErrInvalidConfig, c.BatchAPIDiscount)
	}
	for model, p := range c.Pricing {
		if p.Input < 0 || p.Output < 0 || p.Cached < 0 {
			return fmt.Errorf("%w: negative price for model %s", types.ErrInvalidConfig, model)
		}
	}
	for family, rate := range c.TokensPerHour {
		if rate.MinTokensPerHour <= 0 || rate.MaxTokensPerHour <= 0 {
			return fmt.Errorf("%w: non-positive hour rate for family %s", types.ErrInvalidConfig, family)
		}
	}
	return nil
}

// PriceFor looks up the pricing row for a model. The second return value is
// false for unknown models; callers fall back to zero cost, never fail.
func (c Config) PriceFor(model string) (ModelPricing, bool) {
	p, ok := c.Pricing[model]
	return p, ok
}

// LimitsFor returns the weekly allowances for a plan tier.
func (c Config) LimitsFor(plan string) (PlanLimits, bool) {
	l, ok := c.Plans[plan]
	return l, ok
}

// Load reads a YAML config file and overlays it on the defaults. Sections
// present in the file replace the default section wholesale.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if len(overlay.Pricing) > 0 {
		cfg.Pricing = overlay.Pricing
	}
	if len(overlay.Plans) > 0 {
		cfg.Plans = overlay.Plans
	}
	if len(overlay.TokensPerHour) > 0 {
		cfg.TokensPerHour = overlay.TokensPerHour
	}
	if overlay.BatchAPIDiscount != 0 {
		cfg.BatchAPIDiscount = overlay.BatchAPIDiscount
	}

	return cfg, cfg.Validate()
}
