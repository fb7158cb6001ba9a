package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Placeholders overrides the fixed multipliers behind the collection rate
// and the estimate cards. Unset fields keep their defaults.
type Placeholders struct {
	PerClaimBilled *float64        `yaml:"per_claim_billed,omitempty"` // Collection rate denominator per claim
	AgingShare     *float64        `yaml:"aging_share,omitempty"`      // AR 90+ as a share of total payments
	DenialRate     *float64        `yaml:"denial_rate,omitempty"`      // Shown as-is, in percent
	Providers      []ProviderShare `yaml:"providers,omitempty"`
}

type Config struct {
	// Currency is the ISO code amounts are formatted in (e.g. "INR", "USD")
	Currency string `yaml:"currency,omitempty"`

	// WindowDays is the trailing window the metrics cover
	WindowDays int `yaml:"window_days,omitempty"`

	// UseDefaultAliases controls whether the built-in header aliases are kept.
	// Defaults to true. Set to false to use only the aliases listed below.
	UseDefaultAliases *bool `yaml:"use_default_aliases,omitempty"`

	// Aliases lists extra source columns per canonical field, tried after the defaults
	Aliases ColumnAliases `yaml:"aliases,omitempty"`

	// Placeholders tunes the non data-driven KPIs
	Placeholders Placeholders `yaml:"placeholders,omitempty"`

	// resolved alias chains (not serialized)
	columns ColumnAliases `yaml:"-"`
}

// DefaultConfigPath returns the default config file path (~/.billing-dashboard/config.yaml)
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".billing-dashboard", "config.yaml")
}

// NewDefaultConfig creates a config with only the built-in aliases.
// Use this when no config file exists.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.resolve()
	return cfg
}

// LoadConfig reads and validates a YAML config file. A missing file is
// reported as an error wrapping os.ErrNotExist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.resolve()
	return &cfg, nil
}

// Validate rejects values the aggregator cannot work with
func (c *Config) Validate() error {
	if c.WindowDays < 0 {
		return fmt.Errorf("invalid window_days %d: must not be negative", c.WindowDays)
	}
	p := c.Placeholders
	if p.PerClaimBilled != nil && *p.PerClaimBilled <= 0 {
		return fmt.Errorf("invalid per_claim_billed %v: must be positive", *p.PerClaimBilled)
	}
	if p.AgingShare != nil && *p.AgingShare < 0 {
		return fmt.Errorf("invalid aging_share %v: must not be negative", *p.AgingShare)
	}
	for _, prov := range p.Providers {
		if prov.Name == "" {
			return fmt.Errorf("invalid provider share: name is required")
		}
		if prov.Share < 0 {
			return fmt.Errorf("invalid share %v for provider %q: must not be negative", prov.Share, prov.Name)
		}
	}
	return nil
}

// resolve merges default aliases with user-defined ones (defaults come first)
func (c *Config) resolve() {
	useDefaults := c.UseDefaultAliases == nil || *c.UseDefaultAliases
	if useDefaults {
		c.columns = DefaultColumnAliases.Merge(c.Aliases)
	} else {
		c.columns = ColumnAliases{}.Merge(c.Aliases)
	}
}

// Columns returns the resolved alias chains
func (c *Config) Columns() ColumnAliases {
	if c == nil {
		return DefaultColumnAliases
	}
	return c.columns
}

// AggregateOptions returns the aggregation settings with config overrides applied
func (c *Config) AggregateOptions() AggregateOptions {
	opts := DefaultAggregateOptions()
	if c == nil {
		return opts
	}
	if c.WindowDays > 0 {
		opts.WindowDays = c.WindowDays
	}
	p := c.Placeholders
	if p.PerClaimBilled != nil {
		opts.PerClaimBilled = decimal.NewFromFloat(*p.PerClaimBilled)
	}
	if p.AgingShare != nil {
		opts.Estimates.AgingShare = *p.AgingShare
	}
	if p.DenialRate != nil {
		opts.Estimates.DenialRate = *p.DenialRate
	}
	if len(p.Providers) > 0 {
		opts.Estimates.Providers = append([]ProviderShare(nil), p.Providers...)
	}
	return opts
}

// CurrencyCode returns the configured currency, or fallback when unset
func (c *Config) CurrencyCode(fallback string) string {
	if c == nil || c.Currency == "" {
		return fallback
	}
	return c.Currency
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GenerateConfigTemplate creates a config spelling out every default, so
// the placeholder values are visible and editable
func GenerateConfigTemplate() *Config {
	defaults := DefaultAggregateOptions()
	perClaim := defaults.PerClaimBilled.InexactFloat64()
	aging := defaults.Estimates.AgingShare
	denial := defaults.Estimates.DenialRate
	useDefaults := true

	return &Config{
		Currency:          DefaultCurrency,
		WindowDays:        defaults.WindowDays,
		UseDefaultAliases: &useDefaults,
		Aliases:           ColumnAliases{},
		Placeholders: Placeholders{
			PerClaimBilled: &perClaim,
			AgingShare:     &aging,
			DenialRate:     &denial,
			Providers:      defaults.Estimates.Providers,
		},
	}
}
