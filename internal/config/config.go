package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/ieee0824/arpalm/corpus"
	"github.com/ieee0824/arpalm/language"
)

// BuildConfig is the YAML configuration shared by the command line tools.
type BuildConfig struct {
	Order        int          `yaml:"order"`
	Method       string       `yaml:"method"`
	DiscountMass float64      `yaml:"discount_mass"`
	DiscountStep float64      `yaml:"discount_step"`
	Corpus       CorpusConfig `yaml:"corpus"`
	WordFile     string       `yaml:"word_file,omitempty"`
	WordCount    int          `yaml:"word_count"`
	Output       string       `yaml:"output,omitempty"`
}

// CorpusConfig selects the corpus normalization steps.
type CorpusConfig struct {
	Case        string `yaml:"case,omitempty"`
	AddStart    bool   `yaml:"add_start"`
	UnicodeNorm bool   `yaml:"unicode_norm"`
	TokenNorm   bool   `yaml:"token_norm"`
}

// Default returns the configuration used when no file is given.
func Default() *BuildConfig {
	lc := language.DefaultConfig()
	return &BuildConfig{
		Order:        lc.MaxOrder,
		Method:       lc.Method.String(),
		DiscountMass: lc.DiscountMass,
		DiscountStep: lc.DiscountStep,
		WordCount:    1,
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*BuildConfig, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that has a restricted range.
func (c *BuildConfig) Validate() error {
	if _, err := c.LanguageConfig(); err != nil {
		return err
	}
	if _, err := corpus.ParseCase(c.Corpus.Case); err != nil {
		return err
	}
	if c.WordCount < 1 {
		return fmt.Errorf("%w: word count %d must be at least 1", language.ErrInvalidConfig, c.WordCount)
	}
	return nil
}

// LanguageConfig converts the estimator fields to a language.Config.
func (c *BuildConfig) LanguageConfig() (language.Config, error) {
	method, err := language.ParseMethod(c.Method)
	if err != nil {
		return language.Config{}, err
	}
	lc := language.Config{
		MaxOrder:     c.Order,
		Method:       method,
		DiscountMass: c.DiscountMass,
		DiscountStep: c.DiscountStep,
	}
	if err := lc.Validate(); err != nil {
		return language.Config{}, err
	}
	return lc, nil
}

// CorpusOptions converts the corpus section to corpus.Options. An invalid
// case name falls back to CaseKeep; Validate reports it.
func (c *BuildConfig) CorpusOptions() corpus.Options {
	fold, _ := corpus.ParseCase(c.Corpus.Case)
	return corpus.Options{
		Case:        fold,
		AddStart:    c.Corpus.AddStart,
		UnicodeNorm: c.Corpus.UnicodeNorm,
		TokenNorm:   c.Corpus.TokenNorm,
	}
}
