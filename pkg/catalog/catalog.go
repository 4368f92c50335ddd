// Package catalog holds the vocabulary used to label telemetry counters:
// tracked features, AI provider key flags and deactivation reason codes.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

// ErrInvalidCatalog is returned when a catalog file fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// UnknownReason labels deactivation codes missing from the catalog.
const UnknownReason = "Unknown"

// Feature is a tracked plugin feature and the detail counter that measures it.
type Feature struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// Provider is an AI provider whose API key presence is reported as a flag.
type Provider struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// Catalog is the effective label vocabulary.
type Catalog struct {
	Features            []Feature      `yaml:"features" json:"features"`
	CorrelationFeatures []string       `yaml:"correlation_features" json:"correlation_features"`
	Providers           []Provider     `yaml:"providers" json:"providers"`
	Reasons             map[int]string `yaml:"reasons" json:"reasons"`
}

// Default returns the vocabulary shipped with the plugin.
func Default() *Catalog {
	return &Catalog{
		Features: []Feature{
			{Key: "tokens_postscreate", Label: "Bulk Content"},
			{Key: "tokens_chatbots", Label: "Chatbot"},
			{Key: "tokens_workflow", Label: "Workflow Builder"},
			{Key: "tokens_magictext", Label: "Magic Text"},
			{Key: "tokens_postsrss", Label: "Posts RSS"},
			{Key: "tokens_training", Label: "Training"},
			{Key: "tokens_postsfields", Label: "Post Fields"},
			{Key: "tokens_postslinks", Label: "Posts Links"},
			{Key: "tokens_forms", Label: "Forms"},
			{Key: "tokens_postsaskai", Label: "Ask AI"},
			{Key: "tokens_productsfields", Label: "Product Fields"},
		},
		CorrelationFeatures: []string{"tokens_chatbots", "tokens_postscreate", "tokens_workflow"},
		Providers: []Provider{
			{Key: "apikey", Label: "OpenAI"},
			{Key: "gemini_api_key", Label: "Gemini"},
			{Key: "deep_seek_apikey", Label: "DeepSeek"},
		},
		Reasons: map[int]string{
			-1: "Not specified",
			0:  "Requires third-party APIs",
			1:  "Difficult to use",
			2:  "Lacking necessary features",
			3:  "Current features are not good enough",
			4:  "Missing features in the free version",
			5:  "Other",
		},
	}
}

// LoadFile reads a YAML catalog. Sections left empty in the file fall back
// to the defaults.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	def := Default()
	if len(c.Features) == 0 {
		c.Features = def.Features
	}
	if len(c.CorrelationFeatures) == 0 {
		c.CorrelationFeatures = def.CorrelationFeatures
	}
	if len(c.Providers) == 0 {
		c.Providers = def.Providers
	}
	if len(c.Reasons) == 0 {
		c.Reasons = def.Reasons
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks keys are unique and well formed, and that correlation
// features refer to tracked features.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		if !telemetry.IsFeatureDetail(f.Key) {
			return fmt.Errorf("%w: feature key %q must start with %q", ErrInvalidCatalog, f.Key, telemetry.FeatureDetailPfx)
		}
		if strings.TrimSpace(f.Label) == "" {
			return fmt.Errorf("%w: feature %q has no label", ErrInvalidCatalog, f.Key)
		}
		if seen[f.Key] {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidCatalog, f.Key)
		}
		seen[f.Key] = true
	}
	for _, key := range c.CorrelationFeatures {
		if !seen[key] {
			return fmt.Errorf("%w: correlation feature %q is not a tracked feature", ErrInvalidCatalog, key)
		}
	}

	providers := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Key == "" || p.Label == "" {
			return fmt.Errorf("%w: provider entries need key and label", ErrInvalidCatalog)
		}
		if providers[p.Key] {
			return fmt.Errorf("%w: duplicate provider %q", ErrInvalidCatalog, p.Key)
		}
		providers[p.Key] = true
	}
	return nil
}

// FeatureLabel returns the display label of a feature key, or the key itself.
func (c *Catalog) FeatureLabel(key string) string {
	for _, f := range c.Features {
		if f.Key == key {
			return f.Label
		}
	}
	return key
}

// HasFeature reports whether key is a tracked feature.
func (c *Catalog) HasFeature(key string) bool {
	for _, f := range c.Features {
		if f.Key == key {
			return true
		}
	}
	return false
}

// ReasonLabel maps a deactivation reason code to its label.
func (c *Catalog) ReasonLabel(code int64) string {
	if label, ok := c.Reasons[int(code)]; ok {
		return label
	}
	return UnknownReason
}

// ReasonCodes returns the configured reason codes in ascending order.
func (c *Catalog) ReasonCodes() []int {
	codes := make([]int, 0, len(c.Reasons))
	for code := range c.Reasons {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}
