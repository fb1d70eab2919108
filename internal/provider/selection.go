package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

const (
	defaultInputPricePerMillion  = 0.1
	defaultOutputPricePerMillion = 0.4
)

// Route binds a category to a provider and an optional model override.
type Route struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Price is the per-million-token price of a model.
type Price struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// Pricing maps model names to prices. The "default" entry applies to unknown models.
type Pricing map[string]Price

// Cost estimates the USD cost of a call.
func (p Pricing) Cost(model string, promptTokens, completionTokens int) float64 {
	price, ok := p[model]
	if !ok {
		price, ok = p["default"]
	}
	if !ok {
		price = Price{InputPerMillion: defaultInputPricePerMillion, OutputPerMillion: defaultOutputPricePerMillion}
	}
	return float64(promptTokens)*price.InputPerMillion/1_000_000.0 +
		float64(completionTokens)*price.OutputPerMillion/1_000_000.0
}

// Table is the provider selection table. It is loaded from YAML with
// environment overrides for the defaults.
type Table struct {
	Text struct {
		Default    Route            `yaml:"default"`
		Categories map[string]Route `yaml:"categories"`
		// Families maps a model family (gpt, gemini, llama3) to a provider name.
		Families map[string]string `yaml:"families"`
	} `yaml:"text"`
	Image struct {
		Default string `yaml:"default" env:"IMAGE_PROVIDER" env-default:"ideogram"`
	} `yaml:"image"`
	Prices Pricing `yaml:"prices"`
}

// LoadTable reads the selection table from path. An empty path yields a table
// routing every category to defaultProvider.
func LoadTable(path, defaultProvider string) (*Table, error) {
	var t Table
	if path == "" {
		if err := cleanenv.ReadEnv(&t); err != nil {
			return nil, fmt.Errorf("failed to read provider table from env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &t); err != nil {
		return nil, fmt.Errorf("failed to read provider table %s: %w", path, err)
	}
	if t.Text.Default.Provider == "" {
		t.Text.Default.Provider = defaultProvider
	}
	return &t, nil
}

// ModelFamily returns the family prefix of a model name: "gpt-4o-mini" -> "gpt",
// "llama3:8b" -> "llama3", "models/gemini-1.5-pro" -> "gemini".
func ModelFamily(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	if i := strings.IndexAny(m, "-:"); i >= 0 {
		m = m[:i]
	}
	return m
}

// Registry selects concrete providers by category and model family.
type Registry struct {
	table  *Table
	text   map[string]TextProvider
	images map[string]ImageProvider
	logger *zap.Logger
}

// NewRegistry validates that every provider named by the table is registered.
func NewRegistry(table *Table, text []TextProvider, images []ImageProvider, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		table:  table,
		text:   make(map[string]TextProvider, len(text)),
		images: make(map[string]ImageProvider, len(images)),
		logger: logger.Named("ProviderRegistry"),
	}
	for _, p := range text {
		r.text[p.Name()] = p
	}
	for _, p := range images {
		r.images[p.Name()] = p
	}

	names := []string{table.Text.Default.Provider}
	for _, route := range table.Text.Categories {
		names = append(names, route.Provider)
	}
	for _, name := range table.Text.Families {
		names = append(names, name)
	}
	for _, name := range names {
		if _, ok := r.text[name]; !ok {
			return nil, fmt.Errorf("provider table references unknown text provider %q", name)
		}
	}
	if len(r.images) > 0 {
		if _, ok := r.images[table.Image.Default]; !ok {
			return nil, fmt.Errorf("provider table references unknown image provider %q", table.Image.Default)
		}
	}
	r.logger.Info("Provider registry ready",
		zap.Strings("text_providers", r.TextProviderNames()),
		zap.String("default_text_provider", table.Text.Default.Provider),
		zap.String("image_provider", table.Image.Default),
	)
	return r, nil
}

// SelectText resolves the provider and model for a generation. An explicit
// model wins by family; otherwise the category route, then the default.
func (r *Registry) SelectText(category models.PromptCategory, model string) (TextProvider, string) {
	if model != "" {
		if name, ok := r.table.Text.Families[ModelFamily(model)]; ok {
			return r.text[name], model
		}
	}
	route, ok := r.table.Text.Categories[string(category)]
	if !ok {
		route = r.table.Text.Default
	}
	if model == "" {
		model = route.Model
	}
	if model == "" {
		model = r.table.Text.Default.Model
	}
	return r.text[route.Provider], model
}

// Image returns the configured image provider.
func (r *Registry) Image() (ImageProvider, error) {
	p, ok := r.images[r.table.Image.Default]
	if !ok {
		return nil, fmt.Errorf("%w: no image provider configured", models.ErrProviderUnavailable)
	}
	return p, nil
}

// TextProviderNames lists registered text providers in name order.
func (r *Registry) TextProviderNames() []string {
	names := make([]string, 0, len(r.text))
	for name := range r.text {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
