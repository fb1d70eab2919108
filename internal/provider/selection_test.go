package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-pipeline/internal/config"
	"content-pipeline/shared/models"
)

type stubText struct{ name string }

func (s stubText) Name() string { return s.name }
func (s stubText) GenerateText(context.Context, TextRequest) (*TextResult, error) {
	return &TextResult{Text: s.name}, nil
}

type stubImage struct{}

func (stubImage) Name() string { return "ideogram" }
func (stubImage) GenerateImage(context.Context, ImageRequest) ([]ImageResult, error) {
	return nil, nil
}

const tableYAML = `
text:
  default:
    provider: openai
    model: gpt-4o-mini
  categories:
    prayer:
      provider: ollama
      model: llama3
  families:
    gpt: openai
    llama3: ollama
    gemini: openai
image:
  default: ideogram
prices:
  default:
    input_per_million: 0.15
    output_per_million: 0.6
  gpt-4o:
    input_per_million: 2.5
    output_per_million: 10
`

func TestLoadTableAndSelect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tableYAML), 0o600))

	table, err := LoadTable(path, "openai")
	require.NoError(t, err)

	reg, err := NewRegistry(table, []TextProvider{stubText{"openai"}, stubText{"ollama"}}, []ImageProvider{stubImage{}}, zap.NewNop())
	require.NoError(t, err)

	p, model := reg.SelectText(models.CategoryBlogPost, "")
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o-mini", model)

	p, model = reg.SelectText(models.CategoryPrayer, "")
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "llama3", model)

	p, model = reg.SelectText(models.CategoryPrayer, "gpt-4o")
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o", model)

	p, _ = reg.SelectText(models.CategorySermon, "mistral-large")
	assert.Equal(t, "openai", p.Name(), "unknown family falls back to the category route")

	img, err := reg.Image()
	require.NoError(t, err)
	assert.Equal(t, "ideogram", img.Name())

	assert.InDelta(t, 2.5+10, table.Prices.Cost("gpt-4o", 1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 0.15, table.Prices.Cost("unknown", 1_000_000, 0), 1e-9)
}

func TestNewRegistryRejectsUnknownProvider(t *testing.T) {
	table, err := LoadTable("", "anthropic")
	require.NoError(t, err)

	_, err = NewRegistry(table, []TextProvider{stubText{"openai"}}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestModelFamily(t *testing.T) {
	assert.Equal(t, "gpt", ModelFamily("gpt-4o-mini"))
	assert.Equal(t, "llama3", ModelFamily("llama3:8b"))
	assert.Equal(t, "gemini", ModelFamily("models/gemini-1.5-pro"))
	assert.Equal(t, "", ModelFamily(""))
}

func TestPricingBuiltInDefault(t *testing.T) {
	var p Pricing
	assert.InDelta(t, 0.1+0.4, p.Cost("any", 1_000_000, 1_000_000), 1e-9)
}

func TestClassifyStatus(t *testing.T) {
	assert.ErrorIs(t, classifyStatus(429, "too many"), models.ErrRateLimited)
	assert.ErrorIs(t, classifyStatus(429, "insufficient quota"), models.ErrQuotaExceeded)
	assert.ErrorIs(t, classifyStatus(504, ""), models.ErrTimeout)
	assert.ErrorIs(t, classifyStatus(500, ""), models.ErrProviderUnavailable)
	assert.ErrorIs(t, classifyStatus(400, "bad"), models.ErrBadRequest)

	fatal := classifyStatus(401, "invalid key")
	assert.False(t, models.IsRetryable(fatal))
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		AIClientType: "ollama",
		AIBaseURL:    "http://localhost:11434/v1",
		AIModel:      "llama3:8b",
		AITimeout:    time.Minute,
	}
	reg, err := FromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	p, model := reg.SelectText(models.CategoryBlogPost, "")
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "llama3:8b", model)

	_, err = reg.Image()
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)

	cfg.AIClientType = "anthropic"
	_, err = FromConfig(cfg, zap.NewNop())
	assert.Error(t, err)
}
