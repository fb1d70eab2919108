package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_pipeline_ai_requests_total",
			Help: "Total number of requests to AI providers.",
		},
		[]string{"provider", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_pipeline_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_pipeline_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider", "model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_pipeline_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"provider", "model"},
	)
	aiEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_pipeline_ai_estimated_cost_usd_total",
			Help: "Estimated total cost of AI requests in USD.",
		},
		[]string{"provider", "model"},
	)
	aiImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_pipeline_ai_images_total",
			Help: "Images returned by image providers.",
		},
		[]string{"provider", "model", "safe"},
	)
)

// observeFailure records a failed call under a status derived from err.
func observeFailure(provider, model string, err error) {
	aiRequestsTotal.WithLabelValues(provider, model, statusLabel(err)).Inc()
}

func observeText(provider string, res *TextResult, seconds float64) {
	aiRequestsTotal.WithLabelValues(provider, res.ModelUsed, "success").Inc()
	aiRequestDuration.WithLabelValues(provider, res.ModelUsed).Observe(seconds)
	if res.PromptTokens > 0 {
		aiPromptTokens.WithLabelValues(provider, res.ModelUsed).Observe(float64(res.PromptTokens))
	}
	if res.CompletionTokens > 0 {
		aiCompletionTokens.WithLabelValues(provider, res.ModelUsed).Observe(float64(res.CompletionTokens))
	}
	if res.CostEstimateUSD > 0 {
		aiEstimatedCostUSD.WithLabelValues(provider, res.ModelUsed).Add(res.CostEstimateUSD)
	}
}
