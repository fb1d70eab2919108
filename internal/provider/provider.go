// Package provider adapts external text and image generation APIs to one
// capability interface and maps their failures onto the error taxonomy.
package provider

import (
	"context"

	"content-pipeline/shared/models"
)

// TextRequest is a single chat-style completion.
type TextRequest struct {
	System      *string
	Prompt      string
	Model       string
	Temperature *float64
	MaxTokens   *int
	// AccountID labels metrics.
	AccountID string
}

// TextResult is the outcome of a successful text generation.
type TextResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TokensUsed       int
	ModelUsed        string
	LatencyMs        int64
	CostEstimateUSD  float64
}

// TextProvider generates text.
type TextProvider interface {
	Name() string
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)
}

// ImageRequest is the provider-facing image generation request.
type ImageRequest struct {
	Prompt          string
	NegativePrompt  *string
	AspectRatio     string
	Resolution      string
	StyleType       string
	RenderingSpeed  string
	MagicPrompt     string
	NumImages       int
	Seed            *int64
	StyleCodes      []string
	ReferenceImages []string
	ModelVersion    string
	ColorPalette    *models.ColorPalette
	AccountID       string
}

// ImageResult is one generated image.
type ImageResult struct {
	URL             string
	AltText         *string
	Seed            *int64
	Resolution      string
	StyleType       string
	IsSafe          bool
	GenerationTimeS float64
	CostEstimateUSD float64
}

// ImageProvider generates images. When every image is flagged unsafe it
// returns the flagged results together with models.ErrUnsafeContent.
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) ([]ImageResult, error)
}
