package models

import (
	"encoding/json"
	"time"
)

// ImageStatus is the lifecycle state of a generated image.
type ImageStatus string

const (
	ImageStatusPendingReview ImageStatus = "pending_review"
	ImageStatusApproved      ImageStatus = "approved"
	ImageStatusArchived      ImageStatus = "archived"
)

var imageTransitions = map[ImageStatus][]ImageStatus{
	ImageStatusPendingReview: {ImageStatusApproved, ImageStatusArchived},
	ImageStatusArchived:      {ImageStatusPendingReview},
}

// CanTransitionImage reports whether from -> to is allowed.
func CanTransitionImage(from, to ImageStatus) bool {
	for _, next := range imageTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ImageRequest is the caller-facing shape of an image generation.
type ImageRequest struct {
	Prompt                    string   `json:"prompt"`
	NegativePrompt            *string  `json:"negative_prompt,omitempty"`
	AspectRatio               string   `json:"aspect_ratio,omitempty"`
	Resolution                string   `json:"resolution,omitempty"`
	StyleType                 string   `json:"style_type,omitempty"`
	RenderingSpeed            string   `json:"rendering_speed,omitempty"`
	MagicPrompt               string   `json:"magic_prompt,omitempty"`
	NumImages                 int      `json:"num_images,omitempty"`
	Seed                      *int64   `json:"seed,omitempty"`
	StyleCodes                []string `json:"style_codes,omitempty"`
	ReferenceImages           []string `json:"reference_images,omitempty"`
	ModelVersion              string   `json:"model_version,omitempty"`
	UseAccountColors          *bool    `json:"use_account_colors,omitempty"`
	SelectedColorTemplateName *string  `json:"selected_color_template_name,omitempty"`
	ApplyAccountPromptAffixes *bool    `json:"apply_account_prompt_affixes,omitempty"`
}

// ApplyAffixes defaults to true when unset.
func (r ImageRequest) ApplyAffixes() bool {
	return r.ApplyAccountPromptAffixes == nil || *r.ApplyAccountPromptAffixes
}

// ImageParameters is the persisted parameter set of an image record.
type ImageParameters struct {
	StyleType         string        `json:"style_type"`
	AspectRatio       string        `json:"aspect_ratio,omitempty"`
	Resolution        string        `json:"resolution,omitempty"`
	RenderingSpeed    string        `json:"rendering_speed,omitempty"`
	MagicPrompt       string        `json:"magic_prompt,omitempty"`
	NegativePrompt    *string       `json:"negative_prompt,omitempty"`
	Seed              *int64        `json:"seed,omitempty"`
	StyleCodes        []string      `json:"style_codes,omitempty"`
	ReferenceImageIDs []string      `json:"reference_image_ids,omitempty"`
	ColorPalette      *ColorPalette `json:"color_palette,omitempty"`
}

// ImageRecord is one generated image.
type ImageRecord struct {
	ID              string          `db:"id" json:"image_id"`
	AccountID       string          `db:"account_id" json:"account_id"`
	ContentID       *string         `db:"content_id" json:"content_id,omitempty"`
	JobID           *string         `db:"job_id" json:"job_id,omitempty"`
	Provider        string          `db:"provider" json:"provider"`
	ModelVersion    string          `db:"model_version" json:"model_version"`
	PromptUser      string          `db:"prompt_user" json:"prompt_user"`
	PromptFinal     string          `db:"prompt_final" json:"prompt_final"`
	Parameters      json.RawMessage `db:"parameters" json:"parameters"`
	ResultURL       string          `db:"result_url" json:"result_url"`
	AltText         *string         `db:"alt_text" json:"alt_text,omitempty"`
	Seed            *int64          `db:"seed" json:"seed,omitempty"`
	Resolution      string          `db:"resolution" json:"resolution,omitempty"`
	CostEstimateUSD float64         `db:"cost_estimate" json:"cost_estimate"`
	IsSafe          bool            `db:"is_safe" json:"is_safe"`
	Status          ImageStatus     `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// ColorWeight is one color of a palette.
type ColorWeight struct {
	Hex    string  `json:"color_hex"`
	Weight float64 `json:"color_weight"`
}

// ColorPalette is the provider-facing palette argument.
type ColorPalette struct {
	Name    string        `json:"name,omitempty"`
	Members []ColorWeight `json:"members,omitempty"`
}

// BrandColorTemplate is a named account palette.
type BrandColorTemplate struct {
	Name   string        `json:"name" binding:"required"`
	Colors []ColorWeight `json:"colors" binding:"required"`
}

// ImageDefaults are per-field defaults applied to image requests.
type ImageDefaults struct {
	ModelVersion   string `json:"model_version,omitempty"`
	StyleType      string `json:"style_type,omitempty"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	RenderingSpeed string `json:"rendering_speed,omitempty"`
	MagicPrompt    string `json:"magic_prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	NumImages      int    `json:"num_images,omitempty"`
}

// ImageSettings is the per-account image configuration row.
type ImageSettings struct {
	AccountID           string               `db:"account_id" json:"account_id"`
	PromptPrefix        *string              `db:"prompt_prefix" json:"prompt_prefix,omitempty"`
	PromptSuffix        *string              `db:"prompt_suffix" json:"prompt_suffix,omitempty"`
	BrandColors         []BrandColorTemplate `db:"brand_colors" json:"brand_colors"`
	PreferredStyleCodes []string             `db:"preferred_style_codes" json:"preferred_style_codes"`
	Defaults            ImageDefaults        `db:"defaults" json:"defaults"`
	UpdatedAt           time.Time            `db:"updated_at" json:"updated_at"`
}
