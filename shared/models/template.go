package models

import "time"

// PromptCategory is an open string from the configured category set.
type PromptCategory string

const (
	CategoryBlogPost        PromptCategory = "blog_post"
	CategorySocialMedia     PromptCategory = "social_media"
	CategoryVideoScript     PromptCategory = "video_script"
	CategoryPrayer          PromptCategory = "prayer"
	CategoryAnalysis        PromptCategory = "analysis"
	CategoryEmail           PromptCategory = "email"
	CategoryNewsletter      PromptCategory = "newsletter"
	CategoryDevotional      PromptCategory = "devotional"
	CategorySermon          PromptCategory = "sermon"
	CategoryImageGeneration PromptCategory = "image_generation"
)

// TextCategories are categories whose generations produce text.
var TextCategories = []PromptCategory{
	CategoryBlogPost, CategorySocialMedia, CategoryVideoScript, CategoryPrayer, CategoryAnalysis,
	CategoryEmail, CategoryNewsletter, CategoryDevotional, CategorySermon,
}

// IsMedia reports whether the category produces media rather than text.
func (c PromptCategory) IsMedia() bool {
	return c == CategoryImageGeneration
}

// IsKnown reports whether c is one of the configured categories.
func (c PromptCategory) IsKnown() bool {
	if c.IsMedia() {
		return true
	}
	for _, known := range TextCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Template is a named generation recipe owned by an account.
type Template struct {
	ID               string         `db:"id" json:"template_id"`
	AccountID        string         `db:"account_id" json:"account_id"`
	Name             string         `db:"name" json:"name"`
	Category         PromptCategory `db:"category" json:"category"`
	Description      string         `db:"description" json:"description"`
	CurrentVersionID *string        `db:"current_version_id" json:"current_version_id,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// TemplateVersion is an immutable numbered payload of a template.
type TemplateVersion struct {
	ID            string    `db:"id" json:"version_id"`
	TemplateID    string    `db:"template_id" json:"template_id"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	PromptContent string    `db:"prompt_content" json:"prompt_content"`
	SystemMessage *string   `db:"system_message" json:"system_message,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	IsCurrent     bool      `db:"is_current" json:"is_current"`
	UsageCount    int64     `db:"usage_count" json:"usage_count"`
}

// TemplateSummary is a list row of templates.
type TemplateSummary struct {
	ID                   string         `db:"id" json:"template_id"`
	Name                 string         `db:"name" json:"name"`
	Category             PromptCategory `db:"category" json:"category"`
	Description          string         `db:"description" json:"description"`
	CurrentVersionID     *string        `db:"current_version_id" json:"current_version_id,omitempty"`
	CurrentVersionNumber *int           `db:"current_version_number" json:"current_version_number,omitempty"`
	VersionCount         int            `db:"version_count" json:"version_count"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// TemplateWithVersion is a template together with its current version payload.
type TemplateWithVersion struct {
	Template
	CurrentVersion *TemplateVersion `json:"current_version,omitempty"`
}

// LegacyPrompt mirrors the current version of a category, one row per (account, category).
type LegacyPrompt struct {
	AccountID     string         `db:"account_id" json:"account_id"`
	Category      PromptCategory `db:"category" json:"category"`
	PromptContent string         `db:"prompt_content" json:"prompt_content"`
	SystemMessage *string        `db:"system_message" json:"system_message,omitempty"`
	TemplateID    string         `db:"template_id" json:"template_id"`
	VersionID     string         `db:"version_id" json:"version_id"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// NewTemplateInput carries the fields of createTemplate.
type NewTemplateInput struct {
	Name          string         `json:"name" binding:"required"`
	Category      PromptCategory `json:"category" binding:"required"`
	Description   string         `json:"description"`
	PromptContent string         `json:"prompt_content" binding:"required"`
	SystemMessage *string        `json:"system_message,omitempty"`
}

// NewVersionInput carries the fields of createVersion.
type NewVersionInput struct {
	PromptContent string  `json:"prompt_content" binding:"required"`
	SystemMessage *string `json:"system_message,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	CreatedBy     string  `json:"created_by"`
}
