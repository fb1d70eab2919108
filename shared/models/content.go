package models

import (
	"encoding/json"
	"time"
)

// ContentStatus is the lifecycle state of a content item.
type ContentStatus string

const (
	ContentStatusDraft         ContentStatus = "draft"
	ContentStatusReviewPending ContentStatus = "review_pending"
	ContentStatusApproved      ContentStatus = "approved"
	ContentStatusPublished     ContentStatus = "published"
	ContentStatusRejected      ContentStatus = "rejected"
	ContentStatusArchived      ContentStatus = "archived"
)

var contentTransitions = map[ContentStatus][]ContentStatus{
	ContentStatusDraft:         {ContentStatusReviewPending, ContentStatusRejected},
	ContentStatusReviewPending: {ContentStatusApproved, ContentStatusRejected},
	ContentStatusApproved:      {ContentStatusPublished, ContentStatusArchived},
	ContentStatusRejected:      {ContentStatusReviewPending},
	ContentStatusArchived:      {ContentStatusApproved},
}

// CanTransitionContent reports whether from -> to is an edge of the lifecycle graph.
func CanTransitionContent(from, to ContentStatus) bool {
	for _, next := range contentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known content status.
func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusReviewPending, ContentStatusApproved,
		ContentStatusPublished, ContentStatusRejected, ContentStatusArchived:
		return true
	}
	return false
}

// ContentItem is one generated artifact.
type ContentItem struct {
	ID             string          `db:"id" json:"content_id"`
	AccountID      string          `db:"account_id" json:"account_id"`
	StoryID        *int64          `db:"story_id" json:"story_id,omitempty"`
	PromptCategory PromptCategory  `db:"prompt_category" json:"prompt_category"`
	ContentData    json.RawMessage `db:"content_data" json:"content_data"`
	Status         ContentStatus   `db:"status" json:"status"`
	HasParseError  bool            `db:"has_parse_error" json:"has_parse_error"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Story is a read-only source article.
type Story struct {
	ID              int64      `db:"id" json:"story_id"`
	AccountID       string     `db:"account_id" json:"account_id"`
	Title           string     `db:"title" json:"title"`
	FullText        string     `db:"full_text" json:"full_text"`
	URL             string     `db:"url" json:"url"`
	SourceName      string     `db:"source_name" json:"source_name"`
	PublicationDate *time.Time `db:"publication_date" json:"publication_date,omitempty"`
	RelevanceScore  float64    `db:"relevance_score" json:"relevance_score"`
	Keywords        []string   `db:"keywords" json:"keywords"`
}
