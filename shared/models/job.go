package models

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobType names the work a job performs.
type JobType string

const (
	JobTypeFullCycle        JobType = "full_cycle"
	JobTypeGenerateForStory JobType = "generate_for_story"
	JobTypeRegenerate       JobType = "regenerate"
	JobTypeSourceRefresh    JobType = "source_refresh"
	JobTypeSubmitURLs       JobType = "submit_urls"
	JobTypeGenerateImage    JobType = "generate_image"
	JobTypeRunWorkflow      JobType = "run_workflow"
)

// IsValid reports whether t is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeFullCycle, JobTypeGenerateForStory, JobTypeRegenerate, JobTypeSourceRefresh,
		JobTypeSubmitURLs, JobTypeGenerateImage, JobTypeRunWorkflow:
		return true
	}
	return false
}

// Job is a persistent unit of background work.
type Job struct {
	ID                 string          `db:"id" json:"job_id"`
	AccountID          string          `db:"account_id" json:"account_id"`
	UserID             string          `db:"user_id" json:"user_id"`
	JobType            JobType         `db:"job_type" json:"job_type"`
	Status             JobStatus       `db:"status" json:"status"`
	Payload            json.RawMessage `db:"payload" json:"payload"`
	PayloadHash        string          `db:"payload_hash" json:"-"`
	ProgressPercentage int             `db:"progress_percentage" json:"progress_percentage"`
	ProgressDetails    *string         `db:"progress_details" json:"progress_details,omitempty"`
	Results            json.RawMessage `db:"results" json:"results,omitempty"`
	ErrorMessage       *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount         int             `db:"retry_count" json:"retry_count"`
	MaxRetries         int             `db:"max_retries" json:"max_retries"`
	CancelRequested    bool            `db:"cancel_requested" json:"cancel_requested"`
	AvailableAt        time.Time       `db:"available_at" json:"available_at"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	StartedAt          *time.Time      `db:"started_at" json:"started_at,omitempty"`
	CompletedAt        *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	WorkerID           *string         `db:"worker_id" json:"worker_id,omitempty"`
	HeartbeatAt        *time.Time      `db:"heartbeat_at" json:"heartbeat_at,omitempty"`
}

// JobFilter narrows job listings.
type JobFilter struct {
	Status JobStatus
	Type   JobType
	Limit  int
	Offset int
}

// JobResults is the structured summary stored on a finished job.
type JobResults struct {
	ArticlesAggregated *int     `json:"articlesAggregated,omitempty"`
	ArticlesAnalyzed   *int     `json:"articlesAnalyzed,omitempty"`
	ContentGenerated   int      `json:"contentGenerated"`
	BlogID             *string  `json:"blogId,omitempty"`
	BlogIDs            []string `json:"blogIds,omitempty"`
	SpecificStoryID    *int64   `json:"specificStoryId,omitempty"`
	ContentIDs         []string `json:"contentIds,omitempty"`
	ImageIDs           []string `json:"imageIds,omitempty"`
	SkippedSteps       []string `json:"skippedSteps,omitempty"`
	FailedSteps        []string `json:"failedSteps,omitempty"`
	DurationMs         int64    `json:"durationMs"`
}

// AddContent records a generated content item, tracking blog posts separately.
func (r *JobResults) AddContent(item *ContentItem) {
	r.ContentGenerated++
	r.ContentIDs = append(r.ContentIDs, item.ID)
	if item.PromptCategory == CategoryBlogPost {
		id := item.ID
		r.BlogIDs = append(r.BlogIDs, id)
		if r.BlogID == nil {
			r.BlogID = &id
		}
	}
}

// GenerationConfig tunes a single text generation.
type GenerationConfig struct {
	Model       string            `json:"model,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
}

// GenerationDefaults is the per-account row applied under every text
// generation. Request values win over it; it wins over the story variables.
type GenerationDefaults struct {
	AccountID   string            `db:"account_id" json:"account_id"`
	Model       string            `db:"model" json:"model,omitempty"`
	Temperature *float64          `db:"temperature" json:"temperature,omitempty"`
	MaxTokens   *int              `db:"max_tokens" json:"max_tokens,omitempty"`
	Variables   map[string]string `db:"variables" json:"variables"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// Apply layers cfg over the defaults.
func (d *GenerationDefaults) Apply(cfg GenerationConfig) GenerationConfig {
	if d == nil {
		return cfg
	}
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.Temperature == nil {
		cfg.Temperature = d.Temperature
	}
	if cfg.MaxTokens == nil {
		cfg.MaxTokens = d.MaxTokens
	}
	return cfg
}

// Job payloads, one per job type.
type (
	FullCyclePayload struct {
		Limit      int              `json:"limit,omitempty"`
		Categories []PromptCategory `json:"categories,omitempty"`
		SourceIDs  []string         `json:"source_ids,omitempty"`
		Config     GenerationConfig `json:"config,omitempty"`
	}
	GenerateForStoryPayload struct {
		StoryID    int64            `json:"story_id"`
		Categories []PromptCategory `json:"categories,omitempty"`
		Config     GenerationConfig `json:"config,omitempty"`
	}
	RegeneratePayload struct {
		ContentID string           `json:"content_id"`
		Config    GenerationConfig `json:"config,omitempty"`
	}
	SourceRefreshPayload struct {
		SourceID string `json:"source_id"`
	}
	SubmitURLsPayload struct {
		URLs []string `json:"urls"`
	}
	GenerateImagePayload struct {
		ContentID string       `json:"content_id"`
		Params    ImageRequest `json:"params"`
	}
	RunWorkflowPayload struct {
		WorkflowID string           `json:"workflow_id"`
		StoryID    int64            `json:"story_id"`
		Config     GenerationConfig `json:"config,omitempty"`
	}
)
