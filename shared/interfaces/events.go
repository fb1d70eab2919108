package interfaces

import (
	"context"
	"time"

	"content-pipeline/shared/models"
)

// JobEventType names a job status transition.
type JobEventType string

const (
	JobEventEnqueued  JobEventType = "enqueued"
	JobEventStarted   JobEventType = "started"
	JobEventProgress  JobEventType = "progress"
	JobEventRequeued  JobEventType = "requeued"
	JobEventCompleted JobEventType = "completed"
	JobEventFailed    JobEventType = "failed"
	JobEventCancelled JobEventType = "cancelled"
)

// JobEvent is published on every job status transition.
type JobEvent struct {
	EventType          JobEventType     `json:"event_type"`
	JobID              string           `json:"job_id"`
	AccountID          string           `json:"account_id"`
	JobType            models.JobType   `json:"job_type"`
	Status             models.JobStatus `json:"status"`
	ProgressPercentage int              `json:"progress_percentage"`
	Message            string           `json:"message,omitempty"`
	OccurredAt         time.Time        `json:"occurred_at"`
}

// JobEventPublisher publishes job events. Failures must never fail the job.
type JobEventPublisher interface {
	PublishJobEvent(ctx context.Context, event JobEvent) error
}

// TemplateEventType names a template change.
type TemplateEventType string

const (
	TemplateEventCreated        TemplateEventType = "created"
	TemplateEventVersionCreated TemplateEventType = "version_created"
	TemplateEventCurrentChanged TemplateEventType = "current_changed"
)

// TemplateEvent tells external readers of the legacy prompt row that it changed.
type TemplateEvent struct {
	EventType     TemplateEventType     `json:"event_type"`
	AccountID     string                `json:"account_id"`
	TemplateID    string                `json:"template_id"`
	VersionID     string                `json:"version_id"`
	VersionNumber int                   `json:"version_number"`
	Category      models.PromptCategory `json:"category"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

// TemplateEventPublisher publishes template events.
type TemplateEventPublisher interface {
	PublishTemplateEvent(ctx context.Context, event TemplateEvent) error
}
