package models

import "time"

// GenerationLog is an append-only record of one provider call.
type GenerationLog struct {
	ID               string    `db:"id" json:"log_id"`
	AccountID        string    `db:"account_id" json:"account_id"`
	TemplateID       *string   `db:"template_id" json:"template_id,omitempty"`
	VersionID        *string   `db:"version_id" json:"version_id,omitempty"`
	JobID            *string   `db:"job_id" json:"job_id,omitempty"`
	ContentID        *string   `db:"content_id" json:"content_id,omitempty"`
	AIService        string    `db:"ai_service" json:"ai_service"`
	ModelUsed        string    `db:"model_used" json:"model_used"`
	TokensUsed       int       `db:"tokens_used" json:"tokens_used"`
	GenerationTimeMs int64     `db:"generation_time_ms" json:"generation_time_ms"`
	CostEstimateUSD  float64   `db:"cost_estimate_usd" json:"cost_estimate_usd"`
	Success          bool      `db:"success" json:"success"`
	Error            *string   `db:"error" json:"error,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Fail marks the log row as failed with err. Success and Error always agree.
func (l *GenerationLog) Fail(err error) {
	msg := err.Error()
	l.Success = false
	l.Error = &msg
}

// Succeed marks the log row as successful.
func (l *GenerationLog) Succeed() {
	l.Success = true
	l.Error = nil
}

// VersionStats aggregates generation log rows of one template version.
type VersionStats struct {
	VersionID     string  `db:"version_id" json:"version_id"`
	VersionNumber int     `db:"version_number" json:"version_number"`
	Generations   int64   `db:"generations" json:"generations"`
	Successes     int64   `db:"successes" json:"successes"`
	Failures      int64   `db:"failures" json:"failures"`
	TotalTokens   int64   `db:"total_tokens" json:"total_tokens"`
	AvgTimeMs     float64 `db:"avg_time_ms" json:"avg_time_ms"`
	TotalCostUSD  float64 `db:"total_cost_usd" json:"total_cost_usd"`
	UsageCount    int64   `db:"usage_count" json:"usage_count"`
	IsCurrent     bool    `db:"is_current" json:"is_current"`
}
