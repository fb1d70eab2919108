package models

import "time"

// ConditionOperator is the comparison applied by a workflow step condition.
type ConditionOperator string

const (
	OperatorExists      ConditionOperator = "exists"
	OperatorNotExists   ConditionOperator = "not_exists"
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
)

// IsValid reports whether o is a known operator.
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OperatorExists, OperatorNotExists, OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains:
		return true
	}
	return false
}

// Condition guards a workflow step.
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

// WorkflowStep is one template invocation inside a workflow.
type WorkflowStep struct {
	ID              string      `db:"id" json:"step_id"`
	WorkflowID      string      `db:"workflow_id" json:"workflow_id"`
	Order           int         `db:"step_order" json:"order"`
	TemplateID      string      `db:"template_id" json:"template_id"`
	DisplayName     string      `db:"display_name" json:"display_name"`
	Conditions      []Condition `db:"conditions" json:"conditions"`
	ContinueOnError bool        `db:"continue_on_error" json:"continue_on_error"`
	Enabled         bool        `db:"enabled" json:"enabled"`
}

// Workflow is an ordered chain of template steps.
type Workflow struct {
	ID          string         `db:"id" json:"workflow_id"`
	AccountID   string         `db:"account_id" json:"account_id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Steps       []WorkflowStep `db:"-" json:"steps"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// StepOutcome records what happened to one step during a run.
type StepOutcome struct {
	StepID      string `json:"step_id"`
	DisplayName string `json:"display_name"`
	Skipped     bool   `json:"skipped,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
	Error       string `json:"error,omitempty"`
}
