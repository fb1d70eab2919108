package interfaces

import (
	"context"

	"content-pipeline/shared/models"
)

// WorkflowRepository stores workflows and their ordered steps.
type WorkflowRepository interface {
	Create(ctx context.Context, querier DBTX, wf *models.Workflow) error
	Get(ctx context.Context, querier DBTX, accountID, workflowID string) (*models.Workflow, error)
	List(ctx context.Context, querier DBTX, accountID string) ([]models.Workflow, error)
	// ReplaceSteps rewrites all steps of a workflow with dense orders 1..N.
	ReplaceSteps(ctx context.Context, tx DBTX, workflowID string, steps []models.WorkflowStep) error
}
