package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const (
	insertWorkflowQuery = `
        INSERT INTO workflows (id, account_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, now(), now())
        RETURNING created_at, updated_at`
	getWorkflowQuery   = `SELECT id, account_id, name, description, created_at, updated_at FROM workflows WHERE account_id = $1 AND id = $2`
	listWorkflowsQuery = `SELECT id, account_id, name, description, created_at, updated_at FROM workflows WHERE account_id = $1 ORDER BY name, id`
	listStepsQuery     = `
        SELECT id, workflow_id, step_order, template_id, display_name, conditions, continue_on_error, enabled
        FROM workflow_steps
        WHERE workflow_id = ANY($1::uuid[])
        ORDER BY workflow_id, step_order`
	deleteStepsQuery = `DELETE FROM workflow_steps WHERE workflow_id = $1`
	insertStepQuery  = `
        INSERT INTO workflow_steps (id, workflow_id, step_order, template_id, display_name, conditions, continue_on_error, enabled)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	touchWorkflowQuery = `UPDATE workflows SET updated_at = now() WHERE id = $1`
)

type pgWorkflowRepository struct {
	logger *zap.Logger
}

var _ interfaces.WorkflowRepository = (*pgWorkflowRepository)(nil)

// NewPgWorkflowRepository creates the PostgreSQL workflow repository.
func NewPgWorkflowRepository(logger *zap.Logger) interfaces.WorkflowRepository {
	return &pgWorkflowRepository{logger: logger.Named("PgWorkflowRepo")}
}

func (r *pgWorkflowRepository) Create(ctx context.Context, querier interfaces.DBTX, wf *models.Workflow) error {
	err := querier.QueryRow(ctx, insertWorkflowQuery, wf.ID, wf.AccountID, wf.Name, wf.Description).
		Scan(&wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	return nil
}

func (r *pgWorkflowRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID, workflowID string) (*models.Workflow, error) {
	var wf models.Workflow
	if err := pgxscan.Get(ctx, querier, &wf, getWorkflowQuery, accountID, workflowID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow %s: %w", workflowID, err)
	}
	workflows := []models.Workflow{wf}
	if err := r.attachSteps(ctx, querier, workflows); err != nil {
		return nil, err
	}
	return &workflows[0], nil
}

func (r *pgWorkflowRepository) List(ctx context.Context, querier interfaces.DBTX, accountID string) ([]models.Workflow, error) {
	workflows := []models.Workflow{}
	if err := pgxscan.Select(ctx, querier, &workflows, listWorkflowsQuery, accountID); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	if err := r.attachSteps(ctx, querier, workflows); err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *pgWorkflowRepository) attachSteps(ctx context.Context, querier interfaces.DBTX, workflows []models.Workflow) error {
	if len(workflows) == 0 {
		return nil
	}
	ids := make([]string, len(workflows))
	byID := make(map[string]int, len(workflows))
	for i := range workflows {
		ids[i] = workflows[i].ID
		byID[workflows[i].ID] = i
		workflows[i].Steps = []models.WorkflowStep{}
	}
	var steps []models.WorkflowStep
	if err := pgxscan.Select(ctx, querier, &steps, listStepsQuery, ids); err != nil {
		return fmt.Errorf("failed to load workflow steps: %w", err)
	}
	for _, s := range steps {
		i := byID[s.WorkflowID]
		workflows[i].Steps = append(workflows[i].Steps, s)
	}
	return nil
}

// ReplaceSteps rewrites the step list with a dense 1..N order taken from the
// slice position. Must run inside a transaction.
func (r *pgWorkflowRepository) ReplaceSteps(ctx context.Context, tx interfaces.DBTX, workflowID string, steps []models.WorkflowStep) error {
	if _, err := tx.Exec(ctx, deleteStepsQuery, workflowID); err != nil {
		return fmt.Errorf("failed to clear workflow steps: %w", err)
	}
	for i := range steps {
		s := &steps[i]
		s.WorkflowID = workflowID
		s.Order = i + 1
		if s.Conditions == nil {
			s.Conditions = []models.Condition{}
		}
		_, err := tx.Exec(ctx, insertStepQuery,
			s.ID, workflowID, s.Order, s.TemplateID, s.DisplayName, s.Conditions, s.ContinueOnError, s.Enabled)
		if err != nil {
			if _, ok := constraintViolation(err, pgForeignKeyViolation); ok {
				return fmt.Errorf("%w: template %s does not exist", models.ErrNotFound, s.TemplateID)
			}
			return fmt.Errorf("failed to insert workflow step %d: %w", s.Order, err)
		}
	}
	if _, err := tx.Exec(ctx, touchWorkflowQuery, workflowID); err != nil {
		return fmt.Errorf("failed to touch workflow: %w", err)
	}
	r.logger.Debug("Workflow steps replaced", zap.String("workflow_id", workflowID), zap.Int("steps", len(steps)))
	return nil
}
