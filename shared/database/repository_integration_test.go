package database_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"content-pipeline/shared/database"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	tx          *database.TransactionHelper
	templates   interfaces.TemplateRepository
	jobs        interfaces.JobRepository
	jobLogs     interfaces.JobLogRepository
	workflows   interfaces.WorkflowRepository
	content     interfaces.ContentRepository
	stories     interfaces.StoryRepository
	idempotency interfaces.IdempotencyStore
	imageCache  interfaces.ImageSettingsCache
	settings    interfaces.ImageSettingsRepository
	genDefaults interfaces.GenerationDefaultsRepository
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err)

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.RunMigrations(pgConnStr, s.logger), "Failed to run migrations")

	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err)

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.tx = database.NewTransactionHelper(s.pgPool, s.logger)
	s.templates = database.NewPgTemplateRepository(s.logger)
	s.jobs = database.NewPgJobRepository(s.logger)
	s.jobLogs = database.NewPgJobLogRepository(s.logger)
	s.workflows = database.NewPgWorkflowRepository(s.logger)
	s.content = database.NewPgContentRepository(s.logger)
	s.stories = database.NewPgStoryRepository(s.logger)
	s.settings = database.NewPgImageSettingsRepository(s.logger)
	s.genDefaults = database.NewPgGenerationDefaultsRepository(s.logger)
	s.idempotency = database.NewRedisIdempotencyStore(s.redisClient, s.logger)
	s.imageCache = database.NewRedisImageSettingsCache(s.redisClient, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate redis container", zap.Error(err))
		}
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pgPool.Exec(s.ctx, `TRUNCATE TABLE job_logs, jobs, workflow_steps, workflows, image_records, image_settings,
        generation_defaults, generation_logs, content_items, stories, prompts_legacy, prompt_template_versions, prompt_templates RESTART IDENTITY CASCADE`)
	require.NoError(s.T(), err)
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Fatalf("Docker client init error: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Fatalf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) createTemplateWithVersions(accountID string, contents ...string) (*models.Template, []models.TemplateVersion) {
	t := s.T()
	tmpl := &models.Template{ID: uuid.NewString(), AccountID: accountID, Name: "Blog", Category: models.CategoryBlogPost}
	var versions []models.TemplateVersion
	err := s.tx.WithTransaction(s.ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if err := s.templates.CreateTemplate(ctx, tx, tmpl); err != nil {
			return err
		}
		for _, c := range contents {
			v := models.TemplateVersion{ID: uuid.NewString(), TemplateID: tmpl.ID, PromptContent: c, CreatedBy: "u1"}
			if err := s.templates.InsertVersion(ctx, tx, &v); err != nil {
				return err
			}
			versions = append(versions, v)
		}
		last := versions[len(versions)-1]
		if err := s.templates.MarkCurrent(ctx, tx, tmpl.ID, last.ID); err != nil {
			return err
		}
		return s.templates.TouchTemplate(ctx, tx, tmpl.ID, last.ID)
	})
	require.NoError(t, err)
	return tmpl, versions
}

func (s *RepositoryIntegrationSuite) TestTemplateVersions_NumberingAndSingleCurrent() {
	t := s.T()
	tmpl, versions := s.createTemplateWithVersions("acct-a", "one {{x}}", "two {{x}}")
	require.Equal(t, 1, versions[0].VersionNumber)
	require.Equal(t, 2, versions[1].VersionNumber)

	err := s.tx.WithTransaction(s.ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		return s.templates.MarkCurrent(ctx, tx, tmpl.ID, versions[0].ID)
	})
	require.ErrorIs(t, err, models.ErrConflictingCurrent, "second current version must be rejected")

	current, err := s.templates.GetCurrentVersion(s.ctx, s.pgPool, tmpl.ID)
	require.NoError(t, err)
	require.Equal(t, versions[1].ID, current.ID)

	_, err = s.pgPool.Exec(s.ctx, `UPDATE prompt_template_versions SET prompt_content = 'edited' WHERE id = $1`, versions[0].ID)
	require.Error(t, err, "versions are immutable")

	_, err = s.templates.GetTemplate(s.ctx, s.pgPool, "acct-b", tmpl.ID)
	require.ErrorIs(t, err, models.ErrNotFound, "other accounts must not see the template")

	_, err = s.templates.GetLegacyPrompt(s.ctx, s.pgPool, "acct-a", models.CategoryBlogPost)
	require.ErrorIs(t, err, models.ErrNotFound)
	for _, v := range []models.TemplateVersion{versions[1], versions[0]} {
		v := v
		err = s.tx.WithTransaction(s.ctx, func(ctx context.Context, tx interfaces.DBTX) error {
			return s.templates.UpsertLegacyPrompt(ctx, tx, &models.LegacyPrompt{
				AccountID: "acct-a", Category: models.CategoryBlogPost, PromptContent: v.PromptContent,
				TemplateID: tmpl.ID, VersionID: v.ID,
			})
		})
		require.NoError(t, err)
	}
	legacy, err := s.templates.GetLegacyPrompt(s.ctx, s.pgPool, "acct-a", models.CategoryBlogPost)
	require.NoError(t, err)
	require.Equal(t, "one {{x}}", legacy.PromptContent, "the legacy row mirrors the last write")
	require.Equal(t, versions[0].ID, legacy.VersionID)
	var rows int
	require.NoError(t, s.pgPool.QueryRow(s.ctx, `SELECT COUNT(*) FROM prompts_legacy WHERE account_id = 'acct-a'`).Scan(&rows))
	require.Equal(t, 1, rows)
	_, err = s.templates.GetLegacyPrompt(s.ctx, s.pgPool, "acct-b", models.CategoryBlogPost)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestGenerationDefaults_Upsert() {
	t := s.T()
	_, err := s.genDefaults.Get(s.ctx, s.pgPool, "acct-a")
	require.ErrorIs(t, err, models.ErrNotFound)

	temp := 0.4
	d := &models.GenerationDefaults{AccountID: "acct-a", Model: "gpt-4o", Temperature: &temp, Variables: map[string]string{"ministry": "Grace Chapel"}}
	require.NoError(t, s.genDefaults.Upsert(s.ctx, s.pgPool, d))
	require.False(t, d.UpdatedAt.IsZero())

	d.Model = "llama3"
	d.Temperature = nil
	require.NoError(t, s.genDefaults.Upsert(s.ctx, s.pgPool, d))

	got, err := s.genDefaults.Get(s.ctx, s.pgPool, "acct-a")
	require.NoError(t, err)
	require.Equal(t, "llama3", got.Model)
	require.Nil(t, got.Temperature)
	require.Equal(t, "Grace Chapel", got.Variables["ministry"])

	bad := 0
	err = s.genDefaults.Upsert(s.ctx, s.pgPool, &models.GenerationDefaults{AccountID: "acct-b", MaxTokens: &bad})
	require.Error(t, err, "max_tokens must be positive")
}

func (s *RepositoryIntegrationSuite) enqueue(accountID string) *models.Job {
	job := &models.Job{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		UserID:      "u1",
		JobType:     models.JobTypeFullCycle,
		Payload:     json.RawMessage(`{"limit":1}`),
		PayloadHash: uuid.NewString(),
		MaxRetries:  3,
	}
	require.NoError(s.T(), s.jobs.Create(s.ctx, s.pgPool, job))
	return job
}

func (s *RepositoryIntegrationSuite) TestClaimNext_SerializesPerAccountFIFO() {
	t := s.T()
	a1 := s.enqueue("acct-a")
	time.Sleep(5 * time.Millisecond)
	a2 := s.enqueue("acct-a")
	b1 := s.enqueue("acct-b")

	first, err := s.jobs.ClaimNext(s.ctx, s.pgPool, "w1", nil)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, a1.ID, first.ID)
	require.Equal(t, models.JobStatusProcessing, first.Status)
	require.NotNil(t, first.WorkerID)
	require.NotNil(t, first.StartedAt)

	second, err := s.jobs.ClaimNext(s.ctx, s.pgPool, "w2", nil)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, b1.ID, second.ID, "account A is busy, so B must be claimed")

	none, err := s.jobs.ClaimNext(s.ctx, s.pgPool, "w3", nil)
	require.NoError(t, err)
	require.Nil(t, none)

	require.NoError(t, s.jobs.Complete(s.ctx, s.pgPool, a1.ID, "w1", json.RawMessage(`{"contentGenerated":0}`)))
	next, err := s.jobs.ClaimNext(s.ctx, s.pgPool, "w1", nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, a2.ID, next.ID)

	_, err = s.pgPool.Exec(s.ctx, `UPDATE jobs SET status = 'queued' WHERE id = $1`, a1.ID)
	require.Error(t, err, "terminal jobs are immutable")
}

func (s *RepositoryIntegrationSuite) TestOwnershipIsChecked() {
	t := s.T()
	s.enqueue("acct-a")
	job, err := s.jobs.ClaimNext(s.ctx, s.pgPool, "w1", nil)
	require.NoError(t, err)

	_, err = s.jobs.Heartbeat(s.ctx, s.pgPool, job.ID, "intruder")
	require.ErrorIs(t, err, models.ErrStallReclaim)
	err = s.jobs.Complete(s.ctx, s.pgPool, job.ID, "intruder", nil)
	require.ErrorIs(t, err, models.ErrStallReclaim)
}

func (s *RepositoryIntegrationSuite) TestRequestCancel() {
	t := s.T()
	queued := s.enqueue("acct-a")
	cancelled, err := s.jobs.RequestCancel(s.ctx, s.pgPool, "acct-a", queued.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CompletedAt)

	_, err = s.jobs.RequestCancel(s.ctx, s.pgPool, "acct-a", queued.ID)
	require.ErrorIs(t, err, models.ErrJobTerminal)

	_, err = s.jobs.RequestCancel(s.ctx, s.pgPool, "acct-b", queued.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	s.enqueue("acct-a")
	running, err := s.jobs.ClaimNext(s.ctx, s.pgPool, "w1", nil)
	require.NoError(t, err)
	flagged, err := s.jobs.RequestCancel(s.ctx, s.pgPool, "acct-a", running.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusProcessing, flagged.Status)
	require.True(t, flagged.CancelRequested)

	cancelRequested, err := s.jobs.UpdateProgress(s.ctx, s.pgPool, running.ID, "w1", 40, "step 2")
	require.NoError(t, err)
	require.True(t, cancelRequested)
}

func (s *RepositoryIntegrationSuite) TestReclaimStalled_OnceWithRetryIncrement() {
	t := s.T()
	s.enqueue("acct-a")
	job, err := s.jobs.ClaimNext(s.ctx, s.pgPool, "w1", nil)
	require.NoError(t, err)
	_, err = s.pgPool.Exec(s.ctx, `UPDATE jobs SET heartbeat_at = now() - interval '10 minutes' WHERE id = $1`, job.ID)
	require.NoError(t, err)

	staleBefore := time.Now().Add(-5 * time.Minute)
	reclaimed, err := s.jobs.ReclaimStalled(s.ctx, s.pgPool, staleBefore)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	require.Equal(t, 1, reclaimed[0].RetryCount)
	require.Equal(t, models.JobStatusQueued, reclaimed[0].Status)

	again, err := s.jobs.ReclaimStalled(s.ctx, s.pgPool, staleBefore)
	require.NoError(t, err)
	require.Empty(t, again)

	err = s.jobs.Complete(s.ctx, s.pgPool, job.ID, "w1", nil)
	require.ErrorIs(t, err, models.ErrStallReclaim, "the old owner lost the job")
}

func (s *RepositoryIntegrationSuite) TestJobLogs_TailFilters() {
	t := s.T()
	jobID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)
	entries := []models.JobLogEntry{
		{AccountID: "acct-a", JobID: &jobID, Level: models.LogLevelInfo, Source: "worker", Message: "step 1 done", Timestamp: base},
		{AccountID: "acct-a", JobID: &jobID, Level: models.LogLevelWarn, Source: "provider", Message: "rate limited 50%", Timestamp: base.Add(time.Millisecond)},
		{AccountID: "acct-a", JobID: &jobID, Level: models.LogLevelInfo, Source: "worker", Message: "step 2 done", Timestamp: base.Add(2 * time.Millisecond)},
		{AccountID: "acct-b", Level: models.LogLevelError, Source: "worker", Message: "other account"},
	}
	require.NoError(t, s.jobLogs.Append(s.ctx, s.pgPool, entries))

	all, err := s.jobLogs.Tail(s.ctx, s.pgPool, "acct-a", models.LogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		require.Greater(t, all[i].ID, all[i-1].ID)
		require.False(t, all[i].Timestamp.Before(all[i-1].Timestamp))
	}

	newer, err := s.jobLogs.Tail(s.ctx, s.pgPool, "acct-a", models.LogFilter{After: all[0].ID})
	require.NoError(t, err)
	require.Len(t, newer, 2)

	// A batch stamped earlier by its writer but inserted later is still after the cursor.
	cursor := all[len(all)-1].ID
	late := []models.JobLogEntry{{AccountID: "acct-a", JobID: &jobID, Level: models.LogLevelInfo, Source: "worker", Message: "late flush", Timestamp: base.Add(-time.Hour)}}
	require.NoError(t, s.jobLogs.Append(s.ctx, s.pgPool, late))
	after, err := s.jobLogs.Tail(s.ctx, s.pgPool, "acct-a", models.LogFilter{After: cursor})
	require.NoError(t, err)
	require.Len(t, after, 1)
	require.Equal(t, "late flush", after[0].Message)

	literal, err := s.jobLogs.Tail(s.ctx, s.pgPool, "acct-a", models.LogFilter{Search: "50%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	require.Equal(t, models.LogLevelWarn, literal[0].Level)

	counts, err := s.jobLogs.CountByLevel(s.ctx, s.pgPool, "acct-a", base.Add(-time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(3), counts[models.LogLevelInfo])
	require.Equal(t, int64(1), counts[models.LogLevelWarn])

	deleted, err := s.jobLogs.Clear(s.ctx, s.pgPool, "acct-a", nil)
	require.NoError(t, err)
	require.Equal(t, int64(4), deleted)
}

func (s *RepositoryIntegrationSuite) TestWorkflowSteps_DenseOrder() {
	t := s.T()
	tmpl, _ := s.createTemplateWithVersions("acct-a", "analyse {{story_title}}")
	wf := &models.Workflow{ID: uuid.NewString(), AccountID: "acct-a", Name: "chain"}
	require.NoError(t, s.workflows.Create(s.ctx, s.pgPool, wf))

	steps := []models.WorkflowStep{
		{ID: uuid.NewString(), TemplateID: tmpl.ID, DisplayName: "analysis", Order: 7, Enabled: true},
		{ID: uuid.NewString(), TemplateID: tmpl.ID, DisplayName: "social", Order: 3, Enabled: true,
			Conditions: []models.Condition{{Field: "steps.analysis", Operator: models.OperatorExists}}},
	}
	err := s.tx.WithTransaction(s.ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		return s.workflows.ReplaceSteps(ctx, tx, wf.ID, steps)
	})
	require.NoError(t, err)

	got, err := s.workflows.Get(s.ctx, s.pgPool, "acct-a", wf.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 2)
	require.Equal(t, 1, got.Steps[0].Order)
	require.Equal(t, "analysis", got.Steps[0].DisplayName)
	require.Equal(t, 2, got.Steps[1].Order)
	require.Len(t, got.Steps[1].Conditions, 1)
}

func (s *RepositoryIntegrationSuite) TestContentStatus_ConditionalUpdate() {
	t := s.T()
	item := &models.ContentItem{
		ID: uuid.NewString(), AccountID: "acct-a", PromptCategory: models.CategoryBlogPost,
		ContentData: json.RawMessage(`{"title":"t"}`), Status: models.ContentStatusDraft,
	}
	require.NoError(t, s.content.Create(s.ctx, s.pgPool, item))

	updated, err := s.content.UpdateStatus(s.ctx, s.pgPool, "acct-a", item.ID, models.ContentStatusDraft, models.ContentStatusReviewPending)
	require.NoError(t, err)
	require.Equal(t, models.ContentStatusReviewPending, updated.Status)

	_, err = s.content.UpdateStatus(s.ctx, s.pgPool, "acct-a", item.ID, models.ContentStatusDraft, models.ContentStatusReviewPending)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = s.content.UpdateStatus(s.ctx, s.pgPool, "acct-b", item.ID, models.ContentStatusReviewPending, models.ContentStatusApproved)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestSubmittedStories_SkipDuplicates() {
	t := s.T()
	ids, err := s.stories.CreateSubmitted(s.ctx, s.pgPool, "acct-a", []string{"https://a.example/1", "https://a.example/2"})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	ids, err = s.stories.CreateSubmitted(s.ctx, s.pgPool, "acct-a", []string{"https://a.example/1"})
	require.NoError(t, err)
	require.Empty(t, ids)
}

func (s *RepositoryIntegrationSuite) TestIdempotencyStore_ReserveOnce() {
	t := s.T()
	jobID, reserved, err := s.idempotency.Reserve(s.ctx, "acct-a:full_cycle:h", "job-1", 5*time.Second)
	require.NoError(t, err)
	require.True(t, reserved)
	require.Equal(t, "job-1", jobID)

	jobID, reserved, err = s.idempotency.Reserve(s.ctx, "acct-a:full_cycle:h", "job-2", 5*time.Second)
	require.NoError(t, err)
	require.False(t, reserved)
	require.Equal(t, "job-1", jobID)

	require.NoError(t, s.idempotency.Release(s.ctx, "acct-a:full_cycle:h"))
	_, reserved, err = s.idempotency.Reserve(s.ctx, "acct-a:full_cycle:h", "job-3", 5*time.Second)
	require.NoError(t, err)
	require.True(t, reserved)
}

func (s *RepositoryIntegrationSuite) TestImageSettings_UpsertAndCache() {
	t := s.T()
	prefix := "cinematic"
	settings := &models.ImageSettings{
		AccountID:    "acct-a",
		PromptPrefix: &prefix,
		BrandColors: []models.BrandColorTemplate{
			{Name: "brand", Colors: []models.ColorWeight{{Hex: "#112233", Weight: 0.6}, {Hex: "#445566", Weight: 0.4}}},
		},
		PreferredStyleCodes: []string{"AAAA1111"},
		Defaults:            models.ImageDefaults{ModelVersion: "v3", NumImages: 1},
	}
	require.NoError(t, s.settings.Upsert(s.ctx, s.pgPool, settings))

	got, err := s.settings.Get(s.ctx, s.pgPool, "acct-a")
	require.NoError(t, err)
	require.Equal(t, "v3", got.Defaults.ModelVersion)
	require.Len(t, got.BrandColors, 1)
	require.Equal(t, []string{"AAAA1111"}, got.PreferredStyleCodes)

	_, found, err := s.imageCache.Get(s.ctx, "acct-a")
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, s.imageCache.Set(s.ctx, got, time.Minute))
	cached, found, err := s.imageCache.Get(s.ctx, "acct-a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "cinematic", *cached.PromptPrefix)
}

func (s *RepositoryIntegrationSuite) TestImageSettings_LockForUpdateSerializesEdits() {
	t := s.T()
	names := []string{"advent", "easter", "pentecost", "lent"}
	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			errs[i] = s.tx.WithTransaction(s.ctx, func(ctx context.Context, tx interfaces.DBTX) error {
				current, err := s.settings.LockForUpdate(ctx, tx, "acct-c")
				if err != nil {
					return err
				}
				current.BrandColors = append(current.BrandColors, models.BrandColorTemplate{
					Name: name, Colors: []models.ColorWeight{{Hex: "#123456", Weight: 1}},
				})
				return s.settings.Upsert(ctx, tx, current)
			})
		}(i, name)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := s.settings.Get(s.ctx, s.pgPool, "acct-c")
	require.NoError(t, err)
	require.Len(t, got.BrandColors, len(names), "no edit may be lost")
}
