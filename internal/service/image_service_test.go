package service_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-pipeline/internal/mocks"
	"content-pipeline/internal/provider"
	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

type imageFixture struct {
	images    *mocks.MockImageRepository
	settings  *mocks.MockImageSettingsRepository
	cache     *mocks.MockImageSettingsCache
	contents  *mocks.MockContentRepository
	templates *mocks.MockTemplateRepository
	genLogs   *mocks.MockGenerationLogRepository
	selector  *mocks.MockImageSelector
	ideogram  *mocks.MockImageProvider
	svc       service.ImageService
}

func newImageFixture(t *testing.T) *imageFixture {
	f := &imageFixture{
		images:    mocks.NewMockImageRepository(t),
		settings:  mocks.NewMockImageSettingsRepository(t),
		cache:     mocks.NewMockImageSettingsCache(t),
		contents:  mocks.NewMockContentRepository(t),
		templates: mocks.NewMockTemplateRepository(t),
		genLogs:   mocks.NewMockGenerationLogRepository(t),
		selector:  mocks.NewMockImageSelector(t),
		ideogram:  mocks.NewMockImageProvider(t),
	}
	f.svc = service.NewImageService(nil, &mocks.TxPassthrough{}, f.images, f.settings, f.cache, f.contents, f.templates, f.genLogs, f.selector, time.Minute, zap.NewNop())
	return f
}

// withTemplate installs the account's image_generation template whose
// current version is prompt.
func (f *imageFixture) withTemplate(prompt string) {
	tmpl := &models.Template{ID: "tpl-image", AccountID: testAccount, Category: models.CategoryImageGeneration}
	version := &models.TemplateVersion{ID: "ver-image", TemplateID: tmpl.ID, VersionNumber: 2, PromptContent: prompt}
	f.templates.On("GetTemplateByCategory", mock.Anything, mock.Anything, testAccount, models.CategoryImageGeneration).Return(tmpl, nil)
	f.templates.On("GetCurrentVersion", mock.Anything, mock.Anything, tmpl.ID).Return(version, nil)
}

func (f *imageFixture) withSettings(s *models.ImageSettings) {
	f.cache.On("Get", mock.Anything, testAccount).Return(s, true, nil)
}

func (f *imageFixture) withProvider() {
	f.selector.On("Image").Return(f.ideogram, nil)
	f.ideogram.On("Name").Return("ideogram")
}

// A v3 request for a v2-only style is coerced to GENERAL and produces one
// pending record.
func TestGenerateImageCoercesStyle(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("{{prompt}}")
	f.contents.On("Get", mock.Anything, mock.Anything, testAccount, "c-1").Return(&models.ContentItem{ID: "c-1"}, nil).Once()
	f.withSettings(&models.ImageSettings{AccountID: testAccount})
	f.withProvider()

	f.ideogram.On("GenerateImage", mock.Anything, mock.MatchedBy(func(r provider.ImageRequest) bool {
		return r.ModelVersion == provider.IdeogramV3 && r.StyleType == "GENERAL" && r.NumImages == 1
	})).Return([]provider.ImageResult{{URL: "https://cdn.example/1.png", IsSafe: true, CostEstimateUSD: 0.09}}, nil).Once()
	var records []models.ImageRecord
	f.images.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { records = args.Get(2).([]models.ImageRecord) }).
		Return(nil).Once()
	f.genLogs.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(l *models.GenerationLog) bool {
		return l.Success && *l.VersionID == "ver-image" && l.AIService == "ideogram" && l.CostEstimateUSD == 0.09
	})).Return(nil).Once()
	f.templates.On("IncrementUsage", mock.Anything, mock.Anything, "ver-image").Return(nil).Once()

	out, err := f.svc.Generate(editorCtx(), "c-1", models.ImageRequest{Prompt: "A sunrise over Accra", ModelVersion: "v3", StyleType: "ANIME"}, nil)
	require.NoError(t, err)
	assert.True(t, out.StyleCoerced)
	assert.Equal(t, "GENERAL", out.StyleType)
	require.Len(t, records, 1)
	assert.Equal(t, models.ImageStatusPendingReview, records[0].Status)
	assert.True(t, records[0].IsSafe)
	assert.Equal(t, "c-1", *records[0].ContentID)

	var params models.ImageParameters
	require.NoError(t, json.Unmarshal(records[0].Parameters, &params))
	assert.Equal(t, "GENERAL", params.StyleType)
}

func TestGenerateImageAppliesAccountSettings(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("{{prompt}}")
	f.withSettings(&models.ImageSettings{
		AccountID:           testAccount,
		PromptPrefix:        strPtr("Cinematic,"),
		PromptSuffix:        strPtr("warm light"),
		BrandColors:         []models.BrandColorTemplate{{Name: "Primary", Colors: []models.ColorWeight{{Hex: "#112233", Weight: 0.6}}}, {Name: "Easter", Colors: []models.ColorWeight{{Hex: "#FFD700", Weight: 1}}}},
		PreferredStyleCodes: []string{"AB12CD34"},
		Defaults:            models.ImageDefaults{ModelVersion: "v3", AspectRatio: "16:9", NumImages: 2},
	})
	f.withProvider()

	f.ideogram.On("GenerateImage", mock.Anything, mock.MatchedBy(func(r provider.ImageRequest) bool {
		return r.Prompt == "Cinematic, Empty tomb warm light" &&
			r.AspectRatio == "16:9" &&
			r.NumImages == 2 &&
			r.ColorPalette != nil && r.ColorPalette.Name == "Easter" &&
			len(r.StyleCodes) == 1 && r.StyleCodes[0] == "AB12CD34"
	})).Return([]provider.ImageResult{{URL: "u1", IsSafe: true}, {URL: "u2", IsSafe: false}}, nil).Once()
	f.images.On("CreateMany", mock.Anything, mock.Anything, mock.MatchedBy(func(r []models.ImageRecord) bool { return len(r) == 2 })).Return(nil).Once()
	f.genLogs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.templates.On("IncrementUsage", mock.Anything, mock.Anything, "ver-image").Return(nil).Once()

	out, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: "Empty tomb", SelectedColorTemplateName: strPtr("easter")}, strPtr("job-7"))
	require.NoError(t, err)
	assert.Len(t, out.Images, 2)
	assert.Equal(t, "job-7", *out.Images[0].JobID)
	assert.Nil(t, out.Images[0].ContentID)
}

func TestGenerateImageWithoutAffixes(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("{{prompt}}")
	f.withSettings(&models.ImageSettings{AccountID: testAccount, PromptPrefix: strPtr("Cinematic,")})
	f.withProvider()
	f.ideogram.On("GenerateImage", mock.Anything, mock.MatchedBy(func(r provider.ImageRequest) bool {
		return r.Prompt == "Plain" && r.ColorPalette == nil
	})).Return([]provider.ImageResult{{URL: "u", IsSafe: true}}, nil).Once()
	f.images.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.genLogs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.templates.On("IncrementUsage", mock.Anything, mock.Anything, "ver-image").Return(nil).Once()

	no := false
	_, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: "Plain", ApplyAccountPromptAffixes: &no}, nil)
	require.NoError(t, err)
}

func TestGenerateImageUnknownColorTemplate(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("{{prompt}}")
	f.withSettings(&models.ImageSettings{AccountID: testAccount})

	_, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: "p", SelectedColorTemplateName: strPtr("missing")}, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// Flagged images are still recorded for review, but the request fails.
func TestGenerateImageAllUnsafe(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("{{prompt}}")
	f.withSettings(&models.ImageSettings{AccountID: testAccount})
	f.withProvider()
	f.ideogram.On("GenerateImage", mock.Anything, mock.Anything).
		Return([]provider.ImageResult{{URL: "u", IsSafe: false}}, models.ErrUnsafeContent).Once()
	f.images.On("CreateMany", mock.Anything, mock.Anything, mock.MatchedBy(func(r []models.ImageRecord) bool {
		return len(r) == 1 && !r[0].IsSafe
	})).Return(nil).Once()
	f.genLogs.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(l *models.GenerationLog) bool { return !l.Success })).Return(nil).Once()

	_, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: "p"}, nil)
	assert.ErrorIs(t, err, models.ErrUnsafeContent)
}

func TestGenerateImageProviderFailureIsLogged(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("{{prompt}}")
	f.withSettings(&models.ImageSettings{AccountID: testAccount})
	f.withProvider()
	f.ideogram.On("GenerateImage", mock.Anything, mock.Anything).Return(nil, models.ErrRateLimited).Once()
	f.genLogs.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(l *models.GenerationLog) bool {
		return !l.Success && l.Error != nil && *l.TemplateID == "tpl-image" && *l.VersionID == "ver-image"
	})).Return(nil).Once()

	_, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: "p"}, nil)
	assert.ErrorIs(t, err, models.ErrRateLimited)
	f.images.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateImageRendersAccountTemplate(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("Stained glass window, {{prompt}}, soft glow")
	f.withSettings(&models.ImageSettings{AccountID: testAccount, PromptSuffix: strPtr("8k")})
	f.withProvider()
	f.ideogram.On("GenerateImage", mock.Anything, mock.MatchedBy(func(r provider.ImageRequest) bool {
		return r.Prompt == "Stained glass window, Empty tomb, soft glow 8k"
	})).Return([]provider.ImageResult{{URL: "u", IsSafe: true}}, nil).Once()
	var records []models.ImageRecord
	f.images.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { records = args.Get(2).([]models.ImageRecord) }).
		Return(nil).Once()
	var logged *models.GenerationLog
	f.genLogs.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { logged = args.Get(2).(*models.GenerationLog) }).
		Return(nil).Once()
	f.templates.On("IncrementUsage", mock.Anything, mock.Anything, "ver-image").Return(nil).Once()

	out, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: " Empty tomb "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Stained glass window, Empty tomb, soft glow 8k", out.PromptFinal)
	require.Len(t, records, 1)
	assert.Equal(t, " Empty tomb ", records[0].PromptUser)
	require.NotNil(t, logged)
	assert.Equal(t, "tpl-image", *logged.TemplateID)
	assert.Equal(t, "ver-image", *logged.VersionID)
}

func TestGenerateImageRequiresTemplate(t *testing.T) {
	f := newImageFixture(t)
	f.templates.On("GetTemplateByCategory", mock.Anything, mock.Anything, testAccount, models.CategoryImageGeneration).
		Return(nil, models.ErrNotFound).Once()

	_, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: "p"}, nil)
	assert.ErrorIs(t, err, models.ErrNoTemplate)
	f.selector.AssertNotCalled(t, "Image")
	f.genLogs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateImageTemplateWithUndefinedVariable(t *testing.T) {
	f := newImageFixture(t)
	f.withTemplate("{{prompt}} in the style of {{artist}}")

	_, err := f.svc.Generate(editorCtx(), "", models.ImageRequest{Prompt: "p"}, nil)
	assert.ErrorIs(t, err, models.ErrUndefinedVariable)
	f.selector.AssertNotCalled(t, "Image")
}

func TestImageSettingsReadThroughCache(t *testing.T) {
	f := newImageFixture(t)
	f.cache.On("Get", mock.Anything, testAccount).Return(nil, false, nil).Once()
	f.settings.On("Get", mock.Anything, mock.Anything, testAccount).Return(nil, models.ErrNotFound).Once()
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	s, err := f.svc.GetSettings(viewerCtx())
	require.NoError(t, err)
	assert.Equal(t, testAccount, s.AccountID)
	assert.NotNil(t, s.BrandColors)
}

func TestBrandColorLifecycle(t *testing.T) {
	f := newImageFixture(t)
	tx := &mocks.TxPassthrough{}
	f.svc = service.NewImageService(nil, tx, f.images, f.settings, f.cache, f.contents, f.templates, f.genLogs, f.selector, time.Minute, zap.NewNop())
	current := &models.ImageSettings{AccountID: testAccount, BrandColors: []models.BrandColorTemplate{{Name: "Primary", Colors: []models.ColorWeight{{Hex: "#000000", Weight: 1}}}}}
	f.settings.On("LockForUpdate", mock.Anything, mock.Anything, testAccount).Return(current, nil)
	var upserted []*models.ImageSettings
	f.settings.On("Upsert", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { upserted = append(upserted, args.Get(2).(*models.ImageSettings)) }).
		Return(nil)
	f.cache.On("Invalidate", mock.Anything, testAccount).Return(nil)

	_, err := f.svc.AddBrandColor(editorCtx(), models.BrandColorTemplate{Name: "x", Colors: []models.ColorWeight{{Hex: "#fff", Weight: 1}}})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.AddBrandColor(adminCtx(), models.BrandColorTemplate{Name: "Bad", Colors: []models.ColorWeight{{Hex: "red", Weight: 1}}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Zero(t, tx.Calls, "validation runs before the row is locked")

	_, err = f.svc.AddBrandColor(adminCtx(), models.BrandColorTemplate{Name: "primary", Colors: []models.ColorWeight{{Hex: "#FFFFFF", Weight: 1}}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, upserted, "a rejected change writes nothing")

	colors, err := f.svc.AddBrandColor(adminCtx(), models.BrandColorTemplate{Name: "Advent", Colors: []models.ColorWeight{{Hex: "#4B0082", Weight: 0.7}}})
	require.NoError(t, err)
	assert.Len(t, colors, 2)
	assert.Len(t, current.BrandColors, 1, "the locked row must not be mutated")

	colors, err = f.svc.DeleteBrandColor(adminCtx(), 0)
	require.NoError(t, err)
	assert.Empty(t, colors)

	_, err = f.svc.DeleteBrandColor(adminCtx(), 3)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, 4, tx.Calls, "every read-modify-write runs in its own transaction")
	assert.Len(t, upserted, 2)
	f.cache.AssertNumberOfCalls(t, "Invalidate", 2)
}

func TestImageStatusTransitions(t *testing.T) {
	f := newImageFixture(t)
	f.images.On("Get", mock.Anything, mock.Anything, testAccount, "img-1").
		Return(&models.ImageRecord{ID: "img-1", Status: models.ImageStatusApproved}, nil).Once()
	_, err := f.svc.UpdateStatus(editorCtx(), "img-1", models.ImageStatusPendingReview)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	f.images.On("Get", mock.Anything, mock.Anything, testAccount, "img-2").
		Return(&models.ImageRecord{ID: "img-2", Status: models.ImageStatusArchived}, nil).Once()
	f.images.On("UpdateStatus", mock.Anything, mock.Anything, testAccount, "img-2", models.ImageStatusArchived, models.ImageStatusPendingReview).
		Return(&models.ImageRecord{ID: "img-2", Status: models.ImageStatusPendingReview}, nil).Once()
	img, err := f.svc.UpdateStatus(editorCtx(), "img-2", models.ImageStatusPendingReview)
	require.NoError(t, err)
	assert.Equal(t, models.ImageStatusPendingReview, img.Status)
}
