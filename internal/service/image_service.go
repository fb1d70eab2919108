package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/internal/provider"
	"content-pipeline/internal/render"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const imageSettingsCacheTTL = 10 * time.Minute

// ImageSelector returns the configured image provider.
type ImageSelector interface {
	Image() (provider.ImageProvider, error)
}

// ImageSettingsInput replaces the mutable part of an account's image settings.
type ImageSettingsInput struct {
	PromptPrefix        *string              `json:"prompt_prefix"`
	PromptSuffix        *string              `json:"prompt_suffix"`
	BrandColors         []BrandColorInput    `json:"brand_colors"`
	PreferredStyleCodes []string             `json:"preferred_style_codes"`
	Defaults            models.ImageDefaults `json:"defaults"`
}

// BrandColorInput is a named palette as sent by clients.
type BrandColorInput = models.BrandColorTemplate

// ImageGeneration is the outcome of one image request.
type ImageGeneration struct {
	Images       []models.ImageRecord `json:"images"`
	PromptFinal  string               `json:"prompt_final"`
	ModelVersion string               `json:"model_version"`
	StyleType    string               `json:"style_type"`
	// StyleCoerced is set when the requested style was not supported by the model version.
	StyleCoerced bool `json:"style_coerced"`
}

// ImageService is the Image Subsystem: settings, brand colors, generation and lifecycle.
type ImageService interface {
	GetSettings(ctx context.Context) (*models.ImageSettings, error)
	UpdateSettings(ctx context.Context, in ImageSettingsInput) (*models.ImageSettings, error)
	ListBrandColors(ctx context.Context) ([]models.BrandColorTemplate, error)
	AddBrandColor(ctx context.Context, tmpl models.BrandColorTemplate) ([]models.BrandColorTemplate, error)
	DeleteBrandColor(ctx context.Context, index int) ([]models.BrandColorTemplate, error)

	Generate(ctx context.Context, contentID string, req models.ImageRequest, jobID *string) (*ImageGeneration, error)
	UpdateStatus(ctx context.Context, imageID string, to models.ImageStatus) (*models.ImageRecord, error)
	ListForContent(ctx context.Context, contentID string) ([]models.ImageRecord, error)
}

type imageServiceImpl struct {
	db        interfaces.DBTX
	txm       interfaces.TxManager
	images    interfaces.ImageRepository
	settings  interfaces.ImageSettingsRepository
	cache     interfaces.ImageSettingsCache
	contents  interfaces.ContentRepository
	templates interfaces.TemplateRepository
	genLogs   interfaces.GenerationLogRepository
	selector  ImageSelector
	timeout   time.Duration
	logger    *zap.Logger
}

// NewImageService creates the image service. cache may be nil.
func NewImageService(
	db interfaces.DBTX,
	txm interfaces.TxManager,
	images interfaces.ImageRepository,
	settings interfaces.ImageSettingsRepository,
	cache interfaces.ImageSettingsCache,
	contents interfaces.ContentRepository,
	templates interfaces.TemplateRepository,
	genLogs interfaces.GenerationLogRepository,
	selector ImageSelector,
	stepTimeout time.Duration,
	logger *zap.Logger,
) ImageService {
	if stepTimeout <= 0 {
		stepTimeout = 3 * time.Minute
	}
	return &imageServiceImpl{
		db:        db,
		txm:       txm,
		images:    images,
		settings:  settings,
		cache:     cache,
		contents:  contents,
		templates: templates,
		genLogs:   genLogs,
		selector:  selector,
		timeout:   stepTimeout,
		logger:    logger.Named("ImageService"),
	}
}

func (s *imageServiceImpl) GetSettings(ctx context.Context) (*models.ImageSettings, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsRead)
	if err != nil {
		return nil, err
	}
	return s.loadSettings(ctx, id.AccountID)
}

// loadSettings reads through the cache; a missing row yields empty settings.
func (s *imageServiceImpl) loadSettings(ctx context.Context, accountID string) (*models.ImageSettings, error) {
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, accountID)
		if err != nil {
			s.logger.Warn("Image settings cache read failed", zap.String("account_id", accountID), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	settings, err := s.settings.Get(ctx, s.db, accountID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		settings = &models.ImageSettings{
			AccountID:           accountID,
			BrandColors:         []models.BrandColorTemplate{},
			PreferredStyleCodes: []string{},
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, settings, imageSettingsCacheTTL); err != nil {
			s.logger.Warn("Image settings cache write failed", zap.String("account_id", accountID), zap.Error(err))
		}
	}
	return settings, nil
}

func (s *imageServiceImpl) UpdateSettings(ctx context.Context, in ImageSettingsInput) (*models.ImageSettings, error) {
	id, err := account.RequirePermission(ctx, account.PermSettingsWrite)
	if err != nil {
		return nil, err
	}
	for i, bc := range in.BrandColors {
		if err := validateBrandColor(bc); err != nil {
			return nil, fmt.Errorf("brand_colors[%d]: %w", i, err)
		}
	}
	if in.Defaults.ModelVersion != "" {
		in.Defaults.ModelVersion = provider.NormalizeVersion(in.Defaults.ModelVersion)
	}
	if in.Defaults.NumImages < 0 || in.Defaults.NumImages > 8 {
		return nil, fmt.Errorf("%w: defaults.num_images must be between 1 and 8", models.ErrInvalidInput)
	}

	settings := &models.ImageSettings{
		AccountID:           id.AccountID,
		PromptPrefix:        in.PromptPrefix,
		PromptSuffix:        in.PromptSuffix,
		BrandColors:         nonNilColors(in.BrandColors),
		PreferredStyleCodes: nonNilStrings(in.PreferredStyleCodes),
		Defaults:            in.Defaults,
	}
	return s.save(ctx, settings)
}

func (s *imageServiceImpl) ListBrandColors(ctx context.Context) ([]models.BrandColorTemplate, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return settings.BrandColors, nil
}

func (s *imageServiceImpl) AddBrandColor(ctx context.Context, tmpl models.BrandColorTemplate) ([]models.BrandColorTemplate, error) {
	id, err := account.RequirePermission(ctx, account.PermSettingsWrite)
	if err != nil {
		return nil, err
	}
	if err := validateBrandColor(tmpl); err != nil {
		return nil, err
	}
	return s.updateBrandColors(ctx, id.AccountID, func(current []models.BrandColorTemplate) ([]models.BrandColorTemplate, error) {
		for _, existing := range current {
			if strings.EqualFold(existing.Name, tmpl.Name) {
				return nil, fmt.Errorf("%w: brand color %q already exists", models.ErrInvalidInput, tmpl.Name)
			}
		}
		return append(append([]models.BrandColorTemplate{}, current...), tmpl), nil
	})
}

func (s *imageServiceImpl) DeleteBrandColor(ctx context.Context, index int) ([]models.BrandColorTemplate, error) {
	id, err := account.RequirePermission(ctx, account.PermSettingsWrite)
	if err != nil {
		return nil, err
	}
	return s.updateBrandColors(ctx, id.AccountID, func(current []models.BrandColorTemplate) ([]models.BrandColorTemplate, error) {
		if index < 0 || index >= len(current) {
			return nil, fmt.Errorf("%w: brand color index %d", models.ErrNotFound, index)
		}
		out := make([]models.BrandColorTemplate, 0, len(current)-1)
		out = append(out, current[:index]...)
		return append(out, current[index+1:]...), nil
	})
}

// updateBrandColors applies change to the locked settings row so concurrent
// edits of one account serialize.
func (s *imageServiceImpl) updateBrandColors(
	ctx context.Context,
	accountID string,
	change func([]models.BrandColorTemplate) ([]models.BrandColorTemplate, error),
) ([]models.BrandColorTemplate, error) {
	var saved *models.ImageSettings
	err := s.txm.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		current, err := s.settings.LockForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		colors, err := change(current.BrandColors)
		if err != nil {
			return err
		}
		updated := *current
		updated.BrandColors = colors
		if err := s.settings.Upsert(ctx, tx, &updated); err != nil {
			return err
		}
		saved = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, accountID)
	return saved.BrandColors, nil
}

func (s *imageServiceImpl) save(ctx context.Context, settings *models.ImageSettings) (*models.ImageSettings, error) {
	if err := s.settings.Upsert(ctx, s.db, settings); err != nil {
		return nil, err
	}
	s.invalidate(ctx, settings.AccountID)
	return settings, nil
}

func (s *imageServiceImpl) invalidate(ctx context.Context, accountID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, accountID); err != nil {
		s.logger.Warn("Image settings cache invalidation failed", zap.String("account_id", accountID), zap.Error(err))
	}
}

// Generate renders the caller's prompt through the current version of the
// account's image_generation template, builds the final provider request
// from it and the account settings, calls the image provider and stores one
// record per returned image.
func (s *imageServiceImpl) Generate(ctx context.Context, contentID string, req models.ImageRequest, jobID *string) (*ImageGeneration, error) {
	id, err := account.RequirePermission(ctx, account.PermImagesWrite)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", models.ErrInvalidInput)
	}
	if len(req.ReferenceImages) > 3 {
		return nil, fmt.Errorf("%w: at most 3 reference images are allowed", models.ErrInvalidInput)
	}
	var contentRef *string
	if contentID != "" {
		if _, err := s.contents.Get(ctx, s.db, id.AccountID, contentID); err != nil {
			return nil, err
		}
		contentRef = &contentID
	}

	tmpl, version, err := s.resolveTemplate(ctx, id.AccountID)
	if err != nil {
		return nil, err
	}
	userPrompt := req.Prompt
	bag := storyBag(nil, models.CategoryImageGeneration).Merge(map[string]string{"prompt": strings.TrimSpace(req.Prompt)})
	if req.Prompt, err = render.String(version.PromptContent, bag); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: template %s rendered an empty prompt", models.ErrInvalidInput, tmpl.ID)
	}

	settings, err := s.loadSettings(ctx, id.AccountID)
	if err != nil {
		return nil, err
	}
	preq, coerced, err := buildImageRequest(req, settings)
	if err != nil {
		return nil, err
	}
	preq.AccountID = id.AccountID

	log := s.logger.With(
		zap.String("account_id", id.AccountID),
		zap.String("version_id", version.ID),
		zap.String("model_version", preq.ModelVersion),
		zap.String("style_type", preq.StyleType),
	)
	if coerced {
		log.Info("Style type not supported by model version, coerced", zap.String("requested", req.StyleType))
	}

	p, err := s.selector.Image()
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	start := time.Now()
	results, callErr := p.GenerateImage(callCtx, preq)
	cancel()
	if callErr != nil && errors.Is(callErr, context.DeadlineExceeded) && ctx.Err() == nil {
		callErr = fmt.Errorf("%w: image generation exceeded %s", models.ErrTimeout, s.timeout)
	}
	elapsed := time.Since(start)

	genLog := &models.GenerationLog{
		ID:               uuid.NewString(),
		AccountID:        id.AccountID,
		TemplateID:       &tmpl.ID,
		VersionID:        &version.ID,
		JobID:            jobID,
		ContentID:        contentRef,
		AIService:        p.Name(),
		ModelUsed:        p.Name() + "-" + preq.ModelVersion,
		GenerationTimeMs: elapsed.Milliseconds(),
	}

	var unsafeOnly bool
	if callErr != nil && errors.Is(callErr, models.ErrUnsafeContent) && len(results) > 0 {
		unsafeOnly = true
	}
	if callErr != nil && !unsafeOnly {
		genLog.Fail(callErr)
		s.insertLog(ctx, genLog)
		log.Warn("Image generation failed", zap.Error(callErr))
		return nil, callErr
	}

	records := make([]models.ImageRecord, 0, len(results))
	params := models.ImageParameters{
		StyleType:         preq.StyleType,
		AspectRatio:       preq.AspectRatio,
		Resolution:        preq.Resolution,
		RenderingSpeed:    preq.RenderingSpeed,
		MagicPrompt:       preq.MagicPrompt,
		NegativePrompt:    preq.NegativePrompt,
		Seed:              preq.Seed,
		StyleCodes:        preq.StyleCodes,
		ReferenceImageIDs: preq.ReferenceImages,
		ColorPalette:      preq.ColorPalette,
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal image parameters: %w", err)
	}
	var totalCost float64
	for _, r := range results {
		totalCost += r.CostEstimateUSD
		records = append(records, models.ImageRecord{
			ID:              uuid.NewString(),
			AccountID:       id.AccountID,
			ContentID:       contentRef,
			JobID:           jobID,
			Provider:        p.Name(),
			ModelVersion:    preq.ModelVersion,
			PromptUser:      userPrompt,
			PromptFinal:     preq.Prompt,
			Parameters:      rawParams,
			ResultURL:       r.URL,
			AltText:         r.AltText,
			Seed:            r.Seed,
			Resolution:      r.Resolution,
			CostEstimateUSD: r.CostEstimateUSD,
			IsSafe:          r.IsSafe,
			Status:          models.ImageStatusPendingReview,
		})
	}
	genLog.CostEstimateUSD = totalCost
	if unsafeOnly {
		genLog.Fail(callErr)
	} else {
		genLog.Succeed()
	}

	err = s.txm.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if err := s.images.CreateMany(ctx, tx, records); err != nil {
			return err
		}
		if err := s.genLogs.Insert(ctx, tx, genLog); err != nil {
			return err
		}
		if unsafeOnly {
			return nil
		}
		return s.templates.IncrementUsage(ctx, tx, version.ID)
	})
	if err != nil {
		log.Error("Failed to store image records", zap.Error(err))
		return nil, err
	}
	if unsafeOnly {
		log.Warn("Provider flagged every image as unsafe", zap.Int("images", len(records)))
		return nil, callErr
	}

	log.Info("Images generated", zap.Int("images", len(records)), zap.Float64("cost_usd", totalCost))
	return &ImageGeneration{
		Images:       records,
		PromptFinal:  preq.Prompt,
		ModelVersion: preq.ModelVersion,
		StyleType:    preq.StyleType,
		StyleCoerced: coerced,
	}, nil
}

// resolveTemplate loads the account's image_generation template and its
// current version.
func (s *imageServiceImpl) resolveTemplate(ctx context.Context, accountID string) (*models.Template, *models.TemplateVersion, error) {
	tmpl, err := s.templates.GetTemplateByCategory(ctx, s.db, accountID, models.CategoryImageGeneration)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrNoTemplate, models.CategoryImageGeneration)
	}
	if err != nil {
		return nil, nil, err
	}
	version, err := s.templates.GetCurrentVersion(ctx, s.db, tmpl.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: template %s has no current version", models.ErrNoTemplate, tmpl.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	return tmpl, version, nil
}

func (s *imageServiceImpl) insertLog(ctx context.Context, l *models.GenerationLog) {
	if err := s.genLogs.Insert(ctx, s.db, l); err != nil {
		s.logger.Error("Failed to write image generation log", zap.String("account_id", l.AccountID), zap.Error(err))
	}
}

func (s *imageServiceImpl) UpdateStatus(ctx context.Context, imageID string, to models.ImageStatus) (*models.ImageRecord, error) {
	id, err := account.RequirePermission(ctx, account.PermContentReview)
	if err != nil {
		return nil, err
	}
	current, err := s.images.Get(ctx, s.db, id.AccountID, imageID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionImage(current.Status, to) {
		return nil, fmt.Errorf("%w: image %s -> %s", models.ErrInvalidTransition, current.Status, to)
	}
	updated, err := s.images.UpdateStatus(ctx, s.db, id.AccountID, imageID, current.Status, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Image status changed",
		zap.String("account_id", id.AccountID),
		zap.String("image_id", imageID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

func (s *imageServiceImpl) ListForContent(ctx context.Context, contentID string) ([]models.ImageRecord, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsRead)
	if err != nil {
		return nil, err
	}
	return s.images.ListByContent(ctx, s.db, id.AccountID, contentID)
}

// buildImageRequest applies account defaults, prompt affixes, brand colors and
// preferred style codes, then normalizes the style for the model version.
func buildImageRequest(req models.ImageRequest, settings *models.ImageSettings) (provider.ImageRequest, bool, error) {
	d := settings.Defaults
	out := provider.ImageRequest{
		Prompt:          strings.TrimSpace(req.Prompt),
		NegativePrompt:  req.NegativePrompt,
		AspectRatio:     firstNonEmpty(req.AspectRatio, d.AspectRatio),
		Resolution:      req.Resolution,
		StyleType:       firstNonEmpty(req.StyleType, d.StyleType),
		RenderingSpeed:  firstNonEmpty(req.RenderingSpeed, d.RenderingSpeed),
		MagicPrompt:     firstNonEmpty(req.MagicPrompt, d.MagicPrompt),
		NumImages:       req.NumImages,
		Seed:            req.Seed,
		StyleCodes:      req.StyleCodes,
		ReferenceImages: req.ReferenceImages,
		ModelVersion:    provider.NormalizeVersion(firstNonEmpty(req.ModelVersion, d.ModelVersion)),
	}
	if out.NumImages <= 0 {
		out.NumImages = d.NumImages
	}
	if out.NumImages <= 0 {
		out.NumImages = 1
	}
	if out.NegativePrompt == nil && d.NegativePrompt != "" {
		neg := d.NegativePrompt
		out.NegativePrompt = &neg
	}

	if req.ApplyAffixes() {
		var parts []string
		if settings.PromptPrefix != nil && strings.TrimSpace(*settings.PromptPrefix) != "" {
			parts = append(parts, strings.TrimSpace(*settings.PromptPrefix))
		}
		parts = append(parts, out.Prompt)
		if settings.PromptSuffix != nil && strings.TrimSpace(*settings.PromptSuffix) != "" {
			parts = append(parts, strings.TrimSpace(*settings.PromptSuffix))
		}
		out.Prompt = strings.Join(parts, " ")
	}

	palette, err := selectPalette(req, settings)
	if err != nil {
		return provider.ImageRequest{}, false, err
	}
	out.ColorPalette = palette

	if out.ModelVersion == provider.IdeogramV3 && len(out.StyleCodes) == 0 && len(out.ReferenceImages) == 0 {
		out.StyleCodes = settings.PreferredStyleCodes
	}

	coerced := false
	if out.StyleType != "" {
		style := provider.CoerceStyleType(out.ModelVersion, out.StyleType)
		coerced = !strings.EqualFold(style, out.StyleType)
		out.StyleType = style
	}
	return out, coerced, nil
}

func selectPalette(req models.ImageRequest, settings *models.ImageSettings) (*models.ColorPalette, error) {
	if req.SelectedColorTemplateName != nil && *req.SelectedColorTemplateName != "" {
		name := *req.SelectedColorTemplateName
		for _, bc := range settings.BrandColors {
			if strings.EqualFold(bc.Name, name) {
				return &models.ColorPalette{Name: bc.Name, Members: bc.Colors}, nil
			}
		}
		return nil, fmt.Errorf("%w: brand color template %q", models.ErrNotFound, name)
	}
	if req.UseAccountColors != nil && *req.UseAccountColors && len(settings.BrandColors) > 0 {
		bc := settings.BrandColors[0]
		return &models.ColorPalette{Name: bc.Name, Members: bc.Colors}, nil
	}
	return nil, nil
}

func validateBrandColor(bc models.BrandColorTemplate) error {
	if strings.TrimSpace(bc.Name) == "" {
		return fmt.Errorf("%w: brand color name is required", models.ErrInvalidInput)
	}
	if len(bc.Colors) == 0 {
		return fmt.Errorf("%w: brand color %q has no colors", models.ErrInvalidInput, bc.Name)
	}
	for _, c := range bc.Colors {
		if !isHexColor(c.Hex) {
			return fmt.Errorf("%w: invalid color %q", models.ErrInvalidInput, c.Hex)
		}
		if c.Weight < 0 || c.Weight > 1 {
			return fmt.Errorf("%w: color weight %v outside [0,1]", models.ErrInvalidInput, c.Weight)
		}
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func nonNilColors(in []models.BrandColorTemplate) []models.BrandColorTemplate {
	if in == nil {
		return []models.BrandColorTemplate{}
	}
	return in
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
