package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

const (
	ideogramLegacyPath   = "/generate"
	ideogramV3Path       = "/v1/ideogram-v3/generate"
	maxReferenceImageLen = 10 << 20
)

// IdeogramConfig configures the Ideogram client.
type IdeogramConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type ideogramProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ ImageProvider = (*ideogramProvider)(nil)

// NewIdeogram creates the Ideogram image provider.
func NewIdeogram(cfg IdeogramConfig, logger *zap.Logger) ImageProvider {
	logger = logger.Named("IdeogramProvider")
	logger.Info("Ideogram provider created",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.Bool("api_key_loaded", cfg.APIKey != ""),
	)
	return &ideogramProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (p *ideogramProvider) Name() string { return "ideogram" }

type ideogramImage struct {
	URL         string `json:"url"`
	Prompt      string `json:"prompt"`
	Resolution  string `json:"resolution"`
	IsImageSafe bool   `json:"is_image_safe"`
	Seed        *int64 `json:"seed"`
	StyleType   string `json:"style_type"`
}

type ideogramResponse struct {
	Created string          `json:"created"`
	Data    []ideogramImage `json:"data"`
}

// GenerateImage sends the request as JSON, or as multipart for v3 with reference images.
func (p *ideogramProvider) GenerateImage(ctx context.Context, req ImageRequest) ([]ImageResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: empty image prompt", models.ErrBadRequest)
	}
	version := NormalizeVersion(req.ModelVersion)
	log := p.logger.With(zap.String("model_version", version), zap.String("account_id", req.AccountID))

	if len(req.ReferenceImages) > maxReferenceImages {
		return nil, fmt.Errorf("%w: at most %d reference images are allowed", models.ErrBadRequest, maxReferenceImages)
	}
	if req.NumImages <= 0 {
		req.NumImages = 1
	}
	if req.NumImages > maxImagesPerRequest {
		req.NumImages = maxImagesPerRequest
	}
	coerced := CoerceStyleType(version, req.StyleType)
	if coerced != strings.ToUpper(strings.TrimSpace(req.StyleType)) {
		log.Info("Style type not supported by model version, coerced",
			zap.String("requested", req.StyleType), zap.String("style_type", coerced))
	}
	req.StyleType = coerced
	req.RenderingSpeed = normalizeSpeed(version, req.RenderingSpeed)
	req.MagicPrompt = normalizeMagicPrompt(req.MagicPrompt)

	var (
		httpReq *http.Request
		err     error
	)
	switch {
	case version == IdeogramV3 && len(req.ReferenceImages) > 0:
		httpReq, err = p.multipartRequest(ctx, req)
	case version == IdeogramV3:
		httpReq, err = p.jsonRequest(ctx, p.baseURL+ideogramV3Path, v3Body(req))
	default:
		httpReq, err = p.jsonRequest(ctx, p.baseURL+ideogramLegacyPath, map[string]any{"image_request": legacyBody(version, req)})
	}
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		classified := classifyTransport(err)
		observeFailure(p.Name(), version, classified)
		log.Warn("Ideogram request failed", zap.Error(classified))
		return nil, classified
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		classified := classifyTransport(err)
		observeFailure(p.Name(), version, classified)
		return nil, classified
	}
	if resp.StatusCode != http.StatusOK {
		classified := classifyStatus(resp.StatusCode, string(body))
		observeFailure(p.Name(), version, classified)
		log.Warn("Ideogram returned error status", zap.Int("status", resp.StatusCode), zap.Error(classified))
		return nil, classified
	}

	var parsed ideogramResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		err = fmt.Errorf("%w: failed to decode ideogram response: %v", models.ErrProviderUnavailable, err)
		observeFailure(p.Name(), version, err)
		return nil, err
	}
	if len(parsed.Data) == 0 {
		err := fmt.Errorf("%w: ideogram returned no images", models.ErrProviderUnavailable)
		observeFailure(p.Name(), version, err)
		return nil, err
	}

	perImage := ImageCost(version, req.RenderingSpeed, 1)
	results := make([]ImageResult, 0, len(parsed.Data))
	safe := 0
	for _, img := range parsed.Data {
		style := img.StyleType
		if style == "" {
			style = req.StyleType
		}
		results = append(results, ImageResult{
			URL:             img.URL,
			Seed:            img.Seed,
			Resolution:      img.Resolution,
			StyleType:       style,
			IsSafe:          img.IsImageSafe,
			GenerationTimeS: elapsed.Seconds(),
			CostEstimateUSD: perImage,
		})
		if img.IsImageSafe {
			safe++
		}
		aiImagesTotal.WithLabelValues(p.Name(), version, strconv.FormatBool(img.IsImageSafe)).Inc()
	}
	if safe == 0 {
		err := fmt.Errorf("%w: all %d generated images were flagged", models.ErrUnsafeContent, len(results))
		observeFailure(p.Name(), version, err)
		return results, err
	}

	aiRequestsTotal.WithLabelValues(p.Name(), version, "success").Inc()
	aiRequestDuration.WithLabelValues(p.Name(), version).Observe(elapsed.Seconds())
	aiEstimatedCostUSD.WithLabelValues(p.Name(), version).Add(perImage * float64(len(results)))
	log.Info("Ideogram images generated",
		zap.Int("images", len(results)),
		zap.Int("safe", safe),
		zap.Duration("duration", elapsed),
	)
	return results, nil
}

func legacyBody(version string, req ImageRequest) map[string]any {
	body := map[string]any{
		"prompt":              req.Prompt,
		"model":               legacyModelParam(version, req.RenderingSpeed),
		"magic_prompt_option": req.MagicPrompt,
		"num_images":          req.NumImages,
	}
	if req.StyleType != "" {
		body["style_type"] = req.StyleType
	}
	if req.Resolution != "" {
		body["resolution"] = "RESOLUTION_" + strings.ReplaceAll(strings.ToUpper(req.Resolution), "X", "_")
	} else if ar := aspectRatioParam(version, req.AspectRatio); ar != "" {
		body["aspect_ratio"] = ar
	}
	if req.NegativePrompt != nil && *req.NegativePrompt != "" {
		body["negative_prompt"] = *req.NegativePrompt
	}
	if req.Seed != nil {
		body["seed"] = *req.Seed
	}
	if req.ColorPalette != nil && version != IdeogramV1 {
		body["color_palette"] = req.ColorPalette
	}
	return body
}

func v3Body(req ImageRequest) map[string]any {
	body := map[string]any{
		"prompt":          req.Prompt,
		"rendering_speed": req.RenderingSpeed,
		"magic_prompt":    req.MagicPrompt,
		"num_images":      req.NumImages,
	}
	if req.StyleType != "" {
		body["style_type"] = req.StyleType
	}
	if req.Resolution != "" {
		body["resolution"] = strings.ToLower(req.Resolution)
	} else if ar := aspectRatioParam(IdeogramV3, req.AspectRatio); ar != "" {
		body["aspect_ratio"] = ar
	}
	if req.NegativePrompt != nil && *req.NegativePrompt != "" {
		body["negative_prompt"] = *req.NegativePrompt
	}
	if req.Seed != nil {
		body["seed"] = *req.Seed
	}
	if len(req.StyleCodes) > 0 {
		body["style_codes"] = req.StyleCodes
	}
	if req.ColorPalette != nil {
		body["color_palette"] = req.ColorPalette
	}
	return body
}

func (p *ideogramProvider) jsonRequest(ctx context.Context, url string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ideogram request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create ideogram request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Api-Key", p.apiKey)
	return httpReq, nil
}

func (p *ideogramProvider) multipartRequest(ctx context.Context, req ImageRequest) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range v3Body(req) {
		var field string
		switch v := value.(type) {
		case string:
			field = v
		case int:
			field = strconv.Itoa(v)
		case int64:
			field = strconv.FormatInt(v, 10)
		case []string:
			for _, item := range v {
				if err := w.WriteField(key, item); err != nil {
					return nil, fmt.Errorf("failed to write multipart field %s: %w", key, err)
				}
			}
			continue
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal multipart field %s: %w", key, err)
			}
			field = string(raw)
		}
		if err := w.WriteField(key, field); err != nil {
			return nil, fmt.Errorf("failed to write multipart field %s: %w", key, err)
		}
	}

	for i, ref := range req.ReferenceImages {
		data, contentType, err := p.download(ctx, ref)
		if err != nil {
			return nil, err
		}
		h := make(textproto.MIMEHeader)
		name := path.Base(ref)
		if name == "" || name == "." || name == "/" {
			name = fmt.Sprintf("reference_%d", i+1)
		}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="style_reference_images"; filename="%s"`, name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart file part: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write reference image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+ideogramV3Path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create ideogram request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Api-Key", p.apiKey)
	return httpReq, nil
}

func (p *ideogramProvider) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid reference image url %q", models.ErrBadRequest, url)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download reference image: %w", classifyTransport(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: reference image %s returned %d", models.ErrBadRequest, url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceImageLen+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read reference image: %w", classifyTransport(err))
	}
	if len(data) > maxReferenceImageLen {
		return nil, "", fmt.Errorf("%w: reference image %s exceeds %d bytes", models.ErrBadRequest, url, maxReferenceImageLen)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
