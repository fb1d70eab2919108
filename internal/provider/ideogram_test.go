package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

const ideogramOK = `{"created":"2025-01-01T00:00:00Z","data":[{"url":"https://cdn.example/img1.png","prompt":"p","resolution":"1024x1024","is_image_safe":true,"seed":1234,"style_type":"GENERAL"}]}`

func newTestIdeogram(url string) ImageProvider {
	return NewIdeogram(IdeogramConfig{BaseURL: url, APIKey: "ideo-key", Timeout: 5 * time.Second}, zap.NewNop())
}

func TestIdeogramV3CoercesUnsupportedStyle(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ideogramV3Path, r.URL.Path)
		assert.Equal(t, "ideo-key", r.Header.Get("Api-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(ideogramOK))
	}))
	defer srv.Close()

	res, err := newTestIdeogram(srv.URL).GenerateImage(context.Background(), ImageRequest{
		Prompt:       "a lighthouse",
		ModelVersion: "v3",
		StyleType:    "ANIME",
		AspectRatio:  "16:9",
	})
	require.NoError(t, err)
	require.Len(t, res, 1)

	assert.Equal(t, "GENERAL", captured["style_type"])
	assert.Equal(t, "16x9", captured["aspect_ratio"])
	assert.Equal(t, "DEFAULT", captured["rendering_speed"])
	assert.Equal(t, "AUTO", captured["magic_prompt"])
	assert.True(t, res[0].IsSafe)
	assert.Equal(t, "https://cdn.example/img1.png", res[0].URL)
	require.NotNil(t, res[0].Seed)
	assert.EqualValues(t, 1234, *res[0].Seed)
	assert.InDelta(t, 0.09, res[0].CostEstimateUSD, 1e-9)
}

func TestIdeogramLegacyRequestShape(t *testing.T) {
	var captured struct {
		ImageRequest map[string]any `json:"image_request"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ideogramLegacyPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(ideogramOK))
	}))
	defer srv.Close()

	palette := &models.ColorPalette{Members: []models.ColorWeight{{Hex: "#112233", Weight: 1}}}
	res, err := newTestIdeogram(srv.URL).GenerateImage(context.Background(), ImageRequest{
		Prompt:         "a lighthouse",
		ModelVersion:   "v2",
		StyleType:      "anime",
		AspectRatio:    "ASPECT_16_9",
		RenderingSpeed: "TURBO",
		ColorPalette:   palette,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)

	req := captured.ImageRequest
	assert.Equal(t, "V_2_TURBO", req["model"])
	assert.Equal(t, "ANIME", req["style_type"])
	assert.Equal(t, "ASPECT_16_9", req["aspect_ratio"])
	assert.NotNil(t, req["color_palette"])
	assert.InDelta(t, 0.04, res[0].CostEstimateUSD, 1e-9)
}

func TestIdeogramV3MultipartWithReferenceImages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ref/a.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})
	var (
		fields map[string][]string
		files  int
	)
	mux.HandleFunc(ideogramV3Path, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = r.MultipartForm.Value
		for _, fh := range r.MultipartForm.File["style_reference_images"] {
			f, err := fh.Open()
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			_ = f.Close()
			assert.Equal(t, "png-bytes", string(data))
			files++
		}
		_, _ = w.Write([]byte(ideogramOK))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestIdeogram(srv.URL).GenerateImage(context.Background(), ImageRequest{
		Prompt:          "a lighthouse",
		ModelVersion:    "v3",
		StyleCodes:      []string{"AAFF00", "BBCC11"},
		ReferenceImages: []string{srv.URL + "/ref/a.png"},
		NumImages:       2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, files)
	assert.Equal(t, []string{"a lighthouse"}, fields["prompt"])
	assert.Equal(t, []string{"2"}, fields["num_images"])
	assert.ElementsMatch(t, []string{"AAFF00", "BBCC11"}, fields["style_codes"])
}

func TestIdeogramRejectsTooManyReferenceImages(t *testing.T) {
	_, err := newTestIdeogram("http://127.0.0.1:0").GenerateImage(context.Background(), ImageRequest{
		Prompt:          "x",
		ModelVersion:    "v3",
		ReferenceImages: []string{"a", "b", "c", "d"},
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestIdeogramStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusTooManyRequests, `{"error":"slow down"}`, models.ErrRateLimited},
		{http.StatusPaymentRequired, `{"error":"credits exhausted"}`, models.ErrQuotaExceeded},
		{http.StatusUnprocessableEntity, `{"error":"prompt failed safety check"}`, models.ErrUnsafeContent},
		{http.StatusBadGateway, `upstream`, models.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestIdeogram(srv.URL).GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIdeogramAllUnsafe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"url":"","is_image_safe":false}]}`))
	}))
	defer srv.Close()

	results, err := newTestIdeogram(srv.URL).GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrUnsafeContent)
	require.Len(t, results, 1)
	assert.False(t, results[0].IsSafe)
}

func TestIdeogramOptions(t *testing.T) {
	v3 := OptionsFor("V_3")
	assert.Equal(t, IdeogramV3, v3.ModelVersion)
	assert.Contains(t, v3.StyleTypes, "FICTION")
	assert.NotContains(t, v3.StyleTypes, "ANIME")
	assert.Equal(t, []string{"TURBO", "DEFAULT", "QUALITY"}, v3.RenderingSpeeds)
	assert.Equal(t, 3, v3.MaxReferenceImages)

	v1 := OptionsFor("1")
	assert.NotContains(t, v1.StyleTypes, "AUTO")
	assert.False(t, v1.SupportsColorPalette)
	assert.Zero(t, v1.MaxReferenceImages)

	assert.Equal(t, "GENERAL", CoerceStyleType("v3", "ANIME"))
	assert.Equal(t, "ANIME", CoerceStyleType("v2", "anime"))
	assert.Equal(t, "", CoerceStyleType("v2", ""))

	assert.Equal(t, "ASPECT_3_2", aspectRatioParam(IdeogramV2, "3x2"))
	assert.Equal(t, "9x16", aspectRatioParam(IdeogramV3, "ASPECT_9_16"))
	assert.Equal(t, "", aspectRatioParam(IdeogramV3, "7:5"))

	assert.InDelta(t, 0.18, ImageCost("v3", "DEFAULT", 2), 1e-9)
	assert.InDelta(t, 0.03, ImageCost("v1", "turbo", 1), 1e-9)
}
