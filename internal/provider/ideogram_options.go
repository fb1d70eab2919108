package provider

import (
	"strings"
)

// Ideogram model versions.
const (
	IdeogramV1 = "v1"
	IdeogramV2 = "v2"
	IdeogramV3 = "v3"

	DefaultIdeogramVersion = IdeogramV3
	safeStyleType          = "GENERAL"
	maxReferenceImages     = 3
	maxImagesPerRequest    = 8
)

var (
	styleTypesByVersion = map[string][]string{
		IdeogramV1: {"GENERAL", "REALISTIC", "DESIGN", "RENDER_3D", "ANIME"},
		IdeogramV2: {"AUTO", "GENERAL", "REALISTIC", "DESIGN", "RENDER_3D", "ANIME"},
		IdeogramV3: {"AUTO", "GENERAL", "REALISTIC", "DESIGN", "FICTION"},
	}
	aspectRatios       = []string{"1:1", "16:9", "9:16", "4:3", "3:4", "3:2", "2:3", "16:10", "10:16", "1:3", "3:1"}
	renderingSpeedsV3  = []string{"TURBO", "DEFAULT", "QUALITY"}
	renderingSpeedsOld = []string{"DEFAULT", "TURBO"}
	magicPromptOptions = []string{"AUTO", "ON", "OFF"}
	imagePriceByVer    = map[string]float64{IdeogramV1: 0.06, IdeogramV2: 0.08, IdeogramV3: 0.09}
)

// IdeogramOptions lists the parameter values a model version accepts.
type IdeogramOptions struct {
	ModelVersion            string   `json:"model_version"`
	StyleTypes              []string `json:"style_types"`
	AspectRatios            []string `json:"aspect_ratios"`
	RenderingSpeeds         []string `json:"rendering_speeds"`
	MagicPromptOptions      []string `json:"magic_prompt_options"`
	SupportsStyleCodes      bool     `json:"supports_style_codes"`
	SupportsColorPalette    bool     `json:"supports_color_palette"`
	MaxReferenceImages      int      `json:"max_reference_images"`
	MaxImagesPerRequest     int      `json:"max_images_per_request"`
	CostPerImageUSD         float64  `json:"cost_per_image_usd"`
	SupportedModelVersions  []string `json:"supported_model_versions"`
	DefaultStyleType        string   `json:"default_style_type"`
	DefaultRenderingSpeed   string   `json:"default_rendering_speed"`
	DefaultMagicPromptValue string   `json:"default_magic_prompt"`
}

// NormalizeVersion maps user input ("V_2", "2", "v3") onto v1|v2|v3.
// Unknown values resolve to the default version.
func NormalizeVersion(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	s = strings.TrimPrefix(s, "v_")
	s = strings.TrimPrefix(s, "v")
	switch {
	case strings.HasPrefix(s, "1"):
		return IdeogramV1
	case strings.HasPrefix(s, "2"):
		return IdeogramV2
	case strings.HasPrefix(s, "3"):
		return IdeogramV3
	}
	return DefaultIdeogramVersion
}

// OptionsFor returns the option set of a model version.
func OptionsFor(version string) IdeogramOptions {
	v := NormalizeVersion(version)
	opts := IdeogramOptions{
		ModelVersion:            v,
		StyleTypes:              append([]string(nil), styleTypesByVersion[v]...),
		AspectRatios:            append([]string(nil), aspectRatios...),
		MagicPromptOptions:      append([]string(nil), magicPromptOptions...),
		SupportsColorPalette:    v != IdeogramV1,
		MaxImagesPerRequest:     maxImagesPerRequest,
		CostPerImageUSD:         imagePriceByVer[v],
		SupportedModelVersions:  []string{IdeogramV1, IdeogramV2, IdeogramV3},
		DefaultStyleType:        safeStyleType,
		DefaultRenderingSpeed:   "DEFAULT",
		DefaultMagicPromptValue: "AUTO",
	}
	if v == IdeogramV3 {
		opts.RenderingSpeeds = append([]string(nil), renderingSpeedsV3...)
		opts.SupportsStyleCodes = true
		opts.MaxReferenceImages = maxReferenceImages
	} else {
		opts.RenderingSpeeds = append([]string(nil), renderingSpeedsOld...)
	}
	return opts
}

// CoerceStyleType returns style unchanged when the version supports it and
// GENERAL otherwise. An empty style stays empty.
func CoerceStyleType(version, style string) string {
	if style == "" {
		return ""
	}
	style = strings.ToUpper(strings.TrimSpace(style))
	for _, s := range styleTypesByVersion[NormalizeVersion(version)] {
		if s == style {
			return style
		}
	}
	return safeStyleType
}

// aspectRatioParam converts "16:9", "16x9" or "ASPECT_16_9" to the wire format
// of the version. Unknown ratios yield "".
func aspectRatioParam(version, ratio string) string {
	r := strings.ToUpper(strings.TrimSpace(ratio))
	if r == "" {
		return ""
	}
	r = strings.TrimPrefix(r, "ASPECT_")
	r = strings.NewReplacer("X", ":", "_", ":").Replace(r)
	known := false
	for _, a := range aspectRatios {
		if a == r {
			known = true
			break
		}
	}
	if !known {
		return ""
	}
	w, h, _ := strings.Cut(r, ":")
	if version == IdeogramV3 {
		return w + "x" + h
	}
	return "ASPECT_" + w + "_" + h
}

// legacyModelParam returns V_1, V_1_TURBO, V_2 or V_2_TURBO.
func legacyModelParam(version, speed string) string {
	model := "V_2"
	if version == IdeogramV1 {
		model = "V_1"
	}
	if strings.EqualFold(speed, "TURBO") {
		model += "_TURBO"
	}
	return model
}

func normalizeSpeed(version, speed string) string {
	s := strings.ToUpper(strings.TrimSpace(speed))
	allowed := renderingSpeedsOld
	if version == IdeogramV3 {
		allowed = renderingSpeedsV3
	}
	for _, a := range allowed {
		if a == s {
			return s
		}
	}
	return "DEFAULT"
}

func normalizeMagicPrompt(v string) string {
	s := strings.ToUpper(strings.TrimSpace(v))
	for _, o := range magicPromptOptions {
		if o == s {
			return s
		}
	}
	return "AUTO"
}

// ImageCost is the USD price of n images at the given version and speed.
func ImageCost(version, speed string, n int) float64 {
	price := imagePriceByVer[NormalizeVersion(version)]
	if strings.EqualFold(speed, "TURBO") {
		price /= 2
	}
	return price * float64(n)
}
