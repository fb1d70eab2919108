package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"content-pipeline/shared/models"
)

// SocialPost is one platform-tagged social media post.
type SocialPost struct {
	Platform string   `json:"platform"`
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// ScriptSegment is one timed part of a video script.
type ScriptSegment struct {
	Segment         string `json:"segment"`
	DurationSeconds int    `json:"duration_seconds"`
	Narration       string `json:"narration"`
	Visuals         string `json:"visuals,omitempty"`
}

// PrayerPoint is one numbered prayer point.
type PrayerPoint struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

var (
	fenceRe        = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*(.*?)\\s*```$")
	numberedLineRe = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.+)$`)
	subjectLineRe  = regexp.MustCompile(`(?i)^\s*subject\s*:\s*(.+)$`)
	headingRe      = regexp.MustCompile(`^\s*#{1,3}\s+(.+)$`)
)

// parseContent turns a provider response into the category's structured
// payload. The raw text is always kept; a schema mismatch is reported as
// parseErr alongside a payload holding only the raw text.
func parseContent(category models.PromptCategory, raw string) (data map[string]any, parseErr error) {
	data = map[string]any{"raw_text": raw}
	text := strings.TrimSpace(raw)
	if text == "" {
		return data, fmt.Errorf("%w: empty response", models.ErrParse)
	}

	var fields map[string]any
	switch category {
	case models.CategorySocialMedia:
		fields, parseErr = parseSocial(text)
	case models.CategoryVideoScript:
		fields, parseErr = parseVideoScript(text)
	case models.CategoryPrayer:
		fields, parseErr = parsePrayer(text)
	case models.CategoryAnalysis:
		fields, parseErr = parseAnalysis(text)
	case models.CategoryBlogPost, models.CategoryNewsletter, models.CategoryDevotional, models.CategorySermon:
		fields, parseErr = parseArticle(text)
	case models.CategoryEmail:
		fields, parseErr = parseEmail(text)
	default:
		fields = map[string]any{"text": text}
	}
	if parseErr != nil {
		return data, parseErr
	}
	for k, v := range fields {
		data[k] = v
	}
	return data, nil
}

func stripFence(s string) string {
	if m := fenceRe.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		return m[1]
	}
	return s
}

// decodeJSONList accepts either a bare array or an object wrapping the array under key.
func decodeJSONList[T any](text, key string) ([]T, error) {
	body := stripFence(text)
	var list []T
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return list, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array or object: %v", models.ErrParse, err)
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", models.ErrParse, key)
	}
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list: %v", models.ErrParse, key, err)
	}
	return list, nil
}

func parseSocial(text string) (map[string]any, error) {
	posts, err := decodeJSONList[SocialPost](text, "posts")
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: no posts", models.ErrParse)
	}
	for i := range posts {
		posts[i].Platform = strings.ToLower(strings.TrimSpace(posts[i].Platform))
		if posts[i].Platform == "" || strings.TrimSpace(posts[i].Text) == "" {
			return nil, fmt.Errorf("%w: post %d needs platform and text", models.ErrParse, i+1)
		}
	}
	return map[string]any{"posts": posts}, nil
}

func parseVideoScript(text string) (map[string]any, error) {
	segments, err := decodeJSONList[ScriptSegment](text, "segments")
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", models.ErrParse)
	}
	total := 0
	for i, seg := range segments {
		if seg.DurationSeconds <= 0 {
			return nil, fmt.Errorf("%w: segment %d has no positive duration", models.ErrParse, i+1)
		}
		if strings.TrimSpace(seg.Narration) == "" {
			return nil, fmt.Errorf("%w: segment %d has no narration", models.ErrParse, i+1)
		}
		total += seg.DurationSeconds
	}
	return map[string]any{"segments": segments, "total_duration_seconds": total}, nil
}

func parsePrayer(text string) (map[string]any, error) {
	var points []PrayerPoint
	for _, line := range strings.Split(text, "\n") {
		m := numberedLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		points = append(points, PrayerPoint{Number: n, Text: strings.TrimSpace(m[2])})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no numbered prayer points", models.ErrParse)
	}
	return map[string]any{"points": points}, nil
}

func parseAnalysis(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(stripFence(text)), &obj); err != nil {
		return nil, fmt.Errorf("%w: analysis must be a JSON object: %v", models.ErrParse, err)
	}
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: empty analysis", models.ErrParse)
	}
	return map[string]any{"analysis": obj}, nil
}

// parseArticle takes the first markdown heading (or first line) as the title.
func parseArticle(text string) (map[string]any, error) {
	var obj struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &obj); err == nil && obj.Body != "" {
		return map[string]any{"title": strings.TrimSpace(obj.Title), "body": obj.Body}, nil
	}

	lines := strings.Split(text, "\n")
	title := strings.TrimSpace(lines[0])
	if m := headingRe.FindStringSubmatch(lines[0]); m != nil {
		title = strings.TrimSpace(m[1])
	}
	body := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	if body == "" {
		return nil, fmt.Errorf("%w: article has a title but no body", models.ErrParse)
	}
	return map[string]any{"title": title, "body": body}, nil
}

func parseEmail(text string) (map[string]any, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if m := subjectLineRe.FindStringSubmatch(line); m != nil {
			body := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			if body == "" {
				return nil, fmt.Errorf("%w: email has no body", models.ErrParse)
			}
			return map[string]any{"subject": strings.TrimSpace(m[1]), "body": body}, nil
		}
	}
	return nil, fmt.Errorf("%w: email has no Subject line", models.ErrParse)
}
