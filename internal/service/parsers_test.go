package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-pipeline/shared/models"
)

func TestParseContent(t *testing.T) {
	t.Run("social list in fence", func(t *testing.T) {
		data, err := parseContent(models.CategorySocialMedia, "```json\n[{\"platform\":\"Twitter\",\"text\":\"Hope\",\"hashtags\":[\"#faith\"]}]\n```")
		require.NoError(t, err)
		posts := data["posts"].([]SocialPost)
		assert.Equal(t, "twitter", posts[0].Platform)
	})
	t.Run("social wrapped", func(t *testing.T) {
		_, err := parseContent(models.CategorySocialMedia, `{"posts":[{"platform":"x","text":"t"}]}`)
		assert.NoError(t, err)
	})
	t.Run("video script totals duration", func(t *testing.T) {
		data, err := parseContent(models.CategoryVideoScript, `{"segments":[{"segment":"intro","duration_seconds":10,"narration":"Hi"},{"segment":"end","duration_seconds":5,"narration":"Bye"}]}`)
		require.NoError(t, err)
		assert.Equal(t, 15, data["total_duration_seconds"])
	})
	t.Run("video script needs narration", func(t *testing.T) {
		_, err := parseContent(models.CategoryVideoScript, `[{"duration_seconds":10}]`)
		assert.ErrorIs(t, err, models.ErrParse)
	})
	t.Run("prayer points", func(t *testing.T) {
		data, err := parseContent(models.CategoryPrayer, "Let us pray:\n1. For peace\n2) For leaders\n")
		require.NoError(t, err)
		points := data["points"].([]PrayerPoint)
		require.Len(t, points, 2)
		assert.Equal(t, PrayerPoint{Number: 2, Text: "For leaders"}, points[1])
	})
	t.Run("article from json", func(t *testing.T) {
		data, err := parseContent(models.CategoryNewsletter, `{"title":"Weekly","body":"News"}`)
		require.NoError(t, err)
		assert.Equal(t, "Weekly", data["title"])
	})
	t.Run("article title only", func(t *testing.T) {
		_, err := parseContent(models.CategoryBlogPost, "# Just a title")
		assert.ErrorIs(t, err, models.ErrParse)
	})
	t.Run("email subject", func(t *testing.T) {
		data, err := parseContent(models.CategoryEmail, "Subject: Hello\n\nDear friends")
		require.NoError(t, err)
		assert.Equal(t, "Hello", data["subject"])
		assert.Equal(t, "Dear friends", data["body"])
	})
	t.Run("analysis must be object", func(t *testing.T) {
		data, err := parseContent(models.CategoryAnalysis, "[1,2]")
		assert.ErrorIs(t, err, models.ErrParse)
		assert.Equal(t, "[1,2]", data["raw_text"])
	})
	t.Run("empty", func(t *testing.T) {
		_, err := parseContent(models.CategoryPrayer, "   ")
		assert.ErrorIs(t, err, models.ErrParse)
	})
}

func TestStoryBag(t *testing.T) {
	bag := storyBag(&models.Story{Title: "T", Keywords: []string{"a", "b"}, RelevanceScore: 0.75}, models.CategoryBlogPost)
	assert.Equal(t, "T", bag["title"])
	assert.Equal(t, "a, b", bag["keywords"])
	assert.Equal(t, "0.75", bag["relevance_score"])
	assert.Equal(t, "", bag["publication_date"])
	assert.Equal(t, "blog_post", bag["category"])

	empty := storyBag(nil, models.CategoryPrayer)
	assert.NotContains(t, empty, "title")
}
