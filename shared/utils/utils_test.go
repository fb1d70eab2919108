package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadHash_KeyOrderIndependent(t *testing.T) {
	a, err := PayloadHash(json.RawMessage(`{"limit":5,"categories":["blog_post"]}`))
	require.NoError(t, err)
	b, err := PayloadHash(json.RawMessage(`{ "categories": ["blog_post"], "limit": 5 }`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := PayloadHash(json.RawMessage(`{"limit":6,"categories":["blog_post"]}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestPayloadHash_EmptyAndInvalid(t *testing.T) {
	empty, err := PayloadHash(nil)
	require.NoError(t, err)
	obj, err := PayloadHash(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, obj, empty)

	_, err = PayloadHash(json.RawMessage(`{oops`))
	assert.Error(t, err)
}

func TestParseLimitOffset(t *testing.T) {
	limit, offset, err := ParseLimitOffset("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPageLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset, err = ParseLimitOffset("1000", "20")
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, limit)
	assert.Equal(t, 20, offset)

	_, _, err = ParseLimitOffset("-1", "")
	assert.Error(t, err)
	_, _, err = ParseLimitOffset("", "x")
	assert.Error(t, err)
}

func TestParseTimeCursor(t *testing.T) {
	got, err := ParseTimeCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseTimeCursor("2024-05-01T10:00:00.123456+02:00")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8, got.Hour())

	_, err = ParseTimeCursor("yesterday")
	assert.Error(t, err)
}

func TestParseLogCursor(t *testing.T) {
	after, since, err := ParseLogCursor("")
	require.NoError(t, err)
	assert.Zero(t, after)
	assert.Nil(t, since)

	after, since, err = ParseLogCursor("1042")
	require.NoError(t, err)
	assert.Equal(t, int64(1042), after)
	assert.Nil(t, since)

	after, since, err = ParseLogCursor("2024-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.Zero(t, after)
	require.NotNil(t, since)

	_, _, err = ParseLogCursor("-5")
	assert.Error(t, err)
	_, _, err = ParseLogCursor("yesterday")
	assert.Error(t, err)
}
