package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-pipeline/shared/models"
)

func TestRender_Substitutes(t *testing.T) {
	system := "You write for {{ audience }}."
	out, err := Render("Summarize {{story_title}}: {{story_content}}", &system, Bag{
		"story_title":   "Floods",
		"story_content": "Rain fell.",
		"audience":      "parents",
	})
	require.NoError(t, err)
	assert.Equal(t, "Summarize Floods: Rain fell.", out.Prompt)
	require.NotNil(t, out.System)
	assert.Equal(t, "You write for parents.", *out.System)
}

func TestRender_ListsAllMissingNames(t *testing.T) {
	system := "{{tone}} and {{title}}"
	_, err := Render("{{title}} {{body}} {{title}}", &system, Bag{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUndefinedVariable))

	var undefined *UndefinedVariableError
	require.ErrorAs(t, err, &undefined)
	assert.Equal(t, []string{"title", "body", "tone"}, undefined.Missing)
}

func TestRender_Escape(t *testing.T) {
	out, err := String("literal {{{{not_a_var}} and {{x}}", Bag{"x": "1"})
	require.NoError(t, err)
	assert.Equal(t, "literal {{not_a_var}} and 1", out)
}

func TestRender_IgnoresNonPlaceholders(t *testing.T) {
	out, err := String(`{"json": {"a": 1}} { {{ 1bad }} {x}`, Bag{})
	require.NoError(t, err)
	assert.Equal(t, `{"json": {"a": 1}} { {{ 1bad }} {x}`, out)
}

func TestRender_DottedNames(t *testing.T) {
	out, err := String("Based on {{steps.analysis}}", Bag{"steps.analysis": "three themes"})
	require.NoError(t, err)
	assert.Equal(t, "Based on three themes", out)
}

func TestRender_Deterministic(t *testing.T) {
	bag := Bag{"a": "1", "b": "2", "c": "3"}
	first, err := String("{{c}}{{b}}{{a}}{{b}}", bag)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := String("{{c}}{{b}}{{a}}{{b}}", bag)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRender_ValuesAreNotReRendered(t *testing.T) {
	out, err := String("{{a}}", Bag{"a": "{{b}}"})
	require.NoError(t, err)
	assert.Equal(t, "{{b}}", out)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"x", "steps.y"}, Placeholders("{{x}} {{{{z}} {{ steps.y }} {{x}}"))
	assert.Empty(t, Placeholders("plain"))
}

func TestBagMerge(t *testing.T) {
	base := Bag{"a": "1", "b": "2"}
	merged := base.Merge(map[string]string{"b": "3"})
	assert.Equal(t, "3", merged["b"])
	assert.Equal(t, "2", base["b"])
}
