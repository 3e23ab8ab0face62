package planner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBraceRecovererExtract(t *testing.T) {
	r := BraceRecoverer{}

	t.Run("CleanObject_PassesThrough", func(t *testing.T) {
		got, err := r.Extract(`{"meals": []}`)
		require.NoError(t, err)
		assert.Equal(t, `{"meals": []}`, got)
	})

	t.Run("CleanArray_PassesThrough", func(t *testing.T) {
		got, err := r.Extract(`[{"day": "MONDAY"}]`)
		require.NoError(t, err)
		assert.Equal(t, `[{"day": "MONDAY"}]`, got)
	})

	t.Run("MarkdownFences_AreStripped", func(t *testing.T) {
		raw := "```json\n{\"meals\": []}\n```"
		got, err := r.Extract(raw)
		require.NoError(t, err)
		assert.Equal(t, `{"meals": []}`, got)
	})

	t.Run("SurroundingProse_IsDropped", func(t *testing.T) {
		raw := "Sure, here is your plan:\n{\"meals\": []}\nLet me know if you need changes."
		got, err := r.Extract(raw)
		require.NoError(t, err)
		assert.Equal(t, `{"meals": []}`, got)
	})

	t.Run("EarliestBracketDeterminesRoot", func(t *testing.T) {
		raw := `[1, 2, {"a": 3}]`
		got, err := r.Extract(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("TruncatedObject_IsRepaired", func(t *testing.T) {
		raw := `{"description": "a week", "meals": [{"day": "MONDAY"`
		got, err := r.Extract(raw)
		require.NoError(t, err)
		assert.True(t, json.Valid([]byte(got)))
		var doc struct {
			Description string                   `json:"description"`
			Meals       []map[string]interface{} `json:"meals"`
		}
		require.NoError(t, json.Unmarshal([]byte(got), &doc))
		assert.Equal(t, "a week", doc.Description)
		require.Len(t, doc.Meals, 1)
		assert.Equal(t, "MONDAY", doc.Meals[0]["day"])
	})

	t.Run("TruncatedArray_IsRepaired", func(t *testing.T) {
		raw := `[{"day": "MONDAY", "name": "Oats"}, {"day": "TUES`
		got, err := r.Extract(raw)
		require.NoError(t, err)
		assert.True(t, json.Valid([]byte(got)))
		var meals []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(got), &meals))
		require.NotEmpty(t, meals)
		assert.Equal(t, "Oats", meals[0]["name"])
	})

	t.Run("TrailingComma_IsTrimmed", func(t *testing.T) {
		raw := `{"meals": [{"day": "MONDAY"},`
		got, err := r.Extract(raw)
		require.NoError(t, err)
		assert.True(t, json.Valid([]byte(got)))
	})

	t.Run("UnterminatedString_IsClosed", func(t *testing.T) {
		raw := `{"description": "cut off mid sen`
		got, err := r.Extract(raw)
		require.NoError(t, err)
		assert.True(t, json.Valid([]byte(got)))
	})

	t.Run("NoBrackets_ReturnsMalformed", func(t *testing.T) {
		_, err := r.Extract("I cannot produce a meal plan right now.")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("EmptyInput_ReturnsMalformed", func(t *testing.T) {
		_, err := r.Extract("")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("CutMidKey_ReturnsMalformed", func(t *testing.T) {
		_, err := r.Extract(`{"description": "ok", "mea`)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripFences(`{"a": 1}`))
	assert.Equal(t, "line one\nline two", stripFences("```\nline one\nline two\n```"))
}
