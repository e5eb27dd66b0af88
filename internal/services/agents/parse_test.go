package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fences", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"uppercase fence", "```JSON\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownFences(tt.input))
		})
	}
}

func TestDecodeJSONResponse(t *testing.T) {
	type shape struct {
		Title string `json:"title"`
	}

	t.Run("direct", func(t *testing.T) {
		var out shape
		require.NoError(t, decodeJSONResponse(`{"title": "Hello"}`, &out))
		assert.Equal(t, "Hello", out.Title)
	})

	t.Run("fenced", func(t *testing.T) {
		var out shape
		require.NoError(t, decodeJSONResponse("```json\n{\"title\": \"Hello\"}\n```", &out))
		assert.Equal(t, "Hello", out.Title)
	})

	t.Run("wrapped in prose", func(t *testing.T) {
		var out shape
		require.NoError(t, decodeJSONResponse(`Here is the result: {"title": "Hello"} hope that helps`, &out))
		assert.Equal(t, "Hello", out.Title)
	})

	t.Run("no json", func(t *testing.T) {
		var out shape
		assert.Error(t, decodeJSONResponse("sorry, I cannot do that", &out))
	})
}
