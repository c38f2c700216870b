package services

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiHistoryRoles(t *testing.T) {
	h := geminiHistory([]Message{
		{Role: RoleAssistant, Content: "Hi"},
		{Role: RoleUser, Content: "hello"},
	})
	require.Len(t, h, 2)
	assert.Equal(t, "model", h[0].Role)
	assert.Equal(t, "user", h[1].Role)
	assert.Equal(t, genai.Text("hello"), h[1].Parts[0])
}

func TestGeminiText(t *testing.T) {
	assert.Equal(t, "", geminiText(nil))
	assert.Equal(t, "", geminiText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(" one "), genai.Text("two ")}},
	}}}
	assert.Equal(t, "one two", geminiText(resp))
}
