package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGenerateContentRoundTrip(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1beta/models/test-model:generateContent"), r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [
					{"text": "Scene set hai. "},
					{"functionCall": {"name": "update_game_price", "args": {"gameTitle": "GTA", "newPrice": 500}}}
				]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{
		APIKey:     "secret",
		BaseURL:    server.URL + "/",
		APIVersion: "v1beta",
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)

	resp, err := client.GenerateContent(context.Background(), "test-model", []*genai.Content{UserText("hi")}, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: "persona"}}},
		Tools: []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:       "update_game_price",
			Parameters: &genai.Schema{Type: genai.TypeObject, Required: []string{"gameTitle"}},
		}}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Scene set hai. ", Text(resp))
	calls := FunctionCalls(resp)
	require.Len(t, calls, 1)
	assert.Equal(t, "update_game_price", calls[0].Name)
	assert.Equal(t, "GTA", calls[0].Args["gameTitle"])
	assert.Equal(t, RoleModel, Reply(resp).Role)

	assert.Contains(t, got, "systemInstruction")
	assert.Contains(t, got, "tools")
	assert.Contains(t, got, "contents")
}

func TestMissingCredential(t *testing.T) {
	client, err := New(context.Background(), Config{BaseURL: "http://unused"})
	require.NoError(t, err)
	_, err = client.GenerateContent(context.Background(), "m", []*genai.Content{UserText("hi")}, nil)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "quota", err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}, want: true},
		{name: "wrapped quota", err: fmt.Errorf("send: %w", genai.APIError{Code: 429}), want: true},
		{name: "bad request", err: genai.APIError{Code: 400}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestResponseHelpers(t *testing.T) {
	assert.Equal(t, RoleModel, Reply(nil).Role)
	assert.Empty(t, Text(nil))
	assert.Empty(t, FunctionCalls(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking...", Thought: true},
			{Text: "Haan "},
			{Text: "boss."},
		}},
	}}}
	assert.Equal(t, "Haan boss.", Text(resp))
	assert.Equal(t, RoleModel, Reply(resp).Role)
}
