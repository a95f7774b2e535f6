// Package llm puts the Gemini SDK behind a one-method interface so the
// assistant can be driven by a scripted client in tests.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Roles as they appear in genai.Content.Role.
const (
	RoleUser  = string(genai.RoleUser)
	RoleModel = string(genai.RoleModel)
)

var (
	// ErrMissingCredential is returned before any network call when no
	// API key is configured.
	ErrMissingCredential = errors.New("llm: API key missing")
	ErrNoCandidates      = errors.New("llm: response has no candidates")
)

// Client is the part of genai.Models the assistant uses.
type Client interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey     string
	BaseURL    string // empty uses the SDK default
	APIVersion string
	HTTPClient *http.Client
}

// New returns a Client backed by the Gemini API. Without an API key the
// client fails every call with ErrMissingCredential.
func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return missingCredential{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: creating client: %w", err)
	}
	return &sdkClient{client: client}, nil
}

type sdkClient struct {
	client *genai.Client
}

func (c *sdkClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoCandidates
	}
	return resp, nil
}

type missingCredential struct{}

func (missingCredential) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, ErrMissingCredential
}

// StatusCode extracts the HTTP status of an API error.
func StatusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func IsRateLimited(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusTooManyRequests
}

func UserText(text string) *genai.Content {
	return &genai.Content{Role: RoleUser, Parts: []*genai.Part{{Text: text}}}
}

func ModelText(text string) *genai.Content {
	return &genai.Content{Role: RoleModel, Parts: []*genai.Part{{Text: text}}}
}

// Reply is the first candidate's content, or an empty model turn.
func Reply(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &genai.Content{Role: RoleModel}
	}
	content := resp.Candidates[0].Content
	if content.Role == "" {
		content.Role = RoleModel
	}
	return content
}

// Text concatenates the non-thought text parts of the first candidate.
func Text(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, part := range Reply(resp).Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// FunctionCalls lists the first candidate's function calls in order.
func FunctionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range Reply(resp).Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}
