package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/config"
	"storefront/llm"
	"storefront/models"
	"storefront/random"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type recordedRequest struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// scriptedClient replies with the queued responses in order and records
// every request.
type scriptedClient struct {
	mu        sync.Mutex
	responses []*genai.GenerateContentResponse
	errs      []error
	requests  []recordedRequest
}

func (c *scriptedClient) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, recordedRequest{
		Model:    model,
		Contents: append([]*genai.Content(nil), contents...),
		Config:   cfg,
	})
	i := len(c.requests) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i >= len(c.responses) {
		return nil, errors.New("no scripted response")
	}
	return c.responses[i], nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: llm.ModelText(text),
	}}}
}

func callResponse(calls ...*genai.FunctionCall) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, len(calls))
	for i, call := range calls {
		parts[i] = &genai.Part{FunctionCall: call}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: llm.RoleModel, Parts: parts},
	}}}
}

func newTestAssistant(t *testing.T, client llm.Client, draws ...int) (*Assistant, *CatalogService) {
	t.Helper()
	agent, catalog := newTestAgent(t)
	cfg := config.Default().AI
	cfg.RatePerSec = 0
	assistant, err := NewAssistant(client, agent, catalog, cfg, random.NewSequence(draws...), testLogger())
	require.NoError(t, err)
	return assistant, catalog
}

func TestAssistantSend(t *testing.T) {
	client := &scriptedClient{responses: []*genai.GenerateContentResponse{textResponse("Haan bhai, GTA V ₹999 mein mil jayega.")}}
	assistant, _ := newTestAssistant(t, client)
	ctx := context.Background()

	reply, err := assistant.Send(ctx, "dev-1", "  GTA V kitne ka hai?  ")
	require.NoError(t, err)
	assert.Equal(t, "Haan bhai, GTA V ₹999 mein mil jayega.", reply.Text)
	assert.False(t, reply.Failed)
	assert.NotEmpty(t, reply.ConversationID)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "gemini-3-pro-preview", req.Model)
	require.NotNil(t, req.Config)
	require.NotNil(t, req.Config.SystemInstruction)
	system := req.Config.SystemInstruction.Parts[0].Text
	assert.Contains(t, system, "BrahmaBot")
	assert.Contains(t, system, "\nCurrent Store Catalog:\n")
	assert.Contains(t, system, `{"title":"Grand Theft Auto V","price":999,"platform":"Steam"}`)
	require.Len(t, req.Config.Tools, 1)
	assert.Len(t, req.Config.Tools[0].FunctionDeclarations, 2)
	require.Len(t, req.Contents, 1)
	assert.Equal(t, "GTA V kitne ka hai?", req.Contents[0].Parts[0].Text)

	assert.Equal(t, []ChatMessage{
		{Role: "user", Text: "GTA V kitne ka hai?"},
		{Role: "model", Text: "Haan bhai, GTA V ₹999 mein mil jayega."},
	}, assistant.History("dev-1"))
	assert.Empty(t, assistant.History("dev-2"))

	t.Run("empty text is ignored", func(t *testing.T) {
		reply, err := assistant.Send(ctx, "dev-1", "   ")
		require.NoError(t, err)
		assert.Empty(t, reply.Text)
		assert.Len(t, client.requests, 1)
	})
}

func TestAssistantToolRound(t *testing.T) {
	client := &scriptedClient{responses: []*genai.GenerateContentResponse{
		callResponse(&genai.FunctionCall{Name: ToolUpdatePrice, Args: map[string]any{"gameTitle": "GTA V", "newPrice": 500}}),
		textResponse("Scene set hai boss, GTA V ab ₹500."),
	}}
	assistant, catalog := newTestAssistant(t, client)
	ctx := context.Background()

	// no stored title contains "gta v"
	reply, err := assistant.Send(ctx, "dev-1", "GTA V ka price 500 kar do")
	require.NoError(t, err)
	assert.Equal(t, "Scene set hai boss, GTA V ab ₹500.", reply.Text)
	require.Len(t, reply.Tools, 1)
	assert.False(t, reply.Tools[0].OK)

	require.Len(t, client.requests, 2)
	followUp := client.requests[1].Contents
	require.Len(t, followUp, 3)
	assert.Equal(t, llm.RoleModel, followUp[1].Role)
	require.NotNil(t, followUp[2].Parts[0].FunctionResponse)
	assert.Equal(t, ToolUpdatePrice, followUp[2].Parts[0].FunctionResponse.Name)

	assert.True(t, mustItem(t, catalog, "gta-v").Price.Equal(d(999)))

	t.Run("matching title is updated", func(t *testing.T) {
		client.responses = append(client.responses,
			callResponse(&genai.FunctionCall{Name: ToolUpdatePrice, Args: map[string]any{"gameTitle": "grand theft auto", "newPrice": 500}}),
			textResponse("Done bhai."),
		)
		reply, err := assistant.Send(ctx, "dev-1", "Grand Theft Auto ka price 500")
		require.NoError(t, err)
		assert.Equal(t, "Done bhai.", reply.Text)
		require.Len(t, reply.Tools, 1)
		assert.True(t, reply.Tools[0].OK)
		assert.True(t, mustItem(t, catalog, "gta-v").Price.Equal(d(500)))
	})
}

func TestAssistantFailure(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		client, err := llm.New(context.Background(), llm.Config{BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)
		assistant, _ := newTestAssistant(t, client)
		reply, err := assistant.Send(context.Background(), "dev-1", "hello")
		assert.ErrorIs(t, err, ErrAssistantFailed)
		assert.ErrorIs(t, err, llm.ErrMissingCredential)
		assert.True(t, reply.Failed)
		assert.Equal(t, FailureReply, reply.Text)
		assert.Equal(t, []ChatMessage{
			{Role: "user", Text: "hello"},
			{Role: "model", Text: FailureReply},
		}, assistant.History("dev-1"))
	})

	t.Run("follow-up fails after a tool ran", func(t *testing.T) {
		client := &scriptedClient{
			responses: []*genai.GenerateContentResponse{
				callResponse(&genai.FunctionCall{Name: ToolUpdatePrice, Args: map[string]any{"gameTitle": "elden", "newPrice": 1999}}),
			},
			errs: []error{nil, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}},
		}
		assistant, catalog := newTestAssistant(t, client)
		reply, err := assistant.Send(context.Background(), "dev-1", "elden ring 1999")
		assert.ErrorIs(t, err, ErrAssistantFailed)
		assert.True(t, llm.IsRateLimited(err))
		assert.Equal(t, FailureReply, reply.Text)
		require.Len(t, reply.Tools, 1)
		assert.True(t, mustItem(t, catalog, "elden-ring").Price.Equal(d(1999)))

		// the half-finished exchange is not replayed on the next turn
		client.responses = append(client.responses, nil, textResponse("Haan boss."))
		_, err = assistant.Send(context.Background(), "dev-1", "thanks")
		require.NoError(t, err)
		last := client.requests[len(client.requests)-1].Contents
		require.Len(t, last, 3)
		assert.Equal(t, FailureReply, last[1].Parts[0].Text)
		assert.Equal(t, "thanks", last[2].Parts[0].Text)
	})

	t.Run("endless tool calls", func(t *testing.T) {
		call := callResponse(&genai.FunctionCall{Name: "nope", Args: map[string]any{}})
		client := &scriptedClient{}
		for i := 0; i <= maxToolRounds; i++ {
			client.responses = append(client.responses, call)
		}
		assistant, _ := newTestAssistant(t, client)
		reply, err := assistant.Send(context.Background(), "dev-1", "loop")
		assert.ErrorIs(t, err, ErrAssistantFailed)
		assert.True(t, reply.Failed)
		assert.Len(t, client.requests, maxToolRounds+1)
	})
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("model pick", func(t *testing.T) {
		client := &scriptedClient{responses: []*genai.GenerateContentResponse{textResponse(" `forza-horizon-5`\n")}}
		assistant, _ := newTestAssistant(t, client)
		item, err := assistant.Recommend(ctx, "something fast with cars")
		require.NoError(t, err)
		assert.Equal(t, "forza-horizon-5", item.ID)
		require.Len(t, client.requests, 1)
		assert.Equal(t, "gemini-3-flash-preview", client.requests[0].Model)
		assert.Contains(t, client.requests[0].Contents[0].Parts[0].Text, "Return ONLY the ID string.")
	})

	t.Run("unknown id falls back to keywords", func(t *testing.T) {
		client := &scriptedClient{responses: []*genai.GenerateContentResponse{textResponse("halo-infinite")}}
		assistant, _ := newTestAssistant(t, client)
		item, err := assistant.Recommend(ctx, "shooter")
		require.NoError(t, err)
		assert.Equal(t, "mw3", item.ID)
	})

	t.Run("model failure falls back to keywords", func(t *testing.T) {
		client := &scriptedClient{errs: []error{errors.New("boom")}}
		assistant, _ := newTestAssistant(t, client)
		item, err := assistant.Recommend(ctx, "racing")
		require.NoError(t, err)
		assert.Equal(t, "forza-horizon-5", item.ID)
	})

	t.Run("nothing matches picks at random", func(t *testing.T) {
		client := &scriptedClient{errs: []error{errors.New("boom")}}
		assistant, _ := newTestAssistant(t, client, 2)
		item, err := assistant.Recommend(ctx, "zzz")
		require.NoError(t, err)
		assert.Equal(t, "elden-ring", item.ID)
	})
}

func TestImportCandidates(t *testing.T) {
	ctx := context.Background()
	body := `[
		{"title":"Hades II","steamAppId":1145350,"originalPrice":1000,"description":"","genre":"Action"},
		{"title":"Hades II","steamAppId":1145350,"originalPrice":1000,"description":"dup","genre":"Action"},
		{"title":"Stardew","steamAppId":413150,"originalPrice":299,"description":"farm","genre":"Simulation","releaseDate":"2016-02-26"},
		{"title":"Balatro","steamAppId":2379780,"originalPrice":0,"description":"cards","genre":""}
	]`

	t.Run("adds new listings at a discount", func(t *testing.T) {
		client := &scriptedClient{responses: []*genai.GenerateContentResponse{textResponse(body)}}
		// discounts of 40 + 5 and 40 + 10
		assistant, catalog := newTestAssistant(t, client, 5, 10)
		require.NoError(t, catalog.Prepend(ctx, &models.CatalogItem{
			ID: "steam-413150", Title: "Stardew Valley", Price: d(299), OriginalPrice: d(299),
			Platform: models.Steam, Genre: "Simulation",
		}))

		added, err := assistant.ImportCandidates(ctx, "")
		require.NoError(t, err)
		require.Len(t, added, 2)

		hades := added[0]
		assert.Equal(t, "steam-1145350", hades.ID)
		assert.True(t, hades.OriginalPrice.Equal(d(1000)))
		assert.True(t, hades.Price.Equal(d(550)))
		assert.Equal(t, 45, hades.Discount)
		assert.Equal(t, "Imported from Steam Store.", hades.Description)
		assert.Equal(t, "2025-01-01", hades.ReleaseDate)
		assert.Equal(t, 4.8, hades.Rating)

		balatro := added[1]
		assert.True(t, balatro.OriginalPrice.Equal(d(3999)))
		// floor(3999 * 0.5)
		assert.True(t, balatro.Price.Equal(d(1999)))
		assert.Equal(t, "Action", balatro.Genre)

		page, err := catalog.List(ctx, CatalogQuery{})
		require.NoError(t, err)
		assert.Equal(t, "steam-1145350", page.Items[0].ID)
		assert.Equal(t, "steam-2379780", page.Items[1].ID)

		req := client.requests[0]
		require.NotNil(t, req.Config)
		assert.Equal(t, "application/json", req.Config.ResponseMIMEType)
		assert.Equal(t, genai.TypeArray, req.Config.ResponseSchema.Type)
		assert.Contains(t, req.Contents[0].Parts[0].Text, defaultImportQuery)
	})

	t.Run("malformed reply", func(t *testing.T) {
		client := &scriptedClient{responses: []*genai.GenerateContentResponse{textResponse(`[{"title":"X","steamAppId":"abc"}]`)}}
		assistant, catalog := newTestAssistant(t, client)
		before, err := catalog.All(ctx)
		require.NoError(t, err)

		_, err = assistant.ImportCandidates(ctx, "x")
		assert.ErrorIs(t, err, ErrAssistantFailed)
		after, err := catalog.All(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("model error", func(t *testing.T) {
		client := &scriptedClient{errs: []error{errors.New("down")}}
		assistant, _ := newTestAssistant(t, client)
		_, err := assistant.ImportCandidates(ctx, "x")
		assert.ErrorIs(t, err, ErrAssistantFailed)
		assert.True(t, strings.Contains(err.Error(), "down"))
	})
}

func TestForgetIdle(t *testing.T) {
	client := &scriptedClient{responses: []*genai.GenerateContentResponse{textResponse("one"), textResponse("two")}}
	assistant, _ := newTestAssistant(t, client)
	ctx := context.Background()

	_, err := assistant.Send(ctx, "dev-1", "hi")
	require.NoError(t, err)
	_, err = assistant.Send(ctx, "dev-2", "hello")
	require.NoError(t, err)

	assert.Equal(t, 0, assistant.ForgetIdle(time.Hour))
	assert.Len(t, assistant.History("dev-1"), 2)

	assert.Equal(t, 2, assistant.ForgetIdle(0))
	assert.Empty(t, assistant.History("dev-1"))
	assert.Empty(t, assistant.History("dev-2"))
}
