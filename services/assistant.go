package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/config"
	"storefront/llm"
	"storefront/models"
	"storefront/random"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// FailureReply is what the shopper sees whenever the model cannot answer.
const FailureReply = "Server issue hai boss. Thodi der baad try karo."

const (
	maxToolRounds      = 4
	recommendLimit     = 50
	recommendTagLength = 100
	defaultImportQuery = "Top 5 Trending AAA Games 2024-2025"
)

const persona = `
Role: You are 'BrahmaBot', the store manager and right-hand man for Naman Sejpal at Brahmastra Game Store.
Persona:
- You are NOT a robotic AI. You are a human store manager sitting at the counter.
- Language: Speak in natural 'Hinglish' (Casual Hindi + English mix). Like a Desi Indian Gamer.
- Tone: Confident, Chill, Helpful, slightly street-smart ("Bhai", "Boss", "Scene set hai").
- Emojis: Use them VERY sparingly. Only 1 or 2 per message max.
- Attitude: You have full control over the store. You can add games and change prices.

Capabilities:
1. Recommend Games: Suggest games from the catalog.
2. Add Games: If a user asks for a game not in the list, use 'add_game'. You MUST find the correct Steam App ID for that game to pass to the tool. Do not guess 0000.
3. Edit Prices: If a user says "GTA V ka price 500 kar do", use the 'update_game_price' tool.
`

const importCandidateSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"steamAppId": {"type": "integer", "minimum": 1},
			"originalPrice": {"type": "integer", "minimum": 0},
			"description": {"type": "string"},
			"genre": {"type": "string"},
			"releaseDate": {"type": "string"}
		},
		"required": ["title", "steamAppId", "originalPrice", "description", "genre"]
	}
}`

// ChatMessage is one line of the conversation as the shopper sees it.
type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Reply struct {
	ConversationID string       `json:"conversation_id,omitempty"`
	Text           string       `json:"text"`
	Tools          []ToolResult `json:"tools,omitempty"`
	Failed         bool         `json:"failed,omitempty"`
}

type conversation struct {
	mu         sync.Mutex
	id         string
	lastUsed   time.Time // guarded by Assistant.mu
	contents   []*genai.Content
	transcript []ChatMessage
}

// Assistant is the store's chat persona. It keeps one conversation per
// device and lets the model change the catalog through CatalogAgent.
type Assistant struct {
	client     llm.Client
	agent      *CatalogAgent
	catalog    *CatalogService
	limiter    *rate.Limiter
	chatModel  string
	fastModel  string
	src        random.Source
	candidates *jsonschema.Schema
	logger     *slog.Logger

	mu            sync.Mutex
	conversations map[string]*conversation
}

func NewAssistant(client llm.Client, agent *CatalogAgent, catalog *CatalogService, cfg config.AI, src random.Source, logger *slog.Logger) (*Assistant, error) {
	if logger == nil {
		logger = slog.Default()
	}
	candidates, err := compileSchema("https://storefront.local/import/candidates.schema.json", importCandidateSchema)
	if err != nil {
		return nil, fmt.Errorf("import schema: %w", err)
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &Assistant{
		client:        client,
		agent:         agent,
		catalog:       catalog,
		limiter:       rate.NewLimiter(limit, max(1, cfg.Burst)),
		chatModel:     cfg.ChatModel,
		fastModel:     cfg.FastModel,
		src:           src,
		candidates:    candidates,
		logger:        logger,
		conversations: make(map[string]*conversation),
	}, nil
}

func (a *Assistant) conversation(deviceID string) *conversation {
	a.mu.Lock()
	defer a.mu.Unlock()
	conv, ok := a.conversations[deviceID]
	if !ok {
		conv = &conversation{id: uuid.NewString()}
		a.conversations[deviceID] = conv
	}
	conv.lastUsed = time.Now()
	return conv
}

// History returns the device's conversation so far.
func (a *Assistant) History(deviceID string) []ChatMessage {
	conv := a.conversation(deviceID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return append([]ChatMessage{}, conv.transcript...)
}

// Forget drops the device's conversation.
func (a *Assistant) Forget(deviceID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conversations, deviceID)
}

// ForgetIdle drops conversations untouched for maxIdle. A conversation
// with an exchange in flight is kept.
func (a *Assistant) ForgetIdle(maxIdle time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	forgotten := 0
	for id, conv := range a.conversations {
		if conv.lastUsed.After(cutoff) || !conv.mu.TryLock() {
			continue
		}
		conv.mu.Unlock()
		delete(a.conversations, id)
		forgotten++
	}
	return forgotten
}

func (a *Assistant) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := a.client.GenerateContent(ctx, model, contents, cfg)
	if llm.IsRateLimited(err) {
		a.logger.Warn("model rate limited", "model", model)
	}
	return resp, err
}

// Send adds text to the device's conversation and returns the model's
// answer. Function calls in the answer are run through the catalog agent
// and their results sent back until the model replies with text. On any
// failure the reply is FailureReply and the error wraps
// ErrAssistantFailed.
func (a *Assistant) Send(ctx context.Context, deviceID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, nil
	}

	conv := a.conversation(deviceID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.transcript = append(conv.transcript, ChatMessage{Role: llm.RoleUser, Text: text})
	base := len(conv.contents)
	conv.contents = append(conv.contents, llm.UserText(text))

	reply, err := a.converse(ctx, conv)
	reply.ConversationID = conv.id
	if err != nil {
		a.logger.Error("assistant request failed", "device", deviceID, "error", err)
		// drop any half-finished tool exchange; keep the user turn
		conv.contents = append(conv.contents[:base+1], llm.ModelText(FailureReply))
		conv.transcript = append(conv.transcript, ChatMessage{Role: llm.RoleModel, Text: FailureReply})
		reply.Text = FailureReply
		reply.Failed = true
		return reply, fmt.Errorf("%w: %w", ErrAssistantFailed, err)
	}

	conv.transcript = append(conv.transcript, ChatMessage{Role: llm.RoleModel, Text: reply.Text})
	return reply, nil
}

func (a *Assistant) converse(ctx context.Context, conv *conversation) (Reply, error) {
	system, err := a.systemInstruction(ctx)
	if err != nil {
		return Reply{}, err
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Tools:             []*genai.Tool{{FunctionDeclarations: ToolDeclarations()}},
	}

	var reply Reply
	for round := 0; round <= maxToolRounds; round++ {
		response, err := a.generate(ctx, a.chatModel, conv.contents, cfg)
		if err != nil {
			return reply, err
		}
		conv.contents = append(conv.contents, llm.Reply(response))

		calls := llm.FunctionCalls(response)
		if len(calls) == 0 {
			reply.Text = strings.TrimSpace(llm.Text(response))
			if reply.Text == "" {
				return reply, errors.New("empty reply")
			}
			return reply, nil
		}

		results, err := a.agent.InvokeAll(ctx, calls)
		reply.Tools = append(reply.Tools, results...)
		if err != nil {
			return reply, err
		}
		parts := make([]*genai.Part, len(results))
		for i, result := range results {
			parts[i] = &genai.Part{FunctionResponse: result.FunctionResponse()}
		}
		conv.contents = append(conv.contents, &genai.Content{Role: llm.RoleUser, Parts: parts})
	}
	return reply, fmt.Errorf("no reply after %d tool rounds", maxToolRounds)
}

type catalogEntry struct {
	Title    string          `json:"title"`
	Price    json.Number     `json:"price"`
	Platform models.Platform `json:"platform"`
}

// systemInstruction is the persona followed by the live catalog.
func (a *Assistant) systemInstruction(ctx context.Context) (*genai.Content, error) {
	items, err := a.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]catalogEntry, len(items))
	for i, item := range items {
		entries[i] = catalogEntry{Title: item.Title, Price: json.Number(item.Price.String()), Platform: item.Platform}
	}
	catalog, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return &genai.Content{Parts: []*genai.Part{{Text: persona + "\nCurrent Store Catalog:\n" + string(catalog)}}}, nil
}

type recommendEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Genre string `json:"genre"`
	Tags  string `json:"tags"`
}

// Recommend picks one catalog item for prompt. The fast model chooses
// when it can; otherwise a keyword match on genre or title, and failing
// that a random item.
func (a *Assistant) Recommend(ctx context.Context, prompt string) (*models.CatalogItem, error) {
	items, err := a.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrItemNotFound
	}

	prompt = strings.TrimSpace(prompt)
	if prompt != "" {
		id, err := a.suggest(ctx, prompt, items)
		if err != nil {
			a.logger.Warn("recommendation fell back to keywords", "error", err)
		}
		for i := range items {
			if id != "" && items[i].ID == id {
				return &items[i], nil
			}
		}
	}
	if item := keywordMatch(items, prompt); item != nil {
		return item, nil
	}
	return &items[a.src.IntN(len(items))], nil
}

func (a *Assistant) suggest(ctx context.Context, prompt string, items []models.CatalogItem) (string, error) {
	entries := make([]recommendEntry, 0, min(len(items), recommendLimit))
	for _, item := range items[:min(len(items), recommendLimit)] {
		tags := []rune(item.Description)
		entries = append(entries, recommendEntry{
			ID:    item.ID,
			Title: item.Title,
			Genre: item.Genre,
			Tags:  string(tags[:min(len(tags), recommendTagLength)]),
		})
	}
	summary, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}

	text := fmt.Sprintf("You are a game store AI. User wants: %q. Pick the BEST single game ID from this list that matches the vibe: %s. Return ONLY the ID string.", prompt, summary)
	response, err := a.generate(ctx, a.fastModel, []*genai.Content{llm.UserText(text)}, nil)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(llm.Text(response)), "\"'`"), nil
}

func keywordMatch(items []models.CatalogItem, prompt string) *models.CatalogItem {
	keywords := strings.Fields(strings.ToLower(prompt))
	if len(keywords) == 0 {
		return nil
	}
	for i, item := range items {
		genre := strings.ToLower(item.Genre)
		title := strings.ToLower(item.Title)
		for _, k := range keywords {
			if strings.Contains(genre, k) || strings.Contains(title, k) {
				return &items[i]
			}
		}
	}
	return nil
}

type importCandidate struct {
	Title         string `json:"title"`
	SteamAppID    int64  `json:"steamAppId"`
	OriginalPrice int64  `json:"originalPrice"`
	Description   string `json:"description"`
	Genre         string `json:"genre"`
	ReleaseDate   string `json:"releaseDate"`
}

func importCandidatesResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":         {Type: genai.TypeString},
				"steamAppId":    {Type: genai.TypeInteger},
				"originalPrice": {Type: genai.TypeInteger},
				"description":   {Type: genai.TypeString},
				"genre":         {Type: genai.TypeString},
				"releaseDate":   {Type: genai.TypeString},
			},
			Required: []string{"title", "steamAppId", "originalPrice", "description", "genre"},
		},
	}
}

// ImportCandidates asks the fast model for store listings matching query
// (a search term or a store link) and prepends the ones the catalog does
// not have yet, each at a 40-50% discount. It returns the items added.
func (a *Assistant) ImportCandidates(ctx context.Context, query string) ([]models.CatalogItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		query = defaultImportQuery
	}
	prompt := fmt.Sprintf("Identify games based on: %q.\nIf it's a URL, extract that specific game.\nIf it's a search term, find relevant games.\nProvide real Steam App IDs.", query)

	response, err := a.generate(ctx, a.fastModel, []*genai.Content{llm.UserText(prompt)}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   importCandidatesResponseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssistantFailed, err)
	}
	raw := []byte(llm.Text(response))
	if err := validateJSON(a.candidates, raw); err != nil {
		return nil, fmt.Errorf("%w: malformed import reply: %v", ErrAssistantFailed, err)
	}
	var candidates []importCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("%w: malformed import reply: %v", ErrAssistantFailed, err)
	}

	seen := make(map[string]bool, len(candidates))
	added := make([]*models.CatalogItem, 0, len(candidates))
	for _, c := range candidates {
		id := "steam-" + strconv.FormatInt(c.SteamAppID, 10)
		if seen[id] {
			continue
		}
		seen[id] = true
		_, err := a.catalog.Get(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrItemNotFound) {
			return nil, err
		}
		added = append(added, a.importedItem(id, c))
	}
	if len(added) > 0 {
		if err := a.catalog.Prepend(ctx, added...); err != nil {
			return nil, err
		}
	}
	a.logger.Info("catalog import", "query", query, "candidates", len(candidates), "added", len(added))

	items := make([]models.CatalogItem, len(added))
	for i, item := range added {
		items[i] = *item
	}
	return items, nil
}

func (a *Assistant) importedItem(id string, c importCandidate) *models.CatalogItem {
	original := decimal.NewFromInt(c.OriginalPrice)
	if !original.IsPositive() {
		original = decimal.NewFromInt(3999)
	}
	off := int64(40 + a.src.IntN(11))
	price := original.Mul(decimal.NewFromInt(100 - off)).Div(hundred).Floor()

	genre := strings.TrimSpace(c.Genre)
	if genre == "" {
		genre = "Action"
	}
	released := strings.TrimSpace(c.ReleaseDate)
	if released == "" {
		released = "2025-01-01"
	}
	description := strings.TrimSpace(c.Description)
	if description == "" {
		description = "Imported from Steam Store."
	}

	item := &models.CatalogItem{
		ID:            id,
		Title:         strings.TrimSpace(c.Title),
		OriginalPrice: original,
		Rating:        4.8,
		Image:         SteamCoverURL(strconv.FormatInt(c.SteamAppID, 10)),
		Platform:      models.Steam,
		Genre:         genre,
		ReleaseDate:   released,
		Description:   description,
		Players:       "Single-player",
		SystemReq: models.SystemRequirements{
			OS:        "Windows 10/11",
			Processor: "High End",
			Memory:    "16GB",
			Graphics:  "RTX 3060+",
			Storage:   "100GB",
		},
		Reviews: []models.Review{},
		IsNew:   true,
	}
	item.SetPrice(price)
	return item
}
