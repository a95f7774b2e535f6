package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storefront/models"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// Tools the assistant may call against the catalog.
const (
	ToolAddItem     = "add_game"
	ToolUpdatePrice = "update_game_price"
)

const (
	agentReviewer    = "BrahmaBot"
	agentDescription = "Newly added to the store by BrahmaBot."
)

var toolSchemas = map[string]string{
	ToolAddItem: `{
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"steamAppId": {"type": "string", "pattern": "^[0-9]+$"},
			"price": {"type": "number", "minimum": 0},
			"genre": {"type": "string", "minLength": 1},
			"platform": {"type": "string", "minLength": 1},
			"description": {"type": "string"}
		},
		"required": ["title", "steamAppId", "price", "genre", "platform"]
	}`,
	ToolUpdatePrice: `{
		"type": "object",
		"properties": {
			"gameTitle": {"type": "string", "minLength": 1},
			"newPrice": {"type": "number", "minimum": 0}
		},
		"required": ["gameTitle", "newPrice"]
	}`,
}

// ToolCall is a validated tool invocation: AddItemCall or UpdatePriceCall.
type ToolCall interface {
	ToolName() string
}

type AddItemCall struct {
	Title       string          `json:"title"`
	SteamAppID  string          `json:"steamAppId"`
	Price       decimal.Decimal `json:"price"`
	Genre       string          `json:"genre"`
	Platform    models.Platform `json:"platform"`
	Description string          `json:"description"`
}

func (AddItemCall) ToolName() string { return ToolAddItem }

type UpdatePriceCall struct {
	GameTitle string          `json:"gameTitle"`
	NewPrice  decimal.Decimal `json:"newPrice"`
}

func (UpdatePriceCall) ToolName() string { return ToolUpdatePrice }

// ToolResult goes back to the conversation as the function response.
type ToolResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (r ToolResult) FunctionResponse() *genai.FunctionResponse {
	return &genai.FunctionResponse{Name: r.Name, Response: map[string]any{"result": r.Message}}
}

// CatalogAgent turns model function calls into catalog mutations. Calls
// are checked against a JSON Schema per tool before anything is touched.
type CatalogAgent struct {
	catalog *CatalogService
	schemas map[string]*jsonschema.Schema
	now     func() time.Time
	logger  *slog.Logger
}

func NewCatalogAgent(catalog *CatalogService, logger *slog.Logger) (*CatalogAgent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &CatalogAgent{
		catalog: catalog,
		schemas: make(map[string]*jsonschema.Schema, len(toolSchemas)),
		now:     time.Now,
		logger:  logger,
	}
	for name, schema := range toolSchemas {
		compiled, err := compileSchema("https://storefront.local/tools/"+name+".schema.json", schema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		a.schemas[name] = compiled
	}
	return a, nil
}

func compileSchema(url, schema string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("schema load failed: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema compile failed: %w", err)
	}
	return compiled, nil
}

// validateJSON decodes raw with numbers kept exact and checks it against
// schema.
func validateJSON(schema *jsonschema.Schema, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// Parse validates args for the named tool and decodes them.
func (a *CatalogAgent) Parse(name string, args json.RawMessage) (ToolCall, error) {
	schema, ok := a.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if err := validateJSON(schema, args); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidToolArgs, name, err)
	}

	switch name {
	case ToolAddItem:
		var call AddItemCall
		if err := json.Unmarshal(args, &call); err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidToolArgs, name, err)
		}
		platform, ok := models.ParsePlatform(string(call.Platform))
		if !ok {
			return nil, fmt.Errorf("%w for %s: unknown platform %q", ErrInvalidToolArgs, name, call.Platform)
		}
		call.Platform = platform
		return call, nil
	default:
		var call UpdatePriceCall
		if err := json.Unmarshal(args, &call); err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidToolArgs, name, err)
		}
		return call, nil
	}
}

func (a *CatalogAgent) parseCall(fc *genai.FunctionCall) (ToolCall, error) {
	args := json.RawMessage("{}")
	if fc.Args != nil {
		raw, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidToolArgs, fc.Name, err)
		}
		args = raw
	}
	return a.Parse(fc.Name, args)
}

// Execute applies a parsed call to the catalog.
func (a *CatalogAgent) Execute(ctx context.Context, call ToolCall) (ToolResult, error) {
	switch c := call.(type) {
	case AddItemCall:
		return a.addItem(ctx, c)
	case UpdatePriceCall:
		return a.updatePrice(ctx, c)
	default:
		return ToolResult{}, fmt.Errorf("%w: %T", ErrUnknownTool, call)
	}
}

func (a *CatalogAgent) addItem(ctx context.Context, c AddItemCall) (ToolResult, error) {
	description := strings.TrimSpace(c.Description)
	if description == "" {
		description = agentDescription
	}
	item := &models.CatalogItem{
		ID:            "ai-" + uuid.NewString(),
		Title:         strings.TrimSpace(c.Title),
		OriginalPrice: c.Price.Mul(decimal.NewFromFloat(1.5)),
		Rating:        5.0,
		Image:         SteamCoverURL(c.SteamAppID),
		Platform:      c.Platform,
		Genre:         strings.TrimSpace(c.Genre),
		ReleaseDate:   a.now().Format(time.DateOnly),
		Description:   description,
		Players:       "Single-player",
		SystemReq: models.SystemRequirements{
			OS:        "Windows 10",
			Processor: "i5",
			Memory:    "16GB",
			Graphics:  "GTX 1060",
			Storage:   "50GB",
		},
		Reviews: []models.Review{{User: agentReviewer, Rating: 5, Comment: "Admin approved addition."}},
		IsNew:   true,
	}
	item.SetPrice(c.Price)

	if err := a.catalog.Prepend(ctx, item); err != nil {
		return ToolResult{}, err
	}
	a.logger.Info("tool invoked", "tool", ToolAddItem, "id", item.ID, "title", item.Title)
	return ToolResult{
		Name:    ToolAddItem,
		OK:      true,
		Message: fmt.Sprintf("Successfully added %s to the store with official cover art.", item.Title),
	}, nil
}

func (a *CatalogAgent) updatePrice(ctx context.Context, c UpdatePriceCall) (ToolResult, error) {
	matched, err := a.catalog.UpdatePriceByTitle(ctx, c.GameTitle, c.NewPrice)
	if errors.Is(err, ErrNoCatalogMatch) {
		return ToolResult{
			Name:    ToolUpdatePrice,
			Message: fmt.Sprintf("No game matching %q found in the store.", c.GameTitle),
		}, nil
	}
	if err != nil {
		return ToolResult{}, err
	}
	a.logger.Info("tool invoked", "tool", ToolUpdatePrice, "title", c.GameTitle, "matched", len(matched))
	return ToolResult{
		Name:    ToolUpdatePrice,
		OK:      true,
		Message: fmt.Sprintf("Price updated for %s to %s.", c.GameTitle, rupees(c.NewPrice)),
	}, nil
}

// InvokeAll runs a model turn's function calls in order. Every call is
// parsed before any is executed, so a rejected call never leaves the
// catalog half-changed; rejections come back as failed results for the
// model to read. Only storage errors are returned.
func (a *CatalogAgent) InvokeAll(ctx context.Context, calls []*genai.FunctionCall) ([]ToolResult, error) {
	results := make([]ToolResult, len(calls))
	parsed := make([]ToolCall, len(calls))
	for i, fc := range calls {
		call, err := a.parseCall(fc)
		if err != nil {
			a.logger.Warn("tool call rejected", "tool", fc.Name, "error", err)
			results[i] = ToolResult{Name: fc.Name, Message: "Failed: " + err.Error()}
			continue
		}
		parsed[i] = call
	}
	for i, call := range parsed {
		if call == nil {
			continue
		}
		result, err := a.Execute(ctx, call)
		if err != nil {
			return results[:i], err
		}
		results[i] = result
	}
	return results, nil
}

// ToolDeclarations describes the tools to the model.
func ToolDeclarations() []*genai.FunctionDeclaration {
	platforms := make([]string, len(models.Platforms))
	for i, p := range models.Platforms {
		platforms[i] = string(p)
	}
	return []*genai.FunctionDeclaration{
		{
			Name:        ToolAddItem,
			Description: "Add a new game to the store catalog. You MUST find the real Steam App ID to get the official cover art.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":       {Type: genai.TypeString, Description: "Title of the game"},
					"steamAppId":  {Type: genai.TypeString, Description: "The REAL Steam App ID (e.g. 1245620). CRITICAL for image."},
					"price":       {Type: genai.TypeNumber, Description: "Price in INR (Rupees)."},
					"genre":       {Type: genai.TypeString, Description: "Genre (e.g., Action, RPG)"},
					"platform":    {Type: genai.TypeString, Description: "Platform the key activates on", Enum: platforms},
					"description": {Type: genai.TypeString, Description: "Short description of the game"},
				},
				Required: []string{"title", "steamAppId", "price", "genre", "platform"},
			},
		},
		{
			Name:        ToolUpdatePrice,
			Description: "Update the price of an existing game.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"gameTitle": {Type: genai.TypeString, Description: "The exact title of the game to update"},
					"newPrice":  {Type: genai.TypeNumber, Description: "The new price in INR"},
				},
				Required: []string{"gameTitle", "newPrice"},
			},
		},
	}
}
