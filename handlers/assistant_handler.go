package handlers

import (
	"errors"
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	assistant *services.Assistant
}

func NewAssistantHandler(assistant *services.Assistant) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat sends one message. A failed exchange still carries the fallback
// reply so the client can show it.
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := h.assistant.Send(c.Request.Context(), deviceID(c), req.Message)
	if err != nil {
		if errors.Is(err, services.ErrAssistantFailed) {
			c.JSON(http.StatusServiceUnavailable, reply)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *AssistantHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.History(deviceID(c)))
}

func (h *AssistantHandler) Forget(c *gin.Context) {
	h.assistant.Forget(deviceID(c))
	c.Status(http.StatusNoContent)
}

type recommendRequest struct {
	Prompt string `json:"prompt"`
}

func (h *AssistantHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.assistant.Recommend(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type importRequest struct {
	Query string `json:"query"`
}

// Import adds store listings found for query to the front of the catalog.
func (h *AssistantHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	items, err := h.assistant.ImportCandidates(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": items, "count": len(items)})
}
