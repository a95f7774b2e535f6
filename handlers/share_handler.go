package handlers

import (
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

// ShareHandler builds the messaging deep links for enquiries and sell
// requests. Nothing is sent; the client opens the link.
type ShareHandler struct {
	catalogService *services.CatalogService
	delivery       services.Delivery
}

func NewShareHandler(catalogService *services.CatalogService, delivery services.Delivery) *ShareHandler {
	return &ShareHandler{catalogService: catalogService, delivery: delivery}
}

func (h *ShareHandler) Enquiry(c *gin.Context) {
	item, err := h.catalogService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	message := services.EnquiryMessage(*item)
	c.JSON(http.StatusOK, gin.H{"message": message, "link": h.delivery.MessageLink(message)})
}

func (h *ShareHandler) Listing(c *gin.Context) {
	var req services.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	message, err := req.Message()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "link": h.delivery.MessageLink(message)})
}

func (h *ShareHandler) InstantSell(c *gin.Context) {
	var req services.InstantSellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	message, err := req.Message()
	if err != nil {
		respondError(c, err)
		return
	}
	low, high := req.OfferRange()
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"link":       h.delivery.MessageLink(message),
		"offer_low":  low,
		"offer_high": high,
	})
}
