package handlers

import (
	"net/http"
	"strings"

	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultDeviceID   = "local"
	maxDeviceIDLength = 80
)

// SessionHandler serves everything scoped to the calling device: cart,
// wishlist, coupon, wallet, rewards and checkout.
type SessionHandler struct {
	sessions *services.Sessions
}

func NewSessionHandler(sessions *services.Sessions) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func deviceID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(DeviceHeader)); id != "" {
		return id
	}
	return defaultDeviceID
}

// session resolves the caller's session, writing the error response
// itself when it cannot.
func (h *SessionHandler) session(c *gin.Context) (*services.Session, bool) {
	id := deviceID(c)
	if len(id) > maxDeviceIDLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return nil, false
	}
	session, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) Summary(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Summary())
}

func (h *SessionHandler) Totals(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Totals())
}

func (h *SessionHandler) GetCart(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Cart())
}

type addToCartRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Edition  int    `json:"edition"`
	Quantity int    `json:"quantity"`
}

func (h *SessionHandler) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := session.AddToCart(c.Request.Context(), req.ItemID, req.Edition, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type updateQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *SessionHandler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	cart, err := session.UpdateQuantity(c.Request.Context(), c.Param("line"), req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *SessionHandler) RemoveLine(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	cart, err := session.RemoveLine(c.Request.Context(), c.Param("line"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *SessionHandler) ClearCart(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.ClearCart(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bundleRequest struct {
	ItemIDs []string `json:"item_ids" binding:"required"`
}

func (h *SessionHandler) AddBundle(c *gin.Context) {
	var req bundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	cart, err := session.AddBundle(c.Request.Context(), req.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *SessionHandler) GetWishlist(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Wishlist())
}

func (h *SessionHandler) ToggleWishlist(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	saved, err := session.ToggleWishlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": c.Param("id"), "saved": saved})
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon answers with the coupon box state even when the code is
// rejected, so the message can be shown next to the input.
func (h *SessionHandler) ApplyCoupon(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	state, err := session.ApplyCoupon(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "coupon": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": state, "totals": session.Totals()})
}

func (h *SessionHandler) ClearCoupon(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": session.ClearCoupon(), "totals": session.Totals()})
}

func (h *SessionHandler) GetWallet(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	summary := session.Summary()
	c.JSON(http.StatusOK, gin.H{
		"balance":    summary.WalletBalance,
		"use_wallet": summary.UseWallet,
		"rank":       summary.Rank,
	})
}

type useWalletRequest struct {
	Use *bool `json:"use" binding:"required"`
}

func (h *SessionHandler) SetUseWallet(c *gin.Context) {
	var req useWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.SetUseWallet(*req.Use))
}

func (h *SessionHandler) Redeem(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	code, err := session.Redeem(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    code.Code,
		"value":   code.Value,
		"balance": session.Ledger().Balance(),
	})
}

func (h *SessionHandler) Spin(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	result, err := session.Spin()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h *SessionHandler) SpinResult(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	result, spun := session.SpinResult()
	if !spun {
		c.JSON(http.StatusNotFound, gin.H{"error": "wheel not spun yet"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) ClaimLoot(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	result, err := session.ClaimLoot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) LootStatus(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed_today": session.LootClaimedToday()})
}

func (h *SessionHandler) CheckoutStatus(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Status())
}

func (h *SessionHandler) SubmitContact(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.respondStatus(c, func() (services.CheckoutStatus, error) {
		return session.SubmitContact(c.Request.Context(), contact)
	})
}

type paymentRequest struct {
	Method models.PaymentMethod `json:"method" binding:"required"`
}

func (h *SessionHandler) ChoosePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.respondStatus(c, func() (services.CheckoutStatus, error) {
		return session.ChoosePayment(req.Method)
	})
}

func (h *SessionHandler) Confirm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.respondStatus(c, func() (services.CheckoutStatus, error) {
		return session.Confirm(c.Request.Context())
	})
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.respondStatus(c, session.Cancel)
}

func (h *SessionHandler) Reset(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.respondStatus(c, session.Reset)
}

type buyNowRequest struct {
	ItemID  string `json:"item_id" binding:"required"`
	Edition int    `json:"edition"`
}

func (h *SessionHandler) BuyNow(c *gin.Context) {
	var req buyNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.respondStatus(c, func() (services.CheckoutStatus, error) {
		return session.BuyNow(c.Request.Context(), req.ItemID, req.Edition)
	})
}

func (h *SessionHandler) LastOrder(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	order, found := session.LastOrder()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no order yet"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *SessionHandler) respondStatus(c *gin.Context, transition func() (services.CheckoutStatus, error)) {
	status, err := transition()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
