package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CouponHandler struct {
	couponService *services.CouponService
}

func NewCouponHandler(couponService *services.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var coupon models.Coupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.couponService.CreateCoupon(c.Request.Context(), &coupon); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var coupon models.Coupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.couponService.UpdateCoupon(c.Request.Context(), id, &coupon); err != nil {
		h.respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, coupon)
}

func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.couponService.DeleteCoupon(c.Request.Context(), id); err != nil {
		h.respondAdminError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.ListCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupons)
}

// GetAvailableCoupons lists the coupons a cart of cart_total qualifies for.
func (h *CouponHandler) GetAvailableCoupons(c *gin.Context) {
	cartTotal := decimal.Zero
	if raw := c.Query("cart_total"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart_total"})
			return
		}
		cartTotal = v
	}

	coupons, err := h.couponService.GetAvailableCoupons(c.Request.Context(), cartTotal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, coupons)
}

// A missing coupon is a 404 on the admin routes, not a rejected code.
func (h *CouponHandler) respondAdminError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrCouponNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
		return
	}
	respondError(c, err)
}
