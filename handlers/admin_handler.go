package handlers

import (
	"net/http"

	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminHandler covers the store content behind the admin PIN: upcoming
// releases, store settings and wallet recharge codes.
type AdminHandler struct {
	upcoming *services.UpcomingService
	settings *services.SettingsService
	recharge *services.RechargeService
}

func NewAdminHandler(upcoming *services.UpcomingService, settings *services.SettingsService, recharge *services.RechargeService) *AdminHandler {
	return &AdminHandler{upcoming: upcoming, settings: settings, recharge: recharge}
}

func (h *AdminHandler) ListUpcoming(c *gin.Context) {
	releases, err := h.upcoming.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, releases)
}

func (h *AdminHandler) CreateUpcoming(c *gin.Context) {
	var release models.UpcomingRelease
	if err := c.ShouldBindJSON(&release); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.upcoming.Create(c.Request.Context(), &release); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, release)
}

func (h *AdminHandler) UpdateUpcoming(c *gin.Context) {
	var release models.UpcomingRelease
	if err := c.ShouldBindJSON(&release); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.upcoming.Update(c.Request.Context(), c.Param("id"), &release); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, release)
}

func (h *AdminHandler) DeleteUpcoming(c *gin.Context) {
	if err := h.upcoming.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var settings models.StoreSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.settings.Update(c.Request.Context(), &settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) ListRechargeCodes(c *gin.Context) {
	codes, err := h.recharge.ListRechargeCodes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, codes)
}

type rechargeCodeRequest struct {
	Code  string          `json:"code"`
	Value decimal.Decimal `json:"value"`
}

// CreateRechargeCode issues a code; an empty code is generated.
func (h *AdminHandler) CreateRechargeCode(c *gin.Context) {
	var req rechargeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	code, err := h.recharge.CreateRechargeCode(c.Request.Context(), req.Code, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}
