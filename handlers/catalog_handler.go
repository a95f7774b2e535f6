package handlers

import (
	"io"
	"net/http"
	"strconv"

	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
)

const similarLimit = 3

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListItems serves one page of the catalog. Query parameters: q, quick,
// platform, genre, sort, page, page_size.
func (h *CatalogHandler) ListItems(c *gin.Context) {
	query := services.CatalogQuery{
		Search:   c.Query("q"),
		Quick:    c.Query("quick"),
		Platform: c.Query("platform"),
		Genre:    c.Query("genre"),
		Sort:     c.Query("sort"),
	}
	var err error
	if query.Page, err = intQuery(c, "page"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	if query.PageSize, err = intQuery(c, "page_size"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
		return
	}

	page, err := h.catalogService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CatalogHandler) GetItem(c *gin.Context) {
	item, err := h.catalogService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) ListGenres(c *gin.Context) {
	genres, err := h.catalogService.Genres(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, genres)
}

func (h *CatalogHandler) SimilarItems(c *gin.Context) {
	items, err := h.catalogService.Similar(c.Request.Context(), c.Param("id"), similarLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var item models.CatalogItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.catalogService.Create(c.Request.Context(), &item); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// PatchItem takes a JSON merge patch as the request body.
func (h *CatalogHandler) PatchItem(c *gin.Context) {
	patch, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.catalogService.Patch(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	if err := h.catalogService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
