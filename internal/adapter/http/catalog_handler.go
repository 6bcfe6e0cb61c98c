package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/storefront-checkout/internal/catalog"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

// CatalogHandler serves the public, read-only endpoints.
type CatalogHandler struct {
	products *catalog.Catalog
	promos   *usecase.PromoService
}

func NewCatalogHandler(products *catalog.Catalog, promos *usecase.PromoService) *CatalogHandler {
	return &CatalogHandler{products: products, promos: promos}
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.products.List()})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Param("id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListPromos returns the promo codes a shopper can currently apply.
func (h *CatalogHandler) ListPromos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"promos": h.promos.Available()})
}
