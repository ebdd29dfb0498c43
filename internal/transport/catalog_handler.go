package transport

import (
	"net/http"

	"github.com/aecioaam/sistema-de-pedidos/internal/middleware"
	"github.com/aecioaam/sistema-de-pedidos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the public storefront reads: active products,
// categories in display order, delivery neighborhoods and the store
// status banner. No authentication; this is what customers browse.
type CatalogHandler struct {
	catalogService  service.CatalogService
	settingsService service.SettingsService
	logger          *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, settingsService service.SettingsService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService:  catalogService,
		settingsService: settingsService,
		logger:          logger,
	}
}

// RegisterRoutes registers the public storefront routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/categories", h.ListCategories)
		r.Get("/neighborhoods", h.ListNeighborhoods)
	})
	r.Get("/api/store", h.GetStore)
}

// ListProducts returns the active catalog only; hidden products never
// reach customers.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context(), false)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) ListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	neighborhoods, err := h.catalogService.ListNeighborhoods(r.Context())
	if err != nil {
		h.logger.Error("Failed to list neighborhoods", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list neighborhoods")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, neighborhoods)
}

// GetStore returns the open/closed banner state. The WhatsApp number is
// included; it is the same number every submitted order message targets.
func (h *CatalogHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		h.logger.Error("Failed to load store settings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load store settings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}
