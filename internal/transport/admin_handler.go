package transport

import (
	"net/http"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
	"github.com/aecioaam/sistema-de-pedidos/internal/middleware"
	"github.com/aecioaam/sistema-de-pedidos/internal/repository"
	"github.com/aecioaam/sistema-de-pedidos/internal/service"
	"github.com/aecioaam/sistema-de-pedidos/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxUploadSize bounds product image uploads.
const maxUploadSize = 10 << 20

// ProductRequest is the admin product form.
type ProductRequest struct {
	Name        string                 `json:"name" validate:"required"`
	Description string                 `json:"description"`
	Price       string                 `json:"price" validate:"required"`
	Category    string                 `json:"category" validate:"required"`
	Image       string                 `json:"image"`
	IsActive    *bool                  `json:"is_active"`
	Options     []ProductOptionRequest `json:"options"`
}

// ProductOptionRequest is one named variant on the product form.
type ProductOptionRequest struct {
	Name  string `json:"name"`
	Price string `json:"price,omitempty"`
}

// CategoryRequest creates or renames a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// MoveCategoryRequest moves a category one position in display order.
type MoveCategoryRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// NeighborhoodRequest creates or updates a delivery neighborhood.
type NeighborhoodRequest struct {
	Name string `json:"name" validate:"required"`
	Fee  string `json:"fee" validate:"required"`
}

// SettingsRequest updates the singleton store settings.
type SettingsRequest struct {
	IsOpen         bool   `json:"is_open"`
	ClosedMessage  string `json:"closed_message"`
	WhatsAppNumber string `json:"whatsapp_number" validate:"required"`
}

// OrderStatusRequest transitions an order along the status path.
type OrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pendente producao entrega concluido cancelado"`
}

// AdminHandler exposes the management surface: catalog CRUD, store
// settings and the order board. Every route requires an authenticated
// admin.
type AdminHandler struct {
	catalogService  service.CatalogService
	orderService    service.OrderService
	settingsService service.SettingsService
	images          *storage.ImageStore
	logger          *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	catalogService service.CatalogService,
	orderService service.OrderService,
	settingsService service.SettingsService,
	images *storage.ImageStore,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalogService:  catalogService,
		orderService:    orderService,
		settingsService: settingsService,
		images:          images,
		logger:          logger,
	}
}

// RegisterRoutes registers the admin routes behind auth
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin(h.logger))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Post("/image", h.UploadImage)
			r.Put("/{id}", h.UpdateProduct)
			r.Patch("/{id}/toggle", h.ToggleProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.RenameCategory)
			r.Post("/{id}/move", h.MoveCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/neighborhoods", func(r chi.Router) {
			r.Get("/", h.ListNeighborhoods)
			r.Post("/", h.CreateNeighborhood)
			r.Put("/{id}", h.UpdateNeighborhood)
			r.Delete("/{id}", h.DeleteNeighborhood)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Patch("/{id}/status", h.UpdateOrderStatus)
			r.Delete("/{id}", h.DeleteOrder)
			r.Get("/{id}/receipt", h.OrderReceipt)
		})
	})
}

// ListProducts returns the full catalog, hidden products included.
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context(), true)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = uuid.New()

	if err := h.catalogService.CreateProduct(r.Context(), product); err != nil {
		h.respondCatalogError(w, err, "failed to create product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = id

	if err := h.catalogService.UpdateProduct(r.Context(), product); err != nil {
		h.respondCatalogError(w, err, "failed to update product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	product, err := h.catalogService.ToggleProductActive(r.Context(), id)
	if err != nil {
		h.respondCatalogError(w, err, "failed to toggle product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		h.respondCatalogError(w, err, "failed to delete product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// UploadImage stores a product image and returns the URL to put on the
// product record.
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	url, err := h.images.Save(file, header)
	if err != nil {
		if err == storage.ErrUnsupportedImageType {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to store image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to store image")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	category, err := h.catalogService.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.respondCatalogError(w, err, "failed to create category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *AdminHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.catalogService.RenameCategory(r.Context(), id, req.Name); err != nil {
		h.respondCatalogError(w, err, "failed to rename category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category renamed"})
}

func (h *AdminHandler) MoveCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req MoveCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.catalogService.MoveCategory(r.Context(), id, service.MoveDirection(req.Direction)); err != nil {
		h.respondCatalogError(w, err, "failed to move category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category moved"})
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(r.Context(), id); err != nil {
		h.respondCatalogError(w, err, "failed to delete category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

func (h *AdminHandler) ListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	neighborhoods, err := h.catalogService.ListNeighborhoods(r.Context())
	if err != nil {
		h.logger.Error("Failed to list neighborhoods", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list neighborhoods")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, neighborhoods)
}

func (h *AdminHandler) CreateNeighborhood(w http.ResponseWriter, r *http.Request) {
	var req NeighborhoodRequest
	if !h.decode(w, r, &req) {
		return
	}
	fee, err := decimal.NewFromString(req.Fee)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid fee")
		return
	}
	neighborhood, err := h.catalogService.CreateNeighborhood(r.Context(), req.Name, fee)
	if err != nil {
		h.respondCatalogError(w, err, "failed to create neighborhood")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, neighborhood)
}

func (h *AdminHandler) UpdateNeighborhood(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req NeighborhoodRequest
	if !h.decode(w, r, &req) {
		return
	}
	fee, err := decimal.NewFromString(req.Fee)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid fee")
		return
	}
	neighborhood, err := h.catalogService.UpdateNeighborhood(r.Context(), id, req.Name, fee)
	if err != nil {
		h.respondCatalogError(w, err, "failed to update neighborhood")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, neighborhood)
}

func (h *AdminHandler) DeleteNeighborhood(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalogService.DeleteNeighborhood(r.Context(), id); err != nil {
		h.respondCatalogError(w, err, "failed to delete neighborhood")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "neighborhood deleted"})
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		h.logger.Error("Failed to load settings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	settings, err := h.settingsService.Update(r.Context(), req.IsOpen, req.ClosedMessage, req.WhatsAppNumber)
	if err != nil {
		h.logger.Error("Failed to update settings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

// ListOrders returns the order board, newest first, optionally filtered
// by a ?status= query.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.OrderStatus(raw)
		switch s {
		case domain.StatusPendente, domain.StatusProducao, domain.StatusEntrega,
			domain.StatusConcluido, domain.StatusCancelado:
			status = &s
		default:
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	orders, err := h.orderService.ListOrders(r.Context(), status)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req OrderStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.orderService.SetOrderStatus(r.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		switch err {
		case service.ErrInvalidTransition:
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("Failed to update order status", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(r.Context(), id); err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Failed to delete order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// OrderReceipt renders the printable receipt as an HTML page.
func (h *AdminHandler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	html, err := h.orderService.Receipt(r.Context(), id)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Failed to render receipt", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to render receipt")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *AdminHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return nil, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return nil, false
	}

	options := make([]domain.ProductOption, 0, len(req.Options))
	for _, opt := range req.Options {
		option := domain.ProductOption{Name: opt.Name}
		if opt.Price != "" {
			p, err := decimal.NewFromString(opt.Price)
			if err != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "invalid option price")
				return nil, false
			}
			option.Price = &p
		}
		options = append(options, option)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Image:       req.Image,
		IsActive:    isActive,
		Options:     options,
	}, true
}

// respondCatalogError maps catalog service errors onto HTTP statuses.
func (h *AdminHandler) respondCatalogError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case service.ErrProductInvalid,
		service.ErrCategoryNameEmpty,
		service.ErrNeighborhoodInvalid,
		service.ErrInvalidDirection:
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case repository.ErrProductNotFound,
		repository.ErrCategoryNotFound,
		repository.ErrNeighborhoodNotFound:
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case repository.ErrCategoryAlreadyExists:
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Catalog operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
