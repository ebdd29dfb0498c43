package transport

import (
	"net/http"
	"time"

	"github.com/aecioaam/sistema-de-pedidos/internal/checkout"
	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
	"github.com/aecioaam/sistema-de-pedidos/internal/middleware"
	"github.com/aecioaam/sistema-de-pedidos/internal/repository"
	"github.com/aecioaam/sistema-de-pedidos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sessionCookieName = "checkout_session"

// AddItemRequest adds one unit of a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Option    string `json:"option,omitempty"`
}

// UpdateQuantityRequest changes a cart line by a signed delta. Zero is
// a valid no-op delta, so the field carries no required tag: validator
// would read an int zero value as missing.
type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Option    string `json:"option,omitempty"`
	Delta     int    `json:"delta"`
}

// DetailsRequest carries the step 3 customer form.
type DetailsRequest struct {
	CustomerName   string `json:"customer_name"`
	Type           string `json:"type" validate:"required,oneof=entrega retirada"`
	NeighborhoodID string `json:"neighborhood_id,omitempty" validate:"omitempty,uuid"`
	Street         string `json:"street,omitempty"`
	Number         string `json:"number,omitempty"`
	Reference      string `json:"reference,omitempty"`
	PaymentMethod  string `json:"payment_method" validate:"required,oneof=pix dinheiro cartao"`
	ChangeFor      string `json:"change_for,omitempty"`
	CustomMessage  string `json:"custom_message,omitempty"`
}

// CheckoutResponse is the wizard state plus the current totals.
type CheckoutResponse struct {
	State  *checkout.State `json:"state"`
	Totals checkout.Totals `json:"totals"`
}

// CheckoutHandler drives the four-step checkout wizard over a
// cookie-bound Redis session.
type CheckoutHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(orderService service.OrderService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers the checkout session routes
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Post("/items", h.AddItem)
		r.Patch("/items", h.UpdateQuantity)
		r.Put("/details", h.SetDetails)
		r.Post("/advance", h.Advance)
		r.Post("/back", h.Back)
		r.Post("/finalize", h.Finalize)
		r.Post("/new", h.NewOrder)
	})
}

// sessionID returns the checkout session bound to the request cookie,
// minting a new one when the customer has none yet.
func (h *CheckoutHandler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(repository.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	state, totals, err := h.orderService.Summary(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load checkout session", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load checkout session")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CheckoutResponse{State: state, Totals: totals})
}

func (h *CheckoutHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	sessionID := h.sessionID(w, r)
	state, err := h.orderService.AddItem(r.Context(), sessionID, productID, req.Option)
	if err != nil {
		h.respondCheckoutError(w, err, "failed to add item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, state)
}

func (h *CheckoutHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	sessionID := h.sessionID(w, r)
	state, err := h.orderService.UpdateQuantity(r.Context(), sessionID, productID, req.Option, req.Delta)
	if err != nil {
		h.respondCheckoutError(w, err, "failed to update quantity")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, state)
}

func (h *CheckoutHandler) SetDetails(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	details, err := detailsFromRequest(req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := h.sessionID(w, r)
	state, err := h.orderService.SetDetails(r.Context(), sessionID, details)
	if err != nil {
		h.respondCheckoutError(w, err, "failed to save details")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, state)
}

func (h *CheckoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	state, err := h.orderService.Advance(r.Context(), sessionID)
	if err != nil {
		h.respondCheckoutError(w, err, "failed to advance")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, state)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	state, err := h.orderService.Back(r.Context(), sessionID)
	if err != nil {
		h.respondCheckoutError(w, err, "failed to go back")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, state)
}

func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	result, err := h.orderService.Finalize(r.Context(), sessionID)
	if err != nil {
		h.respondCheckoutError(w, err, "failed to finalize order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *CheckoutHandler) NewOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	state, err := h.orderService.NewOrder(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to reset checkout session", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, state)
}

// respondCheckoutError maps checkout flow errors onto HTTP statuses.
// Gate violations and bad selections are the customer's to fix; only
// unknown errors become 500s.
func (h *CheckoutHandler) respondCheckoutError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case checkout.ErrCartEmpty,
		checkout.ErrMissingName,
		checkout.ErrMissingHood,
		checkout.ErrNoForwardFromLast:
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case checkout.ErrAlreadySubmitted, checkout.ErrNotAtSummary:
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case service.ErrStoreClosed:
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case service.ErrOptionNotFound, service.ErrProductUnavailable:
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case repository.ErrProductNotFound:
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("Checkout operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func detailsFromRequest(req DetailsRequest) (domain.OrderDetails, error) {
	details := domain.OrderDetails{
		CustomerName:  req.CustomerName,
		Type:          domain.DeliveryType(req.Type),
		Street:        req.Street,
		Number:        req.Number,
		Reference:     req.Reference,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		CustomMessage: req.CustomMessage,
	}
	if req.NeighborhoodID != "" {
		id, err := uuid.Parse(req.NeighborhoodID)
		if err != nil {
			return details, err
		}
		details.NeighborhoodID = &id
	}
	if req.ChangeFor != "" {
		value, err := decimal.NewFromString(req.ChangeFor)
		if err != nil {
			return details, err
		}
		details.ChangeFor = &value
	}
	return details, nil
}
