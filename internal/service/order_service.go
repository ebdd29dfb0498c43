package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aecioaam/sistema-de-pedidos/internal/checkout"
	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
	"github.com/aecioaam/sistema-de-pedidos/internal/realtime"
	"github.com/aecioaam/sistema-de-pedidos/internal/repository"
	"github.com/aecioaam/sistema-de-pedidos/internal/whatsapp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrStoreClosed        = errors.New("store is closed")
	ErrProductUnavailable = errors.New("product is not available")
	ErrOptionNotFound     = errors.New("selected option does not exist")
	ErrInvalidTransition  = errors.New("status transition not allowed")
)

// FinalizeResult is everything the summary screen needs after
// submission: the order as built, the prefilled WhatsApp link, and
// whether persistence failed along the way.
type FinalizeResult struct {
	Order        *domain.Order `json:"order"`
	WhatsAppLink string        `json:"whatsapp_link"`
	Message      string        `json:"message"`
	Persisted    bool          `json:"persisted"`
	Warning      string        `json:"warning,omitempty"`
}

// OrderService drives the customer checkout session and the admin order
// board.
type OrderService interface {
	// Customer session operations. Each one loads the session state,
	// applies the transition and saves the state back wholesale.
	GetSession(ctx context.Context, sessionID string) (*checkout.State, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, optionName string) (*checkout.State, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, optionName string, delta int) (*checkout.State, error)
	SetDetails(ctx context.Context, sessionID string, details domain.OrderDetails) (*checkout.State, error)
	Advance(ctx context.Context, sessionID string) (*checkout.State, error)
	Back(ctx context.Context, sessionID string) (*checkout.State, error)
	Summary(ctx context.Context, sessionID string) (*checkout.State, checkout.Totals, error)
	Finalize(ctx context.Context, sessionID string) (*FinalizeResult, error)
	NewOrder(ctx context.Context, sessionID string) (*checkout.State, error)

	// Admin order board.
	ListOrders(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error)
	SetOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	Receipt(ctx context.Context, id uuid.UUID) (string, error)
}

type orderService struct {
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	neighborhoodRepo repository.NeighborhoodRepository
	settingsRepo     repository.SettingsRepository
	sessionRepo      repository.SessionRepository
	publisher        Publisher
	renderReceipt    func(*domain.Order) (string, error)
	logger           *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	neighborhoodRepo repository.NeighborhoodRepository,
	settingsRepo repository.SettingsRepository,
	sessionRepo repository.SessionRepository,
	publisher Publisher,
	renderReceipt func(*domain.Order) (string, error),
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		neighborhoodRepo: neighborhoodRepo,
		settingsRepo:     settingsRepo,
		sessionRepo:      sessionRepo,
		publisher:        publisher,
		renderReceipt:    renderReceipt,
		logger:           logger,
	}
}

// GetSession loads the checkout state, creating a fresh one for unknown
// session IDs.
func (s *orderService) GetSession(ctx context.Context, sessionID string) (*checkout.State, error) {
	state, err := s.sessionRepo.Get(ctx, sessionID)
	if err == repository.ErrSessionNotFound {
		state = checkout.NewState()
		if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return state, nil
}

func (s *orderService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, optionName string) (*checkout.State, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Submitted {
		return nil, checkout.ErrAlreadySubmitted
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}

	var option *domain.ProductOption
	if optionName != "" {
		for i := range product.Options {
			if product.Options[i].Name == optionName {
				option = &product.Options[i]
				break
			}
		}
		if option == nil {
			return nil, ErrOptionNotFound
		}
	}

	state.Cart = state.Cart.Add(product, option)
	if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

func (s *orderService) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, optionName string, delta int) (*checkout.State, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Submitted {
		return nil, checkout.ErrAlreadySubmitted
	}

	state.Cart = state.Cart.UpdateQuantity(productID, optionName, delta)
	if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

func (s *orderService) SetDetails(ctx context.Context, sessionID string, details domain.OrderDetails) (*checkout.State, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Submitted {
		return nil, checkout.ErrAlreadySubmitted
	}

	// Pickup orders carry no address or neighborhood.
	if details.Type == domain.DeliveryRetirada {
		details.NeighborhoodID = nil
		details.Street = ""
		details.Number = ""
		details.Reference = ""
	}
	// Change-for only makes sense for cash payments.
	if details.PaymentMethod != domain.PaymentDinheiro {
		details.ChangeFor = nil
	}

	state.Details = details
	if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

func (s *orderService) Advance(ctx context.Context, sessionID string) (*checkout.State, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := state.Advance(); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

func (s *orderService) Back(ctx context.Context, sessionID string) (*checkout.State, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := state.Back(); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

// Summary returns the state together with the current totals.
func (s *orderService) Summary(ctx context.Context, sessionID string) (*checkout.State, checkout.Totals, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, checkout.Totals{}, err
	}
	neighborhoods, err := s.listNeighborhoodValues(ctx)
	if err != nil {
		return nil, checkout.Totals{}, err
	}
	return state, checkout.ComputeTotals(state.Cart, state.Details, neighborhoods), nil
}

// Finalize turns the session into an order: persist the record, build
// the WhatsApp message and link, and flag the session submitted. A
// failed insert is logged and surfaced as a warning but never blocks
// the message; the outbound channel matters more than the record.
func (s *orderService) Finalize(ctx context.Context, sessionID string) (*FinalizeResult, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Submitted {
		return nil, checkout.ErrAlreadySubmitted
	}
	if state.Step != checkout.StepSummary {
		return nil, checkout.ErrNotAtSummary
	}
	if len(state.Cart) == 0 {
		return nil, checkout.ErrCartEmpty
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.IsOpen {
		return nil, ErrStoreClosed
	}

	neighborhoods, err := s.listNeighborhoodValues(ctx)
	if err != nil {
		return nil, err
	}
	totals := checkout.ComputeTotals(state.Cart, state.Details, neighborhoods)
	neighborhoodName := resolveNeighborhoodName(state.Details.NeighborhoodID, neighborhoods)

	order := &domain.Order{
		ID:            uuid.New(),
		CreatedAt:     time.Now(),
		CustomerName:  state.Details.CustomerName,
		Neighborhood:  neighborhoodName,
		Street:        state.Details.Street,
		Number:        state.Details.Number,
		Reference:     state.Details.Reference,
		Items:         append([]domain.CartItem(nil), state.Cart...),
		TotalValue:    totals.Total,
		PaymentMethod: state.Details.PaymentMethod,
		ChangeFor:     state.Details.ChangeFor,
		DeliveryType:  state.Details.Type,
		Status:        domain.StatusPendente,
		CustomMessage: state.Details.CustomMessage,
	}

	result := &FinalizeResult{Order: order, Persisted: true}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to persist order, proceeding with message",
			zap.Error(err),
			zap.String("customer", order.CustomerName),
		)
		result.Persisted = false
		result.Warning = "pedido enviado, mas não foi possível registrá-lo"
	} else if err := s.publisher.Publish(ctx, realtime.ChannelOrders, nil); err != nil {
		s.logger.Warn("Failed to publish order event", zap.Error(err))
	}

	result.Message = whatsapp.BuildOrderMessage(state.Cart, state.Details, totals, neighborhoodName)
	result.WhatsAppLink = whatsapp.Link(settings.WhatsAppNumber, result.Message)

	if err := state.MarkSubmitted(); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return result, nil
}

// NewOrder resets the session for a fresh ordering cycle.
func (s *orderService) NewOrder(ctx context.Context, sessionID string) (*checkout.State, error) {
	state, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state.Reset()
	if err := s.sessionRepo.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

func (s *orderService) ListOrders(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	return s.orderRepo.List(ctx, status)
}

func (s *orderService) SetOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = next

	if err := s.publisher.Publish(ctx, realtime.ChannelOrders, nil); err != nil {
		s.logger.Warn("Failed to publish order event", zap.Error(err))
	}
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, realtime.ChannelOrders, nil); err != nil {
		s.logger.Warn("Failed to publish order event", zap.Error(err))
	}
	return nil
}

// Receipt renders the printable receipt for one order. Pure formatting,
// nothing is persisted.
func (s *orderService) Receipt(ctx context.Context, id uuid.UUID) (string, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderReceipt(order)
}

func (s *orderService) listNeighborhoodValues(ctx context.Context) ([]domain.Neighborhood, error) {
	list, err := s.neighborhoodRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list neighborhoods: %w", err)
	}
	values := make([]domain.Neighborhood, 0, len(list))
	for _, n := range list {
		values = append(values, *n)
	}
	return values, nil
}

func resolveNeighborhoodName(id *uuid.UUID, neighborhoods []domain.Neighborhood) string {
	if id == nil {
		return ""
	}
	for _, n := range neighborhoods {
		if n.ID == *id {
			return n.Name
		}
	}
	return ""
}
