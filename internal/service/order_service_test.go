package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aecioaam/sistema-de-pedidos/internal/checkout"
	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
	"github.com/aecioaam/sistema-de-pedidos/internal/realtime"
	"github.com/aecioaam/sistema-de-pedidos/internal/receipt"
	"github.com/aecioaam/sistema-de-pedidos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) List(ctx context.Context, includeInactive bool) ([]*domain.Product, error) {
	var list []*domain.Product
	for _, p := range m.products {
		if includeInactive || p.IsActive {
			list = append(list, p)
		}
	}
	return list, nil
}

type mockNeighborhoodRepository struct {
	hoods map[uuid.UUID]*domain.Neighborhood
}

func newMockNeighborhoodRepository() *mockNeighborhoodRepository {
	return &mockNeighborhoodRepository{hoods: make(map[uuid.UUID]*domain.Neighborhood)}
}

func (m *mockNeighborhoodRepository) Create(ctx context.Context, n *domain.Neighborhood) error {
	m.hoods[n.ID] = n
	return nil
}

func (m *mockNeighborhoodRepository) Update(ctx context.Context, n *domain.Neighborhood) error {
	m.hoods[n.ID] = n
	return nil
}

func (m *mockNeighborhoodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.hoods[id]; !ok {
		return repository.ErrNeighborhoodNotFound
	}
	delete(m.hoods, id)
	return nil
}

func (m *mockNeighborhoodRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Neighborhood, error) {
	n, ok := m.hoods[id]
	if !ok {
		return nil, repository.ErrNeighborhoodNotFound
	}
	return n, nil
}

func (m *mockNeighborhoodRepository) List(ctx context.Context) ([]*domain.Neighborhood, error) {
	var list []*domain.Neighborhood
	for _, n := range m.hoods {
		list = append(list, n)
	}
	return list, nil
}

type mockOrderRepository struct {
	orders    map[uuid.UUID]*domain.Order
	failNext  bool
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	if m.failNext {
		m.failNext = false
		if m.createErr != nil {
			return m.createErr
		}
		return errors.New("insert failed")
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepository) List(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	var list []*domain.Order
	for _, o := range m.orders {
		if status == nil || o.Status == *status {
			list = append(list, o)
		}
	}
	return list, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

type mockSettingsRepository struct {
	settings *domain.StoreSettings
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{
		settings: &domain.StoreSettings{
			ID:             uuid.New(),
			IsOpen:         true,
			ClosedMessage:  "Estamos fechados no momento.",
			WhatsAppNumber: "5531998725041",
			UpdatedAt:      time.Now(),
		},
	}
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	return m.settings, nil
}

func (m *mockSettingsRepository) Update(ctx context.Context, s *domain.StoreSettings) error {
	m.settings = s
	return nil
}

type mockSessionRepository struct {
	sessions map[string]*checkout.State
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*checkout.State)}
}

func (m *mockSessionRepository) Get(ctx context.Context, sessionID string) (*checkout.State, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	// Copy, like deserializing from Redis would.
	clone := *s
	return &clone, nil
}

func (m *mockSessionRepository) Save(ctx context.Context, sessionID string, state *checkout.State) error {
	clone := *state
	m.sessions[sessionID] = &clone
	return nil
}

func (m *mockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload any) error {
	p.events = append(p.events, channel)
	return nil
}

type orderServiceFixture struct {
	service      OrderService
	products     *mockProductRepository
	neighborhood *mockNeighborhoodRepository
	orders       *mockOrderRepository
	settings     *mockSettingsRepository
	sessions     *mockSessionRepository
	publisher    *recordingPublisher
}

func newOrderServiceFixture() *orderServiceFixture {
	f := &orderServiceFixture{
		products:     newMockProductRepository(),
		neighborhood: newMockNeighborhoodRepository(),
		orders:       newMockOrderRepository(),
		settings:     newMockSettingsRepository(),
		sessions:     newMockSessionRepository(),
		publisher:    &recordingPublisher{},
	}
	f.service = NewOrderService(
		f.orders, f.products, f.neighborhood, f.settings, f.sessions,
		f.publisher, receipt.Render, zap.NewNop(),
	)
	return f
}

func (f *orderServiceFixture) addProduct(name, price string, options ...domain.ProductOption) *domain.Product {
	p := &domain.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "Tortas",
		IsActive: true,
		Options:  options,
	}
	f.products.products[p.ID] = p
	return p
}

func (f *orderServiceFixture) addNeighborhood(name, fee string) *domain.Neighborhood {
	n := &domain.Neighborhood{
		ID:   uuid.New(),
		Name: name,
		Fee:  decimal.RequireFromString(fee),
	}
	f.neighborhood.hoods[n.ID] = n
	return n
}

// walkToSummary drives a session through the wizard up to step 4.
func (f *orderServiceFixture) walkToSummary(t *testing.T, sessionID string, details domain.OrderDetails, product *domain.Product) {
	t.Helper()
	ctx := context.Background()

	_, err := f.service.AddItem(ctx, sessionID, product.ID, "")
	require.NoError(t, err)
	_, err = f.service.Advance(ctx, sessionID) // -> cart
	require.NoError(t, err)
	_, err = f.service.Advance(ctx, sessionID) // -> customer
	require.NoError(t, err)
	_, err = f.service.SetDetails(ctx, sessionID, details)
	require.NoError(t, err)
	_, err = f.service.Advance(ctx, sessionID) // -> summary
	require.NoError(t, err)
}

func TestGetSessionCreatesFreshState(t *testing.T) {
	f := newOrderServiceFixture()

	state, err := f.service.GetSession(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, checkout.StepBrowsing, state.Step)
	assert.Empty(t, state.Cart)
	assert.NotNil(t, f.sessions.sessions["s1"])
}

func TestAddItemResolvesOptionPrice(t *testing.T) {
	f := newOrderServiceFixture()
	large := decimal.RequireFromString("34.00")
	product := f.addProduct("Torta de Limão", "28.00",
		domain.ProductOption{Name: "Grande", Price: &large},
		domain.ProductOption{Name: "Pequena"},
	)
	ctx := context.Background()

	state, err := f.service.AddItem(ctx, "s1", product.ID, "Grande")
	require.NoError(t, err)
	require.Len(t, state.Cart, 1)
	assert.True(t, state.Cart[0].Price.Equal(large))

	state, err = f.service.AddItem(ctx, "s1", product.ID, "Pequena")
	require.NoError(t, err)
	require.Len(t, state.Cart, 2)
	assert.True(t, state.Cart[1].Price.Equal(product.Price))

	_, err = f.service.AddItem(ctx, "s1", product.ID, "Gigante")
	assert.ErrorIs(t, err, ErrOptionNotFound)
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	f := newOrderServiceFixture()
	product := f.addProduct("Torta", "28.00")
	product.IsActive = false

	_, err := f.service.AddItem(context.Background(), "s1", product.ID, "")
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestSetDetailsScrubsIncoherentFields(t *testing.T) {
	f := newOrderServiceFixture()
	hood := f.addNeighborhood("Centro", "6.00")
	change := decimal.RequireFromString("50.00")
	ctx := context.Background()

	// Pickup order keeps no address, pix keeps no change.
	state, err := f.service.SetDetails(ctx, "s1", domain.OrderDetails{
		CustomerName:   "Maria",
		Type:           domain.DeliveryRetirada,
		NeighborhoodID: &hood.ID,
		Street:         "Rua A",
		Number:         "1",
		PaymentMethod:  domain.PaymentPix,
		ChangeFor:      &change,
	})
	require.NoError(t, err)

	assert.Nil(t, state.Details.NeighborhoodID)
	assert.Empty(t, state.Details.Street)
	assert.Nil(t, state.Details.ChangeFor)
}

func TestFinalizeDeliveryOrder(t *testing.T) {
	f := newOrderServiceFixture()
	optionPrice := decimal.RequireFromString("20.00")
	brigadeiro := f.addProduct("Brigadeiro Gourmet", "7.00")
	torta := f.addProduct("Torta de Limão", "16.00",
		domain.ProductOption{Name: "Grande", Price: &optionPrice})
	hood := f.addNeighborhood("Centro", "6.00")
	ctx := context.Background()

	// Two units of the same product merge into one line; the option
	// line stays separate. Subtotal 7.00*2 + 20.00 = 34.00.
	_, err := f.service.AddItem(ctx, "s1", brigadeiro.ID, "")
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, "s1", brigadeiro.ID, "")
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, "s1", torta.ID, "Grande")
	require.NoError(t, err)

	_, err = f.service.Advance(ctx, "s1")
	require.NoError(t, err)
	_, err = f.service.Advance(ctx, "s1")
	require.NoError(t, err)

	details := domain.OrderDetails{
		CustomerName:   "Maria Silva",
		Type:           domain.DeliveryEntrega,
		NeighborhoodID: &hood.ID,
		Street:         "Rua das Flores",
		Number:         "123",
		PaymentMethod:  domain.PaymentPix,
	}
	_, err = f.service.SetDetails(ctx, "s1", details)
	require.NoError(t, err)
	_, err = f.service.Advance(ctx, "s1")
	require.NoError(t, err)

	result, err := f.service.Finalize(ctx, "s1")
	require.NoError(t, err)

	assert.True(t, result.Persisted)
	assert.Empty(t, result.Warning)
	assert.Equal(t, "40.00", result.Order.TotalValue.StringFixed(2))
	assert.Equal(t, "Centro", result.Order.Neighborhood)
	assert.Equal(t, domain.StatusPendente, result.Order.Status)
	assert.Empty(t, result.Order.CustomerPhone)

	// The persisted order carries the two cart lines, merged and
	// option-priced.
	require.Len(t, result.Order.Items, 2)
	assert.Equal(t, 2, result.Order.Items[0].Quantity)
	assert.Equal(t, "7.00", result.Order.Items[0].Price.StringFixed(2))
	assert.Equal(t, 1, result.Order.Items[1].Quantity)
	assert.Equal(t, "Grande", result.Order.Items[1].OptionName())
	assert.Equal(t, "20.00", result.Order.Items[1].Price.StringFixed(2))

	// Message and deep link
	assert.Contains(t, result.Message, "*TOTAL:* R$ 40.00")
	assert.True(t, strings.HasPrefix(result.WhatsAppLink, "https://wa.me/5531998725041?text="))
	parsed, err := url.Parse(result.WhatsAppLink)
	require.NoError(t, err)
	assert.Equal(t, result.Message, parsed.Query().Get("text"))

	// Order persisted and event published
	assert.Len(t, f.orders.orders, 1)
	assert.Equal(t, []string{realtime.ChannelOrders}, f.publisher.events)

	// Session is now terminal
	state, err := f.service.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.Submitted)

	_, err = f.service.Finalize(ctx, "s1")
	assert.ErrorIs(t, err, checkout.ErrAlreadySubmitted)
}

func TestFinalizePersistFailureStillSendsMessage(t *testing.T) {
	f := newOrderServiceFixture()
	product := f.addProduct("Torta", "34.00")
	f.orders.failNext = true
	ctx := context.Background()

	details := domain.OrderDetails{
		CustomerName:  "Maria",
		Type:          domain.DeliveryRetirada,
		PaymentMethod: domain.PaymentPix,
	}
	f.walkToSummary(t, "s1", details, product)

	result, err := f.service.Finalize(ctx, "s1")
	require.NoError(t, err)

	assert.False(t, result.Persisted)
	assert.NotEmpty(t, result.Warning)
	assert.NotEmpty(t, result.WhatsAppLink)
	assert.Empty(t, f.orders.orders)
	// No order event without a stored order.
	assert.Empty(t, f.publisher.events)

	// The session still reaches the terminal state.
	state, err := f.service.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.Submitted)
}

func TestFinalizeRequiresSummaryStep(t *testing.T) {
	f := newOrderServiceFixture()
	product := f.addProduct("Torta", "34.00")
	ctx := context.Background()

	_, err := f.service.AddItem(ctx, "s1", product.ID, "")
	require.NoError(t, err)

	_, err = f.service.Finalize(ctx, "s1")
	assert.ErrorIs(t, err, checkout.ErrNotAtSummary)
}

func TestFinalizeRejectedWhenStoreClosed(t *testing.T) {
	f := newOrderServiceFixture()
	product := f.addProduct("Torta", "34.00")
	ctx := context.Background()

	details := domain.OrderDetails{
		CustomerName:  "Maria",
		Type:          domain.DeliveryRetirada,
		PaymentMethod: domain.PaymentPix,
	}
	f.walkToSummary(t, "s1", details, product)

	f.settings.settings.IsOpen = false
	_, err := f.service.Finalize(ctx, "s1")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestNewOrderResetsSubmittedSession(t *testing.T) {
	f := newOrderServiceFixture()
	product := f.addProduct("Torta", "34.00")
	ctx := context.Background()

	details := domain.OrderDetails{
		CustomerName:  "Maria",
		Type:          domain.DeliveryRetirada,
		PaymentMethod: domain.PaymentPix,
	}
	f.walkToSummary(t, "s1", details, product)
	_, err := f.service.Finalize(ctx, "s1")
	require.NoError(t, err)

	state, err := f.service.NewOrder(ctx, "s1")
	require.NoError(t, err)

	assert.False(t, state.Submitted)
	assert.Equal(t, checkout.StepBrowsing, state.Step)
	assert.Empty(t, state.Cart)
}

func TestBackRejectedOnSubmittedSession(t *testing.T) {
	f := newOrderServiceFixture()
	product := f.addProduct("Torta", "34.00")
	ctx := context.Background()

	details := domain.OrderDetails{
		CustomerName:  "Maria",
		Type:          domain.DeliveryRetirada,
		PaymentMethod: domain.PaymentPix,
	}
	f.walkToSummary(t, "s1", details, product)
	_, err := f.service.Finalize(ctx, "s1")
	require.NoError(t, err)

	_, err = f.service.Back(ctx, "s1")
	assert.ErrorIs(t, err, checkout.ErrAlreadySubmitted)

	// The stored session is untouched: still at the summary, still
	// submitted, only NewOrder leaves this state.
	state, err := f.service.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.Submitted)
	assert.Equal(t, checkout.StepSummary, state.Step)
}

func TestSetOrderStatusFollowsForwardPath(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()
	order := &domain.Order{
		ID:         uuid.New(),
		Status:     domain.StatusPendente,
		TotalValue: decimal.RequireFromString("10.00"),
	}
	f.orders.orders[order.ID] = order

	// Forward path works one hop at a time.
	for _, next := range []domain.OrderStatus{
		domain.StatusProducao, domain.StatusEntrega, domain.StatusConcluido,
	} {
		updated, err := f.service.SetOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	// Terminal. Nothing more is allowed.
	_, err := f.service.SetOrderStatus(ctx, order.ID, domain.StatusCancelado)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Every successful transition raised an event.
	assert.Len(t, f.publisher.events, 3)
}

func TestSetOrderStatusRejectsSkips(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()
	order := &domain.Order{
		ID:         uuid.New(),
		Status:     domain.StatusPendente,
		TotalValue: decimal.RequireFromString("10.00"),
	}
	f.orders.orders[order.ID] = order

	_, err := f.service.SetOrderStatus(ctx, order.ID, domain.StatusEntrega)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Cancel works from any non-terminal status.
	updated, err := f.service.SetOrderStatus(ctx, order.ID, domain.StatusCancelado)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelado, updated.Status)
}

func TestReceiptRendersStoredOrder(t *testing.T) {
	f := newOrderServiceFixture()
	ctx := context.Background()
	order := &domain.Order{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		CustomerName: "Maria",
		Items: []domain.CartItem{
			{ProductID: uuid.New(), Name: "Torta", Price: decimal.RequireFromString("34.00"), Quantity: 1},
		},
		TotalValue:    decimal.RequireFromString("34.00"),
		PaymentMethod: domain.PaymentPix,
		DeliveryType:  domain.DeliveryRetirada,
		Status:        domain.StatusPendente,
	}
	f.orders.orders[order.ID] = order

	html, err := f.service.Receipt(ctx, order.ID)
	require.NoError(t, err)
	assert.Contains(t, html, "Cliente: Maria")

	_, err = f.service.Receipt(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
