package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
	"github.com/aecioaam/sistema-de-pedidos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MoveDirection is the direction of a category reorder step.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

var (
	ErrProductInvalid      = errors.New("product requires a name, a positive price and a category")
	ErrCategoryNameEmpty   = errors.New("category name is required")
	ErrNeighborhoodInvalid = errors.New("neighborhood requires a name and a non-negative fee")
	ErrInvalidDirection    = errors.New("direction must be up or down")
)

// CatalogService covers the admin-facing catalog surface: products,
// categories and delivery neighborhoods.
type CatalogService interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	ToggleProductActive(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	RenameCategory(ctx context.Context, id uuid.UUID, name string) error
	MoveCategory(ctx context.Context, id uuid.UUID, direction MoveDirection) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListNeighborhoods(ctx context.Context) ([]*domain.Neighborhood, error)
	CreateNeighborhood(ctx context.Context, name string, fee decimal.Decimal) (*domain.Neighborhood, error)
	UpdateNeighborhood(ctx context.Context, id uuid.UUID, name string, fee decimal.Decimal) (*domain.Neighborhood, error)
	DeleteNeighborhood(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	productRepo      repository.ProductRepository
	categoryRepo     repository.CategoryRepository
	neighborhoodRepo repository.NeighborhoodRepository
	logger           *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	neighborhoodRepo repository.NeighborhoodRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo:      productRepo,
		categoryRepo:     categoryRepo,
		neighborhoodRepo: neighborhoodRepo,
		logger:           logger,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, includeInactive bool) ([]*domain.Product, error) {
	return s.productRepo.List(ctx, includeInactive)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	product.Options = filterOptions(product.Options)
	if err := s.productRepo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	product.Options = filterOptions(product.Options)
	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// ToggleProductActive flips visibility without touching any other field.
func (s *catalogService) ToggleProductActive(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.IsActive = !product.IsActive
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to toggle product: %w", err)
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}

	// New categories go to the end of the display order.
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	next := 0
	for _, c := range categories {
		if c.SortOrder() >= next {
			next = c.SortOrder() + 1
		}
	}

	category := &domain.Category{
		ID:    uuid.New(),
		Name:  name,
		Order: &next,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// RenameCategory changes the display name only. Products keep the old
// category string; the records stored by the previous system relate by
// name and a rename does not cascade.
func (s *catalogService) RenameCategory(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrCategoryNameEmpty
	}
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	category.Name = name
	return s.categoryRepo.Update(ctx, category)
}

// MoveCategory swaps order values with the adjacent category in the
// current display order. Moving the first category up or the last one
// down is a no-op. When stored order values collide, list positions
// stand in for them so the swap still produces distinct values.
func (s *catalogService) MoveCategory(ctx context.Context, id uuid.UUID, direction MoveDirection) error {
	if direction != MoveUp && direction != MoveDown {
		return ErrInvalidDirection
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	idx := -1
	for i, c := range categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return repository.ErrCategoryNotFound
	}

	other := idx - 1
	if direction == MoveDown {
		other = idx + 1
	}
	if other < 0 || other >= len(categories) {
		return nil
	}

	a, b := categories[idx], categories[other]
	aOrder, bOrder := a.SortOrder(), b.SortOrder()
	if aOrder == bOrder {
		aOrder, bOrder = idx, other
	}
	a.Order, b.Order = &bOrder, &aOrder

	if err := s.categoryRepo.Update(ctx, a); err != nil {
		return fmt.Errorf("failed to reorder category: %w", err)
	}
	if err := s.categoryRepo.Update(ctx, b); err != nil {
		return fmt.Errorf("failed to reorder category: %w", err)
	}
	return nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, id)
}

func (s *catalogService) ListNeighborhoods(ctx context.Context) ([]*domain.Neighborhood, error) {
	return s.neighborhoodRepo.List(ctx)
}

func (s *catalogService) CreateNeighborhood(ctx context.Context, name string, fee decimal.Decimal) (*domain.Neighborhood, error) {
	name = strings.TrimSpace(name)
	if name == "" || fee.IsNegative() {
		return nil, ErrNeighborhoodInvalid
	}
	neighborhood := &domain.Neighborhood{
		ID:   uuid.New(),
		Name: name,
		Fee:  fee,
	}
	if err := s.neighborhoodRepo.Create(ctx, neighborhood); err != nil {
		return nil, err
	}
	return neighborhood, nil
}

func (s *catalogService) UpdateNeighborhood(ctx context.Context, id uuid.UUID, name string, fee decimal.Decimal) (*domain.Neighborhood, error) {
	name = strings.TrimSpace(name)
	if name == "" || fee.IsNegative() {
		return nil, ErrNeighborhoodInvalid
	}
	neighborhood, err := s.neighborhoodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	neighborhood.Name = name
	neighborhood.Fee = fee
	if err := s.neighborhoodRepo.Update(ctx, neighborhood); err != nil {
		return nil, err
	}
	return neighborhood, nil
}

func (s *catalogService) DeleteNeighborhood(ctx context.Context, id uuid.UUID) error {
	return s.neighborhoodRepo.Delete(ctx, id)
}

func validateProduct(product *domain.Product) error {
	if strings.TrimSpace(product.Name) == "" ||
		strings.TrimSpace(product.Category) == "" ||
		!product.Price.IsPositive() {
		return ErrProductInvalid
	}
	return nil
}

// filterOptions drops options with blank names before they reach the
// database, matching what the admin form submits on save.
func filterOptions(options []domain.ProductOption) []domain.ProductOption {
	filtered := make([]domain.ProductOption, 0, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt.Name) != "" {
			filtered = append(filtered, opt)
		}
	}
	return filtered
}
