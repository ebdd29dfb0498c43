package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"

	"github.com/google/uuid"
)

var ErrNeighborhoodNotFound = errors.New("neighborhood not found")

// NeighborhoodRepository defines the interface for delivery zone data access
type NeighborhoodRepository interface {
	Create(ctx context.Context, neighborhood *domain.Neighborhood) error
	Update(ctx context.Context, neighborhood *domain.Neighborhood) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Neighborhood, error)
	List(ctx context.Context) ([]*domain.Neighborhood, error)
}

type neighborhoodRepository struct {
	db *sql.DB
}

// NewNeighborhoodRepository creates a new instance of NeighborhoodRepository
func NewNeighborhoodRepository(db *sql.DB) NeighborhoodRepository {
	return &neighborhoodRepository{db: db}
}

// Create inserts a new neighborhood
func (r *neighborhoodRepository) Create(ctx context.Context, neighborhood *domain.Neighborhood) error {
	query := `
		INSERT INTO neighborhoods (id, name, fee, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		neighborhood.ID,
		neighborhood.Name,
		neighborhood.Fee,
		neighborhood.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create neighborhood: %w", err)
	}

	return nil
}

// Update changes a neighborhood's name and delivery fee
func (r *neighborhoodRepository) Update(ctx context.Context, neighborhood *domain.Neighborhood) error {
	query := `
		UPDATE neighborhoods
		SET name = $2, fee = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, neighborhood.ID, neighborhood.Name, neighborhood.Fee)
	if err != nil {
		return fmt.Errorf("failed to update neighborhood: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNeighborhoodNotFound
	}

	return nil
}

// Delete removes a neighborhood
func (r *neighborhoodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM neighborhoods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete neighborhood: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNeighborhoodNotFound
	}

	return nil
}

// FindByID retrieves a neighborhood by ID
func (r *neighborhoodRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Neighborhood, error) {
	query := `
		SELECT id, name, fee, created_at
		FROM neighborhoods
		WHERE id = $1
	`

	neighborhood := &domain.Neighborhood{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&neighborhood.ID,
		&neighborhood.Name,
		&neighborhood.Fee,
		&neighborhood.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNeighborhoodNotFound
		}
		return nil, fmt.Errorf("failed to find neighborhood by ID: %w", err)
	}

	return neighborhood, nil
}

// List retrieves all neighborhoods sorted by name
func (r *neighborhoodRepository) List(ctx context.Context) ([]*domain.Neighborhood, error) {
	query := `
		SELECT id, name, fee, created_at
		FROM neighborhoods
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list neighborhoods: %w", err)
	}
	defer rows.Close()

	neighborhoods := []*domain.Neighborhood{}
	for rows.Next() {
		neighborhood := &domain.Neighborhood{}
		err := rows.Scan(
			&neighborhood.ID,
			&neighborhood.Name,
			&neighborhood.Fee,
			&neighborhood.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan neighborhood: %w", err)
		}
		neighborhoods = append(neighborhoods, neighborhood)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating neighborhoods: %w", err)
	}

	return neighborhoods, nil
}
