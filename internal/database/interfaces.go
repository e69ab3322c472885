package database

import (
	"context"

	"shuttle-router/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Runs() RunRepository
}

// RunRepository handles routing run history
type RunRepository interface {
	// List returns runs newest first along with the total count
	List(ctx context.Context, limit, offset int) ([]models.RunSummary, int, error)
	// GetByID returns the stored result of a run, or ErrNotFound
	GetByID(ctx context.Context, id string) (*models.RoutingResult, error)
	Create(ctx context.Context, result *models.RoutingResult, notes string) error
	Delete(ctx context.Context, id string) error
}
