package locations

import (
	"context"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/doug-martin/goqu/v9"
)

type Repository interface {
	ListLocations(ctx context.Context) ([]models.StorageLocation, error)
	GetLocation(ctx context.Context, id int) (*models.StorageLocation, error)
	GetShelf(ctx context.Context, id int) (*models.Shelf, error)
	ListShelves(ctx context.Context, locationID int) ([]models.Shelf, error)
}

type LocationRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *LocationRepository {
	return &LocationRepository{repository: r}
}

func (r *LocationRepository) ListLocations(ctx context.Context) ([]models.StorageLocation, error) {
	locations := []models.StorageLocation{}
	err := r.repository.Executor(ctx).From("storage_locations").
		Order(goqu.C("name").Asc()).
		ScanStructsContext(ctx, &locations)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return locations, nil
}

func (r *LocationRepository) GetLocation(ctx context.Context, id int) (*models.StorageLocation, error) {
	var location models.StorageLocation
	found, err := r.repository.Executor(ctx).From("storage_locations").
		Where(goqu.Ex{"id": id}).
		ScanStructContext(ctx, &location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %d: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("location", id)
	}
	return &location, nil
}

func (r *LocationRepository) GetShelf(ctx context.Context, id int) (*models.Shelf, error) {
	var shelf models.Shelf
	found, err := r.repository.Executor(ctx).From("shelves").
		Where(goqu.Ex{"id": id}).
		ScanStructContext(ctx, &shelf)
	if err != nil {
		return nil, fmt.Errorf("failed to get shelf %d: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("shelf", id)
	}
	return &shelf, nil
}

func (r *LocationRepository) ListShelves(ctx context.Context, locationID int) ([]models.Shelf, error) {
	shelves := []models.Shelf{}
	err := r.repository.Executor(ctx).From("shelves").
		Where(goqu.Ex{"location_id": locationID}).
		Order(goqu.C("name").Asc()).
		ScanStructsContext(ctx, &shelves)
	if err != nil {
		return nil, fmt.Errorf("failed to list shelves for location %d: %w", locationID, err)
	}
	return shelves, nil
}
