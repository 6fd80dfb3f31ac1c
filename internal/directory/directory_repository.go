package directory

import (
	"context"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/doug-martin/goqu/v9"
)

type Repository interface {
	ListStaffMembers(ctx context.Context) ([]models.StaffMember, error)
	GetStaffMember(ctx context.Context, id int) (*models.StaffMember, error)
	ListStaffMembersByIDs(ctx context.Context, ids []int) ([]models.StaffMember, error)
	ListBuildings(ctx context.Context) ([]models.Building, error)
	ListBuildingsByIDs(ctx context.Context, ids []int) ([]models.Building, error)
	ListCostCenters(ctx context.Context) ([]models.CostCenter, error)
	ListCostCentersByIDs(ctx context.Context, ids []int) ([]models.CostCenter, error)
}

type DirectoryRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *DirectoryRepository {
	return &DirectoryRepository{repository: r}
}

func (r *DirectoryRepository) ListStaffMembers(ctx context.Context) ([]models.StaffMember, error) {
	members := []models.StaffMember{}
	err := r.repository.Executor(ctx).From("staff_members").
		Order(goqu.C("name").Asc()).
		ScanStructsContext(ctx, &members)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	return members, nil
}

func (r *DirectoryRepository) GetStaffMember(ctx context.Context, id int) (*models.StaffMember, error) {
	var member models.StaffMember
	found, err := r.repository.Executor(ctx).From("staff_members").
		Where(goqu.Ex{"id": id}).
		ScanStructContext(ctx, &member)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member %d: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("staff member", id)
	}
	return &member, nil
}

func (r *DirectoryRepository) ListStaffMembersByIDs(ctx context.Context, ids []int) ([]models.StaffMember, error) {
	members := []models.StaffMember{}
	if err := r.byIDs(ctx, "staff_members", ids, &members); err != nil {
		return nil, fmt.Errorf("failed to load staff members: %w", err)
	}
	return members, nil
}

func (r *DirectoryRepository) ListBuildings(ctx context.Context) ([]models.Building, error) {
	buildings := []models.Building{}
	err := r.repository.Executor(ctx).From("buildings").
		Order(goqu.C("name").Asc()).
		ScanStructsContext(ctx, &buildings)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return buildings, nil
}

func (r *DirectoryRepository) ListBuildingsByIDs(ctx context.Context, ids []int) ([]models.Building, error) {
	buildings := []models.Building{}
	if err := r.byIDs(ctx, "buildings", ids, &buildings); err != nil {
		return nil, fmt.Errorf("failed to load buildings: %w", err)
	}
	return buildings, nil
}

func (r *DirectoryRepository) ListCostCenters(ctx context.Context) ([]models.CostCenter, error) {
	centers := []models.CostCenter{}
	err := r.repository.Executor(ctx).From("cost_centers").
		Order(goqu.C("code").Asc()).
		ScanStructsContext(ctx, &centers)
	if err != nil {
		return nil, fmt.Errorf("failed to list cost centers: %w", err)
	}
	return centers, nil
}

func (r *DirectoryRepository) ListCostCentersByIDs(ctx context.Context, ids []int) ([]models.CostCenter, error) {
	centers := []models.CostCenter{}
	if err := r.byIDs(ctx, "cost_centers", ids, &centers); err != nil {
		return nil, fmt.Errorf("failed to load cost centers: %w", err)
	}
	return centers, nil
}

// byIDs loads every row of table whose id is in ids with one IN query.
func (r *DirectoryRepository) byIDs(ctx context.Context, table string, ids []int, dest interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return r.repository.Executor(ctx).From(table).
		Where(goqu.C("id").In(ids)).
		ScanStructsContext(ctx, dest)
}
