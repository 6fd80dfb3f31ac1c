package issuance

import (
	"context"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type Repository interface {
	InsertIssuance(ctx context.Context, issuance *models.Issuance) (int, error)
	GetIssuance(ctx context.Context, id int) (*models.Issuance, error)
	GetIssuanceForUpdate(ctx context.Context, id int) (*models.Issuance, error)
	UpdateIssuance(ctx context.Context, issuance *models.Issuance) error
	DeleteIssuance(ctx context.Context, id int) (bool, error)
	ListIssuances(ctx context.Context, filter models.IssuanceFilter) ([]models.Issuance, error)
}

type IssuanceRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *IssuanceRepository {
	return &IssuanceRepository{repository: r}
}

func issuanceRecord(i *models.Issuance) goqu.Record {
	return goqu.Record{
		"part_id":        i.PartID,
		"quantity":       i.Quantity,
		"issued_to":      i.IssuedTo,
		"reason":         string(i.Reason),
		"issued_at":      i.IssuedAt,
		"issued_by":      i.IssuedBy,
		"building_id":    i.BuildingID,
		"cost_center_id": i.CostCenterID,
		"department":     i.Department,
		"project_code":   i.ProjectCode,
		"notes":          i.Notes,
	}
}

func (r *IssuanceRepository) InsertIssuance(ctx context.Context, issuance *models.Issuance) (int, error) {
	var id int
	_, err := r.repository.Executor(ctx).Insert("parts_issuance").
		Rows(issuanceRecord(issuance)).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert issuance: %w", custom_error.FromPQ(err))
	}
	return id, nil
}

func (r *IssuanceRepository) GetIssuance(ctx context.Context, id int) (*models.Issuance, error) {
	return r.get(ctx, id, false)
}

func (r *IssuanceRepository) GetIssuanceForUpdate(ctx context.Context, id int) (*models.Issuance, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}
	return r.get(ctx, id, true)
}

func (r *IssuanceRepository) get(ctx context.Context, id int, lock bool) (*models.Issuance, error) {
	query := r.repository.Executor(ctx).From("parts_issuance").Where(goqu.Ex{"id": id})
	if lock {
		query = query.ForUpdate(exp.Wait)
	}

	var issuance models.Issuance
	found, err := query.ScanStructContext(ctx, &issuance)
	if err != nil {
		return nil, fmt.Errorf("failed to get issuance %d: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("issuance", id)
	}
	return &issuance, nil
}

func (r *IssuanceRepository) UpdateIssuance(ctx context.Context, issuance *models.Issuance) error {
	res, err := r.repository.Executor(ctx).Update("parts_issuance").
		Set(issuanceRecord(issuance)).
		Where(goqu.Ex{"id": issuance.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update issuance %d: %w", issuance.ID, custom_error.FromPQ(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return custom_error.NewNotFound("issuance", issuance.ID)
	}
	return nil
}

func (r *IssuanceRepository) DeleteIssuance(ctx context.Context, id int) (bool, error) {
	res, err := r.repository.Executor(ctx).Delete("parts_issuance").
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete issuance %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *IssuanceRepository) ListIssuances(ctx context.Context, filter models.IssuanceFilter) ([]models.Issuance, error) {
	query := r.repository.Executor(ctx).From("parts_issuance")

	qb := repository.NewQueryBuilder()
	if filter.PartID != nil {
		qb.AddCondition("part_id", *filter.PartID)
	}
	if filter.BuildingID != nil {
		qb.AddCondition("building_id", *filter.BuildingID)
	}
	qb.AddTimeRange("issued_at", filter.From, filter.To)
	if qb.HasConditions() {
		query = query.Where(qb.BuildConditions(nil))
	}
	if filter.IssuedTo != "" {
		query = query.Where(goqu.C("issued_to").ILike("%" + filter.IssuedTo + "%"))
	}

	issuances := []models.Issuance{}
	err := query.Order(goqu.C("issued_at").Desc(), goqu.C("id").Desc()).ScanStructsContext(ctx, &issuances)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuances: %w", err)
	}
	return issuances, nil
}
