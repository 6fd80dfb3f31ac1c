package deliveries

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
	InsertDelivery(ctx context.Context, delivery *models.Delivery) (int, error)
	GetDelivery(ctx context.Context, id int) (*models.Delivery, error)
	GetDeliveryForUpdate(ctx context.Context, id int) (*models.Delivery, error)
	UpdateDelivery(ctx context.Context, delivery *models.Delivery) error
	DeleteDelivery(ctx context.Context, id int) (bool, error)
	ListDeliveries(ctx context.Context, filter models.DeliveryFilter) ([]models.Delivery, error)
}

type DeliveryRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *DeliveryRepository {
	return &DeliveryRepository{repository: r}
}

func deliveryRecord(d *models.Delivery) goqu.Record {
	return goqu.Record{
		"part_id":         d.PartID,
		"quantity":        d.Quantity,
		"staff_member_id": d.StaffMemberID,
		"cost_center_id":  d.CostCenterID,
		"building_id":     d.BuildingID,
		"delivered_by_id": d.DeliveredByID,
		"unit_cost":       d.UnitCost.String(),
		"signature":       d.Signature,
		"status":          string(d.Status),
		"delivered_at":    d.DeliveredAt,
		"confirmed_at":    d.ConfirmedAt,
		"project_code":    d.ProjectCode,
		"notes":           d.Notes,
	}
}

func (r *DeliveryRepository) InsertDelivery(ctx context.Context, delivery *models.Delivery) (int, error) {
	var id int
	_, err := r.repository.Executor(ctx).Insert("parts_delivery").
		Rows(deliveryRecord(delivery)).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert delivery: %w", custom_error.FromPQ(err))
	}
	return id, nil
}

func (r *DeliveryRepository) GetDelivery(ctx context.Context, id int) (*models.Delivery, error) {
	return r.get(ctx, id, false)
}

func (r *DeliveryRepository) GetDeliveryForUpdate(ctx context.Context, id int) (*models.Delivery, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}
	return r.get(ctx, id, true)
}

func (r *DeliveryRepository) get(ctx context.Context, id int, lock bool) (*models.Delivery, error) {
	query := r.repository.Executor(ctx).From("parts_delivery").Where(goqu.Ex{"id": id})
	if lock {
		query = query.ForUpdate(exp.Wait)
	}

	var delivery models.Delivery
	found, err := query.ScanStructContext(ctx, &delivery)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery %d: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("delivery", id)
	}
	return &delivery, nil
}

func (r *DeliveryRepository) UpdateDelivery(ctx context.Context, delivery *models.Delivery) error {
	res, err := r.repository.Executor(ctx).Update("parts_delivery").
		Set(deliveryRecord(delivery)).
		Where(goqu.Ex{"id": delivery.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update delivery %d: %w", delivery.ID, custom_error.FromPQ(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return custom_error.NewNotFound("delivery", delivery.ID)
	}
	return nil
}

func (r *DeliveryRepository) DeleteDelivery(ctx context.Context, id int) (bool, error) {
	res, err := r.repository.Executor(ctx).Delete("parts_delivery").
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete delivery %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *DeliveryRepository) ListDeliveries(ctx context.Context, filter models.DeliveryFilter) ([]models.Delivery, error) {
	query := r.repository.Executor(ctx).From("parts_delivery")

	qb := repository.NewQueryBuilder()
	if filter.StaffMemberID != nil {
		qb.AddCondition("staff_member_id", *filter.StaffMemberID)
	}
	if filter.PartID != nil {
		qb.AddCondition("part_id", *filter.PartID)
	}
	if filter.Status != nil {
		qb.AddCondition("status", string(*filter.Status))
	}
	qb.AddTimeRange("delivered_at", filter.From, filter.To)
	if qb.HasConditions() {
		query = query.Where(qb.BuildConditions(nil))
	}

	deliveries := []models.Delivery{}
	err := query.Order(goqu.C("delivered_at").Desc(), goqu.C("id").Desc()).ScanStructsContext(ctx, &deliveries)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}
