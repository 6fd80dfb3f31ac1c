package deliveries

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/inventory/parts"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"go.uber.org/zap"
)

type PartStore interface {
	LockParts(ctx context.Context, ids ...int) (map[int]*models.Part, error)
	AdjustQuantity(ctx context.Context, partID int, delta int) (*models.Part, error)
	CheckLines(ctx context.Context, lines []parts.Line) (map[int]*models.Part, error)
	PartsByIDs(ctx context.Context, ids []int) ([]models.Part, error)
}

type Directory interface {
	GetStaffMember(ctx context.Context, id int) (*models.StaffMember, error)
	ListStaffMembersByIDs(ctx context.Context, ids []int) ([]models.StaffMember, error)
	ListBuildingsByIDs(ctx context.Context, ids []int) ([]models.Building, error)
	ListCostCentersByIDs(ctx context.Context, ids []int) ([]models.CostCenter, error)
}

type UserDirectory interface {
	ListUsersByIDs(ctx context.Context, ids []int) ([]models.User, error)
}

// Notifier is told about confirmed deliveries. Failures never affect the delivery.
type Notifier interface {
	DeliveryConfirmed(ctx context.Context, detail models.DeliveryDetail) error
}

type Service struct {
	repo      Repository
	tx        repository.Transactor
	parts     PartStore
	directory Directory
	users     UserDirectory
	notifier  Notifier
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

func NewService(
	repo Repository,
	tx repository.Transactor,
	parts PartStore,
	directory Directory,
	users UserDirectory,
	notifier Notifier,
	logger *zap.Logger,
	location *time.Location,
) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		parts:     parts,
		directory: directory,
		users:     users,
		notifier:  notifier,
		logger:    logger,
		location:  location,
		now:       time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id int) (*models.Delivery, error) {
	return s.repo.GetDelivery(ctx, id)
}

// Create deducts stock, freezes the part's current unit cost on the row and
// leaves the delivery pending until the recipient signs.
func (s *Service) Create(ctx context.Context, req CreateDeliveryRequest, deliveredBy *int) (*models.Delivery, error) {
	if req.Quantity <= 0 {
		return nil, custom_error.NewValidation("quantity", "must be greater than zero")
	}

	delivery := &models.Delivery{
		PartID:        req.PartID,
		Quantity:      req.Quantity,
		StaffMemberID: req.StaffMemberID,
		CostCenterID:  req.CostCenterID,
		BuildingID:    req.BuildingID,
		DeliveredByID: deliveredBy,
		Status:        metadata.DeliveryPending,
		DeliveredAt:   s.clientTimeOrNow(req.DeliveredAt),
		ProjectCode:   req.ProjectCode,
		Notes:         req.Notes,
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.directory.GetStaffMember(ctx, req.StaffMemberID); err != nil {
			return err
		}

		part, err := s.parts.AdjustQuantity(ctx, req.PartID, -req.Quantity)
		if err != nil {
			return err
		}
		delivery.UnitCost = part.UnitCost

		id, err := s.repo.InsertDelivery(ctx, delivery)
		if err != nil {
			return err
		}
		delivery.ID = id
		return nil
	})
	if err != nil {
		s.logFailure("create delivery", err, zap.Int("part_id", req.PartID), zap.Int("staff_member_id", req.StaffMemberID))
		return nil, err
	}

	return delivery, nil
}

// CreateBatch records several deliveries to one staff member in a single
// transaction. Lines are validated together before any stock moves.
func (s *Service) CreateBatch(ctx context.Context, req BatchDeliveryRequest, deliveredBy *int) ([]models.Delivery, error) {
	if len(req.Lines) == 0 {
		return nil, custom_error.NewValidation("lines", "at least one line is required")
	}

	deliveredAt := s.clientTimeOrNow(req.DeliveredAt)
	lines := make([]parts.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = parts.Line{PartID: l.PartID, Quantity: l.Quantity}
	}

	created := make([]models.Delivery, 0, len(req.Lines))
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.directory.GetStaffMember(ctx, req.StaffMemberID); err != nil {
			return err
		}
		if _, err := s.parts.CheckLines(ctx, lines); err != nil {
			return err
		}

		for _, l := range req.Lines {
			part, err := s.parts.AdjustQuantity(ctx, l.PartID, -l.Quantity)
			if err != nil {
				return err
			}
			delivery := models.Delivery{
				PartID:        l.PartID,
				Quantity:      l.Quantity,
				StaffMemberID: req.StaffMemberID,
				CostCenterID:  req.CostCenterID,
				BuildingID:    req.BuildingID,
				DeliveredByID: deliveredBy,
				UnitCost:      part.UnitCost,
				Status:        metadata.DeliveryPending,
				DeliveredAt:   deliveredAt,
				ProjectCode:   req.ProjectCode,
				Notes:         l.Notes,
			}
			id, err := s.repo.InsertDelivery(ctx, &delivery)
			if err != nil {
				return err
			}
			delivery.ID = id
			created = append(created, delivery)
		}
		return nil
	})
	if err != nil {
		s.logFailure("create delivery batch", err, zap.Int("staff_member_id", req.StaffMemberID), zap.Int("lines", len(req.Lines)))
		return nil, err
	}

	return created, nil
}

// Confirm marks a pending delivery as delivered. Stock is not touched. The
// notifier runs after commit in its own goroutine.
func (s *Service) Confirm(ctx context.Context, id int, signature *string) (*models.Delivery, error) {
	var delivery *models.Delivery
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetDeliveryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.transition(current, metadata.DeliveryDelivered, nil); err != nil {
			return err
		}
		if signature != nil && strings.TrimSpace(*signature) != "" {
			current.Signature = signature
		}
		if err := s.repo.UpdateDelivery(ctx, current); err != nil {
			return err
		}
		delivery = current
		return nil
	})
	if err != nil {
		s.logFailure("confirm delivery", err, zap.Int("delivery_id", id))
		return nil, err
	}

	go s.notifyConfirmed(delivery.ID)

	return delivery, nil
}

// Cancel marks a pending delivery as cancelled. Stock stays deducted; deleting
// the delivery is the way to return it.
func (s *Service) Cancel(ctx context.Context, id int) (*models.Delivery, error) {
	var delivery *models.Delivery
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetDeliveryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.transition(current, metadata.DeliveryCancelled, nil); err != nil {
			return err
		}
		if err := s.repo.UpdateDelivery(ctx, current); err != nil {
			return err
		}
		delivery = current
		return nil
	})
	if err != nil {
		s.logFailure("cancel delivery", err, zap.Int("delivery_id", id))
		return nil, err
	}
	return delivery, nil
}

// Update applies the patch with restore-then-deduct semantics for part and
// quantity changes. Status changes go through the same state machine as
// Confirm and Cancel.
func (s *Service) Update(ctx context.Context, id int, req UpdateDeliveryRequest) (*models.Delivery, error) {
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, custom_error.NewValidation("quantity", "must be greater than zero")
	}
	deliveredAt, err := s.parseOptionalTime("delivered_at", req.DeliveredAt)
	if err != nil {
		return nil, err
	}
	confirmedAt, err := s.parseOptionalTime("confirmed_at", req.ConfirmedAt)
	if err != nil {
		return nil, err
	}
	var status *metadata.DeliveryStatus
	if req.Status != nil {
		st, err := metadata.NewDeliveryStatus(*req.Status)
		if err != nil {
			return nil, custom_error.NewValidation("status", err.Error())
		}
		status = &st
	}

	var delivery *models.Delivery
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetDeliveryForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.StaffMemberID != nil && *req.StaffMemberID != current.StaffMemberID {
			if _, err := s.directory.GetStaffMember(ctx, *req.StaffMemberID); err != nil {
				return err
			}
			current.StaffMemberID = *req.StaffMemberID
		}

		newPartID := current.PartID
		if req.PartID != nil {
			newPartID = *req.PartID
		}
		newQuantity := current.Quantity
		if req.Quantity != nil {
			newQuantity = *req.Quantity
		}

		if newPartID != current.PartID || newQuantity != current.Quantity {
			if _, err := s.parts.LockParts(ctx, current.PartID, newPartID); err != nil {
				return err
			}
			if _, err := s.parts.AdjustQuantity(ctx, current.PartID, current.Quantity); err != nil {
				return err
			}
			part, err := s.parts.AdjustQuantity(ctx, newPartID, -newQuantity)
			if err != nil {
				return err
			}
			if newPartID != current.PartID {
				current.UnitCost = part.UnitCost
			}
			current.PartID = newPartID
			current.Quantity = newQuantity
		}

		if status != nil && *status != current.Status {
			if err := s.transition(current, *status, confirmedAt); err != nil {
				return err
			}
		} else if confirmedAt != nil {
			if current.Status != metadata.DeliveryDelivered {
				return custom_error.NewValidation("confirmed_at", "only delivered deliveries carry a confirmation time")
			}
			current.ConfirmedAt = confirmedAt
		}

		if deliveredAt != nil {
			current.DeliveredAt = *deliveredAt
		}
		if req.CostCenterID != nil {
			current.CostCenterID = req.CostCenterID
		}
		if req.BuildingID != nil {
			current.BuildingID = req.BuildingID
		}
		if req.Signature != nil {
			current.Signature = req.Signature
		}
		if req.ProjectCode != nil {
			current.ProjectCode = req.ProjectCode
		}
		if req.Notes != nil {
			current.Notes = req.Notes
		}

		if err := s.repo.UpdateDelivery(ctx, current); err != nil {
			return err
		}
		delivery = current
		return nil
	})
	if err != nil {
		s.logFailure("update delivery", err, zap.Int("delivery_id", id))
		return nil, err
	}

	if status != nil && *status == metadata.DeliveryDelivered {
		go s.notifyConfirmed(delivery.ID)
	}
	return delivery, nil
}

// Delete returns the delivered quantity to stock and removes the row,
// whatever the delivery's status. It reports false when nothing was deleted.
func (s *Service) Delete(ctx context.Context, id int) (bool, error) {
	deleted := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetDeliveryForUpdate(ctx, id)
		if err != nil {
			if custom_error.IsNotFound(err) {
				return nil
			}
			return err
		}

		if _, err := s.parts.AdjustQuantity(ctx, current.PartID, current.Quantity); err != nil {
			return err
		}
		deleted, err = s.repo.DeleteDelivery(ctx, id)
		return err
	})
	if err != nil {
		s.logFailure("delete delivery", err, zap.Int("delivery_id", id))
		return false, err
	}
	return deleted, nil
}

func (s *Service) transition(d *models.Delivery, to metadata.DeliveryStatus, confirmedAt *time.Time) error {
	if !d.Status.CanTransitionTo(to) {
		return &custom_error.InvalidTransitionError{From: string(d.Status), To: string(to)}
	}
	d.Status = to
	if to == metadata.DeliveryDelivered {
		at := s.now()
		if confirmedAt != nil {
			at = *confirmedAt
		}
		d.ConfirmedAt = &at
	}
	return nil
}

func (s *Service) notifyConfirmed(id int) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	detail, err := s.GetWithDetails(ctx, id)
	if err != nil {
		s.logger.Warn("Unable to load delivery for notification", zap.Int("delivery_id", id), zap.Error(err))
		return
	}
	if err := s.notifier.DeliveryConfirmed(ctx, *detail); err != nil {
		s.logger.Warn("Delivery notification failed", zap.Int("delivery_id", id), zap.Error(err))
	}
}

func (s *Service) parseOptionalTime(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := metadata.ParseFlexibleTime(*value, s.location)
	if err != nil {
		return nil, custom_error.NewValidation(field, err.Error())
	}
	return &t, nil
}

func (s *Service) clientTimeOrNow(value *string) time.Time {
	if value != nil {
		if t, err := metadata.ParseFlexibleTime(*value, s.location); err == nil {
			return t
		}
		s.logger.Debug("Ignoring unparsable client timestamp", zap.String("value", *value))
	}
	return s.now()
}

func (s *Service) logFailure(operation string, err error, fields ...zap.Field) {
	if custom_error.HTTPStatus(err) != http.StatusInternalServerError {
		return
	}
	fields = append(fields, zap.String("operation", operation), zap.Error(err))
	s.logger.Error("transaction failure", fields...)
}
