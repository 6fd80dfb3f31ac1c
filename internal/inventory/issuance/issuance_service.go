package issuance

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

// PartStore is the slice of the part record store the ledger needs.
type PartStore interface {
	LockParts(ctx context.Context, ids ...int) (map[int]*models.Part, error)
	AdjustQuantity(ctx context.Context, partID int, delta int) (*models.Part, error)
	CheckLines(ctx context.Context, lines []parts.Line) (map[int]*models.Part, error)
}

type Service struct {
	repo     Repository
	tx       repository.Transactor
	parts    PartStore
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

func NewService(repo Repository, tx repository.Transactor, parts PartStore, logger *zap.Logger, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		repo:     repo,
		tx:       tx,
		parts:    parts,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id int) (*models.Issuance, error) {
	return s.repo.GetIssuance(ctx, id)
}

func (s *Service) List(ctx context.Context, filter models.IssuanceFilter) ([]models.Issuance, error) {
	return s.repo.ListIssuances(ctx, filter)
}

// Create deducts stock and records the charge-out in one transaction.
func (s *Service) Create(ctx context.Context, req CreateIssuanceRequest, issuedBy *int) (*models.Issuance, error) {
	if req.Quantity <= 0 {
		return nil, custom_error.NewValidation("quantity", "must be greater than zero")
	}
	reason, err := s.validateHeader(req.IssuedTo, req.Reason)
	if err != nil {
		return nil, err
	}

	issuance := &models.Issuance{
		PartID:       req.PartID,
		Quantity:     req.Quantity,
		IssuedTo:     strings.TrimSpace(req.IssuedTo),
		Reason:       reason,
		IssuedAt:     s.clientTimeOrNow(req.IssuedAt),
		IssuedBy:     issuedBy,
		BuildingID:   req.BuildingID,
		CostCenterID: req.CostCenterID,
		Department:   req.Department,
		ProjectCode:  req.ProjectCode,
		Notes:        req.Notes,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.parts.AdjustQuantity(ctx, issuance.PartID, -issuance.Quantity); err != nil {
			return err
		}
		id, err := s.repo.InsertIssuance(ctx, issuance)
		if err != nil {
			return err
		}
		issuance.ID = id
		return nil
	})
	if err != nil {
		s.logFailure("create issuance", err, zap.Int("part_id", req.PartID), zap.Int("quantity", req.Quantity))
		return nil, err
	}

	return issuance, nil
}

// CreateBulk validates every line before touching stock. Any bad line rejects
// the whole request with a BulkError.
func (s *Service) CreateBulk(ctx context.Context, req BulkIssuanceRequest, issuedBy *int) ([]models.Issuance, error) {
	if len(req.Lines) == 0 {
		return nil, custom_error.NewValidation("lines", "at least one line is required")
	}
	reason, err := s.validateHeader(req.IssuedTo, req.Reason)
	if err != nil {
		return nil, err
	}

	issuedAt := s.clientTimeOrNow(req.IssuedAt)
	lines := make([]parts.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = parts.Line{PartID: l.PartID, Quantity: l.Quantity}
	}

	created := make([]models.Issuance, 0, len(req.Lines))
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.parts.CheckLines(ctx, lines); err != nil {
			return err
		}

		for _, l := range req.Lines {
			if _, err := s.parts.AdjustQuantity(ctx, l.PartID, -l.Quantity); err != nil {
				return err
			}
			issuance := models.Issuance{
				PartID:       l.PartID,
				Quantity:     l.Quantity,
				IssuedTo:     strings.TrimSpace(req.IssuedTo),
				Reason:       reason,
				IssuedAt:     issuedAt,
				IssuedBy:     issuedBy,
				BuildingID:   req.BuildingID,
				CostCenterID: req.CostCenterID,
				Department:   req.Department,
				ProjectCode:  req.ProjectCode,
				Notes:        l.Notes,
			}
			id, err := s.repo.InsertIssuance(ctx, &issuance)
			if err != nil {
				return err
			}
			issuance.ID = id
			created = append(created, issuance)
		}
		return nil
	})
	if err != nil {
		s.logFailure("create bulk issuance", err, zap.Int("lines", len(req.Lines)))
		return nil, err
	}

	return created, nil
}

// Update applies the patch. When the part or quantity changes, the old
// quantity goes back to the old part before the new quantity is taken.
func (s *Service) Update(ctx context.Context, id int, req UpdateIssuanceRequest) (*models.Issuance, error) {
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, custom_error.NewValidation("quantity", "must be greater than zero")
	}
	if req.IssuedTo != nil && strings.TrimSpace(*req.IssuedTo) == "" {
		return nil, custom_error.NewValidation("issued_to", "must not be empty")
	}
	var reason *metadata.IssuanceReason
	if req.Reason != nil {
		r, err := metadata.NewIssuanceReason(*req.Reason)
		if err != nil {
			return nil, custom_error.NewValidation("reason", err.Error())
		}
		reason = &r
	}
	var issuedAt *time.Time
	if req.IssuedAt != nil {
		t, err := metadata.ParseFlexibleTime(*req.IssuedAt, s.location)
		if err != nil {
			return nil, custom_error.NewValidation("issued_at", err.Error())
		}
		issuedAt = &t
	}

	var issuance *models.Issuance
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetIssuanceForUpdate(ctx, id)
		if err != nil {
			return err
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
			if _, err := s.parts.AdjustQuantity(ctx, newPartID, -newQuantity); err != nil {
				return err
			}
		}

		current.PartID = newPartID
		current.Quantity = newQuantity
		if req.IssuedTo != nil {
			current.IssuedTo = strings.TrimSpace(*req.IssuedTo)
		}
		if reason != nil {
			current.Reason = *reason
		}
		if issuedAt != nil {
			current.IssuedAt = *issuedAt
		}
		if req.BuildingID != nil {
			current.BuildingID = req.BuildingID
		}
		if req.CostCenterID != nil {
			current.CostCenterID = req.CostCenterID
		}
		if req.Department != nil {
			current.Department = req.Department
		}
		if req.ProjectCode != nil {
			current.ProjectCode = req.ProjectCode
		}
		if req.Notes != nil {
			current.Notes = req.Notes
		}

		if err := s.repo.UpdateIssuance(ctx, current); err != nil {
			return err
		}
		issuance = current
		return nil
	})
	if err != nil {
		s.logFailure("update issuance", err, zap.Int("issuance_id", id))
		return nil, err
	}

	return issuance, nil
}

// Delete returns the issued quantity to stock and removes the row. It
// reports false when there was nothing to delete.
func (s *Service) Delete(ctx context.Context, id int) (bool, error) {
	deleted := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetIssuanceForUpdate(ctx, id)
		if err != nil {
			if custom_error.IsNotFound(err) {
				return nil
			}
			return err
		}

		if _, err := s.parts.AdjustQuantity(ctx, current.PartID, current.Quantity); err != nil {
			return err
		}
		deleted, err = s.repo.DeleteIssuance(ctx, id)
		return err
	})
	if err != nil {
		s.logFailure("delete issuance", err, zap.Int("issuance_id", id))
		return false, err
	}
	return deleted, nil
}

func (s *Service) validateHeader(issuedTo, rawReason string) (metadata.IssuanceReason, error) {
	if strings.TrimSpace(issuedTo) == "" {
		return "", custom_error.NewValidation("issued_to", "must not be empty")
	}
	reason, err := metadata.NewIssuanceReason(rawReason)
	if err != nil {
		return "", custom_error.NewValidation("reason", err.Error())
	}
	return reason, nil
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
