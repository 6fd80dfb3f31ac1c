package tools

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"go.uber.org/zap"
)

// Technicians resolves the user a tool is signed out to.
type Technicians interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

type Service struct {
	repo        Repository
	tx          repository.Transactor
	technicians Technicians
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(repo Repository, tx repository.Transactor, technicians Technicians, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		tx:          tx,
		technicians: technicians,
		logger:      logger,
		now:         time.Now,
	}
}

// NextToolNumber returns the smallest positive number no tool uses.
func (s *Service) NextToolNumber(ctx context.Context) (int, error) {
	numbers, err := s.repo.ListToolNumbers(ctx)
	if err != nil {
		return 0, err
	}
	return firstGap(numbers), nil
}

func firstGap(sorted []int) int {
	next := 1
	for _, n := range sorted {
		if n < next {
			continue
		}
		if n > next {
			break
		}
		next++
	}
	return next
}

func (s *Service) GetTool(ctx context.Context, id int) (*models.Tool, error) {
	tool, err := s.repo.GetTool(ctx, id)
	if err != nil {
		return nil, err
	}
	available, err := s.IsAvailable(ctx, id)
	if err != nil {
		return nil, err
	}
	tool.Available = available
	return tool, nil
}

// IsAvailable reports whether the tool has no open signout. Inactive tools
// are refused by SignOut, not here.
func (s *Service) IsAvailable(ctx context.Context, toolID int) (bool, error) {
	if _, err := s.repo.GetTool(ctx, toolID); err != nil {
		return false, err
	}
	_, err := s.repo.FindOpenSignout(ctx, toolID)
	if custom_error.IsNotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *Service) ListTools(ctx context.Context) ([]models.Tool, error) {
	tools, err := s.repo.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.repo.ListOpenToolIDs(ctx)
	if err != nil {
		return nil, err
	}

	checkedOut := make(map[int]struct{}, len(open))
	for _, id := range open {
		checkedOut[id] = struct{}{}
	}
	for i := range tools {
		_, busy := checkedOut[tools[i].ID]
		tools[i].Available = !busy
	}
	return tools, nil
}

// CreateTool allocates the next free tool number inside the transaction
// unless the request names one.
func (s *Service) CreateTool(ctx context.Context, req CreateToolRequest) (*models.Tool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, custom_error.NewValidation("name", "is required")
	}
	if req.ToolNumber != nil && *req.ToolNumber <= 0 {
		return nil, custom_error.NewValidation("tool_number", "must be a positive number")
	}

	tool := &models.Tool{Name: name, Notes: req.Notes, Active: true}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if req.ToolNumber != nil {
			tool.ToolNumber = *req.ToolNumber
		} else {
			number, err := s.NextToolNumber(ctx)
			if err != nil {
				return err
			}
			tool.ToolNumber = number
		}

		id, err := s.repo.InsertTool(ctx, tool)
		if err != nil {
			return err
		}
		tool.ID = id
		return nil
	})
	if err != nil {
		s.logFailure("create tool", err, zap.String("name", name))
		return nil, err
	}

	tool.Available = true
	return tool, nil
}

func (s *Service) UpdateTool(ctx context.Context, id int, req UpdateToolRequest) (*models.Tool, error) {
	if req.ToolNumber != nil && *req.ToolNumber <= 0 {
		return nil, custom_error.NewValidation("tool_number", "must be a positive number")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, custom_error.NewValidation("name", "cannot be empty")
	}

	var tool *models.Tool
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetToolForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.ToolNumber != nil {
			current.ToolNumber = *req.ToolNumber
		}
		if req.Name != nil {
			current.Name = strings.TrimSpace(*req.Name)
		}
		if req.Notes != nil {
			current.Notes = req.Notes
		}
		if req.Active != nil {
			current.Active = *req.Active
		}
		if err := s.repo.UpdateTool(ctx, current); err != nil {
			return err
		}
		tool = current
		return nil
	})
	if err != nil {
		s.logFailure("update tool", err, zap.Int("tool_id", id))
		return nil, err
	}

	available, err := s.IsAvailable(ctx, id)
	if err != nil {
		return nil, err
	}
	tool.Available = available
	return tool, nil
}

// DeleteTool removes a tool and its signout history. A tool that is still
// checked out cannot be deleted.
func (s *Service) DeleteTool(ctx context.Context, id int) (bool, error) {
	deleted := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetToolForUpdate(ctx, id); err != nil {
			if custom_error.IsNotFound(err) {
				return nil
			}
			return err
		}

		_, err := s.repo.FindOpenSignout(ctx, id)
		if err == nil {
			return &custom_error.ToolCheckedOutError{ToolID: id}
		}
		if !custom_error.IsNotFound(err) {
			return err
		}

		deleted, err = s.repo.DeleteTool(ctx, id)
		return err
	})
	if err != nil {
		s.logFailure("delete tool", err, zap.Int("tool_id", id))
		return false, err
	}
	return deleted, nil
}

// SignOut hands the tool to a technician. The tool row stays locked between
// the availability check and the insert.
func (s *Service) SignOut(ctx context.Context, toolID int, req SignOutRequest) (*models.ToolSignout, error) {
	var signout *models.ToolSignout
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		tool, err := s.repo.GetToolForUpdate(ctx, toolID)
		if err != nil {
			return err
		}
		if !tool.Active {
			return &custom_error.ToolUnavailableError{ToolID: toolID}
		}
		technician, err := s.technicians.GetUser(ctx, req.TechnicianID)
		if err != nil {
			return err
		}
		if roles.Role(technician.Role) != roles.Technician {
			return custom_error.NewValidation("technician_id", "user is not a technician")
		}

		_, err = s.repo.FindOpenSignout(ctx, toolID)
		if err == nil {
			return &custom_error.ToolUnavailableError{ToolID: toolID}
		}
		if !custom_error.IsNotFound(err) {
			return err
		}

		row := &models.ToolSignout{
			ToolID:       toolID,
			TechnicianID: req.TechnicianID,
			Status:       metadata.SignoutCheckedOut,
			SignedOutAt:  s.now(),
			Notes:        req.Notes,
		}
		id, err := s.repo.InsertSignout(ctx, row)
		if err != nil {
			if custom_error.IsUniqueViolation(err) {
				return &custom_error.ToolUnavailableError{ToolID: toolID}
			}
			return err
		}
		row.ID = id
		signout = row
		return nil
	})
	if err != nil {
		s.logFailure("sign out tool", err, zap.Int("tool_id", toolID), zap.Int("technician_id", req.TechnicianID))
		return nil, err
	}
	return signout, nil
}

// Return closes a signout with a final status. ReturnedAt is stamped the
// first time only, so correcting the status of a returned tool keeps the
// original return time.
func (s *Service) Return(ctx context.Context, signoutID int, req ReturnRequest) (*models.ToolSignout, error) {
	status, err := metadata.NewSignoutStatus(req.Status)
	if err != nil || !status.IsReturn() {
		return nil, custom_error.NewValidation("status", "must be one of returned, damaged, missing")
	}

	var signout *models.ToolSignout
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetSignoutForUpdate(ctx, signoutID)
		if err != nil {
			return err
		}

		current.Status = status
		if current.ReturnedAt == nil {
			now := s.now()
			current.ReturnedAt = &now
		}
		if req.Condition != nil {
			current.Condition = req.Condition
		}
		if req.Notes != nil {
			current.Notes = req.Notes
		}

		if err := s.repo.UpdateSignout(ctx, current); err != nil {
			return err
		}
		signout = current
		return nil
	})
	if err != nil {
		s.logFailure("return tool", err, zap.Int("signout_id", signoutID))
		return nil, err
	}
	return signout, nil
}

func (s *Service) ListSignouts(ctx context.Context, filter models.SignoutFilter) ([]models.ToolSignout, error) {
	return s.repo.ListSignouts(ctx, filter)
}

func (s *Service) logFailure(operation string, err error, fields ...zap.Field) {
	if custom_error.HTTPStatus(err) != http.StatusInternalServerError {
		return
	}
	fields = append(fields, zap.String("operation", operation), zap.Error(err))
	s.logger.Error("transaction failure", fields...)
}
