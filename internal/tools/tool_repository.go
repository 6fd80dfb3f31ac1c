package tools

import (
	"context"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type Repository interface {
	InsertTool(ctx context.Context, tool *models.Tool) (int, error)
	GetTool(ctx context.Context, id int) (*models.Tool, error)
	// GetToolForUpdate locks the tool row; signouts of a tool are serialised on it.
	GetToolForUpdate(ctx context.Context, id int) (*models.Tool, error)
	UpdateTool(ctx context.Context, tool *models.Tool) error
	DeleteTool(ctx context.Context, id int) (bool, error)
	ListTools(ctx context.Context) ([]models.Tool, error)
	ListToolNumbers(ctx context.Context) ([]int, error)

	InsertSignout(ctx context.Context, signout *models.ToolSignout) (int, error)
	GetSignout(ctx context.Context, id int) (*models.ToolSignout, error)
	GetSignoutForUpdate(ctx context.Context, id int) (*models.ToolSignout, error)
	UpdateSignout(ctx context.Context, signout *models.ToolSignout) error
	FindOpenSignout(ctx context.Context, toolID int) (*models.ToolSignout, error)
	ListOpenToolIDs(ctx context.Context) ([]int, error)
	ListSignouts(ctx context.Context, filter models.SignoutFilter) ([]models.ToolSignout, error)
}

type ToolRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ToolRepository {
	return &ToolRepository{repository: r}
}

func (r *ToolRepository) InsertTool(ctx context.Context, tool *models.Tool) (int, error) {
	var id int
	_, err := r.repository.Executor(ctx).Insert("tools").
		Rows(goqu.Record{
			"tool_number": tool.ToolNumber,
			"name":        tool.Name,
			"notes":       tool.Notes,
			"active":      tool.Active,
		}).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tool: %w", custom_error.FromPQ(err))
	}
	return id, nil
}

func (r *ToolRepository) GetTool(ctx context.Context, id int) (*models.Tool, error) {
	return r.getTool(ctx, id, false)
}

func (r *ToolRepository) GetToolForUpdate(ctx context.Context, id int) (*models.Tool, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}
	return r.getTool(ctx, id, true)
}

func (r *ToolRepository) getTool(ctx context.Context, id int, lock bool) (*models.Tool, error) {
	query := r.repository.Executor(ctx).From("tools").
		Select("id", "tool_number", "name", "notes", "active").
		Where(goqu.Ex{"id": id})
	if lock {
		query = query.ForUpdate(exp.Wait)
	}

	var tool models.Tool
	found, err := query.ScanStructContext(ctx, &tool)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool %d: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("tool", id)
	}
	return &tool, nil
}

func (r *ToolRepository) UpdateTool(ctx context.Context, tool *models.Tool) error {
	res, err := r.repository.Executor(ctx).Update("tools").
		Set(goqu.Record{
			"tool_number": tool.ToolNumber,
			"name":        tool.Name,
			"notes":       tool.Notes,
			"active":      tool.Active,
		}).
		Where(goqu.Ex{"id": tool.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update tool %d: %w", tool.ID, custom_error.FromPQ(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return custom_error.NewNotFound("tool", tool.ID)
	}
	return nil
}

// DeleteTool relies on ON DELETE CASCADE to drop the signout history.
func (r *ToolRepository) DeleteTool(ctx context.Context, id int) (bool, error) {
	res, err := r.repository.Executor(ctx).Delete("tools").
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete tool %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ToolRepository) ListTools(ctx context.Context) ([]models.Tool, error) {
	tools := []models.Tool{}
	err := r.repository.Executor(ctx).From("tools").
		Select("id", "tool_number", "name", "notes", "active").
		Order(goqu.C("tool_number").Asc()).
		ScanStructsContext(ctx, &tools)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return tools, nil
}

func (r *ToolRepository) ListToolNumbers(ctx context.Context) ([]int, error) {
	numbers := []int{}
	err := r.repository.Executor(ctx).From("tools").
		Select("tool_number").
		Order(goqu.C("tool_number").Asc()).
		ScanValsContext(ctx, &numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool numbers: %w", err)
	}
	return numbers, nil
}

func signoutRecord(s *models.ToolSignout) goqu.Record {
	return goqu.Record{
		"tool_id":       s.ToolID,
		"technician_id": s.TechnicianID,
		"status":        string(s.Status),
		"signed_out_at": s.SignedOutAt,
		"returned_at":   s.ReturnedAt,
		"condition":     s.Condition,
		"notes":         s.Notes,
	}
}

func (r *ToolRepository) InsertSignout(ctx context.Context, signout *models.ToolSignout) (int, error) {
	var id int
	_, err := r.repository.Executor(ctx).Insert("tool_signouts").
		Rows(signoutRecord(signout)).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert signout: %w", custom_error.FromPQ(err))
	}
	return id, nil
}

func (r *ToolRepository) GetSignout(ctx context.Context, id int) (*models.ToolSignout, error) {
	return r.getSignout(ctx, goqu.Ex{"id": id}, false, "signout", id)
}

func (r *ToolRepository) GetSignoutForUpdate(ctx context.Context, id int) (*models.ToolSignout, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}
	return r.getSignout(ctx, goqu.Ex{"id": id}, true, "signout", id)
}

func (r *ToolRepository) FindOpenSignout(ctx context.Context, toolID int) (*models.ToolSignout, error) {
	where := goqu.Ex{"tool_id": toolID, "status": string(metadata.SignoutCheckedOut)}
	return r.getSignout(ctx, where, false, "open signout for tool", toolID)
}

func (r *ToolRepository) getSignout(ctx context.Context, where goqu.Ex, lock bool, resource string, key int) (*models.ToolSignout, error) {
	query := r.repository.Executor(ctx).From("tool_signouts").Where(where)
	if lock {
		query = query.ForUpdate(exp.Wait)
	}

	var signout models.ToolSignout
	found, err := query.ScanStructContext(ctx, &signout)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", resource, key, err)
	}
	if !found {
		return nil, custom_error.NewNotFound(resource, key)
	}
	return &signout, nil
}

func (r *ToolRepository) UpdateSignout(ctx context.Context, signout *models.ToolSignout) error {
	res, err := r.repository.Executor(ctx).Update("tool_signouts").
		Set(signoutRecord(signout)).
		Where(goqu.Ex{"id": signout.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update signout %d: %w", signout.ID, custom_error.FromPQ(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return custom_error.NewNotFound("signout", signout.ID)
	}
	return nil
}

func (r *ToolRepository) ListOpenToolIDs(ctx context.Context) ([]int, error) {
	ids := []int{}
	err := r.repository.Executor(ctx).From("tool_signouts").
		Select("tool_id").
		Where(goqu.Ex{"status": string(metadata.SignoutCheckedOut)}).
		Order(goqu.C("tool_id").Asc()).
		ScanValsContext(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list open signouts: %w", err)
	}
	return ids, nil
}

func (r *ToolRepository) ListSignouts(ctx context.Context, filter models.SignoutFilter) ([]models.ToolSignout, error) {
	query := r.repository.Executor(ctx).From("tool_signouts")

	qb := repository.NewQueryBuilder()
	if filter.ToolID != nil {
		qb.AddCondition("tool_id", *filter.ToolID)
	}
	if filter.TechnicianID != nil {
		qb.AddCondition("technician_id", *filter.TechnicianID)
	}
	if filter.Status != nil {
		qb.AddCondition("status", string(*filter.Status))
	}
	if qb.HasConditions() {
		query = query.Where(qb.BuildConditions(nil))
	}

	signouts := []models.ToolSignout{}
	err := query.Order(goqu.C("signed_out_at").Desc(), goqu.C("id").Desc()).ScanStructsContext(ctx, &signouts)
	if err != nil {
		return nil, fmt.Errorf("failed to list signouts: %w", err)
	}
	return signouts, nil
}
