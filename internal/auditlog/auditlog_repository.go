package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/doug-martin/goqu/v9"
)

type Repository interface {
	PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error
	GetResourceLog(ctx context.Context, id int, resourceType string) ([]models.AuditLog, error)
}

type AuditLogRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AuditLogRepository {
	return &AuditLogRepository{repository: r}
}

func (r *AuditLogRepository) PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log data: %w", err)
	}

	_, err = r.repository.Executor(ctx).Insert("audit_logs").
		Rows(goqu.Record{
			"resource_id":   entry.ResourceID,
			"resource_type": entry.ResourceType,
			"action":        entry.Action,
			"data":          string(dataJSON),
			"user_id":       entry.UserID,
		}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) GetResourceLog(ctx context.Context, id int, resourceType string) ([]models.AuditLog, error) {
	logs := []models.AuditLog{}
	err := r.repository.Executor(ctx).
		From(goqu.T("audit_logs").As("a")).
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.resource_id").As("resource_id"),
			goqu.I("a.resource_type").As("resource_type"),
			goqu.I("a.action").As("action"),
			goqu.I("a.data").As("data"),
			goqu.I("a.created_at").As("created_at"),
			goqu.I("a.user_id").As("user_id"),
		).
		Where(goqu.Ex{
			"a.resource_id":   id,
			"a.resource_type": resourceType,
		}).
		Order(goqu.I("a.created_at").Asc(), goqu.I("a.id").Asc()).
		ScanStructsContext(ctx, &logs)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	for i := range logs {
		logs[i].LoadFromDB()
	}
	return logs, nil
}
