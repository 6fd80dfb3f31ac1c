package auditlog

import (
	"context"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"go.uber.org/zap"
)

type Persister interface {
	PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error
}

type Auditlog struct {
	p      Persister
	logger *zap.Logger
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

// Log records action against item. It runs detached from the request and
// only logs failures, so handlers call it with the go keyword.
func (a *Auditlog) Log(action string, data interface{}, item Auditable, userID *int) {
	entry := item.CreateLogView()
	entry.Action = action
	entry.UserID = userID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.p.PersistLog(ctx, entry, data); err != nil {
		a.logger.Warn("Unable to create AuditLog entry",
			zap.String("resource_type", entry.ResourceType),
			zap.Int("resource_id", entry.ResourceID),
			zap.Error(err))
		return
	}

	a.logger.Debug("Created AuditLog entry",
		zap.String("resource_type", entry.ResourceType),
		zap.Int("resource_id", entry.ResourceID),
		zap.String("action", action))
}

func NewAuditLog(p Persister, logger *zap.Logger) *Auditlog {
	return &Auditlog{p: p, logger: logger}
}
