package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	auditLogRepo "github.com/OnuParts/onu-parts-tracker-render-sub000/internal/auditlog"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/core/config"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/directory"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/inventory/deliveries"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/inventory/issuance"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/inventory/parts"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/locations"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/middleware"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/notifications"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/reports"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/storage/memory"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/tools"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/users"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/auditlog"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"go.uber.org/zap"
)

// Stores bundles one implementation of every repository the services need.
type Stores struct {
	Tx         repository.Transactor
	Parts      parts.Repository
	Issuances  issuance.Repository
	Deliveries deliveries.Repository
	Tools      tools.Repository
	Locations  locations.Repository
	Directory  directory.Repository
	Users      users.UserRepository
	AuditLog   auditLogRepo.Repository
	Checks     map[string]middleware.Check
}

func PostgresStores(db *sql.DB) Stores {
	repo := repository.NewRepository(db)
	return Stores{
		Tx:         repo,
		Parts:      parts.NewRepository(repo),
		Issuances:  issuance.NewRepository(repo),
		Deliveries: deliveries.NewRepository(repo),
		Tools:      tools.NewRepository(repo),
		Locations:  locations.NewRepository(repo),
		Directory:  directory.NewRepository(repo),
		Users:      users.NewRepository(repo),
		AuditLog:   auditLogRepo.NewRepository(repo),
		Checks:     map[string]middleware.Check{"database": db.PingContext},
	}
}

func MemoryStores(store *memory.Store) Stores {
	return Stores{
		Tx:         store,
		Parts:      store,
		Issuances:  store,
		Deliveries: store,
		Tools:      store,
		Locations:  store,
		Directory:  store,
		Users:      store,
		AuditLog:   store,
		Checks:     map[string]middleware.Check{},
	}
}

type Container struct {
	Config           *config.Config
	Policy           *roles.Policy
	Location         *time.Location
	AuditLog         *auditlog.Auditlog
	Health           *middleware.Health
	Notifier         *notifications.BatchQueue
	LoginHandler     *security.LoginHandler
	PartHandler      *parts.PartHandler
	IssuanceHandler  *issuance.IssuanceHandler
	DeliveryHandler  *deliveries.DeliveryHandler
	ToolHandler      *tools.ToolHandler
	LocationHandler  *locations.LocationHandler
	DirectoryHandler *directory.DirectoryHandler
	UserHandler      *users.UsersHandler
	ReportHandler    *reports.ReportHandler
	AuditLogHandler  *auditLogRepo.Handler
	closers          []func() error
}

func NewAppContainer(ctx context.Context, cfg *config.Config, stores Stores, logger *zap.Logger) (*Container, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("capability overrides: %w", err)
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	loginLimit, err := middleware.RateLimit(cfg.LoginRate, logger)
	if err != nil {
		return nil, fmt.Errorf("login rate %q: %w", cfg.LoginRate, err)
	}

	c := &Container{Config: cfg, Policy: policy, Location: location}

	c.Health = middleware.NewHealth("1.0.0")
	for name, check := range stores.Checks {
		c.Health.AddCheck(name, check)
	}

	queue, err := c.notificationQueue(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Notifier = notifications.NewBatchQueue(queue, mailer(cfg, logger), cfg.FlushInterval, location, logger)

	exporter, err := sheetsExporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	c.AuditLog = auditlog.NewAuditLog(stores.AuditLog, logger)

	partService := parts.NewService(stores.Parts, stores.Tx, stores.Locations, logger)
	issuanceService := issuance.NewService(stores.Issuances, stores.Tx, partService, logger, location)
	deliveryService := deliveries.NewService(stores.Deliveries, stores.Tx, partService, stores.Directory, stores.Users, c.Notifier, logger, location)
	toolService := tools.NewService(stores.Tools, stores.Tx, stores.Users, logger)

	c.LoginHandler = security.NewLoginHandler(stores.Users, loginLimit, logger)
	c.PartHandler = parts.NewHandler(partService, c.AuditLog, policy, logger)
	c.IssuanceHandler = issuance.NewHandler(issuanceService, c.AuditLog, policy, logger, location)
	c.DeliveryHandler = deliveries.NewHandler(deliveryService, c.AuditLog, policy, logger, location)
	c.ToolHandler = tools.NewHandler(toolService, c.AuditLog, policy, logger)
	c.LocationHandler = locations.NewLocationHandler(stores.Locations, policy)
	c.DirectoryHandler = directory.NewHandler(stores.Directory, policy, logger)
	c.UserHandler = users.NewHandler(stores.Users, policy, logger)
	c.AuditLogHandler = auditLogRepo.NewHandler(stores.AuditLog, policy, logger)

	target := reports.SheetTarget{SpreadsheetID: cfg.Reports.SpreadsheetID, Range: cfg.Reports.SheetRange}
	var monthly reports.MonthlyExporter
	if exporter != nil {
		monthly = exporter
	}
	c.ReportHandler = reports.NewHandler(deliveryService, issuanceService, partService, monthly, target, policy, logger, location)

	return c, nil
}

func (c *Container) notificationQueue(ctx context.Context, cfg *config.Config, logger *zap.Logger) (notifications.Queue, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set, pending notifications are kept in memory")
		return notifications.NewMemoryQueue(), nil
	}

	client, err := notifications.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	c.Health.AddCheck("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	c.closers = append(c.closers, client.Close)
	return notifications.NewRedisQueue(client), nil
}

func mailer(cfg *config.Config, logger *zap.Logger) notifications.Mailer {
	if cfg.SMTP.Host == "" {
		logger.Info("SMTP_HOST not set, delivery digests are written to the log")
		return notifications.NewLogMailer(logger)
	}
	return notifications.NewSMTPMailer(cfg.SMTP)
}

func sheetsExporter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*reports.SheetsExporter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	exporter, err := reports.NewSheetsExporter(ctx, cfg.Reports.CredentialsJSON, cfg.Reports.CredentialsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("google sheets: %w", err)
	}
	return exporter, nil
}

// Close stops the notification ticker, flushing what is queued, and releases
// external clients.
func (c *Container) Close() error {
	if c.Notifier != nil {
		c.Notifier.Stop()
	}
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
