package reports

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeliverySource interface {
	ListWithDetails(ctx context.Context, filter models.DeliveryFilter) ([]models.DeliveryDetail, error)
}

type IssuanceSource interface {
	List(ctx context.Context, filter models.IssuanceFilter) ([]models.Issuance, error)
}

type PartSource interface {
	PartsByIDs(ctx context.Context, ids []int) ([]models.Part, error)
}

type MonthlyExporter interface {
	AppendMonthly(ctx context.Context, spreadsheetID, sheetRange string, summary Summary) (string, error)
}

type SheetTarget struct {
	SpreadsheetID string
	Range         string
}

type ReportHandler struct {
	deliveries DeliverySource
	issuances  IssuanceSource
	parts      PartSource
	exporter   MonthlyExporter
	target     SheetTarget
	policy     *roles.Policy
	logger     *zap.Logger
	location   *time.Location
}

// NewHandler builds the report endpoints. exporter may be nil when Google
// Sheets is not configured; the export endpoint then answers 503.
func NewHandler(deliveries DeliverySource, issuances IssuanceSource, parts PartSource, exporter MonthlyExporter, target SheetTarget, policy *roles.Policy, logger *zap.Logger, location *time.Location) *ReportHandler {
	return &ReportHandler{
		deliveries: deliveries,
		issuances:  issuances,
		parts:      parts,
		exporter:   exporter,
		target:     target,
		policy:     policy,
		logger:     logger,
		location:   location,
	}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/reports", security.Authorize(h.policy, roles.ReportsRead))
	group.GET("/deliveries.csv", h.DeliveriesCSV)
	group.GET("/issuances.csv", h.IssuancesCSV)
	group.GET("/monthly", h.Monthly)
	group.POST("/monthly/sheets", h.ExportMonthly)
}

func (h *ReportHandler) DeliveriesCSV(c *gin.Context) {
	dateRange, ok := h.dateRange(c)
	if !ok {
		return
	}

	details, err := h.deliveries.ListWithDetails(c.Request.Context(), models.DeliveryFilter{DateRange: dateRange})
	if err != nil {
		h.internalError(c, "Unable to load deliveries", err)
		return
	}

	h.attachment(c, "deliveries.csv")
	if err := WriteDeliveriesCSV(c.Writer, details, h.location); err != nil {
		h.logger.Error("Unable to write deliveries report", zap.Error(err))
	}
}

func (h *ReportHandler) IssuancesCSV(c *gin.Context) {
	dateRange, ok := h.dateRange(c)
	if !ok {
		return
	}

	issuances, err := h.issuances.List(c.Request.Context(), models.IssuanceFilter{DateRange: dateRange})
	if err != nil {
		h.internalError(c, "Unable to load issuances", err)
		return
	}

	ids := make([]int, 0, len(issuances))
	seen := map[int]bool{}
	for _, i := range issuances {
		if !seen[i.PartID] {
			seen[i.PartID] = true
			ids = append(ids, i.PartID)
		}
	}
	parts, err := h.parts.PartsByIDs(c.Request.Context(), ids)
	if err != nil {
		h.internalError(c, "Unable to load parts", err)
		return
	}
	byID := make(map[int]models.Part, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}

	h.attachment(c, "issuances.csv")
	if err := WriteIssuancesCSV(c.Writer, issuances, byID, h.location); err != nil {
		h.logger.Error("Unable to write issuances report", zap.Error(err))
	}
}

func (h *ReportHandler) Monthly(c *gin.Context) {
	summary, ok := h.summary(c, c.Query("month"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summary)
}

type exportRequest struct {
	Month string `json:"month" binding:"required"`
}

func (h *ReportHandler) ExportMonthly(c *gin.Context) {
	if h.exporter == nil || h.target.SpreadsheetID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Spreadsheet export is not configured"})
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	summary, ok := h.summary(c, req.Month)
	if !ok {
		return
	}

	updated, err := h.exporter.AppendMonthly(c.Request.Context(), h.target.SpreadsheetID, h.target.Range, summary)
	if err != nil {
		h.logger.Error("Unable to export monthly summary", zap.String("month", req.Month), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to export to spreadsheet", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"month": summary.Month, "updated_range": updated})
}

func (h *ReportHandler) summary(c *gin.Context, month string) (Summary, bool) {
	from, to, err := metadata.MonthRange(month, h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month", "details": err.Error()})
		return Summary{}, false
	}

	filter := models.DeliveryFilter{DateRange: models.DateRange{From: &from, To: &to}}
	details, err := h.deliveries.ListWithDetails(c.Request.Context(), filter)
	if err != nil {
		h.internalError(c, "Unable to load deliveries", err)
		return Summary{}, false
	}
	return MonthlySummary(details, month), true
}

func (h *ReportHandler) dateRange(c *gin.Context) (models.DateRange, bool) {
	dateRange, err := models.ParseDateRange(c.Query("from"), c.Query("to"), h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range", "details": err.Error()})
		return models.DateRange{}, false
	}
	return dateRange, true
}

func (h *ReportHandler) attachment(c *gin.Context, name string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
}

func (h *ReportHandler) internalError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
