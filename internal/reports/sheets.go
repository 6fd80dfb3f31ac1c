package reports

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsExporter appends monthly summaries to a Google spreadsheet.
type SheetsExporter struct {
	service *sheets.Service
	logger  *zap.Logger
}

// NewSheetsExporter authenticates with a service account. credentialsJSON
// may hold the JSON itself; when empty, credentialsFile is read instead.
func NewSheetsExporter(ctx context.Context, credentialsJSON, credentialsFile string, logger *zap.Logger) (*SheetsExporter, error) {
	raw := []byte(credentialsJSON)
	if len(raw) == 0 {
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read Google credentials file: %w", err)
		}
		raw = b
	}

	credentials, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to load Google credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithCredentials(credentials))
	if err != nil {
		return nil, fmt.Errorf("unable to create Google Sheets client: %w", err)
	}
	return &SheetsExporter{service: service, logger: logger}, nil
}

// NewSheetsExporterWithService wraps an already configured client.
func NewSheetsExporterWithService(service *sheets.Service, logger *zap.Logger) *SheetsExporter {
	return &SheetsExporter{service: service, logger: logger}
}

// AppendMonthly writes one row per cost center plus a total row after the
// last filled row of sheetRange. It returns the range Google reports as updated.
func (e *SheetsExporter) AppendMonthly(ctx context.Context, spreadsheetID, sheetRange string, summary Summary) (string, error) {
	values := make([][]interface{}, 0, len(summary.Rows)+1)
	for _, r := range summary.Rows {
		values = append(values, []interface{}{
			summary.Month, r.CostCenterCode, r.CostCenterName, r.Deliveries, r.Quantity, r.Total.StringFixed(2),
		})
	}
	values = append(values, []interface{}{
		summary.Month, "TOTAL", "", "", "", summary.GrandTotal.StringFixed(2),
	})

	resp, err := e.service.Spreadsheets.Values.
		Append(spreadsheetID, sheetRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to append to spreadsheet: %w", err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	e.logger.Info("Appended monthly summary to spreadsheet",
		zap.String("month", summary.Month),
		zap.Int("rows", len(values)),
		zap.String("range", updated))
	return updated, nil
}
