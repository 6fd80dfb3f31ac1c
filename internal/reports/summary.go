package reports

import (
	"sort"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/shopspring/decimal"
)

const unassignedCostCenter = "UNASSIGNED"

type SummaryRow struct {
	CostCenterCode string          `json:"cost_center_code"`
	CostCenterName string          `json:"cost_center_name"`
	Deliveries     int             `json:"deliveries"`
	Quantity       int             `json:"quantity"`
	Total          decimal.Decimal `json:"total"`
}

type Summary struct {
	Month      string          `json:"month"`
	Rows       []SummaryRow    `json:"rows"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// MonthlySummary totals the month's deliveries per cost center. Cancelled
// deliveries are left out; pending ones count because their stock is gone.
func MonthlySummary(details []models.DeliveryDetail, month string) Summary {
	byCode := map[string]*SummaryRow{}
	grand := decimal.Zero

	for _, d := range details {
		if d.Status == metadata.DeliveryCancelled {
			continue
		}

		code, name := unassignedCostCenter, "No cost center"
		if d.CostCenter != nil {
			code, name = d.CostCenter.Code, d.CostCenter.Name
		}

		row, ok := byCode[code]
		if !ok {
			row = &SummaryRow{CostCenterCode: code, CostCenterName: name, Total: decimal.Zero}
			byCode[code] = row
		}
		row.Deliveries++
		row.Quantity += d.Quantity
		row.Total = row.Total.Add(d.TotalCost())
		grand = grand.Add(d.TotalCost())
	}

	rows := make([]SummaryRow, 0, len(byCode))
	for _, r := range byCode {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CostCenterCode == unassignedCostCenter {
			return false
		}
		if rows[j].CostCenterCode == unassignedCostCenter {
			return true
		}
		return rows[i].CostCenterCode < rows[j].CostCenterCode
	})

	return Summary{Month: month, Rows: rows, GrandTotal: grand}
}
