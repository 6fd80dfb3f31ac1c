package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bom = "\xef\xbb\xbf"

func strPtr(s string) *string { return &s }

func detail(id int, status metadata.DeliveryStatus, qty int, cost string, center *models.CostCenter) models.DeliveryDetail {
	return models.DeliveryDetail{
		Delivery: models.Delivery{
			ID:          id,
			PartID:      7,
			Quantity:    qty,
			UnitCost:    decimal.RequireFromString(cost),
			Status:      status,
			DeliveredAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		Part:        models.Part{ID: 7, PartNumber: "FLT-2020", Name: "Air filter 20x20"},
		StaffMember: models.StaffMember{ID: 3, Name: "A. Smith"},
		CostCenter:  center,
	}
}

func readCSV(t *testing.T, raw string) [][]string {
	t.Helper()
	require.True(t, strings.HasPrefix(raw, bom), "missing byte order mark")
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, bom))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteDeliveriesCSV(t *testing.T) {
	center := &models.CostCenter{ID: 1, Code: "FAC-100", Name: "Facilities"}
	d := detail(11, metadata.DeliveryDelivered, 3, "4.5", center)
	d.Building = &models.Building{ID: 2, Name: "Science Hall"}
	d.Signature = strPtr("A. Smith")
	confirmed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	d.ConfirmedAt = &confirmed
	d.DeliveredBy = &models.User{ID: 1, Fullname: "Parts Clerk"}

	var buf bytes.Buffer
	require.NoError(t, WriteDeliveriesCSV(&buf, []models.DeliveryDetail{d}, time.UTC))

	records := readCSV(t, buf.String())
	require.Len(t, records, 2)
	assert.Equal(t, deliveryHeader, records[0])
	assert.Equal(t, []string{
		"11", "2026-03-14 09:30", "delivered", "FLT-2020", "Air filter 20x20", "3",
		"4.50", "13.50", "A. Smith", "Science Hall", "FAC-100", "", "A. Smith", "2026-03-14 10:00", "Parts Clerk",
	}, records[1])
}

func TestWriteDeliveriesCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDeliveriesCSV(&buf, nil, time.UTC))

	records := readCSV(t, buf.String())
	assert.Len(t, records, 1)
}

func TestWriteIssuancesCSVUsesPartCost(t *testing.T) {
	issuances := []models.Issuance{{
		ID:         4,
		PartID:     7,
		Quantity:   2,
		IssuedTo:   "Boiler room",
		Reason:     metadata.ReasonMaintenance,
		IssuedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Department: strPtr("HVAC"),
	}}
	parts := map[int]models.Part{7: {ID: 7, PartNumber: "FLT-2020", Name: "Air filter 20x20", UnitCost: decimal.RequireFromString("12.25")}}

	var buf bytes.Buffer
	require.NoError(t, WriteIssuancesCSV(&buf, issuances, parts, time.UTC))

	records := readCSV(t, buf.String())
	require.Len(t, records, 2)
	assert.Equal(t, "12.25", records[1][5])
	assert.Equal(t, "24.50", records[1][6])
	assert.Equal(t, "HVAC", records[1][9])
}

func TestMonthlySummary(t *testing.T) {
	facilities := &models.CostCenter{ID: 1, Code: "FAC-100", Name: "Facilities"}
	athletics := &models.CostCenter{ID: 2, Code: "ATH-010", Name: "Athletics"}

	details := []models.DeliveryDetail{
		detail(1, metadata.DeliveryDelivered, 2, "10.00", facilities),
		detail(2, metadata.DeliveryPending, 1, "5.25", facilities),
		detail(3, metadata.DeliveryCancelled, 9, "100.00", facilities),
		detail(4, metadata.DeliveryDelivered, 4, "1.10", athletics),
		detail(5, metadata.DeliveryDelivered, 1, "3.00", nil),
	}

	summary := MonthlySummary(details, "2026-03")

	assert.Equal(t, "2026-03", summary.Month)
	require.Len(t, summary.Rows, 3)
	assert.Equal(t, "ATH-010", summary.Rows[0].CostCenterCode)
	assert.Equal(t, "4.40", summary.Rows[0].Total.StringFixed(2))

	assert.Equal(t, "FAC-100", summary.Rows[1].CostCenterCode)
	assert.Equal(t, 2, summary.Rows[1].Deliveries)
	assert.Equal(t, 3, summary.Rows[1].Quantity)
	assert.Equal(t, "25.25", summary.Rows[1].Total.StringFixed(2))

	assert.Equal(t, unassignedCostCenter, summary.Rows[2].CostCenterCode)
	assert.Equal(t, "32.65", summary.GrandTotal.StringFixed(2))
}
