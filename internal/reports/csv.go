package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const timestampLayout = "2006-01-02 15:04"

var deliveryHeader = []string{
	"Delivery ID", "Delivered At", "Status", "Part Number", "Part Name", "Quantity",
	"Unit Cost", "Extended Cost", "Staff Member", "Building", "Cost Center",
	"Project Code", "Signature", "Confirmed At", "Delivered By",
}

var issuanceHeader = []string{
	"Issuance ID", "Issued At", "Part Number", "Part Name", "Quantity",
	"Unit Cost", "Extended Cost", "Issued To", "Reason", "Department", "Project Code", "Notes",
}

// excelWriter wraps w so the output starts with a UTF-8 byte order mark,
// which spreadsheet software needs to detect the encoding.
func excelWriter(w io.Writer) (*csv.Writer, io.Closer) {
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	return csv.NewWriter(bom), bom
}

func WriteDeliveriesCSV(w io.Writer, details []models.DeliveryDetail, loc *time.Location) error {
	cw, closer := excelWriter(w)
	if err := cw.Write(deliveryHeader); err != nil {
		return err
	}

	for _, d := range details {
		row := []string{
			strconv.Itoa(d.ID),
			d.DeliveredAt.In(loc).Format(timestampLayout),
			string(d.Status),
			d.Part.PartNumber,
			d.Part.Name,
			strconv.Itoa(d.Quantity),
			money(d.UnitCost),
			money(d.TotalCost()),
			d.StaffMember.Name,
			"",
			"",
			deref(d.ProjectCode),
			deref(d.Signature),
			"",
			"",
		}
		if d.Building != nil {
			row[9] = d.Building.Name
		}
		if d.CostCenter != nil {
			row[10] = d.CostCenter.Code
		}
		if d.ConfirmedAt != nil {
			row[13] = d.ConfirmedAt.In(loc).Format(timestampLayout)
		}
		if d.DeliveredBy != nil {
			row[14] = d.DeliveredBy.Fullname
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	return flush(cw, closer)
}

// WriteIssuancesCSV prices each line at the part's current unit cost;
// issuances do not snapshot a cost of their own.
func WriteIssuancesCSV(w io.Writer, issuances []models.Issuance, parts map[int]models.Part, loc *time.Location) error {
	cw, closer := excelWriter(w)
	if err := cw.Write(issuanceHeader); err != nil {
		return err
	}

	for _, i := range issuances {
		part := parts[i.PartID]
		extended := part.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
		row := []string{
			strconv.Itoa(i.ID),
			i.IssuedAt.In(loc).Format(timestampLayout),
			part.PartNumber,
			part.Name,
			strconv.Itoa(i.Quantity),
			money(part.UnitCost),
			money(extended),
			i.IssuedTo,
			string(i.Reason),
			deref(i.Department),
			deref(i.ProjectCode),
			deref(i.Notes),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	return flush(cw, closer)
}

func flush(cw *csv.Writer, closer io.Closer) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return closer.Close()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
