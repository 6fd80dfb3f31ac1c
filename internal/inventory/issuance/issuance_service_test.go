package issuance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/inventory/parts"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/storage/memory"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	parts *parts.Service
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	partsSvc := parts.NewService(store, store, store, zap.NewNop())
	return &fixture{
		ctx:   context.Background(),
		store: store,
		parts: partsSvc,
		svc:   NewService(store, store, partsSvc, zap.NewNop(), time.UTC),
	}
}

func (f *fixture) addPart(t *testing.T, number string, quantity int) *models.Part {
	t.Helper()
	part, err := f.parts.CreatePart(f.ctx, parts.CreatePartRequest{
		PartNumber: number,
		Name:       "Part " + number,
		Quantity:   quantity,
		UnitCost:   decimal.RequireFromString("4.25"),
	})
	require.NoError(t, err)
	return part
}

func (f *fixture) quantity(t *testing.T, partID int) int {
	t.Helper()
	part, err := f.parts.GetPart(f.ctx, partID)
	require.NoError(t, err)
	return part.Quantity
}

func (f *fixture) issued(t *testing.T, partID int) int {
	t.Helper()
	list, err := f.svc.List(f.ctx, models.IssuanceFilter{PartID: &partID})
	require.NoError(t, err)
	total := 0
	for _, i := range list {
		total += i.Quantity
	}
	return total
}

func request(partID, quantity int) CreateIssuanceRequest {
	return CreateIssuanceRequest{
		PartID:   partID,
		Quantity: quantity,
		IssuedTo: "HVAC crew",
		Reason:   "maintenance",
	}
}

func TestCreateDeductsStock(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-100", 50)
	userID := 4

	issuance, err := f.svc.Create(f.ctx, request(part.ID, 10), &userID)
	require.NoError(t, err)

	assert.NotZero(t, issuance.ID)
	assert.Equal(t, metadata.ReasonMaintenance, issuance.Reason)
	assert.Equal(t, &userID, issuance.IssuedBy)
	assert.Equal(t, 40, f.quantity(t, part.ID))
}

func TestCreateInsufficientStockLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-5", 5)

	_, err := f.svc.Create(f.ctx, request(part.ID, 10), nil)

	var stockErr *custom_error.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 10, stockErr.Requested)
	assert.Equal(t, "P-5", stockErr.PartNumber)
	assert.Equal(t, 5, f.quantity(t, part.ID))
	assert.Equal(t, 0, f.issued(t, part.ID))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 10)

	tests := []struct {
		name  string
		req   CreateIssuanceRequest
		field string
	}{
		{"zero quantity", request(part.ID, 0), "quantity"},
		{"negative quantity", request(part.ID, -2), "quantity"},
		{"bad reason", CreateIssuanceRequest{PartID: part.ID, Quantity: 1, IssuedTo: "x", Reason: "gift"}, "reason"},
		{"blank recipient", CreateIssuanceRequest{PartID: part.ID, Quantity: 1, IssuedTo: "  ", Reason: "other"}, "issued_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, tt.req, nil)
			var validation *custom_error.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
	assert.Equal(t, 10, f.quantity(t, part.ID))
}

func TestCreateUnknownPart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, request(999, 1), nil)
	assert.True(t, custom_error.IsNotFound(err))
}

func TestCreateHonoursClientTimestamp(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 10)

	dateOnly := "2026-02-03"
	req := request(part.ID, 1)
	req.IssuedAt = &dateOnly
	issuance, err := f.svc.Create(f.ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC), issuance.IssuedAt)

	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }
	garbage := "not-a-date"
	req.IssuedAt = &garbage
	issuance, err = f.svc.Create(f.ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, fixed, issuance.IssuedAt)
}

func TestCreateBulk(t *testing.T) {
	f := newFixture(t)
	a := f.addPart(t, "A", 10)
	b := f.addPart(t, "B", 3)

	created, err := f.svc.CreateBulk(f.ctx, BulkIssuanceRequest{
		IssuedTo: "Electrical shop",
		Reason:   "production",
		Lines: []BulkLine{
			{PartID: a.ID, Quantity: 4},
			{PartID: b.ID, Quantity: 3},
			{PartID: a.ID, Quantity: 6},
		},
	}, nil)
	require.NoError(t, err)

	assert.Len(t, created, 3)
	assert.Equal(t, 0, f.quantity(t, a.ID))
	assert.Equal(t, 0, f.quantity(t, b.ID))
}

func TestCreateBulkIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	a := f.addPart(t, "A", 10)
	b := f.addPart(t, "B", 3)

	_, err := f.svc.CreateBulk(f.ctx, BulkIssuanceRequest{
		IssuedTo: "Electrical shop",
		Reason:   "production",
		Lines: []BulkLine{
			{PartID: a.ID, Quantity: 6},
			{PartID: b.ID, Quantity: 2},
			{PartID: a.ID, Quantity: 6},
			{PartID: 404, Quantity: 1},
		},
	}, nil)

	var bulk *custom_error.BulkError
	require.ErrorAs(t, err, &bulk)
	require.Len(t, bulk.Lines, 2)

	assert.Equal(t, 3, bulk.Lines[0].Line)
	assert.Equal(t, "insufficient stock", bulk.Lines[0].Reason)
	require.NotNil(t, bulk.Lines[0].Available)
	assert.Equal(t, 4, *bulk.Lines[0].Available)

	assert.Equal(t, 4, bulk.Lines[1].Line)
	assert.Equal(t, "part not found", bulk.Lines[1].Reason)

	assert.Equal(t, 10, f.quantity(t, a.ID))
	assert.Equal(t, 3, f.quantity(t, b.ID))
	assert.Equal(t, 0, f.issued(t, a.ID)+f.issued(t, b.ID))
}

func TestUpdateRestoresThenDeducts(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 50)

	issuance, err := f.svc.Create(f.ctx, request(part.ID, 10), nil)
	require.NoError(t, err)
	require.Equal(t, 40, f.quantity(t, part.ID))

	newQty := 15
	updated, err := f.svc.Update(f.ctx, issuance.ID, UpdateIssuanceRequest{Quantity: &newQty})
	require.NoError(t, err)

	assert.Equal(t, 15, updated.Quantity)
	// oldPartQty + oldIssuanceQty - newQty
	assert.Equal(t, 40+10-15, f.quantity(t, part.ID))
}

func TestUpdateMovesStockBetweenParts(t *testing.T) {
	f := newFixture(t)
	oldPart := f.addPart(t, "OLD", 20)
	newPart := f.addPart(t, "NEW", 20)

	issuance, err := f.svc.Create(f.ctx, request(oldPart.ID, 5), nil)
	require.NoError(t, err)

	qty := 8
	_, err = f.svc.Update(f.ctx, issuance.ID, UpdateIssuanceRequest{PartID: &newPart.ID, Quantity: &qty})
	require.NoError(t, err)

	assert.Equal(t, 20, f.quantity(t, oldPart.ID))
	assert.Equal(t, 12, f.quantity(t, newPart.ID))
}

func TestUpdateFailureLeavesStockUnchanged(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 12)

	issuance, err := f.svc.Create(f.ctx, request(part.ID, 10), nil)
	require.NoError(t, err)

	tooMany := 13
	_, err = f.svc.Update(f.ctx, issuance.ID, UpdateIssuanceRequest{Quantity: &tooMany})

	var stockErr *custom_error.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 12, stockErr.Available)
	assert.Equal(t, 2, f.quantity(t, part.ID))

	stored, err := f.svc.Get(f.ctx, issuance.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)
}

func TestUpdateMetadataOnlyDoesNotTouchStock(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 10)

	issuance, err := f.svc.Create(f.ctx, request(part.ID, 4), nil)
	require.NoError(t, err)

	note := "left at loading dock"
	date := "2026-01-15T08:00:00Z"
	updated, err := f.svc.Update(f.ctx, issuance.ID, UpdateIssuanceRequest{Notes: &note, IssuedAt: &date})
	require.NoError(t, err)

	assert.Equal(t, note, *updated.Notes)
	assert.True(t, updated.IssuedAt.Equal(time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, 6, f.quantity(t, part.ID))

	bad := "15/01/2026"
	_, err = f.svc.Update(f.ctx, issuance.ID, UpdateIssuanceRequest{IssuedAt: &bad})
	var validation *custom_error.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestUpdateMissingIssuance(t *testing.T) {
	f := newFixture(t)
	qty := 1
	_, err := f.svc.Update(f.ctx, 77, UpdateIssuanceRequest{Quantity: &qty})
	assert.True(t, custom_error.IsNotFound(err))
}

func TestDeleteRestoresStock(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 30)

	issuance, err := f.svc.Create(f.ctx, request(part.ID, 12), nil)
	require.NoError(t, err)

	deleted, err := f.svc.Delete(f.ctx, issuance.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 30, f.quantity(t, part.ID))

	deleted, err = f.svc.Delete(f.ctx, issuance.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 30, f.quantity(t, part.ID))
}

func TestStockIsConserved(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 100)

	first, err := f.svc.Create(f.ctx, request(part.ID, 10), nil)
	require.NoError(t, err)
	_, err = f.svc.Create(f.ctx, request(part.ID, 25), nil)
	require.NoError(t, err)
	_, err = f.svc.Create(f.ctx, request(part.ID, 80), nil)
	require.Error(t, err)

	qty := 3
	_, err = f.svc.Update(f.ctx, first.ID, UpdateIssuanceRequest{Quantity: &qty})
	require.NoError(t, err)

	assert.Equal(t, 100, f.quantity(t, part.ID)+f.issued(t, part.ID))
}

func TestConcurrentIssuancesNeverOversell(t *testing.T) {
	f := newFixture(t)
	part := f.addPart(t, "P-1", 50)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Create(f.ctx, request(part.ID, 3), nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, succeeded)
	assert.Equal(t, 50-3*succeeded, f.quantity(t, part.ID))
	assert.GreaterOrEqual(t, f.quantity(t, part.ID), 0)
	assert.Equal(t, 50, f.quantity(t, part.ID)+f.issued(t, part.ID))
}
