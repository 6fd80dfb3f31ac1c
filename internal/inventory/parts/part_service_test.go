package parts

import (
	"context"
	"testing"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/storage/memory"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store, store, store, zap.NewNop()), store
}

func createPart(t *testing.T, s *Service, number string, quantity int) *models.Part {
	t.Helper()
	part, err := s.CreatePart(context.Background(), CreatePartRequest{
		PartNumber:   number,
		Name:         "Part " + number,
		Quantity:     quantity,
		ReorderLevel: 5,
		UnitCost:     decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)
	return part
}

func TestAdjustQuantityRequiresTransaction(t *testing.T) {
	s, _ := newTestService(t)
	part := createPart(t, s, "P-1", 10)

	_, err := s.AdjustQuantity(context.Background(), part.ID, -1)
	assert.ErrorIs(t, err, repository.ErrNoTransaction)

	_, err = s.LockParts(context.Background(), part.ID)
	assert.ErrorIs(t, err, repository.ErrNoTransaction)
}

func TestAdjustQuantity(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	part := createPart(t, s, "P-1", 10)

	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.AdjustQuantity(ctx, part.ID, -4)
		require.NoError(t, err)
		assert.Equal(t, 6, updated.Quantity)

		_, err = s.AdjustQuantity(ctx, part.ID, -7)
		var stockErr *custom_error.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 6, stockErr.Available)
		assert.Equal(t, 7, stockErr.Requested)

		_, err = s.AdjustQuantity(ctx, 404, 1)
		assert.True(t, custom_error.IsNotFound(err))
		return nil
	})
	require.NoError(t, err)

	stored, err := s.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Quantity)
}

type recordingRepo struct {
	*memory.Store
	locked []int
}

func (r *recordingRepo) GetPartForUpdate(ctx context.Context, id int) (*models.Part, error) {
	r.locked = append(r.locked, id)
	return r.Store.GetPartForUpdate(ctx, id)
}

func TestLockPartsUsesAscendingOrder(t *testing.T) {
	store := memory.NewStore()
	repo := &recordingRepo{Store: store}
	s := NewService(repo, store, store, zap.NewNop())

	var ids []int
	for _, n := range []string{"A", "B", "C"} {
		ids = append(ids, createPart(t, s, n, 1).ID)
	}

	err := store.WithTransaction(context.Background(), func(ctx context.Context) error {
		locked, err := s.LockParts(ctx, ids[2], ids[0], ids[2], ids[1])
		require.NoError(t, err)
		assert.Len(t, locked, 3)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{ids[0], ids[1], ids[2]}, repo.locked)
}

func TestFindByCode(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	part, err := s.CreatePart(ctx, CreatePartRequest{
		PartNumber: "FLT-2020",
		Name:       "Air filter 20x20",
		Quantity:   3,
		Barcodes:   []string{"0123456789012", " "},
	})
	require.NoError(t, err)

	found, err := s.FindByCode(ctx, "FLT-2020")
	require.NoError(t, err)
	assert.Equal(t, part.ID, found.ID)

	found, err = s.FindByCode(ctx, " 0123456789012 ")
	require.NoError(t, err)
	assert.Equal(t, part.ID, found.ID)

	_, err = s.FindByCode(ctx, "nope")
	assert.True(t, custom_error.IsNotFound(err))

	_, err = s.FindByCode(ctx, "")
	var validation *custom_error.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCreatePartRejectsDuplicatesAndNegatives(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	createPart(t, s, "DUP", 1)

	_, err := s.CreatePart(ctx, CreatePartRequest{PartNumber: "DUP", Name: "again"})
	assert.True(t, custom_error.IsUniqueViolation(err))

	_, err = s.CreatePart(ctx, CreatePartRequest{PartNumber: "NEG", Name: "neg", UnitCost: decimal.NewFromInt(-1)})
	var validation *custom_error.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestDerivedLocation(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	mainStore := store.AddLocation(models.StorageLocation{Name: "Main Store"})
	annex := store.AddLocation(models.StorageLocation{Name: "Annex"})
	shelfA := store.AddShelf(models.Shelf{LocationID: mainStore, Name: "Shelf A"})

	part, err := s.CreatePart(ctx, CreatePartRequest{PartNumber: "L-1", Name: "Lamp", ShelfID: &shelfA})
	require.NoError(t, err)
	assert.Equal(t, "Main Store - Shelf A", part.Location)
	require.NotNil(t, part.LocationID)
	assert.Equal(t, mainStore, *part.LocationID)

	updated, err := s.UpdatePart(ctx, part.ID, UpdatePartRequest{LocationID: &annex})
	require.NoError(t, err)
	assert.Equal(t, "Annex", updated.Location)
	assert.Nil(t, updated.ShelfID)

	_, err = s.UpdatePart(ctx, part.ID, UpdatePartRequest{LocationID: &annex, ShelfID: &shelfA})
	var validation *custom_error.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "shelf_id", validation.Field)

	missing := 999
	_, err = s.UpdatePart(ctx, part.ID, UpdatePartRequest{LocationID: &missing})
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "location_id", validation.Field)

	stored, err := s.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annex", stored.Location)
}

func TestUpdatePartCannotChangeQuantity(t *testing.T) {
	s, _ := newTestService(t)
	part := createPart(t, s, "P-1", 7)

	name := "Renamed"
	updated, err := s.UpdatePart(context.Background(), part.ID, UpdatePartRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 7, updated.Quantity)
}

func TestRestock(t *testing.T) {
	s, _ := newTestService(t)
	part := createPart(t, s, "P-1", 2)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	restocked, err := s.Restock(context.Background(), part.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, restocked.Quantity)
	require.NotNil(t, restocked.LastRestockDate)
	assert.Equal(t, now, *restocked.LastRestockDate)

	_, err = s.Restock(context.Background(), part.ID, 0)
	var validation *custom_error.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestRegisterAdHocPart(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	part, created, err := s.RegisterAdHocPart(ctx, AdHocPartRequest{
		Name:     "Copper pipe 1/2\"",
		Quantity: 4,
		UnitCost: decimal.RequireFromString("7.10"),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "MANUAL-COPPER-PIPE-1-2", part.PartNumber)
	assert.Equal(t, 4, part.Quantity)

	again, created, err := s.RegisterAdHocPart(ctx, AdHocPartRequest{Name: "copper pipe 1/2", Quantity: 3})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, part.ID, again.ID)
	assert.Equal(t, 7, again.Quantity)

	_, _, err = s.RegisterAdHocPart(ctx, AdHocPartRequest{Name: "--", Quantity: 1})
	var validation *custom_error.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestDeletePart(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	loc := store.AddLocation(models.StorageLocation{Name: "Cage"})

	unused := createPart(t, s, "UNUSED", 1)
	archived, err := s.DeletePart(ctx, unused.ID)
	require.NoError(t, err)
	assert.False(t, archived)
	_, err = s.GetPart(ctx, unused.ID)
	assert.True(t, custom_error.IsNotFound(err))

	used, err := s.CreatePart(ctx, CreatePartRequest{PartNumber: "USED", Name: "Valve", Quantity: 9, LocationID: &loc})
	require.NoError(t, err)
	_, err = store.InsertIssuance(ctx, &models.Issuance{
		PartID: used.ID, Quantity: 1, IssuedTo: "x", Reason: metadata.ReasonOther, IssuedAt: time.Now(),
	})
	require.NoError(t, err)

	archived, err = s.DeletePart(ctx, used.ID)
	require.NoError(t, err)
	assert.True(t, archived)

	stored, err := s.GetPart(ctx, used.ID)
	require.NoError(t, err)
	assert.Equal(t, "[ARCHIVED] Valve", stored.Name)
	assert.Equal(t, 0, stored.Quantity)
	assert.Nil(t, stored.LocationID)
	assert.Empty(t, stored.Location)
	assert.True(t, stored.Archived)

	visible, err := s.ListParts(ctx, models.PartFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	// archiving twice keeps a single prefix
	_, err = s.DeletePart(ctx, used.ID)
	require.NoError(t, err)
	stored, _ = s.GetPart(ctx, used.ID)
	assert.Equal(t, "[ARCHIVED] Valve", stored.Name)

	_, err = s.DeletePart(ctx, 4040)
	assert.True(t, custom_error.IsNotFound(err))
}

func TestLowStock(t *testing.T) {
	s, _ := newTestService(t)
	createPart(t, s, "LOW", 5)
	createPart(t, s, "OK", 6)

	low, err := s.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "LOW", low[0].PartNumber)
}

func TestCheckLines(t *testing.T) {
	s, store := newTestService(t)
	a := createPart(t, s, "A", 5)

	err := store.WithTransaction(context.Background(), func(ctx context.Context) error {
		locked, err := s.CheckLines(ctx, []Line{{PartID: a.ID, Quantity: 2}, {PartID: a.ID, Quantity: 3}})
		require.NoError(t, err)
		assert.Equal(t, 5, locked[a.ID].Quantity)

		_, err = s.CheckLines(ctx, []Line{{PartID: a.ID, Quantity: 0}, {PartID: a.ID, Quantity: 6}})
		var bulk *custom_error.BulkError
		require.ErrorAs(t, err, &bulk)
		require.Len(t, bulk.Lines, 2)
		assert.Equal(t, "quantity must be greater than zero", bulk.Lines[0].Reason)
		assert.Equal(t, "insufficient stock", bulk.Lines[1].Reason)
		return nil
	})
	require.NoError(t, err)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Copper pipe 1/2\"": "COPPER-PIPE-1-2",
		"  ballast  ":       "BALLAST",
		"T8 lamp (4ft)":     "T8-LAMP-4FT",
		"--":                "",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, Slug(in), in)
	}
}
