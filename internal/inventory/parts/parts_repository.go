package parts

import (
	"context"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type Repository interface {
	GetPart(ctx context.Context, id int) (*models.Part, error)
	// GetPartForUpdate reads the part and holds its row lock until the transaction ends.
	GetPartForUpdate(ctx context.Context, id int) (*models.Part, error)
	FindPartByNumber(ctx context.Context, partNumber string) (*models.Part, error)
	FindPartByBarcode(ctx context.Context, barcode string) (*models.Part, error)
	ListParts(ctx context.Context, filter models.PartFilter) ([]models.Part, error)
	ListPartsByIDs(ctx context.Context, ids []int) ([]models.Part, error)
	InsertPart(ctx context.Context, part *models.Part) (int, error)
	InsertBarcode(ctx context.Context, partID int, barcode string) error
	UpdatePart(ctx context.Context, part *models.Part) error
	SetPartQuantity(ctx context.Context, id int, quantity int) error
	DeletePart(ctx context.Context, id int) (bool, error)
	IsPartReferenced(ctx context.Context, id int) (bool, error)
}

type PartsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *PartsRepository {
	return &PartsRepository{repository: r}
}

func (r *PartsRepository) GetPart(ctx context.Context, id int) (*models.Part, error) {
	return r.getPart(ctx, goqu.Ex{"id": id}, false, id)
}

func (r *PartsRepository) GetPartForUpdate(ctx context.Context, id int) (*models.Part, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}
	return r.getPart(ctx, goqu.Ex{"id": id}, true, id)
}

func (r *PartsRepository) FindPartByNumber(ctx context.Context, partNumber string) (*models.Part, error) {
	return r.getPart(ctx, goqu.Ex{"part_number": partNumber}, false, partNumber)
}

func (r *PartsRepository) FindPartByBarcode(ctx context.Context, barcode string) (*models.Part, error) {
	var part models.Part
	found, err := r.repository.Executor(ctx).
		From(goqu.T("parts").As("p")).
		Select(goqu.I("p.*")).
		InnerJoin(goqu.T("part_barcodes").As("b"), goqu.On(goqu.Ex{"b.part_id": goqu.I("p.id")})).
		Where(goqu.Ex{"b.barcode": barcode}).
		ScanStructContext(ctx, &part)
	if err != nil {
		return nil, fmt.Errorf("failed to look up barcode %s: %w", barcode, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("part", barcode)
	}
	return &part, nil
}

func (r *PartsRepository) getPart(ctx context.Context, where goqu.Ex, lock bool, key interface{}) (*models.Part, error) {
	query := r.repository.Executor(ctx).From("parts").Where(where)
	if lock {
		query = query.ForUpdate(exp.Wait)
	}

	var part models.Part
	found, err := query.ScanStructContext(ctx, &part)
	if err != nil {
		return nil, fmt.Errorf("failed to get part %v: %w", key, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("part", key)
	}
	return &part, nil
}

func (r *PartsRepository) ListParts(ctx context.Context, filter models.PartFilter) ([]models.Part, error) {
	query := r.repository.Executor(ctx).From("parts")

	qb := repository.NewQueryBuilder()
	if filter.LocationID != nil {
		qb.AddCondition("location_id", *filter.LocationID)
	}
	if filter.Category != "" {
		qb.AddCondition("category", filter.Category)
	}
	if !filter.IncludeArchived {
		qb.AddCondition("archived", false)
	}
	if qb.HasConditions() {
		query = query.Where(qb.BuildConditions(nil))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(goqu.Or(
			goqu.C("part_number").ILike(pattern),
			goqu.C("name").ILike(pattern),
		))
	}
	if filter.LowStockOnly {
		query = query.Where(goqu.C("quantity").Lte(goqu.C("reorder_level")))
	}

	var parts []models.Part
	if err := query.Order(goqu.C("part_number").Asc()).ScanStructsContext(ctx, &parts); err != nil {
		return nil, fmt.Errorf("failed to list parts: %w", err)
	}
	return parts, nil
}

func (r *PartsRepository) ListPartsByIDs(ctx context.Context, ids []int) ([]models.Part, error) {
	parts := []models.Part{}
	if len(ids) == 0 {
		return parts, nil
	}
	err := r.repository.Executor(ctx).From("parts").
		Where(goqu.C("id").In(ids)).
		ScanStructsContext(ctx, &parts)
	if err != nil {
		return nil, fmt.Errorf("failed to load parts: %w", err)
	}
	return parts, nil
}

func (r *PartsRepository) InsertPart(ctx context.Context, part *models.Part) (int, error) {
	var id int
	_, err := r.repository.Executor(ctx).Insert("parts").
		Rows(goqu.Record{
			"part_number":       part.PartNumber,
			"name":              part.Name,
			"description":       part.Description,
			"quantity":          part.Quantity,
			"reorder_level":     part.ReorderLevel,
			"unit_cost":         part.UnitCost.String(),
			"location_id":       part.LocationID,
			"shelf_id":          part.ShelfID,
			"location":          part.Location,
			"category":          part.Category,
			"supplier":          part.Supplier,
			"last_restock_date": part.LastRestockDate,
			"archived":          part.Archived,
		}).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert part: %w", custom_error.FromPQ(err))
	}
	return id, nil
}

func (r *PartsRepository) InsertBarcode(ctx context.Context, partID int, barcode string) error {
	_, err := r.repository.Executor(ctx).Insert("part_barcodes").
		Rows(goqu.Record{"part_id": partID, "barcode": barcode}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert barcode %s: %w", barcode, custom_error.FromPQ(err))
	}
	return nil
}

func (r *PartsRepository) UpdatePart(ctx context.Context, part *models.Part) error {
	res, err := r.repository.Executor(ctx).Update("parts").
		Set(goqu.Record{
			"part_number":       part.PartNumber,
			"name":              part.Name,
			"description":       part.Description,
			"quantity":          part.Quantity,
			"reorder_level":     part.ReorderLevel,
			"unit_cost":         part.UnitCost.String(),
			"location_id":       part.LocationID,
			"shelf_id":          part.ShelfID,
			"location":          part.Location,
			"category":          part.Category,
			"supplier":          part.Supplier,
			"last_restock_date": part.LastRestockDate,
			"archived":          part.Archived,
		}).
		Where(goqu.Ex{"id": part.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update part %d: %w", part.ID, custom_error.FromPQ(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return custom_error.NewNotFound("part", part.ID)
	}
	return nil
}

func (r *PartsRepository) SetPartQuantity(ctx context.Context, id int, quantity int) error {
	res, err := r.repository.Executor(ctx).Update("parts").
		Set(goqu.Record{"quantity": quantity}).
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to set quantity of part %d: %w", id, custom_error.FromPQ(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return custom_error.NewNotFound("part", id)
	}
	return nil
}

func (r *PartsRepository) DeletePart(ctx context.Context, id int) (bool, error) {
	res, err := r.repository.Executor(ctx).Delete("parts").
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete part %d: %w", id, custom_error.FromPQ(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsPartReferenced reports whether any ledger row points at the part.
func (r *PartsRepository) IsPartReferenced(ctx context.Context, id int) (bool, error) {
	for _, table := range []string{"parts_delivery", "parts_issuance"} {
		var count int
		_, err := r.repository.Executor(ctx).From(table).
			Select(goqu.COUNT("*")).
			Where(goqu.Ex{"part_id": id}).
			ScanValContext(ctx, &count)
		if err != nil {
			return false, fmt.Errorf("failed to count %s rows for part %d: %w", table, id, err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
