package parts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"go.uber.org/zap"
)

const (
	adHocPrefix    = "MANUAL-"
	archivedPrefix = "[ARCHIVED] "
)

type LocationLookup interface {
	GetLocation(ctx context.Context, id int) (*models.StorageLocation, error)
	GetShelf(ctx context.Context, id int) (*models.Shelf, error)
}

// Service owns the canonical quantity of every part. Ledgers change stock
// only through AdjustQuantity while holding a transaction.
type Service struct {
	repo      Repository
	tx        repository.Transactor
	locations LocationLookup
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, tx repository.Transactor, locations LocationLookup, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		locations: locations,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) GetPart(ctx context.Context, id int) (*models.Part, error) {
	return s.repo.GetPart(ctx, id)
}

// AdjustQuantity adds delta to the part's stock. It must be called inside a
// transaction and fails with InsufficientStockError instead of going negative.
func (s *Service) AdjustQuantity(ctx context.Context, partID int, delta int) (*models.Part, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}

	part, err := s.repo.GetPartForUpdate(ctx, partID)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return part, nil
	}

	newQuantity := part.Quantity + delta
	if newQuantity < 0 {
		return nil, &custom_error.InsufficientStockError{
			PartID:     part.ID,
			PartNumber: part.PartNumber,
			Available:  part.Quantity,
			Requested:  -delta,
		}
	}

	if err := s.repo.SetPartQuantity(ctx, partID, newQuantity); err != nil {
		return nil, err
	}
	part.Quantity = newQuantity
	return part, nil
}

// LockParts locks every listed part in ascending id order and returns them by id.
func (s *Service) LockParts(ctx context.Context, ids ...int) (map[int]*models.Part, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}

	unique := make(map[int]struct{}, len(ids))
	ordered := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, seen := unique[id]; seen {
			continue
		}
		unique[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Ints(ordered)

	locked := make(map[int]*models.Part, len(ordered))
	for _, id := range ordered {
		part, err := s.repo.GetPartForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = part
	}
	return locked, nil
}

// FindByCode resolves a scanned code: part number first, then barcode aliases.
func (s *Service) FindByCode(ctx context.Context, code string) (*models.Part, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, custom_error.NewValidation("code", "must not be empty")
	}

	part, err := s.repo.FindPartByNumber(ctx, code)
	if err == nil {
		return part, nil
	}
	if !custom_error.IsNotFound(err) {
		return nil, err
	}
	return s.repo.FindPartByBarcode(ctx, code)
}

func (s *Service) ListParts(ctx context.Context, filter models.PartFilter) ([]models.Part, error) {
	return s.repo.ListParts(ctx, filter)
}

func (s *Service) LowStock(ctx context.Context) ([]models.Part, error) {
	return s.repo.ListParts(ctx, models.PartFilter{LowStockOnly: true})
}

func (s *Service) PartsByIDs(ctx context.Context, ids []int) ([]models.Part, error) {
	return s.repo.ListPartsByIDs(ctx, ids)
}

func (s *Service) CreatePart(ctx context.Context, req CreatePartRequest) (*models.Part, error) {
	if req.UnitCost.IsNegative() {
		return nil, custom_error.NewValidation("unit_cost", "must not be negative")
	}
	if req.Quantity < 0 {
		return nil, custom_error.NewValidation("quantity", "must not be negative")
	}

	part := &models.Part{
		PartNumber:   strings.TrimSpace(req.PartNumber),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		UnitCost:     req.UnitCost,
		LocationID:   req.LocationID,
		ShelfID:      req.ShelfID,
		Category:     req.Category,
		Supplier:     req.Supplier,
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.deriveLocation(ctx, part); err != nil {
			return err
		}

		id, err := s.repo.InsertPart(ctx, part)
		if err != nil {
			return err
		}
		part.ID = id

		for _, code := range req.Barcodes {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			if err := s.repo.InsertBarcode(ctx, id, code); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

func (s *Service) UpdatePart(ctx context.Context, id int, req UpdatePartRequest) (*models.Part, error) {
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, custom_error.NewValidation("unit_cost", "must not be negative")
	}

	var part *models.Part
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		part, err = s.repo.GetPartForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.PartNumber != nil {
			part.PartNumber = strings.TrimSpace(*req.PartNumber)
		}
		if req.Name != nil {
			part.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			part.Description = req.Description
		}
		if req.ReorderLevel != nil {
			part.ReorderLevel = *req.ReorderLevel
		}
		if req.UnitCost != nil {
			part.UnitCost = *req.UnitCost
		}
		if req.LocationID != nil {
			part.LocationID = req.LocationID
			if req.ShelfID == nil {
				part.ShelfID = nil
			}
		}
		if req.ShelfID != nil {
			part.ShelfID = req.ShelfID
		}
		if req.Category != nil {
			part.Category = req.Category
		}
		if req.Supplier != nil {
			part.Supplier = req.Supplier
		}

		if err := s.deriveLocation(ctx, part); err != nil {
			return err
		}
		return s.repo.UpdatePart(ctx, part)
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// Restock records a positive receipt of stock.
func (s *Service) Restock(ctx context.Context, partID int, quantity int) (*models.Part, error) {
	if quantity <= 0 {
		return nil, custom_error.NewValidation("quantity", "must be greater than zero")
	}

	var part *models.Part
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		part, err = s.restock(ctx, partID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

func (s *Service) restock(ctx context.Context, partID int, quantity int) (*models.Part, error) {
	part, err := s.AdjustQuantity(ctx, partID, quantity)
	if err != nil {
		return nil, err
	}
	now := s.now()
	part.LastRestockDate = &now
	if err := s.repo.UpdatePart(ctx, part); err != nil {
		return nil, err
	}
	return part, nil
}

// RegisterAdHocPart creates a MANUAL-<SLUG> part for an item that was never
// catalogued, or restocks it when the same name was registered before.
func (s *Service) RegisterAdHocPart(ctx context.Context, req AdHocPartRequest) (*models.Part, bool, error) {
	slug := Slug(req.Name)
	if slug == "" {
		return nil, false, custom_error.NewValidation("name", "must contain at least one letter or digit")
	}
	if req.Quantity <= 0 {
		return nil, false, custom_error.NewValidation("quantity", "must be greater than zero")
	}
	if req.UnitCost.IsNegative() {
		return nil, false, custom_error.NewValidation("unit_cost", "must not be negative")
	}

	partNumber := adHocPrefix + slug
	var (
		part    *models.Part
		created bool
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindPartByNumber(ctx, partNumber)
		if err == nil {
			part, err = s.restock(ctx, existing.ID, req.Quantity)
			return err
		}
		if !custom_error.IsNotFound(err) {
			return err
		}

		now := s.now()
		part = &models.Part{
			PartNumber:      partNumber,
			Name:            strings.TrimSpace(req.Name),
			Quantity:        req.Quantity,
			UnitCost:        req.UnitCost,
			LastRestockDate: &now,
		}
		id, err := s.repo.InsertPart(ctx, part)
		if err != nil {
			return err
		}
		part.ID = id
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return part, created, nil
}

// DeletePart removes an unreferenced part. A part that appears in any ledger
// is archived instead so the history keeps pointing at a real row. The
// returned flag is true when the part was archived.
func (s *Service) DeletePart(ctx context.Context, id int) (bool, error) {
	archived := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		part, err := s.repo.GetPartForUpdate(ctx, id)
		if err != nil {
			return err
		}

		referenced, err := s.repo.IsPartReferenced(ctx, id)
		if err != nil {
			return err
		}

		if !referenced {
			deleted, err := s.repo.DeletePart(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				return custom_error.NewNotFound("part", id)
			}
			return nil
		}

		archived = true
		if !strings.HasPrefix(part.Name, archivedPrefix) {
			part.Name = archivedPrefix + part.Name
		}
		part.Quantity = 0
		part.LocationID = nil
		part.ShelfID = nil
		part.Location = ""
		part.Archived = true
		return s.repo.UpdatePart(ctx, part)
	})
	if err != nil {
		return false, err
	}
	if archived {
		s.logger.Info("Archived referenced part instead of deleting it", zap.Int("part_id", id))
	}
	return archived, nil
}

// deriveLocation recomputes the display location from the location and shelf ids.
func (s *Service) deriveLocation(ctx context.Context, part *models.Part) error {
	part.Location = ""

	var shelf *models.Shelf
	if part.ShelfID != nil {
		var err error
		shelf, err = s.locations.GetShelf(ctx, *part.ShelfID)
		if err != nil {
			if custom_error.IsNotFound(err) {
				return custom_error.NewValidation("shelf_id", fmt.Sprintf("shelf %d does not exist", *part.ShelfID))
			}
			return err
		}
		if part.LocationID == nil {
			locationID := shelf.LocationID
			part.LocationID = &locationID
		} else if *part.LocationID != shelf.LocationID {
			return custom_error.NewValidation("shelf_id", "shelf does not belong to the selected location")
		}
	}

	if part.LocationID == nil {
		return nil
	}

	location, err := s.locations.GetLocation(ctx, *part.LocationID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			return custom_error.NewValidation("location_id", fmt.Sprintf("location %d does not exist", *part.LocationID))
		}
		return err
	}

	part.Location = location.Name
	if shelf != nil {
		part.Location = location.Name + " - " + shelf.Name
	}
	return nil
}

// Slug upper-cases name and joins its alphanumeric runs with dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
