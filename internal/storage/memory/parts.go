package memory

import (
	"context"
	"sort"
	"strings"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

func (s *Store) GetPart(ctx context.Context, id int) (*models.Part, error) {
	defer s.lock(ctx)()

	part, ok := s.st.parts[id]
	if !ok {
		return nil, custom_error.NewNotFound("part", id)
	}
	return &part, nil
}

func (s *Store) GetPartForUpdate(ctx context.Context, id int) (*models.Part, error) {
	if err := s.requireTx(ctx); err != nil {
		return nil, err
	}
	return s.GetPart(ctx, id)
}

func (s *Store) FindPartByNumber(ctx context.Context, partNumber string) (*models.Part, error) {
	defer s.lock(ctx)()

	for _, part := range s.st.parts {
		if part.PartNumber == partNumber {
			found := part
			return &found, nil
		}
	}
	return nil, custom_error.NewNotFound("part", partNumber)
}

func (s *Store) FindPartByBarcode(ctx context.Context, barcode string) (*models.Part, error) {
	defer s.lock(ctx)()

	partID, ok := s.st.barcodes[barcode]
	if !ok {
		return nil, custom_error.NewNotFound("part", barcode)
	}
	part, ok := s.st.parts[partID]
	if !ok {
		return nil, custom_error.NewNotFound("part", barcode)
	}
	return &part, nil
}

func (s *Store) ListParts(ctx context.Context, filter models.PartFilter) ([]models.Part, error) {
	defer s.lock(ctx)()

	search := strings.ToLower(filter.Search)
	parts := []models.Part{}
	for _, part := range s.st.parts {
		if !filter.IncludeArchived && part.Archived {
			continue
		}
		if filter.LocationID != nil && (part.LocationID == nil || *part.LocationID != *filter.LocationID) {
			continue
		}
		if filter.Category != "" && (part.Category == nil || *part.Category != filter.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(part.PartNumber), search) &&
			!strings.Contains(strings.ToLower(part.Name), search) {
			continue
		}
		if filter.LowStockOnly && !part.IsLowStock() {
			continue
		}
		parts = append(parts, part)
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts, nil
}

func (s *Store) ListPartsByIDs(ctx context.Context, ids []int) ([]models.Part, error) {
	defer s.lock(ctx)()

	parts := []models.Part{}
	for id := range idSet(ids) {
		if part, ok := s.st.parts[id]; ok {
			parts = append(parts, part)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })
	return parts, nil
}

func (s *Store) InsertPart(ctx context.Context, part *models.Part) (int, error) {
	defer s.lock(ctx)()

	if err := s.checkPartRow(*part); err != nil {
		return 0, err
	}

	row := *part
	row.ID = s.st.nextID("parts")
	s.st.parts[row.ID] = row
	return row.ID, nil
}

func (s *Store) InsertBarcode(ctx context.Context, partID int, barcode string) error {
	defer s.lock(ctx)()

	if _, ok := s.st.parts[partID]; !ok {
		return foreignKeyViolation("part %d does not exist", partID)
	}
	if _, taken := s.st.barcodes[barcode]; taken {
		return uniqueViolation("barcode %s already exists", barcode)
	}
	s.st.barcodes[barcode] = partID
	return nil
}

func (s *Store) UpdatePart(ctx context.Context, part *models.Part) error {
	defer s.lock(ctx)()

	if _, ok := s.st.parts[part.ID]; !ok {
		return custom_error.NewNotFound("part", part.ID)
	}
	if err := s.checkPartRow(*part); err != nil {
		return err
	}
	s.st.parts[part.ID] = *part
	return nil
}

func (s *Store) SetPartQuantity(ctx context.Context, id int, quantity int) error {
	defer s.lock(ctx)()

	part, ok := s.st.parts[id]
	if !ok {
		return custom_error.NewNotFound("part", id)
	}
	if quantity < 0 {
		return checkViolation("parts_quantity_check on part %d", id)
	}
	part.Quantity = quantity
	s.st.parts[id] = part
	return nil
}

func (s *Store) DeletePart(ctx context.Context, id int) (bool, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.parts[id]; !ok {
		return false, nil
	}
	if s.partReferenced(id) {
		return false, foreignKeyViolation("part %d is referenced by ledger rows", id)
	}

	delete(s.st.parts, id)
	for code, partID := range s.st.barcodes {
		if partID == id {
			delete(s.st.barcodes, code)
		}
	}
	return true, nil
}

func (s *Store) IsPartReferenced(ctx context.Context, id int) (bool, error) {
	defer s.lock(ctx)()
	return s.partReferenced(id), nil
}

func (s *Store) partReferenced(id int) bool {
	for _, d := range s.st.deliveries {
		if d.PartID == id {
			return true
		}
	}
	for _, i := range s.st.issuances {
		if i.PartID == id {
			return true
		}
	}
	return false
}

// checkPartRow mirrors the table constraints on parts.
func (s *Store) checkPartRow(part models.Part) error {
	if part.Quantity < 0 {
		return checkViolation("parts_quantity_check on part %s", part.PartNumber)
	}
	for id, existing := range s.st.parts {
		if id != part.ID && existing.PartNumber == part.PartNumber {
			return uniqueViolation("part number %s already exists", part.PartNumber)
		}
	}
	return nil
}
