package memory

import (
	"context"
	"sort"
	"strings"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

func (s *Store) InsertIssuance(ctx context.Context, issuance *models.Issuance) (int, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.parts[issuance.PartID]; !ok {
		return 0, foreignKeyViolation("part %d does not exist", issuance.PartID)
	}
	row := *issuance
	row.ID = s.st.nextID("parts_issuance")
	s.st.issuances[row.ID] = row
	return row.ID, nil
}

func (s *Store) GetIssuance(ctx context.Context, id int) (*models.Issuance, error) {
	defer s.lock(ctx)()

	issuance, ok := s.st.issuances[id]
	if !ok {
		return nil, custom_error.NewNotFound("issuance", id)
	}
	return &issuance, nil
}

func (s *Store) GetIssuanceForUpdate(ctx context.Context, id int) (*models.Issuance, error) {
	if err := s.requireTx(ctx); err != nil {
		return nil, err
	}
	return s.GetIssuance(ctx, id)
}

func (s *Store) UpdateIssuance(ctx context.Context, issuance *models.Issuance) error {
	defer s.lock(ctx)()

	if _, ok := s.st.issuances[issuance.ID]; !ok {
		return custom_error.NewNotFound("issuance", issuance.ID)
	}
	if _, ok := s.st.parts[issuance.PartID]; !ok {
		return foreignKeyViolation("part %d does not exist", issuance.PartID)
	}
	s.st.issuances[issuance.ID] = *issuance
	return nil
}

func (s *Store) DeleteIssuance(ctx context.Context, id int) (bool, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.issuances[id]; !ok {
		return false, nil
	}
	delete(s.st.issuances, id)
	return true, nil
}

func (s *Store) ListIssuances(ctx context.Context, filter models.IssuanceFilter) ([]models.Issuance, error) {
	defer s.lock(ctx)()

	recipient := strings.ToLower(filter.IssuedTo)
	issuances := []models.Issuance{}
	for _, i := range s.st.issuances {
		if filter.PartID != nil && i.PartID != *filter.PartID {
			continue
		}
		if filter.BuildingID != nil && (i.BuildingID == nil || *i.BuildingID != *filter.BuildingID) {
			continue
		}
		if recipient != "" && !strings.Contains(strings.ToLower(i.IssuedTo), recipient) {
			continue
		}
		if !filter.DateRange.Contains(i.IssuedAt) {
			continue
		}
		issuances = append(issuances, i)
	}

	sort.Slice(issuances, func(a, b int) bool {
		if issuances[a].IssuedAt.Equal(issuances[b].IssuedAt) {
			return issuances[a].ID > issuances[b].ID
		}
		return issuances[a].IssuedAt.After(issuances[b].IssuedAt)
	})
	return issuances, nil
}

func (s *Store) InsertDelivery(ctx context.Context, delivery *models.Delivery) (int, error) {
	defer s.lock(ctx)()

	if err := s.checkDeliveryRow(*delivery); err != nil {
		return 0, err
	}
	row := *delivery
	row.ID = s.st.nextID("parts_delivery")
	s.st.deliveries[row.ID] = row
	return row.ID, nil
}

func (s *Store) GetDelivery(ctx context.Context, id int) (*models.Delivery, error) {
	defer s.lock(ctx)()

	delivery, ok := s.st.deliveries[id]
	if !ok {
		return nil, custom_error.NewNotFound("delivery", id)
	}
	return &delivery, nil
}

func (s *Store) GetDeliveryForUpdate(ctx context.Context, id int) (*models.Delivery, error) {
	if err := s.requireTx(ctx); err != nil {
		return nil, err
	}
	return s.GetDelivery(ctx, id)
}

func (s *Store) UpdateDelivery(ctx context.Context, delivery *models.Delivery) error {
	defer s.lock(ctx)()

	if _, ok := s.st.deliveries[delivery.ID]; !ok {
		return custom_error.NewNotFound("delivery", delivery.ID)
	}
	if err := s.checkDeliveryRow(*delivery); err != nil {
		return err
	}
	s.st.deliveries[delivery.ID] = *delivery
	return nil
}

func (s *Store) DeleteDelivery(ctx context.Context, id int) (bool, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.deliveries[id]; !ok {
		return false, nil
	}
	delete(s.st.deliveries, id)
	return true, nil
}

func (s *Store) ListDeliveries(ctx context.Context, filter models.DeliveryFilter) ([]models.Delivery, error) {
	defer s.lock(ctx)()

	deliveries := []models.Delivery{}
	for _, d := range s.st.deliveries {
		if filter.StaffMemberID != nil && d.StaffMemberID != *filter.StaffMemberID {
			continue
		}
		if filter.PartID != nil && d.PartID != *filter.PartID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if !filter.DateRange.Contains(d.DeliveredAt) {
			continue
		}
		deliveries = append(deliveries, d)
	}

	sort.Slice(deliveries, func(a, b int) bool {
		if deliveries[a].DeliveredAt.Equal(deliveries[b].DeliveredAt) {
			return deliveries[a].ID > deliveries[b].ID
		}
		return deliveries[a].DeliveredAt.After(deliveries[b].DeliveredAt)
	})
	return deliveries, nil
}

func (s *Store) checkDeliveryRow(d models.Delivery) error {
	if _, ok := s.st.parts[d.PartID]; !ok {
		return foreignKeyViolation("part %d does not exist", d.PartID)
	}
	if _, ok := s.st.staff[d.StaffMemberID]; !ok {
		return foreignKeyViolation("staff member %d does not exist", d.StaffMemberID)
	}
	return nil
}
