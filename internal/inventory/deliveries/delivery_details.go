package deliveries

import (
	"context"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

// ListWithDetails loads the deliveries in the range and joins them in memory
// with their parts, staff members, buildings, cost centers and issuing users.
// It issues one query per table no matter how many deliveries match.
func (s *Service) ListWithDetails(ctx context.Context, filter models.DeliveryFilter) ([]models.DeliveryDetail, error) {
	deliveries, err := s.repo.ListDeliveries(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.attachDetails(ctx, deliveries)
}

func (s *Service) GetWithDetails(ctx context.Context, id int) (*models.DeliveryDetail, error) {
	delivery, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.attachDetails(ctx, []models.Delivery{*delivery})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *Service) attachDetails(ctx context.Context, deliveries []models.Delivery) ([]models.DeliveryDetail, error) {
	if len(deliveries) == 0 {
		return []models.DeliveryDetail{}, nil
	}

	var partIDs, staffIDs, userIDs []int
	for _, d := range deliveries {
		partIDs = append(partIDs, d.PartID)
		staffIDs = append(staffIDs, d.StaffMemberID)
		if d.DeliveredByID != nil {
			userIDs = append(userIDs, *d.DeliveredByID)
		}
	}

	partList, err := s.parts.PartsByIDs(ctx, unique(partIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery parts: %w", err)
	}
	staffList, err := s.directory.ListStaffMembersByIDs(ctx, unique(staffIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery staff: %w", err)
	}

	staff := make(map[int]models.StaffMember, len(staffList))
	for _, m := range staffList {
		staff[m.ID] = m
	}

	// Buildings and cost centers fall back to the staff member's own when the
	// delivery does not name one.
	buildingIDs := make([]int, 0, len(deliveries))
	costCenterIDs := make([]int, 0, len(deliveries))
	for _, d := range deliveries {
		member := staff[d.StaffMemberID]
		if id := firstID(d.BuildingID, member.BuildingID); id != nil {
			buildingIDs = append(buildingIDs, *id)
		}
		if id := firstID(d.CostCenterID, member.CostCenterID); id != nil {
			costCenterIDs = append(costCenterIDs, *id)
		}
	}

	buildingList, err := s.directory.ListBuildingsByIDs(ctx, unique(buildingIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery buildings: %w", err)
	}
	costCenterList, err := s.directory.ListCostCentersByIDs(ctx, unique(costCenterIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery cost centers: %w", err)
	}
	users := map[int]models.User{}
	if len(userIDs) > 0 && s.users != nil {
		userList, err := s.users.ListUsersByIDs(ctx, unique(userIDs))
		if err != nil {
			return nil, fmt.Errorf("failed to load delivery users: %w", err)
		}
		for _, u := range userList {
			users[u.ID] = u
		}
	}

	partsByID := make(map[int]models.Part, len(partList))
	for _, p := range partList {
		partsByID[p.ID] = p
	}
	buildings := make(map[int]models.Building, len(buildingList))
	for _, b := range buildingList {
		buildings[b.ID] = b
	}
	costCenters := make(map[int]models.CostCenter, len(costCenterList))
	for _, cc := range costCenterList {
		costCenters[cc.ID] = cc
	}

	details := make([]models.DeliveryDetail, 0, len(deliveries))
	for _, d := range deliveries {
		detail := models.DeliveryDetail{Delivery: d}

		if p, ok := partsByID[d.PartID]; ok {
			detail.Part = p
		} else {
			detail.Part = models.Part{ID: d.PartID}
		}

		member, ok := staff[d.StaffMemberID]
		if !ok {
			member = models.UnknownStaffMember(d.StaffMemberID)
		}
		detail.StaffMember = member

		if id := firstID(d.BuildingID, member.BuildingID); id != nil {
			if b, ok := buildings[*id]; ok {
				detail.Building = &b
			}
		}
		if id := firstID(d.CostCenterID, member.CostCenterID); id != nil {
			if cc, ok := costCenters[*id]; ok {
				detail.CostCenter = &cc
			}
		}
		if d.DeliveredByID != nil {
			if u, ok := users[*d.DeliveredByID]; ok {
				detail.DeliveredBy = &u
			}
		}

		details = append(details, detail)
	}

	return details, nil
}

func firstID(ids ...*int) *int {
	for _, id := range ids {
		if id != nil {
			return id
		}
	}
	return nil
}

func unique(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
