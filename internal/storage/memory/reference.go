package memory

import (
	"context"
	"sort"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

// AddLocation seeds a storage location and returns its id.
func (s *Store) AddLocation(loc models.StorageLocation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc.ID = s.st.nextID("storage_locations")
	s.st.locations[loc.ID] = loc
	return loc.ID
}

func (s *Store) AddShelf(shelf models.Shelf) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	shelf.ID = s.st.nextID("shelves")
	s.st.shelves[shelf.ID] = shelf
	return shelf.ID
}

func (s *Store) AddStaffMember(member models.StaffMember) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	member.ID = s.st.nextID("staff_members")
	s.st.staff[member.ID] = member
	return member.ID
}

// RemoveStaffMember deletes the staff row while leaving deliveries in place,
// the state a directory sync can leave behind.
func (s *Store) RemoveStaffMember(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.staff, id)
}

func (s *Store) AddBuilding(building models.Building) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	building.ID = s.st.nextID("buildings")
	s.st.buildings[building.ID] = building
	return building.ID
}

func (s *Store) AddCostCenter(cc models.CostCenter) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cc.ID = s.st.nextID("cost_centers")
	s.st.costCenters[cc.ID] = cc
	return cc.ID
}

func (s *Store) ListLocations(ctx context.Context) ([]models.StorageLocation, error) {
	defer s.lock(ctx)()

	locations := make([]models.StorageLocation, 0, len(s.st.locations))
	for _, loc := range s.st.locations {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].Name < locations[j].Name })
	return locations, nil
}

func (s *Store) GetLocation(ctx context.Context, id int) (*models.StorageLocation, error) {
	defer s.lock(ctx)()

	loc, ok := s.st.locations[id]
	if !ok {
		return nil, custom_error.NewNotFound("location", id)
	}
	return &loc, nil
}

func (s *Store) GetShelf(ctx context.Context, id int) (*models.Shelf, error) {
	defer s.lock(ctx)()

	shelf, ok := s.st.shelves[id]
	if !ok {
		return nil, custom_error.NewNotFound("shelf", id)
	}
	return &shelf, nil
}

func (s *Store) ListShelves(ctx context.Context, locationID int) ([]models.Shelf, error) {
	defer s.lock(ctx)()

	shelves := []models.Shelf{}
	for _, shelf := range s.st.shelves {
		if shelf.LocationID == locationID {
			shelves = append(shelves, shelf)
		}
	}
	sort.Slice(shelves, func(i, j int) bool { return shelves[i].Name < shelves[j].Name })
	return shelves, nil
}

func (s *Store) ListStaffMembers(ctx context.Context) ([]models.StaffMember, error) {
	defer s.lock(ctx)()

	members := make([]models.StaffMember, 0, len(s.st.staff))
	for _, m := range s.st.staff {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (s *Store) GetStaffMember(ctx context.Context, id int) (*models.StaffMember, error) {
	defer s.lock(ctx)()

	member, ok := s.st.staff[id]
	if !ok {
		return nil, custom_error.NewNotFound("staff member", id)
	}
	return &member, nil
}

func (s *Store) ListStaffMembersByIDs(ctx context.Context, ids []int) ([]models.StaffMember, error) {
	defer s.lock(ctx)()

	members := []models.StaffMember{}
	for id := range idSet(ids) {
		if m, ok := s.st.staff[id]; ok {
			members = append(members, m)
		}
	}
	return members, nil
}

func (s *Store) ListBuildings(ctx context.Context) ([]models.Building, error) {
	defer s.lock(ctx)()

	buildings := make([]models.Building, 0, len(s.st.buildings))
	for _, b := range s.st.buildings {
		buildings = append(buildings, b)
	}
	sort.Slice(buildings, func(i, j int) bool { return buildings[i].Name < buildings[j].Name })
	return buildings, nil
}

func (s *Store) ListBuildingsByIDs(ctx context.Context, ids []int) ([]models.Building, error) {
	defer s.lock(ctx)()

	buildings := []models.Building{}
	for id := range idSet(ids) {
		if b, ok := s.st.buildings[id]; ok {
			buildings = append(buildings, b)
		}
	}
	return buildings, nil
}

func (s *Store) ListCostCenters(ctx context.Context) ([]models.CostCenter, error) {
	defer s.lock(ctx)()

	centers := make([]models.CostCenter, 0, len(s.st.costCenters))
	for _, cc := range s.st.costCenters {
		centers = append(centers, cc)
	}
	sort.Slice(centers, func(i, j int) bool { return centers[i].Code < centers[j].Code })
	return centers, nil
}

func (s *Store) ListCostCentersByIDs(ctx context.Context, ids []int) ([]models.CostCenter, error) {
	defer s.lock(ctx)()

	centers := []models.CostCenter{}
	for id := range idSet(ids) {
		if cc, ok := s.st.costCenters[id]; ok {
			centers = append(centers, cc)
		}
	}
	return centers, nil
}
