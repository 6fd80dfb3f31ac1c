package memory

import (
	"context"
	"sort"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

func (s *Store) InsertTool(ctx context.Context, tool *models.Tool) (int, error) {
	defer s.lock(ctx)()

	if err := s.checkToolRow(*tool); err != nil {
		return 0, err
	}
	row := *tool
	row.Available = false
	row.ID = s.st.nextID("tools")
	s.st.tools[row.ID] = row
	return row.ID, nil
}

func (s *Store) GetTool(ctx context.Context, id int) (*models.Tool, error) {
	defer s.lock(ctx)()

	tool, ok := s.st.tools[id]
	if !ok {
		return nil, custom_error.NewNotFound("tool", id)
	}
	return &tool, nil
}

func (s *Store) GetToolForUpdate(ctx context.Context, id int) (*models.Tool, error) {
	if err := s.requireTx(ctx); err != nil {
		return nil, err
	}
	return s.GetTool(ctx, id)
}

func (s *Store) UpdateTool(ctx context.Context, tool *models.Tool) error {
	defer s.lock(ctx)()

	if _, ok := s.st.tools[tool.ID]; !ok {
		return custom_error.NewNotFound("tool", tool.ID)
	}
	if err := s.checkToolRow(*tool); err != nil {
		return err
	}
	row := *tool
	row.Available = false
	s.st.tools[tool.ID] = row
	return nil
}

// DeleteTool removes the tool and, like ON DELETE CASCADE, its signouts.
func (s *Store) DeleteTool(ctx context.Context, id int) (bool, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.tools[id]; !ok {
		return false, nil
	}
	delete(s.st.tools, id)
	for signoutID, signout := range s.st.signouts {
		if signout.ToolID == id {
			delete(s.st.signouts, signoutID)
		}
	}
	return true, nil
}

func (s *Store) ListTools(ctx context.Context) ([]models.Tool, error) {
	defer s.lock(ctx)()

	tools := make([]models.Tool, 0, len(s.st.tools))
	for _, tool := range s.st.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].ToolNumber < tools[j].ToolNumber })
	return tools, nil
}

func (s *Store) ListToolNumbers(ctx context.Context) ([]int, error) {
	defer s.lock(ctx)()

	numbers := make([]int, 0, len(s.st.tools))
	for _, tool := range s.st.tools {
		numbers = append(numbers, tool.ToolNumber)
	}
	sort.Ints(numbers)
	return numbers, nil
}

func (s *Store) InsertSignout(ctx context.Context, signout *models.ToolSignout) (int, error) {
	defer s.lock(ctx)()

	if err := s.checkSignoutRow(*signout); err != nil {
		return 0, err
	}
	row := *signout
	row.ID = s.st.nextID("tool_signouts")
	s.st.signouts[row.ID] = row
	return row.ID, nil
}

func (s *Store) GetSignout(ctx context.Context, id int) (*models.ToolSignout, error) {
	defer s.lock(ctx)()

	signout, ok := s.st.signouts[id]
	if !ok {
		return nil, custom_error.NewNotFound("signout", id)
	}
	return &signout, nil
}

func (s *Store) GetSignoutForUpdate(ctx context.Context, id int) (*models.ToolSignout, error) {
	if err := s.requireTx(ctx); err != nil {
		return nil, err
	}
	return s.GetSignout(ctx, id)
}

func (s *Store) UpdateSignout(ctx context.Context, signout *models.ToolSignout) error {
	defer s.lock(ctx)()

	if _, ok := s.st.signouts[signout.ID]; !ok {
		return custom_error.NewNotFound("signout", signout.ID)
	}
	if err := s.checkSignoutRow(*signout); err != nil {
		return err
	}
	s.st.signouts[signout.ID] = *signout
	return nil
}

func (s *Store) FindOpenSignout(ctx context.Context, toolID int) (*models.ToolSignout, error) {
	defer s.lock(ctx)()

	for _, signout := range s.st.signouts {
		if signout.ToolID == toolID && signout.IsOpen() {
			found := signout
			return &found, nil
		}
	}
	return nil, custom_error.NewNotFound("open signout for tool", toolID)
}

func (s *Store) ListOpenToolIDs(ctx context.Context) ([]int, error) {
	defer s.lock(ctx)()

	ids := []int{}
	for _, signout := range s.st.signouts {
		if signout.IsOpen() {
			ids = append(ids, signout.ToolID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *Store) ListSignouts(ctx context.Context, filter models.SignoutFilter) ([]models.ToolSignout, error) {
	defer s.lock(ctx)()

	signouts := []models.ToolSignout{}
	for _, signout := range s.st.signouts {
		if filter.ToolID != nil && signout.ToolID != *filter.ToolID {
			continue
		}
		if filter.TechnicianID != nil && signout.TechnicianID != *filter.TechnicianID {
			continue
		}
		if filter.Status != nil && signout.Status != *filter.Status {
			continue
		}
		signouts = append(signouts, signout)
	}

	sort.Slice(signouts, func(i, j int) bool {
		if signouts[i].SignedOutAt.Equal(signouts[j].SignedOutAt) {
			return signouts[i].ID > signouts[j].ID
		}
		return signouts[i].SignedOutAt.After(signouts[j].SignedOutAt)
	})
	return signouts, nil
}

func (s *Store) checkToolRow(tool models.Tool) error {
	for id, existing := range s.st.tools {
		if id != tool.ID && existing.ToolNumber == tool.ToolNumber {
			return uniqueViolation("tool number %d already exists", tool.ToolNumber)
		}
	}
	return nil
}

// checkSignoutRow mirrors the partial unique index on open signouts.
func (s *Store) checkSignoutRow(signout models.ToolSignout) error {
	if _, ok := s.st.tools[signout.ToolID]; !ok {
		return foreignKeyViolation("tool %d does not exist", signout.ToolID)
	}
	if !signout.IsOpen() {
		return nil
	}
	for id, existing := range s.st.signouts {
		if id != signout.ID && existing.ToolID == signout.ToolID && existing.IsOpen() {
			return uniqueViolation("tool %d already has an open signout", signout.ToolID)
		}
	}
	return nil
}
