package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

func (s *Store) InsertUser(ctx context.Context, user *models.User) (int, error) {
	defer s.lock(ctx)()

	for _, existing := range s.st.users {
		if existing.Username == user.Username {
			return 0, uniqueViolation("username %s already exists", user.Username)
		}
	}
	row := *user
	row.ID = s.st.nextID("users")
	s.st.users[row.ID] = row
	return row.ID, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	defer s.lock(ctx)()

	if _, ok := s.st.users[user.ID]; !ok {
		return custom_error.NewNotFound("user", user.ID)
	}
	for id, existing := range s.st.users {
		if id != user.ID && existing.Username == user.Username {
			return uniqueViolation("username %s already exists", user.Username)
		}
	}
	s.st.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	defer s.lock(ctx)()

	user, ok := s.st.users[id]
	if !ok {
		return nil, custom_error.NewNotFound("user", id)
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer s.lock(ctx)()

	for _, user := range s.st.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, custom_error.NewNotFound("user", username)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	defer s.lock(ctx)()

	users := make([]models.User, 0, len(s.st.users))
	for _, user := range s.st.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) ListUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	defer s.lock(ctx)()

	users := []models.User{}
	for id := range idSet(ids) {
		if user, ok := s.st.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *Store) PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log data: %w", err)
	}

	defer s.lock(ctx)()

	entry.ID = s.st.nextID("audit_logs")
	entry.DataRaw = string(raw)
	entry.CreatedAt = time.Now()
	entry.LoadFromDB()
	s.st.auditLogs = append(s.st.auditLogs, entry)
	return nil
}

func (s *Store) GetResourceLog(ctx context.Context, id int, resourceType string) ([]models.AuditLog, error) {
	defer s.lock(ctx)()

	logs := []models.AuditLog{}
	for _, entry := range s.st.auditLogs {
		if entry.ResourceID == id && entry.ResourceType == resourceType {
			logs = append(logs, entry)
		}
	}
	return logs, nil
}
