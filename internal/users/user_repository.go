package users

import (
	"context"
	"fmt"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/doug-martin/goqu/v9"
)

type UserRepository interface {
	InsertUser(ctx context.Context, user *models.User) (int, error)
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersByIDs(ctx context.Context, ids []int) ([]models.User, error)
}

type userRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) UserRepository {
	return &userRepositoryImpl{repository: r}
}

func (r *userRepositoryImpl) InsertUser(ctx context.Context, user *models.User) (int, error) {
	var id int
	_, err := r.repository.Executor(ctx).Insert("users").
		Rows(goqu.Record{
			"password_hash": user.PasswordHash,
			"username":      user.Username,
			"fullname":      user.Fullname,
			"role":          user.Role,
		}).
		Returning("id").
		Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert User: %w", custom_error.FromPQ(err))
	}
	return id, nil
}

func (r *userRepositoryImpl) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := r.repository.Executor(ctx).Update("users").
		Set(goqu.Record{
			"password_hash": user.PasswordHash,
			"fullname":      user.Fullname,
			"role":          user.Role,
		}).
		Where(goqu.Ex{"id": user.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return custom_error.NewNotFound("user", user.ID)
	}
	return nil
}

func (r *userRepositoryImpl) GetUser(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, goqu.Ex{"id": id}, id)
}

func (r *userRepositoryImpl) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, goqu.Ex{"username": username}, username)
}

func (r *userRepositoryImpl) findOne(ctx context.Context, where goqu.Ex, key interface{}) (*models.User, error) {
	var user models.User
	found, err := r.repository.Executor(ctx).
		Select("id", "username", "fullname", "password_hash", "role").
		From("users").
		Where(where).
		ScanStructContext(ctx, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("user", key)
	}
	return &user, nil
}

func (r *userRepositoryImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.repository.Executor(ctx).
		Select("id", "username", "fullname", "role").
		From("users").
		Order(goqu.C("username").Asc()).
		ScanStructsContext(ctx, &users)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return users, nil
}

func (r *userRepositoryImpl) ListUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.repository.Executor(ctx).
		Select("id", "username", "fullname", "role").
		From("users").
		Where(goqu.C("id").In(ids)).
		ScanStructsContext(ctx, &users)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}
