package repository

import (
	"context"
	"errors"

	"livepoll/internal/domain/user"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Create(u)
	if res.Error != nil {
		if isUniqueViolation(res.Error) || errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return livepoll_errors.ErrAlreadyExists
		}
		return classify(res.Error)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, livepoll_errors.ErrNotFound
		}
		return user.User{}, classify(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, livepoll_errors.ErrNotFound
		}
		return user.User{}, classify(err)
	}
	return u, nil
}
