package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/logger"
)

// UserRepo stores accounts.
type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, u *User) (*User, error)
	// GetByID and GetByEmail return ErrNotFound for unknown users.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*User, error)
	Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewUserRepo creates a UserRepo backed by db.
func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, u *User) (*User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if err := pick(r.db, tx).WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	var u User
	if err := pick(r.db, tx).WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*User, error) {
	var u User
	err := pick(r.db, tx).WithContext(ctx).
		First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	var n int64
	if err := pick(r.db, tx).WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
