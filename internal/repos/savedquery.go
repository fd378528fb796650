package repos

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/logger"
)

// ErrInvalid is returned for input that fails validation.
var ErrInvalid = errors.New("invalid input")

// SavedQueryUpdate is a partial update. Nil fields are kept.
type SavedQueryUpdate struct {
	Title      *string
	Tags       *[]string
	IsFavorite *bool
	Folder     *string
}

// SavedQueryRepo stores each user's saved assistant queries.
type SavedQueryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, q *SavedQuery) (*SavedQuery, error)
	// ListByUser returns userID's queries, most recently updated first.
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*SavedQuery, error)
	// Update and Delete return ErrNotFound unless userID owns the query.
	Update(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, u SavedQueryUpdate) (*SavedQuery, error)
	Delete(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) error
}

type savedQueryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSavedQueryRepo creates a SavedQueryRepo backed by db.
func NewSavedQueryRepo(db *gorm.DB, baseLog *logger.Logger) SavedQueryRepo {
	return &savedQueryRepo{db: db, log: baseLog.With("repo", "SavedQueryRepo")}
}

// EncodeTags renders tags as the stored JSON array.
func EncodeTags(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return datatypes.JSON(b)
}

func (r *savedQueryRepo) Create(ctx context.Context, tx *gorm.DB, q *SavedQuery) (*SavedQuery, error) {
	if q.Title == "" || q.Query == "" || q.Mode == "" {
		return nil, ErrInvalid
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if len(q.Tags) == 0 {
		q.Tags = EncodeTags(nil)
	}
	if err := pick(r.db, tx).WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

func (r *savedQueryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*SavedQuery, error) {
	out := []*SavedQuery{}
	err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *savedQueryRepo) owned(db *gorm.DB, id, userID uuid.UUID) (*SavedQuery, error) {
	var q SavedQuery
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&q).Error; err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *savedQueryRepo) Update(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, u SavedQueryUpdate) (*SavedQuery, error) {
	db := pick(r.db, tx).WithContext(ctx)
	q, err := r.owned(db, id, userID)
	if err != nil {
		return nil, err
	}
	if u.Title != nil && *u.Title != "" {
		q.Title = *u.Title
	}
	if u.Tags != nil {
		q.Tags = EncodeTags(*u.Tags)
	}
	if u.IsFavorite != nil {
		q.IsFavorite = *u.IsFavorite
	}
	if u.Folder != nil {
		q.Folder = u.Folder
	}
	if err := db.Save(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

func (r *savedQueryRepo) Delete(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) error {
	db := pick(r.db, tx).WithContext(ctx)
	q, err := r.owned(db, id, userID)
	if err != nil {
		return err
	}
	return db.Delete(q).Error
}
