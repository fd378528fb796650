package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhisek/workbook/internal/logger"
)

// ClassRepo stores classes and their enrollments.
type ClassRepo interface {
	// Create assigns an id when c.ID is nil.
	Create(ctx context.Context, tx *gorm.DB, c *Class) (*Class, error)
	// GetOwned returns the class only when instructorID owns it.
	GetOwned(ctx context.Context, tx *gorm.DB, classID, instructorID uuid.UUID) (*Class, error)
	// ListByInstructor returns instructorID's classes with enrollments preloaded.
	ListByInstructor(ctx context.Context, tx *gorm.DB, instructorID uuid.UUID) ([]*Class, error)
	// Enroll is idempotent.
	Enroll(ctx context.Context, tx *gorm.DB, classID, userID uuid.UUID) (*Enrollment, error)
	// Enrollments returns the class roster with each User preloaded.
	Enrollments(ctx context.Context, tx *gorm.DB, classID uuid.UUID) ([]*Enrollment, error)
	// ClassesForUser returns the ids of the classes userID is enrolled in.
	ClassesForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type classRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewClassRepo creates a ClassRepo backed by db.
func NewClassRepo(db *gorm.DB, baseLog *logger.Logger) ClassRepo {
	return &classRepo{db: db, log: baseLog.With("repo", "ClassRepo")}
}

func (r *classRepo) Create(ctx context.Context, tx *gorm.DB, c *Class) (*Class, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := pick(r.db, tx).WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *classRepo) GetOwned(ctx context.Context, tx *gorm.DB, classID, instructorID uuid.UUID) (*Class, error) {
	var c Class
	err := pick(r.db, tx).WithContext(ctx).
		Where("id = ? AND instructor_id = ?", classID, instructorID).
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *classRepo) ListByInstructor(ctx context.Context, tx *gorm.DB, instructorID uuid.UUID) ([]*Class, error) {
	var out []*Class
	err := pick(r.db, tx).WithContext(ctx).
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Enrollments.User").
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classRepo) Enroll(ctx context.Context, tx *gorm.DB, classID, userID uuid.UUID) (*Enrollment, error) {
	db := pick(r.db, tx).WithContext(ctx)

	var existing Enrollment
	err := db.Where("class_id = ? AND user_id = ?", classID, userID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if notFound(err) != ErrNotFound {
		return nil, err
	}

	e := &Enrollment{ID: uuid.New(), ClassID: classID, UserID: userID}
	if err := db.Omit(clause.Associations).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

func (r *classRepo) Enrollments(ctx context.Context, tx *gorm.DB, classID uuid.UUID) ([]*Enrollment, error) {
	var out []*Enrollment
	err := pick(r.db, tx).WithContext(ctx).
		Preload("User").
		Where("class_id = ?", classID).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classRepo) ClassesForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := pick(r.db, tx).WithContext(ctx).
		Model(&Enrollment{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Pluck("class_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
