package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/logger"
)

// ArtifactRepo stores outputs students saved in a class.
type ArtifactRepo interface {
	// Create assigns an id when a.ID is nil.
	Create(ctx context.Context, tx *gorm.DB, a *Artifact) (*Artifact, error)
	// ListForClass returns the class's artifacts, newest first.
	ListForClass(ctx context.Context, tx *gorm.DB, classID uuid.UUID) ([]*Artifact, error)
}

type artifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewArtifactRepo creates an ArtifactRepo backed by db.
func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
	return &artifactRepo{db: db, log: baseLog.With("repo", "ArtifactRepo")}
}

func (r *artifactRepo) Create(ctx context.Context, tx *gorm.DB, a *Artifact) (*Artifact, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if err := pick(r.db, tx).WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *artifactRepo) ListForClass(ctx context.Context, tx *gorm.DB, classID uuid.UUID) ([]*Artifact, error) {
	var out []*Artifact
	err := pick(r.db, tx).WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
