// Package repos holds the gorm models and repositories of the remote store.
// Every method takes an optional transaction; nil uses the repo's handle.
package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/logger"
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the caller.
var ErrNotFound = errors.New("not found")

// Repos bundles every repository over one handle.
type Repos struct {
	Users        UserRepo
	Preferences  PreferencesRepo
	Classes      ClassRepo
	Events       EventRepo
	Artifacts    ArtifactRepo
	SavedQueries SavedQueryRepo
	LLMRequests  LLMRequestRepo
}

// New builds every repository.
func New(db *gorm.DB, log *logger.Logger) *Repos {
	log = logger.OrNop(log)
	return &Repos{
		Users:        NewUserRepo(db, log),
		Preferences:  NewPreferencesRepo(db, log),
		Classes:      NewClassRepo(db, log),
		Events:       NewEventRepo(db, log),
		Artifacts:    NewArtifactRepo(db, log),
		SavedQueries: NewSavedQueryRepo(db, log),
		LLMRequests:  NewLLMRequestRepo(db, log),
	}
}

func pick(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ParseID parses a uuid, mapping malformed ids to ErrNotFound.
func ParseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return u, nil
}
