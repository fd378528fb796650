package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhisek/workbook/internal/analytics"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/settings"
)

// PreferencesRepo stores one settings document per user.
type PreferencesRepo interface {
	// Get returns the user's settings. A known user without a document gets
	// a fresh onboarded default document; an unknown user gets defaults and
	// nothing is written.
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (settings.Settings, error)
	// Upsert stores the whole document. It reports false, and writes
	// nothing, when the user does not exist.
	Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, s settings.Settings) (bool, error)
	// Blobs returns the raw stored records for userIDs.
	Blobs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]analytics.Blob, error)
	// Delete removes the document; the next Get recreates a default one.
	Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type preferencesRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewPreferencesRepo creates a PreferencesRepo backed by db.
func NewPreferencesRepo(db *gorm.DB, baseLog *logger.Logger) PreferencesRepo {
	return &preferencesRepo{db: db, log: baseLog.With("repo", "PreferencesRepo")}
}

func (r *preferencesRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (settings.Settings, error) {
	db := pick(r.db, tx).WithContext(ctx)

	var row UserPreferences
	err := db.First(&row, "user_id = ?", userID).Error
	if err == nil {
		s, decodeErr := settings.Decode(toDocument(row))
		if decodeErr != nil {
			r.log.Warn("corrupt settings fields replaced with empty values", "user", userID, "error", decodeErr)
		}
		return s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return settings.Settings{}, err
	}

	var users int64
	if err := db.Model(&User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
		return settings.Settings{}, err
	}
	if users == 0 {
		return settings.Default(), nil
	}

	s := settings.Default()
	s.HasOnboarded = true
	created, err := fromSettings(userID, s)
	if err != nil {
		return settings.Settings{}, err
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&created).Error; err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}

func (r *preferencesRepo) Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, s settings.Settings) (bool, error) {
	db := pick(r.db, tx).WithContext(ctx)

	var users int64
	if err := db.Model(&User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
		return false, err
	}
	if users == 0 {
		r.log.Warn("settings upsert for unknown user ignored", "user", userID)
		return false, nil
	}

	row, err := fromSettings(userID, s)
	if err != nil {
		return false, err
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"language", "interests", "community", "output_style", "text_size",
			"default_reading_level", "micro_prompts_enabled", "curiosity",
			"has_onboarded", "signals", "preferences", "nudges", "last_session",
			"updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *preferencesRepo) Blobs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]analytics.Blob, error) {
	out := []analytics.Blob{}
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []UserPreferences
	err := pick(r.db, tx).WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, analytics.Blob{
			UserID:      row.UserID.String(),
			Signals:     row.Signals,
			Preferences: row.Preferences,
			Nudges:      row.Nudges,
		})
	}
	return out, nil
}

func (r *preferencesRepo) Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return pick(r.db, tx).WithContext(ctx).Delete(&UserPreferences{}, "user_id = ?", userID).Error
}

func toDocument(row UserPreferences) settings.Document {
	return settings.Document{
		Language:            row.Language,
		Interests:           row.Interests,
		Community:           row.Community,
		OutputStyle:         row.OutputStyle,
		TextSize:            row.TextSize,
		DefaultReadingLevel: row.DefaultReadingLevel,
		MicroPromptsEnabled: row.MicroPromptsEnabled,
		Curiosity:           row.Curiosity,
		HasOnboarded:        row.HasOnboarded,
		Signals:             row.Signals,
		Preferences:         row.Preferences,
		Nudges:              row.Nudges,
		LastSession:         row.LastSession,
	}
}

func fromSettings(userID uuid.UUID, s settings.Settings) (UserPreferences, error) {
	d, err := settings.Encode(s)
	if err != nil {
		return UserPreferences{}, err
	}
	return UserPreferences{
		UserID:              userID,
		Language:            d.Language,
		Interests:           d.Interests,
		Community:           d.Community,
		OutputStyle:         d.OutputStyle,
		TextSize:            d.TextSize,
		DefaultReadingLevel: d.DefaultReadingLevel,
		MicroPromptsEnabled: d.MicroPromptsEnabled,
		Curiosity:           d.Curiosity,
		HasOnboarded:        d.HasOnboarded,
		Signals:             d.Signals,
		Preferences:         d.Preferences,
		Nudges:              d.Nudges,
		LastSession:         d.LastSession,
	}, nil
}

// RemoteSettings adapts a PreferencesRepo to the session remote store.
type RemoteSettings struct {
	Repo PreferencesRepo
}

// LoadSettings reads the document for userID. A malformed id reads as
// defaults.
func (r RemoteSettings) LoadSettings(ctx context.Context, userID string) (settings.Settings, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return settings.Default(), nil
	}
	return r.Repo.Get(ctx, nil, id)
}

// SaveSettings upserts the document for userID. A malformed id is
// ignored.
func (r RemoteSettings) SaveSettings(ctx context.Context, userID string, s settings.Settings) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	_, err = r.Repo.Upsert(ctx, nil, id, s)
	return err
}
