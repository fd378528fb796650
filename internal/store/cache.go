package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/workbook/internal/settings"
)

// SettingsKey is the fixed key the anonymous settings live under.
const SettingsKey = "ai-research-workbook-settings"

// DefaultHistory is how many snapshots of the settings document are kept.
const DefaultHistory = 20

// LocalCache stores the anonymous user's Settings as a single JSON
// document.
type LocalCache struct {
	docs    *DocumentRepo
	snaps   *SnapshotRepo
	clock   func() time.Time
	history int
}

// NewLocalCache returns a LocalCache over s.
func NewLocalCache(s *Store) *LocalCache {
	return &LocalCache{
		docs:    s.Documents(),
		snaps:   s.Snapshots(),
		clock:   time.Now,
		history: DefaultHistory,
	}
}

// LoadSettings returns the cached settings. Fields missing from the stored
// document keep their defaults.
func (c *LocalCache) LoadSettings(ctx context.Context) (settings.Settings, bool, error) {
	doc, err := c.docs.Get(ctx, SettingsKey)
	if err != nil {
		return settings.Settings{}, false, err
	}
	if doc == nil {
		return settings.Settings{}, false, nil
	}
	s, err := settings.UnmarshalOver(doc.Body)
	if err != nil {
		return settings.Settings{}, false, fmt.Errorf("load cached settings: %w", err)
	}
	return s, true, nil
}

// SaveSettings replaces the cached settings and trims old snapshots.
func (c *LocalCache) SaveSettings(ctx context.Context, s settings.Settings) error {
	body, err := settings.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := c.docs.Put(ctx, SettingsKey, body, c.clock()); err != nil {
		return err
	}
	return c.snaps.Prune(ctx, SettingsKey, c.history)
}

// History returns up to limit past versions of the settings, newest first.
// Unreadable snapshots are skipped.
func (c *LocalCache) History(ctx context.Context, limit int) ([]VersionedSettings, error) {
	snaps, err := c.snaps.List(ctx, SettingsKey, limit)
	if err != nil {
		return nil, err
	}
	out := make([]VersionedSettings, 0, len(snaps))
	for _, snap := range snaps {
		s, err := settings.UnmarshalOver(snap.Body)
		if err != nil {
			continue
		}
		out = append(out, VersionedSettings{Version: snap.Version, SavedAt: snap.CreatedAt, Settings: s})
	}
	return out, nil
}

// Clear removes the cached settings.
func (c *LocalCache) Clear(ctx context.Context) error {
	return c.docs.Delete(ctx, SettingsKey)
}

// VersionedSettings is one entry of the cache history.
type VersionedSettings struct {
	Version  int64
	SavedAt  time.Time
	Settings settings.Settings
}
