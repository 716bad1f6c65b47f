package config

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
)

// AISettingKey is the persisted name of the AI toggle
const AISettingKey = "use_ai_guidance"

// SettingStore persists key/value settings
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Settings is mutable runtime state shared by the engine and the HTTP layer
type Settings struct {
	ai    atomic.Bool
	store SettingStore
}

// NewSettings returns settings with the AI toggle set to ai
func NewSettings(ai bool) *Settings {
	s := &Settings{}
	s.ai.Store(ai)
	return s
}

// Persist makes the toggle survive restarts. A stored value overrides the
// current one.
func (s *Settings) Persist(ctx context.Context, store SettingStore) error {
	v, err := store.GetSetting(ctx, AISettingKey)
	if err != nil {
		return err
	}
	if v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid stored %s %q: %w", AISettingKey, v, err)
		}
		s.ai.Store(on)
	}
	s.store = store
	return nil
}

// AIEnabled reports whether generative guidance is on
func (s *Settings) AIEnabled() bool {
	return s != nil && s.ai.Load()
}

// SetAIEnabled flips the toggle and stores it when persistence is set up
func (s *Settings) SetAIEnabled(ctx context.Context, on bool) error {
	s.ai.Store(on)
	if s.store == nil {
		return nil
	}
	return s.store.SetSetting(ctx, AISettingKey, strconv.FormatBool(on))
}
