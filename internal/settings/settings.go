// Package settings is the key/value configuration layer with
// default-filling semantics: reads always resolve every known key.
package settings

import (
	"context"
	"fmt"

	"github.com/rollcall/rollcall/internal/store"
)

// Setting keys guaranteed to resolve on every read.
const (
	KeyFaceThreshold  = "face_recognition_threshold"
	KeyVoiceThreshold = "voice_recognition_threshold"
	KeyCameraID       = "camera_id"
	KeyMicrophoneID   = "microphone_id"
	KeyRequireBoth    = "require_both_auth"
)

// Defaults returns the default value for every known key.
func Defaults() map[string]any {
	return map[string]any{
		KeyFaceThreshold:  0.5,
		KeyVoiceThreshold: 0.5,
		KeyCameraID:       "",
		KeyMicrophoneID:   "",
		KeyRequireBoth:    true,
	}
}

// Store owns the settings state for the process. Constructed once at
// startup and handed to the components that read thresholds.
type Store struct {
	store store.Store
}

// New creates a settings Store over the given persistence port.
func New(st store.Store) *Store {
	return &Store{store: st}
}

// Get loads the persisted settings and back-fills any missing known key
// with its default, persisting the fill so the next read finds it.
// Idempotent: once every key exists, repeated calls perform no writes.
func (s *Store) Get(ctx context.Context) (map[string]any, error) {
	loaded, err := s.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	for key, def := range Defaults() {
		if _, ok := loaded[key]; ok {
			continue
		}
		if err := s.store.SaveSetting(ctx, key, def); err != nil {
			return nil, fmt.Errorf("get settings: back-fill %q: %w", key, err)
		}
		loaded[key] = def
	}
	return loaded, nil
}

// Set persists exactly the supplied map. Requiring a minimum key set is
// the boundary layer's job, not this component's.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	for key, value := range values {
		if err := s.store.SaveSetting(ctx, key, value); err != nil {
			return fmt.Errorf("set settings: %w", err)
		}
	}
	return nil
}

// Float reads a numeric setting from a resolved map, falling back to the
// default when the stored value is not numeric.
func Float(settings map[string]any, key string) float64 {
	switch v := settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	if def, ok := Defaults()[key].(float64); ok {
		return def
	}
	return 0
}

// Bool reads a boolean setting from a resolved map.
func Bool(settings map[string]any, key string) bool {
	if v, ok := settings[key].(bool); ok {
		return v
	}
	def, _ := Defaults()[key].(bool)
	return def
}
