package game

import (
	"encoding/json"

	"github.com/jarvis-math-lab/backend/internal/storage"
)

// Settings returns the level configuration document.
func (s *Service) Settings() SettingsDocument {
	return s.loadSettings()
}

// SaveSettings replaces the level configuration. The levels list must be
// present; its contents are not interpreted.
func (s *Service) SaveSettings(levels []json.RawMessage) error {
	if levels == nil {
		return ErrInvalidSettings
	}

	unlock := s.locker.Lock(storage.CollectionSettings)
	defer unlock()

	return s.saveSettings(SettingsDocument{Levels: levels})
}
