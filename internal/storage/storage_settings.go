package storage

const SettingsTable = "settings"

// GetSetting returns the stored value for key, or def when unset.
func (s *Storage) GetSetting(key string, def any) any {
	v, found, err := s.Get(SettingsTable, "value", Where{"key": key})
	if err != nil || !found || v == nil {
		return def
	}
	return v
}

// SetSetting stores a value under key.
func (s *Storage) SetSetting(key string, value any) error {
	return s.Set(SettingsTable, "value", value, Where{"key": key})
}

// SettingInt reads an integer setting.
func (s *Storage) SettingInt(key string, def int) int {
	v := s.GetSetting(key, nil)
	if v == nil {
		return def
	}
	return ToInt(v)
}

// SettingBool reads a boolean setting.
func (s *Storage) SettingBool(key string, def bool) bool {
	v := s.GetSetting(key, nil)
	if v == nil {
		return def
	}
	return ToBool(v)
}

// SettingString reads a string setting.
func (s *Storage) SettingString(key string, def string) string {
	v := s.GetSetting(key, nil)
	if v == nil {
		return def
	}
	if str := ToString(v); str != "" {
		return str
	}
	return def
}
