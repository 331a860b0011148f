package model

import "time"

// ProviderSetting is a key/value setting for a market data provider.
// Encrypted values hold a fernet token rather than the plain value.
type ProviderSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"-"`
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SettingStatus reports whether a secret setting is configured without exposing it.
type SettingStatus struct {
	Key        string     `json:"key"`
	Configured bool       `json:"configured"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}
