package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
)

// FinMindTokenKey is the provider_setting key of the FinMind API token.
const FinMindTokenKey = "finmind_token"

// SettingsService stores provider secrets encrypted with a fernet key.
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	key          *fernet.Key
	log          zerolog.Logger
}

// NewSettingsService creates a new SettingsService. An empty encryptionKey
// disables storing secrets; a malformed key is an error.
func NewSettingsService(settingsRepo *repository.SettingsRepository, encryptionKey string, log zerolog.Logger) (*SettingsService, error) {
	s := &SettingsService{
		settingsRepo: settingsRepo,
		log:          log.With().Str("component", "settings_service").Logger(),
	}
	if encryptionKey != "" {
		key, err := fernet.DecodeKey(encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		s.key = key
	}
	return s, nil
}

// SetFinMindToken encrypts and stores the FinMind token. An empty token
// removes the stored one.
func (s *SettingsService) SetFinMindToken(ctx context.Context, token string) (model.SettingStatus, error) {
	if token == "" {
		if err := s.settingsRepo.DeleteSetting(ctx, FinMindTokenKey); err != nil {
			return model.SettingStatus{}, err
		}
		s.log.Info().Msg("FinMind token cleared")
		return model.SettingStatus{Key: FinMindTokenKey}, nil
	}
	if s.key == nil {
		return model.SettingStatus{}, apperrors.ErrEncryptionKeyMissing
	}

	sealed, err := fernet.EncryptAndSign([]byte(token), s.key)
	if err != nil {
		return model.SettingStatus{}, fmt.Errorf("failed to encrypt token: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	setting := model.ProviderSetting{
		Key:       FinMindTokenKey,
		Value:     string(sealed),
		Encrypted: true,
		UpdatedAt: now,
	}
	if err := s.settingsRepo.UpsertSetting(ctx, setting); err != nil {
		return model.SettingStatus{}, err
	}

	s.log.Info().Msg("FinMind token updated")
	return model.SettingStatus{Key: FinMindTokenKey, Configured: true, UpdatedAt: &now}, nil
}

// FinMindTokenStatus reports whether a FinMind token is stored.
func (s *SettingsService) FinMindTokenStatus(ctx context.Context) (model.SettingStatus, error) {
	setting, err := s.settingsRepo.GetSetting(ctx, FinMindTokenKey)
	if errors.Is(err, apperrors.ErrSettingNotFound) {
		return model.SettingStatus{Key: FinMindTokenKey}, nil
	}
	if err != nil {
		return model.SettingStatus{}, err
	}
	return model.SettingStatus{Key: FinMindTokenKey, Configured: true, UpdatedAt: &setting.UpdatedAt}, nil
}

// Token returns the decrypted FinMind token, or "" when none is stored.
// It lets the service act as the FinMind client's token source.
func (s *SettingsService) Token(ctx context.Context) (string, error) {
	setting, err := s.settingsRepo.GetSetting(ctx, FinMindTokenKey)
	if errors.Is(err, apperrors.ErrSettingNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !setting.Encrypted {
		return setting.Value, nil
	}
	if s.key == nil {
		return "", apperrors.ErrEncryptionKeyMissing
	}

	plain := fernet.VerifyAndDecrypt([]byte(setting.Value), 0, []*fernet.Key{s.key})
	if plain == nil {
		return "", errors.New("failed to decrypt FinMind token")
	}
	return string(plain), nil
}
