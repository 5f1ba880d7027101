package config

import (
	"os"
	"strings"
	"sync"

	"wainbox/internal/repo"
)

// Provider credential keys. The same keys name the settings rows and,
// uppercased, the environment variables.
const (
	KeyAccessToken   = "meta_access_token"
	KeyPhoneNumberID = "meta_phone_number_id"
	KeyWABAID        = "meta_waba_id"
	KeyVerifyToken   = "meta_verify_token"
	KeyWebhookURL    = "webhook_url"
)

// ProviderKeys lists the credential keys overridable through the settings store
var ProviderKeys = []string{KeyAccessToken, KeyPhoneNumberID, KeyWABAID, KeyVerifyToken}

// Service resolves provider configuration. Values stored in the settings
// table take precedence over environment variables when they positively
// exist; overrides are mutable at runtime by an admin.
type Service struct {
	mu        sync.RWMutex
	overrides map[string]string
}

// NewService creates an empty config service
func NewService() *Service {
	return &Service{overrides: make(map[string]string)}
}

// Load reads all stored settings into the runtime override set.
// Called once at boot.
func (s *Service) Load(settings *repo.SettingRepository) error {
	values, err := settings.GetAll()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		if value != "" {
			s.overrides[key] = value
		}
	}
	return nil
}

// Get returns the effective value for a key: the stored override if
// present, else the corresponding environment variable.
func (s *Service) Get(key string) string {
	s.mu.RLock()
	value, ok := s.overrides[key]
	s.mu.RUnlock()
	if ok && value != "" {
		return value
	}
	return os.Getenv(strings.ToUpper(key))
}

// Set updates a runtime override. The caller is responsible for
// persisting the value through the settings repository.
func (s *Service) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.overrides, key)
		return
	}
	s.overrides[key] = value
}

// Source reports where the effective value of a key comes from:
// "db", "env" or "none".
func (s *Service) Source(key string) string {
	s.mu.RLock()
	_, ok := s.overrides[key]
	s.mu.RUnlock()
	if ok {
		return "db"
	}
	if os.Getenv(strings.ToUpper(key)) != "" {
		return "env"
	}
	return "none"
}
