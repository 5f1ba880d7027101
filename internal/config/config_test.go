package config

import "testing"

func TestGetPrefersOverride(t *testing.T) {
	t.Setenv("META_ACCESS_TOKEN", "from-env")

	s := NewService()
	if got := s.Get(KeyAccessToken); got != "from-env" {
		t.Errorf("Get = %q, expected the environment value", got)
	}

	s.Set(KeyAccessToken, "from-db")
	if got := s.Get(KeyAccessToken); got != "from-db" {
		t.Errorf("Get = %q, expected the override", got)
	}
}

func TestSetEmptyClearsOverride(t *testing.T) {
	t.Setenv("META_VERIFY_TOKEN", "env-secret")

	s := NewService()
	s.Set(KeyVerifyToken, "db-secret")
	s.Set(KeyVerifyToken, "")

	if got := s.Get(KeyVerifyToken); got != "env-secret" {
		t.Errorf("Get = %q, expected fallback to the environment", got)
	}
}

func TestSource(t *testing.T) {
	t.Setenv("META_PHONE_NUMBER_ID", "")
	t.Setenv("META_WABA_ID", "env-value")

	s := NewService()

	if got := s.Source(KeyPhoneNumberID); got != "none" {
		t.Errorf("Source = %q, expected none", got)
	}
	if got := s.Source(KeyWABAID); got != "env" {
		t.Errorf("Source = %q, expected env", got)
	}

	s.Set(KeyWABAID, "db-value")
	if got := s.Source(KeyWABAID); got != "db" {
		t.Errorf("Source = %q, expected db", got)
	}
}
