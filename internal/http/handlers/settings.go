package handlers

import (
	"net/http"

	"wainbox/internal/config"
	"wainbox/internal/repo"
	"wainbox/internal/whatsapp"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SettingsHandler handles provider configuration endpoints
type SettingsHandler struct {
	cfg       *config.Service
	settings  *repo.SettingRepository
	templates *repo.TemplateRepository
	whatsapp  *whatsapp.Client
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(cfg *config.Service, settings *repo.SettingRepository, templates *repo.TemplateRepository, client *whatsapp.Client) *SettingsHandler {
	return &SettingsHandler{
		cfg:       cfg,
		settings:  settings,
		templates: templates,
		whatsapp:  client,
	}
}

// SettingValue is the masked representation of a configured credential
type SettingValue struct {
	Value      string `json:"value"`
	Source     string `json:"source"`
	Configured bool   `json:"configured"`
}

// Get returns the provider configuration with secrets masked
func (h *SettingsHandler) Get(c echo.Context) error {
	out := make(map[string]SettingValue, len(config.ProviderKeys)+1)
	for _, key := range config.ProviderKeys {
		value := h.cfg.Get(key)
		out[key] = SettingValue{
			Value:      maskSecret(value),
			Source:     h.cfg.Source(key),
			Configured: value != "",
		}
	}

	// The webhook URL is informational, never a secret
	webhookURL := h.cfg.Get(config.KeyWebhookURL)
	out[config.KeyWebhookURL] = SettingValue{
		Value:      webhookURL,
		Source:     h.cfg.Source(config.KeyWebhookURL),
		Configured: webhookURL != "",
	}

	return c.JSON(http.StatusOK, out)
}

// Update stores provider configuration overrides. Unknown keys are
// rejected, empty values are ignored so a masked round trip does not
// wipe a stored secret.
func (h *SettingsHandler) Update(c echo.Context) error {
	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	allowed := map[string]bool{config.KeyWebhookURL: true}
	for _, key := range config.ProviderKeys {
		allowed[key] = true
	}

	for key, value := range req {
		if !allowed[key] {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown setting: "+key)
		}
		if value == "" || isMasked(value) {
			continue
		}
		if err := h.settings.Upsert(key, value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save setting")
		}
		h.cfg.Set(key, value)
	}

	return h.Get(c)
}

// TestConnection verifies the stored credentials against the provider and,
// on success, refreshes the template mirror
func (h *SettingsHandler) TestConnection(c echo.Context) error {
	info, err := h.whatsapp.VerifyCredentials()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	synced, err := syncTemplates(h.templates, h.whatsapp)
	if err != nil {
		log.Warn().Err(err).Msg("Credentials valid but template sync failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"connected":        true,
		"phone_number":     info.DisplayPhoneNumber,
		"verified_name":    info.VerifiedName,
		"quality_rating":   info.QualityRating,
		"templates_synced": synced,
	})
}

// maskSecret hides the middle of a credential, keeping enough of both
// ends for an admin to recognize which one is stored
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 14 {
		return "***"
	}
	return value[:6] + "***" + value[len(value)-4:]
}

// isMasked reports whether a submitted value is a masked echo of what
// Get returned
func isMasked(value string) bool {
	if value == "***" {
		return true
	}
	return len(value) == 13 && value[6:9] == "***"
}
