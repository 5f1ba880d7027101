package handlers

import (
	"encoding/json"
	"net/http"

	"wainbox/internal/repo"
	"wainbox/internal/whatsapp"
	"wainbox/pkg/models"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// TemplateHandler handles message template endpoints
type TemplateHandler struct {
	templates *repo.TemplateRepository
	whatsapp  *whatsapp.Client
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates *repo.TemplateRepository, client *whatsapp.Client) *TemplateHandler {
	return &TemplateHandler{templates: templates, whatsapp: client}
}

// List returns the approved templates from the local mirror
func (h *TemplateHandler) List(c echo.Context) error {
	templates, err := h.templates.ListApproved()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list templates")
	}
	return c.JSON(http.StatusOK, templates)
}

// Sync refreshes the local mirror from the provider
func (h *TemplateHandler) Sync(c echo.Context) error {
	count, err := syncTemplates(h.templates, h.whatsapp)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"synced": count})
}

// syncTemplates pulls the provider's template list into the mirror and
// returns how many were stored
func syncTemplates(templates *repo.TemplateRepository, client *whatsapp.Client) (int, error) {
	remote, err := client.FetchTemplates()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, t := range remote {
		components, err := json.Marshal(t.Components)
		if err != nil {
			log.Error().Err(err).Str("template", t.Name).Msg("Failed to encode template components")
			continue
		}

		template := models.Template{
			ProviderID: t.ID,
			Name:       t.Name,
			Language:   t.Language,
			Category:   t.Category,
			Status:     t.Status,
			Components: datatypes.JSON(components),
		}
		if err := templates.Upsert(&template); err != nil {
			log.Error().Err(err).Str("template", t.Name).Msg("Failed to store template")
			continue
		}
		count++
	}
	return count, nil
}
