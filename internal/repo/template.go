package repo

import (
	"time"

	"wainbox/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateRepository handles template data access
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// ListApproved lists approved templates ordered by name
func (r *TemplateRepository) ListApproved() ([]models.Template, error) {
	var templates []models.Template
	err := r.db.Where("status = ?", "APPROVED").Order("name").Find(&templates).Error
	return templates, err
}

// GetByName gets a template by name
func (r *TemplateRepository) GetByName(name string) (*models.Template, error) {
	var template models.Template
	err := r.db.Where("name = ?", name).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// Upsert stores a provider template, replacing any previous mirror of the
// same provider id. Templates are refreshed wholesale, never patched.
func (r *TemplateRepository) Upsert(template *models.Template) error {
	template.SyncedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "language", "category", "status", "components", "synced_at", "updated_at",
		}),
	}).Create(template).Error
}
