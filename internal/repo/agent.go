package repo

import (
	"wainbox/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentRepository handles agent data access
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// GetByEmail gets an agent by email
func (r *AgentRepository) GetByEmail(email string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.Where("email = ?", email).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetByID gets an agent by ID
func (r *AgentRepository) GetByID(id uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.Where("id = ?", id).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// Create creates a new agent
func (r *AgentRepository) Create(agent *models.Agent) error {
	return r.db.Create(agent).Error
}

// Update updates an agent
func (r *AgentRepository) Update(agent *models.Agent) error {
	return r.db.Save(agent).Error
}

// UpdateFields applies a partial update to an agent
func (r *AgentRepository) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.Model(&models.Agent{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List lists all agents ordered by name
func (r *AgentRepository) List() ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.Order("name").Find(&agents).Error
	return agents, err
}

// SetOnline updates an agent's presence flag
func (r *AgentRepository) SetOnline(id uuid.UUID, online bool) error {
	return r.db.Model(&models.Agent{}).Where("id = ?", id).Update("is_online", online).Error
}

// Delete removes an agent. Conversations assigned to the agent are
// reassigned to unassigned first.
func (r *AgentRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Conversation{}).
			Where("assigned_agent_id = ?", id).
			Update("assigned_agent_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Agent{}).Error
	})
}
