package models

// Agent roles
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// Agent represents a human operator of the inbox
type Agent struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name" validate:"required"`
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email" validate:"required,email"`
	Password string `gorm:"size:255;not null" json:"-"`
	Role     string `gorm:"size:20;default:'agent'" json:"role"` // admin, agent
	IsOnline bool   `gorm:"default:false" json:"is_online"`
	Color    string `gorm:"size:7;default:'#10B981'" json:"color"`
}

// AgentPublic is the agent representation returned by the API
type AgentPublic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Color    string `json:"color"`
	IsOnline bool   `json:"is_online"`
}

// Public strips credential data from an agent
func (a *Agent) Public() AgentPublic {
	return AgentPublic{
		ID:       a.ID.String(),
		Name:     a.Name,
		Email:    a.Email,
		Role:     a.Role,
		Color:    a.Color,
		IsOnline: a.IsOnline,
	}
}
