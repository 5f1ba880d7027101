package handlers

import (
	"net/http"

	"wainbox/internal/auth"
	"wainbox/internal/repo"
	"wainbox/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AgentHandler handles agent management endpoints
type AgentHandler struct {
	agents      *repo.AgentRepository
	authService *auth.Service
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(agents *repo.AgentRepository, authService *auth.Service) *AgentHandler {
	return &AgentHandler{agents: agents, authService: authService}
}

// List returns all agents without credentials
func (h *AgentHandler) List(c echo.Context) error {
	agents, err := h.agents.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list agents")
	}

	public := make([]models.AgentPublic, 0, len(agents))
	for _, agent := range agents {
		public = append(public, agent.Public())
	}

	return c.JSON(http.StatusOK, public)
}

// UpdateAgentRequest represents a partial agent update
type UpdateAgentRequest struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Update applies a partial update to an agent (admin only)
func (h *AgentHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid agent ID")
	}

	var req UpdateAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	fields := map[string]interface{}{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Color != "" {
		fields["color"] = req.Color
	}
	if req.Role != "" {
		if req.Role != models.RoleAdmin && req.Role != models.RoleAgent {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid role")
		}
		fields["role"] = req.Role
	}
	if req.Password != "" {
		hash, err := h.authService.HashPassword(req.Password)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
		}
		fields["password"] = hash
	}
	if len(fields) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	if err := h.agents.UpdateFields(id, fields); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Agent not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update agent")
	}

	agent, err := h.agents.GetByID(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load agent")
	}

	return c.JSON(http.StatusOK, agent.Public())
}

// Delete removes an agent. The caller cannot delete their own account.
func (h *AgentHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid agent ID")
	}

	if callerID := c.Get("agent_id").(uuid.UUID); callerID == id {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot delete your own account")
	}

	if _, err := h.agents.GetByID(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Agent not found")
	}

	if err := h.agents.Delete(id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete agent")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
