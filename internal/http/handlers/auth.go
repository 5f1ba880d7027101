package handlers

import (
	"net/http"

	"wainbox/internal/auth"
	"wainbox/internal/repo"
	"wainbox/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.Service
	agentRepo   *repo.AgentRepository
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, agentRepo *repo.AgentRepository) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		agentRepo:   agentRepo,
	}
}

// Login authenticates an agent
func (h *AuthHandler) Login(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	response, err := h.authService.Login(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}

// RegisterRequest represents an agent registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
	Color    string `json:"color"`
}

// Register creates a new agent account (admin only)
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if req.Role == "" {
		req.Role = models.RoleAgent
	}
	if req.Color == "" {
		req.Color = "#3B82F6"
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	agent := models.Agent{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     req.Role,
		Color:    req.Color,
	}
	if err := h.agentRepo.Create(&agent); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "An agent with that email already exists")
	}

	return c.JSON(http.StatusOK, agent.Public())
}

// Me returns the authenticated agent's profile
func (h *AuthHandler) Me(c echo.Context) error {
	agentID := c.Get("agent_id").(uuid.UUID)

	agent, err := h.agentRepo.GetByID(agentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Agent not found")
	}

	return c.JSON(http.StatusOK, agent.Public())
}
