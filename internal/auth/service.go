package auth

import (
	"errors"
	"os"
	"time"

	"wainbox/pkg/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service handles authentication logic
type Service struct {
	agentRepo AgentRepository
}

// AgentRepository interface for agent data access
type AgentRepository interface {
	GetByEmail(email string) (*models.Agent, error)
	GetByID(id uuid.UUID) (*models.Agent, error)
	Create(agent *models.Agent) error
	SetOnline(id uuid.UUID, online bool) error
}

// NewService creates a new auth service
func NewService(agentRepo AgentRepository) *Service {
	return &Service{agentRepo: agentRepo}
}

// LoginRequest represents login request data
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token string             `json:"token"`
	Agent models.AgentPublic `json:"agent"`
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	AgentID uuid.UUID `json:"agent_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	jwt.RegisteredClaims
}

// Login authenticates an agent and returns a session token.
// A successful login flips the agent's presence flag to online.
func (s *Service) Login(req LoginRequest) (*LoginResponse, error) {
	agent, err := s.agentRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if !s.verifyPassword(req.Password, agent.Password) {
		return nil, errors.New("invalid credentials")
	}

	if err := s.agentRepo.SetOnline(agent.ID, true); err != nil {
		return nil, err
	}
	agent.IsOnline = true

	token, err := s.generateToken(agent)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token: token,
		Agent: agent.Public(),
	}, nil
}

// ValidateToken validates and parses a JWT token
func (s *Service) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// HashPassword hashes a password with bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// generateToken generates a session token for an agent
func (s *Service) generateToken(agent *models.Agent) (string, error) {
	duration, err := time.ParseDuration(getEnvOrDefault("JWT_SESSION_DURATION", "168h"))
	if err != nil {
		duration = 168 * time.Hour
	}

	claims := TokenClaims{
		AgentID: agent.ID,
		Email:   agent.Email,
		Role:    agent.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "wainbox",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// verifyPassword verifies a password against its hash
func (s *Service) verifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// getEnvOrDefault gets an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
