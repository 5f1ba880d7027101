package middleware

import (
	"net/http"
	"strings"

	"wainbox/internal/auth"

	"github.com/labstack/echo/v4"
)

// JWTAuth middleware validates JWT session tokens. The token is read
// from the Authorization header, or from the token query parameter for
// contexts that cannot set headers (inline media tags).
func JWTAuth(authService *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := ""

			authHeader := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = authHeader[7:]
			}
			if tokenString == "" {
				tokenString = c.QueryParam("token")
			}
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set("claims", claims)
			c.Set("agent_id", claims.AgentID)
			c.Set("agent_email", claims.Email)
			c.Set("agent_role", claims.Role)

			return next(c)
		}
	}
}

// RequireRole middleware ensures the agent has one of the required roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			agentRole := c.Get("agent_role")
			if agentRole == nil {
				return echo.NewHTTPError(http.StatusForbidden, "Agent role not found")
			}

			roleStr := agentRole.(string)
			for _, role := range roles {
				if roleStr == role {
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// AdminOnly middleware ensures only admins can access
func AdminOnly() echo.MiddlewareFunc {
	return RequireRole("admin")
}
