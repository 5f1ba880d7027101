package handlers

import (
	"net/http"
	"strconv"

	"wainbox/internal/repo"
	"wainbox/internal/webhook"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ConversationHandler handles conversation endpoints
type ConversationHandler struct {
	conversations *repo.ConversationRepository
	agents        *repo.AgentRepository
	notifier      webhook.Notifier
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations *repo.ConversationRepository, agents *repo.AgentRepository, notifier webhook.Notifier) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		agents:        agents,
		notifier:      notifier,
	}
}

// List returns conversations ordered by most recent activity
func (h *ConversationHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	search := c.QueryParam("search")

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	conversations, err := h.conversations.List(status, search, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list conversations")
	}

	return c.JSON(http.StatusOK, conversations)
}

// Get returns a single conversation with contact and agent details
func (h *ConversationHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	conversation, err := h.conversations.GetViewByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get conversation")
	}

	return c.JSON(http.StatusOK, conversation)
}

// AssignRequest represents a conversation assignment request
type AssignRequest struct {
	AgentID *uuid.UUID `json:"agent_id"`
}

// Assign assigns a conversation to an agent, or unassigns it when agent_id is null
func (h *ConversationHandler) Assign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	var req AssignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if req.AgentID != nil {
		if _, err := h.agents.GetByID(*req.AgentID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Agent not found")
		}
	}

	if err := h.conversations.Assign(id, req.AgentID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to assign conversation")
	}

	return h.emitUpdated(c, id)
}

// StatusRequest represents a conversation status change
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open pending resolved"`
}

// UpdateStatus changes a conversation's status
func (h *ConversationHandler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.conversations.UpdateStatus(id, req.Status); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update status")
	}

	return h.emitUpdated(c, id)
}

// MarkRead resets a conversation's unread counter
func (h *ConversationHandler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	if err := h.conversations.MarkRead(id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark conversation as read")
	}

	return h.emitUpdated(c, id)
}

func (h *ConversationHandler) emitUpdated(c echo.Context, id uuid.UUID) error {
	view, err := h.conversations.GetViewByID(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load conversation")
	}

	h.notifier.Broadcast(webhook.EventConversationUpdated, view)

	return c.JSON(http.StatusOK, view)
}
