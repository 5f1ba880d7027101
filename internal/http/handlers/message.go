package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wainbox/internal/media"
	"wainbox/internal/repo"
	"wainbox/internal/webhook"
	"wainbox/internal/whatsapp"
	"wainbox/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxAttachmentSize is the provider's limit for uploaded media
const maxAttachmentSize = 16 << 20

// MessageHandler handles message endpoints
type MessageHandler struct {
	messages      *repo.MessageRepository
	conversations *repo.ConversationRepository
	contacts      *repo.ContactRepository
	whatsapp      *whatsapp.Client
	store         media.Store
	notifier      webhook.Notifier
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	messages *repo.MessageRepository,
	conversations *repo.ConversationRepository,
	contacts *repo.ContactRepository,
	client *whatsapp.Client,
	store media.Store,
	notifier webhook.Notifier,
) *MessageHandler {
	return &MessageHandler{
		messages:      messages,
		conversations: conversations,
		contacts:      contacts,
		whatsapp:      client,
		store:         store,
		notifier:      notifier,
	}
}

// List returns messages for a conversation, newest page first by cursor
func (h *MessageHandler) List(c echo.Context) error {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	var before *time.Time
	if b := c.QueryParam("before"); b != "" {
		parsed, err := time.Parse(time.RFC3339Nano, b)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid before cursor")
		}
		before = &parsed
	}

	messages, err := h.messages.ListByConversation(conversationID, before, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list messages")
	}

	return c.JSON(http.StatusOK, messages)
}

// SendRequest represents an outbound text message
type SendRequest struct {
	Content string `json:"content" validate:"required"`
}

// Send sends a text message on an existing conversation
func (h *MessageHandler) Send(c echo.Context) error {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	conversation, contact, err := h.loadConversation(conversationID)
	if err != nil {
		return err
	}

	externalID, err := h.whatsapp.SendText(contact.Phone, req.Content)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	agentID := c.Get("agent_id").(uuid.UUID)
	message := models.Message{
		ConversationID: conversation.ID,
		SenderType:     models.SenderAgent,
		SenderID:       &agentID,
		Content:        req.Content,
		Kind:           models.KindText,
		ExternalID:     externalID,
		Status:         models.StatusSent,
	}

	return h.persistOutbound(c, &message, req.Content, false)
}

// TemplateSendRequest represents an outbound template message
type TemplateSendRequest struct {
	Name       string            `json:"name" validate:"required"`
	Language   string            `json:"language"`
	Components []json.RawMessage `json:"components"`
	Body       string            `json:"body"`
}

// SendTemplate sends an approved template on an existing conversation
func (h *MessageHandler) SendTemplate(c echo.Context) error {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	var req TemplateSendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	conversation, contact, err := h.loadConversation(conversationID)
	if err != nil {
		return err
	}

	externalID, err := h.whatsapp.SendTemplate(contact.Phone, req.Name, req.Language, req.Components)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	body := req.Body
	if body == "" {
		body = "[" + req.Name + "]"
	}

	agentID := c.Get("agent_id").(uuid.UUID)
	message := models.Message{
		ConversationID: conversation.ID,
		SenderType:     models.SenderAgent,
		SenderID:       &agentID,
		Content:        body,
		Kind:           models.KindTemplate,
		ExternalID:     externalID,
		Status:         models.StatusSent,
	}

	return h.persistOutbound(c, &message, body, false)
}

// NewConversationRequest represents a message to a phone number that may
// not have a conversation yet
type NewConversationRequest struct {
	Phone      string            `json:"phone" validate:"required"`
	Name       string            `json:"name"`
	Content    string            `json:"content"`
	Template   string            `json:"template"`
	Language   string            `json:"language"`
	Components []json.RawMessage `json:"components"`
}

// SendToPhone starts or reuses a conversation with a phone number and sends
// either a free-form text or a template
func (h *MessageHandler) SendToPhone(c echo.Context) error {
	var req NewConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	if req.Content == "" && req.Template == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Either content or template is required")
	}

	contact, err := h.contacts.UpsertByPhone(normalizePhone(req.Phone), req.Name, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save contact")
	}

	conversation, created, err := h.conversations.FindOrCreateActive(contact.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open conversation")
	}

	var externalID string
	var body string
	kind := models.KindText
	if req.Template != "" {
		externalID, err = h.whatsapp.SendTemplate(contact.Phone, req.Template, req.Language, req.Components)
		body = "[" + req.Template + "]"
		kind = models.KindTemplate
	} else {
		externalID, err = h.whatsapp.SendText(contact.Phone, req.Content)
		body = req.Content
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	agentID := c.Get("agent_id").(uuid.UUID)
	message := models.Message{
		ConversationID: conversation.ID,
		SenderType:     models.SenderAgent,
		SenderID:       &agentID,
		Content:        body,
		Kind:           kind,
		ExternalID:     externalID,
		Status:         models.StatusSent,
	}

	return h.persistOutbound(c, &message, body, created)
}

// NoteRequest represents an internal note
type NoteRequest struct {
	Content string `json:"content" validate:"required"`
}

// AddNote records an internal note visible only to agents. Nothing is sent
// to the contact.
func (h *MessageHandler) AddNote(c echo.Context) error {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if _, err := h.conversations.GetByID(conversationID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}

	agentID := c.Get("agent_id").(uuid.UUID)
	message := models.Message{
		ConversationID: conversationID,
		SenderType:     models.SenderAgent,
		SenderID:       &agentID,
		Content:        req.Content,
		Kind:           models.KindText,
		Status:         models.StatusSent,
		IsNote:         true,
	}
	if err := h.messages.Create(&message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save note")
	}

	h.notifier.Broadcast(webhook.EventNewMessage, map[string]interface{}{
		"message": message,
	})

	return c.JSON(http.StatusOK, message)
}

// SendMedia uploads an attachment to the provider, sends it, and keeps a
// local copy so the attachment stays viewable after the provider handle
// expires
func (h *MessageHandler) SendMedia(c echo.Context) error {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file")
	}
	if fileHeader.Size > maxAttachmentSize {
		return echo.NewHTTPError(http.StatusBadRequest, "File exceeds the 16MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read file")
	}
	if len(data) > maxAttachmentSize {
		return echo.NewHTTPError(http.StatusBadRequest, "File exceeds the 16MB limit")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	caption := c.FormValue("caption")

	conversation, contact, err := h.loadConversation(conversationID)
	if err != nil {
		return err
	}

	mediaID, err := h.whatsapp.UploadMedia(data, contentType, fileHeader.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	kind := kindForMime(contentType)
	externalID, err := h.whatsapp.SendMedia(contact.Phone, providerMediaType(kind), mediaID, caption, fileHeader.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	agentID := c.Get("agent_id").(uuid.UUID)
	message := models.Message{
		ConversationID: conversation.ID,
		SenderType:     models.SenderAgent,
		SenderID:       &agentID,
		Content:        caption,
		Kind:           kind,
		MediaRef:       mediaID,
		MediaMime:      contentType,
		ExternalID:     externalID,
		Status:         models.StatusSent,
	}
	if err := h.messages.Create(&message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save message")
	}

	// The provider does not let us re-download by the upload handle, so
	// the local copy is the durable source for the media proxy
	if err := h.store.Put(message.ID.String(), data, contentType); err != nil {
		log.Error().Err(err).Str("message_id", message.ID.String()).Msg("Failed to store attachment copy")
	}

	preview := caption
	if preview == "" {
		preview = "[" + kind + "]"
	}
	if err := h.conversations.TouchOutbound(conversation.ID, preview); err != nil {
		log.Error().Err(err).Str("conversation_id", conversation.ID.String()).Msg("Failed to update conversation")
	}

	return h.respondOutbound(c, &message, conversation.ID, false)
}

// loadConversation fetches a conversation and its contact, translating
// missing rows into HTTP errors
func (h *MessageHandler) loadConversation(id uuid.UUID) (*models.Conversation, *models.Contact, error) {
	conversation, err := h.conversations.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to get conversation")
	}

	contact, err := h.contacts.GetByID(conversation.ContactID)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to get contact")
	}

	return conversation, contact, nil
}

// persistOutbound saves a sent message, touches the conversation preview
// and broadcasts the result
func (h *MessageHandler) persistOutbound(c echo.Context, message *models.Message, preview string, created bool) error {
	if err := h.messages.Create(message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save message")
	}

	if err := h.conversations.TouchOutbound(message.ConversationID, preview); err != nil {
		log.Error().Err(err).Str("conversation_id", message.ConversationID.String()).Msg("Failed to update conversation")
	}

	return h.respondOutbound(c, message, message.ConversationID, created)
}

func (h *MessageHandler) respondOutbound(c echo.Context, message *models.Message, conversationID uuid.UUID, created bool) error {
	view, err := h.conversations.GetViewByID(conversationID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID.String()).Msg("Failed to load conversation snapshot")
		view = nil
	}

	if created && view != nil {
		h.notifier.Broadcast(webhook.EventConversationCreated, view)
	}
	h.notifier.Broadcast(webhook.EventNewMessage, map[string]interface{}{
		"message":      message,
		"conversation": view,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      message,
		"conversation": view,
	})
}

// kindForMime maps a MIME type to the local message kind
func kindForMime(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.KindImage
	case strings.HasPrefix(contentType, "video/"):
		return models.KindVideo
	case strings.HasPrefix(contentType, "audio/"):
		return models.KindAudio
	default:
		return models.KindDocument
	}
}

// providerMediaType maps a local message kind to the provider's media type
func providerMediaType(kind string) string {
	switch kind {
	case models.KindImage, models.KindVideo, models.KindAudio:
		return kind
	default:
		return "document"
	}
}

// normalizePhone strips formatting characters so numbers compare equal
// regardless of how agents type them
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
