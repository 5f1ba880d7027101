package webhook

import (
	"net/http"
	"runtime/debug"

	"wainbox/internal/config"
	"wainbox/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ContactStore is the contact access the pipeline needs
type ContactStore interface {
	UpsertByPhone(phone, name, profileName string) (*models.Contact, error)
}

// ConversationStore is the conversation access the pipeline needs
type ConversationStore interface {
	FindOrCreateActive(contactID uuid.UUID) (*models.Conversation, bool, error)
	TouchInbound(id uuid.UUID, preview string) error
	GetViewByID(id uuid.UUID) (*models.ConversationView, error)
}

// MessageStore is the message access the pipeline needs
type MessageStore interface {
	Create(message *models.Message) error
	ExistsByExternalID(externalID string) (bool, error)
	UpdateStatusByExternalID(externalID, status string) (*models.Message, error)
}

// Provider is the outbound provider surface the pipeline needs
type Provider interface {
	MarkRead(messageID string) error
}

// Handler processes WhatsApp Cloud API webhook deliveries
type Handler struct {
	contacts      ContactStore
	conversations ConversationStore
	messages      MessageStore
	provider      Provider
	notifier      Notifier
	cfg           *config.Service
}

// NewHandler creates a new webhook handler
func NewHandler(contacts ContactStore, conversations ConversationStore, messages MessageStore, provider Provider, notifier Notifier, cfg *config.Service) *Handler {
	return &Handler{
		contacts:      contacts,
		conversations: conversations,
		messages:      messages,
		provider:      provider,
		notifier:      notifier,
		cfg:           cfg,
	}
}

// Verify handles the provider's verification handshake. The challenge is
// echoed back only when the supplied verify token matches the configured
// secret.
func (h *Handler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.cfg.Get(config.KeyVerifyToken) {
		log.Info().Msg("Webhook verified")
		return c.String(http.StatusOK, challenge)
	}
	return c.NoContent(http.StatusForbidden)
}

// Receive handles a webhook delivery. The provider treats non-2xx or slow
// responses as delivery failure and retries, so receipt is acknowledged
// unconditionally before any processing; failures past this point are
// only observable in the logs.
func (h *Handler) Receive(c echo.Context) error {
	var payload Payload
	if err := c.Bind(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to parse webhook payload")
		return c.NoContent(http.StatusOK)
	}

	go h.Process(payload)

	return c.NoContent(http.StatusOK)
}

// Process demultiplexes a delivery into individual message and status
// events. An error in one event does not roll back prior work in the
// same batch.
func (h *Handler) Process(payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Panic while processing webhook delivery")
		}
	}()

	if payload.Object != "whatsapp_business_account" {
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			for _, status := range change.Value.Statuses {
				if err := h.handleStatusUpdate(status); err != nil {
					log.Error().Err(err).Str("external_id", status.ID).Msg("Failed to process status update")
				}
			}

			for _, message := range change.Value.Messages {
				var contact *ContactInfo
				if len(change.Value.Contacts) > 0 {
					contact = &change.Value.Contacts[0]
				}
				if err := h.handleInboundMessage(message, contact); err != nil {
					log.Error().Err(err).Str("external_id", message.ID).Msg("Failed to process inbound message")
				}
			}
		}
	}
}

// handleInboundMessage processes one inbound message from a delivery
func (h *Handler) handleInboundMessage(inbound InboundMessage, contactInfo *ContactInfo) error {
	exists, err := h.messages.ExistsByExternalID(inbound.ID)
	if err != nil {
		return err
	}
	if exists {
		log.Debug().Str("external_id", inbound.ID).Msg("Skipping redelivered message")
		return nil
	}

	profileName := ""
	if contactInfo != nil {
		profileName = contactInfo.Profile.Name
	}

	contact, err := h.contacts.UpsertByPhone(inbound.From, profileName, profileName)
	if err != nil {
		return err
	}

	conversation, created, err := h.conversations.FindOrCreateActive(contact.ID)
	if err != nil {
		return err
	}

	content := MapContent(&inbound)

	message := models.Message{
		ConversationID: conversation.ID,
		SenderType:     models.SenderContact,
		Content:        content.Body,
		Kind:           content.Kind,
		MediaRef:       content.MediaRef,
		MediaMime:      content.MediaMime,
		ExternalID:     inbound.ID,
		Status:         models.StatusReceived,
	}
	if err := h.messages.Create(&message); err != nil {
		return err
	}

	preview := content.Body
	if preview == "" {
		preview = "[" + content.Kind + "]"
	}
	if err := h.conversations.TouchInbound(conversation.ID, preview); err != nil {
		log.Error().Err(err).Str("conversation_id", conversation.ID.String()).Msg("Failed to update conversation")
	}

	// Best effort; a failure never surfaces to the agent and is not retried
	if err := h.provider.MarkRead(inbound.ID); err != nil {
		log.Debug().Err(err).Str("external_id", inbound.ID).Msg("Failed to mark message as read at provider")
	}

	view, err := h.conversations.GetViewByID(conversation.ID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversation.ID.String()).Msg("Failed to load conversation snapshot")
		view = nil
	}

	if created && view != nil {
		h.notifier.Broadcast(EventConversationCreated, view)
	}
	h.notifier.Broadcast(EventNewMessage, map[string]interface{}{
		"message":      message,
		"conversation": view,
	})

	log.Info().
		Str("message_id", message.ID.String()).
		Str("conversation_id", conversation.ID.String()).
		Str("kind", content.Kind).
		Msg("Inbound message processed")
	return nil
}

// providerStatusMap maps the provider's status vocabulary to the local enum
var providerStatusMap = map[string]string{
	"sent":      models.StatusSent,
	"delivered": models.StatusDelivered,
	"read":      models.StatusRead,
	"failed":    models.StatusFailed,
}

// handleStatusUpdate processes one delivery receipt from a delivery.
// Unrecognized statuses are dropped silently.
func (h *Handler) handleStatusUpdate(status StatusUpdate) error {
	mapped, ok := providerStatusMap[status.Status]
	if !ok {
		return nil
	}

	message, err := h.messages.UpdateStatusByExternalID(status.ID, mapped)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Debug().Str("external_id", status.ID).Msg("No message for delivery receipt")
			return nil
		}
		return err
	}
	if message == nil {
		// Downgrade ignored
		return nil
	}

	h.notifier.Broadcast(EventMessageStatus, map[string]interface{}{
		"message_id":  message.ID.String(),
		"external_id": status.ID,
		"status":      mapped,
	})
	return nil
}
