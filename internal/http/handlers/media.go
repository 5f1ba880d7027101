package handlers

import (
	"net/http"

	"wainbox/internal/media"
	"wainbox/internal/repo"
	"wainbox/internal/whatsapp"
	"wainbox/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MediaHandler serves message attachments to agents. Provider media URLs
// require the access token and expire, so the browser never talks to the
// provider directly; everything goes through this proxy.
type MediaHandler struct {
	messages *repo.MessageRepository
	cache    *media.Cache
	store    media.Store
	whatsapp *whatsapp.Client
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(messages *repo.MessageRepository, cache *media.Cache, store media.Store, client *whatsapp.Client) *MediaHandler {
	return &MediaHandler{
		messages: messages,
		cache:    cache,
		store:    store,
		whatsapp: client,
	}
}

// Get streams the attachment for a message. Resolution order: memory
// cache, then the local copy, then a fresh download from the provider.
func (h *MediaHandler) Get(c echo.Context) error {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid message ID")
	}
	key := messageID.String()

	if item, ok := h.cache.Get(key); ok {
		return c.Blob(http.StatusOK, item.ContentType, item.Data)
	}

	message, err := h.messages.GetByID(messageID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Message not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get message")
	}
	if message.Kind == models.KindText || message.MediaRef == "" {
		return echo.NewHTTPError(http.StatusNotFound, "Message has no attachment")
	}

	if h.store.Exists(key) {
		data, err := h.store.Get(key)
		if err == nil {
			contentType := message.MediaMime
			if contentType == "" {
				contentType = http.DetectContentType(data)
			}
			h.cache.Put(key, data, contentType)
			return c.Blob(http.StatusOK, contentType, data)
		}
		log.Error().Err(err).Str("message_id", key).Msg("Failed to read stored attachment")
	}

	data, contentType, err := h.download(message)
	if err != nil {
		log.Error().Err(err).Str("message_id", key).Str("media_ref", message.MediaRef).Msg("Failed to fetch attachment from provider")
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to fetch attachment")
	}

	h.cache.Put(key, data, contentType)
	return c.Blob(http.StatusOK, contentType, data)
}

// download resolves a fresh provider URL for the media handle and fetches
// the bytes
func (h *MediaHandler) download(message *models.Message) ([]byte, string, error) {
	info, err := h.whatsapp.GetMediaURL(message.MediaRef)
	if err != nil {
		return nil, "", err
	}

	data, contentType, err := h.whatsapp.DownloadMedia(info.URL)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = message.MediaMime
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
