package webhook

import (
	"encoding/json"

	"wainbox/pkg/models"
)

// Payload represents a webhook delivery from the WhatsApp Cloud API.
// One delivery batches zero or more entries, each with zero or more
// changes carrying new messages and/or delivery-status updates.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one business-account entry in a delivery
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field change inside an entry
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value carries the messages, statuses and contact profiles of a change
type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []ContactInfo    `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
	Statuses         []StatusUpdate   `json:"statuses"`
}

// ContactInfo is the provider-reported sender profile
type ContactInfo struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// InboundMessage is a single inbound message in a delivery
type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`

	Text     *TextContent     `json:"text,omitempty"`
	Image    *MediaContent    `json:"image,omitempty"`
	Document *DocumentContent `json:"document,omitempty"`
	Audio    *MediaContent    `json:"audio,omitempty"`
	Video    *MediaContent    `json:"video,omitempty"`
	Sticker  *MediaContent    `json:"sticker,omitempty"`
	Location *LocationContent `json:"location,omitempty"`
	Reaction *ReactionContent `json:"reaction,omitempty"`
}

// TextContent is the body of a text message
type TextContent struct {
	Body string `json:"body"`
}

// MediaContent is a media attachment reference
type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
}

// DocumentContent is a document attachment reference
type DocumentContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// LocationContent is a shared location
type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// ReactionContent is an emoji reaction to an earlier message
type ReactionContent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// StatusUpdate is a delivery receipt for an outbound message
type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// Content is an inbound message mapped to the local schema. Kind is one
// of the known message kinds, or models.KindUnknown with RawType carrying
// the raw provider type string so future provider kinds degrade
// predictably.
type Content struct {
	Kind      string
	Body      string
	MediaRef  string
	MediaMime string
	RawType   string
}

// MapContent maps a provider message to the local (kind, body, media) tuple
func MapContent(m *InboundMessage) Content {
	switch m.Type {
	case "text":
		body := ""
		if m.Text != nil {
			body = m.Text.Body
		}
		return Content{Kind: models.KindText, Body: body}

	case "image":
		c := Content{Kind: models.KindImage}
		if m.Image != nil {
			c.Body = m.Image.Caption
			c.MediaRef = m.Image.ID
			c.MediaMime = m.Image.MimeType
		}
		return c

	case "document":
		c := Content{Kind: models.KindDocument, Body: "Documento"}
		if m.Document != nil {
			if m.Document.Caption != "" {
				c.Body = m.Document.Caption
			} else if m.Document.Filename != "" {
				c.Body = m.Document.Filename
			}
			c.MediaRef = m.Document.ID
			c.MediaMime = m.Document.MimeType
		}
		return c

	case "audio":
		c := Content{Kind: models.KindAudio, Body: "Audio"}
		if m.Audio != nil {
			c.MediaRef = m.Audio.ID
			c.MediaMime = m.Audio.MimeType
		}
		return c

	case "video":
		c := Content{Kind: models.KindVideo, Body: "Video"}
		if m.Video != nil {
			if m.Video.Caption != "" {
				c.Body = m.Video.Caption
			}
			c.MediaRef = m.Video.ID
			c.MediaMime = m.Video.MimeType
		}
		return c

	case "sticker":
		c := Content{Kind: models.KindSticker, Body: "Sticker"}
		if m.Sticker != nil {
			c.MediaRef = m.Sticker.ID
			c.MediaMime = m.Sticker.MimeType
		}
		return c

	case "location":
		c := Content{Kind: models.KindLocation}
		if m.Location != nil {
			blob, err := json.Marshal(map[string]interface{}{
				"lat":  m.Location.Latitude,
				"lng":  m.Location.Longitude,
				"name": m.Location.Name,
			})
			if err == nil {
				c.Body = string(blob)
			}
		}
		return c

	case "reaction":
		c := Content{Kind: models.KindReaction}
		if m.Reaction != nil {
			c.Body = m.Reaction.Emoji
		}
		return c

	default:
		return Content{
			Kind:    models.KindUnknown,
			Body:    "[" + m.Type + "]",
			RawType: m.Type,
		}
	}
}
