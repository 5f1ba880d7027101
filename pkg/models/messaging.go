package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Conversation status values
const (
	ConversationOpen     = "open"
	ConversationPending  = "pending"
	ConversationResolved = "resolved"
)

// Message sender types
const (
	SenderContact = "contact"
	SenderAgent   = "agent"
	SenderSystem  = "system"
)

// Message kinds
const (
	KindText     = "text"
	KindImage    = "image"
	KindDocument = "document"
	KindAudio    = "audio"
	KindVideo    = "video"
	KindSticker  = "sticker"
	KindLocation = "location"
	KindReaction = "reaction"
	KindTemplate = "template"
	KindUnknown  = "unknown"
)

// Message delivery statuses
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
	StatusReceived  = "received"
)

// PreviewLength is the truncation length for conversation previews
const PreviewLength = 100

// Contact represents an external phone-number identity
type Contact struct {
	BaseModel
	Phone       string `gorm:"size:20;uniqueIndex;not null" json:"phone" validate:"required"`
	Name        string `gorm:"size:100" json:"name"`
	ProfileName string `gorm:"size:100" json:"profile_name"`
}

// Conversation represents a thread with exactly one contact
type Conversation struct {
	BaseModel
	ContactID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"contact_id"`
	AssignedAgentID    *uuid.UUID `gorm:"type:uuid" json:"assigned_agent_id"`
	Status             string     `gorm:"size:20;default:'open';index" json:"status"` // open, pending, resolved
	LastMessageAt      time.Time  `gorm:"index:idx_conversations_last_message,sort:desc" json:"last_message_at"`
	LastMessagePreview string     `json:"last_message_preview"`
	UnreadCount        int        `gorm:"default:0" json:"unread_count"`

	// Relations
	Contact       *Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	AssignedAgent *Agent   `gorm:"foreignKey:AssignedAgentID" json:"assigned_agent,omitempty"`
}

// Message represents a message in a conversation.
// Rows are immutable once created except for the delivery status.
type Message struct {
	BaseModel
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderType     string     `gorm:"size:10;not null" json:"sender_type"` // contact, agent, system
	SenderID       *uuid.UUID `gorm:"type:uuid" json:"sender_id"`
	Content        string     `json:"content"`
	Kind           string     `gorm:"size:20;default:'text'" json:"kind"`
	MediaRef       string     `json:"media_ref,omitempty"`  // provider media handle or local storage key
	MediaMime      string     `gorm:"size:100" json:"media_mime,omitempty"`
	ExternalID     string     `gorm:"size:100;index" json:"external_id"` // provider delivery id
	Status         string     `gorm:"size:20;default:'sent'" json:"status"`
	IsNote         bool       `gorm:"default:false" json:"is_note"`

	// Relations
	Sender *Agent `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// MessageView is a message enriched with sender display fields
type MessageView struct {
	Message
	AgentName  string `json:"agent_name,omitempty"`
	AgentColor string `json:"agent_color,omitempty"`
}

// ConversationView is a conversation enriched with contact and agent display fields
type ConversationView struct {
	Conversation
	Phone       string `json:"phone"`
	ContactName string `json:"contact_name"`
	ProfileName string `json:"profile_name"`
	AgentName   string `json:"agent_name,omitempty"`
	AgentColor  string `json:"agent_color,omitempty"`
}

// Template mirrors a provider-approved message template
type Template struct {
	BaseModel
	ProviderID string         `gorm:"size:100;uniqueIndex" json:"provider_id"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Language   string         `gorm:"size:10;default:'es'" json:"language"`
	Category   string         `gorm:"size:50" json:"category"`
	Status     string         `gorm:"size:20;default:'APPROVED'" json:"status"`
	Components datatypes.JSON `json:"components"`
	SyncedAt   time.Time      `json:"synced_at"`
}

// Setting is a key/value credential override stored in the database.
// A non-empty value takes precedence over process configuration.
type Setting struct {
	Key       string    `gorm:"size:100;primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
