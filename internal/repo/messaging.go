package repo

import (
	"time"

	"wainbox/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactRepository handles contact data access
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// GetByID gets a contact by ID
func (r *ContactRepository) GetByID(id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("id = ?", id).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByPhone gets a contact by phone number
func (r *ContactRepository) GetByPhone(phone string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("phone = ?", phone).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpsertByPhone creates or refreshes a contact keyed by phone number.
// The profile name supplied by the provider never overwrites a known
// name with an empty value.
func (r *ContactRepository) UpsertByPhone(phone, name, profileName string) (*models.Contact, error) {
	contact := models.Contact{
		Phone:       phone,
		Name:        name,
		ProfileName: profileName,
	}
	if contact.Name == "" {
		contact.Name = phone
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"profile_name": gorm.Expr("COALESCE(NULLIF(excluded.profile_name, ''), contacts.profile_name)"),
			"updated_at":   time.Now(),
		}),
	}).Create(&contact).Error
	if err != nil {
		return nil, err
	}

	// Reload to get the canonical row after a conflict
	return r.GetByPhone(phone)
}

// ConversationRepository handles conversation data access
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByID gets a conversation by ID
func (r *ConversationRepository) GetByID(id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Where("id = ?", id).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

const conversationViewSelect = `
	SELECT c.*, ct.phone, ct.name AS contact_name, ct.profile_name,
	       a.name AS agent_name, a.color AS agent_color
	FROM conversations c
	JOIN contacts ct ON c.contact_id = ct.id
	LEFT JOIN agents a ON c.assigned_agent_id = a.id
`

// GetViewByID gets a conversation with contact and agent display fields
func (r *ConversationRepository) GetViewByID(id uuid.UUID) (*models.ConversationView, error) {
	var view models.ConversationView
	err := r.db.Raw(conversationViewSelect+" WHERE c.id = ?", id).Scan(&view).Error
	if err != nil {
		return nil, err
	}
	if view.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &view, nil
}

// List lists conversations filtered by status and free-text search,
// most recently active first.
func (r *ConversationRepository) List(status, search string, limit int) ([]models.ConversationView, error) {
	query := conversationViewSelect
	conditions := []string{}
	args := []interface{}{}

	if status != "" && status != "all" {
		conditions = append(conditions, "c.status = ?")
		args = append(args, status)
	}
	if search != "" {
		conditions = append(conditions, "(ct.name ILIKE ? OR ct.phone ILIKE ? OR ct.profile_name ILIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY c.last_message_at DESC LIMIT ?"
	args = append(args, limit)

	var views []models.ConversationView
	err := r.db.Raw(query, args...).Scan(&views).Error
	return views, err
}

// FindOrCreateActive returns the most recently created non-resolved
// conversation for a contact, creating one if none qualifies. A resolved
// conversation is never reused. The contact row is locked for the duration
// so two concurrent inbound messages cannot each create a conversation.
func (r *ConversationRepository) FindOrCreateActive(contactID uuid.UUID) (*models.Conversation, bool, error) {
	var conversation models.Conversation
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var contact models.Contact
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", contactID).First(&contact).Error; err != nil {
			return err
		}

		err := tx.Where("contact_id = ? AND status != ?", contactID, models.ConversationResolved).
			Order("created_at DESC").
			First(&conversation).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		conversation = models.Conversation{
			ContactID:     contactID,
			Status:        models.ConversationOpen,
			LastMessageAt: time.Now(),
		}
		created = true
		return tx.Create(&conversation).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &conversation, created, nil
}

// Assign assigns a conversation to an agent (nil unassigns)
func (r *ConversationRepository) Assign(id uuid.UUID, agentID *uuid.UUID) error {
	result := r.db.Model(&models.Conversation{}).Where("id = ?", id).Update("assigned_agent_id", agentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus changes a conversation's lifecycle status
func (r *ConversationRepository) UpdateStatus(id uuid.UUID, status string) error {
	result := r.db.Model(&models.Conversation{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRead resets a conversation's unread counter
func (r *ConversationRepository) MarkRead(id uuid.UUID) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).Update("unread_count", 0).Error
}

// TouchInbound updates the denormalized preview fields after an inbound
// message and increments the unread counter.
func (r *ConversationRepository) TouchInbound(id uuid.UUID, preview string) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message_at":      time.Now(),
		"last_message_preview": truncatePreview(preview),
		"unread_count":         gorm.Expr("unread_count + 1"),
	}).Error
}

// TouchOutbound updates the denormalized preview fields after an agent
// send and resets the unread counter.
func (r *ConversationRepository) TouchOutbound(id uuid.UUID, preview string) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message_at":      time.Now(),
		"last_message_preview": truncatePreview(preview),
		"unread_count":         0,
	}).Error
}

func truncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) > models.PreviewLength {
		return string(runes[:models.PreviewLength])
	}
	return s
}

// MessageRepository handles message data access
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// GetByID gets a message by ID
func (r *MessageRepository) GetByID(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("id = ?", id).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// Create creates a new message
func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// ExistsByExternalID checks whether a message with the given provider
// delivery id is already stored.
func (r *MessageRepository) ExistsByExternalID(externalID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Where("external_id = ?", externalID).Count(&count).Error
	return count > 0, err
}

// ListByConversation lists messages for a conversation, oldest first,
// with an optional before-timestamp cursor.
func (r *MessageRepository) ListByConversation(conversationID uuid.UUID, before *time.Time, limit int) ([]models.MessageView, error) {
	query := `
		SELECT m.*, a.name AS agent_name, a.color AS agent_color
		FROM messages m
		LEFT JOIN agents a ON m.sender_id = a.id
		WHERE m.conversation_id = ?`
	args := []interface{}{conversationID}

	if before != nil {
		query += " AND m.created_at < ?"
		args = append(args, *before)
	}
	query += " ORDER BY m.created_at DESC LIMIT ?"
	args = append(args, limit)

	var messages []models.MessageView
	if err := r.db.Raw(query, args...).Scan(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse so the page reads oldest to newest
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// deliveryStatusRank orders the provider delivery lifecycle.
// Statuses outside the hierarchy (failed) may always be applied.
var deliveryStatusRank = map[string]int{
	models.StatusSent:      1,
	models.StatusDelivered: 2,
	models.StatusRead:      3,
}

// UpdateStatusByExternalID applies a delivery receipt to the message with
// the given provider delivery id. Transitions only move forward through
// the delivery lifecycle; a downgrade is ignored. Returns the updated
// message, or nil if nothing changed.
func (r *MessageRepository) UpdateStatusByExternalID(externalID, status string) (*models.Message, error) {
	var message models.Message
	if err := r.db.Where("external_id = ?", externalID).First(&message).Error; err != nil {
		return nil, err
	}

	currentRank, currentRanked := deliveryStatusRank[message.Status]
	newRank, newRanked := deliveryStatusRank[status]
	if currentRanked && newRanked && newRank <= currentRank {
		return nil, nil
	}

	message.Status = status
	if err := r.db.Model(&message).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &message, nil
}
