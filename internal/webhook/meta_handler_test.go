package webhook

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"wainbox/internal/config"
	"wainbox/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type fakeContacts struct {
	upserted     []string
	profileNames []string
	contact      models.Contact
}

func (f *fakeContacts) UpsertByPhone(phone, name, profileName string) (*models.Contact, error) {
	f.upserted = append(f.upserted, phone)
	f.profileNames = append(f.profileNames, profileName)
	c := f.contact
	c.Phone = phone
	return &c, nil
}

type fakeConversations struct {
	conversation models.Conversation
	created      bool
	previews     []string
}

func (f *fakeConversations) FindOrCreateActive(contactID uuid.UUID) (*models.Conversation, bool, error) {
	c := f.conversation
	c.ContactID = contactID
	return &c, f.created, nil
}

func (f *fakeConversations) TouchInbound(id uuid.UUID, preview string) error {
	f.previews = append(f.previews, preview)
	return nil
}

func (f *fakeConversations) GetViewByID(id uuid.UUID) (*models.ConversationView, error) {
	return &models.ConversationView{Conversation: f.conversation}, nil
}

type fakeMessages struct {
	existing  map[string]bool
	created   []models.Message
	updates   []string
	updated   *models.Message
	updateErr error
}

func (f *fakeMessages) Create(message *models.Message) error {
	message.ID = uuid.New()
	f.created = append(f.created, *message)
	return nil
}

func (f *fakeMessages) ExistsByExternalID(externalID string) (bool, error) {
	return f.existing[externalID], nil
}

func (f *fakeMessages) UpdateStatusByExternalID(externalID, status string) (*models.Message, error) {
	f.updates = append(f.updates, externalID+":"+status)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

type fakeProvider struct {
	markedRead []string
}

func (f *fakeProvider) MarkRead(messageID string) error {
	f.markedRead = append(f.markedRead, messageID)
	return nil
}

type broadcastCall struct {
	event string
	data  interface{}
}

type fakeNotifier struct {
	calls []broadcastCall
}

func (f *fakeNotifier) Broadcast(event string, data interface{}) {
	f.calls = append(f.calls, broadcastCall{event: event, data: data})
}

func newTestHandler() (*Handler, *fakeContacts, *fakeConversations, *fakeMessages, *fakeProvider, *fakeNotifier) {
	contacts := &fakeContacts{contact: models.Contact{BaseModel: models.BaseModel{ID: uuid.New()}}}
	conversations := &fakeConversations{
		conversation: models.Conversation{BaseModel: models.BaseModel{ID: uuid.New()}, Status: models.ConversationOpen},
	}
	messages := &fakeMessages{existing: map[string]bool{}}
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}

	cfg := config.NewService()
	cfg.Set(config.KeyVerifyToken, "verify-secret")

	h := NewHandler(contacts, conversations, messages, provider, notifier, cfg)
	return h, contacts, conversations, messages, provider, notifier
}

func verifyRequest(h *Handler, mode, token, challenge string) *httptest.ResponseRecorder {
	e := echo.New()
	q := url.Values{}
	q.Set("hub.mode", mode)
	q.Set("hub.verify_token", token)
	q.Set("hub.challenge", challenge)

	req := httptest.NewRequest(http.MethodGet, "/webhook/whatsapp?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	_ = h.Verify(e.NewContext(req, rec))
	return rec
}

func TestVerifyHandshake(t *testing.T) {
	h, _, _, _, _, _ := newTestHandler()

	rec := verifyRequest(h, "subscribe", "verify-secret", "challenge-123")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200", rec.Code)
	}
	if rec.Body.String() != "challenge-123" {
		t.Errorf("body = %q, expected the challenge echoed back", rec.Body.String())
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	h, _, _, _, _, _ := newTestHandler()

	tests := []struct {
		name  string
		mode  string
		token string
	}{
		{"wrong token", "subscribe", "wrong"},
		{"wrong mode", "unsubscribe", "verify-secret"},
		{"empty token", "subscribe", ""},
	}

	for _, test := range tests {
		rec := verifyRequest(h, test.mode, test.token, "challenge-123")
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, expected 403", test.name, rec.Code)
		}
	}
}

func inboundPayload(messages []InboundMessage, statuses []StatusUpdate, contacts []ContactInfo) Payload {
	return Payload{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			ID: "entry-1",
			Changes: []Change{{
				Field: "messages",
				Value: Value{
					MessagingProduct: "whatsapp",
					Contacts:         contacts,
					Messages:         messages,
					Statuses:         statuses,
				},
			}},
		}},
	}
}

func TestProcessInboundText(t *testing.T) {
	h, contacts, conversations, messages, provider, notifier := newTestHandler()
	conversations.created = true

	contactInfo := ContactInfo{WaID: "34600111222"}
	contactInfo.Profile.Name = "Maria"

	h.Process(inboundPayload([]InboundMessage{{
		ID:   "wamid.abc",
		From: "34600111222",
		Type: "text",
		Text: &TextContent{Body: "Hola"},
	}}, nil, []ContactInfo{contactInfo}))

	if len(contacts.upserted) != 1 || contacts.upserted[0] != "34600111222" {
		t.Fatalf("upserted = %v, expected the sender phone", contacts.upserted)
	}
	if contacts.profileNames[0] != "Maria" {
		t.Errorf("profile name = %q, expected %q", contacts.profileNames[0], "Maria")
	}

	if len(messages.created) != 1 {
		t.Fatalf("created %d messages, expected 1", len(messages.created))
	}
	msg := messages.created[0]
	if msg.Content != "Hola" || msg.Kind != models.KindText {
		t.Errorf("message = %q/%q, expected Hola/text", msg.Content, msg.Kind)
	}
	if msg.ExternalID != "wamid.abc" {
		t.Errorf("ExternalID = %q, expected %q", msg.ExternalID, "wamid.abc")
	}
	if msg.SenderType != models.SenderContact {
		t.Errorf("SenderType = %q, expected %q", msg.SenderType, models.SenderContact)
	}
	if msg.Status != models.StatusReceived {
		t.Errorf("Status = %q, expected %q", msg.Status, models.StatusReceived)
	}

	if len(conversations.previews) != 1 || conversations.previews[0] != "Hola" {
		t.Errorf("previews = %v, expected [Hola]", conversations.previews)
	}

	if len(provider.markedRead) != 1 || provider.markedRead[0] != "wamid.abc" {
		t.Errorf("markedRead = %v, expected the inbound id", provider.markedRead)
	}

	if len(notifier.calls) != 2 {
		t.Fatalf("broadcast %d events, expected 2", len(notifier.calls))
	}
	if notifier.calls[0].event != EventConversationCreated {
		t.Errorf("first event = %q, expected %q", notifier.calls[0].event, EventConversationCreated)
	}
	if notifier.calls[1].event != EventNewMessage {
		t.Errorf("second event = %q, expected %q", notifier.calls[1].event, EventNewMessage)
	}
}

func TestProcessReusedConversationSkipsCreatedEvent(t *testing.T) {
	h, _, conversations, _, _, notifier := newTestHandler()
	conversations.created = false

	h.Process(inboundPayload([]InboundMessage{{
		ID:   "wamid.abc",
		From: "34600111222",
		Type: "text",
		Text: &TextContent{Body: "Hola"},
	}}, nil, nil))

	if len(notifier.calls) != 1 {
		t.Fatalf("broadcast %d events, expected 1", len(notifier.calls))
	}
	if notifier.calls[0].event != EventNewMessage {
		t.Errorf("event = %q, expected %q", notifier.calls[0].event, EventNewMessage)
	}
}

func TestProcessMediaPreviewUsesKindPlaceholder(t *testing.T) {
	h, _, conversations, messages, _, _ := newTestHandler()

	h.Process(inboundPayload([]InboundMessage{{
		ID:    "wamid.img",
		From:  "34600111222",
		Type:  "image",
		Image: &MediaContent{ID: "media-1", MimeType: "image/jpeg"},
	}}, nil, nil))

	if len(messages.created) != 1 {
		t.Fatalf("created %d messages, expected 1", len(messages.created))
	}
	if messages.created[0].MediaRef != "media-1" {
		t.Errorf("MediaRef = %q, expected %q", messages.created[0].MediaRef, "media-1")
	}
	if len(conversations.previews) != 1 || conversations.previews[0] != "[image]" {
		t.Errorf("previews = %v, expected [[image]]", conversations.previews)
	}
}

func TestProcessSkipsRedeliveredMessage(t *testing.T) {
	h, contacts, _, messages, _, notifier := newTestHandler()
	messages.existing["wamid.dup"] = true

	h.Process(inboundPayload([]InboundMessage{{
		ID:   "wamid.dup",
		From: "34600111222",
		Type: "text",
		Text: &TextContent{Body: "Hola"},
	}}, nil, nil))

	if len(contacts.upserted) != 0 {
		t.Errorf("upserted = %v, expected no contact writes", contacts.upserted)
	}
	if len(messages.created) != 0 {
		t.Errorf("created %d messages, expected 0", len(messages.created))
	}
	if len(notifier.calls) != 0 {
		t.Errorf("broadcast %d events, expected 0", len(notifier.calls))
	}
}

func TestProcessIgnoresOtherObjects(t *testing.T) {
	h, contacts, _, messages, _, _ := newTestHandler()

	payload := inboundPayload([]InboundMessage{{
		ID:   "wamid.abc",
		From: "34600111222",
		Type: "text",
		Text: &TextContent{Body: "Hola"},
	}}, nil, nil)
	payload.Object = "instagram"

	h.Process(payload)

	if len(contacts.upserted) != 0 || len(messages.created) != 0 {
		t.Error("payload for a different object was processed")
	}
}

func TestProcessIgnoresOtherFields(t *testing.T) {
	h, _, _, messages, _, _ := newTestHandler()

	payload := inboundPayload([]InboundMessage{{
		ID:   "wamid.abc",
		From: "34600111222",
		Type: "text",
		Text: &TextContent{Body: "Hola"},
	}}, nil, nil)
	payload.Entry[0].Changes[0].Field = "message_template_status_update"

	h.Process(payload)

	if len(messages.created) != 0 {
		t.Error("change for a different field was processed")
	}
}

func TestStatusUpdateBroadcasts(t *testing.T) {
	h, _, _, messages, _, notifier := newTestHandler()
	messages.updated = &models.Message{BaseModel: models.BaseModel{ID: uuid.New()}, Status: models.StatusDelivered}

	h.Process(inboundPayload(nil, []StatusUpdate{{
		ID:     "wamid.out",
		Status: "delivered",
	}}, nil))

	if len(messages.updates) != 1 || messages.updates[0] != "wamid.out:delivered" {
		t.Fatalf("updates = %v, expected [wamid.out:delivered]", messages.updates)
	}
	if len(notifier.calls) != 1 || notifier.calls[0].event != EventMessageStatus {
		t.Fatalf("calls = %v, expected one message_status event", notifier.calls)
	}
}

func TestStatusUpdateUnrecognizedDropped(t *testing.T) {
	h, _, _, messages, _, notifier := newTestHandler()

	h.Process(inboundPayload(nil, []StatusUpdate{{
		ID:     "wamid.out",
		Status: "deleted",
	}}, nil))

	if len(messages.updates) != 0 {
		t.Errorf("updates = %v, expected none for an unrecognized status", messages.updates)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("broadcast %d events, expected 0", len(notifier.calls))
	}
}

func TestStatusUpdateUnknownMessageIgnored(t *testing.T) {
	h, _, _, messages, _, notifier := newTestHandler()
	messages.updateErr = gorm.ErrRecordNotFound

	h.Process(inboundPayload(nil, []StatusUpdate{{
		ID:     "wamid.gone",
		Status: "read",
	}}, nil))

	if len(notifier.calls) != 0 {
		t.Errorf("broadcast %d events, expected 0 for an unknown message", len(notifier.calls))
	}
}

func TestStatusUpdateDowngradeIgnored(t *testing.T) {
	h, _, _, messages, _, notifier := newTestHandler()
	messages.updated = nil // repository reports a rejected downgrade as a nil message

	h.Process(inboundPayload(nil, []StatusUpdate{{
		ID:     "wamid.out",
		Status: "delivered",
	}}, nil))

	if len(messages.updates) != 1 {
		t.Fatalf("updates = %v, expected the attempt to reach the store", messages.updates)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("broadcast %d events, expected 0 for a downgrade", len(notifier.calls))
	}
}
