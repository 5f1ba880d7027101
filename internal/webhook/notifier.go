package webhook

// Real-time event names pushed to connected agent sessions
const (
	EventNewMessage          = "new_message"
	EventMessageStatus       = "message_status"
	EventConversationUpdated = "conversation_updated"
	EventConversationCreated = "conversation_created"
	EventAgentStatus         = "agent_status"
	EventTyping              = "typing"
)

// Notifier publishes real-time events to every connected agent session.
// It is injected into the ingestion pipeline and the send handlers rather
// than looked up from ambient state.
type Notifier interface {
	Broadcast(event string, data interface{})
}
