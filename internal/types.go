package internal

import "time"

// DefaultTag is the session every untagged message routes to.
const DefaultTag = SessionTag("default")

// ChatID identifies a conversation channel on the external transport.
// It is opaque to the router and stable for the lifetime of the channel.
type ChatID string

func (c ChatID) String() string { return string(c) }

// SessionTag addresses one session within a chat. Tags are unique within
// a chat and never reused after creation, even when the session they named
// has been reset.
type SessionTag string

func (t SessionTag) String() string { return string(t) }

// SessionRecord ties a tag to an external session. Records are immutable
// after creation except for the LastActive bookkeeping field.
type SessionRecord struct {
	Tag        SessionTag `json:"tag"`
	SessionID  string     `json:"session_id"`
	CreatedAt  time.Time  `json:"created_at"`
	LastActive time.Time  `json:"last_active"`
}

// ChatState is the persisted directory state for a single chat: its
// records in creation order plus the auto-tag sequence counter.
// NextSeq is strictly greater than the numeric suffix of any auto-generated
// tag ever issued for the chat, so tags are never recycled.
type ChatState struct {
	Records []SessionRecord `json:"records"`
	NextSeq int             `json:"next_seq"`
}

// SessionState is the transient run state reported by the backend.
type SessionState string

const (
	SessionRunning SessionState = "running"
	SessionIdle    SessionState = "idle"
)

// SessionStatus is a point-in-time snapshot of a backend session.
type SessionStatus struct {
	State    SessionState `json:"state"`
	LogBytes int64        `json:"log_bytes"`
}

// Skill describes one entry from the external capability registry.
type Skill struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Tags        []string `json:"tags,omitempty"`
}

// Integration describes one connected integration server.
type Integration struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	ToolCount int    `json:"tool_count"`
	LastError string `json:"last_error,omitempty"`
}
