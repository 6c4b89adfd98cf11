package internal

import (
	"errors"
	"fmt"
)

// Sentinel errors for store construction.
var (
	ErrInvalidStoreDriver = errors.New("invalid store driver")
	ErrInvalidStoreConfig = errors.New("invalid store configuration")
)

// InvalidTagError reports a tag marker whose identifier does not match the
// accepted tag grammar.
type InvalidTagError struct {
	Input  string
	Reason string
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid tag %q: %s", e.Input, e.Reason)
}

// AmbiguousAddressingError reports a message carrying more than one tag
// marker. The router refuses to guess which session was meant.
type AmbiguousAddressingError struct {
	Tags []string
}

func (e *AmbiguousAddressingError) Error() string {
	return fmt.Sprintf("ambiguous addressing: %d tags in one message", len(e.Tags))
}

// UnknownSessionError reports an explicit tag that has no record in the
// chat's directory. Explicit tags are never created implicitly.
type UnknownSessionError struct {
	Chat ChatID
	Tag  SessionTag
}

func (e *UnknownSessionError) Error() string {
	return fmt.Sprintf("unknown session %q in chat %s", e.Tag, e.Chat)
}

// SessionCreationError reports a backend failure while creating a session.
// The directory record is not committed when this is returned.
type SessionCreationError struct {
	Chat ChatID
	Err  error
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("session creation failed for chat %s: %v", e.Chat, e.Err)
}

func (e *SessionCreationError) Unwrap() error {
	return e.Err
}

// ExternalUnavailableError reports an unreachable external subsystem
// (session backend, skill registry, integration registry).
type ExternalUnavailableError struct {
	Subsystem string
	Err       error
}

func (e *ExternalUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Subsystem, e.Err)
}

func (e *ExternalUnavailableError) Unwrap() error {
	return e.Err
}

// UnauthorizedError reports a chat that is not on the allow-list.
type UnauthorizedError struct {
	Chat ChatID
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("chat %s is not authorized", e.Chat)
}

// UserMessage renders an error as a short chat-safe string. Internal detail
// (wrapped causes, ids, endpoints) never reaches the chat surface.
func UserMessage(err error) string {
	var (
		invalidTag  *InvalidTagError
		ambiguous   *AmbiguousAddressingError
		unknown     *UnknownSessionError
		creation    *SessionCreationError
		unavailable *ExternalUnavailableError
		unauth      *UnauthorizedError
	)
	switch {
	case errors.As(err, &invalidTag):
		return "that tag is not valid; tags are short lowercase names like @s1"
	case errors.As(err, &ambiguous):
		return "message addresses more than one session; use a single @tag"
	case errors.As(err, &unknown):
		return fmt.Sprintf("no session named %q here; run /new to create one", unknown.Tag)
	case errors.As(err, &creation):
		return "could not start a new session; please try again"
	case errors.As(err, &unavailable):
		return "the agent is unreachable right now; please try again"
	case errors.As(err, &unauth):
		return "you are not allowed to use this bot"
	default:
		return "something went wrong handling that message"
	}
}

// Transient reports whether the user may simply resend and expect the
// operation to succeed.
func Transient(err error) bool {
	var (
		creation    *SessionCreationError
		unavailable *ExternalUnavailableError
	)
	return errors.As(err, &creation) || errors.As(err, &unavailable)
}
