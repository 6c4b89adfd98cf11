package internal

import (
	"context"
	"fmt"
	"time"
)

// Router dispatches inbound messages to the right session for their chat
// and renders the tagged reply. Every reply, including errors, carries a
// [tag] prefix so the originating session is unambiguous when several
// are active.
type Router struct {
	cfg       Config
	directory *Directory
	backend   SessionBackend
}

// NewRouter wires a Router over a directory and its backend.
func NewRouter(cfg Config, directory *Directory, backend SessionBackend) *Router {
	return &Router{cfg: cfg, directory: directory, backend: backend}
}

// Route handles one inbound message and returns the outbound reply text.
// Failures anywhere below this boundary come back as short user-readable
// messages; nothing here is fatal to the process, and one chat's failure
// cannot affect another chat's routing.
func (r *Router) Route(ctx context.Context, chat ChatID, text string) string {
	if !r.cfg.Allowed(chat) {
		return formatError(DefaultTag, &UnauthorizedError{Chat: chat})
	}

	tag, body, err := ParseTag(text)
	if err != nil {
		return formatError(DefaultTag, err)
	}

	rec, err := r.resolve(ctx, chat, tag)
	if err != nil {
		return formatError(tag, err)
	}

	// The directory lock is released; a long-running invocation must not
	// block /status or other commands for this chat. If ctx is cancelled
	// mid-flight the record stays valid for the next message.
	reply, err := r.backend.Invoke(ctx, rec.SessionID, body)
	if err != nil {
		if ctx.Err() != nil {
			LogInfo("chat %s: invocation of %s abandoned: %v", chat, tag, ctx.Err())
			return formatError(tag, &ExternalUnavailableError{Subsystem: "agent", Err: ctx.Err()})
		}
		LogError("chat %s: invocation of %s failed: %v", chat, tag, err)
		return formatError(tag, err)
	}

	r.directory.Touch(ctx, chat, tag, time.Now())
	return formatReply(tag, reply)
}

// resolve maps a tag to its record. The default tag is created on first
// use; explicit tags must already exist.
func (r *Router) resolve(ctx context.Context, chat ChatID, tag SessionTag) (SessionRecord, error) {
	if tag == DefaultTag {
		rec, created, err := r.directory.GetOrCreate(ctx, chat)
		if err != nil {
			return SessionRecord{}, err
		}
		if created {
			LogInfo("chat %s: started default session %s", chat, rec.SessionID)
		}
		return rec, nil
	}
	return r.directory.Lookup(chat, tag)
}

// formatReply renders a session reply in the fixed, parseable tag-prefix
// form.
func formatReply(tag SessionTag, reply string) string {
	return fmt.Sprintf("[%s] %s", tag, reply)
}

// formatError renders an error for the chat surface.
func formatError(tag SessionTag, err error) string {
	return fmt.Sprintf("[%s] ⚠ %s", tag, UserMessage(err))
}
