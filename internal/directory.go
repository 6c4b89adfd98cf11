package internal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Directory is the per-chat session registry. Each chat owns an ordered
// set of SessionRecords keyed by tag plus a monotonic counter for
// auto-generated tags.
//
// Locking is striped per chat: operations on different chats never
// contend, operations on the same chat are linearized. The per-chat lock
// covers directory bookkeeping and backend session *creation* (so two
// racing creates cannot mint the same tag), but never a session
// invocation: callers invoke the backend with the record they were
// handed, after the directory call returns.
type Directory struct {
	backend SessionBackend
	store   Store

	mu    sync.Mutex
	chats map[ChatID]*chatEntry
}

type chatEntry struct {
	mu      sync.Mutex
	records []SessionRecord
	byTag   map[SessionTag]int
	nextSeq int
}

// NewDirectory creates a Directory backed by the given session backend,
// restoring any chat state the store has persisted.
func NewDirectory(ctx context.Context, backend SessionBackend, store Store) (*Directory, error) {
	d := &Directory{
		backend: backend,
		store:   store,
		chats:   make(map[ChatID]*chatEntry),
	}

	persisted, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore directory state: %w", err)
	}
	for chat, state := range persisted {
		entry := &chatEntry{
			records: state.Records,
			byTag:   make(map[SessionTag]int, len(state.Records)),
			nextSeq: state.NextSeq,
		}
		if entry.nextSeq < 1 {
			entry.nextSeq = 1
		}
		for i, rec := range state.Records {
			entry.byTag[rec.Tag] = i
		}
		d.chats[chat] = entry
	}
	if len(persisted) > 0 {
		LogInfo("restored %d chats from store", len(persisted))
	}
	return d, nil
}

// entry returns the chat's entry, creating an empty one on first use.
func (d *Directory) entry(chat ChatID) *chatEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.chats[chat]
	if !ok {
		e = &chatEntry{byTag: make(map[SessionTag]int), nextSeq: 1}
		d.chats[chat] = e
	}
	return e
}

// GetOrCreate returns the chat's default-tag record, creating it on first
// use. This is the only implicit-creation path; explicit tags go through
// Lookup or Create. The bool reports whether a new session was created.
func (d *Directory) GetOrCreate(ctx context.Context, chat ChatID) (SessionRecord, bool, error) {
	e := d.entry(chat)
	e.mu.Lock()
	defer e.mu.Unlock()

	if i, ok := e.byTag[DefaultTag]; ok {
		return e.records[i], false, nil
	}

	rec, err := d.commit(ctx, chat, e, DefaultTag)
	if err != nil {
		return SessionRecord{}, false, err
	}
	d.persist(ctx, chat, e)
	return rec, true, nil
}

// Lookup resolves an explicit tag. Unknown tags fail with
// UnknownSessionError; a typo must never spawn a session.
func (d *Directory) Lookup(chat ChatID, tag SessionTag) (SessionRecord, error) {
	e := d.entry(chat)
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.byTag[tag]
	if !ok {
		return SessionRecord{}, &UnknownSessionError{Chat: chat, Tag: tag}
	}
	return e.records[i], nil
}

// Create mints the next sequential tag (s1, s2, ...) and creates its
// backend session. On backend failure nothing is committed: the counter
// keeps its value and no record exists.
func (d *Directory) Create(ctx context.Context, chat ChatID) (SessionRecord, error) {
	e := d.entry(chat)
	e.mu.Lock()
	defer e.mu.Unlock()

	tag := SessionTag(fmt.Sprintf("s%d", e.nextSeq))
	rec, err := d.commit(ctx, chat, e, tag)
	if err != nil {
		return SessionRecord{}, err
	}
	e.nextSeq++
	d.persist(ctx, chat, e)
	return rec, nil
}

// commit creates the backend session for tag and records it. Caller holds
// the chat lock. Either both the external session and the record exist
// afterwards, or neither does.
func (d *Directory) commit(ctx context.Context, chat ChatID, e *chatEntry, tag SessionTag) (SessionRecord, error) {
	sessionID, err := d.backend.Create(ctx)
	if err != nil {
		return SessionRecord{}, &SessionCreationError{Chat: chat, Err: err}
	}

	now := time.Now()
	rec := SessionRecord{Tag: tag, SessionID: sessionID, CreatedAt: now, LastActive: now}
	e.byTag[tag] = len(e.records)
	e.records = append(e.records, rec)
	LogDebug("chat %s: created session %s (%s)", chat, tag, sessionID)
	return rec, nil
}

// List returns the chat's records in creation order.
func (d *Directory) List(chat ChatID) []SessionRecord {
	e := d.entry(chat)
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]SessionRecord, len(e.records))
	copy(out, e.records)
	return out
}

// Reset destroys a record and forgets it. The auto-tag counter is left
// alone so the destroyed tag is never reissued. The backend session is
// reset best-effort; a backend failure does not resurrect the record.
func (d *Directory) Reset(ctx context.Context, chat ChatID, tag SessionTag) error {
	e := d.entry(chat)
	e.mu.Lock()

	i, ok := e.byTag[tag]
	if !ok {
		e.mu.Unlock()
		return &UnknownSessionError{Chat: chat, Tag: tag}
	}
	sessionID := e.records[i].SessionID
	e.records = append(e.records[:i], e.records[i+1:]...)
	delete(e.byTag, tag)
	for j := i; j < len(e.records); j++ {
		e.byTag[e.records[j].Tag] = j
	}
	d.persist(ctx, chat, e)
	e.mu.Unlock()

	if err := d.backend.Reset(ctx, sessionID); err != nil {
		LogWarn("chat %s: backend reset of %s failed: %v", chat, tag, err)
	}
	LogDebug("chat %s: reset session %s (%s)", chat, tag, sessionID)
	return nil
}

// Touch updates a record's last-active time. Unknown tags are ignored;
// this is bookkeeping, not an operation a user can get wrong.
func (d *Directory) Touch(ctx context.Context, chat ChatID, tag SessionTag, at time.Time) {
	e := d.entry(chat)
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.byTag[tag]
	if !ok {
		return
	}
	e.records[i].LastActive = at
	d.persist(ctx, chat, e)
}

// persist writes the chat's state through to the store. Caller holds the
// chat lock. Durability is best-effort: a store failure is logged and
// routing continues on the in-memory state.
func (d *Directory) persist(ctx context.Context, chat ChatID, e *chatEntry) {
	state := ChatState{Records: make([]SessionRecord, len(e.records)), NextSeq: e.nextSeq}
	copy(state.Records, e.records)
	if err := d.store.SaveChat(ctx, chat, state); err != nil {
		LogWarn("chat %s: failed to persist state: %v", chat, err)
	}
}
