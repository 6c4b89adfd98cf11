package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ntrakiyski/agent-zero-telegram/testutil"
)

func TestNewStore_Factory(t *testing.T) {
	tests := []struct {
		name    string
		driver  StoreDriver
		opts    []StoreOption
		wantErr error
	}{
		{
			name:   "memory needs no options",
			driver: StoreDriverMemory,
		},
		{
			name:    "sqlite without path",
			driver:  StoreDriverSQLite,
			wantErr: ErrInvalidStoreConfig,
		},
		{
			name:    "redis without client",
			driver:  StoreDriverRedis,
			wantErr: ErrInvalidStoreConfig,
		},
		{
			name:    "unknown driver",
			driver:  StoreDriver("etcd"),
			wantErr: ErrInvalidStoreDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.driver, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewStore() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if err := store.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func sampleState() ChatState {
	now := time.Now().UTC().Truncate(time.Second)
	return ChatState{
		Records: []SessionRecord{
			{Tag: DefaultTag, SessionID: "ext-1", CreatedAt: now, LastActive: now},
			{Tag: "s1", SessionID: "ext-2", CreatedAt: now, LastActive: now},
		},
		NextSeq: 2,
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store, err := NewStore(StoreDriverMemory)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	state := sampleState()
	if err := store.SaveChat(ctx, "chat1", state); err != nil {
		t.Fatalf("SaveChat() error = %v", err)
	}

	loaded, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	got, ok := loaded["chat1"]
	if !ok {
		t.Fatal("LoadAll() missing chat1")
	}
	if got.NextSeq != state.NextSeq {
		t.Errorf("NextSeq = %d, want %d", got.NextSeq, state.NextSeq)
	}
	if len(got.Records) != 2 || got.Records[1].Tag != "s1" {
		t.Errorf("Records = %+v, want 2 records ending in s1", got.Records)
	}

	// The store hands out copies; mutating them must not leak back.
	got.Records[0].SessionID = "mutated"
	reloaded, _ := store.LoadAll(ctx)
	if reloaded["chat1"].Records[0].SessionID != "ext-1" {
		t.Error("LoadAll() returned shared state, want isolated copies")
	}

	if err := store.DeleteChat(ctx, "chat1"); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}
	final, _ := store.LoadAll(ctx)
	if len(final) != 0 {
		t.Errorf("LoadAll() after delete = %d chats, want 0", len(final))
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(testutil.CreateTempDir(t), "sessions.db")
	store, err := NewStore(StoreDriverSQLite, WithSQLitePath(dbPath))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	state := sampleState()
	if err := store.SaveChat(ctx, "chat1", state); err != nil {
		t.Fatalf("SaveChat() error = %v", err)
	}

	// Saving again upserts rather than erroring.
	state.NextSeq = 5
	if err := store.SaveChat(ctx, "chat1", state); err != nil {
		t.Fatalf("SaveChat() upsert error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen: state survives the process restart.
	reopened, err := NewStore(StoreDriverSQLite, WithSQLitePath(dbPath))
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	got, ok := loaded["chat1"]
	if !ok {
		t.Fatal("LoadAll() missing chat1 after reopen")
	}
	if got.NextSeq != 5 {
		t.Errorf("NextSeq = %d, want 5", got.NextSeq)
	}
	if len(got.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(got.Records))
	}
	if got.Records[0].Tag != DefaultTag || got.Records[0].SessionID != "ext-1" {
		t.Errorf("Records[0] = %+v, want default/ext-1", got.Records[0])
	}

	if err := reopened.DeleteChat(ctx, "chat1"); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}
	final, _ := reopened.LoadAll(ctx)
	if len(final) != 0 {
		t.Errorf("LoadAll() after delete = %d chats, want 0", len(final))
	}
}

func TestSQLiteStore_DirectoryRestore(t *testing.T) {
	dbPath := filepath.Join(testutil.CreateTempDir(t), "sessions.db")
	ctx := context.Background()

	store, err := NewStore(StoreDriverSQLite, WithSQLitePath(dbPath))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	dir, err := NewDirectory(ctx, newMockBackend(), store)
	if err != nil {
		t.Fatalf("NewDirectory() error = %v", err)
	}
	rec, err := dir.Create(ctx, "chat1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A new directory over the same file sees the old records and keeps
	// the tag sequence monotonic.
	store2, err := NewStore(StoreDriverSQLite, WithSQLitePath(dbPath))
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	defer store2.Close()
	dir2, err := NewDirectory(ctx, newMockBackend(), store2)
	if err != nil {
		t.Fatalf("NewDirectory() reopen error = %v", err)
	}

	restored, err := dir2.Lookup("chat1", rec.Tag)
	if err != nil {
		t.Fatalf("Lookup() after restore error = %v", err)
	}
	if restored.SessionID != rec.SessionID {
		t.Errorf("restored session id = %q, want %q", restored.SessionID, rec.SessionID)
	}
	next, err := dir2.Create(ctx, "chat1")
	if err != nil {
		t.Fatalf("Create() after restore error = %v", err)
	}
	if next.Tag != "s2" {
		t.Errorf("Create() after restore tag = %q, want s2", next.Tag)
	}
}
