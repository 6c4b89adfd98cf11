package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeAgent is a minimal in-process agent API for client tests.
func fakeAgent(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "sess-42"})
	})
	mux.HandleFunc("POST /sessions/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"reply": "re: " + in.Text})
	})
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"state": "running", "log_bytes": 4096})
	})
	mux.HandleFunc("DELETE /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /skills", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Skill{{Name: "search", Version: "1.0.0", Description: "web search"}})
	})
	mux.HandleFunc("GET /integrations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Integration{{Name: "github", Connected: true, ToolCount: 3}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAgentClient_RoundTrip(t *testing.T) {
	srv := fakeAgent(t)
	client := NewAgentClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	id, err := client.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "sess-42" {
		t.Errorf("Create() id = %q, want sess-42", id)
	}

	reply, err := client.Invoke(ctx, id, "hello")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if reply != "re: hello" {
		t.Errorf("Invoke() reply = %q, want %q", reply, "re: hello")
	}

	status, err := client.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.State != SessionRunning || status.LogBytes != 4096 {
		t.Errorf("Status() = %+v, want running/4096", status)
	}

	if err := client.Reset(ctx, id); err != nil {
		t.Errorf("Reset() error = %v", err)
	}
}

func TestAgentClient_Registries(t *testing.T) {
	srv := fakeAgent(t)
	client := NewAgentClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	skills, err := client.Skills(ctx)
	if err != nil {
		t.Fatalf("Skills() error = %v", err)
	}
	if len(skills) != 1 || skills[0].Name != "search" {
		t.Errorf("Skills() = %+v, want one skill named search", skills)
	}

	integrations, err := client.Integrations(ctx)
	if err != nil {
		t.Fatalf("Integrations() error = %v", err)
	}
	if len(integrations) != 1 || !integrations[0].Connected {
		t.Errorf("Integrations() = %+v, want one connected integration", integrations)
	}
}

func TestAgentClient_Unreachable(t *testing.T) {
	// A closed server port maps to ExternalUnavailableError.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewAgentClient(url, time.Second)
	_, err := client.Create(context.Background())
	var unavailable *ExternalUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Create() error = %v, want ExternalUnavailableError", err)
	}
}

func TestAgentClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewAgentClient(srv.URL, time.Second)
	_, err := client.Invoke(context.Background(), "sess-1", "hi")
	var unavailable *ExternalUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Invoke() error = %v, want ExternalUnavailableError", err)
	}
}

func TestAgentClient_InvokeHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	// The short client timeout must not apply to Invoke; only ctx bounds it.
	client := NewAgentClient(srv.URL, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Invoke(ctx, "sess-1", "hi")
	if err == nil {
		t.Fatal("Invoke() error = nil, want context cancellation")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("Invoke() returned after %v; client timeout leaked into Invoke", elapsed)
	}
}
