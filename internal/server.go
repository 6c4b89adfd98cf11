package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Server is the webhook edge the external chat transport calls. It owns
// no routing logic: commands go to the Commander, everything else to the
// Router.
type Server struct {
	cfg       Config
	router    *Router
	commander *Commander
	httpSrv   *http.Server
}

type hookRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type hookResponse struct {
	Reply string `json:"reply"`
}

// NewServer builds the webhook server.
func NewServer(cfg Config, router *Router, commander *Commander) *Server {
	s := &Server{cfg: cfg, router: router, commander: commander}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /hook", s.handleHook)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.httpSrv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully so
// in-flight invocations can finish or be abandoned cleanly.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		LogInfo("webhook listening on %s", s.cfg.Listen)
		errc <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleHook processes one inbound transport event. Each request gets an
// id so concurrent chats can be told apart in the logs; handler panics or
// slow backends in one chat never block another chat's request, which
// rides its own goroutine courtesy of net/http.
func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()[:8]

	var in hookRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if in.ChatID == "" {
		http.Error(w, "chat_id is required", http.StatusBadRequest)
		return
	}

	chat := ChatID(in.ChatID)
	LogDebug("[%s] chat %s: %q", reqID, chat, in.Text)

	var reply string
	if IsCommand(in.Text) {
		reply = s.commander.Handle(r.Context(), chat, in.Text)
	} else {
		reply = s.router.Route(r.Context(), chat, in.Text)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(hookResponse{Reply: reply}); err != nil {
		LogWarn("[%s] failed to write response: %v", reqID, err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
