// Package httpx wires the HTTP and websocket layer to the rule engine and
// the room store. Every action is evaluated by the engine server-side
// before commit; the store's compare-and-swap turns a race on stale state
// into a retryable conflict instead of a silent overwrite.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fishyfrenzy/GlitchChess/internal/game"
	"github.com/fishyfrenzy/GlitchChess/internal/shared"
	"github.com/fishyfrenzy/GlitchChess/internal/store"
)

// Server exposes the room API over a stdlib mux.
type Server struct {
	rooms *store.Store
	srvMu sync.Mutex
	srv   *http.Server
}

const (
	maxJSONBodyBytes int64 = 1 << 20
	apiCSP                 = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"

	defaultBaseSeconds      = 300
	defaultIncrementSeconds = 3
)

// NewServer builds a Server on top of an open room store.
func NewServer(rooms *store.Store) *Server {
	return &Server{rooms: rooms}
}

// Listen starts the HTTP server.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	log.Printf("HTTP listening on %s", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown of the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/room", s.withJSON(s.handleCreateRoom))
	mux.HandleFunc("/api/join", s.withJSON(s.handleJoin))
	mux.HandleFunc("/api/state", s.withJSON(s.handleState))
	mux.HandleFunc("/api/action", s.withJSON(s.handleAction))

	mux.HandleFunc("/ws", s.handleWS)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ---- JSON helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applyAPISecurityHeaders(w.Header())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg})
}

func applyAPISecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", apiCSP)
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("Cross-Origin-Embedder-Policy", "require-corp")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// ---- API: room creation ----

type createRoomBody struct {
	Base      int `json:"base"`
	Increment int `json:"increment"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body createRoomBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Base <= 0 {
		body.Base = defaultBaseSeconds
	}
	if body.Increment < 0 {
		body.Increment = defaultIncrementSeconds
	}

	seed, err := newSeed()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "seed generation failed")
		return
	}
	code, err := newRoomCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "room code generation failed")
		return
	}

	st := game.NewGame(game.ClockConfig{Base: body.Base, Increment: body.Increment}, seed)
	doc := st.Document()
	if err := s.rooms.CreateRoom(r.Context(), code, doc); err != nil {
		log.Printf("create room %s: %v", code, err)
		writeError(w, http.StatusInternalServerError, "create room failed")
		return
	}
	writeJSON(w, map[string]any{"code": code, "state": doc})
}

// ---- API: join (lobby color claim) ----

type joinBody struct {
	Room  string `json:"room"`
	Color string `json:"color"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body joinBody
	if !decodeBody(w, r, &body) {
		return
	}
	color, ok := shared.ParseColor(body.Color)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid color")
		return
	}
	err := s.rooms.ClaimColor(r.Context(), body.Room, color)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "room not found")
		return
	case errors.Is(err, store.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "color already claimed")
		return
	case err != nil:
		log.Printf("join room %s: %v", body.Room, err)
		writeError(w, http.StatusInternalServerError, "join failed")
		return
	}
	writeJSON(w, map[string]string{"room": strings.ToUpper(strings.TrimSpace(body.Room)), "color": color.Token()})
}

// ---- API: state ----

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	room, ok := s.loadRoom(w, r, r.URL.Query().Get("room"))
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"state": room.Document, "version": room.Version})
}

// ---- API: action ----

type actionBody struct {
	Room    string `json:"room"`
	Version uint64 `json:"version"`
	Type    string `json:"type"`
	From    string `json:"from"`
	To      string `json:"to"`
	Square  string `json:"square"`
	Side    string `json:"side"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body actionBody
	if !decodeBody(w, r, &body) {
		return
	}
	room, ok := s.loadRoom(w, r, body.Room)
	if !ok {
		return
	}
	if body.Version != 0 && body.Version != room.Version {
		writeError(w, http.StatusConflict, "stale state version")
		return
	}

	st, err := game.StateFromDocument(room.Document)
	if err != nil {
		log.Printf("room %s: %v", room.Code, err)
		writeError(w, http.StatusInternalServerError, "corrupt room state")
		return
	}

	now := time.Now().UTC()
	next, err := s.evaluate(st, body, now)
	if err != nil {
		writeError(w, actionStatus(err), err.Error())
		return
	}

	doc := next.Document()
	if err := s.rooms.ReplaceDocument(r.Context(), room.Code, doc, room.Version); err != nil {
		switch {
		case errors.Is(err, store.ErrVersionConflict):
			writeError(w, http.StatusConflict, "concurrent update, retry against latest state")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "room not found")
		default:
			log.Printf("commit room %s: %v", room.Code, err)
			writeError(w, http.StatusInternalServerError, "commit failed")
		}
		return
	}
	writeJSON(w, map[string]any{"state": doc, "version": doc.Version})
}

func (s *Server) evaluate(st game.GameState, body actionBody, now time.Time) (game.GameState, error) {
	switch strings.ToLower(strings.TrimSpace(body.Type)) {
	case "move":
		from, ok := parseSquare(body.From)
		if !ok {
			return game.GameState{}, game.ErrInvalidMove
		}
		to, ok := parseSquare(body.To)
		if !ok {
			return game.GameState{}, game.ErrInvalidMove
		}
		return game.Resolve(st, game.MoveAction{From: from, To: to, At: now})
	case "fire":
		sq, ok := parseSquare(body.Square)
		if !ok {
			return game.GameState{}, game.ErrInvalidAbilityTarget
		}
		return game.Resolve(st, game.FireAction{Square: sq, At: now})
	case "target":
		sq, ok := parseSquare(body.Square)
		if !ok {
			return game.GameState{}, game.ErrInvalidAbilityTarget
		}
		return game.Resolve(st, game.TargetAction{Square: sq, At: now})
	case "cancel":
		sq, ok := parseSquare(body.Square)
		if !ok {
			return game.GameState{}, game.ErrInvalidAbilityTarget
		}
		return game.Resolve(st, game.CancelAction{Square: sq, At: now})
	case "timeout":
		side, ok := shared.ParseColor(body.Side)
		if !ok {
			return game.GameState{}, game.ErrInvalidMove
		}
		return game.ResolveTimeout(st, side, now)
	default:
		return game.GameState{}, game.ErrInvalidMove
	}
}

func actionStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrOutOfTime), errors.Is(err, game.ErrGameOver):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) loadRoom(w http.ResponseWriter, r *http.Request, code string) (store.Room, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		writeError(w, http.StatusBadRequest, "room code required")
		return store.Room{}, false
	}
	room, err := s.rooms.GetRoom(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return store.Room{}, false
	}
	if err != nil {
		log.Printf("load room %s: %v", code, err)
		writeError(w, http.StatusInternalServerError, "load room failed")
		return store.Room{}, false
	}
	return room, true
}

func parseSquare(s string) (shared.Square, bool) {
	return shared.CoordToSquare(strings.ToLower(strings.TrimSpace(s)))
}
