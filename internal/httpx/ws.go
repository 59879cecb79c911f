package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/fishyfrenzy/GlitchChess/internal/store"
)

// handleWS streams committed room documents to a client. The first frame is
// the current snapshot; after that, one frame per committed action.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("room")))
	if code == "" {
		http.Error(w, "room code required", http.StatusBadRequest)
		return
	}
	if _, err := s.rooms.GetRoom(r.Context(), code); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("ws room %s: %v", code, err)
		http.Error(w, "load room failed", http.StatusInternalServerError)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		s.streamRoom(conn, code)
	}).ServeHTTP(w, r)
}

func (s *Server) streamRoom(conn *websocket.Conn, code string) {
	defer conn.Close()

	updates, cancel := s.rooms.Subscribe(code)
	defer cancel()

	// Snapshot after subscribing, so a commit racing the handshake is not
	// lost between the read and the first channel receive.
	room, err := s.rooms.GetRoom(conn.Request().Context(), code)
	if err != nil {
		return
	}

	enc := json.NewEncoder(conn)
	if err := enc.Encode(room.Document); err != nil {
		return
	}

	// Drain client frames purely to detect the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				if !errors.Is(err, io.EOF) {
					log.Printf("ws room %s read: %v", code, err)
				}
				return
			}
		}
	}()

	for {
		select {
		case doc, ok := <-updates:
			if !ok {
				return
			}
			if err := enc.Encode(doc); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
