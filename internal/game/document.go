package game

import (
	"fmt"
	"time"

	"github.com/fishyfrenzy/GlitchChess/internal/board"
	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

// Document is the JSON shape the external store holds, one per room.
// Square-keyed maps marshal to algebraic keys via shared.Square's text
// encoding, so the wire form matches the room-document contract directly.
type Document struct {
	FEN          string                     `json:"fen"`
	Turn         shared.Color               `json:"turn"`
	Upgrades     []Upgrade                  `json:"upgrades"`
	Modifiers    map[shared.Square]Modifier `json:"modifiers"`
	Walls        map[shared.Square]int      `json:"walls"`
	History      []HistoryEntry             `json:"history"`
	Winner       string                     `json:"winner"`
	TimeConfig   ClockConfig                `json:"timeConfig"`
	TimeLeft     TimeLeft                   `json:"timeLeft"`
	LastMoveTime int64                      `json:"lastMoveTime"`
	Mode         *ModeDoc                   `json:"mode,omitempty"`
	Seed         uint64                     `json:"seed"`
	Version      uint64                     `json:"version"`
}

// ModeDoc serializes a pending ability mode so a room survives a reload
// mid-ability.
type ModeDoc struct {
	Kind   string          `json:"kind"`
	Source shared.Square   `json:"source"`
	Actor  shared.Color    `json:"actor"`
	Placed []shared.Square `json:"placed,omitempty"`
	Text   string          `json:"text,omitempty"`
}

// Document converts the state to its store form.
func (g GameState) Document() Document {
	doc := Document{
		FEN:        g.Position.FEN(),
		Turn:       g.Turn(),
		Upgrades:   append([]Upgrade{}, g.Upgrades...),
		Modifiers:  cloneModifiers(g.Modifiers),
		Walls:      cloneWalls(g.Walls),
		History:    append([]HistoryEntry{}, g.History...),
		TimeConfig: g.Clock.Config,
		TimeLeft:   g.Clock.Left,
		Seed:       g.Seed,
		Version:    g.Version,
	}
	if g.HasWinner {
		doc.Winner = g.Winner.Token()
	}
	if !g.Clock.LastMove.IsZero() {
		doc.LastMoveTime = g.Clock.LastMove.UnixMilli()
	}
	if g.Mode.Pending() {
		doc.Mode = &ModeDoc{
			Kind:   g.Mode.Kind.String(),
			Source: g.Mode.Source,
			Actor:  g.Mode.Actor,
			Placed: append([]shared.Square(nil), g.Mode.Placed...),
			Text:   g.Mode.Text,
		}
	}
	return doc
}

// StateFromDocument reconstructs a GameState from its store form. A
// malformed position string is an error; callers keep their last known good
// state rather than crash.
func StateFromDocument(doc Document) (GameState, error) {
	pos, err := board.Load(doc.FEN)
	if err != nil {
		return GameState{}, fmt.Errorf("room document: %w", err)
	}
	pos = pos.WithTurn(doc.Turn)

	st := GameState{
		Position:  pos,
		Upgrades:  append([]Upgrade{}, doc.Upgrades...),
		Modifiers: cloneModifiers(doc.Modifiers),
		Walls:     cloneWalls(doc.Walls),
		History:   append([]HistoryEntry{}, doc.History...),
		Clock: Clock{
			Config: doc.TimeConfig,
			Left:   doc.TimeLeft,
		},
		Seed:    doc.Seed,
		Version: doc.Version,
	}
	if doc.LastMoveTime != 0 {
		st.Clock.LastMove = time.UnixMilli(doc.LastMoveTime).UTC()
	}
	if doc.Winner != "" {
		winner, ok := shared.ParseColor(doc.Winner)
		if !ok {
			return GameState{}, fmt.Errorf("room document: invalid winner %q", doc.Winner)
		}
		st.setWinner(winner)
	}
	if doc.Mode != nil {
		kind, ok := parseModeKind(doc.Mode.Kind)
		if !ok {
			return GameState{}, fmt.Errorf("room document: invalid mode %q", doc.Mode.Kind)
		}
		st.Mode = Mode{
			Kind:   kind,
			Source: doc.Mode.Source,
			Actor:  doc.Mode.Actor,
			Placed: append([]shared.Square(nil), doc.Mode.Placed...),
			Text:   doc.Mode.Text,
		}
	}
	return st, nil
}

func parseModeKind(s string) (ModeKind, bool) {
	switch s {
	case "awaiting_swap":
		return ModeAwaitingSwap, true
	case "awaiting_sniper":
		return ModeAwaitingSniper, true
	case "placing_walls":
		return ModePlacingWalls, true
	case "idle", "":
		return ModeIdle, true
	default:
		return ModeIdle, false
	}
}
