// Package game implements the augmented-chess rule engine: a deterministic
// state machine that validates player actions, applies standard or
// modifier-specific effects, keeps the clock honest, and spawns upgrade
// entities. The engine is pure: every operation takes a GameState and
// returns a new one, or fails without observable mutation.
package game

import (
	"time"

	"github.com/fishyfrenzy/GlitchChess/internal/board"
	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

// Upgrade is a mystery pickup occupying a board square. Grid coordinates use
// y=0 for rank 8 (black's back rank).
type Upgrade struct {
	ID   string             `json:"id"`
	X    int                `json:"x"`
	Y    int                `json:"y"`
	Kind shared.UpgradeKind `json:"type"`
}

// Square converts the upgrade's grid coordinates to a board square.
func (u Upgrade) Square() (shared.Square, bool) {
	return shared.SquareFromXY(u.X, u.Y)
}

// Modifier is an ability bound to whichever piece currently occupies its
// square. It must be explicitly transferred when the piece moves.
type Modifier struct {
	Kind       shared.UpgradeKind `json:"type"`
	ActiveTurn shared.Color       `json:"activeTurn"`
}

// ClockConfig is the per-room time control, in seconds.
type ClockConfig struct {
	Base      int `json:"base"`
	Increment int `json:"increment"`
}

// TimeLeft holds the live counters, in seconds. Authoritative only at
// Clock.LastMove; between turns the display interpolates locally.
type TimeLeft struct {
	White float64 `json:"w"`
	Black float64 `json:"b"`
}

func (t TimeLeft) Of(c shared.Color) float64 {
	if c == shared.White {
		return t.White
	}
	return t.Black
}

func (t *TimeLeft) set(c shared.Color, v float64) {
	if v < 0 {
		v = 0
	}
	if c == shared.White {
		t.White = v
	} else {
		t.Black = v
	}
}

// Clock owns the time control, the live counters, and the last resolution
// instant. A zero LastMove means no state-producing action has happened yet.
type Clock struct {
	Config   ClockConfig
	Left     TimeLeft
	LastMove time.Time
}

// ModeKind discriminates the interaction mode union.
type ModeKind uint8

const (
	ModeIdle ModeKind = iota
	ModeAwaitingSwap
	ModeAwaitingSniper
	ModePlacingWalls
)

func (k ModeKind) String() string {
	switch k {
	case ModeIdle:
		return "idle"
	case ModeAwaitingSwap:
		return "awaiting_swap"
	case ModeAwaitingSniper:
		return "awaiting_sniper"
	case ModePlacingWalls:
		return "placing_walls"
	default:
		return "?"
	}
}

// Mode is the single tagged interaction state. At most one ability mode can
// be pending; Source is the armed square and Actor the side that armed it.
// Placed accumulates wall placements and only becomes Walls entries once the
// third placement commits. Text holds the log line of a move whose history
// append was deferred by the mode, so the entry written at resolution still
// records the move that armed it.
type Mode struct {
	Kind   ModeKind
	Source shared.Square
	Actor  shared.Color
	Placed []shared.Square
	Text   string
}

// Pending reports whether an ability mode is waiting for a target click.
func (m Mode) Pending() bool { return m.Kind != ModeIdle }

// HistoryEntry is an immutable snapshot appended after every fully-resolved
// turn. Entries are never edited or removed; replay scrubbing reads them.
type HistoryEntry struct {
	Position  string                     `json:"position"`
	Upgrades  []Upgrade                  `json:"upgrades"`
	Modifiers map[shared.Square]Modifier `json:"modifiers"`
	Walls     map[shared.Square]int      `json:"walls"`
	Text      string                     `json:"text"`
	Concealed bool                       `json:"concealed,omitempty"`
}

// GameState aggregates everything one room exchanges with the store and
// broadcasts to peers. Value semantics: Clone before mutating.
type GameState struct {
	Position  board.Position
	Upgrades  []Upgrade
	Modifiers map[shared.Square]Modifier
	Walls     map[shared.Square]int
	Clock     Clock
	History   []HistoryEntry
	HasWinner bool
	Winner    shared.Color
	Mode      Mode
	Seed      uint64
	Version   uint64
}

// NewGame builds the initial room state: standard position, white to move,
// no upgrades or modifiers, both clocks at base.
func NewGame(cfg ClockConfig, seed uint64) GameState {
	return GameState{
		Position:  board.Start(),
		Upgrades:  []Upgrade{},
		Modifiers: map[shared.Square]Modifier{},
		Walls:     map[shared.Square]int{},
		Clock: Clock{
			Config: cfg,
			Left:   TimeLeft{White: float64(cfg.Base), Black: float64(cfg.Base)},
		},
		History: []HistoryEntry{},
		Seed:    seed,
	}
}

// Turn returns the side to move.
func (g GameState) Turn() shared.Color { return g.Position.Turn() }

// Actor is the side whose input the engine is waiting on: the pending mode's
// owner if one is armed (swap flips the turn token at fire time, so the token
// alone is not enough), otherwise the side to move.
func (g GameState) Actor() shared.Color {
	if g.Mode.Pending() {
		return g.Mode.Actor
	}
	return g.Turn()
}

// UpgradeAt finds the upgrade occupying sq, if any.
func (g GameState) UpgradeAt(sq shared.Square) (int, bool) {
	for i, u := range g.Upgrades {
		if usq, ok := u.Square(); ok && usq == sq {
			return i, true
		}
	}
	return -1, false
}

// Clone deep-copies the state so executors can mutate freely.
func (g GameState) Clone() GameState {
	out := g
	out.Upgrades = append([]Upgrade(nil), g.Upgrades...)
	out.Modifiers = cloneModifiers(g.Modifiers)
	out.Walls = cloneWalls(g.Walls)
	out.History = append([]HistoryEntry(nil), g.History...)
	out.Mode.Placed = append([]shared.Square(nil), g.Mode.Placed...)
	return out
}

func cloneModifiers(src map[shared.Square]Modifier) map[shared.Square]Modifier {
	clone := make(map[shared.Square]Modifier, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}

func cloneWalls(src map[shared.Square]int) map[shared.Square]int {
	clone := make(map[shared.Square]int, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}

func (g *GameState) snapshot(text string, concealed bool) HistoryEntry {
	return HistoryEntry{
		Position:  g.Position.FEN(),
		Upgrades:  append([]Upgrade(nil), g.Upgrades...),
		Modifiers: cloneModifiers(g.Modifiers),
		Walls:     cloneWalls(g.Walls),
		Text:      text,
		Concealed: concealed,
	}
}

func (g *GameState) setWinner(c shared.Color) {
	g.HasWinner = true
	g.Winner = c
}
