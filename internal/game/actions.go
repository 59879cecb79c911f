package game

import (
	"time"

	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

// Action is one player input against a room. Every action carries the
// wall-clock instant it was received at; the clock manager charges elapsed
// time from that instant, which keeps Resolve deterministic and replayable.
type Action interface {
	when() time.Time
	name() string
}

// MoveAction moves a piece, standard or ghost.
type MoveAction struct {
	From shared.Square
	To   shared.Square
	At   time.Time
}

// FireAction arms an explicit ability (swap, sniper, builder) on the square
// holding the modifier-bearing piece.
type FireAction struct {
	Square shared.Square
	At     time.Time
}

// TargetAction is the follow-up click a pending ability mode intercepts:
// swap target, sniper target, or wall placement.
type TargetAction struct {
	Square shared.Square
	At     time.Time
}

// CancelAction is a re-click of the armed square; it discards the pending
// mode without touching board contents.
type CancelAction struct {
	Square shared.Square
	At     time.Time
}

func (a MoveAction) when() time.Time   { return a.At }
func (a FireAction) when() time.Time   { return a.At }
func (a TargetAction) when() time.Time { return a.At }
func (a CancelAction) when() time.Time { return a.At }

func (a MoveAction) name() string   { return "move" }
func (a FireAction) name() string   { return "fire" }
func (a TargetAction) name() string { return "target" }
func (a CancelAction) name() string { return "cancel" }
