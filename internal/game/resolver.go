package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

// Resolve is the composition root: it charges the clock, routes the action
// to the matching executor, and returns the new canonical state. A rejected
// action returns the zero state and an error; the input is never mutated.
func Resolve(st GameState, act Action) (GameState, error) {
	if st.HasWinner {
		return GameState{}, ErrGameOver
	}
	next := st.Clone()
	actor := next.Actor()
	if err := next.chargeClock(actor, act.when()); err != nil {
		return GameState{}, err
	}

	if next.Mode.Pending() {
		switch a := act.(type) {
		case CancelAction:
			if a.Square != next.Mode.Source {
				return GameState{}, ErrInvalidAbilityTarget
			}
			wasSwap := next.Mode.Kind == ModeAwaitingSwap
			actor := next.Mode.Actor
			armText := next.Mode.Text
			next.Mode = Mode{}
			if wasSwap {
				// Arming a swap consumed the turn, so canceling only
				// abandons the target choice and the turn closes out.
				text := fmt.Sprintf("%s cancels swap", actor)
				if armText != "" {
					text = armText + "; " + text
				}
				next.finishTurn(turnOutcome{
					text:  text,
					mover: actor,
					at:    a.At,
				})
				return next, nil
			}
			next.Clock.LastMove = a.At
			next.Version++
			return next, nil
		case TargetAction:
			return resolveTarget(next, a)
		default:
			return GameState{}, ErrInvalidAbilityTarget
		}
	}

	switch a := act.(type) {
	case MoveAction:
		return resolveMove(next, a)
	case FireAction:
		return resolveFire(next, a)
	default:
		return GameState{}, ErrInvalidAbilityTarget
	}
}

// turnOutcome carries what finishTurn needs to close out a resolved action.
type turnOutcome struct {
	text         string
	concealed    bool
	mover        shared.Color
	turnFlipped  bool
	wallsDecayed bool
	at           time.Time
}

// finishTurn applies the end-of-turn bookkeeping shared by every executor:
// increment on a real turn flip, timestamp reset, wall decay, spawner
// processing, and the history append. A turn left pending on an ability mode
// defers everything except the clock until the mode resolves.
func (g *GameState) finishTurn(o turnOutcome) {
	if o.turnFlipped {
		g.applyIncrement(o.mover)
	}
	g.Clock.LastMove = o.at
	g.Version++
	if g.Mode.Pending() {
		return
	}
	if !o.wallsDecayed {
		g.decayWalls()
	}
	text := o.text
	if !g.HasWinner {
		if err := g.runSpawner(); errors.Is(err, ErrNoSpawnSpace) {
			text += " (no spawn space)"
		}
	}
	g.History = append(g.History, g.snapshot(text, o.concealed))
}
