package game

import (
	"time"

	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

// chargeClock subtracts wall-clock time elapsed since the last resolution
// from the acting side, floored at zero, then rejects the action if that
// side's time is exhausted. Remaining time is authoritative only at
// Clock.LastMove; nothing is persisted per display tick.
func (g *GameState) chargeClock(actor shared.Color, at time.Time) error {
	if !g.Clock.LastMove.IsZero() && at.After(g.Clock.LastMove) {
		elapsed := at.Sub(g.Clock.LastMove).Seconds()
		g.Clock.Left.set(actor, g.Clock.Left.Of(actor)-elapsed)
	}
	if g.Clock.Left.Of(actor) <= 0 {
		g.Clock.Left.set(actor, 0)
		return ErrOutOfTime
	}
	return nil
}

func (g *GameState) applyIncrement(mover shared.Color) {
	g.Clock.Left.set(mover, g.Clock.Left.Of(mover)+float64(g.Clock.Config.Increment))
}

func (g *GameState) addTime(c shared.Color, seconds float64) {
	g.Clock.Left.set(c, g.Clock.Left.Of(c)+seconds)
}

// ResolveTimeout commits a timeout loss for side once the serving layer's
// poll observes an exhausted clock. The engine itself never decides timeouts
// from display ticks; only an explicit call or action attempt checks time.
func ResolveTimeout(st GameState, side shared.Color, at time.Time) (GameState, error) {
	if st.HasWinner {
		return GameState{}, ErrGameOver
	}
	next := st.Clone()
	if !next.Clock.LastMove.IsZero() && at.After(next.Clock.LastMove) {
		elapsed := at.Sub(next.Clock.LastMove).Seconds()
		next.Clock.Left.set(side, next.Clock.Left.Of(side)-elapsed)
	}
	if next.Clock.Left.Of(side) > 0 {
		return GameState{}, ErrInvalidMove
	}
	next.Clock.Left.set(side, 0)
	next.setWinner(side.Opposite())
	next.Clock.LastMove = at
	next.History = append(next.History, next.snapshot(side.String()+" lost on time", false))
	next.Version++
	return next, nil
}
