package game

import (
	"fmt"

	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

const (
	sniperRange  = 3
	builderWalls = 3
	wallLifetime = 2
)

// resolveFire arms an explicit ability on a modifier-bearing friendly piece.
// Swap consumes the turn immediately; sniper and builder consume it once the
// pending mode resolves.
func resolveFire(next GameState, a FireAction) (GameState, error) {
	actor := next.Turn()
	pc, ok := next.Position.Get(a.Square)
	if !ok || pc.Color != actor {
		return GameState{}, ErrInvalidAbilityTarget
	}
	mod, ok := next.Modifiers[a.Square]
	if !ok {
		return GameState{}, ErrInvalidAbilityTarget
	}

	switch mod.Kind {
	case shared.UpgradeSwap:
		next.Mode = Mode{Kind: ModeAwaitingSwap, Source: a.Square, Actor: actor}
		next.Position = next.Position.WithTurn(actor.Opposite())
		next.applyIncrement(actor)
	case shared.UpgradeSniper:
		next.Mode = Mode{Kind: ModeAwaitingSniper, Source: a.Square, Actor: actor}
	case shared.UpgradeBuilder:
		next.Mode = Mode{Kind: ModePlacingWalls, Source: a.Square, Actor: actor}
	default:
		return GameState{}, ErrInvalidAbilityTarget
	}
	next.Clock.LastMove = a.At
	next.Version++
	return next, nil
}

func resolveTarget(next GameState, a TargetAction) (GameState, error) {
	switch next.Mode.Kind {
	case ModeAwaitingSwap:
		return resolveSwapTarget(next, a)
	case ModeAwaitingSniper:
		return resolveSniperTarget(next, a)
	case ModePlacingWalls:
		return resolveWallPlacement(next, a)
	default:
		return GameState{}, ErrInvalidAbilityTarget
	}
}

// resolveSwapTarget exchanges the armed piece with another friendly piece,
// modifiers riding along with their pieces. The swap modifier itself is
// consumed (a swap armed by a pickup never had one).
func resolveSwapTarget(next GameState, a TargetAction) (GameState, error) {
	src := next.Mode.Source
	actor := next.Mode.Actor
	if a.Square == src {
		return GameState{}, ErrInvalidAbilityTarget
	}
	spc, ok := next.Position.Get(src)
	if !ok || spc.Color != actor {
		return GameState{}, ErrInvalidAbilityTarget
	}
	tpc, ok := next.Position.Get(a.Square)
	if !ok || tpc.Color != actor {
		return GameState{}, ErrInvalidAbilityTarget
	}

	next.Position = next.Position.Put(src, tpc).Put(a.Square, spc)

	if m, ok := next.Modifiers[src]; ok && m.Kind == shared.UpgradeSwap {
		delete(next.Modifiers, src)
	}
	sm, sok := next.Modifiers[src]
	tm, tok := next.Modifiers[a.Square]
	delete(next.Modifiers, src)
	delete(next.Modifiers, a.Square)
	if sok {
		next.Modifiers[a.Square] = sm
	}
	if tok {
		next.Modifiers[src] = tm
	}

	text := fmt.Sprintf("%s swaps %s and %s", actor, src, a.Square)
	if next.Mode.Text != "" {
		text = next.Mode.Text + "; " + text
	}
	next.Mode = Mode{}
	// The increment was paid when the swap was armed; the turn token
	// flipped then too, so this only closes out the deferred bookkeeping.
	next.finishTurn(turnOutcome{
		text:  text,
		mover: actor,
		at:    a.At,
	})
	return next, nil
}

// resolveSniperTarget removes an enemy piece within Chebyshev distance 3
// without moving. A king target is an immediate win. The martyrdom hook
// applies: shooting a martyr destroys the sniper piece as well.
func resolveSniperTarget(next GameState, a TargetAction) (GameState, error) {
	src := next.Mode.Source
	actor := next.Mode.Actor
	tpc, ok := next.Position.Get(a.Square)
	if !ok || tpc.Color == actor || shared.Chebyshev(src, a.Square) > sniperRange {
		return GameState{}, ErrInvalidAbilityTarget
	}

	next.Position = next.Position.Remove(a.Square)
	text := fmt.Sprintf("%s snipes %s on %s", actor, tpc.Type, a.Square)

	martyred := false
	if vmod, ok := next.Modifiers[a.Square]; ok {
		delete(next.Modifiers, a.Square)
		if vmod.Kind == shared.UpgradeMartyrdom {
			martyred = true
		}
	}
	delete(next.Modifiers, src)
	if martyred {
		next.Position = next.Position.Remove(src)
		text += " (martyrdom claims the sniper)"
	}

	if tpc.Type == shared.King {
		next.setWinner(actor)
		text += ", king falls"
	}

	next.Position = next.Position.WithTurn(actor.Opposite())
	next.Mode = Mode{}
	next.finishTurn(turnOutcome{
		text:        text,
		mover:       actor,
		turnFlipped: true,
		at:          a.At,
	})
	return next, nil
}

// resolveWallPlacement accumulates builder placements. A placement must be
// free of pieces, walls and upgrade pickups. The third placement commits:
// pre-existing walls age one turn, the three new squares get full lifetime,
// the builder modifier drops, and the turn advances.
func resolveWallPlacement(next GameState, a TargetAction) (GameState, error) {
	actor := next.Mode.Actor
	if _, occupied := next.Position.Get(a.Square); occupied {
		return GameState{}, ErrInvalidAbilityTarget
	}
	if _, walled := next.Walls[a.Square]; walled {
		return GameState{}, ErrInvalidAbilityTarget
	}
	if _, taken := next.UpgradeAt(a.Square); taken {
		return GameState{}, ErrInvalidAbilityTarget
	}
	for _, placed := range next.Mode.Placed {
		if placed == a.Square {
			return GameState{}, ErrInvalidAbilityTarget
		}
	}

	next.Mode.Placed = append(next.Mode.Placed, a.Square)
	if len(next.Mode.Placed) < builderWalls {
		next.Clock.LastMove = a.At
		next.Version++
		return next, nil
	}

	next.decayWalls()
	for _, sq := range next.Mode.Placed {
		next.Walls[sq] = wallLifetime
	}
	delete(next.Modifiers, next.Mode.Source)

	text := fmt.Sprintf("%s raises walls on %s, %s, %s",
		actor, next.Mode.Placed[0], next.Mode.Placed[1], next.Mode.Placed[2])

	next.Mode = Mode{}
	next.Position = next.Position.WithTurn(actor.Opposite())
	next.finishTurn(turnOutcome{
		text:         text,
		mover:        actor,
		turnFlipped:  true,
		wallsDecayed: true,
		at:           a.At,
	})
	return next, nil
}
