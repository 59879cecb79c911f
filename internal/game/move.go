package game

import (
	"errors"
	"fmt"

	"github.com/fishyfrenzy/GlitchChess/internal/board"
	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

// resolveMove applies a standard or ghost move, then walks the modifier
// transfer rules: carry, consume, or fire whatever the source square held,
// absorb any pickup on the destination, and close out the turn.
func resolveMove(next GameState, a MoveAction) (GameState, error) {
	actor := next.Turn()
	pc, ok := next.Position.Get(a.From)
	if !ok || pc.Color != actor {
		return GameState{}, ErrInvalidMove
	}

	srcMod, hasSrcMod := next.Modifiers[a.From]
	isGhost := hasSrcMod && srcMod.Kind == shared.UpgradeGhost

	if _, walled := next.Walls[a.To]; walled && !isGhost {
		return GameState{}, ErrInvalidMove
	}

	var (
		captured   bool
		capturedSq shared.Square
		victim     board.Piece
		checkmate  bool
		ghostKing  bool
	)

	res, err := next.Position.TryMove(a.From, a.To)
	switch {
	case err == nil:
		next.Position = res.Position
		captured = res.Captured
		capturedSq = res.CapturedSquare
		victim = res.CapturedPiece
		checkmate = res.Checkmate
	case errors.Is(err, board.ErrIllegalMove) && isGhost && next.Position.GhostReachable(a.From, a.To):
		if dest, occupied := next.Position.Get(a.To); occupied {
			captured = true
			capturedSq = a.To
			victim = dest
			if dest.Type == shared.King {
				ghostKing = true
			}
		}
		next.Position = next.Position.Remove(a.From)
		if captured {
			next.Position = next.Position.Remove(a.To)
		}
		if pc.Type == shared.Pawn && isPromotionRank(actor, a.To) {
			pc.Type = shared.Queen
		}
		next.Position = next.Position.Put(a.To, pc)
		next.Position = next.Position.WithTurn(actor.Opposite())
	default:
		return GameState{}, ErrInvalidMove
	}

	text := fmt.Sprintf("%s %s %s-%s", actor, pc.Type, a.From, a.To)
	if captured {
		text += fmt.Sprintf(" takes %s", victim.Type)
	}

	// Capture-resolution hook: a martyrdom-bearing victim takes its
	// captor down with it, whatever modifier the captor carried.
	martyred := false
	if captured {
		if vmod, ok := next.Modifiers[capturedSq]; ok {
			delete(next.Modifiers, capturedSq)
			if vmod.Kind == shared.UpgradeMartyrdom {
				martyred = true
				next.Position = next.Position.Remove(a.To)
				text += " (martyrdom claims the captor)"
			}
		}
	}

	turnFlipped := true
	concealed := false

	if hasSrcMod {
		delete(next.Modifiers, a.From)
		if martyred {
			// The mover is gone; only necromancer still fires.
			if srcMod.Kind == shared.UpgradeNecromancer {
				next.Position = next.Position.Put(a.From, board.Piece{Color: actor, Type: shared.Pawn})
				text += fmt.Sprintf(", pawn rises on %s", a.From)
			}
		} else {
			switch srcMod.Kind {
			case shared.UpgradeDoubleMove:
				next.Position = next.Position.WithTurn(actor)
				turnFlipped = false
				text += fmt.Sprintf(", %s moves again", actor)
			case shared.UpgradeGhost:
				// One-turn effect, dropped after the move.
			case shared.UpgradeNecromancer:
				if captured {
					next.Position = next.Position.Put(a.From, board.Piece{Color: actor, Type: shared.Pawn})
					text += fmt.Sprintf(", pawn rises on %s", a.From)
				} else {
					next.Modifiers[a.To] = srcMod
				}
			case shared.UpgradeHiddenMove:
				concealed = true
				next.Modifiers[a.To] = srcMod
			default:
				next.Modifiers[a.To] = srcMod
			}
		}
	}

	if !martyred {
		next.fireTimeModifierAt(a.To, actor, &text)

		if idx, ok := next.UpgradeAt(a.To); ok {
			picked := next.Upgrades[idx]
			next.Upgrades = append(next.Upgrades[:idx], next.Upgrades[idx+1:]...)
			if picked.Kind == shared.UpgradeSwap {
				// Landing on a swap pickup opens the swap state at once;
				// spawner, wall decay and the history append wait for it.
				// The move's log line rides along on the mode so the
				// deferred history entry still records it.
				text += ", swap armed"
				next.Mode = Mode{Kind: ModeAwaitingSwap, Source: a.To, Actor: actor, Text: text}
			} else {
				next.Modifiers[a.To] = Modifier{Kind: picked.Kind, ActiveTurn: actor}
				text += fmt.Sprintf(", picks up %s", picked.Kind)
				next.fireTimeModifierAt(a.To, actor, &text)
			}
		}
	}

	if ghostKing || checkmate {
		next.setWinner(actor)
		if ghostKing {
			text += ", king falls"
		} else {
			text += ", checkmate"
		}
	}

	next.finishTurn(turnOutcome{
		text:        text,
		concealed:   concealed,
		mover:       actor,
		turnFlipped: turnFlipped,
		at:          a.At,
	})
	return next, nil
}

// fireTimeModifierAt consumes a time_add/time_sub modifier the instant its
// piece lands, whether it was carried to the square or just picked up.
func (g *GameState) fireTimeModifierAt(sq shared.Square, mover shared.Color, text *string) {
	mod, ok := g.Modifiers[sq]
	if !ok {
		return
	}
	switch mod.Kind {
	case shared.UpgradeTimeAdd:
		g.addTime(mover, 30)
		*text += fmt.Sprintf(", +30s for %s", mover)
	case shared.UpgradeTimeSub:
		g.addTime(mover.Opposite(), -15)
		*text += fmt.Sprintf(", -15s for %s", mover.Opposite())
	default:
		return
	}
	delete(g.Modifiers, sq)
}

func isPromotionRank(c shared.Color, sq shared.Square) bool {
	if c == shared.White {
		return sq.Rank() == 7
	}
	return sq.Rank() == 0
}
