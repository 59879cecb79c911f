package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

func TestSniperFireAndShot(t *testing.T) {
	st := newTestGame()
	st.Position = loadPosition(t, "8/6k1/8/8/3Q4/8/8/4K3 w - - 0 1")
	st.Modifiers[sq(t, "d4")] = Modifier{Kind: shared.UpgradeSniper, ActiveTurn: shared.White}

	armed := mustResolve(t, st, FireAction{Square: sq(t, "d4"), At: t0})
	if armed.Mode.Kind != ModeAwaitingSniper || armed.Mode.Source != sq(t, "d4") {
		t.Fatalf("mode = %+v, want awaiting_sniper at d4", armed.Mode)
	}
	if armed.Turn() != shared.White {
		t.Fatalf("turn = %v, arming a sniper must not flip it", armed.Turn())
	}
	if len(armed.History) != 0 {
		t.Fatalf("history appended before the shot resolved")
	}

	// g7 is exactly Chebyshev distance 3 from d4, and holds the king.
	done := mustResolve(t, armed, TargetAction{Square: sq(t, "g7"), At: t0})
	if !done.HasWinner || done.Winner != shared.White {
		t.Fatalf("winner = %v/%v, want white", done.HasWinner, done.Winner)
	}
	if _, ok := done.Position.Get(sq(t, "g7")); ok {
		t.Fatalf("sniped king still on the board")
	}
	if _, ok := done.Modifiers[sq(t, "d4")]; ok {
		t.Fatalf("sniper modifier not consumed")
	}
	if done.Mode.Pending() {
		t.Fatalf("mode still pending after the shot")
	}
	if !strings.Contains(done.History[0].Text, "king falls") {
		t.Fatalf("history text = %q", done.History[0].Text)
	}
}

func TestSniperRangeAndTargets(t *testing.T) {
	st := newTestGame()
	st.Position = loadPosition(t, "7r/6k1/8/8/3Q4/8/8/4K3 w - - 0 1")
	st.Modifiers[sq(t, "d4")] = Modifier{Kind: shared.UpgradeSniper, ActiveTurn: shared.White}
	armed := mustResolve(t, st, FireAction{Square: sq(t, "d4"), At: t0})

	// h8 is Chebyshev distance 4, out of range.
	if _, err := Resolve(armed, TargetAction{Square: sq(t, "h8"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("out-of-range shot: err = %v, want ErrInvalidAbilityTarget", err)
	}
	// Friendly piece.
	if _, err := Resolve(armed, TargetAction{Square: sq(t, "e1"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("friendly shot: err = %v, want ErrInvalidAbilityTarget", err)
	}
	// Empty square.
	if _, err := Resolve(armed, TargetAction{Square: sq(t, "e5"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("empty shot: err = %v, want ErrInvalidAbilityTarget", err)
	}
}

func TestSniperMartyrdomDestroysSniper(t *testing.T) {
	st := newTestGame()
	st.Position = loadPosition(t, "4k3/8/3r4/8/3Q4/8/8/4K3 w - - 0 1")
	st.Modifiers[sq(t, "d4")] = Modifier{Kind: shared.UpgradeSniper, ActiveTurn: shared.White}
	st.Modifiers[sq(t, "d6")] = Modifier{Kind: shared.UpgradeMartyrdom, ActiveTurn: shared.Black}

	armed := mustResolve(t, st, FireAction{Square: sq(t, "d4"), At: t0})
	done := mustResolve(t, armed, TargetAction{Square: sq(t, "d6"), At: t0})

	if _, ok := done.Position.Get(sq(t, "d6")); ok {
		t.Fatalf("martyr still on the board")
	}
	if _, ok := done.Position.Get(sq(t, "d4")); ok {
		t.Fatalf("sniper survived shooting a martyr")
	}
	if len(done.Modifiers) != 0 {
		t.Fatalf("modifiers = %v, want all consumed", done.Modifiers)
	}
}

func TestSwapFireTargetFlow(t *testing.T) {
	st := newTestGame()
	st.Modifiers[sq(t, "b1")] = Modifier{Kind: shared.UpgradeSwap, ActiveTurn: shared.White}

	armed := mustResolve(t, st, FireAction{Square: sq(t, "b1"), At: t0})
	if armed.Mode.Kind != ModeAwaitingSwap {
		t.Fatalf("mode = %+v, want awaiting_swap", armed.Mode)
	}
	if armed.Turn() != shared.Black {
		t.Fatalf("turn = %v, arming a swap consumes the turn", armed.Turn())
	}
	if armed.Actor() != shared.White {
		t.Fatalf("actor = %v, the swap owner still picks the target", armed.Actor())
	}
	if got := armed.Clock.Left.White; got != 303 {
		t.Fatalf("white time = %v, want increment paid at arm time", got)
	}

	done := mustResolve(t, armed, TargetAction{Square: sq(t, "a2"), At: t0})
	if pc, ok := done.Position.Get(sq(t, "a2")); !ok || pc.Type != shared.Knight {
		t.Fatalf("a2 holds %+v, want the swapped knight", pc)
	}
	if pc, ok := done.Position.Get(sq(t, "b1")); !ok || pc.Type != shared.Pawn {
		t.Fatalf("b1 holds %+v, want the swapped pawn", pc)
	}
	if len(done.Modifiers) != 0 {
		t.Fatalf("modifiers = %v, want swap consumed", done.Modifiers)
	}
	if got := done.Clock.Left.White; got != 303 {
		t.Fatalf("white time = %v, increment must not be paid twice", got)
	}
	if len(done.History) != 1 || !strings.Contains(done.History[0].Text, "swaps") {
		t.Fatalf("history = %+v", done.History)
	}
}

func TestSwapTargetValidation(t *testing.T) {
	st := newTestGame()
	st.Modifiers[sq(t, "b1")] = Modifier{Kind: shared.UpgradeSwap, ActiveTurn: shared.White}
	armed := mustResolve(t, st, FireAction{Square: sq(t, "b1"), At: t0})

	if _, err := Resolve(armed, TargetAction{Square: sq(t, "b1"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("self swap: err = %v, want ErrInvalidAbilityTarget", err)
	}
	if _, err := Resolve(armed, TargetAction{Square: sq(t, "b8"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("enemy swap: err = %v, want ErrInvalidAbilityTarget", err)
	}
	if _, err := Resolve(armed, TargetAction{Square: sq(t, "e4"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("empty swap: err = %v, want ErrInvalidAbilityTarget", err)
	}
}

func TestSwapPickupDefersTurnClose(t *testing.T) {
	st := newTestGame()
	// e4 is file 4, rank 3, grid y 4.
	st.Upgrades = []Upgrade{{ID: "u1", X: 4, Y: 4, Kind: shared.UpgradeSwap}}

	armed := mustResolve(t, st, MoveAction{From: sq(t, "e2"), To: sq(t, "e4"), At: t0})
	if armed.Mode.Kind != ModeAwaitingSwap || armed.Mode.Source != sq(t, "e4") || armed.Mode.Actor != shared.White {
		t.Fatalf("mode = %+v, want awaiting_swap at e4 for white", armed.Mode)
	}
	if len(armed.History) != 0 {
		t.Fatalf("history appended while the swap is still pending")
	}
	if len(armed.Upgrades) != 0 {
		t.Fatalf("spawner ran while the swap is still pending: %v", armed.Upgrades)
	}

	done := mustResolve(t, armed, TargetAction{Square: sq(t, "d1"), At: t0})
	if pc, ok := done.Position.Get(sq(t, "e4")); !ok || pc.Type != shared.Queen {
		t.Fatalf("e4 holds %+v, want the swapped queen", pc)
	}
	if len(done.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(done.History))
	}
	if len(done.Upgrades) != 2 {
		t.Fatalf("upgrades = %d, want spawner refill to 2", len(done.Upgrades))
	}
	// The deferred entry records the move that armed the swap, not just
	// the swap itself.
	text := done.History[0].Text
	if !strings.Contains(text, "white P e2-e4") || !strings.Contains(text, "swaps e4 and d1") {
		t.Fatalf("history text = %q, want the arming move and the swap", text)
	}
}

func TestSwapPickupTextSurvivesReloadAndCancel(t *testing.T) {
	st := newTestGame()
	st.Upgrades = []Upgrade{{ID: "u1", X: 4, Y: 4, Kind: shared.UpgradeSwap}}
	armed := mustResolve(t, st, MoveAction{From: sq(t, "e2"), To: sq(t, "e4"), At: t0})

	// A room reload mid-ability keeps the pending move's log line.
	restored, err := StateFromDocument(armed.Document())
	if err != nil {
		t.Fatalf("StateFromDocument: %v", err)
	}
	done := mustResolve(t, restored, CancelAction{Square: sq(t, "e4"), At: t0})
	text := done.History[0].Text
	if !strings.Contains(text, "white P e2-e4") || !strings.Contains(text, "cancels swap") {
		t.Fatalf("history text = %q, want the arming move and the cancel", text)
	}
}

func TestCancelSwapClosesTurn(t *testing.T) {
	st := newTestGame()
	st.Modifiers[sq(t, "b1")] = Modifier{Kind: shared.UpgradeSwap, ActiveTurn: shared.White}
	armed := mustResolve(t, st, FireAction{Square: sq(t, "b1"), At: t0})

	done := mustResolve(t, armed, CancelAction{Square: sq(t, "b1"), At: t0})
	if done.Mode.Pending() {
		t.Fatalf("mode still pending after cancel")
	}
	if done.Turn() != shared.Black {
		t.Fatalf("turn = %v, the armed swap already consumed white's turn", done.Turn())
	}
	if len(done.History) != 1 || !strings.Contains(done.History[0].Text, "cancels swap") {
		t.Fatalf("history = %+v", done.History)
	}
}

func TestCancelSniperKeepsTurn(t *testing.T) {
	st := newTestGame()
	st.Position = loadPosition(t, "8/6k1/8/8/3Q4/8/8/4K3 w - - 0 1")
	st.Modifiers[sq(t, "d4")] = Modifier{Kind: shared.UpgradeSniper, ActiveTurn: shared.White}
	armed := mustResolve(t, st, FireAction{Square: sq(t, "d4"), At: t0})

	if _, err := Resolve(armed, CancelAction{Square: sq(t, "e1"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("cancel on wrong square: err = %v, want ErrInvalidAbilityTarget", err)
	}

	done := mustResolve(t, armed, CancelAction{Square: sq(t, "d4"), At: t0})
	if done.Mode.Pending() {
		t.Fatalf("mode still pending after cancel")
	}
	if done.Turn() != shared.White {
		t.Fatalf("turn = %v, canceled sniper keeps white to move", done.Turn())
	}
	if mod, ok := done.Modifiers[sq(t, "d4")]; !ok || mod.Kind != shared.UpgradeSniper {
		t.Fatalf("modifier = %+v, canceling must not consume the sniper", mod)
	}
	if len(done.History) != 0 {
		t.Fatalf("canceled sniper must not append history")
	}
}

func TestMoveRejectedWhileModePending(t *testing.T) {
	st := newTestGame()
	st.Modifiers[sq(t, "b1")] = Modifier{Kind: shared.UpgradeSwap, ActiveTurn: shared.White}
	armed := mustResolve(t, st, FireAction{Square: sq(t, "b1"), At: t0})

	if _, err := Resolve(armed, MoveAction{From: sq(t, "e2"), To: sq(t, "e4"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("move during pending mode: err = %v, want ErrInvalidAbilityTarget", err)
	}
}

func TestBuilderWallFlow(t *testing.T) {
	st := newTestGame()
	st.Modifiers[sq(t, "c1")] = Modifier{Kind: shared.UpgradeBuilder, ActiveTurn: shared.White}

	armed := mustResolve(t, st, FireAction{Square: sq(t, "c1"), At: t0})
	if armed.Mode.Kind != ModePlacingWalls {
		t.Fatalf("mode = %+v, want placing_walls", armed.Mode)
	}

	one := mustResolve(t, armed, TargetAction{Square: sq(t, "c4"), At: t0})
	two := mustResolve(t, one, TargetAction{Square: sq(t, "d4"), At: t0})
	if !two.Mode.Pending() || len(two.Mode.Placed) != 2 {
		t.Fatalf("mode = %+v, want two placements pending", two.Mode)
	}
	if len(two.Walls) != 0 {
		t.Fatalf("walls = %v, nothing commits before the third placement", two.Walls)
	}

	// Occupied, upgrade-holding and duplicate squares are rejected without
	// consuming a placement.
	if _, err := Resolve(two, TargetAction{Square: sq(t, "e1"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("occupied placement: err = %v, want ErrInvalidAbilityTarget", err)
	}
	if _, err := Resolve(two, TargetAction{Square: sq(t, "c4"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("duplicate placement: err = %v, want ErrInvalidAbilityTarget", err)
	}
	withUpgrade := two.Clone()
	// f4 is file 5, rank 3, grid y 4.
	withUpgrade.Upgrades = []Upgrade{{ID: "u1", X: 5, Y: 4, Kind: shared.UpgradeGhost}}
	if _, err := Resolve(withUpgrade, TargetAction{Square: sq(t, "f4"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("placement on upgrade: err = %v, want ErrInvalidAbilityTarget", err)
	}

	done := mustResolve(t, two, TargetAction{Square: sq(t, "e4"), At: t0})
	if done.Mode.Pending() {
		t.Fatalf("mode still pending after third placement")
	}
	for _, coord := range []string{"c4", "d4", "e4"} {
		if got := done.Walls[sq(t, coord)]; got != 2 {
			t.Fatalf("wall at %s = %d turns, want 2", coord, got)
		}
	}
	if _, ok := done.Modifiers[sq(t, "c1")]; ok {
		t.Fatalf("builder modifier not consumed")
	}
	if done.Turn() != shared.Black {
		t.Fatalf("turn = %v, want black after walls commit", done.Turn())
	}
	if len(done.History) != 1 || !strings.Contains(done.History[0].Text, "raises walls") {
		t.Fatalf("history = %+v", done.History)
	}
}

func TestWallDecayCadence(t *testing.T) {
	st := newTestGame()
	st.Walls = map[shared.Square]int{
		sq(t, "c4"): 2,
		sq(t, "d4"): 1,
	}
	st.decayWalls()
	if got := st.Walls[sq(t, "c4")]; got != 1 {
		t.Fatalf("c4 wall = %d, want 1", got)
	}
	if _, ok := st.Walls[sq(t, "d4")]; ok {
		t.Fatalf("expired wall still present")
	}
	st.decayWalls()
	if len(st.Walls) != 0 {
		t.Fatalf("walls = %v, want all expired", st.Walls)
	}
}

func TestFireRequiresOwnModifierPiece(t *testing.T) {
	st := newTestGame()
	// No modifier at all.
	if _, err := Resolve(st, FireAction{Square: sq(t, "b1"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("fire without modifier: err = %v, want ErrInvalidAbilityTarget", err)
	}
	// Modifier on an enemy piece.
	st.Modifiers[sq(t, "b8")] = Modifier{Kind: shared.UpgradeSniper, ActiveTurn: shared.Black}
	if _, err := Resolve(st, FireAction{Square: sq(t, "b8"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("fire on enemy piece: err = %v, want ErrInvalidAbilityTarget", err)
	}
	// Passive modifiers have no fire mode.
	st.Modifiers[sq(t, "c1")] = Modifier{Kind: shared.UpgradeGhost, ActiveTurn: shared.White}
	if _, err := Resolve(st, FireAction{Square: sq(t, "c1"), At: t0}); !errors.Is(err, ErrInvalidAbilityTarget) {
		t.Fatalf("fire on passive modifier: err = %v, want ErrInvalidAbilityTarget", err)
	}
}
