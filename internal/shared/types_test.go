package shared

import (
	"encoding/json"
	"testing"
)

func TestSquareCoordinates(t *testing.T) {
	cases := []struct {
		coord      string
		rank, file int
		x, y       int
	}{
		{"a1", 0, 0, 0, 7},
		{"h1", 0, 7, 7, 7},
		{"a8", 7, 0, 0, 0},
		{"h8", 7, 7, 7, 0},
		{"e4", 3, 4, 4, 4},
		{"d5", 4, 3, 3, 3},
	}
	for _, tc := range cases {
		sq, ok := CoordToSquare(tc.coord)
		if !ok {
			t.Fatalf("CoordToSquare(%q) failed", tc.coord)
		}
		if sq.Rank() != tc.rank || sq.File() != tc.file {
			t.Errorf("%s: rank/file = %d/%d, want %d/%d", tc.coord, sq.Rank(), sq.File(), tc.rank, tc.file)
		}
		if sq.X() != tc.x || sq.Y() != tc.y {
			t.Errorf("%s: x/y = %d/%d, want %d/%d", tc.coord, sq.X(), sq.Y(), tc.x, tc.y)
		}
		if sq.String() != tc.coord {
			t.Errorf("%s: String() = %q", tc.coord, sq.String())
		}
		if back, ok := SquareFromXY(tc.x, tc.y); !ok || back != sq {
			t.Errorf("%s: SquareFromXY(%d, %d) = %v, %v", tc.coord, tc.x, tc.y, back, ok)
		}
	}
	for _, bad := range []string{"", "e", "i4", "e9", "e44"} {
		if _, ok := CoordToSquare(bad); ok {
			t.Errorf("CoordToSquare(%q) accepted", bad)
		}
	}
}

func TestDistances(t *testing.T) {
	a, _ := CoordToSquare("d4")
	b, _ := CoordToSquare("g7")
	if got := Manhattan(a, b); got != 6 {
		t.Errorf("Manhattan(d4, g7) = %d, want 6", got)
	}
	if got := Chebyshev(a, b); got != 3 {
		t.Errorf("Chebyshev(d4, g7) = %d, want 3", got)
	}
}

func TestColorParsing(t *testing.T) {
	for in, want := range map[string]Color{"w": White, "white": White, "B": Black, " black ": Black} {
		got, ok := ParseColor(in)
		if !ok || got != want {
			t.Errorf("ParseColor(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseColor("grey"); ok {
		t.Errorf("ParseColor accepted grey")
	}
	if White.Opposite() != Black || Black.Opposite() != White {
		t.Errorf("Opposite broken")
	}
}

func TestUpgradeKindRoundTrip(t *testing.T) {
	for _, k := range AllUpgradeKinds {
		parsed, ok := ParseUpgradeKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseUpgradeKind(%q) = %v, %v", k.String(), parsed, ok)
		}
	}
	if _, ok := ParseUpgradeKind("teleport"); ok {
		t.Errorf("ParseUpgradeKind accepted teleport")
	}
	raw, err := json.Marshal(UpgradeDoubleMove)
	if err != nil || string(raw) != `"double_move"` {
		t.Errorf("marshal = %s, %v", raw, err)
	}
	var k UpgradeKind
	if err := json.Unmarshal([]byte(`"necromancer"`), &k); err != nil || k != UpgradeNecromancer {
		t.Errorf("unmarshal = %v, %v", k, err)
	}
}

func TestPieceValues(t *testing.T) {
	if Queen.Value() != 9 || Rook.Value() != 5 || Bishop.Value() != 3 || Knight.Value() != 3 || Pawn.Value() != 1 || King.Value() != 0 {
		t.Errorf("piece values wrong")
	}
}
