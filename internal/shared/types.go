// Package shared holds the value types the engine, store, and HTTP layer exchange.
package shared

import (
	"fmt"
	"strings"
)

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Token is the single-letter form used in room documents and FEN.
func (c Color) Token() string {
	if c == White {
		return "w"
	}
	return "b"
}

func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return White, true
	case "b", "black":
		return Black, true
	default:
		return 0, false
	}
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.Token()), nil }

func (c *Color) UnmarshalText(text []byte) error {
	parsed, ok := ParseColor(string(text))
	if !ok {
		return fmt.Errorf("invalid color %q", string(text))
	}
	*c = parsed
	return nil
}

type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

func (p PieceType) String() string {
	switch p {
	case Pawn:
		return "P"
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return fmt.Sprintf("piece(%d)", p)
	}
}

// Value is the standard material value used by the spawn weighting.
func (p PieceType) Value() int {
	switch p {
	case Queen:
		return 9
	case Rook:
		return 5
	case Bishop, Knight:
		return 3
	case Pawn:
		return 1
	default:
		return 0
	}
}

// Square is a board coordinate encoded as rank*8+file, a1=0 .. h8=63.
// This matches the ordinal layout of notnil/chess squares.
type Square uint8

func (s Square) Rank() int { return int(s) >> 3 }
func (s Square) File() int { return int(s) & 7 }

// X and Y are the grid coordinates used by upgrade entities: x is the file,
// y counts rows from black's back rank, so y=0 is rank 8.
func (s Square) X() int { return s.File() }
func (s Square) Y() int { return 7 - s.Rank() }

func (s Square) String() string {
	file := byte('a' + s.File())
	rank := byte('1' + s.Rank())
	return string([]byte{file, rank})
}

func SquareFromCoords(rank, file int) (Square, bool) {
	if rank < 0 || rank > 7 || file < 0 || file > 7 {
		return 0, false
	}
	return Square(rank*8 + file), true
}

func SquareFromXY(x, y int) (Square, bool) {
	return SquareFromCoords(7-y, x)
}

func CoordToSquare(coord string) (Square, bool) {
	if len(coord) != 2 {
		return 0, false
	}
	file := coord[0]
	rank := coord[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return 0, false
	}
	r := int(rank - '1')
	c := int(file - 'a')
	return Square(r*8 + c), true
}

func (s Square) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Square) UnmarshalText(text []byte) error {
	sq, ok := CoordToSquare(strings.ToLower(strings.TrimSpace(string(text))))
	if !ok {
		return fmt.Errorf("invalid square %q", string(text))
	}
	*s = sq
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Manhattan is the file+rank distance between two squares.
func Manhattan(a, b Square) int {
	return abs(a.File()-b.File()) + abs(a.Rank()-b.Rank())
}

// Chebyshev is the king-move distance between two squares.
func Chebyshev(a, b Square) int {
	df := abs(a.File() - b.File())
	dr := abs(a.Rank() - b.Rank())
	if df > dr {
		return df
	}
	return dr
}

// UpgradeKind identifies a pickup ability.
type UpgradeKind uint8

const (
	UpgradeSwap UpgradeKind = iota
	UpgradeSniper
	UpgradeBuilder
	UpgradeGhost
	UpgradeDoubleMove
	UpgradeNecromancer
	UpgradeMartyrdom
	UpgradeTimeAdd
	UpgradeTimeSub
	UpgradeHiddenMove
)

// AllUpgradeKinds is the full pool the spawner draws from.
var AllUpgradeKinds = []UpgradeKind{
	UpgradeSwap,
	UpgradeSniper,
	UpgradeBuilder,
	UpgradeGhost,
	UpgradeDoubleMove,
	UpgradeNecromancer,
	UpgradeMartyrdom,
	UpgradeTimeAdd,
	UpgradeTimeSub,
	UpgradeHiddenMove,
}

func (k UpgradeKind) String() string {
	switch k {
	case UpgradeSwap:
		return "swap"
	case UpgradeSniper:
		return "sniper"
	case UpgradeBuilder:
		return "builder"
	case UpgradeGhost:
		return "ghost"
	case UpgradeDoubleMove:
		return "double_move"
	case UpgradeNecromancer:
		return "necromancer"
	case UpgradeMartyrdom:
		return "martyrdom"
	case UpgradeTimeAdd:
		return "time_add"
	case UpgradeTimeSub:
		return "time_sub"
	case UpgradeHiddenMove:
		return "hidden_move"
	default:
		return fmt.Sprintf("upgrade(%d)", k)
	}
}

func ParseUpgradeKind(s string) (UpgradeKind, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllUpgradeKinds {
		if k.String() == needle {
			return k, true
		}
	}
	return 0, false
}

func (k UpgradeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *UpgradeKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseUpgradeKind(string(text))
	if !ok {
		return fmt.Errorf("invalid upgrade kind %q", string(text))
	}
	*k = parsed
	return nil
}

func UpgradeKindStrings() []string {
	out := make([]string, 0, len(AllUpgradeKinds))
	for _, k := range AllUpgradeKinds {
		out = append(out, k.String())
	}
	return out
}
