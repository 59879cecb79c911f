package board

import "github.com/fishyfrenzy/GlitchChess/internal/shared"

type moveDelta struct {
	dr int
	df int
}

var (
	rookDirections = [...]moveDelta{
		{dr: 1, df: 0},
		{dr: -1, df: 0},
		{dr: 0, df: 1},
		{dr: 0, df: -1},
	}
	bishopDirections = [...]moveDelta{
		{dr: 1, df: 1},
		{dr: 1, df: -1},
		{dr: -1, df: 1},
		{dr: -1, df: -1},
	}
	knightOffsets = [...]moveDelta{
		{dr: 2, df: 1},
		{dr: 1, df: 2},
		{dr: -1, df: 2},
		{dr: -2, df: 1},
		{dr: -2, df: -1},
		{dr: -1, df: -2},
		{dr: 1, df: -2},
		{dr: 2, df: -1},
	}
	kingOffsets = [...]moveDelta{
		{dr: 1, df: 0}, {dr: 1, df: 1}, {dr: 0, df: 1}, {dr: -1, df: 1},
		{dr: -1, df: 0}, {dr: -1, df: -1}, {dr: 0, df: -1}, {dr: 1, df: -1},
	}
)

// GhostReachable reports whether the piece on from could reach to if every
// non-king piece between them were absent. This is the legality rule for
// ghost moves: only the movement pattern counts, intervening pieces and
// walls do not, except that kings always block the path. The destination
// must not hold a friendly piece.
func (p Position) GhostReachable(from, to shared.Square) bool {
	pc, ok := p.Get(from)
	if !ok || from == to {
		return false
	}
	if dest, occupied := p.Get(to); occupied && dest.Color == pc.Color {
		return false
	}

	dr := to.Rank() - from.Rank()
	df := to.File() - from.File()

	switch pc.Type {
	case shared.Knight:
		for _, d := range knightOffsets {
			if d.dr == dr && d.df == df {
				return true
			}
		}
		return false
	case shared.King:
		for _, d := range kingOffsets {
			if d.dr == dr && d.df == df {
				return true
			}
		}
		return false
	case shared.Rook:
		return onRay(dr, df, rookDirections[:]) && !p.kingOnPath(from, to)
	case shared.Bishop:
		return onRay(dr, df, bishopDirections[:]) && !p.kingOnPath(from, to)
	case shared.Queen:
		if !onRay(dr, df, rookDirections[:]) && !onRay(dr, df, bishopDirections[:]) {
			return false
		}
		return !p.kingOnPath(from, to)
	case shared.Pawn:
		return p.ghostPawnReachable(pc, from, to, dr, df)
	default:
		return false
	}
}

// kingOnPath reports whether any square strictly between from and to holds
// a king. Assumes the two squares share a rank, file or diagonal.
func (p Position) kingOnPath(from, to shared.Square) bool {
	dr := sign(to.Rank() - from.Rank())
	df := sign(to.File() - from.File())
	r, f := from.Rank()+dr, from.File()+df
	for r != to.Rank() || f != to.File() {
		sq, ok := shared.SquareFromCoords(r, f)
		if !ok {
			return false
		}
		if pc, occupied := p.Get(sq); occupied && pc.Type == shared.King {
			return true
		}
		r += dr
		f += df
	}
	return false
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func onRay(dr, df int, directions []moveDelta) bool {
	for _, d := range directions {
		for step := 1; step <= 7; step++ {
			if d.dr*step == dr && d.df*step == df {
				return true
			}
		}
	}
	return false
}

func (p Position) ghostPawnReachable(pc Piece, from, to shared.Square, dr, df int) bool {
	dir := 1
	startRank := 1
	if pc.Color == shared.Black {
		dir = -1
		startRank = 6
	}
	_, destOccupied := p.Get(to)
	if df == 0 && !destOccupied {
		if dr == dir {
			return true
		}
		return dr == 2*dir && from.Rank() == startRank && !p.kingOnPath(from, to)
	}
	// Diagonal steps stay capture-only even for ghosts.
	if (df == 1 || df == -1) && dr == dir {
		return destOccupied
	}
	return false
}
