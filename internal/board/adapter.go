// Package board wraps the notnil/chess rules engine behind a value-type
// position that also supports the board surgery the augmented rules need
// (arbitrary put/remove, turn control, FEN round-trips).
package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var ErrIllegalMove = errors.New("illegal move")

// Piece is a colored piece on a square.
type Piece struct {
	Color shared.Color
	Type  shared.PieceType
}

// Placed is a piece together with its square, for board scans.
type Placed struct {
	Square shared.Square
	Piece  Piece
}

// Position owns the canonical FEN-derived board plus the turn token.
// It is a value type; every mutation returns a new Position.
type Position struct {
	grid      [64]Piece
	occ       [64]bool
	turn      shared.Color
	castling  string
	enPassant string
	halfmove  int
	fullmove  int
}

// Start returns the standard starting position.
func Start() Position {
	pos, err := Load(StartFEN)
	if err != nil {
		panic(err) // the constant is well formed
	}
	return pos
}

// Load parses a FEN string into a Position.
func Load(fen string) (Position, error) {
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) < 4 {
		return Position{}, fmt.Errorf("malformed fen %q", fen)
	}
	var pos Position
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Position{}, fmt.Errorf("malformed fen placement %q", fields[0])
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for _, r := range row {
			if r >= '1' && r <= '8' {
				file += int(r - '0')
				continue
			}
			pc, ok := pieceFromFENRune(r)
			if !ok || file > 7 {
				return Position{}, fmt.Errorf("malformed fen placement %q", fields[0])
			}
			sq := shared.Square(rank*8 + file)
			pos.grid[sq] = pc
			pos.occ[sq] = true
			file++
		}
		if file != 8 {
			return Position{}, fmt.Errorf("malformed fen rank %q", row)
		}
	}
	turn, ok := shared.ParseColor(fields[1])
	if !ok {
		return Position{}, fmt.Errorf("malformed fen turn %q", fields[1])
	}
	pos.turn = turn
	pos.castling = fields[2]
	pos.enPassant = fields[3]
	pos.halfmove = 0
	pos.fullmove = 1
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[4]); err == nil {
			pos.halfmove = n
		}
		if n, err := strconv.Atoi(fields[5]); err == nil {
			pos.fullmove = n
		}
	}
	return pos, nil
}

// FEN renders the position back to a FEN string. Castling rights are
// sanitized against actual king/rook placement so surgery cannot leave
// the string claiming rights the library would trip over.
func (p Position) FEN() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := shared.Square(rank*8 + file)
			if !p.occ[sq] {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(p.grid[sq].fenByte())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}
	b.WriteByte(' ')
	b.WriteString(p.turn.Token())
	b.WriteByte(' ')
	b.WriteString(p.sanitizedCastling())
	b.WriteByte(' ')
	if p.enPassant == "" {
		b.WriteByte('-')
	} else {
		b.WriteString(p.enPassant)
	}
	fmt.Fprintf(&b, " %d %d", p.halfmove, p.fullmove)
	return b.String()
}

// Turn returns the side to move.
func (p Position) Turn() shared.Color { return p.turn }

// WithTurn returns the position with the turn token replaced. Abilities
// that rewrite turn ownership go through here rather than through a move.
func (p Position) WithTurn(c shared.Color) Position {
	p.turn = c
	return p
}

// Get returns the piece on sq, if any.
func (p Position) Get(sq shared.Square) (Piece, bool) {
	return p.grid[sq], p.occ[sq]
}

// Put places a piece, replacing any occupant.
func (p Position) Put(sq shared.Square, pc Piece) Position {
	p.grid[sq] = pc
	p.occ[sq] = true
	return p
}

// Remove clears a square.
func (p Position) Remove(sq shared.Square) Position {
	p.grid[sq] = Piece{}
	p.occ[sq] = false
	return p
}

// Pieces lists every occupied square in board order.
func (p Position) Pieces() []Placed {
	out := make([]Placed, 0, 32)
	for sq := 0; sq < 64; sq++ {
		if p.occ[sq] {
			out = append(out, Placed{Square: shared.Square(sq), Piece: p.grid[sq]})
		}
	}
	return out
}

// King returns the square of a side's king.
func (p Position) King(c shared.Color) (shared.Square, bool) {
	for sq := 0; sq < 64; sq++ {
		if p.occ[sq] && p.grid[sq].Color == c && p.grid[sq].Type == shared.King {
			return shared.Square(sq), true
		}
	}
	return 0, false
}

// MoveResult reports the outcome of a successful standard move.
type MoveResult struct {
	Position       Position
	Captured       bool
	CapturedPiece  Piece
	CapturedSquare shared.Square
	Checkmate      bool
}

// TryMove validates from→to against orthodox rules and applies it.
// Promotion always resolves to a queen. Returns ErrIllegalMove when the
// rules engine rejects the move.
func (p Position) TryMove(from, to shared.Square) (MoveResult, error) {
	game, err := p.load()
	if err != nil {
		return MoveResult{}, err
	}
	var chosen *chess.Move
	for _, mv := range game.ValidMoves() {
		if mv.S1() != chess.Square(from) || mv.S2() != chess.Square(to) {
			continue
		}
		if mv.Promo() != chess.NoPieceType && mv.Promo() != chess.Queen {
			continue
		}
		chosen = mv
		break
	}
	if chosen == nil {
		return MoveResult{}, ErrIllegalMove
	}

	res := MoveResult{}
	if chosen.HasTag(chess.EnPassant) {
		victimSq, ok := shared.SquareFromCoords(from.Rank(), to.File())
		if ok {
			res.Captured = true
			res.CapturedSquare = victimSq
			res.CapturedPiece, _ = p.Get(victimSq)
		}
	} else if victim, ok := p.Get(to); ok {
		res.Captured = true
		res.CapturedSquare = to
		res.CapturedPiece = victim
	}

	if err := game.Move(chosen); err != nil {
		return MoveResult{}, ErrIllegalMove
	}
	next, err := Load(game.Position().String())
	if err != nil {
		return MoveResult{}, fmt.Errorf("reload after move: %w", err)
	}
	res.Position = next
	res.Checkmate = game.Position().Status() == chess.Checkmate
	return res, nil
}

// IsCheckmate reports whether the side to move is checkmated.
func (p Position) IsCheckmate() bool {
	game, err := p.load()
	if err != nil {
		return false
	}
	return game.Position().Status() == chess.Checkmate
}

func (p Position) load() (*chess.Game, error) {
	opt, err := chess.FEN(p.FEN())
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}
	return chess.NewGame(opt), nil
}

func (p Position) sanitizedCastling() string {
	raw := p.castling
	if raw == "" || raw == "-" {
		return "-"
	}
	home := func(sq shared.Square, c shared.Color, t shared.PieceType) bool {
		pc, ok := p.Get(sq)
		return ok && pc.Color == c && pc.Type == t
	}
	var b strings.Builder
	for _, r := range raw {
		keep := false
		switch r {
		case 'K':
			keep = home(4, shared.White, shared.King) && home(7, shared.White, shared.Rook)
		case 'Q':
			keep = home(4, shared.White, shared.King) && home(0, shared.White, shared.Rook)
		case 'k':
			keep = home(60, shared.Black, shared.King) && home(63, shared.Black, shared.Rook)
		case 'q':
			keep = home(60, shared.Black, shared.King) && home(56, shared.Black, shared.Rook)
		}
		if keep {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func (pc Piece) fenByte() byte {
	var b byte
	switch pc.Type {
	case shared.Pawn:
		b = 'p'
	case shared.Knight:
		b = 'n'
	case shared.Bishop:
		b = 'b'
	case shared.Rook:
		b = 'r'
	case shared.Queen:
		b = 'q'
	case shared.King:
		b = 'k'
	}
	if pc.Color == shared.White {
		b -= 'a' - 'A'
	}
	return b
}

func pieceFromFENRune(r rune) (Piece, bool) {
	color := shared.Black
	if r >= 'A' && r <= 'Z' {
		color = shared.White
		r += 'a' - 'A'
	}
	var t shared.PieceType
	switch r {
	case 'p':
		t = shared.Pawn
	case 'n':
		t = shared.Knight
	case 'b':
		t = shared.Bishop
	case 'r':
		t = shared.Rook
	case 'q':
		t = shared.Queen
	case 'k':
		t = shared.King
	default:
		return Piece{}, false
	}
	return Piece{Color: color, Type: t}, true
}
