package game

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/fishyfrenzy/GlitchChess/internal/shared"
)

const (
	spawnTargetCount = 2
	// losingThreshold is the material gap, in pawns, at which the spawn
	// pool starts favoring the losing side's half of the board.
	losingThreshold = 3
	losingSideWeight = 10

	spawnStreamSalt = 0x9e3779b97f4a7c15
)

// runSpawner is the end-of-turn pass: existing upgrades flee the strongest
// pieces, then new ones spawn until two exist. Returns ErrNoSpawnSpace when
// the board has no free square left; the shortfall is tolerated.
func (g *GameState) runSpawner() error {
	rng := rand.New(rand.NewPCG(g.Seed, spawnStreamSalt))
	g.relocateUpgrades()
	err := g.spawnUpgrades(rng)
	g.Seed = rng.Uint64()
	return err
}

var cowardSteps = [...]struct{ dx, dy int }{
	{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

// relocateUpgrades moves each upgrade to whichever of its orthogonal
// neighbors (or its own square) lies farthest, by summed Manhattan
// distance, from every piece of maximum value on the board. Ties keep the
// earlier candidate, so a local maximum never moves.
func (g *GameState) relocateUpgrades() {
	maxSquares := g.maxValueSquares()
	if len(maxSquares) == 0 {
		return
	}
	for i := range g.Upgrades {
		u := g.Upgrades[i]
		cur, ok := u.Square()
		if !ok {
			continue
		}
		best := cur
		bestScore := -1
		found := false
		for _, step := range cowardSteps {
			sq, ok := shared.SquareFromXY(u.X+step.dx, u.Y+step.dy)
			if !ok {
				continue
			}
			if _, occupied := g.Position.Get(sq); occupied {
				continue
			}
			if idx, taken := g.UpgradeAt(sq); taken && idx != i {
				continue
			}
			score := 0
			for _, ms := range maxSquares {
				score += shared.Manhattan(sq, ms)
			}
			if score > bestScore {
				bestScore = score
				best = sq
				found = true
			}
		}
		if found && best != cur {
			u.X = best.X()
			u.Y = best.Y()
			g.Upgrades[i] = u
		}
	}
}

func (g *GameState) maxValueSquares() []shared.Square {
	maxValue := -1
	var out []shared.Square
	for _, placed := range g.Position.Pieces() {
		v := placed.Piece.Type.Value()
		if v > maxValue {
			maxValue = v
			out = out[:0]
		}
		if v == maxValue {
			out = append(out, placed.Square)
		}
	}
	return out
}

// spawnUpgrades draws squares until two upgrades exist. When one side is
// down three or more points of material its half of the board gets 10x
// representation in the pool: the comeback mechanic.
func (g *GameState) spawnUpgrades(rng *rand.Rand) error {
	for len(g.Upgrades) < spawnTargetCount {
		empties := g.emptySquares()
		if len(empties) == 0 {
			return ErrNoSpawnSpace
		}
		diff := g.materialScore(shared.White) - g.materialScore(shared.Black)
		pool := make([]shared.Square, 0, len(empties))
		for _, sq := range empties {
			weight := 1
			switch {
			case diff <= -losingThreshold && sq.Y() >= 4:
				weight = losingSideWeight // white losing badly: white half
			case diff >= losingThreshold && sq.Y() <= 3:
				weight = losingSideWeight // black losing badly: black half
			}
			for n := 0; n < weight; n++ {
				pool = append(pool, sq)
			}
		}
		sq := pool[rng.IntN(len(pool))]
		kind := shared.AllUpgradeKinds[rng.IntN(len(shared.AllUpgradeKinds))]
		g.Upgrades = append(g.Upgrades, Upgrade{
			ID:   newUpgradeID(rng),
			X:    sq.X(),
			Y:    sq.Y(),
			Kind: kind,
		})
	}
	return nil
}

func (g *GameState) emptySquares() []shared.Square {
	out := make([]shared.Square, 0, 32)
	for sq := shared.Square(0); sq < 64; sq++ {
		if _, occupied := g.Position.Get(sq); occupied {
			continue
		}
		if _, taken := g.UpgradeAt(sq); taken {
			continue
		}
		out = append(out, sq)
	}
	return out
}

func (g *GameState) materialScore(c shared.Color) int {
	score := 0
	for _, placed := range g.Position.Pieces() {
		if placed.Piece.Color == c {
			score += placed.Piece.Type.Value()
		}
	}
	return score
}

// rngReader adapts the engine's seeded stream for uuid generation so
// upgrade ids stay deterministic per state+action.
type rngReader struct {
	rng *rand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.UintN(256))
	}
	return len(p), nil
}

func newUpgradeID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rngReader{rng: rng})
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}
