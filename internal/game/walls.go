package game

// decayWalls ages every wall by one half-move and expires the ones that
// reach zero. Runs once per fully-resolved turn; pending ability turns do
// not decay until they resolve.
func (g *GameState) decayWalls() {
	for sq, life := range g.Walls {
		life--
		if life <= 0 {
			delete(g.Walls, sq)
		} else {
			g.Walls[sq] = life
		}
	}
}
