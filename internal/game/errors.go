package game

import "errors"

var (
	// ErrInvalidMove covers moves rejected by orthodox rules or blocked by a wall.
	ErrInvalidMove = errors.New("invalid move")
	// ErrInvalidAbilityTarget covers wrong ability-mode targets: sniper out of
	// range, swap onto a non-friendly square, wall on an occupied square.
	ErrInvalidAbilityTarget = errors.New("invalid ability target")
	// ErrOutOfTime rejects actions from a side whose clock is exhausted.
	ErrOutOfTime = errors.New("out of time")
	// ErrNoSpawnSpace is non-fatal: the spawner found no free square and the
	// board simply carries fewer than two upgrades.
	ErrNoSpawnSpace = errors.New("no spawn space")
	// ErrGameOver rejects actions once a winner is decided.
	ErrGameOver = errors.New("game over")
)
