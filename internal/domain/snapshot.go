package domain

// GameStateSnapshot is a point-in-time copy of the game values this pipeline
// consumes. Constructed per validation cycle; never stored beyond the call.
type GameStateSnapshot struct {
	Score          int
	Hearts         int
	ItemsHit       int
	BombsHit       int
	ElapsedSeconds float64
}
