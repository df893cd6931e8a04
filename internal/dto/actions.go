package dto

type ArrowShotRequest struct {
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
	SessionID string  `json:"sessionId"`
}

type ArrowShotResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type ItemHitRequest struct {
	NewScore  int    `json:"newScore"`
	SessionID string `json:"sessionId"`
}

type ItemHitResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	NewScore  int    `json:"newScore,omitempty"`
	IsVictory bool   `json:"isVictory"`
}

type BombHitRequest struct {
	RemainingHearts int    `json:"remainingHearts"`
	SessionID       string `json:"sessionId"`
}

type BombHitResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	RemainingHearts int    `json:"remainingHearts"`
	IsGameOver      bool   `json:"isGameOver"`
}

// GameConfig is the static configuration handed to the game layer on boot.
type GameConfig struct {
	MaxHearts         int    `json:"maxHearts"`
	ItemSpawnInterval int    `json:"itemSpawnInterval"`
	BombSpawnInterval int    `json:"bombSpawnInterval"`
	ItemScore         int    `json:"itemScore"`
	VictoryScore      int    `json:"victoryScore"`
	GameWidth         int    `json:"gameWidth"`
	GameHeight        int    `json:"gameHeight"`
	PlayerStartX      int    `json:"playerStartX"`
	PlayerStartY      int    `json:"playerStartY"`
	Message           string `json:"message"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}
