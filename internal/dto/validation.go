package dto

type SecureActionRequest struct {
	SessionID         string            `json:"sessionId"`
	PermissionToken   string            `json:"permissionToken"`
	GameData          GameData          `json:"gameData"`
	DeviceFingerprint DeviceFingerprint `json:"deviceFingerprint"`
	Timestamp         int64             `json:"timestamp"`
}

type SecureActionResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message,omitempty"`
	ServerVerification string `json:"serverVerification,omitempty"`
	Reason             string `json:"reason,omitempty"`
	CheatProbability   int    `json:"cheatProbability,omitempty"`
}

type RealTimeValidationRequest struct {
	SessionID       string  `json:"sessionId"`
	CurrentScore    int     `json:"currentScore"`
	RemainingHearts int     `json:"remainingHearts"`
	ItemsHit        int     `json:"itemsHit"`
	BombsHit        int     `json:"bombsHit"`
	GameTimeSeconds float64 `json:"gameTimeSeconds"`
	Timestamp       int64   `json:"timestamp"`
}

type RealTimeValidationResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	TrustScore       int    `json:"trustScore"`
	Reason           string `json:"reason,omitempty"`
	CheatProbability int    `json:"cheatProbability,omitempty"`
	Action           string `json:"action,omitempty"`
	Timestamp        int64  `json:"timestamp,omitempty"`
}
