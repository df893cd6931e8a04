package dto

// GameData is the client-reported game state carried on permission and
// secure-action requests. GameTime is elapsed play time in milliseconds.
type GameData struct {
	Score    int   `json:"score"`
	Hearts   int   `json:"hearts"`
	ItemsHit int   `json:"itemsHit"`
	BombsHit int   `json:"bombsHit"`
	GameTime int64 `json:"gameTime"`
}

type ScreenResolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type DeviceFingerprint struct {
	UserAgent         string           `json:"userAgent"`
	ScreenResolution  ScreenResolution `json:"screenResolution"`
	TimezoneOffset    int              `json:"timezoneOffset"`
	CanvasFingerprint string           `json:"canvasFingerprint"`
	WebGLFingerprint  string           `json:"webGLFingerprint"`
}

type PermissionRequest struct {
	SessionID         string            `json:"sessionId"`
	GameData          GameData          `json:"gameData"`
	DeviceFingerprint DeviceFingerprint `json:"deviceFingerprint"`
	Timestamp         int64             `json:"timestamp"`
}

type PermissionResponse struct {
	Success         bool   `json:"success"`
	PermissionToken string `json:"permissionToken,omitempty"`
	DeviceChallenge string `json:"deviceChallenge,omitempty"`
	ExpiresIn       int    `json:"expiresIn,omitempty"`
	ServerTimestamp int64  `json:"serverTimestamp,omitempty"`
	Reason          string `json:"reason,omitempty"`
}
