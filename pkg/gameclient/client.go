// Package gameclient is the HTTP client for the game validation API. It
// holds the session identity, the device fingerprint, and the most recent
// permission token, and implements guard.Backend so the detector set can
// drive it directly.
package gameclient

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"wizardguard/pkg/guard"
)

const defaultBaseURL = "http://localhost:5117/api/game"

// Fingerprint describes the device the way the game layer observes it.
type Fingerprint struct {
	UserAgent         string
	ScreenWidth       int
	ScreenHeight      int
	TimezoneOffset    int
	CanvasFingerprint string
	WebGLFingerprint  string
}

// Options configures a Client. Zero values take defaults.
type Options struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	// SessionID identifies this play session. Generated when empty.
	SessionID string

	// Fingerprint is sent on permission and secure-action requests.
	Fingerprint Fingerprint

	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// Client talks to the validation server. Safe for concurrent use.
type Client struct {
	baseURL     string
	sessionID   string
	fingerprint Fingerprint
	http        *http.Client

	mu    sync.Mutex
	token string
}

var _ guard.Backend = (*Client)(nil)

// New builds a Client from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = newSessionID()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:     base,
		sessionID:   sessionID,
		fingerprint: opts.Fingerprint,
		http:        httpClient,
	}
}

// SessionID returns the session identifier sent on every request.
func (c *Client) SessionID() string { return c.sessionID }

// Token returns the permission token from the most recent grant, or "".
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

type gameDataPayload struct {
	Score    int   `json:"score"`
	Hearts   int   `json:"hearts"`
	ItemsHit int   `json:"itemsHit"`
	BombsHit int   `json:"bombsHit"`
	GameTime int64 `json:"gameTime"`
}

type screenResolutionPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type fingerprintPayload struct {
	UserAgent         string                  `json:"userAgent"`
	ScreenResolution  screenResolutionPayload `json:"screenResolution"`
	TimezoneOffset    int                     `json:"timezoneOffset"`
	CanvasFingerprint string                  `json:"canvasFingerprint"`
	WebGLFingerprint  string                  `json:"webGLFingerprint"`
}

type permissionRequest struct {
	SessionID         string             `json:"sessionId"`
	GameData          gameDataPayload    `json:"gameData"`
	DeviceFingerprint fingerprintPayload `json:"deviceFingerprint"`
	Timestamp         int64              `json:"timestamp"`
}

type permissionResponse struct {
	Success         bool   `json:"success"`
	PermissionToken string `json:"permissionToken"`
	DeviceChallenge string `json:"deviceChallenge"`
	ExpiresIn       int    `json:"expiresIn"`
	Reason          string `json:"reason"`
}

type secureActionRequest struct {
	SessionID         string             `json:"sessionId"`
	PermissionToken   string             `json:"permissionToken"`
	GameData          gameDataPayload    `json:"gameData"`
	DeviceFingerprint fingerprintPayload `json:"deviceFingerprint"`
	Timestamp         int64              `json:"timestamp"`
}

type secureActionResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	ServerVerification string `json:"serverVerification"`
	Reason             string `json:"reason"`
	CheatProbability   int    `json:"cheatProbability"`
}

type realTimeRequest struct {
	SessionID       string  `json:"sessionId"`
	CurrentScore    int     `json:"currentScore"`
	RemainingHearts int     `json:"remainingHearts"`
	ItemsHit        int     `json:"itemsHit"`
	BombsHit        int     `json:"bombsHit"`
	GameTimeSeconds float64 `json:"gameTimeSeconds"`
	Timestamp       int64   `json:"timestamp"`
}

type realTimeResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	TrustScore       int    `json:"trustScore"`
	Reason           string `json:"reason"`
	CheatProbability int    `json:"cheatProbability"`
	Action           string `json:"action"`
}

type activityRequest struct {
	SessionID     string `json:"sessionId"`
	ActivityType  string `json:"activityType"`
	Details       string `json:"details"`
	SeverityLevel int    `json:"severityLevel"`
	Timestamp     int64  `json:"timestamp"`
}

type activityResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Action           string `json:"action"`
	CheatProbability int    `json:"cheatProbability"`
}

// RequestDevicePermission asks the server for a fresh device-bound token and
// stores it for the next secure-action call.
func (c *Client) RequestDevicePermission(ctx context.Context, s guard.Snapshot) error {
	req := permissionRequest{
		SessionID:         c.sessionID,
		GameData:          gameData(s),
		DeviceFingerprint: c.fingerprintPayload(),
		Timestamp:         time.Now().UnixMilli(),
	}
	var resp permissionResponse
	if err := c.post(ctx, "/request-device-permission", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("permission denied: %s", resp.Reason)
	}
	c.mu.Lock()
	c.token = resp.PermissionToken
	c.mu.Unlock()
	return nil
}

// ValidateSecureAction submits the current state under the stored permission
// token. The token is single use; the caller requests a new one per cycle.
func (c *Client) ValidateSecureAction(ctx context.Context, s guard.Snapshot) (guard.ServerVerdict, error) {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()

	req := secureActionRequest{
		SessionID:         c.sessionID,
		PermissionToken:   token,
		GameData:          gameData(s),
		DeviceFingerprint: c.fingerprintPayload(),
		Timestamp:         time.Now().UnixMilli(),
	}
	var resp secureActionResponse
	if err := c.post(ctx, "/validate-secure-action", req, &resp); err != nil {
		return guard.ServerVerdict{}, err
	}
	return guard.ServerVerdict{
		Success:          resp.Success,
		Reason:           resp.Reason,
		CheatProbability: resp.CheatProbability,
	}, nil
}

// ValidateRealTime submits the current state for trust validation.
func (c *Client) ValidateRealTime(ctx context.Context, s guard.Snapshot) (guard.ServerVerdict, error) {
	req := realTimeRequest{
		SessionID:       c.sessionID,
		CurrentScore:    s.Score,
		RemainingHearts: s.Hearts,
		ItemsHit:        s.ItemsHit,
		BombsHit:        s.BombsHit,
		GameTimeSeconds: s.Elapsed.Seconds(),
		Timestamp:       time.Now().UnixMilli(),
	}
	var resp realTimeResponse
	if err := c.post(ctx, "/real-time-validation", req, &resp); err != nil {
		return guard.ServerVerdict{}, err
	}
	return guard.ServerVerdict{
		Success:          resp.Success,
		TrustScore:       resp.TrustScore,
		Reason:           resp.Reason,
		CheatProbability: resp.CheatProbability,
		Action:           resp.Action,
	}, nil
}

// ReportActivity reports a suspicious activity and returns the server's
// classification.
func (c *Client) ReportActivity(ctx context.Context, activityType, details string, severity int) (guard.ActivityResponse, error) {
	req := activityRequest{
		SessionID:     c.sessionID,
		ActivityType:  activityType,
		Details:       details,
		SeverityLevel: severity,
		Timestamp:     time.Now().UnixMilli(),
	}
	var resp activityResponse
	if err := c.post(ctx, "/report-suspicious-activity", req, &resp); err != nil {
		return guard.ActivityResponse{}, err
	}
	return guard.ActivityResponse{
		Success:          resp.Success,
		Message:          resp.Message,
		Action:           resp.Action,
		CheatProbability: resp.CheatProbability,
	}, nil
}

// ReportArrowShot notifies the server of a projectile shot.
func (c *Client) ReportArrowShot(ctx context.Context, velocityX, velocityY float64) error {
	req := struct {
		VelocityX float64 `json:"velocityX"`
		VelocityY float64 `json:"velocityY"`
		SessionID string  `json:"sessionId"`
	}{velocityX, velocityY, c.sessionID}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/arrow-shot", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("arrow shot rejected: %s", resp.Message)
	}
	return nil
}

// ReportItemHit records an item pickup and reports whether it wins the game.
func (c *Client) ReportItemHit(ctx context.Context, newScore int) (isVictory bool, err error) {
	req := struct {
		NewScore  int    `json:"newScore"`
		SessionID string `json:"sessionId"`
	}{newScore, c.sessionID}
	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		IsVictory bool   `json:"isVictory"`
	}
	if err := c.post(ctx, "/item-hit", req, &resp); err != nil {
		return false, err
	}
	if !resp.Success {
		return false, fmt.Errorf("item hit rejected: %s", resp.Message)
	}
	return resp.IsVictory, nil
}

// ReportBombHit records a bomb hit and reports whether the game is over.
func (c *Client) ReportBombHit(ctx context.Context, remainingHearts int) (isGameOver bool, err error) {
	req := struct {
		RemainingHearts int    `json:"remainingHearts"`
		SessionID       string `json:"sessionId"`
	}{remainingHearts, c.sessionID}
	var resp struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		IsGameOver bool   `json:"isGameOver"`
	}
	if err := c.post(ctx, "/bomb-hit", req, &resp); err != nil {
		return false, err
	}
	if !resp.Success {
		return false, fmt.Errorf("bomb hit rejected: %s", resp.Message)
	}
	return resp.IsGameOver, nil
}

// GameConfig is the server's static game configuration.
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

// FetchConfig retrieves the game configuration.
func (c *Client) FetchConfig(ctx context.Context) (GameConfig, error) {
	var cfg GameConfig
	if err := c.get(ctx, "/config", &cfg); err != nil {
		return GameConfig{}, err
	}
	return cfg, nil
}

func (c *Client) fingerprintPayload() fingerprintPayload {
	return fingerprintPayload{
		UserAgent: c.fingerprint.UserAgent,
		ScreenResolution: screenResolutionPayload{
			Width:  c.fingerprint.ScreenWidth,
			Height: c.fingerprint.ScreenHeight,
		},
		TimezoneOffset:    c.fingerprint.TimezoneOffset,
		CanvasFingerprint: c.fingerprint.CanvasFingerprint,
		WebGLFingerprint:  c.fingerprint.WebGLFingerprint,
	}
}

func gameData(s guard.Snapshot) gameDataPayload {
	return gameDataPayload{
		Score:    s.Score,
		Hearts:   s.Hearts,
		ItemsHit: s.ItemsHit,
		BombsHit: s.BombsHit,
		GameTime: s.Elapsed.Milliseconds(),
	}
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		if len(data) == 0 {
			data = []byte(resp.Status)
		}
		return fmt.Errorf("%s: %s", req.URL.Path, strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func newSessionID() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("wizard_%d_0000000000", time.Now().UnixMilli())
	}
	return fmt.Sprintf("wizard_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
