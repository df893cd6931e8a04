package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"wizardguard/internal/domain"
	"wizardguard/internal/observability/metrics"
	"wizardguard/internal/store"
)

// TokenTTL is the fixed lifetime of a device-bound token.
const TokenTTL = 120 * time.Second

// DeviceBinder derives device identities from fingerprints and issues
// time-boxed single-use tokens bound to (session, device).
type DeviceBinder struct {
	tokens       store.TokenStore
	fingerprints store.FingerprintStore
	sessions     store.SessionStore
	secret       string
	ttl          time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewDeviceBinder wires a binder over the given stores. secret is the
// process-wide master secret used for challenge derivation.
func NewDeviceBinder(tokens store.TokenStore, fingerprints store.FingerprintStore, sessions store.SessionStore, secret string, logger *slog.Logger) *DeviceBinder {
	return &DeviceBinder{
		tokens:       tokens,
		fingerprints: fingerprints,
		sessions:     sessions,
		secret:       secret,
		ttl:          TokenTTL,
		now: func() time.Time {
			return time.Now().UTC()
		},
		logger: logger,
	}
}

// SetTTL overrides the token lifetime. Zero and negative values are ignored.
func (b *DeviceBinder) SetTTL(d time.Duration) {
	if d > 0 {
		b.ttl = d
	}
}

// DeviceID derives the deterministic device identifier for a fingerprint:
// SHA-256 over the ordered concatenation of user agent, WxH resolution,
// timezone offset and the two rendering signatures, truncated to 32 hex
// characters. The same fingerprint always yields the same id.
func DeviceID(fp domain.Fingerprint) string {
	input := fmt.Sprintf("%s:%dx%d:%d:%s:%s",
		fp.UserAgent,
		fp.ScreenResolution.Width, fp.ScreenResolution.Height,
		fp.TimezoneOffset,
		fp.CanvasFingerprint,
		fp.WebGLFingerprint,
	)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:32]
}

// Grant is the result of a successful token issuance.
type Grant struct {
	Token     string
	Challenge string
	DeviceID  string
	ExpiresIn int
}

type tokenPayload struct {
	SessionID string `json:"sessionId"`
	DeviceID  string `json:"deviceId"`
	GameState struct {
		Score     int   `json:"score"`
		Hearts    int   `json:"hearts"`
		Timestamp int64 `json:"timestamp"`
	} `json:"gameState"`
	CreatedAt string `json:"createdAt"`
}

// IssueToken builds the opaque token payload, stores the device-bound token
// with its fixed TTL, refreshes the fingerprint record and ensures the
// session exists. The payload is base64-encoded JSON, not signed; integrity
// comes only from the server-side store lookup.
//
// The returned challenge is issued to the client but never verified on a
// later call. That half of the protocol is intentionally left as-is.
func (b *DeviceBinder) IssueToken(ctx context.Context, sessionID string, state domain.GameStateSnapshot, fp domain.Fingerprint) (*Grant, error) {
	now := b.now()
	deviceID := DeviceID(fp)

	var payload tokenPayload
	payload.SessionID = sessionID
	payload.DeviceID = deviceID
	payload.GameState.Score = state.Score
	payload.GameState.Hearts = state.Hearts
	payload.GameState.Timestamp = now.UnixMilli()
	payload.CreatedAt = now.Format(time.RFC3339Nano)

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode token payload: %w", err)
	}
	token := base64.StdEncoding.EncodeToString(buf)
	challenge := b.challenge(deviceID, sessionID, now)

	if err := b.tokens.Save(&domain.DeviceBoundToken{
		Token:         token,
		SessionID:     sessionID,
		DeviceID:      deviceID,
		ExpectedState: state,
		CreatedAt:     now,
		ExpiresAt:     now.Add(b.ttl),
	}); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	if err := b.fingerprints.Save(ctx, deviceRecord(deviceID, sessionID, fp, now)); err != nil {
		return nil, fmt.Errorf("store fingerprint: %w", err)
	}
	if _, err := b.sessions.GetOrCreate(sessionID, now); err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues("ok").Inc()
	b.logger.Info("device permission granted",
		"session_id", sessionID,
		"device_id", deviceID[:8],
		"expires_in", int(b.ttl.Seconds()),
	)

	return &Grant{
		Token:     token,
		Challenge: challenge,
		DeviceID:  deviceID,
		ExpiresIn: int(b.ttl.Seconds()),
	}, nil
}

// challenge derives the one-time device challenge:
// hash(deviceId:sessionId:monotonic clock:secret) truncated to 16 hex chars.
func (b *DeviceBinder) challenge(deviceID, sessionID string, now time.Time) string {
	input := fmt.Sprintf("%s:%s:%d:%s", deviceID, sessionID, now.UnixNano(), b.secret)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

// deviceRecord builds the stored fingerprint record, with browser, OS and
// device type parsed from the user agent.
func deviceRecord(deviceID, sessionID string, fp domain.Fingerprint, now time.Time) *domain.DeviceRecord {
	parsed := useragent.New(fp.UserAgent)
	browser, version := parsed.Browser()
	if version != "" {
		browser = browser + " " + version
	}
	osInfo := parsed.OSInfo()
	osName := osInfo.Name
	if osInfo.Version != "" {
		osName = osName + " " + osInfo.Version
	}
	deviceType := "desktop"
	if parsed.Mobile() {
		deviceType = "mobile"
	} else if parsed.Bot() {
		deviceType = "bot"
	}

	return &domain.DeviceRecord{
		DeviceID:    deviceID,
		Fingerprint: fp,
		Browser:     browser,
		OS:          osName,
		DeviceType:  deviceType,
		SessionID:   sessionID,
		LastSeen:    now,
	}
}
