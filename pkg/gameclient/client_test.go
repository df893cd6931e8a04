package gameclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wizardguard/pkg/guard"
)

func newStubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionIDGenerated(t *testing.T) {
	c := New(Options{})
	if !strings.HasPrefix(c.SessionID(), "wizard_") {
		t.Fatalf("session id = %q", c.SessionID())
	}
	other := New(Options{})
	if c.SessionID() == other.SessionID() {
		t.Fatal("two clients share a session id")
	}
}

func TestPermissionStoresToken(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":         true,
			"permissionToken": "tok-123",
			"deviceChallenge": "abcd",
			"expiresIn":       120,
		})
	})

	c := New(Options{
		BaseURL:   srv.URL,
		SessionID: "sess-1",
		Fingerprint: Fingerprint{
			UserAgent:    "test-agent",
			ScreenWidth:  1920,
			ScreenHeight: 1080,
		},
	})

	snap := guard.Snapshot{Score: 40, Hearts: 3, ItemsHit: 4, Elapsed: 30 * time.Second}
	if err := c.RequestDevicePermission(context.Background(), snap); err != nil {
		t.Fatalf("permission: %v", err)
	}
	if gotPath != "/request-device-permission" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["sessionId"] != "sess-1" {
		t.Fatalf("session id in body = %v", gotBody["sessionId"])
	}
	gd, _ := gotBody["gameData"].(map[string]any)
	if gd["gameTime"] != float64(30000) {
		t.Fatalf("gameTime = %v, want milliseconds", gd["gameTime"])
	}
	if c.Token() != "tok-123" {
		t.Fatalf("stored token = %q", c.Token())
	}
}

func TestPermissionDenied(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"reason":  "Permission generation failed",
		})
	})

	c := New(Options{BaseURL: srv.URL})
	err := c.RequestDevicePermission(context.Background(), guard.Snapshot{})
	if err == nil || !strings.Contains(err.Error(), "Permission generation failed") {
		t.Fatalf("err = %v", err)
	}
	if c.Token() != "" {
		t.Fatal("denied permission must not store a token")
	}
}

func TestSecureActionConsumesStoredToken(t *testing.T) {
	var tokens []string
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/request-device-permission" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":         true,
				"permissionToken": "tok-once",
			})
			return
		}
		var body struct {
			PermissionToken string `json:"permissionToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		tokens = append(tokens, body.PermissionToken)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":            true,
			"serverVerification": "deadbeef00112233",
		})
	})

	c := New(Options{BaseURL: srv.URL})
	if err := c.RequestDevicePermission(context.Background(), guard.Snapshot{}); err != nil {
		t.Fatalf("permission: %v", err)
	}

	verdict, err := c.ValidateSecureAction(context.Background(), guard.Snapshot{})
	if err != nil {
		t.Fatalf("secure action: %v", err)
	}
	if !verdict.Success {
		t.Fatalf("verdict = %+v", verdict)
	}

	// The token is single use; the second call goes out empty-handed.
	if _, err := c.ValidateSecureAction(context.Background(), guard.Snapshot{}); err != nil {
		t.Fatalf("secure action: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "tok-once" || tokens[1] != "" {
		t.Fatalf("tokens sent = %v", tokens)
	}
}

func TestValidateRealTimeMapsVerdict(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameTimeSeconds float64 `json:"gameTimeSeconds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.GameTimeSeconds != 45 {
			t.Errorf("gameTimeSeconds = %v", body.GameTimeSeconds)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":          false,
			"reason":           "Score too fast",
			"cheatProbability": 95,
			"action":           "terminate_session",
		})
	})

	c := New(Options{BaseURL: srv.URL})
	verdict, err := c.ValidateRealTime(context.Background(), guard.Snapshot{Score: 1000, Elapsed: 45 * time.Second})
	if err != nil {
		t.Fatalf("real time: %v", err)
	}
	if verdict.Success || verdict.Reason != "Score too fast" || verdict.CheatProbability != 95 {
		t.Fatalf("verdict = %+v", verdict)
	}
	if verdict.Action != guard.ActionTerminateSession {
		t.Fatalf("action = %q", verdict.Action)
	}
}

func TestReportActivity(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ActivityType  string `json:"activityType"`
			SeverityLevel int    `json:"severityLevel"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ActivityType != "pattern_anomaly" || body.SeverityLevel != 7 {
			t.Errorf("body = %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":          false,
			"message":          "Suspicious pattern detected",
			"action":           "increase_monitoring",
			"cheatProbability": 75,
		})
	})

	c := New(Options{BaseURL: srv.URL})
	resp, err := c.ReportActivity(context.Background(), "pattern_anomaly", "repeated score delta 50", 7)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if resp.Action != guard.ActionIncreaseMonitoring || resp.CheatProbability != 75 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	c := New(Options{BaseURL: srv.URL})
	if _, err := c.ValidateRealTime(context.Background(), guard.Snapshot{}); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestFetchConfig(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/config" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"maxHearts":    3,
			"victoryScore": 500,
			"gameWidth":    1536,
			"gameHeight":   1024,
		})
	})

	c := New(Options{BaseURL: srv.URL})
	cfg, err := c.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.MaxHearts != 3 || cfg.VictoryScore != 500 {
		t.Fatalf("cfg = %+v", cfg)
	}
}
