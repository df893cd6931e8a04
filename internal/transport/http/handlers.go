package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"wizardguard/internal/domain"
	"wizardguard/internal/dto"
	"wizardguard/internal/observability/metrics"
	"wizardguard/internal/service"
)

const version = "1.0.0"

// Handler holds the server-side pipeline the HTTP surface fronts.
type Handler struct {
	binder     *service.DeviceBinder
	tokens     *service.TokenValidator
	trust      *service.TrustValidator
	classifier *service.ActivityClassifier
	game       *service.GameService
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler wires the handler over the services.
func NewHandler(binder *service.DeviceBinder, tokens *service.TokenValidator, trust *service.TrustValidator, classifier *service.ActivityClassifier, game *service.GameService, logger *slog.Logger) *Handler {
	return &Handler{
		binder:     binder,
		tokens:     tokens,
		trust:      trust,
		classifier: classifier,
		game:       game,
		logger:     logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// GameConfig hands the game layer its static configuration.
func (h *Handler) GameConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.GameConfig{
		MaxHearts:         3,
		ItemSpawnInterval: service.ItemSpawnInterval,
		BombSpawnInterval: service.BombSpawnInterval,
		ItemScore:         10,
		VictoryScore:      service.VictoryScore,
		GameWidth:         service.GameWidth,
		GameHeight:        service.GameHeight,
		PlayerStartX:      service.PlayerStartX,
		PlayerStartY:      service.PlayerStartY,
		Message:           "Wizard Game API running",
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.StatusResponse{
		Status:    "OK",
		Message:   "Wizard Game API running",
		Timestamp: h.now().UnixMilli(),
		Version:   version,
	})
}

func (h *Handler) ArrowShot(w http.ResponseWriter, r *http.Request) {
	var req dto.ArrowShotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := h.game.RecordArrowShot(req.SessionID, req.VelocityX, req.VelocityY); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, dto.ArrowShotResponse{
		Success:   true,
		Message:   "Arrow shot recorded",
		Timestamp: h.now().UnixMilli(),
	})
}

func (h *Handler) ItemHit(w http.ResponseWriter, r *http.Request) {
	var req dto.ItemHitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	isVictory, err := h.game.RecordItemHit(req.SessionID, req.NewScore)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidScore) {
			writeJSON(w, http.StatusBadRequest, dto.ItemHitResponse{Success: false, Message: "Invalid score"})
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, dto.ItemHitResponse{
		Success:   true,
		Message:   "Item hit recorded",
		NewScore:  req.NewScore,
		IsVictory: isVictory,
	})
}

func (h *Handler) BombHit(w http.ResponseWriter, r *http.Request) {
	var req dto.BombHitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	isGameOver, err := h.game.RecordBombHit(req.SessionID, req.RemainingHearts)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidHearts) {
			writeJSON(w, http.StatusBadRequest, dto.BombHitResponse{Success: false, Message: "Invalid hearts count"})
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, dto.BombHitResponse{
		Success:         true,
		Message:         "Bomb hit recorded",
		RemainingHearts: req.RemainingHearts,
		IsGameOver:      isGameOver,
	})
}

// RequestDevicePermission issues a device-bound token and challenge. An
// internal failure here is an issuance fault and surfaces as a generic
// failure with no token.
func (h *Handler) RequestDevicePermission(w http.ResponseWriter, r *http.Request) {
	var req dto.PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	grant, err := h.binder.IssueToken(r.Context(), req.SessionID, snapshotFromGameData(req.GameData), fingerprintFromDTO(req.DeviceFingerprint))
	if err != nil {
		h.logger.Error("device permission error", "session_id", req.SessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.PermissionResponse{
			Success: false,
			Reason:  "Permission generation failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.PermissionResponse{
		Success:         true,
		PermissionToken: grant.Token,
		DeviceChallenge: grant.Challenge,
		ExpiresIn:       grant.ExpiresIn,
		ServerTimestamp: h.now().UnixMilli(),
	})
}

// ValidateSecureAction consumes the permission token. Rejections come back
// HTTP 200 with success=false so the detector loop can read the verdict.
func (h *Handler) ValidateSecureAction(w http.ResponseWriter, r *http.Request) {
	var req dto.SecureActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	verdict := h.tokens.Validate(req.SessionID, req.PermissionToken)
	if !verdict.Accepted {
		writeJSON(w, http.StatusOK, dto.SecureActionResponse{
			Success:          false,
			Reason:           verdict.Reason,
			CheatProbability: verdict.CheatProbability,
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.SecureActionResponse{
		Success:            true,
		Message:            "Secure validation successful",
		ServerVerification: verdict.ServerVerification,
	})
}

func (h *Handler) ReportSuspiciousActivity(w http.ResponseWriter, r *http.Request) {
	var req dto.SuspiciousActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	h.logger.Warn("suspicious activity reported",
		"session_id", req.SessionID,
		"activity_type", req.ActivityType,
		"severity", req.SeverityLevel,
		"details", req.Details,
	)

	verdict := h.classifier.Classify(req.ActivityType, req.SeverityLevel)
	writeJSON(w, http.StatusOK, dto.SuspiciousActivityResponse{
		Success:          !verdict.Suspicious,
		Message:          verdict.Message,
		Action:           string(verdict.Action),
		CheatProbability: verdict.CheatProbability,
	})
}

func (h *Handler) RealTimeValidation(w http.ResponseWriter, r *http.Request) {
	var req dto.RealTimeValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	snapshot := domain.GameStateSnapshot{
		Score:          req.CurrentScore,
		Hearts:         req.RemainingHearts,
		ItemsHit:       req.ItemsHit,
		BombsHit:       req.BombsHit,
		ElapsedSeconds: req.GameTimeSeconds,
	}

	verdict := h.trust.Validate(snapshot)
	if err := h.game.ApplyVerdict(req.SessionID, verdict); err != nil {
		// Fail closed toward suspicion rather than crashing the session.
		h.logger.Error("real-time validation error", "session_id", req.SessionID, "error", err)
		metrics.RealTimeValidationsTotal.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusOK, dto.RealTimeValidationResponse{
			Success: false,
			Reason:  "Validation failed",
		})
		return
	}

	if !verdict.Accepted {
		metrics.RealTimeValidationsTotal.WithLabelValues("rejected").Inc()
		h.logger.Warn("real-time validation failed",
			"session_id", req.SessionID,
			"reason", verdict.Reason,
			"cheat_probability", verdict.CheatProbability,
		)
		writeJSON(w, http.StatusOK, dto.RealTimeValidationResponse{
			Success:          false,
			Reason:           verdict.Reason,
			CheatProbability: verdict.CheatProbability,
			Action:           string(domain.ActionTerminateSession),
		})
		return
	}

	metrics.RealTimeValidationsTotal.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, dto.RealTimeValidationResponse{
		Success:    true,
		Message:    "Real-time validation passed",
		TrustScore: verdict.TrustScore,
		Timestamp:  h.now().UnixMilli(),
	})
}

func snapshotFromGameData(gd dto.GameData) domain.GameStateSnapshot {
	return domain.GameStateSnapshot{
		Score:          gd.Score,
		Hearts:         gd.Hearts,
		ItemsHit:       gd.ItemsHit,
		BombsHit:       gd.BombsHit,
		ElapsedSeconds: float64(gd.GameTime) / 1000.0,
	}
}

func fingerprintFromDTO(fp dto.DeviceFingerprint) domain.Fingerprint {
	return domain.Fingerprint{
		UserAgent: fp.UserAgent,
		ScreenResolution: domain.ScreenResolution{
			Width:  fp.ScreenResolution.Width,
			Height: fp.ScreenResolution.Height,
		},
		TimezoneOffset:    fp.TimezoneOffset,
		CanvasFingerprint: fp.CanvasFingerprint,
		WebGLFingerprint:  fp.WebGLFingerprint,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
