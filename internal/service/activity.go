package service

import (
	"strings"

	"wizardguard/internal/domain"
	"wizardguard/internal/observability/metrics"
)

// ActivityClassifier maps a reported suspicious-activity kind and severity
// to a monitoring action and cheat probability.
type ActivityClassifier struct{}

// NewActivityClassifier returns a classifier.
func NewActivityClassifier() *ActivityClassifier { return &ActivityClassifier{} }

// Classify applies the override table. Anything not matched stays at the
// default: keep monitoring, probability zero.
func (c *ActivityClassifier) Classify(activityType string, severity int) domain.ActivityVerdict {
	verdict := domain.ActivityVerdict{
		Message: "Activity logged",
		Action:  domain.ActionMonitor,
	}

	switch strings.ToLower(activityType) {
	case "rapid_score_increase":
		if severity >= 8 {
			verdict = domain.ActivityVerdict{
				Suspicious:       true,
				Message:          "Rapid score manipulation detected",
				Action:           domain.ActionTerminateSession,
				CheatProbability: 95,
			}
		}
	case "impossible_timing":
		verdict = domain.ActivityVerdict{
			Suspicious:       true,
			Message:          "Impossible timing detected",
			Action:           domain.ActionFlagPlayer,
			CheatProbability: 90,
		}
	case "pattern_anomaly":
		if severity >= 7 {
			verdict = domain.ActivityVerdict{
				Suspicious:       true,
				Message:          "Suspicious pattern detected",
				Action:           domain.ActionIncreaseMonitoring,
				CheatProbability: 75,
			}
		}
	}

	metrics.SuspiciousActivitiesTotal.WithLabelValues(strings.ToLower(activityType), string(verdict.Action)).Inc()
	return verdict
}
