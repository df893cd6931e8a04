package domain

// MonitoringAction is the server's directive after classifying a suspicious
// activity or failing a real-time validation.
type MonitoringAction string

const (
	ActionMonitor            MonitoringAction = "monitor"
	ActionFlagPlayer         MonitoringAction = "flag_player"
	ActionIncreaseMonitoring MonitoringAction = "increase_monitoring"
	ActionTerminateSession   MonitoringAction = "terminate_session"
)

// TokenVerdict is the closed outcome of validating a device-bound token.
// When Accepted is true, ServerVerification carries the proof value; when
// false, Reason and CheatProbability describe the rejection.
type TokenVerdict struct {
	Accepted           bool
	ServerVerification string
	Reason             string
	CheatProbability   int
}

// TrustVerdict is the closed outcome of a real-time statistical validation.
// Accepted carries the computed trust score; a rejection carries the reason,
// a cheat probability, and the terminate directive.
type TrustVerdict struct {
	Accepted         bool
	TrustScore       int
	Reason           string
	CheatProbability int
	Action           MonitoringAction
}

// ActivityVerdict is the classification of a reported suspicious activity.
type ActivityVerdict struct {
	Suspicious       bool
	Message          string
	Action           MonitoringAction
	CheatProbability int
}
