package dto

type SuspiciousActivityRequest struct {
	SessionID     string `json:"sessionId"`
	ActivityType  string `json:"activityType"`
	Details       string `json:"details"`
	SeverityLevel int    `json:"severityLevel"`
	Timestamp     int64  `json:"timestamp"`
}

type SuspiciousActivityResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Action           string `json:"action"`
	CheatProbability int    `json:"cheatProbability"`
}
