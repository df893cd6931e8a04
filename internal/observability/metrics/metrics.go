package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticheat_tokens_issued_total",
			Help: "Total number of device-bound tokens issued.",
		},
		[]string{"service", "result"},
	)

	TokenValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticheat_token_validations_total",
			Help: "Total number of token validations by outcome.",
		},
		[]string{"service", "result"},
	)

	RealTimeValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticheat_realtime_validations_total",
			Help: "Total number of real-time snapshot validations by outcome.",
		},
		[]string{"service", "result"},
	)

	SuspiciousActivitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticheat_suspicious_activities_total",
			Help: "Total number of reported suspicious activities by type and resulting action.",
		},
		[]string{"service", "type", "action"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	TokensIssuedTotal = TokensIssuedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	TokenValidationsTotal = TokenValidationsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	RealTimeValidationsTotal = RealTimeValidationsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	SuspiciousActivitiesTotal = SuspiciousActivitiesTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		TokensIssuedTotal,
		TokenValidationsTotal,
		RealTimeValidationsTotal,
		SuspiciousActivitiesTotal,
	)
}
