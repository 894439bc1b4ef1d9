package server

// Route path constants
const (
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
	RouteSession = "/session"
)
