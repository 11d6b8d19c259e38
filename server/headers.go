package server

const (
	// HeaderXResponseTime is set by the timing middleware on all responses.
	HeaderXResponseTime = "X-Response-Time"

	// HeaderTraceParent is the W3C trace context header
	HeaderTraceParent = "traceparent"

	// HeaderAccessToken carries the custom-fields API token
	HeaderAccessToken = "x-access-token"
)
