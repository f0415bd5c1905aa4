package utils

type contextKey string

// RequestIDKey carries the request id through the request context for
// log correlation.
const RequestIDKey contextKey = "request_id"
