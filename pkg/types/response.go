package types

// RequestIDHeader carries the per-request correlation id on requests and
// responses.
const RequestIDHeader = "X-Request-Id"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope echoes the request id so a customer report can be matched to
// the server logs.
type ErrorEnvelope struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}
