package tools

// Status marks a tool result as usable or failed.
type Status string

// Result statuses.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorCode categorizes tool failures so the model can decide whether to
// retry, rephrase, or give up.
type ErrorCode string

// Error codes surfaced to the model.
const (
	ErrCodeInvalidArguments ErrorCode = "InvalidArguments"
	ErrCodeNotFound         ErrorCode = "NotFound"
	ErrCodeUnavailable      ErrorCode = "Unavailable"
)

// Error is a structured tool failure for model consumption.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil tool error>"
	}
	if e.Code == "" {
		return e.Message
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Result is the uniform envelope every tool returns. The model sees it
// JSON-encoded.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *Error         `json:"error,omitempty"`
}

// Success builds a successful Result.
func Success(data map[string]any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

// Failure builds an error Result without failing the tool call itself; the
// model receives the failure as data it can react to.
func Failure(code ErrorCode, message string) Result {
	return Result{Status: StatusError, Error: &Error{Code: code, Message: message}}
}
