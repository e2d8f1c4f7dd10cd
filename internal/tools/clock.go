package tools

import (
	"context"
	"time"
)

// CurrentTimeName is the clock tool's identifier.
const CurrentTimeName = "currentTime"

// NewCurrentTimeTool creates the clock tool. The now function is injected so
// tests can pin the clock; pass nil for the real clock.
func NewCurrentTimeTool(now func() time.Time) *ExecutableTool {
	if now == nil {
		now = time.Now
	}

	return NewTool(CurrentTimeName,
		"Get the current date and time in the server's local time zone. "+
			"Returns: a human-readable time string, a Unix timestamp, and an RFC 3339 form. "+
			"You MUST call this before answering any question about current dates, times, "+
			"ages, durations, or how long ago something happened.",
		false,
		func(_ context.Context, _ CurrentTimeInput) (Result, error) {
			t := now()
			return Success(map[string]any{
				"time":      t.Format("2006-01-02 15:04:05"),
				"timestamp": t.Unix(),
				"rfc3339":   t.Format(time.RFC3339),
			}), nil
		},
	)
}
