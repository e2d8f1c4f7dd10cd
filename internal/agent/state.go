package agent

// State is the loop's position in one reasoning turn. The transitions are
// AwaitingModel → ToolCallRequested → ToolExecuting → AwaitingModel, repeated
// until the run ends in Answered or Failed.
type State int

// Loop states.
const (
	StateAwaitingModel State = iota
	StateToolCallRequested
	StateToolExecuting
	StateAnswered
	StateFailed
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateToolCallRequested:
		return "tool_call_requested"
	case StateToolExecuting:
		return "tool_executing"
	case StateAnswered:
		return "answered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
