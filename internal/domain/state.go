package domain

// DefaultIntervalSeconds matches the shortest preset offered to operators.
const DefaultIntervalSeconds = 10

// IntervalPresets are the intervals operators usually pick from, in seconds.
var IntervalPresets = []int{10, 30, 60, 300, 600, 1800}

// MonitorState is the scheduler's process-wide state.
type MonitorState struct {
	IntervalSeconds int  `json:"interval_seconds"`
	Running         bool `json:"running"`
}

// DefaultMonitorState is the initial Idle state.
func DefaultMonitorState() MonitorState {
	return MonitorState{IntervalSeconds: DefaultIntervalSeconds}
}
