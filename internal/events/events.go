// Package events provides lifecycle notifications for a workload run.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventRunStarted is emitted once when a run begins
	EventRunStarted EventType = "run_started"
	// EventRunCompleted is emitted once when a run ends, successfully or not
	EventRunCompleted EventType = "run_completed"
	// EventPhaseStarted is emitted before the first command of a phase
	EventPhaseStarted EventType = "phase_started"
	// EventPhaseCompleted is emitted after the last command of a phase
	EventPhaseCompleted EventType = "phase_completed"
	// EventCommandFailed is emitted when a command returns an error and the run aborts
	EventCommandFailed EventType = "command_failed"
	// EventMismatch is emitted when verification finds a reply that does not match
	EventMismatch EventType = "mismatch"
)

// Event represents a run or phase event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Scenario  string    `json:"scenario"`
	Phase     string    `json:"phase,omitempty"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Command    string `json:"command,omitempty"`
	PhaseIndex int    `json:"phase_index,omitempty"`
	PhaseCount int    `json:"phase_count,omitempty"`
	Calls      int    `json:"calls,omitempty"`
	Iteration  int    `json:"iteration,omitempty"`
	Mismatches int    `json:"mismatches,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(scenario string, phaseCount int) Event {
	return Event{
		Type:      EventRunStarted,
		Timestamp: time.Now(),
		Scenario:  scenario,
		Data: EventData{
			PhaseCount: phaseCount,
		},
	}
}

// NewRunCompletedEvent creates a run completed event; err is nil on success
func NewRunCompletedEvent(scenario string, elapsed time.Duration, err error) Event {
	return Event{
		Type:      EventRunCompleted,
		Timestamp: time.Now(),
		Scenario:  scenario,
		Data: EventData{
			Duration: elapsed.String(),
			Error:    errString(err),
		},
	}
}

// NewPhaseStartedEvent creates a phase started event
func NewPhaseStartedEvent(scenario, phase, command string, index, count int) Event {
	return Event{
		Type:      EventPhaseStarted,
		Timestamp: time.Now(),
		Scenario:  scenario,
		Phase:     phase,
		Data: EventData{
			Command:    command,
			PhaseIndex: index,
			PhaseCount: count,
		},
	}
}

// NewPhaseCompletedEvent creates a phase completed event
func NewPhaseCompletedEvent(scenario, phase, command string, calls int, elapsed time.Duration) Event {
	return Event{
		Type:      EventPhaseCompleted,
		Timestamp: time.Now(),
		Scenario:  scenario,
		Phase:     phase,
		Data: EventData{
			Command:  command,
			Calls:    calls,
			Duration: elapsed.String(),
		},
	}
}

// NewCommandFailedEvent creates a command failed event
func NewCommandFailedEvent(scenario, phase, command string, iteration int, err error) Event {
	return Event{
		Type:      EventCommandFailed,
		Timestamp: time.Now(),
		Scenario:  scenario,
		Phase:     phase,
		Data: EventData{
			Command:   command,
			Iteration: iteration,
			Error:     errString(err),
		},
	}
}

// NewMismatchEvent creates a verification mismatch event
func NewMismatchEvent(scenario, phase, command string, count int, detail string) Event {
	return Event{
		Type:      EventMismatch,
		Timestamp: time.Now(),
		Scenario:  scenario,
		Phase:     phase,
		Data: EventData{
			Command:    command,
			Mismatches: count,
			Detail:     detail,
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
