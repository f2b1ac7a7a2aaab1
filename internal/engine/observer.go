package engine

import "time"

// EventType represents the lifecycle phases of a run
type EventType string

const (
	EventStepStart      EventType = "step_start"
	EventStatementStart EventType = "statement_start"
	EventStatementEnd   EventType = "statement_end"
	EventStepEnd        EventType = "step_end"
)

// Event represents a lifecycle event of a run
type Event struct {
	Type      EventType   // Type of event
	RunID     string      // Run ID for tracing
	Step      int         // Step index
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (step name, statement text, outcome)
}

// StatementOutcome is the Data of a statement_end event
type StatementOutcome struct {
	Kind  string
	Rows  int // rows of the SELECT result, 0 otherwise
	Error string
}

// StepOutcome is the Data of a step_end event
type StepOutcome struct {
	Statements int
	Warnings   int
	Error      string
}

// Observer interface for event subscribers
// Observers receive events at the boundaries of every step and statement
type Observer interface {
	OnEvent(event Event)
}
