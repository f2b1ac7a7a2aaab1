// Package pipeline holds the built-in cohort pipelines and the per-session state of a run:
// the ordered steps with their editable statement text, their last output and their log.
package pipeline

import (
	"time"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/executor"
)

// StepDef is the built-in definition of one step
type StepDef struct {
	Name     string
	Subtitle string
	Text     string
}

// LogEntry is one line of a step log
type LogEntry struct {
	Step    int
	Level   executor.Level
	Message string
	Time    time.Time
}

// Step is one step of a session: its current text, last output and log
type Step struct {
	Index       int
	Name        string
	Subtitle    string
	DefaultText string
	Text        string

	// Output is the result of the last SELECT of the most recent run, nil if none
	Output *schema.Table
	Logs   []LogEntry
}

// Messages returns the log lines in order
func (s *Step) Messages() []string {
	out := make([]string, len(s.Logs))
	for i, e := range s.Logs {
		out[i] = e.Message
	}
	return out
}

// Clear drops the output and log of a previous run
func (s *Step) Clear() {
	s.Output = nil
	s.Logs = nil
}
