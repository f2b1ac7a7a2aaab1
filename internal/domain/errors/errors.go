package errors

import (
	"fmt"
	"strings"
)

// TableNotFoundError is returned when a statement references a table the store does not hold
type TableNotFoundError struct {
	TableName string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found: %s", e.TableName)
}

// ColumnNotFoundError is returned when a referenced column is absent from a table
type ColumnNotFoundError struct {
	TableName  string
	ColumnName string
}

func (e *ColumnNotFoundError) Error() string {
	if e.TableName == "" {
		return fmt.Sprintf("column not found: %s", e.ColumnName)
	}
	return fmt.Sprintf("column not found: %s.%s", e.TableName, e.ColumnName)
}

// ParseError represents a statement that does not have the shape its verb requires
type ParseError struct {
	Statement string // offending statement (may be truncated)
	Verb      string // CREATE, ALTER, DELETE, ...
	Reason    string
}

func (e *ParseError) Error() string {
	var parts []string
	if e.Verb != "" {
		parts = append(parts, fmt.Sprintf("cannot parse %s statement", e.Verb))
	} else {
		parts = append(parts, "cannot parse statement")
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if e.Statement != "" {
		parts = append(parts, fmt.Sprintf("in %q", truncate(e.Statement, 80)))
	}
	return strings.Join(parts, " - ")
}

// QueryError wraps a failure of the underlying query engine
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v (query: %q)", e.Err, truncate(e.Query, 120))
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// StepRangeError is returned when a step index lies outside the pipeline
type StepRangeError struct {
	Index int
	Count int
}

func (e *StepRangeError) Error() string {
	return fmt.Sprintf("step index %d out of range [0,%d)", e.Index, e.Count)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
