package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/parser"
	"github.com/leengari/cohort-sql/internal/query"
	"github.com/leengari/cohort-sql/internal/store"
)

// Level is the severity of a step log entry
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Logger receives the messages statements produce while a step runs
type Logger interface {
	Log(step int, level Level, message string)
}

// Options holds the business rules of a pipeline profile that the handlers consult
type Options struct {
	// Disabled verbs are reported as unsupported statements
	Disabled []parser.Kind

	// DeleteShapes and UpdateShapes are tried in order; the first match handles the statement
	DeleteShapes []DeleteShape
	UpdateShapes []UpdateShape

	// BoolColumns are coerced to booleans on every SELECT result
	BoolColumns []string

	// PatientsTable holds date-of-death per subject
	PatientsTable string

	// ReportMissingDrop logs an info line when DROP finds nothing to remove
	ReportMissingDrop bool

	// CoerceOnCreate converts time-named columns of a CREATE result to datetime before storing it
	CoerceOnCreate bool
}

func (o *Options) enabled(kind parser.Kind) bool {
	for _, k := range o.Disabled {
		if k == kind {
			return false
		}
	}
	return true
}

// Context carries everything a statement handler needs
type Context struct {
	Ctx     context.Context
	Store   *store.Store
	Engine  query.Engine
	Options *Options
	Log     Logger
	Step    int

	// SelectHook applies step-specific column rules to a SELECT result.
	// It returns warnings to be logged.
	SelectHook func(*schema.Table) []string
}

func (ec *Context) info(format string, args ...interface{}) {
	ec.Log.Log(ec.Step, LevelInfo, fmt.Sprintf(format, args...))
}

func (ec *Context) warn(format string, args ...interface{}) {
	ec.Log.Log(ec.Step, LevelWarn, "Warning: "+fmt.Sprintf(format, args...))
}

func (ec *Context) warnAll(warnings []string) {
	for _, w := range warnings {
		ec.Log.Log(ec.Step, LevelWarn, w)
	}
}

type Result struct {
	Kind  parser.Kind
	Table *schema.Table // set for SELECT only
}

// Execute classifies and runs one statement.
// Only query failures and malformed CREATE statements are returned as errors; every other
// problem is logged as a warning and the statement becomes a no-op.
func Execute(ec *Context, stmt string) (*Result, error) {
	kind := parser.Classify(stmt)
	if kind != parser.KindUnsupported && !ec.Options.enabled(kind) {
		kind = parser.KindUnsupported
	}

	slog.Debug("executing statement",
		slog.Int("step", ec.Step),
		slog.String("kind", kind.String()),
	)

	switch kind {
	case parser.KindDrop:
		executeDrop(ec, stmt)
	case parser.KindCreate:
		if err := executeCreate(ec, stmt); err != nil {
			return nil, err
		}
	case parser.KindAlter:
		executeAlter(ec, stmt)
	case parser.KindUpdate:
		executeUpdate(ec, stmt)
	case parser.KindDelete:
		executeDelete(ec, stmt)
	case parser.KindSelect:
		table, err := executeSelect(ec, stmt)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Table: table}, nil
	default:
		ec.warn("Statement not supported. Only %s are supported.", supportedList(ec.Options))
	}
	return &Result{Kind: kind}, nil
}

func supportedList(opts *Options) string {
	var names []string
	for _, k := range []parser.Kind{parser.KindDrop, parser.KindCreate, parser.KindAlter, parser.KindUpdate, parser.KindDelete, parser.KindSelect} {
		if opts.enabled(k) {
			names = append(names, k.String())
		}
	}
	if len(names) < 2 {
		return strings.Join(names, "")
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
