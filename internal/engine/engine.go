// Package engine runs the steps of a pipeline session.
//
// Steps run strictly in the order requested and each sees every table the steps before it
// materialized. A statement that fails aborts the rest of the batch, remaining statements
// and remaining steps alike; what already ran stays applied.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/leengari/cohort-sql/internal/domain/errors"
	"github.com/leengari/cohort-sql/internal/domain/run"
	"github.com/leengari/cohort-sql/internal/executor"
	"github.com/leengari/cohort-sql/internal/parser"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/query"
)

const tracerName = "github.com/leengari/cohort-sql/internal/engine"

// Engine is the step sequencer
type Engine struct {
	query     query.Engine
	observers []Observer // Observers for lifecycle events
	audit     *zap.Logger
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithAudit mirrors every step log entry to an audit logger
func WithAudit(audit *zap.Logger) Option {
	return func(e *Engine) {
		if audit != nil {
			e.audit = audit
		}
	}
}

// WithTracerProvider sets where step spans go; the global provider is used otherwise
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(tracerName)
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates a new Engine; a nil query engine uses SQLite
func New(q query.Engine, opts ...Option) *Engine {
	e := &Engine{
		query:     q,
		observers: make([]Observer, 0),
		audit:     zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.query == nil {
		e.query = query.NewSQLiteEngine(e.logger)
	}
	return e
}

// RunStep executes step i
func (e *Engine) RunStep(ctx context.Context, st *pipeline.State, i int) (*run.Run, error) {
	return e.RunSteps(ctx, st, []int{i})
}

// RunRange executes steps from (inclusive) to to (exclusive) in order
func (e *Engine) RunRange(ctx context.Context, st *pipeline.State, from, to int) (*run.Run, error) {
	if from > to {
		return nil, fmt.Errorf("invalid step range [%d,%d)", from, to)
	}
	if from < 0 {
		return nil, &errors.StepRangeError{Index: from, Count: st.Len()}
	}
	if to > st.Len() {
		return nil, &errors.StepRangeError{Index: to - 1, Count: st.Len()}
	}
	indices := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		indices = append(indices, i)
	}
	return e.RunSteps(ctx, st, indices)
}

// RunSteps executes the given steps in order. Every index is checked before anything runs.
func (e *Engine) RunSteps(ctx context.Context, st *pipeline.State, indices []int) (*run.Run, error) {
	for _, i := range indices {
		if i < 0 || i >= st.Len() {
			return nil, &errors.StepRangeError{Index: i, Count: st.Len()}
		}
	}

	r := run.NewRun(st.Profile.Name, indices)
	defer r.Close()

	for _, i := range indices {
		if err := e.runStep(ctx, st, r, i); err != nil {
			e.logger.Error("run aborted",
				slog.String("run_id", r.ID),
				slog.Int("step", i),
				slog.Any("error", err),
			)
			return r, fmt.Errorf("step %d: %w", i, err)
		}
	}

	e.logger.Info("run complete",
		slog.String("run_id", r.ID),
		slog.String("pipeline", r.Pipeline),
		slog.Int("steps", len(indices)),
		slog.Duration("duration", r.Duration()),
	)
	return r, nil
}

func (e *Engine) runStep(ctx context.Context, st *pipeline.State, r *run.Run, i int) (err error) {
	step := st.Steps[i]
	step.Clear()

	ctx, span := e.tracer.Start(ctx, "pipeline.step", trace.WithAttributes(
		attribute.String("run.id", r.ID),
		attribute.String("pipeline", st.Profile.Name),
		attribute.Int("step.index", i),
		attribute.String("step.name", step.Name),
	))
	defer span.End()

	sink := &stepSink{step: step, audit: e.audit, runID: r.ID, pipeline: st.Profile.Name}
	outcome := StepOutcome{}
	e.notify(Event{Type: EventStepStart, RunID: r.ID, Step: i, Data: step.Name})
	defer func() {
		outcome.Warnings = sink.warnings
		if err != nil {
			outcome.Error = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("step.statements", outcome.Statements))
		e.notify(Event{Type: EventStepEnd, RunID: r.ID, Step: i, Data: outcome})
	}()

	ec := &executor.Context{
		Ctx:     ctx,
		Store:   st.Store,
		Engine:  e.query,
		Options: &st.Profile.Exec,
		Log:     sink,
		Step:    i,
	}
	if rule, ok := st.Profile.StepRules[i]; ok {
		ec.SelectHook = rule
	}

	text := st.Aliases.Apply(step.Text)
	for _, stmt := range parser.SplitStatements(text) {
		outcome.Statements++
		e.notify(Event{Type: EventStatementStart, RunID: r.ID, Step: i, Data: stmt})

		res, execErr := executor.Execute(ec, stmt)
		if execErr != nil {
			sink.Log(i, executor.LevelError, "Error: "+execErr.Error())
			e.notify(Event{Type: EventStatementEnd, RunID: r.ID, Step: i, Data: StatementOutcome{
				Kind:  parser.Classify(stmt).String(),
				Error: execErr.Error(),
			}})
			return execErr
		}

		so := StatementOutcome{Kind: res.Kind.String()}
		if res.Table != nil {
			step.Output = res.Table
			so.Rows = res.Table.Len()
		}
		e.notify(Event{Type: EventStatementEnd, RunID: r.ID, Step: i, Data: so})
	}
	return nil
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(observer Observer) {
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()
	for _, observer := range e.observers {
		observer.OnEvent(event)
	}
}

// stepSink appends executor messages to the step log and mirrors them to the audit trail
type stepSink struct {
	step     *pipeline.Step
	audit    *zap.Logger
	runID    string
	pipeline string
	warnings int
}

func (s *stepSink) Log(step int, level executor.Level, message string) {
	s.step.Logs = append(s.step.Logs, pipeline.LogEntry{
		Step:    step,
		Level:   level,
		Message: message,
		Time:    time.Now(),
	})

	fields := []zap.Field{
		zap.String("run_id", s.runID),
		zap.String("pipeline", s.pipeline),
		zap.Int("step", step),
	}
	switch level {
	case executor.LevelWarn:
		s.warnings++
		s.audit.Warn(message, fields...)
	case executor.LevelError:
		s.audit.Error(message, fields...)
	default:
		s.audit.Info(message, fields...)
	}
}
