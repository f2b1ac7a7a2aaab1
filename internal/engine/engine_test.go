package engine

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gotest.tools/v3/assert"

	"github.com/leengari/cohort-sql/internal/domain/errors"
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/executor"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/storage"
	"github.com/leengari/cohort-sql/internal/testutil"
)

func testProfile(steps ...string) *pipeline.Profile {
	defs := make([]pipeline.StepDef, len(steps))
	for i, text := range steps {
		defs[i] = pipeline.StepDef{Name: "step", Text: text}
	}
	return &pipeline.Profile{
		Name:      "test",
		Steps:     defs,
		Exec:      executor.Options{DeleteShapes: []executor.DeleteShape{executor.DeleteWhere}},
		StepRules: map[int]pipeline.StepRule{},
	}
}

func testState(profile *pipeline.Profile) *pipeline.State {
	people := testutil.BuildTable("src_people",
		[]string{"subject_id", "age"},
		[]interface{}{int64(1), int64(30)},
		[]interface{}{int64(2), int64(70)},
	)
	aliases := storage.NewAliasMap()
	aliases.Add("src.people", "src_people")
	return pipeline.NewState(profile, testutil.StoreOf(people), aliases)
}

func TestRunStepsAppliesAliasesAndKeepsLastSelect(t *testing.T) {
	st := testState(testProfile(
		"DROP TABLE IF EXISTS t1; CREATE TABLE t1 AS SELECT subject_id, age FROM src.people; SELECT * FROM t1;",
		"DELETE FROM t1 WHERE age > 50; SELECT subject_id FROM t1; ",
	))
	eng := New(nil)
	obs := &MockObserver{}
	eng.AddObserver(obs)

	r, err := eng.RunRange(context.Background(), st, 0, 2)
	assert.NilError(t, err)
	assert.Assert(t, !r.Active)
	assert.DeepEqual(t, r.Steps, []int{0, 1})

	assert.DeepEqual(t, st.Steps[0].Messages(), []string{
		"CREATE complete: table t1 created",
		"SELECT complete: query executed successfully (2 rows)",
	})
	assert.Equal(t, st.Steps[0].Output.Len(), 2)
	assert.Equal(t, st.Steps[1].Output.Len(), 1)
	assert.Equal(t, st.Steps[1].Output.Rows[0]["subject_id"], int64(1))
	assert.Equal(t, st.Steps[1].Logs[0].Step, 1)

	assert.DeepEqual(t, obs.types()[:8], []EventType{
		EventStepStart,
		EventStatementStart, EventStatementEnd,
		EventStatementStart, EventStatementEnd,
		EventStatementStart, EventStatementEnd,
		EventStepEnd,
	})
	for _, e := range obs.Events {
		assert.Equal(t, e.RunID, r.ID)
	}
	assert.Equal(t, obs.Events[2].Data.(StatementOutcome).Kind, "DROP")
	assert.Equal(t, obs.Events[6].Data.(StatementOutcome).Rows, 2)
	assert.Equal(t, obs.Events[7].Data.(StepOutcome).Statements, 3)
}

func TestRunStepResetsPreviousOutput(t *testing.T) {
	st := testState(testProfile("SELECT * FROM src.people"))
	eng := New(nil)

	_, err := eng.RunStep(context.Background(), st, 0)
	assert.NilError(t, err)
	assert.Assert(t, st.Steps[0].Output != nil)

	assert.NilError(t, st.Edit(0, "DROP TABLE IF EXISTS nothing"))
	_, err = eng.RunStep(context.Background(), st, 0)
	assert.NilError(t, err)
	assert.Assert(t, st.Steps[0].Output == nil)
	assert.Equal(t, len(st.Steps[0].Logs), 0)

	assert.NilError(t, st.Reset(0))
	assert.Equal(t, st.Steps[0].Text, "SELECT * FROM src.people")
}

func TestQueryFailureAbortsBatch(t *testing.T) {
	st := testState(testProfile(
		"CREATE TABLE t1 AS SELECT * FROM src.people; CREATE TABLE t2 AS SELECT * FROM no_such_table; SELECT 1",
		"SELECT * FROM t1",
	))
	eng := New(nil)

	_, err := eng.RunRange(context.Background(), st, 0, 2)
	var qe *errors.QueryError
	assert.Assert(t, stderrors.As(err, &qe))
	assert.ErrorContains(t, err, "step 0")

	assert.Assert(t, st.Store.Has("t1"))
	assert.Assert(t, !st.Store.Has("t2"))

	logs := st.Steps[0].Logs
	last := logs[len(logs)-1]
	assert.Equal(t, last.Level, executor.LevelError)
	assert.Assert(t, strings.HasPrefix(last.Message, "Error: "))
	assert.Assert(t, st.Steps[0].Output == nil)
	assert.Equal(t, len(st.Steps[1].Logs), 0)
}

func TestOutOfRangeRunsNothing(t *testing.T) {
	st := testState(testProfile("CREATE TABLE t1 AS SELECT * FROM src.people", "SELECT 1"))
	eng := New(nil)

	_, err := eng.RunRange(context.Background(), st, 0, 3)
	var re *errors.StepRangeError
	assert.Assert(t, stderrors.As(err, &re))
	assert.Equal(t, re.Index, 2)
	assert.Assert(t, !st.Store.Has("t1"))

	_, err = eng.RunStep(context.Background(), st, -1)
	assert.Assert(t, stderrors.As(err, &re))

	_, err = eng.RunRange(context.Background(), st, 2, 1)
	assert.ErrorContains(t, err, "invalid step range")
}

func TestHugeRangeIsRejectedBeforeAllocating(t *testing.T) {
	st := testState(testProfile("CREATE TABLE t1 AS SELECT * FROM src.people"))
	eng := New(nil)

	_, err := eng.RunRange(context.Background(), st, 0, 1<<62)
	var re *errors.StepRangeError
	assert.Assert(t, stderrors.As(err, &re))
	assert.Equal(t, re.Count, 1)
	assert.Assert(t, !st.Store.Has("t1"))

	_, err = eng.RunRange(context.Background(), st, -(1 << 62), 1)
	assert.Assert(t, stderrors.As(err, &re))
	assert.Equal(t, re.Index, -(1 << 62))
}

func TestStepRuleAppliesToSelect(t *testing.T) {
	profile := testProfile("SELECT subject_id, age FROM src.people", "SELECT subject_id, age FROM src.people")
	profile.StepRules[1] = func(t *schema.Table) []string {
		for _, row := range t.Rows {
			row["age"] = float64(row["age"].(int64))
		}
		return []string{"Warning: rule applied"}
	}
	st := testState(profile)

	_, err := New(nil).RunRange(context.Background(), st, 0, 2)
	assert.NilError(t, err)
	assert.Equal(t, st.Steps[0].Output.Rows[0]["age"], int64(30))
	assert.Equal(t, st.Steps[1].Output.Rows[0]["age"], 30.0)
	assert.Equal(t, st.Steps[1].Logs[0].Message, "Warning: rule applied")
}

func TestStepsAreTracedAndAudited(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	core, audited := observer.New(zapcore.DebugLevel)

	st := testState(testProfile(
		"DELETE FROM src_people WHERE bogus = 1",
		"SELECT * FROM missing",
	))
	eng := New(nil, WithTracerProvider(tp), WithAudit(zap.New(core)))

	_, err := eng.RunRange(context.Background(), st, 0, 2)
	assert.Assert(t, err != nil)

	spans := exporter.GetSpans()
	assert.Equal(t, len(spans), 2)
	assert.Equal(t, spans[0].Name, "pipeline.step")
	assert.Equal(t, spans[0].Status.Code, codes.Unset)
	assert.Equal(t, spans[1].Status.Code, codes.Error)

	entries := audited.All()
	assert.Equal(t, len(entries), 2)
	assert.Equal(t, entries[0].Level, zapcore.WarnLevel)
	assert.Equal(t, entries[0].ContextMap()["pipeline"], "test")
	assert.Equal(t, entries[0].ContextMap()["step"], int64(0))
	assert.Equal(t, entries[1].Level, zapcore.ErrorLevel)
}
