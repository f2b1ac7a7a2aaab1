package executor

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/leengari/cohort-sql/internal/domain/errors"
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/parser"
	"github.com/leengari/cohort-sql/internal/query"
	"github.com/leengari/cohort-sql/internal/store"
	"github.com/leengari/cohort-sql/internal/testutil"
)

type entry struct {
	step    int
	level   Level
	message string
}

// recorder is a Logger that keeps every entry
type recorder struct {
	entries []entry
}

func (r *recorder) Log(step int, level Level, message string) {
	r.entries = append(r.entries, entry{step, level, message})
}

func (r *recorder) has(level Level, fragment string) bool {
	for _, e := range r.entries {
		if e.level == level && strings.Contains(e.message, fragment) {
			return true
		}
	}
	return false
}

func cohortOptions() *Options {
	return &Options{
		DeleteShapes:   CohortDeleteShapes,
		UpdateShapes:   CohortUpdateShapes,
		BoolColumns:    []string{"with_psychosis", "E"},
		PatientsTable:  "mimiciv_hosp_patients",
		CoerceOnCreate: true,
	}
}

func newContext(s *store.Store, opts *Options) (*Context, *recorder) {
	rec := &recorder{}
	return &Context{
		Ctx:     context.Background(),
		Store:   s,
		Engine:  query.NewSQLiteEngine(nil),
		Options: opts,
		Log:     rec,
		Step:    3,
	}, rec
}

func mustExecute(t *testing.T, ec *Context, stmt string) *Result {
	t.Helper()
	res, err := Execute(ec, stmt)
	assert.NilError(t, err)
	return res
}

func TestDropIsIdempotent(t *testing.T) {
	s := testutil.StoreOf(testutil.BuildTable("temp_one", []string{"subject_id"}, []interface{}{int64(1)}))
	ec, rec := newContext(s, cohortOptions())

	mustExecute(t, ec, "DROP TABLE IF EXISTS temp_one")
	afterFirst := s.Names()
	mustExecute(t, ec, "DROP TABLE IF EXISTS temp_one")

	assert.DeepEqual(t, s.Names(), afterFirst)
	assert.Assert(t, !s.Has("temp_one"))
	assert.Equal(t, len(rec.entries), 1)
	assert.Assert(t, rec.has(LevelInfo, "DROP: table temp_one dropped"))
}

func TestDropMissingReported(t *testing.T) {
	opts := &Options{DeleteShapes: []DeleteShape{DeleteWhere}, ReportMissingDrop: true}
	ec, rec := newContext(store.New(), opts)

	mustExecute(t, ec, "DROP TABLE IF EXISTS temp_one")

	assert.Assert(t, rec.has(LevelInfo, "DROP: table temp_one does not exist, nothing to do"))
}

func TestCreateTwiceIsBagEqual(t *testing.T) {
	s := testutil.StoreOf(testutil.CreatePrescriptionsTable())
	ec, rec := newContext(s, cohortOptions())
	stmt := "CREATE TABLE temp_one AS SELECT subject_id, drug, starttime FROM mimiciv_hosp_prescriptions WHERE subject_id = 10"

	mustExecute(t, ec, stmt)
	first, _ := s.Get("temp_one")
	first = first.Clone()
	mustExecute(t, ec, stmt)
	second, _ := s.Get("temp_one")

	testutil.AssertBagEqual(t, second, first, "CREATE repeated")
	testutil.AssertRowCount(t, second, 2, "CREATE result")
	testutil.AssertColumnType(t, second, "starttime", schema.ColumnTypeDatetime, "CREATE result")
	assert.Assert(t, rec.has(LevelInfo, "CREATE complete: table temp_one created"))
}

func TestCreateKeepsTextTimesWithoutCoercion(t *testing.T) {
	src := testutil.BuildTable("orders",
		[]string{"subject_id", "starttime"},
		[]interface{}{int64(1), "2150-01-01 08:00:00"},
		[]interface{}{int64(2), "not a time"},
	)
	opts := &Options{DeleteShapes: []DeleteShape{DeleteWhere}}
	ec, rec := newContext(testutil.StoreOf(src), opts)

	mustExecute(t, ec, "CREATE TABLE temp_one AS SELECT subject_id, starttime FROM orders")
	created, ok := ec.Store.Get("temp_one")
	assert.Assert(t, ok)
	testutil.AssertColumnValues(t, created, "starttime", []interface{}{"2150-01-01 08:00:00", "not a time"}, "CREATE without coercion")
	assert.Assert(t, !rec.has(LevelWarn, "starttime"))

	res := mustExecute(t, ec, "SELECT subject_id, starttime FROM temp_one")
	testutil.AssertColumnType(t, res.Table, "starttime", schema.ColumnTypeDatetime, "SELECT after CREATE")
	assert.Assert(t, rec.has(LevelWarn, "starttime"))
}

func TestCreateDoesNotCoerceFlags(t *testing.T) {
	s := testutil.StoreOf(testutil.CreateMatchingTable())
	ec, _ := newContext(s, cohortOptions())

	mustExecute(t, ec, "CREATE TEMP TABLE temp_x AS SELECT with_psychosis FROM temp_eighteen WHERE subject_id = 2")

	x, _ := s.Get("temp_x")
	assert.Equal(t, x.Rows[0]["with_psychosis"], "TRUE")
}

func TestCreateWithoutAsFails(t *testing.T) {
	ec, _ := newContext(store.New(), cohortOptions())

	_, err := Execute(ec, "CREATE TABLE temp_one SELECT 1")

	var parseErr *errors.ParseError
	assert.Assert(t, stderrors.As(err, &parseErr))
}

func TestQueryFailurePropagates(t *testing.T) {
	ec, _ := newContext(store.New(), cohortOptions())

	_, err := Execute(ec, "SELECT * FROM no_such_table")

	var queryErr *errors.QueryError
	assert.Assert(t, stderrors.As(err, &queryErr))
}

func TestAlter(t *testing.T) {
	s := testutil.StoreOf(testutil.BuildTable("temp_twenty", []string{"subject_id"}, []interface{}{int64(1)}, []interface{}{int64(2)}))
	ec, rec := newContext(s, cohortOptions())

	mustExecute(t, ec, "ALTER TABLE temp_twenty ADD COLUMN T INTEGER")
	twenty, _ := s.Get("temp_twenty")
	testutil.AssertColumnType(t, twenty, "T", schema.ColumnTypeNumeric, "ALTER")
	testutil.AssertColumnValues(t, twenty, "T", []interface{}{nil, nil}, "ALTER")

	twenty.Rows[0]["T"] = int64(5)
	mustExecute(t, ec, "ALTER TABLE temp_twenty ADD COLUMN T INTEGER")
	assert.Equal(t, twenty.Rows[0]["T"], int64(5))
	assert.Equal(t, len(twenty.Columns), 2)

	mustExecute(t, ec, "ALTER TABLE temp_missing ADD COLUMN E BOOLEAN")
	assert.Assert(t, rec.has(LevelWarn, "Table temp_missing not found"))

	mustExecute(t, ec, "ALTER TABLE temp_twenty DROP COLUMN T")
	assert.Assert(t, rec.has(LevelWarn, "ALTER TABLE statement format not supported"))
}

func TestUpdateSurvivalTime(t *testing.T) {
	twenty := testutil.BuildTable("temp_twenty",
		[]string{"subject_id", "index_date", "event_date"},
		[]interface{}{int64(1), "2150-01-01", "2150-01-11"},
		[]interface{}{int64(2), "2150-01-01 12:00:00", "2150-01-01 00:00:00"},
		[]interface{}{int64(3), "2150-01-01", nil},
		[]interface{}{int64(4), "2150-01-01", "garbage"},
	)
	s := testutil.StoreOf(twenty)
	ec, rec := newContext(s, cohortOptions())

	mustExecute(t, ec, "UPDATE temp_twenty SET T = JULIANDAY(event_date) - JULIANDAY(index_date)")

	testutil.AssertColumnValues(t, twenty, "T", []interface{}{int64(10), int64(-1), nil, nil}, "T")
	testutil.AssertColumnType(t, twenty, "event_date", schema.ColumnTypeDatetime, "event_date")
	assert.Assert(t, rec.has(LevelInfo, "T column in temp_twenty updated"))
}

func TestUpdateEventDateFromAdmitYear(t *testing.T) {
	nineteen := testutil.BuildTable("temp_nineteen",
		[]string{"subject_id", "event_date"},
		[]interface{}{int64(1), nil},
		[]interface{}{int64(2), testutil.Date(2152, 3, 4)},
		[]interface{}{int64(3), nil},
	)
	fifteen := testutil.BuildTable("temp_fifteen",
		[]string{"subject_id", "admit_year"},
		[]interface{}{int64(1), 2155.0},
		[]interface{}{int64(1), 2160.0},
		[]interface{}{int64(2), 2199.0},
	)
	s := testutil.StoreOf(nineteen, fifteen)
	ec, _ := newContext(s, cohortOptions())

	mustExecute(t, ec, "UPDATE temp_nineteen SET event_date = (SELECT admit_year FROM temp_fifteen WHERE temp_fifteen.subject_id = temp_nineteen.subject_id) WHERE event_date IS NULL")

	testutil.AssertColumnValues(t, nineteen, "event_date", []interface{}{
		testutil.Date(2155, 12, 31),
		testutil.Date(2152, 3, 4),
		nil,
	}, "event_date")
}

func TestUpdateEventDateFromDeath(t *testing.T) {
	nineteen := testutil.BuildTable("temp_nineteen",
		[]string{"subject_id", "event_date"},
		[]interface{}{int64(1), nil},
		[]interface{}{int64(2), nil},
	)
	patients := testutil.BuildTable("mimiciv_hosp_patients",
		[]string{"subject_id", "dod"},
		[]interface{}{int64(1), "2153-07-08 13:14:00"},
		[]interface{}{int64(2), nil},
	)
	s := testutil.StoreOf(nineteen, patients)
	ec, _ := newContext(s, cohortOptions())

	mustExecute(t, ec, "UPDATE temp_nineteen SET event_date = (SELECT death_date FROM x) WHERE event_date IS NULL")

	testutil.AssertColumnValues(t, nineteen, "event_date", []interface{}{testutil.Date(2153, 7, 8), nil}, "event_date")
}

func TestUpdateMissingTableWarns(t *testing.T) {
	ec, rec := newContext(store.New(), cohortOptions())

	mustExecute(t, ec, "UPDATE temp_nineteen SET event_date = DEATH_DATE")
	mustExecute(t, ec, "UPDATE temp_twenty SET T = 1")

	assert.Assert(t, rec.has(LevelWarn, "Table temp_nineteen or event_date column not found"))
	assert.Assert(t, rec.has(LevelWarn, "Table temp_twenty not found"))
}

func TestDeleteSameDayPsychosis(t *testing.T) {
	eight := testutil.BuildTable("temp_eight",
		[]string{"subject_id", "last_date", "with_psychosis"},
		[]interface{}{int64(1), testutil.Date(2150, 1, 1), true},
		[]interface{}{int64(1), testutil.Date(2150, 5, 1), true},
		[]interface{}{int64(2), testutil.Date(2150, 1, 1), false},
		[]interface{}{int64(3), testutil.Date(2150, 1, 1), true},
	)
	nine := testutil.BuildTable("temp_nine",
		[]string{"subject_id", "index_date", "with_psychosis"},
		[]interface{}{int64(1), testutil.Date(2150, 1, 1), false},
		[]interface{}{int64(2), testutil.Date(2150, 1, 1), true},
	)
	s := testutil.StoreOf(eight, nine)
	ec, rec := newContext(s, cohortOptions())

	mustExecute(t, ec, `DELETE FROM temp_eight
WHERE subject_id IN (SELECT a.subject_id FROM temp_eight a JOIN temp_nine b ON a.subject_id = b.subject_id
WHERE a.last_date = b.index_date AND a.with_psychosis = TRUE)`)

	// subject 1 matched on its first row; every row of the subject goes
	testutil.AssertColumnValues(t, eight, "subject_id", []interface{}{int64(2), int64(3)}, "temp_eight")
	assert.Assert(t, rec.has(LevelInfo, "deleted 2 row(s)"))
}

func TestDeleteSameDayStroke(t *testing.T) {
	eleven := testutil.BuildTable("temp_eleven",
		[]string{"subject_id", "first_date_ischemic_stroke"},
		[]interface{}{int64(1), testutil.Date(2150, 1, 1)},
		[]interface{}{int64(2), testutil.Date(2150, 2, 1)},
		[]interface{}{int64(3), nil},
	)
	ten := testutil.BuildTable("temp_ten",
		[]string{"subject_id", "index_date"},
		[]interface{}{int64(1), testutil.Date(2150, 1, 1)},
		[]interface{}{int64(2), testutil.Date(2150, 3, 1)},
		[]interface{}{int64(3), nil},
	)
	s := testutil.StoreOf(eleven, ten)
	ec, _ := newContext(s, cohortOptions())

	mustExecute(t, ec, "DELETE FROM temp_eleven WHERE subject_id IN (SELECT subject_id FROM temp_eleven JOIN temp_ten USING (subject_id) WHERE first_date_ischemic_stroke = index_date)")

	testutil.AssertColumnValues(t, eleven, "subject_id", []interface{}{int64(2), int64(3)}, "temp_eleven")
}

func TestDeleteUnmatchedControls(t *testing.T) {
	eighteen := testutil.CreateMatchingTable()
	s := testutil.StoreOf(eighteen)
	ec, _ := newContext(s, cohortOptions())

	mustExecute(t, ec, `DELETE FROM temp_eighteen AS c WHERE c.with_psychosis = FALSE AND NOT EXISTS (
SELECT 1 FROM temp_eighteen p WHERE p.with_psychosis = TRUE AND p.gender = c.gender AND p.age = c.age)`)

	testutil.AssertColumnValues(t, eighteen, "subject_id", []interface{}{int64(1), int64(2), int64(3), int64(5), int64(7)}, "temp_eighteen")

	// every surviving control has a case of the same gender and age
	for _, row := range eighteen.Rows {
		if row["with_psychosis"] == false || row["with_psychosis"] == "FALSE" {
			found := false
			for _, other := range eighteen.Rows {
				if other["with_psychosis"] == true || other["with_psychosis"] == "TRUE" {
					if other["gender"] == row["gender"] && other["age"] == row["age"] {
						found = true
					}
				}
			}
			assert.Assert(t, found, "control %v has no matching case", row["subject_id"])
		}
	}
	// cases are never removed
	for _, id := range []int64{1, 2, 7} {
		assert.Assert(t, containsValue(eighteen, "subject_id", id))
	}
}

func TestDeleteInSubquery(t *testing.T) {
	seven := testutil.BuildTable("temp_seven", []string{"hadm_id"}, []interface{}{int64(1)}, []interface{}{int64(2)}, []interface{}{nil})
	six := testutil.BuildTable("temp_six", []string{"hadm_id"}, []interface{}{int64(2)})
	s := testutil.StoreOf(seven, six)
	ec, rec := newContext(s, cohortOptions())

	mustExecute(t, ec, "DELETE FROM temp_seven WHERE hadm_id IN (SELECT hadm_id FROM temp_six)")

	testutil.AssertColumnValues(t, seven, "hadm_id", []interface{}{int64(1), nil}, "temp_seven")
	assert.Assert(t, rec.has(LevelInfo, "where hadm_id exists in temp_six"))
}

func TestDeleteWhere(t *testing.T) {
	twenty := testutil.BuildTable("temp_twenty",
		[]string{"subject_id", "T"},
		[]interface{}{int64(1), int64(-2)},
		[]interface{}{int64(2), int64(0)},
		[]interface{}{int64(3), int64(7)},
		[]interface{}{int64(4), nil},
	)
	s := testutil.StoreOf(twenty)
	ec, rec := newContext(s, cohortOptions())

	mustExecute(t, ec, "DELETE FROM temp_twenty WHERE T <= 0")

	testutil.AssertColumnValues(t, twenty, "subject_id", []interface{}{int64(3), int64(4)}, "temp_twenty")
	assert.Assert(t, rec.has(LevelInfo, "deleted 2 row(s) from temp_twenty meeting condition 'T <= 0'"))
}

func TestDeleteWhereConditionErrorIsNoop(t *testing.T) {
	seven := testutil.BuildTable("temp_seven", []string{"hadm_id"}, []interface{}{int64(1)})
	s := testutil.StoreOf(seven)
	ec, rec := newContext(s, cohortOptions())

	res, err := Execute(ec, "DELETE FROM temp_seven WHERE hadm_id IN (SELECT DISTINCT hadm_id FROM temp_six)")

	assert.NilError(t, err)
	assert.Equal(t, res.Kind, parser.KindDelete)
	assert.Equal(t, seven.Len(), 1)
	assert.Assert(t, rec.has(LevelWarn, "condition parsing error"))
}

func TestDeleteUnrecognized(t *testing.T) {
	ec, rec := newContext(store.New(), cohortOptions())

	mustExecute(t, ec, "DELETE FROM temp_seven")

	assert.Assert(t, rec.has(LevelWarn, "DELETE statement format not supported"))
}

func TestDisabledVerbsAreUnsupported(t *testing.T) {
	twenty := testutil.BuildTable("temp_twenty", []string{"subject_id"}, []interface{}{int64(1)})
	s := testutil.StoreOf(twenty)
	opts := &Options{
		Disabled:     []parser.Kind{parser.KindAlter, parser.KindUpdate},
		DeleteShapes: []DeleteShape{DeleteWhere},
	}
	ec, rec := newContext(s, opts)

	res := mustExecute(t, ec, "ALTER TABLE temp_twenty ADD COLUMN T INTEGER")

	assert.Equal(t, res.Kind, parser.KindUnsupported)
	assert.Assert(t, !twenty.HasColumn("T"))
	assert.Assert(t, rec.has(LevelWarn, "Only DROP, CREATE, DELETE and SELECT are supported"))
}

func TestSelectNormalizes(t *testing.T) {
	s := testutil.StoreOf(testutil.CreateMatchingTable())
	ec, rec := newContext(s, cohortOptions())
	ec.SelectHook = func(t *schema.Table) []string {
		return []string{"Warning: hook ran"}
	}

	res := mustExecute(t, ec, "SELECT subject_id, with_psychosis, '2150-01-01' AS index_date FROM temp_eighteen ORDER BY subject_id")

	assert.Equal(t, res.Kind, parser.KindSelect)
	testutil.AssertColumnValues(t, res.Table, "with_psychosis", []interface{}{true, true, false, false, false, false, true}, "with_psychosis")
	testutil.AssertColumnType(t, res.Table, "index_date", schema.ColumnTypeDatetime, "index_date")
	assert.Equal(t, res.Table.Rows[0]["index_date"], time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Assert(t, rec.has(LevelWarn, "hook ran"))
	assert.Assert(t, rec.has(LevelInfo, "SELECT complete: query executed successfully (7 rows)"))

	// the stored table keeps its original tokens
	eighteen, _ := s.Get("temp_eighteen")
	assert.Equal(t, eighteen.Rows[1]["with_psychosis"], "TRUE")
}
