package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leengari/cohort-sql/internal/engine"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/testutil"
)

func day(d int) time.Time {
	return time.Date(2150, 1, d, 0, 0, 0, 0, time.UTC)
}

// stepIndex finds a built-in step by name
func stepIndex(t *testing.T, st *pipeline.State, name string) int {
	t.Helper()
	for _, s := range st.Steps {
		if s.Name == name {
			return s.Index
		}
	}
	t.Fatalf("no step named %q", name)
	return -1
}

func TestDiseaseMatchingAndSurvivalTime(t *testing.T) {
	seventeen := testutil.BuildTable("temp_seventeen",
		[]string{"subject_id", "gender", "event_date", "index_date", "with_psychosis", "E", "age"},
		[]interface{}{int64(1), int64(0), day(11), day(1), true, true, int64(40)},
		[]interface{}{int64(2), int64(1), time.Date(2150, 2, 1, 0, 0, 0, 0, time.UTC), day(1), "TRUE", "FALSE", int64(55)},
		[]interface{}{int64(3), int64(0), day(5), day(1), false, "TRUE", int64(40)},
		[]interface{}{int64(4), int64(0), day(9), day(1), false, false, int64(41)},
		[]interface{}{int64(5), int64(1), nil, day(1), "FALSE", false, int64(55)},
		[]interface{}{int64(6), int64(1), day(3), day(1), false, false, nil},
	)
	st := pipeline.NewState(pipeline.Disease(), testutil.StoreOf(seventeen), nil)
	matching := stepIndex(t, st, "Step 18")
	require.Equal(t, 30, matching)

	_, err := engine.New(nil).RunRange(context.Background(), st, matching, matching+2)
	require.NoError(t, err)

	matched := st.Steps[matching].Output
	require.ElementsMatch(t, []interface{}{int64(1), int64(2), int64(3), int64(5)}, column(matched, "subject_id"))
	for _, r := range matched.Rows {
		require.IsType(t, true, r["with_psychosis"])
		require.IsType(t, true, r["E"])
	}
	require.Contains(t, st.Steps[matching].Messages(), "DELETE complete: deleted 2 row(s) meeting the condition from temp_eighteen")

	survival := st.Steps[matching+1].Output
	require.Equal(t, []string{"subject_id", "gender", "event_date", "index_date", "with_psychosis", "E", "age", "T"}, survival.ColumnNames())
	byID := map[int64]interface{}{}
	for _, r := range survival.Rows {
		byID[r["subject_id"].(int64)] = r["T"]
	}
	require.Equal(t, map[int64]interface{}{1: int64(10), 2: int64(31), 3: int64(4), 5: nil}, byID)
	require.Contains(t, st.Steps[matching+1].Messages(), "ALTER TABLE: added column T to temp_nineteen")
	require.Contains(t, st.Steps[matching+1].Messages(), "UPDATE: T column in temp_nineteen updated")
}

func TestDiseaseProfileDefaults(t *testing.T) {
	st := pipeline.NewState(pipeline.Disease(), nil, nil)
	require.Equal(t, 36, st.Len())
	require.Equal(t, "", st.Steps[12].Subtitle)
	require.NotEqual(t, "", st.Steps[13].Subtitle)

	drug := pipeline.NewState(pipeline.Drug(), nil, nil)
	require.Equal(t, 8, drug.Len())
	require.Equal(t, "", drug.Steps[0].Subtitle)
	require.NotEqual(t, "", drug.Steps[1].Subtitle)
}
