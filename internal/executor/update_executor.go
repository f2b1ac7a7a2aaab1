package executor

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/leengari/cohort-sql/internal/domain/data"
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/normalize"
	"github.com/leengari/cohort-sql/internal/parser"
)

// UpdateShape is one recognized UPDATE statement form
type UpdateShape struct {
	Name  string
	Match func(upper string) bool
	Apply func(ec *Context, table string)
}

// UpdateEventDateFromAdmitYear fills a null event_date with December 31 of the subject's
// admission year from temp_fifteen
var UpdateEventDateFromAdmitYear = UpdateShape{
	Name: "event_date_from_admit_year",
	Match: func(upper string) bool {
		return strings.Contains(upper, "SET EVENT_DATE =") && strings.Contains(upper, "FROM TEMP_FIFTEEN")
	},
	Apply: updateEventDateFromAdmitYear,
}

// UpdateEventDateFromDeath fills a null event_date with the subject's date of death
var UpdateEventDateFromDeath = UpdateShape{
	Name: "event_date_from_death",
	Match: func(upper string) bool {
		return strings.Contains(upper, "SET EVENT_DATE =") && strings.Contains(upper, "DEATH_DATE")
	},
	Apply: updateEventDateFromDeath,
}

// UpdateSurvivalTime sets T to the whole days between index_date and event_date.
// It matches any UPDATE and must come last.
var UpdateSurvivalTime = UpdateShape{
	Name:  "survival_time",
	Match: func(string) bool { return true },
	Apply: updateSurvivalTime,
}

// CohortUpdateShapes is the full ordered list of UPDATE forms
var CohortUpdateShapes = []UpdateShape{
	UpdateEventDateFromAdmitYear,
	UpdateEventDateFromDeath,
	UpdateSurvivalTime,
}

func executeUpdate(ec *Context, stmt string) {
	upper := strings.ToUpper(stmt)
	table := parser.Unquote(parser.Token(stmt, 1))
	for _, shape := range ec.Options.UpdateShapes {
		if shape.Match(upper) {
			shape.Apply(ec, table)
			return
		}
	}
	ec.warn("UPDATE statement format not supported.")
}

// eventDateTarget returns the table to update when it exists and has an event_date column
func eventDateTarget(ec *Context, name string) (*schema.Table, bool) {
	t, ok := ec.Store.Get(name)
	if !ok || !t.HasColumn("event_date") {
		ec.warn("Table %s or event_date column not found.", name)
		return nil, false
	}
	return t, true
}

func updateEventDateFromAdmitYear(ec *Context, name string) {
	t, ok := eventDateTarget(ec, name)
	if !ok {
		return
	}
	fifteen, ok := ec.Store.Get("temp_fifteen")
	if !ok {
		ec.warn("temp_fifteen table not found.")
		return
	}
	if !fifteen.HasColumn("subject_id") || !fifteen.HasColumn("admit_year") {
		ec.warn("temp_fifteen missing subject_id or admit_year columns.")
		return
	}

	for _, row := range t.Rows {
		if row["event_date"] != nil {
			continue
		}
		match := firstMatch(fifteen, "subject_id", row["subject_id"])
		if match == nil {
			continue
		}
		row["event_date"] = yearEnd(match["admit_year"])
	}
	t.SetColumnType("event_date", schema.ColumnTypeDatetime)
	ec.info("UPDATE: event_date in %s updated based on temp_fifteen.admit_year", name)
}

func updateEventDateFromDeath(ec *Context, name string) {
	t, ok := eventDateTarget(ec, name)
	if !ok {
		return
	}
	patientsName := ec.Options.PatientsTable
	patients, ok := ec.Store.Get(patientsName)
	if !ok {
		ec.warn("%s table not found.", patientsName)
		return
	}

	deaths := make(map[interface{}]time.Time)
	for _, p := range patients.Rows {
		dod, ok := normalize.ParseDateTime(p["dod"])
		if !ok || p["subject_id"] == nil {
			continue
		}
		if _, seen := deaths[cellKey(p["subject_id"])]; !seen {
			deaths[cellKey(p["subject_id"])] = time.Date(dod.Year(), dod.Month(), dod.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	for _, row := range t.Rows {
		if row["event_date"] != nil || row["subject_id"] == nil {
			continue
		}
		if death, ok := deaths[cellKey(row["subject_id"])]; ok {
			row["event_date"] = death
		}
	}
	t.SetColumnType("event_date", schema.ColumnTypeDatetime)
	ec.info("UPDATE: event_date in %s updated based on %s.dod (%d subjects with a date of death)", name, patientsName, len(deaths))
}

func updateSurvivalTime(ec *Context, name string) {
	t, ok := ec.Store.Get(name)
	if !ok {
		ec.warn("Table %s not found.", name)
		return
	}
	if !t.HasColumn("event_date") || !t.HasColumn("index_date") {
		ec.warn("event_date or index_date columns not found in %s.", name)
		return
	}

	normalize.CoerceDatetime(t, "event_date")
	normalize.CoerceDatetime(t, "index_date")
	t.AddColumn("T", schema.ColumnTypeNumeric)
	t.SetColumnType("T", schema.ColumnTypeNumeric)

	for _, row := range t.Rows {
		event, okEvent := row["event_date"].(time.Time)
		index, okIndex := row["index_date"].(time.Time)
		if !okEvent || !okIndex {
			row["T"] = nil
			continue
		}
		row["T"] = int64(math.Floor(event.Sub(index).Hours() / 24))
	}
	ec.info("UPDATE: T column in %s updated", name)
}

// firstMatch returns the first row of t whose column equals v
func firstMatch(t *schema.Table, column string, v interface{}) data.Row {
	for _, row := range t.Rows {
		if data.Equal(row[column], v) {
			return row
		}
	}
	return nil
}

// yearEnd builds December 31 of a year cell; whole floats are read as integers
func yearEnd(v interface{}) interface{} {
	var year int
	switch y := v.(type) {
	case int64:
		year = int(y)
	case float64:
		if y != math.Trunc(y) {
			return nil
		}
		year = int(y)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
		if err != nil || f != math.Trunc(f) {
			return nil
		}
		year = int(f)
	default:
		return nil
	}
	if year < 1 || year > 9999 {
		return nil
	}
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// cellKey maps numerically equal cells onto one map key
func cellKey(v interface{}) interface{} {
	if f, ok := data.ToFloat(v); ok {
		return f
	}
	return v
}
