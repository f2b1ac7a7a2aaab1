package executor

import (
	"regexp"
	"strings"

	"github.com/leengari/cohort-sql/internal/domain/data"
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/predicate"
)

// DeleteShape is one recognized DELETE statement form
type DeleteShape struct {
	Name  string
	Match func(stmt, upper string) bool
	Apply func(ec *Context, stmt string)
}

// DeleteSameDayPsychosis removes temp_eight subjects whose last admission is the index
// admission and who carry the psychosis flag
var DeleteSameDayPsychosis = DeleteShape{
	Name: "temp_eight_join_temp_nine",
	Match: func(_, upper string) bool {
		return strings.Contains(upper, "DELETE FROM TEMP_EIGHT") && strings.Contains(upper, "JOIN TEMP_NINE")
	},
	Apply: func(ec *Context, _ string) {
		deleteJoined(ec, "temp_eight", "temp_nine", "_nine", func(r data.JoinedRow) bool {
			return data.Equal(r.Value("last_date"), r.Value("index_date")) && data.IsTrueFlag(r.Value("with_psychosis"))
		})
	},
}

// DeleteSameDayStroke removes temp_eleven subjects whose first stroke falls on the index date
var DeleteSameDayStroke = DeleteShape{
	Name: "temp_eleven_join_temp_ten",
	Match: func(_, upper string) bool {
		return strings.Contains(upper, "DELETE FROM TEMP_ELEVEN") && strings.Contains(upper, "JOIN TEMP_TEN")
	},
	Apply: func(ec *Context, _ string) {
		deleteJoined(ec, "temp_eleven", "temp_ten", "_ten", func(r data.JoinedRow) bool {
			return data.Equal(r.Value("first_date_ischemic_stroke"), r.Value("index_date"))
		})
	},
}

// DeleteUnmatchedControls removes control rows of temp_eighteen that share (gender, age)
// with no case row
var DeleteUnmatchedControls = DeleteShape{
	Name: "temp_eighteen_not_exists",
	Match: func(_, upper string) bool {
		return strings.Contains(upper, "DELETE FROM TEMP_EIGHTEEN") && strings.Contains(upper, "NOT EXISTS")
	},
	Apply: deleteUnmatchedControls,
}

var inSubqueryPattern = regexp.MustCompile(`(?is)^DELETE\s+FROM\s+(\w+)\s+WHERE\s+(\w+)\s+IN\s+\(SELECT\s+(\w+)\s+FROM\s+(\w+)\)`)

// DeleteInSubquery handles DELETE FROM t WHERE col IN (SELECT col2 FROM t2)
var DeleteInSubquery = DeleteShape{
	Name: "in_subquery",
	Match: func(stmt, _ string) bool {
		return inSubqueryPattern.MatchString(stmt)
	},
	Apply: deleteInSubquery,
}

var wherePattern = regexp.MustCompile(`(?is)^DELETE\s+FROM\s+(\w+)\s+WHERE\s+(.+)`)

// DeleteWhere handles DELETE FROM t WHERE <condition>
var DeleteWhere = DeleteShape{
	Name: "where",
	Match: func(stmt, _ string) bool {
		return wherePattern.MatchString(stmt)
	},
	Apply: deleteWhere,
}

// CohortDeleteShapes is the full ordered list of DELETE forms
var CohortDeleteShapes = []DeleteShape{
	DeleteSameDayPsychosis,
	DeleteSameDayStroke,
	DeleteUnmatchedControls,
	DeleteInSubquery,
	DeleteWhere,
}

func executeDelete(ec *Context, stmt string) {
	upper := strings.ToUpper(stmt)
	for _, shape := range ec.Options.DeleteShapes {
		if shape.Match(stmt, upper) {
			shape.Apply(ec, stmt)
			return
		}
	}
	ec.warn("DELETE statement format not supported.")
}

// deleteJoined inner-joins left and right on subject_id and removes every left row whose
// subject_id appears in a joined row satisfying cond
func deleteJoined(ec *Context, leftName, rightName, suffix string, cond func(data.JoinedRow) bool) {
	left, okLeft := ec.Store.Get(leftName)
	right, okRight := ec.Store.Get(rightName)
	if !okLeft || !okRight {
		ec.warn("Cannot find %s or %s.", leftName, rightName)
		return
	}

	bySubject := make(map[interface{}][]data.Row)
	for _, r := range right.Rows {
		if r["subject_id"] == nil {
			continue
		}
		k := cellKey(r["subject_id"])
		bySubject[k] = append(bySubject[k], r)
	}

	doomed := make(map[interface{}]bool)
	for _, l := range left.Rows {
		if l["subject_id"] == nil {
			continue
		}
		k := cellKey(l["subject_id"])
		for _, r := range bySubject[k] {
			if cond(data.NewJoinedRow(l, r, suffix)) {
				doomed[k] = true
				break
			}
		}
	}

	n := left.Delete(func(row data.Row) bool {
		return row["subject_id"] != nil && doomed[cellKey(row["subject_id"])]
	})
	ec.info("DELETE complete: deleted %d row(s) meeting the condition from %s", n, leftName)
}

func deleteUnmatchedControls(ec *Context, _ string) {
	t, ok := ec.Store.Get("temp_eighteen")
	if !ok {
		ec.warn("Cannot find temp_eighteen.")
		return
	}

	var cases []data.Row
	for _, row := range t.Rows {
		if data.IsTrueFlag(row["with_psychosis"]) {
			cases = append(cases, row)
		}
	}
	matched := func(row data.Row) bool {
		for _, c := range cases {
			if data.Equal(c["gender"], row["gender"]) && data.Equal(c["age"], row["age"]) {
				return true
			}
		}
		return false
	}

	n := t.Delete(func(row data.Row) bool {
		return data.IsFalseFlag(row["with_psychosis"]) && !matched(row)
	})
	ec.info("DELETE complete: deleted %d row(s) meeting the condition from temp_eighteen", n)
}

func deleteInSubquery(ec *Context, stmt string) {
	m := inSubqueryPattern.FindStringSubmatch(stmt)
	tableName, column, innerColumn, innerName := m[1], m[2], m[3], m[4]

	t, okOuter := ec.Store.Get(tableName)
	inner, okInner := ec.Store.Get(innerName)
	if !okOuter || !okInner {
		ec.warn("Cannot find %s or %s.", tableName, innerName)
		return
	}
	if !t.HasColumn(column) || !inner.HasColumn(innerColumn) {
		ec.warn("Column %s or %s.%s not found.", column, innerName, innerColumn)
		return
	}

	n := t.Delete(func(row data.Row) bool {
		return containsValue(inner, innerColumn, row[column])
	})
	ec.info("DELETE complete: deleted %d row(s) from %s where %s exists in %s", n, tableName, column, innerName)
}

func deleteWhere(ec *Context, stmt string) {
	m := wherePattern.FindStringSubmatch(stmt)
	tableName, cond := m[1], strings.TrimSpace(m[2])

	t, ok := ec.Store.Get(tableName)
	if !ok {
		ec.warn("Cannot find %s.", tableName)
		return
	}
	pred, err := predicate.Build(cond, t.ColumnNames())
	if err != nil {
		ec.warn("Delete operation failed, condition parsing error: %v", err)
		return
	}

	n := t.Delete(pred)
	ec.info("DELETE complete: deleted %d row(s) from %s meeting condition '%s'", n, tableName, cond)
}

func containsValue(t *schema.Table, column string, v interface{}) bool {
	if v == nil {
		return false
	}
	for _, row := range t.Rows {
		if data.Equal(row[column], v) {
			return true
		}
	}
	return false
}
