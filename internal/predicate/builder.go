// Package predicate compiles the condition of a generic DELETE statement into a row filter.
//
// The condition is parsed as the WHERE clause of "select 1 from t where <cond>" with
// github.com/xwb1989/sqlparser and then walked into a closure tree. Comparisons against a
// null operand are false, except inequality which is true.
package predicate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xwb1989/sqlparser"

	"github.com/leengari/cohort-sql/internal/domain/data"
	"github.com/leengari/cohort-sql/internal/domain/errors"
	"github.com/leengari/cohort-sql/internal/normalize"
)

// PredicateFunc is a function that tests whether a row matches certain criteria
type PredicateFunc func(data.Row) bool

// valueFunc produces an operand for a row
type valueFunc func(data.Row) interface{}

// Build parses cond and compiles it against the given column names.
// Column references resolve case-insensitively; an unknown column is an error.
// Supports:
//   - AND, OR, NOT and parentheses
//   - =, !=, <>, <, <=, >, >=, BETWEEN
//   - IN / NOT IN over literal lists, LIKE / NOT LIKE
//   - IS [NOT] NULL, IS [NOT] TRUE, IS [NOT] FALSE
func Build(cond string, columns []string) (PredicateFunc, error) {
	stmt, err := sqlparser.Parse("select 1 from t where " + cond)
	if err != nil {
		return nil, &errors.ParseError{Statement: cond, Verb: "DELETE", Reason: err.Error()}
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || sel.Where == nil {
		return nil, &errors.ParseError{Statement: cond, Verb: "DELETE", Reason: "condition is not a boolean expression"}
	}

	b := &builder{columns: make(map[string]string, len(columns))}
	for _, col := range columns {
		b.columns[strings.ToLower(col)] = col
	}
	return b.build(sel.Where.Expr)
}

type builder struct {
	columns map[string]string // lowercase -> actual
}

func (b *builder) build(expr sqlparser.Expr) (PredicateFunc, error) {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		left, err := b.build(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.build(e.Right)
		if err != nil {
			return nil, err
		}
		return func(row data.Row) bool {
			return left(row) && right(row)
		}, nil

	case *sqlparser.OrExpr:
		left, err := b.build(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.build(e.Right)
		if err != nil {
			return nil, err
		}
		return func(row data.Row) bool {
			return left(row) || right(row)
		}, nil

	case *sqlparser.NotExpr:
		inner, err := b.build(e.Expr)
		if err != nil {
			return nil, err
		}
		return func(row data.Row) bool {
			return !inner(row)
		}, nil

	case *sqlparser.ParenExpr:
		return b.build(e.Expr)

	case *sqlparser.ComparisonExpr:
		return b.buildComparison(e)

	case *sqlparser.RangeCond:
		return b.buildRange(e)

	case *sqlparser.IsExpr:
		return b.buildIs(e)

	case sqlparser.BoolVal:
		v := bool(e)
		return func(data.Row) bool { return v }, nil

	case *sqlparser.ColName:
		// bare flag column: WHERE with_psychosis
		get, err := b.column(e)
		if err != nil {
			return nil, err
		}
		return func(row data.Row) bool {
			return data.IsTrueFlag(get(row))
		}, nil

	case *sqlparser.Subquery, *sqlparser.ExistsExpr:
		return nil, fmt.Errorf("subqueries are not supported in DELETE conditions")

	default:
		return nil, fmt.Errorf("unsupported expression in DELETE condition: %s", sqlparser.String(expr))
	}
}

func (b *builder) buildComparison(e *sqlparser.ComparisonExpr) (PredicateFunc, error) {
	left, err := b.operand(e.Left)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case sqlparser.InStr, sqlparser.NotInStr:
		list, err := b.tuple(e.Right)
		if err != nil {
			return nil, err
		}
		negate := e.Operator == sqlparser.NotInStr
		return func(row data.Row) bool {
			v := left(row)
			if v == nil {
				return false
			}
			for _, item := range list {
				if equal(v, item) {
					return !negate
				}
			}
			return negate
		}, nil

	case sqlparser.LikeStr, sqlparser.NotLikeStr:
		right, err := b.operand(e.Right)
		if err != nil {
			return nil, err
		}
		pattern, ok := right(nil).(string)
		if !ok {
			return nil, fmt.Errorf("LIKE needs a string pattern")
		}
		re, err := likePattern(pattern)
		if err != nil {
			return nil, err
		}
		negate := e.Operator == sqlparser.NotLikeStr
		return func(row data.Row) bool {
			s, ok := left(row).(string)
			if !ok {
				return false
			}
			return re.MatchString(s) != negate
		}, nil
	}

	right, err := b.operand(e.Right)
	if err != nil {
		return nil, err
	}
	op := e.Operator
	switch op {
	case sqlparser.EqualStr, sqlparser.NotEqualStr, sqlparser.LessThanStr, sqlparser.LessEqualStr,
		sqlparser.GreaterThanStr, sqlparser.GreaterEqualStr:
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
	return func(row data.Row) bool {
		return compare(left(row), op, right(row))
	}, nil
}

func (b *builder) buildRange(e *sqlparser.RangeCond) (PredicateFunc, error) {
	val, err := b.operand(e.Left)
	if err != nil {
		return nil, err
	}
	from, err := b.operand(e.From)
	if err != nil {
		return nil, err
	}
	to, err := b.operand(e.To)
	if err != nil {
		return nil, err
	}
	negate := e.Operator == sqlparser.NotBetweenStr
	return func(row data.Row) bool {
		v := val(row)
		if v == nil {
			return false
		}
		in := compare(v, sqlparser.GreaterEqualStr, from(row)) && compare(v, sqlparser.LessEqualStr, to(row))
		return in != negate
	}, nil
}

func (b *builder) buildIs(e *sqlparser.IsExpr) (PredicateFunc, error) {
	val, err := b.operand(e.Expr)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case sqlparser.IsNullStr:
		return func(row data.Row) bool { return val(row) == nil }, nil
	case sqlparser.IsNotNullStr:
		return func(row data.Row) bool { return val(row) != nil }, nil
	case sqlparser.IsTrueStr:
		return func(row data.Row) bool { return data.IsTrueFlag(val(row)) }, nil
	case sqlparser.IsNotTrueStr:
		return func(row data.Row) bool { return !data.IsTrueFlag(val(row)) }, nil
	case sqlparser.IsFalseStr:
		return func(row data.Row) bool { return data.IsFalseFlag(val(row)) }, nil
	case sqlparser.IsNotFalseStr:
		return func(row data.Row) bool { return !data.IsFalseFlag(val(row)) }, nil
	}
	return nil, fmt.Errorf("unsupported IS operator %q", e.Operator)
}

// operand compiles a column reference or literal
func (b *builder) operand(expr sqlparser.Expr) (valueFunc, error) {
	switch e := expr.(type) {
	case *sqlparser.ColName:
		return b.column(e)
	case *sqlparser.ParenExpr:
		return b.operand(e.Expr)
	case *sqlparser.UnaryExpr:
		if e.Operator != sqlparser.UMinusStr {
			return nil, fmt.Errorf("unsupported unary operator %q", e.Operator)
		}
		inner, err := b.operand(e.Expr)
		if err != nil {
			return nil, err
		}
		switch v := inner(nil).(type) {
		case int64:
			return constant(-v), nil
		case float64:
			return constant(-v), nil
		}
		return nil, fmt.Errorf("unary minus needs a numeric literal")
	}

	v, err := literal(expr)
	if err != nil {
		return nil, err
	}
	return constant(v), nil
}

func (b *builder) column(c *sqlparser.ColName) (valueFunc, error) {
	// qualified references use the column part only
	name, ok := b.columns[strings.ToLower(c.Name.String())]
	if !ok {
		return nil, &errors.ColumnNotFoundError{ColumnName: c.Name.String()}
	}
	return func(row data.Row) interface{} {
		return row[name]
	}, nil
}

func (b *builder) tuple(expr sqlparser.Expr) ([]interface{}, error) {
	switch e := expr.(type) {
	case sqlparser.ValTuple:
		values := make([]interface{}, 0, len(e))
		for _, item := range e {
			get, err := b.operand(item)
			if err != nil {
				return nil, err
			}
			if _, isCol := item.(*sqlparser.ColName); isCol {
				return nil, fmt.Errorf("IN list must contain literals")
			}
			values = append(values, get(nil))
		}
		return values, nil
	case *sqlparser.Subquery:
		return nil, fmt.Errorf("subqueries are not supported in DELETE conditions")
	}
	return nil, fmt.Errorf("unsupported IN operand: %s", sqlparser.String(expr))
}

func constant(v interface{}) valueFunc {
	return func(data.Row) interface{} { return v }
}

// literal converts a parsed literal to a cell value
func literal(expr sqlparser.Expr) (interface{}, error) {
	switch e := expr.(type) {
	case *sqlparser.SQLVal:
		switch e.Type {
		case sqlparser.StrVal:
			return string(e.Val), nil
		case sqlparser.IntVal:
			n, err := strconv.ParseInt(string(e.Val), 10, 64)
			if err != nil {
				return nil, err
			}
			return n, nil
		case sqlparser.FloatVal:
			f, err := strconv.ParseFloat(string(e.Val), 64)
			if err != nil {
				return nil, err
			}
			return f, nil
		}
		return nil, fmt.Errorf("unsupported literal %s", sqlparser.String(e))
	case *sqlparser.NullVal:
		return nil, nil
	case sqlparser.BoolVal:
		return bool(e), nil
	}
	return nil, fmt.Errorf("unsupported operand: %s", sqlparser.String(expr))
}

// compare applies a comparison operator to two cells.
// Null operands make every operator false except inequality.
func compare(a interface{}, op string, b interface{}) bool {
	if op == sqlparser.NotEqualStr {
		return !equal(a, b)
	}
	if a == nil || b == nil {
		return false
	}
	if op == sqlparser.EqualStr {
		return equal(a, b)
	}

	a, b = align(a, b)
	c, ok := data.Compare(a, b)
	if !ok {
		return false
	}
	switch op {
	case sqlparser.LessThanStr:
		return c < 0
	case sqlparser.LessEqualStr:
		return c <= 0
	case sqlparser.GreaterThanStr:
		return c > 0
	case sqlparser.GreaterEqualStr:
		return c >= 0
	}
	return false
}

func equal(a, b interface{}) bool {
	a, b = align(a, b)
	return data.Equal(a, b)
}

// align converts a string operand to the kind of the other operand, as SQLite column
// affinity does: numeric-looking text against a number, datetime text against a datetime.
func align(a, b interface{}) (interface{}, interface{}) {
	a, b = alignNumbers(a, b)
	return alignTimes(a, b)
}

// alignNumbers parses a string operand as a number when the other operand is one
func alignNumbers(a, b interface{}) (interface{}, interface{}) {
	if data.IsNumeric(a) {
		if s, ok := b.(string); ok {
			if f, ok := numericText(s); ok {
				return a, f
			}
		}
	}
	if data.IsNumeric(b) {
		if s, ok := a.(string); ok {
			if f, ok := numericText(s); ok {
				return f, b
			}
		}
	}
	return a, b
}

func numericText(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// alignTimes parses a string operand as a datetime when the other operand is one
func alignTimes(a, b interface{}) (interface{}, interface{}) {
	if _, ok := a.(time.Time); ok {
		if s, ok := b.(string); ok {
			if t, ok := normalize.ParseDateTime(s); ok {
				return a, t
			}
		}
	}
	if _, ok := b.(time.Time); ok {
		if s, ok := a.(string); ok {
			if t, ok := normalize.ParseDateTime(s); ok {
				return t, b
			}
		}
	}
	return a, b
}

// likePattern translates a SQL LIKE pattern into an anchored regexp.
// Matching is case-insensitive, as in SQLite.
func likePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
