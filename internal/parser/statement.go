// Package parser splits step text into statements, classifies each statement by its
// leading keywords and extracts the targets the statement handlers need.
//
// The dialect is shallow. Only the prefix of a statement is inspected;
// bodies of CREATE and SELECT are handed to the query engine verbatim.
package parser

import (
	"regexp"
	"strings"

	"github.com/leengari/cohort-sql/internal/domain/errors"
)

// Kind identifies which handler a statement is dispatched to
type Kind int

const (
	KindUnsupported Kind = iota
	KindDrop
	KindCreate
	KindAlter
	KindUpdate
	KindDelete
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindDrop:
		return "DROP"
	case KindCreate:
		return "CREATE"
	case KindAlter:
		return "ALTER"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindSelect:
		return "SELECT"
	}
	return "UNSUPPORTED"
}

// prefixes in dispatch priority; the first match wins
var prefixes = []struct {
	words []string
	kind  Kind
}{
	{[]string{"DROP", "TABLE", "IF", "EXISTS"}, KindDrop},
	{[]string{"CREATE", "TEMP", "TABLE"}, KindCreate},
	{[]string{"CREATE", "TABLE"}, KindCreate},
	{[]string{"ALTER", "TABLE"}, KindAlter},
	{[]string{"UPDATE"}, KindUpdate},
	{[]string{"DELETE"}, KindDelete},
	{[]string{"SELECT"}, KindSelect},
}

// Classify returns the handler kind for a trimmed statement.
// Matching is case-insensitive on whole leading words.
func Classify(stmt string) Kind {
	fields := strings.Fields(stmt)
	for _, p := range prefixes {
		if hasPrefixWords(fields, p.words) {
			return p.kind
		}
	}
	return KindUnsupported
}

func hasPrefixWords(fields, words []string) bool {
	if len(fields) < len(words) {
		return false
	}
	for i, w := range words {
		if !strings.EqualFold(fields[i], w) {
			return false
		}
	}
	return true
}

// SplitStatements splits step text on ';', trims every piece and drops empty ones.
// Semicolons inside string literals are not special.
func SplitStatements(text string) []string {
	var stmts []string
	for _, part := range strings.Split(text, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// Token returns the n-th (zero-based) whitespace-separated token of stmt, or "" when absent
func Token(stmt string, n int) string {
	fields := strings.Fields(stmt)
	if n < 0 || n >= len(fields) {
		return ""
	}
	return fields[n]
}

// LastToken returns the final whitespace-separated token of stmt
func LastToken(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Unquote strips one layer of SQL identifier quoting
func Unquote(ident string) string {
	if len(ident) >= 2 {
		first, last := ident[0], ident[len(ident)-1]
		if (first == '"' && last == '"') || (first == '`' && last == '`') || (first == '[' && last == ']') {
			return ident[1 : len(ident)-1]
		}
	}
	return ident
}

var createPattern = regexp.MustCompile(`(?is)^CREATE\s+(?:TEMP\s+)?TABLE\s+(\S+)\s+AS\s+(.*)$`)

// CreateStatement is a parsed CREATE [TEMP] TABLE <name> AS <query>
type CreateStatement struct {
	Table string
	Query string
}

// ParseCreate extracts the target table and query body of a CREATE statement
func ParseCreate(stmt string) (*CreateStatement, error) {
	m := createPattern.FindStringSubmatch(strings.TrimSpace(stmt))
	if m == nil {
		return nil, &errors.ParseError{Statement: stmt, Verb: "CREATE", Reason: "expected CREATE TABLE <name> AS <query>"}
	}
	body := strings.TrimSpace(m[2])
	if body == "" {
		return nil, &errors.ParseError{Statement: stmt, Verb: "CREATE", Reason: "empty query after AS"}
	}
	return &CreateStatement{Table: Unquote(m[1]), Query: body}, nil
}

// ParseDrop returns the table named by a DROP TABLE IF EXISTS statement
func ParseDrop(stmt string) string {
	return Unquote(LastToken(stmt))
}

var alterPattern = regexp.MustCompile(`(?i)ADD\s+COLUMN\s+["']?(\w+)["']?\s+(\w+)`)

// AlterStatement is a parsed ALTER TABLE <name> ADD COLUMN <col> <type>
type AlterStatement struct {
	Table      string
	Column     string
	ColumnType string
}

// ParseAlter extracts table, column and type token of an ADD COLUMN statement
func ParseAlter(stmt string) (*AlterStatement, error) {
	table := Token(stmt, 2)
	if table == "" {
		return nil, &errors.ParseError{Statement: stmt, Verb: "ALTER", Reason: "missing table name"}
	}
	m := alterPattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil, &errors.ParseError{Statement: stmt, Verb: "ALTER", Reason: "expected ADD COLUMN <name> <type>"}
	}
	return &AlterStatement{Table: Unquote(table), Column: m[1], ColumnType: m[2]}, nil
}
