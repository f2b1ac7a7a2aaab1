package parser

import (
	stderrors "errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/cohort-sql/internal/domain/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		stmt string
		want Kind
	}{
		{"DROP TABLE IF EXISTS temp_one", KindDrop},
		{"drop table if exists temp_one", KindDrop},
		{"DROP TABLE temp_one", KindUnsupported},
		{"CREATE TEMP TABLE temp_one AS SELECT 1", KindCreate},
		{"create table temp_one as select 1", KindCreate},
		{"ALTER TABLE temp_two ADD COLUMN T INTEGER", KindAlter},
		{"UPDATE temp_two SET T = 1", KindUpdate},
		{"DELETE FROM temp_two WHERE T < 0", KindDelete},
		{"SELECT * FROM temp_two", KindSelect},
		{"select\n*\nfrom temp_two", KindSelect},
		{"INSERT INTO temp_two VALUES (1)", KindUnsupported},
		{"WITH x AS (SELECT 1) SELECT * FROM x", KindUnsupported},
		{"SELECTION", KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Equal(t, Classify(tt.stmt), tt.want)
		})
	}
}

func TestSplitStatements(t *testing.T) {
	text := "\n  DROP TABLE IF EXISTS a;\n\nCREATE TABLE a AS SELECT 1 ;  ;\nSELECT * FROM a\n"

	got := SplitStatements(text)

	assert.DeepEqual(t, got, []string{
		"DROP TABLE IF EXISTS a",
		"CREATE TABLE a AS SELECT 1",
		"SELECT * FROM a",
	})
	assert.Equal(t, len(SplitStatements(" ; ;\n")), 0)
}

func TestParseCreate(t *testing.T) {
	stmt, err := ParseCreate("CREATE TEMP TABLE temp_one AS\nSELECT subject_id\nFROM mimiciv_hosp_admissions")
	assert.NilError(t, err)
	assert.Equal(t, stmt.Table, "temp_one")
	assert.Equal(t, stmt.Query, "SELECT subject_id\nFROM mimiciv_hosp_admissions")

	stmt, err = ParseCreate(`create table "quoted" as select 1`)
	assert.NilError(t, err)
	assert.Equal(t, stmt.Table, "quoted")
}

func TestParseCreateWithoutAs(t *testing.T) {
	_, err := ParseCreate("CREATE TABLE temp_one SELECT 1")

	var parseErr *errors.ParseError
	assert.Assert(t, stderrors.As(err, &parseErr))
	assert.Equal(t, parseErr.Verb, "CREATE")
}

func TestParseDrop(t *testing.T) {
	assert.Equal(t, ParseDrop("DROP TABLE IF EXISTS temp_one"), "temp_one")
	assert.Equal(t, ParseDrop("drop table if exists `temp_two`"), "temp_two")
}

func TestParseAlter(t *testing.T) {
	stmt, err := ParseAlter(`ALTER TABLE temp_twenty ADD COLUMN "E" BOOLEAN`)
	assert.NilError(t, err)
	assert.DeepEqual(t, *stmt, AlterStatement{Table: "temp_twenty", Column: "E", ColumnType: "BOOLEAN"})

	stmt, err = ParseAlter("alter table temp_twenty add column T integer")
	assert.NilError(t, err)
	assert.Equal(t, stmt.Column, "T")
	assert.Equal(t, stmt.ColumnType, "integer")

	_, err = ParseAlter("ALTER TABLE temp_twenty RENAME TO temp_x")
	assert.ErrorContains(t, err, "ADD COLUMN")
}

func TestToken(t *testing.T) {
	assert.Equal(t, Token("UPDATE temp_twenty SET T = 1", 1), "temp_twenty")
	assert.Equal(t, Token("UPDATE", 1), "")
	assert.Equal(t, LastToken(""), "")
}
