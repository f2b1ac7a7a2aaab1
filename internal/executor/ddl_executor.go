package executor

import (
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/normalize"
	"github.com/leengari/cohort-sql/internal/parser"
)

// executeCreate runs the query body and stores the result under the target name,
// replacing any previous table of that name
func executeCreate(ec *Context, stmt string) error {
	create, err := parser.ParseCreate(stmt)
	if err != nil {
		return err
	}

	result, err := ec.Engine.Query(ec.Ctx, create.Query, ec.Store)
	if err != nil {
		return err
	}
	if ec.Options.CoerceOnCreate {
		ec.warnAll(normalize.CoerceTimeColumns(result))
	}

	ec.Store.Delete(create.Table)
	ec.Store.Put(create.Table, result)
	ec.info("CREATE complete: table %s created", create.Table)
	return nil
}

// executeDrop removes the named table; dropping an absent table is a no-op
func executeDrop(ec *Context, stmt string) {
	name := parser.ParseDrop(stmt)
	if ec.Store.Delete(name) {
		ec.info("DROP: table %s dropped", name)
		return
	}
	if ec.Options.ReportMissingDrop {
		ec.info("DROP: table %s does not exist, nothing to do", name)
	}
}

// executeAlter adds a null-filled column. An existing column is left as is.
func executeAlter(ec *Context, stmt string) {
	alter, err := parser.ParseAlter(stmt)
	if err != nil {
		ec.warn("ALTER TABLE statement format not supported.")
		return
	}

	table, ok := ec.Store.Get(alter.Table)
	if !ok {
		ec.warn("Table %s not found.", alter.Table)
		return
	}
	if table.AddColumn(alter.Column, schema.ParseColumnType(alter.ColumnType)) {
		ec.info("ALTER TABLE: added column %s to %s", alter.Column, alter.Table)
	}
}
