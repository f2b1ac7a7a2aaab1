package executor

import (
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/normalize"
)

// executeSelect runs a read-only query and normalizes the result.
// The store is not modified.
func executeSelect(ec *Context, stmt string) (*schema.Table, error) {
	result, err := ec.Engine.Query(ec.Ctx, stmt, ec.Store)
	if err != nil {
		return nil, err
	}

	ec.warnAll(normalize.CoerceTimeColumns(result))
	if len(ec.Options.BoolColumns) > 0 {
		ec.warnAll(normalize.CoerceBoolColumns(result, ec.Options.BoolColumns...))
	}
	if ec.SelectHook != nil {
		ec.warnAll(ec.SelectHook(result))
	}

	ec.info("SELECT complete: query executed successfully (%d rows)", result.Len())
	return result, nil
}
