package dialect

import (
	"fmt"

	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// CompileInsert renders an INSERT whose VALUES clause is a single placeholder
// tuple built from the first parameter row, whatever the number of rows.
//
// The driver's bulk path runs one templated statement per row, so the bound
// values of every row stay in the compiled parameter list, flattened in row
// order, while the text carries only one tuple.
//
// Every row must therefore share row 0's shape: literal expressions in the
// same positions with the same text.
func CompileInsert(c *dialect.Compiler, ins *dialect.Insert) (string, error) {
	if err := checkUniformRows(ins); err != nil {
		return "", err
	}
	return c.BuildInsert(ins, singleTupleValues)
}

func checkUniformRows(ins *dialect.Insert) error {
	if !ins.Multi() {
		return nil
	}
	first := ins.Rows[0]
	for i, row := range ins.Rows[1:] {
		if len(row) != len(first) {
			continue // reported by the row/column count check
		}
		for j, v := range row {
			if v.IsExpr() != first[j].IsExpr() || v.ExprSQL() != first[j].ExprSQL() {
				col := fmt.Sprintf("%d", j)
				if j < len(ins.Columns) {
					col = ins.Columns[j]
				}
				return &dialect.CompileError{Message: fmt.Sprintf(
					"The '%s' dialect requires every row of a multirow insert to match the first row; "+
						"row %d differs at column %s", Name, i+1, col)}
			}
		}
	}
	return nil
}

func singleTupleValues(c *dialect.Compiler, rows [][]dialect.CrudParam, _ bool) string {
	var expr string
	if len(rows) > 0 {
		expr = dialect.JoinExprs(rows[0])
	}
	if c.Depth() == 1 {
		c.SetInsertSingleValuesExpr(expr)
	}
	return "VALUES (" + expr + ")"
}
