package dialect

import "strings"

// TableName identifies a table, optionally qualified by schema.
type TableName struct {
	Schema string
	Name   string
}

// ParseTableName splits "schema.table" at the first dot.
func ParseTableName(s string) TableName {
	if schema, name, ok := strings.Cut(s, "."); ok {
		return TableName{Schema: schema, Name: name}
	}
	return TableName{Name: s}
}

func (t TableName) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Value is one cell of an INSERT row: either a bound parameter or literal SQL.
type Value struct {
	param  any
	expr   string
	isExpr bool
}

// Param binds v as a statement parameter.
func Param(v any) Value {
	return Value{param: v}
}

// Expr inlines sql verbatim, e.g. "CURRENT_TIMESTAMP".
func Expr(sql string) Value {
	return Value{expr: sql, isExpr: true}
}

// IsExpr reports whether the value is literal SQL.
func (v Value) IsExpr() bool {
	return v.isExpr
}

// ExprSQL returns the literal SQL of an expression value, or "" for a bound
// parameter.
func (v Value) ExprSQL() string {
	return v.expr
}

// Rows converts plain value rows into bound-parameter rows.
func Rows(rows ...[]any) [][]Value {
	out := make([][]Value, len(rows))
	for i, row := range rows {
		out[i] = make([]Value, len(row))
		for j, v := range row {
			out[i][j] = Param(v)
		}
	}
	return out
}

// Prefix is a keyword rendered between INSERT and INTO. An empty Dialect
// applies it to every dialect.
type Prefix struct {
	Text    string
	Dialect string
}

// CTE is a named common table expression rendered in a WITH clause.
type CTE struct {
	Name   string
	SQL    string
	Params []any
}

// Insert is an INSERT statement.
//
// Rows holds one parameter set per row; more than one row compiles as a
// multi-row insert. With no Rows and no Select the statement is an empty
// insert, rendered as DEFAULT VALUES where the dialect supports it.
type Insert struct {
	Table    TableName
	Prefixes []Prefix
	// Hints maps a dialect name, or "*" for any, to text placed after the
	// table name.
	Hints   map[string]string
	Columns []string
	Rows    [][]Value

	// Select makes the statement INSERT ... SELECT; Columns names the
	// target columns and Rows must be empty.
	Select       string
	SelectParams []any

	// Returning lists columns for an explicit RETURNING clause.
	Returning []string
	// ReturnDefaults asks for server-generated values of single-row inserts
	// via RETURNING when the dialect supports it.
	ReturnDefaults []string

	PostValues string
	CTEs       []CTE
	Inline     bool
}

// Multi reports whether the statement carries more than one parameter row.
func (ins *Insert) Multi() bool {
	return len(ins.Rows) > 1
}
