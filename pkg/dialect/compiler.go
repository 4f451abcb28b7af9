package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// StatementKind classifies a compiled statement for result interpretation.
type StatementKind int

const (
	// KindOther covers DDL and anything not listed below.
	KindOther StatementKind = iota
	// KindSelect is a statement that returns rows.
	KindSelect
	// KindInsert is an INSERT.
	KindInsert
	// KindUpdate is an UPDATE.
	KindUpdate
	// KindDelete is a DELETE.
	KindDelete
)

// String returns the string representation of StatementKind.
func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "other"
	}
}

// ClassifyStatement inspects the leading keyword of sql.
func ClassifyStatement(sql string) StatementKind {
	fields := strings.Fields(strings.TrimLeft(sql, " \t\r\n("))
	if len(fields) == 0 {
		return KindOther
	}
	switch strings.ToLower(fields[0]) {
	case "select", "with", "values", "show":
		return KindSelect
	case "insert":
		return KindInsert
	case "update":
		return KindUpdate
	case "delete":
		return KindDelete
	default:
		return KindOther
	}
}

// Compiled is the output of compilation: SQL text plus everything the
// execution layer needs to run it and interpret the result.
type Compiled struct {
	SQL    string
	Params []any
	Kind   StatementKind

	// Returning lists the columns of a RETURNING clause, if one was rendered.
	Returning []string
	// ImplicitReturning is set when RETURNING was rendered to fetch server
	// defaults rather than at the caller's explicit request.
	ImplicitReturning bool
	Inline            bool
	Multi             bool

	// InsertSingleValuesExpr is the placeholder list of the VALUES tuple of
	// a top-level INSERT, e.g. "?, ?".
	InsertSingleValuesExpr string
}

// Text wraps a literal SQL statement.
func Text(sql string, params ...any) *Compiled {
	return &Compiled{
		SQL:    sql,
		Params: params,
		Kind:   ClassifyStatement(sql),
	}
}

// ExplicitReturning reports whether the caller asked for RETURNING rows.
func (c *Compiled) ExplicitReturning() bool {
	return len(c.Returning) > 0 && !c.ImplicitReturning
}

// ErrCompile classifies every CompileError.
var ErrCompile = errors.New("compile error")

// CompileError is returned when a statement cannot be rendered for a dialect.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return e.Message
}

// Is reports whether target is ErrCompile.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}

// Frame is the per-statement compilation state pushed while an INSERT is
// rendered.
type Frame struct {
	CorrelateFroms map[string]struct{}
	AsFromFroms    map[string]struct{}
	Selectable     *Insert
}

// CrudParam pairs a target column with the SQL that supplies its value.
type CrudParam struct {
	Column string
	Expr   string
}

// ValuesFunc renders the VALUES clause (without the leading space) from the
// per-row column/value pairs of an INSERT.
type ValuesFunc func(c *Compiler, rows [][]CrudParam, multi bool) string

// Compiler renders statements for one dialect. A Compiler is not safe for
// concurrent use; each CompileInsert call resets it.
type Compiler struct {
	dialect *Dialect
	stack   []Frame

	cteParams    []any
	crudParams   []any
	selectParams []any
	placeholders int

	returning              []string
	implicitReturning      bool
	insertSingleValuesExpr string
}

// NewCompiler creates a compiler for d.
func NewCompiler(d *Dialect) *Compiler {
	return &Compiler{dialect: d}
}

// Dialect returns the dialect being compiled for.
func (c *Compiler) Dialect() *Dialect {
	return c.dialect
}

func (c *Compiler) reset() {
	c.stack = c.stack[:0]
	c.cteParams = nil
	c.crudParams = nil
	c.selectParams = nil
	c.placeholders = 0
	c.returning = nil
	c.implicitReturning = false
	c.insertSingleValuesExpr = ""
}

// CompileInsert renders ins through the dialect's INSERT compiler.
func (c *Compiler) CompileInsert(ins *Insert) (*Compiled, error) {
	if ins == nil {
		return nil, errors.New("insert statement is nil")
	}
	if ins.Table.Name == "" {
		return nil, &CompileError{Message: "INSERT requires a target table"}
	}
	c.reset()

	sql, err := c.dialect.InsertCompiler()(c, ins)
	if err != nil {
		return nil, err
	}

	params := make([]any, 0, len(c.cteParams)+len(c.crudParams)+len(c.selectParams))
	params = append(params, c.cteParams...)
	params = append(params, c.crudParams...)
	params = append(params, c.selectParams...)

	return &Compiled{
		SQL:                    sql,
		Params:                 params,
		Kind:                   KindInsert,
		Returning:              c.returning,
		ImplicitReturning:      c.implicitReturning,
		Inline:                 ins.Inline,
		Multi:                  ins.Multi(),
		InsertSingleValuesExpr: c.insertSingleValuesExpr,
	}, nil
}

// TopLevel reports whether no statement is currently being compiled.
func (c *Compiler) TopLevel() bool {
	return len(c.stack) == 0
}

// Depth returns the number of frames on the stack.
func (c *Compiler) Depth() int {
	return len(c.stack)
}

// PushFrame starts compiling ins.
func (c *Compiler) PushFrame(ins *Insert) {
	c.stack = append(c.stack, Frame{
		CorrelateFroms: map[string]struct{}{},
		AsFromFroms:    map[string]struct{}{},
		Selectable:     ins,
	})
}

// PopFrame finishes the statement on top of the stack.
func (c *Compiler) PopFrame() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// CrudParams builds the column/value pairs for each row of ins and binds its
// parameters in row order. An insert with no rows yields a nil slice.
func (c *Compiler) CrudParams(ins *Insert) ([][]CrudParam, error) {
	if ins.Select != "" {
		if len(ins.Rows) > 0 {
			return nil, &CompileError{Message: "INSERT cannot combine VALUES rows with a SELECT"}
		}
		return nil, nil
	}
	if len(ins.Rows) > 0 && len(ins.Columns) == 0 {
		return nil, &CompileError{Message: "INSERT rows require a column list"}
	}

	rows := make([][]CrudParam, 0, len(ins.Rows))
	for i, row := range ins.Rows {
		if len(row) != len(ins.Columns) {
			return nil, &CompileError{Message: fmt.Sprintf(
				"INSERT row %d has %d values for %d columns", i, len(row), len(ins.Columns))}
		}
		pairs := make([]CrudParam, len(row))
		for j, v := range row {
			expr := v.expr
			if !v.isExpr {
				expr = c.BindParam(v.param)
			}
			pairs[j] = CrudParam{Column: ins.Columns[j], Expr: expr}
		}
		rows = append(rows, pairs)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

// BindParam records v as the next bound value and returns its placeholder.
func (c *Compiler) BindParam(v any) string {
	c.placeholders++
	c.crudParams = append(c.crudParams, v)
	return c.dialect.FormatPlaceholder(c.placeholders)
}

// FormatTable renders a table name with quoting where required.
func (c *Compiler) FormatTable(t TableName) string {
	if t.Schema == "" {
		return c.dialect.QuoteIdentifierIfNeeded(t.Name)
	}
	return c.dialect.QuoteIdentifierIfNeeded(t.Schema) + "." + c.dialect.QuoteIdentifierIfNeeded(t.Name)
}

// FormatColumn renders a column name with quoting where required.
func (c *Compiler) FormatColumn(name string) string {
	return c.dialect.QuoteIdentifierIfNeeded(name)
}

// Prefixes renders the prefixes of ins that apply to this dialect, each
// followed by a space.
func (c *Compiler) Prefixes(ins *Insert) string {
	var sb strings.Builder
	for _, p := range ins.Prefixes {
		if p.Dialect != "" && !strings.EqualFold(p.Dialect, c.dialect.Name) {
			continue
		}
		sb.WriteString(p.Text)
		sb.WriteByte(' ')
	}
	return sb.String()
}

// TableHints appends the hint of ins addressed to this dialect to tableText.
func (c *Compiler) TableHints(ins *Insert, tableText string) string {
	hint, ok := ins.Hints[c.dialect.Name]
	if !ok {
		hint, ok = ins.Hints["*"]
	}
	if !ok || hint == "" {
		return tableText
	}
	return tableText + " " + hint
}

// ReturningClause renders the RETURNING clause of ins, or "" when none
// applies. Explicit RETURNING on a dialect without support is an error;
// requested defaults are fetched by RETURNING only when the dialect supports
// it and the insert is single-row.
func (c *Compiler) ReturningClause(ins *Insert) (string, error) {
	if len(ins.Returning) > 0 && len(ins.ReturnDefaults) > 0 {
		return "", &CompileError{Message: "RETURNING and return defaults cannot be combined"}
	}

	cols := ins.Returning
	implicit := false
	if len(cols) == 0 {
		if len(ins.ReturnDefaults) == 0 || !c.dialect.SupportsReturning || ins.Multi() {
			return "", nil
		}
		cols = ins.ReturnDefaults
		implicit = true
	} else if !c.dialect.SupportsReturning {
		return "", &CompileError{Message: fmt.Sprintf(
			"The '%s' dialect does not support RETURNING.", c.dialect.Name)}
	}

	formatted := make([]string, len(cols))
	for i, col := range cols {
		formatted[i] = c.FormatColumn(col)
	}
	c.returning = cols
	c.implicitReturning = implicit
	return "RETURNING " + strings.Join(formatted, ", "), nil
}

// CTEClause renders the WITH clause of ins, followed by a space, and binds
// the CTE parameters. Returns "" when there are no CTEs.
func (c *Compiler) CTEClause(ins *Insert) string {
	if len(ins.CTEs) == 0 {
		return ""
	}
	parts := make([]string, len(ins.CTEs))
	for i, cte := range ins.CTEs {
		parts[i] = c.dialect.QuoteIdentifierIfNeeded(cte.Name) + " AS (" + cte.SQL + ")"
		c.cteParams = append(c.cteParams, cte.Params...)
	}
	return "WITH " + strings.Join(parts, ", ") + " "
}

// SelectText returns the sub-select of ins and binds its parameters.
func (c *Compiler) SelectText(ins *Insert) string {
	c.selectParams = append(c.selectParams, ins.SelectParams...)
	return ins.Select
}

// SetInsertSingleValuesExpr records the placeholder list of the VALUES tuple.
func (c *Compiler) SetInsertSingleValuesExpr(expr string) {
	c.insertSingleValuesExpr = expr
}

// InsertSingleValuesExpr returns the recorded placeholder list.
func (c *Compiler) InsertSingleValuesExpr() string {
	return c.insertSingleValuesExpr
}

// JoinExprs joins the value expressions of one row with ", ".
func JoinExprs(row []CrudParam) string {
	exprs := make([]string, len(row))
	for i, p := range row {
		exprs[i] = p.Expr
	}
	return strings.Join(exprs, ", ")
}

// BuildInsert renders ins step by step: prefixes, table and hints, column
// list, RETURNING, then SELECT, DEFAULT VALUES or the VALUES clause produced
// by values, post-values text and CTEs.
func (c *Compiler) BuildInsert(ins *Insert, values ValuesFunc) (string, error) {
	toplevel := c.TopLevel()
	c.PushFrame(ins)
	defer c.PopFrame()

	d := c.dialect
	crud, err := c.CrudParams(ins)
	if err != nil {
		return "", err
	}

	if len(crud) == 0 && ins.Select == "" && !d.SupportsDefaultValues && !d.SupportsEmptyInsert {
		return "", &CompileError{Message: fmt.Sprintf(
			"The '%s' dialect with current database version settings does not support empty inserts.", d.Name)}
	}

	multi := ins.Multi()
	var single []CrudParam
	if multi {
		if !d.SupportsMultiValuesInsert {
			return "", &CompileError{Message: fmt.Sprintf(
				"The '%s' dialect with current database version settings does not support in-place multirow inserts.", d.Name)}
		}
		single = crud[0]
	} else if len(crud) == 1 {
		single = crud[0]
	}

	var sb strings.Builder
	sb.WriteString("INSERT ")
	sb.WriteString(c.Prefixes(ins))
	sb.WriteString("INTO ")
	sb.WriteString(c.TableHints(ins, c.FormatTable(ins.Table)))

	switch {
	case ins.Select != "":
		cols := make([]string, len(ins.Columns))
		for i, col := range ins.Columns {
			cols[i] = c.FormatColumn(col)
		}
		if len(cols) > 0 {
			sb.WriteString(" (" + strings.Join(cols, ", ") + ")")
		}
	case len(single) > 0 || !d.SupportsDefaultValues:
		cols := make([]string, len(single))
		for i, p := range single {
			cols[i] = c.FormatColumn(p.Column)
		}
		sb.WriteString(" (" + strings.Join(cols, ", ") + ")")
	}

	returning, err := c.ReturningClause(ins)
	if err != nil {
		return "", err
	}
	if returning != "" && d.ReturningPrecedesValues {
		sb.WriteString(" " + returning)
	}

	cteFollows := false
	switch {
	case ins.Select != "":
		sb.WriteByte(' ')
		if toplevel && d.CTEFollowsInsert && len(ins.CTEs) > 0 {
			sb.WriteString(c.CTEClause(ins))
			cteFollows = true
		}
		sb.WriteString(c.SelectText(ins))
	case len(crud) == 0 && d.SupportsDefaultValues:
		sb.WriteString(" DEFAULT VALUES")
	default:
		sb.WriteString(" " + values(c, crud, multi))
	}

	if ins.PostValues != "" {
		sb.WriteString(" " + ins.PostValues)
	}
	if returning != "" && !d.ReturningPrecedesValues {
		sb.WriteString(" " + returning)
	}

	text := sb.String()
	if toplevel && !cteFollows && len(ins.CTEs) > 0 {
		text = c.CTEClause(ins) + text
	}
	return text, nil
}

// GenericInsert is the default INSERT compiler: a multi-row insert renders
// one VALUES tuple per row.
func GenericInsert(c *Compiler, ins *Insert) (string, error) {
	return c.BuildInsert(ins, MultiRowValues)
}

// MultiRowValues renders one tuple per row and records the single-values
// expression only for single-row top-level inserts.
func MultiRowValues(c *Compiler, rows [][]CrudParam, multi bool) string {
	if !multi {
		var expr string
		if len(rows) > 0 {
			expr = JoinExprs(rows[0])
		}
		if c.Depth() == 1 {
			c.SetInsertSingleValuesExpr(expr)
		}
		return "VALUES (" + expr + ")"
	}
	tuples := make([]string, len(rows))
	for i, row := range rows {
		tuples[i] = "(" + JoinExprs(row) + ")"
	}
	return "VALUES " + strings.Join(tuples, ", ")
}
