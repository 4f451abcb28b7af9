package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqreamsql/pkg/core"
)

// TypeCompiler renders generic types as DDL type names, consulting the
// dialect's overrides before the generic spellings.
type TypeCompiler struct {
	dialect *Dialect
}

// TypeCompiler returns the type compiler for d.
func (d *Dialect) TypeCompiler() *TypeCompiler {
	return &TypeCompiler{dialect: d}
}

// Process renders t.
func (tc *TypeCompiler) Process(t core.SQLType) (string, error) {
	if fn, ok := tc.dialect.typeRenderers[t.Kind]; ok {
		return fn(t), nil
	}
	return GenericTypeName(t)
}

// GenericTypeName renders t with the generic spellings.
func GenericTypeName(t core.SQLType) (string, error) {
	switch t.Kind {
	case core.TypeBoolean:
		return "BOOLEAN", nil
	case core.TypeTinyInt, core.TypeSmallInt:
		return "SMALLINT", nil
	case core.TypeInteger:
		return "INTEGER", nil
	case core.TypeBigInt:
		return "BIGINT", nil
	case core.TypeFloat:
		return "FLOAT", nil
	case core.TypeDate:
		return "DATE", nil
	case core.TypeDateTime:
		return "DATETIME", nil
	case core.TypeString:
		return withLength("VARCHAR", t.Length), nil
	case core.TypeUnicode:
		return withLength("NVARCHAR", t.Length), nil
	case core.TypeUnicodeText:
		return "TEXT", nil
	case core.TypeLargeBinary:
		return "BLOB", nil
	default:
		return "", fmt.Errorf("no type name for %s", t.Kind)
	}
}

func withLength(name string, length int) string {
	if length <= 0 {
		return name
	}
	return name + "(" + strconv.Itoa(length) + ")"
}

// Column describes a column for CREATE TABLE rendering.
type Column struct {
	Name     string
	Type     core.SQLType
	Nullable bool
}

// Table describes a table for CREATE TABLE rendering.
type Table struct {
	Name    TableName
	Columns []Column
}

// CreateTableSQL renders a CREATE TABLE statement for t.
func (d *Dialect) CreateTableSQL(t Table) (string, error) {
	if t.Name.Name == "" {
		return "", &CompileError{Message: "CREATE TABLE requires a table name"}
	}
	if len(t.Columns) == 0 {
		return "", &CompileError{Message: fmt.Sprintf("table %s has no columns", t.Name)}
	}

	c := NewCompiler(d)
	tc := d.TypeCompiler()
	lines := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		typeName, err := tc.Process(col.Type)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		line := "\t" + c.FormatColumn(col.Name) + " " + typeName
		if !col.Nullable {
			line += " NOT NULL"
		}
		lines[i] = line
	}

	return "CREATE TABLE " + c.FormatTable(t.Name) + " (\n" + strings.Join(lines, ",\n") + "\n)", nil
}
