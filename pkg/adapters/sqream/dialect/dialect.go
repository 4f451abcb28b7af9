// Package dialect provides the SQream DB SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// making it suitable for tools that need to compile statements or render
// DDL without opening a connection.
package dialect

import (
	"github.com/leapstack-labs/sqreamsql/pkg/core"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// Name is the dialect's registry name; Alias is the second name it answers to.
const (
	Name  = "sqream"
	Alias = "pysqream"
)

func init() {
	dialect.Register(SQream)
	dialect.RegisterAlias(Alias, Name)
}

// sqreamReservedWords contains SQream DB keywords that cannot be used as bare
// identifiers.
var sqreamReservedWords = []string{
	"all", "analyse", "analyze", "and", "any", "array", "as", "asc",
	"authorization", "between", "bigint", "binary", "bool", "both", "case",
	"cast", "check", "collate", "column", "constraint", "create", "cross",
	"current_date", "current_role", "current_time", "current_timestamp",
	"current_user", "date", "datetime", "default", "deferrable", "desc",
	"distinct", "do", "else", "end", "except", "false", "for", "foreign",
	"from", "full", "grant", "group", "having", "in", "initially", "inner",
	"int", "intersect", "into", "is", "join", "leading", "left", "like",
	"limit", "not", "null", "nvarchar", "off", "offset", "on", "only", "or",
	"order", "outer", "primary", "real", "references", "right", "select",
	"session_user", "smallint", "some", "symmetric", "table", "text", "then",
	"tinyint", "to", "top", "trailing", "true", "union", "unique", "user",
	"using", "varchar", "when", "where", "with",
}

// TypeMap maps the type names SQream DB reports in get_ddl output to generic
// types. Every name the catalog can return must be present.
var TypeMap = map[string]core.TypeKind{
	"bool":      core.TypeBoolean,
	"boolean":   core.TypeBoolean,
	"ubyte":     core.TypeTinyInt,
	"tinyint":   core.TypeTinyInt,
	"smallint":  core.TypeSmallInt,
	"int":       core.TypeInteger,
	"integer":   core.TypeInteger,
	"bigint":    core.TypeBigInt,
	"float":     core.TypeFloat,
	"double":    core.TypeFloat,
	"real":      core.TypeFloat,
	"date":      core.TypeDate,
	"datetime":  core.TypeDateTime,
	"timestamp": core.TypeDateTime,
	"varchar":   core.TypeString,
	"nvarchar":  core.TypeUnicode,
	"text":      core.TypeUnicodeText,
}

// SQream is the SQream DB dialect configuration.
var SQream = dialect.NewDialect(Name).
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderQuestion).
	NativeBoolean(true).
	MultiValuesInsert(true).
	DefaultValues(false).
	EmptyInsert(false).
	Returning(false, false).
	PostfetchLastRowID(true).
	Types(TypeMap).
	RenderType(core.TypeBoolean, renderBool).
	RenderType(core.TypeTinyInt, renderTinyInt).
	InsertCompiler(CompileInsert).
	WithReservedWords(sqreamReservedWords...).
	Build()

func renderBool(core.SQLType) string {
	return "BOOL"
}

func renderTinyInt(core.SQLType) string {
	return "TINYINT"
}
