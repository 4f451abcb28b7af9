package dialect

import "github.com/leapstack-labs/sqreamsql/pkg/core"

// builtinDefault is the generic dialect: ? placeholders, no multi-row
// inserts, empty inserts rendered as INSERT INTO t () VALUES ().
var builtinDefault = NewDialect("default").
	Types(map[string]core.TypeKind{
		"boolean":  core.TypeBoolean,
		"smallint": core.TypeSmallInt,
		"integer":  core.TypeInteger,
		"bigint":   core.TypeBigInt,
		"float":    core.TypeFloat,
		"date":     core.TypeDate,
		"datetime": core.TypeDateTime,
		"varchar":  core.TypeString,
		"nvarchar": core.TypeUnicode,
		"text":     core.TypeUnicodeText,
		"blob":     core.TypeLargeBinary,
	}).
	Build()

// Default returns the generic dialect.
func Default() *Dialect {
	return builtinDefault
}

func init() {
	Register(builtinDefault)
}
