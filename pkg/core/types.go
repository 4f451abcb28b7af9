package core

import "strconv"

// TypeKind identifies a generic column type independent of any dialect.
type TypeKind int

const (
	// TypeUnknown is the zero value; no dialect maps a name to it.
	TypeUnknown TypeKind = iota
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeFloat
	TypeDate
	TypeDateTime
	TypeString
	TypeUnicode
	TypeUnicodeText
	TypeLargeBinary
)

var typeKindNames = [...]string{
	TypeUnknown:     "UNKNOWN",
	TypeBoolean:     "BOOLEAN",
	TypeTinyInt:     "TINYINT",
	TypeSmallInt:    "SMALLINT",
	TypeInteger:     "INTEGER",
	TypeBigInt:      "BIGINT",
	TypeFloat:       "FLOAT",
	TypeDate:        "DATE",
	TypeDateTime:    "DATETIME",
	TypeString:      "STRING",
	TypeUnicode:     "UNICODE",
	TypeUnicodeText: "UNICODE_TEXT",
	TypeLargeBinary: "LARGE_BINARY",
}

// String returns the generic name of the type kind.
func (k TypeKind) String() string {
	if k < 0 || int(k) >= len(typeKindNames) {
		return "UNKNOWN"
	}
	return typeKindNames[k]
}

// SQLType is a generic type descriptor. Length is 0 when the type has no
// length or the length is unknown.
type SQLType struct {
	Kind   TypeKind
	Length int
}

// String returns the generic name, with the length appended when set.
func (t SQLType) String() string {
	if t.Length > 0 {
		return t.Kind.String() + "(" + strconv.Itoa(t.Length) + ")"
	}
	return t.Kind.String()
}
