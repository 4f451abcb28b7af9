package sqream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqreamsql/pkg/core"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// ddlTrailerLines is the number of lines get_ddl emits after the last column
// definition (closing paren and table options).
const ddlTrailerLines = 5

// DDL is the parsed form of a get_ddl result.
type DDL struct {
	// Schema is the schema named in the CREATE TABLE header, unquoted.
	Schema  string
	Columns []core.ReflectedColumn
}

// UnknownTypeError is returned when a column's type name is missing from the
// dialect's type map.
type UnknownTypeError struct {
	Column string
	Type   string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("column %q has unknown type %q", e.Column, e.Type)
}

// MalformedDDLError is returned when a get_ddl line does not have the
// expected shape.
type MalformedDDLError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedDDLError) Error() string {
	return fmt.Sprintf("malformed DDL at line %d (%s): %q", e.Line+1, e.Reason, e.Text)
}

// ParseDDL parses the text returned by get_ddl. The layout is fixed:
//
//	create table "public"."t" (
//	"id" int not null,
//	"name" varchar(10) null,
//	...five trailer lines...
//
// Each column line is whitespace separated: quoted name, type with optional
// "(length)", then "null" for nullable columns. Text with fewer than six
// lines yields no columns.
func ParseDDL(text string, d *dialect.Dialect) (*DDL, error) {
	lines := strings.Split(text, "\n")

	header := strings.Fields(lines[0])
	if len(header) < 3 {
		return nil, &MalformedDDLError{Line: 0, Text: lines[0], Reason: "header has fewer than 3 tokens"}
	}
	schema, _, _ := strings.Cut(header[2], ".")

	out := &DDL{Schema: strings.Trim(schema, `"`), Columns: []core.ReflectedColumn{}}
	if len(lines) <= ddlTrailerLines {
		return out, nil
	}

	for i := 1; i < len(lines)-ddlTrailerLines; i++ {
		col, err := parseColumnLine(lines[i], d)
		if err != nil {
			var malformed *MalformedDDLError
			if errors.As(err, &malformed) {
				malformed.Line = i
			}
			return nil, err
		}
		out.Columns = append(out.Columns, col)
	}
	return out, nil
}

func parseColumnLine(line string, d *dialect.Dialect) (core.ReflectedColumn, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 3 {
		return core.ReflectedColumn{}, &MalformedDDLError{Text: line, Reason: "column has fewer than 3 tokens"}
	}
	if len(tokens[0]) < 2 {
		return core.ReflectedColumn{}, &MalformedDDLError{Text: line, Reason: "column name is not quoted"}
	}

	name := tokens[0][1 : len(tokens[0])-1]
	rawType := strings.TrimSuffix(tokens[1], ",")
	typeName, rest, hasLength := strings.Cut(rawType, "(")

	kind, ok := d.LookupType(typeName)
	if !ok {
		return core.ReflectedColumn{}, &UnknownTypeError{Column: name, Type: typeName}
	}

	sqlType := core.SQLType{Kind: kind}
	if hasLength {
		digits := strings.TrimRight(rest, "),")
		if n, err := strconv.Atoi(digits); err == nil {
			sqlType.Length = n
		}
	}

	return core.ReflectedColumn{
		Name:     name,
		Type:     sqlType,
		RawType:  rawType,
		Nullable: strings.TrimSuffix(tokens[2], ",") == "null",
	}, nil
}
