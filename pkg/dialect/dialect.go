// Package dialect provides SQL dialect definitions and the generic statement
// and type compilers that dialect plugins hook into.
//
// A Dialect bundles the pure capability flags from core.DialectConfig with the
// compile hooks a plugin supplies: an INSERT compiler, per-type renderers, and
// the mapping from the database's own type names to generic types. Concrete
// dialects are registered from pkg/adapters/*/dialect packages.
package dialect

import (
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqreamsql/pkg/core"
)

// InsertCompileFunc renders the text of an INSERT statement.
// It is called with the compiler's frame stack positioned for the statement
// and must report bound values through the compiler.
type InsertCompileFunc func(c *Compiler, ins *Insert) (string, error)

// TypeRenderFunc renders a generic type in a dialect's spelling.
type TypeRenderFunc func(t core.SQLType) string

// Dialect represents a SQL dialect definition.
type Dialect struct {
	core.DialectConfig

	typeMap       map[string]core.TypeKind
	typeRenderers map[core.TypeKind]TypeRenderFunc
	insertFunc    InsertCompileFunc
	reservedWords map[string]struct{}
}

// Config returns a copy of the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	cfg := d.DialectConfig
	return &cfg
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier only if it would not survive
// unquoted: reserved words, mixed case, and names with characters outside
// [a-z0-9_$] or starting with a digit or $.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.requiresQuotes(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

func (d *Dialect) requiresQuotes(name string) bool {
	if name == "" {
		return true
	}
	if d.IsReservedWord(name) || strings.ToLower(name) != name {
		return true
	}
	if c := name[0]; c == '$' || (c >= '0' && c <= '9') {
		return true
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '$') {
			return true
		}
	}
	return false
}

// LookupType maps a database type name to its generic kind.
// Names are matched case-insensitively.
func (d *Dialect) LookupType(name string) (core.TypeKind, bool) {
	kind, ok := d.typeMap[strings.ToLower(name)]
	return kind, ok
}

// TypeNames returns every database type name the dialect maps (sorted).
func (d *Dialect) TypeNames() []string {
	names := make([]string, 0, len(d.typeMap))
	for name := range d.typeMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InsertCompiler returns the dialect's INSERT compiler, or GenericInsert when
// the dialect does not override it.
func (d *Dialect) InsertCompiler() InsertCompileFunc {
	if d.insertFunc != nil {
		return d.insertFunc
	}
	return GenericInsert
}

// CompileInsert compiles ins with a fresh compiler for this dialect.
func (d *Dialect) CompileInsert(ins *Insert) (*Compiled, error) {
	return NewCompiler(d).CompileInsert(ins)
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
// The defaults match a plain ANSI dialect with ? placeholders.
func NewDialect(name string) *Builder {
	return New(&core.DialectConfig{
		Name: name,
		Identifiers: core.IdentifierConfig{
			Quote:    `"`,
			QuoteEnd: `"`,
			Escape:   `""`,
		},
		Placeholder:         core.PlaceholderQuestion,
		SupportsEmptyInsert: true,
	})
}

// New creates a dialect builder from a DialectConfig.
func New(cfg *core.DialectConfig) *Builder {
	return &Builder{
		dialect: &Dialect{
			DialectConfig: *cfg,
			typeMap:       make(map[string]core.TypeKind),
			typeRenderers: make(map[core.TypeKind]TypeRenderFunc),
			reservedWords: make(map[string]struct{}),
		},
	}
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:    quote,
		QuoteEnd: quoteEnd,
		Escape:   escape,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// NativeBoolean declares native boolean support.
func (b *Builder) NativeBoolean(supported bool) *Builder {
	b.dialect.SupportsNativeBoolean = supported
	return b
}

// MultiValuesInsert declares support for multi-row INSERT statements.
func (b *Builder) MultiValuesInsert(supported bool) *Builder {
	b.dialect.SupportsMultiValuesInsert = supported
	return b
}

// DefaultValues declares support for INSERT ... DEFAULT VALUES.
func (b *Builder) DefaultValues(supported bool) *Builder {
	b.dialect.SupportsDefaultValues = supported
	return b
}

// EmptyInsert declares support for INSERT INTO t () VALUES ().
func (b *Builder) EmptyInsert(supported bool) *Builder {
	b.dialect.SupportsEmptyInsert = supported
	return b
}

// Returning declares RETURNING support and where the clause goes.
func (b *Builder) Returning(supported, precedesValues bool) *Builder {
	b.dialect.SupportsReturning = supported
	b.dialect.ReturningPrecedesValues = precedesValues
	return b
}

// CTEFollowsInsert places WITH clauses between INSERT INTO and the SELECT
// instead of in front of the statement.
func (b *Builder) CTEFollowsInsert(follows bool) *Builder {
	b.dialect.CTEFollowsInsert = follows
	return b
}

// PostfetchLastRowID declares that inserted keys come from the cursor's last
// row id.
func (b *Builder) PostfetchLastRowID(enabled bool) *Builder {
	b.dialect.PostfetchLastRowID = enabled
	return b
}

// Types adds database type names mapped to generic kinds.
func (b *Builder) Types(types map[string]core.TypeKind) *Builder {
	for name, kind := range types {
		b.dialect.typeMap[strings.ToLower(name)] = kind
	}
	return b
}

// RenderType overrides how one generic kind is spelled.
func (b *Builder) RenderType(kind core.TypeKind, fn TypeRenderFunc) *Builder {
	b.dialect.typeRenderers[kind] = fn
	return b
}

// InsertCompiler overrides the INSERT compiler.
func (b *Builder) InsertCompiler(fn InsertCompileFunc) *Builder {
	b.dialect.insertFunc = fn
	return b
}

// WithReservedWords adds words that must be quoted as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	if len(b.dialect.reservedWords) == 0 {
		for _, w := range ANSIReservedWords {
			b.dialect.reservedWords[w] = struct{}{}
		}
	}
	return b.dialect
}
