package core

// DialectConfig holds the static configuration for a SQL dialect.
// This is pure data with no handler functions.
//
// The runtime behavior (insert compilation, type rendering) lives in
// pkg/dialect.Dialect, which embeds this config.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "sqream")
	Name string

	// Identifiers defines quoting rules
	Identifiers IdentifierConfig

	// DefaultSchema is the schema assumed when none is given ("public" for SQream)
	DefaultSchema string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// Capability flags consulted by the compiler and execution context.
	SupportsNativeBoolean     bool
	SupportsMultiValuesInsert bool
	SupportsDefaultValues     bool
	SupportsEmptyInsert       bool
	SupportsReturning         bool
	ReturningPrecedesValues   bool
	CTEFollowsInsert          bool
	PostfetchLastRowID        bool
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (qmark paramstyle).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// String returns the DB-API style paramstyle name.
func (p PlaceholderStyle) String() string {
	switch p {
	case PlaceholderQuestion:
		return "qmark"
	case PlaceholderDollar:
		return "numeric_dollar"
	default:
		return "unknown"
	}
}

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `, [
	QuoteEnd string // End quote character (usually same as Quote, ] for [)
	Escape   string // Escape sequence: "", ``, ]]
}
