package core

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// ReflectedColumn describes one column recovered from the database catalog.
type ReflectedColumn struct {
	Name     string
	Type     SQLType
	RawType  string // type name as reported by the catalog, e.g. "varchar(10)"
	Nullable bool
	Default  *string
}

// PrimaryKey describes a primary key constraint.
// The zero value means "no primary key".
type PrimaryKey struct {
	Name    string
	Columns []string
}

// ForeignKey describes a foreign key constraint.
type ForeignKey struct {
	Name            string
	Columns         []string
	ReferredSchema  string
	ReferredTable   string
	ReferredColumns []string
}

// Index describes a table index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}
