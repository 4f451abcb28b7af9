// Package core defines the shared language of the sqreamsql adapter.
//
// This package contains:
//   - Generic type descriptors (TypeKind, SQLType)
//   - Reflection results (ReflectedColumn, PrimaryKey, ForeignKey, Index)
//   - Configuration types (AdapterConfig, DialectConfig)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
