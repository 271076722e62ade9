// Package shared provides common utilities and test helpers used across
// the launcher codebase. It is a home for functionality that does not
// belong to any specific domain or architectural layer.
//
// The testutil subpackage provides fixture generators for license
// database documents and a buffered slog handler for asserting on log
// output in tests. Nothing in this package may depend on other internal
// packages except the license domain types.
package shared
