// Package compose owns environment materialization.
//
// Ownership boundary:
// - composition request and environment result shapes
// - capability resolution against catalog and store
// - pin verification, policy enforcement, path-prefix hook
//
// Compose is a pure function: all-or-nothing, no side effects. Applying
// the result (exec, export) belongs to the activate package and the CLI.
package compose
