// Package catalog owns capability provider registration and lookup.
//
// Ownership boundary:
// - capability metadata shape
// - provider resolution interface
// - catalog file loading
package catalog
