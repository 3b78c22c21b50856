// Package store owns the content-addressed artifact cache handle.
//
// Ownership boundary:
// - digest format and hashing primitives
// - artifact layout under the store root
//
// The handle is read-only from composition's point of view; Put exists
// for cache population by external tooling and tests.
package store
