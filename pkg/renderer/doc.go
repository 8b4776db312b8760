// Package renderer reconciles virtual trees against a live host tree.
//
// The renderer owns no host primitives itself. All tree mutation goes
// through the Host adapter, so the same engine drives an in-memory tree
// (pkg/hostmem) or a remote thin client (pkg/remote). Reconciliation
// dispatches on each vnode's shape bits; keyed child lists use a
// two-ended diff with longest-increasing-subsequence move minimization.
package renderer
