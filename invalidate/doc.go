// Package invalidate clears cache entries made stale by mutations against
// the remote API.
//
// An Invalidator knows, per resource category, which key patterns a
// mutation poisons: the entity key, its parameterized variants, and every
// listing of the category. Each invalidation is recorded in a bounded
// in-memory history for observability.
package invalidate
