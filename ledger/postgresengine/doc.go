// Package postgresengine provides a PostgreSQL-backed lending store.
//
// The engine persists books, members, and loans as row state and implements
// the inventory invariant guard with conditional row-locking updates: a
// reservation is a single check-and-decrement UPDATE, so concurrent
// operations on the same book are totally ordered by the row lock while
// operations on different books proceed independently.
//
// Lifecycle transitions that span the loan ledger and the copy counters
// (borrow, return, adjust, cancel) run inside one database transaction, so a
// partially applied transition is never observable. Serialization failures
// and deadlocks surface as ledger.ErrConcurrencyConflict, which callers are
// expected to retry.
//
// The engine supports three database access libraries through adapters:
// pgxpool.Pool, database/sql, and sqlx.DB. Construct it with the matching
// factory:
//
//	store, err := postgresengine.NewLendingStoreFromPGXPool(pool,
//		postgresengine.WithLogger(logger))
package postgresengine
