// Package adapters provides database abstraction implementations for the
// Postgres lending store.
//
// This internal package wraps the supported database access libraries
// (pgx pool, database/sql, sqlx) behind a common adapter interface so that
// the engine itself is written once against DBAdapter.
//
// All adapters support plain queries and executions plus explicit
// transactions, which the engine uses for its atomic lifecycle sections.
package adapters
