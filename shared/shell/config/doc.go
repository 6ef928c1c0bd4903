// Package config provides database configuration helpers for PostgreSQL
// connections. It reads DSNs from the environment and contains factory
// functions for the supported drivers (pgxpool.Pool, sql.DB, sqlx.DB) with
// sensible connection pool settings.
package config
