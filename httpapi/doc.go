// Package httpapi exposes the lending ledger over a JSON HTTP API. Routes
// are registered on a standard mux with method patterns; each mutation goes
// through its command handler so that retry and idempotency behavior stays in
// one place.
package httpapi
