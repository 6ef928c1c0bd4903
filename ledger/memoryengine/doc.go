// Package memoryengine provides an in-memory store with the same operation
// set as the PostgreSQL engine. A single mutex serializes all mutations, so
// the availability invariant holds under concurrent use, which makes the
// engine suitable for tests and local development.
package memoryengine
