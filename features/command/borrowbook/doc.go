// Package borrowbook implements the Borrow Book use case.
//
// A member borrows one or more copies of a book. The store checks membership
// validity and the active distinct-book limit, reserves the copies against
// the book's availability, and records the loan with a due date one loan
// period out, all in one atomic section. Concurrency conflicts are retried
// with exponential backoff.
package borrowbook
