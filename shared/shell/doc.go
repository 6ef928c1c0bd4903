// Package shell provides the infrastructure glue the command and query
// features share: retry with exponential backoff for concurrency conflicts,
// the HandlerResult metadata that handlers report to their callers, and the
// small interfaces the features program against.
package shell
