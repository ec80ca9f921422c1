// Package batch fetches many resources through one client concurrently.
//
// A worker pool issues independent GET requests sharing the client's
// transport connection pool. Results are collected per path; a failing
// worker yields partial results together with its error. Cancellation of
// the parent context stops all workers.
package batch
