// Package cache provides an optional Redis-backed cache for GET responses.
//
// Entries are stored with a TTL derived from the response Expires header
// and revalidated with conditional requests (If-None-Match /
// If-Modified-Since) once stale metadata is available. A 304 Not Modified
// answer refreshes the entry TTL and the cached body is served instead of
// the network response.
//
// The cache is attached to a client by supplying a Redis client in the
// client configuration; without one the request pipeline is unchanged.
package cache
