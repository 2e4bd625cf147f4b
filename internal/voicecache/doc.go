// Package voicecache keeps the voice catalog resident for the lifetime of the
// process. It deduplicates concurrent loads, mirrors the catalog into durable
// storage with a schema version and an expiry, falls back to a stale snapshot
// when the network fails, and notifies registered listeners after every state
// change.
//
// Listeners receive no payload. They re-read the store through its accessors.
package voicecache
