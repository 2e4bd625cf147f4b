// Package storage provides durable string key/value backends for the voice
// cache.
//
// Three backends are available:
//   - Disk: one file per key under a directory, zstd-compressed when large
//   - Memory: process-local, lost on exit
//   - NATS: a JetStream key/value bucket shared between machines
//
// Every backend reports a missing key with ErrNotFound.
package storage
