// Package store persists one episode's attribute data as an immutable,
// randomly addressable SQLite container.
//
// Layout: a meta table (format version, timestep count), an attributes table
// (schema position, name, kind, shape), and a samples table keyed by
// (attribute, timestep) holding one encoded payload per value. GRID and TEXT
// payloads round-trip exactly; COLOR payloads are raw RGB bytes, so any
// lossy image encoding happens at the transport layer, never here.
//
// Write stages into a temporary file next to the destination while holding a
// file lock, and publishes with a rename only after a fully successful
// write. A crash therefore never leaves a loadable-but-truncated store.
// Once written a store is read-only; Handle methods are safe for concurrent
// readers.
package store
