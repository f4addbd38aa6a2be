// Package api defines the read-only query service and wire-format encoding
// over one loaded attribute store.
//
// Encoding is kind-specific and decided at the transport boundary only:
// COLOR values become base64 PNG strings, GRID values nested
// (panel, row, col) numeric arrays with exact values, TEXT values pass
// through as a string or string list. The persisted store is never touched
// by these conversions.
//
// The service is stateless apart from the handle it reads; concurrent
// requests share nothing mutable, so a malformed request cannot affect
// later ones.
package api
