// Package viewer runs the store inspection server: a single-instance HTTP
// service that loads one attribute store at a time and answers timestep
// queries against it.
//
// The active store handle lives behind an atomic pointer. Uploading a new
// store validates it fully before the swap, so in-flight queries observe
// either the old store or the new one, never a mixture. Connected WebSocket
// clients are told when the store changes so they can refresh attribute and
// timestep metadata.
package viewer
