// Package recorder implements the producer-facing recording session: a
// strict state machine that accumulates one value per schema attribute per
// timestep and flushes a completed episode into a persisted attribute store.
//
// States: Unconfigured → Configured → Recording → Finalized, with Finalized
// returning to Configured through Init. Recording may be paused; Add and
// EndStep fail while paused.
//
// The session is single-writer by contract: Add, EndStep, and Finalize must
// not be issued concurrently. All misuse fails fast with typed errors rather
// than being silently recovered, since a violation means the producer's
// logging code is wrong.
package recorder
