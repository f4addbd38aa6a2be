// Package main hosts the rlviz CLI entrypoint and command graph.
//
// The Cobra-based command tree covers running the viewer server, inspecting
// episode stores, recording a demo episode, and configuration scaffolding.
// It centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
package main
