// Package logging builds the process-wide slog logger. Two handler formats
// are supported: a console handler that renders
// "TIMESTAMP LEVEL component: message key=value ..." lines for interactive
// use, and the stdlib JSON handler with normalized ts/level/msg keys for log
// shipping. Components attach themselves with the standard component
// attribute via NewComponentLogger.
package logging
