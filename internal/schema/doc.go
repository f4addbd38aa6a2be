// Package schema defines the attribute vocabulary for a recording session:
// the closed set of attribute kinds, the ordered immutable schema fixed at
// init time, and the tagged Value union carried per attribute per timestep.
//
// Every decode and render boundary in the repository switches exhaustively
// on Kind; adding a kind means updating those switches, which the compiler
// surfaces via the sealed Value interface.
package schema
