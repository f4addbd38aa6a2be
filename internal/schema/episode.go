package schema

// StepRecord maps every schema attribute name to exactly one value for a
// single timestep.
type StepRecord map[string]Value

// EpisodeLog is the ordered sequence of step records for one recording
// session; the slice index is the timestep.
type EpisodeLog []StepRecord

// NumTimesteps returns the episode length.
func (l EpisodeLog) NumTimesteps() int { return len(l) }
