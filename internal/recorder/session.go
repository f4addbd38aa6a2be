package recorder

import (
	"context"
	"log/slog"

	"rlviz/internal/logging"
	"rlviz/internal/schema"
	"rlviz/internal/store"
)

// State identifies the session lifecycle position.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
	StateRecording    State = "recording"
	StatePaused       State = "paused"
	StateFinalized    State = "finalized"
)

// Session accumulates per-timestep attribute values for one episode.
type Session struct {
	state  State
	schema *schema.Schema
	log    schema.EpisodeLog
	buffer schema.StepRecord
	logger *slog.Logger
}

// NewSession returns an unconfigured session. A nil logger is replaced with
// a no-op logger.
func NewSession(logger *slog.Logger) *Session {
	return &Session{
		state:  StateUnconfigured,
		logger: logging.NewComponentLogger(logger, "recorder"),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Schema returns the configured schema, or nil before Init.
func (s *Session) Schema() *schema.Schema { return s.schema }

// NumTimesteps returns the number of completed steps in the current episode.
func (s *Session) NumTimesteps() int { return len(s.log) }

// Init fixes the attribute schema for subsequent recordings. Valid from the
// Unconfigured and Finalized states; fails with a schema.ConfigError on an
// invalid definition.
func (s *Session) Init(names []string, kinds []schema.Kind) error {
	if s.state != StateUnconfigured && s.state != StateFinalized {
		return &StateError{Op: "Init", State: s.state}
	}
	sc, err := schema.New(names, kinds)
	if err != nil {
		return err
	}
	s.schema = sc
	s.state = StateConfigured
	s.logger.Debug("schema configured", slog.Int("attributes", sc.Len()))
	return nil
}

// Start begins a new episode with an empty log and step buffer.
func (s *Session) Start() error {
	if s.state != StateConfigured {
		return &StateError{Op: "Start", State: s.state}
	}
	s.log = s.log[:0]
	s.buffer = make(schema.StepRecord, s.schema.Len())
	s.state = StateRecording
	s.logger.Debug("recording started")
	return nil
}

// Pause suspends recording; Add and EndStep fail until Resume.
func (s *Session) Pause() error {
	if s.state != StateRecording {
		return &StateError{Op: "Pause", State: s.state}
	}
	s.state = StatePaused
	return nil
}

// Resume continues a paused recording.
func (s *Session) Resume() error {
	if s.state != StatePaused {
		return &StateError{Op: "Resume", State: s.state}
	}
	s.state = StateRecording
	return nil
}

// Add stages a value for the named attribute in the current step. The name
// must be in the schema, the value must match the declared kind, and the
// attribute must not already be present in the step buffer.
func (s *Session) Add(name string, value schema.Value) error {
	if s.state != StateRecording {
		return &StateError{Op: "Add", State: s.state}
	}
	if err := s.schema.CheckValue(name, value); err != nil {
		return err
	}
	if _, dup := s.buffer[name]; dup {
		return &schema.ViolationError{Reason: schema.DuplicateAttribute, Attribute: name}
	}
	s.buffer[name] = value
	return nil
}

// EndStep closes the current timestep. Every schema attribute must have been
// added exactly once; otherwise the step stays open and a ViolationError
// names the missing attributes.
func (s *Session) EndStep() error {
	if s.state != StateRecording {
		return &StateError{Op: "EndStep", State: s.state}
	}
	var missing []string
	for _, name := range s.schema.Names() {
		if _, ok := s.buffer[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &schema.ViolationError{Reason: schema.MissingAttribute, Missing: missing}
	}
	s.log = append(s.log, s.buffer)
	s.buffer = make(schema.StepRecord, s.schema.Len())
	return nil
}

// Finalize writes the episode to destination as an attribute store and
// transitions to Finalized. The last step must have been closed with
// EndStep; a non-empty buffer fails with a pending-step StateError and the
// session stays recording.
func (s *Session) Finalize(ctx context.Context, destination string) error {
	if s.state != StateRecording {
		return &StateError{Op: "Finalize", State: s.state}
	}
	if len(s.buffer) > 0 {
		return &StateError{Op: "Finalize", State: s.state, Pending: true}
	}
	if err := store.Write(ctx, destination, s.schema, s.log); err != nil {
		return err
	}
	steps := len(s.log)
	s.log = nil
	s.buffer = nil
	s.state = StateFinalized
	s.logger.Info("episode finalized",
		slog.String("destination", destination),
		slog.Int("timesteps", steps))
	return nil
}

// Reset drops the schema and any in-memory episode data, returning the
// session to Unconfigured. Valid from any state.
func (s *Session) Reset() {
	s.schema = nil
	s.log = nil
	s.buffer = nil
	s.state = StateUnconfigured
}
