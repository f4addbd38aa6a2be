package recorder_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"rlviz/internal/recorder"
	"rlviz/internal/schema"
	"rlviz/internal/testsupport"
)

func newConfiguredSession(t *testing.T) *recorder.Session {
	t.Helper()
	s := recorder.NewSession(nil)
	if err := s.Init([]string{"obs", "value"}, []schema.Kind{schema.KindGrid, schema.KindText}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s
}

func TestFullRecordingRoundTrip(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Add("obs", testsupport.GridStack(4, 6, i)); err != nil {
			t.Fatalf("Add obs step %d: %v", i, err)
		}
		if err := s.Add("value", schema.NewText([]string{"v0", "v1", "v2"}[i])); err != nil {
			t.Fatalf("Add value step %d: %v", i, err)
		}
		if err := s.EndStep(); err != nil {
			t.Fatalf("EndStep %d: %v", i, err)
		}
	}

	dest := filepath.Join(t.TempDir(), "episode.rlviz")
	if err := s.Finalize(context.Background(), dest); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if s.State() != recorder.StateFinalized {
		t.Fatalf("state after Finalize = %s", s.State())
	}
	if s.NumTimesteps() != 0 {
		t.Fatal("episode log should be cleared after Finalize")
	}

	handle := testsupport.MustLoadStore(t, dest)
	if handle.NumTimesteps() != 3 {
		t.Fatalf("NumTimesteps = %d, want 3", handle.NumTimesteps())
	}

	value, err := handle.Read(context.Background(), "value", 1)
	if err != nil {
		t.Fatalf("Read value/1: %v", err)
	}
	text, ok := value.(*schema.Text)
	if !ok || text.Scalar() != "v1" {
		t.Fatalf("Read value/1 = %#v, want v1", value)
	}

	obs, err := handle.Read(context.Background(), "obs", 0)
	if err != nil {
		t.Fatalf("Read obs/0: %v", err)
	}
	stack, ok := obs.(*schema.PanelStack)
	if !ok || stack.D != 4 || stack.S != 6 {
		t.Fatalf("Read obs/0 shape = %#v", obs)
	}
	want := testsupport.GridStack(4, 6, 0)
	for i := range want.Data {
		if stack.Data[i] != want.Data[i] {
			t.Fatalf("obs/0 value %d = %v, want %v", i, stack.Data[i], want.Data[i])
		}
	}
}

func TestEndStepReportsMissingAttributes(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Add("obs", testsupport.GridStack(2, 4, 0)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := s.EndStep()
	var viol *schema.ViolationError
	if !errors.As(err, &viol) || viol.Reason != schema.MissingAttribute {
		t.Fatalf("expected MissingAttribute, got %v", err)
	}
	if len(viol.Missing) != 1 || viol.Missing[0] != "value" {
		t.Fatalf("missing list = %v, want [value]", viol.Missing)
	}
}

func TestDuplicateAddFails(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Add("obs", testsupport.GridStack(2, 4, 0)); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	err := s.Add("obs", testsupport.GridStack(2, 4, 0))
	var viol *schema.ViolationError
	if !errors.As(err, &viol) || viol.Reason != schema.DuplicateAttribute {
		t.Fatalf("expected DuplicateAttribute, got %v", err)
	}
}

func TestAddValidatesNameAndKind(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var viol *schema.ViolationError
	err := s.Add("reward", schema.NewText("1.0"))
	if !errors.As(err, &viol) || viol.Reason != schema.UnknownAttribute {
		t.Fatalf("expected UnknownAttribute, got %v", err)
	}
	err = s.Add("obs", schema.NewText("not a grid"))
	if !errors.As(err, &viol) || viol.Reason != schema.TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}

func TestFinalizeRequiresClosedStep(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Add("obs", testsupport.GridStack(2, 4, 0)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := s.Finalize(context.Background(), filepath.Join(t.TempDir(), "x"))
	var stateErr *recorder.StateError
	if !errors.As(err, &stateErr) || !stateErr.Pending {
		t.Fatalf("expected pending-step StateError, got %v", err)
	}
	if s.State() != recorder.StateRecording {
		t.Fatalf("session left state %s after failed Finalize", s.State())
	}
}

func TestOperationsOutsideValidStates(t *testing.T) {
	s := recorder.NewSession(nil)

	var stateErr *recorder.StateError
	if err := s.Start(); !errors.As(err, &stateErr) {
		t.Fatalf("Start before Init: %v", err)
	}
	if err := s.Add("obs", schema.NewText("x")); !errors.As(err, &stateErr) {
		t.Fatalf("Add before Init: %v", err)
	}
	if err := s.EndStep(); !errors.As(err, &stateErr) {
		t.Fatalf("EndStep before Init: %v", err)
	}
	if err := s.Finalize(context.Background(), "x"); !errors.As(err, &stateErr) {
		t.Fatalf("Finalize before Init: %v", err)
	}

	if err := s.Init([]string{"a"}, []schema.Kind{schema.KindText}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	// Init is not valid while configured or recording; only Unconfigured
	// and Finalized accept it.
	if err := s.Init([]string{"b"}, []schema.Kind{schema.KindText}); !errors.As(err, &stateErr) {
		t.Fatalf("Init while configured: %v", err)
	}
}

func TestInitRejectsBadSchema(t *testing.T) {
	s := recorder.NewSession(nil)
	err := s.Init([]string{"a", "a"}, []schema.Kind{schema.KindText, schema.KindText})
	var cfgErr *schema.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if s.State() != recorder.StateUnconfigured {
		t.Fatalf("failed Init changed state to %s", s.State())
	}
}

func TestPauseBlocksRecordingCalls(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	var stateErr *recorder.StateError
	if err := s.Add("obs", testsupport.GridStack(2, 4, 0)); !errors.As(err, &stateErr) {
		t.Fatalf("Add while paused: %v", err)
	}
	if err := s.EndStep(); !errors.As(err, &stateErr) {
		t.Fatalf("EndStep while paused: %v", err)
	}
	if err := s.Pause(); !errors.As(err, &stateErr) {
		t.Fatalf("double Pause: %v", err)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if err := s.Add("obs", testsupport.GridStack(2, 4, 0)); err != nil {
		t.Fatalf("Add after Resume: %v", err)
	}
}

func TestFinalizedSessionCanBeReinitialized(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Add("obs", testsupport.GridStack(2, 4, 0)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add("value", schema.NewText("v0")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.EndStep(); err != nil {
		t.Fatalf("EndStep failed: %v", err)
	}
	if err := s.Finalize(context.Background(), filepath.Join(t.TempDir(), "a.rlviz")); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if err := s.Init([]string{"next"}, []schema.Kind{schema.KindText}); err != nil {
		t.Fatalf("Init after Finalize failed: %v", err)
	}
	if s.State() != recorder.StateConfigured {
		t.Fatalf("state after re-Init = %s", s.State())
	}
}

func TestResetDropsEverything(t *testing.T) {
	s := newConfiguredSession(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Reset()
	if s.State() != recorder.StateUnconfigured {
		t.Fatalf("state after Reset = %s", s.State())
	}
	if s.Schema() != nil {
		t.Fatal("schema survived Reset")
	}
}
