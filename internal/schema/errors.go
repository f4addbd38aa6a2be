package schema

import (
	"fmt"
	"strings"
)

// ConfigError reports an invalid schema definition at init time.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "schema config: " + e.Reason
}

// ViolationReason classifies a schema violation during recording.
type ViolationReason string

const (
	// UnknownAttribute means the attribute name is not in the schema.
	UnknownAttribute ViolationReason = "unknown_attribute"
	// TypeMismatch means the value's kind does not match the declared kind.
	TypeMismatch ViolationReason = "type_mismatch"
	// DuplicateAttribute means the attribute was already added this step.
	DuplicateAttribute ViolationReason = "duplicate_attribute"
	// MissingAttribute means end of step was requested before every schema
	// attribute received a value.
	MissingAttribute ViolationReason = "missing_attribute"
)

// ViolationError reports a producer-side schema violation. These indicate a
// logging bug in the producer and are never silently recovered.
type ViolationError struct {
	Reason ViolationReason
	// Attribute is the offending name for single-attribute violations.
	Attribute string
	// Missing lists the absent attributes for MissingAttribute.
	Missing []string
	// Want and Got carry kinds for TypeMismatch.
	Want, Got Kind
}

func (e *ViolationError) Error() string {
	switch e.Reason {
	case UnknownAttribute:
		return fmt.Sprintf("schema violation: attribute %q was not initialized", e.Attribute)
	case TypeMismatch:
		return fmt.Sprintf("schema violation: attribute %q expects kind %s, got %s", e.Attribute, e.Want, e.Got)
	case DuplicateAttribute:
		return fmt.Sprintf("schema violation: attribute %q already added this step", e.Attribute)
	case MissingAttribute:
		return fmt.Sprintf("schema violation: step is missing attributes: %s", strings.Join(e.Missing, ", "))
	}
	return "schema violation"
}

// Is makes errors.Is match any ViolationError with the same reason.
func (e *ViolationError) Is(target error) bool {
	other, ok := target.(*ViolationError)
	if !ok {
		return false
	}
	return other.Reason == e.Reason
}
