package store

import "fmt"

// StorageErrorKind classifies a storage failure.
type StorageErrorKind string

const (
	// NotFound means no store exists at the requested path.
	NotFound StorageErrorKind = "not_found"
	// CorruptFormat means the container is unreadable or internally
	// inconsistent.
	CorruptFormat StorageErrorKind = "corrupt_format"
	// WriteFailed means the store could not be staged or published.
	WriteFailed StorageErrorKind = "write_failed"
)

// StorageError reports a failure writing or loading a store.
type StorageError struct {
	Kind StorageErrorKind
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store %s (%s): %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("store %s (%s)", e.Kind, e.Path)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is match any StorageError with the same kind.
func (e *StorageError) Is(target error) bool {
	other, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// RangeError reports a timestep outside [0, NumTimesteps).
type RangeError struct {
	Timestep int
	Num      int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("timestep %d out of range [0, %d)", e.Timestep, e.Num)
}

// Is makes errors.Is match any RangeError.
func (e *RangeError) Is(target error) bool {
	_, ok := target.(*RangeError)
	return ok
}

// UnknownAttributeError reports a read of an attribute absent from the
// store's schema.
type UnknownAttributeError struct {
	Attribute string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("attribute %q is not in the store", e.Attribute)
}

// Is makes errors.Is match any UnknownAttributeError.
func (e *UnknownAttributeError) Is(target error) bool {
	_, ok := target.(*UnknownAttributeError)
	return ok
}
