package schema

import "fmt"

// Kind identifies the shape family of an attribute's per-timestep values.
type Kind string

const (
	// KindColor is a fixed-size H×W RGB pixel matrix.
	KindColor Kind = "color"
	// KindGrid is an ordered stack of D equally sized S×S numeric panels.
	KindGrid Kind = "grid"
	// KindText is a string or an ordered sequence of strings.
	KindText Kind = "text"
)

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	switch k {
	case KindColor, KindGrid, KindText:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ParseKind converts a stored kind label back into a Kind.
func ParseKind(label string) (Kind, error) {
	k := Kind(label)
	if !k.Valid() {
		return "", fmt.Errorf("unknown attribute kind %q", label)
	}
	return k, nil
}
