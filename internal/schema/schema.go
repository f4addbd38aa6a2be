package schema

import "fmt"

// ReservedPrefix marks attribute names for internal use. They are persisted
// and readable but excluded from attribute listings.
const ReservedPrefix = "_"

// Attribute pairs a name with its declared kind.
type Attribute struct {
	Name string
	Kind Kind
}

// Schema is the ordered, immutable set of attributes fixed at init time.
// The zero value is an empty schema; construct with New.
type Schema struct {
	attrs []Attribute
	index map[string]int
}

// New builds a schema from parallel name and kind slices. It fails with a
// ConfigError when the slices differ in length, a name is empty or repeated,
// a kind is outside the closed set, or the schema would be empty.
func New(names []string, kinds []Kind) (*Schema, error) {
	if len(names) != len(kinds) {
		return nil, &ConfigError{Reason: fmt.Sprintf("names and kinds differ in length (%d vs %d)", len(names), len(kinds))}
	}
	if len(names) == 0 {
		return nil, &ConfigError{Reason: "at least one attribute is required"}
	}

	s := &Schema{
		attrs: make([]Attribute, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, &ConfigError{Reason: "attribute names must be non-empty"}
		}
		if _, dup := s.index[name]; dup {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate attribute name %q", name)}
		}
		if !kinds[i].Valid() {
			return nil, &ConfigError{Reason: fmt.Sprintf("attribute %q has unknown kind %q", name, kinds[i])}
		}
		s.index[name] = i
		s.attrs = append(s.attrs, Attribute{Name: name, Kind: kinds[i]})
	}
	return s, nil
}

// Len returns the number of attributes.
func (s *Schema) Len() int { return len(s.attrs) }

// Attributes returns the attributes in init order.
func (s *Schema) Attributes() []Attribute {
	out := make([]Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Names returns attribute names in init order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		out[i] = a.Name
	}
	return out
}

// KindOf returns the declared kind for name.
func (s *Schema) KindOf(name string) (Kind, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.attrs[i].Kind, true
}

// Has reports whether name is part of the schema.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// CheckValue verifies that v matches name's declared kind and carries a
// consistent shape. Violations return a ViolationError.
func (s *Schema) CheckValue(name string, v Value) error {
	kind, ok := s.KindOf(name)
	if !ok {
		return &ViolationError{Reason: UnknownAttribute, Attribute: name}
	}
	if v == nil {
		return &ViolationError{Reason: TypeMismatch, Attribute: name, Want: kind}
	}
	if v.Kind() != kind {
		return &ViolationError{Reason: TypeMismatch, Attribute: name, Want: kind, Got: v.Kind()}
	}
	if err := v.Validate(); err != nil {
		return &ViolationError{Reason: TypeMismatch, Attribute: name, Want: kind, Got: v.Kind()}
	}
	return nil
}
