package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rlviz/internal/schema"
	"rlviz/internal/store"
)

// QueryService exposes read-only views over one loaded store handle. It
// holds no mutable state, so one service instance may serve arbitrarily
// many concurrent requests.
type QueryService struct {
	handle *store.Handle
}

// NewQueryService wraps a loaded handle.
func NewQueryService(handle *store.Handle) *QueryService {
	return &QueryService{handle: handle}
}

// ListAttributes returns attribute names in schema init order, excluding
// names carrying the reserved internal-use prefix.
func (s *QueryService) ListAttributes() []string {
	attrs := s.handle.Attributes()
	names := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		if strings.HasPrefix(attr.Name, schema.ReservedPrefix) {
			continue
		}
		names = append(names, attr.Name)
	}
	return names
}

// Dtypes maps queryable attribute names to their kind labels.
func (s *QueryService) Dtypes() map[string]string {
	attrs := s.handle.Attributes()
	dtypes := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		if strings.HasPrefix(attr.Name, schema.ReservedPrefix) {
			continue
		}
		dtypes[attr.Name] = attr.Kind.String()
	}
	return dtypes
}

// NumTimesteps returns the episode length.
func (s *QueryService) NumTimesteps() int {
	return s.handle.NumTimesteps()
}

// Timestep reads and encodes every queryable attribute's value at t. A
// timestep outside [0, NumTimesteps) fails with the store's RangeError.
func (s *QueryService) Timestep(ctx context.Context, t int) (map[string]json.RawMessage, error) {
	if t < 0 || t >= s.handle.NumTimesteps() {
		return nil, &store.RangeError{Timestep: t, Num: s.handle.NumTimesteps()}
	}

	data := make(map[string]json.RawMessage)
	for _, name := range s.ListAttributes() {
		value, err := s.handle.Read(ctx, name, t)
		if err != nil {
			return nil, fmt.Errorf("read %q at %d: %w", name, t, err)
		}
		encoded, err := EncodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("encode %q at %d: %w", name, t, err)
		}
		data[name] = encoded
	}
	return data, nil
}
