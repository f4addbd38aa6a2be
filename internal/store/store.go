package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	_ "modernc.org/sqlite"

	"rlviz/internal/schema"
)

// Handle is a read-only view over one persisted attribute store. Schema and
// timestep count are cached at load time; payloads are fetched on demand, so
// reads are random access. A Handle is safe for concurrent readers.
type Handle struct {
	db           *sql.DB
	path         string
	attrs        []schema.Attribute
	shapes       map[string]shape
	numTimesteps int
}

// Load opens the store at path and validates its internal consistency.
// A missing file fails with NotFound; an unreadable or inconsistent
// container fails with CorruptFormat.
func Load(ctx context.Context, path string) (*Handle, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &StorageError{Kind: NotFound, Path: path, Err: err}
		}
		return nil, &StorageError{Kind: CorruptFormat, Path: path, Err: err}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &StorageError{Kind: CorruptFormat, Path: path, Err: err}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, &StorageError{Kind: CorruptFormat, Path: path, Err: err}
	}

	h := &Handle{db: db, path: path, shapes: make(map[string]shape)}
	if err := h.loadMetadata(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := h.verifyLengths(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *Handle) corrupt(format string, args ...any) error {
	return &StorageError{Kind: CorruptFormat, Path: h.path, Err: fmt.Errorf(format, args...)}
}

func (h *Handle) loadMetadata(ctx context.Context) error {
	var version string
	if err := h.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'format_version'").Scan(&version); err != nil {
		return h.corrupt("read format version: %w", err)
	}
	if v, err := strconv.Atoi(version); err != nil || v != formatVersion {
		return h.corrupt("unsupported format version %q", version)
	}

	var stepsRaw string
	if err := h.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'num_timesteps'").Scan(&stepsRaw); err != nil {
		return h.corrupt("read num_timesteps: %w", err)
	}
	steps, err := strconv.Atoi(stepsRaw)
	if err != nil || steps < 0 {
		return h.corrupt("invalid num_timesteps %q", stepsRaw)
	}
	h.numTimesteps = steps

	rows, err := h.db.QueryContext(ctx, "SELECT name, kind, shape FROM attributes ORDER BY position")
	if err != nil {
		return h.corrupt("read attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, kindLabel, shapeJSON string
		if err := rows.Scan(&name, &kindLabel, &shapeJSON); err != nil {
			return h.corrupt("scan attribute row: %w", err)
		}
		kind, err := schema.ParseKind(kindLabel)
		if err != nil {
			return h.corrupt("attribute %q: %w", name, err)
		}
		var sh shape
		if err := json.Unmarshal([]byte(shapeJSON), &sh); err != nil {
			return h.corrupt("attribute %q shape: %w", name, err)
		}
		h.attrs = append(h.attrs, schema.Attribute{Name: name, Kind: kind})
		h.shapes[name] = sh
	}
	if err := rows.Err(); err != nil {
		return h.corrupt("iterate attributes: %w", err)
	}
	if len(h.attrs) == 0 {
		return h.corrupt("store declares no attributes")
	}
	return nil
}

// verifyLengths confirms every attribute holds a contiguous sequence of
// exactly numTimesteps samples.
func (h *Handle) verifyLengths(ctx context.Context) error {
	for _, attr := range h.attrs {
		var count int
		var minT, maxT sql.NullInt64
		err := h.db.QueryRowContext(ctx,
			"SELECT COUNT(*), MIN(timestep), MAX(timestep) FROM samples WHERE attribute = ?",
			attr.Name,
		).Scan(&count, &minT, &maxT)
		if err != nil {
			return h.corrupt("count samples for %q: %w", attr.Name, err)
		}
		if count != h.numTimesteps {
			return h.corrupt("attribute %q has %d samples, store declares %d timesteps", attr.Name, count, h.numTimesteps)
		}
		if count > 0 && (minT.Int64 != 0 || maxT.Int64 != int64(count-1)) {
			return h.corrupt("attribute %q timesteps are not contiguous", attr.Name)
		}
	}
	return nil
}

// Close releases the underlying database connection.
func (h *Handle) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Path returns the file path this handle was loaded from.
func (h *Handle) Path() string { return h.path }

// NumTimesteps returns the episode length.
func (h *Handle) NumTimesteps() int { return h.numTimesteps }

// Attributes returns the stored schema in its original init order,
// including reserved internally prefixed names.
func (h *Handle) Attributes() []schema.Attribute {
	out := make([]schema.Attribute, len(h.attrs))
	copy(out, h.attrs)
	return out
}

// KindOf returns the stored kind for name.
func (h *Handle) KindOf(name string) (schema.Kind, bool) {
	for _, attr := range h.attrs {
		if attr.Name == name {
			return attr.Kind, true
		}
	}
	return "", false
}

// Read decodes the value of attr at timestep t.
func (h *Handle) Read(ctx context.Context, attr string, t int) (schema.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sh, ok := h.shapes[attr]
	if !ok {
		return nil, &UnknownAttributeError{Attribute: attr}
	}
	if t < 0 || t >= h.numTimesteps {
		return nil, &RangeError{Timestep: t, Num: h.numTimesteps}
	}
	kind, _ := h.KindOf(attr)

	var payload []byte
	err := h.db.QueryRowContext(ctx,
		"SELECT payload FROM samples WHERE attribute = ? AND timestep = ?",
		attr, t,
	).Scan(&payload)
	if err != nil {
		return nil, h.corrupt("read sample %q/%d: %w", attr, t, err)
	}
	value, err := decodeValue(kind, sh, payload)
	if err != nil {
		return nil, h.corrupt("decode sample %q/%d: %w", attr, t, err)
	}
	return value, nil
}
