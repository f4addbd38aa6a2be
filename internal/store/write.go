package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rlviz/internal/schema"
)

const formatVersion = 1

const createTablesSQL = `
CREATE TABLE meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE attributes (
    position INTEGER PRIMARY KEY,
    name     TEXT NOT NULL UNIQUE,
    kind     TEXT NOT NULL,
    shape    TEXT NOT NULL
);
CREATE TABLE samples (
    attribute TEXT NOT NULL,
    timestep  INTEGER NOT NULL,
    payload   BLOB NOT NULL,
    PRIMARY KEY (attribute, timestep)
) WITHOUT ROWID;
`

// Write persists an episode log to destination as a new attribute store.
// The write is staged next to the destination and published with a rename,
// while a sibling lock file grants scoped exclusive access to the path. Any
// failure removes the staging file and leaves the destination untouched.
func Write(ctx context.Context, destination string, sc *schema.Schema, log schema.EpisodeLog) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if sc == nil || sc.Len() == 0 {
		return &StorageError{Kind: WriteFailed, Path: destination, Err: fmt.Errorf("schema is empty")}
	}

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Kind: WriteFailed, Path: destination, Err: err}
	}

	lock := flock.New(destination + ".lock")
	if err := lock.Lock(); err != nil {
		return &StorageError{Kind: WriteFailed, Path: destination, Err: fmt.Errorf("acquire lock: %w", err)}
	}
	defer func() {
		_ = lock.Unlock()
	}()

	staging := filepath.Join(dir, ".staging-"+uuid.NewString()+".db")
	if err := writeStaging(ctx, staging, sc, log); err != nil {
		_ = os.Remove(staging)
		return err
	}
	if err := os.Rename(staging, destination); err != nil {
		_ = os.Remove(staging)
		return &StorageError{Kind: WriteFailed, Path: destination, Err: fmt.Errorf("publish: %w", err)}
	}
	return nil
}

func writeStaging(ctx context.Context, staging string, sc *schema.Schema, log schema.EpisodeLog) error {
	db, err := sql.Open("sqlite", staging)
	if err != nil {
		return &StorageError{Kind: WriteFailed, Path: staging, Err: err}
	}
	defer db.Close()

	// The staging file is discarded on any failure, so journaling buys
	// nothing during the initial population.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=OFF"); err != nil {
		return &StorageError{Kind: WriteFailed, Path: staging, Err: err}
	}
	if _, err := db.ExecContext(ctx, createTablesSQL); err != nil {
		return &StorageError{Kind: WriteFailed, Path: staging, Err: err}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Kind: WriteFailed, Path: staging, Err: err}
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertMeta(ctx, tx, log.NumTimesteps()); err != nil {
		return &StorageError{Kind: WriteFailed, Path: staging, Err: err}
	}
	if err := insertEpisode(ctx, tx, sc, log); err != nil {
		return &StorageError{Kind: WriteFailed, Path: staging, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Kind: WriteFailed, Path: staging, Err: err}
	}
	return db.Close()
}

func insertMeta(ctx context.Context, tx *sql.Tx, numTimesteps int) error {
	metaStmt, err := tx.PrepareContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer metaStmt.Close()

	rows := [][2]string{
		{"format_version", fmt.Sprintf("%d", formatVersion)},
		{"num_timesteps", fmt.Sprintf("%d", numTimesteps)},
		{"created_at", time.Now().UTC().Format(time.RFC3339Nano)},
	}
	for _, kv := range rows {
		if _, err := metaStmt.ExecContext(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert meta %s: %w", kv[0], err)
		}
	}
	return nil
}

func insertEpisode(ctx context.Context, tx *sql.Tx, sc *schema.Schema, log schema.EpisodeLog) error {
	attrStmt, err := tx.PrepareContext(ctx, "INSERT INTO attributes (position, name, kind, shape) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer attrStmt.Close()

	sampleStmt, err := tx.PrepareContext(ctx, "INSERT INTO samples (attribute, timestep, payload) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer sampleStmt.Close()

	for position, attr := range sc.Attributes() {
		var attrShape shape
		for t, step := range log {
			value, ok := step[attr.Name]
			if !ok {
				return fmt.Errorf("timestep %d has no value for attribute %q", t, attr.Name)
			}
			if value.Kind() != attr.Kind {
				return fmt.Errorf("timestep %d attribute %q has kind %s, schema declares %s", t, attr.Name, value.Kind(), attr.Kind)
			}
			sh := shapeOf(value)
			if t == 0 {
				attrShape = sh
			} else if sh != attrShape {
				return fmt.Errorf("attribute %q changes shape at timestep %d", attr.Name, t)
			}
			payload, err := encodeValue(value)
			if err != nil {
				return fmt.Errorf("encode %q at timestep %d: %w", attr.Name, t, err)
			}
			if _, err := sampleStmt.ExecContext(ctx, attr.Name, t, payload); err != nil {
				return fmt.Errorf("insert sample %q/%d: %w", attr.Name, t, err)
			}
		}

		shapeJSON, err := json.Marshal(attrShape)
		if err != nil {
			return fmt.Errorf("marshal shape for %q: %w", attr.Name, err)
		}
		if _, err := attrStmt.ExecContext(ctx, position, attr.Name, string(attr.Kind), string(shapeJSON)); err != nil {
			return fmt.Errorf("insert attribute %q: %w", attr.Name, err)
		}
	}
	return nil
}
