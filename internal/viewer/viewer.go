package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"rlviz/internal/config"
	"rlviz/internal/logging"
	"rlviz/internal/store"
)

// ErrAlreadyRunning reports a second viewer instance contending for the
// same data directory.
var ErrAlreadyRunning = errors.New("another rlviz viewer instance is already running")

// Viewer owns the active store handle and the HTTP server that queries it.
type Viewer struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	active  atomic.Pointer[store.Handle]
	hub     *wsHub
	server  *apiServer
	running atomic.Bool
}

// New builds an unstarted viewer. Call Start to acquire the instance lock
// and begin serving.
func New(cfg *config.Config, logger *slog.Logger) (*Viewer, error) {
	if cfg == nil {
		return nil, errors.New("viewer requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "rlviz.lock")
	v := &Viewer{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "viewer"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		hub:      newWSHub(logger),
	}
	server, err := newAPIServer(cfg, v, logger)
	if err != nil {
		return nil, err
	}
	v.server = server
	return v, nil
}

// Start acquires the single-instance lock and starts the HTTP server. The
// server shuts down when ctx is cancelled.
func (v *Viewer) Start(ctx context.Context) error {
	if v.running.Load() {
		return errors.New("viewer already started")
	}
	if err := os.MkdirAll(filepath.Dir(v.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := v.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	if err := v.server.start(ctx); err != nil {
		_ = v.lock.Unlock()
		return err
	}
	v.running.Store(true)
	v.logger.Info("viewer started", slog.String("lock", v.lockPath))
	return nil
}

// Stop shuts the server down, disconnects clients, closes the active store,
// and releases the instance lock.
func (v *Viewer) Stop() {
	if !v.running.CompareAndSwap(true, false) {
		return
	}
	v.server.stop()
	v.hub.closeAll()
	if handle := v.active.Swap(nil); handle != nil {
		_ = handle.Close()
	}
	if err := v.lock.Unlock(); err != nil {
		v.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	v.logger.Info("viewer stopped")
}

// Addr reports the bound listen address, valid after Start.
func (v *Viewer) Addr() string {
	return v.server.addr()
}

// ReplaceStore loads the store at path and swaps it in as the active one.
// The load is validated completely before the swap, so a corrupt store
// leaves the current one serving. The previous handle is closed after the
// swap; reads already holding it finish against the old snapshot.
func (v *Viewer) ReplaceStore(ctx context.Context, path string) error {
	handle, err := store.Load(ctx, path)
	if err != nil {
		return err
	}
	old := v.active.Swap(handle)
	if old != nil {
		_ = old.Close()
	}
	v.logger.Info("store replaced",
		slog.String("path", handle.Path()),
		slog.Int("num_timesteps", handle.NumTimesteps()))
	v.hub.broadcastStoreReplaced(handle.Path(), handle.NumTimesteps())
	return nil
}

// Active returns the current store handle, or nil when none is loaded.
func (v *Viewer) Active() *store.Handle {
	return v.active.Load()
}
