package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rlviz/internal/api"
	"rlviz/internal/config"
	"rlviz/internal/logging"
	"rlviz/internal/store"
)

// maxUploadBytes caps the accepted store size; episodes are small relative
// to raw video, so this is generous.
const maxUploadBytes = 1 << 30

type apiServer struct {
	bind      string
	staticDir string
	uploadDir string
	logger    *slog.Logger
	viewer    *Viewer

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, v *Viewer, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}

	srv := &apiServer{
		bind:      bind,
		staticDir: cfg.Paths.StaticDir,
		uploadDir: cfg.Paths.UploadDir,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		viewer:    v,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/attributes", srv.handleAttributes)
	mux.HandleFunc("/api/dtypes", srv.handleDtypes)
	mux.HandleFunc("/api/num_timesteps", srv.handleNumTimesteps)
	mux.HandleFunc("/api/data", srv.handleData)
	mux.HandleFunc("/api/upload", srv.handleUpload)
	mux.HandleFunc("/ws", v.hub.handle)
	mux.HandleFunc("/", srv.handleRoot)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// service returns a query service over the active store, or nil when no
// store has been loaded yet.
func (s *apiServer) service() *api.QueryService {
	handle := s.viewer.Active()
	if handle == nil {
		return nil
	}
	return api.NewQueryService(handle)
}

func (s *apiServer) handleAttributes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc := s.service()
	if svc == nil {
		s.writeError(w, http.StatusConflict, "no store loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, api.AttributesResponse{Attributes: svc.ListAttributes()})
}

func (s *apiServer) handleDtypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc := s.service()
	if svc == nil {
		s.writeError(w, http.StatusConflict, "no store loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, api.DtypesResponse{Dtypes: svc.Dtypes()})
}

func (s *apiServer) handleNumTimesteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc := s.service()
	if svc == nil {
		s.writeError(w, http.StatusConflict, "no store loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, api.NumTimestepsResponse{NumTimesteps: svc.NumTimesteps()})
}

func (s *apiServer) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc := s.service()
	if svc == nil {
		s.writeError(w, http.StatusConflict, "no store loaded")
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("timestep"))
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "missing timestep parameter")
		return
	}
	t, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid timestep %q", raw))
		return
	}
	data, err := svc.Timestep(r.Context(), t)
	if err != nil {
		var rangeErr *store.RangeError
		if errors.As(err, &rangeErr) {
			s.writeError(w, http.StatusBadRequest, rangeErr.Error())
			return
		}
		var unknownErr *store.UnknownAttributeError
		if errors.As(err, &unknownErr) {
			s.writeError(w, http.StatusNotFound, unknownErr.Error())
			return
		}
		s.logger.Error("timestep query failed", slog.Int("timestep", t), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.TimestepResponse{Timestep: t, Data: data})
}

// handleUpload accepts a store file as multipart form field "file", persists
// it under the upload directory, validates it, and swaps it in.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing upload field \"file\"")
		return
	}
	defer file.Close()

	dest, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("upload save failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to persist upload")
		return
	}

	if err := s.viewer.ReplaceStore(r.Context(), dest); err != nil {
		_ = os.Remove(dest)
		var storageErr *store.StorageError
		if errors.As(err, &storageErr) {
			s.writeError(w, http.StatusBadRequest, storageErr.Error())
			return
		}
		s.logger.Error("upload load failed", slog.String("path", dest), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	handle := s.viewer.Active()
	s.writeJSON(w, http.StatusOK, api.UploadResponse{
		Message:      "store loaded",
		FilePath:     dest,
		NumTimesteps: handle.NumTimesteps(),
	})
}

func (s *apiServer) saveUpload(src io.Reader, original string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	// Uploads get unique names so a re-upload never truncates the store a
	// live handle is reading.
	name := uuid.NewString() + ".db"
	if base := filepath.Base(strings.TrimSpace(original)); base != "" && base != "." && base != string(filepath.Separator) {
		name = uuid.NewString() + "-" + base
	}
	dest := filepath.Join(s.uploadDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return dest, nil
}

// handleRoot serves the static frontend when one is configured, and a small
// JSON status document otherwise.
func (s *apiServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.staticDir != "" {
		http.FileServer(http.Dir(s.staticDir)).ServeHTTP(w, r)
		return
	}
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	status := map[string]any{"service": "rlviz", "store_loaded": false}
	if handle := s.viewer.Active(); handle != nil {
		status["store_loaded"] = true
		status["store_path"] = handle.Path()
		status["num_timesteps"] = handle.NumTimesteps()
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
