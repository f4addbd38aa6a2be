package viewer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"rlviz/internal/api"
	"rlviz/internal/logging"
	"rlviz/internal/testsupport"
	"rlviz/internal/viewer"
)

func startViewer(t *testing.T) (*viewer.Viewer, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	v, err := viewer.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("viewer.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := v.Start(ctx); err != nil {
		cancel()
		t.Fatalf("viewer.Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		v.Stop()
	})
	return v, "http://" + v.Addr()
}

func writeSampleStore(t *testing.T, steps int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "episode.db")
	sc, log := testsupport.Episode(t, steps)
	testsupport.MustWriteStore(t, path, sc, log)
	return path
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestViewerServesQueries(t *testing.T) {
	v, base := startViewer(t)
	storePath := writeSampleStore(t, 3)
	if err := v.ReplaceStore(context.Background(), storePath); err != nil {
		t.Fatalf("ReplaceStore: %v", err)
	}

	var attrs api.AttributesResponse
	if code := getJSON(t, base+"/api/attributes", &attrs); code != http.StatusOK {
		t.Fatalf("attributes status = %d", code)
	}
	if len(attrs.Attributes) != 2 || attrs.Attributes[0] != "obs" || attrs.Attributes[1] != "value" {
		t.Fatalf("attributes = %v", attrs.Attributes)
	}

	var dtypes api.DtypesResponse
	if code := getJSON(t, base+"/api/dtypes", &dtypes); code != http.StatusOK {
		t.Fatalf("dtypes status = %d", code)
	}
	if dtypes.Dtypes["obs"] != "grid" || dtypes.Dtypes["value"] != "text" {
		t.Fatalf("dtypes = %v", dtypes.Dtypes)
	}

	var num api.NumTimestepsResponse
	if code := getJSON(t, base+"/api/num_timesteps", &num); code != http.StatusOK {
		t.Fatalf("num_timesteps status = %d", code)
	}
	if num.NumTimesteps != 3 {
		t.Fatalf("num_timesteps = %d, want 3", num.NumTimesteps)
	}

	var step api.TimestepResponse
	if code := getJSON(t, base+"/api/data?timestep=1", &step); code != http.StatusOK {
		t.Fatalf("data status = %d", code)
	}
	if step.Timestep != 1 {
		t.Fatalf("timestep = %d, want 1", step.Timestep)
	}
	var value string
	if err := json.Unmarshal(step.Data["value"], &value); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if value != "v1" {
		t.Fatalf("value = %q, want v1", value)
	}
	var obs [][][]float64
	if err := json.Unmarshal(step.Data["obs"], &obs); err != nil {
		t.Fatalf("decode obs: %v", err)
	}
	if len(obs) != 4 || len(obs[0]) != 6 || obs[2][1][3] != float64(2*10000+1*100+3+1) {
		t.Fatalf("unexpected obs payload")
	}
}

func TestViewerQueryErrors(t *testing.T) {
	v, base := startViewer(t)

	// Nothing loaded yet.
	for _, path := range []string{"/api/attributes", "/api/dtypes", "/api/num_timesteps", "/api/data?timestep=0"} {
		if code := getJSON(t, base+path, nil); code != http.StatusConflict {
			t.Fatalf("%s status = %d before load, want 409", path, code)
		}
	}

	if err := v.ReplaceStore(context.Background(), writeSampleStore(t, 2)); err != nil {
		t.Fatalf("ReplaceStore: %v", err)
	}
	if code := getJSON(t, base+"/api/data?timestep=5", nil); code != http.StatusBadRequest {
		t.Fatalf("out-of-range status = %d, want 400", code)
	}
	if code := getJSON(t, base+"/api/data?timestep=abc", nil); code != http.StatusBadRequest {
		t.Fatalf("bad parameter status = %d, want 400", code)
	}
	if code := getJSON(t, base+"/api/data", nil); code != http.StatusBadRequest {
		t.Fatalf("missing parameter status = %d, want 400", code)
	}
	// Errors do not disturb the active store.
	if code := getJSON(t, base+"/api/data?timestep=1", nil); code != http.StatusOK {
		t.Fatalf("valid query after errors = %d, want 200", code)
	}
}

func postUpload(t *testing.T, url, filename string, content []byte) (*http.Response, []byte) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read upload response: %v", err)
	}
	return resp, payload
}

func TestViewerUploadSwapsStoreAndNotifies(t *testing.T) {
	v, base := startViewer(t)

	wsURL := "ws://" + v.Addr() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	content, err := os.ReadFile(writeSampleStore(t, 4))
	if err != nil {
		t.Fatalf("read sample store: %v", err)
	}
	resp, payload := postUpload(t, base+"/api/upload", "episode.db", content)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d: %s", resp.StatusCode, payload)
	}
	var uploaded api.UploadResponse
	if err := json.Unmarshal(payload, &uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if uploaded.NumTimesteps != 4 {
		t.Fatalf("uploaded num_timesteps = %d, want 4", uploaded.NumTimesteps)
	}
	if handle := v.Active(); handle == nil || handle.NumTimesteps() != 4 {
		t.Fatal("active store not swapped after upload")
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket event: %v", err)
	}
	var event struct {
		Type         string `json:"type"`
		NumTimesteps int    `json:"num_timesteps"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		t.Fatalf("decode websocket event: %v", err)
	}
	if event.Type != "store_replaced" || event.NumTimesteps != 4 {
		t.Fatalf("unexpected event %s", message)
	}
}

func TestViewerRejectsCorruptUpload(t *testing.T) {
	v, base := startViewer(t)
	if err := v.ReplaceStore(context.Background(), writeSampleStore(t, 2)); err != nil {
		t.Fatalf("ReplaceStore: %v", err)
	}

	resp, payload := postUpload(t, base+"/api/upload", "garbage.db", []byte("this is not a store"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("corrupt upload status = %d: %s", resp.StatusCode, payload)
	}
	// The previous store keeps serving.
	if handle := v.Active(); handle == nil || handle.NumTimesteps() != 2 {
		t.Fatal("corrupt upload disturbed the active store")
	}
	var num api.NumTimestepsResponse
	if code := getJSON(t, base+"/api/num_timesteps", &num); code != http.StatusOK || num.NumTimesteps != 2 {
		t.Fatalf("query after corrupt upload = %d timesteps, status %d", num.NumTimesteps, code)
	}
}

func TestViewerUploadRequiresFileField(t *testing.T) {
	_, base := startViewer(t)
	resp, err := http.Post(base+"/api/upload", "application/octet-stream", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("field-less upload status = %d, want 400", resp.StatusCode)
	}
}

func TestViewerSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := viewer.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("viewer.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second, err := viewer.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("second viewer.New: %v", err)
	}
	if err := second.Start(ctx); !errors.Is(err, viewer.ErrAlreadyRunning) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRunning", err)
	}
}

func TestViewerRootStatus(t *testing.T) {
	v, base := startViewer(t)
	var status map[string]any
	if code := getJSON(t, base+"/", &status); code != http.StatusOK {
		t.Fatalf("root status = %d", code)
	}
	if status["store_loaded"] != false {
		t.Fatalf("store_loaded = %v before load", status["store_loaded"])
	}
	if err := v.ReplaceStore(context.Background(), writeSampleStore(t, 1)); err != nil {
		t.Fatalf("ReplaceStore: %v", err)
	}
	if code := getJSON(t, base+"/", &status); code != http.StatusOK {
		t.Fatalf("root status = %d after load", code)
	}
	if status["store_loaded"] != true {
		t.Fatalf("store_loaded = %v after load", status["store_loaded"])
	}
	if fmt.Sprintf("%v", status["num_timesteps"]) != "1" {
		t.Fatalf("num_timesteps = %v, want 1", status["num_timesteps"])
	}
}
