package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coclip/coclip-agent/internal/catalog"
	"github.com/coclip/coclip-agent/internal/db"
	"github.com/coclip/coclip-agent/internal/ids"
	"github.com/coclip/coclip-agent/internal/interaction"
	"github.com/coclip/coclip-agent/internal/logging"
	"github.com/coclip/coclip-agent/internal/pipeline"
	"github.com/coclip/coclip-agent/internal/playback"
	"github.com/coclip/coclip-agent/internal/timeline"
)

const testToken = "test-token"

type testEnv struct {
	cfg    ServerConfig
	router http.Handler
	text   string
	video  string
	audio  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := catalog.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), authTokenKey, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	logger := logging.Discard()
	project := timeline.NewProject(timeline.ProjectConfig{}, ids.Sequence("track"))
	doc := timeline.NewDocument(project, timeline.WithIDGenerator(ids.Sequence("id")))
	wall := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := playback.NewClock(playback.WithNow(func() time.Time { return wall }))
	service := catalog.NewService(repo, pipeline.NewStubFFmpeg(logger), doc, "", logger)

	cfg := ServerConfig{
		Document:   doc,
		Controller: interaction.NewController(doc, clock, interaction.WithLogger(logger)),
		Clock:      clock,
		Media:      playback.NewMediaServer(logger),
		Catalog:    service,
		Repository: repo,
		Runner:     catalog.NewRunner(service, repo, logger),
		Logger:     logger,
		StartTime:  time.Now(),
		Version:    "test",
		DeviceID:   "test-device",
	}
	return &testEnv{
		cfg:    cfg,
		router: NewRouter(cfg),
		text:   project.Tracks[0].ID,
		video:  project.Tracks[1].ID,
		audio:  project.Tracks[2].ID,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) addAsset(t *testing.T, kind timeline.Kind, source string, duration float64) string {
	t.Helper()
	id := e.cfg.Document.AddAsset(timeline.AssetDescriptor{Kind: kind, Source: source, Name: filepath.Base(source), Duration: duration})
	if id == "" {
		t.Fatalf("AddAsset(%s) failed", kind)
	}
	return id
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rr, status)
	body := decode[ErrorResponse](t, rr)
	if body.Code != code {
		t.Errorf("error code = %q, want %q", body.Code, code)
	}
}

func TestHealth_NoAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	expectStatus(t, rr, http.StatusOK)
	body := decode[HealthResponse](t, rr)
	if body.Status != "ok" || body.DeviceID != "test-device" || body.Version != "test" {
		t.Errorf("health = %+v", body)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + testToken, http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + testToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/project", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

type fakeDoctor struct {
	caps *pipeline.Capabilities
}

func (f *fakeDoctor) Check(ctx context.Context) (*pipeline.Capabilities, error) {
	return f.caps, nil
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	assetID := env.addAsset(t, timeline.KindVideo, "/media/a.mp4", 10)
	if _, ok := env.cfg.Controller.AddToEnd(assetID); !ok {
		t.Fatal("AddToEnd() failed")
	}

	rr := env.do(t, http.MethodGet, "/status", nil)
	expectStatus(t, rr, http.StatusOK)
	body := decode[StatusResponse](t, rr)
	if body.State != "idle" || body.AssetsCount != 1 || body.ClipsCount != 1 {
		t.Errorf("status = %+v", body)
	}
	if body.Toolchain != nil {
		t.Error("toolchain should be omitted without a doctor")
	}
}

func TestStatus_ToolchainFromCache(t *testing.T) {
	env := newTestEnv(t)
	doctor := pipeline.NewCachedDoctor(&fakeDoctor{caps: &pipeline.Capabilities{
		FFmpeg:   pipeline.ToolInfo{Available: true, Version: "6.1.1"},
		FFprobe:  pipeline.ToolInfo{Available: true},
		ProbedAt: time.Now(),
	}}, logging.Discard())
	env.cfg.Doctor = doctor
	env.router = NewRouter(env.cfg)

	body := decode[StatusResponse](t, env.do(t, http.MethodGet, "/status", nil))
	if body.Toolchain != nil {
		t.Fatal("toolchain should be omitted before the first probe")
	}

	if _, err := doctor.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	body = decode[StatusResponse](t, env.do(t, http.MethodGet, "/status", nil))
	if body.Toolchain == nil || !body.Toolchain.FFmpeg || !body.Toolchain.FFprobe {
		t.Fatalf("toolchain = %+v", body.Toolchain)
	}
	if body.Toolchain.Version != "6.1.1" || body.Toolchain.LastProbeAt == "" {
		t.Errorf("toolchain = %+v", body.Toolchain)
	}
}

func TestImport_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("not really video"), 0o644); err != nil {
		t.Fatal(err)
	}

	rr := env.do(t, http.MethodPost, "/assets/import", ImportRequest{Path: path})
	expectStatus(t, rr, http.StatusAccepted)
	job := decode[JobResponse](t, rr)
	if job.Status != catalog.JobStatusPending || job.Type != catalog.JobTypeImport {
		t.Fatalf("job = %+v", job)
	}

	if n := env.cfg.Runner.Drain(context.Background()); n != 1 {
		t.Fatalf("Drain() = %d, want 1", n)
	}

	rr = env.do(t, http.MethodGet, "/jobs/"+job.ID, nil)
	expectStatus(t, rr, http.StatusOK)
	done := decode[JobResponse](t, rr)
	if done.Status != catalog.JobStatusCompleted || done.AssetID == "" || done.Progress != 100 {
		t.Fatalf("finished job = %+v", done)
	}

	assets := decode[AssetsResponse](t, env.do(t, http.MethodGet, "/assets", nil))
	if len(assets.Assets) != 1 || assets.Assets[0].ID != done.AssetID || assets.Assets[0].Kind != timeline.KindVideo {
		t.Fatalf("assets = %+v", assets.Assets)
	}

	media := decode[MediaFilesResponse](t, env.do(t, http.MethodGet, "/media", nil))
	if len(media.Files) != 1 || media.Files[0].SizeHuman == "" || media.Files[0].Filename != "clip.mp4" {
		t.Fatalf("media = %+v", media.Files)
	}

	jobs := decode[JobsResponse](t, env.do(t, http.MethodGet, "/jobs", nil))
	if len(jobs.Jobs) != 1 {
		t.Errorf("len(jobs) = %d, want 1", len(jobs.Jobs))
	}
}

func TestImport_Rejections(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  ImportRequest
		want int
		code string
	}{
		{"empty path", ImportRequest{}, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing file", ImportRequest{Path: filepath.Join(dir, "gone.mp4")}, http.StatusBadRequest, "BAD_REQUEST"},
		{"unsupported", ImportRequest{Path: notes}, http.StatusUnprocessableEntity, "UNSUPPORTED_MEDIA"},
		{"folder flag on file", ImportRequest{Path: notes, Folder: true}, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectErrorCode(t, env.do(t, http.MethodPost, "/assets/import", tt.req), tt.want, tt.code)
		})
	}
}

func TestImport_Folder(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "b.wav", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rr := env.do(t, http.MethodPost, "/assets/import", ImportRequest{Path: dir, Folder: true})
	expectStatus(t, rr, http.StatusAccepted)
	if job := decode[JobResponse](t, rr); job.Type != catalog.JobTypeScan {
		t.Fatalf("job type = %s, want scan", job.Type)
	}

	env.cfg.Runner.Drain(context.Background())
	if n := len(env.cfg.Document.Snapshot().Assets); n != 2 {
		t.Errorf("assets = %d, want 2", n)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	env := newTestEnv(t)
	expectErrorCode(t, env.do(t, http.MethodGet, "/jobs/missing", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestProject_Snapshot(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/project", nil)
	expectStatus(t, rr, http.StatusOK)
	body := decode[ProjectResponse](t, rr)
	if len(body.Project.Tracks) != 3 || body.Project.Duration != 60 {
		t.Fatalf("project = %+v", body.Project)
	}

	env.addAsset(t, timeline.KindAudio, "/media/a.wav", 3)
	next := decode[ProjectResponse](t, env.do(t, http.MethodGet, "/project", nil))
	if next.Version <= body.Version {
		t.Errorf("version %d did not advance past %d", next.Version, body.Version)
	}
}
