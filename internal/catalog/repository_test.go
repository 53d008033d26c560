package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/coclip/coclip-agent/internal/timeline"
)

func TestRepository_UpsertMediaFileKeepsID(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	first := &MediaFile{
		ID: "file-1", Path: "/media/a.mp4", Filename: "a.mp4", Kind: timeline.KindVideo,
		Size: 10, Mtime: time.Now(), Fingerprint: "abc", Duration: 4, CreatedAt: time.Now(),
	}
	if err := repo.UpsertMediaFile(ctx, first); err != nil {
		t.Fatalf("UpsertMediaFile() error = %v", err)
	}

	again := *first
	again.ID = "file-2"
	again.Duration = 6
	if err := repo.UpsertMediaFile(ctx, &again); err != nil {
		t.Fatalf("UpsertMediaFile() error = %v", err)
	}
	if again.ID != "file-1" {
		t.Errorf("ID = %q, want the stored file-1", again.ID)
	}

	got, err := repo.GetMediaFileByPath(ctx, "/media/a.mp4")
	if err != nil || got == nil {
		t.Fatalf("GetMediaFileByPath() = %v, %v", got, err)
	}
	if got.Duration != 6 {
		t.Errorf("Duration = %v, want 6", got.Duration)
	}
	if n, _ := repo.CountMediaFiles(ctx); n != 1 {
		t.Errorf("CountMediaFiles() = %d, want 1", n)
	}
}

func TestRepository_FingerprintLookupMatchesSize(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	repo.UpsertMediaFile(ctx, &MediaFile{
		ID: "file-1", Path: "/media/a.mp4", Filename: "a.mp4", Kind: timeline.KindVideo,
		Size: 10, Mtime: time.Now(), Fingerprint: "abc", CreatedAt: time.Now(),
	})

	if got, _ := repo.GetMediaFileByFingerprint(ctx, "abc", 10); got == nil || got.ID != "file-1" {
		t.Errorf("lookup = %+v", got)
	}
	if got, _ := repo.GetMediaFileByFingerprint(ctx, "abc", 11); got != nil {
		t.Errorf("lookup with other size = %+v, want nil", got)
	}
	if got, _ := repo.GetMediaFile(ctx, "missing"); got != nil {
		t.Errorf("GetMediaFile(missing) = %+v, want nil", got)
	}
}

func TestRepository_JobLifecycle(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"job-a", "job-b"} {
		ts := base.Add(time.Duration(i) * time.Millisecond)
		if err := repo.CreateJob(ctx, &Job{ID: id, Type: JobTypeImport, Status: JobStatusPending, Path: "/m/" + id, CreatedAt: ts, UpdatedAt: ts}); err != nil {
			t.Fatalf("CreateJob() error = %v", err)
		}
	}

	pending, _ := repo.ListPendingJobs(ctx)
	if len(pending) != 2 || pending[0].ID != "job-a" {
		t.Fatalf("pending = %+v", pending)
	}

	repo.UpdateJobStatus(ctx, "job-a", JobStatusRunning, "")
	repo.UpdateJobProgress(ctx, "job-a", 40)
	repo.SetJobResult(ctx, "job-a", "file-1", "asset-1")
	repo.UpdateJobStatus(ctx, "job-a", JobStatusCompleted, "")

	got, _ := repo.GetJob(ctx, "job-a")
	if got.Status != JobStatusCompleted || got.Progress != 40 || got.FileID != "file-1" || got.AssetID != "asset-1" {
		t.Errorf("job = %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not parsed")
	}

	jobs, _ := repo.ListJobs(ctx, 0)
	if len(jobs) != 2 || jobs[0].ID != "job-b" {
		t.Errorf("ListJobs order = %v", jobs)
	}
}

func TestRepository_Config(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	if v, err := repo.GetConfig(ctx, "auth_token"); err != nil || v != "" {
		t.Errorf("GetConfig(missing) = %q, %v", v, err)
	}
	repo.SetConfig(ctx, "auth_token", "one")
	repo.SetConfig(ctx, "auth_token", "two")
	if v, _ := repo.GetConfig(ctx, "auth_token"); v != "two" {
		t.Errorf("GetConfig() = %q, want two", v)
	}
}
