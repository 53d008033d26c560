package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coclip/coclip-agent/internal/logging"
	"github.com/coclip/coclip-agent/internal/pipeline"
	"github.com/coclip/coclip-agent/internal/timeline"
	"github.com/dustin/go-humanize"
)

const fingerprintSize = 64 * 1024

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrNotFound         = errors.New("not found")
)

// AssetSink receives one descriptor per finished import.
type AssetSink interface {
	AddAsset(desc timeline.AssetDescriptor) string
}

type Service struct {
	repo         Repository
	ffmpeg       pipeline.FFmpeg
	sink         AssetSink
	thumbnailDir string
	logger       *slog.Logger
}

func NewService(repo Repository, ffmpeg pipeline.FFmpeg, sink AssetSink, thumbnailDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:         repo,
		ffmpeg:       ffmpeg,
		sink:         sink,
		thumbnailDir: thumbnailDir,
		logger:       logging.WithComponent(logger, "catalog"),
	}
}

// Import queues a single media file for probing.
func (s *Service) Import(ctx context.Context, path string) (*Job, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, use folder import")
	}
	if _, ok := DetectKind(absPath); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Ext(absPath))
	}
	return s.createJob(ctx, JobTypeImport, absPath)
}

// ImportFolder queues a scan that creates one import job per media file found.
func (s *Service) ImportFolder(ctx context.Context, dir string) (*Job, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory")
	}
	return s.createJob(ctx, JobTypeScan, absPath)
}

func (s *Service) createJob(ctx context.Context, jobType, path string) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      jobType,
		Status:    JobStatusPending,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create %s job: %w", jobType, err)
	}
	s.logger.Info("job created", "job_id", job.ID, "type", jobType, "path", logging.SanitizePath(path))
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNotFound
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) ListMedia(ctx context.Context) ([]*MediaFile, error) {
	return s.repo.ListMediaFiles(ctx)
}

func (s *Service) CountMedia(ctx context.Context) (int, error) {
	return s.repo.CountMediaFiles(ctx)
}

// ExecuteScan walks the job's directory, skipping hidden folders, and queues
// an import job for every supported file.
func (s *Service) ExecuteScan(ctx context.Context, job *Job) error {
	logger := logging.WithJobID(s.logger, job.ID)
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	var files []string
	err := filepath.WalkDir(job.Path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != job.Path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := DetectKind(d.Name()); ok {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return err
	}

	total := len(files)
	logger.Info("found media files", "count", total)

	for i, p := range files {
		select {
		case <-ctx.Done():
			s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "cancelled")
			return ctx.Err()
		default:
		}

		if _, err := s.createJob(ctx, JobTypeImport, p); err != nil {
			logger.Warn("failed to queue import", "path", logging.SanitizePath(p), "error", err)
		}
		s.repo.UpdateJobProgress(ctx, job.ID, (i+1)*100/total)
	}

	s.repo.UpdateJobProgress(ctx, job.ID, 100)
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	logger.Info("scan completed", "files_queued", total)
	return nil
}

// ExecuteImport probes one file and publishes it to the asset library.
// A file whose fingerprint and size match an earlier import reuses the
// stored metadata instead of probing again. Each successful import ends in
// exactly one AddAsset call.
func (s *Service) ExecuteImport(ctx context.Context, job *Job) error {
	logger := logging.WithJobID(s.logger, job.ID)
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	fail := func(err error) error {
		s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		logger.Warn("import failed", "path", logging.SanitizePath(job.Path), "error", err)
		return err
	}

	kind, ok := DetectKind(job.Path)
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Ext(job.Path)))
	}

	info, err := os.Stat(job.Path)
	if err != nil {
		return fail(fmt.Errorf("failed to stat file: %w", err))
	}
	fingerprint, err := computeFingerprint(job.Path)
	if err != nil {
		return fail(fmt.Errorf("failed to fingerprint file: %w", err))
	}
	s.repo.UpdateJobProgress(ctx, job.ID, 10)

	file := &MediaFile{
		ID:          NewID(),
		Path:        job.Path,
		Filename:    filepath.Base(job.Path),
		Kind:        kind,
		Size:        info.Size(),
		Mtime:       info.ModTime(),
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
	}

	cached, err := s.repo.GetMediaFileByFingerprint(ctx, fingerprint, info.Size())
	if err != nil {
		return fail(fmt.Errorf("failed to look up fingerprint: %w", err))
	}
	if cached != nil && cached.Kind == kind {
		file.Duration = cached.Duration
		file.Width = cached.Width
		file.Height = cached.Height
		file.Codec = cached.Codec
		file.Thumbnail = cached.Thumbnail
		logger.Debug("reusing probe metadata", "file_id", cached.ID)
	} else {
		s.probe(ctx, logger, file)
	}
	s.repo.UpdateJobProgress(ctx, job.ID, 80)

	if err := s.repo.UpsertMediaFile(ctx, file); err != nil {
		return fail(fmt.Errorf("failed to save media file: %w", err))
	}

	assetID := s.sink.AddAsset(timeline.AssetDescriptor{
		Kind:      kind,
		Source:    file.Path,
		Name:      file.Filename,
		Duration:  file.Duration,
		Thumbnail: file.Thumbnail,
	})
	if err := s.repo.SetJobResult(ctx, job.ID, file.ID, assetID); err != nil {
		logger.Warn("failed to record import result", "error", err)
	}

	s.repo.UpdateJobProgress(ctx, job.ID, 100)
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	logger.Info("import completed",
		"asset_id", assetID,
		"kind", kind,
		"size", humanize.Bytes(uint64(file.Size)),
		"duration", file.Duration,
	)
	return nil
}

// probe fills in duration and picture metadata. Probe and thumbnail failures
// leave the fields empty; the asset still imports with an unknown duration.
func (s *Service) probe(ctx context.Context, logger *slog.Logger, file *MediaFile) {
	res, err := s.ffmpeg.Probe(ctx, file.Path)
	if err != nil {
		logger.Warn("probe failed, duration unknown", "error", err)
	} else {
		if file.Kind.TimeBased() {
			file.Duration = res.Duration
		}
		file.Width = res.Width
		file.Height = res.Height
		file.Codec = res.Codec
		if file.Codec == "" {
			file.Codec = res.AudioCodec
		}
	}

	switch file.Kind {
	case timeline.KindImage:
		file.Thumbnail = file.Path
	case timeline.KindVideo:
		if s.thumbnailDir == "" {
			return
		}
		out := filepath.Join(s.thumbnailDir, file.Fingerprint[:16]+".jpg")
		if err := s.ffmpeg.Thumbnail(ctx, file.Path, out, pipeline.ThumbnailOffsetFor(file.Duration)); err != nil {
			logger.Warn("thumbnail failed", "error", err)
			return
		}
		file.Thumbnail = out
	}
}

func computeFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, fingerprintSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
