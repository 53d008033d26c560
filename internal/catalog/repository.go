package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coclip/coclip-agent/internal/timeline"
)

type Repository interface {
	UpsertMediaFile(ctx context.Context, file *MediaFile) error
	GetMediaFile(ctx context.Context, id string) (*MediaFile, error)
	GetMediaFileByPath(ctx context.Context, path string) (*MediaFile, error)
	GetMediaFileByFingerprint(ctx context.Context, fingerprint string, size int64) (*MediaFile, error)
	ListMediaFiles(ctx context.Context) ([]*MediaFile, error)
	CountMediaFiles(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	SetJobResult(ctx context.Context, id, fileID, assetID string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const mediaColumns = `id, path, filename, kind, size, mtime, fingerprint, duration, width, height, codec, thumbnail, created_at`

// UpsertMediaFile inserts the file or refreshes the row already stored for
// its path. The stored id is written back into file.
func (r *SQLiteRepository) UpsertMediaFile(ctx context.Context, f *MediaFile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_files (`+mediaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind,
			size = excluded.size,
			mtime = excluded.mtime,
			fingerprint = excluded.fingerprint,
			duration = excluded.duration,
			width = excluded.width,
			height = excluded.height,
			codec = excluded.codec,
			thumbnail = excluded.thumbnail
	`, f.ID, f.Path, f.Filename, string(f.Kind), f.Size, f.Mtime.UTC().Format(time.RFC3339),
		f.Fingerprint, f.Duration, f.Width, f.Height, nullString(f.Codec), nullString(f.Thumbnail),
		f.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, "SELECT id FROM media_files WHERE path = ?", f.Path).Scan(&f.ID)
}

func (r *SQLiteRepository) GetMediaFile(ctx context.Context, id string) (*MediaFile, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media_files WHERE id = ?", id)
	return scanMediaFile(row)
}

func (r *SQLiteRepository) GetMediaFileByPath(ctx context.Context, path string) (*MediaFile, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media_files WHERE path = ?", path)
	return scanMediaFile(row)
}

// GetMediaFileByFingerprint finds a previously probed file with the same
// content prefix and size.
func (r *SQLiteRepository) GetMediaFileByFingerprint(ctx context.Context, fingerprint string, size int64) (*MediaFile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+mediaColumns+` FROM media_files
		WHERE fingerprint = ? AND size = ?
		ORDER BY created_at ASC LIMIT 1
	`, fingerprint, size)
	return scanMediaFile(row)
}

func (r *SQLiteRepository) ListMediaFiles(ctx context.Context) ([]*MediaFile, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+mediaColumns+" FROM media_files ORDER BY created_at DESC, filename")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*MediaFile
	for rows.Next() {
		f, err := scanMediaFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) CountMediaFiles(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_files").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMediaFile(row scanner) (*MediaFile, error) {
	var f MediaFile
	var kind, mtime, createdAt string
	var codec, thumbnail sql.NullString

	err := row.Scan(&f.ID, &f.Path, &f.Filename, &kind, &f.Size, &mtime, &f.Fingerprint,
		&f.Duration, &f.Width, &f.Height, &codec, &thumbnail, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f.Kind = timeline.Kind(kind)
	f.Codec = codec.String
	f.Thumbnail = thumbnail.String
	f.Mtime, _ = time.Parse(time.RFC3339, mtime)
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &f, nil
}

const jobColumns = `id, type, status, path, file_id, asset_id, progress, error, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.Path), nullString(j.FileID), nullString(j.AssetID),
		j.Progress, nullString(j.Error),
		j.CreatedAt.UTC().Format(timeLayout), j.UpdatedAt.UTC().Format(timeLayout))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	return scanJob(row)
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE status = 'pending' ORDER BY created_at ASC, rowid ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var path, fileID, assetID, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &path, &fileID, &assetID, &j.Progress, &errMsg, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Path = path.String
	j.FileID = fileID.String
	j.AssetID = assetID.String
	j.Error = errMsg.String
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), now(), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, now(), id)
	return err
}

func (r *SQLiteRepository) SetJobResult(ctx context.Context, id, fileID, assetID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET file_id = ?, asset_id = ?, updated_at = ? WHERE id = ?
	`, nullString(fileID), nullString(assetID), now(), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// timeLayout is fixed width so stamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// parseTime accepts both our RFC 3339 stamps and SQLite's datetime('now').
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
