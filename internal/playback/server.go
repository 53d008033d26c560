package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coclip/coclip-agent/internal/timeline"
)

// AssetServer streams asset media to the external renderer.
type AssetServer interface {
	ServeAsset(w http.ResponseWriter, r *http.Request, asset timeline.Asset) error
}

type MediaServer struct {
	logger *slog.Logger
}

func NewMediaServer(logger *slog.Logger) *MediaServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaServer{logger: logger}
}

// ServeAsset writes the asset's source file, honouring a single-span Range
// header. Missing files answer 404 and unsatisfiable ranges 416; other
// failures are returned to the caller before any body is written.
func (s *MediaServer) ServeAsset(w http.ResponseWriter, r *http.Request, asset timeline.Asset) error {
	path := filepath.Clean(asset.Source)
	if !filepath.IsAbs(path) {
		http.Error(w, "asset source is not a local file", http.StatusNotFound)
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("open asset %s: %w", asset.ID, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat asset %s: %w", asset.ID, err)
	}
	if info.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return nil
	}
	size := info.Size()

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", contentType(path))

	span, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrInvalidRange):
		// Malformed ranges are ignored and the whole file is sent.
		span = nil
	case err != nil:
		return err
	}

	if span == nil {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil {
			s.logger.Debug("asset stream interrupted", "asset_id", asset.ID, "error", err)
		}
		return nil
	}

	if _, err := file.Seek(span.Start, io.SeekStart); err != nil {
		return fmt.Errorf("seek asset %s: %w", asset.ID, err)
	}
	h.Set("Content-Length", strconv.FormatInt(span.Length(), 10))
	h.Set("Content-Range", span.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, file, span.Length()); err != nil {
		s.logger.Debug("asset stream interrupted", "asset_id", asset.ID, "error", err)
	}
	return nil
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
