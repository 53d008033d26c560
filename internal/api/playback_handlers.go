package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func playbackStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Clock.State())
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if !decodeBody(w, r, &req) {
			return
		}
		cfg.Clock.Seek(req.Time)
		WriteJSON(w, http.StatusOK, cfg.Clock.State())
	}
}

func skipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SkipRequest
		if !decodeBody(w, r, &req) {
			return
		}
		cfg.Controller.SkipBy(req.Seconds)
		WriteJSON(w, http.StatusOK, cfg.Clock.State())
	}
}

func playHandler(cfg ServerConfig, playing bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Clock.SetPlaying(playing)
		WriteJSON(w, http.StatusOK, cfg.Clock.State())
	}
}

func togglePlaybackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Clock.Toggle()
		WriteJSON(w, http.StatusOK, cfg.Clock.State())
	}
}

// frameHandler takes the renderer's frame reports. They only move the
// playhead while playing.
func frameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FrameRequest
		if !decodeBody(w, r, &req) {
			return
		}
		applied := cfg.Clock.ReportFrame(req.Frame, cfg.Document.Snapshot().FPS)
		WriteJSON(w, http.StatusOK, FrameResponse{Applied: applied, State: cfg.Clock.State()})
	}
}

func assetMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		asset, ok := cfg.Document.Snapshot().FindAsset(id)
		if !ok {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}
		if cfg.Media == nil {
			WriteError(w, http.StatusServiceUnavailable, "media server not configured", "UNAVAILABLE")
			return
		}

		if err := cfg.Media.ServeAsset(w, r, asset); err != nil {
			cfg.Logger.Error("media serve error", "error", err, "asset_id", id)
			WriteError(w, http.StatusInternalServerError, "failed to serve media", "INTERNAL_ERROR")
		}
	}
}
