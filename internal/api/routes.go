package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/coclip/coclip-agent/internal/catalog"
	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/assets/{id}/media", assetMediaHandler(cfg))
		r.Head("/assets/{id}/media", assetMediaHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/project", projectHandler(cfg))
		r.Get("/assets", listAssetsHandler(cfg))
		r.Post("/assets/import", importHandler(cfg))
		r.Get("/media", listMediaHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Post("/tracks", addTrackHandler(cfg))
		r.Put("/tracks/{id}/muted", trackMutedHandler(cfg))
		r.Put("/tracks/{id}/locked", trackLockedHandler(cfg))

		r.Post("/clips/append", appendClipHandler(cfg))
		r.Post("/clips/text", addTextHandler(cfg))
		r.Patch("/clips/{id}", patchClipHandler(cfg))
		r.Post("/clips/{id}/split", splitClipHandler(cfg))
		r.Delete("/clips/{id}", deleteClipHandler(cfg))

		r.Post("/selection", selectHandler(cfg))
		r.Delete("/selection", clearSelectionHandler(cfg))
		r.Post("/selection/split", splitSelectedHandler(cfg))
		r.Post("/selection/delete", deleteSelectedHandler(cfg))

		r.Route("/interaction", func(r chi.Router) {
			r.Get("/", interactionStateHandler(cfg))
			r.Post("/pointer", pointerHandler(cfg))
			r.Post("/snapping", toggleSnappingHandler(cfg))

			r.Post("/drag", dragOverHandler(cfg))
			r.Delete("/drag", cancelDragHandler(cfg))
			r.Post("/drop", dropHandler(cfg))

			r.Post("/resize", beginResizeHandler(cfg))
			r.Post("/resize/move", resizeMoveHandler(cfg))
			r.Post("/resize/release", releaseResizeHandler(cfg))
			r.Delete("/resize", cancelResizeHandler(cfg))

			r.Post("/move", beginMoveHandler(cfg))
			r.Post("/move/to", moveToHandler(cfg))
			r.Post("/move/release", releaseMoveHandler(cfg))
			r.Delete("/move", cancelMoveHandler(cfg))
		})

		r.Route("/playback", func(r chi.Router) {
			r.Get("/", playbackStateHandler(cfg))
			r.Post("/seek", seekHandler(cfg))
			r.Post("/skip", skipHandler(cfg))
			r.Post("/play", playHandler(cfg, true))
			r.Post("/pause", playHandler(cfg, false))
			r.Post("/toggle", togglePlaybackHandler(cfg))
			r.Post("/frame", frameHandler(cfg))
		})

		r.Get("/render/composition", compositionHandler(cfg))
		r.Post("/export/edl", exportEDLHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		snap := cfg.Document.Snapshot()

		resp := StatusResponse{
			State:       "idle",
			AssetsCount: len(snap.Assets),
			ClipsCount:  snap.ClipCount(),
			Playback:    cfg.Clock.State(),
		}

		if cfg.Catalog != nil {
			resp.FilesCount, _ = cfg.Catalog.CountMedia(ctx)
			jobs, _ := cfg.Catalog.ListJobs(ctx, 10)
			for _, j := range jobs {
				if j.Status == catalog.JobStatusRunning && resp.ActiveJob == nil {
					jr := JobToResponse(j)
					resp.ActiveJob = &jr
					resp.State = "importing"
				}
				if j.Status == catalog.JobStatusFailed && resp.LastError == "" {
					resp.LastError = j.Error
				}
			}
		}
		if cfg.Runner != nil {
			resp.JobsActive = cfg.Runner.GetActiveJobCount(ctx)
			if cfg.Runner.IsPaused() {
				resp.State = "paused"
			}
		}
		if resp.State == "idle" && cfg.Clock.Playing() {
			resp.State = "playing"
		}

		// Peek only: a status poll must never block on spawning ffmpeg.
		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Toolchain = &ToolchainResponse{
					FFmpeg:  caps.FFmpeg.Available,
					FFprobe: caps.FFprobe.Available,
					Version: caps.FFmpeg.Version,
				}
				if !caps.ProbedAt.IsZero() {
					resp.Toolchain.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func importHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Catalog == nil {
			WriteError(w, http.StatusServiceUnavailable, "media import is not available", "UNAVAILABLE")
			return
		}

		var req ImportRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		var job *catalog.Job
		var err error
		if req.Folder {
			job, err = cfg.Catalog.ImportFolder(r.Context(), req.Path)
		} else {
			job, err = cfg.Catalog.Import(r.Context(), req.Path)
		}
		if err != nil {
			if errors.Is(err, catalog.ErrUnsupportedMedia) {
				WriteError(w, http.StatusUnprocessableEntity, err.Error(), "UNSUPPORTED_MEDIA")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, JobToResponse(job))
	}
}

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Catalog == nil {
			WriteJSON(w, http.StatusOK, MediaFilesResponse{Files: []MediaFileResponse{}})
			return
		}

		files, err := cfg.Catalog.ListMedia(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list media", "INTERNAL_ERROR")
			return
		}

		resp := MediaFilesResponse{Files: make([]MediaFileResponse, len(files))}
		for i, f := range files {
			resp.Files[i] = MediaFileToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}
