package api

import (
	"errors"
	"net/http"

	"github.com/coclip/coclip-agent/internal/export"
	"github.com/coclip/coclip-agent/internal/timeline"
)

// exportEDLHandler renders one track as a CMX 3600 EDL. The text is always
// returned; it is also written to output_dir, or the configured export
// directory, when one is available.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.EDLRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.TrackID == "" {
			WriteError(w, http.StatusBadRequest, "track_id is required", "BAD_REQUEST")
			return
		}

		snap := cfg.Document.Snapshot()
		events, err := export.TrackEvents(snap, req.TrackID)
		if errors.Is(err, export.ErrUnknownTrack) {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if len(events) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "track has no media clips", "EMPTY_TRACK")
			return
		}

		track, _ := snap.FindTrack(req.TrackID)
		title := export.SanitizeName(snap.Name+" "+track.Name, 120)
		if title == "" {
			title = "coclip_export"
		}
		edl := export.GenerateEDL(events, title, snap.FPS)

		resp := export.EDLResponse{
			Status:     "ok",
			TrackID:    req.TrackID,
			EventCount: len(events),
			EDL:        edl,
		}

		dir := req.OutputDir
		if dir == "" {
			dir = cfg.ExportDir
		}
		if dir != "" {
			path, err := export.WriteEDL(dir, title, edl)
			if errors.Is(err, export.ErrInvalidOutputDir) {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
				return
			}
			resp.OutputPath = path
			cfg.Logger.Info("edl exported", "track_id", req.TrackID, "events", len(events), "path", path)
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// compositionHandler hands the renderer a frame-based view of the project
// with media URLs pointing back at this server.
func compositionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comp := export.BuildComposition(cfg.Document.Snapshot(), func(a timeline.Asset) string {
			return "/assets/" + a.ID + "/media"
		})
		WriteJSON(w, http.StatusOK, comp)
	}
}
