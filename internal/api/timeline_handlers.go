package api

import (
	"errors"
	"net/http"

	"github.com/coclip/coclip-agent/internal/interaction"
	"github.com/coclip/coclip-agent/internal/timeline"
	"github.com/go-chi/chi/v5"
)

// writeEditError maps controller refusals onto HTTP statuses.
func writeEditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interaction.ErrUnknownClip), errors.Is(err, interaction.ErrUnknownTrack):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, interaction.ErrTrackLocked):
		WriteError(w, http.StatusConflict, err.Error(), "TRACK_LOCKED")
	case errors.Is(err, interaction.ErrOverlap):
		WriteError(w, http.StatusConflict, err.Error(), "OVERLAP")
	case errors.Is(err, interaction.ErrInvalidEdit):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "INVALID_EDIT")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func projectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ProjectResponse{
			Version: cfg.Document.Version(),
			Project: cfg.Document.Snapshot(),
		})
	}
}

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets := cfg.Document.Snapshot().Assets
		if assets == nil {
			assets = []timeline.Asset{}
		}
		WriteJSON(w, http.StatusOK, AssetsResponse{Assets: assets})
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if !req.Kind.IsTrackKind() {
			WriteError(w, http.StatusUnprocessableEntity, "kind must be video, audio or text", "INVALID_KIND")
			return
		}

		id := cfg.Document.AddTrack(req.Kind, req.BeforeTrackID, req.Name)
		track, ok := cfg.Document.Snapshot().FindTrack(id)
		if id == "" || !ok {
			WriteError(w, http.StatusInternalServerError, "track was not created", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusCreated, TrackResponse{Track: track})
	}
}

func trackMutedHandler(cfg ServerConfig) http.HandlerFunc {
	return trackFlagHandler(cfg, cfg.Document.SetTrackMuted)
}

func trackLockedHandler(cfg ServerConfig) http.HandlerFunc {
	return trackFlagHandler(cfg, cfg.Document.SetTrackLocked)
}

func trackFlagHandler(cfg ServerConfig, set func(trackID string, value bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req TrackFlagRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if _, ok := cfg.Document.Snapshot().FindTrack(id); !ok {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}

		set(id, req.Value)
		track, _ := cfg.Document.Snapshot().FindTrack(id)
		WriteJSON(w, http.StatusOK, TrackResponse{Track: track})
	}
}

func appendClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppendClipRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if _, ok := cfg.Document.Snapshot().FindAsset(req.AssetID); !ok {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}

		res, ok := cfg.Controller.AddToEnd(req.AssetID)
		if !ok {
			WriteError(w, http.StatusUnprocessableEntity, "no unlocked track accepts this asset", "NO_COMPATIBLE_TRACK")
			return
		}
		WriteJSON(w, http.StatusCreated, res)
	}
}

func addTextHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTextRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if _, ok := cfg.Document.Snapshot().FindTrack(req.TrackID); !ok {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}

		res, ok := cfg.Controller.AddText(req.TrackID, req.At, req.Text)
		if !ok {
			WriteError(w, http.StatusUnprocessableEntity, "track does not accept text here", "DROP_REJECTED")
			return
		}
		WriteJSON(w, http.StatusCreated, res)
	}
}

func patchClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.ClipPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		if err := cfg.Controller.ApplyPatch(id, patch); err != nil {
			writeEditError(w, err)
			return
		}
		clip, _ := cfg.Document.Snapshot().FindClip(id)
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SplitRequest
		if !decodeBody(w, r, &req) {
			return
		}

		newID, err := cfg.Controller.Split(id, req.At)
		if err != nil {
			writeEditError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, SplitResponse{ClipID: newID})
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Controller.Delete(chi.URLParam(r, "id")); err != nil {
			writeEditError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.ClipID != "" {
			if _, ok := cfg.Document.Snapshot().FindClip(req.ClipID); !ok {
				WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
				return
			}
		}

		cfg.Controller.Select(req.ClipID)
		WriteJSON(w, http.StatusOK, cfg.Controller.State())
	}
}

func clearSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.Select("")
		w.WriteHeader(http.StatusNoContent)
	}
}

func splitSelectedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cfg.Controller.SplitSelected()
		if !ok {
			WriteError(w, http.StatusUnprocessableEntity, "no selected clip under the playhead", "NOTHING_TO_SPLIT")
			return
		}
		WriteJSON(w, http.StatusCreated, SplitResponse{ClipID: id})
	}
}

func deleteSelectedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Controller.DeleteSelected() {
			WriteError(w, http.StatusUnprocessableEntity, "no deletable clip selected", "NOTHING_TO_DELETE")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
