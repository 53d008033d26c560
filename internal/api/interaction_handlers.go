package api

import (
	"net/http"
)

func interactionStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Controller.State())
	}
}

// pointerHandler drives scrubbing on empty timeline space.
func pointerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decodeBody(w, r, &req) {
			return
		}

		switch req.Phase {
		case "down":
			cfg.Controller.PointerDown(req.OffsetPx)
		case "move":
			cfg.Controller.PointerMove(req.OffsetPx)
		case "up":
			cfg.Controller.PointerUp()
		case "leave":
			cfg.Controller.Leave()
		default:
			WriteError(w, http.StatusBadRequest, "phase must be down, move, up or leave", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Clock.State())
	}
}

func toggleSnappingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SnappingResponse{Snapping: cfg.Controller.ToggleSnapping()})
	}
}

func dragOverHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ghost, ok := cfg.Controller.DragOver(req.TrackID, req.OffsetPx, req.Payload)
		if !ok {
			WriteError(w, http.StatusUnprocessableEntity, "track does not accept this payload", "DROP_REJECTED")
			return
		}
		WriteJSON(w, http.StatusOK, GhostResponse{Ghost: ghost, Label: ghost.Label()})
	}
}

func cancelDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.CancelDrag()
		w.WriteHeader(http.StatusNoContent)
	}
}

func dropHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, ok := cfg.Controller.Drop(req.TrackID, req.OffsetPx, req.Payload)
		if !ok {
			WriteError(w, http.StatusUnprocessableEntity, "drop rejected", "DROP_REJECTED")
			return
		}
		WriteJSON(w, http.StatusCreated, res)
	}
}

func beginResizeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResizeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if !req.Edge.Valid() {
			WriteError(w, http.StatusBadRequest, "edge must be left or right", "BAD_REQUEST")
			return
		}

		if !cfg.Controller.BeginResize(req.ClipID, req.Edge) {
			WriteError(w, http.StatusConflict, "clip cannot be trimmed", "RESIZE_REJECTED")
			return
		}
		clip, _ := cfg.Controller.ResizePreview()
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}

func resizeMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResizeMoveRequest
		if !decodeBody(w, r, &req) {
			return
		}

		clip, ok := cfg.Controller.ResizeMove(req.DeltaPx)
		if !ok {
			WriteError(w, http.StatusConflict, "no resize in progress", "NO_SESSION")
			return
		}
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}

func releaseResizeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed := cfg.Controller.ReleaseResize()
		WriteJSON(w, http.StatusOK, ReleaseResponse{Changed: changed, Version: cfg.Document.Version()})
	}
}

func cancelResizeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.CancelResize()
		w.WriteHeader(http.StatusNoContent)
	}
}

func beginMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if !cfg.Controller.BeginMove(req.ClipID, req.GrabOffsetPx) {
			WriteError(w, http.StatusConflict, "clip cannot be moved", "MOVE_REJECTED")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveToHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveToRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ghost, ok := cfg.Controller.MoveTo(req.OffsetPx)
		if !ok {
			WriteError(w, http.StatusConflict, "no move in progress", "NO_SESSION")
			return
		}
		WriteJSON(w, http.StatusOK, GhostResponse{Ghost: ghost, Label: ghost.Label()})
	}
}

func releaseMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed := cfg.Controller.ReleaseMove()
		WriteJSON(w, http.StatusOK, ReleaseResponse{Changed: changed, Version: cfg.Document.Version()})
	}
}

func cancelMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.CancelMove()
		w.WriteHeader(http.StatusNoContent)
	}
}
