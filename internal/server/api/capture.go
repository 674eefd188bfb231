package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracking"
)

// CaptureHandler handles the pose authoring surface: raw capture
// storage and training captures into a reference skeleton.
type CaptureHandler struct {
	store   *store.Store
	trainer *pose.Trainer
}

// NewCaptureHandler creates a new CaptureHandler with the given store.
func NewCaptureHandler(s *store.Store) *CaptureHandler {
	return &CaptureHandler{store: s, trainer: pose.NewTrainer()}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/poses/{id}/capture and /api/poses/{id}/train
func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/poses/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	poseID := parts[0]
	switch parts[1] {
	case "capture":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r, poseID)
		case http.MethodPost:
			h.capture(w, r, poseID)
		case http.MethodDelete:
			h.clear(w, r, poseID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "train":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.train(w, r, poseID)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type captureRequest struct {
	Captures []json.RawMessage `json:"captures"`
}

type captureResponse struct {
	ID           int64           `json:"id"`
	PoseID       string          `json:"pose_id"`
	CaptureIndex int             `json:"capture_index"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    string          `json:"created_at"`
}

type listCapturesResponse struct {
	Captures []captureResponse `json:"captures"`
}

// list handles GET /api/poses/{id}/capture
func (h *CaptureHandler) list(w http.ResponseWriter, r *http.Request, poseID string) {
	captures, err := h.store.Captures().GetByPoseID(poseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list captures")
		return
	}

	response := listCapturesResponse{
		Captures: make([]captureResponse, 0, len(captures)),
	}
	for _, c := range captures {
		response.Captures = append(response.Captures, captureResponse{
			ID:           c.ID,
			PoseID:       c.PoseID,
			CaptureIndex: c.CaptureIndex,
			Data:         c.Data,
			CreatedAt:    c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// capture handles POST /api/poses/{id}/capture
func (h *CaptureHandler) capture(w http.ResponseWriter, r *http.Request, poseID string) {
	p, err := h.store.Poses().GetByID(poseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify pose")
		return
	}

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Captures) == 0 {
		writeError(w, http.StatusBadRequest, "At least one capture is required")
		return
	}

	// Reject snapshots of the wrong hand before they poison training.
	for _, data := range req.Captures {
		s, err := tracking.DecodeHand(data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid capture data")
			return
		}
		if s.Chirality != p.Chirality {
			writeError(w, http.StatusBadRequest, "Capture chirality does not match pose")
			return
		}
	}

	if err := h.store.Captures().Append(poseID, req.Captures); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save captures")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// clear handles DELETE /api/poses/{id}/capture
func (h *CaptureHandler) clear(w http.ResponseWriter, r *http.Request, poseID string) {
	if err := h.store.Captures().DeleteByPoseID(poseID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete captures")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// train handles POST /api/poses/{id}/train: averages the stored
// captures into a reference skeleton, derives per-joint thresholds
// from their spread, and saves the result on the pose.
func (h *CaptureHandler) train(w http.ResponseWriter, r *http.Request, poseID string) {
	p, err := h.store.Poses().GetByID(poseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	captures, err := h.store.Captures().GetByPoseID(poseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load captures")
		return
	}
	if len(captures) == 0 {
		writeError(w, http.StatusBadRequest, "No captures to train from")
		return
	}

	snapshots := make([]*skeleton.Snapshot, 0, len(captures))
	for _, c := range captures {
		s, err := tracking.DecodeHand(c.Data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Stored capture is corrupt")
			return
		}
		snapshots = append(snapshots, s)
	}

	avg, err := h.trainer.TrainSkeleton(snapshots)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Training failed: "+err.Error())
		return
	}

	p.SetSkeleton(avg)
	p.Thresholds = h.trainer.DeriveThresholds(snapshots, avg)

	if err := h.store.Poses().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save trained pose")
		return
	}

	writeJSON(w, http.StatusOK, toPoseResponse(p))
}
