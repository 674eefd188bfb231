// Package api provides HTTP API handlers for the Mudra hand pose
// detection system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracking"
)

// PoseHandler handles HTTP requests for pose resources.
type PoseHandler struct {
	store *store.Store
}

// NewPoseHandler creates a new PoseHandler with the given store.
func NewPoseHandler(s *store.Store) *PoseHandler {
	return &PoseHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *PoseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/poses or /api/poses/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/poses")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type thresholdJSON struct {
	Finger int     `json:"finger"`
	Bone   int     `json:"bone"`
	Pitch  float64 `json:"pitch"`
	Yaw    float64 `json:"yaw"`
}

type constraintJSON struct {
	Enabled      bool       `json:"enabled"`
	Kind         string     `json:"kind"`
	SourcePalm   bool       `json:"source_palm"`
	SourceFinger int        `json:"source_finger"`
	SourceBone   int        `json:"source_bone"`
	Target       [3]float64 `json:"target"`
	Axis         string     `json:"axis"`
	MaxAngle     float64    `json:"max_angle"`
	MinDot       float64    `json:"min_dot"`
}

type createPoseRequest struct {
	Name             string           `json:"name"`
	Chirality        string           `json:"chirality"`
	Fingers          *[5]bool         `json:"fingers"`
	GlobalTolerance  float64          `json:"global_tolerance"`
	HysteresisMargin float64          `json:"hysteresis_margin"`
	Skeleton         json.RawMessage  `json:"skeleton"`
	Thresholds       []thresholdJSON  `json:"thresholds"`
	Constraints      []constraintJSON `json:"constraints"`
}

type updatePoseRequest struct {
	Name             string           `json:"name"`
	Chirality        string           `json:"chirality"`
	Fingers          *[5]bool         `json:"fingers"`
	GlobalTolerance  float64          `json:"global_tolerance"`
	HysteresisMargin float64          `json:"hysteresis_margin"`
	Skeleton         json.RawMessage  `json:"skeleton"`
	Thresholds       []thresholdJSON  `json:"thresholds"`
	Constraints      []constraintJSON `json:"constraints"`
}

type poseResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Chirality        string           `json:"chirality"`
	Fingers          [5]bool          `json:"fingers"`
	GlobalTolerance  float64          `json:"global_tolerance"`
	HysteresisMargin float64          `json:"hysteresis_margin"`
	Skeleton         json.RawMessage  `json:"skeleton,omitempty"`
	Thresholds       []thresholdJSON  `json:"thresholds"`
	Constraints      []constraintJSON `json:"constraints"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
}

type listPosesResponse struct {
	Poses []poseResponse `json:"poses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toPoseResponse converts a pose.Pose to its API representation.
func toPoseResponse(p *pose.Pose) poseResponse {
	resp := poseResponse{
		ID:               p.ID,
		Name:             p.Name,
		Chirality:        p.Chirality.String(),
		Fingers:          p.Fingers,
		GlobalTolerance:  p.GlobalTolerance,
		HysteresisMargin: p.HysteresisMargin,
		Thresholds:       make([]thresholdJSON, 0),
		Constraints:      make([]constraintJSON, 0, len(p.Constraints)),
		CreatedAt:        p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if p.Skeleton != nil {
		if data, err := tracking.EncodeHand(p.Skeleton); err == nil {
			resp.Skeleton = data
		}
	}

	for f := 0; f < skeleton.NumFingers; f++ {
		for b := 0; b < skeleton.BonesPerFinger; b++ {
			t := p.Thresholds[f][b]
			if !t.Set {
				continue
			}
			resp.Thresholds = append(resp.Thresholds, thresholdJSON{
				Finger: f, Bone: b, Pitch: t.Pitch, Yaw: t.Yaw,
			})
		}
	}

	for _, c := range p.Constraints {
		srcFinger, srcBone := int(c.SourceFinger), int(c.SourceBone)
		if c.SourcePalm {
			srcFinger, srcBone = 0, 0
		}
		resp.Constraints = append(resp.Constraints, constraintJSON{
			Enabled:      c.Enabled,
			Kind:         c.Kind.String(),
			SourcePalm:   c.SourcePalm,
			SourceFinger: srcFinger,
			SourceBone:   srcBone,
			Target:       [3]float64{c.Target.X, c.Target.Y, c.Target.Z},
			Axis:         c.Axis.String(),
			MaxAngle:     c.MaxAngleDeg,
			MinDot:       c.MinDot,
		})
	}

	return resp
}

// applyThresholds replaces a pose's authored thresholds.
func applyThresholds(p *pose.Pose, thresholds []thresholdJSON) {
	p.Thresholds = [skeleton.NumFingers][skeleton.BonesPerFinger]pose.Threshold{}
	for _, t := range thresholds {
		if t.Finger < 0 || t.Finger >= skeleton.NumFingers || t.Bone < 0 || t.Bone >= skeleton.BonesPerFinger {
			continue
		}
		p.Thresholds[t.Finger][t.Bone] = pose.Threshold{Pitch: t.Pitch, Yaw: t.Yaw, Set: true}
	}
}

// applyConstraints replaces a pose's direction constraints.
func applyConstraints(p *pose.Pose, constraints []constraintJSON) {
	p.Constraints = p.Constraints[:0]
	for _, c := range constraints {
		p.Constraints = append(p.Constraints, pose.Constraint{
			Enabled:      c.Enabled,
			Kind:         pose.ParseConstraintKind(c.Kind),
			SourcePalm:   c.SourcePalm,
			SourceFinger: skeleton.FingerKind(c.SourceFinger),
			SourceBone:   skeleton.BoneKind(c.SourceBone),
			Target:       r3Vec(c.Target),
			Axis:         pose.ParseAxis(c.Axis),
			MaxAngleDeg:  c.MaxAngle,
			MinDot:       c.MinDot,
		})
	}
}

func r3Vec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/poses and returns all poses.
func (h *PoseHandler) list(w http.ResponseWriter, r *http.Request) {
	poses, err := h.store.Poses().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list poses")
		return
	}

	response := listPosesResponse{
		Poses: make([]poseResponse, 0, len(poses)),
	}
	for _, p := range poses {
		response.Poses = append(response.Poses, toPoseResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/poses/{id} and returns a single pose.
func (h *PoseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	writeJSON(w, http.StatusOK, toPoseResponse(p))
}

// create handles POST /api/poses and creates a new pose.
func (h *PoseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	chirality := skeleton.ParseChirality(req.Chirality)
	if chirality == skeleton.ChiralityUnknown {
		writeError(w, http.StatusBadRequest, "Chirality must be 'left' or 'right'")
		return
	}

	fingers := [5]bool{true, true, true, true, true}
	if req.Fingers != nil {
		fingers = *req.Fingers
	}

	globalTolerance := req.GlobalTolerance
	if globalTolerance == 0 {
		globalTolerance = pose.DefaultGlobalTolerance
	}
	hysteresisMargin := req.HysteresisMargin
	if hysteresisMargin == 0 {
		hysteresisMargin = pose.DefaultHysteresisMargin
	}

	p := &pose.Pose{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Chirality:        chirality,
		Fingers:          fingers,
		GlobalTolerance:  globalTolerance,
		HysteresisMargin: hysteresisMargin,
	}

	if len(req.Skeleton) > 0 {
		s, err := tracking.DecodeHand(req.Skeleton)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid skeleton")
			return
		}
		s.Chirality = chirality
		p.SetSkeleton(s)
	}

	applyThresholds(p, req.Thresholds)
	applyConstraints(p, req.Constraints)

	if err := h.store.Poses().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create pose")
		return
	}

	writeJSON(w, http.StatusCreated, toPoseResponse(p))
}

// update handles PUT /api/poses/{id} and updates an existing pose.
func (h *PoseHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Poses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pose")
		return
	}

	var req updatePoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Chirality != "" {
		chirality := skeleton.ParseChirality(req.Chirality)
		if chirality == skeleton.ChiralityUnknown {
			writeError(w, http.StatusBadRequest, "Chirality must be 'left' or 'right'")
			return
		}
		p.Chirality = chirality
		if p.Skeleton != nil {
			s := p.Skeleton
			s.Chirality = chirality
			p.SetSkeleton(s)
		}
	}
	if req.Fingers != nil {
		p.Fingers = *req.Fingers
	}
	if req.GlobalTolerance != 0 {
		p.GlobalTolerance = req.GlobalTolerance
	}
	if req.HysteresisMargin != 0 {
		p.HysteresisMargin = req.HysteresisMargin
	}
	if len(req.Skeleton) > 0 {
		s, err := tracking.DecodeHand(req.Skeleton)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid skeleton")
			return
		}
		s.Chirality = p.Chirality
		p.SetSkeleton(s)
	}
	if req.Thresholds != nil {
		applyThresholds(p, req.Thresholds)
	}
	if req.Constraints != nil {
		applyConstraints(p, req.Constraints)
	}

	if err := h.store.Poses().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update pose")
		return
	}

	writeJSON(w, http.StatusOK, toPoseResponse(p))
}

// delete handles DELETE /api/poses/{id} and removes a pose.
func (h *PoseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Poses().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete pose")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
