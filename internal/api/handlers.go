package api

import (
	"errors"
	"net/http"

	"github.com/sprite-ai/revloop/internal/diff"
	"github.com/sprite-ai/revloop/internal/model"
	"github.com/sprite-ai/revloop/internal/session"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- State ---

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	view := s.ctrl.View()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, view)
}

// --- File content (highlighted, for the range picker) ---

type fileResponse struct {
	Path  string                 `json:"path"`
	Side  string                 `json:"side"`
	Lines []diff.HighlightedLine `json:"lines"`
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	side := model.Side(r.URL.Query().Get("side"))
	if side == "" {
		side = model.SideAdditions
	}
	if !model.ValidSide(side) {
		writeError(w, http.StatusBadRequest, "side must be additions or deletions")
		return
	}

	s.mu.Lock()
	files := s.ctrl.Files()
	s.mu.Unlock()

	for _, f := range files {
		if f.Path != path {
			continue
		}
		writeJSON(w, http.StatusOK, fileResponse{
			Path:  path,
			Side:  string(side),
			Lines: diff.Highlight(path, f.SideText(side)),
		})
		return
	}
	writeError(w, http.StatusNotFound, "file not part of this round: "+path)
}

// --- Draft ---

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := readJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	err := s.ctrl.SaveDraft(d)
	s.mu.Unlock()

	if err != nil {
		writeControllerError(w, err)
		return
	}

	s.broadcast(eventStateUpdated)
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// --- Resolve ---

type resolveRequest struct {
	FindingID string `json:"finding_id"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.FindingID == "" {
		writeError(w, http.StatusBadRequest, "finding_id is required")
		return
	}

	s.mu.Lock()
	err := s.ctrl.Resolve(req.FindingID)
	s.mu.Unlock()

	if err != nil {
		writeControllerError(w, err)
		return
	}

	s.broadcast(eventStateUpdated)
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// --- Submit ---

type submitRequest struct {
	Notes       string               `json:"notes"`
	NewFindings []model.DraftFinding `json:"new_findings"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	res, err := s.ctrl.Submit(req.Notes, req.NewFindings)
	s.mu.Unlock()

	if err != nil {
		writeControllerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
	s.broadcast(eventSubmitted)
	s.finish(Outcome{Submitted: true, Result: res})
}

// --- Cancel ---

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.ctrl.Cancel()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	s.broadcast(eventCancelled)
	s.finish(Outcome{Submitted: false})
}

func writeControllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrRoundClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrFindingNotFound), errors.Is(err, session.ErrFindingNotOpen):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
