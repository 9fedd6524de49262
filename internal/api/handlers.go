package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/equivalence"
	"github.com/parsebench/parsebench-go/internal/results"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	sums, err := s.store.ListSummaries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docType := r.URL.Query().Get("document_type"); docType != "" {
		filtered := make([]domain.Summary, 0, len(sums))
		for _, sum := range sums {
			if sum.DocumentType == docType {
				filtered = append(filtered, sum)
			}
		}
		sums = filtered
	}
	writeJSON(w, http.StatusOK, sums)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	backend, docType := r.PathValue("backend"), r.PathValue("doctype")
	if !domain.DocumentType(docType).Valid() {
		writeError(w, http.StatusBadRequest, "document type must be html or xml")
		return
	}

	sum, err := s.store.LoadSummary(r.Context(), backend, docType)
	if errors.Is(err, results.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no results for "+backend+"/"+docType)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type evaluateRequest struct {
	DocumentID string                 `json:"document_id"`
	FeaturesA  domain.Features        `json:"features_a"`
	FeaturesB  domain.Features        `json:"features_b"`
	Tolerances equivalence.Tolerances `json:"tolerances,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.Take(caller(r), "evaluate"); err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}

	var body evaluateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "'document_id' field is required")
		return
	}

	// An absent table means the defaults; an empty one checks nothing.
	tol := body.Tolerances
	if tol == nil {
		tol = equivalence.DefaultTolerances()
	}

	verdict, err := equivalence.Evaluate(body.FeaturesA, body.FeaturesB, tol, body.DocumentID)
	switch {
	case errors.Is(err, equivalence.ErrInvalidTolerance):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrInvalidFeatures):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// caller identifies the requester for budgeting: the authenticated user
// when present, otherwise the client IP.
func caller(r *http.Request) string {
	if u := UserFromContext(r.Context()); u != "" {
		return u
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
