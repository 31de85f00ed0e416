package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appcontracts "github.com/udhaya30012004/backend/internal/application/contracts"
	domain "github.com/udhaya30012004/backend/internal/domain/contracts"
	"github.com/udhaya30012004/backend/internal/middleware"
)

type Router struct {
	svc *appcontracts.Service
}

// NewRouter mounts the contract-analysis API. Auth middleware is expected to
// have resolved the user principal already.
func NewRouter(svc *appcontracts.Service) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Route("/api/contracts", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleAnalyze))
		rt.Get("/", r.wrap(r.handleList))
		rt.Get("/status/{id}", r.wrap(r.handleStatus))
		rt.Get("/{id}", r.wrap(r.handleGet))
		rt.Get("/{id}/faults", r.wrap(r.handleFaults))
		rt.Put("/{id}/feedback", r.wrap(r.handleFeedback))
		rt.Delete("/{id}", r.wrap(r.handleDelete))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				writeError(w, http.StatusNotFound, "not found")
			case errors.Is(err, domain.ErrNoContent):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func principal(req *http.Request) (middleware.User, error) {
	u, ok := middleware.UserFromContext(req.Context())
	if !ok {
		return middleware.User{}, errors.New("no authenticated user")
	}
	return u, nil
}

// POST /api/contracts
// Multipart form: "file" (upload) or "text" (inline contract text).
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	user, err := principal(req)
	if err != nil {
		return err
	}

	cmd := appcontracts.AnalyzeCommand{
		UserID:  user.ID,
		Email:   user.Email,
		Premium: user.Premium,
	}

	if err := req.ParseMultipartForm(middleware.MaxUploadBytes); err == nil {
		cmd.Text = middleware.SanitizeString(req.FormValue("text"))
		if file, header, err := req.FormFile("file"); err == nil {
			defer file.Close()
			if err := middleware.ValidateUploadSize(header.Size); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return nil
			}
			data, err := io.ReadAll(file)
			if err != nil {
				return err
			}
			cmd.FileName = header.Filename
			cmd.FileData = data
		}
	} else {
		// Plain form fallback for text-only submissions.
		cmd.Text = middleware.SanitizeString(req.FormValue("text"))
	}

	result, err := r.svc.Analyze(req.Context(), cmd)
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	return writeJSON(w, http.StatusAccepted, result)
}

// GET /api/contracts
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	user, err := principal(req)
	if err != nil {
		return err
	}

	list, err := r.svc.List(req.Context(), user.ID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.ContractAnalysis{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/contracts/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	user, err := principal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	record, err := r.svc.Get(req.Context(), user.ID, domain.AnalysisID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, record)
}

// GET /api/contracts/status/{id}
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	user, err := principal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")

	status, err := r.svc.Status(req.Context(), user.ID, domain.AnalysisID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, status)
}

// GET /api/contracts/{id}/faults?limit=20
func (r *Router) handleFaults(w http.ResponseWriter, req *http.Request) error {
	user, err := principal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	faults, err := r.svc.ListFaults(req.Context(), user.ID, domain.AnalysisID(id), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, faults)
}

// PUT /api/contracts/{id}/feedback
// Body: {"rating": 1..5, "comments": "..."}
func (r *Router) handleFeedback(w http.ResponseWriter, req *http.Request) error {
	user, err := principal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")

	var body domain.UserFeedback
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid feedback body")
		return nil
	}
	if err := middleware.ValidateRating(body.Rating); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	body.Comments = middleware.SanitizeString(body.Comments)

	if err := r.svc.UpdateFeedback(req.Context(), user.ID, domain.AnalysisID(id), &body); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DELETE /api/contracts/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	user, err := principal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")

	if err := r.svc.Delete(req.Context(), user.ID, domain.AnalysisID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
