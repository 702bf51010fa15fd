package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	appanalysis "github.com/bryanwahyu/upstarter/internal/application/analysis"
	appprojects "github.com/bryanwahyu/upstarter/internal/application/projects"
	"github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/middleware"
)

// projectID reads the id from the path, the ?id= query or the fallback
// (a body field), in that order.
func projectID(req *http.Request, fallback string) (projects.ProjectID, error) {
	id := chi.URLParam(req, "id")
	if id == "" {
		id = req.URL.Query().Get("id")
	}
	if id == "" {
		id = fallback
	}
	if err := middleware.ValidateProjectID(id); err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, err.Error(), err)
	}
	return projects.ProjectID(id), nil
}

func (r *Router) handleProjectsGet(w http.ResponseWriter, req *http.Request) error {
	if chi.URLParam(req, "id") == "" && req.URL.Query().Get("id") == "" {
		list, err := r.Projects.List(req.Context(), user(req))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, map[string]any{"success": true, "projects": list})
	}
	id, err := projectID(req, "")
	if err != nil {
		return err
	}
	d, err := r.Projects.Get(req.Context(), user(req), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": d})
}

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (r *Router) handleProjectCreate(w http.ResponseWriter, req *http.Request) error {
	var body createProjectRequest
	if err := readBody(req, nil, &body); err != nil {
		return err
	}
	p, err := r.Projects.Create(req.Context(), appprojects.CreateCommand{
		UserEmail:   user(req),
		Title:       body.Title,
		Description: body.Description,
		Type:        body.Type,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"success": true, "project": p})
}

type updateProjectRequest struct {
	ID          string           `json:"id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *projects.Status `json:"status"`
	Type        *string          `json:"type"`
}

func (r *Router) handleProjectUpdate(w http.ResponseWriter, req *http.Request) error {
	var body updateProjectRequest
	if err := readBody(req, nil, &body); err != nil {
		return err
	}
	id, err := projectID(req, body.ID)
	if err != nil {
		return err
	}
	p, err := r.Projects.Update(req.Context(), appprojects.UpdateCommand{
		UserEmail:   user(req),
		ID:          id,
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Type:        body.Type,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": p})
}

func (r *Router) handleProjectDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req, "")
	if err != nil {
		return err
	}
	if err := r.Projects.Delete(req.Context(), user(req), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (r *Router) handleProjectAnalyses(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req, "")
	if err != nil {
		return err
	}
	list, err := r.Projects.ListAnalyses(req.Context(), user(req), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "analyses": list})
}

type regenerateRequest struct {
	Text string `json:"text"`
}

func (r *Router) handleProjectRegenerate(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req, "")
	if err != nil {
		return err
	}
	var body regenerateRequest
	if err := readOptionalBody(req, &body); err != nil {
		return err
	}
	out, err := r.Analysis.Regenerate(req.Context(), appanalysis.RegenerateCommand{
		UserEmail: user(req),
		ProjectID: id,
		Text:      body.Text,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, documentEnvelope(out))
}
