package httpserver

import (
	"net/http"

	appteam "github.com/bryanwahyu/upstarter/internal/application/team"
	"github.com/bryanwahyu/upstarter/internal/domain/team"
	"github.com/bryanwahyu/upstarter/internal/middleware"
	"github.com/bryanwahyu/upstarter/internal/schema"
)

func (r *Router) handleTeamGet(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	if middleware.ParseBool(q.Get("me")) {
		p, err := r.Team.Me(req.Context(), user(req))
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": p})
	}

	list, err := r.Team.Browse(req.Context(), appteam.BrowseQuery{
		UserEmail:    user(req),
		Skills:       middleware.SplitList(q.Get("skills")),
		Industry:     middleware.SanitizeString(q.Get("industry")),
		Role:         middleware.SanitizeString(q.Get("role")),
		Location:     middleware.SanitizeString(q.Get("location")),
		Availability: middleware.SanitizeString(q.Get("availability")),
		Search:       middleware.SanitizeString(q.Get("search")),
		ExcludeSelf:  middleware.ParseBool(q.Get("exclude_self")),
		Limit:        middleware.ValidateLimit(q.Get("limit"), 50, 100),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "profiles": list, "count": len(list)})
}

func (r *Router) handleTeamUpsert(w http.ResponseWriter, req *http.Request) error {
	var body team.Profile
	if err := readBody(req, schema.TeamProfileRequest, &body); err != nil {
		return err
	}
	p, err := r.Team.Upsert(req.Context(), user(req), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": p})
}

func (r *Router) handleTeamMatches(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(req.URL.Query().Get("limit"), 10, 50)
	matches, err := r.Team.Matches(req.Context(), user(req), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "matches": matches})
}
