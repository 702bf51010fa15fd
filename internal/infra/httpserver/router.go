package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	appanalysis "github.com/bryanwahyu/upstarter/internal/application/analysis"
	appdocuments "github.com/bryanwahyu/upstarter/internal/application/documents"
	appfinance "github.com/bryanwahyu/upstarter/internal/application/finance"
	apppitchdeck "github.com/bryanwahyu/upstarter/internal/application/pitchdeck"
	appprojects "github.com/bryanwahyu/upstarter/internal/application/projects"
	appteam "github.com/bryanwahyu/upstarter/internal/application/team"
	"github.com/bryanwahyu/upstarter/internal/logging"
	"github.com/bryanwahyu/upstarter/internal/middleware"
	"github.com/bryanwahyu/upstarter/internal/schema"
)

const (
	defaultMaxUpload = 10 << 20
	maxJSONBody      = 1 << 20
)

// Deps are the services and settings the router needs. Limiter and Health
// are optional.
type Deps struct {
	Analysis  *appanalysis.Service
	Projects  *appprojects.Service
	Team      *appteam.Service
	Documents *appdocuments.Service
	PitchDeck *apppitchdeck.Service
	Finance   *appfinance.Service

	Verifier middleware.SessionVerifier
	Limiter  *middleware.RateLimiter
	Health   map[string]middleware.HealthChecker

	CORSOrigins    []string
	MaxUploadBytes int64
	Logger         *zap.Logger
}

type Router struct {
	Deps
	log *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUpload
	}
	r := &Router{Deps: d, log: logging.OrNop(d.Logger)}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(d.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := d.Health
	if health == nil {
		health = map[string]middleware.HealthChecker{}
	}
	// readiness only waits on the system of record
	ready := map[string]middleware.HealthChecker{}
	if c, ok := health["store"]; ok {
		ready["store"] = c
	}
	mux.Get("/health", middleware.HealthHandler(health))
	mux.Get("/ready", middleware.ReadinessHandler(ready))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(middleware.SessionAuth(d.Verifier, d.Logger))
		rt.Use(middleware.Logging(d.Logger))
		if d.Limiter != nil {
			rt.Use(d.Limiter.Middleware)
		}

		rt.Post("/analyze-document", r.wrap(r.handleAnalyzeDocument))
		rt.Post("/analyze-idea", r.wrap(r.handleAnalyzeIdea))
		rt.Post("/extract-text", r.wrap(r.handleExtractText))

		rt.Route("/projects", func(pr chi.Router) {
			pr.Get("/", r.wrap(r.handleProjectsGet))
			pr.Post("/", r.wrap(r.handleProjectCreate))
			pr.Put("/", r.wrap(r.handleProjectUpdate))
			pr.Delete("/", r.wrap(r.handleProjectDelete))
			pr.Get("/{id}", r.wrap(r.handleProjectsGet))
			pr.Put("/{id}", r.wrap(r.handleProjectUpdate))
			pr.Delete("/{id}", r.wrap(r.handleProjectDelete))
			pr.Get("/{id}/analyses", r.wrap(r.handleProjectAnalyses))
			pr.Post("/{id}/analyze", r.wrap(r.handleProjectRegenerate))
		})

		rt.Get("/team-profile", r.wrap(r.handleTeamGet))
		rt.Post("/team-profile", r.wrap(r.handleTeamUpsert))
		rt.Get("/team-profile/matches", r.wrap(r.handleTeamMatches))

		rt.Get("/pitch-deck", r.wrap(r.handleDeckGet))
		rt.Put("/pitch-deck", r.wrap(r.handleDeckSave))
		rt.Get("/pitch-deck/pdf", r.wrap(r.handleDeckPDF))
		rt.Post("/pitch-deck/from-project/{id}", r.wrap(r.handleDeckFromProject))

		rt.Post("/financial-plan/projection", r.wrap(r.handleFinanceProjection))
		rt.Post("/financial-plan/export", r.wrap(r.handleFinanceExport))
	})

	return mux
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps application error kinds to statuses and writes {error, details}.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(apperr.KindOf(err))
		body := map[string]string{"error": apperr.MessageOf(err)}

		var ae *apperr.Error
		switch {
		case status == http.StatusInternalServerError:
			r.log.Error("http.handler.failed", zap.String("path", req.URL.Path), zap.Error(err))
			body["error"] = "Errore interno del server"
			if errors.As(err, &ae) {
				body["error"] = ae.Message
			}
			body["details"] = err.Error()
		case errors.As(err, &ae) && ae.Cause != nil:
			body["details"] = ae.Cause.Error()
		}
		_ = writeJSON(w, status, body)
	}
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindInvalidInput, apperr.KindTooLittleText, apperr.KindUnsupportedFormat:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindQuota:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// writeJSON encodes before touching the response so an encoding failure can
// still be reported by wrap.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return apperr.Wrap(apperr.KindInternal, "Errore durante la codifica della risposta", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(data)
	return err
}

// readBody reads a bounded JSON body and, when v is non-nil, validates it
// against the request schema before decoding into dst.
func readBody(req *http.Request, v *schema.Validator, dst any) error {
	body, err := readRaw(req)
	if err != nil {
		return err
	}
	return decodeBody(body, v, dst)
}

// readOptionalBody is readBody for endpoints whose body may be absent.
func readOptionalBody(req *http.Request, dst any) error {
	body, err := readRaw(req)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return err
	}
	return decodeBody(body, nil, dst)
}

func readRaw(req *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxJSONBody+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "Impossibile leggere la richiesta", err)
	}
	if len(body) > maxJSONBody {
		return nil, apperr.Invalid("Richiesta troppo grande")
	}
	return body, nil
}

func decodeBody(body []byte, v *schema.Validator, dst any) error {
	if v != nil {
		if err := middleware.ValidateBody(v, body); err != nil {
			return apperr.Wrap(apperr.KindInvalidInput, err.Error(), err)
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "JSON non valido", err)
	}
	return nil
}

func user(req *http.Request) string {
	return middleware.UserEmail(req.Context())
}
