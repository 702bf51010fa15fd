package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	appdocuments "github.com/bryanwahyu/upstarter/internal/application/documents"
	"github.com/bryanwahyu/upstarter/internal/domain/finance"
	"github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
	"github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type extractResponse struct {
	Success bool `json:"success"`
	*appdocuments.ExtractResult
}

func (r *Router) handleExtractText(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.MaxUploadBytes)
	if err := req.ParseMultipartForm(r.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Invalid("File troppo grande (massimo %d MB)", r.MaxUploadBytes>>20)
		}
		return apperr.Wrap(apperr.KindInvalidInput, "Richiesta multipart non valida", err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "Nessun file caricato", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "Impossibile leggere il file", err)
	}
	res, err := r.Documents.ExtractText(req.Context(), appdocuments.ExtractCommand{
		UserEmail: user(req),
		FileName:  header.Filename,
		Data:      data,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, extractResponse{Success: true, ExtractResult: res})
}

func (r *Router) handleDeckGet(w http.ResponseWriter, req *http.Request) error {
	d, err := r.PitchDeck.Get(req.Context(), user(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "deck": d})
}

func (r *Router) handleDeckSave(w http.ResponseWriter, req *http.Request) error {
	var body pitchdeck.Deck
	if err := readBody(req, nil, &body); err != nil {
		return err
	}
	d, err := r.PitchDeck.Save(req.Context(), user(req), &body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "deck": d})
}

func (r *Router) handleDeckPDF(w http.ResponseWriter, req *http.Request) error {
	b, err := r.PitchDeck.PDF(req.Context(), user(req))
	if err != nil {
		return err
	}
	return writeFile(w, "application/pdf", "pitch-deck.pdf", b)
}

func (r *Router) handleDeckFromProject(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateProjectID(id); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, err.Error(), err)
	}
	d, err := r.PitchDeck.FromProject(req.Context(), user(req), projects.ProjectID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "deck": d})
}

func (r *Router) handleFinanceProjection(w http.ResponseWriter, req *http.Request) error {
	var plan finance.Plan
	if err := readBody(req, nil, &plan); err != nil {
		return err
	}
	p, err := r.Finance.Projection(plan)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"success": true, "projection": p})
}

func (r *Router) handleFinanceExport(w http.ResponseWriter, req *http.Request) error {
	var plan finance.Plan
	if err := readBody(req, nil, &plan); err != nil {
		return err
	}
	b, err := r.Finance.Export(plan)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("piano-finanziario-%s.xlsx", strings.ReplaceAll(time.Now().UTC().Format(time.DateOnly), "-", ""))
	return writeFile(w, xlsxContentType, name, b)
}
