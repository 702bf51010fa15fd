package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	appanalysis "github.com/bryanwahyu/upstarter/internal/application/analysis"
	"github.com/bryanwahyu/upstarter/internal/domain/analysis"
	"github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/schema"
)

type documentRequest struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

type extractedInfo struct {
	Title          string                     `json:"title"`
	Description    string                     `json:"description"`
	Sections       []string                   `json:"sections"`
	DocumentType   string                     `json:"document_type"`
	MissingAreas   []string                   `json:"missing_areas"`
	AdditionalInfo []*projects.AdditionalInfo `json:"additional_info"`
}

type valuationSummary struct {
	Min       int64  `json:"min"`
	Max       int64  `json:"max"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Formatted string `json:"formatted"`
}

type documentResponse struct {
	Success              bool                   `json:"success"`
	Project              *projects.Project      `json:"project"`
	Analysis             *projects.Analysis     `json:"analysis"`
	ProfessionalAnalysis *analysis.Result       `json:"professional_analysis"`
	ExtractedInfo        *extractedInfo         `json:"extracted_info,omitempty"`
	ValuationSummary     valuationSummary       `json:"valuation_summary"`
	SavedToAirtable      bool                   `json:"saved_to_airtable"`
	Persistence          projects.PersistResult `json:"persistence"`
}

func (r *Router) handleAnalyzeDocument(w http.ResponseWriter, req *http.Request) error {
	var body documentRequest
	if err := readBody(req, schema.DocumentRequest, &body); err != nil {
		return err
	}
	out, err := r.Analysis.AnalyzeDocument(req.Context(), appanalysis.DocumentCommand{
		UserEmail: user(req),
		FileName:  body.FileName,
		Text:      body.Text,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, documentEnvelope(out))
}

func documentEnvelope(out *appanalysis.Outcome) documentResponse {
	resp := documentResponse{
		Success:              true,
		Project:              out.Project,
		Analysis:             out.Analysis,
		ProfessionalAnalysis: out.Result,
		ValuationSummary:     summarize(out.Result.Valuation),
		SavedToAirtable:      out.Persistence.Saved(),
		Persistence:          out.Persistence,
	}
	if out.Fields != nil {
		resp.ExtractedInfo = &extractedInfo{
			Title:          out.Fields.Title,
			Description:    out.Fields.Description,
			Sections:       out.Fields.Sections,
			DocumentType:   out.Fields.DocumentType,
			MissingAreas:   out.Result.MissingAreas,
			AdditionalInfo: out.Info,
		}
	}
	return resp
}

func summarize(v analysis.Valuation) valuationSummary {
	return valuationSummary{
		Min:       v.Min,
		Max:       v.Max,
		Currency:  v.Currency,
		Method:    v.Method,
		Formatted: fmt.Sprintf("%s - %s %s", compactAmount(v.Min), compactAmount(v.Max), v.Currency),
	}
}

// compactAmount renders 1250000 as "1.25M" and 80000 as "80K".
func compactAmount(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', -1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', -1, 64) + "K"
	}
	return strconv.FormatInt(n, 10)
}

// flexString accepts a JSON string or number; the idea form sends teamSize
// and fundingNeeds either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type ideaRequest struct {
	BusinessIdea         string     `json:"businessIdea"`
	TargetMarket         string     `json:"targetMarket"`
	BusinessModel        string     `json:"businessModel"`
	TeamSize             flexString `json:"teamSize"`
	TeamExperience       string     `json:"teamExperience"`
	CompetitiveAdvantage string     `json:"competitiveAdvantage"`
	FundingNeeds         flexString `json:"fundingNeeds"`
	Timeline             string     `json:"timeline"`
	AdditionalInfo       string     `json:"additionalInfo"`
}

func (i ideaRequest) input() analysis.IdeaInput {
	return analysis.IdeaInput{
		BusinessIdea:         i.BusinessIdea,
		TargetMarket:         i.TargetMarket,
		BusinessModel:        i.BusinessModel,
		TeamSize:             string(i.TeamSize),
		TeamExperience:       i.TeamExperience,
		CompetitiveAdvantage: i.CompetitiveAdvantage,
		FundingNeeds:         string(i.FundingNeeds),
		Timeline:             i.Timeline,
		AdditionalInfo:       i.AdditionalInfo,
	}
}

type ideaResponse struct {
	Success         bool                   `json:"success"`
	ProjectData     *projects.Project      `json:"projectData"`
	AnalysisData    *projects.Analysis     `json:"analysisData"`
	Analysis        *analysis.Result       `json:"analysis"`
	SavedToAirtable bool                   `json:"saved_to_airtable"`
	Persistence     projects.PersistResult `json:"persistence"`
}

func (r *Router) handleAnalyzeIdea(w http.ResponseWriter, req *http.Request) error {
	var body ideaRequest
	if err := readBody(req, schema.IdeaRequest, &body); err != nil {
		return err
	}
	out, err := r.Analysis.AnalyzeIdea(req.Context(), appanalysis.IdeaCommand{
		UserEmail: user(req),
		Input:     body.input(),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, ideaResponse{
		Success:         true,
		ProjectData:     out.Project,
		AnalysisData:    out.Analysis,
		Analysis:        out.Result,
		SavedToAirtable: out.Persistence.Saved(),
		Persistence:     out.Persistence,
	})
}
