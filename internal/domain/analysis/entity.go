package analysis

import (
	"strings"
	"time"
)

// Engine names the analyzer that produced a Result.
type Engine string

const (
	EngineHeuristic Engine = "heuristic"
	EngineOpenAI    Engine = "openai"
	EngineGemini    Engine = "gemini"
)

// MaxScore caps every score; there is no calibration beyond this clamp.
const MaxScore = 95

// Scores are per-dimension ratings on a 0..100 scale.
type Scores struct {
	Market        int `json:"market"`
	BusinessModel int `json:"business_model"`
	Team          int `json:"team"`
	Competition   int `json:"competition"`
	Funding       int `json:"funding"`
	Timeline      int `json:"timeline"`
	Innovation    int `json:"innovation"`
}

// Valuation is a pre-money range in whole currency units.
type Valuation struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
}

// Result is the fixed-shape output of every analyzer engine.
type Result struct {
	OverallScore        int       `json:"overall_score"`
	Scores              Scores    `json:"scores"`
	Summary             string    `json:"summary"`
	Strengths           []string  `json:"strengths"`
	Weaknesses          []string  `json:"weaknesses"`
	Recommendations     []string  `json:"recommendations"`
	NextSteps           []string  `json:"next_steps"`
	MarketAnalysis      string    `json:"market_analysis"`
	CompetitiveAnalysis string    `json:"competitive_analysis"`
	Valuation           Valuation `json:"valuation"`
	MissingAreas        []string  `json:"missing_areas"`
	CompletenessScore   int       `json:"completeness_score"`
	Engine              Engine    `json:"engine"`
	FallbackReason      string    `json:"fallback_reason,omitempty"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// Clamp applies min(MaxScore, x) to every score and floors them at zero.
func (r *Result) Clamp() {
	r.OverallScore = clamp(r.OverallScore)
	r.CompletenessScore = clamp100(r.CompletenessScore)
	s := &r.Scores
	for _, p := range []*int{&s.Market, &s.BusinessModel, &s.Team, &s.Competition, &s.Funding, &s.Timeline, &s.Innovation} {
		*p = clamp(*p)
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return min(MaxScore, v)
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	return min(100, v)
}

// IdeaInput is the structured questionnaire submitted by analyze-idea.
type IdeaInput struct {
	BusinessIdea         string `json:"businessIdea"`
	TargetMarket         string `json:"targetMarket"`
	BusinessModel        string `json:"businessModel"`
	TeamSize             string `json:"teamSize"`
	TeamExperience       string `json:"teamExperience"`
	CompetitiveAdvantage string `json:"competitiveAdvantage"`
	FundingNeeds         string `json:"fundingNeeds"`
	Timeline             string `json:"timeline"`
	AdditionalInfo       string `json:"additionalInfo"`
}

// DocumentInput is an uploaded or pasted document plus its scanned hints.
type DocumentInput struct {
	FileName     string
	Title        string
	Text         string
	Sections     []string
	DocumentType string
}

// sentinels are the placeholder values the form submits for untouched fields.
var sentinels = map[string]struct{}{
	"":                {},
	"da definire":     {},
	"non specificato": {},
	"non definito":    {},
	"not specified":   {},
	"tbd":             {},
	"n/a":             {},
	"-":               {},
	"seleziona":       {},
}

// IsSpecified reports whether a form field carries a real value rather than
// an empty string or a sentinel default.
func IsSpecified(v string) bool {
	_, sentinel := sentinels[strings.ToLower(strings.TrimSpace(v))]
	return !sentinel
}
