package projects

import (
	"strings"
	"time"
)

// ProjectID identifier type
type ProjectID string

// LocalIDPrefix marks identifiers generated when the store write failed.
// Such ids have no persisted row behind them.
const LocalIDPrefix = "local-"

// IsLocal reports whether the id was generated locally after a failed write.
func (id ProjectID) IsLocal() bool { return strings.HasPrefix(string(id), LocalIDPrefix) }

// Source enum
type Source string

const (
	SourceDocument Source = "document"
	SourceIdea     Source = "idea"
	SourceManual   Source = "manual"
)

// Status enum
type Status string

const (
	StatusDraft    Status = "draft"
	StatusAnalyzed Status = "analyzed"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusAnalyzed, StatusArchived:
		return true
	}
	return false
}

// Project is a submitted startup idea or document.
type Project struct {
	ID          ProjectID `json:"id"`
	UserEmail   string    `json:"user_email"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      Source    `json:"source"`
	Status      Status    `json:"status"`
	Score       int       `json:"score"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AnalysisID identifier type
type AnalysisID string

// IsLocal reports whether the id was generated locally after a failed write.
func (id AnalysisID) IsLocal() bool { return strings.HasPrefix(string(id), LocalIDPrefix) }

// Analysis is one scored analysis run for a project. Rows are append-only.
type Analysis struct {
	ID                AnalysisID `json:"id"`
	ProjectID         ProjectID  `json:"project_id"`
	OverallScore      int        `json:"overall_score"`
	AnalysisData      string     `json:"analysis_data"` // serialized analysis.Result
	MissingAreas      []string   `json:"missing_areas"`
	CompletenessScore int        `json:"completeness_score"`
	Engine            string     `json:"engine"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Priority enum
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// MaxAdditionalInfo caps the batch created next to a project.
const MaxAdditionalInfo = 5

// AdditionalInfo is a follow-up item the founder should provide.
type AdditionalInfo struct {
	ID           string    `json:"id"`
	ProjectID    ProjectID `json:"project_id"`
	Category     string    `json:"category"`
	Content      string    `json:"content"`
	Priority     Priority  `json:"priority"`
	StepRequired bool      `json:"step_required"`
}
