package airtable

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/upstarter/internal/domain/projects"
)

const (
	fTitle             = "Title"
	fDescription       = "Description"
	fUserEmail         = "User Email"
	fSource            = "Source"
	fStatus            = "Status"
	fScore             = "Score"
	fType              = "Type"
	fCreatedAt         = "Created At"
	fUpdatedAt         = "Updated At"
	fProject           = "Project"
	fProjectID         = "Project ID"
	fOverallScore      = "Overall Score"
	fAnalysisData      = "Analysis Data"
	fMissingAreas      = "Missing Areas"
	fCompletenessScore = "Completeness Score"
	fEngine            = "Engine"
	fCategory          = "Category"
	fContent           = "Content"
	fPriority          = "Priority"
	fStepRequired      = "Step Required"
)

// ProjectRepo implements projects.Repository
type ProjectRepo struct{ C *Client }

func NewProjectRepo(c *Client) *ProjectRepo { return &ProjectRepo{C: c} }

func projectFields(p *projects.Project) Fields {
	return Fields{
		fTitle:       p.Title,
		fDescription: p.Description,
		fUserEmail:   p.UserEmail,
		fSource:      string(p.Source),
		fStatus:      string(p.Status),
		fScore:       p.Score,
		fType:        p.Type,
		fCreatedAt:   formatTime(p.CreatedAt),
		fUpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func projectFromRecord(r record) *projects.Project {
	f := r.Fields
	p := &projects.Project{
		ID:          projects.ProjectID(r.ID),
		UserEmail:   f.str(fUserEmail),
		Title:       f.str(fTitle),
		Description: f.str(fDescription),
		Source:      projects.Source(f.str(fSource)),
		Status:      projects.Status(f.str(fStatus)),
		Score:       f.num(fScore),
		Type:        f.str(fType),
		CreatedAt:   f.timestamp(fCreatedAt),
		UpdatedAt:   f.timestamp(fUpdatedAt),
	}
	if p.CreatedAt.IsZero() {
		if t, err := time.Parse(time.RFC3339, r.CreatedTime); err == nil {
			p.CreatedAt = t.UTC()
		}
	}
	return p
}

func (r *ProjectRepo) Create(ctx context.Context, p *projects.Project) error {
	recs, err := r.C.create(ctx, r.C.tables.Projects, []Fields{projectFields(p)})
	if err != nil {
		return err
	}
	if len(recs) != 1 {
		return fmt.Errorf("airtable create project: got %d records", len(recs))
	}
	p.ID = projects.ProjectID(recs[0].ID)
	return nil
}

func (r *ProjectRepo) Get(ctx context.Context, id projects.ProjectID) (*projects.Project, error) {
	if id == "" || id.IsLocal() {
		return nil, projects.ErrNotFound
	}
	rec, err := r.C.get(ctx, r.C.tables.Projects, string(id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return projectFromRecord(*rec), nil
}

func (r *ProjectRepo) ListByUser(ctx context.Context, email string, limit int) ([]*projects.Project, error) {
	recs, err := r.C.list(ctx, r.C.tables.Projects, listQuery{
		Formula:  Eq(fUserEmail, email),
		Max:      limit,
		SortBy:   fCreatedAt,
		SortDesc: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*projects.Project, 0, len(recs))
	for _, rec := range recs {
		out = append(out, projectFromRecord(rec))
	}
	return out, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *projects.Project) error {
	if p.ID.IsLocal() {
		return projects.ErrNotFound
	}
	f := projectFields(p)
	// creation time and owner never change
	delete(f, fCreatedAt)
	delete(f, fUserEmail)
	_, err := r.C.update(ctx, r.C.tables.Projects, string(p.ID), f)
	return mapNotFound(err)
}

func (r *ProjectRepo) Delete(ctx context.Context, id projects.ProjectID) error {
	if id.IsLocal() {
		return projects.ErrNotFound
	}
	return mapNotFound(r.C.delete(ctx, r.C.tables.Projects, string(id)))
}

// AnalysisRepo implements projects.AnalysisRepository. Each row carries the
// project both as a linked record and as a plain "Project ID" text cell,
// because formulas over link fields see the primary field, not the id.
type AnalysisRepo struct{ C *Client }

func NewAnalysisRepo(c *Client) *AnalysisRepo { return &AnalysisRepo{C: c} }

func analysisFromRecord(r record) *projects.Analysis {
	f := r.Fields
	a := &projects.Analysis{
		ID:                projects.AnalysisID(r.ID),
		ProjectID:         projects.ProjectID(f.str(fProjectID)),
		OverallScore:      f.num(fOverallScore),
		AnalysisData:      f.str(fAnalysisData),
		MissingAreas:      f.list(fMissingAreas),
		CompletenessScore: f.num(fCompletenessScore),
		Engine:            f.str(fEngine),
		CreatedAt:         f.timestamp(fCreatedAt),
	}
	if a.ProjectID == "" {
		a.ProjectID = projects.ProjectID(f.str(fProject))
	}
	return a
}

func (r *AnalysisRepo) Create(ctx context.Context, a *projects.Analysis) error {
	recs, err := r.C.create(ctx, r.C.tables.Analyses, []Fields{{
		fProject:           []string{string(a.ProjectID)},
		fProjectID:         string(a.ProjectID),
		fOverallScore:      a.OverallScore,
		fAnalysisData:      a.AnalysisData,
		fMissingAreas:      strings.Join(a.MissingAreas, "\n"),
		fCompletenessScore: a.CompletenessScore,
		fEngine:            a.Engine,
		fCreatedAt:         formatTime(a.CreatedAt),
	}})
	if err != nil {
		return err
	}
	if len(recs) != 1 {
		return fmt.Errorf("airtable create analysis: got %d records", len(recs))
	}
	a.ID = projects.AnalysisID(recs[0].ID)
	return nil
}

func (r *AnalysisRepo) Get(ctx context.Context, id projects.AnalysisID) (*projects.Analysis, error) {
	if id == "" || id.IsLocal() {
		return nil, projects.ErrNotFound
	}
	rec, err := r.C.get(ctx, r.C.tables.Analyses, string(id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return analysisFromRecord(*rec), nil
}

func (r *AnalysisRepo) ListByProject(ctx context.Context, projectID projects.ProjectID, limit int) ([]*projects.Analysis, error) {
	recs, err := r.C.list(ctx, r.C.tables.Analyses, listQuery{
		Formula:  Eq(fProjectID, string(projectID)),
		Max:      limit,
		SortBy:   fCreatedAt,
		SortDesc: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*projects.Analysis, 0, len(recs))
	for _, rec := range recs {
		out = append(out, analysisFromRecord(rec))
	}
	return out, nil
}

func (r *AnalysisRepo) LatestByProject(ctx context.Context, projectID projects.ProjectID) (*projects.Analysis, error) {
	list, err := r.ListByProject(ctx, projectID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, projects.ErrNotFound
	}
	return list[0], nil
}

// InfoRepo implements projects.AdditionalInfoRepository
type InfoRepo struct{ C *Client }

func NewInfoRepo(c *Client) *InfoRepo { return &InfoRepo{C: c} }

// CreateBatch writes all items in one call (the batch never exceeds maxBatch).
// On success every item gets its record id.
func (r *InfoRepo) CreateBatch(ctx context.Context, items []*projects.AdditionalInfo) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]Fields, 0, len(items))
	for _, it := range items {
		rows = append(rows, Fields{
			fProject:      []string{string(it.ProjectID)},
			fProjectID:    string(it.ProjectID),
			fCategory:     it.Category,
			fContent:      it.Content,
			fPriority:     string(it.Priority),
			fStepRequired: it.StepRequired,
		})
	}
	recs, err := r.C.create(ctx, r.C.tables.AdditionalInfo, rows)
	for i := range recs {
		if i < len(items) {
			items[i].ID = recs[i].ID
		}
	}
	return err
}

func (r *InfoRepo) ListByProject(ctx context.Context, projectID projects.ProjectID) ([]*projects.AdditionalInfo, error) {
	recs, err := r.C.list(ctx, r.C.tables.AdditionalInfo, listQuery{Formula: Eq(fProjectID, string(projectID))})
	if err != nil {
		return nil, err
	}
	out := make([]*projects.AdditionalInfo, 0, len(recs))
	for _, rec := range recs {
		f := rec.Fields
		out = append(out, &projects.AdditionalInfo{
			ID:           rec.ID,
			ProjectID:    projects.ProjectID(f.str(fProjectID)),
			Category:     f.str(fCategory),
			Content:      f.str(fContent),
			Priority:     projects.Priority(f.str(fPriority)),
			StepRequired: f.boolean(fStepRequired),
		})
	}
	return out, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return projects.ErrNotFound
	}
	return err
}
