package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/upstarter/internal/domain/projects"
)

type ProjectRepository struct{ db *DB }

func NewProjectRepository(db *DB) *ProjectRepository { return &ProjectRepository{db: db} }

const projectColumns = `id, user_email, title, description, source, status, score, type, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanProject(s rowScanner) (*projects.Project, error) {
	var p projects.Project
	if err := s.Scan(&p.ID, &p.UserEmail, &p.Title, &p.Description, &p.Source, &p.Status,
		&p.Score, &p.Type, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Create inserts the project, assigning a uuid when ID is empty.
func (r *ProjectRepository) Create(ctx context.Context, p *projects.Project) error {
	if p.ID == "" {
		p.ID = projects.ProjectID(uuid.NewString())
	}
	p.CreatedAt = utcNow(p.CreatedAt)
	p.UpdatedAt = utcNow(p.UpdatedAt)

	const q = `
INSERT INTO projects (` + projectColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?)`
	_, err := r.db.exec(ctx, q, p.ID, p.UserEmail, p.Title, p.Description, p.Source, p.Status,
		p.Score, p.Type, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Get(ctx context.Context, id projects.ProjectID) (*projects.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id=? LIMIT 1`
	p, err := scanProject(r.db.queryRow(ctx, q, id))
	if err != nil {
		return nil, mapNoRows(err, projects.ErrNotFound)
	}
	return p, nil
}

// ListByUser returns the newest projects first.
func (r *ProjectRepository) ListByUser(ctx context.Context, email string, limit int) ([]*projects.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE user_email=?
ORDER BY created_at DESC, id DESC
LIMIT ?`
	rows, err := r.db.query(ctx, q, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*projects.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns. Owner and creation time are fixed.
func (r *ProjectRepository) Update(ctx context.Context, p *projects.Project) error {
	p.UpdatedAt = utcNow(p.UpdatedAt)
	const q = `
UPDATE projects
SET title=?, description=?, source=?, status=?, score=?, type=?, updated_at=?
WHERE id=?`
	res, err := r.db.exec(ctx, q, p.Title, p.Description, p.Source, p.Status, p.Score, p.Type, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireAffected(ctx, r.db, res, "projects", string(p.ID), projects.ErrNotFound)
}

func (r *ProjectRepository) Delete(ctx context.Context, id projects.ProjectID) error {
	res, err := r.db.exec(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return projects.ErrNotFound
	}
	return nil
}

type AnalysisRepository struct{ db *DB }

func NewAnalysisRepository(db *DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

const analysisColumns = `id, project_id, overall_score, analysis_data, missing_areas, completeness_score, engine, created_at`

func scanAnalysis(s rowScanner) (*projects.Analysis, error) {
	var a projects.Analysis
	var missing string
	if err := s.Scan(&a.ID, &a.ProjectID, &a.OverallScore, &a.AnalysisData, &missing,
		&a.CompletenessScore, &a.Engine, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.MissingAreas = decodeList(missing)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *AnalysisRepository) Create(ctx context.Context, a *projects.Analysis) error {
	if a.ID == "" {
		a.ID = projects.AnalysisID(uuid.NewString())
	}
	a.CreatedAt = utcNow(a.CreatedAt)
	data := a.AnalysisData
	if data == "" {
		data = "{}"
	}
	const q = `INSERT INTO analyses (` + analysisColumns + `) VALUES (?,?,?,?,?,?,?,?)`
	_, err := r.db.exec(ctx, q, a.ID, a.ProjectID, a.OverallScore, data, encodeList(a.MissingAreas),
		a.CompletenessScore, a.Engine, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) Get(ctx context.Context, id projects.AnalysisID) (*projects.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM analyses WHERE id=? LIMIT 1`
	a, err := scanAnalysis(r.db.queryRow(ctx, q, id))
	if err != nil {
		return nil, mapNoRows(err, projects.ErrNotFound)
	}
	return a, nil
}

func (r *AnalysisRepository) ListByProject(ctx context.Context, projectID projects.ProjectID, limit int) ([]*projects.Analysis, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT ` + analysisColumns + `
FROM analyses
WHERE project_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?`
	rows, err := r.db.query(ctx, q, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*projects.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) LatestByProject(ctx context.Context, projectID projects.ProjectID) (*projects.Analysis, error) {
	list, err := r.ListByProject(ctx, projectID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, projects.ErrNotFound
	}
	return list[0], nil
}

type InfoRepository struct{ db *DB }

func NewInfoRepository(db *DB) *InfoRepository { return &InfoRepository{db: db} }

// CreateBatch inserts all items in one transaction.
func (r *InfoRepository) CreateBatch(ctx context.Context, items []*projects.AdditionalInfo) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	q := r.db.Dialect.Rebind(`
INSERT INTO additional_info (id, project_id, category, content, priority, step_required)
VALUES (?,?,?,?,?,?)`)
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, q, it.ID, it.ProjectID, it.Category, it.Content, it.Priority, it.StepRequired); err != nil {
			return fmt.Errorf("insert additional info: %w", err)
		}
	}
	return tx.Commit()
}

func (r *InfoRepository) ListByProject(ctx context.Context, projectID projects.ProjectID) ([]*projects.AdditionalInfo, error) {
	const q = `
SELECT id, project_id, category, content, priority, step_required
FROM additional_info
WHERE project_id=?
ORDER BY category`
	rows, err := r.db.query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*projects.AdditionalInfo
	for rows.Next() {
		var it projects.AdditionalInfo
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.Category, &it.Content, &it.Priority, &it.StepRequired); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}
