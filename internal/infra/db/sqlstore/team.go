package sqlstore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/upstarter/internal/domain/team"
)

type TeamRepository struct{ db *DB }

func NewTeamRepository(db *DB) *TeamRepository { return &TeamRepository{db: db} }

const profileColumns = `id, user_email, name, bio, skills, industry_focus, role, looking_for,
       location, experience_years, availability, linkedin_url, created_at, updated_at`

func scanProfile(s rowScanner) (*team.Profile, error) {
	var p team.Profile
	var skills, industries string
	if err := s.Scan(&p.ID, &p.UserEmail, &p.Name, &p.Bio, &skills, &industries, &p.Role, &p.LookingFor,
		&p.Location, &p.ExperienceYears, &p.Availability, &p.LinkedInURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Skills = decodeList(skills)
	p.IndustryFocus = decodeList(industries)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Upsert keys on user_email. The existing id and created_at are preserved.
func (r *TeamRepository) Upsert(ctx context.Context, p *team.Profile) error {
	p.UpdatedAt = utcNow(p.UpdatedAt)
	existing, err := r.GetByEmail(ctx, p.UserEmail)
	switch {
	case err == nil:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		const q = `
UPDATE team_profiles
SET name=?, bio=?, skills=?, industry_focus=?, role=?, looking_for=?, location=?,
    experience_years=?, availability=?, linkedin_url=?, updated_at=?
WHERE id=?`
		_, err = r.db.exec(ctx, q, p.Name, p.Bio, encodeList(p.Skills), encodeList(p.IndustryFocus), p.Role,
			p.LookingFor, p.Location, p.ExperienceYears, p.Availability, p.LinkedInURL, p.UpdatedAt, p.ID)
		return err
	case !errors.Is(err, team.ErrNotFound):
		return err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = utcNow(p.CreatedAt)
	const q = `
INSERT INTO team_profiles (` + profileColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err = r.db.exec(ctx, q, p.ID, p.UserEmail, p.Name, p.Bio, encodeList(p.Skills), encodeList(p.IndustryFocus),
		p.Role, p.LookingFor, p.Location, p.ExperienceYears, p.Availability, p.LinkedInURL, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *TeamRepository) GetByEmail(ctx context.Context, email string) (*team.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM team_profiles WHERE user_email=? LIMIT 1`
	p, err := scanProfile(r.db.queryRow(ctx, q, email))
	if err != nil {
		return nil, mapNoRows(err, team.ErrNotFound)
	}
	return p, nil
}

// Search applies the filter with parameterized predicates. Text matches are
// case-insensitive substring matches.
func (r *TeamRepository) Search(ctx context.Context, f team.Filter) ([]*team.Profile, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + profileColumns + ` FROM team_profiles WHERE 1=1`
	var args []any

	var skillClauses []string
	for _, s := range f.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skillClauses = append(skillClauses, "LOWER(skills) LIKE ? ESCAPE '!'")
			args = append(args, containsPattern(s))
		}
	}
	if len(skillClauses) > 0 {
		query += " AND (" + strings.Join(skillClauses, " OR ") + ")"
	}
	if f.Industry != "" {
		query += " AND LOWER(industry_focus) LIKE ? ESCAPE '!'"
		args = append(args, containsPattern(f.Industry))
	}
	if f.Role != "" {
		query += " AND role = ?"
		args = append(args, f.Role)
	}
	if f.Location != "" {
		query += " AND LOWER(location) LIKE ? ESCAPE '!'"
		args = append(args, containsPattern(f.Location))
	}
	if f.Availability != "" {
		query += " AND availability = ?"
		args = append(args, f.Availability)
	}
	if f.Search != "" {
		query += " AND (LOWER(name) LIKE ? ESCAPE '!' OR LOWER(bio) LIKE ? ESCAPE '!')"
		args = append(args, containsPattern(f.Search), containsPattern(f.Search))
	}
	if f.ExcludeEmail != "" {
		query += " AND user_email <> ?"
		args = append(args, f.ExcludeEmail)
	}
	query += "\nORDER BY updated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*team.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
