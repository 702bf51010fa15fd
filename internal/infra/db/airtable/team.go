package airtable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bryanwahyu/upstarter/internal/domain/team"
)

const (
	fName            = "Name"
	fBio             = "Bio"
	fSkills          = "Skills"
	fIndustryFocus   = "Industry Focus"
	fRole            = "Role"
	fLookingFor      = "Looking For"
	fLocation        = "Location"
	fExperienceYears = "Experience Years"
	fAvailability    = "Availability"
	fLinkedInURL     = "LinkedIn URL"
)

// TeamRepo implements team.Repository
type TeamRepo struct{ C *Client }

func NewTeamRepo(c *Client) *TeamRepo { return &TeamRepo{C: c} }

func profileFromRecord(r record) *team.Profile {
	f := r.Fields
	return &team.Profile{
		ID:              r.ID,
		UserEmail:       f.str(fUserEmail),
		Name:            f.str(fName),
		Bio:             f.str(fBio),
		Skills:          f.list(fSkills),
		IndustryFocus:   f.list(fIndustryFocus),
		Role:            f.str(fRole),
		LookingFor:      f.str(fLookingFor),
		Location:        f.str(fLocation),
		ExperienceYears: f.num(fExperienceYears),
		Availability:    f.str(fAvailability),
		LinkedInURL:     f.str(fLinkedInURL),
		CreatedAt:       f.timestamp(fCreatedAt),
		UpdatedAt:       f.timestamp(fUpdatedAt),
	}
}

func profileFields(p *team.Profile) Fields {
	return Fields{
		fUserEmail:       p.UserEmail,
		fName:            p.Name,
		fBio:             p.Bio,
		fSkills:          strings.Join(p.Skills, ", "),
		fIndustryFocus:   strings.Join(p.IndustryFocus, ", "),
		fRole:            p.Role,
		fLookingFor:      p.LookingFor,
		fLocation:        p.Location,
		fExperienceYears: p.ExperienceYears,
		fAvailability:    p.Availability,
		fLinkedInURL:     p.LinkedInURL,
		fCreatedAt:       formatTime(p.CreatedAt),
		fUpdatedAt:       formatTime(p.UpdatedAt),
	}
}

// Upsert looks the profile up by email, then patches or creates it.
func (r *TeamRepo) Upsert(ctx context.Context, p *team.Profile) error {
	existing, err := r.GetByEmail(ctx, p.UserEmail)
	switch {
	case err == nil:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		f := profileFields(p)
		delete(f, fCreatedAt)
		_, err = r.C.update(ctx, r.C.tables.TeamProfiles, p.ID, f)
		return err
	case !errors.Is(err, team.ErrNotFound):
		return err
	}

	recs, err := r.C.create(ctx, r.C.tables.TeamProfiles, []Fields{profileFields(p)})
	if err != nil {
		return err
	}
	if len(recs) != 1 {
		return fmt.Errorf("airtable create team profile: got %d records", len(recs))
	}
	p.ID = recs[0].ID
	return nil
}

func (r *TeamRepo) GetByEmail(ctx context.Context, email string) (*team.Profile, error) {
	recs, err := r.C.list(ctx, r.C.tables.TeamProfiles, listQuery{Formula: Eq(fUserEmail, email), Max: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, team.ErrNotFound
	}
	return profileFromRecord(recs[0]), nil
}

func (r *TeamRepo) Search(ctx context.Context, f team.Filter) ([]*team.Profile, error) {
	recs, err := r.C.list(ctx, r.C.tables.TeamProfiles, listQuery{
		Formula:  teamFormula(f),
		Max:      f.Limit,
		SortBy:   fUpdatedAt,
		SortDesc: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*team.Profile, 0, len(recs))
	for _, rec := range recs {
		out = append(out, profileFromRecord(rec))
	}
	return out, nil
}

func teamFormula(f team.Filter) Formula {
	var skills []Formula
	for _, s := range f.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, Contains(fSkills, s))
		}
	}
	clauses := []Formula{Or(skills...)}
	if f.Industry != "" {
		clauses = append(clauses, Contains(fIndustryFocus, f.Industry))
	}
	if f.Role != "" {
		clauses = append(clauses, Eq(fRole, f.Role))
	}
	if f.Location != "" {
		clauses = append(clauses, Contains(fLocation, f.Location))
	}
	if f.Availability != "" {
		clauses = append(clauses, Eq(fAvailability, f.Availability))
	}
	if f.Search != "" {
		clauses = append(clauses, Or(Contains(fName, f.Search), Contains(fBio, f.Search)))
	}
	if f.ExcludeEmail != "" {
		clauses = append(clauses, NotEq(fUserEmail, f.ExcludeEmail))
	}
	return And(clauses...)
}
