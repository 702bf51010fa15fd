package team

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	"github.com/bryanwahyu/upstarter/internal/application"
	domain "github.com/bryanwahyu/upstarter/internal/domain/team"
	"github.com/bryanwahyu/upstarter/internal/logging"
)

const (
	defaultBrowseLimit = 50
	maxBrowseLimit     = 100
	matchPool          = 200
	defaultMatches     = 10
)

// Service implements team-profile browsing, upsert and co-founder matching.
type Service struct {
	Repo   domain.Repository
	Clock  application.Clock
	Logger *zap.Logger
}

// BrowseQuery is the parsed query string of the browse endpoint.
type BrowseQuery struct {
	UserEmail    string
	Skills       []string
	Industry     string
	Role         string
	Location     string
	Availability string
	Search       string
	ExcludeSelf  bool
	Limit        int
}

func (s *Service) Browse(ctx context.Context, q BrowseQuery) ([]*domain.Profile, error) {
	f := domain.Filter{
		Skills:       cleanList(q.Skills),
		Industry:     strings.TrimSpace(q.Industry),
		Role:         strings.TrimSpace(q.Role),
		Location:     strings.TrimSpace(q.Location),
		Availability: strings.TrimSpace(q.Availability),
		Search:       strings.TrimSpace(q.Search),
		Limit:        clampLimit(q.Limit),
	}
	if q.ExcludeSelf {
		f.ExcludeEmail = q.UserEmail
	}
	list, err := s.Repo.Search(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante la ricerca dei profili", err)
	}
	if list == nil {
		list = []*domain.Profile{}
	}
	return list, nil
}

// Me returns the caller's profile, or nil when none exists yet.
func (s *Service) Me(ctx context.Context, email string) (*domain.Profile, error) {
	p, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento del profilo", err)
	}
	return p, nil
}

// Upsert stores the caller's profile. The email always comes from the session.
func (s *Service) Upsert(ctx context.Context, email string, in domain.Profile) (*domain.Profile, error) {
	p := in
	p.ID = ""
	p.UserEmail = email
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, apperr.Invalid("Il nome è obbligatorio")
	}
	if p.ExperienceYears < 0 {
		return nil, apperr.Invalid("Gli anni di esperienza non possono essere negativi")
	}
	if p.LinkedInURL = strings.TrimSpace(p.LinkedInURL); p.LinkedInURL != "" {
		u, err := url.Parse(p.LinkedInURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperr.Invalid("URL LinkedIn non valido")
		}
	}
	p.Bio = strings.TrimSpace(p.Bio)
	p.Role = strings.TrimSpace(p.Role)
	p.Location = strings.TrimSpace(p.Location)
	p.Availability = strings.TrimSpace(p.Availability)
	p.LookingFor = strings.TrimSpace(p.LookingFor)
	p.Skills = cleanList(p.Skills)
	p.IndustryFocus = cleanList(p.IndustryFocus)
	// timestamps are server-owned; the repository keeps the stored creation time
	p.CreatedAt, p.UpdatedAt = time.Time{}, time.Time{}
	if s.Clock != nil {
		now := s.Clock.Now().UTC()
		p.CreatedAt, p.UpdatedAt = now, now
	}

	if err := s.Repo.Upsert(ctx, &p); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il salvataggio del profilo", err)
	}
	logging.OrNop(s.Logger).Info("team.profile.saved", zap.String("profile_id", p.ID))
	return &p, nil
}

// Matches ranks other profiles against the caller's own.
func (s *Service) Matches(ctx context.Context, email string, limit int) ([]domain.Match, error) {
	me, err := s.Me(ctx, email)
	if err != nil {
		return nil, err
	}
	if me == nil {
		return nil, apperr.New(apperr.KindNotFound, "Crea prima il tuo profilo per ricevere suggerimenti di co-founder")
	}
	candidates, err := s.Repo.Search(ctx, domain.Filter{ExcludeEmail: email, Limit: matchPool})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante la ricerca dei profili", err)
	}
	if limit <= 0 {
		limit = defaultMatches
	}
	return domain.Rank(me, candidates, limit), nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultBrowseLimit
	case n > maxBrowseLimit:
		return maxBrowseLimit
	}
	return n
}

// cleanList trims items, drops empties and dedupes case-insensitively.
func cleanList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
