package pitchdeck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	"github.com/bryanwahyu/upstarter/internal/application"
	appanalysis "github.com/bryanwahyu/upstarter/internal/application/analysis"
	"github.com/bryanwahyu/upstarter/internal/domain/analysis"
	domain "github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
	"github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/logging"
)

// Service keeps one pitch deck per user.
type Service struct {
	Store    domain.Store
	Projects projects.Repository
	Analyses projects.AnalysisRepository
	Render   func(*domain.Deck) ([]byte, error)
	Clock    application.Clock
	Logger   *zap.Logger
}

// Get returns the saved deck, or the default template when none exists.
func (s *Service) Get(ctx context.Context, email string) (*domain.Deck, error) {
	d, err := s.Store.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewDefault(email), nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento della presentazione", err)
	}
	return d, nil
}

func (s *Service) Save(ctx context.Context, email string, d *domain.Deck) (*domain.Deck, error) {
	if d == nil {
		return nil, apperr.Invalid("Presentazione mancante")
	}
	d.UserEmail = email
	d.CompanyName = strings.TrimSpace(d.CompanyName)
	d.Tagline = strings.TrimSpace(d.Tagline)
	for i := range d.Slides {
		if strings.TrimSpace(d.Slides[i].Title) == "" {
			d.Slides[i].Title = domain.DefaultTitle(d.Slides[i].Kind)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, err.Error(), err)
	}
	if s.Clock != nil {
		d.UpdatedAt = s.Clock.Now().UTC()
	}
	if err := s.Store.Save(ctx, d); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il salvataggio della presentazione", err)
	}
	logging.OrNop(s.Logger).Info("pitchdeck.saved", zap.Int("slides", len(d.Slides)))
	return d, nil
}

// PDF renders the caller's current deck.
func (s *Service) PDF(ctx context.Context, email string) ([]byte, error) {
	d, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	b, err := s.Render(d)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante la generazione del PDF", err)
	}
	return b, nil
}

// FromProject prefills the deck from an owned project and its latest
// analysis, then saves it. Slides the analysis says nothing about keep the
// content of the current deck.
func (s *Service) FromProject(ctx context.Context, email string, id projects.ProjectID) (*domain.Deck, error) {
	p, err := appanalysis.OwnedProject(ctx, s.Projects, email, id)
	if err != nil {
		return nil, err
	}
	var r analysis.Result
	latest, err := s.Analyses.LatestByProject(ctx, id)
	switch {
	case err == nil:
		if jerr := json.Unmarshal([]byte(latest.AnalysisData), &r); jerr != nil {
			logging.OrNop(s.Logger).Warn("pitchdeck.analysis.decode", zap.String("project_id", string(id)), zap.Error(jerr))
		}
	case !errors.Is(err, projects.ErrNotFound):
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento dell'analisi", err)
	}

	d, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	Prefill(d, p, &r)
	return s.Save(ctx, email, d)
}

// Prefill writes project and analysis content into the matching slides.
func Prefill(d *domain.Deck, p *projects.Project, r *analysis.Result) {
	d.CompanyName = truncate(p.Title, 120)
	d.Tagline = truncate(firstSentence(p.Description), 120)

	content := map[domain.SlideKind]string{
		domain.SlideProblem:     p.Description,
		domain.SlideMarket:      r.MarketAnalysis,
		domain.SlideCompetition: r.CompetitiveAnalysis,
		domain.SlideTraction:    bullets(r.Strengths),
		domain.SlideAsk:         bullets(r.NextSteps),
	}
	if r.Valuation.Max > 0 {
		content[domain.SlideFinancials] = fmt.Sprintf("Valutazione pre-money stimata (%s): %d - %d %s",
			r.Valuation.Method, r.Valuation.Min, r.Valuation.Max, r.Valuation.Currency)
	}

	seen := map[domain.SlideKind]bool{}
	for i := range d.Slides {
		seen[d.Slides[i].Kind] = true
		if c := strings.TrimSpace(content[d.Slides[i].Kind]); c != "" {
			d.Slides[i].Content = truncate(c, 2000)
		}
	}
	for _, k := range domain.DefaultKinds {
		if c := strings.TrimSpace(content[k]); c != "" && !seen[k] {
			d.Slides = append(d.Slides, domain.Slide{Kind: k, Title: domain.DefaultTitle(k), Content: truncate(c, 2000)})
		}
	}
}

func bullets(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(it))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".\n"); i > 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
