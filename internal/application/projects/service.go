package projects

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	"github.com/bryanwahyu/upstarter/internal/application"
	"github.com/bryanwahyu/upstarter/internal/application/analysis"
	domain "github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/logging"
)

const (
	maxTitleRunes       = 200
	maxDescriptionRunes = 5000
	defaultListLimit    = 100
)

// Service implements project CRUD scoped to the session user.
type Service struct {
	Repo     domain.Repository
	Analyses domain.AnalysisRepository
	Info     domain.AdditionalInfoRepository
	Clock    application.Clock
	Logger   *zap.Logger
}

func (s *Service) now() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// CreateCommand creates a manual project.
type CreateCommand struct {
	UserEmail   string
	Title       string
	Description string
	Type        string
}

// UpdateCommand changes the mutable fields; nil pointers are left as is.
type UpdateCommand struct {
	UserEmail   string
	ID          domain.ProjectID
	Title       *string
	Description *string
	Status      *domain.Status
	Type        *string
}

// Detail is a project with its analyses (newest first) and follow-up items.
type Detail struct {
	*domain.Project
	Analyses       []*domain.Analysis       `json:"analyses"`
	AdditionalInfo []*domain.AdditionalInfo `json:"additional_info"`
}

func (s *Service) List(ctx context.Context, email string) ([]*domain.Project, error) {
	list, err := s.Repo.ListByUser(ctx, email, defaultListLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento dei progetti", err)
	}
	if list == nil {
		list = []*domain.Project{}
	}
	return list, nil
}

// Get returns an owned project with its analyses and additional info.
func (s *Service) Get(ctx context.Context, email string, id domain.ProjectID) (*Detail, error) {
	p, err := analysis.OwnedProject(ctx, s.Repo, email, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Project: p, Analyses: []*domain.Analysis{}, AdditionalInfo: []*domain.AdditionalInfo{}}
	if s.Analyses != nil {
		list, err := s.Analyses.ListByProject(ctx, id, 0)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento delle analisi", err)
		}
		if list != nil {
			d.Analyses = list
		}
	}
	if s.Info != nil {
		info, err := s.Info.ListByProject(ctx, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento delle informazioni aggiuntive", err)
		}
		if info != nil {
			d.AdditionalInfo = info
		}
	}
	return d, nil
}

// ListAnalyses returns the analyses of an owned project.
func (s *Service) ListAnalyses(ctx context.Context, email string, id domain.ProjectID) ([]*domain.Analysis, error) {
	if _, err := analysis.OwnedProject(ctx, s.Repo, email, id); err != nil {
		return nil, err
	}
	list, err := s.Analyses.ListByProject(ctx, id, 0)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento delle analisi", err)
	}
	if list == nil {
		list = []*domain.Analysis{}
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Project, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, apperr.Invalid("Il titolo del progetto è obbligatorio")
	}
	if err := checkLengths(title, cmd.Description); err != nil {
		return nil, err
	}
	now := s.now().Now().UTC()
	p := &domain.Project{
		UserEmail:   cmd.UserEmail,
		Title:       title,
		Description: strings.TrimSpace(cmd.Description),
		Source:      domain.SourceManual,
		Status:      domain.StatusDraft,
		Type:        strings.TrimSpace(cmd.Type),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante la creazione del progetto", err)
	}
	logging.OrNop(s.Logger).Info("project.created", zap.String("project_id", string(p.ID)))
	return p, nil
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*domain.Project, error) {
	p, err := analysis.OwnedProject(ctx, s.Repo, cmd.UserEmail, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Title != nil {
		t := strings.TrimSpace(*cmd.Title)
		if t == "" {
			return nil, apperr.Invalid("Il titolo del progetto non può essere vuoto")
		}
		p.Title = t
	}
	if cmd.Description != nil {
		p.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.Status != nil {
		if !cmd.Status.Valid() {
			return nil, apperr.Invalid("Stato %q non valido", *cmd.Status)
		}
		p.Status = *cmd.Status
	}
	if cmd.Type != nil {
		p.Type = strings.TrimSpace(*cmd.Type)
	}
	if err := checkLengths(p.Title, p.Description); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().Now().UTC()
	if err := s.Repo.Update(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "Progetto non trovato", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante l'aggiornamento del progetto", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, email string, id domain.ProjectID) error {
	if _, err := analysis.OwnedProject(ctx, s.Repo, email, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperr.Wrap(apperr.KindNotFound, "Progetto non trovato", err)
		}
		return apperr.Wrap(apperr.KindInternal, "Errore durante l'eliminazione del progetto", err)
	}
	logging.OrNop(s.Logger).Info("project.deleted", zap.String("project_id", string(id)))
	return nil
}

func checkLengths(title, desc string) error {
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return apperr.Invalid("Il titolo non può superare %d caratteri", maxTitleRunes)
	}
	if utf8.RuneCountInString(desc) > maxDescriptionRunes {
		return apperr.Invalid("La descrizione non può superare %d caratteri", maxDescriptionRunes)
	}
	return nil
}
