package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	"github.com/bryanwahyu/upstarter/internal/application"
	"github.com/bryanwahyu/upstarter/internal/domain/ai"
	domain "github.com/bryanwahyu/upstarter/internal/domain/analysis"
	"github.com/bryanwahyu/upstarter/internal/domain/documents"
	"github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/logging"
)

// Strategy selects which engine runs an analysis.
type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyLLM       Strategy = "llm"
	StrategyAuto      Strategy = "auto"
)

// Recorder receives analysis counters. The HTTP layer exposes them on /metrics.
type Recorder interface {
	AnalysisDone(engine string)
	AnalysisFallback()
	StoreWriteFailed(op string)
}

type nopRecorder struct{}

func (nopRecorder) AnalysisDone(string) {}
func (nopRecorder) AnalysisFallback() {}
func (nopRecorder) StoreWriteFailed(string) {}

// Service implements the analyze-document, analyze-idea and regenerate use cases.
// LLM may be nil when no provider is configured.
type Service struct {
	Heuristic domain.Analyzer
	LLM       domain.Analyzer
	Strategy  Strategy

	Projects projects.Repository
	Analyses projects.AnalysisRepository
	Info     projects.AdditionalInfoRepository

	Clock   application.Clock
	Logger  *zap.Logger
	Metrics Recorder
}

func (s *Service) log() *zap.Logger { return logging.OrNop(s.Logger) }

func (s *Service) metrics() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

//
// ==== USE CASES ====
//

// DocumentCommand is an analyze-document request.
type DocumentCommand struct {
	UserEmail string
	FileName  string
	Text      string
}

// IdeaCommand is an analyze-idea request.
type IdeaCommand struct {
	UserEmail string
	Input     domain.IdeaInput
}

// Outcome is what every analysis use case returns. Persistence is always
// filled; the analysis itself succeeds even when the store writes fail.
type Outcome struct {
	Project     *projects.Project          `json:"project"`
	Analysis    *projects.Analysis         `json:"analysis"`
	Result      *domain.Result             `json:"result"`
	Fields      *documents.Fields          `json:"fields,omitempty"`
	Info        []*projects.AdditionalInfo `json:"additional_info,omitempty"`
	Persistence projects.PersistResult     `json:"persistence"`
}

// AnalyzeDocument scans the text for fields, scores it and persists a project,
// one analysis and up to projects.MaxAdditionalInfo follow-up items.
func (s *Service) AnalyzeDocument(ctx context.Context, cmd DocumentCommand) (*Outcome, error) {
	fields, result, err := s.scoreDocument(ctx, cmd)
	if err != nil {
		return nil, err
	}

	now := s.clock().Now().UTC()
	project := &projects.Project{
		UserEmail:   cmd.UserEmail,
		Title:       fields.Title,
		Description: fields.Description,
		Source:      projects.SourceDocument,
		Status:      projects.StatusAnalyzed,
		Score:       result.OverallScore,
		Type:        fields.DocumentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	out := &Outcome{Project: project, Result: result, Fields: &fields}
	out.Info = InfoFromMissing(result.MissingAreas)
	stored := &storedInput{FileName: cmd.FileName, Text: strings.TrimSpace(cmd.Text)}
	out.Analysis, out.Persistence = s.persist(ctx, project, result, stored, out.Info)

	s.log().Info("analysis.document.ok",
		zap.String("project_id", string(project.ID)),
		zap.String("engine", string(result.Engine)),
		zap.Int("score", result.OverallScore),
		zap.String("persistence", string(out.Persistence.Status)))
	return out, nil
}

// Preview scores a document without touching the store.
func (s *Service) Preview(ctx context.Context, cmd DocumentCommand) (*Outcome, error) {
	fields, result, err := s.scoreDocument(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: result, Fields: &fields, Info: InfoFromMissing(result.MissingAreas)}, nil
}

func (s *Service) scoreDocument(ctx context.Context, cmd DocumentCommand) (documents.Fields, *domain.Result, error) {
	text := strings.TrimSpace(cmd.Text)
	if !documents.HasMinimumContent(text) {
		return documents.Fields{}, nil, apperr.New(apperr.KindTooLittleText,
			fmt.Sprintf("Il testo è troppo breve per essere analizzato (minimo %d caratteri).", documents.MinContentLength))
	}

	fields := documents.ExtractFields(text)
	in := domain.DocumentInput{
		FileName:     cmd.FileName,
		Title:        fields.Title,
		Text:         text,
		Sections:     fields.Sections,
		DocumentType: fields.DocumentType,
	}
	result, err := s.analyze(ctx, "document", func(a domain.Analyzer) (*domain.Result, error) {
		return a.AnalyzeDocument(ctx, in)
	})
	if err != nil {
		return documents.Fields{}, nil, err
	}
	return fields, result, nil
}

// AnalyzeIdea scores a questionnaire and persists a project and one analysis.
func (s *Service) AnalyzeIdea(ctx context.Context, cmd IdeaCommand) (*Outcome, error) {
	idea := strings.TrimSpace(cmd.Input.BusinessIdea)
	if idea == "" {
		return nil, apperr.Invalid("La descrizione dell'idea di business è obbligatoria.")
	}

	result, err := s.analyze(ctx, "idea", func(a domain.Analyzer) (*domain.Result, error) {
		return a.AnalyzeIdea(ctx, cmd.Input)
	})
	if err != nil {
		return nil, err
	}

	now := s.clock().Now().UTC()
	project := &projects.Project{
		UserEmail:   cmd.UserEmail,
		Title:       ideaTitle(idea),
		Description: truncate(idea, 400),
		Source:      projects.SourceIdea,
		Status:      projects.StatusAnalyzed,
		Score:       result.OverallScore,
		Type:        "Idea",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	out := &Outcome{Project: project, Result: result}
	input := cmd.Input
	out.Analysis, out.Persistence = s.persist(ctx, project, result, &storedInput{Idea: &input}, nil)

	s.log().Info("analysis.idea.ok",
		zap.String("project_id", string(project.ID)),
		zap.String("engine", string(result.Engine)),
		zap.Int("score", result.OverallScore),
		zap.String("persistence", string(out.Persistence.Status)))
	return out, nil
}

// RegenerateCommand re-runs the analyzer for an existing project. Text is
// optional; when empty the input stored with the latest analysis is replayed.
type RegenerateCommand struct {
	UserEmail string
	ProjectID projects.ProjectID
	Text      string
}

// Regenerate appends a new analysis to an owned project and updates its score.
func (s *Service) Regenerate(ctx context.Context, cmd RegenerateCommand) (*Outcome, error) {
	project, err := OwnedProject(ctx, s.Projects, cmd.UserEmail, cmd.ProjectID)
	if err != nil {
		return nil, err
	}

	in, err := s.regenerateInput(ctx, project, strings.TrimSpace(cmd.Text))
	if err != nil {
		return nil, err
	}
	var result *domain.Result
	if in.Idea != nil {
		idea := *in.Idea
		result, err = s.analyze(ctx, "regenerate", func(a domain.Analyzer) (*domain.Result, error) {
			return a.AnalyzeIdea(ctx, idea)
		})
	} else {
		fields := documents.ExtractFields(in.Text)
		doc := domain.DocumentInput{
			FileName:     in.FileName,
			Title:        project.Title,
			Text:         in.Text,
			Sections:     fields.Sections,
			DocumentType: project.Type,
		}
		result, err = s.analyze(ctx, "regenerate", func(a domain.Analyzer) (*domain.Result, error) {
			return a.AnalyzeDocument(ctx, doc)
		})
	}
	if err != nil {
		return nil, err
	}

	out := &Outcome{Project: project, Result: result}
	out.Persistence.ProjectSaved = true
	a, err := s.newAnalysisRow(project.ID, result, in)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il salvataggio dell'analisi", err)
	}
	out.Analysis = a
	if err := s.Analyses.Create(ctx, a); err != nil {
		s.storeFailed("analysis.create", err, &out.Persistence)
		a.ID = projects.AnalysisID(projects.LocalIDPrefix + uuid.NewString())
	} else {
		out.Persistence.AnalysisSaved = true
	}

	project.Score = result.OverallScore
	project.Status = projects.StatusAnalyzed
	project.UpdatedAt = s.clock().Now().UTC()
	updateErr := s.Projects.Update(ctx, project)
	if updateErr != nil {
		s.storeFailed("project.update", updateErr, &out.Persistence)
	}
	out.Persistence.Finalize()
	if updateErr != nil && out.Persistence.Status == projects.PersistSaved {
		out.Persistence.Status = projects.PersistPartial
	}
	return out, nil
}

// regenerateInput picks what a regenerate run analyzes: the given text, else
// the input kept with the latest analysis. Manual projects without one are
// analyzed from their title and description; other sources need text.
func (s *Service) regenerateInput(ctx context.Context, p *projects.Project, text string) (*storedInput, error) {
	if text != "" {
		if !documents.HasMinimumContent(text) {
			return nil, apperr.New(apperr.KindTooLittleText,
				fmt.Sprintf("Il testo è troppo breve per essere analizzato (minimo %d caratteri).", documents.MinContentLength))
		}
		return &storedInput{Text: text}, nil
	}

	latest, err := s.Analyses.LatestByProject(ctx, p.ID)
	switch {
	case err == nil:
		if in := decodeInput(latest.AnalysisData); in != nil {
			return in, nil
		}
	case !errors.Is(err, projects.ErrNotFound):
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento dell'analisi", err)
	}

	if p.Source == projects.SourceManual {
		return &storedInput{Text: strings.TrimSpace(p.Title + "\n\n" + p.Description)}, nil
	}
	return nil, apperr.Invalid("Il contenuto originale non è disponibile: invia il testo da analizzare.")
}

// analyze applies the strategy. In auto mode an LLM failure is replaced by
// the heuristic result exactly once and the reason is recorded on it.
func (s *Service) analyze(ctx context.Context, kind string, run func(domain.Analyzer) (*domain.Result, error)) (*domain.Result, error) {
	strategy := s.Strategy
	if strategy != StrategyHeuristic && strategy != StrategyLLM {
		strategy = StrategyAuto
	}

	switch {
	case strategy == StrategyHeuristic, strategy == StrategyAuto && s.LLM == nil:
		return s.runEngine(run, s.Heuristic)

	case strategy == StrategyLLM:
		if s.LLM == nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Nessun provider AI configurato", ai.ErrNotConfigured)
		}
		r, err := s.runEngine(run, s.LLM)
		if err != nil {
			if errors.Is(err, ai.ErrQuotaExceeded) {
				return nil, apperr.Wrap(apperr.KindQuota, "Quota del servizio AI esaurita, riprova più tardi", err)
			}
			return nil, apperr.Wrap(apperr.KindInternal, "Errore durante l'analisi AI", err)
		}
		return r, nil
	}

	r, err := s.runEngine(run, s.LLM)
	if err == nil {
		return r, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.metrics().AnalysisFallback()
	s.log().Warn("analysis.llm.fallback", zap.String("kind", kind), zap.Error(err))
	r, herr := s.runEngine(run, s.Heuristic)
	if herr != nil {
		return nil, herr
	}
	r.Engine = domain.EngineHeuristic
	r.FallbackReason = fallbackReason(err)
	return r, nil
}

func (s *Service) runEngine(run func(domain.Analyzer) (*domain.Result, error), a domain.Analyzer) (*domain.Result, error) {
	r, err := run(a)
	if err != nil {
		return nil, err
	}
	s.metrics().AnalysisDone(string(r.Engine))
	return r, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ai.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ai.ErrMalformedOutput):
		return "malformed_output"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "provider_error: " + truncate(err.Error(), 200)
}

// persist writes project, analysis and info once each. When the project write
// fails the project gets a local id and the dependent writes are skipped.
func (s *Service) persist(ctx context.Context, p *projects.Project, r *domain.Result, in *storedInput, info []*projects.AdditionalInfo) (*projects.Analysis, projects.PersistResult) {
	pr := projects.PersistResult{InfoTotal: len(info)}

	if err := s.Projects.Create(ctx, p); err != nil {
		s.storeFailed("project.create", err, &pr)
		p.ID = projects.ProjectID(projects.LocalIDPrefix + uuid.NewString())
	} else {
		pr.ProjectSaved = true
	}

	a, err := s.newAnalysisRow(p.ID, r, in)
	if err != nil {
		pr.Errors = append(pr.Errors, err.Error())
		a = &projects.Analysis{ProjectID: p.ID, OverallScore: r.OverallScore}
	}
	for _, it := range info {
		it.ProjectID = p.ID
	}

	if !pr.ProjectSaved {
		a.ID = projects.AnalysisID(projects.LocalIDPrefix + uuid.NewString())
		pr.Finalize()
		return a, pr
	}

	if err == nil {
		if err := s.Analyses.Create(ctx, a); err != nil {
			s.storeFailed("analysis.create", err, &pr)
			a.ID = projects.AnalysisID(projects.LocalIDPrefix + uuid.NewString())
		} else {
			pr.AnalysisSaved = true
		}
	}

	if len(info) > 0 {
		if err := s.Info.CreateBatch(ctx, info); err != nil {
			s.storeFailed("additional_info.create", err, &pr)
		} else {
			pr.InfoSaved = len(info)
		}
	}
	pr.Finalize()
	return a, pr
}

// storedInput is what an analysis ran on. It is kept in analysis_data next
// to the result so a project can be regenerated from the same input.
type storedInput struct {
	Idea     *domain.IdeaInput `json:"idea,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	Text     string            `json:"text,omitempty"`
}

// maxStoredText bounds the document text kept with an analysis.
const maxStoredText = 60_000

type analysisRecord struct {
	*domain.Result
	Input *storedInput `json:"input,omitempty"`
}

func decodeInput(data string) *storedInput {
	var rec analysisRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil || rec.Input == nil {
		return nil
	}
	if rec.Input.Idea == nil && strings.TrimSpace(rec.Input.Text) == "" {
		return nil
	}
	return rec.Input
}

func (s *Service) newAnalysisRow(id projects.ProjectID, r *domain.Result, in *storedInput) (*projects.Analysis, error) {
	if in != nil && in.Idea == nil && utf8.RuneCountInString(in.Text) > maxStoredText {
		in = &storedInput{FileName: in.FileName, Text: string([]rune(in.Text)[:maxStoredText])}
	}
	data, err := json.Marshal(analysisRecord{Result: r, Input: in})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return &projects.Analysis{
		ProjectID:         id,
		OverallScore:      r.OverallScore,
		AnalysisData:      string(data),
		MissingAreas:      r.MissingAreas,
		CompletenessScore: r.CompletenessScore,
		Engine:            string(r.Engine),
		CreatedAt:         s.clock().Now().UTC(),
	}, nil
}

func (s *Service) storeFailed(op string, err error, pr *projects.PersistResult) {
	s.metrics().StoreWriteFailed(op)
	s.log().Warn("analysis.store.failed", zap.String("op", op), zap.Error(err))
	pr.Errors = append(pr.Errors, op+": "+err.Error())
}

// InfoFromMissing turns missing areas into follow-up requests, first ones
// first, capped at projects.MaxAdditionalInfo.
func InfoFromMissing(missing []string) []*projects.AdditionalInfo {
	n := min(len(missing), projects.MaxAdditionalInfo)
	out := make([]*projects.AdditionalInfo, 0, n)
	for i, area := range missing[:n] {
		prio := projects.PriorityMedium
		switch {
		case i < 2:
			prio = projects.PriorityHigh
		case i >= 4:
			prio = projects.PriorityLow
		}
		out = append(out, &projects.AdditionalInfo{
			Category:     area,
			Content:      fmt.Sprintf("Fornisci maggiori dettagli sull'area \"%s\".", area),
			Priority:     prio,
			StepRequired: prio == projects.PriorityHigh,
		})
	}
	return out
}

// OwnedProject loads a project and checks it belongs to email. Local ids
// never resolve.
func OwnedProject(ctx context.Context, repo projects.Repository, email string, id projects.ProjectID) (*projects.Project, error) {
	if id == "" {
		return nil, apperr.Invalid("ID progetto mancante")
	}
	if id.IsLocal() {
		return nil, apperr.New(apperr.KindNotFound, "Progetto non trovato")
	}
	p, err := repo.Get(ctx, id)
	if errors.Is(err, projects.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, "Progetto non trovato", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante il caricamento del progetto", err)
	}
	if !strings.EqualFold(p.UserEmail, email) {
		return nil, apperr.New(apperr.KindForbidden, "Non hai accesso a questo progetto")
	}
	return p, nil
}

func ideaTitle(idea string) string {
	line := idea
	if i := strings.IndexAny(line, ".\n"); i > 0 {
		line = line[:i]
	}
	return truncate(strings.TrimSpace(line), 80)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
