package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	"github.com/bryanwahyu/upstarter/internal/application"
	"github.com/bryanwahyu/upstarter/internal/domain/ai"
	domain "github.com/bryanwahyu/upstarter/internal/domain/analysis"
	"github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/infra/ai/heuristic"
)

var now = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type memStore struct {
	mu       sync.Mutex
	projects map[projects.ProjectID]*projects.Project
	analyses map[projects.AnalysisID]*projects.Analysis
	order    []projects.AnalysisID
	info     []*projects.AdditionalInfo

	failProject  bool
	failAnalysis bool
	failInfo     bool
	failUpdate   bool
}

func newMemStore() *memStore {
	return &memStore{
		projects: map[projects.ProjectID]*projects.Project{},
		analyses: map[projects.AnalysisID]*projects.Analysis{},
	}
}

var errStore = errors.New("store unavailable")

type projectRepo struct{ *memStore }

func (r projectRepo) Create(_ context.Context, p *projects.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failProject {
		return errStore
	}
	p.ID = projects.ProjectID("rec" + uuid.NewString()[:8])
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r projectRepo) Get(_ context.Context, id projects.ProjectID) (*projects.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r projectRepo) ListByUser(_ context.Context, email string, _ int) ([]*projects.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*projects.Project
	for _, p := range r.projects {
		if p.UserEmail == email {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r projectRepo) Update(_ context.Context, p *projects.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return errStore
	}
	if _, ok := r.projects[p.ID]; !ok {
		return projects.ErrNotFound
	}
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r projectRepo) Delete(_ context.Context, id projects.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

type analysisRepo struct{ *memStore }

func (r analysisRepo) Create(_ context.Context, a *projects.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAnalysis {
		return errStore
	}
	a.ID = projects.AnalysisID(uuid.NewString())
	cp := *a
	r.analyses[a.ID] = &cp
	r.order = append(r.order, a.ID)
	return nil
}

func (r analysisRepo) Get(_ context.Context, id projects.AnalysisID) (*projects.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.analyses[id]
	if !ok {
		return nil, projects.ErrNotFound
	}
	return a, nil
}

func (r analysisRepo) ListByProject(_ context.Context, id projects.ProjectID, _ int) ([]*projects.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// newest first
	var out []*projects.Analysis
	for i := len(r.order) - 1; i >= 0; i-- {
		if a := r.analyses[r.order[i]]; a.ProjectID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r analysisRepo) LatestByProject(ctx context.Context, id projects.ProjectID) (*projects.Analysis, error) {
	list, _ := r.ListByProject(ctx, id, 0)
	if len(list) == 0 {
		return nil, projects.ErrNotFound
	}
	return list[0], nil
}

type infoRepo struct{ *memStore }

func (r infoRepo) CreateBatch(_ context.Context, items []*projects.AdditionalInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInfo {
		return errStore
	}
	r.info = append(r.info, items...)
	return nil
}

func (r infoRepo) ListByProject(_ context.Context, id projects.ProjectID) ([]*projects.AdditionalInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*projects.AdditionalInfo
	for _, it := range r.info {
		if it.ProjectID == id {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeLLM struct {
	calls int
	err   error
}

func (f *fakeLLM) AnalyzeIdea(context.Context, domain.IdeaInput) (*domain.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Result{OverallScore: 77, Engine: domain.EngineOpenAI, Summary: "llm"}, nil
}

func (f *fakeLLM) AnalyzeDocument(ctx context.Context, _ domain.DocumentInput) (*domain.Result, error) {
	return f.AnalyzeIdea(ctx, domain.IdeaInput{})
}

type counter struct {
	done      map[string]int
	fallbacks int
	failures  []string
}

func (c *counter) AnalysisDone(engine string) { c.done[engine]++ }
func (c *counter) AnalysisFallback() { c.fallbacks++ }
func (c *counter) StoreWriteFailed(op string) { c.failures = append(c.failures, op) }

func newService(t *testing.T, st *memStore, llm domain.Analyzer, strategy Strategy) (*Service, *counter) {
	c := &counter{done: map[string]int{}}
	return &Service{
		Heuristic: heuristic.New(func() time.Time { return now }),
		LLM:       llm,
		Strategy:  strategy,
		Projects:  projectRepo{st},
		Analyses:  analysisRepo{st},
		Info:      infoRepo{st},
		Clock:     application.FixedClock{T: now},
		Logger:    zaptest.NewLogger(t),
		Metrics:   c,
	}, c
}

const docText = `Business Plan GreenBox
Problema
Le famiglie sprecano cibo ogni settimana senza accorgersene davvero.
Soluzione
Una piattaforma che suggerisce ricette con gli avanzi del frigorifero.
Team
Due fondatori con esperienza nel food delivery.`

func TestAnalyzeDocument_TooLittleText(t *testing.T) {
	svc, _ := newService(t, newMemStore(), nil, StrategyHeuristic)
	_, err := svc.AnalyzeDocument(context.Background(), DocumentCommand{UserEmail: "a@b.it", Text: "   troppo corto   "})
	require.Error(t, err)
	assert.Equal(t, apperr.KindTooLittleText, apperr.KindOf(err))
}

func TestAnalyzeDocument_PersistsAndReadsBack(t *testing.T) {
	st := newMemStore()
	svc, _ := newService(t, st, nil, StrategyHeuristic)

	out, err := svc.AnalyzeDocument(context.Background(), DocumentCommand{UserEmail: "a@b.it", FileName: "plan.txt", Text: docText})
	require.NoError(t, err)

	assert.Equal(t, projects.PersistSaved, out.Persistence.Status)
	assert.True(t, out.Persistence.Saved())
	assert.False(t, out.Project.ID.IsLocal())
	assert.Equal(t, "Business Plan", out.Project.Type)

	got, err := OwnedProject(context.Background(), svc.Projects, "a@b.it", out.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Project.ID, got.ID)
	assert.Equal(t, out.Result.OverallScore, got.Score)

	latest, err := svc.Analyses.LatestByProject(context.Background(), out.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Analysis.ID, latest.ID)
	var decoded domain.Result
	require.NoError(t, json.Unmarshal([]byte(latest.AnalysisData), &decoded))
	assert.Equal(t, out.Result.OverallScore, decoded.OverallScore)

	info, err := svc.Info.ListByProject(context.Background(), out.Project.ID)
	require.NoError(t, err)
	assert.Len(t, info, min(len(out.Result.MissingAreas), projects.MaxAdditionalInfo))
	assert.Equal(t, len(info), out.Persistence.InfoTotal)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	st := newMemStore()
	svc, c := newService(t, st, nil, StrategyHeuristic)

	out, err := svc.Preview(context.Background(), DocumentCommand{FileName: "plan.txt", Text: docText})
	require.NoError(t, err)
	assert.Nil(t, out.Project)
	assert.Equal(t, "Business Plan", out.Fields.DocumentType)
	assert.NotEmpty(t, out.Info)
	assert.Empty(t, st.projects)
	assert.Empty(t, st.analyses)
	assert.Equal(t, 1, c.done["heuristic"])
}

func TestAnalyzeDocument_ProjectWriteFails(t *testing.T) {
	st := newMemStore()
	st.failProject = true
	svc, c := newService(t, st, nil, StrategyHeuristic)

	out, err := svc.AnalyzeDocument(context.Background(), DocumentCommand{UserEmail: "a@b.it", Text: docText})
	require.NoError(t, err, "the user still gets a result")

	assert.Equal(t, projects.PersistFailed, out.Persistence.Status)
	assert.False(t, out.Persistence.Saved())
	assert.True(t, out.Project.ID.IsLocal())
	assert.True(t, out.Analysis.ID.IsLocal())
	assert.Equal(t, []string{"project.create"}, c.failures)
	assert.Empty(t, st.analyses, "dependent writes are skipped")
	assert.Empty(t, st.info)

	// the local id has no row behind it
	_, err = OwnedProject(context.Background(), svc.Projects, "a@b.it", out.Project.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.Projects.Get(context.Background(), out.Project.ID)
	assert.ErrorIs(t, err, projects.ErrNotFound)
}

func TestAnalyzeDocument_PartialWrites(t *testing.T) {
	st := newMemStore()
	st.failInfo = true
	svc, _ := newService(t, st, nil, StrategyHeuristic)

	out, err := svc.AnalyzeDocument(context.Background(), DocumentCommand{UserEmail: "a@b.it", Text: docText})
	require.NoError(t, err)
	assert.Equal(t, projects.PersistPartial, out.Persistence.Status)
	assert.True(t, out.Persistence.ProjectSaved)
	assert.True(t, out.Persistence.AnalysisSaved)
	assert.Zero(t, out.Persistence.InfoSaved)
	require.Len(t, out.Persistence.Errors, 1)
	assert.True(t, strings.HasPrefix(out.Persistence.Errors[0], "additional_info.create"))
}

func TestAnalyzeIdea_AllDefaults(t *testing.T) {
	svc, _ := newService(t, newMemStore(), nil, StrategyAuto)
	in := domain.IdeaInput{BusinessIdea: "X", TargetMarket: "Da definire"}

	first, err := svc.AnalyzeIdea(context.Background(), IdeaCommand{UserEmail: "a@b.it", Input: in})
	require.NoError(t, err)
	second, err := svc.AnalyzeIdea(context.Background(), IdeaCommand{UserEmail: "a@b.it", Input: in})
	require.NoError(t, err)

	assert.Equal(t, heuristic.AllEmptyScore, first.Result.OverallScore)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, domain.EngineHeuristic, first.Result.Engine)
	assert.Equal(t, projects.SourceIdea, first.Project.Source)
	assert.Equal(t, "X", first.Project.Title)
}

func TestAnalyzeIdea_RequiresIdea(t *testing.T) {
	svc, _ := newService(t, newMemStore(), nil, StrategyHeuristic)
	_, err := svc.AnalyzeIdea(context.Background(), IdeaCommand{UserEmail: "a@b.it", Input: domain.IdeaInput{BusinessIdea: "  "}})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestStrategy(t *testing.T) {
	in := IdeaCommand{UserEmail: "a@b.it", Input: domain.IdeaInput{BusinessIdea: "Idea"}}

	t.Run("auto uses llm", func(t *testing.T) {
		llm := &fakeLLM{}
		svc, c := newService(t, newMemStore(), llm, StrategyAuto)
		out, err := svc.AnalyzeIdea(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, 77, out.Result.OverallScore)
		assert.Equal(t, 1, c.done["openai"])
	})

	t.Run("auto falls back once", func(t *testing.T) {
		llm := &fakeLLM{err: ai.ErrMalformedOutput}
		svc, c := newService(t, newMemStore(), llm, StrategyAuto)
		out, err := svc.AnalyzeIdea(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, 1, llm.calls)
		assert.Equal(t, 1, c.fallbacks)
		assert.Equal(t, domain.EngineHeuristic, out.Result.Engine)
		assert.Equal(t, "malformed_output", out.Result.FallbackReason)
		assert.Equal(t, "heuristic", out.Analysis.Engine)
	})

	t.Run("llm surfaces quota", func(t *testing.T) {
		svc, _ := newService(t, newMemStore(), &fakeLLM{err: ai.ErrQuotaExceeded}, StrategyLLM)
		_, err := svc.AnalyzeIdea(context.Background(), in)
		assert.Equal(t, apperr.KindQuota, apperr.KindOf(err))
	})

	t.Run("llm without provider", func(t *testing.T) {
		svc, _ := newService(t, newMemStore(), nil, StrategyLLM)
		_, err := svc.AnalyzeIdea(context.Background(), in)
		assert.ErrorIs(t, err, ai.ErrNotConfigured)
	})

	t.Run("heuristic ignores llm", func(t *testing.T) {
		llm := &fakeLLM{}
		svc, _ := newService(t, newMemStore(), llm, StrategyHeuristic)
		_, err := svc.AnalyzeIdea(context.Background(), in)
		require.NoError(t, err)
		assert.Zero(t, llm.calls)
	})
}

func TestRegenerate(t *testing.T) {
	st := newMemStore()
	svc, _ := newService(t, st, nil, StrategyHeuristic)
	ctx := context.Background()

	first, err := svc.AnalyzeDocument(ctx, DocumentCommand{UserEmail: "a@b.it", Text: docText})
	require.NoError(t, err)

	again, err := svc.Regenerate(ctx, RegenerateCommand{UserEmail: "a@b.it", ProjectID: first.Project.ID, Text: docText + "\nMercato: 3 milioni di famiglie italiane, TAM 2 miliardi."})
	require.NoError(t, err)
	assert.Equal(t, projects.PersistSaved, again.Persistence.Status)
	assert.NotEqual(t, first.Analysis.ID, again.Analysis.ID)
	assert.Greater(t, again.Result.OverallScore, first.Result.OverallScore)

	list, err := svc.Analyses.ListByProject(ctx, first.Project.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	stored, err := svc.Projects.Get(ctx, first.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, again.Result.OverallScore, stored.Score)

	_, err = svc.Regenerate(ctx, RegenerateCommand{UserEmail: "other@b.it", ProjectID: first.Project.ID})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	st.failUpdate = true
	partial, err := svc.Regenerate(ctx, RegenerateCommand{UserEmail: "a@b.it", ProjectID: first.Project.ID})
	require.NoError(t, err)
	assert.Equal(t, projects.PersistPartial, partial.Persistence.Status)
	assert.Equal(t, again.Result.OverallScore, partial.Result.OverallScore, "replays the latest input")
}

func TestRegenerate_ReplaysStoredInput(t *testing.T) {
	st := newMemStore()
	svc, _ := newService(t, st, nil, StrategyHeuristic)
	ctx := context.Background()

	idea := domain.IdeaInput{
		BusinessIdea:         "Piattaforma che collega artigiani locali con clienti in cerca di riparazioni su misura.",
		TargetMarket:         "Famiglie e piccoli negozi nelle città italiane",
		BusinessModel:        "Commissione del 12% su ogni lavoro prenotato",
		TeamSize:             "3",
		TeamExperience:       "Due fondatori con esperienza in marketplace",
		CompetitiveAdvantage: "Rete di artigiani verificati e preventivi in 24 ore",
		FundingNeeds:         "250000",
		Timeline:             "12 mesi",
	}
	first, err := svc.AnalyzeIdea(ctx, IdeaCommand{UserEmail: "a@b.it", Input: idea})
	require.NoError(t, err)
	require.Greater(t, first.Result.OverallScore, heuristic.AllEmptyScore)

	again, err := svc.Regenerate(ctx, RegenerateCommand{UserEmail: "a@b.it", ProjectID: first.Project.ID})
	require.NoError(t, err)
	assert.Equal(t, first.Result.OverallScore, again.Result.OverallScore)
	stored, err := svc.Projects.Get(ctx, first.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Result.OverallScore, stored.Score)

	doc, err := svc.AnalyzeDocument(ctx, DocumentCommand{UserEmail: "a@b.it", FileName: "greenbox.txt", Text: docText})
	require.NoError(t, err)
	redoc, err := svc.Regenerate(ctx, RegenerateCommand{UserEmail: "a@b.it", ProjectID: doc.Project.ID})
	require.NoError(t, err)
	assert.Equal(t, doc.Result.OverallScore, redoc.Result.OverallScore)
}

func TestRegenerate_WithoutStoredInput(t *testing.T) {
	st := newMemStore()
	svc, _ := newService(t, st, nil, StrategyHeuristic)
	ctx := context.Background()

	legacy := &projects.Project{UserEmail: "a@b.it", Title: "Vecchia idea", Description: "Descrizione breve", Source: projects.SourceIdea}
	require.NoError(t, svc.Projects.Create(ctx, legacy))
	require.NoError(t, svc.Analyses.Create(ctx, &projects.Analysis{ProjectID: legacy.ID, OverallScore: 70, AnalysisData: `{"overall_score":70}`}))

	_, err := svc.Regenerate(ctx, RegenerateCommand{UserEmail: "a@b.it", ProjectID: legacy.ID})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	stored, err := svc.Projects.Get(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Score, "score untouched")

	manual := &projects.Project{UserEmail: "a@b.it", Title: "Progetto manuale", Description: "Un servizio di consegne in bicicletta per i negozi di quartiere.", Source: projects.SourceManual}
	require.NoError(t, svc.Projects.Create(ctx, manual))
	out, err := svc.Regenerate(ctx, RegenerateCommand{UserEmail: "a@b.it", ProjectID: manual.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.EngineHeuristic, out.Result.Engine)
}

func TestAnalysisData_KeepsResultShape(t *testing.T) {
	svc, _ := newService(t, newMemStore(), nil, StrategyHeuristic)
	out, err := svc.AnalyzeDocument(context.Background(), DocumentCommand{UserEmail: "a@b.it", FileName: "greenbox.txt", Text: docText})
	require.NoError(t, err)

	var r domain.Result
	require.NoError(t, json.Unmarshal([]byte(out.Analysis.AnalysisData), &r))
	assert.Equal(t, out.Result.OverallScore, r.OverallScore)

	in := decodeInput(out.Analysis.AnalysisData)
	require.NotNil(t, in)
	assert.Equal(t, "greenbox.txt", in.FileName)
	assert.Equal(t, strings.TrimSpace(docText), in.Text)
}

func TestInfoFromMissing(t *testing.T) {
	items := InfoFromMissing([]string{"a", "b", "c", "d", "e", "f", "g"})
	require.Len(t, items, projects.MaxAdditionalInfo)
	assert.Equal(t, projects.PriorityHigh, items[0].Priority)
	assert.True(t, items[1].StepRequired)
	assert.Equal(t, projects.PriorityMedium, items[2].Priority)
	assert.Equal(t, projects.PriorityLow, items[4].Priority)
	assert.Empty(t, InfoFromMissing(nil))
}
