package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/application"
	appanalysis "github.com/bryanwahyu/upstarter/internal/application/analysis"
	appdocuments "github.com/bryanwahyu/upstarter/internal/application/documents"
	appfinance "github.com/bryanwahyu/upstarter/internal/application/finance"
	apppitchdeck "github.com/bryanwahyu/upstarter/internal/application/pitchdeck"
	appprojects "github.com/bryanwahyu/upstarter/internal/application/projects"
	appteam "github.com/bryanwahyu/upstarter/internal/application/team"
	"github.com/bryanwahyu/upstarter/internal/config"
	"github.com/bryanwahyu/upstarter/internal/domain/ai"
	"github.com/bryanwahyu/upstarter/internal/domain/documents"
	"github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
	"github.com/bryanwahyu/upstarter/internal/domain/projects"
	"github.com/bryanwahyu/upstarter/internal/domain/team"
	"github.com/bryanwahyu/upstarter/internal/infra/ai/gemini"
	"github.com/bryanwahyu/upstarter/internal/infra/ai/heuristic"
	"github.com/bryanwahyu/upstarter/internal/infra/ai/llm"
	"github.com/bryanwahyu/upstarter/internal/infra/ai/openai"
	"github.com/bryanwahyu/upstarter/internal/infra/db/airtable"
	"github.com/bryanwahyu/upstarter/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/upstarter/internal/infra/extract"
	"github.com/bryanwahyu/upstarter/internal/infra/httpserver"
	"github.com/bryanwahyu/upstarter/internal/infra/render"
	"github.com/bryanwahyu/upstarter/internal/infra/storage"
	"github.com/bryanwahyu/upstarter/internal/middleware"
)

// stores bundles the repositories of the configured store driver.
type stores struct {
	projects projects.Repository
	analyses projects.AnalysisRepository
	info     projects.AdditionalInfoRepository
	team     team.Repository
	check    middleware.HealthChecker
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == "airtable" {
		c := airtable.New(airtable.Options{
			BaseURL: cfg.Airtable.BaseURL,
			APIKey:  cfg.Airtable.APIKey,
			BaseID:  cfg.Airtable.BaseID,
			Timeout: cfg.Airtable.Timeout,
			Tables: airtable.Tables{
				Projects:       cfg.Airtable.Tables.Projects,
				Analyses:       cfg.Airtable.Tables.Analyses,
				AdditionalInfo: cfg.Airtable.Tables.AdditionalInfo,
				TeamProfiles:   cfg.Airtable.Tables.TeamProfiles,
			},
		})
		return &stores{
			projects: airtable.NewProjectRepo(c),
			analyses: airtable.NewAnalysisRepo(c),
			info:     airtable.NewInfoRepo(c),
			team:     airtable.NewTeamRepo(c),
			check:    c,
			close:    func() error { return nil },
		}, nil
	}

	db, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", cfg.Store.Driver, err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s migrate: %w", cfg.Store.Driver, err)
	}
	return &stores{
		projects: sqlstore.NewProjectRepository(db),
		analyses: sqlstore.NewAnalysisRepository(db),
		info:     sqlstore.NewInfoRepository(db),
		team:     sqlstore.NewTeamRepository(db),
		check:    db,
		close:    db.Close,
	}, nil
}

// aiClient returns nil when no provider is configured.
func aiClient(ctx context.Context, cfg *config.Config) (ai.Client, error) {
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.APIKey == "" {
			return nil, fmt.Errorf("ai.provider openai requires OPENAI_API_KEY")
		}
		return openai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, cfg.AI.MaxTokens), nil
	case "gemini":
		if cfg.AI.APIKey == "" {
			return nil, fmt.Errorf("ai.provider gemini requires GEMINI_API_KEY")
		}
		c, err := gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, cfg.AI.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini init: %w", err)
		}
		return c, nil
	}
	return nil, nil
}

// analysisService builds the analyzer pair. Repositories may be left nil by
// callers that only use Preview.
func analysisService(ctx context.Context, cfg *config.Config, logger *zap.Logger, clock application.Clock) (*appanalysis.Service, error) {
	svc := &appanalysis.Service{
		Heuristic: heuristic.New(clock.Now),
		Strategy:  appanalysis.Strategy(cfg.AI.Strategy),
		Clock:     clock,
		Logger:    logger,
		Metrics:   middleware.AnalysisRecorder{},
	}
	client, err := aiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client != nil {
		a := llm.New(client, logger, clock.Now)
		a.Timeout = cfg.AI.Timeout
		svc.LLM = a
	}
	return svc, nil
}

// app is the fully wired HTTP surface plus what has to be released on exit.
type app struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	stores  *stores
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	clock := application.SystemClock{}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	health := map[string]middleware.HealthChecker{"store": st.check}

	var (
		archive documents.ArchiveStore
		decks   pitchdeck.Store = storage.NewMemoryDeckStore()
	)
	if cfg.Minio.Enabled {
		obj, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			_ = st.close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		archive = obj
		decks = storage.NewDeckStore(obj)
		health["object_store"] = obj
	}

	analysisSvc, err := analysisService(ctx, cfg, logger, clock)
	if err != nil {
		_ = st.close()
		return nil, err
	}
	analysisSvc.Projects = st.projects
	analysisSvc.Analyses = st.analyses
	analysisSvc.Info = st.info

	var verifier middleware.SessionVerifier = middleware.StaticVerifier(cfg.Tokens())
	if cfg.Auth.Mode == "remote" {
		verifier = middleware.NewRemoteVerifier(cfg.Auth.ProviderURL, 5*time.Second)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis: analysisSvc,
		Projects: &appprojects.Service{
			Repo:     st.projects,
			Analyses: st.analyses,
			Info:     st.info,
			Clock:    clock,
			Logger:   logger,
		},
		Team: &appteam.Service{Repo: st.team, Clock: clock, Logger: logger},
		Documents: &appdocuments.Service{
			Extractor:   extract.New(),
			Archive:     archive,
			ContentType: extract.ContentType,
			Logger:      logger,
		},
		PitchDeck: &apppitchdeck.Service{
			Store:    decks,
			Projects: st.projects,
			Analyses: st.analyses,
			Render:   render.DeckPDF,
			Clock:    clock,
			Logger:   logger,
		},
		Finance:        &appfinance.Service{Render: render.ProjectionXLSX},
		Verifier:       verifier,
		Limiter:        limiter,
		Health:         health,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Logger:         logger,
	})

	logger.Info("app.wired",
		zap.String("store", cfg.Store.Driver),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_strategy", cfg.AI.Strategy),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.Bool("object_store", cfg.Minio.Enabled))

	return &app{handler: handler, limiter: limiter, stores: st}, nil
}

func (a *app) Close() error {
	a.limiter.Stop()
	return a.stores.close()
}
