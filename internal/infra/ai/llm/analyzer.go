// Package llm turns a hosted-model completion into an analysis.Result.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/domain/ai"
	"github.com/bryanwahyu/upstarter/internal/domain/analysis"
	"github.com/bryanwahyu/upstarter/internal/infra/ai/prompt"
	"github.com/bryanwahyu/upstarter/internal/logging"
	"github.com/bryanwahyu/upstarter/internal/schema"
)

// Analyzer implements analysis.Analyzer on top of an ai.Client.
// Timeout bounds each completion when positive.
type Analyzer struct {
	Timeout time.Duration

	client ai.Client
	logger *zap.Logger
	now    func() time.Time
}

func New(client ai.Client, logger *zap.Logger, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{client: client, logger: logging.OrNop(logger), now: now}
}

func (a *Analyzer) AnalyzeIdea(ctx context.Context, in analysis.IdeaInput) (*analysis.Result, error) {
	return a.run(ctx, "idea", prompt.IdeaPrompt(in))
}

func (a *Analyzer) AnalyzeDocument(ctx context.Context, in analysis.DocumentInput) (*analysis.Result, error) {
	return a.run(ctx, "document", prompt.DocumentPrompt(in))
}

func (a *Analyzer) run(ctx context.Context, kind, userPrompt string) (*analysis.Result, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	start := a.now()
	raw, err := a.client.Complete(ctx, prompt.GetSystemPrompt(), userPrompt)
	if err != nil {
		return nil, err
	}
	r, err := Parse(raw)
	if err != nil {
		a.logger.Warn("llm.analysis.invalid",
			zap.String("kind", kind),
			zap.String("provider", a.client.Name()),
			zap.Int("response_len", len(raw)),
			zap.Error(err))
		return nil, err
	}
	r.Engine = analysis.Engine(a.client.Name())
	r.GeneratedAt = a.now().UTC()
	a.logger.Debug("llm.analysis.ok",
		zap.String("kind", kind),
		zap.String("provider", a.client.Name()),
		zap.Int("overall_score", r.OverallScore),
		zap.Duration("duration", a.now().Sub(start)))
	return r, nil
}

// Parse strips markdown fences, validates the payload against
// schema.Analysis and returns the clamped result.
func Parse(raw string) (*analysis.Result, error) {
	body := []byte(cleanJSON(raw))
	if err := schema.Analysis.Validate(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}
	var r analysis.Result
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}
	if r.Valuation.Min > r.Valuation.Max {
		r.Valuation.Min, r.Valuation.Max = r.Valuation.Max, r.Valuation.Min
	}
	if r.Valuation.Currency == "" {
		r.Valuation.Currency = "EUR"
	}
	r.FallbackReason = ""
	r.Clamp()
	return &r, nil
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	// tolerate prose around the object
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i > 0 && j > i {
		s = s[i : j+1]
	}
	return s
}
