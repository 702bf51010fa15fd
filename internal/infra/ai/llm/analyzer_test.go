package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/upstarter/internal/domain/ai"
	"github.com/bryanwahyu/upstarter/internal/domain/analysis"
)

type fakeClient struct {
	out      string
	err      error
	lastUser string
}

func (f *fakeClient) Name() string { return "openai" }

func (f *fakeClient) Complete(_ context.Context, _, user string) (string, error) {
	f.lastUser = user
	return f.out, f.err
}

const validJSON = `{
  "overall_score": 99,
  "scores": {"market": 70, "business_model": 60, "team": 100, "competition": 50, "funding": 40, "timeline": 55, "innovation": 80},
  "summary": "Buona idea",
  "strengths": ["team"],
  "weaknesses": ["capitale"],
  "recommendations": ["validare"],
  "valuation": {"min": 900000, "max": 300000, "method": "Scorecard"}
}`

var fixed = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestAnalyzeIdea(t *testing.T) {
	fc := &fakeClient{out: "```json\n" + validJSON + "\n```"}
	a := New(fc, zaptest.NewLogger(t), func() time.Time { return fixed })

	r, err := a.AnalyzeIdea(context.Background(), analysis.IdeaInput{BusinessIdea: "Noleggio bici"})
	require.NoError(t, err)

	assert.Contains(t, fc.lastUser, "Noleggio bici")
	assert.Equal(t, analysis.EngineOpenAI, r.Engine)
	assert.Equal(t, analysis.MaxScore, r.OverallScore)
	assert.Equal(t, analysis.MaxScore, r.Scores.Team)
	assert.Equal(t, int64(300000), r.Valuation.Min)
	assert.Equal(t, int64(900000), r.Valuation.Max)
	assert.Equal(t, "EUR", r.Valuation.Currency)
	assert.Equal(t, fixed, r.GeneratedAt)
}

func TestAnalyzeDocument_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":       "Mi dispiace, non posso aiutarti.",
		"missing fields": `{"overall_score": 50}`,
		"wrong type":     `{"overall_score": "alto", "scores": {}, "summary": "x", "strengths": [], "weaknesses": [], "recommendations": []}`,
	}
	for name, out := range tests {
		t.Run(name, func(t *testing.T) {
			a := New(&fakeClient{out: out}, zaptest.NewLogger(t), nil)
			_, err := a.AnalyzeDocument(context.Background(), analysis.DocumentInput{Text: "x"})
			assert.ErrorIs(t, err, ai.ErrMalformedOutput)
		})
	}
}

func TestAnalyze_ClientError(t *testing.T) {
	boom := errors.New("boom")
	a := New(&fakeClient{err: boom}, nil, nil)
	_, err := a.AnalyzeIdea(context.Background(), analysis.IdeaInput{})
	assert.ErrorIs(t, err, boom)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("Ecco l'analisi: {\"a\":1} fine"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`  {"a":1}  `))
}
