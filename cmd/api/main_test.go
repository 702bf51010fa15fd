package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/upstarter/internal/config"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	yaml := `
log:
  level: warn
store:
  driver: sqlite
database:
  path: ` + filepath.Join(dir, "upstarter.db") + `
auth:
  mode: static
  sessions:
    anna@example.it: tok-anna
ai:
  provider: none
  strategy: auto
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestBuildApp_SQLite(t *testing.T) {
	cfg, err := config.Load(writeConfig(t))
	require.NoError(t, err)

	a, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer tok-anna")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAIClient_RequiresKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.AI.Provider = "openai"
	_, err := aiClient(context.Background(), cfg)
	assert.Error(t, err)

	cfg.AI.Provider = "none"
	c, err := aiClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestAnalyzeCommand(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "piano.txt")
	require.NoError(t, os.WriteFile(doc, []byte(`Business plan EcoBici
Problema: nelle città mancano mezzi sostenibili per l'ultimo miglio.
Soluzione: una rete di bici elettriche in abbonamento con app dedicata.
Mercato: pendolari urbani in Italia.`), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"analyze", "--config", writeConfig(t), doc})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	require.NoError(t, rootCmd.Execute())

	var got struct {
		Result struct {
			Engine       string `json:"engine"`
			OverallScore int    `json:"overall_score"`
		} `json:"result"`
		Fields struct {
			DocumentType string `json:"document_type"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got), out.String())
	assert.Equal(t, "heuristic", got.Result.Engine)
	assert.Positive(t, got.Result.OverallScore)
	assert.Equal(t, "Business Plan", got.Fields.DocumentType)
}
