package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/upstarter/internal/domain/analysis"
)

func TestGetSystemPrompt(t *testing.T) {
	p := GetSystemPrompt()
	for _, want := range []string{"TAM/SAM/SOM", "Berkus", "Scorecard", `"overall_score"`, `"valuation"`} {
		assert.Contains(t, p, want)
	}
}

func TestIdeaPrompt(t *testing.T) {
	p := IdeaPrompt(analysis.IdeaInput{BusinessIdea: "App per condomini", TargetMarket: "Da definire", TeamSize: "3"})
	assert.Contains(t, p, "Idea di business: App per condomini\n")
	assert.Contains(t, p, "Mercato target: non specificato\n")
	assert.Contains(t, p, "Dimensione del team: 3\n")
	assert.Contains(t, p, "Informazioni aggiuntive: non specificato\n")
}

func TestDocumentPrompt_Truncates(t *testing.T) {
	long := strings.Repeat("à", maxDocumentRunes+10)
	p := DocumentPrompt(analysis.DocumentInput{FileName: "bp.docx", Title: "Piano", Text: long, Sections: []string{"Team", "Mercato"}})
	assert.Contains(t, p, "Sezioni individuate: Team; Mercato")
	assert.Contains(t, p, "[...testo troncato...]")
	assert.Equal(t, maxDocumentRunes, strings.Count(p, "à"))
}
