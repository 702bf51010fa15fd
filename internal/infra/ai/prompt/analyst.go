package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/upstarter/internal/domain/analysis"
)

// maxDocumentRunes bounds the document excerpt embedded in the prompt.
const maxDocumentRunes = 12000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `Sei un analista senior di venture capital specializzato in startup italiane ed europee in fase pre-seed e seed. Devi produrre un solo oggetto JSON valido (niente markdown, niente commenti, niente code fence) che segua lo schema qui sotto. Tutti i testi vanno scritti in italiano.

Metodo:
- Valuta il mercato con l'approccio TAM/SAM/SOM e indica le ipotesi usate.
- Stima la valutazione pre-money combinando il metodo Berkus (cinque fattori, massimo 500.000 EUR ciascuno) e il metodo Scorecard rispetto alla media di startup comparabili.
- Sii critico e concreto: ogni punto di debolezza deve essere accompagnato da una raccomandazione operativa.
- I punteggi vanno da 0 a 100; nessun punteggio può superare 95.
- Se un'informazione manca, non inventarla: riducila nel punteggio e segnalala in missing_areas.

Schema (esempio con valori vuoti):
{
  "overall_score": 0,
  "scores": {"market": 0, "business_model": 0, "team": 0, "competition": 0, "funding": 0, "timeline": 0, "innovation": 0},
  "summary": "<string>",
  "strengths": ["<string>"],
  "weaknesses": ["<string>"],
  "recommendations": ["<string>"],
  "next_steps": ["<string>"],
  "market_analysis": "<string: TAM/SAM/SOM>",
  "competitive_analysis": "<string>",
  "valuation": {"min": 0, "max": 0, "currency": "EUR", "method": "Berkus + Scorecard"},
  "missing_areas": ["<string>"],
  "completeness_score": 0
}`
}

// IdeaPrompt embeds every questionnaire answer. Untouched fields are sent
// as "non specificato" so the model scores them as missing.
func IdeaPrompt(in analysis.IdeaInput) string {
	var b strings.Builder
	b.WriteString("Analizza la seguente idea di startup e rispondi con il JSON secondo lo schema.\n\n")
	field := func(label, v string) {
		if !analysis.IsSpecified(v) {
			v = "non specificato"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, strings.TrimSpace(v))
	}
	field("Idea di business", in.BusinessIdea)
	field("Mercato target", in.TargetMarket)
	field("Modello di business", in.BusinessModel)
	field("Dimensione del team", in.TeamSize)
	field("Esperienza del team", in.TeamExperience)
	field("Vantaggio competitivo", in.CompetitiveAdvantage)
	field("Fabbisogno di finanziamento", in.FundingNeeds)
	field("Tempistiche", in.Timeline)
	field("Informazioni aggiuntive", in.AdditionalInfo)
	return b.String()
}

// DocumentPrompt embeds the scanned hints and a bounded excerpt of the text.
func DocumentPrompt(in analysis.DocumentInput) string {
	var b strings.Builder
	b.WriteString("Analizza il seguente documento di startup e rispondi con il JSON secondo lo schema.\n")
	b.WriteString("Indica in missing_areas le aree essenziali assenti (problema, soluzione, mercato, modello di business, concorrenza, team, dati finanziari, go-to-market).\n\n")
	fmt.Fprintf(&b, "Nome file: %s\n", in.FileName)
	fmt.Fprintf(&b, "Titolo: %s\n", in.Title)
	fmt.Fprintf(&b, "Tipo documento: %s\n", in.DocumentType)
	if len(in.Sections) > 0 {
		fmt.Fprintf(&b, "Sezioni individuate: %s\n", strings.Join(in.Sections, "; "))
	}
	b.WriteString("\n--- TESTO ---\n")
	b.WriteString(truncateRunes(in.Text, maxDocumentRunes))
	b.WriteString("\n--- FINE ---\n")
	return b.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "\n[...testo troncato...]"
}
