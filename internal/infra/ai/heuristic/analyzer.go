// Package heuristic is the deterministic startup analyzer. Scores come from
// fixed point tables over field presence; narratives are templated from the
// same checks. It never calls the network and never fails on valid input.
package heuristic

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bryanwahyu/upstarter/internal/domain/analysis"
	"github.com/bryanwahyu/upstarter/internal/domain/documents"
)

// Idea point table.
const (
	EmptyPoints          = 5
	MarketPoints         = 15
	BusinessModelPoints  = 15
	TeamPoints           = 15
	CompetitivePoints    = 15
	FundingPoints        = 10
	TimelinePoints       = 10
	AdditionalInfoPoints = 15

	// AdditionalInfoMinRunes is the length from which additional info counts.
	AdditionalInfoMinRunes = 50

	// AllEmptyScore is the score of a questionnaire with every optional field left default.
	AllEmptyScore = 7 * EmptyPoints
)

// Document point table.
const (
	DocBasePoints     = 20
	DocAreaPoints     = 8
	DocLengthPoints   = 5
	DocLongRunes      = 1500
	DocVeryLongRunes  = 5000
	DocTypeBonus      = 5
	berkusFactorCap   = 500_000
	valuationRounding = 10_000
)

// Area is an essential business-plan topic looked for in documents.
type Area struct {
	Key      string
	Label    string
	Keywords []string
}

// EssentialAreas are checked in this order; missing ones are reported by Label.
// Keywords match whole words; a trailing '*' marks a stem.
var EssentialAreas = []Area{
	{"problem", "Problema", []string{"problem*", "pain point*", "bisogn*"}},
	{"solution", "Soluzione", []string{"soluzion*", "solution*", "prodott*", "product*", "piattaform*", "platform*"}},
	{"market", "Mercato", []string{"mercat*", "market", "markets", "tam", "cliente", "clienti", "customer*", "target"}},
	{"business_model", "Modello di business", []string{"modello di business", "business model", "revenue*", "ricav*", "pricing", "prezz*", "abbonament*", "subscription*"}},
	{"competition", "Concorrenza", []string{"concorren*", "competit*"}},
	{"team", "Team", []string{"team", "fondator*", "founder*", "co-founder*", "cofondator*"}},
	{"financials", "Dati finanziari", []string{"finanziar*", "financial*", "budget", "investiment*", "investment*", "break-even", "proiezion*", "projection*"}},
	{"go_to_market", "Go-to-market", []string{"go-to-market", "go to market", "marketing", "vendit*", "sales", "canal*", "channel*", "distribuzion*", "lanci*", "launch*"}},
}

// Analyzer implements analysis.Analyzer.
type Analyzer struct {
	Now func() time.Time
}

func New(now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{Now: now}
}

type check struct {
	label     string
	specified bool
	points    int
}

func (a *Analyzer) ideaChecks(in analysis.IdeaInput) []check {
	return []check{
		{"Mercato target", analysis.IsSpecified(in.TargetMarket), MarketPoints},
		{"Modello di business", analysis.IsSpecified(in.BusinessModel), BusinessModelPoints},
		{"Team", analysis.IsSpecified(in.TeamSize) || analysis.IsSpecified(in.TeamExperience), TeamPoints},
		{"Vantaggio competitivo", analysis.IsSpecified(in.CompetitiveAdvantage), CompetitivePoints},
		{"Finanziamento", analysis.IsSpecified(in.FundingNeeds), FundingPoints},
		{"Tempistiche", analysis.IsSpecified(in.Timeline), TimelinePoints},
		{"Informazioni aggiuntive", utf8.RuneCountInString(strings.TrimSpace(in.AdditionalInfo)) >= AdditionalInfoMinRunes, AdditionalInfoPoints},
	}
}

// IdeaScore sums the idea point table and clamps it.
func (a *Analyzer) IdeaScore(in analysis.IdeaInput) int {
	total := 0
	for _, c := range a.ideaChecks(in) {
		if c.specified {
			total += c.points
		} else {
			total += EmptyPoints
		}
	}
	return min(analysis.MaxScore, total)
}

func (a *Analyzer) AnalyzeIdea(_ context.Context, in analysis.IdeaInput) (*analysis.Result, error) {
	checks := a.ideaChecks(in)
	specified := 0
	var missing []string
	for _, c := range checks {
		if c.specified {
			specified++
		} else {
			missing = append(missing, c.label)
		}
	}

	teamScore := 30
	switch {
	case analysis.IsSpecified(in.TeamSize) && analysis.IsSpecified(in.TeamExperience):
		teamScore = 80
	case checks[2].specified:
		teamScore = 65
	}
	innovation := dimension(analysis.IsSpecified(in.CompetitiveAdvantage), 70, 40)
	if utf8.RuneCountInString(strings.TrimSpace(in.BusinessIdea)) >= 200 {
		innovation += 10
	}

	r := &analysis.Result{
		OverallScore: a.IdeaScore(in),
		Scores: analysis.Scores{
			Market:        dimension(checks[0].specified, 75, 30),
			BusinessModel: dimension(checks[1].specified, 75, 30),
			Team:          teamScore,
			Competition:   dimension(checks[3].specified, 70, 30),
			Funding:       dimension(checks[4].specified, 65, 35),
			Timeline:      dimension(checks[5].specified, 65, 35),
			Innovation:    innovation,
		},
		MissingAreas:      missing,
		CompletenessScore: specified * 100 / len(checks),
		Engine:            analysis.EngineHeuristic,
		GeneratedAt:       a.Now().UTC(),
	}

	idea := firstSentence(in.BusinessIdea)
	r.Summary = fmt.Sprintf("L'idea \"%s\" ottiene un punteggio di %d/%d. %d aree su %d sono state descritte; %s",
		idea, r.OverallScore, analysis.MaxScore, specified, len(checks), maturity(r.OverallScore))

	for _, c := range checks {
		if c.specified {
			r.Strengths = append(r.Strengths, strengthFor(c.label))
		} else {
			r.Weaknesses = append(r.Weaknesses, fmt.Sprintf("%s non definito", c.label))
			r.Recommendations = append(r.Recommendations, recommendationFor(c.label))
		}
	}
	if len(r.Strengths) == 0 {
		r.Strengths = []string{"Idea iniziale formulata e pronta per essere approfondita"}
	}
	if len(r.Recommendations) == 0 {
		r.Recommendations = []string{"Validare le ipotesi principali con 10-15 interviste a potenziali clienti"}
	}
	r.NextSteps = nextSteps(missing)

	if checks[0].specified {
		r.MarketAnalysis = fmt.Sprintf("Mercato indicato: %s. Stimare TAM, SAM e SOM partendo dal numero di clienti raggiungibili e dal prezzo medio.", strings.TrimSpace(in.TargetMarket))
	} else {
		r.MarketAnalysis = "Il mercato target non è stato definito: senza una stima TAM/SAM/SOM non è possibile valutare il potenziale di crescita."
	}
	if checks[3].specified {
		r.CompetitiveAnalysis = fmt.Sprintf("Vantaggio dichiarato: %s. Verificarne la difendibilità rispetto ai concorrenti diretti e indiretti.", strings.TrimSpace(in.CompetitiveAdvantage))
	} else {
		r.CompetitiveAnalysis = "Nessun vantaggio competitivo dichiarato: mappare i concorrenti diretti e indiretti e definire una proposta di valore distintiva."
	}
	r.Valuation = berkus(r.Scores)
	r.Clamp()
	return r, nil
}

func (a *Analyzer) AnalyzeDocument(_ context.Context, in analysis.DocumentInput) (*analysis.Result, error) {
	lower := strings.ToLower(in.Text + "\n" + strings.Join(in.Sections, "\n"))
	covered := map[string]bool{}
	var missing, found []string
	for _, area := range EssentialAreas {
		if documents.MatchesAny(lower, area.Keywords) {
			covered[area.Key] = true
			found = append(found, area.Label)
		} else {
			missing = append(missing, area.Label)
		}
	}

	score := DocBasePoints + DocAreaPoints*len(found)
	runes := utf8.RuneCountInString(in.Text)
	if runes >= DocLongRunes {
		score += DocLengthPoints
	}
	if runes >= DocVeryLongRunes {
		score += DocLengthPoints
	}
	if t := strings.ToLower(in.DocumentType); t == "pitch deck" || t == "business plan" {
		score += DocTypeBonus
	}

	innovation := 30
	switch {
	case covered["problem"] && covered["solution"]:
		innovation = 75
	case covered["problem"] || covered["solution"]:
		innovation = 55
	}

	r := &analysis.Result{
		OverallScore: min(analysis.MaxScore, score),
		Scores: analysis.Scores{
			Market:        dimension(covered["market"], 70, 30),
			BusinessModel: dimension(covered["business_model"], 70, 30),
			Team:          dimension(covered["team"], 70, 30),
			Competition:   dimension(covered["competition"], 65, 30),
			Funding:       dimension(covered["financials"], 65, 30),
			Timeline:      dimension(covered["go_to_market"], 60, 30),
			Innovation:    innovation,
		},
		MissingAreas:      missing,
		CompletenessScore: len(found) * 100 / len(EssentialAreas),
		Engine:            analysis.EngineHeuristic,
		GeneratedAt:       a.Now().UTC(),
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.FileName
	}
	r.Summary = fmt.Sprintf("Il documento \"%s\" (%s) copre %d aree essenziali su %d e ottiene %d/%d. %s",
		title, in.DocumentType, len(found), len(EssentialAreas), r.OverallScore, analysis.MaxScore, maturity(r.OverallScore))

	for _, l := range found {
		r.Strengths = append(r.Strengths, fmt.Sprintf("Sezione \"%s\" presente nel documento", l))
	}
	if runes >= DocVeryLongRunes {
		r.Strengths = append(r.Strengths, "Documento dettagliato ed esteso")
	}
	for _, l := range missing {
		r.Weaknesses = append(r.Weaknesses, fmt.Sprintf("Manca la sezione \"%s\"", l))
		r.Recommendations = append(r.Recommendations, recommendationFor(l))
	}
	if runes < DocLongRunes {
		r.Weaknesses = append(r.Weaknesses, "Documento breve: molte affermazioni non sono supportate da dati")
	}
	if len(r.Strengths) == 0 {
		r.Strengths = []string{"Documento caricato e leggibile"}
	}
	if len(r.Recommendations) == 0 {
		r.Recommendations = []string{"Aggiungere metriche di trazione e fonti per le stime di mercato"}
	}
	r.NextSteps = nextSteps(missing)

	if covered["market"] {
		r.MarketAnalysis = "Il documento descrive il mercato. Verificare che la stima TAM/SAM/SOM sia supportata da fonti e ipotesi esplicite."
	} else {
		r.MarketAnalysis = "Il documento non descrive il mercato: aggiungere dimensione, segmenti e una stima TAM/SAM/SOM."
	}
	if covered["competition"] {
		r.CompetitiveAnalysis = "Il documento cita la concorrenza. Rendere esplicito il posizionamento con una matrice di confronto."
	} else {
		r.CompetitiveAnalysis = "Analisi competitiva assente: elencare concorrenti diretti, indiretti e alternative usate oggi dai clienti."
	}
	r.Valuation = berkus(r.Scores)
	r.Clamp()
	return r, nil
}

func dimension(ok bool, yes, no int) int {
	if ok {
		return yes
	}
	return no
}

// berkus maps five dimensions to the Berkus factors, each worth up to
// berkusFactorCap at a score of analysis.MaxScore, and returns a ±20% range.
func berkus(s analysis.Scores) analysis.Valuation {
	factors := []int{
		s.Innovation,    // sound idea
		s.Timeline,      // prototype / execution
		s.Team,          // management team
		s.Market,        // strategic relationships and market access
		s.BusinessModel, // product rollout and sales
	}
	var base int64
	for _, f := range factors {
		f = min(max(f, 0), analysis.MaxScore)
		base += int64(f) * berkusFactorCap / analysis.MaxScore
	}
	return analysis.Valuation{
		Min:      roundTo(base*8/10, valuationRounding),
		Max:      roundTo(base*12/10, valuationRounding),
		Currency: "EUR",
		Method:   "Berkus",
	}
}

func roundTo(v, step int64) int64 {
	return (v + step/2) / step * step
}

func maturity(score int) string {
	switch {
	case score >= 75:
		return "Il progetto appare maturo per un confronto con investitori early-stage."
	case score >= 55:
		return "Il progetto ha basi solide ma richiede di completare alcune aree prima di presentarsi agli investitori."
	default:
		return "Il progetto è in fase embrionale: serve definire gli elementi fondamentali."
	}
}

func strengthFor(label string) string {
	return fmt.Sprintf("%s definito", label)
}

var recommendations = map[string]string{
	"Mercato target":          "Definire il segmento di clienti iniziale e stimare TAM, SAM e SOM",
	"Mercato":                 "Definire il segmento di clienti iniziale e stimare TAM, SAM e SOM",
	"Modello di business":     "Chiarire come l'azienda genera ricavi, con prezzo e margini attesi",
	"Team":                    "Descrivere competenze ed esperienza dei fondatori e i ruoli chiave mancanti",
	"Vantaggio competitivo":   "Identificare cosa rende la soluzione difficile da copiare",
	"Concorrenza":             "Mappare i concorrenti e spiegare il posizionamento distintivo",
	"Finanziamento":           "Quantificare il capitale necessario e come verrà impiegato nei prossimi 18 mesi",
	"Dati finanziari":         "Aggiungere proiezioni a 3 anni con ricavi, costi e punto di pareggio",
	"Tempistiche":             "Fissare milestone trimestrali fino al lancio",
	"Go-to-market":            "Descrivere canali di acquisizione, costo per cliente e piano di lancio",
	"Informazioni aggiuntive": "Aggiungere dettagli su trazione, partner o validazioni già ottenute",
	"Problema":                "Descrivere il problema con dati e testimonianze dei clienti",
	"Soluzione":               "Spiegare la soluzione e perché risolve il problema meglio delle alternative",
}

func recommendationFor(label string) string {
	if r, ok := recommendations[label]; ok {
		return r
	}
	return "Approfondire l'area: " + label
}

func nextSteps(missing []string) []string {
	steps := []string{"Validare il problema con interviste a potenziali clienti"}
	if len(missing) > 0 {
		steps = append(steps, "Completare le aree mancanti: "+strings.Join(missing, ", "))
	}
	return append(steps,
		"Costruire un MVP e misurare le prime metriche di utilizzo",
		"Preparare un pitch deck aggiornato con i risultati ottenuti",
	)
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".\n"); i > 0 {
		s = s[:i]
	}
	if utf8.RuneCountInString(s) > 80 {
		s = string([]rune(s)[:80]) + "..."
	}
	return s
}

