package pitchdeck

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// SlideKind enum
type SlideKind string

const (
	SlideProblem       SlideKind = "problem"
	SlideSolution      SlideKind = "solution"
	SlideMarket        SlideKind = "market"
	SlideProduct       SlideKind = "product"
	SlideBusinessModel SlideKind = "business_model"
	SlideTraction      SlideKind = "traction"
	SlideCompetition   SlideKind = "competition"
	SlideTeam          SlideKind = "team"
	SlideFinancials    SlideKind = "financials"
	SlideAsk           SlideKind = "ask"
)

// DefaultKinds is the slide order of a fresh deck.
var DefaultKinds = []SlideKind{
	SlideProblem, SlideSolution, SlideMarket, SlideProduct, SlideBusinessModel,
	SlideTraction, SlideCompetition, SlideTeam, SlideFinancials, SlideAsk,
}

var defaultTitles = map[SlideKind]string{
	SlideProblem:       "Il problema",
	SlideSolution:      "La soluzione",
	SlideMarket:        "Il mercato",
	SlideProduct:       "Il prodotto",
	SlideBusinessModel: "Modello di business",
	SlideTraction:      "Trazione",
	SlideCompetition:   "Concorrenza",
	SlideTeam:          "Il team",
	SlideFinancials:    "Proiezioni finanziarie",
	SlideAsk:           "La richiesta",
}

const (
	maxSlides       = 20
	maxTitleRunes   = 120
	maxContentRunes = 2000
)

// ErrNotFound is returned by stores when the user has no saved deck.
var ErrNotFound = errors.New("pitch deck not found")

// Slide is one page of the deck.
type Slide struct {
	Kind    SlideKind `json:"kind"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
}

// Deck is a user's pitch deck, one per email.
type Deck struct {
	UserEmail   string    `json:"user_email"`
	CompanyName string    `json:"company_name"`
	Tagline     string    `json:"tagline"`
	Slides      []Slide   `json:"slides"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewDefault returns the empty template deck for email.
func NewDefault(email string) *Deck {
	d := &Deck{UserEmail: email, Slides: make([]Slide, 0, len(DefaultKinds))}
	for _, k := range DefaultKinds {
		d.Slides = append(d.Slides, Slide{Kind: k, Title: defaultTitles[k]})
	}
	return d
}

// DefaultTitle returns the template title of a slide kind.
func DefaultTitle(k SlideKind) string { return defaultTitles[k] }

// Validate checks slide kinds and size limits.
func (d *Deck) Validate() error {
	if len(d.Slides) == 0 {
		return fmt.Errorf("la presentazione deve contenere almeno una slide")
	}
	if len(d.Slides) > maxSlides {
		return fmt.Errorf("massimo %d slide consentite", maxSlides)
	}
	if utf8.RuneCountInString(d.CompanyName) > maxTitleRunes || utf8.RuneCountInString(d.Tagline) > maxTitleRunes {
		return fmt.Errorf("nome azienda e tagline non possono superare %d caratteri", maxTitleRunes)
	}
	for i, s := range d.Slides {
		if _, ok := defaultTitles[s.Kind]; !ok {
			return fmt.Errorf("slide %d: tipo %q non valido", i+1, s.Kind)
		}
		if utf8.RuneCountInString(s.Title) > maxTitleRunes {
			return fmt.Errorf("slide %d: titolo troppo lungo", i+1)
		}
		if utf8.RuneCountInString(s.Content) > maxContentRunes {
			return fmt.Errorf("slide %d: contenuto troppo lungo (max %d caratteri)", i+1, maxContentRunes)
		}
	}
	return nil
}

// Store persists decks keyed by user email.
type Store interface {
	Get(ctx context.Context, email string) (*Deck, error)
	Save(ctx context.Context, d *Deck) error
}
