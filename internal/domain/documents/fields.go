package documents

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	titleScanLines   = 15
	maxSections      = 15
	maxDescLines     = 3
	maxDescription   = 400
	fallbackTitle    = "Documento Startup"
	fallbackDesc     = "Documento caricato per l'analisi della startup."
	DefaultDocType   = "Startup Document"
	sectionMaxLength = 80
)

// Fields are the best-effort hints scanned out of a document's text.
type Fields struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Sections     []string `json:"sections"`
	DocumentType string   `json:"document_type"`
}

var titleKeywords = []string{
	"startup", "start-up", "business plan", "pitch", "progett*", "project*",
	"piano", "idea", "azienda", "company", "platform", "piattaform*", "app",
}

// SectionKeywords are business-plan section names in Italian and English.
var SectionKeywords = []string{
	"executive summary", "sommario esecutivo", "sintesi",
	"problema", "problem", "soluzione", "solution",
	"mercato", "market", "analisi di mercato", "market analysis", "target",
	"modello di business", "business model", "revenue model", "modello di ricavo",
	"concorrenza", "competizione", "competition", "competitors", "concorrenti",
	"team", "squadra", "management",
	"piano finanziario", "financial plan", "financials", "finanze", "proiezioni",
	"marketing", "go-to-market", "go to market", "strategia", "strategy",
	"prodotto", "product", "servizio", "roadmap", "milestone*",
	"traction", "trazione", "clienti", "customers",
	"investimento", "investment", "funding", "finanziamento",
	"rischi", "risks", "visione", "vision", "missione", "mission",
	"obiettivi", "objectives", "conclusione", "conclusion",
}

var numberingPrefix = regexp.MustCompile(`^(\d+(\.\d+)*[.)]?|[#*\-•]+)\s*`)

// ExtractFields scans raw document text for title, description, sections and
// document type. It never fails: any panic yields FallbackFields.
func ExtractFields(text string) (f Fields) {
	defer func() {
		if r := recover(); r != nil {
			f = FallbackFields()
		}
	}()

	lines := nonEmptyLines(text)
	return Fields{
		Title:        pickTitle(lines),
		Description:  pickDescription(lines),
		Sections:     IdentifySections(lines),
		DocumentType: ClassifyDocument(text),
	}
}

// FallbackFields is returned when scanning fails.
func FallbackFields() Fields {
	return Fields{
		Title:        fallbackTitle,
		Description:  fallbackDesc,
		Sections:     []string{},
		DocumentType: DefaultDocType,
	}
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func pickTitle(lines []string) string {
	head := lines
	if len(head) > titleScanLines {
		head = head[:titleScanLines]
	}
	for _, l := range head {
		clean := numberingPrefix.ReplaceAllString(l, "")
		if MatchesAny(strings.ToLower(clean), titleKeywords) || looksLikeTitle(clean) {
			return clean
		}
	}
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n >= 10 && n <= 120 {
			return l
		}
	}
	return fallbackTitle
}

func looksLikeTitle(l string) bool {
	r, _ := utf8.DecodeRuneInString(l)
	n := utf8.RuneCountInString(l)
	return unicode.IsUpper(r) && !strings.Contains(l, ".") && n >= 3 && n < 80
}

func pickDescription(lines []string) string {
	picked := make([]string, 0, maxDescLines)
	for _, l := range lines {
		n := utf8.RuneCountInString(l)
		if n < 30 || n > 200 || isAllUpper(l) {
			continue
		}
		picked = append(picked, l)
		if len(picked) == maxDescLines {
			break
		}
	}
	if len(picked) == 0 {
		return fallbackDesc
	}
	return truncateRunes(strings.Join(picked, " "), maxDescription) + "..."
}

// IdentifySections returns the heading-length lines that name a known
// business-plan section, deduplicated case-insensitively and capped at 15.
func IdentifySections(lines []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, maxSections)
	for _, l := range lines {
		if utf8.RuneCountInString(l) > sectionMaxLength {
			continue
		}
		lower := strings.ToLower(strings.TrimRight(numberingPrefix.ReplaceAllString(l, ""), ":"))
		if !MatchesAny(lower, SectionKeywords) {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, strings.TrimRight(numberingPrefix.ReplaceAllString(l, ""), ":"))
		if len(out) == maxSections {
			break
		}
	}
	return out
}

// ClassifyDocument labels the document with a fixed keyword chain; the first
// match wins.
func ClassifyDocument(text string) string {
	lower := strings.ToLower(text)
	switch {
	case MatchesAny(lower, []string{"pitch*"}):
		return "Pitch Deck"
	case MatchesAny(lower, []string{"business plan", "piano aziendale"}):
		return "Business Plan"
	case MatchesAny(lower, []string{"executive summary", "sommario esecutivo"}):
		return "Executive Summary"
	case MatchesAny(lower, []string{"market research", "ricerca di mercato"}):
		return "Market Research"
	case MatchesAny(lower, []string{"financial*", "finanziari*"}):
		return "Financial Plan"
	default:
		return DefaultDocType
	}
}

// HasMinimumContent reports whether text is long enough to analyze.
func HasMinimumContent(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinContentLength
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
