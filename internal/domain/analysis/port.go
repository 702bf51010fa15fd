package analysis

import "context"

// Analyzer scores a startup idea or document.
type Analyzer interface {
	AnalyzeIdea(ctx context.Context, in IdeaInput) (*Result, error)
	AnalyzeDocument(ctx context.Context, in DocumentInput) (*Result, error)
}
