package documents

import (
	"context"
	"errors"
)

// MinContentLength is the minimum number of runes (after trimming) a text
// needs before it is worth analyzing.
const MinContentLength = 100

// PDFGuidance is returned verbatim whenever a .pdf upload is attempted.
const PDFGuidance = "I file PDF non sono supportati. Apri il PDF, copia il testo e incollalo nel campo di testo, oppure carica il documento in formato .docx o .txt."

var (
	// ErrUnsupportedFormat is returned by extractors for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrPDFNotSupported is returned for every .pdf upload.
	ErrPDFNotSupported = errors.New("pdf documents are not supported")
)

// Extractor converts uploaded document bytes to plain text.
type Extractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (string, error)
}

// ArchiveStore keeps a copy of the original upload and returns its URL.
type ArchiveStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
