package documents

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	domain "github.com/bryanwahyu/upstarter/internal/domain/documents"
	"github.com/bryanwahyu/upstarter/internal/logging"
)

// Service turns uploads into text and optionally archives the original.
// Archive may be nil.
type Service struct {
	Extractor   domain.Extractor
	Archive     domain.ArchiveStore
	ContentType func(fileName string) string
	Logger      *zap.Logger
}

type ExtractCommand struct {
	UserEmail string
	FileName  string
	Data      []byte
}

type ExtractResult struct {
	Text       string `json:"text"`
	FileName   string `json:"fileName"`
	FileSize   int    `json:"fileSize"`
	TextLength int    `json:"textLength"`
	ArchiveURL string `json:"archive_url,omitempty"`
}

func (s *Service) ExtractText(ctx context.Context, cmd ExtractCommand) (*ExtractResult, error) {
	name := filepath.Base(strings.TrimSpace(cmd.FileName))
	if name == "" || name == "." {
		return nil, apperr.Invalid("Nome del file mancante")
	}
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, apperr.Wrap(apperr.KindUnsupportedFormat, domain.PDFGuidance, domain.ErrPDFNotSupported)
	}
	if len(cmd.Data) == 0 {
		return nil, apperr.Invalid("Il file è vuoto")
	}

	text, err := s.Extractor.Extract(ctx, name, cmd.Data)
	switch {
	case errors.Is(err, domain.ErrPDFNotSupported):
		return nil, apperr.Wrap(apperr.KindUnsupportedFormat, domain.PDFGuidance, err)
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return nil, apperr.Wrap(apperr.KindUnsupportedFormat,
			"Formato non supportato. Carica un file .txt, .md, .docx, .html o .xlsx.", err)
	case err != nil:
		return nil, apperr.Wrap(apperr.KindInvalidInput, "Impossibile leggere il contenuto del file", err)
	}

	res := &ExtractResult{
		Text:       text,
		FileName:   name,
		FileSize:   len(cmd.Data),
		TextLength: utf8.RuneCountInString(text),
	}
	log := logging.OrNop(s.Logger)

	if s.Archive != nil {
		key := ArchiveKey(cmd.UserEmail, name)
		ct := "application/octet-stream"
		if s.ContentType != nil {
			ct = s.ContentType(name)
		}
		// archiving is best effort; the extracted text is still returned
		if u, err := s.Archive.Put(ctx, key, ct, cmd.Data); err != nil {
			log.Warn("documents.archive.failed", zap.String("key", key), zap.Error(err))
		} else {
			res.ArchiveURL = u
		}
	}

	log.Info("documents.extract.ok",
		zap.String("file", name),
		zap.Int("bytes", res.FileSize),
		zap.Int("runes", res.TextLength))
	return res, nil
}

// ArchiveKey is documents/<email>/<uuid><ext>.
func ArchiveKey(email, fileName string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "anonymous"
	}
	return fmt.Sprintf("documents/%s/%s%s", email, uuid.NewString(), strings.ToLower(filepath.Ext(fileName)))
}
