package documents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	domain "github.com/bryanwahyu/upstarter/internal/domain/documents"
	"github.com/bryanwahyu/upstarter/internal/infra/extract"
)

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "http://minio.local/upstarter/" + key, nil
}

func TestExtractText(t *testing.T) {
	archive := &fakeArchive{}
	svc := &Service{Extractor: extract.New(), Archive: archive, ContentType: extract.ContentType, Logger: zaptest.NewLogger(t)}

	res, err := svc.ExtractText(context.Background(), ExtractCommand{
		UserEmail: "A@B.it",
		FileName:  "../../idea.TXT",
		Data:      []byte("Ciao\r\n\r\n\r\n\r\nmondo"),
	})
	require.NoError(t, err)
	assert.Equal(t, "idea.TXT", res.FileName)
	assert.Equal(t, "Ciao\n\nmondo", res.Text)
	assert.Equal(t, 11, res.TextLength)
	require.Len(t, archive.keys, 1)
	assert.True(t, strings.HasPrefix(archive.keys[0], "documents/a@b.it/"))
	assert.True(t, strings.HasSuffix(archive.keys[0], ".txt"))
	assert.Equal(t, "http://minio.local/upstarter/"+archive.keys[0], res.ArchiveURL)
}

func TestExtractText_PDFAlwaysRejected(t *testing.T) {
	svc := &Service{Extractor: extract.New()}
	for _, data := range [][]byte{[]byte("%PDF-1.7 ..."), []byte("plain text disguised"), nil} {
		_, err := svc.ExtractText(context.Background(), ExtractCommand{FileName: "Deck.PDF", Data: data})
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnsupportedFormat, apperr.KindOf(err))
		assert.Equal(t, domain.PDFGuidance, apperr.MessageOf(err))
	}
}

func TestExtractText_Errors(t *testing.T) {
	svc := &Service{Extractor: extract.New()}
	ctx := context.Background()

	_, err := svc.ExtractText(ctx, ExtractCommand{FileName: "a.exe", Data: []byte("MZ")})
	assert.Equal(t, apperr.KindUnsupportedFormat, apperr.KindOf(err))

	_, err = svc.ExtractText(ctx, ExtractCommand{FileName: "a.txt"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.ExtractText(ctx, ExtractCommand{FileName: "a.docx", Data: []byte("not a zip")})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestExtractText_ArchiveFailureIsNotFatal(t *testing.T) {
	svc := &Service{Extractor: extract.New(), Archive: &fakeArchive{err: errors.New("minio down")}}
	res, err := svc.ExtractText(context.Background(), ExtractCommand{FileName: "a.md", Data: []byte("# Titolo")})
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveURL)
}
