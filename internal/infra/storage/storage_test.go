package storage

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
)

func TestMemoryDeckStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDeckStore()

	_, err := s.Get(ctx, "anna@example.com")
	assert.ErrorIs(t, err, pitchdeck.ErrNotFound)

	deck := pitchdeck.NewDefault("Anna@Example.com")
	deck.CompanyName = "EcoBox"
	require.NoError(t, s.Save(ctx, deck))

	// caller mutations after Save must not leak into the store
	deck.Slides[0].Content = "changed"

	got, err := s.Get(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, "EcoBox", got.CompanyName)
	assert.Empty(t, got.Slides[0].Content)

	got.Slides[1].Content = "also changed"
	again, err := s.Get(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Empty(t, again.Slides[1].Content)
}

func TestObjectURL(t *testing.T) {
	u, _ := url.Parse("https://minio.local:9000")
	assert.Equal(t, "https://minio.local:9000/upstarter/documents/a/b.docx", objectURL(u, "upstarter", "documents/a/b.docx"))

	assert.Equal(t, "http://localhost/b/k", objectURL(&url.URL{Host: "localhost"}, "b", "k"))
}

func TestDeckKey(t *testing.T) {
	assert.Equal(t, "decks/anna@example.com.json", deckKey(" Anna@Example.com "))
	assert.Equal(t, "decks/a%2Fb.json", deckKey("a/b"))
}
