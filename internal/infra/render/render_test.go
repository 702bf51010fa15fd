package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/upstarter/internal/domain/finance"
	"github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
)

func TestDeckPDF(t *testing.T) {
	deck := pitchdeck.NewDefault("anna@example.com")
	deck.CompanyName = "Condominio Più"
	deck.Tagline = "Gestione smart per amministratori"
	deck.Slides[0].Content = "- Costi di gestione alti\n- Comunicazione lenta\n\nServe un cambio (€)"
	deck.Slides[1].Title = ""

	out, err := DeckPDF(deck)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestDeckPDF_Empty(t *testing.T) {
	out, err := DeckPDF(&pitchdeck.Deck{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestProjectionXLSX(t *testing.T) {
	proj, err := finance.Project(finance.Plan{InitialCash: 1000, MonthlyRevenue: 100, MonthlyCosts: 600, Months: 3})
	require.NoError(t, err)

	out, err := ProjectionXLSX(proj)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{projectionSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(projectionSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Ricavi (EUR)", rows[0][1])

	raw, err := f.GetCellValue(projectionSheet, "E4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "-500", raw)

	label, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "non raggiunto", label)

	runway, err := f.GetCellValue(summarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "2", runway)
}
