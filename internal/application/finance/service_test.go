package finance

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	domain "github.com/bryanwahyu/upstarter/internal/domain/finance"
	"github.com/bryanwahyu/upstarter/internal/infra/render"
)

func TestProjection(t *testing.T) {
	svc := &Service{Render: render.ProjectionXLSX}

	p, err := svc.Projection(domain.Plan{InitialCash: 1000, MonthlyRevenue: 100, MonthlyCosts: 600, Months: 3})
	require.NoError(t, err)
	assert.Equal(t, "EUR", p.Currency)
	assert.Len(t, p.Months, 3)
	assert.Equal(t, 0, p.BreakEvenMonth)

	_, err = svc.Projection(domain.Plan{Months: 0})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestExport(t *testing.T) {
	svc := &Service{Render: render.ProjectionXLSX}
	b, err := svc.Export(domain.Plan{Currency: "usd", MonthlyRevenue: 10, MonthlyCosts: 5, Months: 12})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("PK")), "xlsx is a zip archive")
}
