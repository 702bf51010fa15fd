package finance

import (
	"strings"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	domain "github.com/bryanwahyu/upstarter/internal/domain/finance"
)

const defaultCurrency = "EUR"

// Service computes cash projections and exports them as spreadsheets.
type Service struct {
	Render func(*domain.Projection) ([]byte, error)
}

func (s *Service) Projection(plan domain.Plan) (*domain.Projection, error) {
	plan.Currency = strings.ToUpper(strings.TrimSpace(plan.Currency))
	if plan.Currency == "" {
		plan.Currency = defaultCurrency
	}
	p, err := domain.Project(plan)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, err.Error(), err)
	}
	return p, nil
}

// Export returns the projection as an XLSX workbook.
func (s *Service) Export(plan domain.Plan) ([]byte, error) {
	p, err := s.Projection(plan)
	if err != nil {
		return nil, err
	}
	b, err := s.Render(p)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Errore durante la generazione del file Excel", err)
	}
	return b, nil
}
