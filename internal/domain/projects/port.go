package projects

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("record not found")

// Repository port for projects
type Repository interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id ProjectID) (*Project, error)
	ListByUser(ctx context.Context, email string, limit int) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id ProjectID) error
}

// AnalysisRepository port; analyses are never updated in place.
type AnalysisRepository interface {
	Create(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)
	ListByProject(ctx context.Context, projectID ProjectID, limit int) ([]*Analysis, error)
	LatestByProject(ctx context.Context, projectID ProjectID) (*Analysis, error)
}

// AdditionalInfoRepository port
type AdditionalInfoRepository interface {
	CreateBatch(ctx context.Context, items []*AdditionalInfo) error
	ListByProject(ctx context.Context, projectID ProjectID) ([]*AdditionalInfo, error)
}
