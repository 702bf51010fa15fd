package team

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the user has no profile yet.
var ErrNotFound = errors.New("team profile not found")

// Filter narrows a profile browse. Empty fields do not constrain.
type Filter struct {
	Skills       []string // any of
	Industry     string
	Role         string
	Location     string
	Availability string
	Search       string // substring of name or bio
	ExcludeEmail string
	Limit        int
}

// Repository port for team profiles
type Repository interface {
	Upsert(ctx context.Context, p *Profile) error
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Search(ctx context.Context, f Filter) ([]*Profile, error)
}
