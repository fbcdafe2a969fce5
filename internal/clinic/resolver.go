package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// vetLookup is one strategy for finding the vet record behind an
// authenticated user.
type vetLookup func(ctx context.Context, repo Repository, userID uuid.UUID, email string) (*Vet, error)

// VetResolver maps a caller identity to its vet record by trying an
// ordered list of strategies: the user foreign key first, then an email
// match. The first hit wins.
type VetResolver struct {
	repo       Repository
	strategies []vetLookup
}

func NewVetResolver(repo Repository) *VetResolver {
	return &VetResolver{
		repo: repo,
		strategies: []vetLookup{
			byForeignKey,
			byEmailMatch,
		},
	}
}

func (r *VetResolver) Resolve(ctx context.Context, userID uuid.UUID, email string) (*Vet, error) {
	for _, lookup := range r.strategies {
		vet, err := lookup(ctx, r.repo, userID, email)
		if err != nil {
			if errors.Is(err, ErrVetNotFound) {
				continue
			}
			return nil, err
		}
		return vet, nil
	}
	return nil, ErrVetNotFound
}

func byForeignKey(ctx context.Context, repo Repository, userID uuid.UUID, _ string) (*Vet, error) {
	if userID == uuid.Nil {
		return nil, ErrVetNotFound
	}
	return repo.GetVetByUserID(ctx, userID)
}

func byEmailMatch(ctx context.Context, repo Repository, _ uuid.UUID, email string) (*Vet, error) {
	if email == "" {
		return nil, ErrVetNotFound
	}
	return repo.GetVetByEmail(ctx, email)
}
