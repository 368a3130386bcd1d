package sink

import (
	"context"
	"fmt"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// ClaimsSink refreshes the identity-claims snapshot served to OIDC clients.
type ClaimsSink struct {
	claims ports.ClaimsService
	store  ports.ClaimsStore
}

func NewClaimsSink(claims ports.ClaimsService, store ports.ClaimsStore) *ClaimsSink {
	return &ClaimsSink{claims: claims, store: store}
}

func (s *ClaimsSink) Name() string { return domain.SinkClaims }

func (s *ClaimsSink) OnProfileSaved(ctx context.Context, p *domain.Profile) error {
	if err := s.store.Put(ctx, p.ID, s.claims.Build(p)); err != nil {
		return fmt.Errorf("store claims: %w", err)
	}
	return nil
}

func (s *ClaimsSink) OnProfileDeleted(ctx context.Context, profileID string) error {
	if err := s.store.Delete(ctx, profileID); err != nil {
		return fmt.Errorf("drop claims: %w", err)
	}
	return nil
}
