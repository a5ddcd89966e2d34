package repositories

import (
	"context"

	"github.com/polisgate/polisgate/internal/entities"
)

// AuthorityRepository defines read access to the domain authority records
// consulted by the validation overlay. Both getters return nil without
// error when no record is configured for the actor.
type AuthorityRepository interface {
	MonetaryAuthority(ctx context.Context, actorID string) (*entities.MonetaryAuthority, error)
	TerritoryAuthority(ctx context.Context, actorID string) (*entities.TerritoryAuthority, error)

	// SetMonetaryAuthority and SetTerritoryAuthority upsert authority
	// records; used by administrative tooling and fixtures.
	SetMonetaryAuthority(ctx context.Context, authority *entities.MonetaryAuthority) error
	SetTerritoryAuthority(ctx context.Context, authority *entities.TerritoryAuthority) error
}
