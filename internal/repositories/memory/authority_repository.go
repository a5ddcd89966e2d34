package memory

import (
	"context"
	"sync"

	"github.com/polisgate/polisgate/internal/entities"
)

// AuthorityRepository is an in-memory store of monetary and territory
// authority records keyed by actor id.
type AuthorityRepository struct {
	mu        sync.RWMutex
	monetary  map[string]*entities.MonetaryAuthority
	territory map[string]*entities.TerritoryAuthority
}

// NewAuthorityRepository creates an empty in-memory authority store.
func NewAuthorityRepository() *AuthorityRepository {
	return &AuthorityRepository{
		monetary:  make(map[string]*entities.MonetaryAuthority),
		territory: make(map[string]*entities.TerritoryAuthority),
	}
}

// MonetaryAuthority returns the actor's monetary authority, or nil when
// none is configured.
func (r *AuthorityRepository) MonetaryAuthority(ctx context.Context, actorID string) (*entities.MonetaryAuthority, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.monetary[actorID]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

// TerritoryAuthority returns the actor's territory authority, or nil when
// none is configured.
func (r *AuthorityRepository) TerritoryAuthority(ctx context.Context, actorID string) (*entities.TerritoryAuthority, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.territory[actorID]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

// SetMonetaryAuthority upserts a monetary authority record.
func (r *AuthorityRepository) SetMonetaryAuthority(ctx context.Context, authority *entities.MonetaryAuthority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *authority
	r.monetary[authority.ActorID] = &copied
	return nil
}

// SetTerritoryAuthority upserts a territory authority record.
func (r *AuthorityRepository) SetTerritoryAuthority(ctx context.Context, authority *entities.TerritoryAuthority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *authority
	r.territory[authority.ActorID] = &copied
	return nil
}
