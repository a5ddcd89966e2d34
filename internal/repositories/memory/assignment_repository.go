package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/polisgate/polisgate/internal/entities"
)

// AssignmentRepository is an in-memory role assignment store. Mutations are
// serialized per actor: a concurrent revoke-and-assign on the same actor
// cannot interleave, while different actors proceed without contention.
type AssignmentRepository struct {
	mu         sync.RWMutex
	byID       map[string]*entities.RoleAssignment
	byActor    map[string][]string
	byRole     map[string][]string
	actorLocks sync.Map // actorID -> *sync.Mutex
}

// NewAssignmentRepository creates an empty in-memory assignment store.
func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{
		byID:    make(map[string]*entities.RoleAssignment),
		byActor: make(map[string][]string),
		byRole:  make(map[string][]string),
	}
}

func (r *AssignmentRepository) actorLock(actorID string) *sync.Mutex {
	lock, _ := r.actorLocks.LoadOrStore(actorID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Get retrieves an assignment by id.
func (r *AssignmentRepository) Get(ctx context.Context, id string) (*entities.RoleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

// ListByActor returns every assignment for an actor, effective or not.
func (r *AssignmentRepository) ListByActor(ctx context.Context, actorID string) ([]*entities.RoleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byActor[actorID]
	out := make([]*entities.RoleAssignment, 0, len(ids))
	for _, id := range ids {
		copied := *r.byID[id]
		out = append(out, &copied)
	}
	return out, nil
}

// ListByRole returns every assignment referencing a role.
func (r *AssignmentRepository) ListByRole(ctx context.Context, roleID string) ([]*entities.RoleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byRole[roleID]
	out := make([]*entities.RoleAssignment, 0, len(ids))
	for _, id := range ids {
		copied := *r.byID[id]
		out = append(out, &copied)
	}
	return out, nil
}

// Create stores a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *entities.RoleAssignment) error {
	if assignment.ID == "" {
		return fmt.Errorf("assignment id is required")
	}
	lock := r.actorLock(assignment.ActorID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[assignment.ID]; exists {
		return fmt.Errorf("assignment %s already exists", assignment.ID)
	}
	copied := *assignment
	r.byID[assignment.ID] = &copied
	r.byActor[assignment.ActorID] = append(r.byActor[assignment.ActorID], assignment.ID)
	r.byRole[assignment.RoleID] = append(r.byRole[assignment.RoleID], assignment.ID)
	return nil
}

// Update replaces an existing assignment. Used for revocation; the record
// itself is never removed.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *entities.RoleAssignment) error {
	lock := r.actorLock(assignment.ActorID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[assignment.ID]; !ok {
		return fmt.Errorf("assignment %s not found", assignment.ID)
	}
	copied := *assignment
	r.byID[assignment.ID] = &copied
	return nil
}
