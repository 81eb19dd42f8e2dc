// Package memstore is an in-memory store.Store used by tests and by local
// development runs that don't want a PostgreSQL dependency. It keeps the
// same post-commit change broadcast contract as the postgres package: every
// mutating call through RunInTx fires registered listeners exactly once,
// after the in-memory "commit" has already taken effect.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/store"
)

// Store implements store.Store over in-process maps guarded by a single
// mutex. It has no real transactions: RunInTx runs fn directly against the
// store and broadcasts on success, rolling back nothing on failure because
// mutations are applied as they're called rather than staged.
type Store struct {
	mu sync.Mutex

	entities    map[string]*entity.Entity
	states      map[string]*entity.State
	sensors     map[string]*entity.Sensor
	controllers map[string]*entity.Controller
	delegations map[string]*entity.Delegation
	attributes  []*entity.Attribute
	views       map[string]map[string]bool // entityID -> set of viewID

	listeners []store.ChangeListener
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		entities:    make(map[string]*entity.Entity),
		states:      make(map[string]*entity.State),
		sensors:     make(map[string]*entity.Sensor),
		controllers: make(map[string]*entity.Controller),
		delegations: make(map[string]*entity.Delegation),
		views:       make(map[string]map[string]bool),
	}
}

func (s *Store) OnChange(listener store.ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Store) broadcast() {
	s.mu.Lock()
	listeners := append([]store.ChangeListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

// RunInTx runs fn with a nil Querier — memstore's methods ignore the exec
// argument and operate on the Store's own maps directly — then broadcasts
// on success. fn returning an error skips the broadcast; memstore offers no
// isolation between concurrent RunInTx calls beyond the single mutex each
// method takes internally.
func (s *Store) RunInTx(ctx context.Context, fn func(exec store.Querier) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	s.broadcast()
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

func clone[T any](v T) *T {
	c := v
	return &c
}

func (s *Store) CreateEntity(ctx context.Context, _ store.Querier, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	for _, existing := range s.entities {
		if !e.IntegrationKey.Empty() && existing.IntegrationKey == e.IntegrationKey {
			return errs.ConflictError("integration key already in use").
				WithDetails("integration_id", e.IntegrationID).
				WithDetails("integration_name", e.IntegrationName)
		}
	}
	s.entities[e.ID] = clone(*e)
	return nil
}

func (s *Store) GetEntity(ctx context.Context, _ store.Querier, id string) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(*e), nil
}

func (s *Store) GetEntityByIntegrationKey(ctx context.Context, _ store.Querier, key entity.IntegrationKey) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entities {
		if e.IntegrationKey == key {
			return clone(*e), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateEntity(ctx context.Context, _ store.Querier, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[e.ID]; !ok {
		return store.ErrNotFound
	}
	s.entities[e.ID] = clone(*e)
	return nil
}

func (s *Store) DeleteEntity(ctx context.Context, _ store.Querier, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.entities, id)
	delete(s.views, id)
	return nil
}

func (s *Store) ListEntitiesByIntegration(ctx context.Context, _ store.Querier, integrationID string) ([]*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Entity
	for _, e := range s.entities {
		if e.IntegrationID == integrationID {
			out = append(out, clone(*e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateState(ctx context.Context, _ store.Querier, st *entity.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.states[st.ID] = clone(*st)
	return nil
}

func (s *Store) UpdateState(ctx context.Context, _ store.Querier, st *entity.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[st.ID]; !ok {
		return store.ErrNotFound
	}
	s.states[st.ID] = clone(*st)
	return nil
}

func (s *Store) GetState(ctx context.Context, _ store.Querier, id string) (*entity.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(*st), nil
}

func (s *Store) DeleteState(ctx context.Context, _ store.Querier, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.states, id)
	return nil
}

func (s *Store) ListStatesByEntity(ctx context.Context, _ store.Querier, entityID string) ([]*entity.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.State
	for _, st := range s.states {
		if st.EntityID == entityID {
			out = append(out, clone(*st))
		}
	}
	return out, nil
}

func (s *Store) CreateSensor(ctx context.Context, _ store.Querier, sn *entity.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sn.ID == "" {
		sn.ID = uuid.NewString()
	}
	for _, existing := range s.sensors {
		if !sn.IntegrationKey.Empty() && existing.IntegrationKey == sn.IntegrationKey {
			return errs.ConflictError("sensor integration key already in use")
		}
	}
	s.sensors[sn.ID] = clone(*sn)
	return nil
}

func (s *Store) DeleteSensor(ctx context.Context, _ store.Querier, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sensors[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sensors, id)
	return nil
}

func (s *Store) ListSensorsByState(ctx context.Context, _ store.Querier, stateID string) ([]*entity.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Sensor
	for _, sn := range s.sensors {
		if sn.StateID == stateID {
			out = append(out, clone(*sn))
		}
	}
	return out, nil
}

func (s *Store) ListAllSensors(ctx context.Context, _ store.Querier) ([]*entity.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Sensor, 0, len(s.sensors))
	for _, sn := range s.sensors {
		out = append(out, clone(*sn))
	}
	return out, nil
}

func (s *Store) CreateController(ctx context.Context, _ store.Querier, c *entity.Controller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.controllers[c.ID] = clone(*c)
	return nil
}

func (s *Store) DeleteController(ctx context.Context, _ store.Querier, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.controllers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.controllers, id)
	return nil
}

func (s *Store) ListControllersByState(ctx context.Context, _ store.Querier, stateID string) ([]*entity.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Controller
	for _, c := range s.controllers {
		if c.StateID == stateID {
			out = append(out, clone(*c))
		}
	}
	return out, nil
}

func (s *Store) CreateDelegation(ctx context.Context, _ store.Querier, d *entity.Delegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	for _, existing := range s.delegations {
		if existing.PrincipalStateID == d.PrincipalStateID && existing.DelegateEntityID == d.DelegateEntityID {
			return errs.ConflictError("delegation already exists for this principal state and delegate entity")
		}
	}
	s.delegations[d.ID] = clone(*d)
	return nil
}

func (s *Store) DeleteDelegation(ctx context.Context, _ store.Querier, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.delegations[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.delegations, id)
	return nil
}

func (s *Store) ListDelegationsByPrincipalState(ctx context.Context, _ store.Querier, stateID string) ([]*entity.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Delegation
	for _, d := range s.delegations {
		if d.PrincipalStateID == stateID {
			out = append(out, clone(*d))
		}
	}
	return out, nil
}

func (s *Store) ListDelegationsByDelegateEntity(ctx context.Context, _ store.Querier, entityID string) ([]*entity.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Delegation
	for _, d := range s.delegations {
		if d.DelegateEntityID == entityID {
			out = append(out, clone(*d))
		}
	}
	return out, nil
}

func (s *Store) AppendAttributeHistory(ctx context.Context, _ store.Querier, a *entity.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.attributes = append(s.attributes, clone(*a))
	return nil
}

func (s *Store) ListAttributeHistory(ctx context.Context, _ store.Querier, entityID, name string) ([]*entity.Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Attribute
	for _, a := range s.attributes {
		if a.EntityID == entityID && a.Name == name {
			out = append(out, clone(*a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AddViewMembership(ctx context.Context, _ store.Querier, entityID, viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.views[entityID]
	if !ok {
		set = make(map[string]bool)
		s.views[entityID] = set
	}
	set[viewID] = true
	return nil
}

func (s *Store) RemoveViewMembership(ctx context.Context, _ store.Querier, entityID, viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views[entityID], viewID)
	return nil
}

func (s *Store) ListViewMembershipsByEntity(ctx context.Context, _ store.Querier, entityID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for viewID := range s.views[entityID] {
		out = append(out, viewID)
	}
	sort.Strings(out)
	return out, nil
}

var _ store.Store = (*Store)(nil)
