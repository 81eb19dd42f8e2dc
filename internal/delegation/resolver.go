// Package delegation implements the Delegation Resolver (C8): computing
// principal/delegate closures over the Entity delegation graph and
// auto-creating default AREA delegates per §4.8.
package delegation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/store"
)

// typeLabels names the delegate entity type each default-delegate state
// type maps onto. Every entry in entity.DefaultDelegateTypes resolves to
// entity.TypeArea today; the label drives the generated delegate's name.
var typeLabels = map[entity.Type]string{
	entity.TypeArea: "Area",
}

// Resolver is the delegation graph's read/write surface.
type Resolver struct {
	store store.Store
}

// New builds a Resolver over st.
func New(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// GetDelegates returns the union, over every state of entityID, of the
// entities that state delegates to. Per §4.8; de-duplicated by entity id so
// a delegation cycle can never produce a repeated or runaway result.
func (r *Resolver) GetDelegates(ctx context.Context, entityID string) ([]*entity.Entity, error) {
	var out []*entity.Entity
	err := r.store.RunInTx(ctx, func(exec store.Querier) error {
		delegates, err := getDelegates(ctx, r.store, exec, entityID)
		out = delegates
		return err
	})
	return out, err
}

func getDelegates(ctx context.Context, st store.Store, exec store.Querier, entityID string) ([]*entity.Entity, error) {
	states, err := st.ListStatesByEntity(ctx, exec, entityID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{}
	var out []*entity.Entity
	for _, s := range states {
		delegations, err := st.ListDelegationsByPrincipalState(ctx, exec, s.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range delegations {
			if visited[d.DelegateEntityID] {
				continue
			}
			visited[d.DelegateEntityID] = true
			delegate, err := st.GetEntity(ctx, exec, d.DelegateEntityID)
			if err != nil {
				return nil, err
			}
			out = append(out, delegate)
		}
	}
	return out, nil
}

// GetPrincipals returns the union, over every delegation pointing at
// entityID, of the entity owning the delegated-from state. Per §4.8;
// de-duplicated the same way as GetDelegates.
func (r *Resolver) GetPrincipals(ctx context.Context, entityID string) ([]*entity.Entity, error) {
	var out []*entity.Entity
	err := r.store.RunInTx(ctx, func(exec store.Querier) error {
		principals, err := getPrincipals(ctx, r.store, exec, entityID)
		out = principals
		return err
	})
	return out, err
}

func getPrincipals(ctx context.Context, st store.Store, exec store.Querier, entityID string) ([]*entity.Entity, error) {
	delegations, err := st.ListDelegationsByDelegateEntity(ctx, exec, entityID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{}
	var out []*entity.Entity
	for _, d := range delegations {
		principalState, err := st.GetState(ctx, exec, d.PrincipalStateID)
		if err != nil {
			return nil, err
		}
		if visited[principalState.EntityID] {
			continue
		}
		visited[principalState.EntityID] = true
		principal, err := st.GetEntity(ctx, exec, principalState.EntityID)
		if err != nil {
			return nil, err
		}
		out = append(out, principal)
	}
	return out, nil
}

// EnsureDefaultDelegates implements §4.8's default delegate creation rule:
// for each state of entityID whose type is in entity.DefaultDelegateTypes
// and which lacks a delegate, reuse an existing default delegate already
// attached to one of this entity's other default-delegate states, or
// create one new AREA entity and wire every such state to it. Idempotent:
// calling it twice produces no additional rows (§8 property 2).
func (r *Resolver) EnsureDefaultDelegates(ctx context.Context, entityID string) error {
	return r.store.RunInTx(ctx, func(exec store.Querier) error {
		owner, err := r.store.GetEntity(ctx, exec, entityID)
		if err != nil {
			return err
		}
		states, err := r.store.ListStatesByEntity(ctx, exec, entityID)
		if err != nil {
			return err
		}

		var pending []*entity.State
		existingDelegateID := ""
		for _, s := range states {
			if !entity.DefaultDelegateTypes[s.StateType] {
				continue
			}
			delegations, err := r.store.ListDelegationsByPrincipalState(ctx, exec, s.ID)
			if err != nil {
				return err
			}
			if len(delegations) > 0 {
				existingDelegateID = delegations[0].DelegateEntityID
				continue
			}
			pending = append(pending, s)
		}
		if len(pending) == 0 {
			return nil
		}

		delegateID := existingDelegateID
		if delegateID == "" {
			delegateID = uuid.NewString()
			delegate := &entity.Entity{
				ID:            delegateID,
				Name:          owner.Name + " - " + typeLabels[entity.TypeArea],
				EntityType:    entity.TypeArea,
				CanUserDelete: true,
			}
			if err := r.store.CreateEntity(ctx, exec, delegate); err != nil {
				return err
			}
		}

		for _, s := range pending {
			d := &entity.Delegation{
				ID:               uuid.NewString(),
				PrincipalStateID: s.ID,
				DelegateEntityID: delegateID,
				CreatedAt:        time.Now().UTC(),
			}
			if err := r.store.CreateDelegation(ctx, exec, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveDelegatesFromViewIfOrphaned implements §4.8: for each delegate of
// entityID, if entityID is that delegate's sole principal, remove the
// delegate's membership in viewID. The delegate entity itself is never
// deleted here — other views may still reference it.
func (r *Resolver) RemoveDelegatesFromViewIfOrphaned(ctx context.Context, entityID, viewID string) error {
	return r.store.RunInTx(ctx, func(exec store.Querier) error {
		delegates, err := getDelegates(ctx, r.store, exec, entityID)
		if err != nil {
			return err
		}
		for _, delegate := range delegates {
			principals, err := getPrincipals(ctx, r.store, exec, delegate.ID)
			if err != nil {
				return err
			}
			if len(principals) != 1 || principals[0].ID != entityID {
				continue
			}
			if err := r.store.RemoveViewMembership(ctx, exec, delegate.ID, viewID); err != nil {
				return err
			}
		}
		return nil
	})
}
