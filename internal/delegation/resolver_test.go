package delegation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/store/memstore"
)

func seedMovementEntity(t *testing.T, st *memstore.Store, name string) *entity.Entity {
	t.Helper()
	ctx := context.Background()
	e := &entity.Entity{ID: "entity-" + name, Name: name, EntityType: entity.TypeSensor}
	require.NoError(t, st.CreateEntity(ctx, nil, e))
	s := &entity.State{ID: "state-" + name, EntityID: e.ID, StateType: entity.StateTypeMovement}
	require.NoError(t, st.CreateState(ctx, nil, s))
	return e
}

func TestEnsureDefaultDelegatesCreatesSingleAreaDelegate(t *testing.T) {
	st := memstore.New()
	e := seedMovementEntity(t, st, "hallway")
	r := New(st)

	require.NoError(t, r.EnsureDefaultDelegates(context.Background(), e.ID))

	delegates, err := r.GetDelegates(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, delegates, 1)
	require.Equal(t, entity.TypeArea, delegates[0].EntityType)
	require.Equal(t, "hallway - Area", delegates[0].Name)
}

func TestEnsureDefaultDelegatesIsIdempotent(t *testing.T) {
	st := memstore.New()
	e := seedMovementEntity(t, st, "hallway")
	r := New(st)

	require.NoError(t, r.EnsureDefaultDelegates(context.Background(), e.ID))
	require.NoError(t, r.EnsureDefaultDelegates(context.Background(), e.ID))

	delegates, err := r.GetDelegates(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, delegates, 1, "a second call must not create a duplicate delegate or delegation")
}

func TestEnsureDefaultDelegatesSharesOneDelegateAcrossStates(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	e := &entity.Entity{ID: "entity-multi", Name: "multi-sensor", EntityType: entity.TypeSensor}
	require.NoError(t, st.CreateEntity(ctx, nil, e))
	require.NoError(t, st.CreateState(ctx, nil, &entity.State{ID: "state-move", EntityID: e.ID, StateType: entity.StateTypeMovement}))
	require.NoError(t, st.CreateState(ctx, nil, &entity.State{ID: "state-presence", EntityID: e.ID, StateType: entity.StateTypePresence}))

	r := New(st)
	require.NoError(t, r.EnsureDefaultDelegates(ctx, e.ID))

	delegates, err := r.GetDelegates(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, delegates, 1, "movement and presence states share one AREA delegate")

	principals, err := r.GetPrincipals(ctx, delegates[0].ID)
	require.NoError(t, err)
	require.Len(t, principals, 1)
	require.Equal(t, e.ID, principals[0].ID)
}

func TestGetPrincipalsReturnsEmptyForUndelegatedEntity(t *testing.T) {
	st := memstore.New()
	e := seedMovementEntity(t, st, "lonely")
	r := New(st)

	principals, err := r.GetPrincipals(context.Background(), e.ID)
	require.NoError(t, err)
	require.Empty(t, principals)
}

func TestRemoveDelegatesFromViewIfOrphanedRemovesMembershipNotEntity(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	e := seedMovementEntity(t, st, "hallway")
	r := New(st)
	require.NoError(t, r.EnsureDefaultDelegates(ctx, e.ID))

	delegates, err := r.GetDelegates(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, delegates, 1)
	delegateID := delegates[0].ID

	require.NoError(t, st.AddViewMembership(ctx, nil, delegateID, "view-1"))
	require.NoError(t, r.RemoveDelegatesFromViewIfOrphaned(ctx, e.ID, "view-1"))

	memberships, err := st.ListViewMembershipsByEntity(ctx, nil, delegateID)
	require.NoError(t, err)
	require.Empty(t, memberships, "orphaned delegate loses the view membership")

	_, err = st.GetEntity(ctx, nil, delegateID)
	require.NoError(t, err, "the delegate entity itself must survive")
}

func TestRemoveDelegatesFromViewIfOrphanedKeepsMembershipWithOtherPrincipals(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	a := seedMovementEntity(t, st, "hallway")
	b := seedMovementEntity(t, st, "landing")
	r := New(st)

	require.NoError(t, r.EnsureDefaultDelegates(ctx, a.ID))
	delegatesA, err := r.GetDelegates(ctx, a.ID)
	require.NoError(t, err)
	delegateID := delegatesA[0].ID

	// Wire b's movement state to the same delegate directly, giving the
	// delegate two principals.
	states, err := st.ListStatesByEntity(ctx, nil, b.ID)
	require.NoError(t, err)
	require.NoError(t, st.CreateDelegation(ctx, nil, &entity.Delegation{
		ID:               "delegation-shared",
		PrincipalStateID: states[0].ID,
		DelegateEntityID: delegateID,
	}))

	require.NoError(t, st.AddViewMembership(ctx, nil, delegateID, "view-1"))
	require.NoError(t, r.RemoveDelegatesFromViewIfOrphaned(ctx, a.ID, "view-1"))

	memberships, err := st.ListViewMembershipsByEntity(ctx, nil, delegateID)
	require.NoError(t, err)
	require.Contains(t, memberships, "view-1", "delegate still has another principal, so the view membership survives")
}
