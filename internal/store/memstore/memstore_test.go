package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/store"
)

func TestCreateAndGetEntity(t *testing.T) {
	s := New()
	ctx := context.Background()

	e := &entity.Entity{
		Name:       "Kitchen Light",
		EntityType: entity.TypeLight,
		IntegrationKey: entity.IntegrationKey{
			IntegrationID:   "hass",
			IntegrationName: "light.kitchen",
		},
	}
	require.NoError(t, s.CreateEntity(ctx, nil, e))
	require.NotEmpty(t, e.ID)

	got, err := s.GetEntity(ctx, nil, e.ID)
	require.NoError(t, err)
	require.Equal(t, "Kitchen Light", got.Name)

	byKey, err := s.GetEntityByIntegrationKey(ctx, nil, e.IntegrationKey)
	require.NoError(t, err)
	require.Equal(t, e.ID, byKey.ID)
}

func TestCreateEntityDuplicateIntegrationKeyConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()

	key := entity.IntegrationKey{IntegrationID: "hass", IntegrationName: "light.kitchen"}
	require.NoError(t, s.CreateEntity(ctx, nil, &entity.Entity{Name: "A", IntegrationKey: key}))

	err := s.CreateEntity(ctx, nil, &entity.Entity{Name: "B", IntegrationKey: key})
	require.Error(t, err)
	he := errs.As(err)
	require.NotNil(t, he)
	require.Equal(t, errs.CodeConflictError, he.Code)
}

func TestGetEntityNotFound(t *testing.T) {
	s := New()
	_, err := s.GetEntity(context.Background(), nil, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteEntityClearsViewMemberships(t *testing.T) {
	s := New()
	ctx := context.Background()

	e := &entity.Entity{Name: "Area"}
	require.NoError(t, s.CreateEntity(ctx, nil, e))
	require.NoError(t, s.AddViewMembership(ctx, nil, e.ID, "view1"))
	require.NoError(t, s.DeleteEntity(ctx, nil, e.ID))

	_, err := s.GetEntity(ctx, nil, e.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	views, err := s.ListViewMembershipsByEntity(ctx, nil, e.ID)
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestRunInTxBroadcastsOnSuccessOnly(t *testing.T) {
	s := New()
	calls := 0
	s.OnChange(func() { calls++ })

	err := s.RunInTx(context.Background(), func(exec store.Querier) error {
		return s.CreateEntity(context.Background(), exec, &entity.Entity{Name: "X"})
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	err = s.RunInTx(context.Background(), func(exec store.Querier) error {
		return errs.BadInput("name", "required")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls, "a failed RunInTx must not broadcast")
}

func TestDelegationRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	principal := &entity.Entity{Name: "Sensor Entity"}
	require.NoError(t, s.CreateEntity(ctx, nil, principal))
	st := &entity.State{EntityID: principal.ID, StateType: entity.StateTypeMovement}
	require.NoError(t, s.CreateState(ctx, nil, st))

	delegate := &entity.Entity{Name: "Kitchen Area"}
	require.NoError(t, s.CreateEntity(ctx, nil, delegate))

	d := &entity.Delegation{PrincipalStateID: st.ID, DelegateEntityID: delegate.ID}
	require.NoError(t, s.CreateDelegation(ctx, nil, d))

	err := s.CreateDelegation(ctx, nil, &entity.Delegation{PrincipalStateID: st.ID, DelegateEntityID: delegate.ID})
	require.Error(t, err, "duplicate delegation edge should conflict")

	byPrincipal, err := s.ListDelegationsByPrincipalState(ctx, nil, st.ID)
	require.NoError(t, err)
	require.Len(t, byPrincipal, 1)
}
