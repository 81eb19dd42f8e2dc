package postgres

import (
	"context"
	"database/sql"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/store"
)

type delegationRow struct {
	ID               string       `db:"id"`
	PrincipalStateID string       `db:"principal_state_id"`
	DelegateEntityID string       `db:"delegate_entity_id"`
	CreatedAt        sql.NullTime `db:"created_at"`
}

func (r delegationRow) toDomain() *entity.Delegation {
	d := &entity.Delegation{
		ID:               r.ID,
		PrincipalStateID: r.PrincipalStateID,
		DelegateEntityID: r.DelegateEntityID,
	}
	if r.CreatedAt.Valid {
		d.CreatedAt = r.CreatedAt.Time
	}
	return d
}

func (s *Store) CreateDelegation(ctx context.Context, exec store.Querier, d *entity.Delegation) error {
	row := delegationRow{
		ID:               d.ID,
		PrincipalStateID: d.PrincipalStateID,
		DelegateEntityID: d.DelegateEntityID,
		CreatedAt:        sql.NullTime{Time: d.CreatedAt, Valid: !d.CreatedAt.IsZero()},
	}
	const q = `INSERT INTO delegations (id, principal_state_id, delegate_entity_id, created_at)
		VALUES (:id, :principal_state_id, :delegate_entity_id, :created_at)`
	_, err := exec.NamedExecContext(ctx, q, row)
	if err != nil {
		if translatePQError(err) == store.ErrDuplicateEntry {
			return errs.ConflictError("delegation already exists for this principal state and delegate entity")
		}
		return errs.StorageError("create_delegation", err)
	}
	return nil
}

func (s *Store) DeleteDelegation(ctx context.Context, exec store.Querier, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM delegations WHERE id = $1`, id)
	return rowsAffectedOrNotFound(result, err)
}

func (s *Store) ListDelegationsByPrincipalState(ctx context.Context, exec store.Querier, stateID string) ([]*entity.Delegation, error) {
	var rows []delegationRow
	const q = `SELECT id, principal_state_id, delegate_entity_id, created_at FROM delegations WHERE principal_state_id = $1`
	if err := exec.SelectContext(ctx, &rows, q, stateID); err != nil {
		return nil, errs.StorageError("list_delegations_by_principal_state", err)
	}
	out := make([]*entity.Delegation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) ListDelegationsByDelegateEntity(ctx context.Context, exec store.Querier, entityID string) ([]*entity.Delegation, error) {
	var rows []delegationRow
	const q = `SELECT id, principal_state_id, delegate_entity_id, created_at FROM delegations WHERE delegate_entity_id = $1`
	if err := exec.SelectContext(ctx, &rows, q, entityID); err != nil {
		return nil, errs.StorageError("list_delegations_by_delegate_entity", err)
	}
	out := make([]*entity.Delegation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
