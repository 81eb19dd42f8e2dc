package postgres

import (
	"context"
	"database/sql"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/store"
)

type entityRow struct {
	ID              string       `db:"id"`
	Name            string       `db:"name"`
	EntityType      string       `db:"entity_type"`
	CanUserDelete   bool         `db:"can_user_delete"`
	IntegrationID   string       `db:"integration_id"`
	IntegrationName string       `db:"integration_name"`
	CreatedAt       sql.NullTime `db:"created_at"`
	UpdatedAt       sql.NullTime `db:"updated_at"`
}

func (r entityRow) toDomain() *entity.Entity {
	e := &entity.Entity{
		ID:            r.ID,
		Name:          r.Name,
		EntityType:    entity.Type(r.EntityType),
		CanUserDelete: r.CanUserDelete,
		IntegrationKey: entity.IntegrationKey{
			IntegrationID:   r.IntegrationID,
			IntegrationName: r.IntegrationName,
		},
	}
	if r.CreatedAt.Valid {
		e.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		e.UpdatedAt = r.UpdatedAt.Time
	}
	return e
}

func fromDomainEntity(e *entity.Entity) entityRow {
	return entityRow{
		ID:              e.ID,
		Name:            e.Name,
		EntityType:      string(e.EntityType),
		CanUserDelete:   e.CanUserDelete,
		IntegrationID:   e.IntegrationID,
		IntegrationName: e.IntegrationName,
		CreatedAt:       sql.NullTime{Time: e.CreatedAt, Valid: !e.CreatedAt.IsZero()},
		UpdatedAt:       sql.NullTime{Time: e.UpdatedAt, Valid: !e.UpdatedAt.IsZero()},
	}
}

func (s *Store) CreateEntity(ctx context.Context, exec store.Querier, e *entity.Entity) error {
	const q = `INSERT INTO entities (id, name, entity_type, can_user_delete, integration_id, integration_name, created_at, updated_at)
		VALUES (:id, :name, :entity_type, :can_user_delete, :integration_id, :integration_name, :created_at, :updated_at)`
	_, err := exec.NamedExecContext(ctx, q, fromDomainEntity(e))
	if err != nil {
		if translated := translatePQError(err); translated == store.ErrDuplicateEntry {
			return errs.ConflictError("integration key already in use").
				WithDetails("integration_id", e.IntegrationID).
				WithDetails("integration_name", e.IntegrationName)
		}
		return errs.StorageError("create_entity", err)
	}
	return nil
}

func (s *Store) GetEntity(ctx context.Context, exec store.Querier, id string) (*entity.Entity, error) {
	var row entityRow
	const q = `SELECT id, name, entity_type, can_user_delete, integration_id, integration_name, created_at, updated_at
		FROM entities WHERE id = $1`
	if err := exec.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, errs.StorageError("get_entity", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetEntityByIntegrationKey(ctx context.Context, exec store.Querier, key entity.IntegrationKey) (*entity.Entity, error) {
	var row entityRow
	const q = `SELECT id, name, entity_type, can_user_delete, integration_id, integration_name, created_at, updated_at
		FROM entities WHERE integration_id = $1 AND integration_name = $2`
	if err := exec.GetContext(ctx, &row, q, key.IntegrationID, key.IntegrationName); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, errs.StorageError("get_entity_by_key", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateEntity(ctx context.Context, exec store.Querier, e *entity.Entity) error {
	const q = `UPDATE entities SET name = :name, entity_type = :entity_type,
		can_user_delete = :can_user_delete, updated_at = :updated_at WHERE id = :id`
	result, err := exec.NamedExecContext(ctx, q, fromDomainEntity(e))
	return rowsAffectedOrNotFound(result, err)
}

func (s *Store) DeleteEntity(ctx context.Context, exec store.Querier, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM entities WHERE id = $1`, id)
	return rowsAffectedOrNotFound(result, err)
}

func (s *Store) ListEntitiesByIntegration(ctx context.Context, exec store.Querier, integrationID string) ([]*entity.Entity, error) {
	var rows []entityRow
	const q = `SELECT id, name, entity_type, can_user_delete, integration_id, integration_name, created_at, updated_at
		FROM entities WHERE integration_id = $1 ORDER BY name ASC`
	if err := exec.SelectContext(ctx, &rows, q, integrationID); err != nil {
		return nil, errs.StorageError("list_entities_by_integration", err)
	}
	out := make([]*entity.Entity, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) AddViewMembership(ctx context.Context, exec store.Querier, entityID, viewID string) error {
	const q = `INSERT INTO entity_view_memberships (entity_id, view_id) VALUES ($1, $2)
		ON CONFLICT (entity_id, view_id) DO NOTHING`
	_, err := exec.ExecContext(ctx, q, entityID, viewID)
	if err != nil {
		return errs.StorageError("add_view_membership", err)
	}
	return nil
}

func (s *Store) RemoveViewMembership(ctx context.Context, exec store.Querier, entityID, viewID string) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM entity_view_memberships WHERE entity_id = $1 AND view_id = $2`, entityID, viewID)
	if err != nil {
		return errs.StorageError("remove_view_membership", err)
	}
	return nil
}

func (s *Store) ListViewMembershipsByEntity(ctx context.Context, exec store.Querier, entityID string) ([]string, error) {
	var viewIDs []string
	const q = `SELECT view_id FROM entity_view_memberships WHERE entity_id = $1 ORDER BY view_id ASC`
	if err := exec.SelectContext(ctx, &viewIDs, q, entityID); err != nil {
		return nil, errs.StorageError("list_view_memberships_by_entity", err)
	}
	return viewIDs, nil
}
