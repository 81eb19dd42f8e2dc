package postgres

import (
	"context"
	"database/sql"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/store"
)

type attributeRow struct {
	ID        string       `db:"id"`
	EntityID  string       `db:"entity_id"`
	Name      string       `db:"name"`
	Value     string       `db:"value"`
	IsSecret  bool         `db:"is_secret"`
	CreatedAt sql.NullTime `db:"created_at"`
}

func (r attributeRow) toDomain() *entity.Attribute {
	a := &entity.Attribute{
		ID:       r.ID,
		EntityID: r.EntityID,
		Name:     r.Name,
		Value:    r.Value,
		IsSecret: r.IsSecret,
	}
	if r.CreatedAt.Valid {
		a.CreatedAt = r.CreatedAt.Time
	}
	return a
}

// AppendAttributeHistory inserts a new attribute value. Attribute history is
// append-only: no update or delete path is exposed, matching the audit trail
// requirement on secret and non-secret integration attributes alike.
func (s *Store) AppendAttributeHistory(ctx context.Context, exec store.Querier, a *entity.Attribute) error {
	row := attributeRow{
		ID:        a.ID,
		EntityID:  a.EntityID,
		Name:      a.Name,
		Value:     a.Value,
		IsSecret:  a.IsSecret,
		CreatedAt: sql.NullTime{Time: a.CreatedAt, Valid: !a.CreatedAt.IsZero()},
	}
	const q = `INSERT INTO attribute_history (id, entity_id, name, value, is_secret, created_at)
		VALUES (:id, :entity_id, :name, :value, :is_secret, :created_at)`
	if _, err := exec.NamedExecContext(ctx, q, row); err != nil {
		return errs.StorageError("append_attribute_history", err)
	}
	return nil
}

func (s *Store) ListAttributeHistory(ctx context.Context, exec store.Querier, entityID, name string) ([]*entity.Attribute, error) {
	var rows []attributeRow
	const q = `SELECT id, entity_id, name, value, is_secret, created_at FROM attribute_history
		WHERE entity_id = $1 AND name = $2 ORDER BY created_at ASC`
	if err := exec.SelectContext(ctx, &rows, q, entityID, name); err != nil {
		return nil, errs.StorageError("list_attribute_history", err)
	}
	out := make([]*entity.Attribute, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
