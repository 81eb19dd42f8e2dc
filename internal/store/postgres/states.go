package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/store"
)

type stateRow struct {
	ID          string `db:"id"`
	EntityID    string `db:"entity_id"`
	StateType   string `db:"state_type"`
	DisplayName string `db:"display_name"`
	ValueRange  []byte `db:"value_range"`
	Units       string `db:"units"`
}

func (r stateRow) toDomain() *entity.State {
	s := &entity.State{
		ID:          r.ID,
		EntityID:    r.EntityID,
		StateType:   entity.StateType(r.StateType),
		DisplayName: r.DisplayName,
		Units:       r.Units,
	}
	_ = json.Unmarshal(r.ValueRange, &s.ValueRange)
	return s
}

func (s *Store) CreateState(ctx context.Context, exec store.Querier, st *entity.State) error {
	valueRange, err := json.Marshal(st.ValueRange)
	if err != nil {
		return errs.BadInput("value_range", err.Error())
	}
	const q = `INSERT INTO entity_states (id, entity_id, state_type, display_name, value_range, units)
		VALUES (:id, :entity_id, :state_type, :display_name, :value_range, :units)`
	_, execErr := exec.NamedExecContext(ctx, q, stateRow{st.ID, st.EntityID, string(st.StateType), st.DisplayName, valueRange, st.Units})
	if execErr != nil {
		return errs.StorageError("create_state", execErr)
	}
	return nil
}

func (s *Store) UpdateState(ctx context.Context, exec store.Querier, st *entity.State) error {
	valueRange, err := json.Marshal(st.ValueRange)
	if err != nil {
		return errs.BadInput("value_range", err.Error())
	}
	const q = `UPDATE entity_states SET display_name = :display_name, value_range = :value_range, units = :units
		WHERE id = :id`
	result, execErr := exec.NamedExecContext(ctx, q, stateRow{st.ID, st.EntityID, string(st.StateType), st.DisplayName, valueRange, st.Units})
	return rowsAffectedOrNotFound(result, execErr)
}

func (s *Store) GetState(ctx context.Context, exec store.Querier, id string) (*entity.State, error) {
	var row stateRow
	const q = `SELECT id, entity_id, state_type, display_name, value_range, units FROM entity_states WHERE id = $1`
	if err := exec.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, errs.StorageError("get_state", err)
	}
	return row.toDomain(), nil
}

func (s *Store) DeleteState(ctx context.Context, exec store.Querier, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM entity_states WHERE id = $1`, id)
	return rowsAffectedOrNotFound(result, err)
}

func (s *Store) ListStatesByEntity(ctx context.Context, exec store.Querier, entityID string) ([]*entity.State, error) {
	var rows []stateRow
	const q = `SELECT id, entity_id, state_type, display_name, value_range, units FROM entity_states WHERE entity_id = $1`
	if err := exec.SelectContext(ctx, &rows, q, entityID); err != nil {
		return nil, errs.StorageError("list_states_by_entity", err)
	}
	out := make([]*entity.State, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

type sensorRow struct {
	ID              string `db:"id"`
	StateID         string `db:"state_id"`
	Name            string `db:"name"`
	IntegrationID   string `db:"integration_id"`
	IntegrationName string `db:"integration_name"`
}

func (r sensorRow) toDomain() *entity.Sensor {
	return &entity.Sensor{
		ID:      r.ID,
		StateID: r.StateID,
		Name:    r.Name,
		IntegrationKey: entity.IntegrationKey{
			IntegrationID:   r.IntegrationID,
			IntegrationName: r.IntegrationName,
		},
	}
}

func (s *Store) CreateSensor(ctx context.Context, exec store.Querier, sn *entity.Sensor) error {
	const q = `INSERT INTO sensors (id, state_id, name, integration_id, integration_name)
		VALUES (:id, :state_id, :name, :integration_id, :integration_name)`
	_, err := exec.NamedExecContext(ctx, q, sensorRow{sn.ID, sn.StateID, sn.Name, sn.IntegrationID, sn.IntegrationName})
	if err != nil {
		if translatePQError(err) == store.ErrDuplicateEntry {
			return errs.ConflictError("sensor integration key already in use")
		}
		return errs.StorageError("create_sensor", err)
	}
	return nil
}

func (s *Store) DeleteSensor(ctx context.Context, exec store.Querier, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM sensors WHERE id = $1`, id)
	return rowsAffectedOrNotFound(result, err)
}

func (s *Store) ListSensorsByState(ctx context.Context, exec store.Querier, stateID string) ([]*entity.Sensor, error) {
	var rows []sensorRow
	if err := exec.SelectContext(ctx, &rows, `SELECT id, state_id, name, integration_id, integration_name FROM sensors WHERE state_id = $1`, stateID); err != nil {
		return nil, errs.StorageError("list_sensors_by_state", err)
	}
	out := make([]*entity.Sensor, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) ListAllSensors(ctx context.Context, exec store.Querier) ([]*entity.Sensor, error) {
	var rows []sensorRow
	if err := exec.SelectContext(ctx, &rows, `SELECT id, state_id, name, integration_id, integration_name FROM sensors`); err != nil {
		return nil, errs.StorageError("list_all_sensors", err)
	}
	out := make([]*entity.Sensor, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

type controllerRow struct {
	ID              string `db:"id"`
	StateID         string `db:"state_id"`
	Name            string `db:"name"`
	Payload         []byte `db:"payload"`
	IntegrationID   string `db:"integration_id"`
	IntegrationName string `db:"integration_name"`
}

func (r controllerRow) toDomain() *entity.Controller {
	c := &entity.Controller{
		ID:      r.ID,
		StateID: r.StateID,
		Name:    r.Name,
		IntegrationKey: entity.IntegrationKey{
			IntegrationID:   r.IntegrationID,
			IntegrationName: r.IntegrationName,
		},
	}
	_ = json.Unmarshal(r.Payload, &c.Payload)
	return c
}

func (s *Store) CreateController(ctx context.Context, exec store.Querier, c *entity.Controller) error {
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return errs.BadInput("payload", err.Error())
	}
	const q = `INSERT INTO controllers (id, state_id, name, payload, integration_id, integration_name)
		VALUES (:id, :state_id, :name, :payload, :integration_id, :integration_name)`
	_, execErr := exec.NamedExecContext(ctx, q, controllerRow{c.ID, c.StateID, c.Name, payload, c.IntegrationID, c.IntegrationName})
	if execErr != nil {
		return errs.StorageError("create_controller", execErr)
	}
	return nil
}

func (s *Store) DeleteController(ctx context.Context, exec store.Querier, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM controllers WHERE id = $1`, id)
	return rowsAffectedOrNotFound(result, err)
}

func (s *Store) ListControllersByState(ctx context.Context, exec store.Querier, stateID string) ([]*entity.Controller, error) {
	var rows []controllerRow
	const q = `SELECT id, state_id, name, payload, integration_id, integration_name FROM controllers WHERE state_id = $1`
	if err := exec.SelectContext(ctx, &rows, q, stateID); err != nil {
		return nil, errs.StorageError("list_controllers_by_state", err)
	}
	out := make([]*entity.Controller, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
