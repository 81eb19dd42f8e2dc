// Package store defines the Domain Model Store (C1): transactional CRUD for
// entities, states, sensors, controllers, delegations, and attribute
// history, plus the post-commit change broadcast every mutation must
// trigger exactly once.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/hearthkeep/hub/domain/entity"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateEntry is returned when a write violates a uniqueness
// constraint, notably (integration_id, integration_name).
var ErrDuplicateEntry = errors.New("store: duplicate entry")

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, letting store methods
// run standalone or as part of a caller-managed transaction.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Transactor starts a transaction; only the postgres store implements it,
// memstore does not.
type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ChangeListener is invoked exactly once after a mutating transaction
// commits, regardless of how many rows were touched inside it. Spec §4.1's
// single required side effect of C1.
type ChangeListener func()

// EntityStore is the transactional CRUD surface for §3's data model. Postgres
// additionally implements Transactor for callers that need a raw handle;
// memstore does not, since RunInTx already gives every caller a consistent
// transactional view without one.
type EntityStore interface {
	CreateEntity(ctx context.Context, exec Querier, e *entity.Entity) error
	GetEntity(ctx context.Context, exec Querier, id string) (*entity.Entity, error)
	GetEntityByIntegrationKey(ctx context.Context, exec Querier, key entity.IntegrationKey) (*entity.Entity, error)
	UpdateEntity(ctx context.Context, exec Querier, e *entity.Entity) error
	DeleteEntity(ctx context.Context, exec Querier, id string) error
	ListEntitiesByIntegration(ctx context.Context, exec Querier, integrationID string) ([]*entity.Entity, error)

	CreateState(ctx context.Context, exec Querier, s *entity.State) error
	GetState(ctx context.Context, exec Querier, id string) (*entity.State, error)
	UpdateState(ctx context.Context, exec Querier, s *entity.State) error
	DeleteState(ctx context.Context, exec Querier, id string) error
	ListStatesByEntity(ctx context.Context, exec Querier, entityID string) ([]*entity.State, error)

	CreateSensor(ctx context.Context, exec Querier, s *entity.Sensor) error
	DeleteSensor(ctx context.Context, exec Querier, id string) error
	ListSensorsByState(ctx context.Context, exec Querier, stateID string) ([]*entity.Sensor, error)
	ListAllSensors(ctx context.Context, exec Querier) ([]*entity.Sensor, error)

	CreateController(ctx context.Context, exec Querier, c *entity.Controller) error
	DeleteController(ctx context.Context, exec Querier, id string) error
	ListControllersByState(ctx context.Context, exec Querier, stateID string) ([]*entity.Controller, error)

	CreateDelegation(ctx context.Context, exec Querier, d *entity.Delegation) error
	DeleteDelegation(ctx context.Context, exec Querier, id string) error
	ListDelegationsByPrincipalState(ctx context.Context, exec Querier, stateID string) ([]*entity.Delegation, error)
	ListDelegationsByDelegateEntity(ctx context.Context, exec Querier, entityID string) ([]*entity.Delegation, error)

	AppendAttributeHistory(ctx context.Context, exec Querier, a *entity.Attribute) error
	ListAttributeHistory(ctx context.Context, exec Querier, entityID, name string) ([]*entity.Attribute, error)

	AddViewMembership(ctx context.Context, exec Querier, entityID, viewID string) error
	RemoveViewMembership(ctx context.Context, exec Querier, entityID, viewID string) error
	ListViewMembershipsByEntity(ctx context.Context, exec Querier, entityID string) ([]string, error)

	HealthCheck(ctx context.Context) error
}

// ChangeBroadcaster is embedded by store implementations that support the
// post-commit reload() callback list.
type ChangeBroadcaster interface {
	OnChange(listener ChangeListener)
	RunInTx(ctx context.Context, fn func(exec Querier) error) error
}

// Store is the full C1 surface: transactional CRUD plus the change
// broadcast registration used by C2/C5/C8.
type Store interface {
	EntityStore
	ChangeBroadcaster
}
