package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/eventhook"
	"github.com/hearthkeep/hub/internal/hublog"
	"github.com/hearthkeep/hub/internal/integration"
	"github.com/hearthkeep/hub/internal/store"
)

// ProcessingResult is returned by Sync; per §4.5 the engine never raises for
// per-device issues, accumulating them here instead.
type ProcessingResult struct {
	Messages []string
	Errors   []string
}

func (r *ProcessingResult) logMessage(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *ProcessingResult) logError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// exclusionLock serializes syncs per integration id: one synchronization in
// flight at a time per integration, per §4.5.
type exclusionLock struct {
	mu    sync.Mutex
	perID map[string]*sync.Mutex
}

func newExclusionLock() *exclusionLock {
	return &exclusionLock{perID: make(map[string]*sync.Mutex)}
}

func (l *exclusionLock) lockFor(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.perID[id]
	if !ok {
		m = &sync.Mutex{}
		l.perID[id] = m
	}
	return m
}

// Options controls per-integration sync behavior set by its configuration
// attributes.
type Options struct {
	// AddAlarmEvents mirrors the integration's "add alarm events" flag
	// (§4.5): when set, alarmable binary-sensor device classes get an
	// additional predefined attribute recording the hook so downstream
	// event wiring (out of this core's scope) can discover them.
	AddAlarmEvents bool
}

// Engine is the Sync Engine (C5).
type Engine struct {
	store store.Store
	log   *hublog.Logger
	locks *exclusionLock
}

// New builds a Sync Engine over st, logging through log.
func New(st store.Store, log *hublog.Logger) *Engine {
	return &Engine{store: st, log: log, locks: newExclusionLock()}
}

// Sync reconciles integrationID's remote model, fetched via client, into the
// local store. Serialized per integration id.
func (e *Engine) Sync(ctx context.Context, integrationID string, client integration.RemoteClient, opts Options) (*ProcessingResult, error) {
	lock := e.locks.lockFor(integrationID)
	lock.Lock()
	defer lock.Unlock()

	result := &ProcessingResult{}

	remoteStates, err := client.States(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: fetch remote states: %w", err)
	}

	groups := groupRemoteStates(remoteStates)

	var created, updated, removed, failed int
	txErr := e.store.RunInTx(ctx, func(exec store.Querier) error {
		existing, err := e.store.ListEntitiesByIntegration(ctx, exec, integrationID)
		if err != nil {
			return err
		}
		existingByKey := make(map[string]*entity.Entity, len(existing))
		for _, ent := range existing {
			existingByKey[ent.IntegrationName] = ent
		}

		seen := make(map[string]bool, len(groups))
		for _, g := range groups {
			seen[g.Key] = true
			if localEnt, ok := existingByKey[g.Key]; ok {
				if err := e.reconcileDevice(ctx, exec, localEnt, g, opts, result); err != nil {
					failed++
					result.logError("reconcile %s: %v", g.displayName(), err)
					continue
				}
				updated++
				continue
			}
			if err := e.createDevice(ctx, exec, integrationID, g, opts, result); err != nil {
				failed++
				result.logError("create %s: %v", g.displayName(), err)
				continue
			}
			created++
		}

		for key, localEnt := range existingByKey {
			if seen[key] {
				continue
			}
			deleted, err := e.reapIfOrphaned(ctx, exec, localEnt, result)
			if err != nil {
				failed++
				result.logError("evaluate removal of %s: %v", localEnt.Name, err)
				continue
			}
			if deleted {
				removed++
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("sync: apply diff: %w", txErr)
	}

	e.log.LogSync(ctx, integrationID, created, updated, removed, failed)
	return result, nil
}

func (e *Engine) createDevice(ctx context.Context, exec store.Querier, integrationID string, g DeviceGroup, opts Options, result *ProcessingResult) error {
	ent := &entity.Entity{
		ID:            uuid.NewString(),
		Name:          g.displayName(),
		EntityType:    entityTypeFor(g),
		CanUserDelete: false,
		IntegrationKey: entity.IntegrationKey{
			IntegrationID:   integrationID,
			IntegrationName: g.Key,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := e.store.CreateEntity(ctx, exec, ent); err != nil {
		return err
	}

	for _, s := range g.States {
		if err := e.createState(ctx, exec, ent.ID, s, opts); err != nil {
			return err
		}
	}

	result.logMessage("Created Home Assistant entity: %s", ent.Name)
	return nil
}

func (e *Engine) createState(ctx context.Context, exec store.Querier, entityID string, s parsedState, opts Options) error {
	st := &entity.State{
		ID:          uuid.NewString(),
		EntityID:    entityID,
		StateType:   stateTypeFor(s),
		DisplayName: s.Name,
		ValueRange:  entity.ValueRange{Kind: entity.ValueRangeFreeForm},
	}
	if err := e.store.CreateState(ctx, exec, st); err != nil {
		return err
	}

	key := entity.IntegrationKey{IntegrationID: "hass", IntegrationName: s.EntityID}
	sensor := &entity.Sensor{ID: uuid.NewString(), StateID: st.ID, Name: s.Name, IntegrationKey: key}
	if err := e.store.CreateSensor(ctx, exec, sensor); err != nil {
		return err
	}

	if controllableDomains[s.Domain] {
		ctrl := &entity.Controller{
			ID:             uuid.NewString(),
			StateID:        st.ID,
			Name:           s.Name,
			Payload:        controllerPayload(s.Domain),
			IntegrationKey: key,
		}
		if err := e.store.CreateController(ctx, exec, ctrl); err != nil {
			return err
		}
	}

	if opts.AddAlarmEvents && isAlarmable(s) {
		if err := e.registerAlarmEventHook(ctx, exec, entityID, s, result); err != nil {
			return err
		}
	}
	return nil
}

// registerAlarmEventHook compiles the device class's JS trigger condition
// with goja and, if it's well-formed, persists it as the entity's
// alarm_event_hook attribute. A compile failure is logged into result
// rather than returned, matching the engine's per-device error policy; a
// malformed hook shouldn't fail the whole sync.
func (e *Engine) registerAlarmEventHook(ctx context.Context, exec store.Querier, entityID string, s parsedState, result *ProcessingResult) error {
	deviceClass := s.Attributes["device_class"]
	condition, ok := eventhook.ConditionFor(deviceClass)
	if !ok {
		return nil
	}
	if err := eventhook.Validate(condition); err != nil {
		result.logError("register event hook for %s: %v", s.Name, err)
		return nil
	}

	if fired, err := eventhook.Evaluate(condition, map[string]any{"value": s.State, "device_class": deviceClass}); err == nil && fired {
		result.logMessage("alarm event hook for %s triggered on initial sync", s.Name)
	}

	attr := &entity.Attribute{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		Name:      "alarm_event_hook",
		Value:     condition,
		CreatedAt: time.Now(),
	}
	return e.store.AppendAttributeHistory(ctx, exec, attr)
}

// reconcileDevice adds sensors/controllers for newly reported states and
// removes those no longer present; it does not rewrite values, which flow
// through the sensor response bus instead of the store.
func (e *Engine) reconcileDevice(ctx context.Context, exec store.Querier, ent *entity.Entity, g DeviceGroup, opts Options, result *ProcessingResult) error {
	existingStates, err := e.store.ListStatesByEntity(ctx, exec, ent.ID)
	if err != nil {
		return err
	}

	byRemoteKey := make(map[string]*entity.State, len(existingStates))
	for _, st := range existingStates {
		sensors, err := e.store.ListSensorsByState(ctx, exec, st.ID)
		if err != nil {
			return err
		}
		for _, sensor := range sensors {
			byRemoteKey[sensor.IntegrationName] = st
		}
	}

	seenRemote := make(map[string]bool, len(g.States))
	for _, s := range g.States {
		seenRemote[s.EntityID] = true
		if _, ok := byRemoteKey[s.EntityID]; ok {
			continue
		}
		if err := e.createState(ctx, exec, ent.ID, s, opts); err != nil {
			return err
		}
	}

	for remoteKey, st := range byRemoteKey {
		if seenRemote[remoteKey] {
			continue
		}
		if err := e.store.DeleteState(ctx, exec, st.ID); err != nil {
			return err
		}
	}

	wantType := entityTypeFor(g)
	wantName := g.displayName()
	if ent.EntityType != wantType || ent.Name != wantName {
		ent.EntityType = wantType
		ent.Name = wantName
		ent.UpdatedAt = time.Now()
		if err := e.store.UpdateEntity(ctx, exec, ent); err != nil {
			return err
		}
	}

	return nil
}

// reapIfOrphaned applies §4.5's intelligent-deletion rule: an entity no
// longer reported by the remote survives if the user attached any
// relationship the sync engine did not itself create.
func (e *Engine) reapIfOrphaned(ctx context.Context, exec store.Querier, ent *entity.Entity, result *ProcessingResult) (bool, error) {
	viewIDs, err := e.store.ListViewMembershipsByEntity(ctx, exec, ent.ID)
	if err != nil {
		return false, err
	}
	ent.ViewIDs = viewIDs

	delegations, err := e.store.ListDelegationsByDelegateEntity(ctx, exec, ent.ID)
	if err != nil {
		return false, err
	}
	hasDelegationEdge := len(delegations) > 0

	if ent.HasUserAddedRelationships(hasDelegationEdge) {
		result.logMessage("Preserving %s: no longer reported but has user-added relationships", ent.Name)
		return false, nil
	}

	if err := e.store.DeleteEntity(ctx, exec, ent.ID); err != nil {
		return false, err
	}
	result.logMessage("Removing %s: no longer reported by integration", ent.Name)
	return true, nil
}
