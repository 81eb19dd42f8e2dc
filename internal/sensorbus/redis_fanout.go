package sensorbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/hublog"
)

func unixNsToTime(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// busChannel is the Redis pub/sub channel multi-instance deployments use to
// replicate sensor updates across processes; a single Bus instance only
// ever holds responses observed by monitors running in its own process, so
// instances must relay their UpdateLatest calls to their peers.
const busChannel = "hub:sensorbus:updates"

// RedisFanout mirrors UpdateLatest calls to and from other hub instances
// sharing one Redis deployment, matching the teacher's EventEngine
// Publish/Subscribe contract (system/core/interfaces.go) with a concrete
// go-redis backend instead of a pluggable ledger/queue engine.
type RedisFanout struct {
	client *redis.Client
	bus    *Bus
	log    *hublog.Logger
}

// NewRedisFanout wires bus to a Redis pub/sub channel: local UpdateLatest
// calls are published for peers, and messages published by peers are
// applied locally without triggering another round of publication.
func NewRedisFanout(client *redis.Client, bus *Bus, log *hublog.Logger) *RedisFanout {
	f := &RedisFanout{client: client, bus: bus, log: log}
	bus.OnUpdate(f.publish)
	return f
}

type wireResponse struct {
	IntegrationID   string `json:"integration_id"`
	IntegrationName string `json:"integration_name"`
	Value           string `json:"value"`
	TimestampUnixNs int64  `json:"timestamp_unix_ns"`
}

func (f *RedisFanout) publish(applied map[entity.IntegrationKey]entity.SensorResponse) {
	ctx := context.Background()
	payload := make([]wireResponse, 0, len(applied))
	for key, resp := range applied {
		payload = append(payload, wireResponse{
			IntegrationID:   key.IntegrationID,
			IntegrationName: key.IntegrationName,
			Value:           resp.Value,
			TimestampUnixNs: resp.Timestamp.UnixNano(),
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		f.log.WithError(err).Warn("sensorbus: failed to marshal fanout payload")
		return
	}
	if err := f.client.Publish(ctx, busChannel, data).Err(); err != nil {
		f.log.WithError(err).Warn("sensorbus: failed to publish fanout update")
	}
}

// Run subscribes to the shared channel and applies peer updates to bus
// until ctx is cancelled. Intended to run in its own goroutine for the
// lifetime of the service.
func (f *RedisFanout) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, busChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.applyRemote(msg.Payload)
		}
	}
}

func (f *RedisFanout) applyRemote(payload string) {
	var wire []wireResponse
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		f.log.WithError(err).Warn("sensorbus: failed to unmarshal fanout payload")
		return
	}
	responses := make(map[entity.IntegrationKey]entity.SensorResponse, len(wire))
	for _, w := range wire {
		key := entity.IntegrationKey{IntegrationID: w.IntegrationID, IntegrationName: w.IntegrationName}
		responses[key] = entity.SensorResponse{
			IntegrationKey: key,
			Value:          w.Value,
			Timestamp:      unixNsToTime(w.TimestampUnixNs),
		}
	}
	f.bus.applyRemote(responses)
}
