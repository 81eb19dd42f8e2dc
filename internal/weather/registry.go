package weather

import (
	"time"

	"github.com/hearthkeep/hub/internal/aggregate"
	"github.com/hearthkeep/hub/internal/lifecycle"
)

const (
	hourlyEngineWindow = 48 // hourly intervals kept live for current conditions/hourly forecast, from the current hour forward
	dailyEngineWindow  = 10 // daily intervals kept live: from today forward for daily forecast/astronomical, backward for daily history
)

// Registry owns the five granularity engines named in §4.10's
// "current-conditions, hourly forecast, daily forecast, astronomical,
// daily history" fan-in, plus the lifecycle.Service for every registered
// source feeding them.
type Registry struct {
	location *time.Location

	CurrentConditions *aggregate.Engine[*CurrentConditionsRecord]
	HourlyForecast    *aggregate.Engine[*ForecastRecord]
	DailyForecast     *aggregate.Engine[*ForecastRecord]
	Astronomical      *aggregate.Engine[*AstronomicalRecord]
	DailyHistory      *aggregate.Engine[*DailyHistoryRecord]

	services []lifecycle.Service
}

// NewRegistry builds the five engines aligned to loc's local time zone for
// the daily granularities.
func NewRegistry(loc *time.Location) *Registry {
	if loc == nil {
		loc = time.UTC
	}
	return &Registry{
		location:          loc,
		CurrentConditions: aggregate.NewEngine(time.Hour, hourlyEngineWindow, true, loc, NewCurrentConditionsRecord, nil),
		HourlyForecast:    aggregate.NewEngine(time.Hour, hourlyEngineWindow, true, loc, NewForecastRecord, nil),
		DailyForecast:     aggregate.NewEngine(24*time.Hour, dailyEngineWindow, true, loc, NewForecastRecord, nil),
		Astronomical:      aggregate.NewEngine(24*time.Hour, dailyEngineWindow, true, loc, NewAstronomicalRecord, nil),
		DailyHistory:      aggregate.NewEngine(24*time.Hour, dailyEngineWindow, false, loc, NewDailyHistoryRecord, nil),
	}
}

// RegisterCurrentConditions wires a current-conditions provider into the
// registry's fixed-interval fan-in.
func (reg *Registry) RegisterCurrentConditions(source aggregate.Source, interval time.Duration, fetch Fetcher[*CurrentConditionsRecord]) {
	reg.services = append(reg.services, NewRunner(source, interval, reg.CurrentConditions, fetch))
}

// RegisterHourlyForecast wires an hourly-forecast provider.
func (reg *Registry) RegisterHourlyForecast(source aggregate.Source, interval time.Duration, fetch Fetcher[*ForecastRecord]) {
	reg.services = append(reg.services, NewRunner(source, interval, reg.HourlyForecast, fetch))
}

// RegisterDailyForecast wires a daily-forecast provider.
func (reg *Registry) RegisterDailyForecast(source aggregate.Source, interval time.Duration, fetch Fetcher[*ForecastRecord]) {
	reg.services = append(reg.services, NewRunner(source, interval, reg.DailyForecast, fetch))
}

// RegisterAstronomical wires an astronomical (sunrise/sunset) provider.
func (reg *Registry) RegisterAstronomical(source aggregate.Source, interval time.Duration, fetch Fetcher[*AstronomicalRecord]) {
	reg.services = append(reg.services, NewRunner(source, interval, reg.Astronomical, fetch))
}

// RegisterDailyHistory wires a daily-history provider on the calendar-
// aligned DailyRunner rather than a fixed interval, since "yesterday's"
// summary is only meaningful once the local day has rolled over.
func (reg *Registry) RegisterDailyHistory(source aggregate.Source, fetch Fetcher[*DailyHistoryRecord]) {
	reg.services = append(reg.services, NewDailyRunner(source, reg.DailyHistory, fetch, reg.location))
}

// Services returns every registered source as a lifecycle.Service, for the
// process lifecycle manager to start and stop alongside integration
// monitors.
func (reg *Registry) Services() []lifecycle.Service {
	return append([]lifecycle.Service(nil), reg.services...)
}
