// Package weather implements the Data-Source Registry (C10): a thin
// prioritized fan-in of vendor weather APIs into the five granularities of
// C9 aggregation, per spec §4.10.
package weather

import "github.com/hearthkeep/hub/internal/aggregate"

// CurrentConditionsRecord holds the present-moment reading set, aggregated
// at whatever interval length the registry's current-conditions engine
// uses (typically hourly).
type CurrentConditionsRecord struct {
	temperature *aggregate.DataPoint
	humidity    *aggregate.DataPoint
	windSpeed   *aggregate.DataPoint
	condition   *aggregate.DataPoint
}

func NewCurrentConditionsRecord() *CurrentConditionsRecord { return &CurrentConditionsRecord{} }

func (r *CurrentConditionsRecord) FieldNames() []string {
	return []string{"temperature", "humidity", "wind_speed", "condition"}
}

func (r *CurrentConditionsRecord) GetField(name string) *aggregate.DataPoint {
	switch name {
	case "temperature":
		return r.temperature
	case "humidity":
		return r.humidity
	case "wind_speed":
		return r.windSpeed
	case "condition":
		return r.condition
	default:
		return nil
	}
}

func (r *CurrentConditionsRecord) SetField(name string, dp *aggregate.DataPoint) {
	switch name {
	case "temperature":
		r.temperature = dp
	case "humidity":
		r.humidity = dp
	case "wind_speed":
		r.windSpeed = dp
	case "condition":
		r.condition = dp
	}
}

// ForecastRecord is shared by the hourly and daily forecast granularities:
// both carry a temperature range, a precipitation chance, and a condition
// label, differing only in the interval length the registry aggregates
// them at.
type ForecastRecord struct {
	highTemperature         *aggregate.DataPoint
	lowTemperature          *aggregate.DataPoint
	precipitationProbability *aggregate.DataPoint
	condition               *aggregate.DataPoint
}

func NewForecastRecord() *ForecastRecord { return &ForecastRecord{} }

func (r *ForecastRecord) FieldNames() []string {
	return []string{"high_temperature", "low_temperature", "precipitation_probability", "condition"}
}

func (r *ForecastRecord) GetField(name string) *aggregate.DataPoint {
	switch name {
	case "high_temperature":
		return r.highTemperature
	case "low_temperature":
		return r.lowTemperature
	case "precipitation_probability":
		return r.precipitationProbability
	case "condition":
		return r.condition
	default:
		return nil
	}
}

func (r *ForecastRecord) SetField(name string, dp *aggregate.DataPoint) {
	switch name {
	case "high_temperature":
		r.highTemperature = dp
	case "low_temperature":
		r.lowTemperature = dp
	case "precipitation_probability":
		r.precipitationProbability = dp
	case "condition":
		r.condition = dp
	}
}

// AstronomicalRecord carries the sun-position time-of-day fields sourced
// from providers like sunrise-sunset.org and the US Naval Observatory.
type AstronomicalRecord struct {
	sunrise            *aggregate.DataPoint
	sunset             *aggregate.DataPoint
	solarNoon          *aggregate.DataPoint
	civilTwilightBegin *aggregate.DataPoint
	civilTwilightEnd   *aggregate.DataPoint
}

func NewAstronomicalRecord() *AstronomicalRecord { return &AstronomicalRecord{} }

func (r *AstronomicalRecord) FieldNames() []string {
	return []string{"sunrise", "sunset", "solar_noon", "civil_twilight_begin", "civil_twilight_end"}
}

func (r *AstronomicalRecord) GetField(name string) *aggregate.DataPoint {
	switch name {
	case "sunrise":
		return r.sunrise
	case "sunset":
		return r.sunset
	case "solar_noon":
		return r.solarNoon
	case "civil_twilight_begin":
		return r.civilTwilightBegin
	case "civil_twilight_end":
		return r.civilTwilightEnd
	default:
		return nil
	}
}

func (r *AstronomicalRecord) SetField(name string, dp *aggregate.DataPoint) {
	switch name {
	case "sunrise":
		r.sunrise = dp
	case "sunset":
		r.sunset = dp
	case "solar_noon":
		r.solarNoon = dp
	case "civil_twilight_begin":
		r.civilTwilightBegin = dp
	case "civil_twilight_end":
		r.civilTwilightEnd = dp
	}
}

// DailyHistoryRecord carries the prior day's observed extremes, the only
// granularity that looks backward rather than forward.
type DailyHistoryRecord struct {
	highTemperature   *aggregate.DataPoint
	lowTemperature    *aggregate.DataPoint
	totalPrecipitation *aggregate.DataPoint
	averageHumidity   *aggregate.DataPoint
}

func NewDailyHistoryRecord() *DailyHistoryRecord { return &DailyHistoryRecord{} }

func (r *DailyHistoryRecord) FieldNames() []string {
	return []string{"high_temperature", "low_temperature", "total_precipitation", "average_humidity"}
}

func (r *DailyHistoryRecord) GetField(name string) *aggregate.DataPoint {
	switch name {
	case "high_temperature":
		return r.highTemperature
	case "low_temperature":
		return r.lowTemperature
	case "total_precipitation":
		return r.totalPrecipitation
	case "average_humidity":
		return r.averageHumidity
	default:
		return nil
	}
}

func (r *DailyHistoryRecord) SetField(name string, dp *aggregate.DataPoint) {
	switch name {
	case "high_temperature":
		r.highTemperature = dp
	case "low_temperature":
		r.lowTemperature = dp
	case "total_precipitation":
		r.totalPrecipitation = dp
	case "average_humidity":
		r.averageHumidity = dp
	}
}
