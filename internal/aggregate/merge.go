package aggregate

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// staleAfter is the age past which a source's most recent reading is no
// longer preferred purely on priority, per §4.9.
const staleAfter = 2 * time.Hour

// fieldContribution is one source's still-live DataPoints for a single
// field, across every source interval overlapping the aggregated interval.
type fieldContribution struct {
	source Source
	points []sourcePoint
}

type sourcePoint struct {
	interval TimeInterval
	point    DataPoint
}

func (fc fieldContribution) latest() time.Time {
	var latest time.Time
	for _, p := range fc.points {
		if p.point.SourceDateTime.After(latest) {
			latest = p.point.SourceDateTime
		}
	}
	return latest
}

// aggregatedInterval holds, for one TimeInterval, every source's
// contribution per field plus the currently aggregated record.
type aggregatedInterval[E Record] struct {
	interval TimeInterval
	record   E

	// fieldSources[fieldName][sourceID] = contribution
	fieldSources map[string]map[string]*fieldContribution
}

func newAggregatedInterval[E Record](iv TimeInterval, newRecord func() E) *aggregatedInterval[E] {
	rec := newRecord()
	fs := make(map[string]map[string]*fieldContribution, len(rec.FieldNames()))
	for _, name := range rec.FieldNames() {
		fs[name] = make(map[string]*fieldContribution)
	}
	return &aggregatedInterval[E]{interval: iv, record: rec, fieldSources: fs}
}

// addSourceData records source's DataPoints from sid into every field this
// interval tracks, keeping only points that actually overlap the interval.
func (a *aggregatedInterval[E]) addSourceData(source Source, sid SourceIntervalData[E]) {
	if !a.interval.Overlaps(sid.Interval) {
		return
	}
	for name, sources := range a.fieldSources {
		dp := sid.Record.GetField(name)
		if dp == nil {
			continue
		}
		fc, ok := sources[source.ID]
		if !ok {
			fc = &fieldContribution{source: source}
			sources[source.ID] = fc
		}
		fc.points = append(fc.points, sourcePoint{interval: sid.Interval, point: *dp})
	}
}

// reaggregate recomputes every field of a.record from its accumulated
// per-source contributions, per §4.9 phase 3.
func (a *aggregatedInterval[E]) reaggregate(now time.Time) {
	for name, sources := range a.fieldSources {
		best := bestSource(sources, now)
		if best == nil || len(best.points) == 0 {
			a.record.SetField(name, nil)
			continue
		}
		if len(best.points) == 1 {
			p := best.points[0].point
			a.record.SetField(name, &p)
			continue
		}
		merged := mergeByKind(a.interval, best.points)
		a.record.SetField(name, merged)
	}
}

// bestSource picks, among a field's contributing sources, the
// lowest-priority one whose most recent reading is fresh (< staleAfter
// old); if every source is stale, the freshest of them wins. Ties on
// priority or recency break by source ID for determinism.
func bestSource(sources map[string]*fieldContribution, now time.Time) *fieldContribution {
	var best *fieldContribution
	var bestStale *fieldContribution
	var bestStaleAge time.Duration

	for id, fc := range sources {
		if len(fc.points) == 0 {
			continue
		}
		age := now.Sub(fc.latest())
		if age < staleAfter {
			if best == nil ||
				fc.source.Priority < best.source.Priority ||
				(fc.source.Priority == best.source.Priority && id < best.source.ID) {
				best = fc
			}
			continue
		}
		if bestStale == nil || age < bestStaleAge ||
			(age == bestStaleAge && id < bestStale.source.ID) {
			bestStale = fc
			bestStaleAge = age
		}
	}
	if best != nil {
		return best
	}
	return bestStale
}

func mergeByKind(interval TimeInterval, points []sourcePoint) *DataPoint {
	switch points[0].point.Kind {
	case KindNumeric:
		return mergeNumeric(interval, points)
	case KindBoolean:
		return mergeBoolean(interval, points)
	case KindTimeOfDay:
		return mergeTimeOfDay(interval, points)
	default:
		return mergeString(interval, points)
	}
}

// mergeNumeric computes a time-weighted mean across overlapping points,
// weighting each by its source interval's overlap with the target
// interval, and tracks the min/max across every point's own range.
func mergeNumeric(interval TimeInterval, points []sourcePoint) *DataPoint {
	values := make([]float64, 0, len(points))
	weights := make([]float64, 0, len(points))
	var min, max *float64
	var units string
	var latest time.Time

	for _, p := range points {
		w := interval.OverlapSeconds(p.interval)
		if w <= 0 {
			continue
		}
		values = append(values, p.point.QuantityAve)
		weights = append(weights, w)
		if p.point.QuantityMin != nil && (min == nil || *p.point.QuantityMin < *min) {
			v := *p.point.QuantityMin
			min = &v
		}
		if p.point.QuantityMax != nil && (max == nil || *p.point.QuantityMax > *max) {
			v := *p.point.QuantityMax
			max = &v
		}
		units = p.point.Units
		if p.point.SourceDateTime.After(latest) {
			latest = p.point.SourceDateTime
		}
	}
	if len(values) == 0 {
		return nil
	}
	mean := stat.Mean(values, weights)
	return &DataPoint{
		Kind:           KindNumeric,
		SourceDateTime: latest,
		QuantityMin:    min,
		QuantityAve:    mean,
		QuantityMax:    max,
		Units:          units,
	}
}

// mergeBoolean picks the value with the greater total overlap duration;
// ties go to false.
func mergeBoolean(interval TimeInterval, points []sourcePoint) *DataPoint {
	var trueDur, falseDur float64
	var latest time.Time
	for _, p := range points {
		w := interval.OverlapSeconds(p.interval)
		if p.point.BoolValue {
			trueDur += w
		} else {
			falseDur += w
		}
		if p.point.SourceDateTime.After(latest) {
			latest = p.point.SourceDateTime
		}
	}
	return &DataPoint{
		Kind:           KindBoolean,
		SourceDateTime: latest,
		BoolValue:      trueDur > falseDur,
	}
}

// mergeTimeOfDay keeps the point with strictly the greatest overlap
// duration; the first point seen wins ties.
func mergeTimeOfDay(interval TimeInterval, points []sourcePoint) *DataPoint {
	best := points[0]
	bestDur := interval.OverlapSeconds(best.interval)
	for _, p := range points[1:] {
		d := interval.OverlapSeconds(p.interval)
		if d > bestDur {
			best = p
			bestDur = d
		}
	}
	out := best.point
	return &out
}

// mergeString uses the same longest-overlap-wins rule as mergeTimeOfDay.
func mergeString(interval TimeInterval, points []sourcePoint) *DataPoint {
	return mergeTimeOfDay(interval, points)
}
