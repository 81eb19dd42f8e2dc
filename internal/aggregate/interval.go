package aggregate

import "time"

// TimeInterval is a half-open [Start, End) window used both as the key for
// an aggregated interval and to describe the window a source interval
// covers. Per §4.9, all interval math happens in UTC regardless of which
// truncation policy produced the boundaries.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two intervals share any non-zero duration.
func (t TimeInterval) Overlaps(o TimeInterval) bool {
	return t.Start.Before(o.End) && o.Start.Before(t.End)
}

// OverlapSeconds returns the duration, in seconds, that the two intervals
// share. Zero if they don't overlap.
func (t TimeInterval) OverlapSeconds(o TimeInterval) float64 {
	start := t.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := t.End
	if o.End.Before(end) {
		end = o.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Seconds()
}

// SourceIntervalData pairs one source's reading for one interval with the
// record carrying that reading's per-field DataPoints.
type SourceIntervalData[E Record] struct {
	Interval TimeInterval
	Record   E
}
