package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/hearthkeep/hub/internal/aggregate"
)

// sunriseSunsetOrgID matches the original provider's SOURCE_ID, kept as a
// literal so source priority/tiebreak behavior is reproducible.
const sunriseSunsetOrgID = "sunrise-sunset-org"

// sunriseSunsetFields maps each astronomical record field to the JSONPath
// expression that extracts it from the api.sunrise-sunset.org response
// body, which nests every field under "results".
var sunriseSunsetFields = map[string]string{
	"sunrise":              "$.results.sunrise",
	"sunset":               "$.results.sunset",
	"solar_noon":           "$.results.solar_noon",
	"civil_twilight_begin": "$.results.civil_twilight_begin",
	"civil_twilight_end":   "$.results.civil_twilight_end",
}

// SunriseSunsetSource fetches daily astronomical data for one location from
// api.sunrise-sunset.org, grounded on the original provider's days_count=10
// multi-day astronomical fetch.
type SunriseSunsetSource struct {
	httpClient *http.Client
	baseURL    url.URL
	latitude   float64
	longitude  float64
	location   *time.Location
	daysAhead  int
	now        func() time.Time
}

// NewSunriseSunsetSource builds a provider for the given coordinates,
// converting each day's UTC API times into loc-local civil times before
// they're stored, matching the original's local/UTC boundary handling.
func NewSunriseSunsetSource(httpClient *http.Client, latitude, longitude float64, loc *time.Location) *SunriseSunsetSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SunriseSunsetSource{
		httpClient: httpClient,
		baseURL:    url.URL{Scheme: "https", Host: "api.sunrise-sunset.org", Path: "/json"},
		latitude:   latitude,
		longitude:  longitude,
		location:   loc,
		daysAhead:  10,
		now:        time.Now,
	}
}

// Source returns this provider's priority declaration. Lower priority than
// a hypothetical NWS/Open-Meteo source, matching the original's comment
// ("Lower priority than NWS and OpenMeteo").
func (s *SunriseSunsetSource) Source() aggregate.Source {
	return aggregate.Source{ID: sunriseSunsetOrgID, Priority: 3}
}

// Fetch pulls daysAhead consecutive days of astronomical data, one interval
// per local day, per §4.10's "translates its vendor API response into
// IntervalData<E> records" contract.
func (s *SunriseSunsetSource) Fetch(ctx context.Context) ([]aggregate.SourceIntervalData[*AstronomicalRecord], error) {
	today := s.now().In(s.location)
	out := make([]aggregate.SourceIntervalData[*AstronomicalRecord], 0, s.daysAhead)

	for i := 0; i < s.daysAhead; i++ {
		day := today.AddDate(0, 0, i)
		rec, err := s.fetchDay(ctx, day)
		if err != nil {
			continue
		}
		localMidnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.location)
		out = append(out, aggregate.SourceIntervalData[*AstronomicalRecord]{
			Interval: aggregate.TimeInterval{
				Start: localMidnight.UTC(),
				End:   localMidnight.AddDate(0, 0, 1).UTC(),
			},
			Record: rec,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sunrise-sunset.org: no days fetched successfully")
	}
	return out, nil
}

func (s *SunriseSunsetSource) fetchDay(ctx context.Context, day time.Time) (*AstronomicalRecord, error) {
	u := s.baseURL
	q := u.Query()
	q.Set("lat", fmt.Sprintf("%f", s.latitude))
	q.Set("lng", fmt.Sprintf("%f", s.longitude))
	q.Set("date", day.Format("2006-01-02"))
	q.Set("formatted", "0")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding sunrise-sunset.org response: %w", err)
	}
	if status, _ := jsonpath.Get("$.status", parsed); status != "OK" {
		return nil, fmt.Errorf("sunrise-sunset.org API error: %v", status)
	}

	sourceDateTime := s.now()
	rec := NewAstronomicalRecord()
	for field, path := range sunriseSunsetFields {
		raw, err := jsonpath.Get(path, parsed)
		if err != nil {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			continue
		}
		utcTime, err := time.Parse(time.RFC3339, str)
		if err != nil {
			continue
		}
		rec.SetField(field, &aggregate.DataPoint{
			Kind:           aggregate.KindTimeOfDay,
			SourceDateTime: sourceDateTime,
			TimeValue:      utcTime.In(s.location),
		})
	}
	return rec, nil
}
