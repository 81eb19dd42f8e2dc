package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/internal/aggregate"
)

func TestSunriseSunsetSourceParsesTimesIntoLocalZone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": {
				"sunrise": "2026-08-01T11:55:20+00:00",
				"sunset": "2026-08-02T02:30:10+00:00",
				"solar_noon": "2026-08-01T19:12:45+00:00",
				"civil_twilight_begin": "2026-08-01T11:25:00+00:00",
				"civil_twilight_end": "2026-08-02T03:00:30+00:00"
			},
			"status": "OK"
		}`))
	}))
	defer server.Close()

	loc, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	source := NewSunriseSunsetSource(server.Client(), 39.7, -104.9, loc)
	source.baseURL = *serverURL
	source.baseURL.Path = "/json"
	source.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, loc) }

	rec, err := source.fetchDay(context.Background(), source.now())
	require.NoError(t, err)

	sunrise := rec.GetField("sunrise")
	require.NotNil(t, sunrise)
	require.Equal(t, aggregate.KindTimeOfDay, sunrise.Kind)
	// 2026-08-01T11:55:20Z converted into America/Denver (UTC-6 in August).
	require.Equal(t, 5, sunrise.TimeValue.Hour())
	require.Equal(t, 55, sunrise.TimeValue.Minute())

	sunset := rec.GetField("sunset")
	require.NotNil(t, sunset)
	require.Equal(t, 20, sunset.TimeValue.Hour())
}

func TestSunriseSunsetSourceFetchReturnsErrorWhenStatusNotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": {}, "status": "INVALID_REQUEST"}`))
	}))
	defer server.Close()

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	source := NewSunriseSunsetSource(server.Client(), 39.7, -104.9, time.UTC)
	source.baseURL = *serverURL
	source.daysAhead = 1

	_, err = source.Fetch(context.Background())
	require.Error(t, err, "every day failing to parse must surface as a Fetch error")
}
