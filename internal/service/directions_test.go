package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/route"
)

const directionsOK = `{
	"status": "OK",
	"routes": [{
		"legs": [{
			"start_location": {"lat": 41.8719, "lng": -87.6492},
			"end_location": {"lat": 41.8796, "lng": -87.6237},
			"distance": {"text": "2.4 mi", "value": 3862},
			"duration": {"text": "11 mins", "value": 660},
			"duration_in_traffic": {"text": "14 mins", "value": 840}
		}]
	}]
}`

func TestDirectionsClient_Directions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "UIC Student Center East", q.Get("origin"))
		assert.Equal(t, "The Art Institute of Chicago", q.Get("destination"))
		assert.Equal(t, "driving", q.Get("mode"))
		assert.Equal(t, "best_guess", q.Get("traffic_model"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "now", q.Get("departure_time"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, directionsOK)
	}))
	defer srv.Close()

	c := NewDirectionsClient("test-key", srv.URL, 100, nil)
	resp, err := c.Directions(context.Background(), route.DirectionsQuery{
		Origin:      "UIC Student Center East",
		Destination: "The Art Institute of Chicago",
	})
	require.NoError(t, err)

	assert.Equal(t, "OK", resp.Status)
	require.Len(t, resp.Routes, 1)
	require.Len(t, resp.Routes[0].Legs, 1)
	leg := resp.Routes[0].Legs[0]
	assert.Equal(t, domain.GeoPoint{Lat: 41.8719, Lng: -87.6492}, leg.Start)
	assert.Equal(t, 3862.0, leg.DistanceMeters)
	require.NotNil(t, leg.DurationInTrafficSeconds)
	assert.Equal(t, 840.0, *leg.DurationInTrafficSeconds)

	s, err := route.BuildSummary(resp)
	require.NoError(t, err)
	assert.InDelta(t, 2.4, s.LengthMiles, 0.01)
	assert.Equal(t, domain.East, s.Cardinal)
	assert.InDelta(t, 14.0, *s.ReferenceMinutes, 1e-9)
}

func TestDirectionsClient_FutureDeparture(t *testing.T) {
	depart := time.Date(2030, 1, 2, 8, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1893573000", r.URL.Query().Get("departure_time"))
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "routes": []}`)
	}))
	defer srv.Close()

	c := NewDirectionsClient("k", srv.URL, 100, nil)
	c.now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }

	resp, err := c.Directions(context.Background(), route.DirectionsQuery{Origin: "a", Destination: "b", DepartAt: depart})
	require.NoError(t, err)
	assert.Equal(t, "ZERO_RESULTS", resp.Status)

	_, err = route.BuildSummary(resp)
	assert.True(t, errors.Is(err, domain.ErrRouteUnavailable))
}

func TestDirectionsClient_Failures(t *testing.T) {
	_, err := NewDirectionsClient("", "", 1, nil).Directions(context.Background(), route.DirectionsQuery{})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err = NewDirectionsClient("k", srv.URL, 100, nil).Directions(context.Background(), route.DirectionsQuery{})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}
