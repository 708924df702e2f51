package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/metrics"
	"github.com/smartcity/commute/internal/route"
)

// DefaultDirectionsURL is the Google Directions JSON endpoint
const DefaultDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

// directionsResponse is the subset of the Google Directions answer we read
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []directionsLeg `json:"legs"`
	} `json:"routes"`
}

type directionsLeg struct {
	StartLocation     latLng     `json:"start_location"`
	EndLocation       latLng     `json:"end_location"`
	Distance          *textValue `json:"distance"`
	Duration          *textValue `json:"duration"`
	DurationInTraffic *textValue `json:"duration_in_traffic"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type textValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// DirectionsClient is a routing oracle backed by Google Directions
type DirectionsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewDirectionsClient creates a directions client limited to rps requests per second
func NewDirectionsClient(apiKey, baseURL string, rps float64, m *metrics.Metrics) *DirectionsClient {
	if baseURL == "" {
		baseURL = DefaultDirectionsURL
	}
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &DirectionsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		metrics: m,
		now:     time.Now,
	}
}

// Directions requests a traffic-aware driving route. Transport failures are
// ErrUpstreamUnavailable; a non-OK status is returned as-is for the summary
// builder to reject.
func (c *DirectionsClient) Directions(ctx context.Context, q route.DirectionsQuery) (out route.OracleResponse, err error) {
	if c.apiKey == "" {
		return route.OracleResponse{}, eris.Wrap(domain.ErrUpstreamUnavailable, "directions: api key not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return route.OracleResponse{}, eris.Wrapf(domain.ErrUpstreamUnavailable, "directions: rate limit: %v", err)
	}

	start := time.Now()
	defer func() { observeUpstream(c.metrics, "directions", start, err) }()

	params := url.Values{
		"origin":         {q.Origin},
		"destination":    {q.Destination},
		"mode":           {"driving"},
		"traffic_model":  {"best_guess"},
		"departure_time": {c.departureTime(q.DepartAt)},
		"key":            {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return route.OracleResponse{}, eris.Wrap(err, "directions: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return route.OracleResponse{}, eris.Wrapf(domain.ErrUpstreamUnavailable, "directions: request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return route.OracleResponse{}, eris.Wrapf(domain.ErrUpstreamUnavailable, "directions: returned status %d", resp.StatusCode)
	}

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return route.OracleResponse{}, eris.Wrapf(domain.ErrUpstreamUnavailable, "directions: parse response: %v", err)
	}

	return toOracleResponse(dr), nil
}

// departureTime must not be in the past for traffic-aware durations
func (c *DirectionsClient) departureTime(at time.Time) string {
	if at.IsZero() || at.Before(c.now()) {
		return "now"
	}
	return strconv.FormatInt(at.Unix(), 10)
}

func toOracleResponse(dr directionsResponse) route.OracleResponse {
	out := route.OracleResponse{Status: dr.Status}
	for _, r := range dr.Routes {
		or := route.OracleRoute{}
		for _, l := range r.Legs {
			leg := route.OracleLeg{
				Start: domain.GeoPoint{Lat: l.StartLocation.Lat, Lng: l.StartLocation.Lng},
				End:   domain.GeoPoint{Lat: l.EndLocation.Lat, Lng: l.EndLocation.Lng},
			}
			if l.Distance != nil {
				leg.DistanceMeters = l.Distance.Value
			}
			if l.Duration != nil {
				v := l.Duration.Value
				leg.DurationSeconds = &v
			}
			if l.DurationInTraffic != nil {
				v := l.DurationInTraffic.Value
				leg.DurationInTrafficSeconds = &v
			}
			or.Legs = append(or.Legs, leg)
		}
		out.Routes = append(out.Routes, or)
	}
	return out
}
