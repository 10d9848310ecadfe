// Package routing wraps an OSRM-compatible routing provider and supplies a
// deterministic synthetic fallback. A planner never surfaces a routing
// failure: the fallback is the terminal error boundary for this component.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	polyline "github.com/twpayne/go-polyline"

	"greencorridor/geo"
	"greencorridor/model"
)

// FallbackSpeedKmh is the average speed assumed when estimating the duration
// of a synthetic route.
const FallbackSpeedKmh = 50.0

// osrmResponse mirrors the subset of the OSRM route response the planner
// consumes. Geometry arrives as an encoded polyline in (lat,lng) pair order
// after decoding; the request URL itself uses the provider's lng,lat order.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Planner computes routes through the configured provider.
type Planner struct {
	baseURL string
	client  *http.Client
	log     *logrus.Entry
}

// New returns a planner against an OSRM-style endpoint, e.g.
// "https://router.project-osrm.org". The request timeout doubles as the
// provider-unreachable detector.
func New(baseURL string, timeout time.Duration, log *logrus.Logger) *Planner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Planner{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.WithField("component", "routing"),
	}
}

// ComputeRoute asks the provider for a driving route from start to end. On
// any provider error, timeout, or non-OK response it falls back to
// SyntheticRoute. The returned route always has at least two waypoints.
func (p *Planner) ComputeRoute(ctx context.Context, start, end geo.Position) *model.Route {
	route, err := p.queryProvider(ctx, start, end)
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"start": start, "end": end,
		}).Warn("provider route failed, using synthetic fallback")
		return SyntheticRoute(start, end)
	}
	return route
}

func (p *Planner) queryProvider(ctx context.Context, start, end geo.Position) (*model.Route, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("no provider configured")
	}
	// OSRM coordinate order is lng,lat.
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f",
		p.baseURL, start.Lng, start.Lat, end.Lng, end.Lat)
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("provider url: %w", err)
	}
	q := u.Query()
	q.Set("overview", "full")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("provider code %q with %d routes", body.Code, len(body.Routes))
	}

	best := body.Routes[0]
	coords, _, err := polyline.DecodeCoords([]byte(best.Geometry))
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("geometry has %d points", len(coords))
	}
	waypoints := make([]geo.Position, len(coords))
	for i, c := range coords {
		waypoints[i] = geo.Position{Lat: c[0], Lng: c[1]}
	}
	route, err := model.NewRoute(waypoints, best.Distance, best.Duration)
	if err != nil {
		return nil, err
	}
	return route, nil
}

// SyntheticRoute builds the deterministic 3-point fallback [start, midpoint,
// end] with straight-line distance and a duration estimated at
// FallbackSpeedKmh. It never fails for any pair of inputs.
func SyntheticRoute(start, end geo.Position) *model.Route {
	distKm := geo.DistanceKm(start, end)
	return &model.Route{
		Waypoints: []geo.Position{start, geo.Midpoint(start, end), end},
		DistanceM: distKm * 1000,
		DurationS: distKm / FallbackSpeedKmh * 3600,
	}
}
