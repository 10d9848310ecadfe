package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	polyline "github.com/twpayne/go-polyline"

	"greencorridor/geo"
)

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	deccan   = geo.Position{Lat: 18.5158, Lng: 73.8413}
	rubyHall = geo.Position{Lat: 18.5362, Lng: 73.8777}
)

// osrmStub answers /route/v1/driving requests with a fixed geometry.
func osrmStub(t *testing.T, coords [][]float64, distance, duration float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		resp := map[string]any{
			"code": "Ok",
			"routes": []map[string]any{{
				"geometry": string(polyline.EncodeCoords(coords)),
				"distance": distance,
				"duration": duration,
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestComputeRouteFromProvider(t *testing.T) {
	coords := [][]float64{
		{deccan.Lat, deccan.Lng},
		{18.5224, 73.8478},
		{rubyHall.Lat, rubyHall.Lng},
	}
	srv := osrmStub(t, coords, 4800, 540)
	defer srv.Close()

	p := New(srv.URL, time.Second, quietLog())
	route := p.ComputeRoute(context.Background(), deccan, rubyHall)

	require.Len(t, route.Waypoints, 3)
	assert.InDelta(t, deccan.Lat, route.Start().Lat, 1e-4)
	assert.InDelta(t, rubyHall.Lng, route.End().Lng, 1e-4)
	assert.Equal(t, 4800.0, route.DistanceM)
	assert.Equal(t, 540.0, route.DurationS)
}

func TestComputeRouteFallsBackWhenProviderUnreachable(t *testing.T) {
	// Reserved TEST-NET address; connection fails immediately or times out.
	p := New("http://192.0.2.1:9999", 100*time.Millisecond, quietLog())
	route := p.ComputeRoute(context.Background(), deccan, rubyHall)

	require.Len(t, route.Waypoints, 3)
	assert.Equal(t, deccan, route.Start())
	assert.Equal(t, rubyHall, route.End())
	assert.Equal(t, geo.Midpoint(deccan, rubyHall), route.Waypoints[1])
}

func TestComputeRouteFallsBackOnProviderError(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"http 500":  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) },
		"no routes": func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"code":"NoRoute","routes":[]}`) },
		"bad json":  func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "not json") },
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			p := New(srv.URL, time.Second, quietLog())
			route := p.ComputeRoute(context.Background(), deccan, rubyHall)
			require.Len(t, route.Waypoints, 3)
			assert.Equal(t, geo.Midpoint(deccan, rubyHall), route.Waypoints[1])
		})
	}
}

func TestSyntheticRouteDeterministic(t *testing.T) {
	a := SyntheticRoute(deccan, rubyHall)
	b := SyntheticRoute(deccan, rubyHall)
	assert.Equal(t, a, b, "same inputs always yield the identical route")

	distKm := geo.DistanceKm(deccan, rubyHall)
	assert.InDelta(t, distKm*1000, a.DistanceM, distKm*10, "distance within 1% of great-circle")
	assert.InDelta(t, distKm/FallbackSpeedKmh*3600, a.DurationS, 1e-9)
}

func TestSyntheticRouteDegeneratePair(t *testing.T) {
	r := SyntheticRoute(deccan, deccan)
	require.Len(t, r.Waypoints, 3)
	assert.Zero(t, r.DistanceM)
	assert.Zero(t, r.DurationS)
}
