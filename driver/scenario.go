// Package driver runs the dispatch engine headless: it seeds the demo city,
// fires a batch of emergencies at random patient locations and runs the
// simulation fast-forward until every one completes, then prints a summary.
// Useful for exercising the full pipeline without the HTTP surface.
package driver

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"greencorridor/corridor"
	"greencorridor/data"
	"greencorridor/dispatch"
	"greencorridor/geo"
	"greencorridor/match"
	"greencorridor/model"
	"greencorridor/routing"
	"greencorridor/sim"
	"greencorridor/store"
)

// Options configures a headless run.
type Options struct {
	Emergencies     int           // number of dispatches to fire
	TickInterval    time.Duration // short intervals fast-forward the run
	CorridorBufferM float64
	OSRMBaseURL     string // empty means synthetic routing only
	Seed            int64
	Timeout         time.Duration
}

// Summary aggregates the outcome of one headless run.
type Summary struct {
	Dispatched    int
	Rejected      int
	Completed     int
	TotalKm       float64
	AvgETAMinutes float64
	SignalsHeld   int
}

// Patient locations are drawn from this box around central Pune, matching
// the seeded city.
const (
	latMin = 18.500
	latMax = 18.560
	lngMin = 73.800
	lngMax = 73.880
)

// Run executes the scenario and blocks until every dispatched emergency
// reaches a terminal phase or the timeout expires.
func Run(opt Options, log *logrus.Logger) (Summary, error) {
	if opt.Emergencies <= 0 {
		return Summary{}, fmt.Errorf("scenario driver requires -emergencies > 0")
	}
	if opt.TickInterval <= 0 {
		opt.TickInterval = 50 * time.Millisecond
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 2 * time.Minute
	}
	seed := opt.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	st := store.NewMemoryStore()
	st.Seed(data.Ambulances(), data.Hospitals(), data.Signals())

	planner := routing.New(opt.OSRMBaseURL, 3*time.Second, log)
	matcher := match.New(st, log)
	corridors := corridor.NewManager(st, opt.CorridorBufferM, log)
	simulator := sim.New(st, opt.TickInterval, log)
	orch := dispatch.New(st, matcher, planner, corridors, simulator, log)

	ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
	defer cancel()
	go orch.Run(ctx)

	events, unsubscribe := orch.Subscribe(256)
	defer unsubscribe()

	var sum Summary
	pending := make(map[string]struct{})
	queued := opt.Emergencies

	fire := func() {
		for queued > 0 {
			patient := geo.Position{
				Lat: latMin + rng.Float64()*(latMax-latMin),
				Lng: lngMin + rng.Float64()*(lngMax-lngMin),
			}
			em, err := orch.StartEmergency(ctx, dispatch.Request{
				PatientPos: patient,
				Priority:   model.PriorityUrgent,
			})
			if err != nil {
				// No free ambulance right now; retry when one completes.
				sum.Rejected++
				return
			}
			queued--
			sum.Dispatched++
			sum.TotalKm += em.DistanceKm
			sum.AvgETAMinutes += em.ETAMinutes
			if cor := corridors.ActiveCorridor(em.ID); cor != nil {
				sum.SignalsHeld += len(cor.SignalIDs)
			}
			pending[em.ID] = struct{}{}
		}
	}
	fire()

	for len(pending) > 0 || queued > 0 {
		select {
		case <-ctx.Done():
			return sum, fmt.Errorf("scenario timed out with %d emergencies unfinished", len(pending)+queued)
		case ev := <-events:
			pe, ok := ev.(dispatch.PhaseEvent)
			if !ok || !pe.Phase.Terminal() {
				continue
			}
			if _, tracked := pending[pe.EmergencyID]; !tracked {
				continue
			}
			delete(pending, pe.EmergencyID)
			if pe.Phase == model.PhaseCompleted {
				sum.Completed++
			}
			fire()
		}
	}

	if sum.Dispatched > 0 {
		sum.AvgETAMinutes /= float64(sum.Dispatched)
	}
	report(st, sum, seed)
	return sum, nil
}

func report(st *store.MemoryStore, sum Summary, seed int64) {
	fmt.Println("=== Dispatch Report (headless) ===")
	fmt.Printf("Seed: %d\n", seed)
	fmt.Printf("Emergencies dispatched: %d (rejected on first attempt: %d)\n", sum.Dispatched, sum.Rejected)
	fmt.Printf("Emergencies completed: %d\n", sum.Completed)
	fmt.Printf("Total routed distance: %.2f km\n", sum.TotalKm)
	fmt.Printf("Average ETA: %.1f minutes\n", sum.AvgETAMinutes)
	fmt.Printf("Corridor signal holds: %d\n", sum.SignalsHeld)

	greens, restores := 0, 0
	for _, e := range st.Events() {
		switch e.Type {
		case "corridor_signal_green":
			greens++
		case "corridor_signal_restored":
			restores++
		}
	}
	fmt.Printf("Signal transitions: %d green, %d restored\n", greens, restores)
}
