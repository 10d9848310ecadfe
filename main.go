package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"greencorridor/corridor"
	"greencorridor/data"
	"greencorridor/dispatch"
	"greencorridor/driver"
	"greencorridor/match"
	"greencorridor/routing"
	"greencorridor/server"
	"greencorridor/sim"
	"greencorridor/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	osrmURL := flag.String("osrm", "", "OSRM base URL, e.g. https://router.project-osrm.org (empty = synthetic routing)")
	osrmTimeout := flag.Duration("osrm_timeout", 5*time.Second, "routing provider request timeout")
	tick := flag.Duration("tick", sim.DefaultTickInterval, "movement simulation tick interval")
	buffer := flag.Float64("corridor_buffer", corridor.DefaultBufferM, "signal capture radius around route waypoints, meters")
	logLevel := flag.String("log_level", "info", "log level: debug, info, warn, error")
	headless := flag.Int("emergencies", 0, "run headless with this many emergencies instead of serving (0 = serve)")
	seed := flag.Int64("seed", 0, "headless run RNG seed (0 = time-based)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	}

	if *headless > 0 {
		_, err := driver.Run(driver.Options{
			Emergencies:     *headless,
			TickInterval:    *tick,
			CorridorBufferM: *buffer,
			OSRMBaseURL:     *osrmURL,
			Seed:            *seed,
		}, log)
		if err != nil {
			log.WithError(err).Fatal("headless run failed")
		}
		return
	}

	st := store.NewMemoryStore()
	st.Seed(data.Ambulances(), data.Hospitals(), data.Signals())

	planner := routing.New(*osrmURL, *osrmTimeout, log)
	matcher := match.New(st, log)
	corridors := corridor.NewManager(st, *buffer, log)
	simulator := sim.New(st, *tick, log)
	orch := dispatch.New(st, matcher, planner, corridors, simulator, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go orch.Run(ctx)

	srv := server.New(*addr, st, orch, corridors, log)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.WithError(err).Fatal("server exited")
	}
	log.Info("shutdown complete")
}
