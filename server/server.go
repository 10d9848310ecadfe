// Package server exposes the dispatch engine over HTTP: a small REST surface
// for control and inspection, and a websocket feed mirroring the live event
// stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"greencorridor/corridor"
	"greencorridor/dispatch"
	"greencorridor/model"
	"greencorridor/sim"
	"greencorridor/store"
)

// Server binds the HTTP routes to the orchestrator and store.
type Server struct {
	addr      string
	store     store.Store
	dispatch  *dispatch.Orchestrator
	corridors *corridor.Manager
	log       *logrus.Entry

	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// New builds the router. Call ListenAndServe to start serving.
func New(addr string, st store.Store, d *dispatch.Orchestrator, c *corridor.Manager, log *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		addr:      addr,
		store:     st,
		dispatch:  d,
		corridors: c,
		log:       log.WithField("component", "server"),
		engine:    gin.New(),
		upgrader: websocket.Upgrader{
			// Demo deployment serves a local dashboard; skip origin checks.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.requestLog())

	api := s.engine.Group("/api")
	{
		api.POST("/emergencies", s.startEmergency)
		api.DELETE("/emergencies/:id", s.endEmergency)
		api.GET("/emergencies", s.listEmergencies)
		api.GET("/emergencies/:id", s.getEmergency)
		api.GET("/ambulances", s.listAmbulances)
		api.GET("/hospitals", s.listHospitals)
		api.GET("/signals", s.listSignals)
	}
	s.engine.GET("/ws", s.eventSocket)
	s.engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

// ListenAndServe blocks until the context is cancelled or the listener
// fails, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithField("addr", s.addr).Info("listening")

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) startEmergency(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	em, err := s.dispatch.StartEmergency(c.Request.Context(), req)
	switch {
	case errors.Is(err, model.ErrResourceUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, em)
	}
}

func (s *Server) endEmergency(c *gin.Context) {
	// Ending is idempotent, so unknown and finished ids answer the same way.
	s.dispatch.EndEmergency(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) getEmergency(c *gin.Context) {
	em, err := s.store.GetEmergency(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{"emergency": em}
	if cor := s.corridors.ActiveCorridor(em.ID); cor != nil {
		resp["corridor"] = cor
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listEmergencies(c *gin.Context) {
	ems, err := s.store.ListEmergencies()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emergencies": ems})
}

func (s *Server) listAmbulances(c *gin.Context) {
	ambs, err := s.store.ListAmbulances()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ambulances": ambs})
}

func (s *Server) listHospitals(c *gin.Context) {
	hosps, err := s.store.ListHospitals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospitals": hosps})
}

func (s *Server) listSignals(c *gin.Context) {
	sigs, err := s.store.ListSignals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": sigs})
}

// eventSocket streams orchestrator events as JSON frames. Each connection
// gets its own subscription; a slow reader drops frames instead of stalling
// the dispatcher.
func (s *Server) eventSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := s.dispatch.Subscribe(128)
	defer cancel()

	// Reader goroutine exists only to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev := <-events:
			frame := gin.H{"type": eventName(ev), "data": ev}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}

func eventName(ev any) string {
	switch ev.(type) {
	case dispatch.PhaseEvent:
		return "phase"
	case sim.PositionEvent:
		return "position"
	case sim.MovementStartedEvent:
		return "movement_started"
	case sim.MovementStoppedEvent:
		return "movement_stopped"
	case sim.LegCompletedEvent:
		return "leg_completed"
	default:
		return "event"
	}
}
