package dashapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Satyasy/smart-home-recognition-iot/internal/devices"
	"github.com/Satyasy/smart-home-recognition-iot/internal/orchestrator"
	"github.com/Satyasy/smart-home-recognition-iot/internal/state"
)

// Server is the HTTP surface the browser dashboard talks to: snapshot and
// log reads, command posts, a websocket push channel and /metrics.
type Server struct {
	cfg     Config
	store   *state.Store
	orch    *orchestrator.Orchestrator
	backend *devices.Backend
	hub     *Hub
	srv     *http.Server
}

func New(cfg Config, st *state.Store, orch *orchestrator.Orchestrator, backend *devices.Backend, hub *Hub) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		orch:    orch,
		backend: backend,
		hub:     hub,
	}
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.cfg.Debug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if s.cfg.BasicAuth {
		userdb := make(map[string]string)
		for _, v := range s.cfg.Users {
			userdb[v.User] = v.Password
		}
		r.Use(middleware.BasicAuth(s.cfg.ServerName, userdb))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.apiStateGet)
		r.Get("/logs", s.apiLogsGet)
		r.Get("/health", s.apiHealthGet)

		r.Route("/door", func(r chi.Router) {
			r.Post("/unlock", s.apiDoorUnlock)
			r.Post("/lock", s.apiDoorLock)
		})
		r.Post("/pin/verify", s.apiPinVerify)
		r.Post("/lamp", s.apiLamp)
		r.Post("/register", s.apiRegister)
		r.Post("/alert", s.apiAlert)

		r.Get("/users", s.apiUsersGet)
		r.Delete("/user/{userid}", s.apiUserDelete)
	})

	r.Get("/ws", s.apiWebsocket)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run starts the HTTP handler and blocks until Shutdown
func (s *Server) Run() error {
	s.srv = &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.router(),
	}

	log.Printf("dashapi: listening on %s", s.cfg.Listen)
	err := s.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
