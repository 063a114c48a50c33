package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"fieldroute/internal/config"
	"fieldroute/internal/store"
)

// Server wires the optimization engine to its HTTP surface: persistence,
// progress streaming, and the engine defaults from process config.
type Server struct {
	Cfg    *config.Config
	Store  store.Store
	Broker EventBroker
}

// NewServer selects backends from config: Postgres when DATABASE_URL is set
// and reachable, otherwise in-memory; Redis for the progress broker when
// REDIS_URL is set, otherwise in-process fan-out.
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{Cfg: cfg}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			return nil, err
		}
		s.Store = pg
		log.Printf("store: postgres")
	} else {
		s.Store = store.NewMemory()
		log.Printf("store: memory")
	}

	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.Broker = rb
		log.Printf("broker: redis")
	} else {
		s.Broker = NewBroker()
		log.Printf("broker: memory")
	}
	return s, nil
}

// Routes registers all handlers on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/optimize", s.OptimizeHandler)
	mux.HandleFunc("/v1/runs", s.RunsHandler)
	mux.HandleFunc("/v1/runs/", s.RunByIDHandler)
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	return mux
}
