// Package httpapi exposes the gallery service over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/charitypix/charitypix/internal/metrics"
	"github.com/charitypix/charitypix/pkg/logger"
	"github.com/charitypix/charitypix/services/gallery"
)

// Server routes HTTP requests to the gallery service.
type Server struct {
	gallery *gallery.Service
	metrics *metrics.Metrics
	log     *logger.Logger
	router  *mux.Router
}

// New creates an HTTP server for the given gallery service.
func New(svc *gallery.Service, m *metrics.Metrics, log *logger.Logger) *Server {
	s := &Server{
		gallery: svc,
		metrics: m,
		log:     log.WithComponent("httpapi"),
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

// Router returns the configured router so middleware can be layered on top.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/wallet/connect", s.handleConnect).Methods(http.MethodPost)
	api.HandleFunc("/contract/config", s.handleContractConfig).Methods(http.MethodGet)
	api.HandleFunc("/listings", s.handleListListings).Methods(http.MethodGet)
	api.HandleFunc("/listings", s.handleCreateListing).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id:[0-9]+}/purchase", s.handlePurchase).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
}
