package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/dispatch/internal/dispatch/category"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/pkg/log"
	"github.com/autopeer-io/dispatch/pkg/options"
)

// Session is the dispatch session served over HTTP.
type Session interface {
	Room() string
	Status() model.Status
	Connected() bool
	Search(ctx context.Context, query string) []model.Vehicle
	Groups(ctx context.Context, query string) []category.Group
	Owners(ctx context.Context, vehicles []model.Vehicle) map[string]*model.Profile
	SelectRoom(ctx context.Context, room string)
	SelectGroup(ctx context.Context, groupID string) (string, error)
	RoomInfo(ctx context.Context) (*model.Room, error)
	Refresh(ctx context.Context) error
	Patch(ctx context.Context, id string, patch model.VehiclePatch) error
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, data []byte) (string, error)
}

// ArchiveLocator links to archived rosters.
type ArchiveLocator interface {
	LatestURL(ctx context.Context, room string) (string, error)
}

type Server struct {
	server  *http.Server
	options *options.HttpOptions
}

// NewServer creates the HTTP server. archive may be nil.
func NewServer(opts *options.HttpOptions, session Session, archive ArchiveLocator) *Server {
	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      NewRouter(session, archive),
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
		options: opts,
	}
}

// NewRouter registers the probes, metrics and the roster API.
func NewRouter(session Session, archive ArchiveLocator) *mux.Router {
	h := &handler{session: session, archive: archive}

	// Vehicle ids may contain escaped slashes.
	r := mux.NewRouter().UseEncodedPath()
	r.Use(logRequests)

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Ready while the live stream is open.
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !session.Connected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", h.status).Methods(http.MethodGet)
	api.HandleFunc("/room", h.room).Methods(http.MethodGet)
	api.HandleFunc("/room", h.selectRoom).Methods(http.MethodPut)
	api.HandleFunc("/room", h.leaveRoom).Methods(http.MethodDelete)
	api.HandleFunc("/roster", h.roster).Methods(http.MethodGet)
	api.HandleFunc("/roster/groups", h.groups).Methods(http.MethodGet)
	api.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/import", h.importVehicles).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", h.patchVehicle).Methods(http.MethodPatch)
	api.HandleFunc("/vehicles/{id}", h.deleteVehicle).Methods(http.MethodDelete)
	if archive != nil {
		api.HandleFunc("/archive/latest", h.latestArchive).Methods(http.MethodGet)
	}

	return r
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", s.options.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
