package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zmgnet/zmgd/util/panics"
)

const metricsPath = "/metrics"

// Server serves the metrics of a Metrics over HTTP
type Server struct {
	listener   net.Listener
	httpServer *http.Server
}

// NewServer starts listening on listenAddress. Call Start to begin
// serving.
func NewServer(metrics *Metrics, listenAddress string) (*Server, error) {
	listener, err := net.Listen("tcp", listenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "could not listen for metrics on %s", listenAddress)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Address returns the address the server listens on
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// Start serves metrics in the background until Stop is called
func (s *Server) Start() {
	spawn := panics.GoroutineWrapperFunc(log)
	spawn("metrics.Server.Start", func() {
		log.Infof("Serving metrics on http://%s%s", s.Address(), metricsPath)
		err := s.httpServer.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %s", err)
		}
	})
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
