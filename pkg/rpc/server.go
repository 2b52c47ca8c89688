package rpc

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/cuemby/vexdb/pkg/log"
	"github.com/cuemby/vexdb/pkg/metrics"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// TLSConfig names a certificate/key pair for the gRPC listener, mirroring
// the teacher's useTls/certFile/privateKey server flags (spec §6).
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Server wraps Engine with the standard gRPC health-check service and an
// HTTP /health, /ready, /metrics mux — the subset of the RPC surface
// spec.md actually asks the engine to expose over real wire bytes.
type Server struct {
	engine *Engine
	grpc   *grpc.Server
	health *health.Server
	http   *http.Server
	logger zerolog.Logger
}

// NewServer builds a Server over engine. If tlsCfg is non-nil, the gRPC
// listener serves TLS with the configured server certificate (client
// certificates are not verified); a nil
// tlsCfg serves plaintext, for local/dev use.
func NewServer(engine *Engine, tlsCfg *TLSConfig) (*Server, error) {
	var opts []grpc.ServerOption
	if tlsCfg != nil {
		cert, err := tls.LoadX509KeyPair(tlsCfg.CertFile, tlsCfg.KeyFile)
		if err != nil {
			return nil, err
		}
		creds := credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS13,
		})
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())

	return &Server{
		engine: engine,
		grpc:   grpcServer,
		health: healthServer,
		http: &http.Server{
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log.WithComponent("rpc"),
	}, nil
}

// ServeGRPC listens on addr and serves the gRPC health service until the
// listener is closed or Stop is called.
func (s *Server) ServeGRPC(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", addr).Msg("grpc health service listening")
	return s.grpc.Serve(lis)
}

// ServeHTTP listens on addr and serves /health, /ready, /live, /metrics
// until the listener is closed or Stop is called.
func (s *Server) ServeHTTP(addr string) error {
	s.http.Addr = addr
	s.logger.Info().Str("addr", addr).Msg("http health service listening")
	return s.http.ListenAndServe()
}

// Stop gracefully stops both listeners.
func (s *Server) Stop() {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	s.grpc.GracefulStop()
	s.http.Close()
}
