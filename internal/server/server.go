// Package server runs a service's HTTP API next to its gRPC health endpoint
// and stops both when the context ends.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/my-basket/internal/adapter/handler"
	"github.com/rl1809/my-basket/internal/metrics"
	"github.com/rl1809/my-basket/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Name     string
	HTTPAddr string
	GRPCAddr string
	Handler  http.Handler
	Log      *logrus.Entry

	// WriteTimeout bounds a whole response; the gateway raises it above its proxy timeout.
	WriteTimeout time.Duration
}

// NewRouter returns a router with request logging, metrics, panic recovery
// and a JSON 404.
func NewRouter(log *logrus.Entry, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	r.Use(middleware.Logging(log), middleware.Metrics(m), middleware.Recover(log))
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is cancelled or a listener fails.
func Run(ctx context.Context, opts Options) error {
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 15 * time.Second
	}

	httpLis, err := net.Listen("tcp", opts.HTTPAddr)
	if err != nil {
		return err
	}
	grpcLis, err := net.Listen("tcp", opts.GRPCAddr)
	if err != nil {
		httpLis.Close()
		return err
	}

	httpServer := &http.Server{
		Handler:           opts.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	grpcServer := grpc.NewServer()
	health := handler.NewGRPCHealth(grpcServer, opts.Name)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		opts.Log.WithField("addr", httpLis.Addr().String()).Info("http server starting")
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		opts.Log.WithField("addr", grpcLis.Addr().String()).Info("grpc server starting")
		return grpcServer.Serve(grpcLis)
	})

	g.Go(func() error {
		health.SetServing(true)
		<-ctx.Done()
		opts.Log.Info("shutdown requested")
		health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			opts.Log.WithError(err).Error("http shutdown error")
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-shutdownCtx.Done():
			opts.Log.Warn("graceful stop timeout, forcing stop")
			grpcServer.Stop()
		case <-stopped:
		}
		return nil
	})

	return g.Wait()
}
