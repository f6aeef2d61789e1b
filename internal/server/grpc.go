package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/auth"
)

const shutdownGrace = 5 * time.Second

// NewGRPCServer builds a gRPC server with request logging and bearer-token
// authentication, and registers all provided services. Methods listed in
// public skip authentication.
func NewGRPCServer(appCtx *app.AppContext, public []string, registrars ...Registrar) *grpc.Server {
	log := appCtx.Logger.With("component", "grpc")

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			UnaryLoggingInterceptor(log),
			auth.UnaryServerInterceptor(appCtx.Tokens, public...),
		),
		grpc.ChainStreamInterceptor(
			StreamLoggingInterceptor(log),
			auth.StreamServerInterceptor(appCtx.Tokens, public...),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	log.Info("grpc services registered", "services", registeredServices(grpcServer))

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// ServeGRPC listens on addr and serves until ctx is done, then stops
// gracefully. Open streams get shutdownGrace to finish before a hard stop.
func ServeGRPC(ctx context.Context, srv *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	stop := context.AfterFunc(ctx, func() {
		hard := time.AfterFunc(shutdownGrace, srv.Stop)
		srv.GracefulStop()
		hard.Stop()
	})
	defer stop()

	return srv.Serve(lis)
}
