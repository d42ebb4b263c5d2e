package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/gabenodland/trace-sub002/internal/logging"
	"github.com/gabenodland/trace-sub002/internal/rpc"
	"github.com/gabenodland/trace-sub002/internal/server/config"
	"github.com/gabenodland/trace-sub002/internal/server/services"
)

// GRPCServer exposes the journal services over gRPC. It implements
// rpc.JournalServer; the handlers live in handler.go.
type GRPCServer struct {
	address   string
	users     *services.UserService
	entries   *services.EntryService
	hub       *Hub
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(cfg *config.Config, users *services.UserService, entries *services.EntryService, hub *Hub, logger logging.Logger) *GRPCServer {
	return &GRPCServer{
		address:   cfg.EndpointAddrGRPC,
		users:     users,
		entries:   entries,
		hub:       hub,
		logger:    logger,
		jwtSecret: []byte(cfg.SecretKey),
	}
}

// Run serves until ctx is cancelled, then stops gracefully. Open watch
// streams end when their context is cancelled by the stop.
func (s *GRPCServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	rpc.RegisterJournalServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "shutting down grpc server", "address", s.address)
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "grpc server listening", "address", s.address)
	return srv.Serve(listener)
}

// authenticatedStream overrides the stream context with the one carrying
// the authenticated user id.
type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context { return s.ctx }

func (s *GRPCServer) streamAccessTokenInterceptor(
	srv any,
	ss grpc.ServerStream,
	info *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	ctx, err := authenticate(ss.Context(), s.jwtSecret)
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
}
