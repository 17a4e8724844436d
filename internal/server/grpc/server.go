// Package grpc exposes the staff review API: the pending queue, application
// details, decisions and membership checks.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/commands"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address    string
	dispatcher *commands.Dispatcher
	logger     logging.Logger
	jwtSecret  []byte
}

func NewGRPCServer(a string, l logging.Logger, d *commands.Dispatcher, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		dispatcher: d,
		jwtSecret:  []byte(secretKey),
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	RegisterReviewServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
