package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/server/commands"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) actor(ctx context.Context) (commands.Actor, error) {
	r, ok := reviewerFromContext(ctx)
	if !ok {
		return commands.Actor{}, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return commands.ActorOf(r), nil
}

func (s *GRPCServer) run(ctx context.Context, cmd commands.Command) (*structpb.Struct, error) {
	res, err := s.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		return nil, s.toStatus(ctx, cmd.Name(), err)
	}
	out, err := toStruct(res)
	if err != nil {
		s.logger.Error(ctx, "encode response", "command", cmd.Name(), "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) ListPending(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	var in listPendingRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	return s.run(ctx, commands.ListPending{Actor: a, Page: in.Page, PageSize: in.PageSize})
}

func (s *GRPCServer) GetApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	var in applicationRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	return s.run(ctx, commands.ShowApplication{Actor: a, ApplicationID: in.ID})
}

func (s *GRPCServer) Approve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	var in applicationRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Approve request", "reviewer", a.ID, "application_id", in.ID)
	return s.run(ctx, commands.Approve{Actor: a, ApplicationID: in.ID})
}

func (s *GRPCServer) Reject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	var in rejectRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Reject request", "reviewer", a.ID, "application_id", in.ID)
	return s.run(ctx, commands.Reject{Actor: a, ApplicationID: in.ID, Reason: in.Reason})
}

func (s *GRPCServer) CheckMembership(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in membershipRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}
	return s.run(ctx, commands.CheckMembership{ApplicantID: in.ApplicantID})
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": "OK"})
}

// toStatus maps workflow errors to gRPC status codes. Unexpected errors are
// logged and reported without detail.
func (s *GRPCServer) toStatus(ctx context.Context, command string, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorPermissionDenied):
		return status.Error(codes.PermissionDenied, "permission denied")
	case errors.Is(err, common.ErrorAlreadyDecided):
		return status.Error(codes.FailedPrecondition, "application already decided")
	case errors.Is(err, common.ErrorPhotosPending):
		return status.Error(codes.Aborted, "photo collection still in progress")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "unauthorized")
	}
	s.logger.Error(ctx, "command failed", "command", command, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

type listPendingRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type applicationRequest struct {
	ID string `json:"id"`
}

type rejectRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type membershipRequest struct {
	ApplicantID string `json:"applicant_id"`
}

// decodeRequest binds the request fields onto dst. Unknown fields, wrong
// types and fractional numbers for integer fields are InvalidArgument.
func decodeRequest(req *structpb.Struct, dst any) error {
	b, err := json.Marshal(req.AsMap())
	if err != nil {
		return status.Error(codes.InvalidArgument, "malformed request")
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}
