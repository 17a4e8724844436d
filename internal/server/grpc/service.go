package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the staff review service.
const ServiceName = "guildgate.review.v1.ReviewService"

const (
	MethodListPending     = "ListPending"
	MethodGetApplication  = "GetApplication"
	MethodApprove         = "Approve"
	MethodReject          = "Reject"
	MethodCheckMembership = "CheckMembership"
	MethodPing            = "Ping"
)

// FullMethod returns the wire path of a ReviewService method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ReviewServiceServer is the server API of the staff review service. Every
// request and response is a structpb.Struct on the wire; handlers bind
// requests onto typed structs and reject fields of the wrong type.
type ReviewServiceServer interface {
	ListPending(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Approve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckMembership(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ReviewServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReviewServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReviewServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ReviewServiceDesc describes the review service for grpc.ServiceRegistrar.
var ReviewServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReviewServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodListPending, ReviewServiceServer.ListPending),
		unary(MethodGetApplication, ReviewServiceServer.GetApplication),
		unary(MethodApprove, ReviewServiceServer.Approve),
		unary(MethodReject, ReviewServiceServer.Reject),
		unary(MethodCheckMembership, ReviewServiceServer.CheckMembership),
		unary(MethodPing, ReviewServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "guildgate/review/v1/review.proto",
}

func RegisterReviewServiceServer(s grpc.ServiceRegistrar, srv ReviewServiceServer) {
	s.RegisterService(&ReviewServiceDesc, srv)
}

// ReviewClient calls the review service over an established connection.
type ReviewClient struct {
	cc grpc.ClientConnInterface
}

func NewReviewClient(cc grpc.ClientConnInterface) *ReviewClient {
	return &ReviewClient{cc: cc}
}

// Call invokes method with a request built from fields.
func (c *ReviewClient) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
