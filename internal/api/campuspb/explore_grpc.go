package campuspb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ExploreService_ListCandidates_FullMethodName = "/campus.v1.ExploreService/ListCandidates"
	ExploreService_Like_FullMethodName           = "/campus.v1.ExploreService/Like"
	ExploreService_Pass_FullMethodName           = "/campus.v1.ExploreService/Pass"
	ExploreService_ListMatches_FullMethodName    = "/campus.v1.ExploreService/ListMatches"
)

// ExploreServiceServer is the server API for ExploreService.
type ExploreServiceServer interface {
	ListCandidates(context.Context, *ListCandidatesRequest) (*ListCandidatesResponse, error)
	Like(context.Context, *LikeRequest) (*LikeResponse, error)
	Pass(context.Context, *PassRequest) (*PassResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
}

// UnimplementedExploreServiceServer can be embedded to have forward compatible implementations.
type UnimplementedExploreServiceServer struct{}

func (UnimplementedExploreServiceServer) ListCandidates(context.Context, *ListCandidatesRequest) (*ListCandidatesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCandidates not implemented")
}
func (UnimplementedExploreServiceServer) Like(context.Context, *LikeRequest) (*LikeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Like not implemented")
}
func (UnimplementedExploreServiceServer) Pass(context.Context, *PassRequest) (*PassResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Pass not implemented")
}
func (UnimplementedExploreServiceServer) ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMatches not implemented")
}

// ExploreService_ServiceDesc is the grpc.ServiceDesc for ExploreService.
var ExploreService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "campus.v1.ExploreService",
	HandlerType: (*ExploreServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListCandidates", Handler: unary(ExploreService_ListCandidates_FullMethodName, ExploreServiceServer.ListCandidates)},
		{MethodName: "Like", Handler: unary(ExploreService_Like_FullMethodName, ExploreServiceServer.Like)},
		{MethodName: "Pass", Handler: unary(ExploreService_Pass_FullMethodName, ExploreServiceServer.Pass)},
		{MethodName: "ListMatches", Handler: unary(ExploreService_ListMatches_FullMethodName, ExploreServiceServer.ListMatches)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campus/v1/explore.proto",
}

// RegisterExploreServiceServer registers srv on s.
func RegisterExploreServiceServer(s grpc.ServiceRegistrar, srv ExploreServiceServer) {
	s.RegisterService(&ExploreService_ServiceDesc, srv)
}

// ExploreServiceClient is the client API for ExploreService.
type ExploreServiceClient interface {
	ListCandidates(ctx context.Context, in *ListCandidatesRequest, opts ...grpc.CallOption) (*ListCandidatesResponse, error)
	Like(ctx context.Context, in *LikeRequest, opts ...grpc.CallOption) (*LikeResponse, error)
	Pass(ctx context.Context, in *PassRequest, opts ...grpc.CallOption) (*PassResponse, error)
	ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error)
}

type exploreServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewExploreServiceClient(cc grpc.ClientConnInterface) ExploreServiceClient {
	return &exploreServiceClient{cc}
}

func (c *exploreServiceClient) ListCandidates(ctx context.Context, in *ListCandidatesRequest, opts ...grpc.CallOption) (*ListCandidatesResponse, error) {
	return invoke[ListCandidatesResponse](ctx, c.cc, ExploreService_ListCandidates_FullMethodName, in, opts)
}

func (c *exploreServiceClient) Like(ctx context.Context, in *LikeRequest, opts ...grpc.CallOption) (*LikeResponse, error) {
	return invoke[LikeResponse](ctx, c.cc, ExploreService_Like_FullMethodName, in, opts)
}

func (c *exploreServiceClient) Pass(ctx context.Context, in *PassRequest, opts ...grpc.CallOption) (*PassResponse, error) {
	return invoke[PassResponse](ctx, c.cc, ExploreService_Pass_FullMethodName, in, opts)
}

func (c *exploreServiceClient) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, ExploreService_ListMatches_FullMethodName, in, opts)
}
