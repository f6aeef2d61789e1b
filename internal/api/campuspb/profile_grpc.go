package campuspb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ProfileService_CreateProfile_FullMethodName = "/campus.v1.ProfileService/CreateProfile"
	ProfileService_GetProfile_FullMethodName    = "/campus.v1.ProfileService/GetProfile"
	ProfileService_UpdateProfile_FullMethodName = "/campus.v1.ProfileService/UpdateProfile"
	ProfileService_CheckUsername_FullMethodName = "/campus.v1.ProfileService/CheckUsernameAvailable"
)

// ProfileServiceServer is the server API for ProfileService.
type ProfileServiceServer interface {
	CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	CheckUsernameAvailable(context.Context, *CheckUsernameRequest) (*CheckUsernameResponse, error)
}

// UnimplementedProfileServiceServer can be embedded to have forward compatible implementations.
type UnimplementedProfileServiceServer struct{}

func (UnimplementedProfileServiceServer) CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateProfile not implemented")
}
func (UnimplementedProfileServiceServer) GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedProfileServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedProfileServiceServer) CheckUsernameAvailable(context.Context, *CheckUsernameRequest) (*CheckUsernameResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckUsernameAvailable not implemented")
}

// ProfileService_ServiceDesc is the grpc.ServiceDesc for ProfileService.
var ProfileService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "campus.v1.ProfileService",
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateProfile", Handler: unary(ProfileService_CreateProfile_FullMethodName, ProfileServiceServer.CreateProfile)},
		{MethodName: "GetProfile", Handler: unary(ProfileService_GetProfile_FullMethodName, ProfileServiceServer.GetProfile)},
		{MethodName: "UpdateProfile", Handler: unary(ProfileService_UpdateProfile_FullMethodName, ProfileServiceServer.UpdateProfile)},
		{MethodName: "CheckUsernameAvailable", Handler: unary(ProfileService_CheckUsername_FullMethodName, ProfileServiceServer.CheckUsernameAvailable)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campus/v1/profile.proto",
}

// RegisterProfileServiceServer registers srv on s.
func RegisterProfileServiceServer(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(&ProfileService_ServiceDesc, srv)
}

// ProfileServiceClient is the client API for ProfileService.
type ProfileServiceClient interface {
	CreateProfile(ctx context.Context, in *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	CheckUsernameAvailable(ctx context.Context, in *CheckUsernameRequest, opts ...grpc.CallOption) (*CheckUsernameResponse, error)
}

type profileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProfileServiceClient(cc grpc.ClientConnInterface) ProfileServiceClient {
	return &profileServiceClient{cc}
}

func (c *profileServiceClient) CreateProfile(ctx context.Context, in *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, ProfileService_CreateProfile_FullMethodName, in, opts)
}

func (c *profileServiceClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, ProfileService_GetProfile_FullMethodName, in, opts)
}

func (c *profileServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, ProfileService_UpdateProfile_FullMethodName, in, opts)
}

func (c *profileServiceClient) CheckUsernameAvailable(ctx context.Context, in *CheckUsernameRequest, opts ...grpc.CallOption) (*CheckUsernameResponse, error) {
	return invoke[CheckUsernameResponse](ctx, c.cc, ProfileService_CheckUsername_FullMethodName, in, opts)
}
