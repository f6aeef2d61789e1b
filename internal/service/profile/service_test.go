package profile_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/service/profile"
	"github.com/oggyb/campus-connect/internal/testutil"
)

func validCreate(username string) *pb.CreateProfileRequest {
	return &pb.CreateProfileRequest{
		Username:    username,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Gender:      "female",
		Bio:         "  engines  ",
		Interests:   []string{"math", " Math ", "", "poetry"},
		YearOfStudy: 3,
		LookingFor:  "friendship",
	}
}

func setupService(t *testing.T) (*profile.Service, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	return profile.NewProfileService(env.App), env
}

func TestCreateAndGetProfile(t *testing.T) {
	svc, env := setupService(t)
	ctx := testutil.As(context.Background(), "user-1")

	resp, err := svc.CreateProfile(ctx, validCreate("ada_l"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.Profile.ID)
	assert.Equal(t, "engines", resp.Profile.Bio)
	assert.Equal(t, []string{"math", "poetry"}, resp.Profile.Interests)
	assert.True(t, env.Redis.Exists("profile:user-1"), "created profile is cached")

	// self
	got, err := svc.GetProfile(ctx, &pb.GetProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ada_l", got.Profile.Username)

	// someone else reading it, after the cache entry is gone
	env.Redis.Del("profile:user-1")
	got, err = svc.GetProfile(testutil.As(context.Background(), "user-2"), &pb.GetProfileRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "ada_l", got.Profile.Username)
	assert.True(t, env.Redis.Exists("profile:user-1"), "read-through repopulates cache")
}

func TestCreateProfile_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := testutil.As(context.Background(), "user-1")

	cases := map[string]func(*pb.CreateProfileRequest){
		"short username":  func(r *pb.CreateProfileRequest) { r.Username = "ab" },
		"bad chars":       func(r *pb.CreateProfileRequest) { r.Username = "bad name!" },
		"no first name":   func(r *pb.CreateProfileRequest) { r.FirstName = "  " },
		"bad gender":      func(r *pb.CreateProfileRequest) { r.Gender = "robot" },
		"year too high":   func(r *pb.CreateProfileRequest) { r.YearOfStudy = 9 },
		"year zero":       func(r *pb.CreateProfileRequest) { r.YearOfStudy = 0 },
		"bad looking_for": func(r *pb.CreateProfileRequest) { r.LookingFor = "anything" },
		"bad image":       func(r *pb.CreateProfileRequest) { r.ProfileImage = "ftp://x/y.png" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreate("valid_name")
			mutate(req)
			_, err := svc.CreateProfile(ctx, req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestCreateProfile_Conflicts(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.CreateProfile(testutil.As(context.Background(), "user-1"), validCreate("taken"))
	require.NoError(t, err)

	_, err = svc.CreateProfile(testutil.As(context.Background(), "user-2"), validCreate("taken"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = svc.CreateProfile(testutil.As(context.Background(), "user-1"), validCreate("another"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestCreateProfile_UsernameIgnoresCase(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.CreateProfile(testutil.As(context.Background(), "user-1"), validCreate(" Ada_L "))
	require.NoError(t, err)
	assert.Equal(t, "ada_l", resp.Profile.Username)

	avail, err := svc.CheckUsernameAvailable(testutil.As(context.Background(), "user-2"), &pb.CheckUsernameRequest{Username: "ADA_l"})
	require.NoError(t, err)
	assert.False(t, avail.Available)

	_, err = svc.CreateProfile(testutil.As(context.Background(), "user-2"), validCreate("ADA_L"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestCreateProfile_ConcurrentUsername(t *testing.T) {
	svc, _ := setupService(t)

	var wg sync.WaitGroup
	codesSeen := make([]codes.Code, 2)
	for i, user := range []string{"user-a", "user-b"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, err := svc.CreateProfile(testutil.As(context.Background(), user), validCreate("same_name"))
			codesSeen[i] = status.Code(err)
		}(i, user)
	}
	wg.Wait()

	assert.ElementsMatch(t, []codes.Code{codes.OK, codes.AlreadyExists}, codesSeen)
}

func TestUpdateProfile(t *testing.T) {
	svc, env := setupService(t)
	ctx := testutil.As(context.Background(), "user-1")

	_, err := svc.CreateProfile(ctx, validCreate("ada_l"))
	require.NoError(t, err)
	_, err = svc.CreateProfile(testutil.As(context.Background(), "user-2"), validCreate("grace"))
	require.NoError(t, err)

	bio := "new bio"
	year := int32(4)
	interests := []string{"chess"}
	resp, err := svc.UpdateProfile(ctx, &pb.UpdateProfileRequest{Bio: &bio, YearOfStudy: &year, Interests: &interests})
	require.NoError(t, err)
	assert.Equal(t, "new bio", resp.Profile.Bio)
	assert.Equal(t, int32(4), resp.Profile.YearOfStudy)
	assert.Equal(t, []string{"chess"}, resp.Profile.Interests)
	assert.Equal(t, "ada_l", resp.Profile.Username, "unset fields are kept")
	assert.False(t, env.Redis.Exists("profile:user-1"), "update invalidates cache")

	taken := "grace"
	_, err = svc.UpdateProfile(ctx, &pb.UpdateProfileRequest{Username: &taken})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	bad := "x"
	_, err = svc.UpdateProfile(ctx, &pb.UpdateProfileRequest{Username: &bad})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.UpdateProfile(testutil.As(context.Background(), "nobody"), &pb.UpdateProfileRequest{Bio: &bio})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetProfile_NotFoundAndUnauthenticated(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetProfile(testutil.As(context.Background(), "user-1"), &pb.GetProfileRequest{UserID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = svc.GetProfile(context.Background(), &pb.GetProfileRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestCheckUsernameAvailable(t *testing.T) {
	svc, _ := setupService(t)
	ctx := testutil.As(context.Background(), "user-1")

	resp, err := svc.CheckUsernameAvailable(ctx, &pb.CheckUsernameRequest{Username: "ada_l"})
	require.NoError(t, err)
	assert.True(t, resp.Available)

	_, err = svc.CreateProfile(ctx, validCreate("ada_l"))
	require.NoError(t, err)

	resp, err = svc.CheckUsernameAvailable(ctx, &pb.CheckUsernameRequest{Username: "ada_l"})
	require.NoError(t, err)
	assert.False(t, resp.Available)

	_, err = svc.CheckUsernameAvailable(ctx, &pb.CheckUsernameRequest{Username: "ab"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
