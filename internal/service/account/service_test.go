package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/db"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/service/account"
	"github.com/oggyb/campus-connect/internal/testutil"
)

const password = "hunter22"

func setupService(t *testing.T) (*testutil.Env, *account.Service) {
	t.Helper()
	env := testutil.NewEnv(t)
	return env, account.NewAuthService(env.App)
}

// authenticated validates token and builds the context the interceptor would.
func authenticated(t *testing.T, env *testutil.Env, token string) context.Context {
	t.Helper()
	claims, err := env.App.Tokens.Validate(context.Background(), token)
	require.NoError(t, err)
	return auth.WithIdentity(context.Background(), auth.Identity{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Token:  token,
		Claims: claims,
	})
}

func TestSignUpAndSignIn(t *testing.T) {
	env, svc := setupService(t)

	up, err := svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "  Asha@IITI.ac.in ", Password: password})
	require.NoError(t, err)
	assert.Equal(t, "asha@iiti.ac.in", up.Session.Email)
	assert.NotEmpty(t, up.Session.Token)
	assert.False(t, up.Session.HasProfile)

	in, err := svc.SignIn(context.Background(), &pb.SignInRequest{Email: "asha@iiti.ac.in", Password: password})
	require.NoError(t, err)
	assert.Equal(t, up.Session.UserID, in.Session.UserID)

	var stored db.Account
	require.NoError(t, env.App.DB.First(&stored, "id = ?", up.Session.UserID).Error)
	assert.NotEqual(t, password, stored.PasswordHash)
}

func TestSignUp_Validation(t *testing.T) {
	_, svc := setupService(t)

	cases := map[string]*pb.SignUpRequest{
		"wrong domain":   {Email: "asha@gmail.com", Password: password},
		"not an email":   {Email: "asha", Password: password},
		"short password": {Email: "asha@iiti.ac.in", Password: "a1"},
		"no digit":       {Email: "asha@iiti.ac.in", Password: "passwordonly"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	_, svc := setupService(t)

	_, err := svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "asha@iiti.ac.in", Password: password})
	require.NoError(t, err)
	_, err = svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "ASHA@iiti.ac.in", Password: password})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestSignIn_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	_, svc := setupService(t)
	_, err := svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "asha@iiti.ac.in", Password: password})
	require.NoError(t, err)

	_, wrongPw := svc.SignIn(context.Background(), &pb.SignInRequest{Email: "asha@iiti.ac.in", Password: "nope12345"})
	_, unknown := svc.SignIn(context.Background(), &pb.SignInRequest{Email: "ravi@iiti.ac.in", Password: password})

	assert.Equal(t, codes.Unauthenticated, status.Code(wrongPw))
	assert.Equal(t, status.Convert(wrongPw).Message(), status.Convert(unknown).Message())
}

func TestGetSession_ReportsProfile(t *testing.T) {
	env, svc := setupService(t)
	up, err := svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "asha@iiti.ac.in", Password: password})
	require.NoError(t, err)
	ctx := authenticated(t, env, up.Session.Token)

	resp, err := svc.GetSession(ctx, &pb.GetSessionRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Session.HasProfile)
	assert.Equal(t, up.Session.ExpiresAtUnixMs, resp.Session.ExpiresAtUnixMs)

	require.NoError(t, env.App.DB.Create(&db.Profile{
		ID: up.Session.UserID, Username: "asha", FirstName: "Asha", LastName: "K",
		Gender: "female", YearOfStudy: 3, LookingFor: "friendship",
	}).Error)

	resp, err = svc.GetSession(ctx, &pb.GetSessionRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Session.HasProfile)
}

func TestSignOut_RevokesToken(t *testing.T) {
	env, svc := setupService(t)
	up, err := svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "asha@iiti.ac.in", Password: password})
	require.NoError(t, err)

	_, err = svc.SignOut(authenticated(t, env, up.Session.Token), &pb.SignOutRequest{})
	require.NoError(t, err)

	_, err = env.App.Tokens.Validate(context.Background(), up.Session.Token)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}

func TestChangePassword(t *testing.T) {
	env, svc := setupService(t)
	up, err := svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "asha@iiti.ac.in", Password: password})
	require.NoError(t, err)
	ctx := authenticated(t, env, up.Session.Token)

	_, err = svc.ChangePassword(ctx, &pb.ChangePasswordRequest{OldPassword: "wrong1234", NewPassword: "newpass99"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = svc.ChangePassword(ctx, &pb.ChangePasswordRequest{OldPassword: password, NewPassword: "short"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.ChangePassword(ctx, &pb.ChangePasswordRequest{OldPassword: password, NewPassword: "newpass99"})
	require.NoError(t, err)

	_, err = svc.SignIn(context.Background(), &pb.SignInRequest{Email: "asha@iiti.ac.in", Password: password})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = svc.SignIn(context.Background(), &pb.SignInRequest{Email: "asha@iiti.ac.in", Password: "newpass99"})
	require.NoError(t, err)

	// the session used to change the password stays valid
	_, err = env.App.Tokens.Validate(context.Background(), up.Session.Token)
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	env, svc := setupService(t)
	up, err := svc.SignUp(context.Background(), &pb.SignUpRequest{Email: "asha@iiti.ac.in", Password: password})
	require.NoError(t, err)
	user := up.Session.UserID
	other := env.CreateUser(t, "bob")

	require.NoError(t, env.App.DB.Create(&db.Profile{
		ID: user, Username: "asha", FirstName: "Asha", LastName: "K",
		Gender: "female", YearOfStudy: 3, LookingFor: "friendship",
	}).Error)
	require.NoError(t, env.App.DB.Create(&db.Like{FromUser: user, ToUser: other}).Error)

	_, err = svc.DeleteAccount(authenticated(t, env, up.Session.Token), &pb.DeleteAccountRequest{})
	require.NoError(t, err)

	var n int64
	require.NoError(t, env.App.DB.Model(&db.Account{}).Where("id = ?", user).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, env.App.DB.Model(&db.Profile{}).Where("id = ?", user).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, env.App.DB.Model(&db.Like{}).Where("from_user = ?", user).Count(&n).Error)
	assert.EqualValues(t, 1, n, "likes outlive the account")

	_, err = env.App.Tokens.Validate(context.Background(), up.Session.Token)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	_, err = svc.SignIn(context.Background(), &pb.SignInRequest{Email: "asha@iiti.ac.in", Password: password})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
