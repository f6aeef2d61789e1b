package account

import (
	"context"
	"errors"

	"github.com/google/uuid"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/db"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/repository"
)

// PublicMethods are reachable without a session token.
var PublicMethods = []string{
	pb.AuthService_SignUp_FullMethodName,
	pb.AuthService_SignIn_FullMethodName,
}

const invalidCredentials = "invalid email or password"

// Service implements the Auth gRPC API: sign-up, sign-in and session lifecycle.
type Service struct {
	appCtx      *app.AppContext
	accountRepo *repository.AccountRepository
	profileRepo *repository.ProfileRepository

	pb.UnimplementedAuthServiceServer
}

// NewAuthService creates a new Auth service with dependencies from AppContext.
func NewAuthService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		accountRepo: repository.NewAccountRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// SignUp registers a campus account and opens a session for it.
//
// Behavior:
//   - Email is trimmed and lower-cased, and must belong to the campus domain when one is configured.
//   - Password needs the configured minimum length and at least one digit.
//   - Duplicate email → AlreadyExists.
func (s *Service) SignUp(ctx context.Context, req *pb.SignUpRequest) (*pb.SessionResponse, error) {
	email := auth.NormalizeEmail(req.Email)
	if err := auth.ValidateEmail(email, s.appCtx.Config.Auth.AllowedEmailDomain); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := auth.ValidatePassword(req.Password, s.appCtx.Config.Auth.MinPasswordLength); err != nil {
		return nil, svcErr.Map(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.appCtx.Logger.Error("password hashing failed", "err", err)
		return nil, svcErr.Map(err)
	}

	acc := &db.Account{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("account created", "user", acc.ID)

	return s.openSession(ctx, acc)
}

// SignIn checks credentials and opens a new session. An unknown email and a
// wrong password produce the same error.
func (s *Service) SignIn(ctx context.Context, req *pb.SignInRequest) (*pb.SessionResponse, error) {
	acc, err := s.accountRepo.GetByEmail(ctx, auth.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, svcErr.ErrNotFound) {
			return nil, svcErr.Unauthenticated(invalidCredentials)
		}
		return nil, svcErr.Map(err)
	}
	if !auth.CheckPassword(acc.PasswordHash, req.Password) {
		return nil, svcErr.Unauthenticated(invalidCredentials)
	}
	return s.openSession(ctx, acc)
}

// GetSession describes the session attached to the request.
func (s *Service) GetSession(ctx context.Context, _ *pb.GetSessionRequest) (*pb.SessionResponse, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, svcErr.Unauthenticated("missing session")
	}

	session := &pb.Session{UserID: id.UserID, Email: id.Email}
	if id.Claims != nil {
		session.ExpiresAtUnixMs = id.Claims.ExpiresAtTime().UnixMilli()
	}
	hasProfile, err := s.hasProfile(ctx, id.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	session.HasProfile = hasProfile
	return &pb.SessionResponse{Session: session}, nil
}

// SignOut revokes the calling token and drops the caller's cached profile.
func (s *Service) SignOut(ctx context.Context, _ *pb.SignOutRequest) (*pb.SignOutResponse, error) {
	id, ok := auth.FromContext(ctx)
	if !ok || id.Claims == nil {
		return nil, svcErr.Unauthenticated("missing session")
	}
	if err := s.appCtx.Tokens.Revoke(ctx, id.Claims); err != nil {
		s.appCtx.Logger.Error("token revoke failed", "user", id.UserID, "err", err)
		return nil, svcErr.Unavailable("could not sign out, try again")
	}
	if err := s.appCtx.RedisCache.InvalidateProfile(ctx, id.UserID); err != nil {
		s.appCtx.Logger.Warn("profile cache invalidate failed", "user", id.UserID, "err", err)
	}
	return &pb.SignOutResponse{}, nil
}

// ChangePassword replaces the password after verifying the current one.
// Existing sessions stay valid.
func (s *Service) ChangePassword(ctx context.Context, req *pb.ChangePasswordRequest) (*pb.ChangePasswordResponse, error) {
	user, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	acc, err := s.accountRepo.Get(ctx, user)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !auth.CheckPassword(acc.PasswordHash, req.OldPassword) {
		return nil, svcErr.PermissionDenied("current password is incorrect")
	}
	if err := auth.ValidatePassword(req.NewPassword, s.appCtx.Config.Auth.MinPasswordLength); err != nil {
		return nil, svcErr.Map(err)
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.accountRepo.UpdatePasswordHash(ctx, user, hash); err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("password changed", "user", user)
	return &pb.ChangePasswordResponse{}, nil
}

// DeleteAccount removes the caller's profile and account, then revokes
// every token the identity holds. Likes, matches and messages remain.
func (s *Service) DeleteAccount(ctx context.Context, _ *pb.DeleteAccountRequest) (*pb.DeleteAccountResponse, error) {
	user, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.accountRepo.DeleteWithProfile(ctx, user); err != nil {
		s.appCtx.Logger.Error("account delete failed", "user", user, "err", err)
		return nil, svcErr.Map(err)
	}

	// The account is gone already; a failed revoke only leaves tokens that
	// point at nothing until they expire.
	bg := context.WithoutCancel(ctx)
	if err := s.appCtx.Tokens.RevokeAll(bg, user); err != nil {
		s.appCtx.Logger.Warn("revoke all tokens failed", "user", user, "err", err)
	}
	if err := s.appCtx.RedisCache.InvalidateProfile(bg, user); err != nil {
		s.appCtx.Logger.Warn("profile cache invalidate failed", "user", user, "err", err)
	}

	s.appCtx.Logger.Info("account deleted", "user", user)
	return &pb.DeleteAccountResponse{}, nil
}

func (s *Service) openSession(ctx context.Context, acc *db.Account) (*pb.SessionResponse, error) {
	token, claims, err := s.appCtx.Tokens.Issue(acc.ID, acc.Email)
	if err != nil {
		s.appCtx.Logger.Error("token issue failed", "user", acc.ID, "err", err)
		return nil, svcErr.Map(err)
	}
	hasProfile, err := s.hasProfile(ctx, acc.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.SessionResponse{Session: &pb.Session{
		UserID:          acc.ID,
		Email:           acc.Email,
		Token:           token,
		ExpiresAtUnixMs: claims.ExpiresAtTime().UnixMilli(),
		HasProfile:      hasProfile,
	}}, nil
}

func (s *Service) hasProfile(ctx context.Context, user string) (bool, error) {
	_, err := s.profileRepo.Get(ctx, user)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, svcErr.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

var _ pb.AuthServiceServer = (*Service)(nil)
