package profile

import (
	"context"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/db"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/repository"
	"github.com/oggyb/campus-connect/internal/service/convert"
)

// Service implements the Profile gRPC API on top of the profile repository
// and the Redis profile cache.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository

	pb.UnimplementedProfileServiceServer
}

// NewProfileService creates a new Profile service with dependencies from AppContext.
func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// CreateProfile creates the caller's profile.
//
// Behavior:
//   - Validates every field; ValidationError on bad input.
//   - Username taken or profile already present → AlreadyExists.
//   - The username unique index decides races, not CheckUsernameAvailable.
func (s *Service) CreateProfile(ctx context.Context, req *pb.CreateProfileRequest) (*pb.ProfileResponse, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	p, err := profileFromCreate(uid, req)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.profileRepo.Create(ctx, p); err != nil {
		s.appCtx.Logger.Debug("CreateProfile rejected", "user", uid, "err", err)
		return nil, svcErr.Map(err)
	}

	s.cacheProfile(ctx, p)
	s.appCtx.Logger.Info("profile created", "user", uid, "username", p.Username)
	return &pb.ProfileResponse{Profile: convert.Profile(p)}, nil
}

// GetProfile returns a profile by id; an empty id means the caller's own profile.
// Reads are cache-first; cache errors fall back to the database.
func (s *Service) GetProfile(ctx context.Context, req *pb.GetProfileRequest) (*pb.ProfileResponse, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	id := req.UserID
	if id == "" {
		id = uid
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.ProfileResponse{Profile: convert.Profile(p)}, nil
}

// UpdateProfile applies the set fields to the caller's profile.
func (s *Service) UpdateProfile(ctx context.Context, req *pb.UpdateProfileRequest) (*pb.ProfileResponse, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	p, err := s.profileRepo.Get(ctx, uid)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := applyUpdate(p, req); err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.profileRepo.Save(ctx, p); err != nil {
		s.appCtx.Logger.Debug("UpdateProfile rejected", "user", uid, "err", err)
		return nil, svcErr.Map(err)
	}
	s.invalidate(ctx, uid)

	// re-read for the store-assigned updated_at
	updated, err := s.profileRepo.Get(ctx, uid)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.ProfileResponse{Profile: convert.Profile(updated)}, nil
}

// CheckUsernameAvailable is advisory: a later CreateProfile can still lose the race.
func (s *Service) CheckUsernameAvailable(ctx context.Context, req *pb.CheckUsernameRequest) (*pb.CheckUsernameResponse, error) {
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	available, err := s.profileRepo.UsernameAvailable(ctx, username)
	if err != nil {
		s.appCtx.Logger.Error("UsernameAvailable failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return &pb.CheckUsernameResponse{Available: available}, nil
}

func (s *Service) load(ctx context.Context, id string) (*db.Profile, error) {
	if cached, err := s.appCtx.RedisCache.GetProfile(ctx, id); err != nil {
		s.appCtx.Logger.Warn("profile cache read failed, using DB", "user", id, "err", err)
	} else if cached != nil {
		return cached, nil
	}

	p, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, p)
	return p, nil
}

func (s *Service) cacheProfile(ctx context.Context, p *db.Profile) {
	if err := s.appCtx.RedisCache.SetProfile(ctx, p); err != nil {
		s.appCtx.Logger.Warn("profile cache write failed", "user", p.ID, "err", err)
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.appCtx.RedisCache.InvalidateProfile(ctx, id); err != nil {
		s.appCtx.Logger.Warn("profile cache invalidate failed", "user", id, "err", err)
	}
}

func profileFromCreate(uid string, req *pb.CreateProfileRequest) (*db.Profile, error) {
	var (
		p   = &db.Profile{ID: uid}
		err error
	)
	if p.Username, err = normalizeUsername(req.Username); err != nil {
		return nil, err
	}
	if p.FirstName, err = normalizeName("first_name", req.FirstName); err != nil {
		return nil, err
	}
	if p.LastName, err = normalizeName("last_name", req.LastName); err != nil {
		return nil, err
	}
	if p.Gender, err = validateGender(req.Gender); err != nil {
		return nil, err
	}
	if p.Bio, err = normalizeBio(req.Bio); err != nil {
		return nil, err
	}
	if p.Interests, err = normalizeInterests(req.Interests); err != nil {
		return nil, err
	}
	if p.YearOfStudy, err = validateYear(req.YearOfStudy); err != nil {
		return nil, err
	}
	if p.LookingFor, err = validateLookingFor(req.LookingFor); err != nil {
		return nil, err
	}
	if p.ProfileImage, err = validateImage(req.ProfileImage); err != nil {
		return nil, err
	}
	return p, nil
}

func applyUpdate(p *db.Profile, req *pb.UpdateProfileRequest) error {
	var err error
	if req.Username != nil {
		if p.Username, err = normalizeUsername(*req.Username); err != nil {
			return err
		}
	}
	if req.FirstName != nil {
		if p.FirstName, err = normalizeName("first_name", *req.FirstName); err != nil {
			return err
		}
	}
	if req.LastName != nil {
		if p.LastName, err = normalizeName("last_name", *req.LastName); err != nil {
			return err
		}
	}
	if req.Gender != nil {
		if p.Gender, err = validateGender(*req.Gender); err != nil {
			return err
		}
	}
	if req.Bio != nil {
		if p.Bio, err = normalizeBio(*req.Bio); err != nil {
			return err
		}
	}
	if req.Interests != nil {
		if p.Interests, err = normalizeInterests(*req.Interests); err != nil {
			return err
		}
	}
	if req.YearOfStudy != nil {
		if p.YearOfStudy, err = validateYear(*req.YearOfStudy); err != nil {
			return err
		}
	}
	if req.LookingFor != nil {
		if p.LookingFor, err = validateLookingFor(*req.LookingFor); err != nil {
			return err
		}
	}
	if req.ProfileImage != nil {
		if p.ProfileImage, err = validateImage(*req.ProfileImage); err != nil {
			return err
		}
	}
	return nil
}
