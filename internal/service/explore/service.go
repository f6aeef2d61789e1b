package explore

import (
	"context"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/auth"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/repository"
	"github.com/oggyb/campus-connect/internal/service/convert"
)

const maxPageSize = 100

// likeStore is the slice of LikeRepository the service needs.
type likeStore interface {
	Create(ctx context.Context, from, to string) error
	HasLiked(ctx context.Context, from, to string) (bool, error)
}

// Service implements the Explore gRPC API: the discovery feed, likes/passes
// and the match registry.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
	likeRepo    likeStore
	matchRepo   *repository.MatchRepository

	pb.UnimplementedExploreServiceServer
}

// NewExploreService creates a new Explore service with dependencies from AppContext.
func NewExploreService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		likeRepo:    repository.NewLikeRepository(appCtx.DB),
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
	}
}

// ListCandidates returns profiles the caller has not liked yet.
//
// Behavior:
//   - Excludes the caller's own profile and everyone the caller liked.
//   - Likes received by the caller do not hide anyone.
//   - Ordered by created_at ASC, id ASC; cursor-based pagination with page_token.
//   - Read-only.
//
// Example:
//
//	svc.ListCandidates(ctx, &pb.ListCandidatesRequest{PageSize: 10})
func (s *Service) ListCandidates(ctx context.Context, req *pb.ListCandidatesRequest) (*pb.ListCandidatesResponse, error) {
	viewer, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	limit := int(req.PageSize)
	if limit <= 0 {
		limit = s.appCtx.Config.Feed.PageSize
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	s.appCtx.Logger.Debug("ListCandidates called", "viewer", viewer, "limit", limit)

	profiles, nextToken, err := s.profileRepo.ListCandidates(ctx, viewer, req.PageToken, limit)
	if err != nil {
		s.appCtx.Logger.Error("ListCandidates failed", "viewer", viewer, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListCandidatesResponse{Profiles: make([]*pb.Profile, 0, len(profiles)), NextPageToken: nextToken}
	for i := range profiles {
		resp.Profiles = append(resp.Profiles, convert.Profile(&profiles[i]))
	}
	return resp, nil
}

// Like records that the caller likes target and detects a mutual match.
//
// Behavior:
//   - Target must exist (NotFound) and differ from the caller (InvalidArgument).
//   - Like insert failure aborts with an error; re-liking is a no-op.
//   - Reciprocal like found → exactly one match for the unordered pair.
//   - Reciprocity check or match write fails → Unavailable; the like stands and
//     the reconciler (or the other side's like) creates the match later.
//
// Example:
//
//	svc.Like(ctx, &pb.LikeRequest{TargetUserID: bobID})
func (s *Service) Like(ctx context.Context, req *pb.LikeRequest) (*pb.LikeResponse, error) {
	viewer, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	target := req.TargetUserID
	if err := s.validateTarget(ctx, viewer, target); err != nil {
		return nil, svcErr.Map(err)
	}

	if err := s.likeRepo.Create(ctx, viewer, target); err != nil {
		s.appCtx.Logger.Error("like insert failed", "from", viewer, "to", target, "err", err)
		return nil, svcErr.Map(err)
	}

	mutual, err := s.likeRepo.HasLiked(ctx, target, viewer)
	if err != nil {
		s.appCtx.Logger.Warn("reciprocity check failed, like kept", "from", viewer, "to", target, "err", err)
		return nil, svcErr.Unavailable("like recorded, match check failed")
	}
	if !mutual {
		s.appCtx.Logger.Debug("like recorded", "from", viewer, "to", target)
		return &pb.LikeResponse{Matched: false}, nil
	}

	match, created, err := s.matchRepo.CreateIfAbsent(ctx, viewer, target)
	if err != nil {
		s.appCtx.Logger.Warn("match create failed, like kept", "from", viewer, "to", target, "err", err)
		return nil, svcErr.Unavailable("like recorded, match check failed")
	}

	s.appCtx.Logger.Info("mutual like", "match_id", match.ID, "user1", match.User1, "user2", match.User2, "created", created)
	return &pb.LikeResponse{Matched: true, Match: convert.Match(match)}, nil
}

// Pass skips target. Passes are not persisted: the target can show up again
// in a later ListCandidates call.
func (s *Service) Pass(ctx context.Context, req *pb.PassRequest) (*pb.PassResponse, error) {
	viewer, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.validateTarget(ctx, viewer, req.TargetUserID); err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("pass", "from", viewer, "to", req.TargetUserID)
	return &pb.PassResponse{}, nil
}

// ListMatches returns the caller's matches with the counterpart's current profile.
//
// Behavior:
//   - Newest match first.
//   - Matches whose counterpart profile was deleted are omitted.
func (s *Service) ListMatches(ctx context.Context, req *pb.ListMatchesRequest) (*pb.ListMatchesResponse, error) {
	user, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	matches, err := s.matchRepo.ListForUser(ctx, user)
	if err != nil {
		s.appCtx.Logger.Error("ListForUser failed", "user", user, "err", err)
		return nil, svcErr.Map(err)
	}

	counterparts := make([]string, 0, len(matches))
	for _, m := range matches {
		if other, ok := m.Counterpart(user); ok {
			counterparts = append(counterparts, other)
		}
	}
	profiles, err := s.profileRepo.GetMany(ctx, counterparts)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListMatchesResponse{Matches: make([]*pb.MatchWithProfile, 0, len(matches))}
	for i := range matches {
		m := &matches[i]
		other, _ := m.Counterpart(user)
		p, ok := profiles[other]
		if !ok {
			s.appCtx.Logger.Debug("skipping match without counterpart profile", "match_id", m.ID, "counterpart", other)
			continue
		}
		resp.Matches = append(resp.Matches, &pb.MatchWithProfile{
			Match:       convert.Match(m),
			Counterpart: convert.Profile(&p),
		})
	}
	return resp, nil
}

func (s *Service) validateTarget(ctx context.Context, viewer, target string) error {
	if target == "" {
		return svcErr.Validation("target_user_id is required")
	}
	if target == viewer {
		return svcErr.Validation("cannot like or pass yourself")
	}
	if _, err := s.profileRepo.Get(ctx, target); err != nil {
		return err
	}
	return nil
}

var _ likeStore = (*repository.LikeRepository)(nil)

var _ pb.ExploreServiceServer = (*Service)(nil)
