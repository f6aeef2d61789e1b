package explore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/testutil"
)

// flakyLikes stores likes for real but fails the reciprocity lookup.
type flakyLikes struct {
	likeStore
}

func (flakyLikes) HasLiked(context.Context, string, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestLike_ReciprocityCheckFails(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.CreateUser(t, "alice")
	bob := env.CreateUser(t, "bob")

	svc := NewExploreService(env.App)
	_, err := svc.Like(testutil.As(context.Background(), alice), &pb.LikeRequest{TargetUserID: bob})
	require.NoError(t, err)

	svc.likeRepo = flakyLikes{likeStore: svc.likeRepo}
	_, err = svc.Like(testutil.As(context.Background(), bob), &pb.LikeRequest{TargetUserID: alice})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	// the like stands, no match was fabricated
	var likes, matches int64
	require.NoError(t, env.App.DB.Model(&db.Like{}).Where("from_user = ? AND to_user = ?", bob, alice).Count(&likes).Error)
	require.NoError(t, env.App.DB.Model(&db.Match{}).Count(&matches).Error)
	assert.Equal(t, int64(1), likes)
	assert.Equal(t, int64(0), matches)
}
