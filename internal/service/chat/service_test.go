package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/repository"
	"github.com/oggyb/campus-connect/internal/service/chat"
	"github.com/oggyb/campus-connect/internal/testutil"
)

type fixture struct {
	env              *testutil.Env
	svc              *chat.Service
	alice, bob, carl string
}

// setupService creates three users where alice and bob are matched.
func setupService(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	f := &fixture{
		env:   env,
		svc:   chat.NewChatService(env.App),
		alice: env.CreateUser(t, "alice"),
		bob:   env.CreateUser(t, "bob"),
		carl:  env.CreateUser(t, "carl"),
	}
	_, _, err := repository.NewMatchRepository(env.App.DB).CreateIfAbsent(context.Background(), f.alice, f.bob)
	require.NoError(t, err)
	return f
}

func messageCount(t *testing.T, f *fixture) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.env.App.DB.Model(&db.Message{}).Count(&n).Error)
	return n
}

// fakeStream collects events sent on a Subscribe stream.
type fakeStream struct {
	grpc.ServerStream
	ctx    context.Context
	events chan *pb.MessageEvent
}

func newFakeStream(ctx context.Context) *fakeStream {
	return &fakeStream{ctx: ctx, events: make(chan *pb.MessageEvent, 16)}
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func (s *fakeStream) Send(ev *pb.MessageEvent) error {
	s.events <- ev
	return nil
}

func (s *fakeStream) next(t *testing.T) *pb.MessageEvent {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stream event")
		return nil
	}
}

func TestSendAndListMessages(t *testing.T) {
	f := setupService(t)
	asAlice := testutil.As(context.Background(), f.alice)
	asBob := testutil.As(context.Background(), f.bob)

	first, err := f.svc.SendMessage(asAlice, &pb.SendMessageRequest{ReceiverID: f.bob, Content: "  hi bob  "})
	require.NoError(t, err)
	assert.Equal(t, "hi bob", first.Message.Content)
	assert.Equal(t, f.alice, first.Message.Sender)

	_, err = f.svc.SendMessage(asBob, &pb.SendMessageRequest{ReceiverID: f.alice, Content: "hey"})
	require.NoError(t, err)

	for _, ctx := range []context.Context{asAlice, asBob} {
		counterpart := f.bob
		if ctx == asBob {
			counterpart = f.alice
		}
		resp, err := f.svc.ListMessages(ctx, &pb.ListMessagesRequest{CounterpartID: counterpart})
		require.NoError(t, err)
		require.Len(t, resp.Messages, 2)
		assert.Equal(t, "hi bob", resp.Messages[0].Content)
		assert.Equal(t, "hey", resp.Messages[1].Content)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	f := setupService(t)
	asAlice := testutil.As(context.Background(), f.alice)

	cases := map[string]*pb.SendMessageRequest{
		"whitespace only": {ReceiverID: f.bob, Content: " \n\t "},
		"empty":           {ReceiverID: f.bob},
		"self":            {ReceiverID: f.alice, Content: "me"},
		"no receiver":     {Content: "hello"},
		"too long":        {ReceiverID: f.bob, Content: strings.Repeat("a", 4001)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SendMessage(asAlice, req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
	assert.Zero(t, messageCount(t, f))
}

func TestSendMessage_RequiresMatch(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.SendMessage(testutil.As(context.Background(), f.alice), &pb.SendMessageRequest{ReceiverID: f.carl, Content: "hi"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Zero(t, messageCount(t, f))
}

func TestSendMessage_OpenMessaging(t *testing.T) {
	f := setupService(t)
	f.env.App.Config.Chat.RequireMatch = false
	asAlice := testutil.As(context.Background(), f.alice)

	_, err := f.svc.SendMessage(asAlice, &pb.SendMessageRequest{ReceiverID: f.carl, Content: "hi"})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(asAlice, &pb.SendMessageRequest{ReceiverID: "ghost", Content: "hi"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSendMessage_Idempotent(t *testing.T) {
	f := setupService(t)
	asAlice := testutil.As(context.Background(), f.alice)
	req := &pb.SendMessageRequest{ReceiverID: f.bob, Content: "once", ClientMessageID: "draft-1"}

	first, err := f.svc.SendMessage(asAlice, req)
	require.NoError(t, err)
	again, err := f.svc.SendMessage(asAlice, req)
	require.NoError(t, err)

	assert.Equal(t, first.Message.ID, again.Message.ID)
	assert.EqualValues(t, 1, messageCount(t, f))
}

// TestSendMessage_AbandonedReservationExpires checks a send that died between
// reserving its key and storing the message only blocks retries for the lease.
func TestSendMessage_AbandonedReservationExpires(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	asAlice := testutil.As(ctx, f.alice)
	lease := f.env.App.Config.Chat.SendLease
	require.Positive(t, lease)

	_, first, err := f.env.App.RedisCache.ReserveMessageKey(ctx, f.alice, "draft-x", lease)
	require.NoError(t, err)
	require.True(t, first)

	req := &pb.SendMessageRequest{ReceiverID: f.bob, Content: "retry me", ClientMessageID: "draft-x"}
	_, err = f.svc.SendMessage(asAlice, req)
	assert.Equal(t, codes.Unavailable, status.Code(err), "in-flight claim still holds")

	f.env.Redis.FastForward(lease + time.Second)

	sent, err := f.svc.SendMessage(asAlice, req)
	require.NoError(t, err)
	again, err := f.svc.SendMessage(asAlice, req)
	require.NoError(t, err)
	assert.Equal(t, sent.Message.ID, again.Message.ID)
	assert.EqualValues(t, 1, messageCount(t, f))

	ttl := f.env.Redis.TTL("chat:idem:" + f.alice + ":draft-x")
	assert.Greater(t, ttl, lease, "completed key keeps the full idempotency window")
}

// TestSendMessage_RedisDown checks the message is still stored when the bus
// and idempotency store are unreachable.
func TestSendMessage_RedisDown(t *testing.T) {
	f := setupService(t)
	f.env.Redis.Close()

	resp, err := f.svc.SendMessage(testutil.As(context.Background(), f.alice),
		&pb.SendMessageRequest{ReceiverID: f.bob, Content: "still here", ClientMessageID: "k"})
	require.NoError(t, err)
	assert.NotZero(t, resp.Message.ID)
	assert.EqualValues(t, 1, messageCount(t, f))
}

func TestSubscribe_DeliversConversationOnly(t *testing.T) {
	f := setupService(t)
	f.env.App.Config.Chat.RequireMatch = false

	ctx, cancel := context.WithCancel(testutil.As(context.Background(), f.alice))
	stream := newFakeStream(ctx)
	done := make(chan error, 1)
	go func() { done <- f.svc.Subscribe(&pb.SubscribeRequest{CounterpartID: f.bob}, stream) }()

	require.Equal(t, pb.EventReady, stream.next(t).Type)

	_, err := f.svc.SendMessage(testutil.As(context.Background(), f.carl), &pb.SendMessageRequest{ReceiverID: f.alice, Content: "not for this chat"})
	require.NoError(t, err)
	sent, err := f.svc.SendMessage(testutil.As(context.Background(), f.bob), &pb.SendMessageRequest{ReceiverID: f.alice, Content: "hello alice"})
	require.NoError(t, err)

	ev := stream.next(t)
	require.Equal(t, pb.EventMessage, ev.Type)
	assert.Equal(t, sent.Message.ID, ev.Message.ID)
	assert.Equal(t, "hello alice", ev.Message.Content)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
	assert.Empty(t, stream.events)
}

func TestSubscribe_RejectsSelf(t *testing.T) {
	f := setupService(t)
	ctx := testutil.As(context.Background(), f.alice)

	err := f.svc.Subscribe(&pb.SubscribeRequest{CounterpartID: f.alice}, newFakeStream(ctx))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestChat_Unauthenticated(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.ListMessages(context.Background(), &pb.ListMessagesRequest{CounterpartID: f.bob})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
