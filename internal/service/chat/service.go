package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/db"
	svcErr "github.com/oggyb/campus-connect/internal/errors"
	"github.com/oggyb/campus-connect/internal/realtime"
	"github.com/oggyb/campus-connect/internal/repository"
	"github.com/oggyb/campus-connect/internal/service/convert"
)

const (
	maxContentRunes = 4000
	maxClientKeyLen = 128
	streamBuffer    = 64
)

// Service implements the Chat gRPC API: the per-conversation message log and
// its realtime fan-out.
type Service struct {
	appCtx      *app.AppContext
	messageRepo *repository.MessageRepository
	matchRepo   *repository.MatchRepository
	profileRepo *repository.ProfileRepository

	pb.UnimplementedChatServiceServer
}

// NewChatService creates a new Chat service with dependencies from AppContext.
func NewChatService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		messageRepo: repository.NewMessageRepository(appCtx.DB),
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// ListMessages returns the conversation between the caller and counterpart,
// oldest first (created_at, then id).
func (s *Service) ListMessages(ctx context.Context, req *pb.ListMessagesRequest) (*pb.ListMessagesResponse, error) {
	user, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if req.CounterpartID == "" {
		return nil, svcErr.InvalidArgument("counterpart_id is required")
	}

	messages, err := s.messageRepo.ListConversation(ctx, user, req.CounterpartID)
	if err != nil {
		s.appCtx.Logger.Error("ListConversation failed", "user", user, "counterpart", req.CounterpartID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListMessagesResponse{Messages: make([]*pb.Message, 0, len(messages))}
	for i := range messages {
		resp.Messages = append(resp.Messages, convert.Message(&messages[i]))
	}
	return resp, nil
}

// SendMessage stores one message and publishes it on the broad topic.
//
// Behavior:
//   - Content is trimmed; empty or whitespace-only → InvalidArgument, nothing stored.
//   - With chat.require_match the pair must be matched (PermissionDenied otherwise).
//   - client_message_id makes a retry return the already stored message.
//   - Publish failures are logged only: subscribers recover by refetching.
func (s *Service) SendMessage(ctx context.Context, req *pb.SendMessageRequest) (*pb.SendMessageResponse, error) {
	sender, err := auth.UserID(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	content, err := validateSend(sender, req)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.authorize(ctx, sender, req.ReceiverID); err != nil {
		return nil, svcErr.Map(err)
	}

	key := req.ClientMessageID
	if key != "" {
		if replay, done, err := s.reserve(ctx, sender, key); err != nil {
			return nil, svcErr.Map(err)
		} else if done {
			return &pb.SendMessageResponse{Message: convert.Message(replay)}, nil
		}
	}

	msg := &db.Message{Sender: sender, Receiver: req.ReceiverID, Content: content}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		s.appCtx.Logger.Error("message insert failed", "sender", sender, "receiver", req.ReceiverID, "err", err)
		if key != "" {
			_ = s.appCtx.RedisCache.ReleaseMessageKey(context.WithoutCancel(ctx), sender, key)
		}
		return nil, svcErr.Map(err)
	}

	if key != "" {
		if err := s.appCtx.RedisCache.CompleteMessageKey(context.WithoutCancel(ctx), sender, key, msg.ID, s.idempotencyTTL()); err != nil {
			s.appCtx.Logger.Warn("idempotency key not completed", "sender", sender, "key", key, "err", err)
		}
	}

	s.publish(context.WithoutCancel(ctx), msg)
	return &pb.SendMessageResponse{Message: convert.Message(msg)}, nil
}

// Subscribe streams new messages of the conversation {caller, counterpart}.
//
// The stream opens with a "ready" event once the bus subscription is live, then
// carries "message" events, filtered and deduped by id. A "resync" event means
// the bus connection dropped and was restored; messages may have been missed.
func (s *Service) Subscribe(req *pb.SubscribeRequest, stream pb.ChatService_SubscribeServer) error {
	// handlers blocked on a full buffer unblock once ctx is canceled
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	user, err := auth.UserID(ctx)
	if err != nil {
		return svcErr.Map(err)
	}
	if req.CounterpartID == "" || req.CounterpartID == user {
		return svcErr.InvalidArgument("counterpart_id must be another user")
	}

	log := s.appCtx.Logger.With("user", user, "counterpart", req.CounterpartID)
	filter := realtime.NewConversationFilter(user, req.CounterpartID, realtime.DefaultDedupeWindow)
	out := make(chan *pb.MessageEvent, streamBuffer)

	push := func(ev *pb.MessageEvent) {
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	handler := func(ev *realtime.Event) {
		if ev.Type != realtime.EventMessageCreated {
			return
		}
		var p realtime.MessagePayload
		if err := ev.UnmarshalPayload(&p); err != nil {
			log.Debug("skipping malformed message event", "err", err)
			return
		}
		if !filter.Accept(p) {
			return
		}
		push(&pb.MessageEvent{Type: pb.EventMessage, Message: convert.MessageFromPayload(p)})
	}

	sub, err := s.appCtx.Bus.Subscribe(ctx, realtime.MessagesTopic, handler, realtime.OnResubscribe(func() {
		push(&pb.MessageEvent{Type: pb.EventResync})
	}))
	if err != nil {
		log.Error("bus subscribe failed", "err", err)
		return svcErr.Unavailable("realtime channel unavailable")
	}
	defer func() {
		cancel()
		sub.Cancel()
	}()

	if err := stream.Send(&pb.MessageEvent{Type: pb.EventReady}); err != nil {
		return err
	}
	log.Debug("conversation subscription opened")

	for {
		select {
		case <-ctx.Done():
			log.Debug("conversation subscription closed")
			return nil
		case <-sub.Done():
			return svcErr.Unavailable("realtime channel closed")
		case ev := <-out:
			if err := stream.Send(ev); err != nil {
				return err
			}
		}
	}
}

func validateSend(sender string, req *pb.SendMessageRequest) (string, error) {
	if req.ReceiverID == "" {
		return "", svcErr.Validation("receiver_id is required")
	}
	if req.ReceiverID == sender {
		return "", svcErr.Validation("cannot message yourself")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", svcErr.Validation("message content is empty")
	}
	if utf8.RuneCountInString(content) > maxContentRunes {
		return "", svcErr.Validation("message is longer than %d characters", maxContentRunes)
	}
	if len(req.ClientMessageID) > maxClientKeyLen {
		return "", svcErr.Validation("client_message_id is too long")
	}
	return content, nil
}

// authorize checks the receiver may be messaged by sender.
func (s *Service) authorize(ctx context.Context, sender, receiver string) error {
	if !s.appCtx.Config.Chat.RequireMatch {
		_, err := s.profileRepo.Get(ctx, receiver)
		return err
	}
	matched, err := s.matchRepo.Exists(ctx, sender, receiver)
	if err != nil {
		return err
	}
	if !matched {
		return svcErr.PermissionDenied("you can only message your matches")
	}
	return nil
}

// reserve claims the idempotency key. done=true means a previous attempt
// already stored the message, which is returned.
func (s *Service) reserve(ctx context.Context, sender, key string) (*db.Message, bool, error) {
	id, first, err := s.appCtx.RedisCache.ReserveMessageKey(ctx, sender, key, s.sendLease())
	if err != nil {
		// no dedupe without Redis, but the send itself can still succeed
		s.appCtx.Logger.Warn("idempotency reserve failed", "sender", sender, "err", err)
		return nil, false, nil
	}
	if first {
		return nil, false, nil
	}
	if id == 0 {
		return nil, false, svcErr.Unavailable("message send already in progress")
	}

	msg, err := s.messageRepo.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	s.appCtx.Logger.Debug("replaying idempotent send", "sender", sender, "message_id", id)
	return msg, true, nil
}

func (s *Service) publish(ctx context.Context, msg *db.Message) {
	ev, err := realtime.NewEvent(realtime.EventMessageCreated, convert.MessagePayload(msg))
	if err == nil {
		err = s.appCtx.Bus.Publish(ctx, realtime.MessagesTopic, ev)
	}
	if err != nil {
		s.appCtx.Logger.Warn("message publish failed", "message_id", msg.ID, "err", err)
	}
}

// sendLease bounds how long an unfinished send blocks retries of the same key.
func (s *Service) sendLease() time.Duration {
	if lease := s.appCtx.Config.Chat.SendLease; lease > 0 {
		return lease
	}
	return 30 * time.Second
}

func (s *Service) idempotencyTTL() time.Duration {
	if ttl := s.appCtx.Config.Chat.IdempotencyTTL; ttl > 0 {
		return ttl
	}
	return 24 * time.Hour
}

var _ pb.ChatServiceServer = (*Service)(nil)
