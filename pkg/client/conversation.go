package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
)

const (
	minResubscribeDelay = 100 * time.Millisecond
	maxResubscribeDelay = 5 * time.Second
	sendAttempts        = 3
)

// MessageFunc receives each message newly added to a conversation log,
// whether it came from history, the push stream or the caller's own Send.
// Calls are serialized; fn must not call Send on the same conversation
// synchronously. fn may call Close, which then returns without waiting for Done.
type MessageFunc func(*Message)

// Conversation is one open chat view with a counterpart.
//
// The log holds stored messages ordered by (created_at, id), each exactly
// once. Pending holds drafts being sent.
type Conversation struct {
	c           *Client
	counterpart string
	onMessage   MessageFunc

	mu      sync.Mutex
	log     []*Message
	seen    map[uint64]struct{}
	pending []Draft

	// serializes onMessage
	deliverMu  sync.Mutex
	delivering atomic.Bool

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// OpenConversation subscribes to new messages with counterpart, then loads
// the history, so no message can fall between the two. It returns once the
// first load succeeded. If the stream later drops, the conversation
// resubscribes and reloads on its own until Close.
//
// ctx bounds the initial open only. onMessage may be nil.
func (c *Client) OpenConversation(ctx context.Context, counterpart string, onMessage MessageFunc) (*Conversation, error) {
	if c.token() == "" {
		return nil, ErrNotSignedIn
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cv := &Conversation{
		c:           c,
		counterpart: counterpart,
		onMessage:   onMessage,
		seen:        make(map[uint64]struct{}),
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	opened := make(chan error, 1)
	go cv.run(runCtx, opened)

	select {
	case err := <-opened:
		if err != nil {
			cv.Close()
			return nil, err
		}
		return cv, nil
	case <-ctx.Done():
		cv.Close()
		return nil, ctx.Err()
	}
}

// Counterpart returns the other participant.
func (cv *Conversation) Counterpart() string { return cv.counterpart }

// Messages returns a copy of the stored messages in display order.
func (cv *Conversation) Messages() []*Message {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return append([]*Message(nil), cv.log...)
}

// Pending returns the drafts currently being sent.
func (cv *Conversation) Pending() []Draft {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return append([]Draft(nil), cv.pending...)
}

// Done is closed once the conversation stopped delivering.
func (cv *Conversation) Done() <-chan struct{} { return cv.done }

// Close stops the subscription and waits for it to end. Safe to call twice.
func (cv *Conversation) Close() {
	cv.closeOnce.Do(cv.cancel)
	if cv.delivering.Load() {
		// called from onMessage: the run loop may be waiting on this delivery
		return
	}
	<-cv.done
}

// Send posts content in two phases: the draft shows up in Pending right away,
// then is either replaced by the stored message or removed again. On failure
// the returned *DraftError carries the draft to restore. Transient failures
// are retried with the same idempotency key, so a retry never stores twice.
func (cv *Conversation) Send(ctx context.Context, content string) (*Message, error) {
	return cv.SendDraft(ctx, Draft{ClientID: uuid.NewString(), Content: content})
}

// SendDraft resends a draft returned in a *DraftError.
func (cv *Conversation) SendDraft(ctx context.Context, d Draft) (*Message, error) {
	if d.ClientID == "" {
		d.ClientID = uuid.NewString()
	}
	cv.addPending(d)

	msg, err := cv.sendWithRetry(ctx, d)
	cv.removePending(d.ClientID)
	if err != nil {
		return nil, &DraftError{Draft: d, Err: err}
	}

	cv.merge([]*Message{msg})
	return msg, nil
}

func (cv *Conversation) sendWithRetry(ctx context.Context, d Draft) (*Message, error) {
	req := &pb.SendMessageRequest{ReceiverID: cv.counterpart, Content: d.Content, ClientMessageID: d.ClientID}
	delay := minResubscribeDelay

	var lastErr error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		resp, err := cv.c.chat.SendMessage(ctx, req)
		if err == nil {
			return resp.Message, nil
		}
		lastErr = err
		if !IsTransient(err) {
			break
		}
	}
	return nil, lastErr
}

func (cv *Conversation) addPending(d Draft) {
	cv.mu.Lock()
	cv.pending = append(cv.pending, d)
	cv.mu.Unlock()
}

func (cv *Conversation) removePending(clientID string) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	for i, d := range cv.pending {
		if d.ClientID == clientID {
			cv.pending = append(cv.pending[:i:i], cv.pending[i+1:]...)
			return
		}
	}
}

// merge adds messages not yet in the log, keeps the order and delivers the
// new ones to onMessage.
func (cv *Conversation) merge(msgs []*Message) {
	cv.deliverMu.Lock()
	defer cv.deliverMu.Unlock()

	cv.mu.Lock()
	added := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if _, dup := cv.seen[m.ID]; dup {
			continue
		}
		cv.seen[m.ID] = struct{}{}
		cv.insert(m)
		added = append(added, m)
	}
	cv.mu.Unlock()

	if cv.onMessage == nil {
		return
	}
	sort.Slice(added, func(i, j int) bool { return less(added[i], added[j]) })
	cv.delivering.Store(true)
	defer cv.delivering.Store(false)
	for _, m := range added {
		cv.onMessage(m)
	}
}

// insert places m by (created_at, id). Most messages are newest, so the
// common case is an append.
func (cv *Conversation) insert(m *Message) {
	n := len(cv.log)
	if n == 0 || less(cv.log[n-1], m) {
		cv.log = append(cv.log, m)
		return
	}
	i := sort.Search(n, func(i int) bool { return less(m, cv.log[i]) })
	cv.log = append(cv.log, nil)
	copy(cv.log[i+1:], cv.log[i:])
	cv.log[i] = m
}

func less(a, b *Message) bool {
	if a.CreatedAtUnixMs != b.CreatedAtUnixMs {
		return a.CreatedAtUnixMs < b.CreatedAtUnixMs
	}
	return a.ID < b.ID
}

func (cv *Conversation) refetch(ctx context.Context) error {
	resp, err := cv.c.chat.ListMessages(ctx, &pb.ListMessagesRequest{CounterpartID: cv.counterpart})
	if err != nil {
		return err
	}
	cv.merge(resp.Messages)
	return nil
}

// run keeps one subscription alive until ctx is canceled. opened receives the
// outcome of the first attempt.
func (cv *Conversation) run(ctx context.Context, opened chan<- error) {
	defer close(cv.done)

	log := cv.c.log.With("counterpart", cv.counterpart)
	delay := minResubscribeDelay
	first := true

	for {
		ready, err := cv.stream(ctx, func() {
			if first {
				first = false
				opened <- nil
			}
		})
		if ctx.Err() != nil {
			return
		}
		if first {
			opened <- err
			return
		}
		if IsAuth(err) || status.Code(err) == codes.PermissionDenied || IsValidation(err) {
			log.Warn("conversation stopped", "err", err)
			return
		}

		if ready {
			delay = minResubscribeDelay
		}
		log.Debug("conversation stream lost, resubscribing", "err", err, "delay", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, maxResubscribeDelay)
	}
}

// stream runs one subscription: wait for the server's ready event, load
// history, then apply pushed events until the stream ends. onReady fires after
// the first successful load. ready reports whether that point was reached.
func (cv *Conversation) stream(ctx context.Context, onReady func()) (ready bool, err error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := cv.c.chat.Subscribe(streamCtx, &pb.SubscribeRequest{CounterpartID: cv.counterpart})
	if err != nil {
		return false, err
	}

	ev, err := sub.Recv()
	if err != nil {
		return false, err
	}
	if ev.Type != pb.EventReady {
		return false, fmt.Errorf("client: unexpected first event %q", ev.Type)
	}
	if err := cv.refetch(streamCtx); err != nil {
		return false, err
	}
	onReady()

	for {
		ev, err := sub.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = status.Error(codes.Unavailable, "stream closed by server")
			}
			return true, err
		}
		switch ev.Type {
		case pb.EventMessage:
			cv.mergeEvent(ev.Message)
		case pb.EventResync:
			if err := cv.refetch(streamCtx); err != nil {
				return true, err
			}
		}
	}
}

// mergeEvent drops pushed messages of other conversations; the server already
// filters, this keeps the log correct against any transport.
func (cv *Conversation) mergeEvent(m *Message) {
	if m == nil {
		return
	}
	me := ""
	if s := cv.c.Session(); s != nil {
		me = s.UserID
	}
	inConversation := (m.Sender == me && m.Receiver == cv.counterpart) ||
		(m.Sender == cv.counterpart && m.Receiver == me)
	if !inConversation {
		return
	}
	cv.merge([]*Message{m})
}
