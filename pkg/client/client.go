// Package client is the Go SDK for the campus.v1 gRPC API.
//
// A Client owns one connection and one session. Sign in with SignUp or
// SignIn; the token is then attached to every call. Discovery goes through
// Feed, chat through OpenConversation.
package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
)

// Wire types re-exported for SDK users.
type (
	Profile              = pb.Profile
	Match                = pb.Match
	Message              = pb.Message
	MatchWithProfile     = pb.MatchWithProfile
	CreateProfileRequest = pb.CreateProfileRequest
	UpdateProfileRequest = pb.UpdateProfileRequest
	LikeResponse         = pb.LikeResponse
)

// Session is the signed-in state: identity, token and the cached own profile.
// Profile is nil until the user has created one.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
	Profile   *Profile
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// Client is safe for concurrent use.
type Client struct {
	conn     *grpc.ClientConn
	auth     pb.AuthServiceClient
	profiles pb.ProfileServiceClient
	explore  pb.ExploreServiceClient
	chat     pb.ChatServiceClient
	log      *slog.Logger

	mu        sync.RWMutex
	session   *Session
	listeners map[int]func(*Session)
	nextID    int

	// serializes listener callbacks so they observe transitions in order
	notifyMu sync.Mutex
}

type options struct {
	dialOpts []grpc.DialOption
	log      *slog.Logger
}

// Option configures Dial.
type Option func(*options)

// WithDialOptions appends gRPC dial options (credentials, custom dialers).
// Without credentials the connection is insecure.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOpts = append(o.dialOpts, opts...) }
}

// WithLogger sets the logger used for background activity such as
// conversation resubscribes.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Dial creates a Client for target. No network I/O happens until the first call.
func Dial(target string, opts ...Option) (*Client, error) {
	o := &options{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, fn := range opts {
		fn(o)
	}

	c := &Client{log: o.log, listeners: make(map[int]func(*Session))}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(c.unaryInterceptor),
		grpc.WithChainStreamInterceptor(c.streamInterceptor),
	}, o.dialOpts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	c.auth = pb.NewAuthServiceClient(conn)
	c.profiles = pb.NewProfileServiceClient(conn)
	c.explore = pb.NewExploreServiceClient(conn)
	c.chat = pb.NewChatServiceClient(conn)
	return c, nil
}

// Close releases the connection. Open conversations stop delivering.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

func withToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func (c *Client) unaryInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	token := c.token()
	err := invoker(withToken(ctx, token), method, req, reply, cc, opts...)
	if method != pb.AuthService_SignIn_FullMethodName && method != pb.AuthService_SignUp_FullMethodName {
		c.checkSession(token, err)
	}
	return err
}

func (c *Client) streamInterceptor(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return streamer(withToken(ctx, c.token()), desc, cc, method, opts...)
}

// checkSession drops the local session when the server rejected its token.
func (c *Client) checkSession(token string, err error) {
	if token == "" || status.Code(err) != codes.Unauthenticated {
		return
	}
	c.endSession(token)
}

// --- session context ---

// Session returns a copy of the current session, or nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.clone()
}

// OnSessionChange registers fn to be called with the new session (nil on
// sign-out) after every transition. The returned func unregisters it.
func (c *Client) OnSessionChange(fn func(*Session)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SignUp registers a new account and starts a session for it.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.auth.SignUp(ctx, &pb.SignUpRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.startSession(ctx, resp.Session)
}

// SignIn starts a session for an existing account.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.auth.SignIn(ctx, &pb.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.startSession(ctx, resp.Session)
}

func (c *Client) startSession(ctx context.Context, s *pb.Session) (*Session, error) {
	session := &Session{
		UserID:    s.UserID,
		Email:     s.Email,
		Token:     s.Token,
		ExpiresAt: time.UnixMilli(s.ExpiresAtUnixMs),
	}
	c.setSession(session)

	if s.HasProfile {
		if _, err := c.RefreshProfile(ctx); err != nil {
			c.log.Warn("profile load after sign-in failed", "err", err)
		}
	}
	return c.Session(), nil
}

// RefreshProfile reloads the caller's own profile into the session. A user
// without a profile gets (nil, nil).
func (c *Client) RefreshProfile(ctx context.Context) (*Profile, error) {
	if c.token() == "" {
		return nil, ErrNotSignedIn
	}
	resp, err := c.profiles.GetProfile(ctx, &pb.GetProfileRequest{})
	if err != nil {
		if IsNotFound(err) {
			c.updateProfile(nil)
			return nil, nil
		}
		return nil, err
	}
	c.updateProfile(resp.Profile)
	return resp.Profile, nil
}

// SignOut revokes the token on the server and clears the local session.
// The local session is cleared even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.token()
	if token == "" {
		return nil
	}
	_, err := c.auth.SignOut(ctx, &pb.SignOutRequest{})
	c.endSession(token)
	if status.Code(err) == codes.Unauthenticated {
		return nil
	}
	return err
}

// ChangePassword changes the password of the signed-in account.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := c.auth.ChangePassword(ctx, &pb.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword})
	return err
}

// DeleteAccount deletes the signed-in account and ends the session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	token := c.token()
	if _, err := c.auth.DeleteAccount(ctx, &pb.DeleteAccountRequest{}); err != nil {
		return err
	}
	c.endSession(token)
	return nil
}

// --- profile ---

// CreateProfile creates the caller's profile and caches it in the session.
func (c *Client) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*Profile, error) {
	resp, err := c.profiles.CreateProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	c.updateProfile(resp.Profile)
	return resp.Profile, nil
}

// UpdateProfile changes the set fields of the caller's profile.
func (c *Client) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*Profile, error) {
	resp, err := c.profiles.UpdateProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	c.updateProfile(resp.Profile)
	return resp.Profile, nil
}

// GetProfile loads another user's profile.
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	resp, err := c.profiles.GetProfile(ctx, &pb.GetProfileRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

// UsernameAvailable is a hint only: CreateProfile may still fail with a conflict.
func (c *Client) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	resp, err := c.profiles.CheckUsernameAvailable(ctx, &pb.CheckUsernameRequest{Username: username})
	if err != nil {
		return false, err
	}
	return resp.Available, nil
}

// Matches lists the caller's matches, newest first.
func (c *Client) Matches(ctx context.Context) ([]*MatchWithProfile, error) {
	resp, err := c.explore.ListMatches(ctx, &pb.ListMatchesRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// --- state transitions ---

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.notify()
}

func (c *Client) updateProfile(p *Profile) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session.Profile = p
	c.mu.Unlock()
	c.notify()
}

// endSession clears the session if it still holds token.
func (c *Client) endSession(token string) {
	c.mu.Lock()
	if c.session == nil || c.session.Token != token {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Client) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.RLock()
	current := c.session.clone()
	fns := make([]func(*Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(current.clone())
	}
}

// ErrNotSignedIn is returned by calls that need a session when there is none.
var ErrNotSignedIn = errors.New("client: not signed in")
