package client

import (
	"context"
	"errors"
	"sync"

	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
)

// ErrFeedExhausted is returned by Feed.Next when no candidates are left.
var ErrFeedExhausted = errors.New("client: no more candidates")

// Feed walks the discovery feed page by page. The cursor is local: passing a
// profile only moves past it, so Reset brings passed profiles back.
type Feed struct {
	c        *Client
	pageSize int32

	mu      sync.Mutex
	queue   []*Profile
	next    *string
	started bool
}

// Feed returns a new feed cursor. pageSize <= 0 uses the server default.
func (c *Client) Feed(pageSize int) *Feed {
	return &Feed{c: c, pageSize: int32(pageSize)}
}

// Next returns the next candidate, loading another page when needed.
func (f *Feed) Next(ctx context.Context) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.queue) == 0 {
		if f.started && f.next == nil {
			return nil, ErrFeedExhausted
		}
		resp, err := f.c.explore.ListCandidates(ctx, &pb.ListCandidatesRequest{PageToken: f.next, PageSize: f.pageSize})
		if err != nil {
			return nil, err
		}
		f.started = true
		f.queue = resp.Profiles
		f.next = resp.NextPageToken
	}

	p := f.queue[0]
	f.queue = f.queue[1:]
	return p, nil
}

// Like records interest in target and reports whether it completed a match.
// A Transient error means the like was stored but the match check failed;
// the match is created later by the server.
func (f *Feed) Like(ctx context.Context, target string) (*LikeResponse, error) {
	return f.c.explore.Like(ctx, &pb.LikeRequest{TargetUserID: target})
}

// Pass skips target. Nothing is stored: the cursor has already moved past it.
func (f *Feed) Pass(target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.queue {
		if p.ID == target {
			f.queue = append(f.queue[:i:i], f.queue[i+1:]...)
			return
		}
	}
}

// Reset starts the feed over from the first page.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue, f.next, f.started = nil, nil, false
}
