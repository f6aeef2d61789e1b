package client

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsValidation reports bad input (shape, length, empty message).
func IsValidation(err error) bool { return status.Code(err) == codes.InvalidArgument }

// IsConflict reports a username or email already taken.
func IsConflict(err error) bool { return status.Code(err) == codes.AlreadyExists }

// IsNotFound reports a missing profile or identity.
func IsNotFound(err error) bool { return status.Code(err) == codes.NotFound }

// IsAuth reports an expired, revoked or missing session. The SDK has already
// cleared the local session when it sees one.
func IsAuth(err error) bool { return status.Code(err) == codes.Unauthenticated }

// IsTransient reports a failure worth retrying with the same input.
func IsTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	}
	return false
}

// Draft is a message the user typed but that is not (yet) stored.
type Draft struct {
	// ClientID is the idempotency key sent with the message; resending the
	// same Draft cannot store it twice.
	ClientID string
	Content  string
}

// DraftError is returned by Conversation.Send when the message was not
// stored. Draft holds the input to restore so the user can resend it.
type DraftError struct {
	Draft Draft
	Err   error
}

func (e *DraftError) Error() string {
	return fmt.Sprintf("message not sent: %v", e.Err)
}

func (e *DraftError) Unwrap() error { return e.Err }
