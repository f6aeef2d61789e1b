package campuspb

// Profile is the public view of a user profile.
type Profile struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Gender          string   `json:"gender"`
	Bio             string   `json:"bio,omitempty"`
	Interests       []string `json:"interests,omitempty"`
	YearOfStudy     int32    `json:"year_of_study"`
	LookingFor      string   `json:"looking_for"`
	ProfileImage    string   `json:"profile_image,omitempty"`
	CreatedAtUnixMs int64    `json:"created_at_unix_ms"`
	UpdatedAtUnixMs int64    `json:"updated_at_unix_ms"`
}

type Match struct {
	ID              uint64 `json:"id"`
	User1           string `json:"user1"`
	User2           string `json:"user2"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
}

type Message struct {
	ID              uint64 `json:"id"`
	Sender          string `json:"sender"`
	Receiver        string `json:"receiver"`
	Content         string `json:"content"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
}

// --- auth ---

type Session struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	Token           string `json:"token,omitempty"`
	ExpiresAtUnixMs int64  `json:"expires_at_unix_ms"`
	HasProfile      bool   `json:"has_profile"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Session *Session `json:"session"`
}

type GetSessionRequest struct{}

type SignOutRequest struct{}

type SignOutResponse struct{}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordResponse struct{}

type DeleteAccountRequest struct{}

type DeleteAccountResponse struct{}

// --- profile ---

type CreateProfileRequest struct {
	Username     string   `json:"username"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Gender       string   `json:"gender"`
	Bio          string   `json:"bio,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	YearOfStudy  int32    `json:"year_of_study"`
	LookingFor   string   `json:"looking_for"`
	ProfileImage string   `json:"profile_image,omitempty"`
}

// UpdateProfileRequest changes only the fields that are set.
type UpdateProfileRequest struct {
	Username     *string   `json:"username,omitempty"`
	FirstName    *string   `json:"first_name,omitempty"`
	LastName     *string   `json:"last_name,omitempty"`
	Gender       *string   `json:"gender,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	Interests    *[]string `json:"interests,omitempty"`
	YearOfStudy  *int32    `json:"year_of_study,omitempty"`
	LookingFor   *string   `json:"looking_for,omitempty"`
	ProfileImage *string   `json:"profile_image,omitempty"`
}

// GetProfileRequest with an empty UserID returns the caller's own profile.
type GetProfileRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type ProfileResponse struct {
	Profile *Profile `json:"profile"`
}

type CheckUsernameRequest struct {
	Username string `json:"username"`
}

type CheckUsernameResponse struct {
	Available bool `json:"available"`
}

// --- explore ---

type ListCandidatesRequest struct {
	PageToken *string `json:"page_token,omitempty"`
	PageSize  int32   `json:"page_size,omitempty"`
}

type ListCandidatesResponse struct {
	Profiles      []*Profile `json:"profiles"`
	NextPageToken *string    `json:"next_page_token,omitempty"`
}

type LikeRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type LikeResponse struct {
	Matched bool   `json:"matched"`
	Match   *Match `json:"match,omitempty"`
}

type PassRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type PassResponse struct{}

type ListMatchesRequest struct{}

type MatchWithProfile struct {
	Match       *Match   `json:"match"`
	Counterpart *Profile `json:"counterpart"`
}

type ListMatchesResponse struct {
	Matches []*MatchWithProfile `json:"matches"`
}

// --- chat ---

type ListMessagesRequest struct {
	CounterpartID string `json:"counterpart_id"`
}

type ListMessagesResponse struct {
	Messages []*Message `json:"messages"`
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	// ClientMessageID makes retries of the same send idempotent.
	ClientMessageID string `json:"client_message_id,omitempty"`
}

type SendMessageResponse struct {
	Message *Message `json:"message"`
}

type SubscribeRequest struct {
	CounterpartID string `json:"counterpart_id"`
}

// Stream event types.
const (
	// EventReady is sent once the server-side subscription is live; history
	// fetched after it cannot miss a message.
	EventReady = "ready"
	// EventMessage carries a new message of the conversation.
	EventMessage = "message"
	// EventResync means events may have been lost; refetch history.
	EventResync = "resync"
)

type MessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
