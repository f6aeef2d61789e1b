package db

import (
	"time"

	"gorm.io/datatypes"
)

// Account is the identity record: one row per registered user.
// Its ID is the opaque identity referenced by every other table.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Profile is the dating/social profile attached 1:1 to an Account.
//
// ID doubles as the primary key and the owning account id, so a second
// profile for the same identity fails on the primary key. Username carries
// its own unique index, which is the authoritative guard against two users
// claiming the same handle concurrently.
type Profile struct {
	ID           string                      `gorm:"primaryKey;size:36;index:idx_profiles_created_id,priority:2"`
	Username     string                      `gorm:"uniqueIndex;size:64;not null"`
	FirstName    string                      `gorm:"size:100;not null"`
	LastName     string                      `gorm:"size:100;not null"`
	Gender       string                      `gorm:"size:16;not null"`
	Bio          string                      `gorm:"type:text"`
	Interests    datatypes.JSONSlice[string] `gorm:"type:json"`
	YearOfStudy  int                         `gorm:"not null"`
	LookingFor   string                      `gorm:"size:16;not null"`
	ProfileImage string                      `gorm:"size:512"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime;index:idx_profiles_created_id,priority:1"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime"`
}

// Like is a one-directional interest signal.
//
// Indexes:
//   - ux_likes_from_to(from_user, to_user): at most one like per ordered pair,
//     and O(1) lookup for the reciprocal-like check.
//   - idx_likes_to(to_user): "who liked me" and reconciliation scans.
type Like struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	FromUser  string    `gorm:"size:36;not null;uniqueIndex:ux_likes_from_to,priority:1"`
	ToUser    string    `gorm:"size:36;not null;uniqueIndex:ux_likes_from_to,priority:2;index:idx_likes_to"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match records mutual interest between two identities.
//
// The pair is stored canonically (User1 < User2), so the unique index on
// (user1, user2) makes the unordered pair unique no matter which side's
// like completed it.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	User1     string    `gorm:"size:36;not null;uniqueIndex:ux_matches_pair,priority:1"`
	User2     string    `gorm:"size:36;not null;uniqueIndex:ux_matches_pair,priority:2;index:idx_matches_user2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Counterpart returns the other side of the match for user.
func (m Match) Counterpart(user string) (string, bool) {
	switch user {
	case m.User1:
		return m.User2, true
	case m.User2:
		return m.User1, true
	}
	return "", false
}

// Message is an immutable direct message between two identities.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Sender    string    `gorm:"size:36;not null;index:idx_messages_pair,priority:1"`
	Receiver  string    `gorm:"size:36;not null;index:idx_messages_pair,priority:2"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_messages_pair,priority:3"`
}

// CanonicalPair orders two identities so that (a, b) and (b, a) map to the same key.
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []any {
	return []any{&Account{}, &Profile{}, &Like{}, &Match{}, &Message{}}
}
