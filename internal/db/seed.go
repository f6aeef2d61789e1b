package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "campus123"

var seedNamespace = uuid.MustParse("5b0c5a43-3f0e-4c53-9a2e-1f1f3f1a7c01")

// SeedUserID returns the stable identity of the n-th seeded user.
func SeedUserID(n int) string {
	return uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("user%d", n))).String()
}

var (
	seedInterests = []string{"music", "football", "coding", "chess", "movies", "hiking", "photography", "dance", "robotics", "books"}
	seedLooking   = []string{"friendship", "dating", "networking"}
)

// SeedTestData resets the database and populates it with demo users, likes,
// matches and messages.
//
// Behavior:
//  1. Clears messages, matches, likes, profiles and accounts.
//  2. Creates 20 accounts on @domain with profiles, all with SeedPassword.
//  3. Each user likes ~8 others; every 3rd like is reciprocated and gets a match.
//  4. Every match gets a short conversation.
func SeedTestData(db *gorm.DB, domain string) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearAll(db); err != nil {
		return err
	}
	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed users (10 male, 10 female) ---
	const users = 20
	for i := 1; i <= users; i++ {
		gender := "male"
		if i > users/2 {
			gender = "female"
		}
		if err := seedUser(db, i, domain, string(hash), gender, r); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d users.", users)

	// --- Seed likes and matches ---
	counter, matches := 0, 0
	for from := 1; from <= users; from++ {
		for j := 0; j < 8; j++ {
			to := r.Intn(users) + 1
			if to == from {
				continue
			}
			a, b := SeedUserID(from), SeedUserID(to)
			if err := seedLike(db, a, b); err != nil {
				return err
			}

			if counter%3 == 0 {
				if err := seedLike(db, b, a); err != nil {
					return err
				}
				created, err := seedMatch(db, a, b)
				if err != nil {
					return err
				}
				if created {
					matches++
					if err := seedConversation(db, a, b); err != nil {
						return err
					}
				}
			}
			counter++
		}
	}
	log.Printf("Seeded %d likes, %d matches.", counter, matches)

	return nil
}

// SeedMinimalTestData creates three users where user1 and user2 are matched
// and user3 liked user1 without reciprocation.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := clearAll(db); err != nil {
		return err
	}

	for i, gender := range []string{"male", "female", "female"} {
		if err := seedUser(db, i+1, "test.local", "x", gender, rand.New(rand.NewSource(int64(i)))); err != nil {
			return err
		}
	}

	u1, u2, u3 := SeedUserID(1), SeedUserID(2), SeedUserID(3)
	likes := []Like{
		{FromUser: u1, ToUser: u2},
		{FromUser: u2, ToUser: u1}, // mutual
		{FromUser: u3, ToUser: u1}, // one-way
	}
	if err := db.Create(&likes).Error; err != nil {
		return err
	}
	if _, err := seedMatch(db, u1, u2); err != nil {
		return err
	}
	return seedConversation(db, u1, u2)
}

func clearAll(db *gorm.DB) error {
	for _, table := range []string{"messages", "matches", "likes", "profiles", "accounts"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"messages", "matches", "likes"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('messages', 'matches', 'likes')")
	}
	return nil
}

func seedUser(db *gorm.DB, n int, domain, hash, gender string, r *rand.Rand) error {
	id := SeedUserID(n)
	username := fmt.Sprintf("user%d", n)

	account := Account{ID: id, Email: fmt.Sprintf("%s@%s", username, domain), PasswordHash: hash}
	if err := db.Create(&account).Error; err != nil {
		return fmt.Errorf("failed to seed account: %w", err)
	}

	interests := make([]string, 0, 3)
	for _, k := range r.Perm(len(seedInterests))[:3] {
		interests = append(interests, seedInterests[k])
	}
	profile := Profile{
		ID:          id,
		Username:    username,
		FirstName:   fmt.Sprintf("User%d", n),
		LastName:    "Demo",
		Gender:      gender,
		Bio:         fmt.Sprintf("Hi, I'm user %d.", n),
		Interests:   interests,
		YearOfStudy: r.Intn(5) + 1,
		LookingFor:  seedLooking[r.Intn(len(seedLooking))],
	}
	if err := db.Create(&profile).Error; err != nil {
		return fmt.Errorf("failed to seed profile: %w", err)
	}
	return nil
}

func seedLike(db *gorm.DB, from, to string) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_user"}, {Name: "to_user"}},
		DoNothing: true,
	}).Create(&Like{FromUser: from, ToUser: to}).Error
	if err != nil {
		return fmt.Errorf("failed to seed like: %w", err)
	}
	return nil
}

func seedMatch(db *gorm.DB, a, b string) (bool, error) {
	u1, u2 := CanonicalPair(a, b)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user1"}, {Name: "user2"}},
		DoNothing: true,
	}).Create(&Match{User1: u1, User2: u2})
	if res.Error != nil {
		return false, fmt.Errorf("failed to seed match: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func seedConversation(db *gorm.DB, a, b string) error {
	msgs := []Message{
		{Sender: a, Receiver: b, Content: "Hey! We matched 👋"},
		{Sender: b, Receiver: a, Content: "Hi! Which year are you in?"},
		{Sender: a, Receiver: b, Content: "Coffee at the canteen sometime?"},
	}
	for i := range msgs {
		if err := db.Create(&msgs[i]).Error; err != nil {
			return fmt.Errorf("failed to seed message: %w", err)
		}
	}
	return nil
}
