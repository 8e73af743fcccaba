package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser is one sample account. Password is hashed when seeding.
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

// DefaultSeedUsers returns the sample accounts of a fresh install.
func DefaultSeedUsers() []SeedUser {
	return []SeedUser{
		{Name: "Admin", Email: "admin@poll.com", Password: "password", Role: user.RoleAdmin},
		{Name: "Test User", Email: "user@poll.com", Password: "password", Role: user.RoleUser},
	}
}

// SeedPoll is one sample poll with its options in display order.
type SeedPoll struct {
	Question string
	Status   poll.Status
	Options  []string
}

// DefaultSeedPolls returns the sample polls loaded on a fresh install.
func DefaultSeedPolls() []SeedPoll {
	return []SeedPoll{
		{
			Question: "What is your favorite programming language?",
			Status:   poll.StatusActive,
			Options:  []string{"PHP", "Python", "JavaScript", "Java", "Go"},
		},
		{
			Question: "Which framework do you prefer for web development?",
			Status:   poll.StatusActive,
			Options:  []string{"Laravel", "Django", "React", "Vue.js"},
		},
		{
			Question: "How many hours do you code per day?",
			Status:   poll.StatusInactive,
			Options:  []string{"1-2 hours", "3-5 hours", "6-8 hours", "8+ hours"},
		},
	}
}

// seedNamespace derives stable ids so that seeding twice is a no-op.
var seedNamespace = uuid.MustParse("6f1c0a52-3d1e-4c55-9a67-2f0d7c1f9b10")

// SeedUsers creates the sample accounts and returns the account behind each
// seed. An email that is already registered keeps its account and password.
func SeedUsers(ctx context.Context, users repository.UserRepository, seeds []SeedUser) ([]user.User, error) {
	if seeds == nil {
		seeds = DefaultSeedUsers()
	}

	accounts := make([]user.User, 0, len(seeds))
	for _, s := range seeds {
		email := user.NormalizeEmail(s.Email)
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			return accounts, fmt.Errorf("seed user %q: %w", email, err)
		}
		u := user.User{
			ID:           uuid.NewSHA1(seedNamespace, []byte(email)),
			Name:         s.Name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         s.Role,
			CreatedAt:    time.Now().UTC(),
		}

		err = users.Create(ctx, &u)
		if errors.Is(err, livepoll_errors.ErrAlreadyExists) {
			log.Printf("User %s already exists", email)
			u, err = users.GetByEmail(ctx, email)
		} else if err == nil {
			log.Printf("Seeded user %s (%s)", email, u.Role)
		}
		if err != nil {
			return accounts, fmt.Errorf("seed user %q: %w", email, err)
		}
		accounts = append(accounts, u)
	}
	return accounts, nil
}

// AdminOf returns the first admin among accounts, for use as poll author.
func AdminOf(accounts []user.User) uuid.NullUUID {
	for _, u := range accounts {
		if u.IsAdmin() {
			return uuid.NullUUID{UUID: u.ID, Valid: true}
		}
	}
	return uuid.NullUUID{}
}

// Seed writes the sample polls through the catalog with author as creator.
// Polls that already exist are left untouched.
func Seed(ctx context.Context, polls repository.PollRepository, seeds []SeedPoll, author uuid.NullUUID) ([]poll.Detail, error) {
	if seeds == nil {
		seeds = DefaultSeedPolls()
	}

	log.Println("Starting database seeding...")
	created := make([]poll.Detail, 0, len(seeds))
	base := time.Now().UTC()
	for i, s := range seeds {
		p := poll.Poll{
			ID:        uuid.NewSHA1(seedNamespace, []byte(s.Question)),
			Question:  s.Question,
			Status:    s.Status,
			CreatedBy: author,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
		options := make([]poll.Option, len(s.Options))
		for j, label := range s.Options {
			options[j] = poll.Option{
				ID:           uuid.NewSHA1(p.ID, []byte(label)),
				Label:        label,
				DisplayOrder: j + 1,
			}
		}

		err := polls.Create(ctx, &p, options)
		if err == nil {
			log.Printf("Seeded poll %q (%s)", p.Question, p.ID)
			created = append(created, poll.Detail{Poll: p, Options: options})
			continue
		}
		if errors.Is(err, livepoll_errors.ErrAlreadyExists) {
			log.Printf("Poll %q already seeded", p.Question)
			continue
		}
		return created, fmt.Errorf("seed poll %q: %w", s.Question, err)
	}
	return created, nil
}

// TruncateLedger removes every poll, option and vote. Development only.
func TruncateLedger() error {
	return DB.Exec("TRUNCATE TABLE votes, poll_options, polls").Error
}
