package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"livepoll/config"
	"livepoll/internal/domain/user"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenDenylist remembers access tokens revoked before they expire.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService registers accounts and issues access tokens. Tokens carry the
// account role; only admin tokens pass the admin guard.
type AuthService struct {
	users     repository.UserRepository
	denylist  TokenDenylist
	jwtSecret []byte
	accessTTL time.Duration
	now       func() time.Time
	// dummyHash is compared against for unknown emails so a login takes the
	// same time whether or not the account exists.
	dummyHash []byte
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("livepoll-unknown-account"), bcrypt.DefaultCost)
	return &AuthService{
		users:     users,
		denylist:  newLocalDenylist(),
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// WithDenylist replaces the in-process denylist, e.g. with a shared one.
func (s *AuthService) WithDenylist(d TokenDenylist) *AuthService {
	if d != nil {
		s.denylist = d
	}
	return s
}

type RegisterInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

// AccessClaims: Subject is the user id, ID the token id used for logout.
type AccessClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (c AccessClaims) IsAdmin() bool {
	return user.Role(c.Role) == user.RoleAdmin
}

// Register creates an account with the user role and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = user.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return AuthResponse{}, fmt.Errorf("%w: %s", livepoll_errors.ErrInvalidInput, err.Error())
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}
	u := &user.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return AuthResponse{}, err
	}
	return s.signIn(*u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	if err := validate.Struct(in); err != nil {
		return AuthResponse{}, livepoll_errors.ErrInvalidInput
	}

	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(in.Email))
	if errors.Is(err, livepoll_errors.ErrNotFound) {
		_ = comparePassword(string(s.dummyHash), in.Password)
		return AuthResponse{}, livepoll_errors.ErrUnauthorized
	}
	if err != nil {
		return AuthResponse{}, err
	}
	if err := comparePassword(u.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, livepoll_errors.ErrUnauthorized
	}
	return s.signIn(u)
}

// Logout revokes the token the request was authenticated with.
func (s *AuthService) Logout(ctx context.Context) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.ID == "" || claims.ExpiresAt == nil {
		return livepoll_errors.ErrUnauthorized
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return livepoll_errors.Transient(err)
	}
	return nil
}

// EnsureAdmin creates an admin account from a pre-computed bcrypt hash unless
// the email is already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	email = user.NormalizeEmail(email)
	if email == "" || passwordHash == "" {
		return livepoll_errors.ErrInvalidInput
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return fmt.Errorf("%w: admin password hash: %s", livepoll_errors.ErrInvalidInput, err.Error())
	}
	err := s.users.Create(ctx, &user.User{
		ID:           uuid.New(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         user.RoleAdmin,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, livepoll_errors.ErrAlreadyExists) {
		return nil
	}
	return err
}

func (s *AuthService) ParseAccessToken(ctx context.Context, tokenString string) (AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, livepoll_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return AccessClaims{}, livepoll_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid || !user.Role(claims.Role).Valid() {
		return AccessClaims{}, livepoll_errors.ErrUnauthorized
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return AccessClaims{}, livepoll_errors.ErrUnauthorized
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return AccessClaims{}, livepoll_errors.Transient(err)
	}
	if revoked {
		return AccessClaims{}, livepoll_errors.ErrUnauthorized
	}
	return *claims, nil
}

func (s *AuthService) signIn(u user.User) (AuthResponse, error) {
	token, expiresIn, err := s.newAccessToken(u)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User: UserInfo{
			ID:    u.ID.String(),
			Name:  u.Name,
			Email: u.Email,
			Role:  string(u.Role),
		},
	}, nil
}

func (s *AuthService) newAccessToken(u user.User) (string, int64, error) {
	now := s.now()
	claims := AccessClaims{
		Role:  string(u.Role),
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(s.accessTTL.Seconds()), nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type contextKey string

const claimsKey contextKey = "access_claims"

// WithClaimsContext attaches the claims of the authenticated request.
func WithClaimsContext(ctx context.Context, claims AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(AccessClaims)
	return claims, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// localDenylist keeps revoked token ids in process until they expire.
type localDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func newLocalDenylist() *localDenylist {
	return &localDenylist{revoked: make(map[string]time.Time), now: time.Now}
}

func (d *localDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for id, exp := range d.revoked {
		if !exp.After(now) {
			delete(d.revoked, id)
		}
	}
	if until.After(now) {
		d.revoked[tokenID] = until
	}
	return nil
}

func (d *localDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.revoked[tokenID]
	return ok && exp.After(d.now()), nil
}
