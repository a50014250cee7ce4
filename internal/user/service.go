package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	apperrors "fonnect/internal/errors"
	"fonnect/internal/realtime"
	"fonnect/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "fonnect"

var palette = []string{"#C63D96", "#11C098", "#FFCD67", "#004A7C", "#F3716D"}

// Presence reports whether a username currently holds a live connection.
type Presence interface {
	IsActive(username string) bool
}

// Broadcaster emits an event to every connected user.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev realtime.Event) error
}

type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type Service struct {
	repo     Store
	opts     Options
	presence Presence
	events   Broadcaster
	log      *slog.Logger
}

type MyJWTClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

func NewService(repo Store, opts Options, presence Presence, events Broadcaster, log *slog.Logger) *Service {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, opts: opts, presence: presence, events: events, log: log}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, apperrors.ErrUsernameTaken
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Fullname:  req.Fullname,
		Color:     palette[rand.IntN(len(palette))],
		Password:  string(hashedPwd),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, realtime.Event{Name: realtime.EventUserRegistered, Data: Registered{
		Fullname: u.Fullname,
		Username: u.Username,
		Color:    u.Color,
		Active:   true,
	}})
	s.log.Info("User registered", "username", u.Username)

	return &RegisterResponse{Message: "User registered successfully", Token: token}, nil
}

// Login refuses usernames that already hold a live connection.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if s.presence.IsActive(req.Username) {
		return nil, apperrors.ErrAlreadyActive
	}

	u, err := s.repo.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, realtime.Event{Name: realtime.EventUserConnected, Data: Connected{
		UserID:   u.ID,
		Username: u.Username,
		Fullname: u.Fullname,
	}})

	return &LoginResponse{Token: token}, nil
}

func (s *Service) List(ctx context.Context) ([]Listing, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u User, _ int) Listing {
		return Listing{Fullname: u.Fullname, Username: u.Username, Color: u.Color}
	}), nil
}

// ValidateToken returns the user id and username carried by a valid token.
func (s *Service) ValidateToken(tokenString string) (string, string, error) {
	claims := &MyJWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", jwt.ErrSignatureInvalid
	}
	return claims.UserID, claims.Username, nil
}

func (s *Service) issueToken(u *User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, MyJWTClaims{
		UserID:   u.ID,
		Username: u.Username,
		Fullname: u.Fullname,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	})

	ss, err := token.SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrTokenGeneration, err)
	}
	return ss, nil
}

// broadcast is best effort: a failed event never fails the request.
func (s *Service) broadcast(ctx context.Context, ev realtime.Event) {
	if err := s.events.Broadcast(ctx, ev); err != nil {
		s.log.Warn("Event broadcast failed", "event", ev.Name, "error", err)
	}
}
