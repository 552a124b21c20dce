package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

const sessionKeyPrefix = "session:"

type authService struct {
	authenticator database.Authenticator
	userRepo      database.UserRepository
	profileRepo   database.ProfileRepository
	redis         *redis.Client
	jwtSecret     string
	jwtExpiry     time.Duration
	hashPassword  func(string) (string, error)
}

func NewAuthService(
	authenticator database.Authenticator,
	userRepo database.UserRepository,
	profileRepo database.ProfileRepository,
	redisClient *redis.Client,
	jwtSecret string,
	jwtExpiry time.Duration,
	hashPassword func(string) (string, error),
) AuthService {
	return &authService{
		authenticator: authenticator,
		userRepo:      userRepo,
		profileRepo:   profileRepo,
		redis:         redisClient,
		jwtSecret:     jwtSecret,
		jwtExpiry:     jwtExpiry,
		hashPassword:  hashPassword,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*entity.User, error) {
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	username := req.Username
	if username == "" {
		username = req.Name
	}
	profile := &entity.Profile{
		UserID:   user.ID,
		Username: username,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		logrus.Warnf("Failed to create profile for user %s: %v", user.ID, err)
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login is one of the two session mutators. It checks credentials against
// the store, issues a bearer token and records the session so logout can
// revoke it before expiry.
func (s *authService) Login(ctx context.Context, email, password string) (*entity.Session, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.generateJWT(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session := &entity.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresAt: expiresAt,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, sessionKeyPrefix+token, data, time.Until(expiresAt)).Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to store session: %v", entity.ErrSystemError, err)
	}

	logrus.WithField("user_id", user.ID).Info("User logged in")
	return session, nil
}

// Logout is the other session mutator: it drops the session record, which
// invalidates the token even though its signature is still valid.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return entity.ErrNotAuthorized
	}
	return s.redis.Del(ctx, sessionKeyPrefix+token).Err()
}

func (s *authService) SessionFromToken(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, entity.ErrNotAuthorized
	}

	if _, err := s.parseJWT(token); err != nil {
		return nil, entity.ErrNotAuthorized
	}

	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, entity.ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load session: %v", entity.ErrSystemError, err)
	}

	var session entity.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, entity.ErrNotAuthorized
	}
	return &session, nil
}

func (s *authService) generateJWT(userID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	return signed, expiresAt, err
}

func (s *authService) parseJWT(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", errors.New("missing user_id claim")
	}
	return userID, nil
}
