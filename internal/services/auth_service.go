package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/repositories"
	"github.com/bhagyashreemodi/emergency-connect/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrUsernameReserved   = errors.New("username is reserved")
	ErrUsernameTooShort   = errors.New("username must be at least 3 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 4 characters")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	minUsernameLength = 3
	minPasswordLength = 4
)

// reservedUsernames may not be registered; they collide with routes or
// system accounts.
var reservedUsernames = map[string]struct{}{
	"admin": {}, "administrator": {}, "all": {}, "system": {},
	"everyone": {}, "null": {}, "undefined": {},
}

type AuthService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	jwtSecret   string
	jwtExpiry   time.Duration
}

type LoginResponse struct {
	Token     string
	ExpiresAt time.Time
	Username  string
}

type TokenClaims struct {
	Username  string
	SessionID string
}

func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) error {
	username = models.NormalizeUsername(username)

	if len(username) < minUsernameLength {
		return ErrUsernameTooShort
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if _, reserved := reservedUsernames[username]; reserved {
		return ErrUsernameReserved
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return ErrUsernameExists
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Status:       models.StatusUndefined,
		Privilege:    models.PrivilegeCitizen,
	}

	err = s.userRepo.Create(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	username = models.NormalizeUsername(username)

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	expiresAt := time.Now().Add(s.jwtExpiry)
	session := &models.Session{
		ID:        sessionID,
		Username:  user.Username,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	err = s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.generateToken(user.Username, sessionID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  user.Username,
	}, nil
}

func (s *AuthService) generateToken(username, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"jti": sessionID,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	username, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	sessionID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Username:  username,
		SessionID: sessionID,
	}, nil
}

// VerifySession validates the token and additionally confirms its
// backing session still exists. A token whose session was revoked by
// Logout or LogoutAll fails here even though the signature is valid.
func (s *AuthService) VerifySession(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	_, err = s.sessionRepo.GetByID(ctx, claims.SessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	err = s.sessionRepo.Delete(ctx, claims.SessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	err = s.sessionRepo.DeleteAllForUser(ctx, claims.Username)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	return nil
}
