package service

import (
	"context"
	"errors"
	"faqbot_backend/internal/config"
	"faqbot_backend/internal/model"
	"faqbot_backend/internal/repository"
	"faqbot_backend/internal/util"
	"faqbot_backend/pkg/logger"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionRegistry holds the single active session per username.
type SessionRegistry interface {
	Put(ctx context.Context, sess *model.Session) error
	Get(ctx context.Context, username string) (*model.Session, error)
	Release(ctx context.Context, username, sessionID string) error
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Sessions SessionRegistry
	Chat     *ChatService
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, sessions SessionRegistry, chat *ChatService, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Sessions: sessions,
		Chat:     chat,
		Cfg:      cfg,
	}
}

func (s *AuthService) Register(username, password string) error {
	_, err := s.UserRepo.FindByUsername(username)
	if err == nil {
		return util.ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.UserRepo.Create(&model.User{
		Username: username,
		Password: string(hashedPassword),
	})
}

// Login verifies credentials and issues a fresh session plus its JWT.
// When the user still has an active session, its undrained buffer is
// archived first, so superseding a login never orphans buffered turns.
// A failure draining the stale buffer fails the login and is retryable.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.Session, error) {
	user, err := s.UserRepo.FindByUsername(username)
	if err != nil {
		return "", nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if stale, err := s.Sessions.Get(ctx, username); err != nil {
		return "", nil, err
	} else if stale != nil {
		result, err := s.Chat.ForceDrain(ctx, stale)
		if err != nil {
			return "", nil, fmt.Errorf("drain superseded session: %w", err)
		}
		if !result.BufferEmpty {
			logger.Log.Info("archived superseded session buffer",
				zap.String("username", username),
				zap.String("session", stale.ID),
				zap.Int("records", result.Records))
		}
	}

	sess := model.NewSession(username)
	if err := s.Sessions.Put(ctx, sess); err != nil {
		return "", nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(username); err != nil {
		logger.Log.Warn("failed to update last login", zap.String("username", username), zap.Error(err))
	}

	token, err := util.GenerateJWT(username, sess.ID, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, sess, nil
}

// Logout archives the session buffer and releases the session. On an
// archive failure the session and its buffer survive so the logout can
// be retried; BufferEmpty on a second attempt is a successful no-op.
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) (*EndSessionResult, error) {
	sess := &model.Session{ID: claims.SessionID, Username: claims.Username}

	result, err := s.Chat.EndSession(ctx, sess)
	if err != nil {
		return result, err
	}

	if err := s.Sessions.Release(ctx, claims.Username, claims.SessionID); err != nil {
		return result, err
	}
	return result, nil
}
