package service

import (
	"context"
	"strings"
	"time"

	"github.com/assocdesk/memberportal/internal/auth/domain"
	"github.com/assocdesk/memberportal/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionTTL        = 7 * 24 * time.Hour
	minPasswordLength = 8
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return domain.User{}, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         domain.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertUser(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.User, domain.Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	if user == nil {
		// Burn a comparison anyway so a missing account costs the same as
		// a wrong password.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMye"), []byte(req.Password))
		return domain.User{}, domain.Session{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.User{}, domain.Session{}, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	session := domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.InsertSession(ctx, s.db, &session); err != nil {
		return domain.User{}, domain.Session{}, err
	}

	if err := s.repo.DeleteExpiredSessions(ctx, s.db, now); err != nil {
		s.log.Warn("failed to sweep expired sessions", zap.Error(err))
	}
	return *user, session, nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}

	session, err := s.repo.FindSession(ctx, s.db, token)
	if err != nil {
		return domain.User{}, err
	}
	if session == nil {
		return domain.User{}, domain.ErrUnauthenticated
	}
	if session.ExpiresAt.Before(time.Now().UTC()) {
		if err := s.repo.DeleteSession(ctx, s.db, token); err != nil {
			s.log.Warn("failed to delete expired session", zap.Error(err))
		}
		return domain.User{}, domain.ErrSessionExpired
	}

	user, err := s.repo.FindUserByID(ctx, s.db, session.UserID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return *user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, s.db, token)
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (domain.User, error) {
	user, err := s.repo.FindUserByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}
