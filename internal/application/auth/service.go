package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chat-api/internal/domain"
	"github.com/go-chat-api/internal/pkg/id"
	pkgphone "github.com/go-chat-api/internal/pkg/phone"
	pkgtoken "github.com/go-chat-api/internal/pkg/token"
)

const (
	codeTTL    = 5 * time.Minute
	sessionTTL = 30 * 24 * time.Hour
)

// VerificationStore is the minimal code-table surface the service needs.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	LatestMatch(ctx context.Context, phoneNumber, code string, now time.Time) (*domain.VerificationCode, error)
	Consume(ctx context.Context, phoneNumber, codeID string) error
}

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type SendCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type VerifyCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Code        string `json:"code" validate:"required,len=4,numeric"`
}

// SendCodeResult carries the generated code back to the caller. Delivered is
// true when the code went out via SMS; otherwise the transport echoes the
// code in the response (development behavior).
type SendCodeResult struct {
	Code      string
	Delivered bool
}

type VerifyResult struct {
	User         *domain.User
	SessionToken string
	Session      *domain.Session
}

type Service interface {
	SendCode(ctx context.Context, phoneNumber string) (*SendCodeResult, error)
	VerifyCode(ctx context.Context, phoneNumber, code string) (*VerifyResult, error)
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

type ServiceDeps struct {
	VerificationRepo VerificationStore
	UserRepo         UserStore
	SessionRepo      SessionStore
	SMSSender        SMSSender // nil when SMS dispatch is not configured
}

type service struct {
	verificationRepo VerificationStore
	userRepo         UserStore
	sessionRepo      SessionStore
	smsSender        SMSSender
}

func NewService(deps ServiceDeps) Service {
	return &service{
		verificationRepo: deps.VerificationRepo,
		userRepo:         deps.UserRepo,
		sessionRepo:      deps.SessionRepo,
		smsSender:        deps.SMSSender,
	}
}

func (s *service) SendCode(ctx context.Context, phoneNumber string) (*SendCodeResult, error) {
	phone := pkgphone.Normalize(phoneNumber)
	if !pkgphone.Valid(phone) {
		return nil, fmt.Errorf("invalid phone number: %w", domain.ErrBadRequest)
	}

	code, err := pkgtoken.NewVerificationCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	v := &domain.VerificationCode{
		PhoneNumber: phone,
		CodeID:      id.New(),
		Code:        code,
		ExpiresAt:   now.Add(codeTTL).Unix(),
		CreatedAt:   now,
	}
	if err := s.verificationRepo.Put(ctx, v); err != nil {
		return nil, err
	}

	if s.smsSender == nil {
		return &SendCodeResult{Code: code}, nil
	}
	if err := s.smsSender.SendSMS(ctx, phone, "Your verification code: "+code); err != nil {
		return nil, fmt.Errorf("send verification SMS: %w", err)
	}
	return &SendCodeResult{Code: code, Delivered: true}, nil
}

func (s *service) VerifyCode(ctx context.Context, phoneNumber, code string) (*VerifyResult, error) {
	phone := pkgphone.Normalize(phoneNumber)
	now := time.Now().UTC()

	v, err := s.verificationRepo.LatestMatch(ctx, phone, code, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no matching code: %w", domain.ErrInvalidCode)
		}
		return nil, err
	}
	// First caller wins; a concurrent verify of the same code fails here.
	if err := s.verificationRepo.Consume(ctx, phone, v.CodeID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("code already consumed: %w", domain.ErrInvalidCode)
		}
		return nil, err
	}

	u, err := s.findOrCreateUser(ctx, phone, now)
	if err != nil {
		return nil, err
	}

	token, err := pkgtoken.NewSessionToken()
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		SessionID: id.New(),
		UserID:    u.UserID,
		Token:     token,
		ExpiresAt: now.Add(sessionTTL).Unix(),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{
		"is_online": true,
		"last_seen": now.Format(time.RFC3339Nano),
	}); err != nil {
		slog.Warn("failed to mark user online", "user_id", u.UserID, "err", err)
	}
	u.IsOnline = true
	u.LastSeen = now

	return &VerifyResult{User: u, SessionToken: token, Session: sess}, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("no session token: %w", domain.ErrUnauthorized)
	}
	sess, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session not found: %w", domain.ErrInvalidSession)
		}
		return nil, err
	}
	if sess.ExpiresAt <= time.Now().Unix() {
		return nil, fmt.Errorf("session expired: %w", domain.ErrInvalidSession)
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session user missing: %w", domain.ErrInvalidSession)
		}
		return nil, err
	}
	return u, nil
}

// findOrCreateUser lazily registers an account on first successful
// verification. A conflict on the phone-number constraint means a concurrent
// verification created the user first; re-read and use that row.
func (s *service) findOrCreateUser(ctx context.Context, phone string, now time.Time) (*domain.User, error) {
	u, err := s.userRepo.GetByPhone(ctx, phone)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u = &domain.User{
		UserID:      id.New(),
		PhoneNumber: phone,
		Username:    "User_" + pkgphone.Suffix(phone, 4),
		LastSeen:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.userRepo.GetByPhone(ctx, phone)
		}
		return nil, err
	}
	return u, nil
}
