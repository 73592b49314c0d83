package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/notification"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// Fixed response messages.
const (
	MsgUserCreated       = "User created successfully"
	MsgLoginSuccessful   = "Login successful"
	MsgCodeSent          = "OTP sent successfully"
	MsgEmailVerified     = "Email verified successfully"
	MsgResetCodeVerified = "OTP verified successfully"
	MsgPasswordReset     = "Password reset successfully"
)

// Error messages shared by several flows.
const (
	errMsgEmailTaken         = "User with this email already exists"
	errMsgInvalidCredentials = "Invalid email or password"
	errMsgUserNotFound       = "User not found"
	errMsgInvalidCode        = "Invalid OTP"
	errMsgResetNotVerified   = "Password reset code has not been verified"
	errMsgPasswordTooLong    = "Password must be at most 72 bytes"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// AccountService orchestrates registration, login, email verification and
// password reset on top of the credential and code stores.
type AccountService struct {
	users      repository.UserRepository
	codes      repository.CodeRepository
	tickets    repository.ResetTicketRepository
	hasher     *auth.Hasher
	tokenMgr   *auth.TokenManager
	otp        *auth.CodeGenerator
	mailer     notification.Mailer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	mailFrom           string
	requireResetTicket bool
	resetTicketTTL     time.Duration
}

// AccountDependencies encapsulates collaborators of the account service.
type AccountDependencies struct {
	Users      repository.UserRepository
	Codes      repository.CodeRepository
	Tickets    repository.ResetTicketRepository
	Mailer     notification.Mailer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// Now overrides the clock used for code expiry. Defaults to time.Now.
	Now func() time.Time
}

// NewAccountService builds the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &AccountService{
		users:              deps.Users,
		codes:              deps.Codes,
		tickets:            deps.Tickets,
		hasher:             auth.NewHasher(cfg.Auth.BcryptCost),
		tokenMgr:           auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		otp:                auth.NewCodeGenerator(cfg.OTP.TTL, now),
		mailer:             deps.Mailer,
		dispatcher:         dispatcher,
		logger:             logger,
		metrics:            deps.Metrics,
		now:                now,
		mailFrom:           cfg.Mail.From,
		requireResetTicket: cfg.Auth.ResetRequiresVerifiedCode && deps.Tickets != nil,
		resetTicketTTL:     cfg.Auth.ResetTicketTTL,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AccountService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an unverified user, issues a verification code and a
// token, and emails the code. If the code cannot be delivered the codes issued
// here are purged and the user is kept so they can request a new one.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (result *domain.AuthResult, err error) {
	defer func() { s.observe("register", err) }()

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("check user exists: %w", err))
	}
	if exists {
		return nil, apperrors.NewConflict(errMsgEmailTaken)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict(errMsgEmailTaken)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("create user: %w", err))
	}

	var undo compensations
	fail := func(err error) (*domain.AuthResult, error) {
		undo.run(ctx, s.logger)
		return nil, err
	}

	undo.add("purge verification codes", func(ctx context.Context) error {
		return s.codes.DeleteAllByEmail(ctx, email)
	})
	code, err := s.issueCode(ctx, email)
	if err != nil {
		return fail(err)
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return fail(apperrors.NewInternalError(fmt.Errorf("issue token: %w", err)))
	}

	if err := s.sendCode(ctx, email, code.Code, domain.CodePurposeEmailVerification); err != nil {
		return fail(err)
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, email, s.now(), nil))
	s.publishCodeIssued(ctx, user.ID, code, domain.CodePurposeEmailVerification)
	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return &domain.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login authenticates a user by email and password. Unknown email and wrong
// password fail identically.
func (s *AccountService) Login(ctx context.Context, email, password string) (result *domain.AuthResult, err error) {
	defer func() { s.observe("login", err) }()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(errMsgInvalidCredentials)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("load user: %w", err))
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorized(errMsgInvalidCredentials)
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("issue token: %w", err))
	}

	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn, user.ID, email, s.now(), nil))
	return &domain.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// RequestCode purges outstanding codes for email, issues a new one and emails it.
func (s *AccountService) RequestCode(ctx context.Context, email string, purpose domain.CodePurpose) (msg string, err error) {
	defer func() { s.observe("request_code_"+string(purpose), err) }()

	user, err := s.lookupUser(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := s.issueCode(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.sendCode(ctx, email, code.Code, purpose); err != nil {
		return "", err
	}

	s.publishCodeIssued(ctx, user.ID, code, purpose)
	return MsgCodeSent, nil
}

// SendVerificationCode resends the email verification code.
func (s *AccountService) SendVerificationCode(ctx context.Context, email string) (string, error) {
	return s.RequestCode(ctx, email, domain.CodePurposeEmailVerification)
}

// RequestPasswordReset emails a password reset code.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return s.RequestCode(ctx, email, domain.CodePurposePasswordReset)
}

// ConsumeCode checks submitted against the newest stored code for email. On
// success every code for email is deleted. Verification marks the user
// verified; reset grants a single-use ticket for ResetPassword.
func (s *AccountService) ConsumeCode(ctx context.Context, email, submitted string, purpose domain.CodePurpose) (msg string, err error) {
	defer func() { s.observe("consume_code_"+string(purpose), err) }()

	user, err := s.lookupUser(ctx, email)
	if err != nil {
		return "", err
	}

	stored, err := s.codes.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NewUnauthorized(errMsgInvalidCode)
		}
		return "", apperrors.NewInternalError(fmt.Errorf("load code: %w", err))
	}
	if !s.otp.Validate(submitted, stored.Code, stored.ExpiresAt) {
		return "", apperrors.NewUnauthorized(errMsgInvalidCode)
	}

	switch purpose {
	case domain.CodePurposeEmailVerification:
		verified := true
		if _, err := s.users.UpdateByEmail(ctx, email, domain.UserUpdate{IsVerified: &verified}); err != nil {
			return "", s.updateError(err)
		}
		if err := s.codes.DeleteAllByEmail(ctx, email); err != nil {
			return "", apperrors.NewInternalError(fmt.Errorf("purge codes: %w", err))
		}
		s.publish(ctx, events.NewEvent(events.EventEmailVerified, user.ID, email, s.now(), nil))
		return MsgEmailVerified, nil

	case domain.CodePurposePasswordReset:
		if err := s.codes.DeleteAllByEmail(ctx, email); err != nil {
			return "", apperrors.NewInternalError(fmt.Errorf("purge codes: %w", err))
		}
		if s.tickets != nil {
			if err := s.tickets.Grant(ctx, email, s.resetTicketTTL); err != nil {
				return "", apperrors.NewInternalError(fmt.Errorf("grant reset ticket: %w", err))
			}
		}
		s.publish(ctx, events.NewEvent(events.EventPasswordResetVerified, user.ID, email, s.now(), nil))
		return MsgResetCodeVerified, nil

	default:
		return "", apperrors.NewInternalError(fmt.Errorf("unknown code purpose %q", purpose))
	}
}

// VerifyEmail consumes an email verification code.
func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	return s.ConsumeCode(ctx, email, code, domain.CodePurposeEmailVerification)
}

// VerifyPasswordReset consumes a password reset code.
func (s *AccountService) VerifyPasswordReset(ctx context.Context, email, code string) (string, error) {
	return s.ConsumeCode(ctx, email, code, domain.CodePurposePasswordReset)
}

// ResetPassword overwrites the password hash for email. When reset tickets are
// enforced a prior successful VerifyPasswordReset is required and consumed.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword string) (msg string, err error) {
	defer func() { s.observe("reset_password", err) }()

	user, err := s.lookupUser(ctx, email)
	if err != nil {
		return "", err
	}

	// Hash first so a rejected password leaves the reset ticket usable.
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return "", err
	}

	if s.requireResetTicket {
		ok, err := s.tickets.Consume(ctx, email)
		if err != nil {
			return "", apperrors.NewInternalError(fmt.Errorf("consume reset ticket: %w", err))
		}
		if !ok {
			return "", apperrors.NewUnauthorized(errMsgResetNotVerified)
		}
	}

	if _, err := s.users.UpdateByEmail(ctx, email, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return "", s.updateError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordReset, user.ID, email, s.now(), nil))
	return MsgPasswordReset, nil
}

// GetUser returns a user by id.
func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(errMsgUserNotFound)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("load user: %w", err))
	}
	return user, nil
}

// ListUsers pages through users, newest first.
func (s *AccountService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.NewValidationError(errMsgPasswordTooLong, nil)
		}
		return "", apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	return hash, nil
}

func (s *AccountService) lookupUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(errMsgUserNotFound)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("load user: %w", err))
	}
	return user, nil
}

// issueCode purges codes for email and persists a fresh one.
func (s *AccountService) issueCode(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	if err := s.codes.DeleteAllByEmail(ctx, email); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("purge codes: %w", err))
	}
	value, expiresAt, err := s.otp.Generate()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	code := &domain.OneTimeCode{Email: email, Code: value, ExpiresAt: expiresAt}
	if err := s.codes.Create(ctx, code); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("store code: %w", err))
	}
	return code, nil
}

func (s *AccountService) sendCode(ctx context.Context, email, code string, purpose domain.CodePurpose) error {
	msg, err := notification.CodeEmail(s.mailFrom, email, code, purpose, s.otp.TTL())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("code delivery failed", zap.String("purpose", string(purpose)), zap.Error(err))
		return apperrors.NewNotificationFailed(err)
	}
	return nil
}

func (s *AccountService) updateError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(errMsgUserNotFound)
	}
	return apperrors.NewInternalError(fmt.Errorf("update user: %w", err))
}

func (s *AccountService) publishCodeIssued(ctx context.Context, userID string, code *domain.OneTimeCode, purpose domain.CodePurpose) {
	payload := events.CodeIssuedPayload{Purpose: string(purpose), ExpiresAt: code.ExpiresAt}
	s.publish(ctx, events.NewEvent(events.EventCodeIssued, userID, code.Email, s.now(), payload))
}

// publish delivers an event to subscribers. Subscriber errors are logged and
// do not fail the flow that emitted the event.
func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event subscriber failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (s *AccountService) observe(flow string, err error) {
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(apperrors.ToDomainError(err).Code)
	}
	s.metrics.RecordFlow(flow, outcome)
}
