package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pos-service/internal/credentials"
	"pos-service/internal/events"
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

// maxTokenAttempts bounds the authentication-token retry loop. With 128
// bits of entropy per token the bound is never reached in practice;
// hitting it means the generator is broken.
const maxTokenAttempts = 8

// TokenSource produces random tokens. credentials.NewToken in
// production; tests substitute a deterministic one.
type TokenSource func() (string, error)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Authenticated(user *model.User, purpose TokenPurpose, token string) bool

	Remember(ctx context.Context, user *model.User) (string, error)
	Forget(ctx context.Context, user *model.User) error

	Activate(ctx context.Context, email, token string) (*model.User, error)

	CreatePasswordReset(ctx context.Context, email string) (*model.User, error)
	PasswordResetExpired(user *model.User) bool
	ResetPassword(ctx context.Context, email, token, password string) error

	UpdateProfile(ctx context.Context, user *model.User, name, email, password string) error
	RotateAuthenticationToken(ctx context.Context, user *model.User) (string, error)
	AttachPicture(ctx context.Context, user *model.User, size int64, key string) error

	Serve(ctx context.Context, user *model.User, tableID uuid.UUID) error
	Serving(ctx context.Context, user *model.User, tableID uuid.UUID) (bool, error)
	Clear(ctx context.Context, user *model.User, tableID uuid.UUID) error
	Profile(ctx context.Context, user *model.User) (model.UserProfile, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByAuthenticationToken(ctx context.Context, token string) (*model.User, error)
}

type userService struct {
	users     repository.UserRepository
	tables    repository.TableRepository
	customers repository.CustomerRepository
	mail      events.MailPublisher
	newToken  TokenSource
}

func NewUserService(
	users repository.UserRepository,
	tables repository.TableRepository,
	customers repository.CustomerRepository,
	mail events.MailPublisher,
	newToken TokenSource,
) UserService {
	return &userService{
		users:     users,
		tables:    tables,
		customers: customers,
		mail:      mail,
		newToken:  newToken,
	}
}

// Register validates, hashes the password, issues the activation and
// authentication tokens and inserts the user. The activation email is
// dispatched once, after a successful insert; the plaintext activation
// token leaves the process only through that event.
func (s *userService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	email = strings.ToLower(email)

	errs := model.ValidateUserFields(name, email, password, true)
	taken, err := s.users.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		errs.Add("email", "has already been taken")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	passwordDigest, err := credentials.Digest(password)
	if err != nil {
		return nil, err
	}

	activationToken, err := s.newToken()
	if err != nil {
		return nil, err
	}
	activationDigest, err := credentials.Digest(activationToken)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:             name,
		Email:            email,
		PasswordDigest:   passwordDigest,
		ActivationDigest: &activationDigest,
	}

	if err := s.insertWithUniqueToken(ctx, user); err != nil {
		return nil, err
	}

	if err := s.mail.PublishActivationEmail(user, activationToken); err != nil {
		slog.Error("activation email dispatch failed", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// setPassword validates, hashes and assigns a new password as one
// step; the cleartext is gone once it returns.
func setPassword(user *model.User, password string) error {
	var errs model.ValidationErrors
	if password == "" {
		errs.Add("password", "can't be blank")
	} else if len(password) < model.MinPasswordLen {
		errs.Add("password", fmt.Sprintf("is too short (minimum is %d characters)", model.MinPasswordLen))
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	digest, err := credentials.Digest(password)
	if err != nil {
		return err
	}
	user.PasswordDigest = digest
	return nil
}

// insertWithUniqueToken inserts the user under a freshly generated
// authentication token. Uniqueness is decided by the database
// constraint, not by an existence pre-check; on a token collision the
// insert is retried with a new token.
func (s *userService) insertWithUniqueToken(ctx context.Context, user *model.User) error {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return err
		}
		user.AuthenticationToken = token

		id, err := s.users.Create(ctx, user)
		if err == nil {
			user.ID = id
			return nil
		}
		if repository.IsUniqueViolation(err, repository.ConstraintUserAuthToken) {
			continue
		}
		if repository.IsUniqueViolation(err, repository.ConstraintUserEmail) {
			// Lost a race with a concurrent signup for the same address.
			var errs model.ValidationErrors
			errs.Add("email", "has already been taken")
			return errs
		}
		return err
	}
	return ErrTokenSpaceExhausted
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !credentials.Verify(user.PasswordDigest, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Activated {
		return nil, ErrNotActivated
	}

	return user, nil
}

// Authenticated reports whether token matches the stored digest for the
// given purpose. A missing digest fails closed.
func (s *userService) Authenticated(user *model.User, purpose TokenPurpose, token string) bool {
	return credentials.Verify(digestFor(user, purpose), token)
}

func (s *userService) Remember(ctx context.Context, user *model.User) (string, error) {
	token, err := s.newToken()
	if err != nil {
		return "", err
	}
	digest, err := credentials.Digest(token)
	if err != nil {
		return "", err
	}

	if err := s.users.SetRememberDigest(ctx, user.ID, &digest); err != nil {
		return "", err
	}
	user.RememberDigest = &digest

	return token, nil
}

// Forget clears the remember digest, invalidating every outstanding
// remember cookie at once.
func (s *userService) Forget(ctx context.Context, user *model.User) error {
	if err := s.users.SetRememberDigest(ctx, user.ID, nil); err != nil {
		return err
	}
	user.RememberDigest = nil
	return nil
}

func (s *userService) Activate(ctx context.Context, email, token string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if user.Activated || !s.Authenticated(user, TokenActivation, token) {
		return nil, ErrInvalidToken
	}

	now := time.Now()
	if err := s.users.Activate(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.Activated = true
	user.ActivatedAt = &now

	return user, nil
}

// CreatePasswordReset issues a reset token for the account and
// dispatches the reset email. Returns ErrUserNotFound for unknown
// addresses; the handler decides whether to reveal that.
func (s *userService) CreatePasswordReset(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	digest, err := credentials.Digest(token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.users.SetPasswordReset(ctx, user.ID, &digest, &now); err != nil {
		return nil, err
	}
	user.PasswordResetDigest = &digest
	user.PasswordResetSentAt = &now

	if err := s.mail.PublishPasswordResetEmail(user, token); err != nil {
		slog.Error("password reset email dispatch failed", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// PasswordResetExpired reports whether the reset window has elapsed.
// The window is fixed from issuance; a user with no pending reset
// counts as expired.
func (s *userService) PasswordResetExpired(user *model.User) bool {
	if user.PasswordResetSentAt == nil {
		return true
	}
	return time.Since(*user.PasswordResetSentAt) > PasswordResetWindow
}

func (s *userService) ResetPassword(ctx context.Context, email, token, password string) error {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		return err
	}

	if !s.Authenticated(user, TokenPasswordReset, token) {
		return ErrInvalidToken
	}
	if s.PasswordResetExpired(user) {
		return ErrResetExpired
	}

	if err := setPassword(user, password); err != nil {
		return err
	}
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return err
	}

	// One-shot token: revoke it so the same link cannot be replayed.
	return s.users.SetPasswordReset(ctx, user.ID, nil, nil)
}

// UpdateProfile edits name/email and, when password is non-empty,
// rotates the password digest. A blank password keeps the current one.
func (s *userService) UpdateProfile(ctx context.Context, user *model.User, name, email, password string) error {
	email = strings.ToLower(email)

	errs := model.ValidateUserFields(name, email, password, false)
	taken, err := s.users.EmailTaken(ctx, email, user.ID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("email", "has already been taken")
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	user.Name = name
	user.Email = email
	if password != "" {
		if err := setPassword(user, password); err != nil {
			return err
		}
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintUserEmail) {
			var errs model.ValidationErrors
			errs.Add("email", "has already been taken")
			return errs
		}
		return err
	}
	return nil
}

// RotateAuthenticationToken replaces the API token, retrying on the
// (practically unreachable) unique-constraint collision.
func (s *userService) RotateAuthenticationToken(ctx context.Context, user *model.User) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return "", err
		}

		err = s.users.SetAuthenticationToken(ctx, user.ID, token)
		if err == nil {
			user.AuthenticationToken = token
			return token, nil
		}
		if repository.IsUniqueViolation(err, repository.ConstraintUserAuthToken) {
			continue
		}
		return "", err
	}
	return "", ErrTokenSpaceExhausted
}

func (s *userService) AttachPicture(ctx context.Context, user *model.User, size int64, key string) error {
	if err := model.ValidatePicture(size).OrNil(); err != nil {
		return err
	}
	if err := s.users.SetPictureKey(ctx, user.ID, key); err != nil {
		return err
	}
	user.PictureKey = &key
	return nil
}

func (s *userService) Serve(ctx context.Context, user *model.User, tableID uuid.UUID) error {
	if _, err := s.tables.FindByID(ctx, tableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTableNotFound
		}
		return err
	}

	err := s.customers.Create(ctx, user.ID, tableID)
	if repository.IsUniqueViolation(err, "") {
		// Already serving; nothing to do.
		return nil
	}
	return err
}

func (s *userService) Serving(ctx context.Context, user *model.User, tableID uuid.UUID) (bool, error) {
	return s.customers.Exists(ctx, user.ID, tableID)
}

// Clear removes the user from serving the table. A missing assignment
// is an error, not a silent success.
func (s *userService) Clear(ctx context.Context, user *model.User, tableID uuid.UUID) error {
	err := s.customers.Delete(ctx, user.ID, tableID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotServing
	}
	return err
}

func (s *userService) Profile(ctx context.Context, user *model.User) (model.UserProfile, error) {
	tables, err := s.tables.ListByServer(ctx, user.ID)
	if err != nil {
		return model.UserProfile{}, err
	}
	return user.Profile(tables), nil
}

func (s *userService) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) FindByAuthenticationToken(ctx context.Context, token string) (*model.User, error) {
	user, err := s.users.FindByAuthenticationToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
