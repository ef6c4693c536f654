package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pos-service/internal/model"
)

const userColumns = `id, name, email, password_digest, remember_digest,
	activation_digest, activated, activated_at, password_reset_digest,
	password_reset_sent_at, authentication_token, picture_key,
	created_at, updated_at`

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByAuthenticationToken(ctx context.Context, token string) (*model.User, error)
	EmailTaken(ctx context.Context, email string, excluding uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	SetRememberDigest(ctx context.Context, id uuid.UUID, digest *string) error
	SetPasswordReset(ctx context.Context, id uuid.UUID, digest *string, sentAt *time.Time) error
	SetAuthenticationToken(ctx context.Context, id uuid.UUID, token string) error
	SetPictureKey(ctx context.Context, id uuid.UUID, key string) error
	Activate(ctx context.Context, id uuid.UUID, at time.Time) error
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) (uuid.UUID, error) {
	query := `INSERT INTO users (name, email, password_digest, activation_digest, authentication_token)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var newID uuid.UUID
	err := r.db.QueryRowxContext(ctx, query,
		user.Name, user.Email, user.PasswordDigest,
		user.ActivationDigest, user.AuthenticationToken,
	).Scan(&newID)

	if err != nil {
		return uuid.Nil, err
	}

	return newID, nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) FindByAuthenticationToken(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE authentication_token = $1`
	if err := r.db.GetContext(ctx, &user, query, token); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken checks case-insensitive email uniqueness. Pass uuid.Nil as
// excluding on create; on update the user's own row does not count.
func (r *postgresUserRepository) EmailTaken(ctx context.Context, email string, excluding uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE lower(email) = lower($1) AND id != $2`
	if err := r.db.GetContext(ctx, &count, query, email, excluding); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, email = $2, password_digest = $3, updated_at = now() WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordDigest, user.ID)
	return err
}

func (r *postgresUserRepository) SetRememberDigest(ctx context.Context, id uuid.UUID, digest *string) error {
	query := `UPDATE users SET remember_digest = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, digest, id)
	return err
}

func (r *postgresUserRepository) SetPasswordReset(ctx context.Context, id uuid.UUID, digest *string, sentAt *time.Time) error {
	query := `UPDATE users SET password_reset_digest = $1, password_reset_sent_at = $2, updated_at = now() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, digest, sentAt, id)
	return err
}

func (r *postgresUserRepository) SetAuthenticationToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE users SET authentication_token = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, token, id)
	return err
}

func (r *postgresUserRepository) SetPictureKey(ctx context.Context, id uuid.UUID, key string) error {
	query := `UPDATE users SET picture_key = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, key, id)
	return err
}

func (r *postgresUserRepository) Activate(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET activated = true, activated_at = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}
