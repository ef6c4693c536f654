package service_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

// In-memory doubles for the repositories. They mimic the store-level
// behavior the services rely on: unique-constraint violations surface
// as pgconn errors and missing rows as sql.ErrNoRows.

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type fakeUserRepo struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*model.User
	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++

	for _, u := range r.users {
		if u.AuthenticationToken == user.AuthenticationToken {
			return uuid.Nil, uniqueViolation(repository.ConstraintUserAuthToken)
		}
		if strings.EqualFold(u.Email, user.Email) {
			return uuid.Nil, uniqueViolation(repository.ConstraintUserEmail)
		}
	}

	stored := *user
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) FindByAuthenticationToken(ctx context.Context, token string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.AuthenticationToken == token {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) EmailTaken(ctx context.Context, email string, excluding uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if id != excluding && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.PasswordDigest = user.PasswordDigest
	return nil
}

func (r *fakeUserRepo) SetRememberDigest(ctx context.Context, id uuid.UUID, digest *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RememberDigest = digest
	}
	return nil
}

func (r *fakeUserRepo) SetPasswordReset(ctx context.Context, id uuid.UUID, digest *string, sentAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.PasswordResetDigest = digest
		u.PasswordResetSentAt = sentAt
	}
	return nil
}

func (r *fakeUserRepo) SetAuthenticationToken(ctx context.Context, id uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for otherID, u := range r.users {
		if otherID != id && u.AuthenticationToken == token {
			return uniqueViolation(repository.ConstraintUserAuthToken)
		}
	}
	if u, ok := r.users[id]; ok {
		u.AuthenticationToken = token
	}
	return nil
}

func (r *fakeUserRepo) SetPictureKey(ctx context.Context, id uuid.UUID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.PictureKey = &key
	}
	return nil
}

func (r *fakeUserRepo) Activate(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Activated = true
		u.ActivatedAt = &at
	}
	return nil
}

type assignment struct {
	serverID uuid.UUID
	tableID  uuid.UUID
}

type fakeCustomerRepo struct {
	mu    sync.Mutex
	pairs []assignment
}

func (r *fakeCustomerRepo) Create(ctx context.Context, serverID, tableID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs {
		if p.serverID == serverID && p.tableID == tableID {
			return uniqueViolation("customers_server_table_key")
		}
	}
	r.pairs = append(r.pairs, assignment{serverID, tableID})
	return nil
}

func (r *fakeCustomerRepo) Exists(ctx context.Context, serverID, tableID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs {
		if p.serverID == serverID && p.tableID == tableID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCustomerRepo) Delete(ctx context.Context, serverID, tableID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pairs {
		if p.serverID == serverID && p.tableID == tableID {
			r.pairs = append(r.pairs[:i], r.pairs[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeTableRepo struct {
	mu        sync.Mutex
	tables    map[uuid.UUID]model.Table
	customers *fakeCustomerRepo
}

func newFakeTableRepo(customers *fakeCustomerRepo) *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[uuid.UUID]model.Table), customers: customers}
}

func (r *fakeTableRepo) add(name string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.tables[id] = model.Table{ID: id, Name: name, Seats: 4, CreatedAt: time.Now()}
	return id
}

func (r *fakeTableRepo) Create(ctx context.Context, table *model.Table) (*model.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table.ID = uuid.New()
	table.CreatedAt = time.Now()
	r.tables[table.ID] = *table
	return table, nil
}

func (r *fakeTableRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTableRepo) List(ctx context.Context) ([]model.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTableRepo) ListByServer(ctx context.Context, serverID uuid.UUID) ([]model.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Table{}
	for _, p := range r.customers.pairs {
		if p.serverID == serverID {
			if t, ok := r.tables[p.tableID]; ok {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

type sentMail struct {
	kind  string
	email string
	token string
}

type fakeMailPublisher struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailPublisher) PublishActivationEmail(user *model.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "activation", email: user.Email, token: token})
	return nil
}

func (m *fakeMailPublisher) PublishPasswordResetEmail(user *model.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "password_reset", email: user.Email, token: token})
	return nil
}

// scriptedTokens returns canned values first and falls back to a
// counter-derived value once the script runs out.
func scriptedTokens(values ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i < len(values) {
			v := values[i]
			i++
			return v, nil
		}
		i++
		return uuid.NewString()[:22], nil
	}
}
