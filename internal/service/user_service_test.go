package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pos-service/internal/credentials"
	"pos-service/internal/model"
	"pos-service/internal/service"
)

func TestMain(m *testing.M) {
	credentials.Cost = bcrypt.MinCost
	m.Run()
}

type userHarness struct {
	users     *fakeUserRepo
	tables    *fakeTableRepo
	customers *fakeCustomerRepo
	mail      *fakeMailPublisher
	svc       service.UserService
}

func newUserHarness(tokens service.TokenSource) *userHarness {
	if tokens == nil {
		tokens = credentials.NewToken
	}
	customers := &fakeCustomerRepo{}
	h := &userHarness{
		users:     newFakeUserRepo(),
		tables:    newFakeTableRepo(customers),
		customers: customers,
		mail:      &fakeMailPublisher{},
	}
	h.svc = service.NewUserService(h.users, h.tables, h.customers, h.mail, tokens)
	return h
}

func (h *userHarness) register(t *testing.T, name, email, password string) *model.User {
	t.Helper()
	user, err := h.svc.Register(context.Background(), name, email, password)
	require.NoError(t, err)
	return user
}

func TestRegister_PersistsDigestNotPassword(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	stored := h.users.users[user.ID]
	require.NotEqual(t, "secret1", stored.PasswordDigest)
	require.True(t, credentials.Verify(stored.PasswordDigest, "secret1"))
	require.NotNil(t, stored.ActivationDigest)
	require.False(t, stored.Activated)
}

func TestRegister_NormalizesEmail(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "Foo@Example.COM", "secret1")

	require.Equal(t, "foo@example.com", user.Email)
	require.Equal(t, "foo@example.com", h.users.users[user.ID].Email)
}

func TestRegister_DuplicateEmailIgnoringCase(t *testing.T) {
	h := newUserHarness(nil)
	h.register(t, "Alice", "foo@example.com", "secret1")

	_, err := h.svc.Register(context.Background(), "Bob", "FOO@EXAMPLE.com", "secret2")

	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, "email", verrs[0].Field)
}

func TestRegister_CollectsFieldViolations(t *testing.T) {
	h := newUserHarness(nil)

	_, err := h.svc.Register(context.Background(), "", "bogus", "abc")

	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 3)
	require.Zero(t, h.users.createCalls)
}

func TestRegister_DispatchesActivationEmailOnce(t *testing.T) {
	h := newUserHarness(scriptedTokens("activation-token-00000"))
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	require.Len(t, h.mail.sent, 1)
	require.Equal(t, "activation", h.mail.sent[0].kind)
	require.Equal(t, user.Email, h.mail.sent[0].email)
	// The plaintext token goes out in the event and only its digest is stored.
	require.Equal(t, "activation-token-00000", h.mail.sent[0].token)
	require.True(t, credentials.Verify(*h.users.users[user.ID].ActivationDigest, "activation-token-00000"))
}

func TestRegister_AuthTokensDistinct(t *testing.T) {
	h := newUserHarness(nil)

	seen := map[string]bool{}
	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"} {
		user := h.register(t, "User", email, "secret1")
		require.Len(t, user.AuthenticationToken, credentials.TokenLength, "user %d", i)
		require.False(t, seen[user.AuthenticationToken])
		seen[user.AuthenticationToken] = true
	}
}

func TestRegister_AuthTokenCollisionRetriesOnce(t *testing.T) {
	// First signup takes the token "collision-token-00000"; the second
	// signup's generator yields an activation token, then the colliding
	// auth token, then a fresh one. Exactly one regeneration expected.
	h := newUserHarness(scriptedTokens(
		"first-activation-00000", "collision-token-00000",
		"second-activation-0000", "collision-token-00000", "fresh-token-0000000000",
	))

	h.register(t, "Alice", "alice@example.com", "secret1")
	require.Equal(t, 1, h.users.createCalls)

	user := h.register(t, "Bob", "bob@example.com", "secret1")
	require.Equal(t, "fresh-token-0000000000", user.AuthenticationToken)
	// One failed insert on the collision, one successful retry.
	require.Equal(t, 3, h.users.createCalls)
}

func TestAuthenticate(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	_, err := h.svc.Authenticate(context.Background(), "alice@example.com", "secret1")
	require.ErrorIs(t, err, service.ErrNotActivated)

	require.NoError(t, h.users.Activate(context.Background(), user.ID, time.Now()))

	got, err := h.svc.Authenticate(context.Background(), "ALICE@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = h.svc.Authenticate(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = h.svc.Authenticate(context.Background(), "nobody@example.com", "secret1")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRememberForget(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	token, err := h.svc.Remember(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, token, credentials.TokenLength)

	require.True(t, h.svc.Authenticated(user, service.TokenRemember, token))
	require.False(t, h.svc.Authenticated(user, service.TokenRemember, "bogus"))

	require.NoError(t, h.svc.Forget(context.Background(), user))
	require.False(t, h.svc.Authenticated(user, service.TokenRemember, token))
}

func TestAuthenticated_MissingDigestFailsClosed(t *testing.T) {
	h := newUserHarness(nil)
	user := &model.User{}

	require.False(t, h.svc.Authenticated(user, service.TokenRemember, "anything"))
	require.False(t, h.svc.Authenticated(user, service.TokenPasswordReset, "anything"))
	require.False(t, h.svc.Authenticated(user, service.TokenPurpose("bogus"), "anything"))
}

func TestActivate(t *testing.T) {
	h := newUserHarness(scriptedTokens("activation-token-00000"))
	h.register(t, "Alice", "alice@example.com", "secret1")

	_, err := h.svc.Activate(context.Background(), "alice@example.com", "wrong-token")
	require.ErrorIs(t, err, service.ErrInvalidToken)

	user, err := h.svc.Activate(context.Background(), "Alice@Example.com", "activation-token-00000")
	require.NoError(t, err)
	require.True(t, user.Activated)
	require.NotNil(t, user.ActivatedAt)

	// A spent activation link cannot re-activate.
	_, err = h.svc.Activate(context.Background(), "alice@example.com", "activation-token-00000")
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestPasswordReset_Flow(t *testing.T) {
	h := newUserHarness(nil)
	registered := h.register(t, "Alice", "alice@example.com", "secret1")

	user, err := h.svc.CreatePasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.Len(t, h.mail.sent, 2) // activation + reset
	require.Equal(t, "password_reset", h.mail.sent[1].kind)

	token := h.mail.sent[1].token

	err = h.svc.ResetPassword(context.Background(), "alice@example.com", token, "newsecret")
	require.NoError(t, err)

	stored := h.users.users[user.ID]
	require.True(t, credentials.Verify(stored.PasswordDigest, "newsecret"))
	// One-shot: the digest is revoked after use.
	require.Nil(t, stored.PasswordResetDigest)

	err = h.svc.ResetPassword(context.Background(), "alice@example.com", token, "another1")
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestResetPassword_RejectsWeakPassword(t *testing.T) {
	h := newUserHarness(nil)
	h.register(t, "Alice", "alice@example.com", "secret1")

	_, err := h.svc.CreatePasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	token := h.mail.sent[1].token

	var verrs model.ValidationErrors
	err = h.svc.ResetPassword(context.Background(), "alice@example.com", token, "")
	require.ErrorAs(t, err, &verrs)

	err = h.svc.ResetPassword(context.Background(), "alice@example.com", token, "abc")
	require.ErrorAs(t, err, &verrs)

	// The failed attempts do not spend the token.
	err = h.svc.ResetPassword(context.Background(), "alice@example.com", token, "newsecret")
	require.NoError(t, err)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	h := newUserHarness(nil)
	_, err := h.svc.CreatePasswordReset(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestPasswordResetExpired_Window(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	sentAt := time.Now().Add(-(time.Hour + 59*time.Minute))
	user.PasswordResetSentAt = &sentAt
	require.False(t, h.svc.PasswordResetExpired(user))

	sentAt = time.Now().Add(-(2*time.Hour + time.Minute))
	require.True(t, h.svc.PasswordResetExpired(user))

	user.PasswordResetSentAt = nil
	require.True(t, h.svc.PasswordResetExpired(user))
}

func TestResetPassword_ExpiredWindow(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	_, err := h.svc.CreatePasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	token := h.mail.sent[1].token

	stale := time.Now().Add(-(2*time.Hour + time.Minute))
	require.NoError(t, h.users.SetPasswordReset(context.Background(),
		user.ID, h.users.users[user.ID].PasswordResetDigest, &stale))

	err = h.svc.ResetPassword(context.Background(), "alice@example.com", token, "newsecret")
	require.ErrorIs(t, err, service.ErrResetExpired)
}

func TestUpdateProfile_PasswordOptional(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")
	oldDigest := h.users.users[user.ID].PasswordDigest

	err := h.svc.UpdateProfile(context.Background(), user, "Alice B", "Alice.B@Example.com", "")
	require.NoError(t, err)

	stored := h.users.users[user.ID]
	require.Equal(t, "Alice B", stored.Name)
	require.Equal(t, "alice.b@example.com", stored.Email)
	require.Equal(t, oldDigest, stored.PasswordDigest)

	err = h.svc.UpdateProfile(context.Background(), user, "Alice B", "alice.b@example.com", "rotated1")
	require.NoError(t, err)
	require.True(t, credentials.Verify(h.users.users[user.ID].PasswordDigest, "rotated1"))
}

func TestUpdateProfile_EmailTakenByOther(t *testing.T) {
	h := newUserHarness(nil)
	h.register(t, "Alice", "alice@example.com", "secret1")
	bob := h.register(t, "Bob", "bob@example.com", "secret1")

	err := h.svc.UpdateProfile(context.Background(), bob, "Bob", "ALICE@example.com", "")

	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestRotateAuthenticationToken(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")
	before := user.AuthenticationToken

	token, err := h.svc.RotateAuthenticationToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEqual(t, before, token)
	require.Equal(t, token, h.users.users[user.ID].AuthenticationToken)
}

func TestServeServingClear(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")
	tableID := h.tables.add("Table 7")

	serving, err := h.svc.Serving(context.Background(), user, tableID)
	require.NoError(t, err)
	require.False(t, serving)

	require.NoError(t, h.svc.Serve(context.Background(), user, tableID))

	serving, err = h.svc.Serving(context.Background(), user, tableID)
	require.NoError(t, err)
	require.True(t, serving)

	// Serving the same table twice is harmless.
	require.NoError(t, h.svc.Serve(context.Background(), user, tableID))

	require.NoError(t, h.svc.Clear(context.Background(), user, tableID))

	serving, err = h.svc.Serving(context.Background(), user, tableID)
	require.NoError(t, err)
	require.False(t, serving)
}

func TestClear_NotServingIsAnError(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")
	tableID := h.tables.add("Table 7")

	err := h.svc.Clear(context.Background(), user, tableID)
	require.ErrorIs(t, err, service.ErrNotServing)
}

func TestServe_UnknownTable(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	err := h.svc.Serve(context.Background(), user, uuid.New())
	require.ErrorIs(t, err, service.ErrTableNotFound)
}

func TestProfile_ListsServedTables(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")
	t1 := h.tables.add("Table 1")
	h.tables.add("Table 2")

	require.NoError(t, h.svc.Serve(context.Background(), user, t1))

	profile, err := h.svc.Profile(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, "Alice", profile.Name)
	require.Len(t, profile.Tables, 1)
	require.Equal(t, "Table 1", profile.Tables[0].Name)
}

func TestAttachPicture_SizeLimit(t *testing.T) {
	h := newUserHarness(nil)
	user := h.register(t, "Alice", "alice@example.com", "secret1")

	err := h.svc.AttachPicture(context.Background(), user, model.MaxPictureSize+1, "user-pictures/x.jpg")
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, "picture", verrs[0].Field)

	require.NoError(t, h.svc.AttachPicture(context.Background(), user, 1024, "user-pictures/x.jpg"))
	require.NotNil(t, h.users.users[user.ID].PictureKey)
}
