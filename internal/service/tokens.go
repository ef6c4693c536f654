package service

import (
	"time"

	"pos-service/internal/model"
)

// TokenPurpose names the credential slots a user carries besides the
// password. Each digest-backed purpose maps to its columns through
// tokenFields below; the authentication token is separate because it is
// stored in plaintext and compared directly.
type TokenPurpose string

const (
	TokenRemember      TokenPurpose = "remember"
	TokenActivation    TokenPurpose = "activation"
	TokenPasswordReset TokenPurpose = "password_reset"
)

// PasswordResetWindow is how long a password reset stays usable after
// it is issued. One-shot window, no sliding extension.
const PasswordResetWindow = 2 * time.Hour

type tokenFields struct {
	digest func(*model.User) *string
	sentAt func(*model.User) *time.Time
}

var tokenTable = map[TokenPurpose]tokenFields{
	TokenRemember: {
		digest: func(u *model.User) *string { return u.RememberDigest },
	},
	TokenActivation: {
		digest: func(u *model.User) *string { return u.ActivationDigest },
	},
	TokenPasswordReset: {
		digest: func(u *model.User) *string { return u.PasswordResetDigest },
		sentAt: func(u *model.User) *time.Time { return u.PasswordResetSentAt },
	},
}

func digestFor(user *model.User, purpose TokenPurpose) string {
	fields, ok := tokenTable[purpose]
	if !ok {
		return ""
	}
	if d := fields.digest(user); d != nil {
		return *d
	}
	return ""
}
