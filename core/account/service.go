package account

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/schoolsite/core"
)

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Account, error)
}

var NowFunc = time.Now // mockable

// StaticAuthenticator accepts the single admin account of the configuration.
type StaticAuthenticator struct {
	email        string
	passwordHash string
}

var _ Authenticator = (*StaticAuthenticator)(nil)

func NewStaticAuthenticator(conf *core.Config) *StaticAuthenticator {
	return &StaticAuthenticator{
		email:        conf.Admin.Email,
		passwordHash: conf.Admin.PasswordHash,
	}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, creds Credentials) (Account, error) {
	email := core.CleanString(creds.Email, true /* lower */)
	if a.passwordHash == "" || email != a.email {
		return Account{}, ErrInvalidCredentials
	}
	if err := CheckPassword(a.passwordHash, creds.Password); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return Account{Email: email, Name: "Administrator", LastLogin: NowFunc().UTC()}, nil
}
