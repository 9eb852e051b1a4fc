package app

import (
	"fmt"

	"github.com/shandysiswandi/twofa/internal/identity"
	"github.com/shandysiswandi/twofa/internal/twofactor"
)

// initModules builds the account primitives first because the twofactor
// module signs users in through them and the identity module gates its
// login on twofactor.
func (a *App) initModules() error {
	accounts, err := identity.NewAccounts(identity.AccountsDependency{
		DBConn:     a.dbConn,
		Instrument: a.ins,
		Bcrypt:     a.bcrypt,
		JWT:        a.jwt,
		Denylist:   a.denylist,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	if err != nil {
		return fmt.Errorf("identity accounts: %w", err)
	}

	gate, err := twofactor.New(twofactor.Dependency{
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Idemp:      a.idemp,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		HMAC:       a.hmac,
		Token:      a.token,
		Totp:       a.totp,
		QR:         a.qr,
		Clock:      a.clock,
		Validator:  a.validator,
		Accounts:   accounts,
	})
	if err != nil {
		return fmt.Errorf("twofactor: %w", err)
	}

	if err := identity.New(identity.Dependency{
		Accounts:   accounts,
		TwoFactor:  gate,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Messaging:  a.messaging,
		Instrument: a.ins,
		Clock:      a.clock,
		Validator:  a.validator,
	}); err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	return nil
}
