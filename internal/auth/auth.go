// Package auth verifies Telegram WebApp launch parameters (initData).
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// DefaultMaxAge is how long signed initData stays valid.
const DefaultMaxAge = time.Hour

var (
	// ErrMissingHash is returned when initData carries no hash.
	ErrMissingHash = initdata.ErrSignMissing

	// ErrBadSignature is returned when the hash does not match.
	ErrBadSignature = initdata.ErrSignInvalid

	// ErrExpired is returned when auth_date is missing or older than the max age.
	ErrExpired = initdata.ErrExpired

	// ErrNoUser is returned when the payload has no user id.
	ErrNoUser = errors.New("init data has no user id")
)

// User is the Telegram user embedded in initData.
type User = initdata.User

// Identity is a verified initData payload.
type Identity struct {
	User     User
	AuthDate time.Time
}

// UserID returns the user id as a string.
func (i Identity) UserID() string {
	return strconv.FormatInt(i.User.ID, 10)
}

// Verifier checks initData signatures for one bot.
type Verifier struct {
	token  string
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier creates a verifier for botToken. maxAge <= 0 disables the
// auth_date check.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	return &Verifier{
		token:  botToken,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Verify validates initData and returns the identity it carries.
func (v *Verifier) Verify(raw string) (Identity, error) {
	// Age is checked below against v.now.
	if err := initdata.Validate(raw, v.token, 0); err != nil {
		return Identity{}, err
	}

	data, err := initdata.Parse(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("parse init data: %w", err)
	}

	id := Identity{User: data.User}
	if data.AuthDateRaw > 0 {
		id.AuthDate = data.AuthDate()
	}
	if v.maxAge > 0 && (id.AuthDate.IsZero() || v.now().Sub(id.AuthDate) > v.maxAge) {
		return Identity{}, ErrExpired
	}
	if id.User.ID == 0 {
		return Identity{}, ErrNoUser
	}
	return id, nil
}

// Sign returns values encoded as initData signed for botToken at authDate.
// Any hash or auth_date in values is replaced.
func Sign(botToken string, values url.Values, authDate time.Time) string {
	payload := make(map[string]string, len(values))
	out := url.Values{}
	for k := range values {
		if k == "hash" || k == "auth_date" {
			continue
		}
		payload[k] = values.Get(k)
		out.Set(k, values.Get(k))
	}
	out.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	out.Set("hash", initdata.Sign(payload, botToken, authDate))
	return out.Encode()
}
