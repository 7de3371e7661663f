// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Authenticatable is what the credential verifier and token issuer need to
// know about an account.
type Authenticatable interface {
	Identity() string
	CredentialHash() string
	IsEnabled() bool
	IsEmailVerified() bool
	Authorities() []string
}

// User is the account aggregate. Phones is loaded only by the phone flows.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	LastName      string
	Enabled       bool
	EmailVerified bool
	Roles         []string
	Phones        []*Phone
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var _ Authenticatable = (*User)(nil)

func (u *User) Identity() string       { return u.Email }
func (u *User) CredentialHash() string { return u.PasswordHash }
func (u *User) IsEnabled() bool        { return u.Enabled }
func (u *User) IsEmailVerified() bool  { return u.EmailVerified }

// Authorities returns the role names in stored order with duplicates removed.
func (u *User) Authorities() []string {
	out := make([]string, 0, len(u.Roles))
	seen := make(map[string]struct{}, len(u.Roles))
	for _, r := range u.Roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// MarkVerified is applied when a verification token is redeemed.
func (u *User) MarkVerified() {
	u.EmailVerified = true
	u.Enabled = true
}

// CanAddPhone reports whether the user is below the phone limit.
func (u *User) CanAddPhone() bool {
	return len(u.Phones) < common.MaxPhonesPerUser
}

// AddPhone appends p and points it back at u. When p is primary every other
// phone loses the flag; the demoted phones are returned so callers can
// persist them.
func (u *User) AddPhone(p *Phone) ([]*Phone, error) {
	if !u.CanAddPhone() {
		return nil, common.ErrPhoneLimitExceeded
	}

	var demoted []*Phone
	if p.IsPrimary {
		for _, other := range u.Phones {
			if other.IsPrimary {
				other.IsPrimary = false
				demoted = append(demoted, other)
			}
		}
	}

	p.UserID = u.ID
	u.Phones = append(u.Phones, p)
	return demoted, nil
}

// RemovePhone detaches the phone with the given id and clears its owner.
// Removing the primary phone does not promote another one.
func (u *User) RemovePhone(phoneID string) (*Phone, error) {
	for i, p := range u.Phones {
		if p.ID != phoneID {
			continue
		}
		u.Phones = append(u.Phones[:i:i], u.Phones[i+1:]...)
		p.UserID = ""
		return p, nil
	}
	return nil, common.ErrorNotFound
}

// PrimaryPhone returns the primary phone or nil.
func (u *User) PrimaryPhone() *Phone {
	for _, p := range u.Phones {
		if p.IsPrimary {
			return p
		}
	}
	return nil
}
