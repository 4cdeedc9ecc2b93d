package models

import (
	"slices"
	"time"
)

// RoleUser is held by every user whether or not it is stored.
const RoleUser = "ROLE_USER"

// OneTimeCode is a short numeric code with its expiry. A lane without a
// pending code is a nil *OneTimeCode, so a code never exists without an
// expiry or the other way round.
type OneTimeCode struct {
	Value     string
	ExpiresAt time.Time
}

// ValidAt reports whether the code is still usable at now.
func (c *OneTimeCode) ValidAt(now time.Time) bool {
	return c != nil && c.ExpiresAt.After(now)
}

// Matches reports whether the code is valid at now and equal to candidate.
// Comparison is on the string form, so "012345" does not match "12345".
func (c *OneTimeCode) Matches(candidate string, now time.Time) bool {
	return c.ValidAt(now) && c.Value == candidate
}

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	IsVerified   bool

	VerificationCode *OneTimeCode
	ResetCode        *OneTimeCode

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveRoles returns the stored roles plus RoleUser, without duplicates.
func (u *User) EffectiveRoles() []string {
	roles := make([]string, 0, len(u.Roles)+1)
	for _, r := range u.Roles {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	if !slices.Contains(roles, RoleUser) {
		roles = append(roles, RoleUser)
	}
	return roles
}

func (u *User) IssueVerificationCode(code string, expiresAt time.Time) {
	u.VerificationCode = &OneTimeCode{Value: code, ExpiresAt: expiresAt}
}

func (u *User) IssueResetCode(code string, expiresAt time.Time) {
	u.ResetCode = &OneTimeCode{Value: code, ExpiresAt: expiresAt}
}

// ExpireVerificationCode drops a verification code that is no longer valid
// at now. It reports whether the user changed and must be persisted.
func (u *User) ExpireVerificationCode(now time.Time) bool {
	if u.VerificationCode == nil || u.VerificationCode.ValidAt(now) {
		return false
	}
	u.VerificationCode = nil
	return true
}

// ExpireResetCode is ExpireVerificationCode for the reset lane.
func (u *User) ExpireResetCode(now time.Time) bool {
	if u.ResetCode == nil || u.ResetCode.ValidAt(now) {
		return false
	}
	u.ResetCode = nil
	return true
}

// MarkVerified flags the account as verified and clears the verification lane.
func (u *User) MarkVerified() {
	u.IsVerified = true
	u.VerificationCode = nil
}

// SetPassword stores a new hash. Any pending reset code is cleared with it.
func (u *User) SetPassword(hash string) {
	u.PasswordHash = hash
	u.ResetCode = nil
}

// PublicUser is the projection of a user that is safe to hand to clients.
type PublicUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name, IsVerified: u.IsVerified}
}

// UserRef is the short user form embedded in event payloads.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Email: u.Email, Name: u.Name}
}
