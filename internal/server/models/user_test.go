package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOneTimeCode_ValidAndMatches(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	var none *OneTimeCode
	assert.False(t, none.ValidAt(now))
	assert.False(t, none.Matches("123456", now))

	c := &OneTimeCode{Value: "012345", ExpiresAt: now.Add(time.Minute)}
	assert.True(t, c.ValidAt(now))
	assert.True(t, c.Matches("012345", now))
	assert.False(t, c.Matches("12345", now), "comparison is on strings")
	assert.False(t, c.ValidAt(now.Add(time.Minute)), "expiry instant is already invalid")
}

func TestUser_ExpireCodes(t *testing.T) {
	now := time.Now()
	u := &User{}

	assert.False(t, u.ExpireVerificationCode(now), "no code, nothing to clear")

	u.IssueVerificationCode("111111", now.Add(time.Minute))
	assert.False(t, u.ExpireVerificationCode(now))
	assert.NotNil(t, u.VerificationCode)

	u.IssueResetCode("222222", now.Add(-time.Hour))
	assert.True(t, u.ExpireResetCode(now))
	assert.Nil(t, u.ResetCode)
	assert.False(t, u.ExpireResetCode(now), "clearing is idempotent")

	assert.True(t, u.ExpireVerificationCode(now.Add(2*time.Minute)))
	assert.Nil(t, u.VerificationCode)
}

func TestUser_SetPasswordClearsReset(t *testing.T) {
	u := &User{}
	u.IssueResetCode("123456", time.Now().Add(time.Hour))
	u.SetPassword("hash")

	assert.Equal(t, "hash", u.PasswordHash)
	assert.Nil(t, u.ResetCode)
}

func TestUser_MarkVerified(t *testing.T) {
	u := &User{}
	u.IssueVerificationCode("123456", time.Now().Add(time.Hour))
	u.MarkVerified()

	assert.True(t, u.IsVerified)
	assert.Nil(t, u.VerificationCode)
}

func TestUser_EffectiveRoles(t *testing.T) {
	assert.Equal(t, []string{RoleUser}, (&User{}).EffectiveRoles())
	assert.Equal(t, []string{"ROLE_ADMIN", RoleUser}, (&User{Roles: []string{"ROLE_ADMIN", "ROLE_ADMIN"}}).EffectiveRoles())
	assert.Equal(t, []string{RoleUser, "ROLE_ADMIN"}, (&User{Roles: []string{RoleUser, "ROLE_ADMIN"}}).EffectiveRoles())
}

func TestUser_PublicHidesSecrets(t *testing.T) {
	u := &User{ID: "id", Email: "a@x.com", Name: "Ann", PasswordHash: "h", IsVerified: true}
	u.IssueResetCode("123456", time.Now())

	assert.Equal(t, PublicUser{ID: "id", Email: "a@x.com", Name: "Ann", IsVerified: true}, u.Public())
	assert.Equal(t, UserRef{ID: "id", Email: "a@x.com", Name: "Ann"}, u.Ref())
}
